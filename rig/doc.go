// SPDX-License-Identifier: EPL-2.0

// Package rig predicts facial-rig control tracks from audio embeddings.
//
// A [Predictor] feeds an embedding sequence, a [Mood] and its intensity to
// the animation decoder in a single call and gets back three [Track]s:
// face, blink and head. Their columns are named by a [Controls] table and
// their rows run at the embedding rate.
//
// The decoder speaks in GUI controls (CTRL_C_jaw.ty and friends). A
// [Mapper] turns those into the raw controls a rig actually drives; the
// built-in [TableMapper] reads piecewise-linear segments from YAML.
//
// Both tables ship embedded and can be replaced from files.
package rig
