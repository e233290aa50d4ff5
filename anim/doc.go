// SPDX-License-Identifier: EPL-2.0

// Package anim turns rig tracks into a playable animation asset.
//
// [Resample] converts a track from the embedding rate to the output frame
// rate by linear interpolation, producing one name->value [Frame] per
// output frame. [Merge] joins the frames of several tracks. An [Assembler]
// then maps each frame through a rig.Mapper and appends the values as keys
// on named [Curve]s of an [Asset].
//
// The curve set of an asset is fixed by the first frame that carries any
// values. Later frames are matched by control name, so a frame missing a
// control leaves a gap in that curve instead of shifting its neighbours.
package anim
