// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes AIFF (Audio Interchange File Format) audio.
//
// Decoding is done by github.com/go-audio/aiff. Big-endian integer PCM at
// 8, 16, 24 and 32 bits is supported, with any channel count and rate:
//
//	file, _ := os.Open("speech.aif")
//	source, err := aiff.Decoder{}.Decode(file)
//
// The decoder returns an audio.Source with samples in [-1.0, 1.0].
// Inputs that are not seekable are buffered in memory first.
package aiff
