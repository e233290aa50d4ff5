// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis audio.
//
// Decoding is done by github.com/jfreymuth/oggvorbis, which already yields
// float32 samples, so values are passed through unchanged:
//
//	file, _ := os.Open("speech.ogg")
//	source, err := vorbis.Decoder{}.Decode(file)
//
// Mono and multi-channel streams at any sample rate are supported.
package vorbis
