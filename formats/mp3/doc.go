// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MP3 (MPEG-1 Audio Layer 3) audio.
//
// Decoding is done by github.com/hajimehoshi/go-mp3, which always yields
// interleaved 16-bit stereo. Mono files therefore decode with the same
// signal on both channels:
//
//	file, _ := os.Open("speech.mp3")
//	source, err := mp3.Decoder{}.Decode(file)
//
// The decoder returns an audio.Source with samples in [-1.0, 1.0].
package mp3
