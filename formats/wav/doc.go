// SPDX-License-Identifier: EPL-2.0

// Package wav decodes and writes WAV audio.
//
// Decoding is done by github.com/go-audio/wav. Integer PCM at 16, 24 and 32
// bits is accepted, mono or multi-channel, at any sample rate:
//
//	file, _ := os.Open("speech.wav")
//	source, err := wav.Decoder{}.Decode(file)
//	if errors.Is(err, wav.ErrNotWavFile) {
//	    // not RIFF/WAVE
//	}
//
// The decoder returns an audio.Source with samples in [-1.0, 1.0].
//
// # Writing WAV Files
//
// WriteWAV16 emits a canonical 44-byte header followed by 16-bit PCM. It
// only needs an io.Writer, so it can stream to stdout or an HTTP response:
//
//	err := wav.WriteWAV16(os.Stdout, 16000, 1, samples)
//
// WriteWaveform and WriteSignal are shorthands for the audio package types;
// WriteSignal is how a normalized 16 kHz encoder signal is dumped for
// inspection.
package wav
