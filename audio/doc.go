// SPDX-License-Identifier: EPL-2.0

// Package audio provides the PCM primitives used ahead of feature extraction.
//
// This package contains:
//   - Waveform, an immutable interleaved 16-bit PCM buffer
//   - Signal, a mono float32 buffer at a known rate
//   - Source interface for streaming float32 audio
//   - Resampler for linear-interpolation sample rate conversion
//   - MonoMixer and ChannelSelector for channel reduction
//   - Normalize, which turns a Waveform into an EncoderRate Signal
//   - Format registry for decoder registration
//
// # Source Interface
//
// The Source interface is the foundation of audio processing:
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// Decoders, the waveform reader and all processors implement this
// interface, so they can be chained together.
//
// # Normalization
//
// Normalize prepares speech for the audio encoder:
//
//	sig, err := audio.Normalize(waveform, audio.NormalizeOptions{
//	    Offset:  250 * time.Millisecond,
//	    Downmix: true,
//	})
//
// The steps are: skip Offset, reduce to mono, peak-normalize when the
// downmix exceeds 1.0, then resample to EncoderRate (16 kHz). An Offset
// past the end of the waveform fails with ErrInsufficientAudio.
//
// Multi-channel audio is summed when Downmix is set; otherwise the channel
// at NormalizeOptions.Channel is selected by stride.
//
// # Resampling
//
// The Resampler changes the sample rate using linear interpolation:
//
//	resampler := audio.NewResampler(source, 16000)
//	buf := make([]float32, 4096)
//	n, err := resampler.ReadSamples(buf)
//
// The number of output samples is decided by the resampler and can differ
// by a sample from the rate-ratio estimate. Always use the count actually
// read. QualityHigh switches Normalize to a windowed-sinc resampler.
//
// # Channel Mixing
//
// MonoMixer averages channels by default; NewMonoMixerMode with MixSum keeps
// the raw sum:
//
//	mono := audio.NewMonoMixer(source)
//
// # Format Registry
//
// The registry allows dynamic decoder registration:
//
//	registry := audio.NewRegistry()
//	registry.Register("wav", wav.Decoder{})
//	decoder, _ := registry.Get(".WAV")
//
// # Sample Format
//
// Audio samples are represented as float32 in the range [-1.0, 1.0]:
//   - 0.0 represents silence
//   - 1.0 represents maximum positive amplitude
//   - -1.0 represents maximum negative amplitude
//
// # Error Handling
//
// Sources return io.EOF when no more data is available:
//
//	for {
//	    n, err := source.ReadSamples(buf)
//	    if err == io.EOF {
//	        break // Normal end of stream
//	    }
//	    if err != nil {
//	        return err // Processing error
//	    }
//	    // Process n samples from buf
//	}
package audio
