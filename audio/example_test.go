// SPDX-License-Identifier: EPL-2.0

package audio_test

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ik5/speechrig/audio"
	"github.com/ik5/speechrig/internal/audiotest"
)

// Example_resampler streams 44.1kHz audio down to the encoder rate.
func Example_resampler() {
	source := audiotest.NewSineSource(44100, 1, 44100, 440.0) // 1 second
	resampler := audio.NewResampler(source, audio.EncoderRate)

	buf := make([]float32, 4096)
	total := 0
	for {
		n, err := resampler.ReadSamples(buf)
		total += n
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
	}

	fmt.Printf("%d Hz, %d samples\n", resampler.SampleRate(), total)
	// Output: 16000 Hz, 16000 samples
}

// Example_normalize prepares a stereo 44.1kHz waveform for the encoder.
func Example_normalize() {
	// 2 seconds of stereo silence
	waveform, err := audio.NewWaveform(make([]int16, 44100*2*2), 44100, 2)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	sig, err := audio.Normalize(waveform, audio.NormalizeOptions{
		Offset:  time.Second,
		Downmix: true,
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Printf("Sample rate: %d Hz\n", sig.SampleRate)
	fmt.Printf("Samples: %d\n", sig.Len())
	fmt.Printf("Duration: %s\n", sig.Duration())
	// Output:
	// Sample rate: 16000 Hz
	// Samples: 16000
	// Duration: 1s
}

// Example_peakLimit shows loud channels being scaled back after the downmix.
func Example_peakLimit() {
	loud := make([]int16, 16000*2)
	for i := range loud {
		loud[i] = 30000
	}
	waveform, _ := audio.NewWaveform(loud, 16000, 2)

	sig, _ := audio.Normalize(waveform, audio.NormalizeOptions{Downmix: true})

	fmt.Printf("peak %.2f\n", sig.Peak())
	// Output: peak 1.00
}

// Example_channel picks the right channel instead of mixing.
func Example_channel() {
	waveform, _ := audio.NewWaveform([]int16{1000, -1000, 1000, -1000}, 16000, 2)

	sig, _ := audio.Normalize(waveform, audio.NormalizeOptions{Channel: 1})

	fmt.Printf("%d samples, first %.4f\n", sig.Len(), sig.Samples[0])
	// Output: 2 samples, first -0.0305
}

// Example_insufficientAudio shows an offset past the end of the audio.
func Example_insufficientAudio() {
	waveform, _ := audio.NewWaveform(make([]int16, 16000), 16000, 1)

	_, err := audio.Normalize(waveform, audio.NormalizeOptions{Offset: 2 * time.Second})

	fmt.Println(errors.Is(err, audio.ErrInsufficientAudio))
	// Output: true
}
