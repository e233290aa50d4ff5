// SPDX-License-Identifier: EPL-2.0

package audiotest

import "math"

// SilencePCM returns frames*channels zero samples.
func SilencePCM(frames, channels int) []int16 {
	return make([]int16, frames*channels)
}

// SinePCM returns an interleaved 16-bit sine tone with the same value on
// every channel. amplitude is a fraction of full scale.
func SinePCM(sampleRate, channels, frames int, frequency, amplitude float64) []int16 {
	out := make([]int16, frames*channels)
	for f := range frames {
		v := int16(amplitude * 32767 * math.Sin(2*math.Pi*frequency*float64(f)/float64(sampleRate)))
		for c := range channels {
			out[f*channels+c] = v
		}
	}
	return out
}

// RampPCM returns a mono ramp where sample i equals i*step, wrapped into
// the int16 range.
func RampPCM(frames int, step int) []int16 {
	out := make([]int16, frames)
	for i := range out {
		out[i] = int16((i * step) % 32768)
	}
	return out
}
