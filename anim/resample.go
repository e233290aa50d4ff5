// SPDX-License-Identifier: EPL-2.0

package anim

import (
	"errors"
	"fmt"
	"math"

	"github.com/ik5/speechrig/rig"
	"github.com/ik5/speechrig/utils"
)

var ErrInvalidFrameRate = errors.New("invalid frame rate")

// MaxFrameRate bounds output frame rates.
const MaxFrameRate = 1000

// CheckFrameRate accepts output rates in [1, MaxFrameRate].
// NaN and infinities are rejected.
func CheckFrameRate(fps float64) error {
	if math.IsNaN(fps) || fps < 1 || fps > MaxFrameRate {
		return fmt.Errorf("%w: %v fps", ErrInvalidFrameRate, fps)
	}
	return nil
}

func validNative(fps float64) bool {
	return fps > 0 && !math.IsInf(fps, 1)
}

// Frame maps control names to values at one output frame.
type Frame map[string]float32

// FrameCount is the number of output frames for n native frames:
// floor(n / nativeFPS * outFPS). Rates outside what Resample accepts
// give 0.
func FrameCount(n int, nativeFPS, outFPS float64) int {
	if n <= 0 || !validNative(nativeFPS) || CheckFrameRate(outFPS) != nil {
		return 0
	}
	return int(math.Floor(float64(n) * outFPS / nativeFPS))
}

// Resample reads track at outFPS. Output frame i samples the native
// position i*nativeFPS/outFPS, clamped to the last native frame, by linear
// interpolation between its neighbours. Positions that land on a native
// frame return its value exactly.
func Resample(track *rig.Track, nativeFPS, outFPS float64) ([]Frame, error) {
	if err := CheckFrameRate(outFPS); err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	if !validNative(nativeFPS) {
		return nil, fmt.Errorf("%w: native %v fps", ErrInvalidFrameRate, nativeFPS)
	}

	n := track.Frames
	count := FrameCount(n, nativeFPS, outFPS)
	names := track.Names()

	out := make([]Frame, count)
	for i := range out {
		pos := min(max(float64(i)*nativeFPS/outFPS, 0), float64(n-1))
		lo := int(math.Floor(pos))
		hi := int(math.Ceil(pos))

		f := make(Frame, len(names))
		if lo == hi {
			row := track.Row(lo)
			for k, name := range names {
				f[name] = row[k]
			}
		} else {
			a, b := track.Row(lo), track.Row(hi)
			t := float32(pos - float64(lo))
			for k, name := range names {
				f[name] = utils.Lerp(a[k], b[k], t)
			}
		}
		out[i] = f
	}

	return out, nil
}

// Merge combines per-track frame slices index by index. The result is as
// long as the longest input; a name present in several inputs takes the
// value from the last one.
func Merge(tracks ...[]Frame) []Frame {
	n := 0
	for _, t := range tracks {
		n = max(n, len(t))
	}

	out := make([]Frame, n)
	for i := range out {
		size := 0
		for _, t := range tracks {
			if i < len(t) {
				size += len(t[i])
			}
		}

		f := make(Frame, size)
		for _, t := range tracks {
			if i >= len(t) {
				continue
			}
			for k, v := range t[i] {
				f[k] = v
			}
		}
		out[i] = f
	}
	return out
}
