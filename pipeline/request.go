// SPDX-License-Identifier: EPL-2.0

package pipeline

import (
	"time"

	"github.com/ik5/speechrig/anim"
	"github.com/ik5/speechrig/audio"
	"github.com/ik5/speechrig/rig"
)

// Request is one waveform to animate.
type Request struct {
	// ID tags logs; a random one is assigned when empty.
	ID       string
	Waveform *audio.Waveform

	Mood rig.Mood
	// MoodIntensity is clamped to [0, 1].
	MoodIntensity float32

	// FrameRate of the asset; 0 uses the processor default.
	FrameRate float64
	// Offset skips the start of the waveform.
	Offset   time.Duration
	Controls rig.OutputControls
}

// Callbacks receive the outcome of Submit. Exactly one is called.
type Callbacks struct {
	OnCompleted func(asset *anim.Asset)
	// reason names the failing stage, e.g. "normalizing: insufficient audio".
	OnFailed func(reason string, err error)
}

func (cb Callbacks) completed(a *anim.Asset) {
	if cb.OnCompleted != nil {
		cb.OnCompleted(a)
	}
}

func (cb Callbacks) failed(err error) {
	if cb.OnFailed != nil {
		cb.OnFailed(err.Error(), err)
	}
}
