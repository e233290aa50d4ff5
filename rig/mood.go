// SPDX-License-Identifier: EPL-2.0

package rig

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrUnknownMood = errors.New("unknown mood")

// Mood conditions the animation decoder. The zero value lets the model
// infer the mood from the audio.
type Mood int

const (
	MoodAutoDetect Mood = iota
	MoodNeutral
	MoodHappiness
	MoodSadness
	MoodDisgust
	MoodAnger
	MoodSurprise
	MoodFear
	MoodConfidence
	MoodExcitement
	MoodBoredom
	MoodPlayfulness
	MoodConfusion
	moodCount
)

var moodNames = [moodCount]string{
	"auto",
	"neutral",
	"happiness",
	"sadness",
	"disgust",
	"anger",
	"surprise",
	"fear",
	"confidence",
	"excitement",
	"boredom",
	"playfulness",
	"confusion",
}

// Index is the value fed to the decoder: -1 for auto-detect, otherwise the
// mood's position counted from neutral.
func (m Mood) Index() int32 {
	return int32(m) - 1
}

func (m Mood) Valid() bool {
	return m >= MoodAutoDetect && m < moodCount
}

func (m Mood) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Mood(%d)", int(m))
	}
	return moodNames[m]
}

// ParseMood accepts a mood name, case-insensitively. "" and "autodetect"
// both mean MoodAutoDetect.
func ParseMood(s string) (Mood, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "autodetect", "auto_detect", "auto-detect":
		return MoodAutoDetect, nil
	}
	for i, name := range moodNames {
		if s == name {
			return Mood(i), nil
		}
	}
	return MoodAutoDetect, fmt.Errorf("%w: %q", ErrUnknownMood, s)
}

// Moods lists every mood in decoder order.
func Moods() []Mood {
	out := make([]Mood, moodCount)
	for i := range out {
		out[i] = Mood(i)
	}
	return out
}

func (m Mood) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMood, int(m))
	}
	return []byte(m.String()), nil
}

func (m *Mood) UnmarshalText(b []byte) error {
	v, err := ParseMood(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Condition is the decoder's mood input.
type Condition struct {
	Mood      Mood
	Intensity float32
}

// ClampIntensity limits v to [0, 1]. NaN becomes 0.
func ClampIntensity(v float32) float32 {
	if math.IsNaN(float64(v)) {
		return 0
	}
	return max(0, min(v, 1))
}
