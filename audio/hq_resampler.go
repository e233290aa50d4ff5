// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Quality selects the resampling algorithm used by Normalize.
type Quality int

const (
	// QualityLinear uses the streaming linear-interpolation Resampler.
	QualityLinear Quality = iota
	// QualityHigh uses a windowed-sinc resampler.
	QualityHigh
)

func (q Quality) String() string {
	switch q {
	case QualityLinear:
		return "linear"
	case QualityHigh:
		return "high"
	}
	return fmt.Sprintf("Quality(%d)", int(q))
}

// ParseQuality maps "linear" / "high" to a Quality.
func ParseQuality(s string) (Quality, error) {
	switch s {
	case "", "linear":
		return QualityLinear, nil
	case "high", "hq":
		return QualityHigh, nil
	}
	return QualityLinear, fmt.Errorf("unknown resampler quality %q", s)
}

// resampleHQ converts a mono buffer between rates in one pass. The filter
// tail is flushed and the result holds exactly
// len(samples)*dstRate/srcRate samples, zero-padded if the flush falls short.
func resampleHQ(samples []float32, srcRate, dstRate int) ([]float32, error) {
	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(srcRate),
		OutputRate: float64(dstRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}

	out, err := rs.ProcessFloat32(samples)
	if err != nil {
		return nil, fmt.Errorf("resample error: %w", err)
	}

	tail, err := rs.Flush()
	if err != nil {
		return nil, fmt.Errorf("resample flush error: %w", err)
	}
	for _, x := range tail {
		out = append(out, float32(x))
	}

	want := hqLength(len(samples), srcRate, dstRate)
	if len(out) >= want {
		return out[:want:want], nil
	}
	return append(out, make([]float32, want-len(out))...), nil
}

// hqLength is floor(n * dst / src).
func hqLength(n, srcRate, dstRate int) int {
	return int(int64(n) * int64(dstRate) / int64(srcRate))
}
