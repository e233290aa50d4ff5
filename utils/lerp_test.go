// SPDX-License-Identifier: EPL-2.0

package utils

import (
	"math"
	"testing"
)

func TestLerp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		a, b, x   float32
		want      float32
		tolerance float32
	}{
		{name: "start", a: 1, b: 2, x: 0, want: 1},
		{name: "end", a: 1, b: 2, x: 1, want: 2},
		{name: "midpoint", a: 1, b: 2, x: 0.5, want: 1.5, tolerance: 1e-6},
		{name: "negative span", a: 0.5, b: -0.5, x: 0.25, want: 0.25, tolerance: 1e-6},
		{name: "flat", a: 0.3, b: 0.3, x: 0.7, want: 0.3, tolerance: 1e-6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Lerp(tt.a, tt.b, tt.x)
			diff := float32(math.Abs(float64(got - tt.want)))
			if diff > tt.tolerance {
				t.Errorf("Lerp(%v, %v, %v) = %v, want %v", tt.a, tt.b, tt.x, got, tt.want)
			}
		})
	}
}

// TestLerpExactEndpoints checks the endpoints without tolerance.
func TestLerpExactEndpoints(t *testing.T) {
	t.Parallel()

	for i := range 100 {
		a := float32(i) * 0.013
		b := float32(100-i) * -0.071

		if got := Lerp(a, b, 0); got != a {
			t.Errorf("Lerp(%v, %v, 0) = %v, want %v", a, b, got, a)
		}
		if got := Lerp(a, b, 1); got != b {
			t.Errorf("Lerp(%v, %v, 1) = %v, want %v", a, b, got, b)
		}
	}
}

func BenchmarkLerp(b *testing.B) {
	var result float32

	b.ResetTimer()
	b.ReportAllocs()

	for i := range b.N {
		result = Lerp(0.25, -0.75, float32(i%100)/100)
	}

	_ = result
}

func TestLerp_ZeroAllocs(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping allocation test in short mode")
	}

	allocs := testing.AllocsPerRun(1000, func() {
		_ = Lerp(0.5, 1.0, 0.5)
	})

	if allocs > 0 {
		t.Errorf("Lerp allocated %v times, want 0", allocs)
	}
}
