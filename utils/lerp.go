// SPDX-License-Identifier: EPL-2.0

package utils

// Lerp blends a and b by t (0 <= t <= 1).
// t == 0 returns a and t == 1 returns b exactly.
func Lerp(a, b, t float32) float32 {
	return a*(1-t) + b*t
}
