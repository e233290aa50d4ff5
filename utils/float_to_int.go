// SPDX-License-Identifier: EPL-2.0

package utils

// Float32ToInt16 converts a normalized sample in [-1, 1] to 16-bit PCM.
func Float32ToInt16(x float32) int16 {
	// Clamp and scale
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}

	// Use 32767 for positive max to avoid overflow
	return int16(x * 32767.0)
}

// Int16ToFloat32 converts 16-bit PCM to a float in [-1, 1).
func Int16ToFloat32(v int16) float32 {
	return float32(v) / 32768.0
}

// IntToFloat32 normalizes a signed integer sample of the given bit depth.
// Unknown depths are treated as 16-bit.
func IntToFloat32(v int, bitDepth int) float32 {
	var maxVal float32
	switch bitDepth {
	case 8:
		maxVal = 128.0
	case 24:
		maxVal = 8388608.0
	case 32:
		maxVal = 2147483648.0
	default:
		maxVal = 32768.0
	}

	return float32(v) / maxVal
}
