package similarity

import "math"

// NormTolerance is the allowed deviation of ‖v‖ from 1.
const NormTolerance = 1e-6

// Norm returns the L2 norm of v.
func Norm(v []float32) float64 {
	return math.Sqrt(DotProduct(v, v))
}

// IsNormalized reports whether v has unit length within NormTolerance.
func IsNormalized(v []float32) bool {
	if len(v) == 0 {
		return false
	}
	return math.Abs(Norm(v)-1) <= NormTolerance
}

// Normalize returns a unit-length copy of v. A zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	n := Norm(v)
	if n == 0 {
		copy(out, v)
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / n)
	}
	return out
}
