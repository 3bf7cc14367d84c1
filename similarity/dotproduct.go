package similarity

// DotProduct computes the dot product between two vectors.
// No normalization is applied, so results depend on vector magnitudes.
// Accumulation happens in float64 to keep distances stable across large dimensions.
func DotProduct(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}

	return dot
}
