package similarity

// CosineDistance returns 1 - a·b for unit-length vectors.
// 0 means identical direction and 2 means opposite direction.
func CosineDistance(a, b []float32) float64 {
	return 1 - DotProduct(a, b)
}
