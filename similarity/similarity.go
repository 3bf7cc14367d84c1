// Package similarity provides the vector arithmetic used by nearest-neighbor search.
package similarity

// DistanceFunc computes a distance between two embedding vectors.
// Lower values indicate greater similarity.
type DistanceFunc func(a, b []float32) float64
