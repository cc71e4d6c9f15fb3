// ABOUTME: Embedding vector helpers: dimension checks and presentation previews
// ABOUTME: Stored vectors are always full length; previews only shorten responses
package models

// ValidateDimension fails with DimensionMismatch when len(vec) != want
func ValidateDimension(vec []float64, want int) error {
	if len(vec) != want {
		return NewError(KindDimensionMismatch, "validate embedding", "embedding has %d dimensions, store expects %d", len(vec), want)
	}
	return nil
}

// Preview returns the first n values of vec; n <= 0 returns the whole vector
func Preview(vec []float64, n int) []float64 {
	if n <= 0 || n >= len(vec) {
		return vec
	}
	out := make([]float64, n)
	copy(out, vec[:n])
	return out
}
