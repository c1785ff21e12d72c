// Package decorr implements the WavPack decorrelation engine: up to 16
// adaptive prediction passes applied in stored order to reconstruct the
// original sample stream from entropy-decoded residuals.
package decorr

// MaxTerms is the largest number of decorrelation passes a block may carry.
const MaxTerms = 16

// MaxTerm bounds the rotating sample-history depth used by terms 1-8.
const MaxTerm = 8

// Pass holds one decorrelation pass's term, delta, weights and rotating
// sample history for both channels (history in the B slots is unused for
// mono streams).
type Pass struct {
	Term     int
	Delta    int32
	WeightA  int32
	WeightB  int32
	SamplesA [MaxTerm]int32
	SamplesB [MaxTerm]int32
}
