package ckks

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// Precision summarizes the approximation error between a decrypted-and-decoded
// coefficient row and the value it was expected to carry (SPEC_FULL.md section 8's
// scheme-C testable properties, e.g. S2's "decoded vector components differ from 1.0 by
// less than 0.5"): the mean and standard deviation of the per-coefficient absolute
// error, computed with the same statistics package the teacher's own CKKS precision
// harness uses rather than a hand-rolled mean/variance loop.
type Precision struct {
	MeanAbsError float64
	StdDevError  float64
	MaxAbsError  float64
}

// MeasurePrecision compares decoded against expected, which must be the same length.
func MeasurePrecision(decoded, expected []float64) (Precision, error) {
	if len(decoded) != len(expected) {
		return Precision{}, fmt.Errorf("decoded/expected length mismatch: %d != %d", len(decoded), len(expected))
	}

	errs := make(stats.Float64Data, len(decoded))
	maxAbs := 0.0
	for i := range decoded {
		d := decoded[i] - expected[i]
		if d < 0 {
			d = -d
		}
		errs[i] = d
		if d > maxAbs {
			maxAbs = d
		}
	}

	mean, err := errs.Mean()
	if err != nil {
		return Precision{}, fmt.Errorf("computing mean error: %w", err)
	}
	stdDev, err := errs.StandardDeviation()
	if err != nil {
		return Precision{}, fmt.Errorf("computing error standard deviation: %w", err)
	}

	return Precision{MeanAbsError: mean, StdDevError: stdDev, MaxAbsError: maxAbs}, nil
}
