package analysis

import (
	"fmt"
	"math/rand"

	"github.com/montanaflynn/stats"

	"orderlens/internal/errors"
)

// BootstrapResult holds the output of one bootstrap comparison of two
// groups' means. Diffs keeps the full resample distribution for plotting.
type BootstrapResult struct {
	GroupA       string
	GroupB       string
	ObservedDiff float64
	MeanDiff     float64
	CILower      float64
	CIUpper      float64
	CILowPct     float64 // percentile of CILower, e.g. 2.5
	CIHighPct    float64 // percentile of CIUpper, e.g. 97.5
	Resamples    int
	Seed         int64
	Diffs        []float64
}

// ConfidenceLevel returns the nominal CI coverage in percent, e.g. 95 for
// the 2.5/97.5 band.
func (r BootstrapResult) ConfidenceLevel() float64 {
	return r.CIHighPct - r.CILowPct
}

// Excludes reports whether the confidence interval excludes v.
func (r BootstrapResult) Excludes(v float64) bool {
	return v < r.CILower || v > r.CIUpper
}

// BootstrapDiff resamples each group with replacement and computes the
// difference of group means per resample. ciLow and ciHigh are percentile
// bounds in [0, 100]. Results are deterministic for a fixed seed.
func BootstrapDiff(groupA, groupB []float64, resamples int, seed int64, ciLow, ciHigh float64) (BootstrapResult, error) {
	if len(groupA) == 0 || len(groupB) == 0 {
		return BootstrapResult{}, errors.NewValidationError("bootstrap groups must be non-empty")
	}
	if resamples < 1 {
		return BootstrapResult{}, errors.NewValidationError(fmt.Sprintf("resamples must be positive, got %d", resamples))
	}
	if ciLow <= 0 || ciHigh > 100 || ciLow >= ciHigh {
		return BootstrapResult{}, errors.NewValidationError(fmt.Sprintf("invalid CI percentiles [%g, %g]", ciLow, ciHigh))
	}

	meanA, err := stats.Mean(groupA)
	if err != nil {
		return BootstrapResult{}, errors.NewValidationError("group A mean: " + err.Error())
	}
	meanB, err := stats.Mean(groupB)
	if err != nil {
		return BootstrapResult{}, errors.NewValidationError("group B mean: " + err.Error())
	}

	rng := rand.New(rand.NewSource(seed))
	diffs := make([]float64, resamples)
	for i := 0; i < resamples; i++ {
		diffs[i] = resampleMean(rng, groupA) - resampleMean(rng, groupB)
	}

	meanDiff, err := stats.Mean(diffs)
	if err != nil {
		return BootstrapResult{}, errors.NewValidationError("bootstrap mean: " + err.Error())
	}
	lower, err := Quantile(diffs, ciLow)
	if err != nil {
		return BootstrapResult{}, errors.NewValidationError("bootstrap lower percentile: " + err.Error())
	}
	upper, err := Quantile(diffs, ciHigh)
	if err != nil {
		return BootstrapResult{}, errors.NewValidationError("bootstrap upper percentile: " + err.Error())
	}

	return BootstrapResult{
		ObservedDiff: meanA - meanB,
		MeanDiff:     meanDiff,
		CILower:      lower,
		CIUpper:      upper,
		CILowPct:     ciLow,
		CIHighPct:    ciHigh,
		Resamples:    resamples,
		Seed:         seed,
		Diffs:        diffs,
	}, nil
}

func resampleMean(rng *rand.Rand, group []float64) float64 {
	sum := 0.0
	for i := 0; i < len(group); i++ {
		sum += group[rng.Intn(len(group))]
	}
	return sum / float64(len(group))
}
