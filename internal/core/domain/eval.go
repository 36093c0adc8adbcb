package domain

import (
	"math"
	"slices"
	"time"
)

// EvalCase is one labelled question.
type EvalCase struct {
	Question    string
	ExpectedURL string
}

// EvalResult is the outcome of running one case.
type EvalResult struct {
	Case EvalCase

	// Top1URL is the source of the best hit, empty when nothing matched.
	Top1URL string

	// Match is true when Top1URL equals the expected URL.
	Match bool

	// Latency is the wall time of the query.
	Latency time.Duration
}

// EvalReport summarises an evaluation pass.
type EvalReport struct {
	Results []EvalResult
}

// ExactMatch returns the fraction of cases whose top hit came from the expected source.
func (r *EvalReport) ExactMatch() float64 {
	if len(r.Results) == 0 {
		return 0
	}
	var hits int
	for _, res := range r.Results {
		if res.Match {
			hits++
		}
	}
	return float64(hits) / float64(len(r.Results))
}

// LatencyPercentile returns the p-th percentile (0-100) of query latency,
// linearly interpolated between the closest ranks.
func (r *EvalReport) LatencyPercentile(p float64) time.Duration {
	if len(r.Results) == 0 {
		return 0
	}
	lat := make([]float64, len(r.Results))
	for i, res := range r.Results {
		lat[i] = float64(res.Latency)
	}
	slices.Sort(lat)

	p = math.Max(0, math.Min(100, p))
	rank := p / 100 * float64(len(lat)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	frac := rank - float64(lo)
	return time.Duration(math.Round(lat[lo] + (lat[hi]-lat[lo])*frac))
}
