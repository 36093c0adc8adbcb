package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func reportWithLatencies(ms ...int) *EvalReport {
	r := &EvalReport{}
	for i, m := range ms {
		r.Results = append(r.Results, EvalResult{Match: i%2 == 0, Latency: time.Duration(m) * time.Millisecond})
	}
	return r
}

func TestEvalReport_ExactMatch(t *testing.T) {
	assert.Zero(t, (&EvalReport{}).ExactMatch())
	assert.InDelta(t, 0.5, reportWithLatencies(1, 2, 3, 4).ExactMatch(), 1e-9)
}

func TestEvalReport_LatencyPercentile(t *testing.T) {
	r := reportWithLatencies(40, 10, 30, 20, 50)

	assert.Equal(t, 30*time.Millisecond, r.LatencyPercentile(50))
	assert.Equal(t, 48*time.Millisecond, r.LatencyPercentile(95))
	assert.Equal(t, 10*time.Millisecond, r.LatencyPercentile(0))
	assert.Equal(t, 50*time.Millisecond, r.LatencyPercentile(150))
	assert.Zero(t, (&EvalReport{}).LatencyPercentile(50))
}
