package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/kbquery/internal/core/domain"
	"github.com/custodia-labs/kbquery/internal/core/ports/driven"
	"github.com/custodia-labs/kbquery/internal/core/ports/driving"
	"github.com/custodia-labs/kbquery/internal/logger"
)

// Ensure EvalService implements the interface.
var _ driving.EvalService = (*EvalService)(nil)

// EvalService scores top-1 retrieval against labelled questions.
type EvalService struct {
	query driving.QueryService
	store driven.EvalStore
	now   func() time.Time
}

// NewEvalService creates an eval service over query.
func NewEvalService(query driving.QueryService, store driven.EvalStore) *EvalService {
	return &EvalService{query: query, store: store, now: time.Now}
}

// Evaluate runs every case through the query service one at a time so each
// latency covers a single embed and search.
func (s *EvalService) Evaluate(ctx context.Context, testPath, outputPath string, topK int) (*domain.EvalReport, error) {
	logger.Section("Evaluating")

	cases, err := s.store.ReadCases(ctx, testPath)
	if err != nil {
		return nil, fmt.Errorf("load cases: %w", err)
	}
	if len(cases) == 0 {
		return nil, fmt.Errorf("%w: no cases in %s", domain.ErrInvalidInput, testPath)
	}

	report := &domain.EvalReport{Results: make([]domain.EvalResult, 0, len(cases))}
	for i, c := range cases {
		start := s.now()
		result, err := s.query.Query(ctx, c.Question, domain.QueryOptions{TopK: topK})
		if err != nil {
			return nil, fmt.Errorf("case %d: %w", i+1, err)
		}
		res := domain.EvalResult{Case: c, Latency: s.now().Sub(start)}
		if result.Answer != nil {
			res.Top1URL = result.Answer.Record.SourceID
		}
		res.Match = res.Top1URL != "" && res.Top1URL == c.ExpectedURL
		logger.Debug("case %d: match=%t in %s", i+1, res.Match, res.Latency)
		report.Results = append(report.Results, res)
	}

	if outputPath != "" {
		if err := s.store.WriteReport(ctx, outputPath, report); err != nil {
			return nil, fmt.Errorf("write report: %w", err)
		}
	}

	logger.Info("EM@1=%.3f over %d cases", report.ExactMatch(), len(report.Results))
	return report, nil
}
