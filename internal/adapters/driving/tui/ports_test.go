package tui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/kbquery/internal/core/domain"
)

type mockQueryService struct {
	result *domain.QueryResult
	err    error
}

func (m *mockQueryService) Query(context.Context, string, domain.QueryOptions) (*domain.QueryResult, error) {
	return m.result, m.err
}

func (m *mockQueryService) Reindex(context.Context, string) (*domain.ReindexRun, error) {
	return &domain.ReindexRun{Status: domain.RunSucceeded}, nil
}

func (m *mockQueryService) Health(context.Context) (*domain.HealthStatus, error) {
	return &domain.HealthStatus{Status: "ok"}, nil
}

func (m *mockQueryService) Runs(context.Context, int) ([]domain.ReindexRun, error) {
	return nil, nil
}

func TestPorts_Validate(t *testing.T) {
	assert.NoError(t, (&Ports{Query: &mockQueryService{}}).Validate())
	assert.ErrorIs(t, (&Ports{}).Validate(), ErrMissingQueryService)

	var nilPorts *Ports
	assert.ErrorIs(t, nilPorts.Validate(), ErrInvalidPorts)
}
