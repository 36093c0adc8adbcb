package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ""},
		{"invalid input", ErrInvalidInput, KindInvalidInput},
		{"unsupported type", ErrUnsupportedType, KindInvalidInput},
		{"not found", ErrNotFound, KindNotFound},
		{"index unavailable", ErrIndexUnavailable, KindIndexUnavailable},
		{"inconsistent", ErrInconsistentIndex, KindConsistencyViolation},
		{"dimension", ErrDimensionMismatch, KindDimensionMismatch},
		{"provider", ErrEmbeddingUnavailable, KindProviderUnavailable},
		{"busy", ErrReindexInProgress, KindReindexInProgress},
		{"no records", ErrNoValidRecords, KindNoValidRecords},
		{"wrapped", fmt.Errorf("load: %w", ErrIndexUnavailable), KindIndexUnavailable},
		{"foreign", errors.New("disk on fire"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}
