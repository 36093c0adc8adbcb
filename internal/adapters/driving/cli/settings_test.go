package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kbquery/internal/core/domain"
)

// Test helper functions in settings.go

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSettingsShow(t *testing.T) {
	withServices(t, nil, nil)

	out, err := execute(t, "settings", "show")

	require.NoError(t, err)
	requireContains(t, out,
		"[Index]",
		"Path: data/knowledge_base/index.bin",
		"Provider: Stub (deterministic, no model)",
		"Top K: 5",
		"Directory: (in memory)",
		"Configuration is valid.",
	)
}

func TestSettingsSet(t *testing.T) {
	settings := withServices(t, nil, nil)

	out, err := execute(t, "settings", "set", "query.top_k", "9")
	require.NoError(t, err)
	assert.Contains(t, out, "Set query.top_k = 9")

	got, err := settings.Get()
	require.NoError(t, err)
	assert.Equal(t, 9, got.Query.TopK)
}

func TestSettingsSet_MasksAPIKey(t *testing.T) {
	withServices(t, nil, nil)

	out, err := execute(t, "settings", "set", "embedding.api_key", "sk-1234567890abcdef")

	require.NoError(t, err)
	assert.Contains(t, out, "sk-1...cdef")
	assert.NotContains(t, out, "567890")
}

func TestSettingsSet_InvalidValue(t *testing.T) {
	withServices(t, nil, nil)

	_, err := execute(t, "settings", "set", "chunk.size", "big")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsSet_UnknownKey(t *testing.T) {
	withServices(t, nil, nil)

	_, err := execute(t, "settings", "set", "nope", "1")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsKeys(t *testing.T) {
	withServices(t, nil, nil)

	out, err := execute(t, "settings", "keys")

	require.NoError(t, err)
	requireContains(t, out, "embedding.api_key", "KBQ_EMBEDDING_API_KEY", "index.path", "KBQ_INDEX_PATH")
}

func TestSettingsCheck_Stub(t *testing.T) {
	withServices(t, nil, nil)

	out, err := execute(t, "settings", "check")

	require.NoError(t, err)
	requireContains(t, out, "Configuration is valid.", "OK (stub:")
}

func TestSettingsCheck_Invalid(t *testing.T) {
	settings := withServices(t, nil, nil)
	require.NoError(t, settings.Set("embedding.provider", "openai"))

	_, err := execute(t, "settings", "check")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
