package cli

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withVersion(t *testing.T, v string) {
	t.Helper()
	prev := version
	version = v
	t.Cleanup(func() { version = prev })
}

func TestVersion(t *testing.T) {
	withServices(t, &mockQueryService{}, &mockIngestService{})
	withVersion(t, "1.2.3")

	out, err := execute(t, "version")

	require.NoError(t, err)
	requireContains(t, out, "kbquery version 1.2.3", runtime.Version(), runtime.GOOS+"/"+runtime.GOARCH)
}

func TestVersion_Short(t *testing.T) {
	withServices(t, &mockQueryService{}, &mockIngestService{})
	withVersion(t, "dev")

	out, err := execute(t, "version", "--short")

	require.NoError(t, err)
	assert.Equal(t, "dev", strings.TrimSpace(out))
}

func TestVersion_RejectsArgs(t *testing.T) {
	withServices(t, &mockQueryService{}, &mockIngestService{})

	_, err := execute(t, "version", "extra")
	assert.Error(t, err)
}
