package external

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckDependencies(t *testing.T) {
	require.NoError(t, CheckDependencies("sh"))
}

func TestCheckDependenciesMissing(t *testing.T) {
	err := CheckDependencies("sh", "anirep-no-such-tool")
	assert.ErrorIs(t, err, ErrMissingDependency)
	assert.Contains(t, err.Error(), "anirep-no-such-tool")
}
