package ani

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCandidatesExhaustive(t *testing.T) {
	queries := map[string]string{"q1": "/q/q1.fna", "q2": "/q/q2.fna"}
	refs := map[string]string{"r1": "/r/r1.fna.gz", "r2": "/r/r2.fna.gz"}

	candidates, err := BuildCandidates(queries, refs, nil, SketchParams{})
	require.NoError(t, err)

	require.Len(t, candidates, 2)
	for qid := range queries {
		assert.Equal(t, map[string]struct{}{"r1": {}, "r2": {}}, candidates[qid])
	}
}

func TestBuildCandidatesPrefiltered(t *testing.T) {
	queries := map[string]string{"q1": "/q/q1.fna", "q2": "/q/q2.fna"}
	refs := map[string]string{"r1": "/r/r1.fna.gz", "r2": "/r/r2.fna.gz"}
	sketch := &fakeSketch{hits: map[string]map[string]SketchDist{
		"q1": {"r2": {Dist: 0.01, PValue: 0, Shared: "857/1000"}},
	}}

	candidates, err := BuildCandidates(queries, refs, sketch, SketchParams{MaxDist: 0.1})
	require.NoError(t, err)

	require.Len(t, candidates, 2)
	assert.Equal(t, map[string]struct{}{"r2": {}}, candidates["q1"])
	assert.Empty(t, candidates["q2"], "a query pruned to nothing keeps its empty entry")
}

func TestBuildCandidatesSketchError(t *testing.T) {
	sketch := &fakeSketch{err: errors.New("sketch failed")}

	_, err := BuildCandidates(map[string]string{"q1": "/q/q1.fna"}, nil, sketch, SketchParams{})
	assert.Error(t, err)
}
