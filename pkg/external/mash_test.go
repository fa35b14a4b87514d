package external

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeDistFile(t *testing.T, rows string) string {
	t.Helper()
	p := path.Join(t.TempDir(), "dist.tsv")
	require.NoError(t, os.WriteFile(p, []byte(rows), 0644))
	return p
}

func TestReadDistances(t *testing.T) {
	queries := map[string]string{"U_q1": "/data/q1.fna", "U_q2": "/data/q2.fna"}
	refs := map[string]string{"GCF_1": "/db/r1.fna.gz", "GCF_2": "/db/r2.fna.gz"}

	rows := "" +
		"/db/r1.fna.gz\t/data/q1.fna\t0.0123\t0.0001\t450/5000\n" +
		"/db/r2.fna.gz\t/data/q1.fna\t0.3\t0.5\t2/5000\n" +
		"/db/r2.fna.gz\t/data/q2.fna\t0.1\t0.002\t120/5000\n"

	hits, err := readDistances(writeDistFile(t, rows), queries, refs, 0.1)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	got := hits["U_q1"]["GCF_1"]
	assert.Equal(t, 0.0123, got.Dist)
	assert.Equal(t, 0.0001, got.PValue)
	assert.Equal(t, "450/5000", got.Shared)

	// 0.3 is beyond the cutoff; 0.1 sits exactly on it and stays.
	assert.NotContains(t, hits["U_q1"], "GCF_2")
	assert.Contains(t, hits["U_q2"], "GCF_2")
}

func TestReadDistancesUnknownQueryPath(t *testing.T) {
	queries := map[string]string{"U_q1": "/data/q1.fna"}
	refs := map[string]string{"GCF_1": "/db/r1.fna.gz"}

	distFile := writeDistFile(t, "/db/r1.fna.gz\t/data/other.fna\t0.01\t0.001\t9/10\n")
	_, err := readDistances(distFile, queries, refs, 0.1)
	assert.ErrorIs(t, err, ErrMashOutput)
}

func TestReadDistancesUnknownRefPath(t *testing.T) {
	queries := map[string]string{"U_q1": "/data/q1.fna"}
	refs := map[string]string{"GCF_1": "/db/r1.fna.gz"}

	distFile := writeDistFile(t, "/db/other.fna.gz\t/data/q1.fna\t0.01\t0.001\t9/10\n")
	_, err := readDistances(distFile, queries, refs, 0.1)
	assert.ErrorIs(t, err, ErrMashOutput)
}

func TestReadDistancesMalformed(t *testing.T) {
	queries := map[string]string{"U_q1": "/data/q1.fna"}
	refs := map[string]string{"GCF_1": "/db/r1.fna.gz"}

	rows := map[string]string{
		"missing column":        "/db/r1.fna.gz\t/data/q1.fna\t0.01\t0.001\n",
		"distance not a number": "/db/r1.fna.gz\t/data/q1.fna\tnear\t0.001\t9/10\n",
		"p-value not a number":  "/db/r1.fna.gz\t/data/q1.fna\t0.01\tlow\t9/10\n",
	}
	for name, row := range rows {
		t.Run(name, func(t *testing.T) {
			_, err := readDistances(writeDistFile(t, row), queries, refs, 0.1)
			assert.ErrorIs(t, err, ErrMashOutput)
		})
	}
}

func TestParseSketchPaths(t *testing.T) {
	out := "" +
		"#Hashes\tLength\tID\tComment\n" +
		"5000\t4600000\t/db/r1.fna.gz\t[10 seqs] chromosome\n" +
		"5000\t3900000\t/db/r2.fna.gz\tplasmid\n" +
		"\n"

	sketched, err := parseSketchPaths([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{
		"/db/r1.fna.gz": {},
		"/db/r2.fna.gz": {},
	}, sketched)
}

func TestParseSketchPathsShortRow(t *testing.T) {
	_, err := parseSketchPaths([]byte("5000\t4600000\n"))
	assert.ErrorIs(t, err, ErrMashOutput)
}

func TestRefSketchPath(t *testing.T) {
	dir := t.TempDir()
	m := NewMash(zap.NewNop(), 1, path.Join(dir, "mash"), "anirep")

	got, err := m.refSketchPath("")
	require.NoError(t, err)
	assert.Equal(t, path.Join(dir, "mash", "anirep.gtdb_ref_sketch.msh"), got)

	got, err = m.refSketchPath(path.Join(dir, "db", "gtdb_r220"))
	require.NoError(t, err)
	assert.Equal(t, path.Join(dir, "db", "gtdb_r220.msh"), got)
	assert.DirExists(t, path.Join(dir, "db"))

	got, err = m.refSketchPath(path.Join(dir, "db", "gtdb_r220.msh"))
	require.NoError(t, err)
	assert.Equal(t, path.Join(dir, "db", "gtdb_r220.msh"), got)
}
