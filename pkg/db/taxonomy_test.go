package db

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLineage = "d__Bacteria;p__Pseudomonadota;c__Gammaproteobacteria;o__Enterobacterales;f__Enterobacteriaceae;g__Escherichia;s__Escherichia coli"

func writeTaxonomy(t *testing.T, content string) string {
	t.Helper()
	file := path.Join(t.TempDir(), "gtdb_taxonomy.tsv")
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))
	return file
}

func TestLoadTaxonomy(t *testing.T) {
	file := writeTaxonomy(t, "RS_GCF_000005845.2\t"+testLineage+"\n")

	taxonomy, err := LoadTaxonomy(file)
	require.NoError(t, err)

	// Keyed by canonical id, not the raw accession.
	lineage, err := taxonomy.Lineage("G000005845")
	require.NoError(t, err)
	assert.Equal(t, testLineage, lineage)

	_, err = taxonomy.Lineage("RS_GCF_000005845.2")
	assert.ErrorIs(t, err, ErrTaxonomyLookup)
}

func TestLoadTaxonomyTrailingSemicolonAndSpaces(t *testing.T) {
	file := writeTaxonomy(t, "GB_GCA_016456235.2\td__Bacteria; p__Pseudomonadota ;c__Gammaproteobacteria;o__Enterobacterales;f__Enterobacteriaceae;g__Escherichia;s__Escherichia coli;\n")

	taxonomy, err := LoadTaxonomy(file)
	require.NoError(t, err)

	lineage, err := taxonomy.Lineage("G016456235")
	require.NoError(t, err)
	assert.Equal(t, testLineage, lineage)
}

func TestLoadTaxonomyRankCount(t *testing.T) {
	file := writeTaxonomy(t, "RS_GCF_000005845.2\td__Bacteria;p__Pseudomonadota\n")

	_, err := LoadTaxonomy(file)
	assert.ErrorIs(t, err, ErrTaxonomyFormat)
	assert.ErrorContains(t, err, "line 1")
}

func TestLoadTaxonomyMissingTab(t *testing.T) {
	file := writeTaxonomy(t, "RS_GCF_000005845.2 "+testLineage+"\n")

	_, err := LoadTaxonomy(file)
	assert.ErrorIs(t, err, ErrTaxonomyFormat)
}
