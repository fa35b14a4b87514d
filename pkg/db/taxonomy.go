package db

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/yumyai/anirep/pkg/gid"
)

const numRanks = 7 // domain through species

var (
	ErrTaxonomyFormat = errors.New("malformed taxonomy file")
	ErrTaxonomyLookup = errors.New("no taxonomy for genome")
)

// Taxonomy maps canonical genome ids to their seven rank names, domain
// through species.
type Taxonomy map[string][]string

// Lineage returns the semicolon-joined lineage of a canonical id. Every
// reference genome must resolve; a miss means the manifest and the taxonomy
// table disagree and the run cannot produce a trustworthy report.
func (t Taxonomy) Lineage(canonicalID string) (string, error) {
	ranks, ok := t[canonicalID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTaxonomyLookup, canonicalID)
	}
	return strings.Join(ranks, ";"), nil
}

// LoadTaxonomy reads the GTDB taxonomy table. Lines hold an accession, a tab
// and the semicolon-joined lineage:
//
//	RS_GCF_001234565.1	d__Bacteria;p__...;s__...
//
// Accessions are canonicalized on read. A trailing semicolon is tolerated,
// whitespace around ranks is trimmed, and anything but seven ranks is an
// error.
func LoadTaxonomy(file string) (Taxonomy, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("open taxonomy file: %w", err)
	}
	defer f.Close()

	taxonomy := make(Taxonomy)
	scanner := bufio.NewScanner(f)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		id, taxStr, found := strings.Cut(line, "\t")
		if !found {
			return nil, fmt.Errorf("%w: line %d: want 2 columns", ErrTaxonomyFormat, lineno)
		}
		taxStr = strings.TrimRight(strings.TrimSpace(taxStr), ";")
		ranks := strings.Split(taxStr, ";")
		for i := range ranks {
			ranks[i] = strings.TrimSpace(ranks[i])
		}
		if len(ranks) != numRanks {
			return nil, fmt.Errorf("%w: line %d: want %d ranks, got %d", ErrTaxonomyFormat, lineno, numRanks, len(ranks))
		}
		taxonomy[gid.Canonical(id)] = ranks
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read taxonomy file: %w", err)
	}
	return taxonomy, nil
}
