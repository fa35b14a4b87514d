// Package gid normalizes genome accessions.
//
// GTDB reference data refers to the same assembly under several spellings:
// RS_GCF_001234565.1, GCF_001234565.1 and G001234565 are one genome. Taxonomy
// and ANI-radius tables are keyed by the short form, so every lookup goes
// through Canonical first.
package gid

import "strings"

// Canonical strips the source prefix (RS_/GB_), collapses GCA_/GCF_ to G and
// drops the assembly version suffix. Ids starting with U are user genomes and
// pass through unchanged.
func Canonical(id string) string {
	if strings.HasPrefix(id, "U") {
		return id
	}
	id = strings.ReplaceAll(id, "RS_", "")
	id = strings.ReplaceAll(id, "GB_", "")
	id = strings.ReplaceAll(id, "GCA_", "G")
	id = strings.ReplaceAll(id, "GCF_", "G")
	if i := strings.Index(id, "."); i >= 0 {
		id = id[:i]
	}
	return id
}
