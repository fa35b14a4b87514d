// Package ani selects the closest reference genome per query genome from
// pairwise average nucleotide identity results and writes the two run
// reports. The expensive work (sketch distances, ANI itself) is delegated to
// engines behind the SketchEngine and ANIEngine interfaces.
package ani

// SimilarityRecord holds the two metrics reported for one compared genome
// pair.
type SimilarityRecord struct {
	ANI float64 // percentage-like, 0-100
	AF  float64 // aligned fraction, 0-1
}

// SimilarityTable is the sparse pair table: query id -> reference id ->
// record. A missing key means the pair produced no comparison result, which
// downstream treats differently from a zero score.
type SimilarityTable map[string]map[string]SimilarityRecord

// CandidateSet maps each query genome to the reference genomes it will be
// compared against. A query with nothing to compare keeps an empty entry so
// the reports can still account for it.
type CandidateSet map[string]map[string]struct{}

// SketchParams are the knobs forwarded to the sketch-distance engine.
type SketchParams struct {
	MaxDist    float64 // drop candidate pairs further apart than this
	K          int     // k-mer size
	MaxPValue  float64 // drop candidate pairs above this p-value
	SketchSize int     // maximum non-redundant hashes per sketch
	DBPath     string  // optional precomputed reference sketch database
}

// SketchDist is one sketch-distance hit between a query and a reference.
type SketchDist struct {
	Dist   float64
	PValue float64
	Shared string // matching/total hashes, as reported by the engine
}

// SketchEngine prunes the exhaustive comparison set with an approximate
// distance before the exact ANI stage. Queries without hits may be absent
// from the result.
type SketchEngine interface {
	Version() string
	Distances(queries, refs map[string]string, params SketchParams) (map[string]map[string]SketchDist, error)
}

// ANIEngine computes the pairwise similarity table for a candidate set,
// resolving genome ids through the given path lookup. Implementations must
// fail the whole computation on any engine error rather than return a
// partial table.
type ANIEngine interface {
	Version() string
	Compute(candidates CandidateSet, paths map[string]string) (SimilarityTable, error)
}
