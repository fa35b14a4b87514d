package ani

// BuildCandidates decides which reference genomes each query is compared
// against: all of them, or only those the sketch engine kept. Every query
// id ends up as a key, even with an empty candidate set, so a query pruned
// to nothing still reaches the reports.
func BuildCandidates(queries, refs map[string]string, sketch SketchEngine, params SketchParams) (CandidateSet, error) {
	candidates := make(CandidateSet, len(queries))
	for qid := range queries {
		candidates[qid] = make(map[string]struct{})
	}

	if sketch == nil {
		for qid := range candidates {
			for rid := range refs {
				candidates[qid][rid] = struct{}{}
			}
		}
		return candidates, nil
	}

	hits, err := sketch.Distances(queries, refs, params)
	if err != nil {
		return nil, err
	}
	for qid, refHits := range hits {
		set, ok := candidates[qid]
		if !ok {
			set = make(map[string]struct{})
			candidates[qid] = set
		}
		for rid := range refHits {
			set[rid] = struct{}{}
		}
	}
	return candidates, nil
}
