package ani

import (
	"sort"

	"github.com/yumyai/anirep/pkg/config"
	"github.com/yumyai/anirep/pkg/db"
	"github.com/yumyai/anirep/pkg/gid"
)

// ClosestHit is the winning reference for one query genome.
type ClosestHit struct {
	RefID       string
	ANI         float64
	AF          float64
	MeetsRadius bool
}

// Closest records the selection outcome for one query. The two "no winner"
// cases render differently in the closest report, so they stay distinct
// here: Compared false means the query never produced a comparison result;
// Compared true with a nil Hit means it was compared but nothing cleared the
// alignment-fraction filter.
type Closest struct {
	Compared bool
	Hit      *ClosestHit
}

type scoredRef struct {
	refID string
	ani   float64
	af    float64
}

// SelectClosest picks, per query id, the best reference hit among those with
// an alignment fraction of at least minAF. Candidates are ranked by ANI
// descending, then AF descending; ties beyond that go to the lower reference
// id so the winner never depends on map order. The winner is then classified
// against its species circumscription radius: it satisfies the radius when
// its ANI reaches the radius and its AF reaches the fixed config.AFThreshold
// (not minAF).
func SelectClosest(table SimilarityTable, queryIDs []string, minAF float64, radii *db.Radii) (map[string]Closest, error) {
	selected := make(map[string]Closest, len(queryIDs))

	for _, qid := range queryIDs {
		hits, ok := table[qid]
		if !ok {
			selected[qid] = Closest{Compared: false}
			continue
		}

		qualified := make([]scoredRef, 0, len(hits))
		for rid, rec := range hits {
			if rec.AF >= minAF {
				qualified = append(qualified, scoredRef{refID: rid, ani: rec.ANI, af: rec.AF})
			}
		}
		if len(qualified) == 0 {
			selected[qid] = Closest{Compared: true}
			continue
		}

		sort.Slice(qualified, func(i, j int) bool {
			if qualified[i].ani != qualified[j].ani {
				return qualified[i].ani > qualified[j].ani
			}
			if qualified[i].af != qualified[j].af {
				return qualified[i].af > qualified[j].af
			}
			return qualified[i].refID < qualified[j].refID
		})
		winner := qualified[0]

		radius, err := radii.RepANI(gid.Canonical(winner.refID))
		if err != nil {
			return nil, err
		}

		selected[qid] = Closest{
			Compared: true,
			Hit: &ClosestHit{
				RefID:       winner.refID,
				ANI:         winner.ani,
				AF:          winner.af,
				MeetsRadius: winner.ani >= radius && winner.af >= config.AFThreshold,
			},
		}
	}

	return selected, nil
}
