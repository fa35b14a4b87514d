package ani

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/yumyai/anirep/internal/util"
	"github.com/yumyai/anirep/pkg/db"
	"github.com/yumyai/anirep/pkg/gid"
)

const (
	summaryName = "ani_summary.tsv"
	closestName = "ani_closest.tsv"

	summaryHeader = "user_genome\treference_genome\tfastani_ani\tfastani_af\treference_taxonomy"
	closestHeader = summaryHeader + "\tsatisfies_gtdb_circumscription_criteria"

	// noResult fills the columns of a query without a qualifying hit.
	noResult = "no result"
)

// SummaryPath is where the summary report of a run lives.
func SummaryPath(outDir, prefix string) string {
	return path.Join(outDir, prefix+"."+summaryName)
}

// ClosestPath is where the closest-representative report of a run lives.
func ClosestPath(outDir, prefix string) string {
	return path.Join(outDir, prefix+"."+closestName)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteSummary emits one row per comparison result, queries in ascending
// order and each query's hits ordered by AF descending, ANI descending,
// reference id ascending. Note the hit order differs from the closest
// report's selection order, which ranks ANI before AF.
func WriteSummary(w io.Writer, table SimilarityTable, taxonomy db.Taxonomy) error {
	if _, err := io.WriteString(w, summaryHeader+"\n"); err != nil {
		return err
	}

	for _, qid := range util.SortedKeys(table) {
		hits := make([]scoredRef, 0, len(table[qid]))
		for rid, rec := range table[qid] {
			hits = append(hits, scoredRef{refID: rid, ani: rec.ANI, af: rec.AF})
		}
		sort.Slice(hits, func(i, j int) bool {
			if hits[i].af != hits[j].af {
				return hits[i].af > hits[j].af
			}
			if hits[i].ani != hits[j].ani {
				return hits[i].ani > hits[j].ani
			}
			return hits[i].refID < hits[j].refID
		})

		for _, hit := range hits {
			lineage, err := taxonomy.Lineage(gid.Canonical(hit.refID))
			if err != nil {
				return err
			}
			row := strings.Join([]string{qid, hit.refID, formatFloat(hit.ani), formatFloat(hit.af), lineage}, "\t")
			if _, err := io.WriteString(w, row+"\n"); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteClosest emits one row per query genome in ascending id order. A query
// with a winning hit gets the full six columns; a query that was compared
// but had no hit clear minAF gets five "no result" placeholders; a query
// with no comparison result at all gets four. The column-count difference
// between the last two is deliberate and distinguishes the cases in the
// report.
func WriteClosest(w io.Writer, table SimilarityTable, queries map[string]string, minAF float64, taxonomy db.Taxonomy, radii *db.Radii) error {
	queryIDs := util.SortedKeys(queries)
	selected, err := SelectClosest(table, queryIDs, minAF, radii)
	if err != nil {
		return err
	}

	if _, err := io.WriteString(w, closestHeader+"\n"); err != nil {
		return err
	}

	for _, qid := range queryIDs {
		closest := selected[qid]

		var fields []string
		switch {
		case closest.Hit != nil:
			lineage, err := taxonomy.Lineage(gid.Canonical(closest.Hit.RefID))
			if err != nil {
				return err
			}
			fields = []string{
				qid,
				closest.Hit.RefID,
				formatFloat(closest.Hit.ANI),
				formatFloat(closest.Hit.AF),
				lineage,
				strconv.FormatBool(closest.Hit.MeetsRadius),
			}
		case closest.Compared:
			fields = []string{qid, noResult, noResult, noResult, noResult, noResult}
		default:
			fields = []string{qid, noResult, noResult, noResult, noResult}
		}

		if _, err := io.WriteString(w, strings.Join(fields, "\t")+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// WriteSummaryFile writes the summary report in one pass, creating or
// truncating the file.
func WriteSummaryFile(p string, table SimilarityTable, taxonomy db.Taxonomy) error {
	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("create summary report: %w", err)
	}
	bw := bufio.NewWriter(f)
	if err := WriteSummary(bw, table, taxonomy); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write summary report: %w", err)
	}
	return f.Close()
}

// WriteClosestFile writes the closest-representative report in one pass,
// creating or truncating the file.
func WriteClosestFile(p string, table SimilarityTable, queries map[string]string, minAF float64, taxonomy db.Taxonomy, radii *db.Radii) error {
	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("create closest report: %w", err)
	}
	bw := bufio.NewWriter(f)
	if err := WriteClosest(bw, table, queries, minAF, taxonomy, radii); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write closest report: %w", err)
	}
	return f.Close()
}
