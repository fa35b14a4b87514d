package external

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/pbenner/threadpool"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"go.uber.org/zap"

	"github.com/yumyai/anirep/internal/util"
	"github.com/yumyai/anirep/pkg/ani"
)

var ErrFastANIOutput = errors.New("unexpected fastANI output")

var fastANIVersionRe = regexp.MustCompile(`version (.+)`)

// FastANI wraps the fastANI binary, running one process per genome pair so a
// single bad comparison cannot take the whole batch down with it.
type FastANI struct {
	log      *zap.Logger
	cpus     int
	progress bool
}

func NewFastANI(log *zap.Logger, cpus int, progress bool) *FastANI {
	return &FastANI{
		log:      log,
		cpus:     cpus,
		progress: progress,
	}
}

// Version reports the fastANI release, or "unknown" when the banner cannot
// be parsed. fastANI prints its version on stderr.
func (f *FastANI) Version() string {
	cmd := exec.Command("fastANI", "-v")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	_ = cmd.Run()
	match := fastANIVersionRe.FindStringSubmatch(stderr.String())
	if match == nil {
		return "unknown"
	}
	return strings.TrimSpace(match[1])
}

type genomePair struct {
	qry string
	ref string
}

// Compute runs fastANI over every candidate pair and assembles the sparse
// similarity table. Pairs without an alignment stay out of the table. Any
// process failure aborts the computation; the remaining jobs are skipped and
// no partial table is returned.
func (f *FastANI) Compute(candidates ani.CandidateSet, paths map[string]string) (ani.SimilarityTable, error) {
	jobs := buildJobs(candidates)
	table := make(ani.SimilarityTable)
	if len(jobs) == 0 {
		return table, nil
	}

	tmpDir, err := os.MkdirTemp("", "anirep_fastani_")
	if err != nil {
		return nil, fmt.Errorf("create fastANI scratch dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	f.log.Info("Comparing genome pairs with fastANI.",
		zap.String("pairs", humanize.Comma(int64(len(jobs)))),
		zap.Int("cpus", f.cpus))

	var pbs *mpb.Progress
	var bar *mpb.Bar
	if f.progress {
		pbs = mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
		bar = pbs.AddBar(int64(len(jobs)),
			mpb.PrependDecorators(
				decor.Name("fastANI: ", decor.WC{W: len("fastANI: "), C: decor.DindentRight}),
				decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
			),
			mpb.AppendDecorators(decor.Percentage()),
		)
	}

	results := make([]*ani.SimilarityRecord, len(jobs))
	pool := threadpool.New(f.cpus, 100*f.cpus)
	poolErr := pool.RangeJob(0, len(jobs), func(i int, pool threadpool.ThreadPool, erf func() error) error {
		if erf() != nil {
			return nil
		}
		rec, aligned, err := f.runPair(tmpDir, jobs[i], paths)
		if err != nil {
			return err
		}
		if aligned {
			results[i] = &rec
		}
		if bar != nil {
			bar.Increment()
		}
		return nil
	})
	if poolErr != nil {
		if bar != nil {
			bar.Abort(true)
			pbs.Wait()
		}
		return nil, poolErr
	}
	if pbs != nil {
		pbs.Wait()
	}

	for i, rec := range results {
		if rec == nil {
			continue
		}
		qid := jobs[i].qry
		if table[qid] == nil {
			table[qid] = make(map[string]ani.SimilarityRecord)
		}
		table[qid][jobs[i].ref] = *rec
	}
	return table, nil
}

// buildJobs flattens the candidate set into pairs, sorted on both keys so
// the job order never depends on map iteration.
func buildJobs(candidates ani.CandidateSet) []genomePair {
	var jobs []genomePair
	for _, qid := range util.SortedKeys(candidates) {
		for _, rid := range util.SortedKeys(candidates[qid]) {
			jobs = append(jobs, genomePair{qry: qid, ref: rid})
		}
	}
	return jobs
}

// runPair executes one fastANI process. aligned is false when fastANI
// produced an empty output file, meaning the pair shares no alignable
// region.
func (f *FastANI) runPair(tmpDir string, pair genomePair, paths map[string]string) (ani.SimilarityRecord, bool, error) {
	var rec ani.SimilarityRecord

	qryPath, ok := paths[pair.qry]
	if !ok {
		return rec, false, fmt.Errorf("no path for query genome %s", pair.qry)
	}
	refPath, ok := paths[pair.ref]
	if !ok {
		return rec, false, fmt.Errorf("no path for reference genome %s", pair.ref)
	}
	outPath := path.Join(tmpDir, uuid.New().String()+".tsv")

	cmd := exec.Command("fastANI", "-q", qryPath, "-r", refPath, "-o", outPath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return rec, false, fmt.Errorf("fastANI failed on %s vs %s: %w: %s",
			pair.qry, pair.ref, err, bytes.TrimSpace(output))
	}

	return parsePairOutput(outPath)
}

// parsePairOutput reads a single-pair fastANI report: query path, reference
// path, ANI, mapped fragments, total fragments. The alignment fraction is
// mapped over total, rounded to two decimals.
func parsePairOutput(outPath string) (ani.SimilarityRecord, bool, error) {
	var rec ani.SimilarityRecord

	raw, err := os.ReadFile(outPath)
	if err != nil {
		return rec, false, fmt.Errorf("read fastANI output: %w", err)
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(raw)), "\n")
	if line == "" {
		return rec, false, nil
	}

	fields := strings.Fields(line)
	if len(fields) != 5 {
		return rec, false, fmt.Errorf("%w: row %q", ErrFastANIOutput, line)
	}
	aniValue, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return rec, false, fmt.Errorf("%w: bad ANI in row %q", ErrFastANIOutput, line)
	}
	mapped, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return rec, false, fmt.Errorf("%w: bad fragment count in row %q", ErrFastANIOutput, line)
	}
	total, err := strconv.ParseFloat(fields[4], 64)
	if err != nil || total == 0 {
		return rec, false, fmt.Errorf("%w: bad fragment count in row %q", ErrFastANIOutput, line)
	}

	rec.ANI = aniValue
	rec.AF = math.Round(mapped/total*100) / 100
	return rec, true, nil
}
