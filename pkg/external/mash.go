package external

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/yumyai/anirep/internal/util"
	"github.com/yumyai/anirep/pkg/ani"
)

const (
	qrySketchSuffix = ".user_query_sketch.msh"
	refSketchSuffix = ".gtdb_ref_sketch.msh"
	distSuffix      = ".mash_distances.tsv"
)

var (
	ErrSketchMismatch = errors.New("existing mash sketch was built from a different genome set")
	ErrMashOutput     = errors.New("unexpected mash output")
)

var mashVersionRe = regexp.MustCompile(`Mash version (.+)`)

// Mash wraps the mash binary for sketch-based candidate prefiltering. All of
// its intermediates (both sketches and the distance table) live under outDir
// and survive the run.
type Mash struct {
	log    *zap.Logger
	cpus   int
	outDir string
	prefix string
}

func NewMash(log *zap.Logger, cpus int, outDir, prefix string) *Mash {
	return &Mash{
		log:    log,
		cpus:   cpus,
		outDir: outDir,
		prefix: prefix,
	}
}

// Version reports the mash release, or "unknown" when the banner cannot be
// parsed. Running mash without arguments prints usage with the version on
// stdout.
func (m *Mash) Version() string {
	out, _ := exec.Command("mash").Output()
	match := mashVersionRe.FindSubmatch(out)
	if match == nil {
		return "unknown"
	}
	return strings.TrimSpace(string(match[1]))
}

// Distances sketches both genome sets and returns, per query id, the
// references within params.MaxDist. Sketch files already on disk are reused
// after verifying they cover exactly the requested genomes.
func (m *Mash) Distances(queries, refs map[string]string, params ani.SketchParams) (map[string]map[string]ani.SketchDist, error) {
	if err := util.MakeSurePath(m.outDir); err != nil {
		return nil, fmt.Errorf("create mash directory: %w", err)
	}

	qrySketch := path.Join(m.outDir, m.prefix+qrySketchSuffix)
	if err := m.sketch(queries, qrySketch, params); err != nil {
		return nil, err
	}

	refSketch, err := m.refSketchPath(params.DBPath)
	if err != nil {
		return nil, err
	}
	if err := m.sketch(refs, refSketch, params); err != nil {
		return nil, err
	}

	distFile := path.Join(m.outDir, m.prefix+distSuffix)
	if err := m.dist(refSketch, qrySketch, distFile, params); err != nil {
		return nil, err
	}

	return readDistances(distFile, queries, refs, params.MaxDist)
}

// refSketchPath places the reference sketch in the run's mash directory, or
// at the caller-provided database path so later runs can reuse it.
func (m *Mash) refSketchPath(dbPath string) (string, error) {
	if dbPath == "" {
		return path.Join(m.outDir, m.prefix+refSketchSuffix), nil
	}
	if !strings.HasSuffix(dbPath, ".msh") {
		dbPath += ".msh"
	}
	if err := util.MakeSurePath(path.Dir(dbPath)); err != nil {
		return "", fmt.Errorf("create mash database directory: %w", err)
	}
	return dbPath, nil
}

// sketch generates sketchPath for the genome set, or reuses a file already
// there after verification.
func (m *Mash) sketch(genomes map[string]string, sketchPath string, params ani.SketchParams) error {
	if _, err := os.Stat(sketchPath); err == nil {
		m.log.Info("Reusing existing mash sketch.", zap.String("path", sketchPath))
		return m.verify(genomes, sketchPath)
	}

	// mash reads the genome list from a file (-l); keep it in a scratch dir.
	tmpDir, err := os.MkdirTemp("", "anirep_mash_")
	if err != nil {
		return fmt.Errorf("create mash scratch dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	listPath := path.Join(tmpDir, "genomes.txt")
	var list bytes.Buffer
	for _, gid := range util.SortedKeys(genomes) {
		list.WriteString(genomes[gid])
		list.WriteString("\n")
	}
	if err := os.WriteFile(listPath, list.Bytes(), 0644); err != nil {
		return fmt.Errorf("write mash genome list: %w", err)
	}

	args := []string{
		"sketch", "-l",
		"-p", strconv.Itoa(m.cpus),
		listPath,
		"-o", sketchPath,
		"-k", strconv.Itoa(params.K),
		"-s", strconv.Itoa(params.SketchSize),
	}
	cmd := exec.Command("mash", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("mash sketch failed: %w: %s", err, bytes.TrimSpace(output))
	}
	return nil
}

// verify compares the paths inside an existing sketch against the genome set
// it is about to stand in for.
func (m *Mash) verify(genomes map[string]string, sketchPath string) error {
	out, err := exec.Command("mash", "info", "-t", sketchPath).Output()
	if err != nil {
		return fmt.Errorf("mash info failed on %s: %w", sketchPath, err)
	}
	sketched, err := parseSketchPaths(out)
	if err != nil {
		return err
	}

	want := make(map[string]struct{}, len(genomes))
	for _, gpath := range genomes {
		want[gpath] = struct{}{}
	}
	if len(sketched) != len(want) {
		return fmt.Errorf("%w: %s", ErrSketchMismatch, sketchPath)
	}
	for gpath := range want {
		if _, ok := sketched[gpath]; !ok {
			return fmt.Errorf("%w: %s", ErrSketchMismatch, sketchPath)
		}
	}
	return nil
}

// parseSketchPaths extracts the sketched file paths from "mash info -t"
// output: a header line, then one tab-separated row per sketch with the path
// in the third column.
func parseSketchPaths(out []byte) (map[string]struct{}, error) {
	sketched := make(map[string]struct{})
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			return nil, fmt.Errorf("%w: mash info row %q", ErrMashOutput, line)
		}
		sketched[fields[2]] = struct{}{}
	}
	return sketched, nil
}

// dist runs mash dist with stdout streamed into distFile.
func (m *Mash) dist(refSketch, qrySketch, distFile string, params ani.SketchParams) error {
	f, err := os.Create(distFile)
	if err != nil {
		return fmt.Errorf("create mash distance file: %w", err)
	}

	args := []string{
		"dist",
		"-p", strconv.Itoa(m.cpus),
		"-d", strconv.FormatFloat(params.MaxDist, 'f', -1, 64),
		"-v", strconv.FormatFloat(params.MaxPValue, 'f', -1, 64),
		refSketch,
		qrySketch,
	}
	cmd := exec.Command("mash", args...)
	cmd.Stdout = f
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		f.Close()
		return fmt.Errorf("mash dist failed: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}
	return f.Close()
}

// readDistances maps the genome paths in the distance table back to ids.
// Rows are "refPath qryPath dist pValue shared", tab-separated, shared being
// "matching/total". Rows beyond maxD are dropped.
func readDistances(distFile string, queries, refs map[string]string, maxD float64) (map[string]map[string]ani.SketchDist, error) {
	pathToQry := invertPaths(queries)
	pathToRef := invertPaths(refs)

	f, err := os.Open(distFile)
	if err != nil {
		return nil, fmt.Errorf("open mash distance file: %w", err)
	}
	defer f.Close()

	hits := make(map[string]map[string]ani.SketchDist)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 5 {
			return nil, fmt.Errorf("%w: mash dist row %q", ErrMashOutput, line)
		}
		dist, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: mash dist row %q", ErrMashOutput, line)
		}
		pValue, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: mash dist row %q", ErrMashOutput, line)
		}
		if dist > maxD {
			continue
		}

		qid, ok := pathToQry[fields[1]]
		if !ok {
			return nil, fmt.Errorf("%w: unknown query path %q", ErrMashOutput, fields[1])
		}
		rid, ok := pathToRef[fields[0]]
		if !ok {
			return nil, fmt.Errorf("%w: unknown reference path %q", ErrMashOutput, fields[0])
		}

		if hits[qid] == nil {
			hits[qid] = make(map[string]ani.SketchDist)
		}
		hits[qid][rid] = ani.SketchDist{Dist: dist, PValue: pValue, Shared: fields[4]}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read mash distance file: %w", err)
	}
	return hits, nil
}

func invertPaths(genomes map[string]string) map[string]string {
	inverted := make(map[string]string, len(genomes))
	for gid, gpath := range genomes {
		inverted[gpath] = gid
	}
	return inverted
}
