package ani

import (
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/yumyai/anirep/internal/util"
	"github.com/yumyai/anirep/pkg/config"
	"github.com/yumyai/anirep/pkg/db"
)

// ANIRep runs the closest-reference classification end to end: reference
// catalog, candidate pruning, similarity computation, reports.
type ANIRep struct {
	log    *zap.Logger
	data   config.Paths
	sketch SketchEngine // nil disables prefiltering
	sim    ANIEngine
}

// New wires the pipeline. A nil sketch engine means every query genome is
// compared against every reference genome.
func New(log *zap.Logger, data config.Paths, sketch SketchEngine, sim ANIEngine) *ANIRep {
	return &ANIRep{
		log:    log,
		data:   data,
		sketch: sketch,
		sim:    sim,
	}
}

// RunParams carries the per-run knobs.
type RunParams struct {
	OutDir string
	Prefix string
	MinAF  float64 // alignment fraction a hit needs to count as closest
	Sketch SketchParams
}

// Run classifies the query genomes and writes both reports into
// params.OutDir.
func (r *ANIRep) Run(queries map[string]string, params RunParams) error {
	r.log.Info("Loading reference genomes.")
	refs, err := db.LoadCatalog(r.data.GenomePathsFile(), config.ManifestExt)
	if err != nil {
		return err
	}
	r.log.Info("Loaded reference genomes.", zap.String("count", humanize.Comma(int64(len(refs)))))

	// Queries and references share one path lookup; on an id collision the
	// reference path wins.
	paths := util.MergeMaps(queries, refs)

	if r.sketch != nil {
		r.log.Info("Pre-filtering candidates with Mash.", zap.String("version", r.sketch.Version()))
	}
	candidates, err := BuildCandidates(queries, refs, r.sketch, params.Sketch)
	if err != nil {
		return err
	}

	r.log.Info("Calculating ANI with FastANI.", zap.String("version", r.sim.Version()))
	table, err := r.sim.Compute(candidates, paths)
	if err != nil {
		return err
	}

	taxonomy, err := db.LoadTaxonomy(r.data.TaxonomyFile())
	if err != nil {
		return err
	}
	radii, err := db.LoadRadii(r.data.RadiiFile())
	if err != nil {
		return err
	}

	summaryPath := SummaryPath(params.OutDir, params.Prefix)
	if err := WriteSummaryFile(summaryPath, table, taxonomy); err != nil {
		return err
	}
	r.log.Info("Summary of results saved.", zap.String("path", summaryPath))

	closestPath := ClosestPath(params.OutDir, params.Prefix)
	if err := WriteClosestFile(closestPath, table, queries, params.MinAF, taxonomy, radii); err != nil {
		return err
	}
	r.log.Info("Closest representative hits saved.", zap.String("path", closestPath))

	return nil
}
