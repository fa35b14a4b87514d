// Package config holds the fixed method constants, the default CLI values
// and the layout of the reference data tree under ANIREP_DATA.
package config

import (
	"errors"
	"fmt"
	"path"

	"github.com/yumyai/anirep/internal/util"
)

// EnvDataRoot names the environment variable pointing at the reference data
// root. It may come from the process environment or a .env file.
const EnvDataRoot = "ANIREP_DATA"

// AFThreshold is the alignment fraction the closest hit must reach before it
// can satisfy a species circumscription radius. This is fixed by the method
// and is not the same knob as the --min-af report filter, even though the
// defaults coincide.
const AFThreshold = 0.65

// ManifestExt is the suffix every reference assembly listed in the genome
// manifest carries; the genome id is the file name with this cut off.
const ManifestExt = "_genomic.fna.gz"

// Default CLI values.
const (
	DefaultPrefix    = "anirep"
	DefaultGenomeExt = "fna"
	DefaultCPUs      = 1
	DefaultMashD     = 0.1
	DefaultMashK     = 16
	DefaultMashV     = 1.0
	DefaultMashS     = 5000
	DefaultMinAF     = 0.65
)

var ErrNoDataRoot = errors.New("reference data root (" + EnvDataRoot + ") not usable")

// Paths derives every reference-data location from the root directory.
type Paths struct {
	Root string
}

// NewPaths validates the data root. Pointing the tool at a wrong or missing
// reference tree must fail here, before any classification work starts.
func NewPaths(root string) (Paths, error) {
	if root == "" {
		return Paths{}, fmt.Errorf("%w: variable is empty or unset", ErrNoDataRoot)
	}
	if !util.DirExists(root) {
		return Paths{}, fmt.Errorf("%w: no such directory %s", ErrNoDataRoot, root)
	}
	return Paths{Root: root}, nil
}

// GenomeDir is the directory holding the reference assemblies and their
// manifest.
func (p Paths) GenomeDir() string {
	return path.Join(p.Root, "fastani")
}

// GenomePathsFile is the reference genome manifest.
func (p Paths) GenomePathsFile() string {
	return path.Join(p.GenomeDir(), "genome_paths.tsv")
}

// TaxonomyFile maps canonical reference ids to their GTDB lineage.
func (p Paths) TaxonomyFile() string {
	return path.Join(p.Root, "taxonomy", "gtdb_taxonomy.tsv")
}

// RadiiFile maps species representatives to their ANI circumscription radius.
func (p Paths) RadiiFile() string {
	return path.Join(p.Root, "radii", "gtdb_radii.tsv")
}

// MashDir is where the Mash sketches and distance table for a run live.
func MashDir(outDir string) string {
	return path.Join(outDir, "intermediate_results", "mash")
}
