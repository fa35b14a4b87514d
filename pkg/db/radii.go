package db

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/yumyai/anirep/pkg/gid"
)

var (
	ErrRadiiFormat  = errors.New("malformed ANI radii file")
	ErrRadiusLookup = errors.New("no ANI radius for genome")
)

type radiusEntry struct {
	species string
	rep     string
	ani     float64
}

// Radii holds the per-species ANI circumscription radius, indexed both by
// the canonical id of the species representative and by the species label.
type Radii struct {
	byRep     map[string]radiusEntry
	bySpecies map[string]radiusEntry
}

// LoadRadii reads the GTDB radii table. Lines hold three tab-separated
// columns: species label, representative accession, ANI radius.
//
//	s__Escherichia coli	RS_GCF_000005845.2	95.0
func LoadRadii(file string) (*Radii, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("open ANI radii file: %w", err)
	}
	defer f.Close()

	radii := &Radii{
		byRep:     make(map[string]radiusEntry),
		bySpecies: make(map[string]radiusEntry),
	}
	scanner := bufio.NewScanner(f)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: line %d: want 3 columns, got %d", ErrRadiiFormat, lineno, len(fields))
		}
		ani, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad radius %q", ErrRadiiFormat, lineno, fields[2])
		}
		entry := radiusEntry{
			species: fields[0],
			rep:     gid.Canonical(fields[1]),
			ani:     ani,
		}
		radii.byRep[entry.rep] = entry
		radii.bySpecies[entry.species] = entry
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ANI radii file: %w", err)
	}
	return radii, nil
}

// RepANI returns the circumscription radius of a species representative,
// keyed by canonical id.
func (r *Radii) RepANI(canonicalID string) (float64, error) {
	entry, ok := r.byRep[canonicalID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrRadiusLookup, canonicalID)
	}
	return entry.ani, nil
}

// RepSpecies returns the species a representative circumscribes.
func (r *Radii) RepSpecies(canonicalID string) (string, error) {
	entry, ok := r.byRep[canonicalID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrRadiusLookup, canonicalID)
	}
	return entry.species, nil
}

// SpeciesANI returns the circumscription radius of a species label.
func (r *Radii) SpeciesANI(species string) (float64, error) {
	entry, ok := r.bySpecies[species]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrRadiusLookup, species)
	}
	return entry.ani, nil
}

// SpeciesRep returns the canonical id of a species' representative.
func (r *Radii) SpeciesRep(species string) (string, error) {
	entry, ok := r.bySpecies[species]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrRadiusLookup, species)
	}
	return entry.rep, nil
}
