// Package db reads the three reference tables the pipeline depends on: the
// genome manifest, the GTDB taxonomy and the species ANI radii.
package db

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
)

// Defining possible error
var ErrManifestFormat = errors.New("malformed genome manifest")

// LoadCatalog reads the reference genome manifest and returns genome id to
// assembly path. Each line holds two whitespace-separated tokens: the
// assembly path relative to the manifest's directory, and the bare file
// name. The id is the file name with ext cut off; a file name without ext is
// an error rather than a silently reused id.
//
//	database/GCA/123/456/GCA_123456789.1_genomic.fna.gz GCA_123456789.1_genomic.fna.gz
func LoadCatalog(manifest string, ext string) (map[string]string, error) {
	f, err := os.Open(manifest)
	if err != nil {
		return nil, fmt.Errorf("open genome manifest: %w", err)
	}
	defer f.Close()

	genomeDir := path.Dir(manifest)

	refs := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: line %d: want 2 columns, got %d", ErrManifestFormat, lineno, len(fields))
		}
		relPath, fname := fields[0], fields[1]
		id, found := strings.CutSuffix(fname, ext)
		if !found || id == "" {
			return nil, fmt.Errorf("%w: line %d: %q does not end in %q", ErrManifestFormat, lineno, fname, ext)
		}
		refs[id] = path.Join(genomeDir, relPath)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read genome manifest: %w", err)
	}
	return refs, nil
}
