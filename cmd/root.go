// Package cmd wires the command line interface around the ANI pipeline.
package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yumyai/anirep/internal/util"
	"github.com/yumyai/anirep/logger"
	"github.com/yumyai/anirep/pkg/ani"
	"github.com/yumyai/anirep/pkg/config"
	"github.com/yumyai/anirep/pkg/external"
)

const version = "0.1.0"

var ErrBatchfileFormat = errors.New("malformed batchfile")

var (
	flagGenomeDir string
	flagBatchfile string
	flagExtension string
	flagOutDir    string
	flagPrefix    string
	flagCPUs      int
	flagNoMash    bool
	flagMashD     float64
	flagMashK     int
	flagMashV     float64
	flagMashS     int
	flagMashDB    string
	flagMinAF     float64
	flagDebug     bool
)

var rootCmd = &cobra.Command{
	Use:   "anirep",
	Short: "Find the closest GTDB representative genomes by ANI",
	Long: `anirep compares query genomes against the GTDB representative set with
fastANI, optionally narrowing the pairs with a mash pre-filter, and reports
the closest representative for each query.`,
	Version:      version,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runRoot,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().StringVar(&flagGenomeDir, "genome-dir", "", "directory with query genomes, one file per genome")
	rootCmd.Flags().StringVar(&flagBatchfile, "batchfile", "", "tab separated file of genome path and genome id")
	rootCmd.Flags().StringVarP(&flagExtension, "extension", "x", config.DefaultGenomeExt, "extension of genome files in --genome-dir")
	rootCmd.Flags().StringVar(&flagOutDir, "out-dir", "", "directory for result files")
	rootCmd.Flags().StringVar(&flagPrefix, "prefix", config.DefaultPrefix, "prefix of result file names")
	rootCmd.Flags().IntVar(&flagCPUs, "cpus", config.DefaultCPUs, "number of fastANI and mash processes")
	rootCmd.Flags().BoolVar(&flagNoMash, "no-mash", false, "skip the mash pre-filter and compare every pair")
	rootCmd.Flags().Float64Var(&flagMashD, "mash-d", config.DefaultMashD, "maximum mash distance of a candidate pair")
	rootCmd.Flags().IntVar(&flagMashK, "mash-k", config.DefaultMashK, "mash k-mer size")
	rootCmd.Flags().Float64Var(&flagMashV, "mash-v", config.DefaultMashV, "maximum mash p-value of a candidate pair")
	rootCmd.Flags().IntVar(&flagMashS, "mash-s", config.DefaultMashS, "mash sketch size")
	rootCmd.Flags().StringVar(&flagMashDB, "mash-db", "", "reusable reference sketch path, built when absent")
	rootCmd.Flags().Float64Var(&flagMinAF, "min-af", config.DefaultMinAF, "minimum alignment fraction of a reported hit")
	rootCmd.Flags().BoolVar(&flagDebug, "debug", false, "log at debug level")
}

func validateFlags() error {
	switch {
	case flagGenomeDir == "" && flagBatchfile == "":
		return errors.New("either --genome-dir or --batchfile is required")
	case flagGenomeDir != "" && flagBatchfile != "":
		return errors.New("--genome-dir and --batchfile are mutually exclusive")
	case flagOutDir == "":
		return errors.New("--out-dir is required")
	case flagCPUs < 1:
		return errors.New("--cpus must be at least 1")
	case flagMashD < 0 || flagMashD > 1:
		return errors.New("--mash-d must be between 0 and 1")
	case flagMashK < 1 || flagMashK > 32:
		return errors.New("--mash-k must be between 1 and 32")
	case flagMashV < 0 || flagMashV > 1:
		return errors.New("--mash-v must be between 0 and 1")
	case flagMashS < 1:
		return errors.New("--mash-s must be at least 1")
	case flagMinAF < 0 || flagMinAF > 1:
		return errors.New("--min-af must be between 0 and 1")
	}
	return nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	if err := validateFlags(); err != nil {
		return err
	}

	// Establish logger
	level := zapcore.InfoLevel
	if flagDebug {
		level = zapcore.DebugLevel
	}
	log, err := logger.New(level)
	if err != nil {
		return err
	}
	defer log.Sync() // Make sure that the buffered is flushed.

	log.Info("Start:", zap.String("version", version))

	// Try load env
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env found, using local environment")
	}
	data, err := config.NewPaths(os.Getenv(config.EnvDataRoot))
	if err != nil {
		return err
	}

	programs := []string{"fastANI"}
	if !flagNoMash {
		programs = append(programs, "mash")
	}
	if err := external.CheckDependencies(programs...); err != nil {
		return err
	}

	queries, err := collectQueryGenomes()
	if err != nil {
		return err
	}
	if len(queries) == 0 {
		return errors.New("no query genomes found")
	}
	log.Info("Query genomes loaded.", zap.String("count", humanize.Comma(int64(len(queries)))))

	if err := util.MakeSurePath(flagOutDir); err != nil {
		return err
	}

	var sketch ani.SketchEngine
	if !flagNoMash {
		sketch = external.NewMash(log, flagCPUs, config.MashDir(flagOutDir), flagPrefix)
	}
	// The progress bar and debug logs share stderr, so keep only one of them.
	sim := external.NewFastANI(log, flagCPUs, !flagDebug)

	params := ani.RunParams{
		OutDir: flagOutDir,
		Prefix: flagPrefix,
		MinAF:  flagMinAF,
		Sketch: ani.SketchParams{
			MaxDist:    flagMashD,
			K:          flagMashK,
			MaxPValue:  flagMashV,
			SketchSize: flagMashS,
			DBPath:     flagMashDB,
		},
	}
	if err := ani.New(log, data, sketch, sim).Run(queries, params); err != nil {
		return err
	}

	log.Info("Done.")
	return nil
}

func collectQueryGenomes() (map[string]string, error) {
	if flagBatchfile != "" {
		return readBatchfile(flagBatchfile)
	}
	return scanGenomeDir(flagGenomeDir, flagExtension)
}

// scanGenomeDir collects genome files directly under dir. The genome id is
// the file name with the extension cut off.
func scanGenomeDir(dir, ext string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read genome directory: %w", err)
	}

	suffix := "." + ext
	genomes := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, ok := strings.CutSuffix(entry.Name(), suffix)
		if !ok || id == "" {
			continue
		}
		genomes[id] = path.Join(dir, entry.Name())
	}
	return genomes, nil
}

// readBatchfile loads "path<TAB>id" rows. Blank lines are fine, repeated ids
// are not.
func readBatchfile(batchfile string) (map[string]string, error) {
	f, err := os.Open(batchfile)
	if err != nil {
		return nil, fmt.Errorf("open batchfile: %w", err)
	}
	defer f.Close()

	genomes := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: line %d needs two tab separated columns", ErrBatchfileFormat, lineno)
		}
		gpath, gid := strings.TrimSpace(fields[0]), strings.TrimSpace(fields[1])
		if gpath == "" || gid == "" {
			return nil, fmt.Errorf("%w: line %d has an empty column", ErrBatchfileFormat, lineno)
		}
		if _, ok := genomes[gid]; ok {
			return nil, fmt.Errorf("%w: duplicate genome id %s on line %d", ErrBatchfileFormat, gid, lineno)
		}
		genomes[gid] = gpath
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read batchfile: %w", err)
	}
	return genomes, nil
}
