// Package commands implements CLI command handlers for sqlsplit.
package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/sqlsplit/internal/config"
	"github.com/Sumatoshi-tech/sqlsplit/internal/progress"
	"github.com/Sumatoshi-tech/sqlsplit/internal/splitter"
	"github.com/Sumatoshi-tech/sqlsplit/pkg/units"
)

// outputDirMode is the permission mode for a created output directory.
const outputDirMode = 0o755

// exit statuses: configuration and input problems are distinguished from
// processing failures so scripts can tell a bad invocation from a bad run.
const (
	exitProcessing = 1
	exitUsage      = 2
)

// SplitCommand holds configuration and dependencies for the split command.
type SplitCommand struct {
	input       string
	output      string
	maxSizeKB   int
	concurrency int
	oversized   string
	compress    bool
	configPath  string
	verbose     bool
	quiet       bool
	noColor     bool

	stdout io.Writer
	stderr io.Writer
}

// NewSplitCommand creates the split cobra command.
func NewSplitCommand() *cobra.Command {
	sc := &SplitCommand{stdout: os.Stdout, stderr: os.Stderr}

	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split a SQL file into size-bounded pieces",
		Long: `Split reads a SQL file, identifies statement boundaries, and writes the
statements into sequentially named files (split_000001.sql, ...) in the
output directory, each file at most --max-size kilobytes unless a single
statement alone exceeds the limit.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return sc.run(cmd)
		},
	}

	cmd.Flags().StringVarP(&sc.input, "input", "i", "", "input SQL file path")
	cmd.Flags().StringVarP(&sc.output, "output", "o", "", "output directory for split files")
	cmd.Flags().IntVarP(&sc.maxSizeKB, "max-size", "m", 0, "maximum size of each split file in KiB")
	cmd.Flags().IntVarP(&sc.concurrency, "concurrency", "c", 0, "number of concurrent write operations")
	cmd.Flags().StringVar(&sc.oversized, "oversized", "", "policy for statements larger than max-size: allow or error")
	cmd.Flags().BoolVar(&sc.compress, "compress", false, "lz4-compress output files")
	cmd.Flags().StringVar(&sc.configPath, "config", "", "config file (default .sqlsplit.yaml in CWD or $HOME)")
	cmd.Flags().BoolVarP(&sc.verbose, "verbose", "v", false, "verbose output")
	cmd.Flags().BoolVarP(&sc.quiet, "quiet", "q", false, "suppress progress and summary output")
	cmd.Flags().BoolVar(&sc.noColor, "no-color", false, "disable colored output")

	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func (sc *SplitCommand) run(cmd *cobra.Command) error {
	cfg, err := sc.resolveConfig(cmd)
	if err != nil {
		return err
	}

	maxSize, err := cfg.MaxSizeBytes()
	if err != nil {
		return err
	}

	info, err := os.Stat(sc.input)
	if err != nil {
		return fmt.Errorf("input %s: %w", sc.input, err)
	}

	err = os.MkdirAll(sc.output, outputDirMode)
	if err != nil {
		return fmt.Errorf("output directory: %w", err)
	}

	if sc.noColor {
		color.NoColor = true //nolint:reassign // intentional override of library global
	}

	state := &progress.State{}

	var renderer *progress.Renderer
	if sc.showProgress() {
		renderer = progress.NewRenderer(state, info.Size(), sc.stderr)
		renderer.Start()
	}

	result, err := splitter.Run(splitter.Options{
		InputPath:   sc.input,
		OutputDir:   sc.output,
		MaxSize:     int(maxSize),
		Concurrency: cfg.Concurrency,
		Oversized:   cfg.OversizedPolicy(),
		Compress:    sc.compress || cfg.Compress,
		Progress:    state,
		Logger:      sc.logger(),
	})

	if renderer != nil {
		renderer.Stop()
	}

	if err != nil {
		return err
	}

	if !sc.quiet {
		color.New(color.FgGreen).Fprintf(sc.stdout, "Split %s into %d files (%s written) in %s\n",
			sc.input,
			result.Chunks,
			humanize.IBytes(uint64(result.BytesWritten)),
			result.Elapsed.Round(time.Millisecond))
	}

	return nil
}

// resolveConfig merges the config file, environment, and flag overrides,
// then validates the result. Flags win over file and environment values.
func (sc *SplitCommand) resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(sc.configPath)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("max-size") {
		// A non-positive flag value must fail outright, not parse as zero.
		if sc.maxSizeKB <= 0 {
			return nil, fmt.Errorf("%w: got %d KiB", config.ErrInvalidMaxSize, sc.maxSizeKB)
		}

		cfg.MaxSize = strconv.Itoa(sc.maxSizeKB*units.KiB) + "B"
	}

	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = sc.concurrency
	}

	if cmd.Flags().Changed("oversized") {
		cfg.Oversized = sc.oversized
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, validateErr
	}

	return cfg, nil
}

// showProgress reports whether the live progress bar should render. The bar
// writes control sequences, so it is limited to interactive terminals.
func (sc *SplitCommand) showProgress() bool {
	if sc.quiet {
		return false
	}

	f, ok := sc.stderr.(*os.File)

	return ok && isatty.IsTerminal(f.Fd())
}

func (sc *SplitCommand) logger() *slog.Logger {
	level := slog.LevelInfo

	switch {
	case sc.verbose:
		level = slog.LevelDebug
	case sc.quiet:
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(sc.stderr, &slog.HandlerOptions{Level: level}))
}

// ExitCode maps an error from command execution to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	if isUsageError(err) {
		return exitUsage
	}

	return exitProcessing
}

// isUsageError reports whether err stems from arguments, configuration, or
// an unusable input path, i.e. problems present before any processing.
func isUsageError(err error) bool {
	return errors.Is(err, config.ErrInvalidMaxSize) ||
		errors.Is(err, config.ErrInvalidConcurrency) ||
		errors.Is(err, config.ErrInvalidOversizedPolicy) ||
		errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, fs.ErrPermission)
}
