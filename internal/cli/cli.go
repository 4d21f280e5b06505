// Package cli defines the photostamp command.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"photostamp/internal/batch"
	"photostamp/internal/config"
	"photostamp/internal/exifdate"
	"photostamp/internal/logging"
	"photostamp/internal/render"
)

// Options are the process-level dependencies of the command.
type Options struct {
	Stdout io.Writer
	Stderr io.Writer
	// Clock provides the date used for images without EXIF capture time.
	Clock exifdate.Clock
}

// NewCommand builds the root command.
func NewCommand(opts Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photostamp <source-dir>",
		Short: "Stamp photos with their capture date",
		Long: `photostamp reads the capture date of every image in <source-dir> from its
EXIF metadata (falling back to today's date) and writes a copy with the date
drawn on it to the sibling directory <source-dir>_watermark.

Supported files: jpg, jpeg, png, tif, tiff, bmp, gif.`,
		Example: `  photostamp ~/Pictures/trip
  photostamp ./photos --font-size 48 --color "#FFCC00" --position top-left
  photostamp ./photos --color 0,0,0 --date-format "02 Jan 2006" --report run.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Flags(), args[0], opts)
		},
	}
	config.RegisterFlags(cmd.Flags())
	cmd.SetOut(opts.Stdout)
	cmd.SetErr(opts.Stderr)
	return cmd
}

// Execute runs the command with args and returns the process exit code.
// Per-file failures do not change the exit code; configuration errors and
// an unreadable source directory do.
func Execute(args []string, opts Options) int {
	cmd := NewCommand(opts)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(opts.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func run(fs *pflag.FlagSet, sourceDir string, opts Options) error {
	cfg, err := config.Load(fs, sourceDir)
	if err != nil {
		return err
	}

	log := logging.New(opts.Stderr, cfg.Verbose)

	rend, err := render.New(cfg.Watermark, log)
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}
	defer rend.Close()

	runner := batch.NewRunner(exifdate.New(opts.Clock), rend, cfg.Batch, log)
	res, err := runner.Run(cfg.SourceDir)
	if err != nil {
		return err
	}

	res.WriteSummary(opts.Stdout)

	if cfg.ReportPath != "" {
		if err := batch.WriteReport(cfg.ReportPath, res); err != nil {
			log.Error().Err(err).Str("path", cfg.ReportPath).Msg("report not written")
		} else {
			log.Debug().Str("path", cfg.ReportPath).Msg("report written")
		}
	}
	return nil
}
