// Package batch stamps every supported image in a directory with its capture
// date and writes the results to a sibling directory.
package batch

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"photostamp/internal/exifdate"
)

// Per-file failure classes. Errors returned in FileResult wrap exactly one.
var (
	ErrDecode = errors.New("decode")
	ErrEncode = errors.New("encode")
	ErrWrite  = errors.New("write")
)

// Extractor yields the capture time of an encoded image.
type Extractor interface {
	Extract(r io.Reader) exifdate.Stamp
}

// Renderer draws the watermark text onto an image.
type Renderer interface {
	Render(img image.Image, text string) image.Image
}

// Options control how each file is processed.
type Options struct {
	// DateLayout is the Go time layout of the watermark text.
	DateLayout  string
	JPEGQuality int
	// AutoOrient applies the EXIF orientation before drawing, so the text
	// lands upright in the displayed picture.
	AutoOrient bool
	// DryRun runs the whole pipeline but writes nothing.
	DryRun bool
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		DateLayout:  "2006-01-02",
		JPEGQuality: 95,
		AutoOrient:  true,
	}
}

// FileResult is the outcome of one file: Err is nil on success.
type FileResult struct {
	Source string
	Output string
	Stamp  exifdate.Stamp
	Text   string
	Err    error
}

// Runner processes a directory one file at a time.
type Runner struct {
	extractor Extractor
	renderer  Renderer
	opts      Options
	log       zerolog.Logger
}

// NewRunner wires the pipeline stages together.
func NewRunner(ex Extractor, r Renderer, opts Options, log zerolog.Logger) *Runner {
	return &Runner{extractor: ex, renderer: r, opts: opts, log: log}
}

// Run watermarks the supported images directly inside sourceDir. It only
// returns an error when the directory cannot be listed; every per-file
// problem is recorded in the Result and processing moves on.
func (r *Runner) Run(sourceDir string) (*Result, error) {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("read source directory: %w", err)
	}
	outDir, err := OutputDir(sourceDir)
	if err != nil {
		return nil, err
	}

	res := &Result{SourceDir: sourceDir, OutputDir: outDir, DryRun: r.opts.DryRun}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			r.log.Debug().Str("file", e.Name()).Msg("skipping")
			continue
		}
		names = append(names, e.Name())
	}
	r.log.Info().Str("source", sourceDir).Str("output", outDir).Int("images", len(names)).Msg("starting")

	// A directory we cannot create fails every file the same way.
	var setupErr error
	if !r.opts.DryRun {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			setupErr = fmt.Errorf("%w: create output directory: %w", ErrWrite, err)
			r.log.Error().Err(err).Str("dir", outDir).Msg("cannot create output directory")
		}
	}

	for _, name := range names {
		src := filepath.Join(sourceDir, name)
		dst := filepath.Join(outDir, name)

		fr := FileResult{Source: src, Output: dst, Err: setupErr}
		if setupErr == nil {
			fr = r.ProcessFile(src, dst)
		}
		r.logResult(fr)
		res.add(fr)
	}

	r.log.Info().Int("succeeded", res.Succeeded).Int("failed", res.Failed).Msg("done")
	return res, nil
}

// ProcessFile runs decode, extract, render, encode and write for one file.
func (r *Runner) ProcessFile(src, dst string) FileResult {
	fr := FileResult{Source: src, Output: dst}

	data, err := os.ReadFile(src)
	if err != nil {
		fr.Err = fmt.Errorf("%w: read input: %w", ErrDecode, err)
		return fr
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(r.opts.AutoOrient))
	if err != nil {
		fr.Err = fmt.Errorf("%w: decode image: %w", ErrDecode, err)
		return fr
	}

	fr.Stamp = r.extractor.Extract(bytes.NewReader(data))
	fr.Text = fr.Stamp.Format(r.opts.DateLayout)

	marked := r.renderer.Render(img, fr.Text)

	format, err := imaging.FormatFromFilename(dst)
	if err != nil {
		fr.Err = fmt.Errorf("%w: %w", ErrEncode, err)
		return fr
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, marked, format, imaging.JPEGQuality(r.opts.JPEGQuality)); err != nil {
		fr.Err = fmt.Errorf("%w: encode %s: %w", ErrEncode, format, err)
		return fr
	}

	if r.opts.DryRun {
		return fr
	}
	if err := writeFile(dst, buf.Bytes()); err != nil {
		fr.Err = fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return fr
}

func (r *Runner) logResult(fr FileResult) {
	if fr.Err != nil {
		r.log.Error().Err(fr.Err).Str("file", fr.Source).Msg("failed")
		return
	}
	ev := r.log.Info()
	if r.opts.DryRun {
		ev = ev.Bool("dry_run", true)
	}
	ev.Str("file", fr.Source).
		Str("output", fr.Output).
		Str("date", fr.Text).
		Str("date_source", string(fr.Stamp.Source)).
		Msg("watermarked")
}

// writeFile replaces path with data through a temporary file in the same
// directory, so a reader never sees a half-written image.
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}
