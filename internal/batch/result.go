package batch

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"photostamp/internal/exifdate"
)

// Result aggregates one run. It is built by Run and only read afterwards.
type Result struct {
	SourceDir string    `yaml:"source_dir"`
	OutputDir string    `yaml:"output_dir"`
	DryRun    bool      `yaml:"dry_run,omitempty"`
	Succeeded int       `yaml:"succeeded"`
	Failed    int       `yaml:"failed"`
	Outputs   []Output  `yaml:"outputs,omitempty"`
	Failures  []Failure `yaml:"failures,omitempty"`
}

// Output describes a file that was watermarked.
type Output struct {
	Source     string          `yaml:"source"`
	Dest       string          `yaml:"dest"`
	Text       string          `yaml:"text"`
	DateSource exifdate.Source `yaml:"date_source"`
}

// Failure describes a file that could not be processed.
type Failure struct {
	Path   string `yaml:"path"`
	Stage  string `yaml:"stage"`
	Reason string `yaml:"reason"`
}

// Processed is the number of files attempted.
func (r *Result) Processed() int { return r.Succeeded + r.Failed }

func (r *Result) add(fr FileResult) {
	if fr.Err != nil {
		r.Failed++
		r.Failures = append(r.Failures, Failure{Path: fr.Source, Stage: Stage(fr.Err), Reason: fr.Err.Error()})
		return
	}
	r.Succeeded++
	r.Outputs = append(r.Outputs, Output{
		Source:     fr.Source,
		Dest:       fr.Output,
		Text:       fr.Text,
		DateSource: fr.Stamp.Source,
	})
}

// Stage names the pipeline step an error came from.
func Stage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrEncode):
		return "encode"
	case errors.Is(err, ErrWrite):
		return "write"
	}
	return "unknown"
}

// WriteSummary prints the human-readable end-of-run report.
func (r *Result) WriteSummary(w io.Writer) {
	verb := "written to"
	if r.DryRun {
		verb = "would be written to"
	}
	fmt.Fprintf(w, "processed %d file(s): %d succeeded, %d failed\n", r.Processed(), r.Succeeded, r.Failed)
	if r.Succeeded > 0 {
		fmt.Fprintf(w, "output %s %s\n", verb, r.OutputDir)
	}
	for _, f := range r.Failures {
		fmt.Fprintf(w, "  failed %s: %s\n", filepath.Base(f.Path), f.Reason)
	}
}

// WriteReport stores the result as YAML at path.
func WriteReport(path string, r *Result) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
