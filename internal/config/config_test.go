package config

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"

	"photostamp/internal/render"
)

func load(t *testing.T, sourceDir string, args ...string) (Config, error) {
	t.Helper()
	fs := pflag.NewFlagSet("photostamp", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags %v: %v", args, err)
	}
	return Load(fs, sourceDir)
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := load(t, dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.SourceDir != dir {
		t.Errorf("SourceDir = %s", cfg.SourceDir)
	}
	if cfg.Watermark != render.DefaultSpec() {
		t.Errorf("Watermark = %+v, want %+v", cfg.Watermark, render.DefaultSpec())
	}
	if cfg.Batch.DateLayout != "2006-01-02" || cfg.Batch.JPEGQuality != 95 || !cfg.Batch.AutoOrient || cfg.Batch.DryRun {
		t.Errorf("Batch = %+v", cfg.Batch)
	}
	if cfg.ReportPath != "" || cfg.Verbose {
		t.Errorf("ReportPath = %q, Verbose = %v", cfg.ReportPath, cfg.Verbose)
	}
}

func TestLoadFlags(t *testing.T) {
	dir := t.TempDir()
	cfg, err := load(t, dir,
		"--font-size", "48",
		"--color", "#102030",
		"--position", "top-left",
		"--margin", "5",
		"--shadow",
		"--stroke",
		"--date-format", "02/01/2006",
		"--quality", "80",
		"--auto-orient=false",
		"--dry-run",
		"--report", "out.yaml",
		"-v",
	)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := render.Spec{
		FontSize:      48,
		Color:         color.RGBA{0x10, 0x20, 0x30, 0xff},
		Position:      render.TopLeft,
		MarginPercent: 5,
		Shadow:        true,
		Stroke:        true,
	}
	if cfg.Watermark != want {
		t.Errorf("Watermark = %+v, want %+v", cfg.Watermark, want)
	}
	if cfg.Batch.DateLayout != "02/01/2006" || cfg.Batch.JPEGQuality != 80 || cfg.Batch.AutoOrient || !cfg.Batch.DryRun {
		t.Errorf("Batch = %+v", cfg.Batch)
	}
	if cfg.ReportPath != "out.yaml" || !cfg.Verbose {
		t.Errorf("ReportPath = %q, Verbose = %v", cfg.ReportPath, cfg.Verbose)
	}
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		src  string
		args []string
	}{
		{"bad color", dir, []string{"--color", "purple"}},
		{"color out of range", dir, []string{"--color", "300,0,0"}},
		{"bad position", dir, []string{"--position", "middle"}},
		{"zero font size", dir, []string{"--font-size", "0"}},
		{"negative font size", dir, []string{"--font-size", "-4"}},
		{"quality too high", dir, []string{"--quality", "101"}},
		{"margin too large", dir, []string{"--margin", "75"}},
		{"literal date format", dir, []string{"--date-format", "today"}},
		{"time of day only", dir, []string{"--date-format", "15:04"}},
		{"missing source", filepath.Join(dir, "nope"), nil},
		{"source is a file", file, nil},
		{"empty source", "", nil},
		{"missing config file", dir, []string{"--config", filepath.Join(dir, "none.yaml")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(t, tt.src, tt.args...)
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("err = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "photostamp.yaml")
	content := `
font_size: 20
color: "0,128,255"
position: center
date_format: "2006.01.02"
quality: 70
`
	if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("file", func(t *testing.T) {
		cfg, err := load(t, dir, "--config", cfgFile)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.Watermark.FontSize != 20 || cfg.Watermark.Position != render.Center {
			t.Errorf("Watermark = %+v", cfg.Watermark)
		}
		if cfg.Watermark.Color != (color.RGBA{0, 128, 255, 255}) {
			t.Errorf("Color = %v", cfg.Watermark.Color)
		}
		if cfg.Batch.DateLayout != "2006.01.02" || cfg.Batch.JPEGQuality != 70 {
			t.Errorf("Batch = %+v", cfg.Batch)
		}
	})

	t.Run("env beats file", func(t *testing.T) {
		t.Setenv("PHOTOSTAMP_FONT_SIZE", "64")
		t.Setenv("PHOTOSTAMP_SHADOW", "true")
		cfg, err := load(t, dir, "--config", cfgFile)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.Watermark.FontSize != 64 || !cfg.Watermark.Shadow {
			t.Errorf("Watermark = %+v", cfg.Watermark)
		}
		if cfg.Batch.JPEGQuality != 70 {
			t.Errorf("quality from file lost: %d", cfg.Batch.JPEGQuality)
		}
	})

	t.Run("flag beats env and file", func(t *testing.T) {
		t.Setenv("PHOTOSTAMP_FONT_SIZE", "64")
		cfg, err := load(t, dir, "--config", cfgFile, "--font-size", "12", "--position", "bottom-left")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.Watermark.FontSize != 12 || cfg.Watermark.Position != render.BottomLeft {
			t.Errorf("Watermark = %+v", cfg.Watermark)
		}
	})

	t.Run("invalid env", func(t *testing.T) {
		t.Setenv("PHOTOSTAMP_COLOR", "#12")
		if _, err := load(t, dir); !errors.Is(err, ErrInvalid) {
			t.Errorf("err = %v, want ErrInvalid", err)
		}
	})
}

func TestHasDateFields(t *testing.T) {
	tests := []struct {
		layout string
		want   bool
	}{
		{"2006-01-02", true},
		{"02 Jan 2006", true},
		{"2006-01-02 15:04", true},
		{"Jan 2", true},
		{"2006", true},
		{"15:04", false},
		{"15:04:05.000", false},
		{"today", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := hasDateFields(tt.layout); got != tt.want {
			t.Errorf("hasDateFields(%q) = %v, want %v", tt.layout, got, tt.want)
		}
	}
}
