// Package config merges command-line flags, environment variables and an
// optional config file into one validated Config.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"photostamp/internal/batch"
	"photostamp/internal/render"
)

// ErrInvalid marks configuration errors. They are reported before any file
// is touched.
var ErrInvalid = errors.New("invalid configuration")

// EnvPrefix is prepended to every environment variable, e.g. PHOTOSTAMP_COLOR.
const EnvPrefix = "PHOTOSTAMP"

// Config is the validated configuration of one run.
type Config struct {
	SourceDir  string
	Watermark  render.Spec
	Batch      batch.Options
	ReportPath string
	Verbose    bool
}

// settings mirrors the keys known to viper. Keys are snake_case in config
// files and upper-cased in the environment.
type settings struct {
	FontSize   int     `mapstructure:"font_size"`
	Color      string  `mapstructure:"color"`
	Position   string  `mapstructure:"position"`
	Font       string  `mapstructure:"font"`
	Margin     float64 `mapstructure:"margin"`
	Shadow     bool    `mapstructure:"shadow"`
	Stroke     bool    `mapstructure:"stroke"`
	DateFormat string  `mapstructure:"date_format"`
	Quality    int     `mapstructure:"quality"`
	AutoOrient bool    `mapstructure:"auto_orient"`
	DryRun     bool    `mapstructure:"dry_run"`
	Report     string  `mapstructure:"report"`
	Verbose    bool    `mapstructure:"verbose"`
}

// ConfigFlag names the flag holding the config file path.
const ConfigFlag = "config"

// RegisterFlags defines every option on fs with its default.
func RegisterFlags(fs *pflag.FlagSet) {
	spec := render.DefaultSpec()
	opts := batch.DefaultOptions()

	fs.Int("font-size", int(spec.FontSize), "watermark text size in pixels")
	fs.String("color", "255,255,255", `text color as "R,G,B" or "#RRGGBB"`)
	fs.String("position", spec.Position.String(), "anchor: "+strings.Join(render.PositionNames(), ", "))
	fs.String("font", "", "TrueType/OpenType font file, or a font file name to look up in the system font directories")
	fs.Float64("margin", spec.MarginPercent, "distance from the edges, in percent of the shorter image side")
	fs.Bool("shadow", false, "draw a drop shadow behind the text")
	fs.Bool("stroke", false, "outline the text in black")
	fs.String("date-format", opts.DateLayout, "Go time layout of the watermark text")
	fs.Int("quality", opts.JPEGQuality, "JPEG output quality (1-100)")
	fs.Bool("auto-orient", opts.AutoOrient, "rotate images according to their EXIF orientation before stamping")
	fs.Bool("dry-run", false, "process images without writing any output")
	fs.String("report", "", "write a YAML report of the run to this file")
	fs.String(ConfigFlag, "", "config file (yaml, toml or json)")
	fs.BoolP("verbose", "v", false, "enable debug logging")
}

// flagKeys maps flag names to viper keys.
var flagKeys = map[string]string{
	"font-size":   "font_size",
	"color":       "color",
	"position":    "position",
	"font":        "font",
	"margin":      "margin",
	"shadow":      "shadow",
	"stroke":      "stroke",
	"date-format": "date_format",
	"quality":     "quality",
	"auto-orient": "auto_orient",
	"dry-run":     "dry_run",
	"report":      "report",
	"verbose":     "verbose",
}

// Load resolves the configuration for sourceDir. Precedence is explicit flag,
// then environment, then config file, then flag default.
func Load(fs *pflag.FlagSet, sourceDir string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			return Config{}, fmt.Errorf("flag --%s is not registered", name)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return Config{}, fmt.Errorf("bind flag --%s: %w", name, err)
		}
	}

	if path, _ := fs.GetString(ConfigFlag); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("%w: read config file: %w", ErrInvalid, err)
		}
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return s.validate(sourceDir)
}

func (s settings) validate(sourceDir string) (Config, error) {
	invalid := func(format string, args ...any) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
	}

	if err := checkSourceDir(sourceDir); err != nil {
		return invalid("%v", err)
	}

	col, err := render.ParseColor(s.Color)
	if err != nil {
		return invalid("%v", err)
	}
	pos, err := render.ParsePosition(s.Position)
	if err != nil {
		return invalid("%v", err)
	}
	if s.FontSize <= 0 {
		return invalid("font size must be a positive integer, got %d", s.FontSize)
	}
	if s.Quality < 1 || s.Quality > 100 {
		return invalid("quality must be between 1 and 100, got %d", s.Quality)
	}
	if !hasDateFields(s.DateFormat) {
		return invalid("date format %q contains no year, month or day field", s.DateFormat)
	}

	spec := render.Spec{
		FontSize:      float64(s.FontSize),
		Color:         col,
		Position:      pos,
		FontPath:      s.Font,
		MarginPercent: s.Margin,
		Shadow:        s.Shadow,
		Stroke:        s.Stroke,
	}
	if err := spec.Validate(); err != nil {
		return invalid("%v", err)
	}

	return Config{
		SourceDir: sourceDir,
		Watermark: spec,
		Batch: batch.Options{
			DateLayout:  s.DateFormat,
			JPEGQuality: s.Quality,
			AutoOrient:  s.AutoOrient,
			DryRun:      s.DryRun,
		},
		ReportPath: s.Report,
		Verbose:    s.Verbose,
	}, nil
}

// hasDateFields reports whether layout renders any part of the calendar
// date. Two instants with the same clock time on different days must format
// differently.
func hasDateFields(layout string) bool {
	if layout == "" {
		return false
	}
	a := time.Date(2001, time.February, 3, 4, 5, 6, 0, time.UTC)
	b := time.Date(2019, time.November, 27, 4, 5, 6, 0, time.UTC)
	return a.Format(layout) != b.Format(layout)
}

func checkSourceDir(dir string) error {
	if dir == "" {
		return errors.New("source directory is not specified")
	}
	st, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("source directory does not exist: %s", dir)
		}
		return fmt.Errorf("cannot access source directory: %w", err)
	}
	if !st.IsDir() {
		return fmt.Errorf("source is not a directory: %s", dir)
	}
	f, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("cannot read source directory: %w", err)
	}
	return f.Close()
}
