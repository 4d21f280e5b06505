package render

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// loadFace resolves the watermark face. A missing or broken font file is
// not an error: it degrades to the embedded Go Regular face, and from there
// to basicfont.Face7x13.
func loadFace(path string, size float64, log zerolog.Logger) font.Face {
	if path != "" {
		resolved := resolveFontPath(path)
		face, err := faceFromFile(resolved, size)
		if err == nil {
			log.Debug().Str("font", resolved).Float64("size", size).Msg("using font")
			return face
		}
		log.Warn().Err(err).Str("font", path).Msg("font unavailable, using built-in face")
	}

	face, err := faceFromTTF(goregular.TTF, size)
	if err == nil {
		return face
	}
	log.Warn().Err(err).Msg("built-in TrueType face unavailable, using basic bitmap face")
	return basicfont.Face7x13
}

func faceFromFile(path string, size float64) (font.Face, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	return faceFromTTF(b, size)
}

func faceFromTTF(b []byte, size float64) (font.Face, error) {
	ft, err := opentype.Parse(b)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(ft, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create face: %w", err)
	}
	return face, nil
}

// resolveFontPath lets a bare file name such as "arial.ttf" be found in the
// system font directories. Anything else is returned as given.
func resolveFontPath(path string) string {
	if filepath.Base(path) != path || filepath.IsAbs(path) {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	if p := findSystemFont(path); p != "" {
		return p
	}
	return path
}

func fontDirs() []string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		return []string{`C:\Windows\Fonts`}
	case "darwin":
		return []string{"/System/Library/Fonts", "/Library/Fonts", filepath.Join(home, "Library/Fonts")}
	default:
		return []string{"/usr/share/fonts", "/usr/local/share/fonts", filepath.Join(home, ".fonts"), filepath.Join(home, ".local/share/fonts")}
	}
}

// findSystemFont searches the font directories (and their subdirectories)
// for filename, case-insensitively.
func findSystemFont(filename string) string {
	return findFontIn(fontDirs(), filename)
}

func findFontIn(dirs []string, filename string) string {
	lower := strings.ToLower(filename)
	for _, d := range dirs {
		found := ""
		filepath.WalkDir(d, func(p string, e os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if !e.IsDir() && strings.ToLower(e.Name()) == lower {
				found = p
				return filepath.SkipAll
			}
			return nil
		})
		if found != "" {
			return found
		}
	}
	return ""
}
