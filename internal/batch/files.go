package batch

import (
	"fmt"
	"path/filepath"
	"strings"
)

// supportedExt are the lower-case extensions the runner picks up.
var supportedExt = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"tiff": true,
	"tif":  true,
	"bmp":  true,
	"gif":  true,
}

// Supported reports whether name has an image extension the runner handles.
// The match is case-insensitive.
func Supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	return supportedExt[ext[1:]]
}

// OutputSuffix is appended to the source directory's name to form the
// output directory.
const OutputSuffix = "_watermark"

// OutputDir returns the sibling directory results are written to:
// <parent of sourceDir>/<base of sourceDir>_watermark.
func OutputDir(sourceDir string) (string, error) {
	abs, err := filepath.Abs(sourceDir)
	if err != nil {
		return "", fmt.Errorf("resolve source directory: %w", err)
	}
	base := filepath.Base(abs)
	if base == string(filepath.Separator) || base == "." {
		return "", fmt.Errorf("source directory %q has no name to derive an output directory from", sourceDir)
	}
	return filepath.Join(filepath.Dir(abs), base+OutputSuffix), nil
}
