package utils

import (
	"path/filepath"
	"strings"
)

const DefaultOutputSuffix = "_PRINT"

// DeriveOutputPath appends suffix to the input's base name, keeping its
// extension. Inputs without an extension get ".pdf".
func DeriveOutputPath(inputPath, suffix string) string {
	if suffix == "" {
		suffix = DefaultOutputSuffix
	}
	ext := filepath.Ext(inputPath)
	root := strings.TrimSuffix(inputPath, ext)
	if ext == "" {
		ext = ".pdf"
	}
	return root + suffix + ext
}

// HasOutputSuffix reports whether path looks like a file DeriveOutputPath
// produced, so batch runs don't impose their own output again.
func HasOutputSuffix(path, suffix string) bool {
	if suffix == "" {
		suffix = DefaultOutputSuffix
	}
	base := filepath.Base(path)
	return strings.HasSuffix(strings.TrimSuffix(base, filepath.Ext(base)), suffix)
}
