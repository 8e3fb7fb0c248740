package folders

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizePath canonicalizes a user-supplied directory path: trims
// whitespace, applies NFC normalization (macOS reports decomposed form),
// cleans the path, and strips any trailing separator. Relative paths are
// rejected.
func NormalizePath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", errors.New("path is required")
	}
	normalized := norm.NFC.String(trimmed)
	if !filepath.IsAbs(normalized) {
		return "", fmt.Errorf("path %q is not absolute", path)
	}
	cleaned := filepath.Clean(normalized)
	return cleaned, nil
}

// IsSubpath reports whether child is strictly beneath parent. Equal paths are
// not subpaths.
func IsSubpath(parent, child string) bool {
	if parent == child {
		return false
	}
	prefix := parent
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(child, prefix)
}

// Covers reports whether path a equals b or contains b.
func Covers(a, b string) bool {
	return a == b || IsSubpath(a, b)
}
