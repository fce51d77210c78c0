package utils

import (
	"os"
	"path/filepath"
	"strings"
)

// EnsureDir creates the parent directory of path
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0755)
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}

// IsLocalPath reports whether location names a file on disk rather than a URL
// or git location
func IsLocalPath(location string) bool {
	scheme, _, ok := strings.Cut(location, "://")
	return !ok || strings.EqualFold(scheme, "file")
}
