package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// PrefixManifest namespaces manifest text entries
const PrefixManifest = "manifest"

// GenerateKey returns the SHA256 hash of the normalized location
func GenerateKey(location string) string {
	normalized := NormalizeLocation(location)
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:])
}

// GenerateKeyWithPrefix generates a cache key with a prefix
func GenerateKeyWithPrefix(prefix, location string) string {
	return prefix + ":" + GenerateKey(location)
}

// ManifestKey generates the cache key for a manifest location
func ManifestKey(location string) string {
	return GenerateKeyWithPrefix(PrefixManifest, location)
}

// NormalizeLocation normalizes a manifest location so equivalent spellings
// share a cache entry. URLs get a lower-case host, no default port and a clean
// path; git+ locations keep their fragment since it names the file; anything
// else is treated as a file path.
func NormalizeLocation(location string) string {
	if !strings.Contains(location, "://") {
		return filepath.ToSlash(filepath.Clean(location))
	}

	u, err := url.Parse(location)
	if err != nil {
		return location
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if (u.Scheme == "http" && u.Port() == "80") ||
		(u.Scheme == "https" && u.Port() == "443") {
		u.Host = u.Hostname()
	}

	if u.Path == "" {
		u.Path = "/"
	} else {
		u.Path = path.Clean(u.Path)
	}

	if !strings.HasPrefix(u.Scheme, "git+") {
		u.Fragment = ""
	}

	return u.String()
}
