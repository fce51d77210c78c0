package app

import (
	"strings"

	"github.com/quantmind-br/reqscan/internal/git"
	"github.com/quantmind-br/reqscan/internal/utils"
)

// SourceType names where a manifest is read from
type SourceType string

const (
	SourceStdin   SourceType = "stdin"
	SourceFile    SourceType = "file"
	SourceHTTP    SourceType = "http"
	SourceGit     SourceType = "git"
	SourceUnknown SourceType = "unknown"
)

// StdinSource is the argument that reads a manifest from standard input
const StdinSource = "-"

// DetectSourceType classifies a manifest location
func DetectSourceType(location string) SourceType {
	if location == StdinSource {
		return SourceStdin
	}
	if git.IsLocation(location) {
		return SourceGit
	}

	if utils.IsLocalPath(location) {
		return SourceFile
	}

	scheme, _, _ := strings.Cut(location, "://")
	switch strings.ToLower(scheme) {
	case "http", "https":
		return SourceHTTP
	default:
		return SourceUnknown
	}
}

// IsRemote reports whether the source type goes over the network
func (t SourceType) IsRemote() bool {
	return t == SourceHTTP || t == SourceGit
}
