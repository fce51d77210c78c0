package version_test

import (
	"testing"

	"github.com/quantmind-br/reqscan/pkg/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setVersion(t *testing.T, v, b, c string) {
	t.Helper()
	origV, origB, origC := version.Version, version.BuildTime, version.Commit
	t.Cleanup(func() { version.Version, version.BuildTime, version.Commit = origV, origB, origC })
	version.Version, version.BuildTime, version.Commit = v, b, c
}

func TestGet_String_Short_Full(t *testing.T) {
	setVersion(t, "1.2.3", "2025-12-22T00:00:00Z", "deadbeef")

	info := version.Get()
	require.Equal(t, "1.2.3", info.Version)
	require.Equal(t, "2025-12-22T00:00:00Z", info.BuildTime)
	require.Equal(t, "deadbeef", info.Commit)

	// Runtime fields should be non-empty
	require.NotEmpty(t, info.GoVersion)
	require.NotEmpty(t, info.OS)
	require.NotEmpty(t, info.Arch)

	assert.Equal(t, "1.2.3", version.Short())

	assert.Contains(t, info.String(), "reqscan 1.2.3 (commit: deadbeef, built: 2025-12-22T00:00:00Z")
	assert.Equal(t, info.String(), version.Full())
}

func TestUserAgent(t *testing.T) {
	setVersion(t, "0.4.0", "unknown", "unknown")
	assert.Equal(t, "reqscan/0.4.0", version.UserAgent())
}
