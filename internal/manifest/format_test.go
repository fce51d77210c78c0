package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/reqscan/internal/domain"
)

func TestFormat(t *testing.T) {
	m := Parse("", "six\n# test\n# extra words\npytest==4.5.0  # pinned\n\n\n# lint\nblack==19.3b0;python_version>='3.6'\n-r base.txt\n")

	expected := `six

# test
pytest==4.5.0

# lint
black==19.3b0; python_version>='3.6'
-r base.txt
`
	assert.Equal(t, expected, Format(m))
}

func TestFormat_RoundTrip(t *testing.T) {
	original := Parse("requirements-dev.txt", devRequirements)

	again := Parse("requirements-dev.txt", Format(original))

	require.Len(t, again.Entries, len(original.Entries))
	for i := range original.Entries {
		want, got := original.Entries[i], again.Entries[i]
		want.Line, got.Line = 0, 0
		assert.Equal(t, want, got)
	}
	assert.Equal(t, original.Sections(), again.Sections())
}

func TestFormat_Empty(t *testing.T) {
	assert.Empty(t, Format(&domain.Manifest{}))
}
