package manifest

import (
	"strings"

	"github.com/quantmind-br/reqscan/internal/domain"
)

// Format renders a manifest back to requirements text. A section comment is
// written whenever the section changes between consecutive entries. Entries
// without a section can only be expressed before the first comment, so a
// spliced manifest that returns to the default section after a labelled one
// reads back with the preceding label.
func Format(m *domain.Manifest) string {
	var b strings.Builder
	current := domain.DefaultSection

	for _, e := range m.Entries {
		if e.Section != current {
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			if e.Section != domain.DefaultSection {
				b.WriteString("# ")
				b.WriteString(e.Section)
				b.WriteString("\n")
			}
			current = e.Section
		}
		b.WriteString(e.String())
		b.WriteString("\n")
	}

	return b.String()
}
