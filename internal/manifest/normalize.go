package manifest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/quantmind-br/reqscan/internal/domain"
)

var separatorRun = regexp.MustCompile(`[-_.]+`)

// NormalizeName returns the canonical form of a package name: lower case,
// with runs of '-', '_' and '.' replaced by a single '-'.
// "Foo.Bar", "foo_bar" and "FOO-bar" all normalize to "foo-bar".
func NormalizeName(name string) string {
	return separatorRun.ReplaceAllString(strings.ToLower(name), "-")
}

// dedupe drops every package entry that is declared again later, keeping the
// last declaration in its own position. Each dropped entry yields one
// DuplicatePackage diagnostic.
func dedupe(entries []domain.Entry) ([]domain.Entry, []domain.Diagnostic) {
	last := make(map[string]int, len(entries))
	for i, e := range entries {
		if e.Kind == domain.KindPackage {
			last[NormalizeName(e.Package)] = i
		}
	}

	out := make([]domain.Entry, 0, len(entries))
	var diags []domain.Diagnostic
	for i, e := range entries {
		if e.Kind == domain.KindPackage {
			if j := last[NormalizeName(e.Package)]; j != i {
				diags = append(diags, duplicateDiagnostic(e, entries[j]))
				continue
			}
		}
		out = append(out, e)
	}
	return out, diags
}

func duplicateDiagnostic(earlier, later domain.Entry) domain.Diagnostic {
	where := fmt.Sprintf("line %d", later.Line)
	if later.Source != earlier.Source && later.Source != "" {
		where = fmt.Sprintf("%s:%d", later.Source, later.Line)
	}
	return domain.Diagnostic{
		Kind:    domain.DuplicatePackage,
		Source:  earlier.Source,
		Line:    earlier.Line,
		Package: earlier.Package,
		Text:    earlier.String(),
		Message: fmt.Sprintf("%s is declared again at %s (%s); the later declaration wins",
			earlier.Package, where, later.String()),
	}
}
