package manifest

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/quantmind-br/reqscan/internal/domain"
)

// ChangeKind classifies how a package differs between two manifests
type ChangeKind string

const (
	ChangeAdded      ChangeKind = "added"
	ChangeRemoved    ChangeKind = "removed"
	ChangeUpgraded   ChangeKind = "upgraded"
	ChangeDowngraded ChangeKind = "downgraded"
	ChangeModified   ChangeKind = "changed"
)

// Change describes one package difference
type Change struct {
	Package string     `json:"package" yaml:"package" toml:"package"`
	Kind    ChangeKind `json:"kind" yaml:"kind" toml:"kind"`
	From    string     `json:"from,omitempty" yaml:"from,omitempty" toml:"from,omitempty"`
	To      string     `json:"to,omitempty" yaml:"to,omitempty" toml:"to,omitempty"`
}

func (c Change) String() string {
	switch c.Kind {
	case ChangeAdded:
		return fmt.Sprintf("+ %s", c.To)
	case ChangeRemoved:
		return fmt.Sprintf("- %s", c.From)
	default:
		return fmt.Sprintf("~ %s: %s -> %s (%s)", c.Package, c.From, c.To, c.Kind)
	}
}

// Diff compares the package entries of two manifests. Packages are matched by
// normalized name. Changes to packages present in next come first, in next's
// order, followed by removals in prev's order.
func Diff(prev, next *domain.Manifest) []Change {
	before := make(map[string]domain.Entry)
	for _, e := range prev.Packages() {
		before[NormalizeName(e.Package)] = e
	}

	var changes []Change
	seen := make(map[string]bool)
	for _, e := range next.Packages() {
		key := NormalizeName(e.Package)
		seen[key] = true

		old, ok := before[key]
		if !ok {
			changes = append(changes, Change{Package: e.Package, Kind: ChangeAdded, To: e.String()})
			continue
		}
		if old.Operator == e.Operator && old.Version == e.Version && old.Marker == e.Marker {
			continue
		}
		changes = append(changes, Change{
			Package: e.Package,
			Kind:    compareEntries(old, e),
			From:    old.String(),
			To:      e.String(),
		})
	}

	for _, e := range prev.Packages() {
		if !seen[NormalizeName(e.Package)] {
			changes = append(changes, Change{Package: e.Package, Kind: ChangeRemoved, From: e.String()})
		}
	}

	return changes
}

// compareEntries orders two declarations of the same package. Only versions
// that both parse as semver are ordered; anything else is a plain change.
func compareEntries(old, next domain.Entry) ChangeKind {
	if old.Version == next.Version || old.Operator != next.Operator {
		return ChangeModified
	}
	cmp, err := CompareVersions(old.Version, next.Version)
	if err != nil {
		return ChangeModified
	}
	switch {
	case cmp < 0:
		return ChangeUpgraded
	case cmp > 0:
		return ChangeDowngraded
	default:
		return ChangeModified
	}
}

// CompareVersions compares two version strings using semver.
// Returns -1 if a < b, 0 if equal, 1 if a > b.
func CompareVersions(a, b string) (int, error) {
	av, err := parseSemver(a)
	if err != nil {
		return 0, fmt.Errorf("parsing version %q: %w", a, err)
	}
	bv, err := parseSemver(b)
	if err != nil {
		return 0, fmt.Errorf("parsing version %q: %w", b, err)
	}
	return av.Compare(bv), nil
}

func parseSemver(version string) (*semver.Version, error) {
	version = strings.TrimPrefix(version, "v")
	return semver.NewVersion(version)
}
