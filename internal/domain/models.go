package domain

import "fmt"

// EntryKind distinguishes package lines from reference lines
type EntryKind string

const (
	// KindPackage is a dependency declaration
	KindPackage EntryKind = "package"
	// KindReference includes another manifest by path
	KindReference EntryKind = "reference"
)

// DefaultSection is the section of entries that appear before any comment
const DefaultSection = ""

// Entry is a single parsed manifest line. Entries are values and are never
// modified once a parse pass has produced them.
type Entry struct {
	Kind     EntryKind `json:"kind" yaml:"kind" toml:"kind"`
	Package  string    `json:"package,omitempty" yaml:"package,omitempty" toml:"package,omitempty"`
	Operator string    `json:"operator,omitempty" yaml:"operator,omitempty" toml:"operator,omitempty"`
	Version  string    `json:"version,omitempty" yaml:"version,omitempty" toml:"version,omitempty"`
	Marker   string    `json:"marker,omitempty" yaml:"marker,omitempty" toml:"marker,omitempty"`
	Path     string    `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`
	Section  string    `json:"section" yaml:"section" toml:"section"`
	Source   string    `json:"source,omitempty" yaml:"source,omitempty" toml:"source,omitempty"`
	Line     int       `json:"line" yaml:"line" toml:"line"`
}

// IsReference returns true for reference entries
func (e Entry) IsReference() bool {
	return e.Kind == KindReference
}

// Constraint returns the operator and version joined, e.g. "==1.2.0"
func (e Entry) Constraint() string {
	return e.Operator + e.Version
}

// String renders the entry in requirements syntax
func (e Entry) String() string {
	if e.IsReference() {
		return "-r " + e.Path
	}
	s := e.Package + e.Operator + e.Version
	if e.Marker != "" {
		s += "; " + e.Marker
	}
	return s
}

// DiagnosticKind classifies a recoverable manifest problem
type DiagnosticKind string

const (
	// MalformedEntry marks a line that does not follow the package-line grammar
	MalformedEntry DiagnosticKind = "MalformedEntry"
	// DuplicatePackage marks an earlier declaration overridden by a later one
	DuplicatePackage DiagnosticKind = "DuplicatePackage"
)

// Diagnostic reports a line-level problem found while parsing
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind" yaml:"kind" toml:"kind"`
	Source  string         `json:"source,omitempty" yaml:"source,omitempty" toml:"source,omitempty"`
	Line    int            `json:"line" yaml:"line" toml:"line"`
	Package string         `json:"package,omitempty" yaml:"package,omitempty" toml:"package,omitempty"`
	Text    string         `json:"text,omitempty" yaml:"text,omitempty" toml:"text,omitempty"`
	Message string         `json:"message" yaml:"message" toml:"message"`
}

func (d Diagnostic) String() string {
	loc := fmt.Sprintf("line %d", d.Line)
	if d.Source != "" {
		loc = fmt.Sprintf("%s:%d", d.Source, d.Line)
	}
	return fmt.Sprintf("%s: %s: %s", loc, d.Kind, d.Message)
}

// Manifest is the result of parsing one manifest text
type Manifest struct {
	Source      string       `json:"source" yaml:"source" toml:"source"`
	Entries     []Entry      `json:"entries" yaml:"entries" toml:"entries"`
	Diagnostics []Diagnostic `json:"diagnostics" yaml:"diagnostics" toml:"diagnostics"`
}

// Packages returns the package entries in order
func (m *Manifest) Packages() []Entry {
	var out []Entry
	for _, e := range m.Entries {
		if e.Kind == KindPackage {
			out = append(out, e)
		}
	}
	return out
}

// References returns the reference entries in order
func (m *Manifest) References() []Entry {
	var out []Entry
	for _, e := range m.Entries {
		if e.IsReference() {
			out = append(out, e)
		}
	}
	return out
}

// HasReferences reports whether the manifest still contains unresolved references
func (m *Manifest) HasReferences() bool {
	for _, e := range m.Entries {
		if e.IsReference() {
			return true
		}
	}
	return false
}

// Sections returns section labels in first-seen order
func (m *Manifest) Sections() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range m.Entries {
		if !seen[e.Section] {
			seen[e.Section] = true
			out = append(out, e.Section)
		}
	}
	return out
}

// BySection groups entries by section, keeping file order inside each group
func (m *Manifest) BySection() map[string][]Entry {
	out := make(map[string][]Entry)
	for _, e := range m.Entries {
		out[e.Section] = append(out[e.Section], e)
	}
	return out
}

// Lookup finds a package entry by name. Callers pass a normalized name when
// comparing across spellings.
func (m *Manifest) Lookup(name string) (Entry, bool) {
	for _, e := range m.Entries {
		if e.Kind == KindPackage && e.Package == name {
			return e, true
		}
	}
	return Entry{}, false
}

// HasDiagnostics reports whether parsing produced any diagnostics
func (m *Manifest) HasDiagnostics() bool {
	return len(m.Diagnostics) > 0
}
