package manifest

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/quantmind-br/reqscan/internal/domain"
)

// namePattern matches a package name: letters, digits, '.', '_' and '-',
// starting and ending with a letter or digit
var namePattern = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?$`)

// inlineCommentPattern matches a trailing comment preceded by whitespace
var inlineCommentPattern = regexp.MustCompile(`\s+#.*$`)

// Operators lists the recognized comparison operators. Longer operators come
// first so "===" is not read as "==".
var Operators = []string{"===", "==", ">=", "<=", "~=", "!=", "<", ">"}

// scanner holds the state of a single parse pass
type scanner struct {
	source    string
	section   string
	inComment bool
	entries   []domain.Entry
	diags     []domain.Diagnostic
}

// Parse reads manifest text and returns its entries and diagnostics.
// Malformed lines are reported and skipped; duplicate packages keep the last
// declaration. source names the manifest in diagnostics and is the base for
// relative references.
func Parse(source, text string) *domain.Manifest {
	s := &scanner{source: source, section: domain.DefaultSection}

	for i, raw := range strings.Split(text, "\n") {
		s.scanLine(i+1, strings.TrimRight(raw, "\r"))
	}

	entries, dups := dedupe(s.entries)
	diags := append(s.diags, dups...)
	sort.SliceStable(diags, func(i, j int) bool {
		return diags[i].Line < diags[j].Line
	})

	return &domain.Manifest{
		Source:      source,
		Entries:     entries,
		Diagnostics: diags,
	}
}

func (s *scanner) scanLine(lineNo int, raw string) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return
	}

	if strings.HasPrefix(line, "#") {
		label := strings.TrimSpace(strings.TrimLeft(line, "#"))
		if label == "" {
			return
		}
		// Only the first comment of a block names the section
		if !s.inComment {
			s.section = label
			s.inComment = true
		}
		return
	}
	s.inComment = false

	line = strings.TrimSpace(inlineCommentPattern.ReplaceAllString(line, ""))

	if path, ok := referencePath(line); ok {
		if path == "" {
			s.malformed(lineNo, raw, "", "reference without a path")
			return
		}
		s.entries = append(s.entries, domain.Entry{
			Kind:    domain.KindReference,
			Path:    path,
			Section: s.section,
			Source:  s.source,
			Line:    lineNo,
		})
		return
	}

	if strings.HasPrefix(line, "-") {
		s.malformed(lineNo, raw, "", fmt.Sprintf("unsupported option %q", strings.Fields(line)[0]))
		return
	}

	entry, msg := parsePackage(line)
	if msg != "" {
		s.malformed(lineNo, raw, entry.Package, msg)
		return
	}
	entry.Section = s.section
	entry.Source = s.source
	entry.Line = lineNo
	s.entries = append(s.entries, entry)
}

func (s *scanner) malformed(lineNo int, raw, pkg, msg string) {
	s.diags = append(s.diags, domain.Diagnostic{
		Kind:    domain.MalformedEntry,
		Source:  s.source,
		Line:    lineNo,
		Package: pkg,
		Text:    strings.TrimSpace(raw),
		Message: msg,
	})
}

// referencePath recognizes "-r path", "-rpath", "--requirement path",
// "--requirement=path" and "include path". ok is true when the line is a
// reference, even if the path is missing.
func referencePath(line string) (path string, ok bool) {
	if rest, found := strings.CutPrefix(line, "--requirement"); found {
		if rest == "" {
			return "", true
		}
		if rest[0] == '=' || isSpace(rest[0]) {
			return strings.TrimSpace(rest[1:]), true
		}
		return "", false
	}

	if rest, found := strings.CutPrefix(line, "-r"); found {
		return strings.TrimSpace(rest), true
	}

	// "include >= 1.0" and "include; marker" declare a package named include
	if rest, found := strings.CutPrefix(line, "include"); found && rest != "" && isSpace(rest[0]) {
		path := strings.TrimSpace(rest)
		if path != "" && strings.ContainsRune("=<>!~;", rune(path[0])) {
			return "", false
		}
		return path, true
	}

	return "", false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t'
}

// parsePackage parses "name[op version][; marker]". A non-empty message
// means the line is malformed.
func parsePackage(line string) (domain.Entry, string) {
	req, marker, hasMarker := strings.Cut(line, ";")
	marker = strings.TrimSpace(marker)

	name, op, version := SplitConstraint(strings.TrimSpace(req))
	entry := domain.Entry{
		Kind:     domain.KindPackage,
		Package:  name,
		Operator: op,
		Version:  version,
		Marker:   marker,
	}

	switch {
	case name == "":
		return entry, "missing package name"
	case !namePattern.MatchString(name):
		return entry, fmt.Sprintf("invalid package name %q", name)
	case op != "" && version == "":
		return entry, fmt.Sprintf("missing version after %q", op)
	case hasMarker && marker == "":
		return entry, "empty environment marker"
	}

	return entry, ""
}

// SplitConstraint splits "name<op>version" at the first comparison operator.
// Without an operator the whole string is the name.
func SplitConstraint(req string) (name, op, version string) {
	for i := 0; i < len(req); i++ {
		for _, candidate := range Operators {
			if strings.HasPrefix(req[i:], candidate) {
				return strings.TrimSpace(req[:i]), candidate, strings.TrimSpace(req[i+len(candidate):])
			}
		}
	}
	return strings.TrimSpace(req), "", ""
}
