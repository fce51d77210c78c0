package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/quantmind-br/reqscan/internal/domain"
	"github.com/quantmind-br/reqscan/internal/manifest"
)

// DiffReport is the result of comparing two manifests
type DiffReport struct {
	Old     string            `json:"old" yaml:"old" toml:"old"`
	New     string            `json:"new" yaml:"new" toml:"new"`
	Changes []manifest.Change `json:"changes" yaml:"changes" toml:"changes"`
}

// Render writes r to w in format f
func Render(w io.Writer, r *Report, f Format) error {
	switch f {
	case FormatText:
		return renderText(w, r)
	case FormatRequirements:
		return renderRequirements(w, r)
	default:
		return encode(w, r, f)
	}
}

// RenderDiff writes d to w in format f. The requirements format has no diff
// form and falls back to text.
func RenderDiff(w io.Writer, d *DiffReport, f Format) error {
	switch f {
	case FormatText, FormatRequirements:
		return renderDiffText(w, d)
	default:
		return encode(w, d, f)
	}
}

func encode(w io.Writer, v any, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case FormatTOML:
		return toml.NewEncoder(w).Encode(v)
	default:
		return fmt.Errorf("unsupported format %q", f)
	}
}

func renderRequirements(w io.Writer, r *Report) error {
	first := true
	for _, mr := range r.Manifests {
		if mr.Manifest == nil {
			continue
		}
		if !first {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		first = false
		if _, err := io.WriteString(w, manifest.Format(mr.Manifest)); err != nil {
			return err
		}
	}
	return nil
}

func renderText(w io.Writer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	for i, mr := range r.Manifests {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintln(tw, mr.Source)

		if mr.Error != "" {
			fmt.Fprintf(tw, "  error: %s\n", mr.Error)
		}
		if mr.Manifest == nil {
			continue
		}

		if len(mr.Manifest.Entries) > 0 {
			writeEntries(tw, mr.Manifest)
		}
		for _, d := range mr.Manifest.Diagnostics {
			fmt.Fprintf(tw, "  %s\n", d)
		}
	}

	s := r.Summary
	fmt.Fprintf(tw, "\n%s, %s, %s in %s",
		plural(s.Packages, "package"),
		plural(s.References, "reference"),
		plural(s.Diagnostics, "diagnostic"),
		plural(s.Manifests, "manifest"))
	if s.Errors > 0 {
		fmt.Fprintf(tw, " (%s)", plural(s.Errors, "error"))
	}
	fmt.Fprintln(tw)

	return tw.Flush()
}

func writeEntries(tw *tabwriter.Writer, m *domain.Manifest) {
	withSource := mixedSources(m)

	header := "  LINE\tSECTION\tPACKAGE\tCONSTRAINT\tMARKER"
	if withSource {
		header += "\tSOURCE"
	}
	fmt.Fprintln(tw, header)

	for _, e := range m.Entries {
		name := e.Package
		if e.IsReference() {
			name = "-r " + e.Path
		}
		row := fmt.Sprintf("  %d\t%s\t%s\t%s\t%s",
			e.Line, dash(e.Section), name, dash(e.Constraint()), dash(e.Marker))
		if withSource {
			row += "\t" + dash(e.Source)
		}
		fmt.Fprintln(tw, row)
	}
}

func renderDiffText(w io.Writer, d *DiffReport) error {
	if _, err := fmt.Fprintf(w, "%s -> %s\n", d.Old, d.New); err != nil {
		return err
	}
	if len(d.Changes) == 0 {
		_, err := io.WriteString(w, "no changes\n")
		return err
	}
	for _, c := range d.Changes {
		if _, err := fmt.Fprintln(w, c.String()); err != nil {
			return err
		}
	}
	return nil
}

// mixedSources reports whether resolution pulled entries from more than one file
func mixedSources(m *domain.Manifest) bool {
	for _, e := range m.Entries {
		if e.Source != m.Source {
			return true
		}
	}
	return false
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}
