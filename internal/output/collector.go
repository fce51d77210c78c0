package output

import (
	"sync"
	"time"

	"github.com/quantmind-br/reqscan/internal/domain"
)

// ManifestReport is the outcome of processing one manifest argument. Error is
// set when the manifest could not be read or its references not resolved;
// Manifest is then the unresolved parse, if there was one.
type ManifestReport struct {
	Source   string           `json:"source" yaml:"source" toml:"source"`
	Manifest *domain.Manifest `json:"manifest,omitempty" yaml:"manifest,omitempty" toml:"manifest,omitempty"`
	Error    string           `json:"error,omitempty" yaml:"error,omitempty" toml:"error,omitempty"`
}

// Summary counts totals across a report
type Summary struct {
	Manifests   int `json:"manifests" yaml:"manifests" toml:"manifests"`
	Packages    int `json:"packages" yaml:"packages" toml:"packages"`
	References  int `json:"references" yaml:"references" toml:"references"`
	Diagnostics int `json:"diagnostics" yaml:"diagnostics" toml:"diagnostics"`
	Errors      int `json:"errors" yaml:"errors" toml:"errors"`
}

// Report is the rendered result of a parse run
type Report struct {
	GeneratedAt time.Time        `json:"generated_at" yaml:"generated_at" toml:"generated_at"`
	Manifests   []ManifestReport `json:"manifests" yaml:"manifests" toml:"manifests"`
	Summary     Summary          `json:"summary" yaml:"summary" toml:"summary"`
}

// Collector gathers per-manifest results from concurrent workers into slots
// fixed by argument position
type Collector struct {
	mu      sync.Mutex
	results []ManifestReport
}

// NewCollector creates a collector with one slot per source
func NewCollector(sources []string) *Collector {
	results := make([]ManifestReport, len(sources))
	for i, s := range sources {
		results[i].Source = s
	}
	return &Collector{results: results}
}

// Add records the result for the source at index i
func (c *Collector) Add(i int, m *domain.Manifest, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i < 0 || i >= len(c.results) {
		return
	}
	c.results[i].Manifest = m
	if err != nil {
		c.results[i].Error = err.Error()
	}
}

// Count returns the number of slots
func (c *Collector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}

// Report builds the report from the collected results
func (c *Collector) Report() *Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	manifests := make([]ManifestReport, len(c.results))
	copy(manifests, c.results)

	return NewReport(manifests)
}

// NewReport builds a report and computes its summary
func NewReport(manifests []ManifestReport) *Report {
	r := &Report{
		GeneratedAt: time.Now().UTC(),
		Manifests:   manifests,
	}
	for _, mr := range manifests {
		r.Summary.Manifests++
		if mr.Error != "" {
			r.Summary.Errors++
		}
		if mr.Manifest == nil {
			continue
		}
		r.Summary.Packages += len(mr.Manifest.Packages())
		r.Summary.References += len(mr.Manifest.References())
		r.Summary.Diagnostics += len(mr.Manifest.Diagnostics)
	}
	return r
}

// HasDiagnostics reports whether any manifest produced diagnostics
func (r *Report) HasDiagnostics() bool {
	return r.Summary.Diagnostics > 0
}

// HasErrors reports whether any manifest failed
func (r *Report) HasErrors() bool {
	return r.Summary.Errors > 0
}
