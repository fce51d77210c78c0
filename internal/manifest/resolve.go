package manifest

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"slices"
	"strings"

	"github.com/quantmind-br/reqscan/internal/domain"
)

// DefaultMaxDepth bounds how deeply references may nest
const DefaultMaxDepth = 32

// ResolverOptions contains options for creating a Resolver
type ResolverOptions struct {
	MaxDepth int
}

// Resolver splices referenced manifests into the manifests that include them
type Resolver struct {
	loader   domain.Loader
	maxDepth int
}

// NewResolver creates a Resolver that fetches references through loader
func NewResolver(loader domain.Loader, opts ResolverOptions) *Resolver {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	return &Resolver{
		loader:   loader,
		maxDepth: opts.MaxDepth,
	}
}

// ResolveReferences resolves m with default options
func ResolveReferences(ctx context.Context, m *domain.Manifest, loader domain.Loader) (*domain.Manifest, error) {
	return NewResolver(loader, ResolverOptions{}).Resolve(ctx, m)
}

// Resolve replaces every reference entry of m with the entries of the
// manifest it names, recursively. Spliced entries keep their own sections and
// sources. m is not modified; on error no partial result is returned.
func (r *Resolver) Resolve(ctx context.Context, m *domain.Manifest) (*domain.Manifest, error) {
	// The root goes on the stack in the same form JoinReference gives its
	// children, so "./a.txt" and "a.txt" are one manifest
	var stack []string
	if m.Source != "" {
		stack = append(stack, JoinReference("", m.Source))
	}

	entries, diags, err := r.resolve(ctx, m, stack)
	if err != nil {
		return nil, err
	}

	entries, dups := dedupe(entries)
	return &domain.Manifest{
		Source:      m.Source,
		Entries:     entries,
		Diagnostics: append(diags, dups...),
	}, nil
}

// resolve walks m's entries. stack holds the sources currently being resolved
// and is never shared between sibling calls.
func (r *Resolver) resolve(ctx context.Context, m *domain.Manifest, stack []string) ([]domain.Entry, []domain.Diagnostic, error) {
	entries := make([]domain.Entry, 0, len(m.Entries))
	diags := slices.Clone(m.Diagnostics)

	for _, e := range m.Entries {
		if !e.IsReference() {
			entries = append(entries, e)
			continue
		}

		if err := ctx.Err(); err != nil {
			return nil, nil, domain.NewReferenceError(e.Path, e.Line, stack, err)
		}

		target := JoinReference(m.Source, e.Path)
		if slices.Contains(stack, target) {
			return nil, nil, domain.NewReferenceError(e.Path, e.Line, append(slices.Clone(stack), target), domain.ErrReferenceCycle)
		}
		if len(stack) >= r.maxDepth {
			return nil, nil, domain.NewReferenceError(e.Path, e.Line, stack,
				fmt.Errorf("%w: limit is %d", domain.ErrReferenceDepth, r.maxDepth))
		}

		text, err := r.loader.Load(ctx, target)
		if err != nil {
			return nil, nil, domain.NewReferenceError(e.Path, e.Line, stack,
				fmt.Errorf("%w: %w", domain.ErrReferenceLoad, err))
		}

		child := Parse(target, text)
		childStack := append(slices.Clone(stack), target)
		childEntries, childDiags, err := r.resolve(ctx, child, childStack)
		if err != nil {
			return nil, nil, err
		}

		entries = append(entries, childEntries...)
		diags = append(diags, childDiags...)
	}

	return entries, diags, nil
}

// JoinReference computes the location of ref as seen from the manifest at
// parent. Relative file paths are joined to the parent's directory, relative
// URLs are resolved against an http(s) parent, and for git+ locations the
// path inside the repository (the fragment) is joined instead.
func JoinReference(parent, ref string) string {
	if isURL(ref) {
		return ref
	}
	if path.IsAbs(ref) {
		return path.Clean(ref)
	}
	if parent == "" {
		return path.Clean(ref)
	}

	if isURL(parent) {
		base, err := url.Parse(parent)
		if err != nil {
			return ref
		}
		if strings.HasPrefix(base.Scheme, "git+") {
			joined := *base
			joined.Fragment = path.Join(path.Dir(base.Fragment), ref)
			return joined.String()
		}
		rel, err := url.Parse(ref)
		if err != nil {
			return ref
		}
		return base.ResolveReference(rel).String()
	}

	return path.Join(path.Dir(parent), ref)
}

func isURL(s string) bool {
	return strings.Contains(s, "://")
}
