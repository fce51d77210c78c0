package manifest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/reqscan/internal/domain"
)

// mapLoader serves manifests from memory and records every load
type mapLoader struct {
	files map[string]string
	calls []string
}

func (l *mapLoader) Load(ctx context.Context, path string) (string, error) {
	l.calls = append(l.calls, path)
	text, ok := l.files[path]
	if !ok {
		return "", fmt.Errorf("%s: %w", path, domain.ErrNotFound)
	}
	return text, nil
}

func TestResolveReferences_SplicesChild(t *testing.T) {
	loader := &mapLoader{files: map[string]string{
		"child.txt": "# base\nrequests==2.22.0\nsix==1.12.0\n",
	}}
	parent := Parse("parent.txt", "# test\npytest==4.5.0\n-r child.txt\nmock==3.0.5\n")

	resolved, err := ResolveReferences(context.Background(), parent, loader)

	require.NoError(t, err)
	assert.Equal(t, []string{"pytest", "requests", "six", "mock"}, packageNames(resolved))
	assert.False(t, resolved.HasReferences())
	assert.Equal(t, "parent.txt", resolved.Source)

	sections := map[string]string{}
	sources := map[string]string{}
	for _, e := range resolved.Entries {
		sections[e.Package] = e.Section
		sources[e.Package] = e.Source
	}
	assert.Equal(t, "test", sections["pytest"])
	assert.Equal(t, "base", sections["requests"])
	assert.Equal(t, "base", sections["six"])
	assert.Equal(t, "test", sections["mock"], "parent section resumes after the splice")
	assert.Equal(t, "child.txt", sources["requests"])
	assert.Equal(t, "parent.txt", sources["mock"])

	assert.True(t, parent.HasReferences(), "input manifest is left untouched")
}

func TestResolveReferences_Nested(t *testing.T) {
	loader := &mapLoader{files: map[string]string{
		"reqs/dev.txt":         "-r base/common.txt\npytest\n",
		"reqs/base/common.txt": "six\n",
	}}
	root := Parse("requirements.txt", "-r reqs/dev.txt\nboto3\n")

	resolved, err := ResolveReferences(context.Background(), root, loader)

	require.NoError(t, err)
	assert.Equal(t, []string{"six", "pytest", "boto3"}, packageNames(resolved))
	assert.Equal(t, []string{"reqs/dev.txt", "reqs/base/common.txt"}, loader.calls)
}

func TestResolveReferences_SiblingIncludesAreNotCycles(t *testing.T) {
	loader := &mapLoader{files: map[string]string{
		"a.txt":      "-r common.txt\nalpha\n",
		"b.txt":      "-r common.txt\nbeta\n",
		"common.txt": "six\n",
	}}
	root := Parse("root.txt", "-r a.txt\n-r b.txt\n")

	resolved, err := ResolveReferences(context.Background(), root, loader)

	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "six", "beta"}, packageNames(resolved))
	require.Len(t, resolved.Diagnostics, 1)
	assert.Equal(t, domain.DuplicatePackage, resolved.Diagnostics[0].Kind)
	assert.Equal(t, "common.txt", resolved.Diagnostics[0].Source)
}

func TestResolveReferences_Cycle(t *testing.T) {
	loader := &mapLoader{files: map[string]string{
		"a.txt": "alpha\n-r b.txt\n",
		"b.txt": "beta\n-r a.txt\n",
	}}
	root := Parse("a.txt", loader.files["a.txt"])

	resolved, err := ResolveReferences(context.Background(), root, loader)

	require.Error(t, err)
	assert.Nil(t, resolved)
	assert.ErrorIs(t, err, domain.ErrReferenceCycle)

	var refErr *domain.ReferenceError
	require.True(t, errors.As(err, &refErr))
	assert.Equal(t, "a.txt", refErr.Path)
	assert.Equal(t, 2, refErr.Line)
	assert.Equal(t, []string{"a.txt", "b.txt", "a.txt"}, refErr.Stack)
	assert.Equal(t, []string{"b.txt"}, loader.calls)
}

func TestResolveReferences_CycleThroughUncleanRoot(t *testing.T) {
	tests := []struct {
		name  string
		root  string
		stack []string
	}{
		{name: "dot prefix", root: "./a.txt", stack: []string{"a.txt", "b.txt", "a.txt"}},
		{name: "redundant segments", root: "reqs/../a.txt", stack: []string{"a.txt", "b.txt", "a.txt"}},
		{name: "absolute", root: "/srv/app/./a.txt", stack: []string{"/srv/app/a.txt", "/srv/app/b.txt", "/srv/app/a.txt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := &mapLoader{files: map[string]string{
				"a.txt":          "alpha\n-r b.txt\n",
				"b.txt":          "beta\n-r a.txt\n",
				"/srv/app/a.txt": "alpha\n-r b.txt\n",
				"/srv/app/b.txt": "beta\n-r a.txt\n",
			}}
			root := Parse(tt.root, "alpha\n-r b.txt\n")

			_, err := ResolveReferences(context.Background(), root, loader)

			require.ErrorIs(t, err, domain.ErrReferenceCycle)
			var refErr *domain.ReferenceError
			require.True(t, errors.As(err, &refErr))
			assert.Equal(t, tt.stack, refErr.Stack)
			assert.Len(t, loader.calls, 1, "the root is never loaded again")
		})
	}
}

func TestResolveReferences_SelfReference(t *testing.T) {
	loader := &mapLoader{files: map[string]string{}}
	root := Parse("a.txt", "-r ./a.txt\n")

	_, err := ResolveReferences(context.Background(), root, loader)

	assert.ErrorIs(t, err, domain.ErrReferenceCycle)
	assert.Empty(t, loader.calls)
}

func TestResolveReferences_UnnamedRootCycle(t *testing.T) {
	loader := &mapLoader{files: map[string]string{
		"loop.txt": "-r loop.txt\n",
	}}
	root := Parse("", "-r loop.txt\n")

	_, err := ResolveReferences(context.Background(), root, loader)

	assert.ErrorIs(t, err, domain.ErrReferenceCycle)
}

func TestResolver_MaxDepth(t *testing.T) {
	files := map[string]string{}
	for i := 0; i < 5; i++ {
		files[fmt.Sprintf("%d.txt", i)] = fmt.Sprintf("-r %d.txt\n", i+1)
	}
	files["5.txt"] = "six\n"
	loader := &mapLoader{files: files}
	root := Parse("root.txt", "-r 0.txt\n")

	_, err := NewResolver(loader, ResolverOptions{MaxDepth: 3}).Resolve(context.Background(), root)
	assert.ErrorIs(t, err, domain.ErrReferenceDepth)
	assert.True(t, domain.IsReferenceError(err))

	resolved, err := NewResolver(loader, ResolverOptions{}).Resolve(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"six"}, packageNames(resolved))
}

func TestResolveReferences_LoaderFailure(t *testing.T) {
	loader := &mapLoader{files: map[string]string{
		"dev.txt": "pytest\n-r missing.txt\n",
	}}
	root := Parse("root.txt", "six\n-r dev.txt\n")

	resolved, err := ResolveReferences(context.Background(), root, loader)

	require.Error(t, err)
	assert.Nil(t, resolved)
	assert.ErrorIs(t, err, domain.ErrReferenceLoad)
	assert.ErrorIs(t, err, domain.ErrNotFound, "loader error is kept in the chain")

	var refErr *domain.ReferenceError
	require.True(t, errors.As(err, &refErr))
	assert.Equal(t, "missing.txt", refErr.Path)
	assert.Equal(t, []string{"root.txt", "dev.txt"}, refErr.Stack)
}

func TestResolveReferences_CanceledContext(t *testing.T) {
	loader := &mapLoader{files: map[string]string{"b.txt": "six\n"}}
	root := Parse("a.txt", "-r b.txt\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ResolveReferences(ctx, root, loader)

	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, domain.IsReferenceError(err))
	assert.Empty(t, loader.calls)
}

func TestResolveReferences_CarriesDiagnostics(t *testing.T) {
	loader := domain.LoaderFunc(func(ctx context.Context, path string) (string, error) {
		return "requests==2.21.0\nnot valid\n", nil
	})
	root := Parse("root.txt", "-r base.txt\nrequests==2.22.0\n")

	resolved, err := ResolveReferences(context.Background(), root, loader)

	require.NoError(t, err)
	require.Len(t, resolved.Diagnostics, 2)
	assert.Equal(t, domain.MalformedEntry, resolved.Diagnostics[0].Kind)
	assert.Equal(t, "base.txt", resolved.Diagnostics[0].Source)
	assert.Equal(t, domain.DuplicatePackage, resolved.Diagnostics[1].Kind)
	assert.Equal(t, "base.txt", resolved.Diagnostics[1].Source)

	e, ok := resolved.Lookup("requests")
	require.True(t, ok)
	assert.Equal(t, "2.22.0", e.Version, "parent declaration after the reference wins")
}

func TestResolveReferences_NoReferences(t *testing.T) {
	loader := &mapLoader{}
	root := Parse("root.txt", devRequirements[:len(devRequirements)-len("-r requirements.txt\n")])

	resolved, err := ResolveReferences(context.Background(), root, loader)

	require.NoError(t, err)
	assert.Equal(t, root.Entries, resolved.Entries)
	assert.Empty(t, loader.calls)
}

func TestJoinReference(t *testing.T) {
	tests := []struct {
		parent   string
		ref      string
		expected string
	}{
		{"", "child.txt", "child.txt"},
		{"", "./sub/../child.txt", "child.txt"},
		{"requirements.txt", "base.txt", "base.txt"},
		{"reqs/dev.txt", "base.txt", "reqs/base.txt"},
		{"reqs/dev.txt", "../base.txt", "base.txt"},
		{"reqs/dev.txt", "/etc/base.txt", "/etc/base.txt"},
		{"reqs/dev.txt", "/etc/./pins/../base.txt", "/etc/base.txt"},
		{"", "/srv/app/./requirements.txt", "/srv/app/requirements.txt"},
		{"reqs/dev.txt", "https://example.com/base.txt", "https://example.com/base.txt"},
		{"https://example.com/reqs/dev.txt", "base.txt", "https://example.com/reqs/base.txt"},
		{"https://example.com/reqs/dev.txt", "../base.txt", "https://example.com/base.txt"},
		{"git+https://github.com/org/repo.git@v1#reqs/dev.txt", "base.txt", "git+https://github.com/org/repo.git@v1#reqs/base.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.parent+"+"+tt.ref, func(t *testing.T) {
			assert.Equal(t, tt.expected, JoinReference(tt.parent, tt.ref))
		})
	}
}
