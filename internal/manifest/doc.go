// Package manifest parses and validates requirements-style dependency
// manifests: flat lists of package names with optional version constraints
// and environment markers, grouped by comment lines.
//
// # Manifest Format
//
//	# test
//	pytest==4.5.0
//	pytest-cov>=2.7
//
//	# lint/format/types
//	black==19.3b0; python_version>='3.6'
//
//	-r requirements.txt
//
// The first comment of a comment block names the section of the entries that
// follow it, until the next comment block. Lines of the form "-r <path>",
// "--requirement <path>" or "include <path>" are reference entries that pull
// in another manifest.
//
// # Usage
//
// Parse a manifest and splice in its references:
//
//	m := manifest.Parse("requirements-dev.txt", text)
//	for _, d := range m.Diagnostics {
//	    fmt.Println(d)
//	}
//
//	resolved, err := manifest.ResolveReferences(ctx, m, loader.NewFileLoader("."))
//	if err != nil {
//	    var refErr *domain.ReferenceError
//	    if errors.As(err, &refErr) {
//	        // a reference could not be loaded, or references form a cycle
//	    }
//	}
//
// # Error Handling
//
// Line-level problems never abort a parse; they are reported as diagnostics:
//   - MalformedEntry: the line does not follow the package-line grammar and is dropped
//   - DuplicatePackage: the package is declared again later; the later line wins
//
// Reference problems abort resolution with a *domain.ReferenceError wrapping
// one of domain.ErrReferenceLoad, domain.ErrReferenceCycle or
// domain.ErrReferenceDepth.
package manifest
