// Package tu manages the set of open translation units: one parsed,
// lowered, and analyzed Nix expression per editor document, keyed by
// URI and guarded against stale or out-of-order edits.
//
// A TranslationUnit bundles every analysis stage spec.md §4 defines —
// the CST, the sema.Result, the parentmap.Map, and the varlookup.Result
// — so a handler that has looked up one has everything it needs without
// re-running the pipeline.
package tu

import (
	"errors"
	"slices"

	"github.com/nix-community/nixd-sub000/internal/cst"
	"github.com/nix-community/nixd-sub000/internal/diag"
	"github.com/nix-community/nixd-sub000/internal/parentmap"
	"github.com/nix-community/nixd-sub000/internal/parser"
	"github.com/nix-community/nixd-sub000/internal/sema"
	"github.com/nix-community/nixd-sub000/internal/varlookup"
)

// ErrDocumentNotOpen is returned when an operation targets a URI with no
// tracked translation unit.
var ErrDocumentNotOpen = errors.New("tu: document not open")

// ErrStaleVersion is returned when an incoming version is not strictly
// greater than the one currently tracked.
var ErrStaleVersion = errors.New("tu: stale version")

// TranslationUnit is the immutable result of analyzing one document
// version. Callers never mutate a TranslationUnit in place; Manager
// replaces it wholesale on the next edit.
type TranslationUnit struct {
	URI     string
	Version int32
	Tree    *cst.Tree
	Sema    *sema.Result
	Parents *parentmap.Map
	Lookup  *varlookup.Result

	// Diagnostics is the full, unsuppressed union of every pass's
	// diagnostics, sorted by span start.
	Diagnostics []diag.Diagnostic
}

// Source returns a copy of the unit's source bytes.
func (u *TranslationUnit) Source() []byte {
	if u == nil || u.Tree == nil {
		return nil
	}
	return slices.Clone(u.Tree.Source)
}

func analyze(uri string, version int32, src []byte) *TranslationUnit {
	tree, parseDiags := parser.Parse(uri, version, src)
	semaResult := sema.Lower(tree)
	lookupResult := varlookup.Analyze(tree, semaResult)
	parents := parentmap.Build(tree)

	all := make([]diag.Diagnostic, 0, len(parseDiags)+len(semaResult.Diagnostics)+len(lookupResult.Diagnostics))
	all = append(all, parseDiags...)
	all = append(all, semaResult.Diagnostics...)
	all = append(all, lookupResult.Diagnostics...)
	slices.SortStableFunc(all, func(a, b diag.Diagnostic) int {
		return int(a.Span.Start) - int(b.Span.Start)
	})

	return &TranslationUnit{
		URI:         uri,
		Version:     version,
		Tree:        tree,
		Sema:        semaResult,
		Parents:     parents,
		Lookup:      lookupResult,
		Diagnostics: all,
	}
}
