package sema

import (
	"testing"

	"github.com/nix-community/nixd-sub000/internal/cst"
	"github.com/nix-community/nixd-sub000/internal/diag"
	"github.com/nix-community/nixd-sub000/internal/parser"
)

func parse(t *testing.T, src string) *cst.Tree {
	t.Helper()
	tree, _ := parser.Parse("test://t.nix", 1, []byte(src))
	return tree
}

func hasDiagKind(diags []diag.Diagnostic, want diag.Kind) bool {
	for _, d := range diags {
		if d.Kind == want {
			return true
		}
	}
	return false
}

func TestLowerMkdirPMerge(t *testing.T) {
	tree := parse(t, `{ a.b = 1; a.c = 2; }`)
	r := Lower(tree)
	root := tree.RootNode()
	sa, ok := r.AttrsOf[root.ID]
	if !ok {
		t.Fatalf("no SemaAttrs for root Attrs node")
	}
	aAttr, ok := sa.Static["a"]
	if !ok {
		t.Fatalf("expected top-level attribute 'a'")
	}
	if aAttr.Nested == nil {
		t.Fatalf("expected 'a' to be an intermediate attrs from mkdir-p merge")
	}
	if _, ok := aAttr.Nested.Static["b"]; !ok {
		t.Errorf("expected merged attribute 'b' under a")
	}
	if _, ok := aAttr.Nested.Static["c"]; !ok {
		t.Errorf("expected merged attribute 'c' under a")
	}
}

func TestLowerDuplicatedAttrName(t *testing.T) {
	tree := parse(t, `{ a = 1; a = 2; }`)
	r := Lower(tree)
	if !hasDiagKind(r.Diagnostics, diag.KindDuplicatedAttrName) {
		t.Errorf("expected a duplicated-attr-name diagnostic, got %v", r.Diagnostics)
	}
}

func TestLowerInheritDesugarsPlain(t *testing.T) {
	tree := parse(t, `{ inherit a b; }`)
	r := Lower(tree)
	root := tree.RootNode()
	sa := r.AttrsOf[root.ID]
	for _, name := range []string{"a", "b"} {
		attr, ok := sa.Static[name]
		if !ok {
			t.Fatalf("expected inherited name %q", name)
		}
		if attr.Source != SourceInherit {
			t.Errorf("expected %q to be tagged SourceInherit", name)
		}
	}
}

func TestLowerInheritFromTagsSource(t *testing.T) {
	tree := parse(t, `{ inherit (pkgs) a; }`)
	r := Lower(tree)
	root := tree.RootNode()
	sa := r.AttrsOf[root.ID]
	attr, ok := sa.Static["a"]
	if !ok {
		t.Fatalf("expected inherited name 'a'")
	}
	if attr.Source != SourceInheritFrom {
		t.Errorf("expected SourceInheritFrom, got %v", attr.Source)
	}
}

func TestLowerDuplicatedFormal(t *testing.T) {
	tree := parse(t, `{ a, a }: a`)
	r := Lower(tree)
	if !hasDiagKind(r.Diagnostics, diag.KindDuplicatedFormal) {
		t.Errorf("expected a duplicated-formal diagnostic, got %v", r.Diagnostics)
	}
}

func TestLowerDuplicatedFormalToArg(t *testing.T) {
	tree := parse(t, `{ a }@a: a`)
	r := Lower(tree)
	if !hasDiagKind(r.Diagnostics, diag.KindDuplicatedFormalToArg) {
		t.Errorf("expected a duplicated-formal-to-arg diagnostic, got %v", r.Diagnostics)
	}
}

func TestLowerLetIsAlwaysRecursive(t *testing.T) {
	tree := parse(t, `let a = 1; in a`)
	r := Lower(tree)
	root := tree.RootNode()
	sa, ok := r.AttrsOf[root.ID]
	if !ok || !sa.Recursive {
		t.Errorf("expected let-bindings to be recorded as recursive")
	}
}

func TestLowerMergeDiffRecWarns(t *testing.T) {
	tree := parse(t, `{ a = rec { x = 1; }; a = { y = 2; }; }`)
	r := Lower(tree)
	if !hasDiagKind(r.Diagnostics, diag.KindMergeDiffRec) {
		t.Errorf("expected a merge-diff-rec diagnostic, got %v", r.Diagnostics)
	}
	// MergeDiffRec is a warning, not a reason to skip the merge: both
	// sides' attributes must still show up together.
	root := tree.RootNode()
	sa := r.AttrsOf[root.ID]
	aAttr := sa.Static["a"]
	if aAttr.Nested == nil {
		t.Fatalf("expected 'a' to still merge despite disagreeing on 'rec'")
	}
	if _, ok := aAttr.Nested.Static["x"]; !ok {
		t.Errorf("expected merged attribute 'x' under a")
	}
	if _, ok := aAttr.Nested.Static["y"]; !ok {
		t.Errorf("expected merged attribute 'y' under a")
	}
}

// TestLowerBraceLiteralMerge covers spec.md §8 scenario 3: two brace
// attrset literals bound to the same name merge into one Nested
// SemaAttrs, distinct from the path-based (mkdir-p) merge case above.
func TestLowerBraceLiteralMerge(t *testing.T) {
	tree := parse(t, `{ a = { x = 1; }; a = { y = 2; }; }`)
	r := Lower(tree)
	if hasDiagKind(r.Diagnostics, diag.KindDuplicatedAttrName) {
		t.Errorf("expected no duplicated-attr-name diagnostic for a legal brace-literal merge, got %v", r.Diagnostics)
	}
	root := tree.RootNode()
	sa, ok := r.AttrsOf[root.ID]
	if !ok {
		t.Fatalf("no SemaAttrs for root Attrs node")
	}
	aAttr, ok := sa.Static["a"]
	if !ok {
		t.Fatalf("expected top-level attribute 'a'")
	}
	if aAttr.Nested == nil {
		t.Fatalf("expected 'a' to carry a merged Nested SemaAttrs")
	}
	if _, ok := aAttr.Nested.Static["x"]; !ok {
		t.Errorf("expected merged attribute 'x' under a")
	}
	if _, ok := aAttr.Nested.Static["y"]; !ok {
		t.Errorf("expected merged attribute 'y' under a")
	}
}

// TestLowerBraceLiteralMergeThreeWay checks a third occurrence on the
// same key extends the existing Nested SemaAttrs rather than rebuilding
// it, and that a genuine duplicate introduced by the third occurrence is
// still caught.
func TestLowerBraceLiteralMergeThreeWay(t *testing.T) {
	tree := parse(t, `{ a = { x = 1; }; a = { y = 2; }; a = { y = 3; }; }`)
	r := Lower(tree)
	if !hasDiagKind(r.Diagnostics, diag.KindDuplicatedAttrName) {
		t.Errorf("expected a duplicated-attr-name diagnostic for the repeated 'y', got %v", r.Diagnostics)
	}
	root := tree.RootNode()
	sa := r.AttrsOf[root.ID]
	aAttr := sa.Static["a"]
	if aAttr.Nested == nil {
		t.Fatalf("expected 'a' to carry a merged Nested SemaAttrs")
	}
	if _, ok := aAttr.Nested.Static["x"]; !ok {
		t.Errorf("expected merged attribute 'x' under a")
	}
	if _, ok := aAttr.Nested.Static["y"]; !ok {
		t.Errorf("expected merged attribute 'y' under a")
	}
}
