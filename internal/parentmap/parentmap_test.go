package parentmap

import (
	"testing"

	"github.com/nix-community/nixd-sub000/internal/cst"
	"github.com/nix-community/nixd-sub000/internal/parser"
)

func TestBuildParentOfRootIsNoNode(t *testing.T) {
	tree, _ := parser.Parse("test://t.nix", 1, []byte(`1 + 2`))
	m := Build(tree)
	if p := m.Parent(tree.Root); p != cst.NoNode {
		t.Errorf("expected root's parent to be NoNode, got %v", p)
	}
	if !m.IsRoot(tree.Root) {
		t.Errorf("expected IsRoot(root) to be true")
	}
}

func TestUpToFindsEnclosingAttrs(t *testing.T) {
	tree, _ := parser.Parse("test://t.nix", 1, []byte(`{ a = 1; }`))
	m := Build(tree)
	root := tree.RootNode()
	binds := firstChildOfKind(tree, root.ID, cst.KindBinds)
	if binds == cst.NoNode {
		t.Fatalf("expected a Binds child of the root Attrs")
	}
	binding := firstChildOfKind(tree, binds, cst.KindBinding)
	if binding == cst.NoNode {
		t.Fatalf("expected a Binding child of Binds")
	}
	if got := m.UpTo(binding, cst.KindAttrs); got != root.ID {
		t.Errorf("UpTo(Binding, KindAttrs) = %v, want root %v", got, root.ID)
	}
}

func firstChildOfKind(tree *cst.Tree, id cst.NodeID, kind cst.NodeKind) cst.NodeID {
	n := tree.NodeByID(id)
	if n == nil {
		return cst.NoNode
	}
	for _, c := range tree.ChildNodes(n) {
		child := tree.NodeByID(c)
		if child != nil && child.Kind == kind {
			return c
		}
	}
	return cst.NoNode
}
