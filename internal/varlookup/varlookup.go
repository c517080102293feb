// Package varlookup implements spec.md §4.6's variable-lookup pass: it
// builds the lexical scope tree (EnvNode) over a CST already lowered by
// internal/sema, resolves every Var node to a Definition or an
// undefined-variable diagnostic, and reports the "dead scope" family of
// hints (unused definitions, no-op 'rec', no-op 'with').
package varlookup

import (
	"github.com/nix-community/nixd-sub000/internal/cst"
	"github.com/nix-community/nixd-sub000/internal/diag"
	"github.com/nix-community/nixd-sub000/internal/sema"
)

// DefSource tags how a Definition entered its EnvNode.
type DefSource uint8

// DefSource values.
const (
	SourceBuiltin DefSource = iota
	SourceLambdaArg
	SourceLambdaFormal
	SourceRec
	SourceLet
	SourceWith
)

// Definition is one name bound in an EnvNode.
type Definition struct {
	// Node is the defining syntax node (the formal's Identifier, the
	// attribute's AttrName, the with-expr's keyword With node, ...). NoNode
	// for a builtin, which has no syntax of its own.
	Node   cst.NodeID
	Source DefSource
	// Uses records every reference (a Var node, or an inherited name's
	// AttrName node) that resolved to this definition.
	Uses []cst.NodeID
}

// EnvNode is one lexical scope: a set of bindings plus a parent pointer.
type EnvNode struct {
	Parent   *EnvNode
	Bindings map[string]*Definition
	Order    []string
	// Introducing is the syntax node that opened this scope (Lambda, Attrs,
	// Let, or With); NoNode for the synthetic root builtin env.
	Introducing cst.NodeID
	// IsWith marks a with-scope: it introduces no statically known names,
	// so a lookup crossing it neither succeeds nor fails here — it just
	// remembers the with for a possible fallback.
	IsWith bool
}

func newEnvNode(parent *EnvNode, introducing cst.NodeID) *EnvNode {
	return &EnvNode{Parent: parent, Bindings: make(map[string]*Definition), Introducing: introducing}
}

func (e *EnvNode) put(name string, def *Definition) {
	if _, exists := e.Bindings[name]; exists {
		return // first binding of a name in an env wins; sema already reports true duplicates
	}
	e.Order = append(e.Order, name)
	e.Bindings[name] = def
}

// LookupKind is the three-way result of resolving a variable reference.
type LookupKind uint8

// LookupKind values.
const (
	Undefined LookupKind = iota
	Defined
	FromWith
)

// LookupResult is the resolution of one variable reference.
type LookupResult struct {
	Kind LookupKind
	Def  *Definition // nil iff Kind == Undefined
}

// Result is the output of running Analyze over one lowered CST.
type Result struct {
	// Envs maps every node the scope walk visits (and each Lambda's
	// argument node) to the EnvNode active at that position; nodes the
	// walk does not visit, such as Binds and Binding, have no entry.
	Envs map[cst.NodeID]*EnvNode
	// Results maps every Var node (and every bare `inherit x` name's
	// AttrName node) to its resolution.
	Results map[cst.NodeID]LookupResult
	// WithDefs maps each With node to the synthetic Definition recording
	// uses that fell back to it.
	WithDefs    map[cst.NodeID]*Definition
	Diagnostics []diag.Diagnostic
}

// Analyze builds the scope tree over tree and resolves every variable
// reference, given the SemaAttrs annotations sr already computed for it.
func Analyze(tree *cst.Tree, sr *sema.Result) *Result {
	r := &Result{
		Envs:     make(map[cst.NodeID]*EnvNode),
		Results:  make(map[cst.NodeID]LookupResult),
		WithDefs: make(map[cst.NodeID]*Definition),
	}
	if tree == nil {
		return r
	}
	if sr == nil {
		sr = &sema.Result{}
	}
	a := &analyzer{tree: tree, sema: sr, result: r}
	root := a.rootEnv()
	a.walk(tree.Root, root)
	a.reportUnused()
	return r
}

func (a *analyzer) addDiag(d diag.Diagnostic) {
	d.Source = diag.SourceVarLookup
	a.result.Diagnostics = append(a.result.Diagnostics, d)
}
