package lsp

import (
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/nix-community/nixd-sub000/internal/cst"
	"github.com/nix-community/nixd-sub000/internal/sema"
	itext "github.com/nix-community/nixd-sub000/internal/text"
	"github.com/nix-community/nixd-sub000/internal/tu"
	"github.com/nix-community/nixd-sub000/internal/varlookup"
)

// collectRefactorActions implements spec.md §4.8's structural Refactor
// table: every entry is a pure single-WorkspaceEdit text transform keyed
// off what node the cursor (the start of the code-action range) lands
// on. Unlike the diagnostic-derived QuickFix actions in CodeAction,
// these never read unit.Diagnostics — they are offered whenever the
// cursor sits on a qualifying node, independent of any error.
func collectRefactorActions(unit *tu.TranslationUnit, uri string, li *itext.LineIndex, rng Range) []CodeAction {
	tree := unit.Tree
	if tree == nil || unit.Parents == nil {
		return nil
	}
	pos := rng.Start
	off, ok := offsetForPosition(li, pos)
	if !ok {
		return nil
	}
	hitNode := tree.Descend(nil, itext.At(off))
	if hitNode == nil {
		return nil
	}
	hit := hitNode.ID

	var out []CodeAction
	add := func(a *CodeAction) {
		if a != nil {
			out = append(out, *a)
		}
	}

	add(refactorQuoteAttrName(tree, uri, li, unit.Parents.UpTo(hit, cst.KindAttrName)))
	add(refactorBindingToInherit(tree, uri, li, unit.Parents.UpTo(hit, cst.KindBinding)))
	add(refactorInheritToBinding(tree, uri, li, unit.Parents.UpTo(hit, cst.KindInherit)))
	add(refactorFlattenNestedAttrs(unit, uri, li, unit.Parents.UpTo(hit, cst.KindBinding)))
	out = append(out, refactorPackDottedPath(unit, uri, li, unit.Parents.UpTo(hit, cst.KindBinding))...)
	add(refactorAddToFormals(unit, uri, li, hit))
	add(refactorWithToLetInherit(unit, uri, li, unit.Parents.UpTo(hit, cst.KindWith)))
	add(refactorStringStyle(tree, uri, li, unit.Parents.UpTo(hit, cst.KindString)))
	add(refactorExtractToFile(unit, uri, li, hit))
	add(refactorJSONToNix(unit, uri, li, rng))
	return out
}

func singleEdit(uri string, sp itext.Span, newText string, li *itext.LineIndex) (*WorkspaceEdit, bool) {
	rng, err := rangeFromSpan(li, sp)
	if err != nil {
		return nil, false
	}
	return &WorkspaceEdit{Changes: map[string][]TextEdit{uri: {{Range: rng, NewText: newText}}}}, true
}

func multiEdit(uri string, spans []itext.Span, texts []string, li *itext.LineIndex) (*WorkspaceEdit, bool) {
	edits := make([]TextEdit, 0, len(spans))
	for i, sp := range spans {
		rng, err := rangeFromSpan(li, sp)
		if err != nil {
			return nil, false
		}
		edits = append(edits, TextEdit{Range: rng, NewText: texts[i]})
	}
	return &WorkspaceEdit{Changes: map[string][]TextEdit{uri: edits}}, true
}

// isValidIdentifierName reports whether name could spell a plain
// (unquoted) Nix identifier, per the lexer's isIdentStart/isIdentPart
// charset.
func isValidIdentifierName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		b := name[i]
		isStart := (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_'
		isCont := isStart || (b >= '0' && b <= '9') || b == '\'' || b == '-'
		if i == 0 && !isStart {
			return false
		}
		if i > 0 && !isCont {
			return false
		}
	}
	return true
}

// attrNameLiteral mirrors sema's unexported staticAttrNameText: the
// literal text of an AttrName if it's a plain identifier or a
// single-fragment static string, and false for an interpolation or a
// multi-fragment string.
func attrNameLiteral(tree *cst.Tree, n *cst.Node) (string, bool) {
	if n == nil {
		return "", false
	}
	children := tree.ChildNodes(n)
	if len(children) != 1 {
		return "", false
	}
	inner := tree.NodeByID(children[0])
	if inner == nil {
		return "", false
	}
	switch inner.Kind {
	case cst.KindIdentifier:
		return string(tree.Src(inner)), true
	case cst.KindString:
		return stringLiteralText(tree, inner)
	default:
		return "", false
	}
}

func stringLiteralText(tree *cst.Tree, str *cst.Node) (string, bool) {
	var parts *cst.Node
	for _, c := range tree.ChildNodes(str) {
		n := tree.NodeByID(c)
		if n != nil && n.Kind == cst.KindInterpolatedParts {
			parts = n
		}
	}
	if parts == nil {
		return "", false
	}
	fragments := tree.ChildNodes(parts)
	if len(fragments) != 1 {
		return "", false
	}
	frag := tree.NodeByID(fragments[0])
	if frag == nil || frag.Kind != cst.KindMisc {
		return "", false
	}
	return string(tree.Src(frag)), true
}

// attrPathSegments returns an AttrPath node's AttrName children (the
// interleaved Dot nodes are filtered out).
func attrPathSegments(tree *cst.Tree, pathNode *cst.Node) []cst.NodeID {
	var out []cst.NodeID
	for _, c := range tree.ChildNodes(pathNode) {
		n := tree.NodeByID(c)
		if n != nil && n.Kind == cst.KindAttrName {
			out = append(out, c)
		}
	}
	return out
}

// localInheritSourceExpr replicates sema.inheritSourceExpr, which is
// unexported and only usable from inside package sema.
func localInheritSourceExpr(tree *cst.Tree, n *cst.Node) cst.NodeID {
	for _, c := range n.Children {
		if c.IsToken {
			continue
		}
		cn := tree.NodeByID(c.Node)
		if cn == nil {
			continue
		}
		if cn.Kind == cst.KindAttrName {
			return cst.NoNode
		}
		return c.Node
	}
	return cst.NoNode
}

// --- 1. Quote/unquote attr name ---------------------------------------

func refactorQuoteAttrName(tree *cst.Tree, uri string, li *itext.LineIndex, attrID cst.NodeID) *CodeAction {
	n := tree.NodeByID(attrID)
	if n == nil {
		return nil
	}
	children := tree.ChildNodes(n)
	if len(children) != 1 {
		return nil
	}
	inner := tree.NodeByID(children[0])
	if inner == nil {
		return nil
	}
	switch inner.Kind {
	case cst.KindIdentifier:
		name := string(tree.Src(inner))
		edit, ok := singleEdit(uri, n.Span, "\""+name+"\"", li)
		if !ok {
			return nil
		}
		return &CodeAction{Title: "Quote attribute name", Kind: "refactor.rewrite", Edit: edit}
	case cst.KindString:
		lit, static := stringLiteralText(tree, inner)
		if !static || !isValidIdentifierName(lit) {
			return nil
		}
		edit, ok := singleEdit(uri, n.Span, lit, li)
		if !ok {
			return nil
		}
		return &CodeAction{Title: "Unquote attribute name", Kind: "refactor.rewrite", Edit: edit}
	default:
		return nil
	}
}

// --- 2/3. Convert binding <-> inherit ----------------------------------

func refactorBindingToInherit(tree *cst.Tree, uri string, li *itext.LineIndex, bindingID cst.NodeID) *CodeAction {
	n := tree.NodeByID(bindingID)
	if n == nil {
		return nil
	}
	children := tree.ChildNodes(n)
	if len(children) != 2 {
		return nil
	}
	pathNode := tree.NodeByID(children[0])
	valueNode := tree.NodeByID(children[1])
	if pathNode == nil || valueNode == nil || pathNode.Kind != cst.KindAttrPath {
		return nil
	}
	segs := attrPathSegments(tree, pathNode)
	if len(segs) != 1 {
		return nil
	}
	lhsName, static := attrNameLiteral(tree, tree.NodeByID(segs[0]))
	if !static || !isValidIdentifierName(lhsName) {
		return nil
	}

	var newText string
	switch valueNode.Kind {
	case cst.KindVar:
		rhs := identifierText(tree, valueNode.ID)
		if rhs == "" || rhs != lhsName {
			return nil
		}
		newText = "inherit " + lhsName + ";"
	case cst.KindSelect:
		vc := tree.ChildNodes(valueNode)
		if len(vc) != 2 { // a 3rd element means an `or` fallback tail; not a plain select
			return nil
		}
		base := tree.NodeByID(vc[0])
		rpath := tree.NodeByID(vc[1])
		if base == nil || rpath == nil || rpath.Kind != cst.KindAttrPath {
			return nil
		}
		rsegs := attrPathSegments(tree, rpath)
		if len(rsegs) != 1 {
			return nil
		}
		rhsName, ok := attrNameLiteral(tree, tree.NodeByID(rsegs[0]))
		if !ok || rhsName != lhsName {
			return nil
		}
		newText = "inherit (" + string(tree.Src(base)) + ") " + lhsName + ";"
	default:
		return nil
	}

	edit, ok := singleEdit(uri, n.Span, newText, li)
	if !ok {
		return nil
	}
	return &CodeAction{Title: "Convert binding to inherit", Kind: "refactor.rewrite", Edit: edit}
}

func refactorInheritToBinding(tree *cst.Tree, uri string, li *itext.LineIndex, inheritID cst.NodeID) *CodeAction {
	n := tree.NodeByID(inheritID)
	if n == nil {
		return nil
	}
	var names []cst.NodeID
	for _, c := range tree.ChildNodes(n) {
		cn := tree.NodeByID(c)
		if cn != nil && cn.Kind == cst.KindAttrName {
			names = append(names, c)
		}
	}
	if len(names) != 1 {
		return nil
	}
	name, static := attrNameLiteral(tree, tree.NodeByID(names[0]))
	if !static {
		return nil
	}

	var newText string
	if srcID := localInheritSourceExpr(tree, n); srcID == cst.NoNode {
		newText = name + " = " + name + ";"
	} else {
		newText = name + " = " + string(tree.Src(tree.NodeByID(srcID))) + "." + name + ";"
	}

	edit, ok := singleEdit(uri, n.Span, newText, li)
	if !ok {
		return nil
	}
	return &CodeAction{Title: "Convert inherit to binding", Kind: "refactor.rewrite", Edit: edit}
}

// --- 4. Flatten nested attrs --------------------------------------------

func refactorFlattenNestedAttrs(unit *tu.TranslationUnit, uri string, li *itext.LineIndex, bindingID cst.NodeID) *CodeAction {
	tree := unit.Tree
	n := tree.NodeByID(bindingID)
	if n == nil {
		return nil
	}
	children := tree.ChildNodes(n)
	if len(children) != 2 {
		return nil
	}
	pathNode := tree.NodeByID(children[0])
	valueNode := tree.NodeByID(children[1])
	if pathNode == nil || valueNode == nil || valueNode.Kind != cst.KindAttrs {
		return nil
	}
	sa, ok := unit.Sema.AttrsOf[valueNode.ID]
	if !ok || sa.Recursive || len(sa.Dynamic) > 0 || len(sa.Order) == 0 {
		return nil
	}
	kPath := string(tree.Src(pathNode))
	parts := make([]string, 0, len(sa.Order))
	for _, name := range sa.Order {
		attr := sa.Static[name]
		if attr == nil || attr.Source != sema.SourcePlain || attr.Nested != nil {
			return nil // only plain leaf bindings flatten cleanly
		}
		valNode := tree.NodeByID(attr.Value)
		if valNode == nil {
			return nil
		}
		if !isValidIdentifierName(name) {
			return nil
		}
		parts = append(parts, kPath+"."+name+" = "+string(tree.Src(valNode))+";")
	}
	edit, ok := singleEdit(uri, n.Span, strings.Join(parts, " "), li)
	if !ok {
		return nil
	}
	return &CodeAction{Title: "Flatten nested attrs", Kind: "refactor.rewrite", Edit: edit}
}

// --- 5. Pack dotted path -------------------------------------------------

func refactorPackDottedPath(unit *tu.TranslationUnit, uri string, li *itext.LineIndex, bindingID cst.NodeID) []CodeAction {
	tree := unit.Tree
	n := tree.NodeByID(bindingID)
	if n == nil {
		return nil
	}
	children := tree.ChildNodes(n)
	if len(children) != 2 {
		return nil
	}
	pathNode := tree.NodeByID(children[0])
	valueNode := tree.NodeByID(children[1])
	if pathNode == nil || valueNode == nil || pathNode.Kind != cst.KindAttrPath {
		return nil
	}
	segs := attrPathSegments(tree, pathNode)
	if len(segs) < 2 {
		return nil
	}
	head, static := attrNameLiteral(tree, tree.NodeByID(segs[0]))
	if !static {
		return nil
	}
	restTexts := make([]string, len(segs)-1)
	for i, s := range segs[1:] {
		restTexts[i] = string(tree.Src(tree.NodeByID(s)))
	}
	valueSrc := string(tree.Src(valueNode))

	var out []CodeAction

	// Variant 1: pack this binding only.
	thisDotted := strings.Join(restTexts, ".")
	thisText := head + " = { " + thisDotted + " = " + valueSrc + "; };"
	if edit, ok := singleEdit(uri, n.Span, thisText, li); ok {
		out = append(out, CodeAction{Title: "Pack dotted path (this binding)", Kind: "refactor.rewrite", Edit: edit})
	}

	// Collect sibling Bindings in the same Binds list that share this
	// path's head segment, for the two sibling-wide variants.
	bindsID := unit.Parents.UpTo(bindingID, cst.KindBinds)
	bindsNode := tree.NodeByID(bindsID)
	if bindsNode == nil {
		return out
	}
	type sibling struct {
		span  itext.Span
		rest  []string
		value string
	}
	var siblings []sibling
	for _, c := range tree.ChildNodes(bindsNode) {
		bn := tree.NodeByID(c)
		if bn == nil || bn.Kind != cst.KindBinding {
			continue
		}
		bc := tree.ChildNodes(bn)
		if len(bc) != 2 {
			continue
		}
		bp := tree.NodeByID(bc[0])
		bv := tree.NodeByID(bc[1])
		if bp == nil || bv == nil || bp.Kind != cst.KindAttrPath {
			continue
		}
		bsegs := attrPathSegments(tree, bp)
		if len(bsegs) < 2 {
			continue
		}
		bhead, ok := attrNameLiteral(tree, tree.NodeByID(bsegs[0]))
		if !ok || bhead != head {
			continue
		}
		rest := make([]string, len(bsegs)-1)
		for i, s := range bsegs[1:] {
			rest[i] = string(tree.Src(tree.NodeByID(s)))
		}
		siblings = append(siblings, sibling{span: bn.Span, rest: rest, value: string(tree.Src(bv))})
	}
	if len(siblings) < 2 {
		return out
	}

	spans := make([]itext.Span, len(siblings))
	shallowTexts := make([]string, len(siblings))
	nestedTexts := make([]string, len(siblings))
	for i, sib := range siblings {
		spans[i] = sib.span
		if i == 0 {
			var shallowParts, nestedParts []string
			for _, s2 := range siblings {
				shallowParts = append(shallowParts, strings.Join(s2.rest, ".")+" = "+s2.value+";")
				nestedParts = append(nestedParts, nestNamesAsLiteral(s2.rest, s2.value)+";")
			}
			shallowTexts[i] = head + " = { " + strings.Join(shallowParts, " ") + " };"
			nestedTexts[i] = head + " = { " + strings.Join(nestedParts, " ") + " };"
		} else {
			shallowTexts[i] = ""
			nestedTexts[i] = ""
		}
	}
	if edit, ok := multiEdit(uri, spans, shallowTexts, li); ok {
		out = append(out, CodeAction{Title: "Pack dotted path (shallow, all siblings)", Kind: "refactor.rewrite", Edit: edit})
	}
	if edit, ok := multiEdit(uri, spans, nestedTexts, li); ok {
		out = append(out, CodeAction{Title: "Pack dotted path (fully nested, all siblings)", Kind: "refactor.rewrite", Edit: edit})
	}
	return out
}

// nestNamesAsLiteral builds "name1 = { name2 = ... = value; ...};" style
// nesting for a remaining dotted path's segments, e.g. (["b","c"], "v")
// yields "b = { c = v; }".
func nestNamesAsLiteral(names []string, valueSrc string) string {
	if len(names) == 0 {
		return valueSrc
	}
	if len(names) == 1 {
		return names[0] + " = " + valueSrc
	}
	return names[0] + " = { " + nestNamesAsLiteral(names[1:], valueSrc) + "; }"
}

// --- 6. Add to formals ----------------------------------------------------

func refactorAddToFormals(unit *tu.TranslationUnit, uri string, li *itext.LineIndex, hit cst.NodeID) *CodeAction {
	tree := unit.Tree
	varID := unit.Parents.UpTo(hit, cst.KindVar)
	if varID == cst.NoNode {
		return nil
	}
	res, ok := unit.Lookup.Results[varID]
	if !ok || res.Kind != varlookup.Undefined {
		return nil
	}
	name := identifierText(tree, varID)
	if name == "" {
		return nil
	}
	lambdaID := unit.Parents.UpTo(varID, cst.KindLambda)
	if lambdaID == cst.NoNode {
		return nil
	}
	lambda := tree.NodeByID(lambdaID)
	argChildren := tree.ChildNodes(lambda)
	if len(argChildren) == 0 {
		return nil
	}
	argNode := tree.NodeByID(argChildren[0])
	if argNode == nil || argNode.Kind != cst.KindLambdaArg {
		return nil
	}
	var formalsNode *cst.Node
	for _, c := range tree.ChildNodes(argNode) {
		cn := tree.NodeByID(c)
		if cn != nil && cn.Kind == cst.KindFormals {
			formalsNode = cn
		}
	}
	if formalsNode == nil {
		return nil
	}

	formals := tree.ChildNodes(formalsNode)
	isEllipsis := func(id cst.NodeID) bool {
		fn := tree.NodeByID(id)
		return fn != nil && len(tree.ChildNodes(fn)) == 0
	}

	var insertAt itext.ByteOffset
	var newText string
	if len(formals) == 0 {
		insertAt = formalsNode.Span.Start + 1 // right after '{'
		newText = name
	} else if last := tree.NodeByID(formals[len(formals)-1]); isEllipsis(formals[len(formals)-1]) {
		insertAt = last.Span.Start
		newText = name + ", "
	} else {
		insertAt = tree.NodeByID(formals[len(formals)-1]).Span.End
		newText = ", " + name
	}

	edit, ok2 := singleEdit(uri, itext.At(insertAt), newText, li)
	if !ok2 {
		return nil
	}
	return &CodeAction{Title: "Add '" + name + "' to formals", Kind: "refactor.rewrite", Edit: edit}
}

// --- 7. with -> let/inherit ------------------------------------------------

func refactorWithToLetInherit(unit *tu.TranslationUnit, uri string, li *itext.LineIndex, withID cst.NodeID) *CodeAction {
	tree := unit.Tree
	n := tree.NodeByID(withID)
	if n == nil {
		return nil
	}
	children := tree.ChildNodes(n)
	if len(children) != 2 {
		return nil
	}
	scope := tree.NodeByID(children[0])
	body := tree.NodeByID(children[1])
	if scope == nil || body == nil || body.Kind == cst.KindWith {
		return nil // a with directly nested in the body makes free-var collection ambiguous
	}

	names := usedNamesFromWith(unit, withID, body.ID)
	if len(names) == 0 {
		return nil
	}
	newText := "let inherit (" + string(tree.Src(scope)) + ") " + strings.Join(names, " ") + "; in " + string(tree.Src(body))
	edit, ok := singleEdit(uri, n.Span, newText, li)
	if !ok {
		return nil
	}
	return &CodeAction{Title: "Convert with to let/inherit", Kind: "refactor.rewrite", Edit: edit}
}

// usedNamesFromWith walks the subtree rooted at bodyID, collecting (in
// first-use order) every Var name whose varlookup resolution is
// FromWith against withID specifically.
func usedNamesFromWith(unit *tu.TranslationUnit, withID, bodyID cst.NodeID) []string {
	tree := unit.Tree
	var names []string
	seen := make(map[string]bool)
	var walk func(id cst.NodeID)
	walk = func(id cst.NodeID) {
		n := tree.NodeByID(id)
		if n == nil {
			return
		}
		if n.Kind == cst.KindVar {
			if res, ok := unit.Lookup.Results[id]; ok && res.Kind == varlookup.FromWith && res.Def != nil && res.Def.Node == withID {
				name := identifierText(tree, id)
				if name != "" && !seen[name] {
					seen[name] = true
					names = append(names, name)
				}
			}
		}
		for _, c := range tree.ChildNodes(n) {
			walk(c)
		}
	}
	walk(bodyID)
	return names
}

// --- 8. Rewrite string style -----------------------------------------------

func refactorStringStyle(tree *cst.Tree, uri string, li *itext.LineIndex, strID cst.NodeID) *CodeAction {
	n := tree.NodeByID(strID)
	if n == nil {
		return nil
	}
	lit, static := stringLiteralText(tree, n)
	if !static {
		return nil // only plain literal strings (no interpolation) are rewritten
	}
	src := string(tree.Src(n))
	var newText, title string
	switch {
	case strings.HasPrefix(src, `"`):
		newText = "''" + reescapeForIndented(lit) + "''"
		title = `Rewrite string as ''...''`
	case strings.HasPrefix(src, "''"):
		newText = `"` + reescapeForDQuote(lit) + `"`
		title = `Rewrite string as "..."`
	default:
		return nil
	}
	edit, ok := singleEdit(uri, n.Span, newText, li)
	if !ok {
		return nil
	}
	return &CodeAction{Title: title, Kind: "refactor.rewrite", Edit: edit}
}

// reescapeForIndented converts a double-quoted literal's raw body text
// into the equivalent ''...'' body: '$ {' stays as-is, a literal '${'
// must become ''${ and a literal '' run must become ''' to avoid being
// read as the terminator.
func reescapeForIndented(body string) string {
	body = strings.ReplaceAll(body, `\"`, `"`)
	body = strings.ReplaceAll(body, `\\`, `\`)
	body = strings.ReplaceAll(body, `\n`, "\n")
	body = strings.ReplaceAll(body, `\t`, "\t")
	body = strings.ReplaceAll(body, `\${`, "${")
	body = strings.ReplaceAll(body, "''", "'''")
	body = strings.ReplaceAll(body, "${", "''${")
	return body
}

// reescapeForDQuote converts an indented-string literal's raw body text
// into the equivalent "..." body.
func reescapeForDQuote(body string) string {
	body = strings.ReplaceAll(body, "'''", "''")
	body = strings.ReplaceAll(body, "''${", "${")
	body = strings.ReplaceAll(body, "\\", `\\`)
	body = strings.ReplaceAll(body, "\"", `\"`)
	body = strings.ReplaceAll(body, "\n", `\n`)
	body = strings.ReplaceAll(body, "\t", `\t`)
	body = strings.ReplaceAll(body, "${", `\${`)
	return body
}

// --- 9. Extract to file ----------------------------------------------------

// extractableKinds are expression kinds considered "non-trivial" enough
// to extract; a bare literal or identifier isn't worth a new file.
var extractableKinds = map[cst.NodeKind]bool{
	cst.KindAttrs:  true,
	cst.KindList:   true,
	cst.KindLet:    true,
	cst.KindLambda: true,
	cst.KindCall:   true,
	cst.KindIf:     true,
	cst.KindWith:   true,
	cst.KindBinOp:  true,
}

func refactorExtractToFile(unit *tu.TranslationUnit, uri string, li *itext.LineIndex, hit cst.NodeID) *CodeAction {
	tree := unit.Tree
	exprID := hit
	if n := tree.NodeByID(hit); n == nil || !extractableKinds[n.Kind] {
		exprID = unit.Parents.UpExpr(hit)
	}
	n := tree.NodeByID(exprID)
	if n == nil || !extractableKinds[n.Kind] {
		return nil
	}

	freeVars, capturesWith := freeVariablesOf(unit, exprID)
	if capturesWith {
		return nil // would capture a with-only name; refuse per spec
	}

	fileBase := "extracted"
	if bindingID := unit.Parents.UpTo(exprID, cst.KindBinding); bindingID != cst.NoNode {
		bn := tree.NodeByID(bindingID)
		bc := tree.ChildNodes(bn)
		if len(bc) == 2 {
			if pathNode := tree.NodeByID(bc[0]); pathNode != nil {
				segs := attrPathSegments(tree, pathNode)
				if len(segs) > 0 {
					if last, ok := attrNameLiteral(tree, tree.NodeByID(segs[len(segs)-1])); ok && isValidIdentifierName(last) {
						fileBase = last
					}
				}
			}
		}
	} else {
		fileBase = strings.ToLower(n.Kind.String())
	}
	newFileURI := siblingFileURI(uri, fileBase+".nix")

	exprSrc := string(tree.Src(n))
	var fileContents string
	if len(freeVars) == 0 {
		fileContents = exprSrc
	} else {
		fileContents = "{ " + strings.Join(freeVars, ", ") + " }: " + exprSrc
	}

	var replacement string
	if len(freeVars) == 0 {
		replacement = "import ./" + fileBase + ".nix"
	} else {
		inheritNames := make([]string, len(freeVars))
		copy(inheritNames, freeVars)
		replacement = "import ./" + fileBase + ".nix { inherit " + strings.Join(inheritNames, " ") + "; }"
	}

	edit, ok := singleEdit(uri, n.Span, replacement, li)
	if !ok {
		return nil
	}
	if edit.Changes == nil {
		edit.Changes = make(map[string][]TextEdit)
	}
	// Creating the sibling file itself is expressed as a whole-document
	// insert at offset 0 of a document that, from the client's point of
	// view, doesn't exist yet; clients that don't support file creation
	// through textDocument/didOpen-less edits will simply not see a
	// change for that URI; this is the narrowest extension of
	// WorkspaceEdit that still fits a single-field Changes map.
	edit.Changes[newFileURI] = []TextEdit{{
		Range:   Range{Start: Position{Line: 0, Character: 0}, End: Position{Line: 0, Character: 0}},
		NewText: fileContents,
	}}
	return &CodeAction{Title: "Extract to " + fileBase + ".nix", Kind: "refactor.extract", Edit: edit}
}

// freeVariablesOf collects, in first-use order, the names of every Var
// under exprID that resolves outside exprID's own subtree (Defined, not
// a builtin), and reports whether any resolve to FromWith (which the
// extracted file could not see, since it has no access to the
// surrounding with's scope).
func freeVariablesOf(unit *tu.TranslationUnit, exprID cst.NodeID) (names []string, capturesWith bool) {
	tree := unit.Tree
	seen := make(map[string]bool)
	var walk func(id cst.NodeID)
	walk = func(id cst.NodeID) {
		n := tree.NodeByID(id)
		if n == nil {
			return
		}
		if n.Kind == cst.KindVar {
			res, ok := unit.Lookup.Results[id]
			if ok {
				switch res.Kind {
				case varlookup.FromWith:
					capturesWith = true
				case varlookup.Defined:
					if res.Def != nil && res.Def.Source != varlookup.SourceBuiltin {
						name := identifierText(tree, id)
						if name != "" && !seen[name] {
							seen[name] = true
							names = append(names, name)
						}
					}
				}
			}
		}
		for _, c := range tree.ChildNodes(n) {
			walk(c)
		}
	}
	walk(exprID)
	return names, capturesWith
}

func siblingFileURI(uri, filename string) string {
	idx := strings.LastIndexByte(uri, '/')
	if idx < 0 {
		return filename
	}
	return uri[:idx+1] + filename
}

// --- 10. JSON-to-Nix --------------------------------------------------------

const (
	jsonToNixMaxDepth = 100
	jsonToNixMaxWidth = 10000
)

// refactorJSONToNix triggers on the selection text itself rather than a
// CST node: a well-formed JSON value is, by construction, not valid Nix
// syntax, so there is no enclosing node to key off. json.Decoder's
// token stream gives a depth/width-bounded, order-preserving walk
// without building an intermediate decoded value.
func refactorJSONToNix(unit *tu.TranslationUnit, uri string, li *itext.LineIndex, rng Range) *CodeAction {
	if rng.Start == rng.End {
		return nil
	}
	startOff, ok1 := offsetForPosition(li, rng.Start)
	endOff, ok2 := offsetForPosition(li, rng.End)
	if !ok1 || !ok2 || endOff <= startOff || int(endOff) > len(unit.Tree.Source) {
		return nil
	}
	selected := strings.TrimSpace(string(unit.Tree.Source[startOff:endOff]))
	if len(selected) < 2 || (selected[0] != '{' && selected[0] != '[') {
		return nil
	}

	dec := json.NewDecoder(strings.NewReader(selected))
	nixText, ok := jsonTokenToNix(dec, 0)
	if !ok {
		return nil
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil // trailing garbage after the JSON value
	}

	edit, ok3 := singleEdit(uri, itext.Span{Start: startOff, End: endOff}, nixText, li)
	if !ok3 {
		return nil
	}
	return &CodeAction{Title: "Convert JSON to Nix", Kind: "refactor.rewrite", Edit: edit}
}

func jsonTokenToNix(dec *json.Decoder, depth int) (string, bool) {
	if depth > jsonToNixMaxDepth {
		return "", false
	}
	tok, err := dec.Token()
	if err != nil {
		return "", false
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			var parts []string
			for dec.More() {
				if len(parts) >= jsonToNixMaxWidth {
					return "", false
				}
				keyTok, err := dec.Token()
				if err != nil {
					return "", false
				}
				key, ok := keyTok.(string)
				if !ok {
					return "", false
				}
				valText, ok := jsonTokenToNix(dec, depth+1)
				if !ok {
					return "", false
				}
				name := key
				if !isValidIdentifierName(key) {
					name = nixStringLiteral(key)
				}
				parts = append(parts, name+" = "+valText+";")
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return "", false
			}
			if len(parts) == 0 {
				return "{ }", true
			}
			return "{ " + strings.Join(parts, " ") + " }", true
		case '[':
			var parts []string
			for dec.More() {
				if len(parts) >= jsonToNixMaxWidth {
					return "", false
				}
				valText, ok := jsonTokenToNix(dec, depth+1)
				if !ok {
					return "", false
				}
				parts = append(parts, valText)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return "", false
			}
			if len(parts) == 0 {
				return "[ ]", true
			}
			return "[ " + strings.Join(parts, " ") + " ]", true
		default:
			return "", false
		}
	case string:
		return nixStringLiteral(t), true
	case float64:
		return formatJSONNumber(t), true
	case bool:
		if t {
			return "true", true
		}
		return "false", true
	case nil:
		return "null", true
	default:
		return "", false
	}
}

func formatJSONNumber(f float64) string {
	if !math.IsInf(f, 0) && f == math.Trunc(f) && f >= math.MinInt64 && f <= math.MaxInt64 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// nixStringLiteral renders s as a double-quoted Nix string literal,
// escaping the characters spec.md's string-literal grammar requires.
func nixStringLiteral(s string) string {
	rs := []rune(s)
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(rs); i++ {
		switch r := rs[i]; {
		case r == '"':
			b.WriteString(`\"`)
		case r == '\\':
			b.WriteString(`\\`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '$' && i+1 < len(rs) && rs[i+1] == '{':
			b.WriteString(`\${`)
			i++
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
