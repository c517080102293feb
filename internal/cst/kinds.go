package cst

import "fmt"

// NodeKind identifies a CST node kind. The union is closed: every node in
// a tree produced by internal/parser is one of these kinds.
type NodeKind uint16

// NodeKind values.
const (
	KindUnknown NodeKind = iota

	// Expressions.
	KindInt
	KindFloat
	KindString
	KindPath
	KindSPath
	KindVar
	KindParen
	KindList
	KindAttrs
	KindLambda
	KindCall
	KindSelect
	KindOpHasAttr
	KindBinOp
	KindUnaryOp
	KindIf
	KindAssert
	KindLet
	KindWith

	// Structural.
	KindAttrName
	KindAttrPath
	KindBinding
	KindInherit
	KindBinds
	KindFormal
	KindFormals
	KindLambdaArg
	KindInterpolation
	KindInterpolatedParts
	KindMisc
	KindIdentifier
	KindDot
	KindOp
)

func (k NodeKind) String() string {
	switch k {
	case KindUnknown:
		return "Unknown"
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindString:
		return "String"
	case KindPath:
		return "Path"
	case KindSPath:
		return "SPath"
	case KindVar:
		return "Var"
	case KindParen:
		return "Paren"
	case KindList:
		return "List"
	case KindAttrs:
		return "Attrs"
	case KindLambda:
		return "Lambda"
	case KindCall:
		return "Call"
	case KindSelect:
		return "Select"
	case KindOpHasAttr:
		return "OpHasAttr"
	case KindBinOp:
		return "BinOp"
	case KindUnaryOp:
		return "UnaryOp"
	case KindIf:
		return "If"
	case KindAssert:
		return "Assert"
	case KindLet:
		return "Let"
	case KindWith:
		return "With"
	case KindAttrName:
		return "AttrName"
	case KindAttrPath:
		return "AttrPath"
	case KindBinding:
		return "Binding"
	case KindInherit:
		return "Inherit"
	case KindBinds:
		return "Binds"
	case KindFormal:
		return "Formal"
	case KindFormals:
		return "Formals"
	case KindLambdaArg:
		return "LambdaArg"
	case KindInterpolation:
		return "Interpolation"
	case KindInterpolatedParts:
		return "InterpolatedParts"
	case KindMisc:
		return "Misc"
	case KindIdentifier:
		return "Identifier"
	case KindDot:
		return "Dot"
	case KindOp:
		return "Op"
	default:
		return fmt.Sprintf("NodeKind(%d)", k)
	}
}

// IsExpr reports whether k is one of the Expression-category node kinds.
func (k NodeKind) IsExpr() bool {
	switch k {
	case KindInt, KindFloat, KindString, KindPath, KindSPath, KindVar, KindParen,
		KindList, KindAttrs, KindLambda, KindCall, KindSelect, KindOpHasAttr,
		KindBinOp, KindUnaryOp, KindIf, KindAssert, KindLet, KindWith:
		return true
	default:
		return false
	}
}
