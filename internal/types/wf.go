package types

import (
	"github.com/cursivecrow/cursive0-sema/internal/ast"
	"github.com/cursivecrow/cursive0-sema/internal/diag"
)

// ConstLen implements ConstLen(e): accepts integer literals and fully
// resolved `static let` paths referring to integer statics (spec.md §4.1).
// Anything else fails, poisoning the containing array type as ill-formed.
func ConstLen(e ast.Expr, res Resolver) (uint64, bool) {
	switch e := e.(type) {
	case *ast.Literal:
		if e.Kind != ast.IntLit {
			return 0, false
		}
		switch v := e.Value.(type) {
		case int64:
			if v < 0 {
				return 0, false
			}
			return uint64(v), true
		case uint64:
			return v, true
		case int:
			if v < 0 {
				return 0, false
			}
			return uint64(v), true
		default:
			return 0, false
		}
	case *ast.PathExpr:
		joined := joinPath(e.Segments)
		return res.ResolveIntStatic(joined)
	case *ast.Ident:
		return res.ResolveIntStatic(e.Name)
	default:
		return 0, false
	}
}

func joinPath(segs []string) string {
	out := ""
	for i, s := range segs {
		if i > 0 {
			out += "::"
		}
		out += s
	}
	return out
}

// WF implements TypeWF(T) (spec.md §4.1). It returns the first diagnostic
// encountered, or nil when T is well-formed; res supplies nominal/class
// resolution against Σ.
func WF(t Type, res Resolver, span ast.Pos) *diag.Diagnostic {
	switch t := t.(type) {
	case *Prim:
		if !IsKnownPrim(t.Name) {
			return diag.New("TypeWF-UnknownPrim-Err", span, "unknown primitive type %q", t.Name)
		}
		return nil

	case *PermType:
		if t.Perm == PermShared {
			return diag.New("TypeWF-Perm-Shared-Unsupported", span,
				"permission 'shared' is reserved and unsupported in C0 mode")
		}
		return WF(t.Inner, res, span)

	case *UnionType:
		if len(t.Members) < 2 {
			return diag.New("TypeWF-Union-Arity-Err", span,
				"union type requires at least 2 members, got %d", len(t.Members))
		}
		for _, m := range t.Members {
			if d := WF(m, res, span); d != nil {
				return d
			}
		}
		return nil

	case *TupleType:
		for _, e := range t.Elements {
			if d := WF(e, res, span); d != nil {
				return d
			}
		}
		return nil

	case *ArrayType:
		return WF(t.Elem, res, span)

	case *SliceType:
		return WF(t.Elem, res, span)

	case *PtrType:
		return WF(t.Elem, res, span)

	case *RawPtrType:
		return WF(t.Elem, res, span)

	case *StringType, *BytesType, *RangeType:
		return nil

	case *DynamicType:
		if res == nil || !res.ResolveClass(t.Path) {
			return diag.New("Superclass-Undefined", span,
				"class or capability %q is not declared", t.Path)
		}
		return nil

	case *PathType:
		kind, arity, ok := res.ResolveNominal(t.Path)
		if !ok {
			return diag.New("TypeWF-Path-Unresolved-Err", span, "undeclared type %q", t.Path)
		}
		if arity != len(t.Args) {
			return diag.New("TypeWF-Path-Arity-Err", span,
				"type %q expects %d generic argument(s), got %d", t.Path, arity, len(t.Args))
		}
		_ = kind
		for _, a := range t.Args {
			if d := WF(a, res, span); d != nil {
				return d
			}
		}
		return nil

	case *ModalStateType:
		kind, arity, ok := res.ResolveNominal(t.Path)
		if !ok || kind != DeclModal {
			return diag.New("TypeWF-Modal-Unresolved-Err", span, "undeclared modal type %q", t.Path)
		}
		if arity != len(t.Args) {
			return diag.New("TypeWF-Path-Arity-Err", span,
				"modal %q expects %d generic argument(s), got %d", t.Path, arity, len(t.Args))
		}
		states, ok := res.ModalStates(t.Path)
		if !ok || !containsStr(states, t.State) {
			return diag.New("TypeWF-Modal-UnknownState-Err", span,
				"modal %q has no state %q", t.Path, t.State)
		}
		return nil

	case *OpaqueType:
		return nil

	case *FuncType:
		for _, p := range t.Params {
			if d := WF(p.Type, res, span); d != nil {
				return d
			}
		}
		return WF(t.Ret, res, span)

	case *RefineType:
		return WF(t.Base, res, span)

	default:
		return diag.New("TypeWF-Unknown-Err", span, "unrecognised type constructor %T", t)
	}
}

func containsStr(xs []string, x string) bool {
	for _, s := range xs {
		if s == x {
			return true
		}
	}
	return false
}
