package types

import (
	"strings"

	"github.com/cursivecrow/cursive0-sema/internal/ast"
	"github.com/cursivecrow/cursive0-sema/internal/diag"
)

// Elaborate lowers surface type syntax (internal/ast.TypeExpr) into a
// canonical Type term. It does not itself check well-formedness — callers
// run WF on the result (spec.md §4.1, §4.7) — but it does evaluate array
// lengths via ConstLen, since that's inherent to building an ArrayType at
// all.
func Elaborate(e ast.TypeExpr, res Resolver) (Type, *diag.Diagnostic) {
	switch e := e.(type) {
	case *ast.ResolvedTypeExpr:
		if t, ok := e.Resolved.(Type); ok {
			return t, nil
		}
		return nil, diag.New("TypeExpr-BadResolved-Err", e.Pos, "internal: ResolvedTypeExpr did not hold a types.Type")

	case *ast.NamedTypeExpr:
		return elaborateNamed(e, res)

	case *ast.PermTypeExpr:
		inner, d := Elaborate(e.Inner, res)
		if d != nil {
			return nil, d
		}
		return NewPerm(elaboratePerm(e.Perm), inner), nil

	case *ast.UnionTypeExpr:
		members := make([]Type, 0, len(e.Members))
		for _, m := range e.Members {
			mt, d := Elaborate(m, res)
			if d != nil {
				return nil, d
			}
			members = append(members, mt)
		}
		return NewUnion(members...), nil

	case *ast.TupleTypeExpr:
		elems := make([]Type, 0, len(e.Elements))
		for _, el := range e.Elements {
			et, d := Elaborate(el, res)
			if d != nil {
				return nil, d
			}
			elems = append(elems, et)
		}
		return NewTuple(elems...), nil

	case *ast.ArrayTypeExpr:
		elem, d := Elaborate(e.Element, res)
		if d != nil {
			return nil, d
		}
		n, ok := ConstLen(e.Len, res)
		if !ok {
			return nil, diag.New("ConstLen-Err", e.Pos, "array length is not a compile-time constant")
		}
		return NewArray(elem, n), nil

	case *ast.SliceTypeExpr:
		elem, d := Elaborate(e.Element, res)
		if d != nil {
			return nil, d
		}
		return NewSlice(elem), nil

	case *ast.PtrTypeExpr:
		elem, d := Elaborate(e.Element, res)
		if d != nil {
			return nil, d
		}
		return NewPtr(elem, elaboratePtrState(e.State)), nil

	case *ast.RawPtrTypeExpr:
		elem, d := Elaborate(e.Element, res)
		if d != nil {
			return nil, d
		}
		qual := RawPtrImm
		if e.Qual == ast.RawPtrMut {
			qual = RawPtrMut
		}
		return NewRawPtr(qual, elem), nil

	case *ast.StringTypeExpr:
		return NewString(elaborateSBState(e.State)), nil

	case *ast.BytesTypeExpr:
		return NewBytes(elaborateSBState(e.State)), nil

	case *ast.ModalStateTypeExpr:
		args, d := elaborateArgs(e.Generics, res)
		if d != nil {
			return nil, d
		}
		return NewModalState(strings.Join(e.Path, "::"), e.State, args...), nil

	case *ast.FuncTypeExpr:
		params := make([]FuncParam, len(e.Params))
		for i, p := range e.Params {
			pt, d := Elaborate(p, res)
			if d != nil {
				return nil, d
			}
			mode := ParamModeNone
			if i < len(e.ParamMoves) && e.ParamMoves[i] {
				mode = ParamModeMove
			}
			params[i] = FuncParam{Type: pt, Mode: mode}
		}
		ret, d := Elaborate(e.Return, res)
		if d != nil {
			return nil, d
		}
		return NewFunc(ret, params...), nil

	case *ast.RangeTypeExpr:
		return NewRangeType(), nil

	case *ast.RefineTypeExpr:
		base, d := Elaborate(e.Base, res)
		if d != nil {
			return nil, d
		}
		return NewRefine(base, e.Predicate), nil

	default:
		return nil, diag.New("TypeExpr-Unknown-Err", e.Position(), "unrecognised type expression %T", e)
	}
}

func elaborateArgs(exprs []ast.TypeExpr, res Resolver) ([]Type, *diag.Diagnostic) {
	out := make([]Type, 0, len(exprs))
	for _, e := range exprs {
		t, d := Elaborate(e, res)
		if d != nil {
			return nil, d
		}
		out = append(out, t)
	}
	return out, nil
}

func elaborateNamed(e *ast.NamedTypeExpr, res Resolver) (Type, *diag.Diagnostic) {
	path := strings.Join(e.Path, "::")
	if len(e.Path) == 1 {
		if IsKnownPrim(PrimName(e.Path[0])) {
			return NewPrim(PrimName(e.Path[0])), nil
		}
	}
	args, d := elaborateArgs(e.Generics, res)
	if d != nil {
		return nil, d
	}
	if res != nil && res.ResolveClass(path) && len(args) == 0 {
		return NewDynamic(path), nil
	}
	return NewPath(path, args...), nil
}

func elaboratePerm(p ast.Perm) Perm {
	switch p {
	case ast.PermUnique:
		return PermUnique
	case ast.PermShared:
		return PermShared
	default:
		return PermConst
	}
}

func elaboratePtrState(s ast.PtrState) PtrState {
	switch s {
	case ast.PtrStateValid:
		return PtrStateValid
	case ast.PtrStateNull:
		return PtrStateNull
	case ast.PtrStateExpired:
		return PtrStateExpired
	default:
		return PtrStateNone
	}
}

func elaborateSBState(s ast.StringBytesState) SBState {
	switch s {
	case ast.SBStateManaged:
		return SBStateManaged
	case ast.SBStateView:
		return SBStateView
	default:
		return SBStateNone
	}
}
