package sema

import "github.com/cursivecrow/cursive0-sema/internal/ast"

// substituteTypeExpr rewrites every NamedTypeExpr whose (unqualified,
// argument-less) path matches a key in subst, replacing it with the bound
// TypeExpr. It walks every TypeExpr constructor that can nest another
// TypeExpr, so a generic parameter substituted into `[T; 4]` or `Ptr<T>`
// is found regardless of how deeply it's nested. Explicit (call-site or
// declaration-site) instantiation, not inference, is how Cursive0 generics
// work (spec.md §4.1, §4.3), so this purely syntactic rewrite is all Check
// needs before handing the result to types.Elaborate.
func substituteTypeExpr(te ast.TypeExpr, subst map[string]ast.TypeExpr) ast.TypeExpr {
	if te == nil || len(subst) == 0 {
		return te
	}
	switch t := te.(type) {
	case *ast.NamedTypeExpr:
		if len(t.Path) == 1 && len(t.Generics) == 0 {
			if repl, ok := subst[t.Path[0]]; ok {
				return repl
			}
		}
		args := make([]ast.TypeExpr, len(t.Generics))
		for i, a := range t.Generics {
			args[i] = substituteTypeExpr(a, subst)
		}
		return &ast.NamedTypeExpr{Path: t.Path, Generics: args, Pos: t.Pos}

	case *ast.PermTypeExpr:
		return &ast.PermTypeExpr{Perm: t.Perm, Inner: substituteTypeExpr(t.Inner, subst), Pos: t.Pos}

	case *ast.UnionTypeExpr:
		members := make([]ast.TypeExpr, len(t.Members))
		for i, m := range t.Members {
			members[i] = substituteTypeExpr(m, subst)
		}
		return &ast.UnionTypeExpr{Members: members, Pos: t.Pos}

	case *ast.TupleTypeExpr:
		elems := make([]ast.TypeExpr, len(t.Elements))
		for i, e := range t.Elements {
			elems[i] = substituteTypeExpr(e, subst)
		}
		return &ast.TupleTypeExpr{Elements: elems, Pos: t.Pos}

	case *ast.ArrayTypeExpr:
		return &ast.ArrayTypeExpr{Element: substituteTypeExpr(t.Element, subst), Len: t.Len, Pos: t.Pos}

	case *ast.SliceTypeExpr:
		return &ast.SliceTypeExpr{Element: substituteTypeExpr(t.Element, subst), Pos: t.Pos}

	case *ast.PtrTypeExpr:
		return &ast.PtrTypeExpr{Element: substituteTypeExpr(t.Element, subst), State: t.State, Pos: t.Pos}

	case *ast.RawPtrTypeExpr:
		return &ast.RawPtrTypeExpr{Element: substituteTypeExpr(t.Element, subst), Qual: t.Qual, Pos: t.Pos}

	case *ast.ModalStateTypeExpr:
		args := make([]ast.TypeExpr, len(t.Generics))
		for i, a := range t.Generics {
			args[i] = substituteTypeExpr(a, subst)
		}
		return &ast.ModalStateTypeExpr{Path: t.Path, State: t.State, Generics: args, Pos: t.Pos}

	case *ast.FuncTypeExpr:
		params := make([]ast.TypeExpr, len(t.Params))
		for i, p := range t.Params {
			params[i] = substituteTypeExpr(p, subst)
		}
		return &ast.FuncTypeExpr{Params: params, ParamMoves: t.ParamMoves, Return: substituteTypeExpr(t.Return, subst), Pos: t.Pos}

	case *ast.RefineTypeExpr:
		return &ast.RefineTypeExpr{Base: substituteTypeExpr(t.Base, subst), Predicate: t.Predicate, Pos: t.Pos}

	default:
		return te
	}
}

// bindGenerics pairs a ProcDecl's generic parameter names with the explicit
// type arguments supplied at a call site, reporting an arity mismatch
// rather than attempting inference.
func bindGenerics(params []ast.GenericParam, args []ast.TypeExpr) (map[string]ast.TypeExpr, bool) {
	if len(params) == 0 {
		return nil, len(args) == 0
	}
	if len(args) != len(params) {
		return nil, false
	}
	subst := make(map[string]ast.TypeExpr, len(params))
	for i, p := range params {
		subst[p.Name] = args[i]
	}
	return subst, true
}
