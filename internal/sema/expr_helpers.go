package sema

import (
	"github.com/cursivecrow/cursive0-sema/internal/ast"
	"github.com/cursivecrow/cursive0-sema/internal/diag"
	"github.com/cursivecrow/cursive0-sema/internal/sigma"
	"github.com/cursivecrow/cursive0-sema/internal/typeenv"
	"github.com/cursivecrow/cursive0-sema/internal/types"
)

// propagatePerm re-wraps inner in the outer permission carried by base, when
// inner doesn't already carry its own (spec.md §4.1: field/element access
// inherits the container's permission unless the field overrides it).
func propagatePerm(base types.Type, inner types.Type) types.Type {
	perm, _, isPerm := types.StripPerm(base)
	if !isPerm {
		return inner
	}
	if _, _, innerIsPerm := types.StripPerm(inner); innerIsPerm {
		return inner
	}
	return types.NewPerm(perm, inner)
}

func stripToRecord(t types.Type) (path string, args []types.Type, ok bool) {
	_, inner, isPerm := types.StripPerm(t)
	if isPerm {
		t = inner
	}
	p, ok := t.(*types.PathType)
	if !ok {
		return "", nil, false
	}
	return p.Path, p.Args, true
}

func (c *Context) inferTupleIndex(e *ast.TupleIndexExpr) types.Type {
	base := c.Infer(e.Base)
	if !e.Lit {
		return c.fail(e, diag.New("TupleIndex-NonConst-Err", e.Pos, "tuple index must be a literal integer"))
	}
	_, inner, _ := types.StripPerm(base)
	tup, ok := inner.(*types.TupleType)
	if !ok {
		return c.fail(e, diag.New("TupleIndex-NotATuple-Err", e.Pos, "cannot index non-tuple type %s", base))
	}
	if e.Index < 0 || e.Index >= len(tup.Elements) {
		return c.fail(e, diag.New("TupleIndex-OutOfRange-Err", e.Pos,
			"tuple index %d out of range for %d-element tuple", e.Index, len(tup.Elements)))
	}
	return propagatePerm(base, tup.Elements[e.Index])
}

func (c *Context) inferArray(e *ast.ArrayExpr) types.Type {
	if len(e.Elements) == 0 {
		return c.fail(e, diag.New("Array-Empty-Err", e.Pos, "array literal must have at least one element"))
	}
	first := c.Infer(e.Elements[0])
	for _, el := range e.Elements[1:] {
		c.Check(el, first)
	}
	return types.NewArray(first, uint64(len(e.Elements)))
}

func elemType(base types.Type) (types.Type, bool) {
	_, inner, isPerm := types.StripPerm(base)
	t := base
	if isPerm {
		t = inner
	}
	switch a := t.(type) {
	case *types.ArrayType:
		return a.Elem, true
	case *types.SliceType:
		return a.Elem, true
	case *types.RangeType:
		return types.NewPrim(types.ISize), true
	default:
		return nil, false
	}
}

func (c *Context) inferIndex(e *ast.IndexExpr) types.Type {
	base := c.Infer(e.Base)
	idx := c.Infer(e.Index)
	if !isIntType(idx) {
		c.Diags.Add(diag.New("Index-NotInt-Err", e.Pos, "index expression must be an integer, found %s", idx))
	}
	el, ok := elemType(base)
	if !ok {
		return c.fail(e, diag.New("Index-NotIndexable-Err", e.Pos, "cannot index type %s", base))
	}
	return propagatePerm(base, el)
}

func isIntType(t types.Type) bool {
	_, inner, isPerm := types.StripPerm(t)
	if isPerm {
		t = inner
	}
	p, ok := t.(*types.Prim)
	if !ok {
		return false
	}
	switch p.Name {
	case types.I8, types.I16, types.I32, types.I64, types.I128,
		types.U8, types.U16, types.U32, types.U64, types.U128, types.ISize, types.USize:
		return true
	}
	return false
}

func isFloatType(t types.Type) bool {
	_, inner, isPerm := types.StripPerm(t)
	if isPerm {
		t = inner
	}
	p, ok := t.(*types.Prim)
	return ok && (p.Name == types.F16 || p.Name == types.F32 || p.Name == types.F64)
}

func isBoolType(t types.Type) bool {
	_, inner, isPerm := types.StripPerm(t)
	if isPerm {
		t = inner
	}
	p, ok := t.(*types.Prim)
	return ok && p.Name == types.Bool
}

func (c *Context) inferSlice(e *ast.SliceExpr) types.Type {
	base := c.Infer(e.Base)
	c.Check(e.Range, types.NewRangeType())
	el, ok := elemType(base)
	if !ok {
		return c.fail(e, diag.New("Slice-NotSliceable-Err", e.Pos, "cannot slice type %s", base))
	}
	return propagatePerm(base, types.NewSlice(el))
}

func (c *Context) inferField(e *ast.FieldExpr) types.Type {
	base := c.Infer(e.Base)
	path, args, ok := stripToRecord(base)
	if !ok {
		return c.fail(e, diag.New("Field-NotARecord-Err", e.Pos, "cannot access field %q on type %s", e.Field, base))
	}
	entry, found := c.resolveTypeEntry(path)
	if !found {
		return c.fail(e, diag.New("Field-UnresolvedType-Err", e.Pos, "undeclared type %q", path))
	}
	rec, ok := entry.Decl.(*ast.RecordDecl)
	if !ok {
		return c.fail(e, diag.New("Field-NotARecord-Err", e.Pos, "%q is not a record type", path))
	}
	for _, f := range rec.Fields {
		if f.Name == e.Field {
			subst := genericSubstForArgs(rec.Generics, args)
			ft := c.elaborate(substituteTypeExpr(f.Type, subst))
			return propagatePerm(base, ft)
		}
	}
	return c.fail(e, diag.New("Field-Unknown-Err", e.Pos, "%q has no field %q", path, e.Field))
}

// genericSubstForArgs pairs a record/enum's declared generic parameters with
// the concrete Type arguments carried on a resolved PathType, expressed as
// ast.ResolvedTypeExpr placeholders so substituteTypeExpr can rewrite field
// annotations with them without re-parsing the argument back out of surface
// syntax.
func genericSubstForArgs(params []ast.GenericParam, args []types.Type) map[string]ast.TypeExpr {
	if len(params) == 0 {
		return nil
	}
	subst := make(map[string]ast.TypeExpr, len(params))
	for i, p := range params {
		if i < len(args) {
			subst[p.Name] = &ast.ResolvedTypeExpr{Resolved: args[i]}
		}
	}
	return subst
}

func (c *Context) resolveTypeEntry(path string) (*sigma.TypeEntry, bool) {
	return c.Sigma.LookupTypeEntry(path)
}

func (c *Context) inferRecord(e *ast.RecordExpr, expected types.Type) types.Type {
	var path string
	var args []types.Type
	if e.Type != nil {
		t := c.elaborate(e.Type)
		p, a, ok := stripToRecord(t)
		if !ok {
			return c.fail(e, diag.New("Record-NotARecord-Err", e.Pos, "%s is not a record type", t))
		}
		path, args = p, a
	} else if expected != nil {
		p, a, ok := stripToRecord(expected)
		if !ok {
			return c.fail(e, diag.New("Record-TypeRequired-Err", e.Pos, "cannot infer record type from context"))
		}
		path, args = p, a
	} else {
		return c.fail(e, diag.New("Record-TypeRequired-Err", e.Pos, "record literal requires an explicit type"))
	}

	entry, found := c.resolveTypeEntry(path)
	if !found {
		return c.fail(e, diag.New("Record-UnresolvedType-Err", e.Pos, "undeclared type %q", path))
	}
	rec, ok := entry.Decl.(*ast.RecordDecl)
	if !ok {
		return c.fail(e, diag.New("Record-NotARecord-Err", e.Pos, "%q is not a record type", path))
	}
	subst := genericSubstForArgs(rec.Generics, args)

	seen := make(map[string]bool, len(rec.Fields))
	for _, f := range rec.Fields {
		seen[f.Name] = true
		ft := c.elaborate(substituteTypeExpr(f.Type, subst))
		if val, given := e.Fields[f.Name]; given {
			c.Check(val, ft)
		} else if f.Init == nil {
			c.Diags.Add(diag.New("Record-MissingField-Err", e.Pos, "missing field %q with no default", f.Name))
		}
	}
	for name := range e.Fields {
		if !seen[name] {
			c.Diags.Add(diag.New("Record-UnknownField-Err", e.Pos, "record type %q has no field %q", path, name))
		}
	}
	if len(args) > 0 {
		return types.NewPath(path, args...)
	}
	return types.NewPath(path)
}

func (c *Context) inferDeref(e *ast.DerefExpr) types.Type {
	t := c.Infer(e.Target)
	_, inner, _ := types.StripPerm(t)
	pt, ok := inner.(*types.PtrType)
	if !ok {
		return c.fail(e, diag.New("Deref-NotAPointer-Err", e.Pos, "cannot dereference non-pointer type %s", t))
	}
	if pt.State != types.PtrStateValid {
		return c.fail(e, diag.New("Deref-State-Err", e.Pos, "cannot dereference a pointer in state %s", pt.State))
	}
	return propagatePerm(t, pt.Elem)
}

func (c *Context) inferCast(e *ast.CastExpr) types.Type {
	from := c.Infer(e.Value)
	to := c.elaborate(e.To)
	if castValid(from, to) {
		return to
	}
	return c.fail(e, diag.New("Cast-Invalid-Err", e.Pos, "cannot cast %s to %s", from, to))
}

func castValid(from, to types.Type) bool {
	if types.Equiv(from, to) {
		return true
	}
	fromNum := isIntType(from) || isFloatType(from)
	toNum := isIntType(to) || isFloatType(to)
	if fromNum && toNum {
		return true
	}
	if isIntType(from) {
		if p, ok := to.(*types.Prim); ok && p.Name == types.Char {
			return true
		}
	}
	return false
}

func (c *Context) inferIf(e *ast.IfExpr) types.Type {
	c.Check(e.Cond, types.TBool)
	thenT := c.TypeBlock(e.Then)
	if e.Else == nil {
		if thenT != types.TUnit && !types.Equiv(thenT, types.TUnit) {
			c.Diags.Add(diag.New("If-BranchMismatch-Err", e.Pos,
				"if without else must have unit type in its then-branch, found %s", thenT))
		}
		return types.TUnit
	}
	var elseT types.Type
	switch els := e.Else.(type) {
	case *ast.Block:
		elseT = c.TypeBlock(els)
	case *ast.IfExpr:
		elseT = c.Infer(els)
	default:
		elseT = types.TUnit
	}
	joined, ok := joinTypes(thenT, elseT, c.Sigma)
	if !ok {
		c.Diags.Add(diag.New("If-BranchMismatch-Err", e.Pos,
			"if branches have incompatible types: %s vs %s", thenT, elseT))
		return types.TNever
	}
	return joined
}

// joinTypes picks the least common supertype of a and b under Subtype,
// falling back to widening into a union when neither side subsumes the
// other (spec.md §4.1, §4.4: if/match arm results join this way).
func joinTypes(a, b types.Type, res types.Resolver) (types.Type, bool) {
	if types.Equiv(a, b) {
		return a, true
	}
	if a == types.TNever {
		return b, true
	}
	if b == types.TNever {
		return a, true
	}
	if types.Subtype(a, b, res) {
		return b, true
	}
	if types.Subtype(b, a, res) {
		return a, true
	}
	return types.NewUnion(a, b), true
}

func (c *Context) inferPropagate(e *ast.PropagateExpr) types.Type {
	t := c.Infer(e.Value)
	u, ok := t.(*types.UnionType)
	if !ok || len(u.Members) < 2 {
		return c.fail(e, diag.New("Propagate-NotPropagatable-Err", e.Pos,
			"`?` requires a union-typed (ok | error) expression, found %s", t))
	}
	// Convention: the last union member is the propagated-out (error/none)
	// channel; every other member is returned to the caller's own union by
	// this same convention, so the surrounding procedure's return type is
	// expected to include it (checked at the ReturnStmt/tail-expr site).
	if len(u.Members) == 2 {
		return u.Members[0]
	}
	return types.NewUnion(u.Members[:len(u.Members)-1]...)
}

func (c *Context) inferLambda(e *ast.LambdaExpr) types.Type {
	c.Gamma.Push()
	defer c.Gamma.Pop()

	params := make([]types.FuncParam, len(e.Params))
	for i, p := range e.Params {
		pt := c.elaborate(p.Type)
		mode := types.ParamModeNone
		if p.Move {
			mode = types.ParamModeMove
		}
		params[i] = types.FuncParam{Type: pt, Mode: mode}
		c.Gamma.Bind(p.Name, pt, typeenv.Immutable, false, p.Pos)
	}
	ret := c.Infer(e.Body)
	return types.NewFunc(ret, params...)
}
