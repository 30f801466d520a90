package sema

import (
	"github.com/cursivecrow/cursive0-sema/internal/ast"
	"github.com/cursivecrow/cursive0-sema/internal/diag"
	"github.com/cursivecrow/cursive0-sema/internal/sigma"
	"github.com/cursivecrow/cursive0-sema/internal/types"
)

// Infer implements the synthesis judgement e => T (spec.md §4.3): every
// expression form produces a type without an expected type to check
// against. A failing subexpression is recorded as a diagnostic and poisoned
// to Never so the walk can keep going (spec.md §7).
func (c *Context) Infer(e ast.Expr) types.Type {
	switch e := e.(type) {

	case *ast.Literal:
		return c.record(e, inferLiteral(e))

	case *ast.Ident:
		t, d := c.lookupValueType(e.Name)
		if d != nil {
			return c.fail(e, d)
		}
		return c.record(e, t)

	case *ast.PathExpr:
		t, d := c.lookupPathType(e.Segments)
		if d != nil {
			return c.fail(e, d)
		}
		return c.record(e, t)

	case *ast.TupleExpr:
		elems := make([]types.Type, len(e.Elements))
		for i, el := range e.Elements {
			elems[i] = c.Infer(el)
		}
		return c.record(e, types.NewTuple(elems...))

	case *ast.TupleIndexExpr:
		return c.record(e, c.inferTupleIndex(e))

	case *ast.ArrayExpr:
		return c.record(e, c.inferArray(e))

	case *ast.IndexExpr:
		return c.record(e, c.inferIndex(e))

	case *ast.SliceExpr:
		return c.record(e, c.inferSlice(e))

	case *ast.RangeExpr:
		if e.Lo != nil {
			c.Infer(e.Lo)
		}
		if e.Hi != nil {
			c.Infer(e.Hi)
		}
		return c.record(e, types.NewRangeType())

	case *ast.CallExpr:
		return c.record(e, c.inferCall(e))

	case *ast.MethodCallExpr:
		return c.record(e, c.inferMethodCall(e))

	case *ast.FieldExpr:
		return c.record(e, c.inferField(e))

	case *ast.RecordExpr:
		return c.record(e, c.inferRecord(e, nil))

	case *ast.AddrOfExpr:
		inner := c.Infer(e.Target)
		return c.record(e, types.NewPtr(inner, types.PtrStateValid))

	case *ast.DerefExpr:
		return c.record(e, c.inferDeref(e))

	case *ast.MoveExpr:
		return c.record(e, c.Infer(e.Target))

	case *ast.AllocExpr:
		inner := c.Infer(e.Value)
		return c.record(e, types.NewPtr(inner, types.PtrStateValid))

	case *ast.TransmuteExpr:
		from := c.elaborate(e.From)
		to := c.elaborate(e.To)
		c.Check(e.Value, from)
		return c.record(e, to)

	case *ast.CastExpr:
		return c.record(e, c.inferCast(e))

	case *ast.IfExpr:
		return c.record(e, c.inferIf(e))

	case *ast.MatchExpr:
		return c.record(e, c.inferMatch(e))

	case *ast.BlockExpr:
		return c.record(e, c.TypeBlock(e.Block))

	case *ast.UnsafeExpr:
		return c.record(e, c.TypeBlock(e.Block))

	case *ast.PropagateExpr:
		return c.record(e, c.inferPropagate(e))

	case *ast.LambdaExpr:
		return c.record(e, c.inferLambda(e))

	case *ast.BinOpExpr:
		return c.record(e, c.inferBinOp(e))

	case *ast.UnOpExpr:
		return c.record(e, c.inferUnOp(e))

	case *ast.ParallelExpr:
		return c.record(e, c.inferParallel(e))
	case *ast.SpawnExpr:
		return c.record(e, c.inferSpawn(e))
	case *ast.WaitExpr:
		return c.record(e, c.inferWait(e))
	case *ast.DispatchExpr:
		return c.record(e, c.inferDispatch(e))
	case *ast.YieldExpr:
		return c.record(e, c.inferYield(e))
	case *ast.SyncExpr:
		return c.record(e, c.inferSync(e))
	case *ast.RaceExpr:
		return c.record(e, c.inferRace(e))
	case *ast.AllExpr:
		return c.record(e, c.inferAll(e))

	default:
		return c.fail(e, diag.New("Infer-Unknown-Err", e.Position(), "unrecognised expression form %T", e))
	}
}

// Check implements the analysis judgement e <= T: infer e and require its
// type be a subtype of expected, except for bare (untyped) record
// literals, which need the expected type pushed inward to elaborate at all.
func (c *Context) Check(e ast.Expr, expected types.Type) types.Type {
	if rec, ok := e.(*ast.RecordExpr); ok && rec.Type == nil {
		return c.record(e, c.inferRecord(rec, expected))
	}

	got := c.Infer(e)
	if got == types.TNever {
		return got
	}
	if !types.Subtype(got, expected, c.Sigma) {
		c.Diags.Add(diag.New("Check-Mismatch-Err", e.Position(),
			"expected %s, found %s", expected, got))
		return c.record(e, types.TNever)
	}
	return got
}

func inferLiteral(l *ast.Literal) types.Type {
	switch l.Kind {
	case ast.IntLit:
		if n, ok := primFromSuffix(l.Suffix); ok {
			return types.NewPrim(n)
		}
		return types.TI32
	case ast.FloatLit:
		if n, ok := primFromSuffix(l.Suffix); ok {
			return types.NewPrim(n)
		}
		return types.TF64
	case ast.BoolLit:
		return types.TBool
	case ast.CharLit:
		return types.TChar
	case ast.StringLit:
		return types.NewString(types.SBStateManaged)
	case ast.NullLit:
		return types.NewPtr(types.TNever, types.PtrStateNull)
	default:
		return types.TNever
	}
}

func primFromSuffix(suffix string) (types.PrimName, bool) {
	if suffix == "" {
		return "", false
	}
	n := types.PrimName(suffix)
	return n, types.IsKnownPrim(n)
}

// lookupValueType resolves a bare identifier: first against Γ (locals,
// parameters), then against the lexical cactus (module-scope procs/statics,
// universe capability classes used as values is not legal and is rejected).
func (c *Context) lookupValueType(name string) (types.Type, *diag.Diagnostic) {
	if b, ok := c.Gamma.Lookup(name); ok {
		return b.Type, nil
	}
	ent, scope, ok := c.Scope.Current.Lookup(name)
	if !ok {
		return nil, diag.New("Ident-Unbound-Err", ast.Pos{}, "undefined name %q", name)
	}
	if ent.Kind != sigma.KindValue {
		return nil, diag.New("Ident-NotAValue-Err", ast.Pos{}, "%q does not refer to a value", name)
	}
	if !sigma.CanAccess(c.Module, ent) {
		return nil, diag.New("Ident-NotVisible-Err", ast.Pos{}, "%q is not visible from this module", name)
	}
	_ = scope
	return c.valueEntityType(ent, nil)
}

func (c *Context) lookupPathType(segments []string) (types.Type, *diag.Diagnostic) {
	if len(segments) == 0 {
		return types.TNever, nil
	}
	if len(segments) == 1 {
		return c.lookupValueType(segments[0])
	}
	modulePath := joinSegments(segments[:len(segments)-1])
	name := segments[len(segments)-1]
	idx, ok := c.Sigma.Modules[modulePath]
	if !ok {
		return nil, diag.New("Path-UnknownModule-Err", ast.Pos{}, "module %q not found", modulePath)
	}
	ent, ok := idx.Entities[sigma.NewIdKey(name)]
	if !ok {
		return nil, diag.New("Path-UnknownMember-Err", ast.Pos{}, "module %q has no member %q", modulePath, name)
	}
	if !sigma.CanAccess(c.Module, ent) {
		return nil, diag.New("Path-NotVisible-Err", ast.Pos{}, "%q::%q is not visible from this module", modulePath, name)
	}
	return c.valueEntityType(ent, nil)
}

func joinSegments(segs []string) string {
	out := ""
	for i, s := range segs {
		if i > 0 {
			out += "/"
		}
		out += s
	}
	return out
}

// valueEntityType computes the type of a KindValue entity: a ProcDecl
// becomes a FuncType (with subst applied to its surface signature first, if
// the caller is instantiating generics), a StaticDecl becomes its
// elaborated annotation type.
func (c *Context) valueEntityType(ent *sigma.Entity, subst map[string]ast.TypeExpr) (types.Type, *diag.Diagnostic) {
	switch decl := ent.Origin.(type) {
	case *ast.ProcDecl:
		return c.procSignature(decl, subst), nil
	case *ast.StaticDecl:
		return c.elaborate(decl.Type), nil
	default:
		return nil, diag.New("Ident-NotAValue-Err", ent.Origin.Position(), "%q does not refer to a value", ent.Origin)
	}
}

func (c *Context) procSignature(p *ast.ProcDecl, subst map[string]ast.TypeExpr) types.Type {
	params := make([]types.FuncParam, len(p.Params))
	for i, prm := range p.Params {
		te := substituteTypeExpr(prm.Type, subst)
		mode := types.ParamModeNone
		if prm.Move {
			mode = types.ParamModeMove
		}
		params[i] = types.FuncParam{Type: c.elaborate(te), Mode: mode}
	}
	var ret types.Type = types.TUnit
	if p.Return != nil {
		ret = c.elaborate(substituteTypeExpr(p.Return, subst))
	}
	return types.NewFunc(ret, params...)
}
