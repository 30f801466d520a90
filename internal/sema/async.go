package sema

import (
	"github.com/cursivecrow/cursive0-sema/internal/ast"
	"github.com/cursivecrow/cursive0-sema/internal/diag"
	"github.com/cursivecrow/cursive0-sema/internal/typeenv"
	"github.com/cursivecrow/cursive0-sema/internal/types"
)

// spawnedHandle wraps a spawned task's body type in the Spawned<T> handle
// shape §4.9 names: a nominal, movable capability that wait later unwraps.
// Unlike a Ptr, it carries no alloc/validity state of its own — the runtime,
// not the borrow/perm lattice, tracks whether the task has finished.
func spawnedHandle(bodyResult types.Type) types.Type {
	return types.NewPath("Spawned", bodyResult)
}

// handleResultOf unwraps a wait/race/all operand's handle shape: Spawned<T>
// yields T, Tracked<T,E> yields Union(T,E) (spec.md §4.9).
func handleResultOf(h types.Type) (types.Type, bool) {
	p, ok := h.(*types.PathType)
	if !ok {
		return nil, false
	}
	switch p.Path {
	case "Spawned":
		if len(p.Args) == 1 {
			return p.Args[0], true
		}
	case "Tracked":
		if len(p.Args) == 2 {
			return types.NewUnion(p.Args[0], p.Args[1]), true
		}
	}
	return nil, false
}

// AsyncSigOf extracts the (out, in, result, err) signature spec.md §4.9/§9
// types yield/sync/race/all against, from one of the five named async
// aliases or the general Async<Out,In,Result,E> modal. ok is false when t
// isn't an async-shaped type.
//
// The per-alias slot mapping isn't spelled out verbatim in spec.md; this
// core treats each alias as the Async<Out,In,Result,E> modal with the
// components its name implies and the rest defaulted to ()/!:
//   - Sequence<T>:    a pull-only producer of T with no acknowledgment
//     channel — out=T, in=(), result=[T], err=!.
//   - Future<T[,E]>:  a one-shot result, no yields — out=(), in=(),
//     result=T, err=E (defaulting to ! when E is elided).
//   - Stream<T,E>:    a push producer that can fail — out=T, in=(),
//     result=(), err=E.
//   - Pipe<I,O>:      a bidirectional transform — out=O, in=I, result=(),
//     err=!.
//   - Exchange<T>:    a symmetric request/response channel — out=in=T,
//     result=(), err=!.
func AsyncSigOf(t types.Type) (out, in, result, err types.Type, ok bool) {
	switch p := t.(type) {
	case *types.PathType:
		switch p.Path {
		case "Sequence":
			if len(p.Args) == 1 {
				return p.Args[0], types.TUnit, types.NewSlice(p.Args[0]), types.TNever, true
			}
		case "Future":
			switch len(p.Args) {
			case 1:
				return types.TUnit, types.TUnit, p.Args[0], types.TNever, true
			case 2:
				return types.TUnit, types.TUnit, p.Args[0], p.Args[1], true
			}
		case "Stream":
			if len(p.Args) == 2 {
				return p.Args[0], types.TUnit, types.TUnit, p.Args[1], true
			}
		case "Pipe":
			if len(p.Args) == 2 {
				return p.Args[1], p.Args[0], types.TUnit, types.TNever, true
			}
		case "Exchange":
			if len(p.Args) == 1 {
				return p.Args[0], p.Args[0], types.TUnit, types.TNever, true
			}
		case "Async":
			if len(p.Args) == 4 {
				return p.Args[0], p.Args[1], p.Args[2], p.Args[3], true
			}
		}
	case *types.ModalStateType:
		if p.Path == "Async" && len(p.Args) == 4 {
			return p.Args[0], p.Args[1], p.Args[2], p.Args[3], true
		}
	}
	return nil, nil, nil, nil, false
}

func (c *Context) inferParallel(e *ast.ParallelExpr) types.Type {
	domainT := c.Infer(e.Domain)
	domainPath := domainClassPath(domainT)
	if !c.Sigma.ResolveClass(domainPath) {
		c.Diags.Add(diag.New(diag.ConDomainNotExecutionDomain, e.Pos,
			"parallel domain expression does not implement ExecutionDomain"))
	}
	if c.inParallelBody && isGPUDomainPath(c.parallelDomain) {
		c.Diags.Add(diag.New(diag.ConGPUNestedParallel, e.Pos, "a GPU domain's parallel block cannot nest another parallel block"))
	}

	wasIn, wasDomain := c.inParallelBody, c.parallelDomain
	c.inParallelBody = true
	c.parallelDomain = domainPath
	bodyT := c.TypeBlock(e.Body)
	c.inParallelBody, c.parallelDomain = wasIn, wasDomain

	return bodyT
}

func domainClassPath(t types.Type) string {
	if d, ok := t.(*types.DynamicType); ok {
		return d.Path
	}
	if p, ok := t.(*types.PathType); ok {
		return p.Path
	}
	return t.String()
}

// isGPUDomainPath reports whether a parallel domain's class path names the
// built-in GpuDomain variant (spec.md §9), the one ExecutionDomain variant
// with its own capture restrictions (§4.9, §8 scenario 6).
func isGPUDomainPath(path string) bool { return path == "GpuDomain" }

func (c *Context) inferSpawn(e *ast.SpawnExpr) types.Type {
	for _, name := range e.Options.MoveList {
		if _, ok := c.Gamma.Lookup(name); !ok {
			c.Diags.Add(diag.New("Ident-Unbound-Err", e.Pos,
				"spawn move-list names undeclared variable %q", name))
		}
	}
	c.Gamma.Push()
	c.asyncDepth++
	bodyT := c.TypeBlock(e.Body)
	c.asyncDepth--
	c.Gamma.Pop()
	return spawnedHandle(bodyT)
}

func (c *Context) inferWait(e *ast.WaitExpr) types.Type {
	h := c.Infer(e.Handle)
	if r, ok := handleResultOf(h); ok {
		return r
	}
	return c.fail(e, diag.New("Wait-NotAHandle-Err", e.Pos, "wait requires a spawn/dispatch handle, found %s", h))
}

func (c *Context) inferDispatch(e *ast.DispatchExpr) types.Type {
	c.Check(e.Range, types.NewRangeType())
	c.Gamma.Push()
	c.Gamma.Bind(e.Var, types.NewPrim(types.USize), typeenv.Immutable, false, e.Pos)
	c.asyncDepth++
	bodyT := c.TypeBlock(e.Body)
	c.asyncDepth--
	c.Gamma.Pop()

	if e.Reduce != "" {
		return bodyT
	}
	return types.TUnit
}

func (c *Context) inferYield(e *ast.YieldExpr) types.Type {
	if c.asyncDepth == 0 {
		c.Diags.Add(diag.New(diag.ConYieldOutsideAsync, e.Pos, "yield is only valid inside an async body"))
	}
	out, in, _, _, ok := AsyncSigOf(c.ReturnType)
	if !ok {
		c.Diags.Add(diag.New("Yield-ReturnNotAsync-Err", e.Pos,
			"yield requires the enclosing return type to be async-shaped, found %s", c.ReturnType))
		if e.Value != nil {
			return c.Infer(e.Value)
		}
		return types.TUnit
	}
	if e.Value != nil {
		c.Check(e.Value, out)
	} else if !types.Equiv(out, types.TUnit) {
		c.Diags.Add(diag.New("Yield-ValueMissing-Err", e.Pos,
			"yield requires a value subsumed by %s", out))
	}
	return in
}

func (c *Context) inferSync(e *ast.SyncExpr) types.Type {
	if c.asyncDepth > 0 {
		c.Diags.Add(diag.New(diag.ConSyncInsideAsync, e.Pos, "sync cannot be used inside an async body"))
	}
	h := c.Infer(e.Value)
	out, _, result, err, ok := AsyncSigOf(h)
	if !ok {
		return c.fail(e, diag.New("Sync-NotAnAsync-Err", e.Pos, "sync requires an async-shaped operand, found %s", h))
	}
	if !types.Equiv(out, types.TUnit) {
		c.Diags.Add(diag.New("Sync-OutNotUnit-Err", e.Pos,
			"sync requires an async whose out component is unit, found %s", out))
	}
	return types.NewUnion(result, err)
}

func (c *Context) inferRace(e *ast.RaceExpr) types.Type {
	return c.raceOrAll(e.Exprs, e.Pos, true)
}

func (c *Context) inferAll(e *ast.AllExpr) types.Type {
	return c.raceOrAll(e.Exprs, e.Pos, false)
}

func (c *Context) raceOrAll(exprs []ast.Expr, pos ast.Pos, race bool) types.Type {
	if len(exprs) == 0 {
		c.Diags.Add(diag.New(diag.ConRaceAllShapeErr, pos, "race/all requires at least one handle"))
		return types.TNever
	}
	var elemTypes []types.Type
	for _, ex := range exprs {
		h := c.Infer(ex)
		r, ok := handleResultOf(h)
		if !ok {
			c.Diags.Add(diag.New(diag.ConRaceAllShapeErr, pos, "race/all operands must all be handles, found %s", h))
			continue
		}
		elemTypes = append(elemTypes, r)
	}
	if len(elemTypes) == 0 {
		return types.TNever
	}
	joined := elemTypes[0]
	for _, t := range elemTypes[1:] {
		j, _ := joinTypes(joined, t, c.Sigma)
		joined = j
	}
	if race {
		return spawnedHandle(joined)
	}
	return spawnedHandle(types.NewSlice(joined))
}
