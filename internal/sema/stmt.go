package sema

import (
	"github.com/cursivecrow/cursive0-sema/internal/ast"
	"github.com/cursivecrow/cursive0-sema/internal/diag"
	"github.com/cursivecrow/cursive0-sema/internal/sigma"
	"github.com/cursivecrow/cursive0-sema/internal/typeenv"
	"github.com/cursivecrow/cursive0-sema/internal/types"
)

// FlowInfo summarises a statement's (or block's) non-local exits (spec.md
// §4.4): every subtyped return value seen, and whether a break/continue was
// reachable at all, which TypeBlock and the enclosing loop's body-type join
// both consult.
type FlowInfo struct {
	Results   []types.Type
	Breaks    bool
	Continues bool
	Returns   bool
}

func mergeFlow(into *FlowInfo, other FlowInfo) {
	into.Results = append(into.Results, other.Results...)
	into.Breaks = into.Breaks || other.Breaks
	into.Continues = into.Continues || other.Continues
	into.Returns = into.Returns || other.Returns
}

// loopBreaks collects the typed value of every `break e` reached while
// typing one loop's body, keyed by loop nesting depth via push/pop around
// LoopStmt/ForStmt — a side channel because break can occur arbitrarily deep
// under nested if/match/block forms, not just at a loop body's top level.
type loopBreaks struct {
	values []types.Type
	void   bool
}

// TypeBlock types `{ s_1; ...; s_n; e_opt }` (spec.md §4.4) in a fresh Γ
// frame and returns the block's type: the tail expression's type if present,
// else unit.
func (c *Context) TypeBlock(b *ast.Block) types.Type {
	_, t := c.typeBlockFlow(b)
	return t
}

func (c *Context) typeBlockFlow(b *ast.Block) (FlowInfo, types.Type) {
	c.Gamma.Push()
	defer c.Gamma.Pop()

	var flow FlowInfo
	for _, s := range b.Stmts {
		mergeFlow(&flow, c.TypeStmt(s))
	}
	if b.Tail != nil {
		return flow, c.Infer(b.Tail)
	}
	return flow, types.TUnit
}

// TypeStmt types one statement (spec.md §4.4), binding any names it
// introduces into Γ and returning its FlowInfo.
func (c *Context) TypeStmt(s ast.Stmt) FlowInfo {
	switch s := s.(type) {

	case *ast.LetStmt:
		var declared types.Type
		if s.Type != nil {
			declared = c.elaborate(s.Type)
			c.checkPatternExpr(s.Value, declared)
		} else {
			declared = c.Infer(s.Value)
		}
		mut := typeenv.Immutable
		if s.Mut == ast.MutVar {
			mut = typeenv.Mutable
		}
		if !s.Shadow {
			c.checkNoSameFrameRebind(s.Pattern, s.Pos)
		}
		if _, refutable := c.TypePattern(s.Pattern, declared); refutable {
			c.Diags.Add(diag.New("Let-Refutable-Pattern-Err", s.Pos,
				"let/var pattern must be irrefutable"))
		}
		c.rebindMutability(s.Pattern, mut)
		return FlowInfo{}

	case *ast.AssignStmt:
		placeT, mutable, d := c.resolvePlace(s.Target)
		if d != nil {
			c.Diags.Add(d)
			c.Infer(s.Value)
			return FlowInfo{}
		}
		if !mutable {
			c.Diags.Add(diag.New("Assign-Immutable-Err", s.Pos, "assignment target is not mutable"))
		} else if pt, ok := placeT.(*types.PermType); ok && pt.Perm == types.PermConst {
			c.Diags.Add(diag.New("Assign-Const-Err", s.Pos, "cannot assign through a const permission"))
		}
		c.Check(s.Value, placeT)
		return FlowInfo{}

	case *ast.ReturnStmt:
		var t types.Type = types.TUnit
		if s.Value != nil {
			if c.ReturnType != nil {
				t = c.Check(s.Value, c.ReturnType)
			} else {
				t = c.Infer(s.Value)
			}
		} else if c.ReturnType != nil && !types.Equiv(c.ReturnType, types.TUnit) {
			c.Diags.Add(diag.New("Return-MissingValue-Err", s.Pos,
				"bare return requires the enclosing procedure's return type to be unit, found %s", c.ReturnType))
		}
		return FlowInfo{Results: []types.Type{t}, Returns: true}

	case *ast.ResultStmt:
		c.Infer(s.Value)
		return FlowInfo{}

	case *ast.BreakStmt:
		if c.loopDepth == 0 {
			c.Diags.Add(diag.New("Break-OutsideLoop-Err", s.Pos, "break is only valid inside a loop"))
			return FlowInfo{Breaks: true}
		}
		if s.Value != nil {
			t := c.Infer(s.Value)
			c.currentLoop.values = append(c.currentLoop.values, t)
		} else {
			c.currentLoop.void = true
		}
		return FlowInfo{Breaks: true}

	case *ast.ContinueStmt:
		if c.loopDepth == 0 {
			c.Diags.Add(diag.New("Continue-OutsideLoop-Err", s.Pos, "continue is only valid inside a loop"))
		}
		return FlowInfo{Continues: true}

	case *ast.DeferStmt:
		flow, bodyT := c.typeBlockFlow(s.Body)
		if !types.Equiv(bodyT, types.TUnit) {
			c.Diags.Add(diag.New("Defer-NotUnit-Err", s.Pos, "defer body must type to unit, found %s", bodyT))
		}
		if flow.Returns || flow.Breaks || flow.Continues {
			c.Diags.Add(diag.New("Defer-NonLocalExit-Err", s.Pos,
				"defer body must not contain return/break/continue"))
		}
		return FlowInfo{}

	case *ast.RegionStmt:
		c.Gamma.Push()
		if s.Alias != "" {
			c.Gamma.Bind(s.Alias, types.NewModalState("Region", "Active"), typeenv.Immutable, false, s.Pos)
		}
		c.TypeBlock(s.Body)
		c.Gamma.Pop()
		return FlowInfo{}

	case *ast.FrameStmt:
		if s.Target != "" {
			if b, ok := c.Gamma.Lookup(s.Target); !ok || !isRegionActive(b.Type) {
				c.Diags.Add(diag.New("Frame-NoActiveRegion-Err", s.Pos,
					"%q is not an active region binding", s.Target))
			}
		}
		c.TypeBlock(s.Body)
		return FlowInfo{}

	case *ast.UnsafeStmt:
		flow, _ := c.typeBlockFlow(s.Body)
		return flow

	case *ast.StaticAssertStmt:
		if !isCompileTimeTrue(s.Cond) {
			c.Diags.Add(diag.New("StaticAssert-Failed-Err", s.Pos, "static_assert condition is not a true compile-time constant"))
		}
		return FlowInfo{}

	case *ast.KeyStmt:
		for _, p := range s.Paths {
			c.Infer(p)
		}
		c.TypeBlock(s.Body)
		return FlowInfo{}

	case *ast.LoopStmt:
		if s.Cond != nil {
			c.Check(s.Cond, types.TBool)
		}
		saved := c.currentLoop
		c.currentLoop = &loopBreaks{}
		c.loopDepth++
		bodyFlow, bodyT := c.typeBlockFlow(s.Body)
		c.loopDepth--
		lb := c.currentLoop
		c.currentLoop = saved

		joined := bodyT
		for _, v := range lb.values {
			j, ok := joinTypes(joined, v, c.Sigma)
			if !ok {
				c.Diags.Add(diag.New("Loop-BreakTypeMismatch-Err", s.Pos,
					"break value %s does not match loop body type %s", v, joined))
				continue
			}
			joined = j
		}
		return FlowInfo{Results: bodyFlow.Results, Returns: bodyFlow.Returns}

	case *ast.ForStmt:
		iterT := c.Infer(s.Iterable)
		elem, ok := elemType(iterT)
		if !ok {
			c.Diags.Add(diag.New("For-NotIterable-Err", s.Pos, "cannot iterate over type %s", iterT))
			elem = types.TNever
		}
		c.Gamma.Push()
		c.TypePattern(s.Pattern, elem)
		saved := c.currentLoop
		c.currentLoop = &loopBreaks{}
		c.loopDepth++
		bodyFlow, _ := c.typeBlockFlow(s.Body)
		c.loopDepth--
		c.currentLoop = saved
		c.Gamma.Pop()
		return FlowInfo{Results: bodyFlow.Results, Returns: bodyFlow.Returns}

	case *ast.ExprStmt:
		c.Infer(s.Value)
		return FlowInfo{}

	default:
		c.Diags.Add(diag.New("Stmt-Unknown-Err", s.Position(), "unrecognised statement form %T", s))
		return FlowInfo{}
	}
}

// checkPatternExpr checks a let/var initializer against an explicit type
// annotation, with the same bare-record-literal special case Check already
// carries.
func (c *Context) checkPatternExpr(e ast.Expr, expected types.Type) {
	c.Check(e, expected)
}

// rebindMutability re-walks a just-typed irrefutable pattern to overwrite the
// Immutable bindings TypePattern always introduces with the statement's
// actual `let`/`var` mutability, since TypePattern (shared with match arms,
// which have no mutability concept) only ever binds Immutable.
func (c *Context) rebindMutability(p ast.Pattern, mut typeenv.Mutability) {
	if mut == typeenv.Immutable {
		return
	}
	for _, name := range patternNames(p) {
		if b, ok := c.Gamma.Lookup(name); ok {
			b.Mut = mut
		}
	}
}

// checkNoSameFrameRebind reports Intro-Shadow-Required for every name a
// non-`shadow` let/var pattern would rebind within the *current* Γ frame;
// TypePattern's IdentPattern case always binds with shadow=true (it's shared
// with match arms, which have no such restriction), so this is the only
// place that rule is actually enforced for let/var statements (spec.md
// §4.2, §4.4).
func (c *Context) checkNoSameFrameRebind(p ast.Pattern, pos ast.Pos) {
	for _, name := range patternNames(p) {
		if _, dup := c.Gamma.Current.Bindings[sigma.NewIdKey(name)]; dup {
			c.Diags.Add(diag.New("Intro-Shadow-Required", pos,
				"%q is already bound in this scope; use `shadow` to rebind", name))
		}
	}
}

func patternNames(p ast.Pattern) []string {
	switch p := p.(type) {
	case *ast.IdentPattern:
		return []string{p.Name}
	case *ast.TypedPattern:
		if p.Name != "_" {
			return []string{p.Name}
		}
	case *ast.TuplePattern:
		var names []string
		for _, el := range p.Elements {
			names = append(names, patternNames(el)...)
		}
		return names
	case *ast.RecordPattern:
		var names []string
		for _, f := range p.Fields {
			if f.Pattern == nil {
				names = append(names, f.Name)
			} else {
				names = append(names, patternNames(f.Pattern)...)
			}
		}
		return names
	}
	return nil
}

// resolvePlace resolves an assignment target to its type and whether its
// mutable root permits assignment (spec.md §4.4, Assign-Immutable-Err).
func (c *Context) resolvePlace(e ast.Expr) (types.Type, bool, *diag.Diagnostic) {
	switch e := e.(type) {
	case *ast.Ident:
		b, ok := c.Gamma.Lookup(e.Name)
		if !ok {
			return types.TNever, false, diag.New("Ident-Unbound-Err", e.Pos, "undefined name %q", e.Name)
		}
		return b.Type, b.Mut == typeenv.Mutable, nil
	case *ast.FieldExpr:
		_, mutable, d := c.resolvePlace(e.Base)
		if d != nil {
			return types.TNever, false, d
		}
		return c.inferField(e), mutable, nil
	case *ast.IndexExpr:
		_, mutable, d := c.resolvePlace(e.Base)
		if d != nil {
			return types.TNever, false, d
		}
		return c.inferIndex(e), mutable, nil
	case *ast.TupleIndexExpr:
		_, mutable, d := c.resolvePlace(e.Base)
		if d != nil {
			return types.TNever, false, d
		}
		return c.inferTupleIndex(e), mutable, nil
	case *ast.DerefExpr:
		return c.inferDeref(e), true, nil
	default:
		return c.Infer(e), false, diag.New("Assign-NotAPlace-Err", e.Position(), "expression is not an assignable place")
	}
}

func isRegionActive(t types.Type) bool {
	m, ok := t.(*types.ModalStateType)
	return ok && m.Path == "Region" && m.State == "Active"
}

// isCompileTimeTrue recognises the one literal shape static_assert accepts;
// anything richer would need the constant-folding pass internal/sigma's
// intStatics registry already anticipates for array lengths.
func isCompileTimeTrue(e ast.Expr) bool {
	lit, ok := e.(*ast.Literal)
	if !ok || lit.Kind != ast.BoolLit {
		return false
	}
	b, ok := lit.Value.(bool)
	return ok && b
}
