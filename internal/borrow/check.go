package borrow

import (
	"github.com/cursivecrow/cursive0-sema/internal/ast"
	"github.com/cursivecrow/cursive0-sema/internal/diag"
	"github.com/cursivecrow/cursive0-sema/internal/types"
)

// loopFixCap bounds the loop state-fixpoint iteration (spec.md §4.8's
// "safety valve, then error").
const loopFixCap = 64

type checker struct {
	env       *Env
	diags     *diag.Stream
	exprTypes map[ast.Expr]types.Type
	keysHeld  int

	// inGPUDomain tracks whether the nearest enclosing parallel block's
	// domain is the built-in GpuDomain, read off the domain expression's
	// type already published in exprTypes by body typing (spec.md §4.9) —
	// internal/borrow never imports internal/sema, so this is the only
	// channel GPU-ness travels through.
	inGPUDomain bool
}

// BindCheckBody implements spec.md §4.8's BindCheckBody: given a procedure's
// module path, its optional self param, formal params, body block, and the
// expr→type map produced by body typing, it returns the diagnostics raised
// while checking moves and permission activity over the body.
func BindCheckBody(modulePath string, self *ast.Param, params []ast.Param, body *ast.Block, exprTypes map[ast.Expr]types.Type) []*diag.Diagnostic {
	_ = modulePath
	c := &checker{env: NewEnv(), diags: &diag.Stream{}, exprTypes: exprTypes}

	if self != nil {
		c.env.Declare(self.Name, nil, self.Pos)
	}
	for _, p := range params {
		c.env.Declare(p.Name, nil, p.Pos)
		if p.Move {
			// A move-mode formal starts already consumed from the callee's
			// perspective: it owns the value outright, so there's nothing
			// additional to restrict.
		}
	}

	if body != nil {
		c.checkBlock(body)
	}
	return c.diags.Errors()
}

func (c *checker) typeOf(e ast.Expr) types.Type {
	if c.exprTypes == nil {
		return nil
	}
	return c.exprTypes[e]
}

func (c *checker) checkBlock(b *ast.Block) {
	if b == nil {
		return
	}
	c.env.Push()
	defer c.env.Pop()
	for _, s := range b.Stmts {
		c.checkStmt(s)
	}
	if b.Tail != nil {
		c.checkExpr(b.Tail)
	}
}

func (c *checker) checkStmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.LetStmt:
		c.checkExpr(s.Value)
		vt := c.typeOf(s.Value)
		for _, name := range patternNames(s.Pattern) {
			c.env.Declare(name, vt, s.Pos)
		}

	case *ast.AssignStmt:
		c.checkExpr(s.Value)
		if place, ok := placeOf(s.Target); ok {
			if b, found := c.env.lookup(place.Root); found && place.Field == "" {
				b.State = StateValid
				b.MovedSet = nil
			} else {
				c.checkExpr(s.Target)
			}
		} else {
			c.checkExpr(s.Target)
		}

	case *ast.ReturnStmt:
		if s.Value != nil {
			c.checkExpr(s.Value)
		}
	case *ast.ResultStmt:
		if s.Value != nil {
			c.checkExpr(s.Value)
		}
	case *ast.BreakStmt:
		if s.Value != nil {
			c.checkExpr(s.Value)
		}
	case *ast.ContinueStmt:
		// no state effect

	case *ast.DeferStmt:
		c.checkBlock(s.Body)

	case *ast.RegionStmt:
		name := s.Alias
		if name == "" {
			name = "$region"
		}
		c.env.Declare(name, nil, s.Pos)
		c.checkBlock(s.Body)

	case *ast.FrameStmt:
		if s.Target != "" {
			if b, found := c.env.lookup(s.Target); found && b.State != StateValid {
				c.diags.Add(diag.New("B-Region-Inactive-Err", s.Pos,
					"region %q is not active at this frame", s.Target))
			}
		}
		c.checkBlock(s.Body)

	case *ast.UnsafeStmt:
		c.checkBlock(s.Body)

	case *ast.StaticAssertStmt:
		c.checkExpr(s.Cond)

	case *ast.KeyStmt:
		keys := make([]string, 0, len(s.Paths))
		for _, p := range s.Paths {
			c.checkExpr(p)
			if place, ok := placeOf(p); ok {
				keys = append(keys, place.key())
				c.env.setActive(place.key(), false)
			}
		}
		c.keysHeld++
		c.checkBlock(s.Body)
		c.keysHeld--
		for _, k := range keys {
			c.env.setActive(k, true)
		}

	case *ast.LoopStmt:
		c.checkLoop(s.Cond, s.Body, s.Pos)

	case *ast.ForStmt:
		c.checkExpr(s.Iterable)
		iterT := c.typeOf(s.Iterable)
		elemT := elemTypeOf(iterT)
		entry := c.env.snapshot()
		for iter := 0; ; iter++ {
			if iter >= loopFixCap {
				c.diags.Add(diag.New("B-LoopFix-Overflow-Err", s.Pos,
					"loop state did not reach a fixpoint within %d iterations", loopFixCap))
				break
			}
			c.env.Push()
			for _, name := range patternNames(s.Pattern) {
				c.env.Declare(name, elemT, s.Pos)
			}
			c.checkBlock(s.Body)
			c.env.Pop()
			next := c.env.snapshot()
			if entry.equal(next) {
				break
			}
			c.applySnapshot(entry, next)
			entry = c.env.snapshot()
		}

	case *ast.ExprStmt:
		c.checkExpr(s.Value)
	}
}

// checkLoop implements the monotone loop fixpoint (spec.md §4.8): type the
// condition and body from the entry state repeatedly, joining each pass's
// exit state back into the entry, until the entry stops changing or the
// iteration cap trips.
func (c *checker) checkLoop(cond ast.Expr, body *ast.Block, pos ast.Pos) {
	entry := c.env.snapshot()
	for iter := 0; ; iter++ {
		if iter >= loopFixCap {
			c.diags.Add(diag.New("B-LoopFix-Overflow-Err", pos,
				"loop state did not reach a fixpoint within %d iterations", loopFixCap))
			break
		}
		if cond != nil {
			c.checkExpr(cond)
		}
		c.checkBlock(body)
		next := c.env.snapshot()
		if entry.equal(next) {
			break
		}
		c.applySnapshot(entry, next)
		entry = c.env.snapshot()
	}
}

// applySnapshot merges `next` into the live env conservatively (moved wins
// over valid), the same join rule used for if/match branches.
func (c *checker) applySnapshot(entry, next snapshot) {
	for f := c.env.Current; f != nil; f = f.Parent {
		for k, b := range f.Binds {
			if nb, ok := next.binds[k]; ok {
				f.Binds[k] = mergeBind(b, nb)
			}
		}
	}
	for k, v := range next.perm {
		if ev, ok := entry.perm[k]; !ok || ev != v {
			c.env.PermActive[k] = v
		}
	}
}

// checkExpr walks e as a value-producing expression: it performs Access
// checks on the places e denotes or reads through, Move on explicit `move`
// expressions, ArgPass checks at call sites, and recurses into every
// sub-expression and nested block/branch form.
func (c *checker) checkExpr(e ast.Expr) {
	if e == nil {
		return
	}
	switch e := e.(type) {
	case *ast.Literal:
		// no place

	case *ast.Ident:
		c.access(Place{Root: e.Name}, e.Position())

	case *ast.PathExpr:
		// module-qualified reference, not a local place

	case *ast.TupleExpr:
		for _, el := range e.Elements {
			c.checkExpr(el)
		}
	case *ast.ArrayExpr:
		for _, el := range e.Elements {
			c.checkExpr(el)
		}
	case *ast.TupleIndexExpr:
		c.checkExpr(e.Base)
	case *ast.IndexExpr:
		c.checkExpr(e.Base)
		c.checkExpr(e.Index)
	case *ast.SliceExpr:
		c.checkExpr(e.Base)
		c.checkExpr(e.Range)
	case *ast.RangeExpr:
		if e.Lo != nil {
			c.checkExpr(e.Lo)
		}
		if e.Hi != nil {
			c.checkExpr(e.Hi)
		}

	case *ast.CallExpr:
		c.checkExpr(e.Callee)
		for _, a := range e.Args {
			c.checkArg(a)
		}
	case *ast.MethodCallExpr:
		c.checkExpr(e.Receiver)
		for _, a := range e.Args {
			c.checkArg(a)
		}

	case *ast.FieldExpr:
		if place, ok := placeOf(e); ok {
			c.access(place, e.Pos)
		} else {
			c.checkExpr(e.Base)
		}

	case *ast.RecordExpr:
		for _, fv := range e.Fields {
			c.checkExpr(fv)
		}

	case *ast.AddrOfExpr:
		c.checkExpr(e.Target)
	case *ast.DerefExpr:
		c.checkExpr(e.Target)

	case *ast.MoveExpr:
		c.move(e.Target, e.Pos)

	case *ast.AllocExpr:
		c.checkExpr(e.Value)

	case *ast.TransmuteExpr:
		c.checkExpr(e.Value)
	case *ast.CastExpr:
		c.checkExpr(e.Value)

	case *ast.IfExpr:
		c.checkExpr(e.Cond)
		entry := c.env.snapshot()
		c.checkBlock(e.Then)
		thenSnap := c.env.snapshot()
		c.restoreSnapshot(entry)
		switch elseN := e.Else.(type) {
		case *ast.Block:
			c.checkBlock(elseN)
		case *ast.IfExpr:
			c.checkExpr(elseN)
		}
		elseSnap := c.env.snapshot()
		c.joinInto(thenSnap, elseSnap, e.Pos)

	case *ast.MatchExpr:
		c.checkExpr(e.Scrutinee)
		entry := c.env.snapshot()
		var armSnaps []snapshot
		for _, arm := range e.Arms {
			c.restoreSnapshot(entry)
			c.env.Push()
			for _, name := range patternNames(arm.Pattern) {
				c.env.Declare(name, nil, arm.Pos)
			}
			if arm.Guard != nil {
				c.checkExpr(arm.Guard)
			}
			c.checkExpr(arm.Body)
			c.env.Pop()
			armSnaps = append(armSnaps, c.env.snapshot())
		}
		if len(armSnaps) > 0 {
			merged := armSnaps[0]
			mismatch := false
			for _, s := range armSnaps[1:] {
				if !merged.equal(s) {
					mismatch = true
				}
				merged = joinSnapshots(merged, s)
			}
			if mismatch {
				c.diags.Add(diag.New("B-Join-Mismatch-Err", e.Pos,
					"match arms leave binding/permission state inconsistent"))
			}
			c.restoreSnapshot(merged)
		}

	case *ast.BlockExpr:
		c.checkBlock(e.Block)
	case *ast.UnsafeExpr:
		c.checkBlock(e.Block)

	case *ast.PropagateExpr:
		c.checkExpr(e.Value)

	case *ast.LambdaExpr:
		c.env.Push()
		for _, p := range e.Params {
			c.env.Declare(p.Name, nil, p.Pos)
		}
		c.checkExpr(e.Body)
		c.env.Pop()

	case *ast.BinOpExpr:
		c.checkExpr(e.Left)
		c.checkExpr(e.Right)
	case *ast.UnOpExpr:
		c.checkExpr(e.Operand)

	case *ast.ParallelExpr:
		wasGPU := c.inGPUDomain
		c.inGPUDomain = isGPUDomainType(c.typeOf(e.Domain))
		c.checkBlock(e.Body)
		c.inGPUDomain = wasGPU

	case *ast.SpawnExpr:
		c.checkCaptures(e.Body, e.Options, e.Pos)
		snapshotBefore := c.env.snapshot()
		c.checkBlock(e.Body)
		c.restoreSnapshot(snapshotBefore)
		c.applySpawnMoves(e.Options, e.Pos)

	case *ast.WaitExpr:
		if c.keysHeld > 0 {
			c.diags.Add(diag.New("Con-WaitWithKeysHeld-Err", e.Pos,
				"wait is rejected while keys are currently held"))
		}
		c.checkExpr(e.Handle)

	case *ast.DispatchExpr:
		c.checkExpr(e.Range)
		c.checkCaptures(e.Body, e.Options, e.Pos)
		entry := c.env.snapshot()
		c.env.Push()
		c.env.Declare(e.Var, types.NewPrim(types.USize), e.Pos)
		c.checkBlock(e.Body)
		c.env.Pop()
		c.restoreSnapshot(entry)
		c.applySpawnMoves(e.Options, e.Pos)

	case *ast.YieldExpr:
		if e.Value != nil {
			c.checkExpr(e.Value)
		}
	case *ast.SyncExpr:
		c.checkExpr(e.Value)
	case *ast.RaceExpr:
		for _, x := range e.Exprs {
			c.checkExpr(x)
		}
	case *ast.AllExpr:
		for _, x := range e.Exprs {
			c.checkExpr(x)
		}
	}
}

// checkArg checks one call-site argument. A `move`-mode argument's value is
// itself a *ast.MoveExpr (checkExpr's own MoveExpr case performs the move);
// checkArg doesn't re-derive callee parameter modes here, since borrow is
// deliberately decoupled from the signature lookups internal/sema already
// did during body typing.
func (c *checker) checkArg(a ast.Arg) {
	c.checkExpr(a.Value)
}

// access implements the Access contract: every ancestor permission key
// along p must be Active, the root binding must not be wholly Moved, and if
// PartiallyMoved, the projection's head field must not be in the moved set.
func (c *checker) access(p Place, pos ast.Pos) {
	b, ok := c.env.lookup(p.Root)
	if !ok {
		return // not a tracked local (module/static reference, builtin, …)
	}
	if !c.env.active(p) {
		c.diags.Add(diag.New("B-Place-Inactive-Err", pos,
			"%q is not accessible here (permission inactive)", p.Root))
		return
	}
	switch b.State {
	case StateMoved:
		c.diags.Add(diag.New("B-Place-Moved-Err", pos,
			"use of moved binding %q", p.Root))
	case StatePartiallyMoved:
		if p.Field != "" && b.MovedSet[p.Field] {
			c.diags.Add(diag.New("B-Place-Moved-Err", pos,
				"use of moved field %q.%q", p.Root, p.Field))
		}
	}
}

// move implements the Move contract for a place-denoting target expression.
func (c *checker) move(target ast.Expr, pos ast.Pos) {
	place, ok := placeOf(target)
	if !ok {
		c.checkExpr(target)
		return
	}
	c.moveByPlace(place, pos)
}

func (c *checker) moveByPlace(place Place, pos ast.Pos) {
	b, ok := c.env.lookup(place.Root)
	if !ok {
		return
	}
	if !isMovable(b.Type) && b.Type != nil {
		return // Copy types are never consumed by a move
	}
	if !c.env.active(place) {
		c.diags.Add(diag.New("B-Place-Inactive-Err", pos,
			"%q is not accessible here (permission inactive)", place.Root))
		return
	}
	if place.Field == "" {
		if b.State == StateMoved {
			c.diags.Add(diag.New("B-Place-Moved-Err", pos,
				"%q was already moved", place.Root))
			return
		}
		b.State = StateMoved
		b.MovedSet = nil
		return
	}
	switch b.State {
	case StateMoved:
		c.diags.Add(diag.New("B-Place-Moved-Err", pos,
			"%q was already moved whole", place.Root))
	case StateValid:
		b.State = StatePartiallyMoved
		b.MovedSet = map[string]bool{place.Field: true}
	case StatePartiallyMoved:
		if b.MovedSet[place.Field] {
			c.diags.Add(diag.New("B-Place-Moved-Err", pos,
				"field %q.%q was already moved", place.Root, place.Field))
			return
		}
		b.MovedSet[place.Field] = true
	}
}

func (c *checker) restoreSnapshot(s snapshot) {
	for f := c.env.Current; f != nil; f = f.Parent {
		for k := range f.Binds {
			if b, ok := s.binds[k]; ok {
				f.Binds[k] = b.clone()
			}
		}
	}
	c.env.PermActive = make(map[string]bool, len(s.perm))
	for k, v := range s.perm {
		c.env.PermActive[k] = v
	}
}

// joinInto implements the if-expression join: both branch snapshots must
// agree on every tracked binding's state, else it's a hard error (spec.md
// §4.8); the merged (conservative) state becomes the live state either way
// so later statements still get checked meaningfully.
func (c *checker) joinInto(a, b snapshot, pos ast.Pos) {
	if !a.equal(b) {
		c.diags.Add(diag.New("B-Join-Mismatch-Err", pos,
			"branches leave binding/permission state inconsistent"))
	}
	c.restoreSnapshot(joinSnapshots(a, b))
}

func joinSnapshots(a, b snapshot) snapshot {
	merged := snapshot{binds: make(map[string]*BindInfo), perm: make(map[string]bool)}
	for k, av := range a.binds {
		if bv, ok := b.binds[k]; ok {
			merged.binds[k] = mergeBind(av, bv)
		} else {
			merged.binds[k] = av
		}
	}
	for k, av := range a.perm {
		bv, ok := b.perm[k]
		merged.perm[k] = av && (!ok || bv)
	}
	for k, bv := range b.perm {
		if _, ok := merged.perm[k]; !ok {
			merged.perm[k] = bv
		}
	}
	return merged
}

// isGPUDomainType reports whether t is the built-in GpuDomain capability
// (spec.md §9), recognizing it by nominal path the same way sema's
// domainClassPath does, without importing internal/sema.
func isGPUDomainType(t types.Type) bool {
	switch t := t.(type) {
	case *types.DynamicType:
		return t.Path == "GpuDomain"
	case *types.PathType:
		return t.Path == "GpuDomain"
	}
	return false
}

// checkCaptures implements spec.md §4.8/§4.9's spawn/dispatch capture rule:
// every free variable the task body references must be const (by
// reference), shared (by reference, key-synced — approximated here as
// simply permitted), or unique-and-explicitly-move-listed. Inside a GPU
// domain the rule is stricter still (§4.9, §8 scenario 6): no `shared`
// capture at all, and no heap or host pointer may be captured.
func (c *checker) checkCaptures(body *ast.Block, opts ast.SpawnOptions, pos ast.Pos) {
	moveSet := make(map[string]bool, len(opts.MoveList))
	for _, n := range opts.MoveList {
		moveSet[n] = true
	}
	free := make(map[string]bool)
	collectFreeIdents(body, make(map[string]bool), free)
	for name := range free {
		b, ok := c.env.lookup(name)
		if !ok || b.Type == nil {
			continue
		}
		perm, inner, isPerm := types.StripPerm(b.Type)

		if c.inGPUDomain {
			switch inner.(type) {
			case *types.PtrType:
				c.diags.Add(diag.New(diag.ConGPUHeapPointerCapture, pos,
					"%q is a heap pointer and cannot be captured inside a GPU domain", name))
			case *types.RawPtrType:
				c.diags.Add(diag.New(diag.ConGPUHostPointerCapture, pos,
					"%q is a host pointer and cannot be captured inside a GPU domain", name))
			}
		}

		if !isPerm {
			continue
		}
		switch perm {
		case types.PermUnique:
			if !moveSet[name] {
				c.diags.Add(diag.New("Con-UniqueCaptureNotMoved-Err", pos,
					"%q has unique permission and must be listed in the spawn's move list to be captured", name))
			}
		case types.PermShared:
			if c.inGPUDomain {
				c.diags.Add(diag.New(diag.ConGPUSharedCapture, pos,
					"%q has shared permission and cannot be captured inside a GPU domain", name))
			}
		}
	}
}

// applySpawnMoves marks every explicitly move-listed capture as Moved in
// the enclosing scope once the spawn/dispatch expression completes, so a
// later use of that binding in the same body is flagged use-after-move.
func (c *checker) applySpawnMoves(opts ast.SpawnOptions, pos ast.Pos) {
	_ = pos
	for _, name := range opts.MoveList {
		if b, ok := c.env.lookup(name); ok {
			b.State = StateMoved
			b.MovedSet = nil
		}
	}
}

// collectFreeIdents walks e (block or expr, via reflection-free dispatch on
// the concrete ast node) and adds every Ident name not locally bound within
// bound to free.
func collectFreeIdents(n ast.Node, bound map[string]bool, free map[string]bool) {
	switch n := n.(type) {
	case nil:
		return
	case *ast.Block:
		local := cloneSet(bound)
		for _, s := range n.Stmts {
			collectFreeIdentsStmt(s, local, free)
		}
		if n.Tail != nil {
			collectFreeIdents(n.Tail, local, free)
		}
	case ast.Expr:
		collectFreeIdentsExpr(n, bound, free)
	}
}

func collectFreeIdentsStmt(s ast.Stmt, bound map[string]bool, free map[string]bool) {
	switch s := s.(type) {
	case *ast.LetStmt:
		collectFreeIdentsExpr(s.Value, bound, free)
		for _, name := range patternNames(s.Pattern) {
			bound[name] = true
		}
	case *ast.AssignStmt:
		collectFreeIdentsExpr(s.Target, bound, free)
		collectFreeIdentsExpr(s.Value, bound, free)
	case *ast.ReturnStmt:
		collectFreeIdents(s.Value, bound, free)
	case *ast.ResultStmt:
		collectFreeIdents(s.Value, bound, free)
	case *ast.BreakStmt:
		collectFreeIdents(s.Value, bound, free)
	case *ast.DeferStmt:
		collectFreeIdents(s.Body, bound, free)
	case *ast.RegionStmt:
		collectFreeIdents(s.Body, bound, free)
	case *ast.FrameStmt:
		collectFreeIdents(s.Body, bound, free)
	case *ast.UnsafeStmt:
		collectFreeIdents(s.Body, bound, free)
	case *ast.StaticAssertStmt:
		collectFreeIdentsExpr(s.Cond, bound, free)
	case *ast.KeyStmt:
		for _, p := range s.Paths {
			collectFreeIdentsExpr(p, bound, free)
		}
		collectFreeIdents(s.Body, bound, free)
	case *ast.LoopStmt:
		collectFreeIdents(s.Cond, bound, free)
		collectFreeIdents(s.Body, bound, free)
	case *ast.ForStmt:
		collectFreeIdentsExpr(s.Iterable, bound, free)
		local := cloneSet(bound)
		for _, name := range patternNames(s.Pattern) {
			local[name] = true
		}
		collectFreeIdents(s.Body, local, free)
	case *ast.ExprStmt:
		collectFreeIdentsExpr(s.Value, bound, free)
	}
}

func collectFreeIdentsExpr(e ast.Expr, bound map[string]bool, free map[string]bool) {
	if e == nil {
		return
	}
	switch e := e.(type) {
	case *ast.Ident:
		if !bound[e.Name] {
			free[e.Name] = true
		}
	case *ast.TupleExpr:
		for _, el := range e.Elements {
			collectFreeIdentsExpr(el, bound, free)
		}
	case *ast.ArrayExpr:
		for _, el := range e.Elements {
			collectFreeIdentsExpr(el, bound, free)
		}
	case *ast.TupleIndexExpr:
		collectFreeIdentsExpr(e.Base, bound, free)
	case *ast.IndexExpr:
		collectFreeIdentsExpr(e.Base, bound, free)
		collectFreeIdentsExpr(e.Index, bound, free)
	case *ast.SliceExpr:
		collectFreeIdentsExpr(e.Base, bound, free)
		collectFreeIdentsExpr(e.Range, bound, free)
	case *ast.RangeExpr:
		collectFreeIdentsExpr(e.Lo, bound, free)
		collectFreeIdentsExpr(e.Hi, bound, free)
	case *ast.CallExpr:
		collectFreeIdentsExpr(e.Callee, bound, free)
		for _, a := range e.Args {
			collectFreeIdentsExpr(a.Value, bound, free)
		}
	case *ast.MethodCallExpr:
		collectFreeIdentsExpr(e.Receiver, bound, free)
		for _, a := range e.Args {
			collectFreeIdentsExpr(a.Value, bound, free)
		}
	case *ast.FieldExpr:
		collectFreeIdentsExpr(e.Base, bound, free)
	case *ast.RecordExpr:
		for _, fv := range e.Fields {
			collectFreeIdentsExpr(fv, bound, free)
		}
	case *ast.AddrOfExpr:
		collectFreeIdentsExpr(e.Target, bound, free)
	case *ast.DerefExpr:
		collectFreeIdentsExpr(e.Target, bound, free)
	case *ast.MoveExpr:
		collectFreeIdentsExpr(e.Target, bound, free)
	case *ast.AllocExpr:
		collectFreeIdentsExpr(e.Value, bound, free)
	case *ast.TransmuteExpr:
		collectFreeIdentsExpr(e.Value, bound, free)
	case *ast.CastExpr:
		collectFreeIdentsExpr(e.Value, bound, free)
	case *ast.IfExpr:
		collectFreeIdentsExpr(e.Cond, bound, free)
		collectFreeIdents(e.Then, bound, free)
		collectFreeIdents(e.Else, bound, free)
	case *ast.MatchExpr:
		collectFreeIdentsExpr(e.Scrutinee, bound, free)
		for _, arm := range e.Arms {
			local := cloneSet(bound)
			for _, name := range patternNames(arm.Pattern) {
				local[name] = true
			}
			collectFreeIdentsExpr(arm.Guard, local, free)
			collectFreeIdentsExpr(arm.Body, local, free)
		}
	case *ast.BlockExpr:
		collectFreeIdents(e.Block, bound, free)
	case *ast.UnsafeExpr:
		collectFreeIdents(e.Block, bound, free)
	case *ast.PropagateExpr:
		collectFreeIdentsExpr(e.Value, bound, free)
	case *ast.LambdaExpr:
		local := cloneSet(bound)
		for _, p := range e.Params {
			local[p.Name] = true
		}
		collectFreeIdentsExpr(e.Body, local, free)
	case *ast.BinOpExpr:
		collectFreeIdentsExpr(e.Left, bound, free)
		collectFreeIdentsExpr(e.Right, bound, free)
	case *ast.UnOpExpr:
		collectFreeIdentsExpr(e.Operand, bound, free)
	case *ast.ParallelExpr:
		collectFreeIdents(e.Body, bound, free)
	case *ast.SpawnExpr:
		collectFreeIdents(e.Body, bound, free)
	case *ast.WaitExpr:
		collectFreeIdentsExpr(e.Handle, bound, free)
	case *ast.DispatchExpr:
		collectFreeIdentsExpr(e.Range, bound, free)
		local := cloneSet(bound)
		local[e.Var] = true
		collectFreeIdents(e.Body, local, free)
	case *ast.YieldExpr:
		collectFreeIdentsExpr(e.Value, bound, free)
	case *ast.SyncExpr:
		collectFreeIdentsExpr(e.Value, bound, free)
	case *ast.RaceExpr:
		for _, x := range e.Exprs {
			collectFreeIdentsExpr(x, bound, free)
		}
	case *ast.AllExpr:
		for _, x := range e.Exprs {
			collectFreeIdentsExpr(x, bound, free)
		}
	}
}

func cloneSet(s map[string]bool) map[string]bool {
	out := make(map[string]bool, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// patternNames collects every binding name an irrefutable (or refutable,
// for match arms) pattern introduces.
func patternNames(p ast.Pattern) []string {
	var names []string
	var walk func(p ast.Pattern)
	walk = func(p ast.Pattern) {
		switch p := p.(type) {
		case *ast.IdentPattern:
			names = append(names, p.Name)
		case *ast.TypedPattern:
			names = append(names, p.Name)
		case *ast.TuplePattern:
			for _, el := range p.Elements {
				walk(el)
			}
		case *ast.RecordPattern:
			for _, f := range p.Fields {
				walk(f.Pattern)
			}
		case *ast.EnumPattern:
			for _, el := range p.TuplePayload {
				walk(el)
			}
			for _, f := range p.RecPayload {
				walk(f.Pattern)
			}
		case *ast.ModalPattern:
			for _, f := range p.Fields {
				walk(f.Pattern)
			}
		}
	}
	walk(p)
	return names
}

// elemTypeOf returns the element type of an array/slice/range type, or nil
// when t isn't iterable.
func elemTypeOf(t types.Type) types.Type {
	switch t := t.(type) {
	case *types.ArrayType:
		return t.Elem
	case *types.SliceType:
		return t.Elem
	case *types.RangeType:
		return types.NewPrim(types.ISize)
	default:
		return nil
	}
}
