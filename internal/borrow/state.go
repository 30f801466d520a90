// Package borrow implements BindCheckBody (spec.md §4.8): per-procedure
// move/permission checking over the binding-state machine B and the
// per-projection permission-activity map Π. It runs after decl-typing and
// body typing (internal/sema) have produced expr_types, and before the init
// planner.
//
// Grounded on ailang's internal/eval region/closure-capture bookkeeping
// (scope-stack state threaded through a tree walk, joined at branch points)
// generalized from ailang's single Value-liveness notion to Cursive0's
// three-state move machine and per-projection-key permission activity.
package borrow

import (
	"github.com/cursivecrow/cursive0-sema/internal/ast"
	"github.com/cursivecrow/cursive0-sema/internal/types"
)

// BindState is one binding's move status (spec.md §4.8).
type BindState int

const (
	StateValid BindState = iota
	StateMoved
	StatePartiallyMoved
)

// BindInfo is one binding's tracked state: its declared type (used to tell
// Copy-like prims, which are never actually "moved", from Mov-only
// aggregates), its move state, and — when PartiallyMoved — the set of field
// names already moved out.
type BindInfo struct {
	Name      string
	Type      types.Type
	State     BindState
	MovedSet  map[string]bool
	Pos       ast.Pos
}

func newBindInfo(name string, t types.Type, pos ast.Pos) *BindInfo {
	return &BindInfo{Name: name, Type: t, State: StateValid, Pos: pos}
}

func (b *BindInfo) clone() *BindInfo {
	cp := *b
	if b.MovedSet != nil {
		cp.MovedSet = make(map[string]bool, len(b.MovedSet))
		for k, v := range b.MovedSet {
			cp.MovedSet[k] = v
		}
	}
	return &cp
}

// isMovable reports whether t's values are Mov (move-only) rather than
// Copy (small prims duplicate freely and are never tracked as moved).
func isMovable(t types.Type) bool {
	_, inner, isPerm := types.StripPerm(t)
	if isPerm {
		t = inner
	}
	p, ok := t.(*types.Prim)
	if !ok {
		return true
	}
	switch p.Name {
	case types.Bool, types.Char, types.Unit,
		types.I8, types.I16, types.I32, types.I64, types.I128,
		types.U8, types.U16, types.U32, types.U64, types.U128,
		types.ISize, types.USize, types.F16, types.F32, types.F64:
		return false
	default:
		return true
	}
}

// Place is a one-level-deep projection: a root binding name, optionally
// narrowed to one field (spec.md §4.8's BindState transitions only ever
// name a single field set per binding, so deeper projections collapse to
// their head field for move/partial-move purposes).
type Place struct {
	Root  string
	Field string // empty for the whole place
}

func (p Place) key() string {
	if p.Field == "" {
		return p.Root
	}
	return p.Root + "." + p.Field
}

// placeOf resolves an expression to the place it denotes, stripping a
// surface MoveExpr wrapper first; an AddrOfExpr is not a place.
func placeOf(e ast.Expr) (Place, bool) {
	switch e := e.(type) {
	case *ast.Ident:
		return Place{Root: e.Name}, true
	case *ast.FieldExpr:
		if base, ok := e.Base.(*ast.Ident); ok {
			return Place{Root: base.Name, Field: e.Field}, true
		}
		return Place{}, false
	case *ast.MoveExpr:
		return placeOf(e.Target)
	default:
		return Place{}, false
	}
}

// Frame is one lexical scope of bindings, mirroring typeenv's frame chain.
type Frame struct {
	Parent *Frame
	Binds  map[string]*BindInfo
}

func newFrame(parent *Frame) *Frame {
	return &Frame{Parent: parent, Binds: make(map[string]*BindInfo)}
}

// Env is the checker's running state: the binding-state stack B plus the
// permission-activity map Π, keyed by the same one-level place key.
type Env struct {
	Current    *Frame
	PermActive map[string]bool // absent key means Active (the common case)
}

func NewEnv() *Env {
	return &Env{Current: newFrame(nil), PermActive: make(map[string]bool)}
}

func (e *Env) Push() { e.Current = newFrame(e.Current) }

func (e *Env) Pop() {
	if e.Current != nil && e.Current.Parent != nil {
		e.Current = e.Current.Parent
	}
}

func (e *Env) Declare(name string, t types.Type, pos ast.Pos) {
	e.Current.Binds[name] = newBindInfo(name, t, pos)
}

func (e *Env) lookup(name string) (*BindInfo, bool) {
	for f := e.Current; f != nil; f = f.Parent {
		if b, ok := f.Binds[name]; ok {
			return b, true
		}
	}
	return nil, false
}

// active reports whether every ancestor permission key along root..field is
// Active — for a one-level place that's just the root key and the place's
// own key.
func (e *Env) active(p Place) bool {
	if v, ok := e.PermActive[p.Root]; ok && !v {
		return false
	}
	if p.Field != "" {
		if v, ok := e.PermActive[p.key()]; ok && !v {
			return false
		}
	}
	return true
}

func (e *Env) setActive(key string, active bool) {
	e.PermActive[key] = active
}

// snapshot captures the full (B, Π) state for loop-fixpoint / branch-join
// comparison.
type snapshot struct {
	binds map[string]*BindInfo
	perm  map[string]bool
}

func (e *Env) snapshot() snapshot {
	binds := make(map[string]*BindInfo)
	for f := e.Current; f != nil; f = f.Parent {
		for k, v := range f.Binds {
			if _, seen := binds[k]; !seen {
				binds[k] = v.clone()
			}
		}
	}
	perm := make(map[string]bool, len(e.PermActive))
	for k, v := range e.PermActive {
		perm[k] = v
	}
	return snapshot{binds: binds, perm: perm}
}

// equal reports whether two snapshots carry identical move/permission
// state, the loop-fixpoint and if/match-join termination test.
func (a snapshot) equal(b snapshot) bool {
	if len(a.binds) != len(b.binds) || len(a.perm) != len(b.perm) {
		return false
	}
	for k, av := range a.binds {
		bv, ok := b.binds[k]
		if !ok || av.State != bv.State || len(av.MovedSet) != len(bv.MovedSet) {
			return false
		}
		for f := range av.MovedSet {
			if !bv.MovedSet[f] {
				return false
			}
		}
	}
	for k, av := range a.perm {
		if bv, ok := b.perm[k]; !ok || av != bv {
			return false
		}
	}
	return true
}

// mergeBind merges one binding's state from two post-branch snapshots. A
// binding moved or partially-moved down only one arm is a join failure
// (spec.md §4.8: "failure is a hard error"), detected by the caller via
// equal(); mergeBind itself just picks the more conservative
// (moved-over-valid) state so a later access on an unreachable-in-practice
// path still errors rather than silently passing.
func mergeBind(a, b *BindInfo) *BindInfo {
	if a.State == StateValid && b.State == StateValid {
		return a
	}
	merged := a.clone()
	if b.State != StateValid {
		merged.State = b.State
		if merged.MovedSet == nil {
			merged.MovedSet = make(map[string]bool)
		}
		for f := range b.MovedSet {
			merged.MovedSet[f] = true
		}
	}
	return merged
}
