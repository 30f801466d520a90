package sigma

import "github.com/cursivecrow/cursive0-sema/internal/ast"

// ScopeKind distinguishes the four lexical levels of the cactus stack
// (spec.md §3: Universe, Module, Procedure, Local).
type ScopeKind int

const (
	ScopeUniverse ScopeKind = iota
	ScopeModule
	ScopeProcedure
	ScopeLocal
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeModule:
		return "module"
	case ScopeProcedure:
		return "procedure"
	case ScopeLocal:
		return "local"
	default:
		return "universe"
	}
}

// Scope is one frame of the cactus stack: a set of bindings plus a link to
// its lexical parent. Sibling scopes (e.g. the two arms of an if) share the
// same parent and never see each other's entities.
type Scope struct {
	Kind     ScopeKind
	Parent   *Scope
	Module   string // owning module path, inherited from the nearest ScopeModule ancestor
	Entities map[IdKey]*Entity
}

// NewScope opens a child scope under parent. For ScopeModule frames, module
// is that module's path; every descendant frame inherits it.
func NewScope(kind ScopeKind, parent *Scope, module string) *Scope {
	if parent != nil && module == "" {
		module = parent.Module
	}
	return &Scope{Kind: kind, Parent: parent, Module: module, Entities: make(map[IdKey]*Entity)}
}

// Declare adds name to s. If name is already bound in this exact frame, the
// existing entity is returned unchanged along with ok=false so callers can
// raise Intro-Dup / Intro-Shadow-Required (spec.md §4.2) with the right
// diagnostic; it does not look at ancestor frames, since shadowing across
// frames is permitted (that policy lives in internal/typeenv).
func (s *Scope) Declare(name string, e *Entity) (existing *Entity, ok bool) {
	key := NewIdKey(name)
	if prior, dup := s.Entities[key]; dup {
		return prior, false
	}
	s.Entities[key] = e
	return e, true
}

// Lookup walks s and its ancestors, returning the nearest binding.
func (s *Scope) Lookup(name string) (*Entity, *Scope, bool) {
	key := NewIdKey(name)
	for cur := s; cur != nil; cur = cur.Parent {
		if e, ok := cur.Entities[key]; ok {
			return e, cur, true
		}
	}
	return nil, nil, false
}

// LookupLocal looks only at s itself, not its ancestors.
func (s *Scope) LookupLocal(name string) (*Entity, bool) {
	e, ok := s.Entities[NewIdKey(name)]
	return e, ok
}

// ScopeContext is the mutable lexical cactus used while walking one
// procedure body: a cursor into the scope tree plus a back-reference to the
// project-wide Σ for cross-module lookups that escape the cactus entirely.
type ScopeContext struct {
	Sigma   *Sigma
	Current *Scope
}

// NewScopeContext builds the Universe scope (seeded with built-in capability
// classes) and returns a context positioned there.
func NewScopeContext(sig *Sigma) *ScopeContext {
	universe := NewScope(ScopeUniverse, nil, "")
	for _, cap := range builtinCapabilityClasses {
		universe.Declare(cap, &Entity{Kind: KindClass, Source: SourceDecl, Vis: ast.VisPublic})
	}
	return &ScopeContext{Sigma: sig, Current: universe}
}

// EnterModule pushes a ScopeModule frame for path and declares every item
// the module exports at module scope (spec.md §4.2).
func (sc *ScopeContext) EnterModule(path string, mod *ModuleIndex) *Scope {
	s := NewScope(ScopeModule, sc.Current, path)
	for name, ent := range mod.Entities {
		s.Entities[name] = ent
	}
	sc.Current = s
	return s
}

// EnterProcedure pushes a ScopeProcedure frame (fresh per call, per spec.md
// §4.2 — procedure scopes do not persist between calls).
func (sc *ScopeContext) EnterProcedure() *Scope {
	sc.Current = NewScope(ScopeProcedure, sc.Current, "")
	return sc.Current
}

// EnterLocal pushes a ScopeLocal frame, used for blocks, if/match arms, and
// loop bodies.
func (sc *ScopeContext) EnterLocal() *Scope {
	sc.Current = NewScope(ScopeLocal, sc.Current, "")
	return sc.Current
}

// Exit pops back to the parent frame.
func (sc *ScopeContext) Exit() {
	if sc.Current != nil && sc.Current.Parent != nil {
		sc.Current = sc.Current.Parent
	}
}
