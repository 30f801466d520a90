// Package typeenv implements Γ, the value-typing environment threaded
// through expression and statement typing (spec.md §3, §4.2). Grounded on
// ailang's internal/types environment (a scope-chain map from name to
// generalized scheme) generalized to Cursive0's shadow-required rebind rule
// and per-binding mutability.
package typeenv

import (
	"github.com/cursivecrow/cursive0-sema/internal/ast"
	"github.com/cursivecrow/cursive0-sema/internal/diag"
	"github.com/cursivecrow/cursive0-sema/internal/sigma"
	"github.com/cursivecrow/cursive0-sema/internal/types"
)

// Mutability is the per-binding mutability Γ records, a type of its own
// rather than ast.Mutability.
type Mutability int

const (
	Immutable Mutability = iota
	Mutable
)

// Binding is one entry of Γ: a name's declared type and mutability.
type Binding struct {
	Name string
	Type types.Type
	Mut  Mutability
	// Shadow is true when this binding was introduced with `shadow`, which
	// permits rebinding a name already bound in the *same* frame
	// (Intro-Shadow-Required, spec.md §4.2); rebinding a name from an
	// ancestor frame needs no `shadow`.
	Shadow bool
}

// Frame is one lexical frame of Γ. Γ only ever holds value bindings, never
// types/classes, and its frames are pushed and popped independently of
// sigma.Scope frames.
type Frame struct {
	Parent   *Frame
	Bindings map[sigma.IdKey]*Binding
}

func newFrame(parent *Frame) *Frame {
	return &Frame{Parent: parent, Bindings: make(map[sigma.IdKey]*Binding)}
}

// Gamma is Γ: a cursor into the binding-frame stack.
type Gamma struct {
	Current *Frame
}

// New returns an empty Γ with one root frame.
func New() *Gamma { return &Gamma{Current: newFrame(nil)} }

// Push opens a child frame (entering a block, procedure, or match arm).
func (g *Gamma) Push() { g.Current = newFrame(g.Current) }

// Pop closes the current frame, returning to its parent.
func (g *Gamma) Pop() {
	if g.Current != nil && g.Current.Parent != nil {
		g.Current = g.Current.Parent
	}
}

// Lookup finds name in g or any ancestor frame.
func (g *Gamma) Lookup(name string) (*Binding, bool) {
	key := sigma.NewIdKey(name)
	for f := g.Current; f != nil; f = f.Parent {
		if b, ok := f.Bindings[key]; ok {
			return b, true
		}
	}
	return nil, false
}

// Bind introduces name into the current frame. A `let` without `shadow`
// that collides with an existing binding in the *same* frame is an error
// (Intro-Shadow-Required); shadowing an ancestor frame's binding, or using `shadow` to
// rebind within the same frame, is always permitted.
func (g *Gamma) Bind(name string, t types.Type, mut Mutability, shadow bool, pos ast.Pos) *diag.Diagnostic {
	key := sigma.NewIdKey(name)
	if _, dup := g.Current.Bindings[key]; dup && !shadow {
		return diag.New("Intro-Shadow-Required", pos,
			"%q is already bound in this scope; use `shadow` to rebind", name)
	}
	g.Current.Bindings[key] = &Binding{Name: name, Type: t, Mut: mut, Shadow: shadow}
	return nil
}
