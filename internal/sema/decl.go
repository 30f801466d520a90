package sema

import (
	"github.com/cursivecrow/cursive0-sema/internal/ast"
	"github.com/cursivecrow/cursive0-sema/internal/diag"
	"github.com/cursivecrow/cursive0-sema/internal/typeenv"
	"github.com/cursivecrow/cursive0-sema/internal/types"
)

// CheckRecordWf implements spec.md §4.7's record well-formedness rules:
// unique field names, every field type WF, every `init` expression checking
// against its own field's type, and an `implements` list whose every entry
// resolves to a known class (the class's visibility is not checked).
func (c *Context) CheckRecordWf(r *ast.RecordDecl) {
	seen := make(map[string]bool, len(r.Fields))
	for _, f := range r.Fields {
		if seen[f.Name] {
			c.Diags.Add(diag.New("WF-Record-DupField", f.Pos, "duplicate field %q in record %q", f.Name, r.Name))
			continue
		}
		seen[f.Name] = true

		ft := c.elaborate(f.Type)
		if f.Init != nil {
			c.Check(f.Init, ft)
		}
	}
	c.checkImplementsVisible(r.Implements, r.Pos)
}

// CheckEnumWf implements the enum analogue: unique variant names, and WF
// tuple/record payload types.
func (c *Context) CheckEnumWf(e *ast.EnumDecl) {
	seen := make(map[string]bool, len(e.Variants))
	for _, v := range e.Variants {
		if seen[v.Name] {
			c.Diags.Add(diag.New("WF-Enum-DupVariant", v.Pos, "duplicate variant %q in enum %q", v.Name, e.Name))
			continue
		}
		seen[v.Name] = true

		for _, te := range v.TuplePayload {
			c.elaborate(te)
		}
		fseen := make(map[string]bool, len(v.RecPayload))
		for _, f := range v.RecPayload {
			if fseen[f.Name] {
				c.Diags.Add(diag.New("WF-Record-DupField", f.Pos,
					"duplicate field %q in variant %q of enum %q", f.Name, v.Name, e.Name))
				continue
			}
			fseen[f.Name] = true
			c.elaborate(f.Type)
		}
	}
	c.checkImplementsVisible(e.Implements, e.Pos)
}

// CheckModalWf implements the modal analogue: unique state names, WF state
// field types, and every transition targeting a declared state; state
// method and transition signatures are not elaborated.
func (c *Context) CheckModalWf(m *ast.ModalDecl) {
	seen := make(map[string]bool, len(m.States))
	for _, st := range m.States {
		if seen[st.Name] {
			c.Diags.Add(diag.New("WF-Modal-DupState", st.Pos, "duplicate state %q in modal %q", st.Name, m.Name))
			continue
		}
		seen[st.Name] = true

		fseen := make(map[string]bool, len(st.Fields))
		for _, f := range st.Fields {
			if fseen[f.Name] {
				c.Diags.Add(diag.New("WF-Record-DupField", f.Pos,
					"duplicate field %q in state %q of modal %q", f.Name, st.Name, m.Name))
				continue
			}
			fseen[f.Name] = true
			c.elaborate(f.Type)
		}

		stateNames := make(map[string]bool, len(m.States))
		for _, s2 := range m.States {
			stateNames[s2.Name] = true
		}
		for _, tr := range st.Transitions {
			if !stateNames[tr.Target] {
				c.Diags.Add(diag.New("WF-Transition-UnknownTarget", tr.Pos,
					"transition %q targets unknown state %q", tr.Name, tr.Target))
			}
		}
	}
	c.checkImplementsVisible(m.Implements, m.Pos)
}

func (c *Context) checkImplementsVisible(paths []string, pos ast.Pos) {
	for _, p := range paths {
		if !c.Sigma.ResolveClass(p) {
			c.Diags.Add(diag.New("WF-UnknownClass", pos, "implements references unknown class %q", p))
		}
	}
}

// TypeProcBody implements spec.md §4.11 phase 3 for one procedure: binds its
// (optional) self parameter and every formal parameter into a fresh Γ frame,
// sets the enclosing return type, types the body, and checks the body's
// tail-producing type subtypes the declared return type.
func (c *Context) TypeProcBody(p *ast.ProcDecl) {
	if p.Body == nil {
		return // abstract/extern signature, no body to check
	}

	c.Gamma.Push()
	defer c.Gamma.Pop()

	if p.Self != nil {
		st := c.elaborate(p.Self.Type)
		c.Gamma.Bind(p.Self.Name, st, typeenv.Immutable, false, p.Self.Pos)
	}
	for _, prm := range p.Params {
		pt := c.elaborate(prm.Type)
		c.Gamma.Bind(prm.Name, pt, typeenv.Immutable, false, prm.Pos)
	}

	savedReturn := c.ReturnType
	if p.Return != nil {
		c.ReturnType = c.elaborate(p.Return)
	} else {
		c.ReturnType = types.TUnit
	}

	bodyT := c.TypeBlock(p.Body)
	if !types.Subtype(bodyT, c.ReturnType, c.Sigma) {
		c.Diags.Add(diag.New("Proc-ReturnMismatch-Err", p.Pos,
			"%s's body produces %s, declared return type is %s", p.Name, bodyT, c.ReturnType))
	}
	c.ReturnType = savedReturn
}

// TypeModuleDecls runs phase 2 (per-item WF) over every item mod declares,
// and checks each StaticDecl's initializer against its declared type here;
// ProcDecl bodies and ImplDecl completeness are handled by TypeProcBody and
// internal/classes respectively, called separately by the driver once every
// module's WF has passed.
func (c *Context) TypeModuleDecls(mod *ast.Module) {
	for _, item := range mod.Items {
		switch it := item.(type) {
		case *ast.RecordDecl:
			c.CheckRecordWf(it)
		case *ast.EnumDecl:
			c.CheckEnumWf(it)
		case *ast.ModalDecl:
			c.CheckModalWf(it)
		case *ast.AliasDecl:
			if it.Underlying != nil {
				c.elaborate(it.Underlying)
			}
		case *ast.StaticDecl:
			declared := c.elaborate(it.Type)
			c.Check(it.Value, declared)
		}
	}
}
