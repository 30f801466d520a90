package sema

import (
	"github.com/cursivecrow/cursive0-sema/internal/ast"
	"github.com/cursivecrow/cursive0-sema/internal/diag"
	"github.com/cursivecrow/cursive0-sema/internal/typeenv"
	"github.com/cursivecrow/cursive0-sema/internal/types"
)

// TypePattern implements pattern typing against a scrutinee type (spec.md
// §4.5): it binds every name the pattern introduces into Γ and reports a
// refutability/shape mismatch as a diagnostic rather than failing the whole
// match. It returns the set of covered "shapes" used by exhaustiveness
// checking in TypeMatchExpr (an enum/modal pattern covers one variant/state
// name, a typed pattern against a union covers that member type; every
// other form reports the wildcard bucket along with its refutability).
func (c *Context) TypePattern(p ast.Pattern, scrutinee types.Type) (covers string, refutable bool) {
	switch p := p.(type) {
	case *ast.WildcardPattern:
		return "_", false

	case *ast.IdentPattern:
		c.Gamma.Bind(p.Name, scrutinee, typeenv.Immutable, true, p.Pos)
		return "_", false

	case *ast.TypedPattern:
		target := c.elaborate(p.Type)
		if p.Name != "_" {
			c.Gamma.Bind(p.Name, target, typeenv.Immutable, true, p.Pos)
		}
		if u, ok := scrutinee.(*types.UnionType); ok {
			if !memberEquiv(target, u.Members) {
				c.Diags.Add(diag.New("Pattern-TypeNotInUnion-Err", p.Pos,
					"%s is not a member of %s", target, scrutinee))
			}
			return target.String(), true
		}
		if !types.Equiv(target, scrutinee) {
			c.Diags.Add(diag.New("Pattern-TypeMismatch-Err", p.Pos,
				"pattern type %s does not match scrutinee %s", target, scrutinee))
		}
		return "_", false

	case *ast.TuplePattern:
		tup, ok := scrutinee.(*types.TupleType)
		if !ok || len(tup.Elements) != len(p.Elements) {
			c.Diags.Add(diag.New("Pattern-ShapeMismatch-Err", p.Pos,
				"tuple pattern does not match scrutinee %s", scrutinee))
			for _, el := range p.Elements {
				c.TypePattern(el, types.TNever)
			}
			return "_", true
		}
		any := false
		for i, el := range p.Elements {
			_, r := c.TypePattern(el, tup.Elements[i])
			any = any || r
		}
		return "_", any

	case *ast.RecordPattern:
		return c.typeRecordPattern(p, scrutinee)

	case *ast.EnumPattern:
		return c.typeEnumPattern(p, scrutinee)

	case *ast.ModalPattern:
		return c.typeModalPattern(p, scrutinee)

	case *ast.RangePattern:
		return "_", true

	case *ast.LitPattern:
		return "_", true

	default:
		c.Diags.Add(diag.New("Pattern-Unknown-Err", p.Position(), "unrecognised pattern form %T", p))
		return "_", true
	}
}

func memberEquiv(t types.Type, members []types.Type) bool {
	for _, m := range members {
		if types.Equiv(t, m) {
			return true
		}
	}
	return false
}

func (c *Context) typeRecordPattern(p *ast.RecordPattern, scrutinee types.Type) (string, bool) {
	path, args, ok := stripToRecord(scrutinee)
	if !ok || (p.TypePath != "" && path != p.TypePath) {
		c.Diags.Add(diag.New("Pattern-ShapeMismatch-Err", p.Pos,
			"record pattern %q does not match scrutinee %s", p.TypePath, scrutinee))
		return "_", true
	}
	entry, found := c.resolveTypeEntry(path)
	if !found {
		return "_", true
	}
	rec, ok := entry.Decl.(*ast.RecordDecl)
	if !ok {
		return "_", true
	}
	subst := genericSubstForArgs(rec.Generics, args)
	fieldType := func(name string) (types.Type, bool) {
		for _, f := range rec.Fields {
			if f.Name == name {
				return c.elaborate(substituteTypeExpr(f.Type, subst)), true
			}
		}
		return nil, false
	}
	for _, rf := range p.Fields {
		ft, ok := fieldType(rf.Name)
		if !ok {
			c.Diags.Add(diag.New("Pattern-UnknownField-Err", p.Pos, "%q has no field %q", path, rf.Name))
			continue
		}
		if rf.Pattern == nil {
			c.Gamma.Bind(rf.Name, ft, typeenv.Immutable, true, p.Pos)
			continue
		}
		c.TypePattern(rf.Pattern, ft)
	}
	return "_", false
}

func (c *Context) typeEnumPattern(p *ast.EnumPattern, scrutinee types.Type) (string, bool) {
	path, args, ok := stripToRecord(scrutinee)
	if !ok || (p.EnumPath != "" && path != p.EnumPath) {
		c.Diags.Add(diag.New("Pattern-ShapeMismatch-Err", p.Pos,
			"enum pattern does not match scrutinee %s", scrutinee))
		return p.Variant, true
	}
	entry, found := c.resolveTypeEntry(path)
	if !found {
		return p.Variant, true
	}
	en, ok := entry.Decl.(*ast.EnumDecl)
	if !ok {
		return p.Variant, true
	}
	subst := genericSubstForArgs(en.Generics, args)
	var variant *ast.VariantDecl
	for i := range en.Variants {
		if en.Variants[i].Name == p.Variant {
			variant = &en.Variants[i]
			break
		}
	}
	if variant == nil {
		c.Diags.Add(diag.New("Pattern-UnknownVariant-Err", p.Pos, "%q has no variant %q", path, p.Variant))
		return p.Variant, true
	}
	switch {
	case p.TuplePayload != nil:
		if len(variant.TuplePayload) != len(p.TuplePayload) {
			c.Diags.Add(diag.New("Pattern-ShapeMismatch-Err", p.Pos, "variant %q payload arity mismatch", p.Variant))
			break
		}
		for i, sub := range p.TuplePayload {
			pt := c.elaborate(substituteTypeExpr(variant.TuplePayload[i], subst))
			c.TypePattern(sub, pt)
		}
	case p.RecPayload != nil:
		for _, rf := range p.RecPayload {
			var ft types.Type
			for _, f := range variant.RecPayload {
				if f.Name == rf.Name {
					ft = c.elaborate(substituteTypeExpr(f.Type, subst))
				}
			}
			if ft == nil {
				c.Diags.Add(diag.New("Pattern-UnknownField-Err", p.Pos, "variant %q has no field %q", p.Variant, rf.Name))
				continue
			}
			if rf.Pattern == nil {
				c.Gamma.Bind(rf.Name, ft, typeenv.Immutable, true, p.Pos)
				continue
			}
			c.TypePattern(rf.Pattern, ft)
		}
	}
	return path + "::" + p.Variant, len(en.Variants) > 1
}

func (c *Context) typeModalPattern(p *ast.ModalPattern, scrutinee types.Type) (string, bool) {
	modal, ok := scrutinee.(*types.ModalStateType)
	if !ok {
		c.Diags.Add(diag.New("Pattern-ShapeMismatch-Err", p.Pos, "modal pattern does not match scrutinee %s", scrutinee))
		return p.State, true
	}
	if p.TypePath != "" && modal.Path != p.TypePath {
		c.Diags.Add(diag.New("Pattern-ShapeMismatch-Err", p.Pos, "modal pattern type %q does not match scrutinee %s", p.TypePath, scrutinee))
	}
	if modal.State != p.State {
		c.Diags.Add(diag.New("Pattern-StateMismatch-Err", p.Pos, "pattern expects state %q, scrutinee is in %q", p.State, modal.State))
	}
	entry, found := c.resolveTypeEntry(modal.Path)
	if found {
		if md, ok := entry.Decl.(*ast.ModalDecl); ok {
			for _, st := range md.States {
				if st.Name != p.State {
					continue
				}
				subst := genericSubstForArgs(md.Generics, modal.Args)
				for _, rf := range p.Fields {
					var ft types.Type
					for _, f := range st.Fields {
						if f.Name == rf.Name {
							ft = c.elaborate(substituteTypeExpr(f.Type, subst))
						}
					}
					if ft == nil {
						c.Diags.Add(diag.New("Pattern-UnknownField-Err", p.Pos, "state %q has no field %q", p.State, rf.Name))
						continue
					}
					if rf.Pattern == nil {
						c.Gamma.Bind(rf.Name, ft, typeenv.Immutable, true, p.Pos)
						continue
					}
					c.TypePattern(rf.Pattern, ft)
				}
			}
		}
	}
	statesCount := 1
	if found {
		if md, ok := entry.Decl.(*ast.ModalDecl); ok {
			statesCount = len(md.States)
		}
	}
	return modal.Path + "@" + p.State, statesCount > 1
}

// inferMatch implements TypeMatchExpr (spec.md §4.5): every arm's pattern is
// typed against the scrutinee in its own Γ frame, guard expressions are
// checked as bool, arm bodies are joined the same way if/else branches are,
// and exhaustiveness is checked over enum variants / modal states / union
// members when the scrutinee's shape is closed.
func (c *Context) inferMatch(e *ast.MatchExpr) types.Type {
	scrutinee := c.Infer(e.Scrutinee)

	var result types.Type = types.TNever
	covered := make(map[string]bool)
	hasWildcard := false

	for i, arm := range e.Arms {
		c.Gamma.Push()
		covers, refutable := c.TypePattern(arm.Pattern, scrutinee)
		if covers == "_" && !refutable {
			hasWildcard = true
		}
		covered[covers] = true
		if arm.Guard != nil {
			c.Check(arm.Guard, types.TBool)
		}
		bodyT := c.Infer(arm.Body)
		c.Gamma.Pop()

		if i == 0 {
			result = bodyT
			continue
		}
		joined, ok := joinTypes(result, bodyT, c.Sigma)
		if !ok {
			c.Diags.Add(diag.New("Match-ArmMismatch-Err", arm.Pos, "match arm type %s does not join with %s", bodyT, result))
			continue
		}
		result = joined
	}

	if !hasWildcard {
		if missing := missingCoverage(scrutinee, covered, c); len(missing) > 0 {
			c.Diags.Add(diag.New("Match-NonExhaustive-Err", e.Pos,
				"match is not exhaustive, missing: %v", missing))
		}
	}
	return result
}

// missingCoverage reports which enum variants, modal states, or union
// members the match didn't account for. Array/tuple/record scrutinees are
// only ever matched exhaustively via a wildcard or ident pattern, which
// covered["_"] already caught above.
func missingCoverage(scrutinee types.Type, covered map[string]bool, c *Context) []string {
	switch t := scrutinee.(type) {
	case *types.UnionType:
		var missing []string
		for _, m := range t.Members {
			if !covered[m.String()] {
				missing = append(missing, m.String())
			}
		}
		return missing

	case *types.PathType:
		entry, found := c.resolveTypeEntry(t.Path)
		if !found {
			return nil
		}
		en, ok := entry.Decl.(*ast.EnumDecl)
		if !ok {
			return nil
		}
		var missing []string
		for _, v := range en.Variants {
			key := t.Path + "::" + v.Name
			if !covered[key] {
				missing = append(missing, key)
			}
		}
		return missing

	case *types.ModalStateType:
		entry, found := c.resolveTypeEntry(t.Path)
		if !found {
			return nil
		}
		md, ok := entry.Decl.(*ast.ModalDecl)
		if !ok {
			return nil
		}
		var missing []string
		for _, st := range md.States {
			key := t.Path + "@" + st.Name
			if !covered[key] {
				missing = append(missing, key)
			}
		}
		return missing

	default:
		return nil
	}
}
