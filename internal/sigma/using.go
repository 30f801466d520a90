package sigma

import (
	"github.com/cursivecrow/cursive0-sema/internal/ast"
	"github.com/cursivecrow/cursive0-sema/internal/diag"
)

// ApplyUsing resolves one `using` declaration against an already-registered
// target module, splicing the requested (or, if Symbols is empty, every
// exported) names into dst under SourceUsing so the cactus can tell a
// re-exposed name from a genuine redeclaration (spec.md §4.2).
func (s *Sigma) ApplyUsing(dst *ModuleIndex, fromModule string, symbols []string, alias string) []*diag.Diagnostic {
	var diags []*diag.Diagnostic

	target, ok := s.Modules[fromModule]
	if !ok {
		diags = append(diags, diag.New("Using-UnknownModule-Err", ast.Pos{},
			"module %q is not part of the project", fromModule))
		return diags
	}

	bring := func(name string, e *Entity) {
		if !CanAccess(dst.Path, e) {
			return
		}
		key := NewIdKey(name)
		reexposed := &Entity{Kind: e.Kind, Origin: e.Origin, Source: SourceUsing, ModulePath: e.ModulePath, Vis: e.Vis}
		if prior, dup := dst.Entities[key]; dup && prior.Source == SourceDecl {
			diags = append(diags, diag.New("Intro-Dup", e.Origin.Position(),
				"%q from `using %s` conflicts with a local declaration", name, fromModule))
			return
		}
		dst.Entities[key] = reexposed
	}

	if len(symbols) == 0 {
		for key, e := range target.Entities {
			if e.Source != SourceDecl {
				continue // using is not transitive; re-export explicitly instead
			}
			bring(string(key), e)
		}
		return diags
	}

	for _, sym := range symbols {
		e, ok := target.Entities[NewIdKey(sym)]
		if !ok {
			diags = append(diags, diag.New("Using-UnknownSymbol-Err", ast.Pos{},
				"module %q has no member %q", fromModule, sym))
			continue
		}
		name := sym
		if alias != "" && len(symbols) == 1 {
			name = alias
		}
		bring(name, e)
	}
	return diags
}
