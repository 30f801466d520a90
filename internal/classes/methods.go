package classes

import (
	"github.com/cursivecrow/cursive0-sema/internal/ast"
	"github.com/cursivecrow/cursive0-sema/internal/diag"
)

// ResolvedMethod is one entry of a class's method-resolution table: the
// abstract signature plus which class in the MRO actually supplies its
// default body, if any.
type ResolvedMethod struct {
	Method     ast.AbstractMethod
	FromClass  string
	HasDefault bool
}

// MethodTable computes the full method-resolution table for classPath by
// walking its C3 linearization from least to most specific, so a subclass's
// default overrides an ancestor's (spec.md §4.6).
func (r *Registry) MethodTable(classPath string) (map[string]*ResolvedMethod, error) {
	mro, err := r.Linearize(classPath)
	if err != nil {
		return nil, err
	}

	table := make(map[string]*ResolvedMethod)
	// Walk from the back (least specific ancestor) to the front (classPath
	// itself) so a later write always wins and ends up most specific.
	for i := len(mro) - 1; i >= 0; i-- {
		decl, ok := r.Classes[mro[i]]
		if !ok {
			continue
		}
		for _, m := range decl.Methods {
			table[m.Name] = &ResolvedMethod{
				Method:     m,
				FromClass:  mro[i],
				HasDefault: m.Default != nil,
			}
		}
	}
	return table, nil
}

// CheckImplCompleteness verifies that impl supplies a body for every
// abstract method in classPath's full method table that has no default,
// and that every associated type the class leaves abstract is bound
// (spec.md §4.6). The class's abstract states (ClassDecl.AbstractStates)
// are not checked.
func (r *Registry) CheckImplCompleteness(classPath string, impl *ast.ImplDecl) []*diag.Diagnostic {
	var diags []*diag.Diagnostic

	table, err := r.MethodTable(classPath)
	if err != nil {
		diags = append(diags, diag.New("Superclass-Cycle-Err", impl.Pos, "%s", err.Error()))
		return diags
	}

	provided := make(map[string]bool, len(impl.Methods))
	for _, m := range impl.Methods {
		provided[m.Name] = true
	}

	for name, rm := range table {
		if rm.HasDefault {
			continue
		}
		if !provided[name] {
			diags = append(diags, diag.New("Impl-Incomplete-Err", impl.Pos,
				"impl %s for %s is missing method %q required by %s",
				impl.ClassPath, impl.TypePath, name, rm.FromClass))
		}
	}

	decl := r.Classes[classPath]
	if decl != nil {
		for _, assoc := range decl.AbstractAssocTy {
			if _, bound := impl.AssocTys[assoc]; !bound {
				diags = append(diags, diag.New("Impl-Incomplete-Err", impl.Pos,
					"impl %s for %s is missing associated type %q", impl.ClassPath, impl.TypePath, assoc))
			}
		}
	}

	return diags
}

// CheckOrphan enforces the orphan rule: an impl must be declared in the same
// module as either its class or its type (spec.md §4.6), preventing two
// unrelated modules from both supplying conflicting impls for a pair
// neither of them owns.
func CheckOrphan(implModule, classModule, typeModule string, impl *ast.ImplDecl) *diag.Diagnostic {
	if implModule == classModule || implModule == typeModule {
		return nil
	}
	return diag.New("Impl-Orphan-Err", impl.Pos,
		"impl %s for %s must live in the module declaring the class or the type, not %q",
		impl.ClassPath, impl.TypePath, implModule)
}
