package driver

import (
	"testing"

	"github.com/cursivecrow/cursive0-sema/internal/ast"
)

func TestTypecheckModulesParallelMatchesSequential(t *testing.T) {
	a := &ast.Module{
		Path: "par/a",
		Items: []ast.Item{
			&ast.RecordDecl{Name: "A", Fields: []ast.FieldDecl{{Name: "x", Type: i32Type()}}},
		},
	}
	b := &ast.Module{
		Path: "par/b",
		Items: []ast.Item{
			&ast.RecordDecl{Name: "B", Fields: []ast.FieldDecl{
				{Name: "a", Type: &ast.NamedTypeExpr{Path: []string{"par/a", "A"}}},
			}},
		},
	}
	modules := map[string]*ast.Module{a.Path: a, b.Path: b}

	seq := TypecheckModules(testProject(Library, a.Path, b.Path), modules)
	par := testProject(Library, a.Path, b.Path)
	par.Parallel = true
	got := TypecheckModules(par, modules)

	if seq.OK != got.OK {
		t.Fatalf("expected matching OK, got sequential=%v parallel=%v", seq.OK, got.OK)
	}
	if len(seq.Diags) != len(got.Diags) {
		t.Fatalf("expected matching diagnostic counts, got sequential=%d parallel=%d", len(seq.Diags), len(got.Diags))
	}
	if len(seq.InitPlan.InitOrder) != len(got.InitPlan.InitOrder) {
		t.Fatal("expected matching init order length")
	}
	for i := range seq.InitPlan.InitOrder {
		if seq.InitPlan.InitOrder[i] != got.InitPlan.InitOrder[i] {
			t.Fatalf("expected identical init order, got sequential=%v parallel=%v", seq.InitPlan.InitOrder, got.InitPlan.InitOrder)
		}
	}
}

func TestTypecheckModulesParallelDetectsWfViolation(t *testing.T) {
	broken := &ast.Module{
		Path: "par/broken",
		Items: []ast.Item{
			&ast.RecordDecl{Name: "Dup", Fields: []ast.FieldDecl{
				{Name: "x", Type: i32Type()},
				{Name: "x", Type: i32Type()},
			}},
		},
	}
	project := testProject(Library, broken.Path)
	project.Parallel = true
	result := TypecheckModules(project, map[string]*ast.Module{broken.Path: broken})
	if result.OK {
		t.Fatal("expected the duplicate-field WF violation to fail the parallel typecheck")
	}
}
