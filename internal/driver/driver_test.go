package driver

import (
	"testing"

	"github.com/cursivecrow/cursive0-sema/internal/ast"
)

func i32Type() ast.TypeExpr {
	return &ast.NamedTypeExpr{Path: []string{"i32"}}
}

func litInt(v int64) *ast.Literal {
	return &ast.Literal{Kind: ast.IntLit, Value: v}
}

func giveProc(name string, ret ast.TypeExpr, tail ast.Expr) *ast.ProcDecl {
	return &ast.ProcDecl{Name: name, Return: ret, Body: &ast.Block{Tail: tail}}
}

func testProject(kind AssemblyKind, mods ...string) *Project {
	return &Project{Name: "p", Kind: kind, Modules: mods}
}

func TestTypecheckModulesAcceptsTwoModuleProject(t *testing.T) {
	base := &ast.Module{
		Path: "geometry/point",
		Items: []ast.Item{
			&ast.RecordDecl{Name: "Point", Fields: []ast.FieldDecl{
				{Name: "x", Type: i32Type()},
			}},
			giveProc("origin_x", i32Type(), litInt(0)),
		},
	}
	dependent := &ast.Module{
		Path: "geometry/shape",
		Items: []ast.Item{
			&ast.RecordDecl{Name: "Shape", Fields: []ast.FieldDecl{
				{Name: "origin", Type: &ast.NamedTypeExpr{Path: []string{"geometry/point", "Point"}}},
			}},
		},
	}
	project := testProject(Library, base.Path, dependent.Path)
	modules := map[string]*ast.Module{base.Path: base, dependent.Path: dependent}

	result := TypecheckModules(project, modules)
	if !result.OK {
		t.Fatalf("expected a clean typecheck, got diags: %v", result.Diags)
	}
	if result.RunID == "" {
		t.Fatal("expected a non-empty RunID")
	}
	if result.InitPlan == nil || !result.InitPlan.TopoOK {
		t.Fatalf("expected a valid init plan, got %+v", result.InitPlan)
	}
	if i, j := indexOfPath(result.InitPlan.InitOrder, base.Path), indexOfPath(result.InitPlan.InitOrder, dependent.Path); i < 0 || j < 0 || i >= j {
		t.Fatalf("expected %q before %q in init order, got %v", base.Path, dependent.Path, result.InitPlan.InitOrder)
	}
}

func indexOfPath(order []string, path string) int {
	for i, p := range order {
		if p == path {
			return i
		}
	}
	return -1
}

func TestTypecheckModulesStopsAtFirstFailingPhase(t *testing.T) {
	broken := &ast.Module{
		Path: "broken/mod",
		Items: []ast.Item{
			&ast.RecordDecl{Name: "Dup", Fields: []ast.FieldDecl{
				{Name: "x", Type: i32Type()},
				{Name: "x", Type: i32Type()},
			}},
		},
	}
	ok := &ast.Module{
		Path: "ok/mod",
		Items: []ast.Item{
			&ast.RecordDecl{Name: "Fine", Fields: []ast.FieldDecl{{Name: "y", Type: i32Type()}}},
		},
	}
	project := testProject(Library, broken.Path, ok.Path)
	modules := map[string]*ast.Module{broken.Path: broken, ok.Path: ok}

	result := TypecheckModules(project, modules)
	if result.OK {
		t.Fatal("expected the duplicate-field WF violation to fail the typecheck")
	}
	if result.InitPlan != nil {
		t.Fatalf("expected init planning to be skipped after a decl-typing error, got %+v", result.InitPlan)
	}
	if len(result.ExprTypes) != 0 {
		t.Fatalf("expected no body typing to have run, got %d expr types", len(result.ExprTypes))
	}
}

func TestMainCheckProjectRequiresExactlyOneMain(t *testing.T) {
	none := map[string]*ast.Module{
		"app/lib": {Path: "app/lib", Items: []ast.Item{giveProc("helper", i32Type(), litInt(0))}},
	}
	if d := MainCheckProject([]string{"app/lib"}, none); d == nil || d.Code != "PRJ-Main-Missing-Err" {
		t.Fatalf("expected PRJ-Main-Missing-Err, got %v", d)
	}

	one := map[string]*ast.Module{
		"app/main": {Path: "app/main", Items: []ast.Item{giveProc("main", i32Type(), litInt(0))}},
	}
	if d := MainCheckProject([]string{"app/main"}, one); d != nil {
		t.Fatalf("expected no diagnostic for exactly one main, got %v", d)
	}

	two := map[string]*ast.Module{
		"app/a": {Path: "app/a", Items: []ast.Item{giveProc("main", i32Type(), litInt(0))}},
		"app/b": {Path: "app/b", Items: []ast.Item{giveProc("main", i32Type(), litInt(0))}},
	}
	if d := MainCheckProject([]string{"app/a", "app/b"}, two); d == nil || d.Code != "PRJ-Main-Ambiguous-Err" {
		t.Fatalf("expected PRJ-Main-Ambiguous-Err, got %v", d)
	}
}

func TestTypecheckModulesIsDeterministic(t *testing.T) {
	mod := &ast.Module{
		Path: "det/mod",
		Items: []ast.Item{
			&ast.RecordDecl{Name: "Point", Fields: []ast.FieldDecl{{Name: "x", Type: i32Type()}}},
			giveProc("zero", i32Type(), litInt(0)),
		},
	}
	project := testProject(Library, mod.Path)
	modules := map[string]*ast.Module{mod.Path: mod}

	first := TypecheckModules(project, modules)
	second := TypecheckModules(project, modules)

	if first.OK != second.OK {
		t.Fatalf("expected identical OK across runs, got %v and %v", first.OK, second.OK)
	}
	if len(first.Diags) != len(second.Diags) {
		t.Fatalf("expected identical diagnostic counts across runs, got %d and %d", len(first.Diags), len(second.Diags))
	}
	if first.InitPlan == nil || second.InitPlan == nil {
		t.Fatal("expected both runs to produce an init plan")
	}
	if len(first.InitPlan.InitOrder) != len(second.InitPlan.InitOrder) {
		t.Fatal("expected identical init order length across runs")
	}
	for i := range first.InitPlan.InitOrder {
		if first.InitPlan.InitOrder[i] != second.InitPlan.InitOrder[i] {
			t.Fatalf("expected identical init order across runs, got %v and %v", first.InitPlan.InitOrder, second.InitPlan.InitOrder)
		}
	}
}
