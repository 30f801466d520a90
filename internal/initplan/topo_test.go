package initplan

import (
	"testing"

	"github.com/cursivecrow/cursive0-sema/internal/ast"
	"github.com/cursivecrow/cursive0-sema/internal/sigma"
)

// namedRef builds a bare `path::Name` style NamedTypeExpr reference.
func namedRef(path ...string) *ast.NamedTypeExpr {
	return &ast.NamedTypeExpr{Path: path}
}

func registerAll(t *testing.T, mods ...*ast.Module) *sigma.Sigma {
	t.Helper()
	sig := sigma.NewSigma()
	for _, m := range mods {
		if _, diags := sig.RegisterModule(m); len(diags) != 0 {
			t.Fatalf("unexpected registration diagnostics for %q: %v", m.Path, diags)
		}
	}
	return sig
}

func indexOf(order []string, path string) int {
	for i, p := range order {
		if p == path {
			return i
		}
	}
	return -1
}

func TestBuildInitPlanOrdersTypeEdgeBeforeDependent(t *testing.T) {
	base := &ast.Module{
		Path: "geometry/point",
		Items: []ast.Item{
			&ast.RecordDecl{Name: "Point", Fields: []ast.FieldDecl{
				{Name: "x", Type: namedRef("i32")},
			}},
		},
	}
	dependent := &ast.Module{
		Path: "geometry/shape",
		Items: []ast.Item{
			&ast.RecordDecl{Name: "Shape", Fields: []ast.FieldDecl{
				{Name: "origin", Type: namedRef("geometry/point", "Point")},
			}},
		},
	}
	sig := registerAll(t, base, dependent)
	plan := BuildInitPlan(sig)
	if !plan.TopoOK {
		t.Fatalf("expected an acyclic plan, got diags: %v", plan.Diags)
	}
	if i, j := indexOf(plan.InitOrder, "geometry/point"), indexOf(plan.InitOrder, "geometry/shape"); i >= j {
		t.Fatalf("expected geometry/point before geometry/shape, got order %v", plan.InitOrder)
	}
}

func TestBuildInitPlanDetectsEagerCycle(t *testing.T) {
	a := &ast.Module{
		Path: "cycle/a",
		Items: []ast.Item{
			&ast.StaticDecl{Name: "seedA", Type: namedRef("i32"),
				Value: &ast.PathExpr{Segments: []string{"cycle", "b", "seedB"}}},
		},
	}
	b := &ast.Module{
		Path: "cycle/b",
		Items: []ast.Item{
			&ast.StaticDecl{Name: "seedB", Type: namedRef("i32"),
				Value: &ast.PathExpr{Segments: []string{"cycle", "a", "seedA"}}},
		},
	}
	sig := registerAll(t, a, b)
	plan := BuildInitPlan(sig)
	if plan.TopoOK {
		t.Fatalf("expected a cycle to be detected, got order %v", plan.InitOrder)
	}
	found := false
	for _, d := range plan.Diags {
		if d.Code == "E-MOD-1401" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected E-MOD-1401, got %v", plan.Diags)
	}
}

func TestBuildInitPlanExcludesLazyEdgesFromCycleCheck(t *testing.T) {
	a := &ast.Module{
		Path: "lazy/a",
		Items: []ast.Item{
			&ast.StaticDecl{Name: "seedA", Type: namedRef("i32"),
				Value: &ast.PathExpr{Segments: []string{"lazy", "b", "seedB"}}},
		},
	}
	b := &ast.Module{
		Path: "lazy/b",
		Items: []ast.Item{
			&ast.StaticDecl{Name: "seedB", Type: namedRef("i32"),
				Value: &ast.LambdaExpr{Body: &ast.PathExpr{Segments: []string{"lazy", "a", "seedA"}}}},
		},
	}
	sig := registerAll(t, a, b)
	plan := BuildInitPlan(sig)
	if !plan.TopoOK {
		t.Fatalf("expected the lambda-deferred back-reference to not count as a cycle, got diags: %v", plan.Diags)
	}
	if indexOf(plan.InitOrder, "lazy/a") < 0 || indexOf(plan.InitOrder, "lazy/b") < 0 {
		t.Fatalf("expected both modules in the order, got %v", plan.InitOrder)
	}
}

func TestBuildInitPlanIsOrderDeterministic(t *testing.T) {
	mods := []*ast.Module{
		{Path: "zz/last", Items: []ast.Item{&ast.RecordDecl{Name: "Z"}}},
		{Path: "aa/first", Items: []ast.Item{&ast.RecordDecl{Name: "A"}}},
		{Path: "mm/mid", Items: []ast.Item{&ast.RecordDecl{Name: "M"}}},
	}
	sig := registerAll(t, mods...)
	plan := BuildInitPlan(sig)
	if !plan.TopoOK {
		t.Fatalf("expected acyclic plan, got %v", plan.Diags)
	}
	want := []string{"aa/first", "mm/mid", "zz/last"}
	if len(plan.InitOrder) != len(want) {
		t.Fatalf("expected %d modules, got %v", len(want), plan.InitOrder)
	}
	for i, w := range want {
		if plan.InitOrder[i] != w {
			t.Fatalf("expected deterministic case-folded order %v, got %v", want, plan.InitOrder)
		}
	}
}
