package classes

import (
	"testing"

	"github.com/cursivecrow/cursive0-sema/internal/ast"
)

func regClass(r *Registry, modulePath, name string, supers ...string) string {
	path := modulePath + "::" + name
	r.Classes[path] = &ast.ClassDecl{Name: name, Superclasses: supers}
	r.ClassModule[path] = modulePath
	return path
}

func TestLinearizeDiamondPrefersMostSpecific(t *testing.T) {
	r := NewRegistry()
	base := regClass(r, "m", "Base")
	left := regClass(r, "m", "Left", base)
	right := regClass(r, "m", "Right", base)
	diamond := regClass(r, "m", "Diamond", left, right)

	mro, err := r.Linearize(diamond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{diamond, left, right, base}
	if len(mro) != len(want) {
		t.Fatalf("got %v, want %v", mro, want)
	}
	for i := range want {
		if mro[i] != want[i] {
			t.Fatalf("got %v, want %v", mro, want)
		}
	}
}

func TestLinearizeDetectsCycle(t *testing.T) {
	r := NewRegistry()
	a := "m::A"
	b := "m::B"
	r.Classes[a] = &ast.ClassDecl{Name: "A", Superclasses: []string{b}}
	r.Classes[b] = &ast.ClassDecl{Name: "B", Superclasses: []string{a}}

	if _, err := r.Linearize(a); err == nil {
		t.Fatal("expected a cycle error")
	}
}

func TestMethodTableMostDerivedDefaultWins(t *testing.T) {
	r := NewRegistry()
	base := regClass(r, "m", "Base")
	r.Classes[base].Methods = []ast.AbstractMethod{
		{Name: "speak", Default: &ast.ProcDecl{Name: "speak"}},
	}
	derived := regClass(r, "m", "Derived", base)
	r.Classes[derived].Methods = []ast.AbstractMethod{
		{Name: "speak", Default: &ast.ProcDecl{Name: "speak"}},
	}

	table, err := r.MethodTable(derived)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table["speak"].FromClass != derived {
		t.Fatalf("expected Derived's default to win, got %s", table["speak"].FromClass)
	}
}

func TestCheckImplCompletenessFlagsMissingMethod(t *testing.T) {
	r := NewRegistry()
	class := regClass(r, "m", "Shape")
	r.Classes[class].Methods = []ast.AbstractMethod{
		{Name: "area"},
		{Name: "perimeter", Default: &ast.ProcDecl{Name: "perimeter"}},
	}

	impl := &ast.ImplDecl{ClassPath: class, TypePath: "m::Square", Methods: nil, AssocTys: map[string]ast.TypeExpr{}}
	diags := r.CheckImplCompleteness(class, impl)
	if len(diags) != 1 {
		t.Fatalf("expected exactly one missing-method diagnostic, got %d: %v", len(diags), diags)
	}

	impl.Methods = []ast.ProcDecl{{Name: "area"}}
	diags = r.CheckImplCompleteness(class, impl)
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics once area is supplied, got %v", diags)
	}
}

func TestCheckOrphanRejectsThirdPartyModule(t *testing.T) {
	impl := &ast.ImplDecl{ClassPath: "lib::Shape", TypePath: "other::Square"}
	if d := CheckOrphan("stranger", "lib", "other", impl); d == nil {
		t.Fatal("expected orphan rule to reject an impl in an unrelated module")
	}
	if d := CheckOrphan("lib", "lib", "other", impl); d != nil {
		t.Fatalf("impl colocated with the class should be allowed, got %v", d)
	}
	if d := CheckOrphan("other", "lib", "other", impl); d != nil {
		t.Fatalf("impl colocated with the type should be allowed, got %v", d)
	}
}
