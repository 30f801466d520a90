package sema

import (
	"testing"

	"github.com/cursivecrow/cursive0-sema/internal/ast"
)

func i32TypeExpr() ast.TypeExpr {
	return &ast.NamedTypeExpr{Path: []string{"i32"}}
}

func TestCheckRecordWfRejectsDuplicateField(t *testing.T) {
	c := newTestContext()
	rec := &ast.RecordDecl{
		Name: "Point",
		Fields: []ast.FieldDecl{
			{Name: "x", Type: i32TypeExpr()},
			{Name: "x", Type: i32TypeExpr()},
		},
	}
	c.CheckRecordWf(rec)
	if !c.Diags.HasError() {
		t.Fatal("expected WF-Record-DupField diagnostic")
	}
}

func TestCheckRecordWfAcceptsWellFormedRecord(t *testing.T) {
	c := newTestContext()
	rec := &ast.RecordDecl{
		Name: "Point",
		Fields: []ast.FieldDecl{
			{Name: "x", Type: i32TypeExpr()},
			{Name: "y", Type: i32TypeExpr()},
		},
	}
	c.CheckRecordWf(rec)
	if c.Diags.HasError() {
		t.Fatalf("unexpected diagnostics: %v", c.Diags.Errors())
	}
}

func TestCheckEnumWfRejectsDuplicateVariant(t *testing.T) {
	c := newTestContext()
	en := &ast.EnumDecl{
		Name: "Shape",
		Variants: []ast.VariantDecl{
			{Name: "Circle"},
			{Name: "Circle"},
		},
	}
	c.CheckEnumWf(en)
	if !c.Diags.HasError() {
		t.Fatal("expected WF-Enum-DupVariant diagnostic")
	}
}

func TestCheckModalWfRejectsUnknownTransitionTarget(t *testing.T) {
	c := newTestContext()
	modal := &ast.ModalDecl{
		Name: "Connection",
		States: []ast.StateDecl{
			{
				Name:        "Closed",
				Transitions: []ast.TransitionDecl{{Name: "open", Target: "Open"}},
			},
		},
	}
	c.CheckModalWf(modal)
	if !c.Diags.HasError() {
		t.Fatal("expected WF-Transition-UnknownTarget diagnostic")
	}
}

func TestTypeProcBodyChecksReturnType(t *testing.T) {
	c := newTestContext()
	proc := &ast.ProcDecl{
		Name:   "give",
		Return: i32TypeExpr(),
		Body:   &ast.Block{Tail: litInt(1)},
	}
	c.TypeProcBody(proc)
	if c.Diags.HasError() {
		t.Fatalf("unexpected diagnostics: %v", c.Diags.Errors())
	}
}

func TestTypeProcBodyRejectsReturnMismatch(t *testing.T) {
	c := newTestContext()
	proc := &ast.ProcDecl{
		Name:   "give",
		Return: i32TypeExpr(),
		Body:   &ast.Block{Tail: litBool(true)},
	}
	c.TypeProcBody(proc)
	if !c.Diags.HasError() {
		t.Fatal("expected Proc-ReturnMismatch-Err diagnostic")
	}
}
