package sema

import (
	"testing"

	"github.com/cursivecrow/cursive0-sema/internal/ast"
	"github.com/cursivecrow/cursive0-sema/internal/classes"
	"github.com/cursivecrow/cursive0-sema/internal/sigma"
	"github.com/cursivecrow/cursive0-sema/internal/types"
)

func newTestContext() *Context {
	sig := sigma.NewSigma()
	cls := classes.NewRegistry()
	scope := sigma.NewScopeContext(sig)
	return NewContext(sig, cls, scope, "test/mod")
}

func litInt(v int64) *ast.Literal {
	return &ast.Literal{Kind: ast.IntLit, Value: v}
}

func litBool(v bool) *ast.Literal {
	return &ast.Literal{Kind: ast.BoolLit, Value: v}
}

func TestLetBindsIrrefutablePattern(t *testing.T) {
	c := newTestContext()
	stmt := &ast.LetStmt{
		Pattern: &ast.IdentPattern{Name: "x"},
		Value:   litInt(1),
	}
	c.TypeStmt(stmt)
	if c.Diags.HasError() {
		t.Fatalf("unexpected diagnostics: %v", c.Diags.Errors())
	}
	b, ok := c.Gamma.Lookup("x")
	if !ok {
		t.Fatal("expected x to be bound")
	}
	if !isIntType(b.Type) {
		t.Errorf("expected x to be an integer type, got %s", b.Type)
	}
}

func TestShadowRequiredOnSameFrameRebind(t *testing.T) {
	c := newTestContext()
	c.TypeStmt(&ast.LetStmt{Pattern: &ast.IdentPattern{Name: "x"}, Value: litInt(1)})
	c.TypeStmt(&ast.LetStmt{Pattern: &ast.IdentPattern{Name: "x"}, Value: litInt(2)})
	if !c.Diags.HasError() {
		t.Fatal("expected a shadow-required diagnostic on same-frame rebind")
	}
}

func TestAssignToImmutableIsRejected(t *testing.T) {
	c := newTestContext()
	c.TypeStmt(&ast.LetStmt{
		Mut:     ast.MutLet,
		Pattern: &ast.IdentPattern{Name: "x"},
		Value:   litInt(1),
	})
	c.TypeStmt(&ast.AssignStmt{Target: &ast.Ident{Name: "x"}, Value: litInt(2)})
	if !c.Diags.HasError() {
		t.Fatal("expected Assign-Immutable-Err")
	}
}

func TestAssignToMutableSucceeds(t *testing.T) {
	c := newTestContext()
	c.TypeStmt(&ast.LetStmt{
		Mut:     ast.MutVar,
		Pattern: &ast.IdentPattern{Name: "x"},
		Value:   litInt(1),
	})
	c.TypeStmt(&ast.AssignStmt{Target: &ast.Ident{Name: "x"}, Value: litInt(2)})
	if c.Diags.HasError() {
		t.Fatalf("unexpected diagnostics: %v", c.Diags.Errors())
	}
}

func TestBreakOutsideLoopIsRejected(t *testing.T) {
	c := newTestContext()
	c.TypeStmt(&ast.BreakStmt{})
	if !c.Diags.HasError() {
		t.Fatal("expected Break-OutsideLoop-Err")
	}
}

func TestLoopJoinsBreakValueWithBodyType(t *testing.T) {
	c := newTestContext()
	loop := &ast.LoopStmt{
		Cond: litBool(true),
		Body: &ast.Block{
			Stmts: []ast.Stmt{&ast.BreakStmt{Value: litInt(1)}},
		},
	}
	c.TypeStmt(loop)
	if c.Diags.HasError() {
		t.Fatalf("unexpected diagnostics: %v", c.Diags.Errors())
	}
}

func TestBlockTailExpressionDeterminesType(t *testing.T) {
	c := newTestContext()
	block := &ast.Block{Tail: litInt(1)}
	got := c.TypeBlock(block)
	if !isIntType(got) {
		t.Errorf("expected integer block type, got %s", got)
	}
}

func TestBlockWithoutTailIsUnit(t *testing.T) {
	c := newTestContext()
	block := &ast.Block{Stmts: []ast.Stmt{&ast.ExprStmt{Value: litInt(1)}}}
	got := c.TypeBlock(block)
	if !types.Equiv(got, types.TUnit) {
		t.Errorf("expected unit block type, got %s", got)
	}
}

func TestDeferRejectsNonLocalExit(t *testing.T) {
	c := newTestContext()
	c.loopDepth = 1 // simulate being inside a loop so break itself isn't also flagged
	c.currentLoop = &loopBreaks{}
	c.TypeStmt(&ast.DeferStmt{
		Body: &ast.Block{Stmts: []ast.Stmt{&ast.BreakStmt{}}},
	})
	if !c.Diags.HasError() {
		t.Fatal("expected Defer-NonLocalExit-Err")
	}
}
