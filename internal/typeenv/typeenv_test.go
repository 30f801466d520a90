package typeenv

import (
	"testing"

	"github.com/cursivecrow/cursive0-sema/internal/ast"
	"github.com/cursivecrow/cursive0-sema/internal/types"
)

func TestBindDuplicateWithoutShadowIsError(t *testing.T) {
	g := New()
	if d := g.Bind("x", types.TI32, Immutable, false, ast.Pos{}); d != nil {
		t.Fatalf("first bind should succeed, got %v", d)
	}
	if d := g.Bind("x", types.TBool, Immutable, false, ast.Pos{}); d == nil {
		t.Fatal("expected Intro-Shadow-Required for a same-frame rebind without `shadow`")
	}
	if d := g.Bind("x", types.TBool, Immutable, true, ast.Pos{}); d != nil {
		t.Fatalf("explicit shadow should be allowed, got %v", d)
	}
	b, ok := g.Lookup("x")
	if !ok || !types.Equiv(b.Type, types.TBool) {
		t.Fatalf("expected shadowed binding to win, got %+v ok=%v", b, ok)
	}
}

func TestPushPopNestedFramesAndShadowing(t *testing.T) {
	g := New()
	g.Bind("outer", types.TI32, Immutable, false, ast.Pos{})

	g.Push()
	g.Bind("inner", types.TBool, Mutable, false, ast.Pos{})
	if _, ok := g.Lookup("outer"); !ok {
		t.Fatal("expected inner frame to see outer binding")
	}
	// Shadowing a name from an ancestor frame in a child frame is always
	// fine, no `shadow` keyword required.
	if d := g.Bind("outer", types.TChar, Immutable, false, ast.Pos{}); d != nil {
		t.Fatalf("shadowing an ancestor frame's binding should not require `shadow`, got %v", d)
	}
	b, _ := g.Lookup("outer")
	if !types.Equiv(b.Type, types.TChar) {
		t.Fatal("expected the nested shadow to win inside the child frame")
	}

	g.Pop()
	b, _ = g.Lookup("outer")
	if !types.Equiv(b.Type, types.TI32) {
		t.Fatal("expected the outer binding to be restored after popping the child frame")
	}
	if _, ok := g.Lookup("inner"); ok {
		t.Fatal("inner binding must not be visible after its frame is popped")
	}
}
