package sema

import (
	"testing"

	"github.com/cursivecrow/cursive0-sema/internal/ast"
	"github.com/cursivecrow/cursive0-sema/internal/diag"
	"github.com/cursivecrow/cursive0-sema/internal/typeenv"
	"github.com/cursivecrow/cursive0-sema/internal/types"
)

func TestYieldOutsideAsyncIsRejected(t *testing.T) {
	c := newTestContext()
	c.Infer(&ast.YieldExpr{Value: litInt(1)})
	if !c.Diags.HasError() {
		t.Fatal("expected ConYieldOutsideAsync diagnostic")
	}
}

func TestSpawnThenWaitRoundTripsBodyType(t *testing.T) {
	c := newTestContext()
	spawn := &ast.SpawnExpr{Body: &ast.Block{Tail: litInt(1)}}
	waitT := c.Infer(&ast.WaitExpr{Handle: spawn})
	if c.Diags.HasError() {
		t.Fatalf("unexpected diagnostics: %v", c.Diags.Errors())
	}
	if !isIntType(waitT) {
		t.Errorf("expected wait on a spawned int body to yield an int, got %s", waitT)
	}
}

func TestWaitOnTrackedYieldsUnionOfResultAndError(t *testing.T) {
	c := newTestContext()
	c.Gamma.Bind("h", types.NewPath("Tracked", types.TI32, types.TBool), typeenv.Immutable, false, ast.Pos{})
	waitT := c.Infer(&ast.WaitExpr{Handle: &ast.Ident{Name: "h"}})
	if c.Diags.HasError() {
		t.Fatalf("unexpected diagnostics: %v", c.Diags.Errors())
	}
	want := types.NewUnion(types.TI32, types.TBool)
	if !types.Equiv(waitT, want) {
		t.Errorf("expected wait on Tracked<i32,bool> to yield %s, got %s", want, waitT)
	}
}

func TestSyncInsideAsyncIsRejected(t *testing.T) {
	c := newTestContext()
	c.asyncDepth = 1
	c.Infer(&ast.SyncExpr{Value: litInt(1)})
	if !c.Diags.HasError() {
		t.Fatal("expected ConSyncInsideAsync diagnostic")
	}
}

func TestSyncReturnsUnionOfResultAndError(t *testing.T) {
	c := newTestContext()
	c.Gamma.Bind("f", types.NewPath("Future", types.TI32, types.TBool), typeenv.Immutable, false, ast.Pos{})
	syncT := c.Infer(&ast.SyncExpr{Value: &ast.Ident{Name: "f"}})
	if c.Diags.HasError() {
		t.Fatalf("unexpected diagnostics: %v", c.Diags.Errors())
	}
	want := types.NewUnion(types.TI32, types.TBool)
	if !types.Equiv(syncT, want) {
		t.Errorf("expected sync on Future<i32,bool> to yield %s, got %s", want, syncT)
	}
}

func TestSyncRejectsNonUnitOutComponent(t *testing.T) {
	c := newTestContext()
	c.Gamma.Bind("s", types.NewPath("Stream", types.TI32, types.TBool), typeenv.Immutable, false, ast.Pos{})
	c.Infer(&ast.SyncExpr{Value: &ast.Ident{Name: "s"}})
	if !c.Diags.HasError() {
		t.Fatal("expected Sync-OutNotUnit-Err for a Stream's non-unit out component")
	}
}

func TestRaceRequiresAtLeastOneHandle(t *testing.T) {
	c := newTestContext()
	c.Infer(&ast.RaceExpr{})
	if !c.Diags.HasError() {
		t.Fatal("expected ConRaceAllShapeErr diagnostic")
	}
}

func TestDispatchWithReduceReturnsBodyType(t *testing.T) {
	c := newTestContext()
	dispatch := &ast.DispatchExpr{
		Var:    "i",
		Range:  &ast.RangeExpr{},
		Reduce: "+",
		Body:   &ast.Block{Tail: litInt(1)},
	}
	got := c.Infer(dispatch)
	if c.Diags.HasError() {
		t.Fatalf("unexpected diagnostics: %v", c.Diags.Errors())
	}
	if !isIntType(got) {
		t.Errorf("expected dispatch with reduce to return the body type, got %s", got)
	}
}

func TestDispatchWithoutReduceReturnsUnit(t *testing.T) {
	c := newTestContext()
	dispatch := &ast.DispatchExpr{
		Var:   "i",
		Range: &ast.RangeExpr{},
		Body:  &ast.Block{Tail: litInt(1)},
	}
	got := c.Infer(dispatch)
	if c.Diags.HasError() {
		t.Fatalf("unexpected diagnostics: %v", c.Diags.Errors())
	}
	if !types.Equiv(got, types.TUnit) {
		t.Errorf("expected dispatch without reduce to return unit, got %s", got)
	}
}

func TestDispatchBindsLoopVariableAsUSize(t *testing.T) {
	c := newTestContext()
	dispatch := &ast.DispatchExpr{
		Var:    "i",
		Range:  &ast.RangeExpr{},
		Reduce: "+",
		Body:   &ast.Block{Tail: &ast.Ident{Name: "i"}},
	}
	got := c.Infer(dispatch)
	if c.Diags.HasError() {
		t.Fatalf("unexpected diagnostics: %v", c.Diags.Errors())
	}
	if !types.Equiv(got, types.NewPrim(types.USize)) {
		t.Errorf("expected the dispatch loop variable to be bound as usize, got %s", got)
	}
}

func TestYieldReturnsInComponentAndChecksOutSubsumption(t *testing.T) {
	c := newTestContext()
	c.asyncDepth = 1
	c.ReturnType = types.NewPath("Stream", types.TI32, types.TBool)
	got := c.Infer(&ast.YieldExpr{Value: litInt(1)})
	if c.Diags.HasError() {
		t.Fatalf("unexpected diagnostics: %v", c.Diags.Errors())
	}
	if !types.Equiv(got, types.TUnit) {
		t.Errorf("expected yield's result type to be Stream's in component (unit), got %s", got)
	}
}

func TestYieldRejectsValueNotSubsumedByOut(t *testing.T) {
	c := newTestContext()
	c.asyncDepth = 1
	c.ReturnType = types.NewPath("Stream", types.TI32, types.TBool)
	c.Infer(&ast.YieldExpr{Value: litBool(true)})
	if !c.Diags.HasError() {
		t.Fatal("expected a diagnostic when yield's value isn't subsumed by the return type's out component")
	}
}

func TestYieldRejectsNonAsyncReturnType(t *testing.T) {
	c := newTestContext()
	c.asyncDepth = 1
	c.ReturnType = types.TI32
	c.Infer(&ast.YieldExpr{Value: litInt(1)})
	if !c.Diags.HasError() {
		t.Fatal("expected Yield-ReturnNotAsync-Err when the enclosing return type isn't async-shaped")
	}
}

func TestNestedParallelInNonGPUDomainIsNotRejected(t *testing.T) {
	c := newTestContext()
	c.Gamma.Bind("cpu_domain", types.NewDynamic("CpuDomain"), typeenv.Immutable, false, ast.Pos{})
	outer := &ast.ParallelExpr{
		Domain: &ast.Ident{Name: "cpu_domain"},
		Body: &ast.Block{
			Tail: &ast.ParallelExpr{
				Domain: &ast.Ident{Name: "cpu_domain"},
				Body:   &ast.Block{Tail: litInt(1)},
			},
		},
	}
	c.Infer(outer)
	for _, d := range c.Diags.Errors() {
		if d.Code == diag.ConGPUNestedParallel {
			t.Fatalf("did not expect ConGPUNestedParallel for nested non-GPU parallel blocks, got %v", c.Diags.Errors())
		}
	}
}

func TestNestedParallelInGPUDomainIsRejected(t *testing.T) {
	c := newTestContext()
	c.Gamma.Bind("gpu_domain", types.NewDynamic("GpuDomain"), typeenv.Immutable, false, ast.Pos{})
	outer := &ast.ParallelExpr{
		Domain: &ast.Ident{Name: "gpu_domain"},
		Body: &ast.Block{
			Tail: &ast.ParallelExpr{
				Domain: &ast.Ident{Name: "gpu_domain"},
				Body:   &ast.Block{Tail: litInt(1)},
			},
		},
	}
	c.Infer(outer)
	found := false
	for _, d := range c.Diags.Errors() {
		if d.Code == diag.ConGPUNestedParallel {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected ConGPUNestedParallel for a GPU domain nesting another parallel block, got %v", c.Diags.Errors())
	}
}

func TestSpawnMoveListUndeclaredNameUsesUnboundCode(t *testing.T) {
	c := newTestContext()
	spawn := &ast.SpawnExpr{
		Body:    &ast.Block{Tail: litInt(1)},
		Options: ast.SpawnOptions{MoveList: []string{"nope"}},
	}
	c.Infer(spawn)
	found := false
	for _, d := range c.Diags.Errors() {
		if d.Code == "Ident-Unbound-Err" {
			found = true
		}
		if d.Code == diag.ConVarCaptureWithoutShared {
			t.Fatalf("spawn move-list resolution should not use %s (that code means var capture without shared)", diag.ConVarCaptureWithoutShared)
		}
	}
	if !found {
		t.Fatalf("expected Ident-Unbound-Err for an undeclared move-list name, got %v", c.Diags.Errors())
	}
}
