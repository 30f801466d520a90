package borrow

import (
	"testing"

	"github.com/cursivecrow/cursive0-sema/internal/ast"
	"github.com/cursivecrow/cursive0-sema/internal/diag"
	"github.com/cursivecrow/cursive0-sema/internal/types"
)

func uniqueRecordType() types.Type {
	rec := types.NewPath("widgets/Widget")
	return types.NewPerm(types.PermUnique, rec)
}

func litInt(v int64) *ast.Literal {
	return &ast.Literal{Kind: ast.IntLit, Value: v}
}

func TestMoveThenUseIsRejected(t *testing.T) {
	body := &ast.Block{
		Stmts: []ast.Stmt{
			&ast.LetStmt{
				Pattern: &ast.IdentPattern{Name: "y"},
				Value:   &ast.MoveExpr{Target: &ast.Ident{Name: "x"}},
			},
			&ast.ExprStmt{Value: &ast.Ident{Name: "x"}},
		},
	}
	params := []ast.Param{{Name: "x", Move: false}}
	diags := BindCheckBody("test/mod", nil, params, body, nil)
	found := false
	for _, d := range diags {
		if d.Code == "B-Place-Moved-Err" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected B-Place-Moved-Err, got %v", diags)
	}
}

func TestMoveOnceIsAccepted(t *testing.T) {
	body := &ast.Block{
		Stmts: []ast.Stmt{
			&ast.LetStmt{
				Pattern: &ast.IdentPattern{Name: "y"},
				Value:   &ast.MoveExpr{Target: &ast.Ident{Name: "x"}},
			},
		},
	}
	params := []ast.Param{{Name: "x"}}
	diags := BindCheckBody("test/mod", nil, params, body, nil)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
}

func TestIfBranchMoveMismatchIsRejected(t *testing.T) {
	body := &ast.Block{
		Tail: &ast.IfExpr{
			Cond: litInt(1),
			Then: &ast.Block{Tail: &ast.MoveExpr{Target: &ast.Ident{Name: "x"}}},
			Else: &ast.Block{Tail: litInt(0)},
		},
	}
	params := []ast.Param{{Name: "x"}}
	diags := BindCheckBody("test/mod", nil, params, body, nil)
	found := false
	for _, d := range diags {
		if d.Code == "B-Join-Mismatch-Err" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected B-Join-Mismatch-Err, got %v", diags)
	}
}

func TestIfBranchMovedOnBothArmsJoinsClean(t *testing.T) {
	body := &ast.Block{
		Tail: &ast.IfExpr{
			Cond: litInt(1),
			Then: &ast.Block{Tail: &ast.MoveExpr{Target: &ast.Ident{Name: "x"}}},
			Else: &ast.Block{Tail: &ast.MoveExpr{Target: &ast.Ident{Name: "x"}}},
		},
	}
	params := []ast.Param{{Name: "x"}}
	diags := BindCheckBody("test/mod", nil, params, body, nil)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
}

func TestArgPassMoveMarksArgumentMoved(t *testing.T) {
	body := &ast.Block{
		Stmts: []ast.Stmt{
			&ast.ExprStmt{Value: &ast.CallExpr{
				Callee: &ast.Ident{Name: "consume"},
				Args: []ast.Arg{
					{Value: &ast.MoveExpr{Target: &ast.Ident{Name: "x"}}, Moved: true},
				},
			}},
			&ast.ExprStmt{Value: &ast.Ident{Name: "x"}},
		},
	}
	params := []ast.Param{{Name: "x"}}
	diags := BindCheckBody("test/mod", nil, params, body, nil)
	found := false
	for _, d := range diags {
		if d.Code == "B-Place-Moved-Err" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected use-after-move on x after it was passed by move, got %v", diags)
	}
}

func TestSpawnCapturesUniqueWithoutMoveListIsRejected(t *testing.T) {
	exprTypes := map[ast.Expr]types.Type{}
	spawn := &ast.SpawnExpr{
		Body: &ast.Block{Tail: &ast.Ident{Name: "widget"}},
	}
	body := &ast.Block{
		Stmts: []ast.Stmt{
			&ast.ExprStmt{Value: &ast.ParallelExpr{Body: &ast.Block{Tail: spawn}}},
		},
	}
	params := []ast.Param{{Name: "widget"}}
	diags := bindCheckBodyWithTypedParam(params, "widget", uniqueRecordType(), body, exprTypes)
	found := false
	for _, d := range diags {
		if d.Code == "Con-UniqueCaptureNotMoved-Err" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected Con-UniqueCaptureNotMoved-Err, got %v", diags)
	}
}

func TestSpawnCapturesUniqueWithMoveListIsAccepted(t *testing.T) {
	spawn := &ast.SpawnExpr{
		Body:    &ast.Block{Tail: &ast.Ident{Name: "widget"}},
		Options: ast.SpawnOptions{MoveList: []string{"widget"}},
	}
	body := &ast.Block{
		Stmts: []ast.Stmt{
			&ast.ExprStmt{Value: &ast.ParallelExpr{Body: &ast.Block{Tail: spawn}}},
		},
	}
	params := []ast.Param{{Name: "widget"}}
	diags := bindCheckBodyWithTypedParam(params, "widget", uniqueRecordType(), body, nil)
	found := false
	for _, d := range diags {
		if d.Code == "Con-UniqueCaptureNotMoved-Err" {
			found = true
		}
	}
	if found {
		t.Fatalf("unexpected Con-UniqueCaptureNotMoved-Err after move-listing the capture: %v", diags)
	}
}

func TestWaitWithKeysHeldIsRejected(t *testing.T) {
	body := &ast.Block{
		Stmts: []ast.Stmt{
			&ast.KeyStmt{
				Paths: []ast.Expr{&ast.Ident{Name: "lockable"}},
				Body: &ast.Block{
					Stmts: []ast.Stmt{
						&ast.ExprStmt{Value: &ast.WaitExpr{Handle: &ast.Ident{Name: "h"}}},
					},
				},
			},
		},
	}
	params := []ast.Param{{Name: "lockable"}, {Name: "h"}}
	diags := BindCheckBody("test/mod", nil, params, body, nil)
	found := false
	for _, d := range diags {
		if d.Code == "Con-WaitWithKeysHeld-Err" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected Con-WaitWithKeysHeld-Err, got %v", diags)
	}
}

func TestLoopFixpointConvergesWithoutDiagnostics(t *testing.T) {
	body := &ast.Block{
		Stmts: []ast.Stmt{
			&ast.LoopStmt{
				Cond: litInt(1),
				Body: &ast.Block{
					Stmts: []ast.Stmt{
						&ast.BreakStmt{},
					},
				},
			},
		},
	}
	diags := BindCheckBody("test/mod", nil, nil, body, nil)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
}

func TestGPUDomainRejectsSharedCapture(t *testing.T) {
	domain := &ast.Ident{Name: "gpu_domain"}
	spawn := &ast.SpawnExpr{
		Body: &ast.Block{Tail: &ast.AddrOfExpr{Target: &ast.Ident{Name: "shared_x"}}},
	}
	body := &ast.Block{
		Stmts: []ast.Stmt{
			&ast.ExprStmt{Value: &ast.ParallelExpr{Domain: domain, Body: &ast.Block{Tail: spawn}}},
		},
	}
	exprTypes := map[ast.Expr]types.Type{
		domain: types.NewDynamic("GpuDomain"),
	}
	params := []ast.Param{{Name: "shared_x"}}
	sharedT := types.NewPerm(types.PermShared, types.NewPrim(types.I32))
	diags := bindCheckBodyWithTypedParam(params, "shared_x", sharedT, body, exprTypes)
	found := false
	for _, d := range diags {
		if d.Code == diag.ConGPUSharedCapture {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s for a shared capture inside a GPU domain, got %v", diag.ConGPUSharedCapture, diags)
	}
}

func TestNonGPUDomainAllowsSharedCapture(t *testing.T) {
	domain := &ast.Ident{Name: "cpu_domain"}
	spawn := &ast.SpawnExpr{
		Body: &ast.Block{Tail: &ast.AddrOfExpr{Target: &ast.Ident{Name: "shared_x"}}},
	}
	body := &ast.Block{
		Stmts: []ast.Stmt{
			&ast.ExprStmt{Value: &ast.ParallelExpr{Domain: domain, Body: &ast.Block{Tail: spawn}}},
		},
	}
	exprTypes := map[ast.Expr]types.Type{
		domain: types.NewDynamic("CpuDomain"),
	}
	params := []ast.Param{{Name: "shared_x"}}
	sharedT := types.NewPerm(types.PermShared, types.NewPrim(types.I32))
	diags := bindCheckBodyWithTypedParam(params, "shared_x", sharedT, body, exprTypes)
	for _, d := range diags {
		if d.Code == diag.ConGPUSharedCapture {
			t.Fatalf("did not expect %s outside a GPU domain, got %v", diag.ConGPUSharedCapture, diags)
		}
	}
}

func TestGPUDomainRejectsHeapPointerCapture(t *testing.T) {
	domain := &ast.Ident{Name: "gpu_domain"}
	spawn := &ast.SpawnExpr{
		Body: &ast.Block{Tail: &ast.Ident{Name: "buf"}},
	}
	body := &ast.Block{
		Stmts: []ast.Stmt{
			&ast.ExprStmt{Value: &ast.ParallelExpr{Domain: domain, Body: &ast.Block{Tail: spawn}}},
		},
	}
	exprTypes := map[ast.Expr]types.Type{
		domain: types.NewDynamic("GpuDomain"),
	}
	params := []ast.Param{{Name: "buf"}}
	heapT := types.NewPtr(types.NewPrim(types.I32), types.PtrStateValid)
	diags := bindCheckBodyWithTypedParam(params, "buf", heapT, body, exprTypes)
	found := false
	for _, d := range diags {
		if d.Code == diag.ConGPUHeapPointerCapture {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s for a heap pointer captured inside a GPU domain, got %v", diag.ConGPUHeapPointerCapture, diags)
	}
}

func TestGPUDomainRejectsHostPointerCapture(t *testing.T) {
	domain := &ast.Ident{Name: "gpu_domain"}
	spawn := &ast.SpawnExpr{
		Body: &ast.Block{Tail: &ast.Ident{Name: "raw"}},
	}
	body := &ast.Block{
		Stmts: []ast.Stmt{
			&ast.ExprStmt{Value: &ast.ParallelExpr{Domain: domain, Body: &ast.Block{Tail: spawn}}},
		},
	}
	exprTypes := map[ast.Expr]types.Type{
		domain: types.NewDynamic("GpuDomain"),
	}
	params := []ast.Param{{Name: "raw"}}
	hostT := types.NewRawPtr(types.RawPtrImm, types.NewPrim(types.I32))
	diags := bindCheckBodyWithTypedParam(params, "raw", hostT, body, exprTypes)
	found := false
	for _, d := range diags {
		if d.Code == diag.ConGPUHostPointerCapture {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s for a host pointer captured inside a GPU domain, got %v", diag.ConGPUHostPointerCapture, diags)
	}
}

// bindCheckBodyWithTypedParam is a small test-only variant of BindCheckBody
// that seeds one parameter's env binding with a concrete (permission-typed)
// type, since real callers get that from body typing's expr_types rather
// than a param list annotation.
func bindCheckBodyWithTypedParam(params []ast.Param, typedName string, typed types.Type, body *ast.Block, exprTypes map[ast.Expr]types.Type) []*diag.Diagnostic {
	c := &checker{env: NewEnv(), diags: &diag.Stream{}, exprTypes: exprTypes}
	for _, p := range params {
		if p.Name == typedName {
			c.env.Declare(p.Name, typed, ast.Pos{})
		} else {
			c.env.Declare(p.Name, nil, ast.Pos{})
		}
	}
	if body != nil {
		c.checkBlock(body)
	}
	return c.diags.Errors()
}
