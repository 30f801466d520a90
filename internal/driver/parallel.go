package driver

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/cursivecrow/cursive0-sema/internal/ast"
	"github.com/cursivecrow/cursive0-sema/internal/classes"
	"github.com/cursivecrow/cursive0-sema/internal/diag"
	"github.com/cursivecrow/cursive0-sema/internal/sema"
	"github.com/cursivecrow/cursive0-sema/internal/sigma"
)

// declTypeParallel is phase 2's opt-in concurrent variant, gated by
// Project.Parallel (spec.md §5's documented extension: "tools that
// parallelise per-module checking must duplicate ScopeContext per worker
// and merge diagnostic streams"). Once Σ is fully registered, WF-checking
// one module never mutates another module's state, so each worker gets
// its own sigma.ScopeContext and sema.Context; results are written into
// index-aligned slots and merged back in the caller's deterministic
// module order once every worker has finished, so concurrent execution
// never disturbs diagnostic or context ordering.
//
// Grounded on gopls's golang.Implementation, which searches local and
// global packages concurrently via a bare errgroup.Group and merges
// results after Wait.
func declTypeParallel(order []string, modules map[string]*ast.Module, sig *sigma.Sigma, clsReg *classes.Registry, stream *diag.Stream) map[string]*sema.Context {
	ctxSlots := make([]*sema.Context, len(order))

	g, _ := errgroup.WithContext(context.Background())
	for i, path := range order {
		i, path := i, path
		mod, ok := modules[path]
		if !ok {
			continue
		}
		g.Go(func() error {
			scope := sigma.NewScopeContext(sig)
			scope.EnterModule(path, sig.Modules[path])
			ctx := sema.NewContext(sig, clsReg, scope, path)
			ctx.TypeModuleDecls(mod)
			ctxSlots[i] = ctx
			return nil
		})
	}
	// TypeModuleDecls never returns an error; the only failure mode is a
	// diagnostic appended to a per-worker Context, so Wait's error is
	// always nil and deliberately ignored.
	_ = g.Wait()

	ctxByModule := make(map[string]*sema.Context, len(order))
	for i, path := range order {
		ctx := ctxSlots[i]
		if ctx == nil {
			continue
		}
		ctxByModule[path] = ctx
		stream.Extend(ctx.Diags)
	}

	checkImpls(clsReg, sig, stream)
	return ctxByModule
}

// checkImpls runs class linearization completeness and the orphan rule over
// every registered impl, in a deterministic key order, shared by both
// declType and declTypeParallel.
func checkImpls(clsReg *classes.Registry, sig *sigma.Sigma, stream *diag.Stream) {
	implKeys := make([]string, 0, len(clsReg.Impls))
	for key := range clsReg.Impls {
		implKeys = append(implKeys, key)
	}
	sort.Strings(implKeys)

	for _, key := range implKeys {
		impl := clsReg.Impls[key]
		for _, d := range clsReg.CheckImplCompleteness(impl.ClassPath, impl) {
			stream.Add(d)
		}
		implModule := clsReg.ImplModule[key]
		classModule := clsReg.ClassModule[impl.ClassPath]
		if d := classes.CheckOrphan(implModule, classModule, typeModuleOf(sig, impl.TypePath), impl); d != nil {
			stream.Add(d)
		}
	}
}
