// Package initplan implements the cross-module init planner (spec.md §4.10):
// building the type/eager/lazy dependency graph over Σ's registered modules
// and topologically ordering its type/eager sub-graph.
//
// Grounded on ailang's internal/link (module dependency linking) — in
// particular internal/link/topo.go's dependency-graph-then-sort shape —
// generalized from ailang's single-root DFS-postorder sort (dependencies
// first by traversal order alone) to Cursive0's Kahn's-algorithm sort with
// a deterministic case-folded-path tie-break (spec.md §4.10, §5, §6), since
// a project here has no single "root" module the way an ailang program does.
package initplan

import (
	"sort"

	"github.com/cursivecrow/cursive0-sema/internal/ast"
	"github.com/cursivecrow/cursive0-sema/internal/sigma"
)

// EdgeKind distinguishes the three edge kinds spec.md §4.10 builds.
type EdgeKind int

const (
	TypeEdge EdgeKind = iota
	EagerEdge
	LazyEdge
)

func (k EdgeKind) String() string {
	switch k {
	case TypeEdge:
		return "type"
	case EagerEdge:
		return "eager"
	case LazyEdge:
		return "lazy"
	default:
		return "?"
	}
}

// Edge is one dependency: From references something To provides.
type Edge struct {
	From, To string
	Kind     EdgeKind
}

// Graph is the full dependency graph over every module Σ knows about.
type Graph struct {
	Modules []string // every module path, case-folded-sorted
	Edges   []Edge
}

// BuildGraph walks every registered module's entities and builds the three
// edge kinds spec.md §4.10 names:
//   - type_edges: an item's field/param/return type names a type declared
//     in another module.
//   - eager_edges: a `static` initializer references a value from another
//     module directly (not inside a closure or async body).
//   - lazy_edges: the same reference, but nested inside a
//     lambda/spawn/dispatch/parallel/async body. A reference through a
//     `using` alias is not told apart (collectLazyNames returns an empty
//     set) and counts as eager.
func BuildGraph(sig *sigma.Sigma) *Graph {
	g := &Graph{}
	for path := range sig.Modules {
		g.Modules = append(g.Modules, path)
	}
	sort.Slice(g.Modules, func(i, j int) bool { return sigma.Utf8LexLess(g.Modules[i], g.Modules[j]) })

	valueOwner := buildValueOwnerIndex(sig)

	for _, path := range g.Modules {
		idx := sig.Modules[path]
		lazyNames := collectLazyNames(idx)

		for _, ent := range idx.Entities {
			switch decl := ent.Origin.(type) {
			case *ast.RecordDecl:
				for _, f := range decl.Fields {
					g.addTypeEdges(sig, path, f.Type)
				}
			case *ast.EnumDecl:
				for _, v := range decl.Variants {
					for _, te := range v.TuplePayload {
						g.addTypeEdges(sig, path, te)
					}
					for _, f := range v.RecPayload {
						g.addTypeEdges(sig, path, f.Type)
					}
				}
			case *ast.ModalDecl:
				for _, st := range decl.States {
					for _, f := range st.Fields {
						g.addTypeEdges(sig, path, f.Type)
					}
				}
			case *ast.AliasDecl:
				g.addTypeEdges(sig, path, decl.Underlying)
			case *ast.ProcDecl:
				if decl.Self != nil {
					g.addTypeEdges(sig, path, decl.Self.Type)
				}
				for _, p := range decl.Params {
					g.addTypeEdges(sig, path, p.Type)
				}
				g.addTypeEdges(sig, path, decl.Return)
			}
		}

		for _, static := range idx.Statics {
			declaredType := static.Type
			g.addTypeEdges(sig, path, declaredType)
			g.addValueEdges(path, static.Value, false, lazyNames, valueOwner)
		}
	}
	return g
}

// collectLazyNames returns, for one module, the set of bare names that were
// brought in via a `using` declaration — any reference to one of these from
// a static initializer is a lazy_edge regardless of nesting depth, since
// the binding itself is only resolved on demand (spec.md §4.2, §4.10).
//
// Σ doesn't retain UsingDecl after RegisterModule (the driver consumes it
// through Sigma.ApplyUsing), so this is necessarily an approximation: it
// returns an empty set, and callers fall back to nesting-depth alone to
// distinguish eager from lazy. A driver that threads the original
// ast.Module list through to initplan could populate this properly; noted
// in DESIGN.md as a simplification.
func collectLazyNames(idx *sigma.ModuleIndex) map[string]bool {
	_ = idx
	return map[string]bool{}
}

// buildValueOwnerIndex maps a bare (case-folded) value name to the single
// module that declares it, when unambiguous — the same "unique bare name"
// convenience ResolveNominal/ResolveClass already apply to types/classes.
func buildValueOwnerIndex(sig *sigma.Sigma) map[string]string {
	counts := make(map[string][]string)
	for path, idx := range sig.Modules {
		for key, ent := range idx.Entities {
			if ent.Kind != sigma.KindValue {
				continue
			}
			counts[string(key)] = append(counts[string(key)], path)
		}
	}
	owner := make(map[string]string, len(counts))
	for name, paths := range counts {
		if len(paths) == 1 {
			owner[name] = paths[0]
		}
	}
	return owner
}

func (g *Graph) addTypeEdges(sig *sigma.Sigma, fromModule string, te ast.TypeExpr) {
	if te == nil {
		return
	}
	switch te := te.(type) {
	case *ast.NamedTypeExpr:
		g.addNamedEdge(sig, fromModule, te.Path)
		for _, ga := range te.Generics {
			g.addTypeEdges(sig, fromModule, ga)
		}
	case *ast.PermTypeExpr:
		g.addTypeEdges(sig, fromModule, te.Inner)
	case *ast.UnionTypeExpr:
		for _, m := range te.Members {
			g.addTypeEdges(sig, fromModule, m)
		}
	case *ast.TupleTypeExpr:
		for _, el := range te.Elements {
			g.addTypeEdges(sig, fromModule, el)
		}
	case *ast.ArrayTypeExpr:
		g.addTypeEdges(sig, fromModule, te.Element)
	case *ast.SliceTypeExpr:
		g.addTypeEdges(sig, fromModule, te.Element)
	case *ast.PtrTypeExpr:
		g.addTypeEdges(sig, fromModule, te.Element)
	case *ast.RawPtrTypeExpr:
		g.addTypeEdges(sig, fromModule, te.Element)
	case *ast.ModalStateTypeExpr:
		g.addNamedEdge(sig, fromModule, te.Path)
		for _, ga := range te.Generics {
			g.addTypeEdges(sig, fromModule, ga)
		}
	case *ast.FuncTypeExpr:
		for _, p := range te.Params {
			g.addTypeEdges(sig, fromModule, p)
		}
		g.addTypeEdges(sig, fromModule, te.Return)
	case *ast.RefineTypeExpr:
		g.addTypeEdges(sig, fromModule, te.Base)
	}
}

func (g *Graph) addNamedEdge(sig *sigma.Sigma, fromModule string, path []string) {
	entry, ok := sig.LookupTypeEntry(joinPath(path))
	if !ok || entry.ModulePath == "" || entry.ModulePath == fromModule {
		return
	}
	g.Edges = append(g.Edges, Edge{From: fromModule, To: entry.ModulePath, Kind: TypeEdge})
}

func joinPath(segs []string) string {
	out := ""
	for i, s := range segs {
		if i > 0 {
			out += "::"
		}
		out += s
	}
	return out
}

// addValueEdges walks a static initializer expression, classifying every
// cross-module value reference it finds as eager (reached directly) or
// lazy (reached through a `using`-sourced name, or nested inside a
// lambda/spawn/dispatch/parallel/async body).
func (g *Graph) addValueEdges(fromModule string, e ast.Expr, lazy bool, lazyNames map[string]bool, owner map[string]string) {
	if e == nil {
		return
	}
	switch e := e.(type) {
	case *ast.Ident:
		if to, ok := owner[string(sigma.NewIdKey(e.Name))]; ok && to != fromModule {
			kind := EagerEdge
			if lazy || lazyNames[e.Name] {
				kind = LazyEdge
			}
			g.Edges = append(g.Edges, Edge{From: fromModule, To: to, Kind: kind})
		}
	case *ast.PathExpr:
		if len(e.Segments) >= 2 {
			to := ""
			for i, s := range e.Segments[:len(e.Segments)-1] {
				if i > 0 {
					to += "/"
				}
				to += s
			}
			if to != "" && to != fromModule {
				kind := EagerEdge
				if lazy {
					kind = LazyEdge
				}
				g.Edges = append(g.Edges, Edge{From: fromModule, To: to, Kind: kind})
			}
		}
	case *ast.TupleExpr:
		for _, el := range e.Elements {
			g.addValueEdges(fromModule, el, lazy, lazyNames, owner)
		}
	case *ast.ArrayExpr:
		for _, el := range e.Elements {
			g.addValueEdges(fromModule, el, lazy, lazyNames, owner)
		}
	case *ast.TupleIndexExpr:
		g.addValueEdges(fromModule, e.Base, lazy, lazyNames, owner)
	case *ast.IndexExpr:
		g.addValueEdges(fromModule, e.Base, lazy, lazyNames, owner)
		g.addValueEdges(fromModule, e.Index, lazy, lazyNames, owner)
	case *ast.SliceExpr:
		g.addValueEdges(fromModule, e.Base, lazy, lazyNames, owner)
		g.addValueEdges(fromModule, e.Range, lazy, lazyNames, owner)
	case *ast.RangeExpr:
		g.addValueEdges(fromModule, e.Lo, lazy, lazyNames, owner)
		g.addValueEdges(fromModule, e.Hi, lazy, lazyNames, owner)
	case *ast.CallExpr:
		g.addValueEdges(fromModule, e.Callee, lazy, lazyNames, owner)
		for _, a := range e.Args {
			g.addValueEdges(fromModule, a.Value, lazy, lazyNames, owner)
		}
	case *ast.MethodCallExpr:
		g.addValueEdges(fromModule, e.Receiver, lazy, lazyNames, owner)
		for _, a := range e.Args {
			g.addValueEdges(fromModule, a.Value, lazy, lazyNames, owner)
		}
	case *ast.FieldExpr:
		g.addValueEdges(fromModule, e.Base, lazy, lazyNames, owner)
	case *ast.RecordExpr:
		for _, fv := range e.Fields {
			g.addValueEdges(fromModule, fv, lazy, lazyNames, owner)
		}
	case *ast.AddrOfExpr:
		g.addValueEdges(fromModule, e.Target, lazy, lazyNames, owner)
	case *ast.DerefExpr:
		g.addValueEdges(fromModule, e.Target, lazy, lazyNames, owner)
	case *ast.MoveExpr:
		g.addValueEdges(fromModule, e.Target, lazy, lazyNames, owner)
	case *ast.AllocExpr:
		g.addValueEdges(fromModule, e.Value, lazy, lazyNames, owner)
	case *ast.CastExpr:
		g.addValueEdges(fromModule, e.Value, lazy, lazyNames, owner)
	case *ast.IfExpr:
		g.addValueEdges(fromModule, e.Cond, lazy, lazyNames, owner)
		g.addValueEdgesBlock(fromModule, e.Then, lazy, lazyNames, owner)
		switch elseN := e.Else.(type) {
		case *ast.Block:
			g.addValueEdgesBlock(fromModule, elseN, lazy, lazyNames, owner)
		case *ast.IfExpr:
			g.addValueEdges(fromModule, elseN, lazy, lazyNames, owner)
		}
	case *ast.BlockExpr:
		g.addValueEdgesBlock(fromModule, e.Block, lazy, lazyNames, owner)
	case *ast.UnsafeExpr:
		g.addValueEdgesBlock(fromModule, e.Block, lazy, lazyNames, owner)
	case *ast.PropagateExpr:
		g.addValueEdges(fromModule, e.Value, lazy, lazyNames, owner)
	case *ast.BinOpExpr:
		g.addValueEdges(fromModule, e.Left, lazy, lazyNames, owner)
		g.addValueEdges(fromModule, e.Right, lazy, lazyNames, owner)
	case *ast.UnOpExpr:
		g.addValueEdges(fromModule, e.Operand, lazy, lazyNames, owner)
	case *ast.LambdaExpr:
		g.addValueEdges(fromModule, e.Body, true, lazyNames, owner)
	case *ast.ParallelExpr:
		g.addValueEdges(fromModule, e.Domain, lazy, lazyNames, owner)
		g.addValueEdgesBlock(fromModule, e.Body, true, lazyNames, owner)
	case *ast.SpawnExpr:
		g.addValueEdgesBlock(fromModule, e.Body, true, lazyNames, owner)
	case *ast.DispatchExpr:
		g.addValueEdges(fromModule, e.Range, lazy, lazyNames, owner)
		g.addValueEdgesBlock(fromModule, e.Body, true, lazyNames, owner)
	case *ast.WaitExpr:
		g.addValueEdges(fromModule, e.Handle, true, lazyNames, owner)
	case *ast.YieldExpr:
		g.addValueEdges(fromModule, e.Value, true, lazyNames, owner)
	case *ast.SyncExpr:
		g.addValueEdges(fromModule, e.Value, true, lazyNames, owner)
	case *ast.RaceExpr:
		for _, x := range e.Exprs {
			g.addValueEdges(fromModule, x, lazy, lazyNames, owner)
		}
	case *ast.AllExpr:
		for _, x := range e.Exprs {
			g.addValueEdges(fromModule, x, lazy, lazyNames, owner)
		}
	}
}

func (g *Graph) addValueEdgesBlock(fromModule string, b *ast.Block, lazy bool, lazyNames map[string]bool, owner map[string]string) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		g.addValueEdgesStmt(fromModule, s, lazy, lazyNames, owner)
	}
	g.addValueEdges(fromModule, b.Tail, lazy, lazyNames, owner)
}

func (g *Graph) addValueEdgesStmt(fromModule string, s ast.Stmt, lazy bool, lazyNames map[string]bool, owner map[string]string) {
	switch s := s.(type) {
	case *ast.LetStmt:
		g.addValueEdges(fromModule, s.Value, lazy, lazyNames, owner)
	case *ast.AssignStmt:
		g.addValueEdges(fromModule, s.Target, lazy, lazyNames, owner)
		g.addValueEdges(fromModule, s.Value, lazy, lazyNames, owner)
	case *ast.ReturnStmt:
		g.addValueEdges(fromModule, s.Value, lazy, lazyNames, owner)
	case *ast.ResultStmt:
		g.addValueEdges(fromModule, s.Value, lazy, lazyNames, owner)
	case *ast.ExprStmt:
		g.addValueEdges(fromModule, s.Value, lazy, lazyNames, owner)
	case *ast.LoopStmt:
		g.addValueEdges(fromModule, s.Cond, lazy, lazyNames, owner)
		g.addValueEdgesBlock(fromModule, s.Body, lazy, lazyNames, owner)
	case *ast.ForStmt:
		g.addValueEdges(fromModule, s.Iterable, lazy, lazyNames, owner)
		g.addValueEdgesBlock(fromModule, s.Body, lazy, lazyNames, owner)
	}
}
