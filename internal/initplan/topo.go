package initplan

import (
	"fmt"
	"sort"

	"github.com/cursivecrow/cursive0-sema/internal/ast"
	"github.com/cursivecrow/cursive0-sema/internal/diag"
	"github.com/cursivecrow/cursive0-sema/internal/sigma"
)

// InitPlan is the result of planning a project's cross-module init order
// (spec.md §4.10): the order every module's `static` initializers must run
// in, or a cycle diagnostic when no such order exists.
type InitPlan struct {
	InitOrder []string
	TopoOK    bool
	Diags     []*diag.Diagnostic
}

// BuildInitPlan builds the dependency graph over sig's registered modules and
// topologically sorts the type_edges ∪ eager_edges subgraph via Kahn's
// algorithm (spec.md §4.10's `WF-Acyclic-Eager` well-formedness rule:
// lazy_edges are deliberately excluded, since a `using`-alias or
// closure-deferred reference is resolved on first use, not at module-init
// time, and so cannot itself force a cycle at init time).
//
// Grounded on ailang's internal/link.ModuleLinker.TopoSortFromRoot shape
// (build adjacency, detect cycles, report with a suggestion), reimplemented
// as Kahn's rather than ailang's DFS-postorder walk: Kahn's gives a stable
// frontier to apply the case-folded lexicographic tie-break to at each step,
// which a single-root DFS has no natural point to apply (spec.md §4.10, §5,
// §6 require this determinism; ailang has no such requirement since it sorts
// one program's import tree, not a population of independently orderable
// modules).
func BuildInitPlan(sig *sigma.Sigma) *InitPlan {
	g := BuildGraph(sig)
	return topoSort(g)
}

func topoSort(g *Graph) *InitPlan {
	inDegree := make(map[string]int, len(g.Modules))
	adj := make(map[string][]string, len(g.Modules))
	seenEdge := make(map[string]bool)
	for _, m := range g.Modules {
		inDegree[m] = 0
	}
	for _, e := range g.Edges {
		if e.Kind == LazyEdge {
			continue
		}
		if e.From == e.To {
			continue
		}
		// eager subgraph edge goes To -> From: To must be initialized
		// before From can reference it.
		dedupKey := e.To + "\x00" + e.From
		if seenEdge[dedupKey] {
			continue
		}
		seenEdge[dedupKey] = true
		adj[e.To] = append(adj[e.To], e.From)
		inDegree[e.From]++
	}
	for m := range adj {
		sort.Slice(adj[m], func(i, j int) bool { return sigma.Utf8LexLess(adj[m][i], adj[m][j]) })
	}

	var frontier []string
	for _, m := range g.Modules {
		if inDegree[m] == 0 {
			frontier = append(frontier, m)
		}
	}
	sort.Slice(frontier, func(i, j int) bool { return sigma.Utf8LexLess(frontier[i], frontier[j]) })

	order := make([]string, 0, len(g.Modules))
	remaining := make(map[string]int, len(inDegree))
	for k, v := range inDegree {
		remaining[k] = v
	}

	for len(frontier) > 0 {
		sort.Slice(frontier, func(i, j int) bool { return sigma.Utf8LexLess(frontier[i], frontier[j]) })
		n := frontier[0]
		frontier = frontier[1:]
		order = append(order, n)
		for _, next := range adj[n] {
			remaining[next]--
			if remaining[next] == 0 {
				frontier = append(frontier, next)
			}
		}
	}

	if len(order) == len(g.Modules) {
		return &InitPlan{InitOrder: order, TopoOK: true}
	}

	cycle := findCycle(g, remaining)
	d := diag.New("E-MOD-1401", ast.Pos{},
		"cannot order module initialization: a cycle exists among %s (only type_edges and eager static-initializer references count toward this check; break it by moving the reference into a lazily-evaluated closure)",
		fmt.Sprint(cycle))
	return &InitPlan{InitOrder: order, TopoOK: false, Diags: []*diag.Diagnostic{d}}
}

// findCycle reports the case-folded-lexicographically-smallest module still
// left with nonzero in-degree after Kahn's algorithm stalls, plus every
// other stalled module, as the cycle diagnostic's offending set. Kahn's
// stall set is exactly the set of vertices on or reachable-only-through a
// cycle; a full minimal-cycle extraction isn't attempted since the spec only
// requires a WF violation diagnostic, not a minimal counterexample.
func findCycle(g *Graph, remaining map[string]int) []string {
	var stalled []string
	for _, m := range g.Modules {
		if remaining[m] > 0 {
			stalled = append(stalled, m)
		}
	}
	sort.Slice(stalled, func(i, j int) bool { return sigma.Utf8LexLess(stalled[i], stalled[j]) })
	return stalled
}
