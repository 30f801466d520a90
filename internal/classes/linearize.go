// Package classes resolves class (interface) hierarchies: C3 linearization
// of superclasses, the resulting method-resolution order, impl-completeness
// checking, and the orphan rule (spec.md §4.6).
//
// Grounded on ailang's internal/link/topo.go: the same "detect a cycle while
// walking a dependency graph, report it as a typed error with the offending
// path" shape drives both that module-import cycle check and this
// superclass-cycle check, adapted here from ailang's single-predecessor DFS
// to the C3 merge algorithm multiple-inheritance linearization requires.
package classes

import (
	"fmt"
	"strings"

	"github.com/cursivecrow/cursive0-sema/internal/ast"
)

// CycleError reports a superclass cycle, mirroring ailang's link.CycleError
// shape (a typed error carrying the offending path) adapted to class paths.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("superclass cycle detected: %s", strings.Join(e.Path, " -> "))
}

// Registry indexes every ClassDecl and ImplDecl in the project. Classes are
// keyed by "modulePath::Name" exactly as written (no case folding, unlike
// internal/sigma's keys), so linearization and impl lookups don't need a
// live Sigma.
type Registry struct {
	Classes map[string]*ast.ClassDecl
	// ClassModule records which module declared each class, for the orphan
	// rule.
	ClassModule map[string]string
	// Impls is keyed by "classPath for typePath".
	Impls map[string]*ast.ImplDecl
	// ImplModule records which module declared each impl.
	ImplModule map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		Classes:     make(map[string]*ast.ClassDecl),
		ClassModule: make(map[string]string),
		Impls:       make(map[string]*ast.ImplDecl),
		ImplModule:  make(map[string]string),
	}
}

// Register walks one module's items, recording every ClassDecl and ImplDecl.
// Class paths are qualified as "modulePath::Name" without case folding;
// lookups must use the same spelling.
func (r *Registry) Register(mod *ast.Module) {
	for _, item := range mod.Items {
		switch it := item.(type) {
		case *ast.ClassDecl:
			path := mod.Path + "::" + it.Name
			r.Classes[path] = it
			r.ClassModule[path] = mod.Path
		case *ast.ImplDecl:
			key := it.ClassPath + " for " + it.TypePath
			r.Impls[key] = it
			r.ImplModule[key] = mod.Path
		}
	}
}

// Linearize computes the C3 method-resolution order for classPath: classPath
// itself, followed by the merge of its direct superclasses' own
// linearizations and the superclass list itself, each kept in the leftmost
// position consistent with every other list (the standard C3 merge rule).
func (r *Registry) Linearize(classPath string) ([]string, error) {
	return r.linearize(classPath, nil)
}

func (r *Registry) linearize(classPath string, seen []string) ([]string, error) {
	for _, s := range seen {
		if s == classPath {
			return nil, &CycleError{Path: append(append([]string(nil), seen...), classPath)}
		}
	}
	decl, ok := r.Classes[classPath]
	if !ok {
		return []string{classPath}, nil
	}
	if len(decl.Superclasses) == 0 {
		return []string{classPath}, nil
	}

	seen = append(seen, classPath)
	sequences := make([][]string, 0, len(decl.Superclasses)+1)
	for _, sup := range decl.Superclasses {
		lin, err := r.linearize(sup, seen)
		if err != nil {
			return nil, err
		}
		sequences = append(sequences, lin)
	}
	sequences = append(sequences, append([]string(nil), decl.Superclasses...))

	merged, err := c3Merge(sequences)
	if err != nil {
		return nil, fmt.Errorf("cannot linearize %s: %w", classPath, err)
	}
	return append([]string{classPath}, merged...), nil
}

// c3Merge implements the classic C3 merge: repeatedly take the head of the
// first sequence that does not appear in the tail of any other sequence,
// remove it everywhere, and repeat until every sequence is empty.
func c3Merge(sequences [][]string) ([]string, error) {
	var result []string
	for {
		sequences = dropEmpty(sequences)
		if len(sequences) == 0 {
			return result, nil
		}

		var candidate string
		found := false
		for _, seq := range sequences {
			head := seq[0]
			if !appearsInAnyTail(head, sequences) {
				candidate = head
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("inconsistent superclass precedence order")
		}

		result = append(result, candidate)
		for i, seq := range sequences {
			sequences[i] = removeHeadIfEqual(seq, candidate)
		}
	}
}

func dropEmpty(seqs [][]string) [][]string {
	out := seqs[:0]
	for _, s := range seqs {
		if len(s) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func appearsInAnyTail(name string, seqs [][]string) bool {
	for _, seq := range seqs {
		for _, t := range seq[1:] {
			if t == name {
				return true
			}
		}
	}
	return false
}

func removeHeadIfEqual(seq []string, name string) []string {
	if len(seq) > 0 && seq[0] == name {
		return seq[1:]
	}
	return seq
}
