// Package driver implements the top-level orchestration spec.md §4.11
// describes: TypecheckModules runs the six-phase pipeline (collect name
// maps, decl-typing, body typing, borrow checking, init planning, optional
// main-check) over a parsed project and returns one TypecheckResult.
//
// Grounded on ailang's internal/pipeline (phase sequencing over a parsed
// program, Result aggregation) and internal/eval_harness's YAML-loaded
// project/spec descriptors (gopkg.in/yaml.v3), generalized from ailang's
// single-file-program pipeline to Cursive0's multi-module, dependency-ordered
// one.
package driver

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/cursivecrow/cursive0-sema/internal/sigma"
)

// AssemblyKind distinguishes a library from an executable project, which
// gates whether MainCheckProject's `main` requirement applies (spec.md §6).
type AssemblyKind string

const (
	Library    AssemblyKind = "library"
	Executable AssemblyKind = "executable"
)

// Project is the external project descriptor (spec.md §6 Inputs), loaded
// from a YAML manifest the way ailang's eval_harness loads its run specs.
type Project struct {
	Name    string       `yaml:"name"`
	Kind    AssemblyKind `yaml:"kind"`
	Modules []string     `yaml:"modules"`
	// Files maps a module path to its source file list. The driver itself
	// never reads these files (parsing is an external collaborator, spec.md
	// §1); this is kept only so downstream tooling can correlate a module's
	// diagnostics back to the files that produced it.
	Files map[string][]string `yaml:"files,omitempty"`
	// Parallel opts into the errgroup-based decl-typing variant
	// (internal/driver/parallel.go), spec.md §5's documented extension.
	Parallel bool `yaml:"parallel,omitempty"`
}

// LoadProject reads and validates a project descriptor from a YAML file.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project descriptor: %w", err)
	}
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse project descriptor: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid project descriptor: %w", err)
	}
	return &p, nil
}

// Validate checks the descriptor is internally consistent.
func (p *Project) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("missing project name")
	}
	switch p.Kind {
	case Library, Executable:
	default:
		return fmt.Errorf("invalid assembly kind %q (want %q or %q)", p.Kind, Library, Executable)
	}
	if len(p.Modules) == 0 {
		return fmt.Errorf("project declares no modules")
	}
	seen := make(map[string]bool, len(p.Modules))
	for _, m := range p.Modules {
		key := string(sigma.NewIdKey(m))
		if seen[key] {
			return fmt.Errorf("duplicate module path %q", m)
		}
		seen[key] = true
	}
	return nil
}

// SortedModules returns p.Modules in the deterministic case-folded UTF-8
// lexicographic order spec.md §5/§6 require, ties broken by the raw path.
func (p *Project) SortedModules() []string {
	out := append([]string(nil), p.Modules...)
	sortModulePaths(out)
	return out
}

func sortModulePaths(paths []string) {
	sort.Slice(paths, func(i, j int) bool { return modulePathLess(paths[i], paths[j]) })
}

// modulePathLess implements spec.md §6's tie-break: case-folded UTF-8
// lexicographic order, ties broken by the raw (non-folded) path.
func modulePathLess(a, b string) bool {
	fa, fb := sigma.FoldPath(a), sigma.FoldPath(b)
	if fa != fb {
		return fa < fb
	}
	return a < b
}
