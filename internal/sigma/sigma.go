package sigma

import (
	"strings"

	"github.com/cursivecrow/cursive0-sema/internal/ast"
	"github.com/cursivecrow/cursive0-sema/internal/diag"
	"github.com/cursivecrow/cursive0-sema/internal/types"
)

// builtinCapabilityClasses are the execution-domain capability classes the
// structured-concurrency forms check against (spec.md §4.9), recognised by
// ResolveClass even though no module declares them.
var builtinCapabilityClasses = []string{
	"FileSystem",
	"HeapAllocator",
	"ExecutionDomain",
	"CpuDomain",
	"GpuDomain",
	"InlineDomain",
	"Reactor",
	"GPU",
}

// TypeEntry is one nominal type registered in Σ.types.
type TypeEntry struct {
	Kind       types.DeclKind
	Generics   []ast.GenericParam
	ModulePath string
	Decl       ast.Item
}

// ModuleIndex is the per-module slice of Σ built while registering one
// ast.Module: every top-level item it declares, keyed by IdKey, ready to be
// spliced into a ScopeModule frame by ScopeContext.EnterModule.
type ModuleIndex struct {
	Path     string
	Entities map[IdKey]*Entity
	Statics  map[IdKey]*ast.StaticDecl
}

// Sigma is the project-wide signature Σ (spec.md §3): every module's
// top-level declarations, indexed for nominal/class/modal-state/const-static
// resolution. Grounded on ailang's internal/module.Loader + Resolver idiom
// (module-path-keyed registries, later consulted during elaboration) but
// reshaped around Cursive0's scope/visibility model rather than ailang's
// plain import graph.
type Sigma struct {
	Modules map[string]*ModuleIndex

	// types is keyed by the fully qualified, case-folded path
	// ("module/path::Name"); bareIndex additionally maps a case-folded bare
	// name to every fully qualified path that ends in it, so unqualified
	// references used before name resolution narrows them down can still
	// resolve unambiguously when there's exactly one candidate.
	types     map[string]*TypeEntry
	bareIndex map[string][]string

	classes     map[string]*ast.ClassDecl
	bareClasses map[string][]string

	opaqueUnderlying map[types.OpaqueOrigin]types.Type

	intStatics map[string]uint64

	// nicheOverrides records modal paths the layout subsystem has declared
	// niche-eligible (spec.md §4.1, §9 open question); absent entries
	// default to false, the conservative choice documented in subtype.go.
	nicheOverrides map[string]bool
}

// NewSigma returns an empty Σ ready for Register calls.
func NewSigma() *Sigma {
	return &Sigma{
		Modules:          make(map[string]*ModuleIndex),
		types:            make(map[string]*TypeEntry),
		bareIndex:        make(map[string][]string),
		classes:          make(map[string]*ast.ClassDecl),
		bareClasses:      make(map[string][]string),
		opaqueUnderlying: make(map[types.OpaqueOrigin]types.Type),
		intStatics:       make(map[string]uint64),
		nicheOverrides:   make(map[string]bool),
	}
}

func qualify(modulePath, name string) string {
	return FoldPath(modulePath) + "::" + string(NewIdKey(name))
}

// RegisterModule walks one parsed module's top-level items into Σ. It does
// not evaluate static initializers (SetIntStatic records such values; no
// caller in this module sets any) and does not resolve `using` imports
// (that's ApplyUsing, which the driver calls on the ModuleIndex returned
// here once every module is registered).
func (s *Sigma) RegisterModule(mod *ast.Module) (*ModuleIndex, []*diag.Diagnostic) {
	var diags []*diag.Diagnostic
	idx := &ModuleIndex{
		Path:     mod.Path,
		Entities: make(map[IdKey]*Entity),
		Statics:  make(map[IdKey]*ast.StaticDecl),
	}

	declare := func(name string, e *Entity) {
		key := NewIdKey(name)
		if _, dup := idx.Entities[key]; dup {
			diags = append(diags, diag.New("Intro-Dup", e.Origin.Position(),
				"%q is already declared in module %q", name, mod.Path))
			return
		}
		idx.Entities[key] = e
	}

	for _, item := range mod.Items {
		switch it := item.(type) {
		case *ast.RecordDecl:
			s.addType(mod.Path, it.Name, types.DeclRecord, it.Generics, it)
			declare(it.Name, &Entity{Kind: KindType, Origin: it, Source: SourceDecl, ModulePath: mod.Path, Vis: it.Vis})

		case *ast.EnumDecl:
			s.addType(mod.Path, it.Name, types.DeclEnum, it.Generics, it)
			declare(it.Name, &Entity{Kind: KindType, Origin: it, Source: SourceDecl, ModulePath: mod.Path, Vis: it.Vis})

		case *ast.ModalDecl:
			s.addType(mod.Path, it.Name, types.DeclModal, it.Generics, it)
			declare(it.Name, &Entity{Kind: KindType, Origin: it, Source: SourceDecl, ModulePath: mod.Path, Vis: it.Vis})

		case *ast.AliasDecl:
			s.addType(mod.Path, it.Name, types.DeclAlias, it.Generics, it)
			declare(it.Name, &Entity{Kind: KindType, Origin: it, Source: SourceDecl, ModulePath: mod.Path, Vis: it.Vis})

		case *ast.ClassDecl:
			q := qualify(mod.Path, it.Name)
			s.classes[q] = it
			bare := string(NewIdKey(it.Name))
			s.bareClasses[bare] = append(s.bareClasses[bare], q)
			declare(it.Name, &Entity{Kind: KindClass, Origin: it, Source: SourceDecl, ModulePath: mod.Path, Vis: it.Vis})

		case *ast.ProcDecl:
			declare(it.Name, &Entity{Kind: KindValue, Origin: it, Source: SourceDecl, ModulePath: mod.Path, Vis: it.Vis})

		case *ast.StaticDecl:
			idx.Statics[NewIdKey(it.Name)] = it
			declare(it.Name, &Entity{Kind: KindValue, Origin: it, Source: SourceDecl, ModulePath: mod.Path, Vis: it.Vis})

		case *ast.ImplDecl:
			// ImplDecl contributes methods to a type/class pair, not a name
			// into module scope; internal/classes consumes it directly.

		case *ast.UsingDecl:
			// resolved later by ApplyUsing once every module
			// in the project has been registered.
		}
	}

	s.Modules[mod.Path] = idx
	return idx, diags
}

func (s *Sigma) addType(modulePath, name string, kind types.DeclKind, generics []ast.GenericParam, decl ast.Item) {
	q := qualify(modulePath, name)
	s.types[q] = &TypeEntry{Kind: kind, Generics: generics, ModulePath: modulePath, Decl: decl}
	bare := string(NewIdKey(name))
	s.bareIndex[bare] = append(s.bareIndex[bare], q)
}

// SetIntStatic records the compile-time integer value of a fully resolved
// `static let` path, read by ConstLen/ResolveIntStatic during array-type
// elaboration. Nothing in this module calls it, so a static path only
// counts as a constant length once a caller has recorded its value here.
func (s *Sigma) SetIntStatic(path string, v uint64) {
	s.intStatics[FoldPath(path)] = v
}

// SetNicheEligible records the layout subsystem's verdict for a modal path.
func (s *Sigma) SetNicheEligible(path string, eligible bool) {
	s.nicheOverrides[FoldPath(path)] = eligible
}

// SetOpaqueUnderlying records the hidden representation of an opaque type,
// visible only within its declaring module (spec.md §4.1, §4.7).
func (s *Sigma) SetOpaqueUnderlying(origin types.OpaqueOrigin, underlying types.Type) {
	s.opaqueUnderlying[origin] = underlying
}

// OpaqueUnderlying looks up a previously recorded underlying representation.
func (s *Sigma) OpaqueUnderlying(origin types.OpaqueOrigin) (types.Type, bool) {
	t, ok := s.opaqueUnderlying[origin]
	return t, ok
}

// LookupTypeEntry resolves path (qualified or, if unambiguous, bare) to its
// full TypeEntry, for callers like internal/sema that need the declaring
// AST node itself (field lists, variant lists) rather than just the
// kind/arity types.Resolver exposes.
func (s *Sigma) LookupTypeEntry(path string) (*TypeEntry, bool) {
	e, _, ok := s.resolveEntry(path)
	return e, ok
}

func (s *Sigma) resolveEntry(path string) (*TypeEntry, string, bool) {
	folded := FoldPath(path)
	if e, ok := s.types[folded]; ok {
		return e, folded, true
	}
	if !strings.Contains(path, "::") {
		bare := string(NewIdKey(path))
		if candidates := s.bareIndex[bare]; len(candidates) == 1 {
			return s.types[candidates[0]], candidates[0], true
		}
	}
	return nil, "", false
}

// ---------------------------------------------------------------------------
// types.Resolver implementation
// ---------------------------------------------------------------------------

func (s *Sigma) ResolveNominal(path string) (types.DeclKind, int, bool) {
	e, _, ok := s.resolveEntry(path)
	if !ok {
		return 0, 0, false
	}
	return e.Kind, len(e.Generics), true
}

func (s *Sigma) ResolveClass(path string) bool {
	folded := FoldPath(path)
	for _, c := range builtinCapabilityClasses {
		if folded == FoldPath(c) || string(NewIdKey(path)) == string(NewIdKey(c)) {
			return true
		}
	}
	if _, ok := s.classes[folded]; ok {
		return true
	}
	if !strings.Contains(path, "::") {
		bare := string(NewIdKey(path))
		if candidates := s.bareClasses[bare]; len(candidates) == 1 {
			return true
		}
	}
	return false
}

func (s *Sigma) ModalStates(path string) ([]string, bool) {
	e, _, ok := s.resolveEntry(path)
	if !ok || e.Kind != types.DeclModal {
		return nil, false
	}
	modal, ok := e.Decl.(*ast.ModalDecl)
	if !ok {
		return nil, false
	}
	names := make([]string, len(modal.States))
	for i, st := range modal.States {
		names[i] = st.Name
	}
	return names, true
}

func (s *Sigma) ResolveIntStatic(path string) (uint64, bool) {
	v, ok := s.intStatics[FoldPath(path)]
	return v, ok
}

func (s *Sigma) NicheEligible(path string) bool {
	return s.nicheOverrides[FoldPath(path)]
}

var _ types.Resolver = (*Sigma)(nil)
