package sigma

import (
	"testing"

	"github.com/cursivecrow/cursive0-sema/internal/ast"
	"github.com/cursivecrow/cursive0-sema/internal/types"
)

func TestIdKeyFoldsCaseAndNormalizesForm(t *testing.T) {
	// "café" as a single precomposed é vs. e + combining acute accent.
	precomposed := "café"
	decomposed := "café"

	if NewIdKey(precomposed) != NewIdKey(decomposed) {
		t.Fatalf("expected NFC-normalized forms to collide: %q vs %q", NewIdKey(precomposed), NewIdKey(decomposed))
	}
	if NewIdKey("Widget") != NewIdKey("widget") {
		t.Fatal("expected case-insensitive identifier keys")
	}
	if NewIdKey("Widget") == NewIdKey("Gadget") {
		t.Fatal("did not expect distinct identifiers to collide")
	}
}

func TestScopeLookupWalksAncestorsNotSiblings(t *testing.T) {
	universe := NewScope(ScopeUniverse, nil, "")
	mod := NewScope(ScopeModule, universe, "demo/mod")
	mod.Declare("Counter", &Entity{Kind: KindType, Origin: &ast.RecordDecl{Name: "Counter"}, ModulePath: "demo/mod"})

	procA := NewScope(ScopeProcedure, mod, "")
	procA.Declare("x", &Entity{Kind: KindValue, Origin: &ast.StaticDecl{Name: "x"}})

	procB := NewScope(ScopeProcedure, mod, "")

	if _, _, ok := procA.Lookup("Counter"); !ok {
		t.Fatal("expected procA to see module-scope Counter")
	}
	if _, _, ok := procB.Lookup("x"); ok {
		t.Fatal("sibling procedure scope must not see procA's local x")
	}
	if _, _, ok := procB.Lookup("Counter"); !ok {
		t.Fatal("expected procB to still see module-scope Counter")
	}
}

func TestSigmaResolveNominalByBareAndQualifiedPath(t *testing.T) {
	sig := NewSigma()
	rec := &ast.RecordDecl{Name: "Point", Generics: nil}
	_, diags := sig.RegisterModule(&ast.Module{Path: "geo/point", Items: []ast.Item{rec}})
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	if kind, arity, ok := sig.ResolveNominal("geo/point::Point"); !ok || kind != types.DeclRecord || arity != 0 {
		t.Fatalf("qualified resolution failed: kind=%v arity=%d ok=%v", kind, arity, ok)
	}
	if _, _, ok := sig.ResolveNominal("Point"); !ok {
		t.Fatal("expected unambiguous bare-name resolution to succeed")
	}
	if _, _, ok := sig.ResolveNominal("Nonexistent"); ok {
		t.Fatal("did not expect an undeclared type to resolve")
	}
}

func TestSigmaResolveNominalBareNameAmbiguityFails(t *testing.T) {
	sig := NewSigma()
	sig.RegisterModule(&ast.Module{Path: "a", Items: []ast.Item{&ast.RecordDecl{Name: "Shared"}}})
	sig.RegisterModule(&ast.Module{Path: "b", Items: []ast.Item{&ast.RecordDecl{Name: "Shared"}}})

	if _, _, ok := sig.ResolveNominal("Shared"); ok {
		t.Fatal("expected ambiguous bare name across two modules to fail resolution")
	}
	if _, _, ok := sig.ResolveNominal("a::Shared"); !ok {
		t.Fatal("expected qualified path to disambiguate")
	}
}

func TestSigmaResolveClassRecognisesBuiltinCapabilities(t *testing.T) {
	sig := NewSigma()
	if !sig.ResolveClass("ExecutionDomain") {
		t.Fatal("expected built-in capability class to resolve")
	}
	if sig.ResolveClass("NotARealClass") {
		t.Fatal("did not expect an unknown class to resolve")
	}
}

func TestCanAccessVisibilityLattice(t *testing.T) {
	pub := &Entity{ModulePath: "a/b", Vis: ast.VisPublic}
	priv := &Entity{ModulePath: "a/b", Vis: ast.VisPrivate}
	prot := &Entity{ModulePath: "a/b", Vis: ast.VisProtected}
	intl := &Entity{ModulePath: "a/b", Vis: ast.VisInternal}

	if !CanAccess("a/b", priv) {
		t.Fatal("a module must always see its own private declarations")
	}
	if !CanAccess("c/d", pub) {
		t.Fatal("public must be visible from any module")
	}
	if CanAccess("c/d", priv) {
		t.Fatal("private must not be visible outside the declaring module")
	}
	if !CanAccess("a/b/child", prot) {
		t.Fatal("protected must be visible to a descendant module")
	}
	if CanAccess("c/d", prot) {
		t.Fatal("protected must not be visible to an unrelated module")
	}
	if !CanAccess("a/other", intl) {
		t.Fatal("internal must be visible within the same top-level package")
	}
	if CanAccess("z/other", intl) {
		t.Fatal("internal must not be visible outside the top-level package")
	}
}

func TestApplyUsingBringsOnlyRequestedSymbols(t *testing.T) {
	sig := NewSigma()
	lib, _ := sig.RegisterModule(&ast.Module{Path: "lib", Items: []ast.Item{
		&ast.RecordDecl{Name: "Public", Vis: ast.VisPublic},
		&ast.RecordDecl{Name: "Hidden", Vis: ast.VisPrivate},
	}})
	_ = lib

	dst := &ModuleIndex{Path: "app", Entities: make(map[IdKey]*Entity)}
	diags := sig.ApplyUsing(dst, "lib", []string{"Public"}, "")
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if _, ok := dst.Entities[NewIdKey("Public")]; !ok {
		t.Fatal("expected Public to be brought in")
	}

	diags = sig.ApplyUsing(dst, "lib", []string{"Hidden"}, "")
	if len(dst.Entities) != 1 {
		t.Fatal("a private symbol must not cross the using boundary")
	}
	_ = diags
}
