// Package sigma implements the module-rooted signature Σ and the lexical
// cactus of scopes (spec.md §3, §4.2). Grounded on ailang's internal/module
// (module identity, search-path resolution idiom) and
// internal/lexer/normalize.go (NFC normalization at a boundary), generalized
// to Cursive0's identifier-key and visibility model.
package sigma

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/cursivecrow/cursive0-sema/internal/ast"
)

// IdKey is an NFC-normalized, case-folded identifier (spec.md §3), used as
// the map key for every scope. Two surface spellings of "the same" name
// (different Unicode normal forms, different case) always collide to one
// IdKey, exactly as spec.md requires.
type IdKey string

var fold = cases.Fold()

// NewIdKey normalizes name the way the lexer boundary does (NFC, via
// golang.org/x/text/unicode/norm — the same library ailang's lexer uses to
// normalize source text) and then case-folds it (golang.org/x/text/cases).
func NewIdKey(name string) IdKey {
	normalized := norm.NFC.String(name)
	return IdKey(fold.String(normalized))
}

// FoldPath case-folds and NFC-normalizes every path component, used by
// internal/initplan for deterministic cross-platform ordering (spec.md §5,
// §6).
func FoldPath(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		parts[i] = string(NewIdKey(p))
	}
	return strings.Join(parts, "/")
}

// Utf8LexLess orders two paths by their folded form's UTF-8 byte sequence,
// the tie-break spec.md §4.10/§5/§6 require for init-plan and diagnostic
// ordering: two paths that differ only by case or normal form always sort
// identically regardless of the platform's filesystem collation.
func Utf8LexLess(a, b string) bool {
	return FoldPath(a) < FoldPath(b)
}

// KeyLess orders two already-folded IdKeys lexicographically; used where
// the caller holds keys rather than raw path strings (e.g. comparing two
// module-qualified entity keys without re-folding them).
func KeyLess(a, b IdKey) bool {
	return string(a) < string(b)
}

// EntityKind distinguishes what a scope entry refers to (spec.md §3).
type EntityKind int

const (
	KindValue EntityKind = iota
	KindType
	KindClass
	KindModuleAlias
)

// EntitySource records how an entity entered its scope, needed to tell a
// genuine redeclaration from re-exposure via `using` (spec.md §4.2).
type EntitySource int

const (
	SourceDecl EntitySource = iota
	SourceUsing
	SourceRegionAlias
)

// Entity is one binding recorded in a scope.
type Entity struct {
	Kind   EntityKind
	Origin ast.Node
	Source EntitySource
	// ModulePath is the module that owns Origin (declaring module for
	// visibility purposes); empty for universe/built-in entities.
	ModulePath string
	// Vis is the declared visibility of Origin, meaningful for KindValue,
	// KindType and KindClass entities sourced from a Decl.
	Vis ast.Visibility
}
