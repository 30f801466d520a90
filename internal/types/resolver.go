package types

// DeclKind is what a nominal Path resolves to in Σ.types (spec.md §3).
type DeclKind int

const (
	DeclRecord DeclKind = iota
	DeclEnum
	DeclModal
	DeclAlias
)

// Resolver is the read-only view of Σ that type well-formedness, subtyping,
// and ConstLen need. internal/sigma.Sigma implements this; types itself
// never imports sigma, breaking the cycle ast <- types <- sigma <- sema.
type Resolver interface {
	// ResolveNominal looks a nominal path up in Σ.types, returning its
	// declaration kind and declared generic arity.
	ResolveNominal(path string) (kind DeclKind, arity int, ok bool)

	// ResolveClass reports whether path resolves in Σ.classes or is a
	// recognised built-in capability class (spec.md §4.1, §9).
	ResolveClass(path string) bool

	// ModalStates returns the declared state names of a ModalDecl, in
	// declaration order.
	ModalStates(path string) ([]string, bool)

	// ResolveIntStatic evaluates a fully-resolved `static let` path that
	// must denote a compile-time integer, for ConstLen (spec.md §4.1).
	ResolveIntStatic(path string) (uint64, bool)

	// NicheEligible is the layout subsystem's implementation-defined
	// predicate used by Chk-Subsumption-Modal-NonNiche (spec.md §4.1, §9:
	// "owned by the layout subsystem and not fully specified here"). This
	// core supplies a conservative, explicitly documented default (see
	// subtype.go) rather than guessing at the real layout algorithm.
	NicheEligible(path string) bool
}
