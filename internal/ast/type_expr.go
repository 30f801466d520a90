package ast

// Perm mirrors internal/types.Perm at the surface-syntax level.
type Perm int

const (
	PermNone Perm = iota
	PermConst
	PermUnique
	PermShared
)

// NamedTypeExpr is `path<generics>` — covers primitives, records, enums,
// modals, aliases, and `Dynamic` class-handle references alike; the
// resolver (internal/types) disambiguates by looking `Path` up in Σ.
type NamedTypeExpr struct {
	Path     []string
	Generics []TypeExpr
	Pos      Pos
}

func (n *NamedTypeExpr) Position() Pos  { return n.Pos }
func (n *NamedTypeExpr) typeExprNode() {}

// PermTypeExpr is `perm T`.
type PermTypeExpr struct {
	Perm Perm
	Inner TypeExpr
	Pos  Pos
}

func (p *PermTypeExpr) Position() Pos  { return p.Pos }
func (p *PermTypeExpr) typeExprNode() {}

// UnionTypeExpr is `T1 | T2 | ...`.
type UnionTypeExpr struct {
	Members []TypeExpr
	Pos     Pos
}

func (u *UnionTypeExpr) Position() Pos  { return u.Pos }
func (u *UnionTypeExpr) typeExprNode() {}

type TupleTypeExpr struct {
	Elements []TypeExpr
	Pos      Pos
}

func (t *TupleTypeExpr) Position() Pos  { return t.Pos }
func (t *TupleTypeExpr) typeExprNode() {}

// ArrayTypeExpr is `[T; len]`; Len is the unresolved length expression fed to
// ConstLen.
type ArrayTypeExpr struct {
	Element TypeExpr
	Len     Expr
	Pos     Pos
}

func (a *ArrayTypeExpr) Position() Pos  { return a.Pos }
func (a *ArrayTypeExpr) typeExprNode() {}

// SliceTypeExpr is `[T]`.
type SliceTypeExpr struct {
	Element TypeExpr
	Pos     Pos
}

func (s *SliceTypeExpr) Position() Pos  { return s.Pos }
func (s *SliceTypeExpr) typeExprNode() {}

// PtrState surfaces as an optional trailing state annotation, e.g.
// `Ptr<T>@Valid`.
type PtrState int

const (
	PtrStateNone PtrState = iota
	PtrStateValid
	PtrStateNull
	PtrStateExpired
)

type PtrTypeExpr struct {
	Element TypeExpr
	State   PtrState
	Pos     Pos
}

func (p *PtrTypeExpr) Position() Pos  { return p.Pos }
func (p *PtrTypeExpr) typeExprNode() {}

type RawPtrQual int

const (
	RawPtrImm RawPtrQual = iota
	RawPtrMut
)

type RawPtrTypeExpr struct {
	Element TypeExpr
	Qual    RawPtrQual
	Pos     Pos
}

func (r *RawPtrTypeExpr) Position() Pos  { return r.Pos }
func (r *RawPtrTypeExpr) typeExprNode() {}

// StringBytesState mirrors String(state?)/Bytes(state?) in internal/types.
type StringBytesState int

const (
	SBStateNone StringBytesState = iota
	SBStateManaged
	SBStateView
)

type StringTypeExpr struct {
	State StringBytesState
	Pos   Pos
}

func (s *StringTypeExpr) Position() Pos  { return s.Pos }
func (s *StringTypeExpr) typeExprNode() {}

type BytesTypeExpr struct {
	State StringBytesState
	Pos   Pos
}

func (b *BytesTypeExpr) Position() Pos  { return b.Pos }
func (b *BytesTypeExpr) typeExprNode() {}

// ModalStateTypeExpr is `Path<generics>@State`.
type ModalStateTypeExpr struct {
	Path     []string
	Generics []TypeExpr
	State    string
	Pos      Pos
}

func (m *ModalStateTypeExpr) Position() Pos  { return m.Pos }
func (m *ModalStateTypeExpr) typeExprNode() {}

// FuncTypeExpr is `(params) -> ret`.
type FuncTypeExpr struct {
	ParamMoves []bool
	Params     []TypeExpr
	Return     TypeExpr
	Pos        Pos
}

func (f *FuncTypeExpr) Position() Pos  { return f.Pos }
func (f *FuncTypeExpr) typeExprNode() {}

type RangeTypeExpr struct{ Pos Pos }

func (r *RangeTypeExpr) Position() Pos  { return r.Pos }
func (r *RangeTypeExpr) typeExprNode() {}

// RefineTypeExpr is `T where predicate` — the predicate is kept as an
// unevaluated Expr (spec.md §3, §9: never discharged here).
type RefineTypeExpr struct {
	Base      TypeExpr
	Predicate Expr
	Pos       Pos
}

func (r *RefineTypeExpr) Position() Pos  { return r.Pos }
func (r *RefineTypeExpr) typeExprNode() {}

// ResolvedTypeExpr wraps an already-elaborated internal/types.Type so a
// generic-parameter substitution built from a call site's concrete type
// arguments (rather than fresh surface syntax) can still be spliced into a
// TypeExpr tree before re-elaboration. Resolved holds an internal/types.Type
// as interface{} rather than that concrete type, since internal/types
// already imports internal/ast (RefineType.Predicate) and importing back
// would cycle; internal/types.Elaborate type-asserts it.
type ResolvedTypeExpr struct {
	Resolved interface{}
	Pos      Pos
}

func (r *ResolvedTypeExpr) Position() Pos  { return r.Pos }
func (r *ResolvedTypeExpr) typeExprNode() {}
