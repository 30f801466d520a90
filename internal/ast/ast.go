// Package ast defines the AST node contract consumed by the Cursive0 semantic
// analysis core. Lexing and parsing are external collaborators (see spec.md
// §1); this package only describes the shape of the tree the core walks.
package ast

import "fmt"

// Pos is a source position.
type Pos struct {
	File   string
	Line   int
	Column int
}

func (p Pos) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Node is the base interface every AST node satisfies.
type Node interface {
	Position() Pos
}

// Expr is any expression node. Expr* node identity (the pointer itself) is
// used as the key into the expr_types map (spec.md §3, §6).
type Expr interface {
	Node
	exprNode()
}

// Stmt is any statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Pattern is any pattern node.
type Pattern interface {
	Node
	patternNode()
}

// TypeExpr is the surface syntax for a type annotation, as opposed to the
// resolved internal/types.Type it elaborates to.
type TypeExpr interface {
	Node
	typeExprNode()
}

// ---------------------------------------------------------------------------
// Modules and items
// ---------------------------------------------------------------------------

// Visibility gates cross-module access (spec.md §4.2).
type Visibility int

const (
	VisPrivate Visibility = iota
	VisProtected
	VisInternal
	VisPublic
)

func (v Visibility) String() string {
	switch v {
	case VisPublic:
		return "public"
	case VisInternal:
		return "internal"
	case VisProtected:
		return "protected"
	default:
		return "private"
	}
}

// Module is one parsed source module in the project.
type Module struct {
	Path        string // fully-qualified, slash-separated module path
	Items       []Item
	UnsafeSpans []Pos // spans textually inside `unsafe { }` blocks
	Pos         Pos
}

func (m *Module) Position() Pos { return m.Pos }

// Item is anything a module declares at top level.
type Item interface {
	Node
	itemNode()
	ItemName() string
	ItemVis() Visibility
}

// GenericParam is one entry of a declaration's generic parameter list.
type GenericParam struct {
	Name    string
	Bounds  []string // class paths this parameter must implement
	Default TypeExpr // optional default, nil if none
}

// FieldDecl is a record/enum-payload/modal-state field.
type FieldDecl struct {
	Name string
	Type TypeExpr
	Init Expr // optional default-init expression, nil if none
	Vis  Visibility
	Pos  Pos
}

// RecordDecl declares a nominal record (product) type.
type RecordDecl struct {
	Name       string
	Generics   []GenericParam
	Fields     []FieldDecl
	Implements []string // class paths
	Vis        Visibility
	Pos        Pos
}

func (r *RecordDecl) Position() Pos       { return r.Pos }
func (r *RecordDecl) itemNode()           {}
func (r *RecordDecl) ItemName() string    { return r.Name }
func (r *RecordDecl) ItemVis() Visibility { return r.Vis }

// VariantDecl is one enum variant; payload shape is one of unit/tuple/record.
type VariantDecl struct {
	Name         string
	TuplePayload []TypeExpr  // non-nil for tuple-payload variants
	RecPayload   []FieldDecl // non-nil for record-payload variants
	Pos          Pos
}

// EnumDecl declares a nominal sum type.
type EnumDecl struct {
	Name       string
	Generics   []GenericParam
	Variants   []VariantDecl
	Implements []string
	Vis        Visibility
	Pos        Pos
}

func (e *EnumDecl) Position() Pos       { return e.Pos }
func (e *EnumDecl) itemNode()           {}
func (e *EnumDecl) ItemName() string    { return e.Name }
func (e *EnumDecl) ItemVis() Visibility { return e.Vis }

// StateDecl is one named state of a modal type.
type StateDecl struct {
	Name        string
	Fields      []FieldDecl
	Methods     []ProcDecl
	Transitions []TransitionDecl
	Pos         Pos
}

// TransitionDecl moves a modal value from its declaring state to Target.
type TransitionDecl struct {
	Name   string
	Target string
	Proc   ProcDecl
	Pos    Pos
}

// ModalDecl declares a nominal state machine type.
type ModalDecl struct {
	Name       string
	Generics   []GenericParam
	States     []StateDecl
	Implements []string
	Vis        Visibility
	Pos        Pos
}

func (m *ModalDecl) Position() Pos       { return m.Pos }
func (m *ModalDecl) itemNode()           {}
func (m *ModalDecl) ItemName() string    { return m.Name }
func (m *ModalDecl) ItemVis() Visibility { return m.Vis }

// AliasDecl declares `type Name<Generics> = Underlying`, or an opaque alias
// when Underlying is nil and Opaque is true.
type AliasDecl struct {
	Name     string
	Generics []GenericParam
	Underlying TypeExpr
	Opaque   bool
	Vis      Visibility
	Pos      Pos
}

func (a *AliasDecl) Position() Pos       { return a.Pos }
func (a *AliasDecl) itemNode()           {}
func (a *AliasDecl) ItemName() string    { return a.Name }
func (a *AliasDecl) ItemVis() Visibility { return a.Vis }

// AbstractMethod is an undefined method signature a class declares.
type AbstractMethod struct {
	Name    string
	Params  []Param
	Return  TypeExpr
	Default *ProcDecl // non-nil when the class supplies a default body
	Pos     Pos
}

// ClassDecl declares a class (interface + optional default methods).
type ClassDecl struct {
	Name            string
	TypeParam       string
	Superclasses    []string
	Methods         []AbstractMethod
	AbstractAssocTy []string
	AbstractStates  []string
	Vis             Visibility
	Pos             Pos
}

func (c *ClassDecl) Position() Pos       { return c.Pos }
func (c *ClassDecl) itemNode()           {}
func (c *ClassDecl) ItemName() string    { return c.Name }
func (c *ClassDecl) ItemVis() Visibility { return c.Vis }

// ImplDecl implements a class for a type, in the same module as one of them
// (enforced by the orphan rule, spec.md §4.6).
type ImplDecl struct {
	ClassPath string
	TypePath  string
	Methods   []ProcDecl
	AssocTys  map[string]TypeExpr
	Vis       Visibility
	Pos       Pos
}

func (i *ImplDecl) Position() Pos       { return i.Pos }
func (i *ImplDecl) itemNode()           {}
func (i *ImplDecl) ItemName() string    { return i.ClassPath + " for " + i.TypePath }
func (i *ImplDecl) ItemVis() Visibility { return i.Vis }

// Param is one formal parameter of a procedure or function type.
type Param struct {
	Name string
	Type TypeExpr
	Move bool // true when the parameter mode is `move`
	Pos  Pos
}

// ProcDecl declares a top-level or method procedure.
type ProcDecl struct {
	Name       string
	Generics   []GenericParam
	Self       *Param // non-nil for methods
	Params     []Param
	Return     TypeExpr
	Effects    []string
	Body       *Block
	Vis        Visibility
	Pos        Pos
}

func (p *ProcDecl) Position() Pos       { return p.Pos }
func (p *ProcDecl) itemNode()           {}
func (p *ProcDecl) ItemName() string    { return p.Name }
func (p *ProcDecl) ItemVis() Visibility { return p.Vis }

// StaticDecl declares `static let NAME: T = expr`.
type StaticDecl struct {
	Name  string
	Type  TypeExpr
	Value Expr
	Vis   Visibility
	Pos   Pos
}

func (s *StaticDecl) Position() Pos       { return s.Pos }
func (s *StaticDecl) itemNode()           {}
func (s *StaticDecl) ItemName() string    { return s.Name }
func (s *StaticDecl) ItemVis() Visibility { return s.Vis }

// UsingDecl imports names from another module into this one's module scope.
type UsingDecl struct {
	ModulePath string
	Alias      string // empty when not aliased
	Symbols    []string // empty means "bring every exported name in"
	Pos        Pos
}

func (u *UsingDecl) Position() Pos       { return u.Pos }
func (u *UsingDecl) itemNode()           {}
func (u *UsingDecl) ItemName() string    { return u.Alias }
func (u *UsingDecl) ItemVis() Visibility { return VisPrivate }
