// Package types implements the Cursive0 type algebra: the canonical `Type`
// term, its hash-comparable `TypeKey`, structural equivalence, the subtyping
// lattice, and well-formedness checking (spec.md §3, §4.1).
//
// Grounded on ailang's internal/types/types.go (tagged Type interface with
// String/Equals/Substitute) and internal/types/kinds.go (row/kind
// machinery), generalized from ailang's HM type algebra to Cursive0's richer
// term: permissions, state-modal types, unions, dependent array lengths, and
// structurally-carried refinements.
package types

import (
	"fmt"
	"strings"

	"github.com/cursivecrow/cursive0-sema/internal/ast"
)

// Type is the base interface every type-term constructor satisfies. Terms
// are immutable; all transformations return new terms.
type Type interface {
	String() string
	isType()
}

// ---------------------------------------------------------------------------
// Prim
// ---------------------------------------------------------------------------

// PrimName enumerates the closed set of primitive names (spec.md §3).
type PrimName string

const (
	I8    PrimName = "i8"
	I16   PrimName = "i16"
	I32   PrimName = "i32"
	I64   PrimName = "i64"
	I128  PrimName = "i128"
	U8    PrimName = "u8"
	U16   PrimName = "u16"
	U32   PrimName = "u32"
	U64   PrimName = "u64"
	U128  PrimName = "u128"
	ISize PrimName = "isize"
	USize PrimName = "usize"
	F16   PrimName = "f16"
	F32   PrimName = "f32"
	F64   PrimName = "f64"
	Bool  PrimName = "bool"
	Char  PrimName = "char"
	Unit  PrimName = "()"
	Never PrimName = "!"
)

// primNames is the closed set TypeWF checks membership against.
var primNames = map[PrimName]bool{
	I8: true, I16: true, I32: true, I64: true, I128: true,
	U8: true, U16: true, U32: true, U64: true, U128: true,
	ISize: true, USize: true,
	F16: true, F32: true, F64: true,
	Bool: true, Char: true, Unit: true, Never: true,
}

// IsKnownPrim reports whether name belongs to the closed primitive set.
func IsKnownPrim(name PrimName) bool { return primNames[name] }

// isIntPrim / isFloatPrim support literal defaulting and CastValid.
func isIntPrim(n PrimName) bool {
	switch n {
	case I8, I16, I32, I64, I128, U8, U16, U32, U64, U128, ISize, USize:
		return true
	}
	return false
}

func isFloatPrim(n PrimName) bool {
	return n == F16 || n == F32 || n == F64
}

type Prim struct{ Name PrimName }

func NewPrim(name PrimName) *Prim { return &Prim{Name: name} }
func (p *Prim) String() string    { return string(p.Name) }
func (p *Prim) isType()           {}

// Common singletons, mirroring ailang's predefined-types idiom.
var (
	TI32  = NewPrim(I32)
	TF64  = NewPrim(F64)
	TBool = NewPrim(Bool)
	TChar = NewPrim(Char)
	TUnit = NewPrim(Unit)
	TNever = NewPrim(Never)
)

// ---------------------------------------------------------------------------
// Perm
// ---------------------------------------------------------------------------

type Perm int

const (
	PermConst Perm = iota
	PermUnique
	PermShared
)

func (p Perm) String() string {
	switch p {
	case PermConst:
		return "const"
	case PermUnique:
		return "unique"
	case PermShared:
		return "shared"
	default:
		return "?perm"
	}
}

type PermType struct {
	Perm  Perm
	Inner Type
}

func NewPerm(p Perm, inner Type) *PermType { return &PermType{Perm: p, Inner: inner} }
func (p *PermType) String() string         { return fmt.Sprintf("%s %s", p.Perm, p.Inner) }
func (p *PermType) isType()                {}

// StripPerm removes exactly one outer Perm wrapper, returning the inner type
// and the permission that was stripped (spec.md §4.5 Pat-StripPerm). ok is
// false when t carries no outer Perm, in which case inner == t.
func StripPerm(t Type) (perm Perm, inner Type, ok bool) {
	if p, isPerm := t.(*PermType); isPerm {
		return p.Perm, p.Inner, true
	}
	return 0, t, false
}

// ---------------------------------------------------------------------------
// Union
// ---------------------------------------------------------------------------

// UnionType requires >= 2 members (spec.md §3, §4.1); construct via NewUnion
// which canonicalizes member order by TypeKey.
type UnionType struct{ Members []Type }

func NewUnion(members ...Type) *UnionType {
	u := &UnionType{Members: append([]Type(nil), members...)}
	canonicalizeUnion(u)
	return u
}

func (u *UnionType) String() string {
	parts := make([]string, len(u.Members))
	for i, m := range u.Members {
		parts[i] = m.String()
	}
	return strings.Join(parts, " | ")
}
func (u *UnionType) isType() {}

// ---------------------------------------------------------------------------
// Tuple / Array / Slice
// ---------------------------------------------------------------------------

type TupleType struct{ Elements []Type }

func NewTuple(elems ...Type) *TupleType { return &TupleType{Elements: elems} }
func (t *TupleType) String() string {
	parts := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
func (t *TupleType) isType() {}

type ArrayType struct {
	Elem Type
	Len  uint64
}

func NewArray(elem Type, n uint64) *ArrayType { return &ArrayType{Elem: elem, Len: n} }
func (a *ArrayType) String() string           { return fmt.Sprintf("[%s; %d]", a.Elem, a.Len) }
func (a *ArrayType) isType()                  {}

type SliceType struct{ Elem Type }

func NewSlice(elem Type) *SliceType { return &SliceType{Elem: elem} }
func (s *SliceType) String() string { return fmt.Sprintf("[%s]", s.Elem) }
func (s *SliceType) isType()        {}

// ---------------------------------------------------------------------------
// Ptr / RawPtr
// ---------------------------------------------------------------------------

type PtrState int

const (
	PtrStateNone PtrState = iota
	PtrStateValid
	PtrStateNull
	PtrStateExpired
)

func (s PtrState) String() string {
	switch s {
	case PtrStateValid:
		return "@Valid"
	case PtrStateNull:
		return "@Null"
	case PtrStateExpired:
		return "@Expired"
	default:
		return ""
	}
}

type PtrType struct {
	Elem  Type
	State PtrState
}

func NewPtr(elem Type, state PtrState) *PtrType { return &PtrType{Elem: elem, State: state} }
func (p *PtrType) String() string               { return fmt.Sprintf("Ptr<%s>%s", p.Elem, p.State) }
func (p *PtrType) isType()                      {}

type RawPtrQual int

const (
	RawPtrImm RawPtrQual = iota
	RawPtrMut
)

func (q RawPtrQual) String() string {
	if q == RawPtrMut {
		return "mut"
	}
	return "imm"
}

type RawPtrType struct {
	Elem Type
	Qual RawPtrQual
}

func NewRawPtr(qual RawPtrQual, elem Type) *RawPtrType { return &RawPtrType{Elem: elem, Qual: qual} }
func (r *RawPtrType) String() string                   { return fmt.Sprintf("RawPtr<%s, %s>", r.Qual, r.Elem) }
func (r *RawPtrType) isType()                          {}

// ---------------------------------------------------------------------------
// String / Bytes
// ---------------------------------------------------------------------------

// SBState is the shared state lattice for String/Bytes.
type SBState int

const (
	SBStateNone SBState = iota
	SBStateManaged
	SBStateView
)

func (s SBState) String() string {
	switch s {
	case SBStateManaged:
		return "@Managed"
	case SBStateView:
		return "@View"
	default:
		return ""
	}
}

type StringType struct{ State SBState }

func NewString(state SBState) *StringType { return &StringType{State: state} }
func (s *StringType) String() string      { return "String" + s.State.String() }
func (s *StringType) isType()             {}

type BytesType struct{ State SBState }

func NewBytes(state SBState) *BytesType { return &BytesType{State: state} }
func (b *BytesType) String() string     { return "Bytes" + b.State.String() }
func (b *BytesType) isType()            {}

// ---------------------------------------------------------------------------
// Dynamic / Path / ModalState / Opaque
// ---------------------------------------------------------------------------

type DynamicType struct{ Path string }

func NewDynamic(path string) *DynamicType { return &DynamicType{Path: path} }
func (d *DynamicType) String() string     { return "dyn " + d.Path }
func (d *DynamicType) isType()            {}

type PathType struct {
	Path string
	Args []Type
}

func NewPath(path string, args ...Type) *PathType { return &PathType{Path: path, Args: args} }
func (p *PathType) String() string {
	if len(p.Args) == 0 {
		return p.Path
	}
	parts := make([]string, len(p.Args))
	for i, a := range p.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s<%s>", p.Path, strings.Join(parts, ", "))
}
func (p *PathType) isType() {}

type ModalStateType struct {
	Path  string
	State string
	Args  []Type
}

func NewModalState(path, state string, args ...Type) *ModalStateType {
	return &ModalStateType{Path: path, State: state, Args: args}
}
func (m *ModalStateType) String() string {
	base := m.Path
	if len(m.Args) > 0 {
		parts := make([]string, len(m.Args))
		for i, a := range m.Args {
			parts[i] = a.String()
		}
		base = fmt.Sprintf("%s<%s>", m.Path, strings.Join(parts, ", "))
	}
	return base + "@" + m.State
}
func (m *ModalStateType) isType() {}

// OpaqueOrigin identifies the specific declaration node an Opaque type came
// from, so the same nominal path declared in two modules never collides.
type OpaqueOrigin string

type OpaqueType struct {
	Path   string
	Origin OpaqueOrigin
}

func NewOpaque(path string, origin OpaqueOrigin) *OpaqueType {
	return &OpaqueType{Path: path, Origin: origin}
}
func (o *OpaqueType) String() string { return o.Path }
func (o *OpaqueType) isType()        {}

// ---------------------------------------------------------------------------
// Func
// ---------------------------------------------------------------------------

type ParamMode int

const (
	ParamModeNone ParamMode = iota
	ParamModeMove
)

type FuncParam struct {
	Type Type
	Mode ParamMode
}

type FuncType struct {
	Params []FuncParam
	Ret    Type
}

func NewFunc(ret Type, params ...FuncParam) *FuncType { return &FuncType{Params: params, Ret: ret} }

func (f *FuncType) String() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		prefix := ""
		if p.Mode == ParamModeMove {
			prefix = "move "
		}
		parts[i] = prefix + p.Type.String()
	}
	return fmt.Sprintf("(%s) -> %s", strings.Join(parts, ", "), f.Ret)
}
func (f *FuncType) isType() {}

// ---------------------------------------------------------------------------
// Range
// ---------------------------------------------------------------------------

type RangeType struct{}

func NewRangeType() *RangeType  { return &RangeType{} }
func (r *RangeType) String() string { return "Range" }
func (r *RangeType) isType()        {}

// ---------------------------------------------------------------------------
// Refine
// ---------------------------------------------------------------------------

// RefineType carries its predicate structurally; it is never discharged by
// this core (spec.md §3, §9 open question — SMT integration is external).
type RefineType struct {
	Base      Type
	Predicate ast.Expr
}

func NewRefine(base Type, predicate ast.Expr) *RefineType {
	return &RefineType{Base: base, Predicate: predicate}
}
func (r *RefineType) String() string { return fmt.Sprintf("%s where <predicate>", r.Base) }
func (r *RefineType) isType()        {}
