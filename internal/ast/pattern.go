package ast

// WildcardPattern is `_`.
type WildcardPattern struct{ Pos Pos }

func (w *WildcardPattern) Position() Pos { return w.Pos }
func (w *WildcardPattern) patternNode()  {}

// IdentPattern binds a name; irrefutable.
type IdentPattern struct {
	Name string
	Pos  Pos
}

func (i *IdentPattern) Position() Pos { return i.Pos }
func (i *IdentPattern) patternNode()  {}

// TypedPattern is `x: T` (or `_: T`): refutable against union scrutinees.
type TypedPattern struct {
	Name string // may be "_"
	Type TypeExpr
	Pos  Pos
}

func (t *TypedPattern) Position() Pos { return t.Pos }
func (t *TypedPattern) patternNode()  {}

type TuplePattern struct {
	Elements []Pattern
	Pos      Pos
}

func (t *TuplePattern) Position() Pos { return t.Pos }
func (t *TuplePattern) patternNode()  {}

// RecordFieldPattern is one `name[: pattern]` entry; Pattern is nil for the
// `name` shorthand (binds a variable of the same name).
type RecordFieldPattern struct {
	Name    string
	Pattern Pattern
	Pos     Pos
}

// RecordPattern is `R { f_i[: p_i] }`.
type RecordPattern struct {
	TypePath string
	Fields   []RecordFieldPattern
	Pos      Pos
}

func (r *RecordPattern) Position() Pos { return r.Pos }
func (r *RecordPattern) patternNode()  {}

// EnumPattern is `E::V`, `E::V(p...)`, or `E::V { f_i: p_i }`.
type EnumPattern struct {
	EnumPath     string
	Variant      string
	TuplePayload []Pattern   // non-nil for tuple-shaped payload
	RecPayload   []RecordFieldPattern // non-nil for record-shaped payload
	Pos          Pos
}

func (e *EnumPattern) Position() Pos { return e.Pos }
func (e *EnumPattern) patternNode()  {}

// ModalPattern is `@S { f_i: p_i }`, optionally qualified with a type path.
type ModalPattern struct {
	TypePath string // optional, empty when inferred from scrutinee
	State    string
	Fields   []RecordFieldPattern
	Pos      Pos
}

func (m *ModalPattern) Position() Pos { return m.Pos }
func (m *ModalPattern) patternNode()  {}

// RangePattern is `lo..=hi` / `lo..hi`.
type RangePattern struct {
	Lo, Hi    interface{} // compile-time constants (int64, float64, rune, ...)
	Inclusive bool
	Pos       Pos
}

func (r *RangePattern) Position() Pos { return r.Pos }
func (r *RangePattern) patternNode()  {}

// LitPattern matches a literal value exactly.
type LitPattern struct {
	Kind  LitKind
	Value interface{}
	Pos   Pos
}

func (l *LitPattern) Position() Pos { return l.Pos }
func (l *LitPattern) patternNode()  {}
