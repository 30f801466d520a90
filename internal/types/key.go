package types

import (
	"fmt"
	"sort"
	"strings"
)

// Key computes the canonical TypeKey: a total, order-preserving string
// serialization used for equality and stable ordering (spec.md §3). Unions
// are canonicalized by sorted member-key order; every other constructor is
// purely structural, so two terms built differently but denoting the same
// type always serialize identically (spec.md §8 property 1).
func Key(t Type) string {
	switch t := t.(type) {
	case *Prim:
		return "P:" + string(t.Name)
	case *PermType:
		return fmt.Sprintf("Pm(%d,%s)", t.Perm, Key(t.Inner))
	case *UnionType:
		keys := make([]string, len(t.Members))
		for i, m := range t.Members {
			keys[i] = Key(m)
		}
		sort.Strings(keys)
		return "U[" + strings.Join(keys, ";") + "]"
	case *TupleType:
		keys := make([]string, len(t.Elements))
		for i, e := range t.Elements {
			keys[i] = Key(e)
		}
		return "T(" + strings.Join(keys, ",") + ")"
	case *ArrayType:
		return fmt.Sprintf("A[%s;%d]", Key(t.Elem), t.Len)
	case *SliceType:
		return fmt.Sprintf("S[%s]", Key(t.Elem))
	case *PtrType:
		return fmt.Sprintf("Ptr(%s,%d)", Key(t.Elem), t.State)
	case *RawPtrType:
		return fmt.Sprintf("RawPtr(%d,%s)", t.Qual, Key(t.Elem))
	case *StringType:
		return fmt.Sprintf("Str(%d)", t.State)
	case *BytesType:
		return fmt.Sprintf("Bytes(%d)", t.State)
	case *DynamicType:
		return "Dyn:" + t.Path
	case *PathType:
		return fmt.Sprintf("Path(%s,%s)", t.Path, keySlice(t.Args))
	case *ModalStateType:
		return fmt.Sprintf("Modal(%s@%s,%s)", t.Path, t.State, keySlice(t.Args))
	case *OpaqueType:
		return fmt.Sprintf("Opaque(%s,%s)", t.Path, t.Origin)
	case *FuncType:
		ps := make([]string, len(t.Params))
		for i, p := range t.Params {
			ps[i] = fmt.Sprintf("%d:%s", p.Mode, Key(p.Type))
		}
		return fmt.Sprintf("Fn(%s->%s)", strings.Join(ps, ","), Key(t.Ret))
	case *RangeType:
		return "Range"
	case *RefineType:
		// The predicate is not part of the canonical key: two refinements
		// over the same base collapse structurally (the predicate is
		// carried, never discharged, per spec.md §3/§9).
		return fmt.Sprintf("Refine(%s)", Key(t.Base))
	default:
		return fmt.Sprintf("?(%T)", t)
	}
}

func keySlice(ts []Type) string {
	keys := make([]string, len(ts))
	for i, t := range ts {
		keys[i] = Key(t)
	}
	return strings.Join(keys, ",")
}

// canonicalizeUnion sorts u.Members by Key in place so that
// NewUnion(a,b).String() == NewUnion(b,a).String() and their Keys match.
func canonicalizeUnion(u *UnionType) {
	sort.Slice(u.Members, func(i, j int) bool {
		return Key(u.Members[i]) < Key(u.Members[j])
	})
}

// Less gives a stable total order over types by their canonical key, used to
// sort union members for display and to break ties deterministically
// elsewhere in the core.
func Less(a, b Type) bool { return Key(a) < Key(b) }
