package types

import "testing"

func TestUnionCanonicalizationIsOrderIndependent(t *testing.T) {
	a := NewUnion(TI32, TBool)
	b := NewUnion(TBool, TI32)

	if !Equiv(a, b) {
		t.Fatalf("expected Union(i32,bool) equiv Union(bool,i32), got keys %q vs %q", Key(a), Key(b))
	}
	if a.String() != b.String() {
		t.Fatalf("expected stable canonical string, got %q vs %q", a.String(), b.String())
	}
}

func TestNeverIsBottom(t *testing.T) {
	universe := []Type{TI32, TBool, NewPtr(TI32, PtrStateValid), NewTuple(TI32, TBool), NewUnion(TI32, TBool)}
	for _, u := range universe {
		if !Subtype(TNever, u, nil) {
			t.Errorf("expected ! <= %s", u)
		}
	}
}

func TestCoerceArrayToSlicePreservesPerm(t *testing.T) {
	arr := NewPerm(PermUnique, NewArray(TI32, 4))
	sl, ok := CoerceArrayToSlice(arr)
	if !ok {
		t.Fatal("expected coercion to succeed")
	}
	want := NewPerm(PermUnique, NewSlice(TI32))
	if !Equiv(sl, want) {
		t.Fatalf("got %s, want %s", sl, want)
	}
}

func TestSubtypeUniquePermDowngradesToConst(t *testing.T) {
	uniq := NewPerm(PermUnique, TI32)
	cst := NewPerm(PermConst, TI32)
	if !Subtype(uniq, cst, nil) {
		t.Fatal("expected unique T <= const T")
	}
	if Subtype(cst, uniq, nil) {
		t.Fatal("did not expect const T <= unique T")
	}
}

func TestSubtypeUnionWidening(t *testing.T) {
	small := NewUnion(TI32, TBool)
	big := NewUnion(TI32, TBool, TChar)
	if !Subtype(small, big, nil) {
		t.Fatal("expected Union(A) <= Union(B) when every member of A is in B")
	}
	if Subtype(big, small, nil) {
		t.Fatal("did not expect the wider union to be a subtype of the narrower one")
	}
	if !Subtype(TI32, big, nil) {
		t.Fatal("expected T <= Union({..., T, ...})")
	}
}
