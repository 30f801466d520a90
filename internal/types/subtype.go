package types

// Subtype implements Subtyping(T <= U): the least reflexive/transitive
// relation described in spec.md §4.1. res supplies the one
// implementation-defined predicate (modal niche eligibility) this core does
// not fully specify on its own.
func Subtype(sub, sup Type, res Resolver) bool {
	if Equiv(sub, sup) {
		return true
	}

	// Never is bottom (spec.md §8 property 2).
	if p, ok := sub.(*Prim); ok && p.Name == Never {
		return true
	}

	switch sup := sup.(type) {
	case *UnionType:
		// T <= Union({..., T, ...})
		if subU, isUnion := sub.(*UnionType); isUnion {
			// Union(A) <= Union(B) iff every member of A is in B.
			for _, am := range subU.Members {
				if !memberOf(am, sup.Members, res) {
					return false
				}
			}
			return true
		}
		return memberOf(sub, sup.Members, res)
	}

	switch sub := sub.(type) {
	case *PermType:
		supPerm, supInner, isPerm := StripPerm(sup)
		if !isPerm {
			return false
		}
		// Perm(Unique, T) <= Perm(Const, T) and reflexive;
		// Perm(Const, T) <= Perm(Const, T) only.
		if !Equiv(sub.Inner, supInner) {
			// allow covariant inner subtyping along matching permissions
			if sub.Perm == supPerm && Subtype(sub.Inner, supInner, res) {
				return true
			}
			return false
		}
		switch sub.Perm {
		case PermUnique:
			return supPerm == PermUnique || supPerm == PermConst
		case PermConst:
			return supPerm == PermConst
		case PermShared:
			return supPerm == PermShared
		}
		return false

	case *TupleType:
		supT, ok := sup.(*TupleType)
		if !ok || len(sub.Elements) != len(supT.Elements) {
			return false
		}
		for i := range sub.Elements {
			if !Subtype(sub.Elements[i], supT.Elements[i], res) {
				return false
			}
		}
		return true

	case *ArrayType:
		supA, ok := sup.(*ArrayType)
		if !ok || sub.Len != supA.Len {
			return false
		}
		return Subtype(sub.Elem, supA.Elem, res)

	case *SliceType:
		supS, ok := sup.(*SliceType)
		if !ok {
			return false
		}
		return Subtype(sub.Elem, supS.Elem, res)

	case *FuncType:
		supF, ok := sup.(*FuncType)
		if !ok || len(sub.Params) != len(supF.Params) {
			return false
		}
		// Contravariant parameters.
		for i := range sub.Params {
			if sub.Params[i].Mode != supF.Params[i].Mode {
				return false
			}
			if !Subtype(supF.Params[i].Type, sub.Params[i].Type, res) {
				return false
			}
		}
		// Covariant return.
		return Subtype(sub.Ret, supF.Ret, res)

	case *PtrType:
		supP, ok := sup.(*PtrType)
		if !ok || !Equiv(sub.Elem, supP.Elem) {
			return false
		}
		// Ptr(T, Valid) <= Ptr(T, none); reflexive otherwise.
		if sub.State == PtrStateValid && supP.State == PtrStateNone {
			return true
		}
		return sub.State == supP.State

	case *ModalStateType:
		// ModalState(p, s) <= Path(p) only when the path is niche-eligible.
		// The default is conservative: false with a nil resolver, and false
		// from sigma.Sigma for any path without a SetNicheEligible verdict.
		if supPath, ok := sup.(*PathType); ok && supPath.Path == sub.Path && len(supPath.Args) == 0 {
			return res != nil && res.NicheEligible(sub.Path)
		}
		return false
	}

	return false
}

func memberOf(t Type, members []Type, res Resolver) bool {
	for _, m := range members {
		if Equiv(t, m) {
			return true
		}
	}
	return false
}
