package sema

import (
	"github.com/cursivecrow/cursive0-sema/internal/ast"
	"github.com/cursivecrow/cursive0-sema/internal/diag"
	"github.com/cursivecrow/cursive0-sema/internal/sigma"
	"github.com/cursivecrow/cursive0-sema/internal/types"
)

// calleeProc resolves a CallExpr's callee to the declared ProcDecl it names,
// when it's a direct (possibly module-qualified) reference — the only shape
// that supports explicit generic instantiation at the call site (spec.md
// §4.3). Any other callee expression (a field, a call result, a lambda
// value) is inferred normally and its generics, if any were written, are
// rejected.
func (c *Context) calleeProc(callee ast.Expr) (*ast.ProcDecl, bool) {
	var name string
	switch ce := callee.(type) {
	case *ast.Ident:
		name = ce.Name
	case *ast.PathExpr:
		if len(ce.Segments) == 0 {
			return nil, false
		}
		name = ce.Segments[len(ce.Segments)-1]
		modulePath := joinSegments(ce.Segments[:len(ce.Segments)-1])
		idx, ok := c.Sigma.Modules[modulePath]
		if !ok {
			return nil, false
		}
		ent, ok := idx.Entities[sigma.NewIdKey(name)]
		if !ok {
			return nil, false
		}
		proc, ok := ent.Origin.(*ast.ProcDecl)
		return proc, ok
	default:
		return nil, false
	}
	if b, ok := c.Gamma.Lookup(name); ok {
		_ = b
		return nil, false // a local value, even one holding a function, has no declared generics
	}
	ent, _, ok := c.Scope.Current.Lookup(name)
	if !ok {
		return nil, false
	}
	proc, ok := ent.Origin.(*ast.ProcDecl)
	return proc, ok
}

func (c *Context) inferCall(e *ast.CallExpr) types.Type {
	var fn *types.FuncType

	if proc, ok := c.calleeProc(e.Callee); ok {
		subst, ok := bindGenerics(proc.Generics, e.Generics)
		if !ok {
			c.Diags.Add(diag.New("Call-GenericArity-Err", e.Pos,
				"%s expects %d generic argument(s), got %d", proc.Name, len(proc.Generics), len(e.Generics)))
			return types.TNever
		}
		sig := c.procSignature(proc, subst)
		fn, _ = sig.(*types.FuncType)
		c.ExprTypes[e.Callee] = sig
	} else {
		if len(e.Generics) > 0 {
			c.Diags.Add(diag.New("Call-GenericUnsupported-Err", e.Pos,
				"explicit generic arguments are only supported when calling a named procedure directly"))
		}
		calleeT := c.Infer(e.Callee)
		_, inner, isPerm := types.StripPerm(calleeT)
		if isPerm {
			calleeT = inner
		}
		fn, _ = calleeT.(*types.FuncType)
	}

	if fn == nil {
		return c.fail(e, diag.New("Call-NotCallable-Err", e.Pos, "expression is not callable"))
	}
	if len(e.Args) != len(fn.Params) {
		c.Diags.Add(diag.New("Call-ArityErr", e.Pos,
			"expected %d argument(s), got %d", len(fn.Params), len(e.Args)))
	}
	n := len(e.Args)
	if len(fn.Params) < n {
		n = len(fn.Params)
	}
	for i := 0; i < n; i++ {
		c.Check(e.Args[i].Value, fn.Params[i].Type)
	}
	return fn.Ret
}

// inferMethodCall resolves recv.method(...) against every impl registered
// for the receiver's nominal type, picking the first match — ambiguity
// between two impls supplying the same method name is a class-resolution
// concern internal/classes' orphan rule already prevents for any single
// type/class pair.
func (c *Context) inferMethodCall(e *ast.MethodCallExpr) types.Type {
	recv := c.Infer(e.Receiver)
	path, args, ok := stripToRecord(recv)
	if !ok {
		return c.fail(e, diag.New("MethodCall-NotARecord-Err", e.Pos, "cannot call method %q on %s", e.Method, recv))
	}

	for key, impl := range c.Classes.Impls {
		if impl.TypePath != path {
			continue
		}
		for i := range impl.Methods {
			m := &impl.Methods[i]
			if m.Name != e.Method {
				continue
			}
			subst, ok := bindGenerics(m.Generics, e.Generics)
			if !ok {
				c.Diags.Add(diag.New("Call-GenericArity-Err", e.Pos,
					"%s expects %d generic argument(s)", m.Name, len(m.Generics)))
				return types.TNever
			}
			if len(args) > 0 {
				// propagate the receiver's own generic instantiation too,
				// so a method on Box<T> sees T bound to the receiver's arg.
				entry, found := c.resolveTypeEntry(path)
				if found {
					var recGenerics []ast.GenericParam
					switch d := entry.Decl.(type) {
					case *ast.RecordDecl:
						recGenerics = d.Generics
					case *ast.EnumDecl:
						recGenerics = d.Generics
					case *ast.ModalDecl:
						recGenerics = d.Generics
					}
					recSubst := genericSubstForArgs(recGenerics, args)
					if subst == nil {
						subst = recSubst
					} else {
						for k, v := range recSubst {
							if _, exists := subst[k]; !exists {
								subst[k] = v
							}
						}
					}
				}
			}
			sig := c.procSignature(m, subst)
			fn := sig.(*types.FuncType)
			if len(e.Args) != len(fn.Params) {
				c.Diags.Add(diag.New("Call-ArityErr", e.Pos,
					"%s expects %d argument(s), got %d", m.Name, len(fn.Params), len(e.Args)))
			}
			n := len(e.Args)
			if len(fn.Params) < n {
				n = len(fn.Params)
			}
			for i := 0; i < n; i++ {
				c.Check(e.Args[i].Value, fn.Params[i].Type)
			}
			_ = key
			return fn.Ret
		}
	}
	return c.fail(e, diag.New("MethodCall-Unresolved-Err", e.Pos, "%q has no method %q", path, e.Method))
}

func (c *Context) inferBinOp(e *ast.BinOpExpr) types.Type {
	lt := c.Infer(e.Left)
	rt := c.Infer(e.Right)

	switch e.Op {
	case "&&", "||":
		if !isBoolType(lt) || !isBoolType(rt) {
			return c.fail(e, diag.New("BinOp-TypeErr", e.Pos, "%s requires bool operands, found %s and %s", e.Op, lt, rt))
		}
		return types.TBool

	case "==", "!=":
		if !types.Equiv(lt, rt) {
			return c.fail(e, diag.New("BinOp-TypeErr", e.Pos, "cannot compare %s with %s", lt, rt))
		}
		return types.TBool

	case "<", "<=", ">", ">=":
		if !numericMatch(lt, rt) {
			return c.fail(e, diag.New("BinOp-TypeErr", e.Pos, "cannot order-compare %s with %s", lt, rt))
		}
		return types.TBool

	case "&", "|", "^", "<<", ">>":
		if !isIntType(lt) || !isIntType(rt) {
			return c.fail(e, diag.New("BinOp-TypeErr", e.Pos, "%s requires integer operands, found %s and %s", e.Op, lt, rt))
		}
		return lt

	default: // +, -, *, /, %
		if !numericMatch(lt, rt) {
			return c.fail(e, diag.New("BinOp-TypeErr", e.Pos, "%s requires matching numeric operands, found %s and %s", e.Op, lt, rt))
		}
		return lt
	}
}

func numericMatch(a, b types.Type) bool {
	numeric := func(t types.Type) bool { return isIntType(t) || isFloatType(t) }
	return numeric(a) && numeric(b) && types.Equiv(a, b)
}

func (c *Context) inferUnOp(e *ast.UnOpExpr) types.Type {
	t := c.Infer(e.Operand)
	switch e.Op {
	case "!":
		if !isBoolType(t) {
			return c.fail(e, diag.New("UnOp-TypeErr", e.Pos, "! requires a bool operand, found %s", t))
		}
		return types.TBool
	case "-":
		if !isIntType(t) && !isFloatType(t) {
			return c.fail(e, diag.New("UnOp-TypeErr", e.Pos, "unary - requires a numeric operand, found %s", t))
		}
		return t
	default:
		return c.fail(e, diag.New("UnOp-Unknown-Err", e.Pos, "unrecognised unary operator %q", e.Op))
	}
}
