// Package sema implements expression, statement, pattern, and declaration
// typing for Cursive0 (spec.md §4.3–§4.9): the Infer/Check judgement pair
// over every expression form, statement/block sequencing with flow
// summaries (FlowInfo), pattern typing with match exhaustiveness, and the
// well-formedness checks for record, enum and modal declarations.
//
// Grounded on ailang's internal/types (bidirectional Infer/Check split,
// recover-and-continue error policy: a failing subexpression yields Never
// rather than aborting the whole walk) generalized from ailang's
// row-polymorphic HM algebra to Cursive0's permission/modal/union-rich type
// language.
package sema

import (
	"github.com/cursivecrow/cursive0-sema/internal/ast"
	"github.com/cursivecrow/cursive0-sema/internal/classes"
	"github.com/cursivecrow/cursive0-sema/internal/diag"
	"github.com/cursivecrow/cursive0-sema/internal/sigma"
	"github.com/cursivecrow/cursive0-sema/internal/typeenv"
	"github.com/cursivecrow/cursive0-sema/internal/types"
)

// Context carries everything one module's typing pass needs: the project
// signature, the class registry, the lexical cactus, the value environment
// Γ, the diagnostic sink, and the expr_types map the driver publishes in its
// TypecheckResult (spec.md §6).
type Context struct {
	Sigma   *sigma.Sigma
	Classes *classes.Registry
	Scope   *sigma.ScopeContext
	Gamma   *typeenv.Gamma
	Diags   *diag.Stream

	// Module is the path of the module currently being checked, used for
	// visibility gating (internal/sigma.CanAccess).
	Module string

	// ExprTypes records every expression's inferred/checked type, keyed by
	// node identity, exactly as spec.md §3/§6 describes expr_types.
	ExprTypes map[ast.Expr]types.Type

	// loopDepth / asyncDepth / parallelDomain track the nesting context
	// needed to validate break/continue, yield/sync, and domain-restricted
	// parallel bodies (spec.md §4.4, §4.9).
	loopDepth      int
	asyncDepth     int
	inParallelBody bool
	parallelDomain string

	// ReturnType is the enclosing procedure's declared return type, used by
	// ReturnStmt/PropagateExpr checking.
	ReturnType types.Type

	// currentLoop collects break values for the innermost LoopStmt/ForStmt
	// currently being typed (spec.md §4.4); break can occur arbitrarily deep
	// under nested if/match/block forms, so this is a side channel rather
	// than a FlowInfo field threaded back up through every statement.
	currentLoop *loopBreaks
}

// NewContext creates a typing context for one module.
func NewContext(sig *sigma.Sigma, cls *classes.Registry, scope *sigma.ScopeContext, module string) *Context {
	return &Context{
		Sigma:     sig,
		Classes:   cls,
		Scope:     scope,
		Gamma:     typeenv.New(),
		Diags:     &diag.Stream{},
		Module:    module,
		ExprTypes: make(map[ast.Expr]types.Type),
	}
}

// record stores e's type in ExprTypes and returns it, the common tail call
// of every Infer case.
func (c *Context) record(e ast.Expr, t types.Type) types.Type {
	c.ExprTypes[e] = t
	return t
}

// fail reports d (if non-nil) and returns the poison type Never, letting the
// walk continue rather than aborting (spec.md §7: local-recover,
// global-report).
func (c *Context) fail(e ast.Expr, d *diag.Diagnostic) types.Type {
	c.Diags.Add(d)
	return c.record(e, types.TNever)
}

// elaborate lowers a surface TypeExpr and reports+poisons on failure.
func (c *Context) elaborate(te ast.TypeExpr) types.Type {
	t, d := types.Elaborate(te, c.Sigma)
	if d != nil {
		c.Diags.Add(d)
		return types.TNever
	}
	if d := types.WF(t, c.Sigma, te.Position()); d != nil {
		c.Diags.Add(d)
		return types.TNever
	}
	return t
}
