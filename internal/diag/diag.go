// Package diag provides the structured diagnostic stream shared by every
// phase of the Cursive0 semantic core. Rendering to a terminal or editor is a
// downstream concern (spec.md §1); this package only produces structured
// records.
//
// Modeled on ailang's internal/errors (code taxonomy) and
// internal/types/errors.go (rich, suggestion-carrying error values).
package diag

import (
	"fmt"
	"strings"

	"github.com/cursivecrow/cursive0-sema/internal/ast"
)

// Severity distinguishes fatal diagnostics from advisory ones. Only Error
// triggers the "skip subsequent phases" rule of spec.md §4.11 / §7.
type Severity int

const (
	Warn Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warn"
}

// Diagnostic is one structured finding, keyed by a rule id or an
// "AREA-NNNN" code (spec.md §6).
type Diagnostic struct {
	Code       string
	Severity   Severity
	Span       ast.Pos
	Path       []string // field/expression path, e.g. for nested record errors
	Message    string
	Suggestion string
}

func (d *Diagnostic) Error() string { return d.String() }

func (d *Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: [%s] ", d.Span, d.Code)
	if len(d.Path) > 0 {
		fmt.Fprintf(&b, "at %s: ", strings.Join(d.Path, "."))
	}
	b.WriteString(d.Message)
	if d.Suggestion != "" {
		fmt.Fprintf(&b, "\n  suggestion: %s", d.Suggestion)
	}
	return b.String()
}

// New builds an error-severity diagnostic.
func New(code string, span ast.Pos, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Code: code, Severity: Error, Span: span, Message: fmt.Sprintf(format, args...)}
}

// NewWarn builds a warn-severity diagnostic.
func NewWarn(code string, span ast.Pos, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Code: code, Severity: Warn, Span: span, Message: fmt.Sprintf(format, args...)}
}

// WithPath returns a copy of d with Path set, for nested-field errors.
func (d *Diagnostic) WithPath(path ...string) *Diagnostic {
	cp := *d
	cp.Path = path
	return &cp
}

// WithSuggestion returns a copy of d with a suggestion attached.
func (d *Diagnostic) WithSuggestion(format string, args ...interface{}) *Diagnostic {
	cp := *d
	cp.Suggestion = fmt.Sprintf(format, args...)
	return &cp
}

// Stream is an ordered, append-only diagnostic log shared across a
// TypecheckModules run (spec.md §6, §7: "local-recover, global-report").
type Stream struct {
	items []*Diagnostic
}

// Add appends a diagnostic to the stream (nil is ignored, for terse
// `stream.Add(checkFoo(...))`-style call sites).
func (s *Stream) Add(d *Diagnostic) {
	if d == nil {
		return
	}
	s.items = append(s.items, d)
}

// Extend appends every diagnostic from another stream.
func (s *Stream) Extend(other *Stream) {
	if other == nil {
		return
	}
	s.items = append(s.items, other.items...)
}

// All returns the diagnostics in emission order.
func (s *Stream) All() []*Diagnostic { return s.items }

// Len reports how many diagnostics are in the stream.
func (s *Stream) Len() int { return len(s.items) }

// HasError reports whether any diagnostic in the stream is error-severity;
// gates subsequent phases per spec.md §4.11.
func (s *Stream) HasError() bool {
	for _, d := range s.items {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Errors returns only the error-severity diagnostics.
func (s *Stream) Errors() []*Diagnostic {
	var out []*Diagnostic
	for _, d := range s.items {
		if d.Severity == Error {
			out = append(out, d)
		}
	}
	return out
}

func (s *Stream) Error() string {
	if len(s.items) == 0 {
		return "no diagnostics"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d diagnostic(s):", len(s.items))
	for i, d := range s.items {
		fmt.Fprintf(&b, "\n[%d] %s", i+1, d.String())
	}
	return b.String()
}
