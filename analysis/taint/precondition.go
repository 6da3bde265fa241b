// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package taint

import (
	"fmt"
	"go/ast"
	"go/token"
	"strings"

	"github.com/ariadne-tools/ariadne/analysis/config"
	"github.com/ariadne-tools/ariadne/internal/funcutil"
	set "github.com/hashicorp/go-set"
	"golang.org/x/tools/go/ast/astutil"
)

// A Precondition is a boolean formula over labels gating whether a source's taint is
// active. Formulas are built from the requires clause of a rule source and discharged
// against the labels carried by the taints reaching the same point.
type Precondition interface {
	isPrecondition()
	String() string
}

// Label is a reference to the label of another source.
type Label struct {
	Name string
}

// Bool is a constant formula.
type Bool struct {
	Value bool
}

// And is the conjunction of its conjuncts.
type And struct {
	Conjuncts []Precondition
}

// Or is the disjunction of its disjuncts.
type Or struct {
	Disjuncts []Precondition
}

// Not is the negation of a formula.
type Not struct {
	Negated Precondition
}

func (Label) isPrecondition() {}
func (Bool) isPrecondition()  {}
func (And) isPrecondition()   {}
func (Or) isPrecondition()    {}
func (Not) isPrecondition()   {}

func (p Label) String() string { return p.Name }

func (p Bool) String() string {
	if p.Value {
		return "true"
	}
	return "false"
}

func (p And) String() string {
	return "(" + strings.Join(funcutil.Map(p.Conjuncts, Precondition.String), " && ") + ")"
}

func (p Or) String() string {
	return "(" + strings.Join(funcutil.Map(p.Disjuncts, Precondition.String), " || ") + ")"
}

func (p Not) String() string { return "!" + p.Negated.String() }

// ExprToPrecondition converts a boolean expression into a precondition formula.
// Recognized shapes: the true/false literals, identifiers (labels), unary negation,
// binary && and ||, and parenthesization (transparent). Any other shape degrades to
// Bool{false} with an error log: a malformed requires clause must never abort the
// analysis, it makes the source conservatively inactive instead.
func ExprToPrecondition(e ast.Expr, logger *config.LogGroup) Precondition {
	if e == nil {
		logger.Errorf("no requires expression, treating precondition as false")
		return Bool{Value: false}
	}
	switch expr := astutil.Unparen(e).(type) {
	case *ast.Ident:
		switch expr.Name {
		case "true":
			return Bool{Value: true}
		case "false":
			return Bool{Value: false}
		default:
			return Label{Name: expr.Name}
		}
	case *ast.UnaryExpr:
		if expr.Op == token.NOT {
			return Not{Negated: ExprToPrecondition(expr.X, logger)}
		}
		logger.Errorf("unsupported operator %q in requires expression, treating precondition as false", expr.Op)
		return Bool{Value: false}
	case *ast.BinaryExpr:
		switch expr.Op {
		case token.LAND:
			return And{Conjuncts: []Precondition{
				ExprToPrecondition(expr.X, logger),
				ExprToPrecondition(expr.Y, logger),
			}}
		case token.LOR:
			return Or{Disjuncts: []Precondition{
				ExprToPrecondition(expr.X, logger),
				ExprToPrecondition(expr.Y, logger),
			}}
		default:
			logger.Errorf("unsupported operator %q in requires expression, treating precondition as false", expr.Op)
			return Bool{Value: false}
		}
	default:
		logger.Errorf("unsupported requires expression %s, treating precondition as false", exprText(e))
		return Bool{Value: false}
	}
}

// ArgsToPrecondition maps a call's argument list positionally into sub-formulas. A
// non-value argument form (spread, key-value) degrades to Bool{false} at its position
// with an error log, the other positions are unaffected.
func ArgsToPrecondition(args []ast.Expr, hasEllipsis bool, logger *config.LogGroup) []Precondition {
	formulas := make([]Precondition, 0, len(args))
	for i, arg := range args {
		if _, isKv := arg.(*ast.KeyValueExpr); isKv || (hasEllipsis && i == len(args)-1) {
			logger.Errorf("non-value argument %s in requires position %d, substituting false", exprText(arg), i)
			formulas = append(formulas, Bool{Value: false})
			continue
		}
		formulas = append(formulas, ExprToPrecondition(arg, logger))
	}
	return formulas
}

// EvalPrecondition discharges a formula against the set of labels carried by the taints
// reaching the same point.
func EvalPrecondition(p Precondition, labels *set.Set[string]) bool {
	switch formula := p.(type) {
	case Label:
		return labels.Contains(formula.Name)
	case Bool:
		return formula.Value
	case And:
		for _, conjunct := range formula.Conjuncts {
			if !EvalPrecondition(conjunct, labels) {
				return false
			}
		}
		return true
	case Or:
		for _, disjunct := range formula.Disjuncts {
			if EvalPrecondition(disjunct, labels) {
				return true
			}
		}
		return false
	case Not:
		return !EvalPrecondition(formula.Negated, labels)
	default:
		return false
	}
}

// ComparePreconditions gives a structural total order on formulas. Variants rank
// Bool < Label < And < Or < Not; lists compare element-wise, then by length.
func ComparePreconditions(a Precondition, b Precondition) int {
	if c := preconditionRank(a) - preconditionRank(b); c != 0 {
		return sign(c)
	}
	switch fa := a.(type) {
	case Bool:
		fb := b.(Bool)
		return sign(boolToInt(fa.Value) - boolToInt(fb.Value))
	case Label:
		fb := b.(Label)
		return strings.Compare(fa.Name, fb.Name)
	case And:
		fb := b.(And)
		return comparePreconditionLists(fa.Conjuncts, fb.Conjuncts)
	case Or:
		fb := b.(Or)
		return comparePreconditionLists(fa.Disjuncts, fb.Disjuncts)
	case Not:
		fb := b.(Not)
		return ComparePreconditions(fa.Negated, fb.Negated)
	default:
		return 0
	}
}

func comparePreconditionLists(a []Precondition, b []Precondition) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := ComparePreconditions(a[i], b[i]); c != 0 {
			return c
		}
	}
	return sign(len(a) - len(b))
}

func preconditionRank(p Precondition) int {
	switch p.(type) {
	case Bool:
		return 0
	case Label:
		return 1
	case And:
		return 2
	case Or:
		return 3
	case Not:
		return 4
	default:
		return 5
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func exprText(e ast.Expr) string {
	return fmt.Sprintf("%T", e)
}
