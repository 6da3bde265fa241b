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
	"go/ast"
	"go/parser"
	"reflect"
	"testing"

	set "github.com/hashicorp/go-set"
)

func parseFormula(t *testing.T, clause string) Precondition {
	t.Helper()
	e, err := parser.ParseExpr(clause)
	if err != nil {
		t.Fatalf("could not parse %q: %v", clause, err)
	}
	return ExprToPrecondition(e, quietLogger())
}

func checkFormula(t *testing.T, clause string, want Precondition) {
	t.Helper()
	got := parseFormula(t, clause)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("formula of %q: got %v, want %v", clause, got, want)
	}
}

func TestExprToPreconditionLiterals(t *testing.T) {
	checkFormula(t, "true", Bool{Value: true})
	checkFormula(t, "false", Bool{Value: false})
	checkFormula(t, "user_input", Label{Name: "user_input"})
}

func TestExprToPreconditionConnectives(t *testing.T) {
	checkFormula(t, "a && b", And{Conjuncts: []Precondition{Label{Name: "a"}, Label{Name: "b"}}})
	checkFormula(t, "!a", Not{Negated: Label{Name: "a"}})
	checkFormula(t, "a || (b && !c)", Or{Disjuncts: []Precondition{
		Label{Name: "a"},
		And{Conjuncts: []Precondition{
			Label{Name: "b"},
			Not{Negated: Label{Name: "c"}},
		}},
	}})
}

func TestExprToPreconditionParensAreTransparent(t *testing.T) {
	checkFormula(t, "((a))", Label{Name: "a"})
	checkFormula(t, "(a && b) || c", Or{Disjuncts: []Precondition{
		And{Conjuncts: []Precondition{Label{Name: "a"}, Label{Name: "b"}}},
		Label{Name: "c"},
	}})
}

func TestExprToPreconditionDegradesToFalse(t *testing.T) {
	if got := ExprToPrecondition(nil, quietLogger()); !reflect.DeepEqual(got, Bool{Value: false}) {
		t.Errorf("nil expression: got %v, want false", got)
	}
	// Shapes outside the formula grammar must never abort, only deactivate.
	checkFormula(t, "a + b", Bool{Value: false})
	checkFormula(t, "-a", Bool{Value: false})
	checkFormula(t, "f(x)", Bool{Value: false})
	checkFormula(t, "a == b", Bool{Value: false})
}

func TestExprToPreconditionDegradesSubformulaOnly(t *testing.T) {
	checkFormula(t, "a && (b + c)", And{Conjuncts: []Precondition{
		Label{Name: "a"},
		Bool{Value: false},
	}})
}

func callArgs(t *testing.T, call string) ([]ast.Expr, bool) {
	t.Helper()
	e, err := parser.ParseExpr(call)
	if err != nil {
		t.Fatalf("could not parse %q: %v", call, err)
	}
	c, ok := e.(*ast.CallExpr)
	if !ok {
		t.Fatalf("%q is not a call", call)
	}
	return c.Args, c.Ellipsis.IsValid()
}

func TestArgsToPrecondition(t *testing.T) {
	args, ellipsis := callArgs(t, "f(a, true, b && c)")
	got := ArgsToPrecondition(args, ellipsis, quietLogger())
	want := []Precondition{
		Label{Name: "a"},
		Bool{Value: true},
		And{Conjuncts: []Precondition{Label{Name: "b"}, Label{Name: "c"}}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestArgsToPreconditionSpreadIsFalse(t *testing.T) {
	args, ellipsis := callArgs(t, "f(a, xs...)")
	got := ArgsToPrecondition(args, ellipsis, quietLogger())
	want := []Precondition{Label{Name: "a"}, Bool{Value: false}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestArgsToPreconditionKeyValueIsFalse(t *testing.T) {
	args := []ast.Expr{
		ast.NewIdent("a"),
		&ast.KeyValueExpr{Key: ast.NewIdent("k"), Value: ast.NewIdent("v")},
	}
	got := ArgsToPrecondition(args, false, quietLogger())
	want := []Precondition{Label{Name: "a"}, Bool{Value: false}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestEvalPrecondition(t *testing.T) {
	labels := set.From([]string{"a", "b"})
	checkEval := func(clause string, want bool) {
		t.Helper()
		if got := EvalPrecondition(parseFormula(t, clause), labels); got != want {
			t.Errorf("eval of %q against {a, b}: got %v, want %v", clause, got, want)
		}
	}
	checkEval("true", true)
	checkEval("false", false)
	checkEval("a", true)
	checkEval("c", false)
	checkEval("a && b", true)
	checkEval("a && c", false)
	checkEval("a || c", true)
	checkEval("!c", true)
	checkEval("!(a && b)", false)
	checkEval("a && (b || c)", true)
}

func TestComparePreconditionsRanks(t *testing.T) {
	// Bool < Label < And < Or < Not
	ordered := []Precondition{
		Bool{Value: false},
		Bool{Value: true},
		Label{Name: "a"},
		Label{Name: "b"},
		And{Conjuncts: []Precondition{Label{Name: "a"}}},
		And{Conjuncts: []Precondition{Label{Name: "a"}, Label{Name: "b"}}},
		Or{Disjuncts: []Precondition{Label{Name: "a"}}},
		Not{Negated: Label{Name: "a"}},
	}
	for i := 0; i < len(ordered); i++ {
		if ComparePreconditions(ordered[i], ordered[i]) != 0 {
			t.Errorf("formula %d does not compare equal to itself", i)
		}
		for j := i + 1; j < len(ordered); j++ {
			if ComparePreconditions(ordered[i], ordered[j]) >= 0 {
				t.Errorf("expected formula %d before formula %d", i, j)
			}
			if ComparePreconditions(ordered[j], ordered[i]) <= 0 {
				t.Errorf("expected formula %d after formula %d", j, i)
			}
		}
	}
}
