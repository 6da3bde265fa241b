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
	"gonum.org/v1/gonum/graph/topo"

	"github.com/ariadne-tools/ariadne/analysis/config"
	"github.com/ariadne-tools/ariadne/internal/funcutil"
	"github.com/ariadne-tools/ariadne/internal/graphutil"
)

// The ArgToArg findings of a signature form a directed graph over argument positions.
// Cycles in that graph are recursive propagation chains: exactly the shapes on which a
// fixpoint with an unbounded representative would fail to terminate, so the runner
// surfaces them as diagnostics.

// PropagationGraph builds the argument-propagation graph of the signature.
func PropagationGraph(sig Signature) graphutil.LGraph[Arg] {
	var edges [][2]Arg
	for _, f := range sig {
		if prop, ok := f.(ArgToArg); ok {
			edges = append(edges, [2]Arg{prop.From, prop.To})
		}
	}
	return graphutil.FromEdges(edges)
}

// PropagationCycles enumerates the elementary cycles of the signature's
// argument-propagation graph.
func PropagationCycles(sig Signature) [][]Arg {
	g := PropagationGraph(sig)
	var cycles [][]Arg
	for _, cycle := range graphutil.FindAllElementaryCycles(g) {
		args := make([]Arg, len(cycle))
		for i, id := range cycle {
			args[i] = g.Labels[id]
		}
		cycles = append(cycles, args)
	}
	return cycles
}

// PropagationComponents returns the strongly connected components of the signature's
// argument-propagation graph, in topological order of the condensation. TarjanSCC
// emits components successors-first, so the result is reversed.
func PropagationComponents(sig Signature) [][]Arg {
	g := PropagationGraph(sig)
	if g.Order() == 0 {
		return nil
	}
	var components [][]Arg
	for _, scc := range topo.TarjanSCC(g) {
		args := make([]Arg, len(scc))
		for i, node := range scc {
			args[i] = node.(graphutil.LNode[Arg]).Label
		}
		components = append(components, args)
	}
	funcutil.Reverse(components)
	return components
}

// RequiresComponents groups the labels of the rule's sources by the strongly connected
// components of their requires-dependency graph: an edge goes from a source's label to
// every label its requires formula mentions. A component of size > 1 (or a label
// depending on itself) means mutually recursive requires clauses, which can never all
// discharge.
func RequiresComponents(rule config.RuleSpec) [][]string {
	deps := map[string]map[string]bool{}
	var labels []string
	for _, rs := range rule.Sources {
		if _, seen := deps[rs.Label]; !seen {
			labels = append(labels, rs.Label)
			deps[rs.Label] = map[string]bool{}
		}
		if rs.Requires == "" {
			continue
		}
		formula := ExprToPrecondition(rs.RequiresExpr(), logger())
		deps[rs.Label] = funcutil.Union(deps[rs.Label], formulaLabels(formula))
	}
	return graphutil.StronglyConnectedComponents(labels, func(l string) []string {
		return funcutil.SetToOrderedSlice(deps[l])
	})
}

// ApplyPropagators relabels the source taints of s through the rule's propagators:
// a source currently carrying a propagator's From label continues with its To label.
// The trace, precondition and tokens of the taint are untouched, so the origin keeps
// pointing at the rule source where the taint was born. Arg taints never relabel.
func ApplyPropagators(rule config.RuleSpec, s Set) Set {
	return s.Map(func(t Taint) Taint {
		src, ok := t.Orig.(*Source)
		if !ok {
			return t
		}
		for _, prop := range rule.Propagators {
			if prop.From == src.Label {
				relabeled := &Source{Trace: src.Trace, Label: prop.To, Precondition: src.Precondition}
				return Taint{Orig: relabeled, Tokens: t.Tokens}
			}
		}
		return t
	})
}

func formulaLabels(p Precondition) map[string]bool {
	switch formula := p.(type) {
	case Label:
		return map[string]bool{formula.Name: true}
	case And:
		names := map[string]bool{}
		for _, c := range formula.Conjuncts {
			names = funcutil.Union(names, formulaLabels(c))
		}
		return names
	case Or:
		names := map[string]bool{}
		for _, d := range formula.Disjuncts {
			names = funcutil.Union(names, formulaLabels(d))
		}
		return names
	case Not:
		return formulaLabels(formula.Negated)
	default:
		return nil
	}
}
