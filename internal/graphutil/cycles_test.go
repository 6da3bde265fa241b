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

package graphutil_test

import (
	"sort"
	"strings"
	"testing"

	"golang.org/x/exp/slices"

	"github.com/ariadne-tools/ariadne/internal/funcutil"
	"github.com/ariadne-tools/ariadne/internal/graphutil"
)

// cycleStrings canonicalizes each cycle to a label string, rotated so the smallest
// label comes first, and returns the sorted list.
func cycleStrings(g graphutil.LGraph[string], cycles [][]int64) []string {
	results := funcutil.Map(cycles, func(cycle []int64) string {
		// Drop the repeated closing node, then rotate.
		open := cycle[:len(cycle)-1]
		labels := funcutil.Map(open, func(id int64) string { return g.Labels[id] })
		best := 0
		for i := range labels {
			if labels[i] < labels[best] {
				best = i
			}
		}
		rotated := append(append([]string{}, labels[best:]...), labels[:best]...)
		return strings.Join(rotated, "")
	})
	sort.Strings(results)
	return results
}

func checkCycles(t *testing.T, edges [][2]string, want []string) {
	t.Helper()
	g := graphutil.FromEdges(edges)
	got := cycleStrings(g, graphutil.FindAllElementaryCycles(g))
	if !slices.Equal(got, want) {
		t.Errorf("got cycles %v, want %v", got, want)
	}
}

func TestFindAllElementaryCyclesAcyclic(t *testing.T) {
	checkCycles(t, [][2]string{
		{"a", "b"},
		{"a", "c"},
		{"b", "d"},
		{"c", "d"},
	}, []string{})
}

func TestFindAllElementaryCyclesTriangle(t *testing.T) {
	checkCycles(t, [][2]string{
		{"a", "b"},
		{"b", "c"},
		{"c", "a"},
	}, []string{"abc"})
}

func TestFindAllElementaryCyclesSelfLoop(t *testing.T) {
	checkCycles(t, [][2]string{
		{"a", "a"},
		{"a", "b"},
	}, []string{"a"})
}

func TestFindAllElementaryCyclesSharedNode(t *testing.T) {
	// Two elementary cycles through b.
	checkCycles(t, [][2]string{
		{"a", "b"},
		{"b", "a"},
		{"b", "c"},
		{"c", "b"},
	}, []string{"ab", "bc"})
}

func TestFindAllElementaryCyclesDisjoint(t *testing.T) {
	checkCycles(t, [][2]string{
		{"a", "b"},
		{"b", "a"},
		{"c", "d"},
		{"d", "e"},
		{"e", "c"},
		{"e", "f"},
	}, []string{"ab", "cde"})
}

func TestFindAllElementaryCyclesComplete(t *testing.T) {
	// K3 has two 3-cycles and three 2-cycles.
	checkCycles(t, [][2]string{
		{"a", "b"}, {"b", "a"},
		{"b", "c"}, {"c", "b"},
		{"a", "c"}, {"c", "a"},
	}, []string{"ab", "abc", "ac", "acb", "bc"})
}
