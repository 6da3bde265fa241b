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
	"sort"
	"strings"

	"github.com/ariadne-tools/ariadne/internal/funcutil"
)

// A Position is a point in an analyzed source file.
type Position struct {
	Line   int
	Col    int
	Offset int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// comparePositions orders positions by offset, falling back to (line, col) when the
// front-end did not supply offsets.
func comparePositions(a Position, b Position) int {
	if c := a.Offset - b.Offset; c != 0 {
		return sign(c)
	}
	if c := a.Line - b.Line; c != 0 {
		return sign(c)
	}
	return sign(a.Col - b.Col)
}

// A Range is a span in an analyzed source file.
type Range struct {
	Start Position
	End   Position
}

func (r Range) String() string {
	return fmt.Sprintf("%s-%s", r.Start, r.End)
}

// CompareRanges orders ranges by start position, then end position.
func CompareRanges(a Range, b Range) int {
	if c := comparePositions(a.Start, b.Start); c != 0 {
		return c
	}
	return comparePositions(a.End, b.End)
}

// A Token is one source-location token: the literal text span at a range. Tokens
// accumulate on taints during propagation and are ordered for trace display;
// duplicates are allowed.
type Token struct {
	Text  string
	Range Range
}

func (t Token) String() string {
	return fmt.Sprintf("%q@%s", t.Text, t.Range)
}

// Bindings is a metavariable environment: the bindings a pattern match assigned to its
// metavariables.
type Bindings map[string]string

// compareBindings gives a total order on environments: lexicographic on the sorted
// (key, value) sequences.
func compareBindings(a Bindings, b Bindings) int {
	ka := sortedKeys(a)
	kb := sortedKeys(b)
	for i := 0; i < len(ka) && i < len(kb); i++ {
		if c := strings.Compare(ka[i], kb[i]); c != 0 {
			return c
		}
		if c := strings.Compare(a[ka[i]], b[kb[i]]); c != 0 {
			return c
		}
	}
	return sign(len(ka) - len(kb))
}

func sortedKeys(b Bindings) []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MergeBindings returns a new environment with the bindings of both arguments. On a
// conflicting metavariable the receiver's binding is kept. Neither input is modified.
func MergeBindings(a Bindings, b Bindings) Bindings {
	merged := make(Bindings, len(a)+len(b))
	for k, v := range a {
		merged[k] = v
	}
	funcutil.Merge(merged, b, func(x string, _ string) string { return x })
	return merged
}

// A Match is a pattern-match record handed over by the pattern-matching front-end: the
// rule pattern that matched, where, and with which metavariable bindings. The token list
// of a match can be expensive to compute, so the front-end provides it as a thunk and
// the match memoizes it.
type Match struct {
	// RuleID identifies the rule pattern this match comes from
	RuleID string

	// Range is the source span of the match
	Range Range

	// Env is the metavariable environment of the match
	Env Bindings

	// TokensFn computes the tokens of the matched span; may be nil when the front-end
	// has none to offer
	TokensFn func() []Token

	tokens funcutil.Optional[[]Token]
}

// NewMatch returns a match with a lazily-computed token list.
func NewMatch(ruleID string, rng Range, env Bindings, tokensFn func() []Token) *Match {
	return &Match{
		RuleID:   ruleID,
		Range:    rng,
		Env:      env,
		TokensFn: tokensFn,
		tokens:   funcutil.None[[]Token](),
	}
}

// Tokens returns the tokens of the matched span, computing them on first use.
func (m *Match) Tokens() []Token {
	if m.tokens == nil || m.tokens.IsNone() {
		var ts []Token
		if m.TokensFn != nil {
			ts = m.TokensFn()
		}
		m.tokens = funcutil.Some(ts)
	}
	return m.tokens.Value()
}

func (m *Match) String() string {
	return fmt.Sprintf("<match %s at %s>", m.RuleID, m.Range)
}

// CompareMatches gives a total order on matches: by rule identifier, then source range,
// then metavariable environment. The token list is not part of the key.
func CompareMatches(a *Match, b *Match) int {
	if c := strings.Compare(a.RuleID, b.RuleID); c != 0 {
		return c
	}
	if c := CompareRanges(a.Range, b.Range); c != 0 {
		return c
	}
	return compareBindings(a.Env, b.Env)
}

func sign(c int) int {
	if c < 0 {
		return -1
	}
	if c > 0 {
		return 1
	}
	return 0
}
