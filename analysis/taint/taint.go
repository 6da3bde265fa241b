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
	"strings"

	"github.com/ariadne-tools/ariadne/analysis/config"
)

// An Origin identifies where a taint comes from: either a symbolic function argument
// (Arg) whose taint is not yet known, or a concrete source in the analyzed program
// (*Source). The variant set is closed and matched exhaustively.
type Origin interface {
	isOrigin()
	String() string
}

// Arg is a symbolic function-parameter taint: the parameter's name and position, plus
// the access path of the tainted member when only part of the argument is tainted.
type Arg struct {
	// Name is the parameter name
	Name string

	// Index is the position of the parameter
	Index int

	// Path is the field/member access path into the parameter, "" for the whole value.
	// Path is NOT part of the comparison key (see CompareOrigins).
	Path string
}

func (Arg) isOrigin() {}

func (a Arg) String() string {
	return fmt.Sprintf("arg(%s#%d)%s", a.Name, a.Index, a.Path)
}

// A Source is a concrete taint source: the call trace that reached the source pattern,
// the label the taint currently carries, and the precondition under which it is active.
//
// Label may diverge from the label of the rule source at the trace's origin when a
// propagator relabeled the taint on the way.
type Source struct {
	// Trace records how the source pattern was reached
	Trace Trace[*config.TaintSource]

	// Label is the label the taint currently carries
	Label string

	// Precondition gates the source; nil means unconditionally active, i.e. Bool{true}
	Precondition *SourcePrecondition
}

func (*Source) isOrigin() {}

func (s *Source) String() string {
	m, _ := PMOf[*config.TaintSource](s.Trace)
	if s.Precondition == nil {
		return fmt.Sprintf("src(%s, %s)", s.Label, m)
	}
	return fmt.Sprintf("src(%s, %s, requires %s)", s.Label, m, s.Precondition.Formula)
}

// A SourcePrecondition pairs the formula of a source's requires clause with the taints
// that were incoming when the source matched; those taints supply the labels the
// formula is discharged against.
type SourcePrecondition struct {
	// Taints is the incoming taint list captured at the source
	Taints []Taint

	// Formula is the requires formula
	Formula Precondition
}

// A Taint is the unit of dataflow state: an origin plus the tokens accumulated along
// propagation so far. Tokens here are distinct from the tokens recorded inside the call
// trace; they grow as the taint moves. Taints are immutable values; propagation builds
// new ones.
type Taint struct {
	Orig   Origin
	Tokens []Token
}

func (t Taint) String() string {
	if len(t.Tokens) == 0 {
		return t.Orig.String()
	}
	parts := make([]string, len(t.Tokens))
	for i, tok := range t.Tokens {
		parts[i] = tok.Text
	}
	return fmt.Sprintf("%s via [%s]", t.Orig, strings.Join(parts, " "))
}

// Compare is the strict total order on taints used to key taint sets. It orders by
// origin and nothing else: two taints with equal origins compare equal regardless of
// accumulated tokens (the set keeps one representative per origin, see pick).
func Compare(a Taint, b Taint) int {
	return CompareOrigins(a.Orig, b.Orig)
}

// CompareOrigins is the strict total order on origins:
//
//   - Arg sorts before *Source (fixed convention for determinism);
//   - two Args compare by (Name, Index); the access Path is deliberately not part of
//     the key, so two args differing only by path compare equal; confirm against
//     integration tests before relying on path-sensitivity here;
//   - two Sources compare by rule identifier, range and environment of the underlying
//     match, then current label, then the originating rule source's label, and only
//     when all of those tie by the precondition.
func CompareOrigins(a Origin, b Origin) int {
	switch oa := a.(type) {
	case Arg:
		ob, ok := b.(Arg)
		if !ok {
			return -1
		}
		if c := strings.Compare(oa.Name, ob.Name); c != 0 {
			return c
		}
		return sign(oa.Index - ob.Index)
	case *Source:
		ob, ok := b.(*Source)
		if !ok {
			return 1
		}
		return compareSources(oa, ob)
	default:
		// unreachable: the variant set is closed
		return 0
	}
}

func compareSources(a *Source, b *Source) int {
	ma, ra := PMOf[*config.TaintSource](a.Trace)
	mb, rb := PMOf[*config.TaintSource](b.Trace)
	if c := CompareMatches(ma, mb); c != 0 {
		return c
	}
	if c := strings.Compare(a.Label, b.Label); c != 0 {
		return c
	}
	if c := strings.Compare(ra.Label, rb.Label); c != 0 {
		return c
	}
	// Without this final tie-break, two taints carrying the same label but mutually
	// exclusive activation conditions would collapse into one, discarding a reachable
	// label state.
	return comparePreconditionPairs(a.Precondition, b.Precondition)
}

func comparePreconditionPairs(a *SourcePrecondition, b *SourcePrecondition) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	if c := compareTaintLists(a.Taints, b.Taints); c != 0 {
		return c
	}
	return ComparePreconditions(a.Formula, b.Formula)
}

func compareTaintLists(a []Taint, b []Taint) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return sign(len(a) - len(b))
}

// pick selects the representative when two taints collapse to the same origin in a set.
// For sources the shorter call trace wins, then the fewer accumulated tokens; remaining
// ties keep b. Bounding the kept trace is what guarantees fixpoint termination on
// recursive call patterns, not a display concern.
func pick(a Taint, b Taint) Taint {
	switch oa := a.Orig.(type) {
	case Arg:
		if _, ok := b.Orig.(Arg); ok {
			return b
		}
	case *Source:
		if ob, ok := b.Orig.(*Source); ok {
			if c := oa.Trace.Length() - ob.Trace.Length(); c != 0 {
				if c < 0 {
					return a
				}
				return b
			}
			if len(a.Tokens) < len(b.Tokens) {
				return a
			}
			return b
		}
	}
	// a and b only reach pick with equal origins, hence the same variant
	logger().Errorf("internal consistency: pick called on origins %s and %s of different kinds", a.Orig, b.Orig)
	return b
}
