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

	"github.com/ariadne-tools/ariadne/analysis/config"
	"github.com/ariadne-tools/ariadne/internal/funcutil"
)

// A Sink is a sink pattern match paired with the rule-level sink it instantiates.
type Sink struct {
	Match *Match
	Spec  *config.TaintSink
}

func (s Sink) String() string {
	return fmt.Sprintf("sink(%s, %s)", s.Spec.ID, s.Match)
}

// A SinkTaint is one taint that reached a sink, with the sink-side call trace recording
// how the sink itself was reached.
type SinkTaint struct {
	Taint Taint
	Trace Trace[*config.TaintSink]
}

// A TaintsToSink records a set of taints reaching a sink: the contributing taints with
// their sink-side traces, the precondition under which the whole set reaches the sink,
// the sink, and the metavariable bindings merged across all contributing matches.
type TaintsToSink struct {
	Taints   []SinkTaint
	Requires Precondition
	Sink     Sink
	Env      Bindings
}

// MergedEnv folds the environments of the sink match and of every contributing source
// match into one. Earlier bindings win conflicts.
func MergedEnv(sink Sink, taints []SinkTaint) Bindings {
	return funcutil.Fold(taints, sink.Match.Env, func(env Bindings, st SinkTaint) Bindings {
		if src, ok := st.Taint.Orig.(*Source); ok {
			m, _ := PMOf[*config.TaintSource](src.Trace)
			return MergeBindings(env, m.Env)
		}
		return env
	})
}

// A Finding is one unit of a taint summary. The variant set is closed:
// ToSink, ToReturn, ArgToArg.
type Finding interface {
	isFinding()
	String() string
}

// ToSink is a taint-reaches-sink finding.
type ToSink struct {
	Flow TaintsToSink
}

// ToReturn records taints reaching a return site.
type ToReturn struct {
	Taints []Taint
	Token  Token
}

// ArgToArg records taint propagating from one symbolic argument to another.
type ArgToArg struct {
	From   Arg
	To     Arg
	Tokens []Token
}

func (ToSink) isFinding()   {}
func (ToReturn) isFinding() {}
func (ArgToArg) isFinding() {}

func (f ToSink) String() string {
	return fmt.Sprintf("%d taint(s) reach %s", len(f.Flow.Taints), f.Flow.Sink)
}

func (f ToReturn) String() string {
	return fmt.Sprintf("%d taint(s) reach return at %s", len(f.Taints), f.Token.Range)
}

func (f ArgToArg) String() string {
	return fmt.Sprintf("%s flows to %s", f.From, f.To)
}

// A Signature is the complete taint summary of an analysis unit: the findings an
// interprocedural analysis computes per function and later instantiates at call sites.
type Signature []Finding

// SinksReached returns the ToSink findings of the signature.
func (sig Signature) SinksReached() []ToSink {
	var sinks []ToSink
	for _, f := range sig {
		if ts, ok := f.(ToSink); ok {
			sinks = append(sinks, ts)
		}
	}
	return sinks
}

// SrcOfPM builds the source born at a pattern match. The rule source's requires clause
// is compiled into a precondition; when the formula is the literal true the
// precondition is dropped entirely (nil, the unconditionally-active fast path),
// otherwise it captures the incoming taints the formula will be discharged against.
func SrcOfPM(incoming Set, m *Match, rs *config.TaintSource) *Source {
	src := &Source{
		Trace: TraceOfPM(m, rs),
		Label: rs.Label,
	}
	if rs.Requires == "" {
		return src
	}
	formula := ExprToPrecondition(rs.RequiresExpr(), logger())
	if b, ok := formula.(Bool); ok && b.Value {
		return src
	}
	src.Precondition = &SourcePrecondition{
		Taints:  incoming.Elements(),
		Formula: formula,
	}
	return src
}

// TaintOfPM lifts a source pattern match into a taint with empty accumulated tokens.
func TaintOfPM(incoming Set, m *Match, rs *config.TaintSource) Taint {
	return Taint{Orig: SrcOfPM(incoming, m, rs)}
}

// A SourceMatch pairs a pattern match with the rule source it instantiates.
type SourceMatch struct {
	Match  *Match
	Source *config.TaintSource
}

// TaintsOfPMs lifts the matches into a taint set.
func TaintsOfPMs(incoming Set, pms []SourceMatch) Set {
	s := NewSet()
	for _, pm := range pms {
		s = s.Add(TaintOfPM(incoming, pm.Match, pm.Source))
	}
	return s
}

// SubstitutePreconditionArgTaints replaces every Arg taint appearing inside a
// precondition's incoming-taint list with the taints argFn produces for it, recursively
// through nested preconditions. A bare top-level Arg taint is returned unchanged:
// substitution concretizes the arguments a precondition depends on, never the taint
// being processed itself, so a taint cannot erase itself when argFn maps an argument to
// the empty list.
func SubstitutePreconditionArgTaints(argFn func(Arg) []Taint, t Taint) []Taint {
	switch orig := t.Orig.(type) {
	case Arg:
		return []Taint{t}
	case *Source:
		if orig.Precondition == nil {
			return []Taint{t}
		}
		incoming := funcutil.FlatMap(orig.Precondition.Taints, func(in Taint) []Taint {
			if arg, ok := in.Orig.(Arg); ok {
				return argFn(arg)
			}
			return SubstitutePreconditionArgTaints(argFn, in)
		})
		if incoming == nil {
			incoming = []Taint{}
		}
		substituted := &Source{
			Trace: orig.Trace,
			Label: orig.Label,
			Precondition: &SourcePrecondition{
				Taints:  incoming,
				Formula: orig.Precondition.Formula,
			},
		}
		return []Taint{{Orig: substituted, Tokens: t.Tokens}}
	default:
		return []Taint{t}
	}
}
