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
	"reflect"
	"testing"

	"github.com/ariadne-tools/ariadne/analysis/config"
)

const findingRules = `
rules:
  - id: r1
    sources:
      - label: a
        requires: "true"
      - label: b
        requires: "a && c"
      - label: c
        requires: "a +"
      - label: d
    sinks:
      - id: s1
        requires: "a || b"
`

func compiledRule(t *testing.T) config.RuleSpec {
	t.Helper()
	cfg, err := config.Parse([]byte(findingRules))
	if err != nil {
		t.Fatalf("could not parse rules: %v", err)
	}
	return cfg.Rules[0]
}

func TestSrcOfPMEmptyRequiresIsUnconditional(t *testing.T) {
	rule := compiledRule(t)
	src := SrcOfPM(NewSet(), matchAt("r1", 1), rule.Sources[3])
	if src.Precondition != nil {
		t.Errorf("expected no precondition, got %v", src.Precondition)
	}
	if src.Label != "d" {
		t.Errorf("expected label d, got %s", src.Label)
	}
}

func TestSrcOfPMTrueRequiresIsUnconditional(t *testing.T) {
	rule := compiledRule(t)
	src := SrcOfPM(NewSet(), matchAt("r1", 1), rule.Sources[0])
	if src.Precondition != nil {
		t.Errorf("a literally true requires clause must drop the precondition, got %v",
			src.Precondition)
	}
}

func TestSrcOfPMCapturesIncomingTaints(t *testing.T) {
	rule := compiledRule(t)
	incoming := OfTaints(
		Taint{Orig: Arg{Name: "x", Index: 0}},
		Taint{Orig: srcAt("other", 2, "a")},
	)
	src := SrcOfPM(incoming, matchAt("r1", 5), rule.Sources[1])
	if src.Precondition == nil {
		t.Fatal("expected a precondition")
	}
	want := And{Conjuncts: []Precondition{Label{Name: "a"}, Label{Name: "c"}}}
	if !reflect.DeepEqual(src.Precondition.Formula, want) {
		t.Errorf("got formula %v, want %v", src.Precondition.Formula, want)
	}
	if len(src.Precondition.Taints) != 2 {
		t.Errorf("expected 2 captured taints, got %d", len(src.Precondition.Taints))
	}
}

func TestSrcOfPMMalformedRequiresNeverActive(t *testing.T) {
	rule := compiledRule(t)
	rs := rule.Sources[2]
	if rs.RequiresErr() == nil {
		t.Fatal("expected a parse error on the malformed clause")
	}
	src := SrcOfPM(NewSet(), matchAt("r1", 1), rs)
	if src.Precondition == nil {
		t.Fatal("expected a precondition")
	}
	if !reflect.DeepEqual(src.Precondition.Formula, Bool{Value: false}) {
		t.Errorf("a malformed clause must degrade to false, got %v", src.Precondition.Formula)
	}
}

func TestTaintsOfPMs(t *testing.T) {
	rule := compiledRule(t)
	m := matchAt("r1", 3)
	s := TaintsOfPMs(NewSet(), []SourceMatch{
		{Match: m, Source: rule.Sources[0]},
		{Match: m, Source: rule.Sources[3]},
		{Match: m, Source: rule.Sources[3]},
	})
	if s.Size() != 2 {
		t.Errorf("expected 2 taints, got %d: %s", s.Size(), s)
	}
}

func TestMergedEnv(t *testing.T) {
	rule := compiledRule(t)
	sinkMatch := NewMatch("r1", Range{}, Bindings{"X": "sink"}, func() []Token { return nil })
	sink := Sink{Match: sinkMatch, Spec: rule.Sinks[0]}

	srcMatch := NewMatch("r1", Range{Start: Position{Line: 2}}, Bindings{"X": "src", "Y": "y"},
		func() []Token { return nil })
	taint := Taint{Orig: &Source{Trace: TraceOfPM(srcMatch, rule.Sources[3]), Label: "d"}}

	env := MergedEnv(sink, []SinkTaint{{Taint: taint, Trace: TraceOfPM(sinkMatch, rule.Sinks[0])}})
	if env["X"] != "sink" {
		t.Errorf("the sink binding must win, got X = %s", env["X"])
	}
	if env["Y"] != "y" {
		t.Errorf("source-only bindings must survive, got Y = %s", env["Y"])
	}
}

func TestSignatureSinksReached(t *testing.T) {
	rule := compiledRule(t)
	sink := Sink{Match: matchAt("r1", 9), Spec: rule.Sinks[0]}
	sig := Signature{
		ArgToArg{From: Arg{Name: "x"}, To: Arg{Name: "y"}},
		ToSink{Flow: TaintsToSink{Sink: sink}},
		ToReturn{Token: Token{Text: "ret"}},
		ToSink{Flow: TaintsToSink{Sink: sink}},
	}
	if got := len(sig.SinksReached()); got != 2 {
		t.Errorf("expected 2 sink findings, got %d", got)
	}
}

func TestSubstituteTopLevelArgUnchanged(t *testing.T) {
	x := Taint{Orig: Arg{Name: "x", Index: 0}}
	got := SubstitutePreconditionArgTaints(func(Arg) []Taint { return nil }, x)
	if len(got) != 1 || Compare(got[0], x) != 0 {
		t.Errorf("a bare arg taint must pass through unchanged, got %v", got)
	}
}

func TestSubstituteDoesNotEraseTheHost(t *testing.T) {
	host := &Source{
		Trace: TraceOfPM(matchAt("r1", 1), &config.TaintSource{Label: "a"}),
		Label: "a",
		Precondition: &SourcePrecondition{
			Taints:  []Taint{{Orig: Arg{Name: "x", Index: 0}}},
			Formula: Label{Name: "b"},
		},
	}
	got := SubstitutePreconditionArgTaints(func(Arg) []Taint { return nil },
		Taint{Orig: host, Tokens: []Token{{Text: "t"}}})
	if len(got) != 1 {
		t.Fatalf("the host taint must survive substitution, got %v", got)
	}
	sub := got[0].Orig.(*Source)
	if sub.Precondition == nil || len(sub.Precondition.Taints) != 0 {
		t.Errorf("expected an emptied incoming list, got %v", sub.Precondition)
	}
	if !reflect.DeepEqual(sub.Precondition.Formula, Label{Name: "b"}) {
		t.Errorf("the formula must be preserved, got %v", sub.Precondition.Formula)
	}
	if len(got[0].Tokens) != 1 {
		t.Errorf("the host tokens must be preserved, got %v", got[0].Tokens)
	}
}

func TestSubstituteExpandsArgs(t *testing.T) {
	host := &Source{
		Trace: TraceOfPM(matchAt("r1", 1), &config.TaintSource{Label: "a"}),
		Label: "a",
		Precondition: &SourcePrecondition{
			Taints: []Taint{
				{Orig: Arg{Name: "x", Index: 0}},
				{Orig: srcAt("r1", 4, "c")},
			},
			Formula: Label{Name: "b"},
		},
	}
	replacement := []Taint{
		{Orig: srcAt("caller", 10, "b")},
		{Orig: srcAt("caller", 11, "b")},
	}
	got := SubstitutePreconditionArgTaints(func(a Arg) []Taint {
		if a.Name != "x" {
			t.Errorf("unexpected arg %s", a)
		}
		return replacement
	}, Taint{Orig: host})
	if len(got) != 1 {
		t.Fatalf("expected one substituted taint, got %v", got)
	}
	sub := got[0].Orig.(*Source)
	if len(sub.Precondition.Taints) != 3 {
		t.Errorf("expected 3 incoming taints after substitution, got %d",
			len(sub.Precondition.Taints))
	}
}
