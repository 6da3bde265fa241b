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

package main

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/ariadne-tools/ariadne/analysis/config"
	"github.com/ariadne-tools/ariadne/analysis/taint"
)

func quietLogger() *config.LogGroup {
	l := config.NewLogGroup(config.NewDefault())
	l.SetAllOutput(io.Discard)
	return l
}

func TestLoadScenario(t *testing.T) {
	s, err := loadScenario(filepath.Join("testdata", "sql.yaml"))
	if err != nil {
		t.Fatalf("could not load scenario: %v", err)
	}
	if len(s.Rules) != 1 || len(s.Events) != 4 || len(s.Expect) != 1 {
		t.Errorf("unexpected scenario shape: %d rules, %d events, %d expectations",
			len(s.Rules), len(s.Events), len(s.Expect))
	}
	if s.LogLevel != int(config.ErrLevel) {
		t.Errorf("inline options were not decoded, log level is %d", s.LogLevel)
	}
	cfg, err := s.ruleConfig("sql.yaml")
	if err != nil {
		t.Fatalf("could not build the rule config: %v", err)
	}
	if cfg.Rules[0].Sources[1].RequiresExpr() == nil {
		t.Error("the requires clause was not compiled")
	}
}

func TestRunScenarios(t *testing.T) {
	for _, name := range []string{"sql.yaml", "cycle.yaml", "relabel.yaml"} {
		ok, err := runScenario(filepath.Join("testdata", name))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !ok {
			t.Errorf("%s: expected the scenario to pass", name)
		}
	}
}

func TestReplayUnknownRule(t *testing.T) {
	states := map[string]*ruleState{}
	ev := event{Source: &matchEvent{Rule: "nope", Label: "a"}}
	if err := replay(states, ev, quietLogger()); err == nil {
		t.Error("expected an error for an unknown rule")
	}
}

func TestReplayEmptyEvent(t *testing.T) {
	if err := replay(map[string]*ruleState{}, event{}, quietLogger()); err == nil {
		t.Error("expected an error for an empty event")
	}
}

func TestAppendSinkFindingSkipsEmptyTaints(t *testing.T) {
	spec := &config.TaintSink{ID: "s"}
	m := (&matchEvent{At: span{Line: 1, Col: 1}}).toMatch("r")
	sig := appendSinkFinding(nil, taint.NewSet(), m, spec, quietLogger())
	if len(sig) != 0 {
		t.Errorf("a sink with no incoming taint must not produce a finding, got %v", sig)
	}
}

func TestSpanToRange(t *testing.T) {
	r := span{Line: 3, Col: 5, EndCol: 9}.toRange()
	if r.Start.Line != 3 || r.Start.Col != 5 {
		t.Errorf("unexpected start %v", r.Start)
	}
	// end-line defaults to the start line
	if r.End.Line != 3 || r.End.Col != 9 {
		t.Errorf("unexpected end %v", r.End)
	}
}

func TestMatchEventBindings(t *testing.T) {
	m := (&matchEvent{
		At:       span{Line: 2, Col: 1},
		Text:     "os.Getenv(k)",
		Bindings: map[string]string{"K": "k"},
	}).toMatch("r1")
	if m.RuleID != "r1" {
		t.Errorf("unexpected rule id %q", m.RuleID)
	}
	if m.Env["K"] != "k" {
		t.Errorf("bindings were not attached: %v", m.Env)
	}
	toks := m.Tokens()
	if len(toks) != 1 || toks[0].Text != "os.Getenv(k)" {
		t.Errorf("unexpected tokens %v", toks)
	}
}
