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
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ariadne-tools/ariadne/analysis/config"
	"github.com/ariadne-tools/ariadne/analysis/taint"
)

// A scenario is a rule-test fixture: rules, the match events a pattern-matching
// front-end would emit while walking a file, and the findings each rule is expected to
// produce. The runner replays the events against the taint core.
type scenario struct {
	config.Options `yaml:",inline"`

	Rules []config.RuleSpec `yaml:"rules"`

	Events []event `yaml:"events"`

	Expect []expectation `yaml:"expect"`
}

// An event is exactly one of a source match, a sink match, an arg-to-arg propagation or
// a relabeling step.
type event struct {
	Source    *matchEvent   `yaml:"source"`
	Sink      *matchEvent   `yaml:"sink"`
	Propagate *propEvent    `yaml:"propagate"`
	Relabel   *relabelEvent `yaml:"relabel"`
}

type matchEvent struct {
	Rule string `yaml:"rule"`
	// Label selects the rule source for source events
	Label string `yaml:"label"`
	// ID selects the rule sink for sink events
	ID       string            `yaml:"id"`
	At       span              `yaml:"at"`
	Text     string            `yaml:"text"`
	Bindings map[string]string `yaml:"bindings"`
}

type propEvent struct {
	Rule string  `yaml:"rule"`
	From argSpec `yaml:"from"`
	To   argSpec `yaml:"to"`
}

// A relabelEvent runs the rule's propagators over the current taints, as a front-end
// would when a tainted value flows through a propagator pattern.
type relabelEvent struct {
	Rule string `yaml:"rule"`
}

type argSpec struct {
	Name  string `yaml:"name"`
	Index int    `yaml:"index"`
	Path  string `yaml:"path"`
}

type span struct {
	Line    int `yaml:"line"`
	Col     int `yaml:"col"`
	EndLine int `yaml:"end-line"`
	EndCol  int `yaml:"end-col"`
}

type expectation struct {
	Rule     string `yaml:"rule"`
	Findings int    `yaml:"findings"`
	Cycles   int    `yaml:"cycles"`
}

func loadScenario(filename string) (*scenario, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read scenario file: %w", err)
	}
	s := &scenario{}
	if err := yaml.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("could not unmarshal scenario file: %w", err)
	}
	return s, nil
}

// ruleConfig funnels the scenario's rules through config.Parse so that requires clauses
// get compiled exactly as they would from a rule file.
func (s *scenario) ruleConfig(filename string) (*config.Config, error) {
	b, err := yaml.Marshal(map[string]any{"rules": s.Rules, "log-level": s.LogLevel})
	if err != nil {
		return nil, err
	}
	cfg, err := config.Parse(b)
	if err != nil {
		return nil, fmt.Errorf("rules of scenario %s: %w", filename, err)
	}
	return cfg, cfg.Validate()
}

func (sp span) toRange() taint.Range {
	endLine := sp.EndLine
	if endLine == 0 {
		endLine = sp.Line
	}
	return taint.Range{
		Start: taint.Position{Line: sp.Line, Col: sp.Col},
		End:   taint.Position{Line: endLine, Col: sp.EndCol},
	}
}

func (m *matchEvent) toMatch(ruleID string) *taint.Match {
	text := m.Text
	rng := m.At.toRange()
	return taint.NewMatch(ruleID, rng, m.Bindings, func() []taint.Token {
		if text == "" {
			return nil
		}
		return []taint.Token{{Text: text, Range: rng}}
	})
}
