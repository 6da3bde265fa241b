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

	"github.com/spf13/cobra"

	"github.com/ariadne-tools/ariadne/analysis/config"
	"github.com/ariadne-tools/ariadne/analysis/format"
	"github.com/ariadne-tools/ariadne/analysis/taint"
	"github.com/ariadne-tools/ariadne/internal/funcutil"
)

func newTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test <scenario.yaml>...",
		Short: "Replay rule-test scenarios against the taint core and report pass/fail.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, filename := range args {
				ok, err := runScenario(filename)
				if err != nil {
					return err
				}
				if !ok {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d scenario(s) failed", failed)
			}
			return nil
		},
	}
}

// ruleState is the per-rule dataflow state the runner threads through the events of a
// scenario, standing in for the per-program-point state a CFG walk would maintain.
type ruleState struct {
	spec      config.RuleSpec
	taints    taint.Set
	signature taint.Signature
}

func runScenario(filename string) (bool, error) {
	s, err := loadScenario(filename)
	if err != nil {
		return false, err
	}
	cfg, err := s.ruleConfig(filename)
	if err != nil {
		return false, err
	}
	logger := config.NewLogGroup(cfg)
	taint.SetLogger(logger)

	states := map[string]*ruleState{}
	for _, rule := range cfg.Rules {
		states[rule.ID] = &ruleState{spec: rule, taints: taint.NewSet()}
	}

	for i, ev := range s.Events {
		if err := replay(states, ev, logger); err != nil {
			return false, fmt.Errorf("event %d of %s: %w", i, filename, err)
		}
	}

	fmt.Println(format.Bold(filename))
	passed := true
	for _, want := range s.Expect {
		state, ok := states[want.Rule]
		if !ok {
			return false, fmt.Errorf("expectation for unknown rule %q", want.Rule)
		}
		findings := len(state.signature.SinksReached())
		cycles := len(taint.PropagationCycles(state.signature))
		if findings == want.Findings && cycles == want.Cycles {
			fmt.Printf("  %s %s: %d finding(s), %d cycle(s)\n",
				format.Green("PASS"), want.Rule, findings, cycles)
			continue
		}
		passed = false
		fmt.Printf("  %s %s: got %d finding(s) and %d cycle(s), want %d and %d\n",
			format.Red("FAIL"), want.Rule, findings, cycles, want.Findings, want.Cycles)
		lines := funcutil.Map(state.signature, func(f taint.Finding) string { return f.String() })
		funcutil.MapInPlace(lines, format.Sanitize)
		for _, line := range lines {
			fmt.Printf("       %s\n", format.Faint(line))
		}
	}
	for id, state := range states {
		for _, cycle := range taint.PropagationCycles(state.signature) {
			fmt.Printf("  %s %s has a recursive propagation chain: %v\n",
				format.Yellow("warning:"), id, cycle)
		}
	}
	return passed, nil
}

func replay(states map[string]*ruleState, ev event, logger *config.LogGroup) error {
	switch {
	case ev.Source != nil:
		state, ok := states[ev.Source.Rule]
		if !ok {
			return fmt.Errorf("source event for unknown rule %q", ev.Source.Rule)
		}
		rs := findSource(state.spec, ev.Source.Label)
		if rs == nil {
			return fmt.Errorf("rule %q has no source labeled %q", ev.Source.Rule, ev.Source.Label)
		}
		m := ev.Source.toMatch(state.spec.ID)
		state.taints = state.taints.Add(taint.TaintOfPM(state.taints, m, rs))
		logger.Debugf("taints of %s: %s", state.spec.ID, state.taints)
		return nil

	case ev.Sink != nil:
		state, ok := states[ev.Sink.Rule]
		if !ok {
			return fmt.Errorf("sink event for unknown rule %q", ev.Sink.Rule)
		}
		spec := findSink(state.spec, ev.Sink.ID)
		if spec == nil {
			return fmt.Errorf("rule %q has no sink %q", ev.Sink.Rule, ev.Sink.ID)
		}
		m := ev.Sink.toMatch(state.spec.ID)
		state.signature = appendSinkFinding(state.signature, state.taints, m, spec, logger)
		return nil

	case ev.Propagate != nil:
		state, ok := states[ev.Propagate.Rule]
		if !ok {
			return fmt.Errorf("propagate event for unknown rule %q", ev.Propagate.Rule)
		}
		state.signature = append(state.signature, taint.ArgToArg{
			From: taint.Arg{Name: ev.Propagate.From.Name, Index: ev.Propagate.From.Index, Path: ev.Propagate.From.Path},
			To:   taint.Arg{Name: ev.Propagate.To.Name, Index: ev.Propagate.To.Index, Path: ev.Propagate.To.Path},
		})
		return nil

	case ev.Relabel != nil:
		state, ok := states[ev.Relabel.Rule]
		if !ok {
			return fmt.Errorf("relabel event for unknown rule %q", ev.Relabel.Rule)
		}
		state.taints = taint.ApplyPropagators(state.spec, state.taints)
		logger.Debugf("taints of %s after relabeling: %s", state.spec.ID, state.taints)
		return nil
	}
	return fmt.Errorf("event is neither a source, a sink, a propagation nor a relabeling")
}

// appendSinkFinding discharges the sink against the current taints and appends a ToSink
// finding when taint reaches it.
func appendSinkFinding(sig taint.Signature, taints taint.Set, m *taint.Match,
	spec *config.TaintSink, logger *config.LogGroup) taint.Signature {
	if taints.IsEmpty() {
		return sig
	}
	requires := taint.Precondition(taint.Bool{Value: true})
	if spec.Requires != "" {
		requires = taint.ExprToPrecondition(spec.RequiresExpr(), logger)
	}
	if !taint.EvalPrecondition(requires, taints.Labels()) {
		logger.Debugf("sink %s not reached: requires %s, labels %v", spec.ID, requires, taints.Labels().Slice())
		return sig
	}
	sink := taint.Sink{Match: m, Spec: spec}
	var reached []taint.SinkTaint
	taints.Iter(func(t taint.Taint) {
		reached = append(reached, taint.SinkTaint{
			Taint: t,
			Trace: taint.TraceOfPM(m, spec),
		})
	})
	return append(sig, taint.ToSink{Flow: taint.TaintsToSink{
		Taints:   reached,
		Requires: requires,
		Sink:     sink,
		Env:      taint.MergedEnv(sink, reached),
	}})
}

func findSource(rule config.RuleSpec, label string) *config.TaintSource {
	for _, rs := range rule.Sources {
		if rs.Label == label {
			return rs
		}
	}
	return nil
}

func findSink(rule config.RuleSpec, id string) *config.TaintSink {
	for _, sink := range rule.Sinks {
		if sink.ID == id {
			return sink
		}
	}
	return nil
}
