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

func newRulesCmd() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "rules <config.yaml>",
		Short: "Show the compiled precondition of every rule source.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRules(args[0], strict)
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when a requires clause is malformed")
	return cmd
}

func runRules(filename string, strict bool) error {
	cfg, err := config.Load(filename)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := config.NewLogGroup(cfg)
	taint.SetLogger(logger)

	malformed := 0
	for _, rule := range cfg.Rules {
		if !cfg.MatchRuleFilter(rule.ID) {
			continue
		}
		fmt.Println(format.Bold(rule.ID))
		for _, src := range rule.Sources {
			if src.Requires == "" {
				fmt.Printf("  source %s: %s\n", src.Label, format.Faint("always active"))
				continue
			}
			formula := taint.ExprToPrecondition(src.RequiresExpr(), logger)
			if src.RequiresErr() != nil || isFalse(formula) {
				malformed++
				fmt.Printf("  source %s: %s (from %q)\n", src.Label, format.Red(formula.String()), src.Requires)
				continue
			}
			fmt.Printf("  source %s: requires %s\n", src.Label, format.Green(formula.String()))
		}
		for _, sink := range rule.Sinks {
			if sink.Requires == "" {
				fmt.Printf("  sink %s\n", sink.ID)
				continue
			}
			formula := taint.ExprToPrecondition(sink.RequiresExpr(), logger)
			fmt.Printf("  sink %s: requires %s\n", sink.ID, format.Purple(formula.String()))
		}
		declared := funcutil.Map(rule.Sources, func(src *config.TaintSource) string { return src.Label })
		for _, component := range taint.RequiresComponents(rule) {
			if len(component) > 1 {
				fmt.Printf("  %s mutually recursive requires: %v\n", format.Yellow("warning:"), component)
			}
			for _, label := range component {
				if !funcutil.Contains(declared, label) {
					fmt.Printf("  %s requires mentions undeclared label %q\n", format.Yellow("warning:"), label)
				}
			}
		}
	}
	if malformed > 0 {
		fmt.Printf("%s %d requires clause(s) degraded to false\n", format.Yellow("note:"), malformed)
		if strict {
			return fmt.Errorf("%d malformed requires clause(s)", malformed)
		}
	}
	return nil
}

func isFalse(p taint.Precondition) bool {
	b, ok := p.(taint.Bool)
	return ok && !b.Value
}
