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

package config

import (
	"fmt"
	"go/ast"
	"go/parser"
	"os"
	"path"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/ariadne-tools/ariadne/internal/funcutil"
)

var (
	// The global config file
	configFile string
)

// SetGlobalConfig sets the global config filename
func SetGlobalConfig(filename string) {
	configFile = filename
}

// LoadGlobal loads the config file that has been set by SetGlobalConfig
func LoadGlobal() (*Config, error) {
	return Load(configFile)
}

// Config contains the taint rules and the scan options.
// To add elements to a config file, add fields to this struct.
// If some field is not defined in the config file, it will be empty/zero in the struct.
// private fields are not populated from a yaml file, but computed after initialization
type Config struct {
	Options `yaml:",inline"`

	sourceFile string

	// if the RuleFilter is specified
	ruleFilterRegex *regexp.Regexp

	// Rules lists the taint tracking rules: each rule has sources, sinks and optionally propagators
	Rules []RuleSpec `yaml:"rules"`
}

// RuleSpec is one taint tracking rule: data from any of its sources reaching any of its
// sinks is a finding, subject to the preconditions attached to the sources.
type RuleSpec struct {
	// ID identifies the rule in reports
	ID string `yaml:"id"`

	// Message is the text attached to the rule's findings
	Message string `yaml:"message"`

	// Sources is the list of taint sources of the rule
	Sources []*TaintSource `yaml:"sources"`

	// Sinks is the list of taint sinks of the rule
	Sinks []*TaintSink `yaml:"sinks"`

	// Propagators is the list of relabeling propagators of the rule
	Propagators []TaintPropagator `yaml:"propagators"`
}

// A TaintSource is a rule-level taint source definition: a label for the taint it
// introduces and an optional boolean requires clause over other labels that gates
// whether the taint is active.
type TaintSource struct {
	// Label is the label carried by taints born at this source
	Label string `yaml:"label"`

	// Requires is the boolean expression over labels gating this source, e.g. "a && !b".
	// Empty means the source is unconditionally active.
	Requires string `yaml:"requires"`

	requiresExpr ast.Expr
	requiresErr  error
}

// RequiresExpr returns the parsed requires clause, nil when there is none or when it did
// not parse. The taint core degrades a nil expression from a non-empty Requires to a
// never-satisfied precondition.
func (s *TaintSource) RequiresExpr() ast.Expr {
	return s.requiresExpr
}

// RequiresErr returns the parse error of the requires clause, if any.
func (s *TaintSource) RequiresErr() error {
	return s.requiresErr
}

// A TaintSink is a rule-level sink definition.
type TaintSink struct {
	// ID identifies the sink within the rule
	ID string `yaml:"id"`

	// Requires optionally gates the sink with a boolean expression over labels
	Requires string `yaml:"requires"`

	requiresExpr ast.Expr
	requiresErr  error
}

// RequiresExpr returns the parsed requires clause of the sink, nil when there is none or
// when it did not parse.
func (s *TaintSink) RequiresExpr() ast.Expr {
	return s.requiresExpr
}

// RequiresErr returns the parse error of the requires clause, if any.
func (s *TaintSink) RequiresErr() error {
	return s.requiresErr
}

// A TaintPropagator relabels taint: taint carrying the From label that flows through the
// propagator continues with the To label. This is why a source's current label may
// diverge from the label of the rule source at the origin of its trace.
type TaintPropagator struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Options holds the scan settings that are not rule definitions.
type Options struct {
	// ReportsDir is the directory where all the reports will be stored. If the yaml config file this config
	// struct has been loaded from does not specify a ReportsDir but sets ReportPaths to true, then ReportsDir
	// will be created in the folder the config file is in.
	ReportsDir string `yaml:"reports-dir"`

	// RuleFilter restricts which rules run; rule IDs matching the regex are kept. Empty keeps everything.
	RuleFilter string `yaml:"rule-filter"`

	// ReportPaths specifies whether taint flows should be reported in separate files. For each flow, a new
	// file named flow-*.out is generated with the trace from source to sink
	ReportPaths bool `yaml:"report-paths"`

	// MaxTraceDepth bounds the call-trace depth kept for provenance. Default is -1.
	// If provided MaxTraceDepth is <= 0, then it is ignored.
	MaxTraceDepth int `yaml:"max-trace-depth"`

	// MaxAlarms sets a limit for the number of alarms reported. If MaxAlarms > 0, then at most
	// MaxAlarms will be reported. Otherwise, if MaxAlarms <= 0, it is ignored.
	MaxAlarms int `yaml:"max-alarms"`

	// LogLevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`

	// SilenceWarn suppresses warnings
	SilenceWarn bool `yaml:"silence-warn"`
}

// NewDefault returns an empty default config.
func NewDefault() *Config {
	return &Config{
		sourceFile: "",
		Rules:      nil,
		Options: Options{
			ReportsDir:    "",
			RuleFilter:    "",
			ReportPaths:   false,
			MaxTraceDepth: DefaultMaxTraceDepth,
			MaxAlarms:     0,
			LogLevel:      int(InfoLevel),
			SilenceWarn:   false,
		},
	}
}

// Load reads a configuration from a file
func Load(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, err
	}

	cfg.sourceFile = filename

	if cfg.ReportPaths {
		if err := setReportsDir(cfg, filename); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Parse reads a configuration from yaml bytes, applying the same defaulting and
// requires-clause compilation as Load. Report directories are not created.
func Parse(b []byte) (*Config, error) {
	cfg := NewDefault()
	if errYaml := yaml.Unmarshal(b, cfg); errYaml != nil {
		return nil, fmt.Errorf("could not unmarshal config file: %w", errYaml)
	}

	// If logLevel has not been specified (i.e. it is 0) set the default to Info
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}

	// Set the MaxTraceDepth default if it is <= 0
	if cfg.MaxTraceDepth <= 0 {
		cfg.MaxTraceDepth = DefaultMaxTraceDepth
	}

	if cfg.RuleFilter != "" {
		r, err := regexp.Compile(cfg.RuleFilter)
		if err == nil {
			cfg.ruleFilterRegex = r
		}
	}

	for _, rule := range cfg.Rules {
		for _, src := range rule.Sources {
			if src.Label == "" {
				src.Label = DefaultSourceLabel
			}
			src.requiresExpr, src.requiresErr = parseRequires(src.Requires)
		}
		for _, sink := range rule.Sinks {
			sink.requiresExpr, sink.requiresErr = parseRequires(sink.Requires)
		}
	}

	return cfg, nil
}

// parseRequires parses a requires clause into an expression. An empty clause is not an
// error, it parses to nil.
func parseRequires(requires string) (ast.Expr, error) {
	if requires == "" {
		return nil, nil
	}
	e, err := parser.ParseExpr(requires)
	if err != nil {
		return nil, fmt.Errorf("could not parse requires clause %q: %w", requires, err)
	}
	return e, nil
}

func setReportsDir(c *Config, filename string) error {
	if c.ReportsDir == "" {
		tmpdir, err := os.MkdirTemp(path.Dir(filename), "*-report")
		if err != nil {
			return fmt.Errorf("could not create temp dir for reports")
		}
		c.ReportsDir = tmpdir
	} else {
		err := os.Mkdir(c.ReportsDir, 0750)
		if err != nil {
			if !os.IsExist(err) {
				return fmt.Errorf("could not create directory %s", c.ReportsDir)
			}
		}
	}
	return nil
}

// Validate checks the well-formedness constraints that loading does not enforce: rule IDs
// must be unique and every rule must declare at least one source and one sink.
func (c *Config) Validate() error {
	seen := map[string]bool{}
	for _, rule := range c.Rules {
		if rule.ID == "" {
			return fmt.Errorf("rule without an id")
		}
		if seen[rule.ID] {
			return fmt.Errorf("duplicate rule id %q", rule.ID)
		}
		seen[rule.ID] = true
		if len(rule.Sources) == 0 {
			return fmt.Errorf("rule %q has no sources", rule.ID)
		}
		if len(rule.Sinks) == 0 {
			return fmt.Errorf("rule %q has no sinks", rule.ID)
		}
		for _, prop := range rule.Propagators {
			if prop.From == "" || prop.To == "" {
				return fmt.Errorf("rule %q has a propagator with an empty endpoint", rule.ID)
			}
			from := prop.From
			if !funcutil.Exists(rule.Sources, func(rs *TaintSource) bool { return rs.Label == from }) {
				return fmt.Errorf("rule %q has a propagator from undeclared label %q", rule.ID, from)
			}
		}
	}
	return nil
}

// RelPath returns filename path relative to the config source file
func (c Config) RelPath(filename string) string {
	return path.Join(path.Dir(c.sourceFile), filename)
}

// MatchRuleFilter returns true if the rule id matches the rule filter set in the config
// file. If no filter has been set, every rule matches. This function safely considers
// the case where a filter has been specified by the user but could not be compiled to a
// regex; the safe fallback is string equality.
func (c Config) MatchRuleFilter(ruleID string) bool {
	if c.ruleFilterRegex != nil {
		return c.ruleFilterRegex.MatchString(ruleID)
	} else if c.RuleFilter != "" {
		return c.RuleFilter == ruleID
	}
	return true
}
