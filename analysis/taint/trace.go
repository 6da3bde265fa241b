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
)

// A CallSite is the snapshot of a call expression the front-end hands over when taint
// crosses a call boundary: the code of the call and its span.
type CallSite struct {
	Code  string
	Range Range
}

func (c CallSite) String() string {
	return fmt.Sprintf("%s@%s", c.Code, c.Range)
}

// A Trace records how a taint or a sink was reached. It is either a terminal
// PatternMatch holding the match that introduced it plus a payload, or a CallStep
// wrapping the trace of the callee at a call site. Every trace constructed with
// TraceOfPM and Wrap ends in exactly one PatternMatch.
//
// The payload type X attaches the rule-level definition the trace originates from
// (a *config.TaintSource for source traces, a *config.TaintSink for sink traces).
type Trace[X any] interface {
	isTrace()

	// Length counts the CallStep wrappers on the trace: 0 for a bare PatternMatch.
	// Shorter traces denote more direct flows and win deduplication tie-breaks.
	Length() int

	String() string
}

// PatternMatch is the terminal trace node.
type PatternMatch[X any] struct {
	// Match is the pattern match at the origin of the trace
	Match *Match

	// Origin is the rule-level definition the match instantiates
	Origin X
}

func (t *PatternMatch[X]) isTrace() {}

// Length returns 0: a bare pattern match has no call steps.
func (t *PatternMatch[X]) Length() int { return 0 }

func (t *PatternMatch[X]) String() string {
	return t.Match.String()
}

// CallStep is a call-site trace node wrapping the trace of the callee.
type CallStep[X any] struct {
	// Site is the call expression the taint crossed
	Site CallSite

	// Tokens are the tainted tokens at the call
	Tokens []Token

	// Inner is the trace inside the callee
	Inner Trace[X]
}

func (t *CallStep[X]) isTrace() {}

// Length returns 1 plus the length of the inner trace.
func (t *CallStep[X]) Length() int { return 1 + t.Inner.Length() }

func (t *CallStep[X]) String() string {
	var parts []string
	var cur Trace[X] = t
	for {
		step, ok := cur.(*CallStep[X])
		if !ok {
			parts = append(parts, cur.String())
			break
		}
		parts = append(parts, step.Site.String())
		cur = step.Inner
	}
	return strings.Join(parts, "->")
}

// TraceOfPM wraps a match as the minimal one-node trace.
func TraceOfPM[X any](m *Match, origin X) Trace[X] {
	return &PatternMatch[X]{Match: m, Origin: origin}
}

// Wrap records that inner was reached through the call at site, with the tainted tokens
// observed at the call.
func Wrap[X any](site CallSite, tokens []Token, inner Trace[X]) Trace[X] {
	return &CallStep[X]{Site: site, Tokens: tokens, Inner: inner}
}

// PMOf descends to the terminal pattern match of the trace, discarding the call steps.
// Every well-formed trace ends in a pattern match; a nil or foreign trace panics.
func PMOf[X any](t Trace[X]) (*Match, X) {
	for {
		switch node := t.(type) {
		case *PatternMatch[X]:
			return node.Match, node.Origin
		case *CallStep[X]:
			t = node.Inner
		default:
			panic("trace without a terminal pattern match")
		}
	}
}
