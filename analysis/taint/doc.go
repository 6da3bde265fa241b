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

/*
Package taint implements the taint-tracking core: the taint data model, the
deduplicating taint set used as dataflow state during fixpoint propagation, and the
precondition formulas that gate labeled sources.

A dataflow engine walking a control-flow graph calls into this package at each node to
create and propagate taints, merges states at join points with Set.Union, and assembles
the Finding values of a Signature when taints reach sinks or returns. The package holds
no mutable shared state: every taint, trace and set is an immutable value, so per-unit
analyses can run in parallel without synchronization.

Malformed inputs never produce errors here. A requires clause the evaluator does not
understand becomes the never-satisfied formula and is logged; the hosting analysis keeps
going with a conservative result instead of aborting.
*/
package taint
