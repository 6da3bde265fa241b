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
	"github.com/google/btree"
	set "github.com/hashicorp/go-set"
)

// btreeDegree is the branching factor of the backing trees. Taint sets at a program
// point are small; a low degree keeps clones cheap.
const btreeDegree = 4

// A Set is the dataflow state at a program point: a deduplicating collection of taints
// keyed by origin. It holds at most one taint per distinct origin; when an insertion
// collides with a stored taint of the same origin, pick selects the representative.
//
// Sets have value semantics: every operation returns a new set and never modifies its
// inputs. The backing B-tree is copy-on-write, so the clones share structure.
type Set struct {
	tree *btree.BTreeG[Taint]
}

func lessByOrigin(a Taint, b Taint) bool {
	return Compare(a, b) < 0
}

// NewSet returns the empty taint set.
func NewSet() Set {
	return Set{tree: btree.NewG[Taint](btreeDegree, lessByOrigin)}
}

// Singleton returns the set containing exactly t.
func Singleton(t Taint) Set {
	return NewSet().Add(t)
}

// OfTaints builds a set from the taints, deduplicating through insertion semantics.
func OfTaints(taints ...Taint) Set {
	s := NewSet()
	for _, t := range taints {
		s = s.Add(t)
	}
	return s
}

// IsEmpty returns true when the set has no taints.
func (s Set) IsEmpty() bool {
	return s.tree == nil || s.tree.Len() == 0
}

// Size returns the number of distinct origins in the set.
func (s Set) Size() int {
	if s.tree == nil {
		return 0
	}
	return s.tree.Len()
}

// Add inserts t. If a taint with the same origin is already stored, the stored entry is
// replaced with pick(t, existing).
func (s Set) Add(t Taint) Set {
	tree := s.clone()
	if existing, ok := tree.Get(t); ok {
		tree.ReplaceOrInsert(pick(t, existing))
	} else {
		tree.ReplaceOrInsert(t)
	}
	return Set{tree: tree}
}

// Union merges the two sets; on an origin collision the entry of s wins pick ties
// (elements of other are added into s, so they take the role of the incoming taint).
// Only the origin key set of the result is symmetric in the arguments.
func (s Set) Union(other Set) Set {
	res := s
	other.Iter(func(t Taint) {
		res = res.Add(t)
	})
	return res
}

// Diff returns the taints of s whose origin is absent from other. The difference is by
// origin key only; the stored values of other are ignored.
func (s Set) Diff(other Set) Set {
	res := NewSet()
	s.Iter(func(t Taint) {
		if other.tree == nil || !other.tree.Has(t) {
			res.tree.ReplaceOrInsert(t)
		}
	})
	return res
}

// Contains returns true when a taint with t's origin is in the set.
func (s Set) Contains(t Taint) bool {
	return s.tree != nil && s.tree.Has(t)
}

// Get returns the representative stored for t's origin.
func (s Set) Get(t Taint) (Taint, bool) {
	if s.tree == nil {
		return Taint{}, false
	}
	return s.tree.Get(t)
}

// Equal returns true when both sets store the same origins and every pair of
// corresponding taints compares equal under the full taint order.
func (s Set) Equal(other Set) bool {
	if s.Size() != other.Size() {
		return false
	}
	a := s.Elements()
	b := other.Elements()
	for i := range a {
		if Compare(a[i], b[i]) != 0 {
			return false
		}
	}
	return true
}

// Map applies f to every stored taint and re-keys the results by the mapped taint's own
// origin. If f maps two origins to one, the collisions merge through insertion
// semantics.
func (s Set) Map(f func(Taint) Taint) Set {
	res := NewSet()
	s.Iter(func(t Taint) {
		res = res.Add(f(t))
	})
	return res
}

// Iter calls f on every taint, in ascending origin order.
func (s Set) Iter(f func(Taint)) {
	if s.tree == nil {
		return
	}
	s.tree.Ascend(func(t Taint) bool {
		f(t)
		return true
	})
}

// Fold accumulates f over the taints in ascending origin order.
func Fold[A any](s Set, init A, f func(A, Taint) A) A {
	acc := init
	s.Iter(func(t Taint) {
		acc = f(acc, t)
	})
	return acc
}

// Elements returns the taints in ascending origin order. Iteration order follows the
// origin total order, never insertion order.
func (s Set) Elements() []Taint {
	elements := make([]Taint, 0, s.Size())
	s.Iter(func(t Taint) {
		elements = append(elements, t)
	})
	return elements
}

// Labels collects the labels of the source taints in the set: the labels available when
// discharging a precondition at this program point.
func (s Set) Labels() *set.Set[string] {
	labels := set.New[string](s.Size())
	s.Iter(func(t Taint) {
		if src, ok := t.Orig.(*Source); ok {
			labels.Insert(src.Label)
		}
	})
	return labels
}

func (s Set) String() string {
	parts := "{"
	first := true
	s.Iter(func(t Taint) {
		if !first {
			parts += ", "
		}
		parts += t.String()
		first = false
	})
	return parts + "}"
}

func (s Set) clone() *btree.BTreeG[Taint] {
	if s.tree == nil {
		return btree.NewG[Taint](btreeDegree, lessByOrigin)
	}
	return s.tree.Clone()
}
