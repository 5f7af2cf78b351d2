// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package constructor

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/NVIDIA/simplifiedapp/pkg/introspect"
)

// Phase identifies one of the two construction phases of a class instance.
type Phase int

const (
	// None means no phase declares the slot.
	None Phase = iota
	// Allocation produces the instance from the argument set.
	Allocation
	// Initialization receives the same argument set plus the instance.
	Initialization
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case None:
		return "none"
	case Allocation:
		return "allocation"
	case Initialization:
		return "initialization"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Merged is the single parameter list that feeds both construction phases.
type Merged struct {
	Params []introspect.Parameter
	// VariadicPositionalOwner is the phase whose catch-all positional slot
	// was kept.
	VariadicPositionalOwner Phase
	// VariadicKeywordOwner is the phase whose catch-all keyed slot was kept.
	VariadicKeywordOwner Phase
}

// Signature returns the merged parameters as a signature.
func (m Merged) Signature() introspect.Signature {
	return introspect.Signature{Params: append([]introspect.Parameter(nil), m.Params...)}
}

// Merge unions the allocator and initializer signatures. A nil signature is
// a trivial phase and contributes nothing.
//
// The order is allocator positional parameters, initializer positional
// parameters not already present, the catch-all positional slot,
// keyword-only parameters deduplicated by name, then the catch-all keyed
// slot. Required positional parameters are moved ahead of positional
// parameters with a default, keeping their relative order, so the merged
// list stays a valid signature. On a name conflict the initializer's
// documentation wins. Catch-all slots come from the initializer when it
// declares them, else from the allocator.
func Merge(alloc, init *introspect.Signature) Merged {
	var m Merged
	index := make(map[string]int)

	add := func(p introspect.Parameter, fromInit bool) {
		if i, ok := index[p.Name]; ok {
			if fromInit && p.Documentation != nil {
				m.Params[i].Documentation = p.Documentation
			}
			return
		}
		index[p.Name] = len(m.Params)
		m.Params = append(m.Params, p)
	}

	for _, sig := range []*introspect.Signature{alloc, init} {
		if sig == nil {
			continue
		}
		for _, p := range sig.Positional() {
			add(p, sig == init)
		}
	}
	slices.SortStableFunc(m.Params, func(a, b introspect.Parameter) int {
		return cmp.Compare(positionalRank(a), positionalRank(b))
	})
	for i, p := range m.Params {
		index[p.Name] = i
	}
	if p, owner := pick(alloc, init, introspect.Signature.VariadicPositional); owner != None {
		add(p, owner == Initialization)
		m.VariadicPositionalOwner = owner
	}
	for _, sig := range []*introspect.Signature{alloc, init} {
		if sig == nil {
			continue
		}
		for _, p := range sig.KeywordOnly() {
			add(p, sig == init)
		}
	}
	if p, owner := pick(alloc, init, introspect.Signature.VariadicKeyword); owner != None {
		add(p, owner == Initialization)
		m.VariadicKeywordOwner = owner
	}
	return m
}

func positionalRank(p introspect.Parameter) int {
	if p.Kind == introspect.KindPositionalDefault {
		return 1
	}
	return 0
}

func pick(alloc, init *introspect.Signature, slot func(introspect.Signature) (introspect.Parameter, bool)) (introspect.Parameter, Phase) {
	if init != nil {
		if p, ok := slot(*init); ok {
			return p, Initialization
		}
	}
	if alloc != nil {
		if p, ok := slot(*alloc); ok {
			return p, Allocation
		}
	}
	return introspect.Parameter{}, None
}
