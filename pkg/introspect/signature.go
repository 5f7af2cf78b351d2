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

package introspect

import (
	"fmt"

	"github.com/NVIDIA/simplifiedapp/pkg/defaults"
	"github.com/NVIDIA/simplifiedapp/pkg/errors"
)

// Signature is the ordered parameter list a callable accepts.
type Signature struct {
	Params []Parameter
	// Owner is set when an implicit leading owner parameter was detected and
	// removed from Params.
	Owner bool
	// Generic is set when Params is the "accept anything" fallback.
	Generic bool
}

// GenericSignature returns the fallback signature: one catch-all positional
// slot and one catch-all keyed slot.
func GenericSignature() Signature {
	return Signature{
		Params: []Parameter{
			Variadic(defaults.GenericPositionalName),
			VariadicKeyword(defaults.GenericKeywordName),
		},
		Generic: true,
	}
}

// Positional returns the named positional parameters in order.
func (s Signature) Positional() []Parameter {
	var out []Parameter
	for _, p := range s.Params {
		if p.Kind.IsPositional() {
			out = append(out, p)
		}
	}
	return out
}

// KeywordOnly returns the keyword-only parameters in order.
func (s Signature) KeywordOnly() []Parameter {
	var out []Parameter
	for _, p := range s.Params {
		if p.Kind == KindKeywordOnly {
			out = append(out, p)
		}
	}
	return out
}

// VariadicPositional returns the catch-all positional slot, if any.
func (s Signature) VariadicPositional() (Parameter, bool) {
	return s.first(KindVariadicPositional)
}

// VariadicKeyword returns the catch-all keyed slot, if any.
func (s Signature) VariadicKeyword() (Parameter, bool) {
	return s.first(KindVariadicKeyword)
}

// AcceptsKeywords reports whether the callable takes a keyword map.
func (s Signature) AcceptsKeywords() bool {
	for _, p := range s.Params {
		if p.Kind == KindKeywordOnly || p.Kind == KindVariadicKeyword {
			return true
		}
	}
	return false
}

// Lookup returns the parameter called name.
func (s Signature) Lookup(name string) (Parameter, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// Names returns parameter names in declaration order.
func (s Signature) Names() []string {
	names := make([]string, 0, len(s.Params))
	for _, p := range s.Params {
		names = append(names, p.Name)
	}
	return names
}

func (s Signature) first(k Kind) (Parameter, bool) {
	for _, p := range s.Params {
		if p.Kind == k {
			return p, true
		}
	}
	return Parameter{}, false
}

// Validate checks the signature invariants: unique names, at most one
// catch-all slot of each kind, kinds in declaration order, and no required
// positional after a defaulted one.
func (s Signature) Validate() error {
	seen := make(map[string]struct{}, len(s.Params))
	last := KindPositionalRequired
	var varPos, varKw int

	for i, p := range s.Params {
		if p.Name == "" {
			return errors.NewWithContext(errors.ErrCodeUnsupportedTarget,
				"parameter without a name", map[string]any{"index": i})
		}
		if _, dup := seen[p.Name]; dup {
			return errors.NewWithContext(errors.ErrCodeUnsupportedTarget,
				fmt.Sprintf("duplicate parameter %q", p.Name), map[string]any{"index": i})
		}
		seen[p.Name] = struct{}{}

		switch p.Kind {
		case KindVariadicPositional:
			varPos++
		case KindVariadicKeyword:
			varKw++
		}
		if varPos > 1 || varKw > 1 {
			return errors.New(errors.ErrCodeUnsupportedTarget,
				fmt.Sprintf("more than one %s parameter", p.Kind))
		}
		if p.Kind < last {
			if last == KindPositionalDefault && p.Kind == KindPositionalRequired {
				return errors.New(errors.ErrCodeUnsupportedTarget,
					fmt.Sprintf("required parameter %q follows a parameter with a default", p.Name))
			}
			return errors.New(errors.ErrCodeUnsupportedTarget,
				fmt.Sprintf("%s parameter %q declared after a %s parameter", p.Kind, p.Name, last))
		}
		last = p.Kind
	}
	return nil
}

// normalize applies the declaration rules: a positional parameter with a
// default becomes KindPositionalDefault, positional syntax after the catch-all
// positional slot becomes KindKeywordOnly.
func normalize(params []Parameter) []Parameter {
	out := make([]Parameter, 0, len(params))
	afterVariadic := false
	for _, p := range params {
		switch {
		case p.Kind == KindVariadicPositional:
			afterVariadic = true
		case p.Kind.IsPositional() && afterVariadic:
			p.Kind = KindKeywordOnly
		case p.Kind == KindPositionalRequired && p.HasDefault:
			p.Kind = KindPositionalDefault
		case p.Kind == KindPositionalDefault && !p.HasDefault:
			p.Kind = KindPositionalRequired
		}
		out = append(out, p)
	}
	return out
}
