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
	"reflect"
)

// Kind classifies how a parameter receives its value.
type Kind int

const (
	// KindPositionalRequired is a positional parameter without a default.
	KindPositionalRequired Kind = iota
	// KindPositionalDefault is a positional parameter with a default.
	KindPositionalDefault
	// KindVariadicPositional is the catch-all positional slot.
	KindVariadicPositional
	// KindKeywordOnly is a parameter that can only be passed by name.
	KindKeywordOnly
	// KindVariadicKeyword is the catch-all keyed slot.
	KindVariadicKeyword
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindPositionalRequired:
		return "POSITIONAL_REQUIRED"
	case KindPositionalDefault:
		return "POSITIONAL_DEFAULT"
	case KindVariadicPositional:
		return "VARIADIC_POSITIONAL"
	case KindKeywordOnly:
		return "KEYWORD_ONLY"
	case KindVariadicKeyword:
		return "VARIADIC_KEYWORD"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// IsPositional reports whether the kind occupies a named positional slot.
func (k Kind) IsPositional() bool {
	return k == KindPositionalRequired || k == KindPositionalDefault
}

// IsVariadic reports whether the kind is one of the catch-all slots.
func (k Kind) IsVariadic() bool {
	return k == KindVariadicPositional || k == KindVariadicKeyword
}

// Documentation is the per-parameter part of a callable's documentation.
type Documentation struct {
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	TypeName    string `json:"typeName,omitempty" yaml:"typeName,omitempty"`
	// IsOptional is nil when the documentation says nothing about optionality.
	IsOptional *bool `json:"isOptional,omitempty" yaml:"isOptional,omitempty"`
}

// Parameter describes one parameter of a signature.
type Parameter struct {
	Name string
	Kind Kind
	// Default is only meaningful when HasDefault is set. A nil Default with
	// HasDefault set is the "absent" sentinel: omit unless supplied.
	Default    any
	HasDefault bool
	// Type is the declared type, nil when unknown.
	Type reflect.Type
	// Choices restricts the accepted values to a finite set.
	Choices       []any
	Documentation *Documentation
}

// Required declares a positional parameter without a default.
func Required(name string) Parameter {
	return Parameter{Name: name, Kind: KindPositionalRequired}
}

// Optional declares a positional parameter with a default. A nil default is
// the absent sentinel.
func Optional(name string, def any) Parameter {
	return Parameter{Name: name, Kind: KindPositionalDefault, Default: def, HasDefault: true}
}

// Variadic declares the catch-all positional slot.
func Variadic(name string) Parameter {
	return Parameter{Name: name, Kind: KindVariadicPositional}
}

// KeywordOnly declares a keyword-only parameter with a default.
func KeywordOnly(name string, def any) Parameter {
	return Parameter{Name: name, Kind: KindKeywordOnly, Default: def, HasDefault: true}
}

// RequiredKeyword declares a keyword-only parameter without a default.
func RequiredKeyword(name string) Parameter {
	return Parameter{Name: name, Kind: KindKeywordOnly}
}

// VariadicKeyword declares the catch-all keyed slot.
func VariadicKeyword(name string) Parameter {
	return Parameter{Name: name, Kind: KindVariadicKeyword}
}

// Typed returns a copy of p with an explicit declared type.
func (p Parameter) Typed(t reflect.Type) Parameter {
	p.Type = t
	return p
}

// OneOf returns a copy of p restricted to the given choices.
func (p Parameter) OneOf(choices ...any) Parameter {
	p.Choices = append([]any(nil), choices...)
	return p
}

// Documented returns a copy of p carrying doc.
func (p Parameter) Documented(doc Documentation) Parameter {
	p.Documentation = &doc
	return p
}

// IsRequired reports whether the parameter must be supplied by the caller.
func (p Parameter) IsRequired() bool {
	return !p.HasDefault && !p.Kind.IsVariadic()
}
