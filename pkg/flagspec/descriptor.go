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

package flagspec

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/NVIDIA/simplifiedapp/pkg/defaults"
	"github.com/NVIDIA/simplifiedapp/pkg/errors"
	"github.com/NVIDIA/simplifiedapp/pkg/introspect"
)

// Descriptor is the command-line flag derived from one parameter.
// It is derived deterministically and never modified afterwards.
type Descriptor struct {
	// Name is the parameter name.
	Name string `json:"name" yaml:"name"`
	// Key is the path-joined name used for flag lookup and resolved values.
	Key string `json:"key" yaml:"key"`
	// Spelling is how the flag is written on the command line.
	Spelling      string          `json:"spelling" yaml:"spelling"`
	Kind          introspect.Kind `json:"kind" yaml:"kind"`
	Positional    bool            `json:"positional,omitempty" yaml:"positional,omitempty"`
	Required      bool            `json:"required,omitempty" yaml:"required,omitempty"`
	Multiplicity  Multiplicity    `json:"multiplicity" yaml:"multiplicity"`
	RequiresValue bool            `json:"requiresValue" yaml:"requiresValue"`
	Coercion      Coercion        `json:"coercion" yaml:"coercion"`
	HelpText      string          `json:"helpText,omitempty" yaml:"helpText,omitempty"`
	Default       any             `json:"default,omitempty" yaml:"default,omitempty"`
	HasDefault    bool            `json:"hasDefault,omitempty" yaml:"hasDefault,omitempty"`
	// Suppressed marks the absent default: the value is omitted unless supplied.
	Suppressed bool   `json:"suppressed,omitempty" yaml:"suppressed,omitempty"`
	Choices    []any  `json:"choices,omitempty" yaml:"choices,omitempty"`
	Version    string `json:"version,omitempty" yaml:"version,omitempty"`

	// ValueType is the conversion target (the element type for sequences).
	ValueType reflect.Type `json:"-" yaml:"-"`
}

// IsVersion reports whether d is the version pseudo-flag.
func (d Descriptor) IsVersion() bool {
	return d.Version != ""
}

// IsSequence reports whether d accumulates repeated occurrences into a list.
func (d Descriptor) IsSequence() bool {
	return d.Multiplicity != Single && d.Coercion != KeyValueList
}

// Toggle returns the value of a BooleanToggle flag: the negated default when
// the flag was passed, the default otherwise.
func (d Descriptor) Toggle(passed bool) bool {
	def, _ := d.Default.(bool)
	if passed {
		return !def
	}
	return def
}

// VersionDescriptor returns the version pseudo-flag of a container.
func VersionDescriptor(tag string, prefix []string) Descriptor {
	key := KeyName(append(append([]string(nil), prefix...), defaults.VersionParameter)...)
	return Descriptor{
		Name:         defaults.VersionParameter,
		Key:          key,
		Spelling:     Spell(key, false),
		Kind:         introspect.KindKeywordOnly,
		Multiplicity: Single,
		Coercion:     BooleanToggle,
		HelpText:     "show version information and exit",
		Default:      false,
		HasDefault:   true,
		Version:      tag,
	}
}

// Synthesize converts one parameter into a flag descriptor. prefix is the
// ancestor path of the container declaring the parameter. version is the
// version tag of that container; a parameter named "version" becomes the
// version pseudo-flag when it is set.
func Synthesize(p introspect.Parameter, prefix []string, version string) Descriptor {
	if version != "" && p.Name == defaults.VersionParameter {
		return VersionDescriptor(version, prefix)
	}

	key := KeyName(append(append([]string(nil), prefix...), p.Name)...)
	d := Descriptor{
		Name:          p.Name,
		Key:           key,
		Kind:          p.Kind,
		Multiplicity:  Single,
		RequiresValue: true,
		Coercion:      None,
		HelpText:      helpText(p),
		Default:       p.Default,
		HasDefault:    p.HasDefault,
		Choices:       p.Choices,
	}

	switch {
	case p.Kind == introspect.KindVariadicPositional:
		d.Positional = true
		d.Multiplicity = ZeroOrMore
		d.Default = []any{}
		d.HasDefault = true
		d.ValueType = p.Type
	case p.Kind == introspect.KindVariadicKeyword:
		d.Multiplicity = OneOrMore
		d.Coercion = KeyValueList
		d.Default = map[string]any{}
		d.HasDefault = true
		d.HelpText = appendHint(d.HelpText)
	case !p.HasDefault:
		// rule 1
		d.Required = true
		d.Positional = p.Kind == introspect.KindPositionalRequired
		if !d.Positional && p.Type != nil && p.Type.Kind() != reflect.String {
			d.Coercion = Numeric
			d.ValueType = p.Type
		}
	default:
		classifyDefault(&d, p)
	}

	d.Spelling = Spell(key, d.Positional)
	checkContract(d, p)
	return d
}

// classifyDefault applies rules 2 to 6 and 8 to a parameter with a default.
func classifyDefault(d *Descriptor, p introspect.Parameter) {
	def := indirect(p.Default)
	if def != nil {
		d.Default = def
	}
	switch ShapeOf(def) {
	case ShapeAbsent:
		d.Suppressed = true
		d.Default = nil
		if p.Type != nil && p.Type.Kind() != reflect.String {
			d.Coercion = Numeric
			d.ValueType = p.Type
		}
	case ShapeBoolean:
		d.Coercion = BooleanToggle
		d.RequiresValue = false
		d.Default = reflect.ValueOf(def).Bool()
	case ShapeSequence:
		rv := reflect.ValueOf(def)
		if rv.Len() == 0 {
			d.Multiplicity = OneOrMore
		} else {
			d.Multiplicity = ZeroOrMore
		}
		d.ValueType = elementType(rv)
		if d.ValueType != nil && d.ValueType.Kind() != reflect.String && d.ValueType.Kind() != reflect.Interface {
			d.Coercion = Numeric
		}
	case ShapeMapping:
		d.Coercion = KeyValueList
		d.Multiplicity = OneOrMore
		d.HelpText = appendHint(d.HelpText)
		if et := reflect.TypeOf(def).Elem(); et.Kind() != reflect.Interface && et.Kind() != reflect.String {
			d.ValueType = et
		}
	case ShapeScalar:
		t := reflect.TypeOf(def)
		if p.Type != nil {
			t = p.Type
		}
		d.ValueType = t
		if t.Kind() != reflect.String {
			d.Coercion = Numeric
		}
	}
}

// indirect follows pointers and interfaces down to the value they hold. A
// nil pointer yields nil.
func indirect(v any) any {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	return rv.Interface()
}

// checkContract logs documentation or declared types that contradict the
// real default. Behavior always follows the default.
func checkContract(d Descriptor, p introspect.Parameter) {
	if p.Documentation != nil && p.Documentation.IsOptional != nil && !p.Kind.IsVariadic() {
		documented := *p.Documentation.IsOptional
		if documented != p.HasDefault {
			slog.Warn("documented optionality contradicts the signature",
				"parameter", p.Name,
				"documentedOptional", documented,
				"hasDefault", p.HasDefault,
				"code", errors.ErrCodeDocumentationMismatch)
		}
	}

	if p.Type == nil || !p.HasDefault || p.Default == nil || d.Coercion == BooleanToggle {
		return
	}
	dt := reflect.TypeOf(p.Default)
	if ShapeOf(p.Default) == ShapeScalar && dt != p.Type && !dt.ConvertibleTo(p.Type) {
		slog.Warn("declared type contradicts the default value",
			"parameter", p.Name,
			"declaredType", p.Type.String(),
			"defaultType", dt.String(),
			"code", errors.ErrCodeDocumentationMismatch)
	}
}

func elementType(rv reflect.Value) reflect.Type {
	et := rv.Type().Elem()
	if et.Kind() != reflect.Interface {
		return et
	}
	if rv.Len() > 0 {
		if first := rv.Index(0); !first.IsNil() {
			return first.Elem().Type()
		}
	}
	return nil
}

func helpText(p introspect.Parameter) string {
	if p.Documentation == nil {
		return ""
	}
	help := p.Documentation.Description
	if p.Documentation.TypeName != "" {
		if help != "" {
			help += " "
		}
		help += "(" + p.Documentation.TypeName + ")"
	}
	return help
}

func appendHint(help string) string {
	if help == "" {
		return defaults.KeyValueHint
	}
	return help + " " + defaults.KeyValueHint
}

// KeyName joins path elements into a kebab-case key. Underscores are
// normalized to the path separator and CamelCase is split.
func KeyName(path ...string) string {
	parts := make([]string, 0, len(path))
	for _, p := range path {
		if k := kebab(p); k != "" {
			parts = append(parts, k)
		}
	}
	return strings.Join(parts, defaults.PathSeparator)
}

// Spell returns the command-line spelling of key: bare for positional
// parameters, one dash for single-character flags, two dashes otherwise.
func Spell(key string, positional bool) string {
	switch {
	case positional:
		return key
	case utf8.RuneCountInString(key) == 1:
		return "-" + key
	default:
		return "--" + key
	}
}

func kebab(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '_' || r == ' ' || r == '-':
			b.WriteString(defaults.PathSeparator)
		case unicode.IsUpper(r):
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteString(defaults.PathSeparator)
				}
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "-")
	}
	return strings.Trim(out, defaults.PathSeparator)
}

// Metavar is the placeholder shown for the value in usage text.
func (d Descriptor) Metavar() string {
	name := strings.ToUpper(strings.ReplaceAll(d.Key, defaults.PathSeparator, "_"))
	switch d.Multiplicity {
	case ZeroOrMore:
		return "[" + name + " ...]"
	case OneOrMore:
		return name + " [" + name + " ...]"
	default:
		return name
	}
}

// String returns a compact description, used in debug logs.
func (d Descriptor) String() string {
	return fmt.Sprintf("%s(%s,%s,%s)", d.Spelling, d.Kind, d.Multiplicity, d.Coercion)
}
