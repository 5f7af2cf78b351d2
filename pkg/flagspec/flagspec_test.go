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
	"bytes"
	"log/slog"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"

	"github.com/NVIDIA/simplifiedapp/pkg/defaults"
	"github.com/NVIDIA/simplifiedapp/pkg/errors"
	"github.com/NVIDIA/simplifiedapp/pkg/introspect"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestShapeOf(t *testing.T) {
	var nilPtr *int
	tests := []struct {
		name string
		in   any
		want Shape
	}{
		{"nil", nil, ShapeAbsent},
		{"nil pointer", nilPtr, ShapeAbsent},
		{"bool", true, ShapeBoolean},
		{"slice", []string{"a"}, ShapeSequence},
		{"array", [2]int{1, 2}, ShapeSequence},
		{"map", map[string]any{}, ShapeMapping},
		{"int", 3, ShapeScalar},
		{"string", "x", ShapeScalar},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShapeOf(tt.in))
		})
	}
}

func TestKeyName(t *testing.T) {
	tests := []struct {
		path []string
		want string
	}{
		{[]string{"name"}, "name"},
		{[]string{"max_conns"}, "max-conns"},
		{[]string{"server", "max_conns"}, "server-max-conns"},
		{[]string{"Server", "listenAddr"}, "server-listen-addr"},
		{[]string{"HTTPServer"}, "http-server"},
		{[]string{"", "x"}, "x"},
		{[]string{"_private_"}, "private"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, KeyName(tt.path...))
		})
	}
}

func TestSpell(t *testing.T) {
	assert.Equal(t, "name", Spell("name", true))
	assert.Equal(t, "-v", Spell("v", false))
	assert.Equal(t, "--verbose", Spell("verbose", false))
}

func TestSynthesize(t *testing.T) {
	tests := []struct {
		name         string
		param        introspect.Parameter
		prefix       []string
		spelling     string
		positional   bool
		required     bool
		suppressed   bool
		multiplicity Multiplicity
		coercion     Coercion
		needsValue   bool
	}{
		{
			name:       "required positional",
			param:      introspect.Required("path"),
			spelling:   "path",
			positional: true,
			required:   true,
			coercion:   None,
			needsValue: true,
		},
		{
			name:       "required keyword",
			param:      introspect.RequiredKeyword("token"),
			prefix:     []string{"client"},
			spelling:   "--client-token",
			required:   true,
			coercion:   None,
			needsValue: true,
		},
		{
			name:       "absent sentinel",
			param:      introspect.Optional("label", nil),
			spelling:   "--label",
			suppressed: true,
			coercion:   None,
			needsValue: true,
		},
		{
			name:     "boolean",
			param:    introspect.KeywordOnly("v", false),
			spelling: "-v",
			coercion: BooleanToggle,
		},
		{
			name:         "empty sequence",
			param:        introspect.Optional("tags", []string{}),
			spelling:     "--tags",
			multiplicity: OneOrMore,
			coercion:     None,
			needsValue:   true,
		},
		{
			name:         "non-empty sequence",
			param:        introspect.Optional("ports", []int{80}),
			spelling:     "--ports",
			multiplicity: ZeroOrMore,
			coercion:     Numeric,
			needsValue:   true,
		},
		{
			name:         "mapping",
			param:        introspect.KeywordOnly("labels", map[string]any{"a": "1"}),
			spelling:     "--labels",
			multiplicity: OneOrMore,
			coercion:     KeyValueList,
			needsValue:   true,
		},
		{
			name:       "scalar",
			param:      introspect.Optional("count", 2),
			prefix:     []string{"tools", "run"},
			spelling:   "--tools-run-count",
			coercion:   Numeric,
			needsValue: true,
		},
		{
			name:         "variadic positional",
			param:        introspect.Variadic("files"),
			spelling:     "files",
			positional:   true,
			multiplicity: ZeroOrMore,
			coercion:     None,
			needsValue:   true,
		},
		{
			name:         "variadic keyword",
			param:        introspect.VariadicKeyword("extra"),
			spelling:     "--extra",
			multiplicity: OneOrMore,
			coercion:     KeyValueList,
			needsValue:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Synthesize(tt.param, tt.prefix, "")
			assert.Equal(t, tt.spelling, d.Spelling)
			assert.Equal(t, tt.positional, d.Positional)
			assert.Equal(t, tt.required, d.Required)
			assert.Equal(t, tt.suppressed, d.Suppressed)
			assert.Equal(t, tt.multiplicity, d.Multiplicity)
			assert.Equal(t, tt.coercion, d.Coercion)
			assert.Equal(t, tt.needsValue, d.RequiresValue)
			assert.False(t, d.IsVersion())
		})
	}
}

func TestSynthesizeHint(t *testing.T) {
	p := introspect.KeywordOnly("labels", map[string]string{}).
		Documented(introspect.Documentation{Description: "extra labels"})
	d := Synthesize(p, nil, "")
	assert.Equal(t, "extra labels "+defaults.KeyValueHint, d.HelpText)

	d = Synthesize(introspect.VariadicKeyword("kwargs"), nil, "")
	assert.Equal(t, defaults.KeyValueHint, d.HelpText)
}

func TestSynthesizeVersion(t *testing.T) {
	p := introspect.KeywordOnly("version", false)

	d := Synthesize(p, []string{"server"}, "1.2.0")
	assert.True(t, d.IsVersion())
	assert.Equal(t, "1.2.0", d.Version)
	assert.Equal(t, "--server-version", d.Spelling)
	assert.False(t, d.RequiresValue)

	// Without a tag the parameter is an ordinary boolean.
	d = Synthesize(p, nil, "")
	assert.False(t, d.IsVersion())
	assert.Equal(t, BooleanToggle, d.Coercion)
}

func TestSynthesizeChoicesAndType(t *testing.T) {
	p := introspect.Optional("level", "info").OneOf("debug", "info")
	d := Synthesize(p, nil, "")

	v, err := d.Coerce("debug")
	require.NoError(t, err)
	assert.Equal(t, "debug", v)

	_, err = d.Coerce("loud")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidRequest))

	typed := Synthesize(introspect.Optional("ratio", 1).Typed(reflect.TypeFor[float64]()), nil, "")
	v, err = typed.Coerce("0.5")
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)
}

func TestSynthesizeContractMismatch(t *testing.T) {
	buf := captureLogs(t)

	p := introspect.Optional("count", 1).Documented(introspect.Documentation{IsOptional: ptr.To(false)})
	d := Synthesize(p, nil, "")

	assert.False(t, d.Required, "behavior follows the default")
	assert.Contains(t, buf.String(), string(errors.ErrCodeDocumentationMismatch))

	buf.Reset()
	p = introspect.Optional("count", "many").Typed(reflect.TypeFor[int]())
	Synthesize(p, nil, "")
	assert.Contains(t, buf.String(), "declared type contradicts")

	buf.Reset()
	p = introspect.Optional("count", 1).Documented(introspect.Documentation{IsOptional: ptr.To(true)})
	Synthesize(p, nil, "")
	assert.Empty(t, buf.String())
}

func TestToggleRoundTrip(t *testing.T) {
	for _, def := range []bool{true, false} {
		d := Synthesize(introspect.KeywordOnly("flag", def), nil, "")
		assert.Equal(t, !def, d.Toggle(true))
		assert.Equal(t, def, d.Toggle(false))
	}
}

func TestMappingRoundTrip(t *testing.T) {
	original := map[string]any{"k1": "v1", "k2": "v2"}
	d := Synthesize(introspect.KeywordOnly("labels", original), nil, "")

	got, err := d.Coerce(FormatEntries(original))
	require.NoError(t, err)
	assert.Equal(t, original, got)
}

func TestCoerce(t *testing.T) {
	ports := Synthesize(introspect.Optional("ports", []int{80}), nil, "")
	v, err := ports.Coerce([]string{"8080", "9090"})
	require.NoError(t, err)
	assert.Equal(t, []any{8080, 9090}, v)

	_, err = ports.Coerce([]string{"http"})
	require.Error(t, err)

	flag := Synthesize(introspect.KeywordOnly("debug", false), nil, "")
	v, err = flag.Coerce("yes")
	require.NoError(t, err)
	assert.Equal(t, true, v)

	weights := Synthesize(introspect.KeywordOnly("weights", map[string]int{"a": 1}), nil, "")
	v, err = weights.Coerce([]string{"a=2", "b=3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 2, "b": 3}, v)

	absent := Synthesize(introspect.Optional("label", nil), nil, "")
	v, err = absent.Coerce(nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestSynthesizePointerDefaults(t *testing.T) {
	toggle := Synthesize(introspect.KeywordOnly("verbose", ptr.To(true)), nil, "")
	assert.Equal(t, BooleanToggle, toggle.Coercion)
	assert.Equal(t, true, toggle.Default)
	assert.False(t, toggle.Toggle(true))

	tags := Synthesize(introspect.KeywordOnly("tags", &[]string{"a"}), nil, "")
	assert.Equal(t, ZeroOrMore, tags.Multiplicity)
	assert.Equal(t, []string{"a"}, tags.Default)
	assert.Equal(t, reflect.TypeFor[string](), tags.ValueType)

	empty := Synthesize(introspect.KeywordOnly("names", &[]string{}), nil, "")
	assert.Equal(t, OneOrMore, empty.Multiplicity)

	count := Synthesize(introspect.KeywordOnly("count", ptr.To(3)), nil, "")
	assert.Equal(t, Numeric, count.Coercion)
	assert.Equal(t, 3, count.Default)
	v, err := count.Coerce("4")
	require.NoError(t, err)
	assert.Equal(t, 4, v)

	unset := Synthesize(introspect.KeywordOnly("limit", (*int)(nil)), nil, "")
	assert.True(t, unset.Suppressed)
	assert.Nil(t, unset.Default)
}

func TestCoerceRejectsLossyNumbers(t *testing.T) {
	count := Synthesize(introspect.KeywordOnly("count", 1), nil, "")
	_, err := count.Coerce(2.7)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidRequest))

	v, err := count.Coerce(3.0)
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	size := Synthesize(introspect.KeywordOnly("size", uint(1)), nil, "")
	_, err = size.Coerce(-1)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidRequest))
}

func TestParseEntries(t *testing.T) {
	got, malformed := ParseEntries([]string{"a=1", "b=x=y", "bad", "=none", "a=2"})
	assert.Equal(t, map[string]any{"a": "2", "b": "x=y"}, got)
	assert.Equal(t, []string{"bad", "=none"}, malformed)

	got, malformed = ParseEntries(map[string]any{"a": 1})
	assert.Equal(t, map[string]any{"a": 1}, got)
	assert.Empty(t, malformed)
}

func TestVersionDescriptor(t *testing.T) {
	d := VersionDescriptor("0.1", nil)
	assert.Equal(t, "--version", d.Spelling)
	assert.Equal(t, "version", d.Key)
	assert.True(t, d.IsVersion())
}

func TestMetavar(t *testing.T) {
	d := Synthesize(introspect.Optional("tags", []string{}), []string{"srv"}, "")
	assert.Equal(t, "SRV_TAGS [SRV_TAGS ...]", d.Metavar())
}
