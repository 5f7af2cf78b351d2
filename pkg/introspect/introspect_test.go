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
	"context"
	"fmt"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/simplifiedapp/pkg/errors"
)

type counter struct {
	base int
}

func (c *counter) Add(n int) int {
	return c.base + n
}

func (c counter) Describe(ctx context.Context, label string) string {
	return fmt.Sprintf("%s=%d", label, c.base)
}

func TestExtractKinds(t *testing.T) {
	fn := func(a string, b int, kw map[string]any, rest ...string) string { return a }

	c, err := Extract(fn, []Parameter{
		Required("a"),
		Optional("b", 2),
		Variadic("rest"),
		Optional("c", 3), // after the variadic slot: keyword-only
		VariadicKeyword("extra"),
	}, WithName("f"))
	require.NoError(t, err)

	sig := c.Signature()
	kinds := make([]Kind, 0, len(sig.Params))
	for _, p := range sig.Params {
		kinds = append(kinds, p.Kind)
	}
	assert.Equal(t, []Kind{KindPositionalRequired, KindPositionalDefault, KindVariadicPositional, KindKeywordOnly, KindVariadicKeyword}, kinds)
	assert.Equal(t, "f", c.Name())
	assert.Equal(t, reflect.TypeFor[string](), sig.Params[0].Type)
	assert.Equal(t, reflect.TypeFor[int](), sig.Params[1].Type)
	assert.Equal(t, reflect.TypeFor[string](), sig.Params[2].Type)
	assert.False(t, sig.Generic)
}

func TestExtractFallback(t *testing.T) {
	fn := func(a string, n int) string { return strings.Repeat(a, n) }

	c, err := Extract(fn, nil)
	require.NoError(t, err)

	sig := c.Signature()
	assert.True(t, sig.Generic)
	assert.Equal(t, []string{"args", "kwargs"}, sig.Names())

	got, err := c.Call(context.Background(), nil, []any{"ab", "3"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ababab", got)
}

func TestExtractNoInputsIsKnown(t *testing.T) {
	c, err := Extract(func() string { return "ok" }, nil)
	require.NoError(t, err)
	assert.False(t, c.Signature().Generic)
	assert.Empty(t, c.Signature().Params)
}

func TestExtractUnintrospectable(t *testing.T) {
	tests := []struct {
		name string
		fn   any
	}{
		{name: "nil", fn: nil},
		{name: "not a func", fn: 42},
		{name: "channel input", fn: func(ch chan int) {}},
		{name: "three results", fn: func() (int, int, error) { return 0, 0, nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(tt.fn, nil)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeUnintrospectableSignature), err.Error())
		})
	}
}

func TestExtractInvalidDeclarations(t *testing.T) {
	tests := []struct {
		name     string
		fn       any
		declared []Parameter
	}{
		{
			name:     "required after default",
			fn:       func(a, b string) {},
			declared: []Parameter{Optional("a", "x"), Required("b")},
		},
		{
			name:     "two variadic positional",
			fn:       func(a ...string) {},
			declared: []Parameter{Variadic("a"), Variadic("b")},
		},
		{
			name:     "duplicate name",
			fn:       func(a, b string) {},
			declared: []Parameter{Required("a"), Required("a")},
		},
		{
			name:     "arity mismatch",
			fn:       func(a string) {},
			declared: []Parameter{Required("a"), Required("b")},
		},
		{
			name:     "keyword input not a map",
			fn:       func(a string, kw string) {},
			declared: []Parameter{Required("a"), KeywordOnly("k", 1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(tt.fn, tt.declared)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeUnsupportedTarget), err.Error())
		})
	}
}

func TestExtractOwnerDetection(t *testing.T) {
	ownerType := reflect.TypeFor[*counter]()

	c, err := Extract((*counter).Add, []Parameter{Required("n")}, WithOwner(ownerType))
	require.NoError(t, err)
	assert.True(t, c.NeedsOwner())
	assert.True(t, c.Signature().Owner)
	assert.Equal(t, []string{"n"}, c.Signature().Names())

	got, err := c.Call(context.Background(), &counter{base: 40}, []any{"2"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 42, got)

	// value receiver with context after it
	d, err := Extract(counter.Describe, []Parameter{Required("label")}, WithOwner(ownerType))
	require.NoError(t, err)
	got, err = d.Call(context.Background(), &counter{base: 7}, []any{"x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "x=7", got)

	_, err = c.Call(context.Background(), nil, []any{"1"}, nil)
	assert.Error(t, err)
}

func TestExtractDeclaredSelf(t *testing.T) {
	inv := MethodInvoker(func(_ context.Context, owner any, args []any, _ map[string]any) (any, error) {
		return fmt.Sprint(owner, args), nil
	})
	c, err := Extract(inv, []Parameter{Required("self"), Required("x")}, WithOwner(reflect.TypeFor[*counter]()))
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, c.Signature().Names())
	assert.True(t, c.Signature().Owner)
}

func TestCallKeywordsAndVariadic(t *testing.T) {
	fn := func(ctx context.Context, a string, kw map[string]any, rest ...int) (map[string]any, error) {
		sum := 0
		for _, r := range rest {
			sum += r
		}
		return map[string]any{"a": a, "kw": kw, "sum": sum}, nil
	}
	c, err := Extract(fn, []Parameter{Required("a"), Variadic("rest"), VariadicKeyword("kw")})
	require.NoError(t, err)

	got, err := c.Call(context.Background(), nil, []any{"x", "1", 2, 3.0}, map[string]any{"k": "v"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "x", "kw": map[string]any{"k": "v"}, "sum": 6}, got)
}

func TestCallReturnsError(t *testing.T) {
	boom := fmt.Errorf("boom")
	c, err := Extract(func() error { return boom }, []Parameter{})
	require.NoError(t, err)
	_, err = c.Call(context.Background(), nil, nil, nil)
	assert.ErrorIs(t, err, boom)
}

func TestInvoker(t *testing.T) {
	inv := Invoker(func(_ context.Context, args []any, kwargs map[string]any) (any, error) {
		return len(args) + len(kwargs), nil
	})
	c, err := Extract(inv, nil, WithName("count"))
	require.NoError(t, err)
	assert.True(t, c.Signature().Generic)

	got, err := c.Call(context.Background(), nil, []any{1, 2}, map[string]any{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, 3, got)
}

func TestConvert(t *testing.T) {
	five := 5

	tests := []struct {
		name    string
		in      any
		to      reflect.Type
		want    any
		wantErr bool
	}{
		{name: "string to int", in: "42", to: reflect.TypeFor[int](), want: 42},
		{name: "hex to int64", in: "0x10", to: reflect.TypeFor[int64](), want: int64(16)},
		{name: "float64 to int", in: 3.0, to: reflect.TypeFor[int](), want: 3},
		{name: "string to bool", in: "yes", to: reflect.TypeFor[bool](), want: true},
		{name: "string to float", in: "2.5", to: reflect.TypeFor[float64](), want: 2.5},
		{name: "nil to zero", in: nil, to: reflect.TypeFor[string](), want: ""},
		{name: "scalar to slice", in: "a", to: reflect.TypeFor[[]string](), want: []string{"a"}},
		{name: "slice elements", in: []any{"1", 2}, to: reflect.TypeFor[[]int](), want: []int{1, 2}},
		{name: "map values", in: map[string]any{"a": "1"}, to: reflect.TypeFor[map[string]int](), want: map[string]int{"a": 1}},
		{name: "non-empty interface", in: "1m", to: reflect.TypeFor[interface{ String() string }](), wantErr: true},
		{name: "int to string", in: 7, to: reflect.TypeFor[string](), want: "7"},
		{name: "bad int", in: "x", to: reflect.TypeFor[int](), wantErr: true},
		{name: "fraction to int", in: 2.7, to: reflect.TypeFor[int](), wantErr: true},
		{name: "negative to uint", in: -1, to: reflect.TypeFor[uint](), wantErr: true},
		{name: "negative float to uint", in: -1.0, to: reflect.TypeFor[uint64](), wantErr: true},
		{name: "int overflows int8", in: 300, to: reflect.TypeFor[int8](), wantErr: true},
		{name: "float overflows int64", in: 1e19, to: reflect.TypeFor[int64](), wantErr: true},
		{name: "uint overflows int", in: uint64(math.MaxUint64), to: reflect.TypeFor[int](), wantErr: true},
		{name: "int to uint8", in: 200, to: reflect.TypeFor[uint8](), want: uint8(200)},
		{name: "int to float32", in: 3, to: reflect.TypeFor[float32](), want: float32(3)},
		{name: "string to pointer", in: "5", to: reflect.TypeFor[*int](), want: &five},
		{name: "float to pointer", in: 5.0, to: reflect.TypeFor[*int](), want: &five},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(tt.in, tt.to)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Interface())
		})
	}
}

func TestIsFeedable(t *testing.T) {
	assert.True(t, IsFeedable(reflect.TypeFor[[]string]()))
	assert.True(t, IsFeedable(reflect.TypeFor[map[string]any]()))
	assert.True(t, IsFeedable(reflect.TypeFor[any]()))
	assert.True(t, IsFeedable(reflect.TypeFor[*int]()))
	assert.False(t, IsFeedable(reflect.TypeFor[*struct{}]()))
	assert.False(t, IsFeedable(reflect.TypeFor[chan int]()))
	assert.False(t, IsFeedable(reflect.TypeFor[struct{}]()))
	assert.False(t, IsFeedable(reflect.TypeFor[map[int]string]()))
}

func TestFuncName(t *testing.T) {
	c := &counter{}
	assert.Equal(t, "Add", FuncName((*counter).Add))
	assert.Equal(t, "Add", FuncName(c.Add))
	assert.Equal(t, "TestFuncName", FuncName(TestFuncName))
	assert.Equal(t, "", FuncName(42))
	assert.Equal(t, "", FuncName((func())(nil)))
}
