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

package target

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/simplifiedapp/pkg/errors"
	"github.com/NVIDIA/simplifiedapp/pkg/introspect"
)

func double(n int) int { return n * 2 }

type store struct {
	items []string
}

func (s *store) Init(_ map[string]any) {}

func (s *store) Put(item string) { s.items = append(s.items, item) }

func (s *store) Len() int { return len(s.items) }

func (s *store) Reset() { s.items = nil }

func TestFrom(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		wantKind Kind
		wantName string
		wantErr  bool
	}{
		{name: "plain func", value: double, wantKind: KindCallable, wantName: "double"},
		{name: "function", value: Func("twice", double), wantKind: KindCallable, wantName: "twice"},
		{name: "class", value: ClassOf[store]("store", ""), wantKind: KindClass, wantName: "store"},
		{name: "namespace", value: &Namespace{Name: "tools"}, wantKind: KindNamespace, wantName: "tools"},
		{name: "nil", value: nil, wantErr: true},
		{name: "string", value: "double", wantErr: true},
		{name: "function without func", value: &Function{Name: "x"}, wantErr: true},
		{name: "class without type", value: &Class{Name: "x"}, wantErr: true},
		{name: "nil namespace", value: (*Namespace)(nil), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := From(tt.value)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, errors.ErrCodeUnsupportedTarget))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, got.Kind())
			assert.Equal(t, tt.wantName, got.TargetName())
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "callable", KindCallable.String())
	assert.Equal(t, "class", KindClass.String())
	assert.Equal(t, "namespace", KindNamespace.String())
	assert.Equal(t, "Kind(7)", Kind(7).String())
}

func TestVisible(t *testing.T) {
	assert.True(t, Visible("run", nil))
	assert.False(t, Visible("_run", nil))
	assert.True(t, Visible("_run", []string{"_run"}))
}

func TestNamespaceVisibleMembers(t *testing.T) {
	ns := (&Namespace{Name: "tools", AllowPrivate: []string{"_allowed"}}).Add(
		Func("run", double),
		Func("_hidden", double),
		Func("_allowed", double),
		nil,
	)

	var names []string
	for _, m := range ns.VisibleMembers() {
		names = append(names, m.TargetName())
	}
	assert.Equal(t, []string{"run", "_allowed"}, names)
}

func TestClassTargetName(t *testing.T) {
	c := &Class{Type: reflect.TypeFor[*store]()}
	assert.Equal(t, "store", c.TargetName())

	c.Name = "db"
	assert.Equal(t, "db", c.TargetName())
}

func TestMemberFunctions(t *testing.T) {
	c := ClassOf[store]("store", "")
	c.Init = Func("init", (*store).Init, introspect.VariadicKeyword("options"))
	c.Method("put", (*store).Put, introspect.Required("item"))
	c.Method("_secret", (*store).Reset)

	names := func() []string {
		var out []string
		for _, m := range c.MemberFunctions() {
			out = append(out, m.TargetName())
		}
		return out
	}

	assert.Equal(t, []string{"put"}, names())

	c.Discover = true
	// Put is registered, Init is the initializer.
	assert.Equal(t, []string{"put", "Len", "Reset"}, names())

	members := c.MemberFunctions()
	assert.Nil(t, members[1].Params)
	assert.NotNil(t, members[1].Fn)
}
