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

package tree

import (
	"bytes"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/simplifiedapp/pkg/errors"
	"github.com/NVIDIA/simplifiedapp/pkg/flagspec"
	"github.com/NVIDIA/simplifiedapp/pkg/introspect"
	"github.com/NVIDIA/simplifiedapp/pkg/target"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func spellings(leaves []Leaf) []string {
	out := make([]string, 0, len(leaves))
	for _, l := range leaves {
		out = append(out, l.Flag.Spelling)
	}
	return out
}

func join(a, b, c string) string { return a + b + c }

func TestBuildRequiredLeaves(t *testing.T) {
	fn := target.Func("join", join,
		introspect.Required("a"), introspect.Required("b"), introspect.Required("c"))

	branch, err := Build(fn)
	require.NoError(t, err)

	assert.Equal(t, "join", branch.Name)
	assert.Empty(t, branch.Path)
	assert.Len(t, branch.Leaves, 3)
	assert.Len(t, branch.RequiredLeaves(), 3)
	for _, l := range branch.Leaves {
		assert.True(t, l.Flag.Required)
		assert.True(t, l.Flag.Positional)
	}
	require.NotNil(t, branch.Plan)
	assert.Nil(t, branch.Construct)
}

func greet(name string, count int) string {
	return strings.Repeat("hello "+name, count)
}

func TestBuildFunctionMetadata(t *testing.T) {
	fn := &target.Function{
		Name: "greet",
		Doc: `Say hello.

		Greets someone.

		:param name: who to greet
		:param ghost: not a parameter
		:returns: the greeting
		:version: 1.0`,
		Params: []introspect.Parameter{introspect.Required("name"), introspect.Optional("count", 1)},
		Fn:     greet,
	}

	buf := captureLogs(t)
	branch, err := Build(fn)
	require.NoError(t, err)

	assert.Equal(t, "Say hello.", branch.Metadata.Description)
	assert.Equal(t, "Greets someone.\n\nReturns: the greeting", branch.Description())
	assert.Equal(t, []string{"name", "--count", "--version"}, spellings(branch.Leaves))
	assert.Equal(t, "who to greet", branch.Leaves[0].Flag.HelpText)
	assert.True(t, branch.Leaves[2].Flag.IsVersion())
	assert.Contains(t, buf.String(), string(errors.ErrCodeDocumentationMismatch))
}

func add(a, b int) int { return a + b }

func opaque(ch chan int) {}

func sub(a, b int) int { return a - b }

func TestBuildNamespaceSkipsUnintrospectable(t *testing.T) {
	ns := &target.Namespace{Name: "tools"}
	ns.Add(
		target.Func("add", add, introspect.Required("a"), introspect.Optional("b", 2)),
		&target.Function{Name: "opaque", Fn: opaque},
		target.Func("sub", sub, introspect.Required("a"), introspect.Required("b")),
	)

	buf := captureLogs(t)
	branch, err := Build(ns)
	require.NoError(t, err)

	require.Len(t, branch.Commands, 2)
	assert.Equal(t, "add", branch.Commands[0].Name)
	assert.Equal(t, "sub", branch.Commands[1].Name)
	assert.Nil(t, branch.Child("opaque"))
	assert.Equal(t, 1, strings.Count(buf.String(), "level=WARN"))
	assert.Equal(t, "Tools callables", branch.Title)

	addBranch := branch.Child("add")
	require.NotNil(t, addBranch)
	assert.Equal(t, []string{"add"}, addBranch.Path)
	assert.Equal(t, []string{"add-a", "--add-b"}, spellings(addBranch.Leaves))
	assert.Equal(t, "add-a", addBranch.Plan.Positional[0].Key)
}

func TestBuildNamespacePrivacy(t *testing.T) {
	ns := &target.Namespace{Name: "tools", AllowPrivate: []string{"_debug"}}
	ns.Add(
		target.Func("_hidden", add, introspect.Required("a"), introspect.Required("b")),
		target.Func("_debug", add, introspect.Required("a"), introspect.Required("b")),
	)

	branch, err := Build(ns)
	require.NoError(t, err)
	require.Len(t, branch.Commands, 1)
	assert.Equal(t, "debug", branch.Commands[0].Name)
}

func TestBuildNestedNamespace(t *testing.T) {
	inner := &target.Namespace{Name: "inner"}
	outer := (&target.Namespace{Name: "outer"}).Add(inner)

	_, err := Build(outer)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnsupportedTarget))
}

func TestBuildInvalidDeclaration(t *testing.T) {
	ns := (&target.Namespace{Name: "tools"}).Add(
		target.Func("add", add, introspect.Required("a")),
	)
	_, err := Build(ns)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnsupportedTarget))
}

type server struct {
	host string
	port int
	log  []string
}

func newServer(host string) *server {
	return &server{host: host}
}

func (s *server) Init(port int, opts map[string]any) {
	s.port = port
}

func (s *server) Start(verbose bool) string {
	return s.host
}

func (s *server) Stop() {}

func (s *server) Attach(ch chan string) {}

func TestBuildClass(t *testing.T) {
	cls := target.ClassOf[server]("server", "Runs a server.\n\n:version: 2.1")
	cls.New = target.Func("newServer", newServer, introspect.Required("host"))
	cls.Init = target.Func("Init", (*server).Init,
		introspect.Optional("port", 8080), introspect.VariadicKeyword("opts"))
	cls.Method("start", (*server).Start, introspect.Optional("verbose", false))
	cls.Discover = true

	buf := captureLogs(t)
	branch, err := Build(cls)
	require.NoError(t, err)

	assert.Equal(t, target.KindClass, branch.Kind)
	assert.Equal(t, "Server methods", branch.Title)
	assert.Equal(t, []string{"host", "--port", "--opts", "--version"}, spellings(branch.Leaves))
	require.NotNil(t, branch.Construct)
	assert.Nil(t, branch.Plan)
	assert.Equal(t, reflect.TypeFor[*server](), branch.Construct.Type)
	assert.Equal(t, "opts", branch.Construct.Init.VariadicKeyword.Key)

	var names []string
	for _, c := range branch.Commands {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"start", "stop"}, names)
	assert.Contains(t, buf.String(), "member=Attach")

	start := branch.Child("start")
	require.NotNil(t, start)
	assert.Equal(t, []string{"start"}, start.Path)
	assert.Equal(t, []string{"--start-verbose"}, spellings(start.Leaves))
	assert.Equal(t, spellings(branch.Leaves), spellings(start.Inherited))
	assert.Same(t, branch.Construct, start.Construct)
	assert.Equal(t, flagspec.BooleanToggle, start.Leaves[0].Flag.Coercion)
}

func TestBuildClassWithPath(t *testing.T) {
	cls := target.ClassOf[server]("server", "")
	cls.New = target.Func("newServer", newServer, introspect.Required("host"))

	ns := (&target.Namespace{Name: "apps"}).Add(cls)
	branch, err := Build(ns)
	require.NoError(t, err)

	srv := branch.Child("server")
	require.NotNil(t, srv)
	assert.Equal(t, []string{"server-host"}, spellings(srv.Leaves))
	assert.Empty(t, srv.Commands)
}

func TestBuildUnsupported(t *testing.T) {
	_, err := Build(nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnsupportedTarget))
}

func TestWalk(t *testing.T) {
	ns := (&target.Namespace{Name: "tools"}).Add(
		target.Func("add", add, introspect.Required("a"), introspect.Required("b")),
		target.Func("sub", sub, introspect.Required("a"), introspect.Required("b")),
	)
	branch, err := Build(ns, WithRootName("calc"))
	require.NoError(t, err)

	var seen []string
	branch.Walk(func(b *Branch) { seen = append(seen, b.Name) })
	assert.Equal(t, []string{"calc", "add", "sub"}, seen)
}
