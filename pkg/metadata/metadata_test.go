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

package metadata

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"

	"github.com/NVIDIA/simplifiedapp/pkg/introspect"
)

const greetDoc = `Say hello.

	Builds a greeting for the given name.

	The greeting is not localized.

	:param str name: who to greet
	:param count: how many times,
	    at least one
	:type count: int, optional
	:param ghost: not in the signature
	:returns: the greeting
	:rtype: str
	:version: 0.3
	`

func TestExtract(t *testing.T) {
	md := Extract("greet", "", greetDoc)

	assert.Equal(t, "greet", md.Name)
	assert.Equal(t, "0.3", md.Version)
	assert.Equal(t, "Say hello.", md.Description)
	assert.Equal(t, "Builds a greeting for the given name.\n\nThe greeting is not localized.", md.LongDescription)

	require.Len(t, md.Parameters, 3)
	name, ok := md.Parameter("name")
	require.True(t, ok)
	assert.Equal(t, "who to greet", name.Description)
	assert.Equal(t, "str", name.TypeName)
	assert.Equal(t, ptr.To(false), name.IsOptional)

	count := md.Parameters["count"]
	assert.Equal(t, "how many times, at least one", count.Description)
	assert.Equal(t, "int", count.TypeName)
	assert.Equal(t, ptr.To(true), count.IsOptional)

	ghost := md.Parameters["ghost"]
	assert.Nil(t, ghost.IsOptional)

	require.NotNil(t, md.Returns)
	assert.Equal(t, "the greeting", md.Returns.Description)
	assert.Equal(t, "str", md.Returns.TypeName)
}

func TestExtractVersionPrecedence(t *testing.T) {
	md := Extract("x", "2.0", ":version: 1.0")
	assert.Equal(t, "2.0", md.Version)
}

func TestExtractEmpty(t *testing.T) {
	md := Extract("x", "", "")
	assert.Equal(t, Metadata{Name: "x"}, md)
}

func TestExtractOptionalForms(t *testing.T) {
	md := Extract("x", "", ":param Optional[int] a: first\n:param int? b: second")
	assert.Equal(t, "int", md.Parameters["a"].TypeName)
	assert.Equal(t, ptr.To(true), md.Parameters["a"].IsOptional)
	assert.Equal(t, "int", md.Parameters["b"].TypeName)
	assert.Equal(t, ptr.To(true), md.Parameters["b"].IsOptional)
}

func TestAttach(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	sig := introspect.Signature{Params: []introspect.Parameter{
		introspect.Required("name"),
		introspect.Optional("count", 1),
		introspect.Optional("label", "x").Documented(introspect.Documentation{Description: "declared"}),
	}}
	md := Extract("greet", "", greetDoc+"\n\t:param label: from text")

	got := Attach(sig, md)

	require.NotNil(t, got.Params[0].Documentation)
	assert.Equal(t, "who to greet", got.Params[0].Documentation.Description)
	assert.Equal(t, "declared", got.Params[2].Documentation.Description)
	assert.Nil(t, sig.Params[0].Documentation, "input signature must not be modified")
	assert.Contains(t, buf.String(), "parameter=ghost")
	assert.Contains(t, buf.String(), "DOCUMENTATION_MISMATCH")
}
