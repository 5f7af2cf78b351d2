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
	"log/slog"
	"regexp"
	"strings"

	"k8s.io/utils/ptr"

	"github.com/NVIDIA/simplifiedapp/pkg/errors"
	"github.com/NVIDIA/simplifiedapp/pkg/introspect"
)

// Metadata is what can be learned about a target from its registration and
// its documentation text. It is built once and never modified.
type Metadata struct {
	Name            string                              `json:"name" yaml:"name"`
	Version         string                              `json:"version,omitempty" yaml:"version,omitempty"`
	Description     string                              `json:"description,omitempty" yaml:"description,omitempty"`
	LongDescription string                              `json:"longDescription,omitempty" yaml:"longDescription,omitempty"`
	Parameters      map[string]introspect.Documentation `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Returns         *Returns                            `json:"returns,omitempty" yaml:"returns,omitempty"`
}

// Returns documents the result of a callable.
type Returns struct {
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	TypeName    string `json:"typeName,omitempty" yaml:"typeName,omitempty"`
}

// Parameter returns the documentation of the named parameter.
func (m Metadata) Parameter(name string) (introspect.Documentation, bool) {
	d, ok := m.Parameters[name]
	return d, ok
}

var (
	fieldPattern    = regexp.MustCompile(`^:([A-Za-z]+)(?:\s+([^:]*?))?\s*:\s*(.*)$`)
	optionalPattern = regexp.MustCompile(`^Optional\[(.*)\]$`)
)

// Extract builds Metadata from a name, an explicit version tag and free-text
// documentation. The first paragraph becomes the description and the others
// the long description. reST field lists document parameters:
//
//	:param int count: how many, optional
//	:type count: int, optional
//	:returns: the greeting
//	:rtype: str
//	:version: 1.0
//
// An explicit version wins over a :version: field.
func Extract(name, version, doc string) Metadata {
	md := Metadata{Name: name, Version: version}

	lines := cleanDoc(doc)
	text, fields := splitFields(lines)

	paragraphs := splitParagraphs(text)
	if len(paragraphs) > 0 {
		md.Description = paragraphs[0]
	}
	if len(paragraphs) > 1 {
		md.LongDescription = strings.Join(paragraphs[1:], "\n\n")
	}

	params := map[string]introspect.Documentation{}
	for _, f := range fields {
		m := fieldPattern.FindStringSubmatch(f)
		if m == nil {
			continue
		}
		key, arg, body := strings.ToLower(m[1]), strings.TrimSpace(m[2]), strings.TrimSpace(m[3])

		switch key {
		case "param", "parameter", "arg", "argument", "key", "keyword":
			pname, typeName := arg, ""
			if i := strings.LastIndexAny(arg, " \t"); i >= 0 {
				typeName, pname = strings.TrimSpace(arg[:i]), arg[i+1:]
			}
			if pname == "" {
				continue
			}
			d := params[pname]
			d.Description = body
			if typeName != "" {
				setType(&d, typeName)
			}
			params[pname] = d
		case "type":
			if arg == "" {
				continue
			}
			d := params[arg]
			setType(&d, body)
			params[arg] = d
		case "returns", "return":
			if md.Returns == nil {
				md.Returns = &Returns{}
			}
			md.Returns.Description = body
		case "rtype":
			if md.Returns == nil {
				md.Returns = &Returns{}
			}
			md.Returns.TypeName = body
		case "version":
			if md.Version == "" {
				md.Version = body
			}
		}
	}
	if len(params) > 0 {
		md.Parameters = params
	}
	return md
}

// Attach returns a copy of sig with documentation attached to each documented
// parameter that has none declared. Documented names missing from the
// signature are logged and ignored.
func Attach(sig introspect.Signature, md Metadata) introspect.Signature {
	out := sig
	out.Params = append([]introspect.Parameter(nil), sig.Params...)

	names := make(map[string]int, len(out.Params))
	for i, p := range out.Params {
		names[p.Name] = i
	}

	for name, doc := range md.Parameters {
		i, ok := names[name]
		if !ok {
			if !sig.Generic {
				slog.Warn("documentation references a missing parameter",
					"callable", md.Name,
					"parameter", name,
					"code", errors.ErrCodeDocumentationMismatch)
			}
			continue
		}
		if out.Params[i].Documentation == nil {
			d := doc
			out.Params[i].Documentation = &d
		}
	}
	return out
}

func setType(d *introspect.Documentation, typeName string) {
	typeName = strings.TrimSpace(typeName)
	switch {
	case strings.HasSuffix(typeName, ", optional"):
		typeName = strings.TrimSpace(strings.TrimSuffix(typeName, ", optional"))
		d.IsOptional = ptr.To(true)
	case strings.HasSuffix(typeName, "?"):
		typeName = strings.TrimSuffix(typeName, "?")
		d.IsOptional = ptr.To(true)
	case optionalPattern.MatchString(typeName):
		typeName = optionalPattern.FindStringSubmatch(typeName)[1]
		d.IsOptional = ptr.To(true)
	default:
		d.IsOptional = ptr.To(false)
	}
	d.TypeName = typeName
}

// cleanDoc removes the indentation common to all lines but the first and
// trims leading and trailing blank lines.
func cleanDoc(doc string) []string {
	doc = strings.ReplaceAll(doc, "\t", "    ")
	lines := strings.Split(doc, "\n")

	indent := -1
	for _, l := range lines[1:] {
		trimmed := strings.TrimLeft(l, " ")
		if trimmed == "" {
			continue
		}
		if n := len(l) - len(trimmed); indent < 0 || n < indent {
			indent = n
		}
	}

	out := make([]string, 0, len(lines))
	for i, l := range lines {
		if i == 0 {
			out = append(out, strings.TrimSpace(l))
			continue
		}
		if indent > 0 && len(l) >= indent {
			l = l[indent:]
		}
		out = append(out, strings.TrimRight(l, " \r"))
	}

	for len(out) > 0 && out[0] == "" {
		out = out[1:]
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}

// splitFields separates the free text from the field list. A field's
// indented continuation lines are folded into it.
func splitFields(lines []string) ([]string, []string) {
	var text, fields []string
	inFields := false
	for _, l := range lines {
		switch {
		case strings.HasPrefix(l, ":") && fieldPattern.MatchString(l):
			inFields = true
			fields = append(fields, l)
		case inFields && len(fields) > 0 && (strings.HasPrefix(l, " ") || l == ""):
			if s := strings.TrimSpace(l); s != "" {
				fields[len(fields)-1] += " " + s
			}
		case inFields:
			// free text after the field list belongs to the long description
			text = append(text, "", l)
			inFields = false
		default:
			text = append(text, l)
		}
	}
	return text, fields
}

func splitParagraphs(lines []string) []string {
	var out, cur []string
	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.Join(cur, "\n"))
			cur = nil
		}
	}
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			flush()
			continue
		}
		cur = append(cur, l)
	}
	flush()
	return out
}
