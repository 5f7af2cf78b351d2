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

package serializer

import (
	"encoding"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Pretty formats v for humans. Values that fit in width columns are written
// on one line; containers that do not are broken one entry per line, with
// continuation lines aligned after the opening bracket. Map keys are sorted.
// A container that contains itself is printed as a recursion marker at the
// point where it repeats.
func Pretty(v any, width int) string {
	p := &printer{width: width, active: make(map[visit]struct{})}
	return p.format(reflect.ValueOf(v), 0)
}

type printer struct {
	width int
	// active holds the containers on the path from the root to the value
	// being printed.
	active map[visit]struct{}
}

type entry struct {
	key   string
	value reflect.Value
}

func (p *printer) format(v reflect.Value, indent int) string {
	id, tracked := identity(v)
	if _, seen := p.active[id]; tracked && seen {
		return recursion(v)
	}

	one := p.inline(v)
	if indent+len(one) <= p.width {
		return one
	}

	v = deref(v)
	if !v.IsValid() || isScalar(v) {
		return one
	}

	lb, rb, entries := p.entries(v)
	if len(entries) == 0 {
		return one
	}
	if tracked {
		p.active[id] = struct{}{}
		defer delete(p.active, id)
	}

	var b strings.Builder
	b.WriteString(lb)
	pad := strings.Repeat(" ", indent+len(lb))
	for i, e := range entries {
		if i > 0 {
			b.WriteString(",\n")
			b.WriteString(pad)
		}
		col := indent + len(lb)
		if e.key != "" {
			b.WriteString(e.key)
			b.WriteString(": ")
			col += len(e.key) + 2
		}
		b.WriteString(p.format(e.value, col))
	}
	b.WriteString(rb)
	return b.String()
}

func (p *printer) inline(v reflect.Value) string {
	id, tracked := identity(v)
	if _, seen := p.active[id]; tracked && seen {
		return recursion(v)
	}

	v = deref(v)
	if !v.IsValid() {
		return "nil"
	}
	if s, ok := scalar(v); ok {
		return s
	}
	if tracked {
		p.active[id] = struct{}{}
		defer delete(p.active, id)
	}

	lb, rb, entries := p.entries(v)
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.key != "" {
			parts = append(parts, e.key+": "+p.inline(e.value))
			continue
		}
		parts = append(parts, p.inline(e.value))
	}
	return lb + strings.Join(parts, ", ") + rb
}

// entries returns the brackets and the entries of a container value.
func (p *printer) entries(v reflect.Value) (string, string, []entry) {
	//nolint:exhaustive // scalars never reach here
	switch v.Kind() {
	case reflect.Map:
		out := make([]entry, 0, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out = append(out, entry{key: p.inline(iter.Key()), value: iter.Value()})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
		return "{", "}", out
	case reflect.Slice, reflect.Array:
		out := make([]entry, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			out = append(out, entry{value: v.Index(i)})
		}
		return "[", "]", out
	case reflect.Struct:
		t := v.Type()
		out := make([]entry, 0, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			out = append(out, entry{key: t.Field(i).Name, value: v.Field(i)})
		}
		name := t.Name()
		return name + "{", "}", out
	default:
		return "", "", nil
	}
}

// visit identifies a pointer, map or slice on the current path of a walk.
type visit struct {
	ptr uintptr
	typ reflect.Type
	len int
}

// identity returns the identity of the pointer, map or slice behind v.
// Values that cannot refer back to themselves report false.
func identity(v reflect.Value) (visit, bool) {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return visit{}, false
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return visit{}, false
	}

	//nolint:exhaustive // only reference kinds can form a cycle
	switch v.Kind() {
	case reflect.Pointer, reflect.Map:
		if v.IsNil() {
			return visit{}, false
		}
		return visit{ptr: v.Pointer(), typ: v.Type()}, true
	case reflect.Slice:
		if v.Len() == 0 {
			return visit{}, false
		}
		return visit{ptr: v.Pointer(), typ: v.Type(), len: v.Len()}, true
	default:
		return visit{}, false
	}
}

// recursion is the marker printed in place of a container met again below
// itself.
func recursion(v reflect.Value) string {
	for (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer) && !v.IsNil() {
		v = v.Elem()
	}
	return fmt.Sprintf("<recursion on %s>", v.Type())
}

var (
	timeType     = reflect.TypeFor[time.Time]()
	stringerType = reflect.TypeFor[fmt.Stringer]()
	errorType    = reflect.TypeFor[error]()
)

func deref(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		if v.Kind() == reflect.Pointer && implementsText(v.Type()) {
			return v
		}
		v = v.Elem()
	}
	return v
}

func implementsText(t reflect.Type) bool {
	return t.Implements(errorType) || t.Implements(stringerType)
}

func isScalar(v reflect.Value) bool {
	_, ok := scalar(v)
	return ok
}

// scalar returns the one-line form of non-container values.
func scalar(v reflect.Value) (string, bool) {
	if v.Type() == timeType {
		return v.Interface().(time.Time).Format(time.RFC3339), true
	}
	if v.CanInterface() {
		switch i := v.Interface().(type) {
		case error:
			return strconv.Quote(i.Error()), true
		case fmt.Stringer:
			return i.String(), true
		case encoding.TextMarshaler:
			if b, err := i.MarshalText(); err == nil {
				return string(b), true
			}
		}
	}

	//nolint:exhaustive // containers are handled by the caller
	switch v.Kind() {
	case reflect.String:
		return strconv.Quote(v.String()), true
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(v.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, v.Type().Bits()), true
	case reflect.Complex64, reflect.Complex128:
		return strconv.FormatComplex(v.Complex(), 'g', -1, v.Type().Bits()), true
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return "", false
	default:
		return fmt.Sprintf("<%s>", v.Type()), true
	}
}
