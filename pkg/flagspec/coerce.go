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
	"sort"
	"strings"

	"github.com/NVIDIA/simplifiedapp/pkg/errors"
	"github.com/NVIDIA/simplifiedapp/pkg/introspect"
)

// Coerce converts a raw value from the command line or an input file into
// the typed value the descriptor implies. Strings are parsed, sequences are
// converted element-wise and key=value lists become a mapping.
func (d Descriptor) Coerce(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}

	switch {
	case d.Coercion == BooleanToggle:
		return coerceBool(d, raw)
	case d.Coercion == KeyValueList:
		entries, malformed := ParseEntries(raw)
		for _, m := range malformed {
			slog.Warn("dropping malformed key=value entry", "flag", d.Spelling, "entry", m)
		}
		if d.ValueType == nil {
			return entries, nil
		}
		for k, v := range entries {
			cv, err := d.convert(v)
			if err != nil {
				return nil, err
			}
			entries[k] = cv
		}
		return entries, nil
	case d.IsSequence():
		items := asList(raw)
		out := make([]any, 0, len(items))
		for i, item := range items {
			cv, err := d.convert(item)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidRequest,
					fmt.Sprintf("%s: element %d", d.Spelling, i), err)
			}
			if err := d.checkChoice(cv); err != nil {
				return nil, err
			}
			out = append(out, cv)
		}
		return out, nil
	default:
		cv, err := d.convert(raw)
		if err != nil {
			return nil, err
		}
		if err := d.checkChoice(cv); err != nil {
			return nil, err
		}
		return cv, nil
	}
}

func (d Descriptor) convert(v any) (any, error) {
	if d.ValueType == nil || v == nil {
		return v, nil
	}
	rv, err := introspect.Convert(v, d.ValueType)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid value for %s", d.Spelling), err)
	}
	return rv.Interface(), nil
}

func (d Descriptor) checkChoice(v any) error {
	if len(d.Choices) == 0 {
		return nil
	}
	s := fmt.Sprint(v)
	allowed := make([]string, 0, len(d.Choices))
	for _, c := range d.Choices {
		cs := fmt.Sprint(c)
		if cs == s {
			return nil
		}
		allowed = append(allowed, cs)
	}
	return errors.NewWithContext(errors.ErrCodeInvalidRequest,
		fmt.Sprintf("invalid choice %q for %s", s, d.Spelling),
		map[string]any{"choices": strings.Join(allowed, ", ")})
}

func coerceBool(d Descriptor, raw any) (any, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		b, err := introspect.ParseBool(v)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("invalid value for %s", d.Spelling), err)
		}
		return b, nil
	default:
		rv, err := introspect.Convert(raw, reflect.TypeFor[bool]())
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("invalid value for %s", d.Spelling), err)
		}
		return rv.Bool(), nil
	}
}

func asList(raw any) []any {
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{raw}
	}
	out := make([]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out = append(out, rv.Index(i).Interface())
	}
	return out
}

// ParseEntries decodes key=value entries into a mapping. raw may be a list
// of entries, a single entry or an already decoded mapping. Entries without
// a '=' or with an empty key are returned as malformed. A later entry for
// the same key replaces an earlier one.
func ParseEntries(raw any) (map[string]any, []string) {
	out := make(map[string]any)
	var malformed []string

	rv := reflect.ValueOf(raw)
	if rv.Kind() == reflect.Map {
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = iter.Value().Interface()
		}
		return out, nil
	}

	for _, item := range asList(raw) {
		if m, ok := item.(map[string]any); ok {
			for k, v := range m {
				out[k] = v
			}
			continue
		}
		entry := fmt.Sprint(item)
		key, value, found := strings.Cut(entry, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			malformed = append(malformed, entry)
			continue
		}
		out[key] = value
	}
	return out, malformed
}

// FormatEntries encodes a mapping as sorted key=value entries.
func FormatEntries(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k, v := range m {
		out = append(out, k+"="+fmt.Sprint(v))
	}
	sort.Strings(out)
	return out
}
