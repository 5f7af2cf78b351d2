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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"reflect"
	"strings"

	"github.com/NVIDIA/simplifiedapp/pkg/defaults"
	"github.com/NVIDIA/simplifiedapp/pkg/errors"
)

// Format represents the output or input format type
type Format string

const (
	// FormatJSON is JSON, used for output and input files
	FormatJSON Format = "json"
	// FormatYAML is YAML, used for input files
	FormatYAML Format = "yaml"
	// FormatINI is the ini-like configuration format, used for input files
	FormatINI Format = "ini"
	// FormatPretty is the wide human-readable output
	FormatPretty Format = "pretty"
)

// SupportedFormats returns the formats results can be written in.
func SupportedFormats() []string {
	return []string{
		string(FormatJSON),
		string(FormatPretty),
	}
}

var (
	_ Serializer = (*Writer)(nil)
	_ Closer     = (*Writer)(nil)
)

// Writer renders call results.
// Close must be called to release file handles when using NewFileWriter.
type Writer struct {
	format   Format
	width    int
	output   io.Writer
	closer   io.Closer
	fallback func(any) any
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithJSONFallback sets the caster applied to values encoding/json rejects.
// It returns a replacement value, or nil to use the value's string form.
func WithJSONFallback(fn func(any) any) WriterOption {
	return func(w *Writer) {
		w.fallback = fn
	}
}

// NewWriter creates a new Writer with the specified format and output destination.
// If output is nil, os.Stdout will be used.
// If format is not an output format, defaults to the pretty format.
func NewWriter(format Format, output io.Writer, opts ...WriterOption) *Writer {
	if output == nil {
		output = os.Stdout
	}
	if format != FormatJSON && format != FormatPretty {
		slog.Warn("unknown output format, defaulting to pretty",
			"format", format,
			"supported", strings.Join(SupportedFormats(), ", "))
		format = FormatPretty
	}
	w := &Writer{
		format: format,
		width:  defaults.PrettyWidth,
		output: output,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// NewFileWriter creates a Writer that writes to the file at path, creating or
// truncating it. An empty path writes to fallback instead.
// Remember to call Close() on the returned Writer to ensure the file is properly closed.
func NewFileWriter(format Format, path string, fallback io.Writer, opts ...WriterOption) (*Writer, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return NewWriter(format, fallback, opts...), nil
	}

	file, err := os.Create(trimmed)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeInvalidRequest,
			"failed to create output file", err, map[string]any{"path": trimmed})
	}

	w := NewWriter(format, file, opts...)
	w.closer = file
	return w, nil
}

// Close releases any resources associated with the Writer.
// It's safe to call Close multiple times or on stdout-based writers.
func (w *Writer) Close() error {
	if w.closer != nil {
		err := w.closer.Close()
		w.closer = nil
		return err
	}
	return nil
}

// Serialize writes result. A string is written verbatim without a trailing
// newline. Anything else is written as JSON or in the pretty format. A nil
// result writes nothing in the pretty format.
func (w *Writer) Serialize(ctx context.Context, result any) error {
	if s, ok := result.(string); ok {
		_, err := io.WriteString(w.output, s)
		return err
	}

	switch w.format {
	case FormatJSON:
		return w.serializeJSON(result)
	case FormatPretty:
		return w.serializePretty(result)
	default:
		return fmt.Errorf("unsupported format: %s", w.format)
	}
}

func (w *Writer) serializeJSON(result any) error {
	encoder := json.NewEncoder(w.output)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	s := &sanitizer{fallback: w.fallback, active: make(map[visit]struct{})}
	if err := encoder.Encode(s.value(reflect.ValueOf(result))); err != nil {
		return fmt.Errorf("failed to serialize to JSON: %w", err)
	}
	return nil
}

func (w *Writer) serializePretty(result any) error {
	if isNil(reflect.ValueOf(result)) {
		return nil
	}
	if _, err := fmt.Fprintln(w.output, Pretty(result, w.width)); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}

// sanitizer converts results into values encoding/json accepts.
type sanitizer struct {
	fallback func(any) any
	// active holds the containers on the path to the value being converted.
	active map[visit]struct{}
}

// value converts v. Values that cannot be encoded go through the fallback
// caster, else are replaced by their string form. A container met again
// below itself becomes a recursion marker.
func (s *sanitizer) value(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	if id, tracked := identity(v); tracked {
		if _, seen := s.active[id]; seen {
			return recursion(v)
		}
		s.active[id] = struct{}{}
		defer delete(s.active, id)
	}

	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		if v.CanInterface() {
			if err, ok := v.Interface().(error); ok {
				return err.Error()
			}
		}
		if v.Type().Implements(jsonMarshalerType) {
			return s.leaf(v)
		}
		v = v.Elem()
	}

	//nolint:exhaustive // We handle the containers explicitly; all others go to leaf
	switch v.Kind() {
	case reflect.Map:
		if v.Type().Implements(jsonMarshalerType) {
			return s.leaf(v)
		}
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = s.value(iter.Value())
		}
		return out
	case reflect.Slice, reflect.Array:
		if v.Type().Implements(jsonMarshalerType) || v.Type().Elem().Kind() == reflect.Uint8 {
			return s.leaf(v)
		}
		out := make([]any, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			out = append(out, s.value(v.Index(i)))
		}
		return out
	default:
		return s.leaf(v)
	}
}

var jsonMarshalerType = reflect.TypeFor[json.Marshaler]()

func (s *sanitizer) leaf(v reflect.Value) any {
	if !v.CanInterface() {
		return fmt.Sprint(v)
	}
	i := v.Interface()
	if _, err := json.Marshal(i); err == nil {
		return i
	}
	if s.fallback != nil {
		if r := s.fallback(i); r != nil {
			if _, err := json.Marshal(r); err == nil {
				return r
			}
		}
	}
	return Pretty(i, math.MaxInt32)
}

func isNil(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	//nolint:exhaustive // nil maps and slices still render as empty containers
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}
