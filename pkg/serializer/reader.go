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
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"github.com/NVIDIA/simplifiedapp/pkg/errors"
	"github.com/NVIDIA/simplifiedapp/pkg/flagspec"
)

// SupportedInputFormats returns the formats accepted for input files.
func SupportedInputFormats() []string {
	return []string{
		string(FormatJSON),
		string(FormatINI),
		string(FormatYAML),
	}
}

// ParseInputFormat parses an input file format name. Unknown names fail
// with ErrCodeUnsupportedInputFormat.
func ParseInputFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatJSON, FormatINI, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case "conf", "cfg":
		return FormatINI, nil
	default:
		return "", errors.NewWithContext(errors.ErrCodeUnsupportedInputFormat,
			fmt.Sprintf("unsupported input file format %q", name),
			map[string]any{"supported": strings.Join(SupportedInputFormats(), ", ")})
	}
}

// FormatFromPath determines the input format based on file extension.
// Supported extensions:
//   - .json → FormatJSON
//   - .yaml, .yml → FormatYAML
//   - .ini, .conf, .cfg → FormatINI
//
// Extension matching is case-insensitive. Unknown extensions fail with
// ErrCodeUnsupportedInputFormat.
func FormatFromPath(filePath string) (Format, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filePath)), ".")
	if ext == "" {
		return "", errors.NewWithContext(errors.ErrCodeUnsupportedInputFormat,
			"cannot infer the input file format without an extension",
			map[string]any{"path": filePath})
	}
	return ParseInputFormat(ext)
}

// InputSpec is one --input-file value.
type InputSpec struct {
	Format Format
	Path   string
}

// String returns the spec in FORMAT:PATH form.
func (s InputSpec) String() string {
	return string(s.Format) + ":" + s.Path
}

// ParseInputSpec parses "[FORMAT:]PATH". A prefix of at least two characters
// without a path separator is the format name; otherwise the whole value is
// the path and the format comes from its extension.
func ParseInputSpec(value string) (InputSpec, error) {
	if name, path, found := strings.Cut(value, ":"); found && len(name) > 1 && !strings.ContainsAny(name, `/\.`) {
		f, err := ParseInputFormat(name)
		if err != nil {
			return InputSpec{}, err
		}
		if path == "" {
			return InputSpec{}, errors.New(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("input file %q has no path", value))
		}
		return InputSpec{Format: f, Path: path}, nil
	}

	f, err := FormatFromPath(value)
	if err != nil {
		return InputSpec{}, err
	}
	return InputSpec{Format: f, Path: value}, nil
}

// Reader handles deserialization of input files (JSON, YAML, INI).
// It supports reading from any io.Reader source including files and strings.
//
// Close must be called to release resources when using NewFileReader.
type Reader struct {
	format Format
	input  io.Reader
	closer io.Closer
}

// NewReader creates a new Reader for deserializing data from an io.Reader source.
//
// Returns error if format is not an input format.
func NewReader(format Format, input io.Reader) (*Reader, error) {
	if _, err := ParseInputFormat(string(format)); err != nil {
		return nil, err
	}

	r := &Reader{
		format: format,
		input:  input,
	}

	// Store closer if input implements it
	if closer, ok := input.(io.Closer); ok {
		r.closer = closer
	}

	return r, nil
}

// NewFileReader creates a new Reader that reads from a file path.
func NewFileReader(format Format, filePath string) (*Reader, error) {
	if _, err := ParseInputFormat(string(format)); err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return &Reader{
		format: format,
		input:  file,
		closer: file,
	}, nil
}

// Deserialize reads the input into a configuration mapping.
//
// JSON and YAML documents must hold a mapping at the top level. INI keys of
// the default section are top-level entries; every other section becomes a
// nested mapping that also carries the default section's keys it does not
// override.
func (r *Reader) Deserialize() (map[string]any, error) {
	if r == nil {
		return nil, fmt.Errorf("reader is nil")
	}

	if r.input == nil {
		return nil, fmt.Errorf("input source is nil")
	}

	out := make(map[string]any)
	switch r.format {
	case FormatJSON:
		decoder := json.NewDecoder(r.input)
		decoder.UseNumber()
		if err := decoder.Decode(&out); err != nil {
			return nil, fmt.Errorf("failed to decode JSON: %w", err)
		}
		return normalizeNumbers(out).(map[string]any), nil

	case FormatYAML:
		decoder := yaml.NewDecoder(r.input)
		if err := decoder.Decode(&out); err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to decode YAML: %w", err)
		}
		return out, nil

	case FormatINI:
		data, err := io.ReadAll(r.input)
		if err != nil {
			return nil, fmt.Errorf("failed to read INI: %w", err)
		}
		return decodeINI(data)

	default:
		return nil, fmt.Errorf("unsupported format for deserialization: %s", r.format)
	}
}

// Close releases any resources held by the Reader.
// Safe to call multiple times and on a nil Reader.
func (r *Reader) Close() error {
	if r == nil {
		return nil
	}

	if r.closer != nil {
		err := r.closer.Close()
		r.closer = nil // Prevent double-close
		return err
	}
	return nil
}

func decodeINI(data []byte) (map[string]any, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{AllowBooleanKeys: true}, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode INI: %w", err)
	}

	out := make(map[string]any)
	defaultKeys := cfg.Section(ini.DefaultSection).Keys()
	for _, k := range defaultKeys {
		out[k.Name()] = k.Value()
	}

	for _, sec := range cfg.Sections() {
		if sec.Name() == ini.DefaultSection {
			continue
		}
		m := make(map[string]any, len(sec.Keys())+len(defaultKeys))
		for _, k := range defaultKeys {
			m[k.Name()] = k.Value()
		}
		for _, k := range sec.Keys() {
			m[k.Name()] = k.Value()
		}
		out[sec.Name()] = m
	}
	return out, nil
}

// normalizeNumbers turns json.Number values into int64 when integral and
// float64 otherwise.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			t[k] = normalizeNumbers(item)
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = normalizeNumbers(item)
		}
		return t
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	default:
		return v
	}
}

// LoadInputFile reads one input file into a configuration mapping.
func LoadInputFile(spec InputSpec) (map[string]any, error) {
	reader, err := NewFileReader(spec.Format, spec.Path)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeInvalidRequest,
			"failed to open input file", err, map[string]any{"path": spec.Path})
	}
	defer func() {
		if closeErr := reader.Close(); closeErr != nil {
			slog.Warn("failed to close input file", "error", closeErr, "path", spec.Path)
		}
	}()

	data, err := reader.Deserialize()
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeInvalidRequest,
			"failed to read input file", err,
			map[string]any{"path": spec.Path, "format": string(spec.Format)})
	}

	slog.Debug("loaded input file",
		slog.String("path", spec.Path),
		slog.String("format", string(spec.Format)),
		slog.Int("keys", len(data)),
	)
	return data, nil
}

// MergeInputs loads the input files in order and merges them into one
// flattened configuration: nested mappings are joined into flag keys and a
// later file overrides an earlier one key by key.
func MergeInputs(specs []InputSpec) (map[string]any, error) {
	merged := make(map[string]any)
	for _, spec := range specs {
		data, err := LoadInputFile(spec)
		if err != nil {
			return nil, err
		}
		Flatten(merged, data)
	}
	return merged, nil
}

// Flatten copies data into out, joining nested mapping keys into
// kebab-case flag keys.
func Flatten(out map[string]any, data map[string]any) {
	flattenInto(out, reflect.ValueOf(data), nil)
}

func flattenInto(out map[string]any, val reflect.Value, path []string) {
	for val.IsValid() && val.Kind() == reflect.Interface && !val.IsNil() {
		val = val.Elem()
	}

	if val.IsValid() && val.Kind() == reflect.Map && val.Type().Key().Kind() == reflect.String {
		iter := val.MapRange()
		for iter.Next() {
			flattenInto(out, iter.Value(), append(append([]string(nil), path...), iter.Key().String()))
		}
		// A nested mapping is also kept whole for key=value parameters.
		if len(path) > 0 {
			out[flagspec.KeyName(path...)] = val.Interface()
		}
		return
	}

	key := flagspec.KeyName(path...)
	if key == "" {
		return
	}
	if !val.IsValid() {
		out[key] = nil
		return
	}
	out[key] = val.Interface()
}
