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
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeFor[time.Duration]()

// IsFeedable reports whether values of type t can be produced from
// command-line strings and structured input files.
func IsFeedable(t reflect.Type) bool {
	if t == durationType {
		return true
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	case reflect.Interface:
		return t.NumMethod() == 0
	case reflect.Pointer:
		return IsFeedable(t.Elem())
	case reflect.Slice:
		return IsFeedable(t.Elem())
	case reflect.Map:
		return t.Key().Kind() == reflect.String && IsFeedable(t.Elem())
	default:
		return false
	}
}

// Convert produces a value of type t from v. Strings are parsed, numbers are
// converted between numeric kinds when the value fits, slices and maps are
// converted element-wise and a nil v yields the zero value.
func Convert(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}

	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		if t.Kind() == reflect.Interface {
			out := reflect.New(t).Elem()
			out.Set(rv)
			return out, nil
		}
		return rv, nil
	}

	if t == durationType {
		if s, ok := v.(string); ok {
			d, err := time.ParseDuration(s)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(d), nil
		}
	}

	switch t.Kind() {
	case reflect.Pointer:
		ev, err := Convert(v, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.New(t.Elem())
		out.Elem().Set(ev)
		return out, nil
	case reflect.Slice:
		return convertSlice(rv, t)
	case reflect.Map:
		return convertMap(rv, t)
	}

	if s, ok := v.(string); ok {
		return parseString(s, t)
	}

	if isNumeric(rv.Kind()) && isNumeric(t.Kind()) {
		return convertNumber(rv, t)
	}
	if rv.Kind() == reflect.Bool && t.Kind() == reflect.Bool {
		return rv.Convert(t), nil
	}
	if t.Kind() == reflect.String {
		return reflect.ValueOf(fmt.Sprint(v)).Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot convert %T to %s", v, t)
}

// convertNumber converts between numeric kinds, rejecting fractions for
// integer targets and values outside the range of t.
func convertNumber(rv reflect.Value, t reflect.Type) (reflect.Value, error) {
	out := reflect.New(t).Elem()
	overflow := fmt.Errorf("%v overflows %s", rv.Interface(), t)

	switch {
	case out.CanInt():
		var n int64
		switch {
		case rv.CanInt():
			n = rv.Int()
		case rv.CanUint():
			if rv.Uint() > math.MaxInt64 {
				return reflect.Value{}, overflow
			}
			n = int64(rv.Uint())
		default:
			f := rv.Float()
			if f != math.Trunc(f) {
				return reflect.Value{}, fmt.Errorf("%v is not an integer", f)
			}
			if f < math.MinInt64 || f >= math.MaxInt64 {
				return reflect.Value{}, overflow
			}
			n = int64(f)
		}
		if out.OverflowInt(n) {
			return reflect.Value{}, overflow
		}
		out.SetInt(n)
	case out.CanUint():
		var n uint64
		switch {
		case rv.CanInt():
			if rv.Int() < 0 {
				return reflect.Value{}, overflow
			}
			n = uint64(rv.Int())
		case rv.CanUint():
			n = rv.Uint()
		default:
			f := rv.Float()
			if f != math.Trunc(f) {
				return reflect.Value{}, fmt.Errorf("%v is not an integer", f)
			}
			if f < 0 || f >= math.MaxUint64 {
				return reflect.Value{}, overflow
			}
			n = uint64(f)
		}
		if out.OverflowUint(n) {
			return reflect.Value{}, overflow
		}
		out.SetUint(n)
	default:
		var f float64
		switch {
		case rv.CanInt():
			f = float64(rv.Int())
		case rv.CanUint():
			f = float64(rv.Uint())
		default:
			f = rv.Float()
		}
		if out.OverflowFloat(f) {
			return reflect.Value{}, overflow
		}
		out.SetFloat(f)
	}
	return out, nil
}

func convertSlice(rv reflect.Value, t reflect.Type) (reflect.Value, error) {
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		// A single value becomes a one-element slice.
		ev, err := Convert(rv.Interface(), t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.MakeSlice(t, 0, 1)
		return reflect.Append(out, ev), nil
	}
	out := reflect.MakeSlice(t, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		ev, err := Convert(rv.Index(i).Interface(), t.Elem())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
		}
		out = reflect.Append(out, ev)
	}
	return out, nil
}

func convertMap(rv reflect.Value, t reflect.Type) (reflect.Value, error) {
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return reflect.Value{}, fmt.Errorf("cannot convert %s to %s", rv.Type(), t)
	}
	out := reflect.MakeMapWithSize(t, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		ev, err := Convert(iter.Value().Interface(), t.Elem())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("key %q: %w", iter.Key().String(), err)
		}
		out.SetMapIndex(iter.Key().Convert(t.Key()), ev)
	}
	return out, nil
}

func parseString(s string, t reflect.Type) (reflect.Value, error) {
	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		out.SetString(s)
	case reflect.Bool:
		b, err := ParseBool(s)
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(strings.TrimSpace(s), 0, t.Bits())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("invalid integer %q", s)
		}
		out.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(strings.TrimSpace(s), 0, t.Bits())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("invalid unsigned integer %q", s)
		}
		out.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), t.Bits())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("invalid number %q", s)
		}
		out.SetFloat(f)
	default:
		return reflect.Value{}, fmt.Errorf("cannot convert string to %s", t)
	}
	return out, nil
}

// ParseBool accepts the usual spellings of true and false, including the
// yes/no and on/off forms found in ini files.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "y", "yes", "on":
		return true, nil
	case "0", "f", "false", "n", "no", "off", "":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", s)
	}
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
