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
	"reflect"
)

// Shape is the closed set of default value shapes the synthesizer dispatches on.
type Shape int

const (
	// ShapeAbsent is the nil default: omit unless supplied.
	ShapeAbsent Shape = iota
	// ShapeBoolean is a bool default.
	ShapeBoolean
	// ShapeSequence is a slice or array default.
	ShapeSequence
	// ShapeMapping is a map default.
	ShapeMapping
	// ShapeScalar is any other default.
	ShapeScalar
)

// String returns the string representation of the shape.
func (s Shape) String() string {
	switch s {
	case ShapeAbsent:
		return "absent"
	case ShapeBoolean:
		return "boolean"
	case ShapeSequence:
		return "sequence"
	case ShapeMapping:
		return "mapping"
	case ShapeScalar:
		return "scalar"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// ShapeOf classifies a default value.
func ShapeOf(v any) Shape {
	if v == nil {
		return ShapeAbsent
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return ShapeBoolean
	case reflect.Slice, reflect.Array:
		return ShapeSequence
	case reflect.Map:
		return ShapeMapping
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return ShapeAbsent
		}
		return ShapeOf(rv.Elem().Interface())
	default:
		return ShapeScalar
	}
}

// Multiplicity is how many values one flag accepts.
type Multiplicity int

const (
	// Single accepts exactly one value.
	Single Multiplicity = iota
	// ZeroOrMore accepts any number of values, including none.
	ZeroOrMore
	// OneOrMore requires at least one value when given.
	OneOrMore
)

// String returns the string representation of the multiplicity.
func (m Multiplicity) String() string {
	switch m {
	case Single:
		return "SINGLE"
	case ZeroOrMore:
		return "ZERO_OR_MORE"
	case OneOrMore:
		return "ONE_OR_MORE"
	default:
		return fmt.Sprintf("Multiplicity(%d)", int(m))
	}
}

// Coercion is how raw command-line values are turned into call values.
type Coercion int

const (
	// None passes values through as given.
	None Coercion = iota
	// BooleanToggle flips the default when the flag is present.
	BooleanToggle
	// Numeric converts values to the default's (or the declared) type.
	Numeric
	// KeyValueList collects key=value entries merged into a mapping at bind time.
	KeyValueList
)

// String returns the string representation of the coercion.
func (c Coercion) String() string {
	switch c {
	case None:
		return "NONE"
	case BooleanToggle:
		return "BOOLEAN_TOGGLE"
	case Numeric:
		return "NUMERIC"
	case KeyValueList:
		return "KEY_VALUE_LIST"
	default:
		return fmt.Sprintf("Coercion(%d)", int(c))
	}
}
