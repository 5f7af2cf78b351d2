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
	"context"
	"fmt"
	"reflect"
)

// Callable is an extracted callable: its signature plus the adapter that calls
// it with positional and keyword arguments.
type Callable struct {
	name        string
	sig         Signature
	fn          reflect.Value
	invoker     MethodInvoker
	ownerType   reflect.Type
	hasOwner    bool
	hasContext  bool
	generic     bool
	firstInput  int
	kwargsIndex int
}

// Name returns the callable name.
func (c *Callable) Name() string {
	return c.name
}

// Signature returns the extracted signature.
func (c *Callable) Signature() Signature {
	return c.sig
}

// NeedsOwner reports whether Call requires an owning instance.
func (c *Callable) NeedsOwner() bool {
	return c.hasOwner
}

// Call invokes the callable. owner is passed as the implicit leading
// parameter when one was detected. args holds the named positional values
// followed by the variadic ones; kwargs holds keyword-only and variadic
// keyword values.
func (c *Callable) Call(ctx context.Context, owner any, args []any, kwargs map[string]any) (any, error) {
	if c.invoker != nil {
		return c.invoker(ctx, owner, args, kwargs)
	}

	in, err := c.inputs(ctx, owner, args, kwargs)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", c.name, err)
	}

	var out []reflect.Value
	if c.fn.Type().IsVariadic() {
		out = c.fn.CallSlice(in)
	} else {
		out = c.fn.Call(in)
	}
	return results(out)
}

func (c *Callable) inputs(ctx context.Context, owner any, args []any, kwargs map[string]any) ([]reflect.Value, error) {
	t := c.fn.Type()
	in := make([]reflect.Value, 0, t.NumIn())

	if c.hasOwner {
		ov, err := ownerValue(owner, t.In(0))
		if err != nil {
			return nil, err
		}
		in = append(in, ov)
	}
	if c.hasContext {
		if ctx == nil {
			ctx = context.Background()
		}
		in = append(in, reflect.ValueOf(&ctx).Elem())
	}

	if c.generic {
		return c.genericInputs(in, args, kwargs)
	}

	positional := len(c.sig.Positional())
	if len(args) < positional {
		return nil, fmt.Errorf("got %d positional arguments, need %d", len(args), positional)
	}
	for i := 0; i < positional; i++ {
		v, err := Convert(args[i], t.In(c.firstInput+i))
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", c.sig.Positional()[i].Name, err)
		}
		in = append(in, v)
	}

	if c.sig.AcceptsKeywords() {
		kv, err := Convert(kwargs, t.In(c.kwargsIndex))
		if err != nil {
			return nil, fmt.Errorf("keyword arguments: %w", err)
		}
		in = append(in, kv)
	}

	extra := args[positional:]
	if _, ok := c.sig.VariadicPositional(); ok {
		sv, err := Convert(extra, t.In(t.NumIn()-1))
		if err != nil {
			return nil, fmt.Errorf("variadic arguments: %w", err)
		}
		in = append(in, sv)
	} else if len(extra) > 0 {
		return nil, fmt.Errorf("got %d unexpected positional arguments", len(extra))
	}
	return in, nil
}

// genericInputs feeds a func extracted with the fallback signature: keyword
// map inputs get kwargs, the variadic input gets whatever is left, every other
// input takes the next positional value.
func (c *Callable) genericInputs(in []reflect.Value, args []any, kwargs map[string]any) ([]reflect.Value, error) {
	t := c.fn.Type()
	next := 0
	for i := c.firstInput; i < t.NumIn(); i++ {
		pt := t.In(i)
		switch {
		case t.IsVariadic() && i == t.NumIn()-1:
			sv, err := Convert(args[min(next, len(args)):], pt)
			if err != nil {
				return nil, err
			}
			in = append(in, sv)
			next = len(args)
		case pt.Kind() == reflect.Map && pt.Key().Kind() == reflect.String:
			kv, err := Convert(kwargs, pt)
			if err != nil {
				return nil, err
			}
			in = append(in, kv)
		default:
			if next >= len(args) {
				return nil, fmt.Errorf("missing positional argument %d", next+1)
			}
			v, err := Convert(args[next], pt)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", next+1, err)
			}
			in = append(in, v)
			next++
		}
	}
	if next < len(args) {
		return nil, fmt.Errorf("got %d unexpected positional arguments", len(args)-next)
	}
	return in, nil
}

func ownerValue(owner any, want reflect.Type) (reflect.Value, error) {
	if owner == nil {
		return reflect.Value{}, fmt.Errorf("member called without an instance")
	}
	ov := reflect.ValueOf(owner)
	switch {
	case ov.Type().AssignableTo(want):
		return ov, nil
	case ov.Kind() == reflect.Pointer && ov.Type().Elem().AssignableTo(want):
		return ov.Elem(), nil
	default:
		return reflect.Value{}, fmt.Errorf("instance of type %s cannot be used as %s", ov.Type(), want)
	}
}

func results(out []reflect.Value) (any, error) {
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if out[0].Type() == errorType {
			if out[0].IsNil() {
				return nil, nil
			}
			return nil, out[0].Interface().(error)
		}
		return out[0].Interface(), nil
	default:
		var err error
		if !out[1].IsNil() {
			err = out[1].Interface().(error)
		}
		return out[0].Interface(), err
	}
}
