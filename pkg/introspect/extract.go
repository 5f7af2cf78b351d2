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
	"log/slog"
	"reflect"
	"runtime"
	"strings"

	"github.com/NVIDIA/simplifiedapp/pkg/errors"
)

// Invoker is the uniform call contract. Funcs of this type are called directly
// without reflection.
type Invoker func(ctx context.Context, args []any, kwargs map[string]any) (any, error)

// MethodInvoker is an Invoker that also receives the owning instance.
type MethodInvoker func(ctx context.Context, owner any, args []any, kwargs map[string]any) (any, error)

var (
	contextType = reflect.TypeFor[context.Context]()
	errorType   = reflect.TypeFor[error]()
)

// ownerNames are declared leading parameter names treated as the implicit owner.
var ownerNames = map[string]struct{}{"self": {}, "cls": {}}

type extractConfig struct {
	name  string
	owner reflect.Type
}

// ExtractOption configures Extract.
type ExtractOption func(*extractConfig)

// WithName sets the callable name instead of deriving it from the func.
func WithName(name string) ExtractOption {
	return func(c *extractConfig) {
		c.name = name
	}
}

// WithOwner marks the callable as a member of instances of t. A leading
// receiver of that type, or a declared leading self/cls parameter, is detected
// and removed from the returned signature.
func WithOwner(t reflect.Type) ExtractOption {
	return func(c *extractConfig) {
		c.owner = t
	}
}

// Extract builds a Callable from fn and its declared parameters.
//
// When declared is nil and fn takes inputs, the parameter names cannot be
// recovered: the generic "accept anything" signature is used and a warning is
// logged. An error with ErrCodeUnintrospectableSignature is returned when fn
// cannot be called from command-line values even through that fallback.
func Extract(fn any, declared []Parameter, opts ...ExtractOption) (*Callable, error) {
	cfg := &extractConfig{}
	for _, o := range opts {
		o(cfg)
	}

	if fn == nil {
		return nil, errors.New(errors.ErrCodeUnintrospectableSignature, "callable is nil")
	}

	switch f := fn.(type) {
	case Invoker:
		return extractInvoker(cfg, declared, func(ctx context.Context, _ any, args []any, kwargs map[string]any) (any, error) {
			return f(ctx, args, kwargs)
		})
	case func(context.Context, []any, map[string]any) (any, error):
		return extractInvoker(cfg, declared, func(ctx context.Context, _ any, args []any, kwargs map[string]any) (any, error) {
			return f(ctx, args, kwargs)
		})
	case MethodInvoker:
		return extractInvoker(cfg, declared, f)
	}

	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return nil, errors.NewWithContext(errors.ErrCodeUnintrospectableSignature,
			"target is not a func", map[string]any{"type": fmt.Sprintf("%T", fn)})
	}

	name := cfg.name
	if name == "" {
		name = FuncName(fn)
	}
	if name == "" {
		name = "func"
	}

	c := &Callable{name: name, fn: v, ownerType: cfg.owner}
	t := v.Type()
	idx := 0
	if cfg.owner != nil && t.NumIn() > 0 && isOwnerType(t.In(0), cfg.owner) {
		c.hasOwner = true
		idx++
	}
	if t.NumIn() > idx && t.In(idx) == contextType {
		c.hasContext = true
		idx++
	}
	c.firstInput = idx

	if err := checkResults(t); err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeUnintrospectableSignature,
			"unsupported results", err, map[string]any{"callable": name})
	}

	if declared == nil {
		return c, c.fallback()
	}

	params, owner := stripOwner(declared, cfg.owner != nil)
	sig := Signature{Params: normalize(params), Owner: c.hasOwner || owner}
	if err := sig.Validate(); err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeUnsupportedTarget,
			"invalid signature", err, map[string]any{"callable": name})
	}
	if err := c.bindGoTypes(&sig); err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeUnsupportedTarget,
			"declared parameters do not match the func", err, map[string]any{"callable": name})
	}
	c.sig = sig
	return c, nil
}

func extractInvoker(cfg *extractConfig, declared []Parameter, inv MethodInvoker) (*Callable, error) {
	name := cfg.name
	if name == "" {
		name = "invoker"
	}
	c := &Callable{name: name, invoker: inv, ownerType: cfg.owner, hasOwner: cfg.owner != nil}
	if declared == nil {
		slog.Warn("signature not introspectable, accepting any arguments",
			"callable", name,
			"code", errors.ErrCodeUnintrospectableSignature)
		c.sig = GenericSignature()
		c.sig.Owner = c.hasOwner
		return c, nil
	}

	params, owner := stripOwner(declared, cfg.owner != nil)
	sig := Signature{Params: normalize(params), Owner: c.hasOwner || owner}
	if err := sig.Validate(); err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeUnsupportedTarget,
			"invalid signature", err, map[string]any{"callable": name})
	}
	c.sig = sig
	return c, nil
}

// fallback installs the generic signature for a func without declared
// parameters. A func whose only inputs are the owner and a context has an
// empty, fully known signature.
func (c *Callable) fallback() error {
	t := c.fn.Type()
	if t.NumIn() == c.firstInput {
		c.sig = Signature{Owner: c.hasOwner}
		return nil
	}

	for i := c.firstInput; i < t.NumIn(); i++ {
		in := t.In(i)
		if t.IsVariadic() && i == t.NumIn()-1 {
			in = in.Elem()
		}
		if !IsFeedable(in) {
			return errors.NewWithContext(errors.ErrCodeUnintrospectableSignature,
				"parameter type cannot be fed from command-line values",
				map[string]any{"callable": c.name, "index": i, "type": in.String()})
		}
	}

	slog.Warn("signature not introspectable, accepting any arguments",
		"callable", c.name,
		"code", errors.ErrCodeUnintrospectableSignature)
	c.sig = GenericSignature()
	c.sig.Owner = c.hasOwner
	c.generic = true
	return nil
}

// bindGoTypes checks the declared parameters against the Go inputs and fills
// in declared types from them.
func (c *Callable) bindGoTypes(sig *Signature) error {
	t := c.fn.Type()
	inputs := t.NumIn() - c.firstInput
	positional := 0
	for _, p := range sig.Params {
		if p.Kind.IsPositional() {
			positional++
		}
	}
	_, hasVarPos := sig.VariadicPositional()
	hasKw := sig.AcceptsKeywords()

	want := positional
	if hasKw {
		want++
	}
	if hasVarPos {
		want++
	}
	if inputs != want {
		return fmt.Errorf("func takes %d inputs, declared parameters need %d", inputs, want)
	}

	if hasVarPos && t.In(t.NumIn()-1).Kind() != reflect.Slice {
		return fmt.Errorf("last input must be variadic or a slice, got %s", t.In(t.NumIn()-1))
	}
	if hasKw {
		kwIdx := c.firstInput + positional
		kt := t.In(kwIdx)
		if kt.Kind() != reflect.Map || kt.Key().Kind() != reflect.String {
			return fmt.Errorf("keyword input must be a map keyed by string, got %s", kt)
		}
		c.kwargsIndex = kwIdx
	}

	pos := 0
	for i := range sig.Params {
		p := &sig.Params[i]
		switch {
		case p.Kind.IsPositional():
			in := t.In(c.firstInput + pos)
			pos++
			if !IsFeedable(in) {
				return fmt.Errorf("parameter %q has unsupported type %s", p.Name, in)
			}
			if p.Type == nil {
				p.Type = in
			}
		case p.Kind == KindVariadicPositional:
			if p.Type == nil {
				p.Type = t.In(t.NumIn() - 1).Elem()
			}
		}
	}
	return nil
}

func stripOwner(params []Parameter, member bool) ([]Parameter, bool) {
	if !member || len(params) == 0 {
		return params, false
	}
	if _, ok := ownerNames[params[0].Name]; ok {
		return params[1:], true
	}
	return params, false
}

func isOwnerType(in, owner reflect.Type) bool {
	if in == owner {
		return true
	}
	return owner.Kind() == reflect.Pointer && in == owner.Elem()
}

func checkResults(t reflect.Type) error {
	switch t.NumOut() {
	case 0, 1:
		return nil
	case 2:
		if t.Out(1) != errorType {
			return fmt.Errorf("second result must be error, got %s", t.Out(1))
		}
		return nil
	default:
		return fmt.Errorf("func returns %d results", t.NumOut())
	}
}

// FuncName returns the bare name of fn without its package or receiver, or
// "" when fn is not a func.
func FuncName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return ""
	}
	name := f.Name()
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}
