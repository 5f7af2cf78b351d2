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

package binder

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/NVIDIA/simplifiedapp/pkg/errors"
	"github.com/NVIDIA/simplifiedapp/pkg/flagspec"
	"github.com/NVIDIA/simplifiedapp/pkg/introspect"
)

// Slot maps one parameter to the key of its resolved value.
type Slot struct {
	Name       string
	Key        string
	Default    any
	HasDefault bool
	Required   bool
	// Suppressed marks the absent default: nothing is passed unless supplied.
	Suppressed bool
}

func newSlot(p introspect.Parameter, key string) Slot {
	return Slot{
		Name:       p.Name,
		Key:        key,
		Default:    p.Default,
		HasDefault: p.HasDefault,
		Required:   p.IsRequired(),
		Suppressed: p.HasDefault && p.Default == nil,
	}
}

// Plan is the invocation plan of one callable, captured when the tree is
// built. It never changes afterwards.
type Plan struct {
	Name               string
	Caller             *introspect.Callable
	Positional         []Slot
	VariadicPositional *Slot
	Keyword            []Slot
	VariadicKeyword    *Slot
}

// PlanOption configures NewPlan.
type PlanOption func(*planConfig)

type planConfig struct {
	varPosKey string
	varKwKey  string
}

// WithVariadicKeys reads the catch-all slots from the given keys instead of
// the keys derived from their own names. Empty keys are ignored.
func WithVariadicKeys(positional, keyword string) PlanOption {
	return func(c *planConfig) {
		c.varPosKey = positional
		c.varKwKey = keyword
	}
}

// NewPlan captures the plan of c. Keys are the parameter names joined to
// prefix the same way flag keys are.
func NewPlan(c *introspect.Callable, prefix []string, opts ...PlanOption) *Plan {
	cfg := &planConfig{}
	for _, o := range opts {
		o(cfg)
	}

	key := func(name string) string {
		return flagspec.KeyName(append(append([]string(nil), prefix...), name)...)
	}

	plan := &Plan{Name: c.Name(), Caller: c}
	for _, p := range c.Signature().Params {
		switch p.Kind {
		case introspect.KindPositionalRequired, introspect.KindPositionalDefault:
			plan.Positional = append(plan.Positional, newSlot(p, key(p.Name)))
		case introspect.KindKeywordOnly:
			plan.Keyword = append(plan.Keyword, newSlot(p, key(p.Name)))
		case introspect.KindVariadicPositional:
			s := newSlot(p, key(p.Name))
			if cfg.varPosKey != "" {
				s.Key = cfg.varPosKey
			}
			plan.VariadicPositional = &s
		case introspect.KindVariadicKeyword:
			s := newSlot(p, key(p.Name))
			if cfg.varKwKey != "" {
				s.Key = cfg.varKwKey
			}
			plan.VariadicKeyword = &s
		}
	}
	return plan
}

// Arguments are the reconstructed call arguments.
type Arguments struct {
	Args   []any
	Kwargs map[string]any
}

// Bind reconstructs the call arguments from resolved values keyed by flag
// key. Binding fails only when a required parameter has neither a value nor
// a default.
func (p *Plan) Bind(values map[string]any) (Arguments, error) {
	args := Arguments{Kwargs: make(map[string]any)}

	for _, s := range p.Positional {
		v, ok := lookup(values, s.Key)
		switch {
		case ok:
			args.Args = append(args.Args, v)
		case s.Required:
			return Arguments{}, p.missing(s)
		case s.Suppressed:
			// Positional slots cannot be skipped; the zero value stands in.
			args.Args = append(args.Args, nil)
		default:
			args.Args = append(args.Args, s.Default)
		}
	}

	if s := p.VariadicPositional; s != nil {
		if v, ok := lookup(values, s.Key); ok {
			args.Args = append(args.Args, flatten(v)...)
		}
	}

	for _, s := range p.Keyword {
		v, ok := lookup(values, s.Key)
		switch {
		case ok:
			args.Kwargs[s.Name] = v
		case s.Required:
			return Arguments{}, p.missing(s)
		case s.Suppressed:
			// omitted unless supplied
		default:
			args.Kwargs[s.Name] = s.Default
		}
	}

	if s := p.VariadicKeyword; s != nil {
		if v, ok := lookup(values, s.Key); ok {
			p.bindEntries(args.Kwargs, v)
		}
	}

	return args, nil
}

func (p *Plan) bindEntries(kwargs map[string]any, raw any) {
	entries, malformed := flagspec.ParseEntries(raw)
	for _, m := range malformed {
		slog.Warn("dropping malformed key=value entry", "callable", p.Name, "entry", m)
	}

	known := p.names()
	for k, v := range entries {
		if _, taken := known[k]; taken {
			slog.Warn("dropping key=value entry that collides with a parameter",
				"callable", p.Name,
				"key", k)
			continue
		}
		kwargs[k] = v
	}
}

func (p *Plan) names() map[string]struct{} {
	known := make(map[string]struct{}, len(p.Positional)+len(p.Keyword)+1)
	for _, s := range p.Positional {
		known[s.Name] = struct{}{}
	}
	for _, s := range p.Keyword {
		known[s.Name] = struct{}{}
	}
	if p.VariadicPositional != nil {
		known[p.VariadicPositional.Name] = struct{}{}
	}
	return known
}

func (p *Plan) missing(s Slot) error {
	return errors.NewWithContext(errors.ErrCodeMissingRequiredValue,
		fmt.Sprintf("missing value for required parameter %q", s.Name),
		map[string]any{"callable": p.Name, "key": s.Key})
}

func lookup(values map[string]any, key string) (any, bool) {
	v, ok := values[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func flatten(v any) []any {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v}
	}
	out := make([]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		item := rv.Index(i).Interface()
		if ir := reflect.ValueOf(item); ir.Kind() == reflect.Slice && ir.Type().Elem().Kind() != reflect.Uint8 {
			out = append(out, flatten(item)...)
			continue
		}
		out = append(out, item)
	}
	return out
}
