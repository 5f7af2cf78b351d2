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
	"context"
	"fmt"
	"reflect"

	"github.com/NVIDIA/simplifiedapp/pkg/errors"
)

// ClassPlan builds class instances in two phases. Each phase binds the same
// resolved values with its own plan. A nil phase is trivial: allocation
// falls back to the zero value of Type and initialization is skipped.
type ClassPlan struct {
	Name  string
	Type  reflect.Type
	Alloc *Plan
	Init  *Plan
}

// Construct builds an instance from resolved values.
func (c *ClassPlan) Construct(ctx context.Context, values map[string]any) (any, error) {
	instance, err := c.allocate(ctx, values)
	if err != nil {
		return nil, err
	}

	if c.Init == nil {
		return instance, nil
	}
	inv := NewInvocation(c.Init)
	if err := inv.Bind(values); err != nil {
		return nil, err
	}
	if _, err := inv.Call(ctx, instance); err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeInternal,
			"initialization failed", err, map[string]any{"class": c.Name})
	}
	return instance, nil
}

func (c *ClassPlan) allocate(ctx context.Context, values map[string]any) (any, error) {
	if c.Alloc == nil {
		return zeroInstance(c.Type), nil
	}

	inv := NewInvocation(c.Alloc)
	if err := inv.Bind(values); err != nil {
		return nil, err
	}
	instance, err := inv.Call(ctx, nil)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeInternal,
			"allocation failed", err, map[string]any{"class": c.Name})
	}
	if instance == nil {
		return nil, errors.NewWithContext(errors.ErrCodeInternal,
			"allocation returned no instance", map[string]any{"class": c.Name})
	}
	if c.Type != nil && !reflect.TypeOf(instance).AssignableTo(c.Type) {
		return nil, errors.NewWithContext(errors.ErrCodeUnsupportedTarget,
			fmt.Sprintf("allocation returned %T, want %s", instance, c.Type),
			map[string]any{"class": c.Name})
	}
	return instance, nil
}

func zeroInstance(t reflect.Type) any {
	if t.Kind() == reflect.Pointer {
		return reflect.New(t.Elem()).Interface()
	}
	return reflect.New(t).Elem().Interface()
}
