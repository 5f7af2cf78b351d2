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

package target

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/NVIDIA/simplifiedapp/pkg/defaults"
	"github.com/NVIDIA/simplifiedapp/pkg/errors"
	"github.com/NVIDIA/simplifiedapp/pkg/flagspec"
	"github.com/NVIDIA/simplifiedapp/pkg/introspect"
)

// Kind is the closed set of target kinds.
type Kind int

const (
	// KindCallable is a single func.
	KindCallable Kind = iota
	// KindClass is an instance type with construction phases and members.
	KindClass
	// KindNamespace is a named collection of callables and classes.
	KindNamespace
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindCallable:
		return "callable"
	case KindClass:
		return "class"
	case KindNamespace:
		return "namespace"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Target is a Function, a Class or a Namespace.
type Target interface {
	// Kind returns the target kind.
	Kind() Kind
	// TargetName returns the registered name.
	TargetName() string
	sealed()
}

// Function registers a func.
//
// Params declares the parameters in Go call order (see introspect.Extract).
// A nil Params accepts any arguments.
type Function struct {
	Name    string
	Doc     string
	Version string
	Params  []introspect.Parameter
	Fn      any
}

// Kind implements Target.
func (f *Function) Kind() Kind { return KindCallable }

// TargetName implements Target.
func (f *Function) TargetName() string {
	if f.Name == "" {
		return introspect.FuncName(f.Fn)
	}
	return f.Name
}

func (f *Function) sealed() {}

// Func registers fn under name with the given parameters.
func Func(name string, fn any, params ...introspect.Parameter) *Function {
	return &Function{Name: name, Fn: fn, Params: params}
}

// Class registers an instance type.
//
// Type is the instance type, usually a pointer. New is the allocation phase:
// it returns the instance (optionally with an error). When New is nil the
// zero value of Type is allocated. Init is the initialization phase: a
// method expression whose receiver is the instance. Members are method
// expressions run as sub-commands on the constructed instance.
type Class struct {
	Name    string
	Doc     string
	Version string
	Type    reflect.Type
	New     *Function
	Init    *Function
	Members []*Function
	// Discover adds the exported methods of Type that are not registered as
	// members. They accept any arguments.
	Discover bool
	// AllowPrivate lists member names exposed despite the privacy marker.
	AllowPrivate []string
}

// Kind implements Target.
func (c *Class) Kind() Kind { return KindClass }

// TargetName implements Target.
func (c *Class) TargetName() string {
	if c.Name == "" && c.Type != nil {
		t := c.Type
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		return t.Name()
	}
	return c.Name
}

func (c *Class) sealed() {}

// ClassOf registers *T as an instance type.
func ClassOf[T any](name, doc string) *Class {
	return &Class{Name: name, Doc: doc, Type: reflect.TypeFor[*T]()}
}

// Method registers a member and returns the class.
func (c *Class) Method(name string, fn any, params ...introspect.Parameter) *Class {
	c.Members = append(c.Members, Func(name, fn, params...))
	return c
}

// MemberFunctions returns the visible members: the registered ones in order
// followed by the discovered exported methods, sorted by name.
func (c *Class) MemberFunctions() []*Function {
	registered := make(map[string]struct{}, len(c.Members)+1)
	if c.Init != nil {
		registered[flagspec.KeyName(c.Init.TargetName())] = struct{}{}
		registered[flagspec.KeyName("Init")] = struct{}{}
	}

	var out []*Function
	for _, m := range c.Members {
		registered[flagspec.KeyName(m.TargetName())] = struct{}{}
		if Visible(m.TargetName(), c.AllowPrivate) {
			out = append(out, m)
		}
	}

	if !c.Discover || c.Type == nil {
		return out
	}
	// Method returns exported methods sorted by name.
	for i := 0; i < c.Type.NumMethod(); i++ {
		m := c.Type.Method(i)
		if _, ok := registered[flagspec.KeyName(m.Name)]; ok {
			continue
		}
		out = append(out, &Function{Name: m.Name, Fn: m.Func.Interface()})
	}
	return out
}

// Namespace registers a named collection of callables and classes.
type Namespace struct {
	Name    string
	Doc     string
	Version string
	Members []Target
	// AllowPrivate lists member names exposed despite the privacy marker.
	AllowPrivate []string
}

// Kind implements Target.
func (n *Namespace) Kind() Kind { return KindNamespace }

// TargetName implements Target.
func (n *Namespace) TargetName() string { return n.Name }

func (n *Namespace) sealed() {}

// Add registers a member and returns the namespace.
func (n *Namespace) Add(members ...Target) *Namespace {
	n.Members = append(n.Members, members...)
	return n
}

// VisibleMembers returns the members not hidden by the privacy marker.
func (n *Namespace) VisibleMembers() []Target {
	var out []Target
	for _, m := range n.Members {
		if m != nil && Visible(m.TargetName(), n.AllowPrivate) {
			out = append(out, m)
		}
	}
	return out
}

// Visible reports whether name is public or allow-listed.
func Visible(name string, allow []string) bool {
	if !strings.HasPrefix(name, defaults.PrivacyMarker) {
		return true
	}
	return slices.Contains(allow, name)
}

// From classifies v once. Targets are returned as is and plain funcs become
// Functions accepting any arguments. Anything else is rejected.
func From(v any) (Target, error) {
	switch t := v.(type) {
	case nil:
		return nil, errors.New(errors.ErrCodeUnsupportedTarget, "target is nil")
	case *Function:
		if t == nil || t.Fn == nil {
			return nil, errors.New(errors.ErrCodeUnsupportedTarget, "function without a func")
		}
		return t, nil
	case *Class:
		if t == nil || t.Type == nil {
			return nil, errors.New(errors.ErrCodeUnsupportedTarget, "class without an instance type")
		}
		return t, nil
	case *Namespace:
		if t == nil {
			return nil, errors.New(errors.ErrCodeUnsupportedTarget, "namespace is nil")
		}
		return t, nil
	}

	if reflect.TypeOf(v).Kind() == reflect.Func {
		return &Function{Name: introspect.FuncName(v), Fn: v}, nil
	}
	return nil, errors.NewWithContext(errors.ErrCodeUnsupportedTarget,
		"target is not a callable, class or namespace",
		map[string]any{"type": fmt.Sprintf("%T", v)})
}
