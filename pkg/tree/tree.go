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

package tree

import (
	"fmt"
	"log/slog"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/NVIDIA/simplifiedapp/pkg/binder"
	"github.com/NVIDIA/simplifiedapp/pkg/constructor"
	"github.com/NVIDIA/simplifiedapp/pkg/errors"
	"github.com/NVIDIA/simplifiedapp/pkg/flagspec"
	"github.com/NVIDIA/simplifiedapp/pkg/introspect"
	"github.com/NVIDIA/simplifiedapp/pkg/metadata"
	"github.com/NVIDIA/simplifiedapp/pkg/target"
)

// Leaf is one flag of a branch.
type Leaf struct {
	Flag flagspec.Descriptor
}

// Branch is one command of the argument tree.
type Branch struct {
	// Name is the command name.
	Name string
	// Path is the key prefix of the branch: the ancestor command names below
	// the root followed by Name. It is empty for the root.
	Path []string
	// Title heads the list of sub-commands in help output.
	Title    string
	Kind     target.Kind
	Metadata metadata.Metadata
	// Leaves are the flags declared by this branch.
	Leaves []Leaf
	// Inherited are the construction flags of the enclosing class, needed to
	// build the instance before a member runs.
	Inherited []Leaf
	Commands  []*Branch
	// Plan is the callable run by this branch. It is nil for namespaces and
	// for class branches, which only construct the instance.
	Plan *binder.Plan
	// Construct builds the instance for class branches and their members.
	Construct *binder.ClassPlan
}

// Child returns the sub-command called name.
func (b *Branch) Child(name string) *Branch {
	for _, c := range b.Commands {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// AllLeaves returns the inherited leaves followed by the branch's own.
func (b *Branch) AllLeaves() []Leaf {
	out := make([]Leaf, 0, len(b.Inherited)+len(b.Leaves))
	out = append(out, b.Inherited...)
	return append(out, b.Leaves...)
}

// Walk calls fn for b and every branch below it, parents first.
func (b *Branch) Walk(fn func(*Branch)) {
	fn(b)
	for _, c := range b.Commands {
		c.Walk(fn)
	}
}

// Option configures Build.
type Option func(*builder)

// WithPath builds the tree below an ancestor path.
func WithPath(path ...string) Option {
	return func(b *builder) {
		b.path = append([]string(nil), path...)
	}
}

// WithRootName overrides the command name of the root branch.
func WithRootName(name string) Option {
	return func(b *builder) {
		b.rootName = name
	}
}

type builder struct {
	path     []string
	rootName string
	caser    cases.Caser
}

// Build turns a target into its argument tree.
//
// Members of namespaces and classes whose signature cannot be introspected
// even through the fallback are skipped with a warning. Other errors are
// returned.
func Build(t target.Target, opts ...Option) (*Branch, error) {
	b := &builder{caser: cases.Title(language.English)}
	for _, o := range opts {
		o(b)
	}
	if _, err := target.From(t); err != nil {
		return nil, err
	}

	name := b.rootName
	if name == "" {
		name = flagspec.KeyName(t.TargetName())
	}
	branch, err := b.build(t, name, b.path, true)
	if err != nil {
		return nil, err
	}
	slog.Debug("argument tree built",
		"target", t.TargetName(),
		"kind", t.Kind().String(),
		"commands", len(branch.Commands))
	return branch, nil
}

func (b *builder) build(t target.Target, name string, path []string, root bool) (*Branch, error) {
	switch v := t.(type) {
	case *target.Function:
		return b.function(v, name, path)
	case *target.Class:
		return b.class(v, name, path)
	case *target.Namespace:
		if !root {
			return nil, errors.NewWithContext(errors.ErrCodeUnsupportedTarget,
				"namespaces cannot be nested", map[string]any{"namespace": v.Name})
		}
		return b.namespace(v, name, path)
	default:
		return nil, errors.NewWithContext(errors.ErrCodeUnsupportedTarget,
			"unknown target", map[string]any{"type": fmt.Sprintf("%T", t)})
	}
}

func (b *builder) function(f *target.Function, name string, path []string) (*Branch, error) {
	c, err := introspect.Extract(f.Fn, f.Params, introspect.WithName(f.TargetName()))
	if err != nil {
		return nil, err
	}
	md := metadata.Extract(f.TargetName(), f.Version, f.Doc)
	sig := metadata.Attach(c.Signature(), md)

	return &Branch{
		Name:     name,
		Path:     path,
		Kind:     target.KindCallable,
		Metadata: md,
		Leaves:   leaves(sig, path, md.Version),
		Plan:     binder.NewPlan(c, path),
	}, nil
}

func (b *builder) class(c *target.Class, name string, path []string) (*Branch, error) {
	md := metadata.Extract(c.TargetName(), c.Version, c.Doc)

	construct := &binder.ClassPlan{Name: c.TargetName(), Type: c.Type}
	var allocSig, initSig *introspect.Signature
	var alloc, init *introspect.Callable
	var err error

	if c.New != nil {
		alloc, err = introspect.Extract(c.New.Fn, c.New.Params, introspect.WithName(c.New.TargetName()))
		if err != nil {
			return nil, errors.WrapWithContext(errors.CodeOf(err), "cannot introspect allocation", err,
				map[string]any{"class": c.TargetName()})
		}
		s := alloc.Signature()
		allocSig = &s
	}
	if c.Init != nil {
		init, err = introspect.Extract(c.Init.Fn, c.Init.Params,
			introspect.WithName(c.Init.TargetName()), introspect.WithOwner(c.Type))
		if err != nil {
			return nil, errors.WrapWithContext(errors.CodeOf(err), "cannot introspect initialization", err,
				map[string]any{"class": c.TargetName()})
		}
		s := init.Signature()
		initSig = &s
	}

	merged := constructor.Merge(allocSig, initSig)
	varPosKey, varKwKey := variadicKeys(merged, path)
	if alloc != nil {
		construct.Alloc = binder.NewPlan(alloc, path, binder.WithVariadicKeys(varPosKey, varKwKey))
	}
	if init != nil {
		construct.Init = binder.NewPlan(init, path, binder.WithVariadicKeys(varPosKey, varKwKey))
	}

	sig := metadata.Attach(merged.Signature(), md)
	branch := &Branch{
		Name:      name,
		Path:      path,
		Title:     b.caser.String(c.TargetName()) + " methods",
		Kind:      target.KindClass,
		Metadata:  md,
		Leaves:    leaves(sig, path, md.Version),
		Construct: construct,
	}

	seen := make(map[string]struct{})
	for _, m := range c.MemberFunctions() {
		mname := flagspec.KeyName(m.TargetName())
		if _, dup := seen[mname]; dup {
			slog.Warn("skipping duplicate member", "class", c.TargetName(), "member", mname)
			continue
		}
		mpath := append(append([]string(nil), path...), mname)

		mc, err := introspect.Extract(m.Fn, m.Params,
			introspect.WithName(m.TargetName()), introspect.WithOwner(c.Type))
		if err != nil {
			if skip(err) {
				slog.Warn("skipping member without an introspectable signature",
					"class", c.TargetName(),
					"member", m.TargetName(),
					"code", errors.CodeOf(err),
					"error", err)
				continue
			}
			return nil, err
		}
		seen[mname] = struct{}{}

		mmd := metadata.Extract(m.TargetName(), m.Version, m.Doc)
		msig := metadata.Attach(mc.Signature(), mmd)
		branch.Commands = append(branch.Commands, &Branch{
			Name:      mname,
			Path:      mpath,
			Kind:      target.KindCallable,
			Metadata:  mmd,
			Leaves:    leaves(msig, mpath, mmd.Version),
			Inherited: branch.AllLeaves(),
			Plan:      binder.NewPlan(mc, mpath),
			Construct: construct,
		})
	}
	return branch, nil
}

func (b *builder) namespace(n *target.Namespace, name string, path []string) (*Branch, error) {
	md := metadata.Extract(n.Name, n.Version, n.Doc)
	branch := &Branch{
		Name:     name,
		Path:     path,
		Title:    b.caser.String(n.Name) + " callables",
		Kind:     target.KindNamespace,
		Metadata: md,
	}
	if md.Version != "" {
		branch.Leaves = []Leaf{{Flag: flagspec.VersionDescriptor(md.Version, path)}}
	}

	for _, m := range n.VisibleMembers() {
		mname := flagspec.KeyName(m.TargetName())
		if mname == "" {
			slog.Warn("skipping member without a name", "namespace", n.Name)
			continue
		}
		if branch.Child(mname) != nil {
			slog.Warn("skipping duplicate member", "namespace", n.Name, "member", mname)
			continue
		}
		mpath := append(append([]string(nil), path...), mname)
		child, err := b.build(m, mname, mpath, false)
		if err != nil {
			if skip(err) {
				slog.Warn("skipping member without an introspectable signature",
					"namespace", n.Name,
					"member", m.TargetName(),
					"code", errors.CodeOf(err),
					"error", err)
				continue
			}
			return nil, err
		}
		branch.Commands = append(branch.Commands, child)
	}
	return branch, nil
}

func skip(err error) bool {
	return errors.HasCode(err, errors.ErrCodeUnintrospectableSignature)
}

// leaves synthesizes one leaf per parameter, plus the version pseudo-flag
// when a version tag is set and no parameter claims the name.
func leaves(sig introspect.Signature, path []string, version string) []Leaf {
	out := make([]Leaf, 0, len(sig.Params)+1)
	hasVersion := false
	for _, p := range sig.Params {
		d := flagspec.Synthesize(p, path, version)
		hasVersion = hasVersion || d.IsVersion()
		out = append(out, Leaf{Flag: d})
	}
	if version != "" && !hasVersion {
		out = append(out, Leaf{Flag: flagspec.VersionDescriptor(version, path)})
	}
	return out
}

func variadicKeys(m constructor.Merged, path []string) (string, string) {
	var pos, kw string
	sig := m.Signature()
	if p, ok := sig.VariadicPositional(); ok {
		pos = flagspec.KeyName(append(append([]string(nil), path...), p.Name)...)
	}
	if p, ok := sig.VariadicKeyword(); ok {
		kw = flagspec.KeyName(append(append([]string(nil), path...), p.Name)...)
	}
	return pos, kw
}

// RequiredLeaves returns the leaves that must be supplied.
func (b *Branch) RequiredLeaves() []Leaf {
	var out []Leaf
	for _, l := range b.AllLeaves() {
		if l.Flag.Required {
			out = append(out, l)
		}
	}
	return out
}

// Description returns the help description of the branch, with the return
// documentation appended when present.
func (b *Branch) Description() string {
	desc := b.Metadata.LongDescription
	if r := b.Metadata.Returns; r != nil && r.Description != "" {
		returns := "Returns: " + r.Description
		if r.TypeName != "" {
			returns += " (" + r.TypeName + ")"
		}
		if desc != "" {
			desc += "\n\n"
		}
		desc += returns
	}
	return desc
}

