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

package cli

import (
	"fmt"
	"log/slog"
	"maps"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/simplifiedapp/pkg/errors"
	"github.com/NVIDIA/simplifiedapp/pkg/flagspec"
	"github.com/NVIDIA/simplifiedapp/pkg/tree"
)

// resolve collects the value of every leaf of b, keyed by flag key. An
// explicit command-line value wins over the input files. Leaves with neither
// are left out so the binder applies the default.
func resolve(cmd *cli.Command, b *tree.Branch, config map[string]any) (map[string]any, error) {
	leaves := b.AllLeaves()
	positional, err := assignPositional(cmd.Args().Slice(), b)
	if err != nil {
		return nil, err
	}

	values := make(map[string]any, len(leaves))
	for _, l := range leaves {
		d := l.Flag
		if d.IsVersion() {
			continue
		}

		raw, source := explicit(cmd, d, positional)
		if source == "" {
			if v, ok := config[d.Key]; ok && v != nil {
				raw, source = v, "input-file"
			}
		}
		if source == "" {
			continue
		}

		v, err := d.Coerce(raw)
		if err != nil {
			return nil, errors.WrapWithContext(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("invalid value for %s", d.Spelling), err,
				map[string]any{"source": source})
		}
		values[d.Key] = accumulate(d, v)
		slog.Debug("resolved value", "key", d.Key, "source", source)
	}
	return values, nil
}

// explicit returns the command-line value of d and where it came from, or
// an empty source when d was not given.
func explicit(cmd *cli.Command, d flagspec.Descriptor, positional map[string]any) (any, string) {
	if d.Positional {
		if v, ok := positional[d.Key]; ok {
			return v, "argument"
		}
		return nil, ""
	}
	if !cmd.IsSet(d.Key) {
		return nil, ""
	}
	switch {
	case d.Coercion == flagspec.BooleanToggle:
		return d.Toggle(cmd.Bool(d.Key)), "flag"
	case d.Multiplicity != flagspec.Single:
		return cmd.StringSlice(d.Key), "flag"
	default:
		return cmd.String(d.Key), "flag"
	}
}

// accumulate merges key=value entries into a non-empty mapping default.
func accumulate(d flagspec.Descriptor, v any) any {
	if d.Coercion != flagspec.KeyValueList {
		return v
	}
	def, ok := d.Default.(map[string]any)
	entries, isMap := v.(map[string]any)
	if !ok || !isMap || len(def) == 0 {
		return v
	}
	out := maps.Clone(def)
	maps.Copy(out, entries)
	return out
}

// assignPositional hands the command-line arguments to the positional
// leaves in declaration order, construction values first. Remaining
// arguments go to the branch's own variadic leaf, else to the inherited one.
func assignPositional(args []string, b *tree.Branch) (map[string]any, error) {
	out := make(map[string]any)
	var variadic *flagspec.Descriptor

	for _, ls := range [][]tree.Leaf{b.Inherited, b.Leaves} {
		for i := range ls {
			d := ls[i].Flag
			if !d.Positional {
				continue
			}
			if d.Multiplicity != flagspec.Single {
				variadic = &ls[i].Flag
				continue
			}
			if len(args) == 0 {
				continue
			}
			out[d.Key] = args[0]
			args = args[1:]
		}
	}

	if len(args) == 0 {
		return out, nil
	}
	if variadic == nil {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("unexpected arguments: %v", args),
			map[string]any{"command": b.Name})
	}
	out[variadic.Key] = args
	return out, nil
}
