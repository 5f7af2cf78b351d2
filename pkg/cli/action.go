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
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/simplifiedapp/pkg/binder"
	"github.com/NVIDIA/simplifiedapp/pkg/errors"
	"github.com/NVIDIA/simplifiedapp/pkg/serializer"
	"github.com/NVIDIA/simplifiedapp/pkg/tree"
)

// action runs the selected branch: it prints the version when asked,
// resolves every value, builds the owner instance when needed, calls the
// target and renders the result.
func (r *runner) action(b *tree.Branch) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) (err error) {
		defer func() {
			if werr := writeMetrics(cmd.String(flagMetricsTextfile)); werr != nil && err == nil {
				err = werr
			}
		}()

		if tag, ok := requestedVersion(cmd); ok {
			_, err = fmt.Fprintln(r.out, tag)
			return err
		}

		if b.Plan == nil && b.Construct == nil {
			_ = cli.ShowSubcommandHelp(cmd)
			return errors.NewWithContext(errors.ErrCodeInvalidRequest,
				"no command selected", map[string]any{"commands": commandNames(b)})
		}

		config, err := loadConfig(cmd.StringSlice(flagInputFile))
		if err != nil {
			return err
		}
		values, err := resolve(cmd, b, config)
		if err != nil {
			return err
		}

		result, err := run(ctx, b, values)
		if err != nil {
			return err
		}
		return r.write(ctx, cmd, result)
	}
}

// write renders result to the output file when one is set, else to the
// runner's writer.
func (r *runner) write(ctx context.Context, cmd *cli.Command, result any) error {
	format := serializer.FormatPretty
	if cmd.Bool(flagJSON) {
		format = serializer.FormatJSON
	}
	w, err := serializer.NewFileWriter(format, cmd.String(flagOutputFile), r.out,
		serializer.WithJSONFallback(r.jsonDefault))
	if err != nil {
		return err
	}
	if err := w.Serialize(ctx, result); err != nil {
		_ = w.Close()
		return errors.Wrap(errors.ErrCodeInternal, "failed to write result", err)
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to close output file", err)
	}
	return nil
}

// run constructs the owner instance when the branch belongs to a class and
// calls the branch's callable. A class branch without a callable returns the
// instance itself.
func run(ctx context.Context, b *tree.Branch, values map[string]any) (any, error) {
	var owner any
	if b.Construct != nil {
		instance, err := b.Construct.Construct(ctx, values)
		if err != nil {
			return nil, err
		}
		if b.Plan == nil {
			return instance, nil
		}
		owner = instance
	}

	inv := binder.NewInvocation(b.Plan)
	if err := inv.Bind(values); err != nil {
		return nil, err
	}
	return inv.Call(ctx, owner)
}

// requestedVersion returns the version tag of the innermost command whose
// version flag was passed.
func requestedVersion(cmd *cli.Command) (string, bool) {
	for _, c := range cmd.Lineage() {
		b := branchOf(c)
		if b == nil {
			continue
		}
		for _, l := range b.Leaves {
			if l.Flag.IsVersion() && cmd.Bool(l.Flag.Key) {
				return l.Flag.Version, true
			}
		}
	}
	return "", false
}

func loadConfig(values []string) (map[string]any, error) {
	if len(values) == 0 {
		return map[string]any{}, nil
	}
	specs := make([]serializer.InputSpec, 0, len(values))
	for _, v := range values {
		spec, err := serializer.ParseInputSpec(v)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return serializer.MergeInputs(specs)
}

// writeMetrics dumps the default registry to path when one is set.
func writeMetrics(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return errors.WrapWithContext(errors.ErrCodeInternal,
			"failed to write metrics", err, map[string]any{"path": path})
	}
	slog.Debug("metrics written", "path", path)
	return nil
}

func commandNames(b *tree.Branch) string {
	names := make([]string, 0, len(b.Commands))
	for _, c := range b.Commands {
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}
