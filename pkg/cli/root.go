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
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/simplifiedapp/pkg/defaults"
	"github.com/NVIDIA/simplifiedapp/pkg/errors"
	"github.com/NVIDIA/simplifiedapp/pkg/flagspec"
	"github.com/NVIDIA/simplifiedapp/pkg/logging"
	"github.com/NVIDIA/simplifiedapp/pkg/target"
	"github.com/NVIDIA/simplifiedapp/pkg/tree"
)

// Option configures the command built for a target.
type Option func(*runner)

// WithWriter sets where results and help are written. Defaults to stdout.
func WithWriter(w io.Writer) Option {
	return func(r *runner) {
		r.out = w
	}
}

// WithErrWriter sets where log records and errors are written. Defaults to
// stderr.
func WithErrWriter(w io.Writer) Option {
	return func(r *runner) {
		r.errOut = w
	}
}

// WithName overrides the program name. Defaults to the target name.
func WithName(name string) Option {
	return func(r *runner) {
		r.name = name
	}
}

// WithJSONDefault sets the caster applied to result values that cannot be
// written as JSON. It returns a JSON-encodable replacement, or nil to fall
// back to the value's string form.
func WithJSONDefault(fn func(any) any) Option {
	return func(r *runner) {
		r.jsonDefault = fn
	}
}

type runner struct {
	name        string
	out         io.Writer
	errOut      io.Writer
	jsonDefault func(any) any
	root        *tree.Branch
	// module and version label every log record.
	module  string
	version string
	// invocation is shared by every log record of one run.
	invocation string
}

func newRunner(opts ...Option) *runner {
	r := &runner{
		out:        os.Stdout,
		errOut:     os.Stderr,
		invocation: uuid.NewString(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Execute runs t as the program's command line and exits with status 1 on
// failure. It is called by main.main().
func Execute(t target.Target, opts ...Option) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle SIGINT/SIGTERM for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down gracefully...")
		cancel()
	}()

	if err := Run(ctx, t, os.Args[1:], opts...); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Run builds the command line of t and runs it against args, which exclude
// the program name. The logging flags are read from args first so records
// emitted while the tree is built already honor them.
func Run(ctx context.Context, t target.Target, args []string, opts ...Option) error {
	if _, err := target.From(t); err != nil {
		return err
	}
	r := newRunner(opts...)
	r.module = r.name
	if r.module == "" {
		r.module = flagspec.KeyName(t.TargetName())
	}
	if err := r.configure(preparse(args)); err != nil {
		return err
	}

	cmd, err := r.build(t)
	if err != nil {
		return err
	}
	return cmd.Run(ctx, append([]string{cmd.Name}, dropBareFlags(args, r.root)...))
}

// NewCommand builds the root command of t. Every branch of the argument tree
// becomes a command; the reserved flags are added to the root and inherited
// by every sub-command.
func NewCommand(t target.Target, opts ...Option) (*cli.Command, error) {
	return newRunner(opts...).build(t)
}

func (r *runner) build(t target.Target) (*cli.Command, error) {
	var treeOpts []tree.Option
	if r.name != "" {
		treeOpts = append(treeOpts, tree.WithRootName(r.name))
	}
	root, err := tree.Build(t, treeOpts...)
	if err != nil {
		return nil, err
	}
	if err := checkReserved(root); err != nil {
		return nil, err
	}
	if err := checkKeys(root, nil); err != nil {
		return nil, err
	}
	r.root = root
	r.module = root.Name
	r.version = root.Metadata.Version

	cmd := r.command(root, "")
	cmd.Flags = append(cmd.Flags, reservedFlags()...)
	cmd.Writer = r.out
	cmd.ErrWriter = r.errOut
	// The version pseudo-flag of the tree replaces the built-in one.
	cmd.HideVersion = true
	cmd.Before = r.configureLogging
	return cmd, nil
}

// logSettings are the values of the logging flags.
type logSettings struct {
	level  string
	syslog bool
	json   bool
}

// preparse reads the logging flags from raw arguments ahead of the full
// parse. Arguments after "--" are values and are not inspected.
func preparse(args []string) logSettings {
	s := logSettings{level: defaults.LogLevel}
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			break
		}
		if !strings.HasPrefix(a, "-") {
			continue
		}
		name, value, hasValue := strings.Cut(strings.TrimLeft(a, "-"), "=")
		switch name {
		case flagLogLevel:
			switch {
			case hasValue:
				s.level = value
			case i+1 < len(args):
				i++
				s.level = args[i]
			}
		case flagLogToSyslog:
			s.syslog = boolValue(value, hasValue)
		case flagJSON:
			s.json = boolValue(value, hasValue)
		}
	}
	return s
}

func boolValue(value string, hasValue bool) bool {
	if !hasValue {
		return true
	}
	b, err := strconv.ParseBool(value)
	return err == nil && b
}

// configureLogging applies the parsed logging flags before any action runs.
func (r *runner) configureLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	err := r.configure(logSettings{
		level:  cmd.String(flagLogLevel),
		syslog: cmd.Bool(flagLogToSyslog),
		json:   cmd.Bool(flagJSON),
	})
	if err != nil {
		return ctx, err
	}
	slog.Debug("logging configured", "level", cmd.String(flagLogLevel), "args", cmd.Args().Slice())
	return ctx, nil
}

// configure installs the default logger. Every record of the run carries
// the same invocation ID.
func (r *runner) configure(s logSettings) error {
	if !logging.IsValidLevel(s.level) {
		return errors.NewWithContext(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid log level %q", s.level),
			map[string]any{"supported": logging.SupportedLevels()})
	}

	err := logging.SetDefault(logging.Config{
		Module:  r.module,
		Version: r.version,
		Level:   s.level,
		Output:  r.errOut,
		JSON:    s.json,
		Syslog:  s.syslog,
	}, slog.String("invocation", r.invocation))
	if err != nil {
		slog.Warn("system log unavailable, logging to stderr", "error", err)
	}
	return nil
}
