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
	"maps"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/simplifiedapp/pkg/defaults"
	"github.com/NVIDIA/simplifiedapp/pkg/errors"
	"github.com/NVIDIA/simplifiedapp/pkg/flagspec"
	"github.com/NVIDIA/simplifiedapp/pkg/logging"
	"github.com/NVIDIA/simplifiedapp/pkg/serializer"
	"github.com/NVIDIA/simplifiedapp/pkg/tree"
)

// Reserved root flags.
const (
	flagLogLevel        = "log-level"
	flagLogToSyslog     = "log-to-syslog"
	flagInputFile       = "input-file"
	flagJSON            = "json"
	flagMetricsTextfile = "metrics-textfile"
	flagOutputFile      = "output-file"
)

// branchKey stores the tree branch of a command in its metadata.
const branchKey = "branch"

var (
	reservedFlagNames = []string{
		"help", "h",
		flagLogLevel, flagLogToSyslog, flagInputFile, flagJSON, flagMetricsTextfile, flagOutputFile,
	}
	reservedCommandNames = []string{"help", "h"}
)

func reservedFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  flagLogLevel,
			Value: defaults.LogLevel,
			Usage: fmt.Sprintf("Log level (supported values: %s)",
				strings.Join(logging.SupportedLevels(), ", ")),
		},
		&cli.BoolFlag{
			Name:  flagLogToSyslog,
			Usage: "Forward log records to the system log",
		},
		&cli.StringSliceFlag{
			Name: flagInputFile,
			Usage: fmt.Sprintf(`Read parameter values from [FORMAT:]PATH (supported formats: %s).
	Repeatable; later files override earlier ones and command-line values override files.`,
				strings.Join(serializer.SupportedInputFormats(), ", ")),
		},
		&cli.BoolFlag{
			Name:  flagJSON,
			Usage: "Print the result as JSON",
		},
		&cli.StringFlag{
			Name:  flagMetricsTextfile,
			Usage: "Write the bind and call metrics to PATH in the Prometheus text format",
		},
		&cli.StringFlag{
			Name: flagOutputFile,
			Usage: fmt.Sprintf("Write the result to PATH instead of standard output (formats: %s)",
				strings.Join(serializer.SupportedFormats(), ", ")),
		},
	}
}

// checkReserved fails when a flag or command of the tree would shadow a
// reserved name.
func checkReserved(root *tree.Branch) error {
	var err error
	root.Walk(func(b *tree.Branch) {
		if err != nil {
			return
		}
		if b != root && slices.Contains(reservedCommandNames, b.Name) {
			err = errors.NewWithContext(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("command %q collides with a reserved command", b.Name),
				map[string]any{"command": b.Name})
			return
		}
		for _, l := range b.Leaves {
			if l.Flag.Positional || !slices.Contains(reservedFlagNames, l.Flag.Key) {
				continue
			}
			err = errors.NewWithContext(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("flag %s collides with a reserved flag", l.Flag.Spelling),
				map[string]any{"command": b.Name, "parameter": l.Flag.Name})
			return
		}
	})
	return err
}

// checkKeys fails when two flags visible to the same command share a key,
// such as a construction parameter "add_x" and the parameter x of member
// "add". scope maps the keys declared by ancestors to their command.
func checkKeys(b *tree.Branch, scope map[string]string) error {
	own := maps.Clone(scope)
	if own == nil {
		own = make(map[string]string)
	}
	for _, l := range b.Leaves {
		if other, dup := own[l.Flag.Key]; dup {
			return errors.NewWithContext(errors.ErrCodeUnsupportedTarget,
				fmt.Sprintf("flag %s of command %q collides with a flag of command %q", l.Flag.Spelling, b.Name, other),
				map[string]any{"command": b.Name, "parameter": l.Flag.Name, "key": l.Flag.Key})
		}
		own[l.Flag.Key] = b.Name
	}
	for _, c := range b.Commands {
		if err := checkKeys(c, own); err != nil {
			return err
		}
	}
	return nil
}

// dropBareFlags removes the occurrences of zero-or-more flags given without
// a value. Such an occurrence keeps the default.
func dropBareFlags(args []string, root *tree.Branch) []string {
	bare := make(map[string]struct{})
	root.Walk(func(b *tree.Branch) {
		for _, l := range b.Leaves {
			d := l.Flag
			if d.Positional || d.Multiplicity != flagspec.ZeroOrMore {
				continue
			}
			bare["-"+d.Key] = struct{}{}
			bare["--"+d.Key] = struct{}{}
		}
	})
	if len(bare) == 0 {
		return args
	}

	out := make([]string, 0, len(args))
	for i, a := range args {
		if a == "--" {
			return append(out, args[i:]...)
		}
		if _, ok := bare[a]; ok && (i+1 == len(args) || strings.HasPrefix(args[i+1], "-")) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// command converts a branch and its descendants into commands. Only the
// branch's own flags are declared; flags of ancestors are persistent and
// visible to every sub-command.
func (r *runner) command(b *tree.Branch, category string) *cli.Command {
	cmd := &cli.Command{
		Name:                      b.Name,
		Usage:                     b.Metadata.Description,
		Description:               b.Description(),
		ArgsUsage:                 argsUsage(b),
		Category:                  category,
		DisableSliceFlagSeparator: true,
		Metadata:                  map[string]any{branchKey: b},
		Action:                    r.action(b),
	}
	for _, l := range b.Leaves {
		if l.Flag.Positional {
			continue
		}
		cmd.Flags = append(cmd.Flags, newFlag(l.Flag))
	}
	for _, c := range b.Commands {
		cmd.Commands = append(cmd.Commands, r.command(c, b.Title))
	}
	return cmd
}

// newFlag picks the flag type: toggles are boolean flags, anything taking
// several values is a repeatable string flag, the rest are string flags.
// Values are converted after parsing.
func newFlag(d flagspec.Descriptor) cli.Flag {
	usage := flagUsage(d)
	switch {
	case d.Coercion == flagspec.BooleanToggle:
		return &cli.BoolFlag{Name: d.Key, Usage: usage}
	case d.Multiplicity != flagspec.Single:
		return &cli.StringSliceFlag{Name: d.Key, Usage: usage}
	default:
		return &cli.StringFlag{Name: d.Key, Usage: usage}
	}
}

func flagUsage(d flagspec.Descriptor) string {
	parts := []string{}
	if d.HelpText != "" {
		parts = append(parts, d.HelpText)
	}
	if len(d.Choices) > 0 {
		choices := make([]string, 0, len(d.Choices))
		for _, c := range d.Choices {
			choices = append(choices, fmt.Sprint(c))
		}
		parts = append(parts, fmt.Sprintf("(supported values: %s)", strings.Join(choices, ", ")))
	}
	switch {
	case d.Required:
		parts = append(parts, "(required)")
	case d.Coercion == flagspec.BooleanToggle, d.Suppressed, !d.HasDefault:
	case d.Coercion == flagspec.KeyValueList:
		if m, ok := d.Default.(map[string]any); ok && len(m) > 0 {
			parts = append(parts, fmt.Sprintf("(default: %s)", strings.Join(flagspec.FormatEntries(m), " ")))
		}
	default:
		parts = append(parts, fmt.Sprintf("(default: %v)", d.Default))
	}
	return strings.Join(parts, " ")
}

// argsUsage lists the positional values of a branch, construction values
// first.
func argsUsage(b *tree.Branch) string {
	var parts []string
	for _, l := range b.AllLeaves() {
		if !l.Flag.Positional {
			continue
		}
		mv := l.Flag.Metavar()
		if !l.Flag.Required && l.Flag.Multiplicity == flagspec.Single {
			mv = "[" + mv + "]"
		}
		parts = append(parts, mv)
	}
	return strings.Join(parts, " ")
}

func branchOf(cmd *cli.Command) *tree.Branch {
	if cmd == nil || cmd.Metadata == nil {
		return nil
	}
	b, _ := cmd.Metadata[branchKey].(*tree.Branch)
	return b
}
