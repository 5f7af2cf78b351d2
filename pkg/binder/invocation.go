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
	"log/slog"
	"time"

	"github.com/NVIDIA/simplifiedapp/pkg/errors"
)

// State is the lifecycle state of an Invocation.
type State int

const (
	// Pending is the initial state.
	Pending State = iota
	// Bound means the arguments were reconstructed.
	Bound
	// Called means the target ran and returned without error.
	Called
	// Failed means binding or the call failed.
	Failed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Bound:
		return "BOUND"
	case Called:
		return "CALLED"
	case Failed:
		return "FAILED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Invocation is one run of a plan. It moves PENDING -> BOUND -> CALLED or
// FAILED and is never reused.
type Invocation struct {
	plan  *Plan
	state State
	args  Arguments
	err   error
}

// NewInvocation starts a pending invocation of p.
func NewInvocation(p *Plan) *Invocation {
	return &Invocation{plan: p}
}

// State returns the current state.
func (i *Invocation) State() State {
	return i.state
}

// Arguments returns the bound arguments.
func (i *Invocation) Arguments() Arguments {
	return i.args
}

// Err returns the error that moved the invocation to FAILED.
func (i *Invocation) Err() error {
	return i.err
}

// Bind reconstructs the arguments from resolved values.
func (i *Invocation) Bind(values map[string]any) error {
	if i.state != Pending {
		return i.transitionError("bind")
	}

	args, err := i.plan.Bind(values)
	if err != nil {
		i.fail(err)
		bindTotal.WithLabelValues(resultLabel(err)).Inc()
		return err
	}
	i.args = args
	i.state = Bound
	bindTotal.WithLabelValues("success").Inc()
	slog.Debug("arguments bound",
		"callable", i.plan.Name,
		"positional", len(args.Args),
		"keyword", len(args.Kwargs))
	return nil
}

// Call runs the bound target. owner is the instance for class members and
// nil otherwise.
func (i *Invocation) Call(ctx context.Context, owner any) (any, error) {
	if i.state != Bound {
		return nil, i.transitionError("call")
	}

	start := time.Now()
	result, err := i.plan.Caller.Call(ctx, owner, i.args.Args, i.args.Kwargs)
	callDuration.WithLabelValues(resultLabel(err)).Observe(time.Since(start).Seconds())
	if err != nil {
		i.fail(err)
		return nil, err
	}
	i.state = Called
	slog.Debug("target called",
		"callable", i.plan.Name,
		"duration", time.Since(start))
	return result, nil
}

func (i *Invocation) fail(err error) {
	i.state = Failed
	i.err = err
}

func (i *Invocation) transitionError(op string) error {
	return errors.NewWithContext(errors.ErrCodeInternal,
		fmt.Sprintf("cannot %s an invocation in state %s", op, i.state),
		map[string]any{"callable": i.plan.Name})
}

func resultLabel(err error) string {
	if err == nil {
		return "success"
	}
	if code := errors.CodeOf(err); code != "" {
		return string(code)
	}
	return "error"
}
