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

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/NVIDIA/simplifiedapp/pkg/cli"
	"github.com/NVIDIA/simplifiedapp/pkg/introspect"
	"github.com/NVIDIA/simplifiedapp/pkg/target"
)

// overridden during build with ldflags
var version = "dev"

func sum(_ context.Context, numbers ...float64) float64 {
	var total float64
	for _, n := range numbers {
		total += n
	}
	return total
}

func greet(name string, kwargs map[string]any) string {
	msg := fmt.Sprintf("%v, %s", kwargs["greeting"], name)
	if shout, _ := kwargs["shout"].(bool); shout {
		msg = strings.ToUpper(msg)
	}
	return msg + "\n"
}

func env(kwargs map[string]any) map[string]any {
	return kwargs
}

type counter struct {
	Start int
	Step  int
}

func newCounter(start int) *counter {
	return &counter{Start: start, Step: 1}
}

func (c *counter) Init(kwargs map[string]any) {
	if step, ok := kwargs["step"].(int); ok {
		c.Step = step
	}
}

func (c *counter) Count(times int) []int {
	out := make([]int, 0, times)
	for i := 0; i < times; i++ {
		out = append(out, c.Start+i*c.Step)
	}
	return out
}

func app() *target.Namespace {
	ns := &target.Namespace{
		Name:    "simplifiedapp",
		Version: version,
		Doc: `Demo command line generated from plain Go functions.

Every sub-command is a registered function or class.`,
	}

	sumFn := target.Func("sum", sum, introspect.Variadic("numbers"))
	sumFn.Doc = `Add numbers.

:param numbers: the values to add
:returns: the total
:rtype: float`

	greetFn := target.Func("greet", greet,
		introspect.Required("name"),
		introspect.KeywordOnly("greeting", "Hello").OneOf("Hello", "Hi", "Howdy"),
		introspect.KeywordOnly("shout", false))
	greetFn.Doc = `Greet someone.

:param name: who to greet
:param greeting: the salutation
:param shout: print in upper case`

	envFn := target.Func("env", env, introspect.VariadicKeyword("vars"))
	envFn.Doc = "Echo key=value pairs back as a mapping."

	counterClass := target.ClassOf[counter]("counter", `Count from a start value.

:param start: first value
:param step: increment`)
	counterClass.New = target.Func("new", newCounter, introspect.Optional("start", 0))
	counterClass.Init = target.Func("init", (*counter).Init, introspect.KeywordOnly("step", 1))
	counterClass.Method("count", (*counter).Count, introspect.Optional("times", 3))

	return ns.Add(sumFn, greetFn, envFn, counterClass)
}

func main() {
	cli.Execute(app())
}
