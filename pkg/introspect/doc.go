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

// Package introspect extracts parameter descriptors from registered callables
// and calls them back with positional and keyword arguments.
//
// # Overview
//
// Go does not expose parameter names at run time, so a callable is described
// by an explicit parameter declaration next to the func itself:
//
//	c, err := introspect.Extract(add, []introspect.Parameter{
//	    introspect.Required("a"),
//	    introspect.Optional("b", 2),
//	})
//
// Reflection fills in what the declaration leaves out: the Go type of every
// positional parameter, a leading context.Context, and the receiver of a method
// expression such as (*Server).Start, which is the implicit owner parameter and
// never appears in the returned Signature.
//
// # Calling convention
//
// A func may take, in order: the receiver (members only), a context.Context,
// one input per named positional parameter, a map[string]any receiving
// keyword-only and variadic keyword values, and a final variadic input for the
// variadic positional slot. It may return nothing, a value, an error, or a
// value and an error. Funcs of type Invoker or MethodInvoker are called as is.
//
// # Fallback
//
// A func registered without a declaration gets the generic signature
// (args, kwargs) and a warning is logged. Funcs whose inputs cannot be produced
// from command-line values at all (channels, funcs, structs) fail with
// ErrCodeUnintrospectableSignature so that callers can skip them.
package introspect
