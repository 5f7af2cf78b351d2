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

// Package serializer renders call results and reads structured input files.
//
// # Output
//
// A string result is written verbatim, without a trailing newline. Any
// other result is written either as indented JSON, where nested values JSON
// cannot encode go through an optional fallback caster and are otherwise
// replaced by their string form, or in a wide human-readable form that keeps
// values on one line up to 270 columns and otherwise breaks containers one
// entry per line:
//
//	w, err := serializer.NewFileWriter(serializer.FormatJSON, path, os.Stdout)
//	if err != nil {
//		return err
//	}
//	defer w.Close()
//	err = w.Serialize(ctx, result)
//
// A nil result is written as null in JSON and not at all in the pretty form.
// A container that contains itself is written as a recursion marker where
// it repeats, in both forms.
//
// # Input files
//
// Input files pre-seed resolved values before explicit flags override them.
// Each --input-file value is [FORMAT:]PATH where FORMAT is json, ini or
// yaml; without a prefix the format is inferred from the extension:
//
//	specs := []serializer.InputSpec{}
//	spec, err := serializer.ParseInputSpec("ini:defaults.conf")
//	specs = append(specs, spec)
//	config, err := serializer.MergeInputs(specs)
//
// Files are merged left to right. Nested mappings are flattened into flag
// keys: {"server": {"max_conns": 4}} becomes "server-max-conns". INI
// sections become nested mappings that inherit the default section's keys.
//
// An unknown format name fails immediately with UNSUPPORTED_INPUT_FORMAT.
package serializer
