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

package defaults

// Rendering defaults.
const (
	// PrettyWidth is the column budget of the human-readable result rendering.
	// Structures that fit on one line within this width are kept on one line.
	PrettyWidth = 270
)

// Naming defaults for flags and sub-commands.
const (
	// PathSeparator joins ancestor path elements and parameter names into flag
	// spellings and resolved-value keys. Underscores are normalized to it.
	PathSeparator = "-"

	// PrivacyMarker prefixes member names that are not exposed as sub-commands
	// unless explicitly allow-listed.
	PrivacyMarker = "_"

	// VersionParameter is the name of the pseudo-parameter that prints the
	// version of a target and terminates.
	VersionParameter = "version"
)

// Fallback signature names used when a callable cannot be introspected.
const (
	// GenericPositionalName names the catch-all positional slot.
	GenericPositionalName = "args"

	// GenericKeywordName names the catch-all keyword slot.
	GenericKeywordName = "kwargs"
)

// Help text fragments.
const (
	// KeyValueHint is appended to the help text of mapping-valued flags.
	KeyValueHint = "(Use the key=value format for each entry)"
)

// Logging defaults.
const (
	// LogLevel is the log severity used when none is selected.
	LogLevel = "warning"
)
