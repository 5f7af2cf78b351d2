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

//go:build !windows && !plan9

package logging

import (
	"fmt"
	"log/slog"
	"log/syslog"
)

func newSyslogHandler(module string, opts *slog.HandlerOptions) (slog.Handler, error) {
	w, err := syslog.New(syslog.LOG_USER|syslog.LOG_INFO, module)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to syslog: %w", err)
	}
	return slog.NewTextHandler(w, opts), nil
}
