// Copyright 2025 The inedox-git authors
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
//
// SPDX-License-Identifier: Apache-2.0

package lfs

import (
	"fmt"
	"strings"

	"github.com/Falcon-Punch/inedox-git/internal/errdefs"
)

// ToolNotInstalledError reports that the tool could not be found or started,
// or that it exited with the platform "command not found" sentinel.
type ToolNotInstalledError struct {
	Tool       string
	InstallURL string
	Cause      error
}

func (e *ToolNotInstalledError) Error() string {
	msg := fmt.Sprintf(
		"%s does not appear to be installed or on the PATH; install it from %s and try again",
		e.Tool, e.InstallURL,
	)
	if e.Cause != nil {
		msg += fmt.Sprintf(" (%v)", e.Cause)
	}
	return msg
}

func (e *ToolNotInstalledError) Unwrap() error { return errdefs.ErrToolNotInstalled }

// ToolExecutionError reports a tool that ran and exited non-zero. It carries
// the exit code and everything the tool wrote to its diagnostic stream.
type ToolExecutionError struct {
	Tool     string
	ExitCode int
	Stderr   string
}

func (e *ToolExecutionError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Tool, e.ExitCode)
	if diag := strings.TrimSpace(e.Stderr); diag != "" {
		msg += ": " + diag
	}
	return msg
}

func (e *ToolExecutionError) Unwrap() error { return errdefs.ErrToolExecution }
