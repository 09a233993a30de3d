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
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Falcon-Punch/inedox-git/internal/errdefs"
	"golang.org/x/sys/unix"
)

// The three per-invocation copy tasks. All run concurrently on one errgroup:
// a tool may emit output before consuming all input, or fill its stderr
// buffer while the content pumps are still busy, so none of these may be
// serialized against another.

// feedInput copies the caller's input to the tool's stdin, then half-closes
// stdin so the tool sees end-of-input. A broken pipe means the tool stopped
// reading; that is left for exit-code classification, not reported as a pump
// fault.
func (d *Driver) feedInput(logger *slog.Logger, proc *Process, input io.Reader) error {
	n, err := io.Copy(proc.Stdin(), input)
	logger.Debug("input pump finished", "bytes", n, "err", err)

	if cerr := proc.CloseStdin(); cerr != nil {
		logger.Warn("could not close tool stdin", "err", cerr)
	}

	if err != nil && !brokenPipe(err) {
		proc.Kill()
		return fmt.Errorf("%w: feeding tool input: %w", errdefs.ErrIOFailure, err)
	}
	return nil
}

// drainOutput copies the tool's stdout to the caller's output until the tool
// closes its end.
func (d *Driver) drainOutput(logger *slog.Logger, proc *Process, output io.Writer) error {
	n, err := io.Copy(output, proc.Stdout())
	logger.Debug("output pump finished", "bytes", n, "err", err)

	if err != nil {
		proc.Kill()
		return fmt.Errorf("%w: draining tool output: %w", errdefs.ErrIOFailure, err)
	}
	return nil
}

// drainDiagnostics buffers the tool's stderr to EOF so a chatty tool never
// blocks on a full diagnostic buffer, success path included. Read faults here
// are not fatal; the buffer only feeds error messages.
func (d *Driver) drainDiagnostics(logger *slog.Logger, proc *Process, buf *bytes.Buffer) error {
	n, err := io.Copy(buf, proc.Stderr())
	logger.Debug("diagnostics drained", "bytes", n, "err", err)
	return nil
}

func brokenPipe(err error) bool {
	return errors.Is(err, unix.EPIPE) || errors.Is(err, os.ErrClosed) || errors.Is(err, io.ErrClosedPipe)
}
