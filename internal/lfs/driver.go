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

// Package lfs implements the Git LFS clean/smudge filter driver: it spawns
// the external LFS tool once per file per direction, streams content through
// its standard input and output, drains diagnostics concurrently, and
// classifies launch and exit failures.
package lfs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"slices"
	"time"

	"github.com/Falcon-Punch/inedox-git/internal/errdefs"
	"github.com/Falcon-Punch/inedox-git/internal/naming"
	"github.com/Falcon-Punch/inedox-git/pkg/api"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultTool       = "git-lfs"
	DefaultInstallURL = "https://git-lfs.com"

	// Exit code cmd.exe reports for an unresolvable command. Kept only as a
	// secondary signal; failure to spawn is the portable one.
	windowsNotFoundExit = 9009

	// How long a cancelled tool gets between SIGTERM and SIGKILL.
	terminateGrace = 2 * time.Second
)

// Driver shells out to an installed LFS tool. One Driver may serve many
// concurrent invocations; each invocation owns its process and pipes
// exclusively, so no locking is needed.
type Driver struct {
	logger   *slog.Logger
	tool     api.ToolSpec
	launcher Launcher
}

var _ api.Filter = (*Driver)(nil)

func NewDriver(logger *slog.Logger, tool api.ToolSpec) *Driver {
	if tool.Command == "" {
		tool.Command = DefaultTool
	}
	if tool.InstallURL == "" {
		tool.InstallURL = DefaultInstallURL
	}
	return &Driver{
		logger:   logger,
		tool:     tool,
		launcher: NewLauncher(logger),
	}
}

// Clean transforms working-tree content into its repository form.
func (d *Driver) Clean(ctx context.Context, path, repoRoot string, input io.Reader, output io.Writer) error {
	return d.run(ctx, api.FilterSpec{
		ID:       api.ID(naming.InvocationID()),
		Mode:     api.FilterClean,
		Path:     path,
		RepoRoot: repoRoot,
	}, input, output)
}

// Smudge transforms repository content back into its working-tree form.
func (d *Driver) Smudge(ctx context.Context, path, repoRoot string, input io.Reader, output io.Writer) error {
	return d.run(ctx, api.FilterSpec{
		ID:       api.ID(naming.InvocationID()),
		Mode:     api.FilterSmudge,
		Path:     path,
		RepoRoot: repoRoot,
	}, input, output)
}

// run owns one tool process end to end: launch, concurrent pumps, stdin
// half-close, exit wait, classification. No retries; every failure aborts
// the invocation and the caller decides what to do with it.
func (d *Driver) run(ctx context.Context, spec api.FilterSpec, input io.Reader, output io.Writer) error {
	if err := validateSpec(spec); err != nil {
		return err
	}

	logger := d.logger.With("invocation", spec.ID, "mode", spec.Mode, "path", spec.Path)

	args := append(slices.Clone(d.tool.ExtraArgs), string(spec.Mode), "--", spec.Path)
	proc, err := d.launcher.Launch(d.tool.Command, args, d.tool.Env, spec.RepoRoot)
	if err != nil {
		logger.Error("could not start lfs tool", "cmd", d.tool.Command, "err", err)
		return &ToolNotInstalledError{Tool: d.tool.Command, InstallURL: d.tool.InstallURL, Cause: err}
	}

	// Kill the tool if the caller cancels while pumps are in flight, so a
	// cancelled invocation never leaves an orphaned process behind.
	watchDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			logger.Debug("cancellation requested, terminating tool")
			proc.Terminate(terminateGrace)
		case <-watchDone:
		}
	}()

	var diag bytes.Buffer
	eg := new(errgroup.Group)
	eg.Go(func() error { return d.feedInput(logger, proc, input) })
	eg.Go(func() error { return d.drainOutput(logger, proc, output) })
	eg.Go(func() error { return d.drainDiagnostics(logger, proc, &diag) })

	pumpErr := eg.Wait()
	if pumpErr != nil {
		// A failed pump may have left the tool blocked on a pipe.
		proc.Kill()
	}
	waitErr := proc.Wait()
	close(watchDone)

	if ctx.Err() != nil {
		return fmt.Errorf("%w: %w", errdefs.ErrContextDone, ctx.Err())
	}
	if pumpErr != nil {
		return pumpErr
	}
	if cerr := d.classifyExit(waitErr, diag.String()); cerr != nil {
		logger.Error("lfs tool failed", "err", cerr)
		return cerr
	}

	logger.Debug("lfs tool completed", "cmd", d.tool.Command)
	return nil
}

// classifyExit turns the tool's exit outcome into one of the failure kinds,
// or nil on a zero exit regardless of diagnostic volume.
func (d *Driver) classifyExit(waitErr error, diag string) error {
	if waitErr == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return d.classifyCode(exitErr.ExitCode(), diag)
	}

	// Wait failed without producing an exit status.
	return fmt.Errorf("%w: waiting on %s: %w", errdefs.ErrIOFailure, d.tool.Command, waitErr)
}

func (d *Driver) classifyCode(code int, diag string) error {
	if code == 0 {
		return nil
	}
	if code == windowsNotFoundExit {
		return &ToolNotInstalledError{Tool: d.tool.Command, InstallURL: d.tool.InstallURL}
	}
	return &ToolExecutionError{Tool: d.tool.Command, ExitCode: code, Stderr: diag}
}

func validateSpec(spec api.FilterSpec) error {
	if !spec.Mode.Valid() {
		return fmt.Errorf("%w: %q", errdefs.ErrInvalidMode, spec.Mode)
	}
	if spec.Path == "" {
		return fmt.Errorf("%w: missing path", errdefs.ErrInvalidSpec)
	}
	if spec.RepoRoot == "" {
		return fmt.Errorf("%w: missing repository root", errdefs.ErrInvalidSpec)
	}
	return nil
}
