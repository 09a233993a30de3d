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
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// Launcher starts the external tool with its three standard streams piped.
// It exists as a seam so the coordinator can be tested against a fake.
type Launcher interface {
	Launch(name string, args []string, env []string, dir string) (*Process, error)
}

// Process is the handle for one spawned tool. It is owned by a single
// invocation and never reused.
type Process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser

	closeStdin sync.Once
	terminate  sync.Once
}

func (p *Process) Stdin() io.Writer  { return p.stdin }
func (p *Process) Stdout() io.Reader { return p.stdout }
func (p *Process) Stderr() io.Reader { return p.stderr }

// CloseStdin half-closes the child's input, signalling end-of-input to the
// tool. Safe to call more than once.
func (p *Process) CloseStdin() error {
	var err error
	p.closeStdin.Do(func() {
		err = p.stdin.Close()
	})
	return err
}

// Wait reaps the child. Callers must have finished reading stdout and stderr
// first; Wait closes the parent's pipe ends.
func (p *Process) Wait() error {
	return p.cmd.Wait()
}

// Kill terminates the child immediately. Used when a pump fails mid-copy and
// the tool would otherwise stay blocked on a pipe.
func (p *Process) Kill() {
	p.terminate.Do(func() {
		if p.cmd.Process != nil {
			_ = p.cmd.Process.Kill()
		}
	})
}

// Terminate asks the child to exit with SIGTERM, then kills it after the
// grace period if it is still running. Used on cancellation so the tool gets
// a chance to flush before dying.
func (p *Process) Terminate(grace time.Duration) {
	p.terminate.Do(func() {
		if p.cmd.Process == nil {
			return
		}
		if err := p.cmd.Process.Signal(unix.SIGTERM); err != nil {
			// Already gone.
			return
		}
		go func() {
			time.Sleep(grace)
			// No-op if the child already exited and was reaped.
			_ = p.cmd.Process.Kill()
		}()
	})
}

type execLauncher struct {
	logger *slog.Logger
}

func NewLauncher(logger *slog.Logger) Launcher {
	return &execLauncher{logger: logger}
}

// Launch spawns name with args, cwd set to dir, and all three standard
// streams piped back to the caller. A failure here happens before any exit
// code exists and is the portable ToolNotInstalled signal.
func (l *execLauncher) Launch(name string, args []string, env []string, dir string) (*Process, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("piping stdin for %s: %w", name, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		_ = stdin.Close()
		return nil, fmt.Errorf("piping stdout for %s: %w", name, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		_ = stdin.Close()
		_ = stdout.Close()
		return nil, fmt.Errorf("piping stderr for %s: %w", name, err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		_ = stdout.Close()
		_ = stderr.Close()
		return nil, err
	}

	l.logger.Debug("tool started", "cmd", name, "args", args, "dir", dir, "pid", cmd.Process.Pid)

	return &Process{
		cmd:    cmd,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}, nil
}
