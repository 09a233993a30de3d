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
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Falcon-Punch/inedox-git/internal/errdefs"
	"github.com/Falcon-Punch/inedox-git/pkg/api"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// writeFakeTool drops an executable shell script into dir and returns its
// path. The script body plays the role of the external LFS tool.
func writeFakeTool(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "fake-lfs")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("writing fake tool: %v", err)
	}
	return path
}

func randomPayload(t *testing.T, n int) []byte {
	t.Helper()
	payload := make([]byte, n)
	r := rand.New(rand.NewSource(42)) //nolint:gosec // deterministic test data
	if _, err := r.Read(payload); err != nil {
		t.Fatalf("building payload: %v", err)
	}
	return payload
}

func Test_Clean_EchoRoundTrip(t *testing.T) {
	root := t.TempDir()
	tool := writeFakeTool(t, root, "cat")
	driver := NewDriver(testLogger(), api.ToolSpec{Command: tool})

	payload := randomPayload(t, 64*1024)
	var out bytes.Buffer

	err := driver.Clean(context.Background(), "data.bin", root, bytes.NewReader(payload), &out)
	if err != nil {
		t.Fatalf("expected success; got: %v", err)
	}
	if !bytes.Equal(payload, out.Bytes()) {
		t.Fatalf("round-trip mismatch: sent %d bytes, got %d back", len(payload), out.Len())
	}
}

func Test_Smudge_EchoRoundTrip(t *testing.T) {
	root := t.TempDir()
	tool := writeFakeTool(t, root, "cat")
	driver := NewDriver(testLogger(), api.ToolSpec{Command: tool})

	payload := []byte("version https://git-lfs.github.com/spec/v1\noid sha256:abc\nsize 12\n")
	var out bytes.Buffer

	err := driver.Smudge(context.Background(), "data.bin", root, bytes.NewReader(payload), &out)
	if err != nil {
		t.Fatalf("expected success; got: %v", err)
	}
	if !bytes.Equal(payload, out.Bytes()) {
		t.Fatalf("round-trip mismatch: %q", out.String())
	}
}

// A payload well past the OS pipe buffer proves the two content pumps run
// concurrently; a sequential implementation deadlocks here.
func Test_LargePayload_NoDeadlock(t *testing.T) {
	root := t.TempDir()
	tool := writeFakeTool(t, root, "cat")
	driver := NewDriver(testLogger(), api.ToolSpec{Command: tool})

	payload := randomPayload(t, 5*1024*1024)
	var out bytes.Buffer

	done := make(chan error, 1)
	go func() {
		done <- driver.Clean(context.Background(), "big.bin", root, bytes.NewReader(payload), &out)
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected success; got: %v", err)
		}
	case <-time.After(60 * time.Second):
		t.Fatal("filter invocation deadlocked on a large payload")
	}

	if !bytes.Equal(payload, out.Bytes()) {
		t.Fatalf("round-trip mismatch: sent %d bytes, got %d back", len(payload), out.Len())
	}
}

func Test_ZeroExit_ChattyStderr_IsSuccess(t *testing.T) {
	root := t.TempDir()
	// Fills stderr well past a pipe buffer while echoing content, so this
	// also proves the diagnostics drain runs alongside the content pumps.
	tool := writeFakeTool(t, root, `seq 1 100000 1>&2
cat`)
	driver := NewDriver(testLogger(), api.ToolSpec{Command: tool})

	payload := []byte("content")
	var out bytes.Buffer

	err := driver.Clean(context.Background(), "data.bin", root, bytes.NewReader(payload), &out)
	if err != nil {
		t.Fatalf("zero exit must never produce an error; got: %v", err)
	}
	if !bytes.Equal(payload, out.Bytes()) {
		t.Fatalf("round-trip mismatch: %q", out.String())
	}
}

func Test_MissingTool_ToolNotInstalled(t *testing.T) {
	root := t.TempDir()
	driver := NewDriver(testLogger(), api.ToolSpec{
		Command: filepath.Join(root, "no-such-tool"),
	})

	err := driver.Clean(context.Background(), "data.bin", root, strings.NewReader("x"), &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error but got nil")
	}
	if !errors.Is(err, errdefs.ErrToolNotInstalled) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrToolNotInstalled, err)
	}
	if !strings.Contains(err.Error(), DefaultInstallURL) {
		t.Fatalf("message must reference the installation URL; got: %q", err)
	}
}

func Test_NonZeroExit_ToolExecutionFailure(t *testing.T) {
	root := t.TempDir()
	tool := writeFakeTool(t, root, `cat >/dev/null
echo "bad object" 1>&2
exit 1`)
	driver := NewDriver(testLogger(), api.ToolSpec{Command: tool})

	err := driver.Clean(context.Background(), "data.bin", root, strings.NewReader("x"), &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error but got nil")
	}
	if !errors.Is(err, errdefs.ErrToolExecution) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrToolExecution, err)
	}
	if !strings.Contains(err.Error(), "1") || !strings.Contains(err.Error(), "bad object") {
		t.Fatalf("message must carry exit code and diagnostics; got: %q", err)
	}

	var execErr *ToolExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected *ToolExecutionError; got: %T", err)
	}
	if execErr.ExitCode != 1 {
		t.Fatalf("expected exit code 1; got: %d", execErr.ExitCode)
	}
	if !strings.Contains(execErr.Stderr, "bad object") {
		t.Fatalf("expected captured stderr; got: %q", execErr.Stderr)
	}
}

// The tool exits non-zero without reading stdin: the input pump's broken
// pipe must not mask the exit-code classification.
func Test_ToolFailsWithoutReadingInput(t *testing.T) {
	root := t.TempDir()
	tool := writeFakeTool(t, root, `echo "refusing input" 1>&2
exit 2`)
	driver := NewDriver(testLogger(), api.ToolSpec{Command: tool})

	payload := randomPayload(t, 1024*1024)
	err := driver.Clean(context.Background(), "data.bin", root, bytes.NewReader(payload), &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error but got nil")
	}
	if !errors.Is(err, errdefs.ErrToolExecution) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrToolExecution, err)
	}

	var execErr *ToolExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected *ToolExecutionError; got: %T", err)
	}
	if execErr.ExitCode != 2 {
		t.Fatalf("expected exit code 2; got: %d", execErr.ExitCode)
	}
}

func Test_Cancellation_KillsTool(t *testing.T) {
	root := t.TempDir()
	tool := writeFakeTool(t, root, "exec sleep 60")
	driver := NewDriver(testLogger(), api.ToolSpec{Command: tool})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := driver.Clean(ctx, "data.bin", root, strings.NewReader("x"), &bytes.Buffer{})
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected error but got nil")
	}
	if !errors.Is(err, errdefs.ErrContextDone) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrContextDone, err)
	}
	// Run must return once the tool is terminated, well before the tool's
	// own sleep would end; a lingering process would hold Wait open.
	if elapsed > 10*time.Second {
		t.Fatalf("cancelled invocation took %s; tool was not terminated", elapsed)
	}
}

func Test_ConcurrentInvocations_NoSharedState(t *testing.T) {
	root := t.TempDir()
	tool := writeFakeTool(t, root, "cat")
	driver := NewDriver(testLogger(), api.ToolSpec{Command: tool})

	const workers = 4
	var wg sync.WaitGroup
	errs := make([]error, workers)
	outs := make([]bytes.Buffer, workers)
	payload := randomPayload(t, 256*1024)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = driver.Clean(context.Background(), "data.bin", root, bytes.NewReader(payload), &outs[i])
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: expected success; got: %v", i, errs[i])
		}
		if !bytes.Equal(payload, outs[i].Bytes()) {
			t.Fatalf("worker %d: round-trip mismatch", i)
		}
	}
}

// The coordinator must invoke the tool as `<mode> -- <path>` with the
// repository root as working directory.
func Test_InvocationConvention(t *testing.T) {
	root := t.TempDir()
	argsFile := filepath.Join(root, "args.txt")
	tool := writeFakeTool(t, root, `printf '%s\n' "$@" > `+argsFile+`
pwd >> `+argsFile+`
cat`)
	driver := NewDriver(testLogger(), api.ToolSpec{Command: tool})

	err := driver.Smudge(context.Background(), "assets/model.bin", root, strings.NewReader("x"), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("expected success; got: %v", err)
	}

	recorded, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("reading recorded args: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(recorded)), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 3 args plus cwd; got: %q", lines)
	}
	if lines[0] != "smudge" || lines[1] != "--" || lines[2] != "assets/model.bin" {
		t.Fatalf("unexpected argument list: %q", lines[:3])
	}
	wantDir, _ := filepath.EvalSymlinks(root)
	gotDir, _ := filepath.EvalSymlinks(lines[3])
	if gotDir != wantDir {
		t.Fatalf("expected working directory %q; got: %q", wantDir, gotDir)
	}
}

func Test_ExtraArgsPrecedeMode(t *testing.T) {
	root := t.TempDir()
	argsFile := filepath.Join(root, "args.txt")
	tool := writeFakeTool(t, root, `printf '%s\n' "$@" > `+argsFile+`
cat`)
	driver := NewDriver(testLogger(), api.ToolSpec{
		Command:   tool,
		ExtraArgs: []string{"--verbose"},
	})

	if err := driver.Clean(context.Background(), "a.bin", root, strings.NewReader(""), &bytes.Buffer{}); err != nil {
		t.Fatalf("expected success; got: %v", err)
	}

	recorded, _ := os.ReadFile(argsFile)
	lines := strings.Split(strings.TrimSpace(string(recorded)), "\n")
	want := []string{"--verbose", "clean", "--", "a.bin"}
	if len(lines) != len(want) {
		t.Fatalf("expected %q; got: %q", want, lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("arg %d: expected %q; got: %q", i, want[i], lines[i])
		}
	}
}

func Test_ValidateSpec(t *testing.T) {
	cases := []struct {
		name string
		spec api.FilterSpec
		want error
	}{
		{"bad mode", api.FilterSpec{Mode: "mangle", Path: "p", RepoRoot: "r"}, errdefs.ErrInvalidMode},
		{"missing path", api.FilterSpec{Mode: api.FilterClean, RepoRoot: "r"}, errdefs.ErrInvalidSpec},
		{"missing root", api.FilterSpec{Mode: api.FilterSmudge, Path: "p"}, errdefs.ErrInvalidSpec},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateSpec(tc.spec)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected '%v'; got: '%v'", tc.want, err)
			}
		})
	}

	ok := api.FilterSpec{Mode: api.FilterClean, Path: "p", RepoRoot: "r"}
	if err := validateSpec(ok); err != nil {
		t.Fatalf("expected nil; got: %v", err)
	}
}

func Test_ClassifyCode_Sentinel(t *testing.T) {
	driver := NewDriver(testLogger(), api.ToolSpec{})

	if err := driver.classifyCode(0, ""); err != nil {
		t.Fatalf("exit 0 must classify as success; got: %v", err)
	}

	err := driver.classifyCode(9009, "")
	if !errors.Is(err, errdefs.ErrToolNotInstalled) {
		t.Fatalf("exit 9009 must classify as not-installed; got: %v", err)
	}

	err = driver.classifyCode(3, "boom")
	var execErr *ToolExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected *ToolExecutionError; got: %v", err)
	}
	if execErr.ExitCode != 3 || execErr.Stderr != "boom" {
		t.Fatalf("outcome not carried through: %+v", execErr)
	}
}
