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

package install

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/Falcon-Punch/inedox-git/internal/env"
	"github.com/Falcon-Punch/inedox-git/internal/errdefs"
	"github.com/Falcon-Punch/inedox-git/internal/lfs"
	"github.com/Falcon-Punch/inedox-git/internal/logging"
	"github.com/spf13/viper"
)

func Test_ErrLoggerNotFound(t *testing.T) {
	cmd := NewInstallCmd()
	// Don't set CtxLogger, so it will be nil
	cmd.SetContext(context.Background())

	err := cmd.RunE(cmd, []string{})
	if err == nil {
		t.Fatal("expected error but got nil")
	}
	if !errors.Is(err, errdefs.ErrLoggerNotFound) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrLoggerNotFound, err)
	}
}

func Test_Install_WritesFilterConfig(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not on PATH")
	}
	t.Cleanup(viper.Reset)

	root := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	if err := runGit(logger, lfs.NewLauncher(logger), root, []string{"init", "-q"}); err != nil {
		t.Fatalf("git init: %v", err)
	}
	viper.Set(env.REPO_ROOT.ViperKey, root)

	cmd := NewInstallCmd()
	cmd.SetContext(context.WithValue(context.Background(), logging.CtxLogger, logger))
	cmd.SetOut(os.Stderr)

	if err := cmd.RunE(cmd, []string{}); err != nil {
		t.Fatalf("expected success; got: %v", err)
	}

	cfg, err := os.ReadFile(root + "/.git/config")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`[filter "inedox-lfs"]`, "clean = ", "smudge = ", "required = true"} {
		if !strings.Contains(string(cfg), want) {
			t.Fatalf("expected %q in .git/config; got:\n%s", want, cfg)
		}
	}
}

func Test_RunGit_FailureCarriesStderr(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not on PATH")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	err := runGit(logger, lfs.NewLauncher(logger), t.TempDir(), []string{"config", "--definitely-bogus-flag"})
	if err == nil {
		t.Fatal("expected error but got nil")
	}
	if !errors.Is(err, errdefs.ErrGitConfig) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrGitConfig, err)
	}
}
