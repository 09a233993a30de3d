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
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Falcon-Punch/inedox-git/internal/env"
	"github.com/Falcon-Punch/inedox-git/internal/errdefs"
	"github.com/Falcon-Punch/inedox-git/internal/gitrepo"
	"github.com/Falcon-Punch/inedox-git/internal/lfs"
	"github.com/Falcon-Punch/inedox-git/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

const Command string = "install"

func NewInstallCmd() *cobra.Command {
	// installCmd registers this binary as a filter driver in .git/config.
	installCmd := &cobra.Command{
		Use:   Command,
		Short: "Register this binary as a Git filter driver in the repository",
		Long: `Register this binary as a clean/smudge filter driver in the repository's
.git/config, the step an operator otherwise does by hand:

  [filter "inedox-lfs"]
      clean = inedox-git-lfs clean -- %f
      smudge = inedox-git-lfs smudge -- %f
      required = true

Afterwards, route paths through the filter in .gitattributes, e.g.:
  *.bin filter=inedox-lfs
`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := logging.FromContext(cmd.Context())
			if logger == nil {
				return errdefs.ErrLoggerNotFound
			}

			repoRoot := viper.GetString(env.REPO_ROOT.ViperKey)
			if repoRoot == "" {
				cwd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("resolving working directory: %w", err)
				}
				repoRoot, err = gitrepo.FindRoot(cwd)
				if err != nil {
					return err
				}
			}

			filterName, _ := cmd.Flags().GetString("filter-name")
			required, _ := cmd.Flags().GetBool("required")

			self, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolving own executable: %w", err)
			}

			launcher := lfs.NewLauncher(logger)
			entries := [][]string{
				{"config", "filter." + filterName + ".clean", self + " clean -- %f"},
				{"config", "filter." + filterName + ".smudge", self + " smudge -- %f"},
			}
			if required {
				entries = append(entries, []string{"config", "filter." + filterName + ".required", "true"})
			}

			for _, args := range entries {
				if err := runGit(logger, launcher, repoRoot, args); err != nil {
					return err
				}
			}

			logger.Info("filter driver registered", "filter", filterName, "repoRoot", repoRoot)
			fmt.Fprintf(cmd.OutOrStdout(),
				"Registered filter %q in %s\nRoute paths through it in .gitattributes, e.g.:\n  *.bin filter=%s\n",
				filterName, repoRoot, filterName,
			)
			return nil
		},
	}

	installCmd.Flags().String("filter-name", "inedox-lfs", "Name of the filter section written to .git/config")
	installCmd.Flags().Bool("required", true, "Mark the filter required so Git fails rather than falls through")

	return installCmd
}

// runGit shells one git invocation through the same launcher the filter
// driver uses, with both output streams drained before the exit wait.
func runGit(logger *slog.Logger, launcher lfs.Launcher, repoRoot string, args []string) error {
	proc, err := launcher.Launch("git", args, nil, repoRoot)
	if err != nil {
		return fmt.Errorf("%w: starting git: %w", errdefs.ErrGitConfig, err)
	}

	var stderr bytes.Buffer
	eg := new(errgroup.Group)
	eg.Go(func() error {
		_, cerr := io.Copy(io.Discard, proc.Stdout())
		return cerr
	})
	eg.Go(func() error {
		_, cerr := io.Copy(&stderr, proc.Stderr())
		return cerr
	})

	_ = proc.CloseStdin()
	_ = eg.Wait()

	if werr := proc.Wait(); werr != nil {
		logger.Error("git config failed", "args", args, "err", werr, "stderr", stderr.String())
		return fmt.Errorf("%w: git %v: %s: %w", errdefs.ErrGitConfig, args, stderr.String(), werr)
	}
	return nil
}
