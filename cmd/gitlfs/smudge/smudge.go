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

package smudge

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Falcon-Punch/inedox-git/internal/env"
	"github.com/Falcon-Punch/inedox-git/internal/errdefs"
	"github.com/Falcon-Punch/inedox-git/internal/gitrepo"
	"github.com/Falcon-Punch/inedox-git/internal/lfs"
	"github.com/Falcon-Punch/inedox-git/internal/logging"
	"github.com/Falcon-Punch/inedox-git/internal/toolprofile"
	"github.com/Falcon-Punch/inedox-git/pkg/api"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const Command string = "smudge"

// Seam for tests; overridden to avoid spawning a real tool.
var newFilter = func(logger *slog.Logger, tool api.ToolSpec) api.Filter {
	return lfs.NewDriver(logger, tool)
}

func NewSmudgeCmd() *cobra.Command {
	// smudgeCmd represents the smudge filter direction.
	smudgeCmd := &cobra.Command{
		Use:   Command + " -- <path>",
		Short: "Run the smudge filter for one file (repository -> working tree)",
		Long: `Run the smudge filter for one file.

Git invokes this on checkout for every path matched by the filter attribute.
The stored pointer record arrives on stdin; the original file bytes the LFS
tool resolves leave on stdout.

Example .git/config entry (written by 'inedox-git-lfs install'):
  [filter "inedox-lfs"]
      smudge = inedox-git-lfs smudge -- %f
`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.FromContext(cmd.Context())
			if logger == nil {
				return errdefs.ErrLoggerNotFound
			}

			path := args[0]
			if path == "" {
				return fmt.Errorf("%w: empty path", errdefs.ErrInvalidArgument)
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

			toolSpec, err := toolprofile.BuildToolSpec(
				viper.GetString(env.PROFILES_FILE.ViperKey),
				viper.GetString(env.LFS_PROFILE.ViperKey),
				viper.GetString(env.LFS_PATH.ViperKey),
				viper.GetString(env.LFS_INSTALL_URL.ViperKey),
			)
			if err != nil {
				return err
			}

			logger.Debug("starting smudge filter",
				"path", path,
				"repoRoot", repoRoot,
				"tool", toolSpec.Command,
			)

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			driver := newFilter(logger, *toolSpec)
			return driver.Smudge(ctx, path, repoRoot, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	return smudgeCmd
}
