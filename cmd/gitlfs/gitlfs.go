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

// Package gitlfs is the root of the inedox-git-lfs command tree: the side of
// Git's filter-driver protocol that shells out to an installed LFS tool.
package gitlfs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Falcon-Punch/inedox-git/cmd/gitlfs/clean"
	"github.com/Falcon-Punch/inedox-git/cmd/gitlfs/install"
	"github.com/Falcon-Punch/inedox-git/cmd/gitlfs/smudge"
	"github.com/Falcon-Punch/inedox-git/internal/env"
	"github.com/Falcon-Punch/inedox-git/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

func NewGitLfsRootCmd() *cobra.Command {
	// rootCmd represents the base command when called without any subcommands.
	rootCmd := &cobra.Command{
		Use:   "inedox-git-lfs",
		Short: "Git LFS clean/smudge filter driver",
		Long: `inedox-git-lfs is the clean/smudge filter driver that the source-control
integration registers with Git. It shells out to an installed Git LFS tool,
streaming file content through the tool's standard input and output.

Git invokes it per file:
  inedox-git-lfs clean -- <path>   (working tree -> repository, on commit)
  inedox-git-lfs smudge -- <path>  (repository -> working tree, on checkout)

Raw content arrives on stdin, transformed content leaves on stdout, and all
logging goes to stderr or a log file so the content streams stay clean.
`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := LoadConfig(); err != nil {
				fmt.Fprintln(os.Stderr, "Config error:", err)
				os.Exit(1)
			}

			return setupLogger(cmd)
		},
	}

	setupRootCmd(rootCmd)

	return rootCmd
}

func setupRootCmd(rootCmd *cobra.Command) {
	rootCmd.AddCommand(clean.NewCleanCmd())
	rootCmd.AddCommand(smudge.NewSmudgeCmd())
	rootCmd.AddCommand(install.NewInstallCmd())

	// Persistent flags
	rootCmd.PersistentFlags().String("config", "", "config file (default is $HOME/.inedox-git/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-file", "", "Optional log file (stderr if omitted)")
	rootCmd.PersistentFlags().String("profiles", "", "LFS tool profiles manifests file")
	rootCmd.PersistentFlags().String("tool", "", "LFS tool executable (default: git-lfs on PATH)")
	rootCmd.PersistentFlags().String("tool-profile", "", "Named LfsToolProfile to load from the profiles file")
	rootCmd.PersistentFlags().String("repo-root", "", "Repository root (default: nearest .git above the working directory)")

	_ = viper.BindPFlag(env.CONFIG_FILE.ViperKey, rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag(env.LOG_LEVEL.ViperKey, rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag(env.LOG_FILE.ViperKey, rootCmd.PersistentFlags().Lookup("log-file"))
	_ = viper.BindPFlag(env.PROFILES_FILE.ViperKey, rootCmd.PersistentFlags().Lookup("profiles"))
	_ = viper.BindPFlag(env.LFS_PATH.ViperKey, rootCmd.PersistentFlags().Lookup("tool"))
	_ = viper.BindPFlag(env.LFS_PROFILE.ViperKey, rootCmd.PersistentFlags().Lookup("tool-profile"))
	_ = viper.BindPFlag(env.REPO_ROOT.ViperKey, rootCmd.PersistentFlags().Lookup("repo-root"))
}

// setupLogger builds the logger the subcommands pull out of the command
// context. Logs go to the configured file, or to stderr: stdout belongs to
// the filter content stream and must never carry log lines.
func setupLogger(cmd *cobra.Command) error {
	level := new(slog.LevelVar)
	level.Set(logging.ParseLevel(viper.GetString(env.LOG_LEVEL.ViperKey)))

	var handler slog.Handler
	logFile := viper.GetString(env.LOG_FILE.ViperKey)

	switch {
	case logFile != "":
		if err := os.MkdirAll(filepath.Dir(logFile), 0o700); err != nil {
			return fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		handler = &logging.ReformatHandler{
			Inner:  slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}),
			Writer: f,
		}
		ctx := context.WithValue(cmd.Context(), logging.CtxCloser, f)
		cmd.SetContext(ctx)
	case term.IsTerminal(int(os.Stderr.Fd())):
		// Human watching: compact single-line records.
		handler = &logging.ReformatHandler{
			Inner:  slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
			Writer: os.Stderr,
		}
	default:
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	logger := slog.New(handler)

	ctx := cmd.Context()
	ctx = context.WithValue(ctx, logging.CtxLogger, logger)
	ctx = context.WithValue(ctx, logging.CtxLevelVar, level)
	cmd.SetContext(ctx)

	return nil
}

// LoadConfig loads config.yaml from the given path or HOME/.inedox-git.
func LoadConfig() error {
	if cfg := viper.GetString(env.CONFIG_FILE.ViperKey); cfg != "" {
		viper.SetConfigFile(cfg)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolving home directory: %w", err)
		}
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(filepath.Join(home, ".inedox-git"))
	}

	_ = env.CONFIG_FILE.BindEnv()
	_ = env.LOG_LEVEL.BindEnv()
	_ = env.LOG_FILE.BindEnv()
	_ = env.PROFILES_FILE.BindEnv()
	_ = env.LFS_PATH.BindEnv()
	_ = env.LFS_PROFILE.BindEnv()
	_ = env.LFS_INSTALL_URL.BindEnv()
	_ = env.REPO_ROOT.BindEnv()

	if err := viper.ReadInConfig(); err != nil {
		// File not found is OK if ENV is set
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) && !os.IsNotExist(err) {
			return err // Config file was found but another error was produced
		}
	}

	return nil
}
