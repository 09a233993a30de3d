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

package main

import (
	"context"
	"os"

	"github.com/Falcon-Punch/inedox-git/cmd/gitlfs"
	"github.com/Falcon-Punch/inedox-git/internal/logging"
)

func main() {
	// A noop logger sits in the context until the root command's
	// PersistentPreRunE swaps in the configured one.
	logger := logging.NewNoopLogger()
	ctx := context.WithValue(context.Background(), logging.CtxLogger, logger)

	root := gitlfs.NewGitLfsRootCmd()
	root.SetContext(ctx)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
