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

package gitrepo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Falcon-Punch/inedox-git/internal/errdefs"
)

// FindRoot walks up from startDir to the nearest directory containing a
// .git entry and returns that directory. Git runs filter drivers with the
// working directory somewhere inside the work tree, so this recovers the
// root when the caller does not pass one explicitly. A plain .git file
// (worktrees, submodules) counts too.
func FindRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errdefs.ErrRepoRootNotFound, err)
	}

	for {
		if _, statErr := os.Stat(filepath.Join(dir, ".git")); statErr == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: no .git above %s", errdefs.ErrRepoRootNotFound, startDir)
		}
		dir = parent
	}
}
