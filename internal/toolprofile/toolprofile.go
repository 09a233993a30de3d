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

// Package toolprofile loads LfsToolProfile YAMLs and turns them into
// api.ToolSpec values the driver can run.
package toolprofile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/Falcon-Punch/inedox-git/internal/errdefs"
	"github.com/Falcon-Punch/inedox-git/pkg/api"
	"go.yaml.in/yaml/v3"
)

// LoadFromPath reads a multi-document YAML file into []api.ToolProfileDoc.
func LoadFromPath(path string) ([]api.ToolProfileDoc, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", errdefs.ErrOpenProfileFile, path, err)
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromReader decodes one or more YAML documents from r. Empty documents
// are skipped; malformed ones fail the whole load.
func LoadFromReader(r io.Reader) ([]api.ToolProfileDoc, error) {
	dec := yaml.NewDecoder(r)

	var out []api.ToolProfileDoc
	for {
		var p api.ToolProfileDoc
		if err := dec.Decode(&p); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: decode: %w", errdefs.ErrInvalidProfile, err)
		}
		if p.Metadata.Name == "" && p.APIVersion == "" && p.Kind == "" {
			continue
		}
		out = append(out, p)
	}

	return out, nil
}

// FindByName returns the profile whose metadata.name matches. Case-sensitive.
func FindByName(path, name string) (*api.ToolProfileDoc, error) {
	profiles, err := LoadFromPath(path)
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		if profiles[i].Metadata.Name == name {
			return &profiles[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q in %s", errdefs.ErrProfileNotFound, name, path)
}

// ToolSpecFromProfile validates a profile document and maps it onto an
// api.ToolSpec. Fields the profile leaves empty stay empty; the driver
// applies its own defaults.
func ToolSpecFromProfile(profile *api.ToolProfileDoc) (*api.ToolSpec, error) {
	if profile == nil {
		return nil, fmt.Errorf("%w: profile is nil", errdefs.ErrInvalidProfile)
	}
	if profile.APIVersion == "" || profile.Kind == "" {
		return nil, fmt.Errorf("%w: missing apiVersion/kind", errdefs.ErrInvalidProfile)
	}
	if profile.Kind != api.KindLfsToolProfile {
		return nil, fmt.Errorf("%w: kind %q (expected %q)", errdefs.ErrInvalidProfile, profile.Kind, api.KindLfsToolProfile)
	}
	if profile.Metadata.Name == "" {
		return nil, fmt.Errorf("%w: metadata.name is required", errdefs.ErrInvalidProfile)
	}

	// Map env (map[string]string) -> []string{"KEY=VAL"} with stable ordering.
	var envSlice []string
	if m := profile.Spec.Tool.Env; len(m) > 0 {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		envSlice = make([]string, 0, len(keys))
		for _, k := range keys {
			envSlice = append(envSlice, fmt.Sprintf("%s=%s", k, m[k]))
		}
	}

	return &api.ToolSpec{
		Command:    profile.Spec.Tool.Cmd,
		ExtraArgs:  append([]string(nil), profile.Spec.Tool.CmdArgs...),
		Env:        envSlice,
		InstallURL: profile.Spec.Tool.InstallURL,
	}, nil
}

// BuildToolSpec resolves the tool configuration for one invocation:
// profile (if named) first, then explicit command/install overrides on top.
func BuildToolSpec(profilesFile, profileName, command, installURL string) (*api.ToolSpec, error) {
	spec := &api.ToolSpec{}

	if profileName != "" {
		doc, err := FindByName(profilesFile, profileName)
		if err != nil {
			return nil, err
		}
		spec, err = ToolSpecFromProfile(doc)
		if err != nil {
			return nil, err
		}
	}

	if command != "" {
		spec.Command = command
	}
	if installURL != "" {
		spec.InstallURL = installURL
	}

	return spec, nil
}
