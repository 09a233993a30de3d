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

package api

// apiVersion: inedox-git/v1beta1
// kind: LfsToolProfile

type (
	Version string
	Kind    string
)

const (
	APIVersionV1Beta1  Version = "inedox-git/v1beta1"
	KindLfsToolProfile Kind    = "LfsToolProfile"
)

// ToolProfileDoc models one YAML document containing an LfsToolProfile.
type ToolProfileDoc struct {
	APIVersion Version             `json:"apiVersion" yaml:"apiVersion"`
	Kind       Kind                `json:"kind"       yaml:"kind"`
	Metadata   ToolProfileMetadata `json:"metadata"   yaml:"metadata"`
	Spec       ToolProfileSpec     `json:"spec"       yaml:"spec"`
}

type ToolProfileMetadata struct {
	Name        string            `json:"name"                  yaml:"name"`
	Labels      map[string]string `json:"labels,omitempty"      yaml:"labels,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

type ToolProfileSpec struct {
	Tool ToolShellSpec `json:"tool" yaml:"tool"`
}

// ToolShellSpec describes how to invoke the LFS executable.
type ToolShellSpec struct {
	Cmd        string            `json:"cmd"                  yaml:"cmd"`
	CmdArgs    []string          `json:"cmdArgs,omitempty"    yaml:"cmdArgs,omitempty"`
	Env        map[string]string `json:"env,omitempty"        yaml:"env,omitempty"`
	InstallURL string            `json:"installUrl,omitempty" yaml:"installUrl,omitempty"`
}
