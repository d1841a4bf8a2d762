// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

// Package bake defines the core model for assembling a Python application
// into a container image: what to assemble (Spec), the environment the
// assembly runs in (Env), and the realized shell fragments (Instructions).
package bake

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Spec describes the application to assemble.
type Spec struct {
	// App is the normalized application name, used for image tags and asset paths.
	App string `json:"app" yaml:"app"`
	// AppDir is the host directory holding the application source. It becomes
	// the build context.
	AppDir string `json:"app_dir" yaml:"app_dir"`
	// Entrypoint is the launch script, relative to AppDir.
	Entrypoint string `json:"entrypoint" yaml:"entrypoint"`
	// PythonVersion is the interpreter line, e.g. "3.12".
	PythonVersion string `json:"python_version" yaml:"python_version"`
	// RequirementsPath is the exported manifest, relative to AppDir.
	RequirementsPath string `json:"requirements_path" yaml:"requirements_path"`
	// HashChecked enables --require-hashes installs. It must only be set when
	// every manifest entry carries digests.
	HashChecked bool `json:"hash_checked" yaml:"hash_checked,omitempty"`
	// SystemDeps are extra distro packages needed at runtime.
	SystemDeps []string `json:"system_deps" yaml:"system_deps,omitempty"`
	// PassEnv lists environment variable names forwarded into the container
	// at run time.
	PassEnv []string `json:"pass_env" yaml:"pass_env,omitempty"`
}

// Validate checks the spec for the fields every recipe requires.
func (s Spec) Validate() error {
	switch {
	case s.App == "":
		return errors.New("app name is required")
	case s.AppDir == "":
		return errors.New("app dir is required")
	case s.Entrypoint == "":
		return errors.New("entrypoint is required")
	case strings.HasPrefix(s.Entrypoint, "/"):
		return errors.New("entrypoint must be relative to the app dir")
	case s.PythonVersion == "":
		return errors.New("python version is required")
	case s.RequirementsPath == "":
		return errors.New("requirements path is required")
	}
	return nil
}

// Env describes the filesystem layout and capabilities the assembly
// environment provides to a recipe.
type Env struct {
	// VenvPath is where the virtual environment is created.
	VenvPath string
	// AppPath is where application files are installed.
	AppPath string
	// InitPath is where the init wrapper binary is installed.
	InitPath string
	// EmbedInit indicates the init binary is provided by the build context
	// (prefetched) rather than downloaded during the build.
	EmbedInit bool
}

// DefaultEnv is the standard runtime layout.
var DefaultEnv = Env{
	VenvPath: "/opt/venv",
	AppPath:  "/app",
	InitPath: "/usr/local/bin/dumb-init",
}

// Instructions are the realized assembly fragments a planner renders into a
// Dockerfile (or an executor runs directly).
type Instructions struct {
	// Venv creates the virtual environment.
	Venv string
	// Deps installs the pinned requirements into the venv.
	Deps string
	// App finalizes application files (entrypoint permissions and the like).
	App string
	// Launch is the container command, executed under the init wrapper.
	Launch []string
	// SystemDeps are distro packages the fragments need, deduplicated.
	SystemDeps []string
}

// Recipe generates instructions to assemble an application image.
type Recipe interface {
	GenerateFor(Spec, Env) (Instructions, error)
}

// Interpreter returns the python executable name for the spec's version line,
// e.g. "python3.12".
func Interpreter(pythonVersion string) string {
	return fmt.Sprintf("python%s", pythonVersion)
}
