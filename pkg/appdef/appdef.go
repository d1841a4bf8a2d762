// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

// Package appdef loads the application definition file (pybake.yaml) that
// drives exports and image assembly.
package appdef

import (
	"io"
	"regexp"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/pybake/pybake/pkg/bake/bake"
)

// DefaultFilename is the definition file looked up in the app directory.
const DefaultFilename = "pybake.yaml"

// DefaultEntrypoint is the launch script used when none is configured.
const DefaultEntrypoint = "start.sh"

// DefaultRequirementsPath is where the exported manifest is written, relative
// to the app directory.
const DefaultRequirementsPath = "requirements.txt"

// RecipeOneOf holds exactly one recipe configuration.
type RecipeOneOf struct {
	Venv     *bake.VenvRecipe     `json:"venv,omitempty" yaml:"venv,omitempty"`
	Workflow *bake.WorkflowRecipe `json:"workflow,omitempty" yaml:"workflow,omitempty"`
}

// Recipe returns the configured recipe, defaulting to a bare venv assembly.
func (oneof *RecipeOneOf) Recipe() (bake.Recipe, error) {
	var num int
	var r bake.Recipe = &bake.VenvRecipe{}
	if oneof.Venv != nil {
		num++
		r = oneof.Venv
	}
	if oneof.Workflow != nil {
		num++
		r = oneof.Workflow
	}
	if num > 1 {
		return nil, errors.Errorf("expected at most one recipe, got %d", num)
	}
	return r, nil
}

// Definition is the schema of pybake.yaml.
type Definition struct {
	// App is the application name.
	App string `yaml:"app"`
	// Entrypoint is the launch script, relative to the app directory.
	Entrypoint string `yaml:"entrypoint,omitempty"`
	// Python pins the interpreter line, e.g. "3.12". When empty it is
	// resolved from the lockfile's requires-python.
	Python string `yaml:"python,omitempty"`
	// BaseImage overrides the runtime base image.
	BaseImage string `yaml:"base_image,omitempty"`
	// Lock is the lockfile path relative to the app directory. When empty,
	// poetry.lock then uv.lock are tried.
	Lock string `yaml:"lock,omitempty"`
	// Requirements is where the exported manifest is written.
	Requirements string `yaml:"requirements,omitempty"`
	// Groups are the dependency groups to export.
	Groups []string `yaml:"groups,omitempty"`
	// Env lists environment variable names forwarded into the container.
	Env []string `yaml:"env,omitempty"`
	// SystemPackages are extra distro packages installed into the image.
	SystemPackages []string `yaml:"system_packages,omitempty"`
	// Recipe selects and configures the assembly recipe.
	Recipe RecipeOneOf `yaml:"recipe,omitempty"`
}

var appNameRE = regexp.MustCompile(`^[a-z0-9]([a-z0-9._-]*[a-z0-9])?$`)
var pythonRE = regexp.MustCompile(`^[0-9]+\.[0-9]+$`)

// Load reads and validates a definition, rejecting unknown fields.
func Load(r io.Reader) (*Definition, error) {
	d := yaml.NewDecoder(r)
	d.KnownFields(true)
	var def Definition
	if err := d.Decode(&def); err != nil {
		return nil, errors.Wrap(err, "parsing app definition")
	}
	def.applyDefaults()
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Default returns a definition with defaults applied, for app directories
// that carry no pybake.yaml.
func Default(app string) *Definition {
	d := &Definition{App: app}
	d.applyDefaults()
	return d
}

func (d *Definition) applyDefaults() {
	if d.Entrypoint == "" {
		d.Entrypoint = DefaultEntrypoint
	}
	if d.Requirements == "" {
		d.Requirements = DefaultRequirementsPath
	}
}

// Validate checks the definition for schema-level problems.
func (d *Definition) Validate() error {
	switch {
	case d.App == "":
		return errors.New("app name is required")
	case !appNameRE.MatchString(d.App):
		return errors.Errorf("invalid app name %q", d.App)
	case d.Python != "" && !pythonRE.MatchString(d.Python):
		return errors.Errorf("invalid python version %q, expected e.g. 3.12", d.Python)
	}
	if _, err := d.Recipe.Recipe(); err != nil {
		return err
	}
	return nil
}

// Spec converts the definition into an assembly spec rooted at appDir. The
// python version must already be resolved when the definition leaves it
// empty.
func (d *Definition) Spec(appDir string, hashChecked bool) bake.Spec {
	return bake.Spec{
		App:              d.App,
		AppDir:           appDir,
		Entrypoint:       d.Entrypoint,
		PythonVersion:    d.Python,
		RequirementsPath: d.Requirements,
		HashChecked:      hashChecked,
		SystemDeps:       d.SystemPackages,
		PassEnv:          d.Env,
	}
}
