// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

package bake

import (
	"path"
	"strings"
)

// VenvRecipe is the standard assembly: create a virtual environment, install
// the pinned requirements into it, and mark the launch script executable.
type VenvRecipe struct {
	// UpgradePip upgrades pip inside the venv before installing requirements.
	UpgradePip bool `json:"upgrade_pip" yaml:"upgrade_pip,omitempty"`
	// Compile precompiles application sources to bytecode.
	Compile bool `json:"compile" yaml:"compile,omitempty"`
}

var _ Recipe = &VenvRecipe{}

// GenerateFor generates the instructions for a VenvRecipe.
func (r *VenvRecipe) GenerateFor(s Spec, e Env) (Instructions, error) {
	if err := s.Validate(); err != nil {
		return Instructions{}, err
	}
	data := struct {
		Spec
		Env    *Env
		Recipe *VenvRecipe
	}{Spec: s, Env: &e, Recipe: r}
	venv, err := PopulateTemplate(strings.TrimSpace(`
{{interpreter .Spec.PythonVersion}} -m venv {{.Env.VenvPath}}
{{- if .Recipe.UpgradePip}}
{{.Env.VenvPath}}/bin/pip install --no-cache-dir --upgrade pip
{{- end}}
`), data)
	if err != nil {
		return Instructions{}, err
	}
	deps, err := PopulateTemplate(strings.TrimSpace(`
{{.Env.VenvPath}}/bin/pip install --no-cache-dir --no-deps{{if .Spec.HashChecked}} --require-hashes{{end}} -r {{.Spec.RequirementsPath | shellquote}}
`), data)
	if err != nil {
		return Instructions{}, err
	}
	app, err := PopulateTemplate(strings.TrimSpace(`
chmod +x {{printf "%s/%s" .Env.AppPath .Spec.Entrypoint | shellquote}}
{{- if .Recipe.Compile}}
{{.Env.VenvPath}}/bin/python -m compileall -q {{.Env.AppPath}}
{{- end}}
`), data)
	if err != nil {
		return Instructions{}, err
	}
	return Instructions{
		Venv:       venv,
		Deps:       deps,
		App:        app,
		Launch:     []string{path.Join(e.AppPath, s.Entrypoint)},
		SystemDeps: append([]string(nil), s.SystemDeps...),
	}, nil
}
