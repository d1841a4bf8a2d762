// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

package bake

import (
	"path"

	"github.com/pkg/errors"

	"github.com/pybake/pybake/pkg/bake/flow"
)

// WorkflowRecipe composes an assembly from explicit flow steps, for
// applications whose setup cannot be expressed by VenvRecipe alone.
type WorkflowRecipe struct {
	Venv       []flow.Step `json:"venv" yaml:"venv,omitempty"`
	Deps       []flow.Step `json:"deps" yaml:"deps,omitempty"`
	App        []flow.Step `json:"app" yaml:"app,omitempty"`
	Launch     []string    `json:"launch" yaml:"launch,omitempty"`
	SystemDeps []string    `json:"system_deps" yaml:"system_deps,omitempty"`
}

var _ Recipe = &WorkflowRecipe{}

// GenerateFor generates the instructions for a WorkflowRecipe.
func (r *WorkflowRecipe) GenerateFor(s Spec, e Env) (Instructions, error) {
	if err := s.Validate(); err != nil {
		return Instructions{}, err
	}
	data := flow.Data{
		"Spec": &s,
		"Env":  &e,
	}
	venv, err := flow.ResolveSteps(r.Venv, nil, data)
	if err != nil {
		return Instructions{}, errors.Wrap(err, "generating venv steps")
	}
	deps, err := flow.ResolveSteps(r.Deps, nil, data)
	if err != nil {
		return Instructions{}, errors.Wrap(err, "generating dependency steps")
	}
	app, err := flow.ResolveSteps(r.App, nil, data)
	if err != nil {
		return Instructions{}, errors.Wrap(err, "generating app steps")
	}
	launch := r.Launch
	if len(launch) == 0 {
		launch = []string{path.Join(e.AppPath, s.Entrypoint)}
	}
	uniq := make(map[string]bool)
	var sysDeps []string
	for _, dep := range concat(r.SystemDeps, s.SystemDeps, venv.Needs, deps.Needs, app.Needs) {
		if !uniq[dep] {
			uniq[dep] = true
			sysDeps = append(sysDeps, dep)
		}
	}
	return Instructions{
		Venv:       venv.Script,
		Deps:       deps.Script,
		App:        app.Script,
		Launch:     launch,
		SystemDeps: sysDeps,
	}, nil
}

func concat[T any](slices ...[]T) []T {
	var out []T
	for _, s := range slices {
		out = append(out, s...)
	}
	return out
}
