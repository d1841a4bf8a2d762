// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

package lockfile

import (
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// Project is the subset of pyproject.toml needed to drive an export: the
// project identity and the names of its declared dependencies per group.
type Project struct {
	Name           string
	Version        string
	RequiresPython string
	// Dependencies holds normalized dependency names for the main group.
	Dependencies []string
	// Groups maps optional group names to their normalized dependency names.
	Groups map[string][]string
}

type pyProjectMetadata struct {
	Name           string   `toml:"name"`
	Version        string   `toml:"version"`
	RequiresPython string   `toml:"requires-python"`
	Dependencies   []string `toml:"dependencies"`
	OptionalDeps   map[string][]string `toml:"optional-dependencies"`
}

type poetryTool struct {
	Name         string         `toml:"name"`
	Version      string         `toml:"version"`
	Dependencies map[string]any `toml:"dependencies"`
	Group        map[string]struct {
		Dependencies map[string]any `toml:"dependencies"`
	} `toml:"group"`
}

type pyProjectFile struct {
	Project          pyProjectMetadata   `toml:"project"`
	DependencyGroups map[string][]string `toml:"dependency-groups"`
	Tool             struct {
		Poetry poetryTool `toml:"poetry"`
	} `toml:"tool"`
}

// ParsePyProject parses a pyproject.toml, understanding both PEP 621
// ([project]) and legacy poetry ([tool.poetry]) metadata.
func ParsePyProject(data []byte) (*Project, error) {
	var raw pyProjectFile
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "decoding pyproject.toml")
	}
	p := &Project{Groups: map[string][]string{}}
	switch {
	case raw.Project.Name != "":
		p.Name = NormalizeName(raw.Project.Name)
		p.Version = raw.Project.Version
		p.RequiresPython = raw.Project.RequiresPython
		for _, dep := range raw.Project.Dependencies {
			p.Dependencies = append(p.Dependencies, RequirementName(dep))
		}
		for group, deps := range raw.Project.OptionalDeps {
			for _, dep := range deps {
				p.Groups[group] = append(p.Groups[group], RequirementName(dep))
			}
		}
	case raw.Tool.Poetry.Name != "":
		p.Name = NormalizeName(raw.Tool.Poetry.Name)
		p.Version = raw.Tool.Poetry.Version
		for dep := range raw.Tool.Poetry.Dependencies {
			if NormalizeName(dep) == "python" {
				continue
			}
			p.Dependencies = append(p.Dependencies, NormalizeName(dep))
		}
		for group, g := range raw.Tool.Poetry.Group {
			for dep := range g.Dependencies {
				p.Groups[group] = append(p.Groups[group], NormalizeName(dep))
			}
		}
	default:
		return nil, errors.New("no [project] or [tool.poetry] metadata found")
	}
	// PEP 735 dependency groups apply to either metadata style.
	for group, deps := range raw.DependencyGroups {
		for _, dep := range deps {
			p.Groups[group] = append(p.Groups[group], RequirementName(dep))
		}
	}
	return p, nil
}
