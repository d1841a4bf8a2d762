// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

// Package flow provides a templated step engine for composing the shell
// fragments that make up an image assembly.
package flow

import (
	"bytes"
	"cmp"
	"maps"
	"regexp"
	"strings"
	"text/template"

	"github.com/pkg/errors"

	"github.com/pybake/pybake/internal/pep440"
)

// Step represents a simple or composite script template.
type Step struct {
	// Simple step: templated shell script with declared system deps.

	Runs  string   `json:"runs" yaml:"runs,omitempty"`
	Needs []string `json:"needs" yaml:"needs,omitempty"`

	// Composite step: tool invocation with provided args.

	Uses string            `json:"uses" yaml:"uses,omitempty"`
	With map[string]string `json:"with" yaml:"with,omitempty"`
}

// Data is the template context for step resolution.
type Data map[string]any

func resolveTemplate(buf *bytes.Buffer, tmpl string, data any) error {
	t, err := template.New("").Option("missingkey=zero").Funcs(template.FuncMap{
		"cmpVersion": pep440.Cmp,
		"shellquote": Shellquote,
		"regexReplace": func(src, pattern, repl string) (string, error) {
			re, err := regexp.Compile(pattern)
			if err != nil {
				return "", errors.Wrap(err, "compiling regex")
			}
			return re.ReplaceAllString(src, repl), nil
		},
	}).Parse(tmpl)
	if err != nil {
		return errors.Wrap(err, "parsing template")
	}
	if err := t.Execute(buf, data); err != nil {
		return errors.Wrap(err, "executing template")
	}
	return nil
}

// Shellquote wraps s in single quotes, escaping embedded quotes, so it is
// safe to interpolate into a POSIX shell command.
func Shellquote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func joinMaps[K comparable, V any](base map[K]V, overrides map[K]V) map[K]V {
	result := make(map[K]V, len(base))
	maps.Copy(result, base)
	maps.Copy(result, overrides)
	return result
}

// Resolve materializes the step into a Fragment using the given args and data.
func (step Step) Resolve(with map[string]string, data Data) (Fragment, error) {
	hasRuns := step.Runs != ""
	hasUses := step.Uses != ""
	dataAndWith := joinMaps(data, map[string]any{"With": with})
	switch {
	case hasRuns == hasUses:
		return Fragment{}, errors.New("must provide exactly one of 'runs' or 'uses'")
	case hasRuns:
		buf := bytes.NewBuffer(nil)
		if err := resolveTemplate(buf, step.Runs, dataAndWith); err != nil {
			return Fragment{}, errors.Wrap(err, "resolving 'runs' value")
		}
		return Fragment{Script: buf.String(), Needs: step.Needs}, nil
	case hasUses:
		tool, err := Tools.Get(step.Uses)
		if err != nil {
			return Fragment{}, err
		}
		resolvedWith := make(map[string]string, len(step.With))
		buf := bytes.NewBuffer(nil)
		for k, v := range step.With {
			if err := resolveTemplate(buf, v, dataAndWith); err != nil {
				return Fragment{}, errors.Wrapf(err, "resolving 'with' value for {key=%q,val=%q}", k, v)
			}
			resolvedWith[k] = buf.String()
			buf.Reset()
		}
		return tool.Generate(resolvedWith, data)
	}
	return Fragment{}, errors.New("invalid step state")
}

// ResolveSteps resolves and accumulates results for a sequence of steps.
func ResolveSteps(steps []Step, with map[string]string, data Data) (Fragment, error) {
	var frag Fragment
	for i, step := range steps {
		resolved, err := step.Resolve(with, data)
		if err != nil {
			return Fragment{}, err
		}
		if i == 0 {
			frag = resolved
		} else {
			frag = frag.Join(resolved)
		}
	}
	return frag, nil
}

// Fragment is a concrete shell script with its system requirements.
type Fragment struct {
	Script string
	Needs  []string
}

// Join concatenates two fragments, deduplicating their requirements.
func (r Fragment) Join(other Fragment) Fragment {
	var script string
	if r.Script == "" || other.Script == "" {
		script = cmp.Or(r.Script, other.Script)
	} else {
		script = strings.Join([]string{r.Script, other.Script}, "\n")
	}
	var needs []string
	seen := map[string]bool{}
	for _, need := range append(append([]string(nil), r.Needs...), other.Needs...) {
		if !seen[need] {
			seen[need] = true
			needs = append(needs, need)
		}
	}
	return Fragment{Script: script, Needs: needs}
}
