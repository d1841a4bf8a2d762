// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

package bake

import (
	"github.com/pybake/pybake/internal/textwrap"
	"github.com/pybake/pybake/pkg/bake/flow"
)

func init() {
	for _, t := range toolkit {
		flow.Tools.MustRegister(t)
	}
}

// toolkit holds the assembly tools available to WorkflowRecipe steps.
var toolkit = []*flow.Tool{
	{
		Name: "venv/create",
		Steps: []flow.Step{{
			Runs: "python{{.With.python}} -m venv {{.With.path}}",
		}},
	},
	{
		Name: "pip/install",
		Steps: []flow.Step{{
			Runs: "{{.With.venv}}/bin/pip install --no-cache-dir --no-deps{{if eq .With.requireHashes \"true\"}} --require-hashes{{end}} -r {{.With.requirements | shellquote}}",
		}},
	},
	{
		Name: "app/entrypoint",
		Steps: []flow.Step{{
			Runs: "chmod +x {{.With.path | shellquote}}",
		}},
	},
	{
		Name: "dumbinit/install",
		Steps: []flow.Step{{
			Runs: textwrap.Dedent(`
				wget -q -O {{.With.path}} "{{.With.url}}"
				echo "{{.With.sha256}}  {{.With.path}}" | sha256sum -c -
				chmod +x {{.With.path}}`[1:]),
			Needs: []string{"wget"},
		}},
	},
}
