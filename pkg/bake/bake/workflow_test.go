// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

package bake

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pybake/pybake/pkg/bake/flow"
)

func TestWorkflowRecipe(t *testing.T) {
	defaultSpec := Spec{
		App:              "reddit2telegram",
		AppDir:           "/src/reddit2telegram",
		Entrypoint:       "start.sh",
		PythonVersion:    "3.12",
		RequirementsPath: "requirements.txt",
	}
	tests := []struct {
		name   string
		spec   Spec
		recipe *WorkflowRecipe
		want   Instructions
	}{
		{
			"ToolInvocations",
			defaultSpec,
			&WorkflowRecipe{
				Venv: []flow.Step{{
					Uses: "venv/create",
					With: map[string]string{
						"python": "{{.Spec.PythonVersion}}",
						"path":   "{{.Env.VenvPath}}",
					},
				}},
				Deps: []flow.Step{{
					Uses: "pip/install",
					With: map[string]string{
						"venv":          "{{.Env.VenvPath}}",
						"requirements":  "{{.Spec.RequirementsPath}}",
						"requireHashes": "true",
					},
				}},
				App: []flow.Step{{
					Uses: "app/entrypoint",
					With: map[string]string{
						"path": "{{.Env.AppPath}}/{{.Spec.Entrypoint}}",
					},
				}},
			},
			Instructions{
				Venv:   "python3.12 -m venv /opt/venv",
				Deps:   "/opt/venv/bin/pip install --no-cache-dir --no-deps --require-hashes -r 'requirements.txt'",
				App:    "chmod +x '/app/start.sh'",
				Launch: []string{"/app/start.sh"},
			},
		},
		{
			"RawStepsAndNeeds",
			defaultSpec,
			&WorkflowRecipe{
				Venv: []flow.Step{{
					Runs: "python{{.Spec.PythonVersion}} -m venv {{.Env.VenvPath}}",
				}},
				Deps: []flow.Step{
					{
						Runs:  "git clone https://example.com/vendored.git /tmp/vendored",
						Needs: []string{"git"},
					},
					{
						Runs: "{{.Env.VenvPath}}/bin/pip install --no-cache-dir /tmp/vendored",
					},
				},
				App: []flow.Step{{
					Runs: "chmod +x {{.Env.AppPath}}/{{.Spec.Entrypoint}}",
				}},
				Launch:     []string{"/usr/local/bin/dumb-init", "--", "/app/start.sh"},
				SystemDeps: []string{"ffmpeg", "git"},
			},
			Instructions{
				Venv: "python3.12 -m venv /opt/venv",
				Deps: `git clone https://example.com/vendored.git /tmp/vendored
/opt/venv/bin/pip install --no-cache-dir /tmp/vendored`,
				App:        "chmod +x /app/start.sh",
				Launch:     []string{"/usr/local/bin/dumb-init", "--", "/app/start.sh"},
				SystemDeps: []string{"ffmpeg", "git"},
			},
		},
		{
			"InitInstallTool",
			defaultSpec,
			&WorkflowRecipe{
				Venv: []flow.Step{{
					Runs: "python{{.Spec.PythonVersion}} -m venv {{.Env.VenvPath}}",
				}},
				App: []flow.Step{{
					Uses: "dumbinit/install",
					With: map[string]string{
						"path":   "{{.Env.InitPath}}",
						"url":    "https://example.com/dumb-init_1.2.5_x86_64",
						"sha256": "e874b55f3279ca41415d290c512a7ba9d08f98041b28ae7c2acb19a545f1c4df",
					},
				}},
			},
			Instructions{
				Venv: "python3.12 -m venv /opt/venv",
				App: `wget -q -O /usr/local/bin/dumb-init "https://example.com/dumb-init_1.2.5_x86_64"
echo "e874b55f3279ca41415d290c512a7ba9d08f98041b28ae7c2acb19a545f1c4df  /usr/local/bin/dumb-init" | sha256sum -c -
chmod +x /usr/local/bin/dumb-init`,
				Launch:     []string{"/app/start.sh"},
				SystemDeps: []string{"wget"},
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.recipe.GenerateFor(tc.spec, DefaultEnv)
			if err != nil {
				t.Fatalf("GenerateFor() failed unexpectedly: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("GenerateFor() returned diff (-want +got):\n%s", diff)
			}
		})
	}
}
