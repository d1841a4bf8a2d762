// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

package bake

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestVenvRecipe(t *testing.T) {
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
		recipe Recipe
		want   Instructions
	}{
		{
			"Default",
			defaultSpec,
			&VenvRecipe{},
			Instructions{
				Venv:   "python3.12 -m venv /opt/venv",
				Deps:   "/opt/venv/bin/pip install --no-cache-dir --no-deps -r 'requirements.txt'",
				App:    "chmod +x '/app/start.sh'",
				Launch: []string{"/app/start.sh"},
			},
		},
		{
			"HashChecked",
			func() Spec {
				s := defaultSpec
				s.HashChecked = true
				return s
			}(),
			&VenvRecipe{},
			Instructions{
				Venv:   "python3.12 -m venv /opt/venv",
				Deps:   "/opt/venv/bin/pip install --no-cache-dir --no-deps --require-hashes -r 'requirements.txt'",
				App:    "chmod +x '/app/start.sh'",
				Launch: []string{"/app/start.sh"},
			},
		},
		{
			"UpgradePipAndCompile",
			defaultSpec,
			&VenvRecipe{UpgradePip: true, Compile: true},
			Instructions{
				Venv: `python3.12 -m venv /opt/venv
/opt/venv/bin/pip install --no-cache-dir --upgrade pip`,
				Deps: "/opt/venv/bin/pip install --no-cache-dir --no-deps -r 'requirements.txt'",
				App: `chmod +x '/app/start.sh'
/opt/venv/bin/python -m compileall -q /app`,
				Launch: []string{"/app/start.sh"},
			},
		},
		{
			"EntrypointEscaping",
			func() Spec {
				s := defaultSpec
				s.Entrypoint = "run it's.sh"
				return s
			}(),
			&VenvRecipe{},
			Instructions{
				Venv:   "python3.12 -m venv /opt/venv",
				Deps:   "/opt/venv/bin/pip install --no-cache-dir --no-deps -r 'requirements.txt'",
				App:    `chmod +x '/app/run it'\''s.sh'`,
				Launch: []string{"/app/run it's.sh"},
			},
		},
		{
			"SystemDeps",
			func() Spec {
				s := defaultSpec
				s.SystemDeps = []string{"ffmpeg", "libmagic1"}
				return s
			}(),
			&VenvRecipe{},
			Instructions{
				Venv:       "python3.12 -m venv /opt/venv",
				Deps:       "/opt/venv/bin/pip install --no-cache-dir --no-deps -r 'requirements.txt'",
				App:        "chmod +x '/app/start.sh'",
				Launch:     []string{"/app/start.sh"},
				SystemDeps: []string{"ffmpeg", "libmagic1"},
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

func TestSpecValidate(t *testing.T) {
	valid := Spec{
		App:              "app",
		AppDir:           "/src/app",
		Entrypoint:       "start.sh",
		PythonVersion:    "3.12",
		RequirementsPath: "requirements.txt",
	}
	tests := []struct {
		name    string
		mutate  func(*Spec)
		wantErr bool
	}{
		{"Valid", func(s *Spec) {}, false},
		{"MissingApp", func(s *Spec) { s.App = "" }, true},
		{"MissingAppDir", func(s *Spec) { s.AppDir = "" }, true},
		{"MissingEntrypoint", func(s *Spec) { s.Entrypoint = "" }, true},
		{"AbsoluteEntrypoint", func(s *Spec) { s.Entrypoint = "/start.sh" }, true},
		{"MissingPython", func(s *Spec) { s.PythonVersion = "" }, true},
		{"MissingRequirements", func(s *Spec) { s.RequirementsPath = "" }, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := valid
			tc.mutate(&s)
			err := s.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
