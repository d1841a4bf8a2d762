// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

package local

import (
	"bytes"
	"context"
	"encoding/json"
	"slices"
	"strings"
	"text/template"

	"github.com/pkg/errors"

	"github.com/pybake/pybake/internal/initbin"
	"github.com/pybake/pybake/internal/textwrap"
	"github.com/pybake/pybake/pkg/bake/bake"
	"github.com/pybake/pybake/pkg/image"
)

// embeddedInitSrc is where `pybake fetch-init` stages the prefetched binary
// inside the build context.
const embeddedInitSrc = ".pybake/dumb-init"

// dockerBuildContainerArgs holds template arguments for the assembly Dockerfile
type dockerBuildContainerArgs struct {
	bake.Instructions
	BaseImage        string
	OS               image.OS
	PackageManager   image.PackageManagerCommands
	SystemDeps       []string
	VenvPath         string
	AppPath          string
	RequirementsPath string
	InitPath         string
	InitURL          string
	InitSHA256       string
	EmbedInit        bool
	InitSrc          string
}

// dockerBuildDockerfileTpl generates the multi-stage assembly Dockerfile
var dockerBuildDockerfileTpl = template.Must(
	template.New("docker build dockerfile").Funcs(template.FuncMap{
		"indent": func(s string) string { return strings.ReplaceAll(s, "\n", "\n ") },
		"argv": func(s []string) (string, error) {
			b, err := json.Marshal(s)
			return string(b), err
		},
	}).Parse(
		textwrap.Dedent(`
			#syntax=docker/dockerfile:1.10
			FROM {{.BaseImage}} AS builder
			WORKDIR /src
			RUN sed 's/^ //' <<'EOF' | sh
			 set -eux
			 {{.Instructions.Venv | indent}}
			EOF
			COPY {{.RequirementsPath}} {{.RequirementsPath}}
			RUN sed 's/^ //' <<'EOF' | sh
			 set -eux
			 {{.Instructions.Deps | indent}}
			EOF
			FROM {{.BaseImage}}
			{{- if or .SystemDeps (not .EmbedInit)}}
			RUN sed 's/^ //' <<'EOF' | sh
			 set -eux
			 {{.PackageManager.UpdateCmd}}
			 {{.PackageManager.InstallCommand .SystemDeps}}
			{{- if not .EmbedInit}}
			 wget -q -O {{.InitPath}} "{{.InitURL}}"
			 echo "{{.InitSHA256}}  {{.InitPath}}" | sha256sum -c -
			 chmod +x {{.InitPath}}
			{{- end}}
			{{- if .PackageManager.CleanupCmd}}
			 {{.PackageManager.CleanupCmd}}
			{{- end}}
			EOF
			{{- end}}
			{{- if .EmbedInit}}
			COPY {{.InitSrc}} {{.InitPath}}
			RUN chmod +x {{.InitPath}}
			{{- end}}
			COPY --from=builder {{.VenvPath}} {{.VenvPath}}
			COPY . {{.AppPath}}
			RUN sed 's/^ //' <<'EOF' | sh
			 set -eux
			 {{.Instructions.App | indent}}
			EOF
			ENV PATH="{{.VenvPath}}/bin:$PATH" PYTHONUNBUFFERED=1
			WORKDIR {{.AppPath}}
			ENTRYPOINT ["{{.InitPath}}", "--"]
			CMD {{argv .Instructions.Launch}}
			`)[1:], // remove leading newline
	))

// DockerBuildPlanner generates Docker build execution plans
type DockerBuildPlanner struct{}

// NewDockerBuildPlanner creates a new Docker build planner
func NewDockerBuildPlanner() *DockerBuildPlanner {
	return &DockerBuildPlanner{}
}

// GeneratePlan implements Planner[*DockerBuildPlan]
func (p *DockerBuildPlanner) GeneratePlan(ctx context.Context, input image.Input, opts image.PlanOptions) (*DockerBuildPlan, error) {
	env := bake.DefaultEnv
	env.EmbedInit = opts.EmbedInit
	instructions, err := input.Recipe.GenerateFor(input.Spec, env)
	if err != nil {
		return nil, errors.Wrap(err, "generating assembly instructions")
	}
	dockerfile, err := p.generateDockerfile(input, instructions, env, opts)
	if err != nil {
		return nil, errors.Wrap(err, "generating Dockerfile")
	}
	return &DockerBuildPlan{
		Dockerfile: dockerfile,
		ContextDir: input.Spec.AppDir,
	}, nil
}

// generateDockerfile renders the assembly Dockerfile from instructions and options
func (p *DockerBuildPlanner) generateDockerfile(input image.Input, instructions bake.Instructions, env bake.Env, opts image.PlanOptions) (string, error) {
	cfg := opts.Resources.BaseImageConfig
	if cfg.Template == "" {
		cfg = image.DefaultBaseImageConfig()
	}
	baseImage := cfg.SelectFor(input)
	os := image.DetectOS(baseImage)
	pkgMgr := image.GetPackageManagerCommands(os)
	release := initbin.DefaultRelease()
	if opts.Resources.InitRelease != nil {
		release = *opts.Resources.InitRelease
	}
	sysDeps := slices.Clone(instructions.SystemDeps)
	if !opts.EmbedInit && !slices.Contains(sysDeps, "wget") {
		sysDeps = append(sysDeps, "wget")
	}
	args := dockerBuildContainerArgs{
		Instructions:     instructions,
		BaseImage:        baseImage,
		OS:               os,
		PackageManager:   pkgMgr,
		SystemDeps:       sysDeps,
		VenvPath:         env.VenvPath,
		AppPath:          env.AppPath,
		RequirementsPath: input.Spec.RequirementsPath,
		InitPath:         env.InitPath,
		InitURL:          release.URL(),
		InitSHA256:       release.SHA256,
		EmbedInit:        opts.EmbedInit,
		InitSrc:          embeddedInitSrc,
	}
	var buf bytes.Buffer
	if err := dockerBuildDockerfileTpl.Execute(&buf, args); err != nil {
		return "", errors.Wrap(err, "executing Dockerfile template")
	}
	return buf.String(), nil
}
