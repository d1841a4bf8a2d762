// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

package local

import (
	"context"
	"slices"

	"github.com/pkg/errors"

	"github.com/pybake/pybake/pkg/image"
)

// DockerRunPlanner generates Docker run execution plans for assembled images
type DockerRunPlanner struct{}

// NewDockerRunPlanner creates a new Docker run planner
func NewDockerRunPlanner() *DockerRunPlanner {
	return &DockerRunPlanner{}
}

// GeneratePlan implements Planner[*DockerRunPlan]
func (p *DockerRunPlanner) GeneratePlan(ctx context.Context, input image.Input, opts image.PlanOptions) (*DockerRunPlan, error) {
	if opts.ImageTag == "" {
		return nil, errors.New("run plan requires an image tag")
	}
	if err := input.Spec.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating spec")
	}
	return &DockerRunPlan{
		Image:          opts.ImageTag,
		EnvPassthrough: slices.Clone(input.Spec.PassEnv),
	}, nil
}
