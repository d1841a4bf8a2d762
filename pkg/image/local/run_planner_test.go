// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

package local

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pybake/pybake/pkg/bake/bake"
	"github.com/pybake/pybake/pkg/image"
)

func TestDockerRunPlanner_GeneratePlan(t *testing.T) {
	input := testInput()
	input.Spec.PassEnv = []string{"TELEGRAM_TOKEN", "REDDIT_CLIENT_ID"}
	planner := NewDockerRunPlanner()
	plan, err := planner.GeneratePlan(context.Background(), input, image.PlanOptions{
		ImageTag: "pybake/reddit2telegram:build-1",
	})
	if err != nil {
		t.Fatalf("GeneratePlan() error = %v", err)
	}
	want := &DockerRunPlan{
		Image:          "pybake/reddit2telegram:build-1",
		EnvPassthrough: []string{"TELEGRAM_TOKEN", "REDDIT_CLIENT_ID"},
	}
	if diff := cmp.Diff(want, plan); diff != "" {
		t.Errorf("GeneratePlan() mismatch (-want +got):\n%s", diff)
	}
}

func TestDockerRunPlanner_MissingImageTag(t *testing.T) {
	planner := NewDockerRunPlanner()
	if _, err := planner.GeneratePlan(context.Background(), testInput(), image.PlanOptions{}); err == nil {
		t.Error("GeneratePlan() expected error without image tag")
	}
}

func TestDockerRunPlanner_InvalidSpec(t *testing.T) {
	planner := NewDockerRunPlanner()
	_, err := planner.GeneratePlan(context.Background(), image.Input{
		Spec:   bake.Spec{App: "incomplete"},
		Recipe: &bake.VenvRecipe{},
	}, image.PlanOptions{ImageTag: "pybake/incomplete:latest"})
	if err == nil {
		t.Error("GeneratePlan() expected error for invalid spec")
	}
}
