// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

package local

// DockerBuildPlan represents a Docker build execution plan where we assemble
// an application image from its build context
type DockerBuildPlan struct {
	// Dockerfile contains the generated Dockerfile content
	Dockerfile string
	// ContextDir is the host directory used as the build context
	ContextDir string
}
