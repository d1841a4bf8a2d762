// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

package local

// DockerRunPlan represents a Docker run execution plan where we run an
// assembled application image
type DockerRunPlan struct {
	// Image is the Docker image to run
	Image string
	// EnvPassthrough lists host environment variable names forwarded into the
	// container
	EnvPassthrough []string
}
