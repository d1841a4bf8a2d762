// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

package image

import "fmt"

// BaseImageConfig defines how the runtime base image is chosen for a build.
type BaseImageConfig struct {
	// Template formats a python version into an image ref. It must contain a
	// single %s verb.
	Template string `json:"template"`
	// Overrides maps python versions to explicit image refs.
	Overrides map[string]string `json:"overrides"`
}

func (c BaseImageConfig) SelectFor(input Input) string {
	if img, ok := c.Overrides[input.Spec.PythonVersion]; ok {
		return img
	}
	return fmt.Sprintf(c.Template, input.Spec.PythonVersion)
}

func DefaultBaseImageConfig() BaseImageConfig {
	return BaseImageConfig{
		Template: "docker.io/library/python:%s-slim-bookworm",
	}
}
