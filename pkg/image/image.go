// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

// Package image defines the contracts for turning assembly instructions
// into a runnable container image.
package image

import (
	"context"
	"io"

	"github.com/pybake/pybake/pkg/bake/bake"
)

// Input is everything an executor needs to assemble one application image.
type Input struct {
	// Spec describes the application to assemble.
	Spec bake.Spec
	// Recipe produces the assembly instructions for the spec.
	Recipe bake.Recipe
}

// Executor manages image build execution for a specific backend
type Executor interface {
	Start(ctx context.Context, input Input, opts Options) (Handle, error)
	Status() ExecutorStatus
	Close(ctx context.Context) error
}

// Handle represents an active or completed build
type Handle interface {
	BuildID() string
	Wait(ctx context.Context) (Result, error)
	OutputStream() io.Reader
	Status() BuildState
}

// Result represents the completed build result
type Result struct {
	// Error represents a build-time failure (i.e. after build setup)
	Error error
	// ImageTag is the tag of the assembled image, when the build succeeded.
	ImageTag string
}

// ExecutorStatus represents the overall executor status
type ExecutorStatus struct {
	// InProgress is the number of builds currently executing
	InProgress int
	// Capacity is the max number of builds that can be executed simultaneously
	Capacity int
	// Healthy is whether the executor is accepting new builds
	Healthy bool
}

// BuildState represents the current state of a build
type BuildState int

const (
	BuildStateStarting BuildState = iota
	BuildStateRunning
	BuildStateCompleted
	BuildStateCancelled
)

func (s BuildState) String() string {
	switch s {
	case BuildStateStarting:
		return "starting"
	case BuildStateRunning:
		return "running"
	case BuildStateCompleted:
		return "completed"
	case BuildStateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}
