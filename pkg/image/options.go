// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

package image

import (
	"time"

	"github.com/pybake/pybake/internal/initbin"
	"github.com/pybake/pybake/pkg/bake/bake"
)

// Resources configures the stores and selection criteria a build draws on
type Resources struct {
	// AssetStore provides URLs and writing capabilities for build assets
	AssetStore bake.LocatableAssetStore
	// BaseImageConfig defines the selection criteria for base images
	BaseImageConfig BaseImageConfig
	// InitRelease overrides the init wrapper binary installed into the image
	InitRelease *initbin.Release
}

// Options configures build execution behavior
type Options struct {
	// CancelPolicy determines how cancellation is handled
	CancelPolicy CancelPolicy
	// Timeout for the build execution
	Timeout time.Duration
	// BuildID allows specifying a custom build identifier
	BuildID string
	// ImageTag overrides the tag applied to the assembled image
	ImageTag string
	// ExportImage saves the assembled image to the asset store as a tarball
	ExportImage bool
	// Resources configures the stores and base image selection for the build
	Resources Resources
}

// PlanOptions configures plan generation behavior and resources
type PlanOptions struct {
	// EmbedInit copies a prefetched init binary from the build context
	// instead of downloading it during the build
	EmbedInit bool
	// ImageTag identifies an already assembled image, for run plans
	ImageTag string
	// Resources configures the stores and base image selection for the plan
	Resources Resources
}

// CancelPolicy determines how build cancellation is handled
type CancelPolicy int

const (
	// CancelImmediate terminates the build immediately
	CancelImmediate CancelPolicy = iota
	// CancelGraceful allows the build to finish current step before cancelling
	CancelGraceful
	// CancelDetached allows the build to continue running but detaches the handle
	CancelDetached
)

func (p CancelPolicy) String() string {
	switch p {
	case CancelImmediate:
		return "immediate"
	case CancelGraceful:
		return "graceful"
	case CancelDetached:
		return "detached"
	default:
		return "unknown"
	}
}
