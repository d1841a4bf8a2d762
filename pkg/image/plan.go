// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

package image

import "context"

// Plan represents any execution plan type.
type Plan any

// Planner is a generic interface for generating execution plans from assembly
// inputs. Each executor type expects a specific Plan type so any conformant
// planner can be used.
type Planner[T Plan] interface {
	GeneratePlan(ctx context.Context, input Input, opts PlanOptions) (T, error)
}
