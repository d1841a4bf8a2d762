// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

package local

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/pybake/pybake/internal/bufiox"
	"github.com/pybake/pybake/internal/syncx"
	"github.com/pybake/pybake/pkg/image"
)

const defaultOutputBufferSize = 512 * 1024 // 512KB

// stopTimeout bounds how long a graceful container stop may take before
// docker escalates to SIGKILL.
const stopTimeout = 30 * time.Second

// DockerRunExecutor implements image.Executor for running assembled images locally
type DockerRunExecutor struct {
	planner          image.Planner[*DockerRunPlan]
	maxParallel      int
	semaphore        chan struct{}
	dockerCmd        string
	cmdExecutor      CommandExecutor
	activeRuns       syncx.Map[string, *localHandle]
	outputBufferSize int
	retainContainer  bool
}

// DockerRunExecutorConfig contains configuration for creating a Docker run executor
type DockerRunExecutorConfig struct {
	Planner          image.Planner[*DockerRunPlan]
	CommandExecutor  CommandExecutor
	MaxParallel      int  // Max number of simultaneous runs
	OutputBufferSize int  // Buffer size for output pipe, defaults to 512KB
	RetainContainer  bool // If true, don't use --rm flag to retain containers
}

// NewDockerRunExecutor creates a new Docker run executor with configuration
func NewDockerRunExecutor(config DockerRunExecutorConfig) (*DockerRunExecutor, error) {
	planner := config.Planner
	if planner == nil {
		planner = NewDockerRunPlanner()
	}
	cmdExecutor := config.CommandExecutor
	if cmdExecutor == nil {
		cmdExecutor = NewRealCommandExecutor()
	}
	maxParallel := config.MaxParallel
	if maxParallel <= 0 {
		maxParallel = 1
	}
	outputBufferSize := config.OutputBufferSize
	if outputBufferSize <= 0 {
		outputBufferSize = defaultOutputBufferSize
	}
	dockerCmd := "docker"
	if _, err := cmdExecutor.LookPath(dockerCmd); err != nil {
		return nil, errors.Wrap(err, "docker command not found")
	}
	return &DockerRunExecutor{
		planner:          planner,
		maxParallel:      maxParallel,
		semaphore:        make(chan struct{}, maxParallel),
		dockerCmd:        dockerCmd,
		cmdExecutor:      cmdExecutor,
		activeRuns:       syncx.Map[string, *localHandle]{},
		outputBufferSize: outputBufferSize,
		retainContainer:  config.RetainContainer,
	}, nil
}

// Start implements image.Executor
func (e *DockerRunExecutor) Start(ctx context.Context, input image.Input, opts image.Options) (image.Handle, error) {
	runID := opts.BuildID
	if runID == "" {
		runID = fmt.Sprintf("pybake-run-%s", uuid.New().String())
	}
	planOpts := image.PlanOptions{
		ImageTag:  opts.ImageTag,
		Resources: opts.Resources,
	}
	plan, err := e.planner.GeneratePlan(ctx, input, planOpts)
	if err != nil {
		return nil, errors.Wrap(err, "generating execution plan")
	}
	runCtx, cancel := context.WithCancel(context.Background())
	if opts.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, opts.Timeout)
	}
	pipe := bufiox.NewBufferedPipe(bufiox.NewLineBuffer(e.outputBufferSize))
	handle := &localHandle{
		id:         runID,
		cancel:     cancel,
		output:     pipe,
		resultChan: make(chan image.Result, 1),
		status:     image.BuildStateStarting,
	}
	e.activeRuns.Store(runID, handle)
	go e.executeRun(runCtx, handle, plan, opts)
	return handle, nil
}

// Status implements image.Executor
func (e *DockerRunExecutor) Status() image.ExecutorStatus {
	return image.ExecutorStatus{
		InProgress: len(e.semaphore),
		Capacity:   e.maxParallel,
		Healthy:    true,
	}
}

// Close implements image.Executor
func (e *DockerRunExecutor) Close(ctx context.Context) error {
	for handle := range e.activeRuns.Values() {
		handle.cancel()
	}
	done := make(chan struct{})
	go func() {
		for len(e.semaphore) > 0 {
			time.Sleep(100 * time.Millisecond)
		}
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "closing executor")
	}
}

// executeRun runs the container and supervises its shutdown.
func (e *DockerRunExecutor) executeRun(ctx context.Context, handle *localHandle, plan *DockerRunPlan, opts image.Options) {
	defer e.activeRuns.Delete(handle.id)
	defer handle.output.Close()
	select {
	case e.semaphore <- struct{}{}:
		defer func() { <-e.semaphore }()
	case <-ctx.Done():
		handle.updateStatus(image.BuildStateCancelled)
		handle.setResult(image.Result{
			Error: errors.Wrap(ctx.Err(), "enqueuing run"),
		})
		return
	}
	runArgs := []string{"run"}
	if !e.retainContainer {
		runArgs = append(runArgs, "--rm")
	}
	runArgs = append(runArgs, "--name", handle.id)
	for _, name := range plan.EnvPassthrough {
		runArgs = append(runArgs, "-e", name)
	}
	runArgs = append(runArgs, plan.Image)
	handle.updateStatus(image.BuildStateRunning)
	// The container lifetime is managed via docker stop/kill rather than by
	// killing the docker CLI, so the run command gets its own context. The
	// in-container init forwards the stop signal to the application.
	done := make(chan error, 1)
	go func() {
		done <- e.cmdExecutor.Execute(context.Background(), CommandOptions{
			Output: handle,
		}, e.dockerCmd, runArgs...)
	}()
	var runErr error
	select {
	case runErr = <-done:
	case <-ctx.Done():
		if opts.CancelPolicy == image.CancelDetached {
			// Leave the container running; only the handle is released.
			handle.updateStatus(image.BuildStateCancelled)
			handle.setResult(image.Result{ImageTag: plan.Image})
			return
		}
		stopArgs := []string{"stop", "-t", fmt.Sprintf("%d", int(stopTimeout.Seconds())), handle.id}
		if opts.CancelPolicy == image.CancelImmediate {
			stopArgs = []string{"kill", handle.id}
		}
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout+10*time.Second)
		defer cancel()
		if err := e.cmdExecutor.Execute(stopCtx, CommandOptions{}, e.dockerCmd, stopArgs...); err != nil {
			handle.updateStatus(image.BuildStateCancelled)
			handle.setResult(image.Result{
				Error: errors.Wrap(err, "stopping container"),
			})
			return
		}
		<-done
		handle.updateStatus(image.BuildStateCancelled)
		handle.setResult(image.Result{
			Error: errors.Wrap(ctx.Err(), "run cancelled"),
		})
		return
	}
	handle.updateStatus(image.BuildStateCompleted)
	if runErr != nil {
		handle.setResult(image.Result{
			Error: errors.Wrap(runErr, "docker run failed"),
		})
		return
	}
	handle.setResult(image.Result{ImageTag: plan.Image})
}
