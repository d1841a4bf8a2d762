// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

package local

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/pybake/pybake/internal/bufiox"
	"github.com/pybake/pybake/internal/syncx"
	"github.com/pybake/pybake/pkg/bake/bake"
	"github.com/pybake/pybake/pkg/image"
)

// DockerBuildExecutor implements image.Executor for local Docker image assembly using a planner.
type DockerBuildExecutor struct {
	planner          image.Planner[*DockerBuildPlan]
	maxParallel      int
	semaphore        chan struct{}
	dockerCmd        string
	cmdExecutor      CommandExecutor
	activeBuilds     syncx.Map[string, *localHandle]
	outputBufferSize int
	retainImage      bool
	tempDirBase      string
}

// DockerBuildExecutorConfig contains configuration for creating a Docker build executor
type DockerBuildExecutorConfig struct {
	Planner          image.Planner[*DockerBuildPlan]
	CommandExecutor  CommandExecutor
	MaxParallel      int    // Max number of simultaneous builds
	OutputBufferSize int    // Buffer size for output pipe, defaults to 512KB
	RetainImage      bool   // If true, don't remove the assembled image after export
	TempDirBase      string // Base directory for temp files, if empty uses os.TempDir()
}

// NewDockerBuildExecutor creates a new Docker build executor with configuration
func NewDockerBuildExecutor(config DockerBuildExecutorConfig) (*DockerBuildExecutor, error) {
	planner := config.Planner
	if planner == nil {
		planner = NewDockerBuildPlanner()
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
	tempBase := config.TempDirBase
	if tempBase == "" {
		tempBase = os.TempDir()
	}
	dockerCmd := "docker"
	if _, err := cmdExecutor.LookPath(dockerCmd); err != nil {
		return nil, errors.Wrap(err, "docker command not found")
	}
	return &DockerBuildExecutor{
		planner:          planner,
		maxParallel:      maxParallel,
		semaphore:        make(chan struct{}, maxParallel),
		dockerCmd:        dockerCmd,
		cmdExecutor:      cmdExecutor,
		activeBuilds:     syncx.Map[string, *localHandle]{},
		outputBufferSize: outputBufferSize,
		retainImage:      config.RetainImage,
		tempDirBase:      tempBase,
	}, nil
}

// Start implements image.Executor.
func (e *DockerBuildExecutor) Start(ctx context.Context, input image.Input, opts image.Options) (image.Handle, error) {
	// buildID is used in the image tag and must be lowercase
	buildID := strings.ToLower(opts.BuildID)
	if buildID == "" {
		buildID = uuid.New().String()
	}
	planOpts := image.PlanOptions{
		EmbedInit: input.Spec.AppDir != "" && fileExists(filepath.Join(input.Spec.AppDir, embeddedInitSrc)),
		Resources: opts.Resources,
	}
	plan, err := e.planner.GeneratePlan(ctx, input, planOpts)
	if err != nil {
		return nil, errors.Wrap(err, "generating execution plan")
	}
	// Create build context that can be cancelled independently.
	buildCtx, cancel := context.WithCancel(context.Background())
	if opts.Timeout > 0 {
		buildCtx, cancel = context.WithTimeout(buildCtx, opts.Timeout)
	}
	pipe := bufiox.NewBufferedPipe(bufiox.NewLineBuffer(e.outputBufferSize))
	handle := &localHandle{
		id:         buildID,
		cancel:     cancel,
		output:     pipe,
		resultChan: make(chan image.Result, 1),
		status:     image.BuildStateStarting,
	}
	e.activeBuilds.Store(buildID, handle)
	go e.executeBuild(buildCtx, handle, plan, input, opts)
	return handle, nil
}

// Status implements image.Executor.
func (e *DockerBuildExecutor) Status() image.ExecutorStatus {
	return image.ExecutorStatus{
		InProgress: len(e.semaphore),
		Capacity:   e.maxParallel,
		Healthy:    true,
	}
}

// Close implements image.Executor.
func (e *DockerBuildExecutor) Close(ctx context.Context) error {
	for handle := range e.activeBuilds.Values() {
		handle.cancel()
		handle.updateStatus(image.BuildStateCancelled)
	}
	// Wait for builds to finish or context timeout.
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

// executeBuild runs the actual Docker build process.
func (e *DockerBuildExecutor) executeBuild(ctx context.Context, handle *localHandle, plan *DockerBuildPlan, input image.Input, opts image.Options) {
	defer e.activeBuilds.Delete(handle.id)
	defer handle.output.Close()
	// Acquire semaphore slot.
	select {
	case e.semaphore <- struct{}{}:
		defer func() { <-e.semaphore }()
	case <-ctx.Done():
		handle.updateStatus(image.BuildStateCancelled)
		handle.setResult(image.Result{
			Error: errors.Wrap(ctx.Err(), "enqueuing build"),
		})
		return
	}
	handle.updateStatus(image.BuildStateRunning)
	// Capture all output for asset upload while streaming to the handle.
	outbuf := &bytes.Buffer{}
	multiWriter := io.MultiWriter(handle.output, outbuf)
	imageTag := opts.ImageTag
	if imageTag == "" {
		imageTag = fmt.Sprintf("pybake/%s:%s", input.Spec.App, handle.id)
	}
	buildArgs := []string{"buildx", "build", "-t", imageTag, "-f", "-", plan.ContextDir}
	err := e.cmdExecutor.Execute(ctx, CommandOptions{
		Input:  strings.NewReader(plan.Dockerfile),
		Output: multiWriter,
	}, e.dockerCmd, buildArgs...)
	// Upload assets to asset store
	// NOTE: Upload failures don't fail the build
	if opts.Resources.AssetStore != nil {
		e.uploadAssets(ctx, plan, input.Spec, opts, handle.id, imageTag, outbuf.Bytes(), err == nil)
	}
	if err != nil {
		handle.updateStatus(image.BuildStateCompleted)
		handle.setResult(image.Result{
			Error: errors.Wrap(err, "docker build failed"),
		})
		return
	}
	handle.updateStatus(image.BuildStateCompleted)
	handle.setResult(image.Result{ImageTag: imageTag})
}

// uploadAssets uploads build artifacts to the asset store.
func (e *DockerBuildExecutor) uploadAssets(ctx context.Context, plan *DockerBuildPlan, spec bake.Spec, opts image.Options, buildID, imageTag string, logs []byte, built bool) {
	store := opts.Resources.AssetStore
	app := spec.App
	if err := e.uploadContent(ctx, store, bake.DockerfileAsset.For(app, buildID), []byte(plan.Dockerfile)); err != nil {
		log.Printf("Failed to upload Dockerfile: %v", err)
	}
	if err := e.uploadContent(ctx, store, bake.BuildLogAsset.For(app, buildID), logs); err != nil {
		log.Printf("Failed to upload build logs: %v", err)
	}
	// The manifest and any embedded init binary are inputs worth keeping
	// alongside the Dockerfile that referenced them.
	if reqPath := filepath.Join(plan.ContextDir, spec.RequirementsPath); fileExists(reqPath) {
		if err := e.uploadFile(ctx, store, bake.RequirementsAsset.For(app, buildID), reqPath); err != nil {
			log.Printf("Failed to upload requirements: %v", err)
		}
	}
	if initPath := filepath.Join(plan.ContextDir, embeddedInitSrc); fileExists(initPath) {
		if err := e.uploadFile(ctx, store, bake.InitBinaryAsset.For(app, buildID), initPath); err != nil {
			log.Printf("Failed to upload init binary: %v", err)
		}
	}
	if opts.ExportImage && built {
		imagePath := filepath.Join(e.tempDirBase, fmt.Sprintf("pybake-%s-%s", buildID, bake.ImageAsset))
		if err := e.saveImage(ctx, imageTag, imagePath); err != nil {
			log.Printf("Failed to save image: %v", err)
		} else if err := e.uploadFile(ctx, store, bake.ImageAsset.For(app, buildID), imagePath); err != nil {
			log.Printf("Failed to upload image: %v", err)
		}
		if err := os.Remove(imagePath); err != nil && !os.IsNotExist(err) {
			log.Printf("Failed to remove temp image file %s: %v", imagePath, err)
		}
		if !e.retainImage {
			if rmErr := e.cmdExecutor.Execute(ctx, CommandOptions{}, e.dockerCmd, "rmi", imageTag); rmErr != nil {
				log.Printf("Failed to remove Docker image %s: %v", imageTag, rmErr)
			}
		}
	}
}

// uploadFile uploads a local file to the asset store.
func (e *DockerBuildExecutor) uploadFile(ctx context.Context, store bake.AssetStore, asset bake.Asset, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return errors.Wrapf(err, "opening file %s", filePath)
	}
	defer file.Close()
	writer, err := store.Writer(ctx, asset)
	if err != nil {
		return errors.Wrap(err, "getting asset store writer")
	}
	defer writer.Close()
	if _, err := io.Copy(writer, file); err != nil {
		return errors.Wrap(err, "uploading file to asset store")
	}
	return nil
}

// uploadContent uploads content directly to the asset store.
func (e *DockerBuildExecutor) uploadContent(ctx context.Context, store bake.AssetStore, asset bake.Asset, content []byte) error {
	writer, err := store.Writer(ctx, asset)
	if err != nil {
		return errors.Wrap(err, "getting asset store writer")
	}
	defer writer.Close()
	if _, err := writer.Write(content); err != nil {
		return errors.Wrap(err, "writing to asset store")
	}
	return nil
}

// saveImage saves the assembled image as a gzipped tarball.
func (e *DockerBuildExecutor) saveImage(ctx context.Context, imageTag, outputPath string) error {
	return e.cmdExecutor.Execute(ctx, CommandOptions{}, "sh", "-c",
		fmt.Sprintf("%s save %s | gzip > %s", e.dockerCmd, imageTag, outputPath))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
