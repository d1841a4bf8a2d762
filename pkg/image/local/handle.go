// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

package local

import (
	"context"
	"io"
	"sync"

	"github.com/pybake/pybake/pkg/image"
)

// localHandle implements image.Handle for local Docker execution
type localHandle struct {
	id         string
	cancel     context.CancelFunc
	output     io.ReadWriteCloser
	resultChan chan image.Result

	statusMu sync.RWMutex
	status   image.BuildState
}

// BuildID implements image.Handle
func (h *localHandle) BuildID() string {
	return h.id
}

// Wait implements image.Handle
func (h *localHandle) Wait(ctx context.Context) (image.Result, error) {
	defer h.output.Close()
	select {
	case result := <-h.resultChan:
		return result, nil
	case <-ctx.Done():
		// Context timeout, distinct from build cancellation
		return image.Result{}, ctx.Err()
	}
}

// OutputStream implements image.Handle
func (h *localHandle) OutputStream() io.Reader {
	return h.output
}

// Status implements image.Handle
func (h *localHandle) Status() image.BuildState {
	h.statusMu.RLock()
	defer h.statusMu.RUnlock()
	return h.status
}

// Cancel cancels the build
func (h *localHandle) Cancel() {
	defer h.output.Close()
	h.cancel()
}

// updateStatus updates the handle's status
func (h *localHandle) updateStatus(state image.BuildState) {
	h.statusMu.Lock()
	defer h.statusMu.Unlock()
	h.status = state
}

// setResult sets the final result without blocking
func (h *localHandle) setResult(result image.Result) {
	select {
	case h.resultChan <- result:
	default:
	}
}

// Write streams a chunk of output to the handle's readers
func (h *localHandle) Write(line []byte) (n int, err error) {
	return h.output.Write(line)
}
