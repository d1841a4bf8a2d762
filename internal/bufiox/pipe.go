// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

package bufiox

import (
	"io"
	"sync"
)

// BufferedPipe adapts an io.ReadWriter buffer into a pipe with blocking reads.
// Writes never block. It supports a single reader and a single writer.
type BufferedPipe struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    io.ReadWriter
	closed bool
}

// NewBufferedPipe creates a BufferedPipe backed by buf.
func NewBufferedPipe(buf io.ReadWriter) *BufferedPipe {
	p := &BufferedPipe{buf: buf}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Write writes data to the pipe without blocking.
// Returns io.ErrClosedPipe after Close.
func (p *BufferedPipe) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, io.ErrClosedPipe
	}
	n, err := p.buf.Write(b)
	if n > 0 {
		p.cond.Signal()
	}
	return n, err
}

// Read blocks until data is available or the pipe is closed.
// Returns io.EOF once the pipe is closed and drained.
func (p *BufferedPipe) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		n, err := p.buf.Read(b)
		if err != nil || n > 0 {
			return n, err
		}
		if p.closed {
			return 0, io.EOF
		}
		p.cond.Wait()
	}
}

// Close closes the write side. Blocked readers drain remaining data and then
// observe io.EOF.
func (p *BufferedPipe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return io.ErrClosedPipe
	}
	p.closed = true
	p.cond.Broadcast()
	return nil
}
