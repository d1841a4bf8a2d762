// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

// Package bufiox provides buffered IO helpers for streaming build output.
package bufiox

import (
	"bytes"
	"errors"
	"sync"
)

// LineBuffer is a thread-safe, size-bounded buffer of text lines.
// When the byte capacity is exceeded, whole lines are evicted oldest-first so
// that readers always observe line-aligned output. It implements io.ReadWriter.
type LineBuffer struct {
	mu       sync.Mutex
	capacity int
	size     int
	lines    [][]byte // complete lines, oldest first
	pending  []byte   // trailing data with no newline yet
}

// NewLineBuffer creates a LineBuffer bounded to capacity bytes.
func NewLineBuffer(capacity int) *LineBuffer {
	if capacity <= 0 {
		panic("capacity must be positive")
	}
	return &LineBuffer{capacity: capacity}
}

// Write appends data, splitting it into lines and evicting the oldest
// complete lines when the buffer would exceed its capacity.
func (lb *LineBuffer) Write(p []byte) (int, error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	written := 0
	data := p
	for len(data) > 0 {
		idx := bytes.IndexByte(data, '\n')
		var chunk []byte
		if idx >= 0 {
			chunk = data[:idx+1]
			data = data[idx+1:]
		} else {
			chunk = data
			data = nil
		}
		for lb.size+len(chunk) > lb.capacity {
			if !lb.evictOldest() {
				if written == 0 {
					return 0, errors.New("data exceeds buffer capacity")
				}
				return written, nil
			}
		}
		lb.pending = append(lb.pending, chunk...)
		lb.size += len(chunk)
		written += len(chunk)
		if idx >= 0 {
			lb.lines = append(lb.lines, lb.pending)
			lb.pending = nil
		}
	}
	return written, nil
}

// Read drains buffered data in write order. An empty buffer reads zero bytes
// without error; callers needing blocking semantics should wrap the buffer in
// a BufferedPipe.
func (lb *LineBuffer) Read(p []byte) (int, error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	n := 0
	for n < len(p) && len(lb.lines) > 0 {
		copied := copy(p[n:], lb.lines[0])
		n += copied
		if copied < len(lb.lines[0]) {
			lb.lines[0] = lb.lines[0][copied:]
		} else {
			lb.lines = lb.lines[1:]
		}
	}
	if n < len(p) && len(lb.pending) > 0 {
		copied := copy(p[n:], lb.pending)
		lb.pending = lb.pending[copied:]
		if len(lb.pending) == 0 {
			lb.pending = nil
		}
		n += copied
	}
	lb.size -= n
	return n, nil
}

// evictOldest drops the oldest complete line. It reports false if no complete
// line remains to evict.
func (lb *LineBuffer) evictOldest() bool {
	if len(lb.lines) == 0 {
		return false
	}
	lb.size -= len(lb.lines[0])
	lb.lines = lb.lines[1:]
	return true
}
