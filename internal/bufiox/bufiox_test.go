// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

package bufiox

import (
	"io"
	"strings"
	"testing"
	"time"
)

func TestLineBufferRoundTrip(t *testing.T) {
	lb := NewLineBuffer(1024)
	if _, err := lb.Write([]byte("one\ntwo\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	buf := make([]byte, 1024)
	n, err := lb.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got, want := string(buf[:n]), "one\ntwo\n"; got != want {
		t.Errorf("Read = %q, want %q", got, want)
	}
}

func TestLineBufferEvictsOldestLines(t *testing.T) {
	lb := NewLineBuffer(10)
	if _, err := lb.Write([]byte("aaaa\nbbbb\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	// Forces eviction of the "aaaa" line.
	if _, err := lb.Write([]byte("cc\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	buf := make([]byte, 64)
	n, _ := lb.Read(buf)
	if got, want := string(buf[:n]), "bbbb\ncc\n"; got != want {
		t.Errorf("Read = %q, want %q", got, want)
	}
}

func TestLineBufferPartialLine(t *testing.T) {
	lb := NewLineBuffer(64)
	lb.Write([]byte("no newline yet"))
	buf := make([]byte, 64)
	n, _ := lb.Read(buf)
	if got, want := string(buf[:n]), "no newline yet"; got != want {
		t.Errorf("Read = %q, want %q", got, want)
	}
	// An empty buffer reads zero bytes without error.
	if n, err := lb.Read(buf); n != 0 || err != nil {
		t.Errorf("Read on empty = (%d, %v), want (0, nil)", n, err)
	}
}

func TestBufferedPipeBlocksUntilWrite(t *testing.T) {
	pipe := NewBufferedPipe(NewLineBuffer(64))
	got := make(chan string, 1)
	go func() {
		buf := make([]byte, 64)
		n, _ := pipe.Read(buf)
		got <- string(buf[:n])
	}()
	time.Sleep(10 * time.Millisecond)
	pipe.Write([]byte("hello\n"))
	select {
	case s := <-got:
		if s != "hello\n" {
			t.Errorf("Read = %q, want %q", s, "hello\n")
		}
	case <-time.After(time.Second):
		t.Fatal("reader never woke up")
	}
}

func TestBufferedPipeEOFAfterClose(t *testing.T) {
	pipe := NewBufferedPipe(NewLineBuffer(64))
	pipe.Write([]byte("tail\n"))
	pipe.Close()
	data, err := io.ReadAll(pipe)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if got := string(data); got != "tail\n" {
		t.Errorf("ReadAll = %q, want %q", got, "tail\n")
	}
	if _, err := pipe.Write([]byte("more")); err != io.ErrClosedPipe {
		t.Errorf("Write after Close = %v, want io.ErrClosedPipe", err)
	}
}

func TestBufferedPipeLargePayload(t *testing.T) {
	pipe := NewBufferedPipe(NewLineBuffer(1 << 16))
	payload := strings.Repeat("line of output\n", 1000)
	go func() {
		pipe.Write([]byte(payload))
		pipe.Close()
	}()
	data, err := io.ReadAll(pipe)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != payload {
		t.Errorf("ReadAll returned %d bytes, want %d", len(data), len(payload))
	}
}
