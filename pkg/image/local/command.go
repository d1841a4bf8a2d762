// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

package local

import (
	"context"
	"io"
	"os/exec"
)

// CommandOptions carries the per-invocation wiring for an executed command.
type CommandOptions struct {
	// Input is fed to the command's stdin.
	Input io.Reader
	// Output receives the command's combined stdout and stderr. Discarded
	// when nil.
	Output io.Writer
	// Dir is the working directory for the command.
	Dir string
}

// CommandExecutor runs external commands on behalf of the executors so tests
// can substitute a recording fake.
type CommandExecutor interface {
	// Execute runs the named command to completion, as
	// exec.CommandContext(...).Run() would.
	Execute(ctx context.Context, opts CommandOptions, name string, args ...string) error
	// LookPath reports where the named executable resolves on PATH.
	LookPath(file string) (string, error)
}

type systemCommandExecutor struct{}

// NewRealCommandExecutor returns a CommandExecutor backed by os/exec.
func NewRealCommandExecutor() CommandExecutor {
	return systemCommandExecutor{}
}

func (systemCommandExecutor) Execute(ctx context.Context, opts CommandOptions, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = opts.Dir
	cmd.Stdin = opts.Input
	out := opts.Output
	if out == nil {
		out = io.Discard
	}
	cmd.Stdout = out
	cmd.Stderr = out
	return cmd.Run()
}

func (systemCommandExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}
