// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

// Package textwrap provides helpers for working with indented text blocks.
package textwrap

import "strings"

// Dedent strips the longest common leading whitespace from every line.
//
// Blank lines are ignored when computing the common prefix and are normalized
// to empty strings in the output. Only spaces and tabs count as indentation.
func Dedent(text string) string {
	lines := strings.Split(text, "\n")
	prefix, found := "", false
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		indent := line[:len(line)-len(trimmed)]
		if !found {
			prefix, found = indent, true
			continue
		}
		prefix = commonPrefix(prefix, indent)
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			out[i] = ""
			continue
		}
		out[i] = strings.TrimPrefix(line, prefix)
	}
	return strings.Join(out, "\n")
}

func commonPrefix(a, b string) string {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:n]
}
