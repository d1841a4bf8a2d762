// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

package lockfile

import (
	"path/filepath"

	"github.com/pkg/errors"
)

// Parse dispatches to the parser matching the lock file's base name.
func Parse(path string, data []byte) (*Lockfile, error) {
	switch filepath.Base(path) {
	case "poetry.lock":
		return ParsePoetry(data)
	case "uv.lock":
		return ParseUV(data)
	default:
		return nil, errors.Errorf("unrecognized lock file %q (expected poetry.lock or uv.lock)", filepath.Base(path))
	}
}
