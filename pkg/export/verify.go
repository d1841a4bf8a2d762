// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"context"
	"log"
	"strings"

	"github.com/pkg/errors"

	"github.com/pybake/pybake/pkg/registry/pypi"
)

// Verify confirms against the registry that every manifest entry names a
// published release and that every recorded sha256 digest matches one of the
// release's artifacts.
func Verify(ctx context.Context, reg pypi.Registry, m *Manifest) error {
	for _, e := range m.Entries {
		release, err := reg.Release(ctx, e.Name, e.Version)
		if err != nil {
			// Distinguish an unknown version from an unknown package.
			if _, perr := reg.Project(ctx, e.Name); perr != nil {
				return errors.Wrapf(perr, "package %s not found upstream", e.Name)
			}
			return errors.Wrapf(err, "version %s of %s not found upstream", e.Version, e.Name)
		}
		if release.Yanked {
			log.Printf("Warning: %s==%s has been yanked upstream", e.Name, e.Version)
		}
		for _, h := range e.Hashes {
			digest, ok := strings.CutPrefix(h, "sha256:")
			if !ok {
				return errors.Errorf("unsupported digest %q for %s==%s", h, e.Name, e.Version)
			}
			if !release.HasSHA256(digest) {
				return errors.Errorf("digest %s of %s==%s matches no published artifact", h, e.Name, e.Version)
			}
		}
	}
	return nil
}
