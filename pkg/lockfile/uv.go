// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

package lockfile

import (
	"log"
	"sort"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// uvLock mirrors the TOML structure of uv.lock (version 1).
type uvLock struct {
	Version        int         `toml:"version"`
	RequiresPython string      `toml:"requires-python"`
	Packages       []uvPackage `toml:"package"`
}

type uvPackage struct {
	Name            string                    `toml:"name"`
	Version         string                    `toml:"version"`
	Source          uvSource                  `toml:"source"`
	Sdist           uvArtifact                `toml:"sdist"`
	Wheels          []uvArtifact              `toml:"wheels"`
	Dependencies    []uvDependency            `toml:"dependencies"`
	DevDependencies map[string][]uvDependency `toml:"dev-dependencies"`
}

type uvDependency struct {
	Name string `toml:"name"`
}

type uvSource struct {
	Registry  string `toml:"registry"`
	Virtual   string `toml:"virtual"`
	Editable  string `toml:"editable"`
	Directory string `toml:"directory"`
}

type uvArtifact struct {
	URL  string `toml:"url"`
	Hash string `toml:"hash"`
}

// ParseUV parses a uv.lock file.
//
// The project's own entry (a virtual or editable source) and any other
// non-registry packages are skipped: they have no pinnable upstream artifact.
func ParseUV(data []byte) (*Lockfile, error) {
	var raw uvLock
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "decoding uv.lock")
	}
	if raw.Version == 0 {
		return nil, errors.New("missing lock version; not a uv.lock file?")
	}
	if raw.Version != 1 {
		return nil, errors.Errorf("unsupported uv.lock version %d", raw.Version)
	}
	lock := &Lockfile{
		Source:         UV,
		RequiresPython: raw.RequiresPython,
	}
	groups := uvGroupMembership(raw.Packages)
	for _, pkg := range raw.Packages {
		if pkg.Name == "" || pkg.Version == "" {
			return nil, errors.Errorf("package entry missing name or version (name=%q)", pkg.Name)
		}
		if pkg.Source.Registry == "" {
			if pkg.Source.Virtual == "" && pkg.Source.Editable == "" && pkg.Source.Directory == "" {
				return nil, errors.Errorf("package %s has no source", pkg.Name)
			}
			log.Printf("Skipping local package %s", pkg.Name)
			continue
		}
		req := Requirement{
			Name:    NormalizeName(pkg.Name),
			Version: pkg.Version,
			Groups:  groups[NormalizeName(pkg.Name)],
		}
		if pkg.Sdist.Hash != "" {
			req.Hashes = append(req.Hashes, pkg.Sdist.Hash)
		}
		for _, w := range pkg.Wheels {
			if w.Hash != "" {
				req.Hashes = append(req.Hashes, w.Hash)
			}
		}
		sort.Strings(req.Hashes)
		lock.Packages = append(lock.Packages, req)
	}
	return lock, nil
}

// uvGroupMembership derives per-package group membership. uv.lock records
// dependency edges but no group labels, so membership is the transitive
// closure of the root package's dependencies ("main") and of each of its
// dev-dependency groups. Returns nil when the lock has no root entry to
// anchor the traversal, leaving requirements group-blind.
func uvGroupMembership(pkgs []uvPackage) map[string][]string {
	edges := make(map[string][]string, len(pkgs))
	var roots []uvPackage
	for _, pkg := range pkgs {
		name := NormalizeName(pkg.Name)
		for _, d := range pkg.Dependencies {
			edges[name] = append(edges[name], NormalizeName(d.Name))
		}
		if pkg.Source.Virtual != "" || pkg.Source.Editable != "" || pkg.Source.Directory != "" {
			roots = append(roots, pkg)
		}
	}
	if len(roots) == 0 {
		return nil
	}
	membership := make(map[string]map[string]bool)
	mark := func(group string, seeds []uvDependency) {
		queue := make([]string, 0, len(seeds))
		for _, d := range seeds {
			queue = append(queue, NormalizeName(d.Name))
		}
		for len(queue) > 0 {
			name := queue[0]
			queue = queue[1:]
			if membership[name][group] {
				continue
			}
			if membership[name] == nil {
				membership[name] = make(map[string]bool)
			}
			membership[name][group] = true
			queue = append(queue, edges[name]...)
		}
	}
	for _, root := range roots {
		mark("main", root.Dependencies)
		for group, seeds := range root.DevDependencies {
			mark(group, seeds)
		}
	}
	out := make(map[string][]string, len(membership))
	for name, set := range membership {
		for group := range set {
			out[name] = append(out[name], group)
		}
		sort.Strings(out[name])
	}
	return out
}
