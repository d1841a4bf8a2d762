// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

// Package lockfile parses Python dependency lock files into a common pinned
// representation.
package lockfile

import (
	"regexp"
	"strings"
)

// Source identifies the tool that produced a lock file.
type Source string

const (
	// Poetry is the poetry.lock format (lock-version 2.x).
	Poetry Source = "poetry"
	// UV is the uv.lock format (version 1).
	UV Source = "uv"
)

// Requirement is a single locked distribution.
type Requirement struct {
	// Name is the PEP 503 normalized package name.
	Name string
	// Version is the exact pinned version.
	Version string
	// Marker is an optional PEP 508 environment marker.
	Marker string
	// Hashes are artifact digests in "sha256:<hex>" form, sorted.
	Hashes []string
	// Groups are the dependency groups this requirement belongs to.
	// Empty means the lock format did not record group membership.
	Groups []string
	// Optional marks extras-only dependencies.
	Optional bool
}

// InGroup reports whether the requirement belongs to the named group.
// Requirements without group metadata belong to every group.
func (r Requirement) InGroup(group string) bool {
	if len(r.Groups) == 0 {
		return true
	}
	for _, g := range r.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// Lockfile is the parsed, tool-independent view of a dependency lock.
type Lockfile struct {
	Source Source
	// RequiresPython is the interpreter constraint recorded in the lock.
	RequiresPython string
	// ContentHash is the lock's self-reported manifest digest, if any.
	ContentHash string
	// Packages are the locked requirements, in file order.
	Packages []Requirement
}

// Get returns the locked requirements matching the (normalized) name.
// Multiple entries occur when a package is marker-split across environments.
func (l *Lockfile) Get(name string) []Requirement {
	name = NormalizeName(name)
	var out []Requirement
	for _, p := range l.Packages {
		if p.Name == name {
			out = append(out, p)
		}
	}
	return out
}

var nameSepRE = regexp.MustCompile(`[-_.]+`)

// NormalizeName applies PEP 503 name normalization: lowercase with runs of
// hyphen, underscore, and period collapsed to a single hyphen.
func NormalizeName(name string) string {
	return nameSepRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

var requirementNameRE = regexp.MustCompile(`^\s*([A-Za-z0-9][A-Za-z0-9._-]*)`)

// RequirementName extracts the normalized package name from a PEP 508
// dependency specifier like "httpx[http2] (>=0.27,<0.28) ; python_version >= '3.8'".
func RequirementName(spec string) string {
	m := requirementNameRE.FindStringSubmatch(spec)
	if m == nil {
		return ""
	}
	return NormalizeName(m[1])
}
