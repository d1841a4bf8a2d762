// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

package lockfile

import (
	"log"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// poetryLock mirrors the TOML structure of poetry.lock (lock-version 2.x).
type poetryLock struct {
	Packages []poetryPackage `toml:"package"`
	Metadata poetryMetadata  `toml:"metadata"`
}

type poetryPackage struct {
	Name     string       `toml:"name"`
	Version  string       `toml:"version"`
	Optional bool         `toml:"optional"`
	Groups   []string     `toml:"groups"`
	Markers  string       `toml:"markers"`
	Files    []poetryFile `toml:"files"`
	Source   poetrySource `toml:"source"`
}

type poetryFile struct {
	File string `toml:"file"`
	Hash string `toml:"hash"`
}

type poetrySource struct {
	Type string `toml:"type"`
	URL  string `toml:"url"`
}

type poetryMetadata struct {
	LockVersion    string `toml:"lock-version"`
	PythonVersions string `toml:"python-versions"`
	ContentHash    string `toml:"content-hash"`
}

// ParsePoetry parses a poetry.lock file.
//
// Packages backed by local sources (type "directory" or "file") cannot be
// expressed in a flat requirements list and are skipped with a warning.
func ParsePoetry(data []byte) (*Lockfile, error) {
	var raw poetryLock
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "decoding poetry.lock")
	}
	if raw.Metadata.LockVersion == "" {
		return nil, errors.New("missing [metadata] lock-version; not a poetry.lock file?")
	}
	if !strings.HasPrefix(raw.Metadata.LockVersion, "2.") {
		return nil, errors.Errorf("unsupported poetry lock-version %q", raw.Metadata.LockVersion)
	}
	lock := &Lockfile{
		Source:         Poetry,
		RequiresPython: raw.Metadata.PythonVersions,
		ContentHash:    raw.Metadata.ContentHash,
	}
	for _, pkg := range raw.Packages {
		if pkg.Name == "" || pkg.Version == "" {
			return nil, errors.Errorf("package entry missing name or version (name=%q)", pkg.Name)
		}
		switch pkg.Source.Type {
		case "directory", "file":
			log.Printf("Skipping local package %s (source type %q)", pkg.Name, pkg.Source.Type)
			continue
		}
		req := Requirement{
			Name:     NormalizeName(pkg.Name),
			Version:  pkg.Version,
			Marker:   pkg.Markers,
			Groups:   pkg.Groups,
			Optional: pkg.Optional,
		}
		for _, f := range pkg.Files {
			if f.Hash == "" {
				continue
			}
			req.Hashes = append(req.Hashes, f.Hash)
		}
		sort.Strings(req.Hashes)
		lock.Packages = append(lock.Packages, req)
	}
	return lock, nil
}
