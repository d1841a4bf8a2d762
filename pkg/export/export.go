// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

// Package export flattens a dependency lock into a pinned requirements
// manifest suitable for `pip install -r`.
package export

import (
	"fmt"
	"io"
	"log"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/pybake/pybake/pkg/lockfile"
)

// DefaultGroup is the dependency group exported when none are specified.
const DefaultGroup = "main"

// Options controls which part of the lock is exported and how.
type Options struct {
	// Groups selects the dependency groups to include. Defaults to ["main"].
	Groups []string
	// WithHashes emits --hash annotations for every requirement.
	WithHashes bool
	// AllowMissingHashes downgrades an export where some requirement lacks
	// digests to an unhashed manifest instead of failing. pip rejects
	// requirement files that mix hashed and unhashed entries.
	AllowMissingHashes bool
	// IndexURL, when set, is emitted as an --index-url header line.
	IndexURL string
}

// Entry is one rendered requirement line.
type Entry struct {
	Name    string
	Version string
	Marker  string
	Hashes  []string
}

// Manifest is a deterministic, flat requirements list.
type Manifest struct {
	IndexURL string
	// Hashed reports whether entries carry digests; it decides whether
	// installs can run with --require-hashes.
	Hashed  bool
	Entries []Entry
}

// FromLock flattens the lock into a Manifest.
//
// The result is deterministic: entries are sorted by name, version, and
// marker, and digests within an entry are sorted.
func FromLock(lock *lockfile.Lockfile, opts Options) (*Manifest, error) {
	groups := opts.Groups
	if len(groups) == 0 {
		groups = []string{DefaultGroup}
	}
	m := &Manifest{IndexURL: opts.IndexURL, Hashed: opts.WithHashes}
	for _, req := range lock.Packages {
		if !inAnyGroup(req, groups) {
			continue
		}
		entry := Entry{
			Name:    req.Name,
			Version: req.Version,
			Marker:  req.Marker,
		}
		if opts.WithHashes {
			if len(req.Hashes) == 0 {
				if !opts.AllowMissingHashes {
					return nil, errors.Errorf("no digests recorded for %s==%s; re-lock or pass AllowMissingHashes", req.Name, req.Version)
				}
				log.Printf("No digests for %s==%s; exporting without hashes", req.Name, req.Version)
				m.Hashed = false
			}
			entry.Hashes = append([]string(nil), req.Hashes...)
		}
		m.Entries = append(m.Entries, entry)
	}
	if !m.Hashed {
		for i := range m.Entries {
			m.Entries[i].Hashes = nil
		}
	}
	sort.Slice(m.Entries, func(i, j int) bool {
		a, b := m.Entries[i], m.Entries[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.Version != b.Version {
			return a.Version < b.Version
		}
		return a.Marker < b.Marker
	})
	return m, nil
}

func inAnyGroup(req lockfile.Requirement, groups []string) bool {
	for _, g := range groups {
		if req.InGroup(g) {
			return true
		}
	}
	return false
}

// CheckProject verifies that every dependency the project manifest declares
// in the selected groups resolves to a locked version.
func CheckProject(lock *lockfile.Lockfile, proj *lockfile.Project, groups []string) error {
	if len(groups) == 0 {
		groups = []string{DefaultGroup}
	}
	var missing []string
	check := func(name string) {
		if name == "" {
			return
		}
		if len(lock.Get(name)) == 0 {
			missing = append(missing, name)
		}
	}
	for _, g := range groups {
		if g == DefaultGroup {
			for _, dep := range proj.Dependencies {
				check(dep)
			}
			continue
		}
		for _, dep := range proj.Groups[g] {
			check(dep)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return errors.Errorf("declared dependencies absent from lock: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Render writes the manifest in requirements.txt syntax.
func (m *Manifest) Render(w io.Writer) error {
	if m.IndexURL != "" {
		if _, err := fmt.Fprintf(w, "--index-url %s\n", m.IndexURL); err != nil {
			return err
		}
	}
	for _, e := range m.Entries {
		line := fmt.Sprintf("%s==%s", e.Name, e.Version)
		if e.Marker != "" {
			line += " ; " + e.Marker
		}
		if len(e.Hashes) > 0 {
			line += " \\"
			for i, h := range e.Hashes {
				cont := " \\"
				if i == len(e.Hashes)-1 {
					cont = ""
				}
				line += fmt.Sprintf("\n    --hash=%s%s", h, cont)
			}
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// String renders the manifest to a string.
func (m *Manifest) String() string {
	var b strings.Builder
	m.Render(&b) // strings.Builder writes cannot fail
	return b.String()
}
