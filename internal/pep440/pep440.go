// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

// Package pep440 implements parsing and ordering for Python package versions
// as defined by PEP 440.
package pep440

import (
	"cmp"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Version is a parsed PEP 440 version.
//
// Local version labels (the "+foo" suffix) are preserved but ignored for
// ordering, matching pip's behavior for index-sourced distributions.
type Version struct {
	Epoch   int
	Release []int
	// Pre is empty or one of "a", "b", "rc" with PreNum set.
	Pre    string
	PreNum int
	// Post and Dev are -1 when absent.
	Post  int
	Dev   int
	Local string
}

// Adapted from the canonical regex in PEP 440 Appendix B, restricted to
// normalized forms.
var versionRE = regexp.MustCompile(`^v?(?:(?P<epoch>\d+)!)?(?P<release>\d+(?:\.\d+)*)(?:(?P<prelabel>a|b|rc)(?P<prenum>\d+))?(?:\.post(?P<post>\d+))?(?:\.dev(?P<dev>\d+))?(?:\+(?P<local>[a-z0-9]+(?:[._-][a-z0-9]+)*))?$`)

// New parses a normalized PEP 440 version string.
func New(s string) (Version, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	m := versionRE.FindStringSubmatch(s)
	if m == nil {
		return Version{}, errors.Errorf("invalid PEP 440 version %q", s)
	}
	v := Version{Post: -1, Dev: -1}
	if e := m[versionRE.SubexpIndex("epoch")]; e != "" {
		v.Epoch, _ = strconv.Atoi(e)
	}
	for _, part := range strings.Split(m[versionRE.SubexpIndex("release")], ".") {
		n, _ := strconv.Atoi(part)
		v.Release = append(v.Release, n)
	}
	if label := m[versionRE.SubexpIndex("prelabel")]; label != "" {
		v.Pre = label
		v.PreNum, _ = strconv.Atoi(m[versionRE.SubexpIndex("prenum")])
	}
	if p := m[versionRE.SubexpIndex("post")]; p != "" {
		v.Post, _ = strconv.Atoi(p)
	}
	if d := m[versionRE.SubexpIndex("dev")]; d != "" {
		v.Dev, _ = strconv.Atoi(d)
	}
	v.Local = m[versionRE.SubexpIndex("local")]
	return v, nil
}

// String renders the normalized form.
func (v Version) String() string {
	var b strings.Builder
	if v.Epoch != 0 {
		b.WriteString(strconv.Itoa(v.Epoch))
		b.WriteByte('!')
	}
	parts := make([]string, len(v.Release))
	for i, n := range v.Release {
		parts[i] = strconv.Itoa(n)
	}
	b.WriteString(strings.Join(parts, "."))
	if v.Pre != "" {
		b.WriteString(v.Pre)
		b.WriteString(strconv.Itoa(v.PreNum))
	}
	if v.Post >= 0 {
		b.WriteString(".post")
		b.WriteString(strconv.Itoa(v.Post))
	}
	if v.Dev >= 0 {
		b.WriteString(".dev")
		b.WriteString(strconv.Itoa(v.Dev))
	}
	if v.Local != "" {
		b.WriteByte('+')
		b.WriteString(v.Local)
	}
	return b.String()
}

// preKey orders the pre-release segment. A dev release of a bare version
// (X.devN, no pre or post segment) sorts before any pre-release of the same
// release tuple, then a < b < rc < final.
func preKey(v Version) int {
	switch {
	case v.Pre == "" && v.Post < 0 && v.Dev >= 0:
		return 0
	case v.Pre == "a":
		return 1
	case v.Pre == "b":
		return 2
	case v.Pre == "rc":
		return 3
	default:
		return 4
	}
}

// Compare returns -1, 0, or 1 ordering a relative to b per PEP 440.
func Compare(a, b Version) int {
	if c := cmp.Compare(a.Epoch, b.Epoch); c != 0 {
		return c
	}
	if c := compareRelease(a.Release, b.Release); c != 0 {
		return c
	}
	if c := cmp.Compare(preKey(a), preKey(b)); c != 0 {
		return c
	}
	if a.Pre != "" {
		if c := cmp.Compare(a.PreNum, b.PreNum); c != 0 {
			return c
		}
	}
	if c := cmp.Compare(a.Post, b.Post); c != 0 {
		return c
	}
	// A dev release sorts before the corresponding non-dev release.
	aDev, bDev := a.Dev, b.Dev
	if aDev < 0 {
		aDev = int(^uint(0) >> 1)
	}
	if bDev < 0 {
		bDev = int(^uint(0) >> 1)
	}
	return cmp.Compare(aDev, bDev)
}

// Cmp compares two version strings, returning an error if either fails to parse.
func Cmp(a, b string) (int, error) {
	av, err := New(a)
	if err != nil {
		return 0, err
	}
	bv, err := New(b)
	if err != nil {
		return 0, err
	}
	return Compare(av, bv), nil
}

func compareRelease(a, b []int) int {
	for i := 0; i < max(len(a), len(b)); i++ {
		var an, bn int
		if i < len(a) {
			an = a[i]
		}
		if i < len(b) {
			bn = b[i]
		}
		if c := cmp.Compare(an, bn); c != 0 {
			return c
		}
	}
	return 0
}
