// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

package lockfile

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

const uvLockFixture = `
version = 1
requires-python = ">=3.12"

[[package]]
name = "myapp"
version = "0.1.0"
source = { virtual = "." }
dependencies = [
    { name = "httpx" },
]

[package.dev-dependencies]
dev = [
    { name = "pytest" },
]

[[package]]
name = "pytest"
version = "8.1.1"
source = { registry = "https://pypi.org/simple" }
wheels = [
    { url = "https://files.pythonhosted.org/packages/pytest-8.1.1-py3-none-any.whl", hash = "sha256:2a8386cfc11fa9d2c50ee7b2a57e7d898ef90470a7a34c4b949ff59662bb78b7", size = 337431 },
]

[[package]]
name = "httpx"
version = "0.27.0"
source = { registry = "https://pypi.org/simple" }
dependencies = [
    { name = "certifi" },
]
sdist = { url = "https://files.pythonhosted.org/packages/httpx-0.27.0.tar.gz", hash = "sha256:a0cb88a46f32dc874e04ee956e4c2764aba2aa228f650b06788ba6bda2962ab5", size = 126413 }
wheels = [
    { url = "https://files.pythonhosted.org/packages/httpx-0.27.0-py3-none-any.whl", hash = "sha256:71d5465162c13681bff01ad59b2cc68dd838ea1f10e51574bac27103f00c91a5", size = 75590 },
]

[[package]]
name = "certifi"
version = "2024.2.2"
source = { registry = "https://pypi.org/simple" }
wheels = [
    { url = "https://files.pythonhosted.org/packages/certifi-2024.2.2-py3-none-any.whl", hash = "sha256:dc383c07b76109f368f6106eee2b593b04a011ea4d55f652c6ca24a754d1cdd1", size = 163774 },
]
`

func TestParseUV(t *testing.T) {
	lock, err := ParseUV([]byte(uvLockFixture))
	if err != nil {
		t.Fatalf("ParseUV: %v", err)
	}
	want := &Lockfile{
		Source:         UV,
		RequiresPython: ">=3.12",
		Packages: []Requirement{
			{
				Name:    "pytest",
				Version: "8.1.1",
				Groups:  []string{"dev"},
				Hashes: []string{
					"sha256:2a8386cfc11fa9d2c50ee7b2a57e7d898ef90470a7a34c4b949ff59662bb78b7",
				},
			},
			{
				Name:    "httpx",
				Version: "0.27.0",
				Groups:  []string{"main"},
				Hashes: []string{
					"sha256:71d5465162c13681bff01ad59b2cc68dd838ea1f10e51574bac27103f00c91a5",
					"sha256:a0cb88a46f32dc874e04ee956e4c2764aba2aa228f650b06788ba6bda2962ab5",
				},
			},
			{
				Name:    "certifi",
				Version: "2024.2.2",
				Groups:  []string{"main"},
				Hashes: []string{
					"sha256:dc383c07b76109f368f6106eee2b593b04a011ea4d55f652c6ca24a754d1cdd1",
				},
			},
		},
	}
	if diff := cmp.Diff(want, lock); diff != "" {
		t.Errorf("ParseUV mismatch (-want +got):\n%s", diff)
	}
}

func TestParseUVGroupBlindWithoutRoot(t *testing.T) {
	const fixture = `
version = 1

[[package]]
name = "certifi"
version = "2024.2.2"
source = { registry = "https://pypi.org/simple" }
`
	lock, err := ParseUV([]byte(fixture))
	if err != nil {
		t.Fatalf("ParseUV: %v", err)
	}
	if got := lock.Packages[0].Groups; got != nil {
		t.Errorf("Groups = %v, want nil without a root package", got)
	}
}

func TestParseUVRejectsUnknownVersion(t *testing.T) {
	if _, err := ParseUV([]byte("version = 2\n")); err == nil {
		t.Fatal("ParseUV accepted version 2")
	}
}

func TestParseDispatch(t *testing.T) {
	if _, err := Parse("project/uv.lock", []byte(uvLockFixture)); err != nil {
		t.Errorf("Parse(uv.lock): %v", err)
	}
	if _, err := Parse("project/poetry.lock", []byte(poetryLockFixture)); err != nil {
		t.Errorf("Parse(poetry.lock): %v", err)
	}
	if _, err := Parse("project/Pipfile.lock", nil); err == nil {
		t.Error("Parse accepted unrecognized lock file name")
	}
}
