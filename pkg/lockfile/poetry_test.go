// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

package lockfile

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

const poetryLockFixture = `
[[package]]
name = "Loguru"
version = "0.7.2"
description = "Python logging made (stupidly) simple"
optional = false
python-versions = ">=3.5"
groups = ["main"]
files = [
    {file = "loguru-0.7.2-py3-none-any.whl", hash = "sha256:003d71e3d3ed35f0f8984898359d65b79e5b21943f78af86aa5491210429b8eb"},
    {file = "loguru-0.7.2.tar.gz", hash = "sha256:e671a53522515f34fd406340ee968cb9ecafbc4b36c679da03c18fd8d0bd51ac"},
]

[[package]]
name = "colorama"
version = "0.4.6"
description = "Cross-platform colored terminal text."
optional = false
python-versions = "!=3.0.*,!=3.1.*,!=3.2.*,!=3.3.*,!=3.4.*,!=3.5.*,!=3.6.*,>=2.7"
groups = ["main"]
markers = "sys_platform == \"win32\""
files = [
    {file = "colorama-0.4.6-py2.py3-none-any.whl", hash = "sha256:4f1d9991f5acc0ca119f9d443620b77f9d6b33703e51011c16baf57afb285fc6"},
]

[[package]]
name = "pytest"
version = "8.0.0"
description = "pytest: simple powerful testing with Python"
optional = false
python-versions = ">=3.8"
groups = ["dev"]
files = [
    {file = "pytest-8.0.0-py3-none-any.whl", hash = "sha256:50fb9cbe836c3f20f0dfa99c565201fb75dc54c8d76373cd1bde06b06657bdb6"},
]

[[package]]
name = "myapp-helper"
version = "0.1.0"
description = ""
optional = false
python-versions = ">=3.12"
groups = ["main"]
files = []

[package.source]
type = "directory"
url = "helper"

[metadata]
lock-version = "2.1"
python-versions = "^3.12"
content-hash = "a8e72f4bb8cf0c17b50ef6cc668dd454d7a5a294b357e0a8d2751d1079f87a6b"
`

func TestParsePoetry(t *testing.T) {
	lock, err := ParsePoetry([]byte(poetryLockFixture))
	if err != nil {
		t.Fatalf("ParsePoetry: %v", err)
	}
	want := &Lockfile{
		Source:         Poetry,
		RequiresPython: "^3.12",
		ContentHash:    "a8e72f4bb8cf0c17b50ef6cc668dd454d7a5a294b357e0a8d2751d1079f87a6b",
		Packages: []Requirement{
			{
				Name:    "loguru",
				Version: "0.7.2",
				Groups:  []string{"main"},
				Hashes: []string{
					"sha256:003d71e3d3ed35f0f8984898359d65b79e5b21943f78af86aa5491210429b8eb",
					"sha256:e671a53522515f34fd406340ee968cb9ecafbc4b36c679da03c18fd8d0bd51ac",
				},
			},
			{
				Name:    "colorama",
				Version: "0.4.6",
				Marker:  `sys_platform == "win32"`,
				Groups:  []string{"main"},
				Hashes: []string{
					"sha256:4f1d9991f5acc0ca119f9d443620b77f9d6b33703e51011c16baf57afb285fc6",
				},
			},
			{
				Name:    "pytest",
				Version: "8.0.0",
				Groups:  []string{"dev"},
				Hashes: []string{
					"sha256:50fb9cbe836c3f20f0dfa99c565201fb75dc54c8d76373cd1bde06b06657bdb6",
				},
			},
		},
	}
	if diff := cmp.Diff(want, lock); diff != "" {
		t.Errorf("ParsePoetry mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePoetryRejectsUnknownVersion(t *testing.T) {
	input := `
[metadata]
lock-version = "1.1"
`
	if _, err := ParsePoetry([]byte(input)); err == nil {
		t.Fatal("ParsePoetry accepted lock-version 1.1")
	}
}

func TestParsePoetryRejectsMissingMetadata(t *testing.T) {
	if _, err := ParsePoetry([]byte(`[[package]]` + "\n" + `name = "x"` + "\n" + `version = "1"`)); err == nil {
		t.Fatal("ParsePoetry accepted file without metadata")
	}
}

func TestNormalizeName(t *testing.T) {
	for _, tc := range []struct{ in, want string }{
		{"Django", "django"},
		{"foo_bar", "foo-bar"},
		{"foo.bar", "foo-bar"},
		{"foo--bar", "foo-bar"},
		{"  Typing_Extensions ", "typing-extensions"},
	} {
		if got := NormalizeName(tc.in); got != tc.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRequirementName(t *testing.T) {
	for _, tc := range []struct{ in, want string }{
		{"httpx", "httpx"},
		{"httpx[http2] (>=0.27,<0.28)", "httpx"},
		{`loguru>=0.7 ; python_version >= "3.8"`, "loguru"},
		{"Pyrogram==2.0.106", "pyrogram"},
		{"", ""},
	} {
		if got := RequirementName(tc.in); got != tc.want {
			t.Errorf("RequirementName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
