// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

package pypi

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pybake/pybake/internal/httpx/httpxtest"
)

func TestHTTPRegistryRelease(t *testing.T) {
	for _, tc := range []struct {
		name        string
		pkg         string
		version     string
		call        httpxtest.Call
		want        *Release
		wantErrLike string
	}{
		{
			name:    "success",
			pkg:     "loguru",
			version: "0.7.2",
			call: httpxtest.Call{
				URL: "https://pypi.org/pypi/loguru/0.7.2/json",
				Response: &http.Response{
					StatusCode: 200,
					Body: httpxtest.Body(`{
						"info": {"name": "loguru", "version": "0.7.2"},
						"urls": [
							{"filename": "loguru-0.7.2-py3-none-any.whl", "digests": {"sha256": "003d71e3d3ed35f0f8984898359d65b79e5b21943f78af86aa5491210429b8eb"}}
						]
					}`),
				},
			},
			want: &Release{
				Info: Info{Name: "loguru", Version: "0.7.2"},
				Artifacts: []Artifact{
					{
						Filename: "loguru-0.7.2-py3-none-any.whl",
						Digests:  Digests{SHA256: "003d71e3d3ed35f0f8984898359d65b79e5b21943f78af86aa5491210429b8eb"},
					},
				},
			},
		},
		{
			name:    "not found",
			pkg:     "does-not-exist",
			version: "1.0.0",
			call: httpxtest.Call{
				URL:      "https://pypi.org/pypi/does-not-exist/1.0.0/json",
				Response: &http.Response{StatusCode: 404, Status: "404 Not Found", Body: httpxtest.Body("")},
			},
			wantErrLike: "404 Not Found",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			reg := HTTPRegistry{Client: &httpxtest.MockClient{
				Calls:        []httpxtest.Call{tc.call},
				URLValidator: httpxtest.NewURLValidator(t),
			}}
			got, err := reg.Release(context.Background(), tc.pkg, tc.version)
			if tc.wantErrLike != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErrLike) {
					t.Fatalf("Release err = %v, want containing %q", err, tc.wantErrLike)
				}
				return
			}
			if err != nil {
				t.Fatalf("Release: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Release mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHTTPRegistryProject(t *testing.T) {
	reg := HTTPRegistry{Client: &httpxtest.MockClient{
		Calls: []httpxtest.Call{{
			URL: "https://pypi.org/pypi/httpx/json",
			Response: &http.Response{
				StatusCode: 200,
				Body: httpxtest.Body(`{
					"info": {"name": "httpx", "version": "0.27.0"},
					"releases": {"0.27.0": [{"filename": "httpx-0.27.0-py3-none-any.whl"}]}
				}`),
			},
		}},
		URLValidator: httpxtest.NewURLValidator(t),
	}}
	got, err := reg.Project(context.Background(), "httpx")
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	want := &Project{
		Info: Info{Name: "httpx", Version: "0.27.0"},
		Releases: map[string][]Artifact{
			"0.27.0": {{Filename: "httpx-0.27.0-py3-none-any.whl"}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Project mismatch (-want +got):\n%s", diff)
	}
}

func TestReleaseHasSHA256(t *testing.T) {
	r := &Release{Artifacts: []Artifact{{Digests: Digests{SHA256: "abc"}}, {Digests: Digests{SHA256: "def"}}}}
	if !r.HasSHA256("def") {
		t.Error("HasSHA256(def) = false, want true")
	}
	if r.HasSHA256("zzz") {
		t.Error("HasSHA256(zzz) = true, want false")
	}
}
