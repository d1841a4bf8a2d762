// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

// Package pypi describes the PyPI registry interface.
package pypi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/pkg/errors"

	"github.com/pybake/pybake/internal/httpx"
)

var registryURL = mustParse("https://pypi.org")

func mustParse(s string) *url.URL {
	u, err := url.Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

// Project describes a single PyPI project with multiple releases.
type Project struct {
	Info     `json:"info"`
	Releases map[string][]Artifact `json:"releases"`
}

// Release describes a single PyPI project version with multiple artifacts.
type Release struct {
	Info      `json:"info"`
	Artifacts []Artifact `json:"urls"`
}

// Info about a project.
type Info struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	RequiresPython string `json:"requires_python"`
	Yanked         bool   `json:"yanked"`
}

// An Artifact is one of the files published for a release.
type Artifact struct {
	Digests       `json:"digests"`
	Filename      string    `json:"filename"`
	Size          int64     `json:"size"`
	PackageType   string    `json:"packagetype"`
	PythonVersion string    `json:"python_version"`
	URL           string    `json:"url"`
	UploadTime    time.Time `json:"upload_time_iso_8601"`
}

// Digests are the hashes of the artifact.
type Digests struct {
	MD5    string `json:"md5"`
	SHA256 string `json:"sha256"`
}

// HasSHA256 reports whether any artifact of the release carries the given
// hex-encoded sha256 digest.
func (r *Release) HasSHA256(digest string) bool {
	for _, a := range r.Artifacts {
		if a.SHA256 == digest {
			return true
		}
	}
	return false
}

// Registry is a PyPI package registry.
type Registry interface {
	Project(context.Context, string) (*Project, error)
	Release(context.Context, string, string) (*Release, error)
}

// HTTPRegistry is a Registry implementation that uses the pypi.org JSON API.
type HTTPRegistry struct {
	Client httpx.BasicClient
}

var _ Registry = &HTTPRegistry{}

// Project provides all API information related to the given package.
func (r HTTPRegistry) Project(ctx context.Context, pkg string) (*Project, error) {
	var p Project
	if err := r.getJSON(ctx, path.Join("/pypi", pkg, "json"), &p); err != nil {
		return nil, errors.Wrap(err, "fetching project")
	}
	return &p, nil
}

// Release provides all API information related to the given version of a package.
func (r HTTPRegistry) Release(ctx context.Context, pkg, version string) (*Release, error) {
	var rel Release
	if err := r.getJSON(ctx, path.Join("/pypi", pkg, version, "json"), &rel); err != nil {
		return nil, errors.Wrap(err, "fetching release")
	}
	return &rel, nil
}

func (r HTTPRegistry) getJSON(ctx context.Context, p string, out any) error {
	pathURL, err := url.Parse(p)
	if err != nil {
		return err
	}
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, registryURL.ResolveReference(pathURL).String(), nil)
	resp, err := r.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return errors.New(resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
