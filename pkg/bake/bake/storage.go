// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

package bake

import (
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"net/url"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/pkg/errors"
)

// AssetType is the type of an artifact produced while assembling an image.
type AssetType string

func (a AssetType) For(app, bakeID string) Asset {
	return Asset{Type: a, App: app, BakeID: bakeID}
}

const (
	// RequirementsAsset is the exported dependency manifest.
	RequirementsAsset AssetType = "requirements.txt"
	// DockerfileAsset is the generated assembly Dockerfile.
	DockerfileAsset AssetType = "Dockerfile"
	// BuildLogAsset is the captured image build output.
	BuildLogAsset AssetType = "build.log"
	// ImageAsset is the exported container image.
	ImageAsset AssetType = "image.tgz"
	// InitBinaryAsset is the prefetched init wrapper binary.
	InitBinaryAsset AssetType = "dumb-init"
)

// ErrAssetNotFound indicates the asset requested to be read could not be found.
var ErrAssetNotFound = errors.New("asset not found")

// Asset identifies one artifact of one assembly run.
type Asset struct {
	Type   AssetType
	App    string
	BakeID string
}

func assetPath(a Asset) []string {
	return []string{a.App, a.BakeID, string(a.Type)}
}

// ReadOnlyAssetStore is a storage mechanism for assembly artifacts.
type ReadOnlyAssetStore interface {
	Reader(ctx context.Context, a Asset) (io.ReadCloser, error)
}

// AssetStore is a read-write storage mechanism for assembly artifacts.
type AssetStore interface {
	ReadOnlyAssetStore
	Writer(ctx context.Context, a Asset) (io.WriteCloser, error)
}

// LocatableAssetStore is an asset store whose assets can be identified with a URL.
type LocatableAssetStore interface {
	AssetStore
	URL(a Asset) *url.URL
}

// FilesystemAssetStore stores assets in a billy.Filesystem.
type FilesystemAssetStore struct {
	fs billy.Filesystem
}

func (s *FilesystemAssetStore) resourcePath(a Asset) string {
	return filepath.Join(assetPath(a)...)
}

func (s *FilesystemAssetStore) URL(a Asset) *url.URL {
	return &url.URL{Scheme: "file", Path: filepath.Join(s.fs.Root(), s.resourcePath(a))}
}

// Reader returns a reader for the given asset.
func (s *FilesystemAssetStore) Reader(ctx context.Context, a Asset) (io.ReadCloser, error) {
	path := s.resourcePath(a)
	f, err := s.fs.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = stderrors.Join(err, ErrAssetNotFound)
		}
		return nil, errors.Wrapf(err, "creating reader for %v", a)
	}
	return f, nil
}

// Writer returns a writer for the given asset.
func (s *FilesystemAssetStore) Writer(ctx context.Context, a Asset) (io.WriteCloser, error) {
	path := s.resourcePath(a)
	f, err := s.fs.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "creating writer for %v", a)
	}
	return f, nil
}

var _ LocatableAssetStore = &FilesystemAssetStore{}

// NewFilesystemAssetStore creates a new FilesystemAssetStore.
func NewFilesystemAssetStore(fs billy.Filesystem) *FilesystemAssetStore {
	return &FilesystemAssetStore{fs: fs}
}
