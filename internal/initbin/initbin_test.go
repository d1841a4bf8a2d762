// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

package initbin

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/pybake/pybake/internal/httpx/httpxtest"
)

func TestReleaseFor(t *testing.T) {
	r, err := ReleaseFor("1.2.5", "x86_64")
	if err != nil {
		t.Fatalf("ReleaseFor() error = %v", err)
	}
	wantURL := "https://github.com/Yelp/dumb-init/releases/download/v1.2.5/dumb-init_1.2.5_x86_64"
	if r.URL() != wantURL {
		t.Errorf("URL() = %q, want %q", r.URL(), wantURL)
	}
	if _, err := ReleaseFor("9.9.9", "x86_64"); err == nil {
		t.Error("ReleaseFor() expected error for unknown version")
	}
}

func TestFetch(t *testing.T) {
	payload := []byte("\x7fELF not really an init binary")
	digest := sha256.Sum256(payload)
	release := Release{Version: "1.2.5", Arch: "x86_64", SHA256: hex.EncodeToString(digest[:])}
	client := &httpxtest.MockClient{
		Calls: []httpxtest.Call{{
			Method: http.MethodGet,
			URL:    release.URL(),
			Response: &http.Response{
				StatusCode:    200,
				Status:        "200 OK",
				ContentLength: int64(len(payload)),
				Body:          io.NopCloser(bytes.NewReader(payload)),
			},
		}},
		URLValidator: httpxtest.NewURLValidator(t),
	}
	var buf bytes.Buffer
	if err := Fetch(context.Background(), client, release, &buf, FetchOptions{}); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !bytes.Equal(buf.Bytes(), payload) {
		t.Errorf("Fetch() wrote %d bytes, want %d", buf.Len(), len(payload))
	}
}

func TestFetchChecksumMismatch(t *testing.T) {
	release := Release{Version: "1.2.5", Arch: "x86_64", SHA256: strings.Repeat("0", 64)}
	client := &httpxtest.MockClient{
		Calls: []httpxtest.Call{{
			Method: http.MethodGet,
			URL:    release.URL(),
			Response: &http.Response{
				StatusCode: 200,
				Status:     "200 OK",
				Body:       httpxtest.Body("corrupted"),
			},
		}},
		URLValidator: httpxtest.NewURLValidator(t),
	}
	err := Fetch(context.Background(), client, release, io.Discard, FetchOptions{})
	if err == nil || !strings.Contains(err.Error(), "checksum mismatch") {
		t.Errorf("Fetch() error = %v, want checksum mismatch", err)
	}
}

func TestFetchHTTPError(t *testing.T) {
	release := DefaultRelease()
	client := &httpxtest.MockClient{
		Calls: []httpxtest.Call{{
			Method: http.MethodGet,
			URL:    release.URL(),
			Response: &http.Response{
				StatusCode: 404,
				Status:     "404 Not Found",
				Body:       httpxtest.Body(""),
			},
		}},
		URLValidator: httpxtest.NewURLValidator(t),
	}
	err := Fetch(context.Background(), client, release, io.Discard, FetchOptions{})
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("Fetch() error = %v, want 404", err)
	}
}
