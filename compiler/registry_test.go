// Copyright 2024 The solcd Authors
// This file is part of the solcd library.
//
// The solcd library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The solcd library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the solcd library. If not, see <http://www.gnu.org/licenses/>.

package compiler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/require"
)

// newTestIndex serves a platform index plus one downloadable build.
func newTestIndex(t *testing.T, indexHits *atomic.Int32) (*httptest.Server, Config) {
	t.Helper()
	const artifact = "solc-linux-amd64-v0.8.24+commit.e11b9ed9"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/linux-amd64/list.json":
			if indexHits != nil {
				indexHits.Add(1)
			}
			fmt.Fprintf(w, `{"releases": {"0.8.24": %q}, "latestRelease": "0.8.24"}`, artifact)
		case "/linux-amd64/" + artifact:
			fmt.Fprint(w, "#!/bin/sh\nexit 0\n")
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	cfg := Config{
		ListURL:  srv.URL,
		Platform: "linux-amd64",
		CacheDir: t.TempDir(),
	}
	return srv, cfg
}

func TestRegistrySemverLookup(t *testing.T) {
	_, cfg := newTestIndex(t, nil)
	r := NewRegistry(cfg, nil, nil)

	solc, err := r.Solc(context.Background(), "0.8.24")
	require.NoError(t, err)
	require.Equal(t, "0.8.24+commit.e11b9ed9", solc.Version)

	// The build landed in the cache dir and is marked executable.
	info, err := os.Stat(solc.Path)
	require.NoError(t, err)
	require.NotZero(t, info.Mode()&0100)
}

func TestRegistryUnknownSemver(t *testing.T) {
	_, cfg := newTestIndex(t, nil)
	r := NewRegistry(cfg, nil, nil)

	_, err := r.Solc(context.Background(), "0.4.11")
	var uve *UnsupportedVersionError
	require.ErrorAs(t, err, &uve)
	require.Equal(t, "0.4.11", uve.Selector)
}

func TestRegistryBadSelector(t *testing.T) {
	_, cfg := newTestIndex(t, nil)
	r := NewRegistry(cfg, nil, nil)
	for _, sel := range []string{"latest", "0.8", "v0.8.24+commit.zzz.junk", "8.24"} {
		_, err := r.Solc(context.Background(), sel)
		var uve *UnsupportedVersionError
		require.ErrorAs(t, err, &uve, "selector %q", sel)
	}
}

func TestRegistryFullBuildTag(t *testing.T) {
	_, cfg := newTestIndex(t, nil)
	r := NewRegistry(cfg, nil, nil)

	solc, err := r.Solc(context.Background(), "v0.8.24+commit.e11b9ed9")
	require.NoError(t, err)
	require.Equal(t, "0.8.24+commit.e11b9ed9", solc.Version)
}

// A request waiting on the cache lock gives up when its deadline expires
// instead of blocking until a concurrent download finishes.
func TestRegistryLockHonorsDeadline(t *testing.T) {
	_, cfg := newTestIndex(t, nil)
	r := NewRegistry(cfg, nil, nil)

	lock := flock.New(filepath.Join(cfg.CacheDir, ".lock"))
	locked, err := lock.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer lock.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_, err = r.Solc(ctx, "v0.8.24+commit.e11b9ed9")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

// The version index is cached: repeated lookups within the TTL hit the remote
// index once.
func TestRegistryIndexCached(t *testing.T) {
	var hits atomic.Int32
	_, cfg := newTestIndex(t, &hits)
	r := NewRegistry(cfg, nil, nil)

	for i := 0; i < 3; i++ {
		_, err := r.Solc(context.Background(), "0.8.24")
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), hits.Load())
}

func TestRegistryVersions(t *testing.T) {
	cacheDir := t.TempDir()
	for _, name := range []string{
		"solc-linux-amd64-v0.8.24+commit.e11b9ed9",
		"solc-linux-amd64-v0.7.6+commit.7338295f",
	} {
		require.NoError(t, os.WriteFile(cacheDir+"/"+name, []byte("x"), 0755))
	}
	r := NewRegistry(Config{CacheDir: cacheDir, SolcPath: "/nonexistent/solc"}, nil, nil)

	versions, err := r.Versions(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"0.7.6+commit.7338295f", "0.8.24+commit.e11b9ed9"}, versions)
}

func TestIsSemanticVersion(t *testing.T) {
	require.True(t, isSemanticVersion("0.8.24"))
	require.False(t, isSemanticVersion("0.8.24+commit.e11b9ed9"))
	require.False(t, isSemanticVersion("latest"))
	require.False(t, isSemanticVersion(""))
}
