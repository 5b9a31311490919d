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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	goversion "github.com/hashicorp/go-version"
	"github.com/sunyihoo/solcd/common/lru"
	"github.com/sunyihoo/solcd/log"
)

// Config holds the compiler selection policy, immutable after startup.
type Config struct {
	// SolcPath is the compiler used when a request names no version.
	// Empty means "solc" from PATH.
	SolcPath string

	// CacheDir is where downloaded compiler builds are stored.
	CacheDir string

	// ListURL is the base URL of the build index,
	// e.g. "https://binaries.soliditylang.org".
	ListURL string

	// Platform overrides the build platform directory. Empty derives it
	// from the runtime, e.g. "linux-amd64".
	Platform string

	// IndexTTL bounds how long a fetched version index is reused.
	IndexTTL time.Duration
}

// DefaultConfig contains the default compiler policy of solcd.
var DefaultConfig = Config{
	ListURL:  "https://binaries.soliditylang.org",
	IndexTTL: time.Hour,
}

// buildTagPattern matches a full build identifier like
// "v0.8.24+commit.e11b9ed9", with or without the leading v.
var buildTagPattern = regexp.MustCompile(`^v?\d+\.\d+\.\d+\+commit\.[0-9a-f]+$`)

// versionPattern extracts a build tag out of solc's --version output or an
// artifact file name.
var versionPattern = regexp.MustCompile(`\d+\.\d+\.\d+\+commit\.[0-9a-f]+`)

// versionIndex is the decoded list.json of one platform directory.
type versionIndex struct {
	Releases      map[string]string `json:"releases"`
	LatestRelease string            `json:"latestRelease"`

	fetchedAt time.Time
}

// Registry resolves compiler version selectors to runnable solc executables,
// downloading release builds into a local cache on first use.
type Registry struct {
	cfg    Config
	client *http.Client
	log    log.Logger

	mu       sync.Mutex
	index    lru.BasicLRU[string, *versionIndex]
	reported map[string]string // executable path -> reported build tag
}

// NewRegistry creates a compiler registry. A nil client selects a default
// HTTP client; a nil logger discards output.
func NewRegistry(cfg Config, client *http.Client, logger log.Logger) *Registry {
	if cfg.ListURL == "" {
		cfg.ListURL = DefaultConfig.ListURL
	}
	if cfg.IndexTTL <= 0 {
		cfg.IndexTTL = DefaultConfig.IndexTTL
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(os.TempDir(), "solcd-compilers")
	}
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	if logger == nil {
		logger = log.Root()
	}
	return &Registry{
		cfg:      cfg,
		client:   client,
		log:      logger,
		index:    lru.NewBasicLRU[string, *versionIndex](4),
		reported: make(map[string]string),
	}
}

// Solc resolves a version selector to a compiler executable. An empty
// selector picks the bundled default; a full build tag is used directly; a
// plain semantic version is looked up in the build index. Anything else, and
// any semantic version absent from the index, fails with
// UnsupportedVersionError.
func (r *Registry) Solc(ctx context.Context, selector string) (*Solc, error) {
	switch {
	case selector == "":
		return r.defaultSolc(ctx)

	case buildTagPattern.MatchString(selector):
		tag := strings.TrimPrefix(selector, "v")
		return r.ensureBuild(ctx, "solc-"+r.platform()+"-v"+tag)

	case isSemanticVersion(selector):
		idx, err := r.lookupIndex(ctx)
		if err != nil {
			return nil, err
		}
		artifact, ok := idx.Releases[selector]
		if !ok {
			return nil, &UnsupportedVersionError{Selector: selector}
		}
		return r.ensureBuild(ctx, artifact)

	default:
		return nil, &UnsupportedVersionError{Selector: selector}
	}
}

// Compile resolves the selector and runs the document through the resulting
// compiler. It is the single entry point the HTTP front-end uses.
func (r *Registry) Compile(ctx context.Context, doc *Document, selector string) (*Result, error) {
	solc, err := r.Solc(ctx, selector)
	if err != nil {
		return nil, err
	}
	return solc.Run(ctx, doc)
}

// Versions lists the build tags available without a download: the cached
// builds plus the default compiler, sorted ascending.
func (r *Registry) Versions(ctx context.Context) ([]string, error) {
	tags := make(map[string]struct{})
	entries, err := os.ReadDir(r.cfg.CacheDir)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	for _, e := range entries {
		if tag := versionPattern.FindString(e.Name()); tag != "" {
			tags[tag] = struct{}{}
		}
	}
	if solc, err := r.defaultSolc(ctx); err == nil {
		tags[solc.Version] = struct{}{}
	}

	parsed := make(goversion.Collection, 0, len(tags))
	byCore := make(map[string]string, len(tags))
	for tag := range tags {
		v, err := goversion.NewVersion(strings.SplitN(tag, "+", 2)[0])
		if err != nil {
			continue
		}
		parsed = append(parsed, v)
		byCore[v.String()] = tag
	}
	sort.Sort(parsed)
	out := make([]string, 0, len(parsed))
	for _, v := range parsed {
		out = append(out, byCore[v.String()])
	}
	return out, nil
}

// defaultSolc returns the bundled compiler, probing its version once and
// memoizing the answer.
func (r *Registry) defaultSolc(ctx context.Context) (*Solc, error) {
	path := r.cfg.SolcPath
	if path == "" {
		path = "solc"
	}
	r.mu.Lock()
	tag, ok := r.reported[path]
	r.mu.Unlock()
	if !ok {
		out, err := exec.CommandContext(ctx, path, "--version").Output()
		if err != nil {
			return nil, fmt.Errorf("probing default compiler %q: %w", path, err)
		}
		tag = versionPattern.FindString(string(out))
		if tag == "" {
			return nil, fmt.Errorf("cannot parse version of default compiler %q", path)
		}
		r.mu.Lock()
		r.reported[path] = tag
		r.mu.Unlock()
	}
	return &Solc{Path: path, Version: tag}, nil
}

// lookupIndex returns the platform's version index, refetching it when the
// cached copy is older than the configured TTL.
func (r *Registry) lookupIndex(ctx context.Context) (*versionIndex, error) {
	platform := r.platform()
	r.mu.Lock()
	if idx, ok := r.index.Get(platform); ok && time.Since(idx.fetchedAt) < r.cfg.IndexTTL {
		r.mu.Unlock()
		return idx, nil
	}
	r.mu.Unlock()

	url := r.cfg.ListURL + "/" + platform + "/list.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching compiler index: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching compiler index %s: %s", url, resp.Status)
	}
	idx := new(versionIndex)
	if err := json.NewDecoder(resp.Body).Decode(idx); err != nil {
		return nil, fmt.Errorf("decoding compiler index: %w", err)
	}
	idx.fetchedAt = time.Now()

	r.mu.Lock()
	r.index.Add(platform, idx)
	r.mu.Unlock()
	r.log.Debug("Compiler index refreshed", "platform", platform, "releases", len(idx.Releases))
	return idx, nil
}

// ensureBuild makes the named release artifact available in the cache dir,
// downloading it under a file lock so concurrent requests for the same build
// don't collide, and returns it as a runnable compiler.
func (r *Registry) ensureBuild(ctx context.Context, artifact string) (*Solc, error) {
	tag := versionPattern.FindString(artifact)
	if tag == "" {
		return nil, &UnsupportedVersionError{Selector: artifact}
	}
	path := filepath.Join(r.cfg.CacheDir, filepath.Base(artifact))
	if _, err := os.Stat(path); err == nil {
		return &Solc{Path: path, Version: tag}, nil
	}
	if err := os.MkdirAll(r.cfg.CacheDir, 0755); err != nil {
		return nil, err
	}
	// The wait on a concurrent download must still honor the request
	// deadline, so acquisition polls under the context.
	lock := flock.New(filepath.Join(r.cfg.CacheDir, ".lock"))
	locked, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("locking compiler cache: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("locking compiler cache: not acquired")
	}
	defer lock.Unlock()

	// Another process may have finished the download while we waited.
	if _, err := os.Stat(path); err == nil {
		return &Solc{Path: path, Version: tag}, nil
	}
	if err := r.download(ctx, artifact, path); err != nil {
		return nil, err
	}
	return &Solc{Path: path, Version: tag}, nil
}

func (r *Registry) download(ctx context.Context, artifact, path string) error {
	url := r.cfg.ListURL + "/" + r.platform() + "/" + artifact
	r.log.Info("Downloading compiler build", "artifact", artifact)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("downloading compiler build: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading compiler build %s: %s", url, resp.Status)
	}
	tmp, err := os.CreateTemp(r.cfg.CacheDir, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("writing compiler build: %w", err)
	}
	if err := tmp.Chmod(0755); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (r *Registry) platform() string {
	if r.cfg.Platform != "" {
		return r.cfg.Platform
	}
	switch runtime.GOOS {
	case "darwin":
		return "macosx-amd64"
	case "windows":
		return "windows-amd64"
	default:
		return "linux-amd64"
	}
}

// isSemanticVersion reports whether the selector is a plain semantic version
// like "0.8.24", without build metadata.
func isSemanticVersion(s string) bool {
	if strings.ContainsAny(s, "+ ") {
		return false
	}
	_, err := goversion.NewSemver(s)
	return err == nil
}
