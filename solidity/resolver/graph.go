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

// Package resolver builds the transitive import graph of a Solidity source
// file and rewrites import statements to the canonical keys of the compiler
// source map.
package resolver

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/sunyihoo/solcd/log"
	"github.com/sunyihoo/solcd/solidity/parser"
	"golang.org/x/sync/errgroup"
)

// SourceNode is one resolved file: its content, the canonical key it appears
// under in the compiler source map, and the base URL its own relative imports
// resolve against. The entry file has no base.
type SourceNode struct {
	Key     string
	Content string
	Base    string
}

// Graph is the completed node set of one resolution request. Canonical keys
// are unique: the graph never holds two nodes for the same resource.
type Graph struct {
	nodes map[string]*SourceNode
	order []string
	edges map[string]map[string]string // node key -> raw specifier -> canonical key
}

// Files returns all canonical keys in discovery order, entry first.
func (g *Graph) Files() []string {
	files := make([]string, len(g.order))
	copy(files, g.order)
	return files
}

// Node returns the node stored under the given canonical key.
func (g *Graph) Node(key string) (*SourceNode, bool) {
	n, ok := g.nodes[key]
	return n, ok
}

// Len returns the number of distinct sources in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

func (g *Graph) insert(n *SourceNode) {
	g.nodes[n.Key] = n
	g.order = append(g.order, n.Key)
}

// Builder performs breadth-first import graph construction under the
// configured resource policy. A Builder is safe for concurrent use; all
// per-request state lives in Build.
type Builder struct {
	cfg    Config
	client *http.Client
	log    log.Logger
}

// NewBuilder creates a graph builder. A nil client selects a default HTTP
// client with a 30 second timeout; a nil logger discards output.
func NewBuilder(cfg Config, client *http.Client, logger log.Logger) *Builder {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = log.Root()
	}
	return &Builder{cfg: cfg, client: client, log: logger}
}

// Build resolves the transitive import graph of the entry source. filename
// becomes the entry's canonical key. The traversal fetches each canonical URL
// at most once, breaks cycles by never re-enqueueing a visited key, and
// aborts with a LimitError the moment either the source-count or the
// cumulative-byte ceiling is exceeded. Any per-import failure aborts the
// whole build; there are no partial results.
func (b *Builder) Build(ctx context.Context, filename, source string, versions map[string]string) (*Graph, error) {
	total := int64(len(source))
	if total > b.cfg.MaxBytes {
		return nil, &LimitError{Limit: "bytes", Configured: b.cfg.MaxBytes}
	}
	g := &Graph{
		nodes: make(map[string]*SourceNode),
		edges: make(map[string]map[string]string),
	}
	entry := &SourceNode{Key: filename, Content: source}
	g.insert(entry)

	var (
		cache = newFetchCache(b.client)
		queue = []*SourceNode{entry}
		start = time.Now()
	)
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		imports := parser.Scan(node.Content)
		if len(imports) == 0 {
			continue
		}
		edges := make(map[string]string, len(imports))
		g.edges[node.Key] = edges

		// Resolve every specifier before fetching anything, so policy
		// violations surface without network traffic.
		var pending []string
		for _, imp := range imports {
			canonical, err := Resolve(imp.Path, node.Base, versions, b.cfg)
			if err != nil {
				return nil, err
			}
			edges[imp.Path] = canonical
			if _, ok := g.nodes[canonical]; ok {
				continue // already visited, edge recorded without re-fetch
			}
			if !slices.Contains(pending, canonical) {
				if len(g.nodes)+len(pending)+1 > b.cfg.MaxSources {
					return nil, &LimitError{Limit: "sources", Configured: int64(b.cfg.MaxSources)}
				}
				pending = append(pending, canonical)
			}
		}
		if len(pending) == 0 {
			continue
		}

		// Retrieve the unseen imports of this node in parallel. The byte
		// ceiling is checked under the lock before a fetch result is
		// retained, so an over-limit fetch never contributes content.
		var (
			contents = make([]string, len(pending))
			mu       sync.Mutex
		)
		grp, gctx := errgroup.WithContext(ctx)
		grp.SetLimit(max(b.cfg.FetchConcurrency, 1))
		for i, canonical := range pending {
			i, canonical := i, canonical
			grp.Go(func() error {
				text, err := cache.fetch(gctx, canonical)
				if err != nil {
					return err
				}
				mu.Lock()
				defer mu.Unlock()
				total += int64(len(text))
				if total > b.cfg.MaxBytes {
					return &LimitError{Limit: "bytes", Configured: b.cfg.MaxBytes}
				}
				contents[i] = text
				return nil
			})
		}
		if err := grp.Wait(); err != nil {
			return nil, err
		}
		for i, canonical := range pending {
			n := &SourceNode{Key: canonical, Content: contents[i], Base: canonical}
			g.insert(n)
			queue = append(queue, n)
		}
	}
	b.log.Debug("Import graph resolved", "entry", filename, "sources", g.Len(),
		"bytes", total, "elapsed", time.Since(start))
	return g, nil
}
