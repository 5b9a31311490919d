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

package resolver

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func makeGraph(nodes []*SourceNode, edges map[string]map[string]string) *Graph {
	g := &Graph{nodes: make(map[string]*SourceNode), edges: edges}
	for _, n := range nodes {
		g.insert(n)
	}
	return g
}

// Exactly the quoted specifier is replaced; semicolons, braces and aliasing
// clauses around it survive untouched.
func TestRewriteRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "bare",
			content: `import "./A.sol";` + "\ncontract C {}",
			want:    `import "https://example.com/A.sol";` + "\ncontract C {}",
		},
		{
			name:    "namespace",
			content: `import * as A from "./A.sol";`,
			want:    `import * as A from "https://example.com/A.sol";`,
		},
		{
			name:    "named with aliases",
			content: `import {X, Y as Z} from "./A.sol";`,
			want:    `import {X, Y as Z} from "https://example.com/A.sol";`,
		},
		{
			name:    "alias suffix",
			content: `import "./A.sol" as A;`,
			want:    `import "https://example.com/A.sol" as A;`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := makeGraph(
				[]*SourceNode{{Key: "entry.sol", Content: tt.content}},
				map[string]map[string]string{
					"entry.sol": {"./A.sol": "https://example.com/A.sol"},
				},
			)
			require.Equal(t, tt.want, g.Sources()["entry.sol"])
		})
	}
}

// Replacements run right to left so earlier spans stay valid while the
// rewritten specifiers change lengths.
func TestRewriteMultiple(t *testing.T) {
	content := `import "./A.sol";
import "./B.sol";
import "./A.sol";`
	g := makeGraph(
		[]*SourceNode{{Key: "entry.sol", Content: content}},
		map[string]map[string]string{
			"entry.sol": {
				"./A.sol": "https://example.com/very/long/path/A.sol",
				"./B.sol": "https://example.com/B.sol",
			},
		},
	)
	want := `import "https://example.com/very/long/path/A.sol";
import "https://example.com/B.sol";
import "https://example.com/very/long/path/A.sol";`
	require.Equal(t, want, g.Sources()["entry.sol"])
}

func TestRewriteNoImports(t *testing.T) {
	g := makeGraph([]*SourceNode{{Key: "entry.sol", Content: "contract C {}"}}, nil)
	require.Equal(t, "contract C {}", g.Sources()["entry.sol"])
}

// Sources over a built graph: every key in the map is referenced by the
// rewritten imports that point at it.
func TestSourcesEndToEnd(t *testing.T) {
	host := newTestHost(t, map[string]string{
		"/A.sol": `import "./B.sol"; contract A {}`,
		"/B.sol": `contract B {}`,
	})
	entry := fmt.Sprintf(`import "%s"; contract C {}`, host.url("/A.sol"))

	b := NewBuilder(host.config(), nil, nil)
	g, err := b.Build(context.Background(), "entry.sol", entry, nil)
	require.NoError(t, err)

	sources := g.Sources()
	require.Len(t, sources, 3)
	require.Contains(t, sources["entry.sol"], fmt.Sprintf(`import "%s";`, host.url("/A.sol")))
	require.Contains(t, sources[host.url("/A.sol")], fmt.Sprintf(`import "%s";`, host.url("/B.sol")))
	require.Equal(t, `contract B {}`, sources[host.url("/B.sol")])
}
