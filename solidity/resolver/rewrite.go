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
	"strings"

	"github.com/sunyihoo/solcd/solidity/parser"
)

// Sources returns the finished source map: canonical key to content with
// every import specifier replaced by the canonical key it resolved to. The
// compiler performs no import resolution of its own, so the literal keys in
// the map must match what the rewritten imports name.
func (g *Graph) Sources() map[string]string {
	out := make(map[string]string, len(g.nodes))
	for key, node := range g.nodes {
		out[key] = g.rewrite(node)
	}
	return out
}

// rewrite re-scans the node for fresh offsets and replaces specifier spans
// from the last occurrence to the first, keeping earlier offsets valid while
// the replacements change lengths.
func (g *Graph) rewrite(node *SourceNode) string {
	imports := parser.Scan(node.Content)
	if len(imports) == 0 {
		return node.Content
	}
	edges := g.edges[node.Key]

	var sb strings.Builder
	content := node.Content
	for i := len(imports) - 1; i >= 0; i-- {
		imp := imports[i]
		canonical, ok := edges[imp.Path]
		if !ok || canonical == imp.Path {
			continue
		}
		sb.Reset()
		sb.Grow(len(content) - (imp.End - imp.Start) + len(canonical))
		sb.WriteString(content[:imp.Start])
		sb.WriteString(canonical)
		sb.WriteString(content[imp.End:])
		content = sb.String()
	}
	return content
}
