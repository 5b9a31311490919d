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

// Package parser locates Solidity import specifiers lexically.
//
// The scan is a regular-expression match over raw text, not a grammar-aware
// pass: an import statement appearing inside a comment or string literal is
// reported like any other. This is a known limitation; the resolution
// algorithm built on top is unaffected by it.
package parser

import "regexp"

// Import is one import statement's quoted specifier together with the byte
// span of the specifier text inside the source, excluding the quotes.
type Import struct {
	Path  string // the raw specifier, e.g. "./A.sol" or "@openzeppelin/contracts/token/ERC20/ERC20.sol"
	Start int    // byte offset of the first specifier byte
	End   int    // byte offset just past the last specifier byte
}

// importPattern matches the three import statement shapes:
//
//	import "X";
//	import * as N from "X";
//	import {A, B as C} from "X";
//
// plus the 'import "X" as N;' aliasing suffix. Both quote styles are accepted.
var importPattern = regexp.MustCompile(
	`import\s+(?:(?:\*\s*as\s+[A-Za-z_$][A-Za-z0-9_$]*|\{[^}]*\})\s+from\s+)?(?:"([^"\n]+)"|'([^'\n]+)')(?:\s+as\s+[A-Za-z_$][A-Za-z0-9_$]*)?\s*;`)

// Scan returns the import specifiers of src in order of appearance. It is a
// pure function of its input; successive calls over the same content yield
// identical results, which the rewrite stage relies on for fresh offsets.
func Scan(src string) []Import {
	var imports []Import
	for _, m := range importPattern.FindAllStringSubmatchIndex(src, -1) {
		// Group 1 is the double-quoted form, group 2 the single-quoted one.
		start, end := m[2], m[3]
		if start < 0 {
			start, end = m[4], m[5]
		}
		imports = append(imports, Import{
			Path:  src[start:end],
			Start: start,
			End:   end,
		})
	}
	return imports
}
