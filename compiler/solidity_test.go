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
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultSettings(t *testing.T) {
	doc := NewDocument(map[string]string{"a.sol": "contract A {}"}, nil)
	require.Equal(t, "Solidity", doc.Language)
	require.Equal(t, "contract A {}", doc.Sources["a.sol"].Content)

	opt, ok := doc.Settings["optimizer"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, false, opt["enabled"])
	require.Equal(t, 200, opt["runs"])
	require.Contains(t, doc.Settings, "outputSelection")
}

func TestMergeSettings(t *testing.T) {
	doc := NewDocument(nil, map[string]any{
		"optimizer": map[string]any{"enabled": true, "runs": 999},
		"evmVersion": "paris",
	})
	opt := doc.Settings["optimizer"].(map[string]any)
	require.Equal(t, true, opt["enabled"])
	require.Equal(t, 999, opt["runs"])
	require.Equal(t, "paris", doc.Settings["evmVersion"])
	// Untouched defaults survive the overlay.
	require.Contains(t, doc.Settings, "outputSelection")
}

func TestParseOutput(t *testing.T) {
	out := `{
		"errors": [
			{"type": "Warning", "severity": "warning", "message": "unused variable"},
			{"type": "ParserError", "severity": "error", "message": "expected ';'",
			 "sourceLocation": {"file": "entry.sol", "start": 10, "end": 11}}
		],
		"contracts": {
			"entry.sol": {
				"C": {"abi": [], "evm": {"bytecode": {"object": "6080"}}},
				"B": {"abi": [], "evm": {"bytecode": {"object": "6001"}}}
			},
			"a.sol": {
				"A": {"abi": [{"type":"constructor"}], "evm": {"bytecode": {"object": "6002"}}}
			}
		}
	}`
	res, err := parseOutput([]byte(out), "0.8.24+commit.e11b9ed9")
	require.NoError(t, err)
	require.Equal(t, "0.8.24+commit.e11b9ed9", res.Version)
	require.True(t, res.HasError())
	require.Len(t, res.Diagnostics, 2)
	require.Equal(t, "entry.sol", res.Diagnostics[1].SourceLocation.File)

	// Artifacts are sorted by file, then contract.
	require.Len(t, res.Artifacts, 3)
	require.Equal(t, "a.sol", res.Artifacts[0].File)
	require.Equal(t, "B", res.Artifacts[1].Contract)
	require.Equal(t, "C", res.Artifacts[2].Contract)
	require.Equal(t, "6080", res.Artifacts[2].Bytecode)
	require.Equal(t, json.RawMessage("[]"), res.Artifacts[2].ABI)
}

func TestHasError(t *testing.T) {
	res := &Result{Diagnostics: []Diagnostic{{Severity: "warning"}}}
	require.False(t, res.HasError())
	res.Diagnostics = append(res.Diagnostics, Diagnostic{Severity: "error"})
	require.True(t, res.HasError())
}

// TestRunSolc exercises a real compiler when one is installed; CI machines
// without solc skip it.
func TestRunSolc(t *testing.T) {
	path, err := exec.LookPath("solc")
	if err != nil {
		t.Skip("solc not found")
	}
	solc := &Solc{Path: path, Version: "local"}
	doc := NewDocument(map[string]string{
		"entry.sol": "// SPDX-License-Identifier: MIT\npragma solidity >=0.6.0;\ncontract C { function f() public pure returns (uint) { return 1; } }",
	}, nil)
	res, err := solc.Run(context.Background(), doc)
	require.NoError(t, err)
	require.False(t, res.HasError())
	require.NotEmpty(t, res.Artifacts)
	require.NotEmpty(t, res.Artifacts[0].Bytecode)
}
