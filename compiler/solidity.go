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

// Package compiler wraps version-selected Solidity compiler executables
// behind the standard-JSON interface.
package compiler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
)

// Solc is one compiler executable together with the build tag it reports.
type Solc struct {
	Path    string // path to the solc executable
	Version string // long version tag, e.g. "0.8.24+commit.e11b9ed9"
}

// Document is the standard-JSON input handed to solc. It is assembled only
// after the import graph is fully resolved and rewritten, and not modified
// afterwards.
type Document struct {
	Language string            `json:"language"`
	Sources  map[string]Source `json:"sources"`
	Settings map[string]any    `json:"settings,omitempty"`
}

// Source is one entry of the standard-JSON sources map.
type Source struct {
	Content string `json:"content"`
}

// NewDocument builds a compiler document from a finished source map, merging
// the caller's settings over the defaults.
func NewDocument(sources map[string]string, settings map[string]any) *Document {
	src := make(map[string]Source, len(sources))
	for key, content := range sources {
		src[key] = Source{Content: content}
	}
	return &Document{
		Language: "Solidity",
		Sources:  src,
		Settings: MergeSettings(DefaultSettings(), settings),
	}
}

// DefaultSettings returns the compiler settings used when the caller supplies
// none: optimizer disabled at 200 runs, ABI and bytecode output selection.
func DefaultSettings() map[string]any {
	return map[string]any{
		"optimizer": map[string]any{
			"enabled": false,
			"runs":    200,
		},
		"outputSelection": map[string]any{
			"*": map[string]any{
				"*": []any{"abi", "evm.bytecode"},
			},
		},
	}
}

// MergeSettings overlays the caller's settings over the defaults. Overrides
// win per top-level key; there is no deep merge.
func MergeSettings(defaults, overrides map[string]any) map[string]any {
	merged := make(map[string]any, len(defaults)+len(overrides))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

// Diagnostic is one compiler-reported message. Diagnostics are part of a
// normal response; only severity "error" makes a run unsuccessful.
type Diagnostic struct {
	Type             string          `json:"type"`
	Severity         string          `json:"severity"`
	Message          string          `json:"message"`
	FormattedMessage string          `json:"formattedMessage,omitempty"`
	SourceLocation   *SourceLocation `json:"sourceLocation,omitempty"`
}

// SourceLocation points a diagnostic at a span of one source-map entry.
type SourceLocation struct {
	File  string `json:"file"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Artifact is the per-contract build output.
type Artifact struct {
	File     string          `json:"file"`
	Contract string          `json:"contract"`
	ABI      json.RawMessage `json:"abi"`
	Bytecode string          `json:"bytecode"`
}

// Result is the outcome of one compiler run.
type Result struct {
	Version     string
	Diagnostics []Diagnostic
	Artifacts   []Artifact
}

// HasError reports whether any diagnostic carries severity "error". Warnings
// do not block success.
func (r *Result) HasError() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == "error" {
			return true
		}
	}
	return false
}

// solcOutput is the subset of the standard-JSON output this package consumes.
type solcOutput struct {
	Errors    []Diagnostic `json:"errors"`
	Contracts map[string]map[string]struct {
		ABI json.RawMessage `json:"abi"`
		EVM struct {
			Bytecode struct {
				Object string `json:"object"`
			} `json:"bytecode"`
		} `json:"evm"`
	} `json:"contracts"`
}

// Run feeds the document to the compiler over stdin and parses the
// standard-JSON output. The compiler sees only the literal source keys of the
// document; it performs no import resolution of its own.
func (s *Solc) Run(ctx context.Context, doc *Document) (*Result, error) {
	input, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding compiler input: %w", err)
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.Path, "--standard-json")
	cmd.Stdin = bytes.NewReader(input)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("solc: %v\n%s", err, stderr.Bytes())
	}
	return parseOutput(stdout.Bytes(), s.Version)
}

func parseOutput(data []byte, version string) (*Result, error) {
	var out solcOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding compiler output: %w", err)
	}
	res := &Result{
		Version:     version,
		Diagnostics: out.Errors,
	}
	for file, contracts := range out.Contracts {
		for name, c := range contracts {
			res.Artifacts = append(res.Artifacts, Artifact{
				File:     file,
				Contract: name,
				ABI:      c.ABI,
				Bytecode: c.EVM.Bytecode.Object,
			})
		}
	}
	// Map iteration order is random; keep artifact order stable for callers.
	sort.Slice(res.Artifacts, func(i, j int) bool {
		if res.Artifacts[i].File != res.Artifacts[j].File {
			return res.Artifacts[i].File < res.Artifacts[j].File
		}
		return res.Artifacts[i].Contract < res.Artifacts[j].Contract
	})
	return res, nil
}
