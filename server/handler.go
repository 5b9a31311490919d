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

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/sunyihoo/solcd/compiler"
	"github.com/sunyihoo/solcd/version"
)

// compileRequest is the body of POST /compile.
type compileRequest struct {
	Source          string            `json:"source"`
	Filename        string            `json:"filename"`
	CompilerVersion string            `json:"compilerVersion"`
	ReturnArtifacts bool              `json:"returnArtifacts"`
	PackageVersions map[string]string `json:"packageVersions"`
	Settings        map[string]any    `json:"settings"`
}

type compilerInfo struct {
	Version string `json:"version"`
}

// compileResponse mirrors the request outcome. Success reflects the whole
// pipeline: resolution failures and compiler errors both leave it false.
type compileResponse struct {
	Success     bool                  `json:"success"`
	Error       string                `json:"error,omitempty"`
	Compiler    *compilerInfo         `json:"compiler,omitempty"`
	Filename    string                `json:"filename,omitempty"`
	Files       []string              `json:"files,omitempty"`
	Diagnostics []compiler.Diagnostic `json:"diagnostics,omitempty"`
	Artifacts   []compiler.Artifact   `json:"artifacts,omitempty"`
}

type versionsResponse struct {
	Versions []string `json:"versions"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

var disallowedFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// sanitizeFilename strips characters outside [A-Za-z0-9_.-] from the
// caller-supplied name. An empty result, like an absent name, yields a
// generated one.
func sanitizeFilename(name string) string {
	name = disallowedFilenameChars.ReplaceAllString(name, "")
	if name == "" {
		name = "source-" + uuid.NewString() + ".sol"
	}
	return name
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.limiter != nil && !s.limiter.Allow() {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
		return
	}
	reqID := uuid.NewString()
	w.Header().Set("X-Request-Id", reqID)
	logger := s.log.New("req", reqID)

	body := http.MaxBytesReader(w, r.Body, s.cfg.BodyLimit)
	var req compileRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, &compileResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if req.Source == "" {
		writeJSON(w, http.StatusBadRequest, &compileResponse{Error: "missing required field \"source\""})
		return
	}
	filename := sanitizeFilename(req.Filename)
	ctx := r.Context()
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}
	start := time.Now()

	graph, err := s.builder.Build(ctx, filename, req.Source, req.PackageVersions)
	if err != nil {
		logger.Info("Import resolution failed", "file", filename, "err", err)
		writeJSON(w, http.StatusOK, &compileResponse{Filename: filename, Error: err.Error()})
		return
	}
	doc := compiler.NewDocument(graph.Sources(), req.Settings)
	result, err := s.backend.Compile(ctx, doc, req.CompilerVersion)
	if err != nil {
		logger.Info("Compilation failed", "file", filename, "err", err)
		writeJSON(w, http.StatusOK, &compileResponse{Filename: filename, Files: graph.Files(), Error: err.Error()})
		return
	}
	resp := &compileResponse{
		Success:     !result.HasError(),
		Compiler:    &compilerInfo{Version: result.Version},
		Filename:    filename,
		Files:       graph.Files(),
		Diagnostics: result.Diagnostics,
	}
	if req.ReturnArtifacts && resp.Success {
		resp.Artifacts = result.Artifacts
	}
	logger.Debug("Compile request served", "file", filename, "sources", graph.Len(),
		"success", resp.Success, "elapsed", time.Since(start))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVersions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	versions, err := s.backend.Versions(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if versions == nil {
		versions = []string{}
	}
	writeJSON(w, http.StatusOK, &versionsResponse{Versions: versions})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, &healthResponse{Status: "ok", Version: version.WithMeta})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
