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

// Package server is the HTTP front-end of the compile service.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/cors"
	"github.com/sunyihoo/solcd/compiler"
	"github.com/sunyihoo/solcd/log"
	"github.com/sunyihoo/solcd/solidity/resolver"
	"golang.org/x/time/rate"
)

// Config is the HTTP server configuration.
type Config struct {
	Host string
	Port int

	// CORSAllowedOrigins enables the CORS middleware when non-empty.
	CORSAllowedOrigins []string

	// RateLimit admits this many requests per second across all clients;
	// zero disables admission limiting. RateBurst is the burst allowance.
	RateLimit float64
	RateBurst int

	// BodyLimit caps the request body size in bytes.
	BodyLimit int64

	// RequestTimeout bounds one compile request end to end, including
	// remote fetches and the compiler run. In-flight fetches are abandoned
	// when it expires.
	RequestTimeout time.Duration
}

// DefaultConfig contains the default server settings of solcd.
var DefaultConfig = Config{
	Host:           "127.0.0.1",
	Port:           8549,
	RateBurst:      8,
	BodyLimit:      2 * 1024 * 1024,
	RequestTimeout: 2 * time.Minute,
}

// Backend is the compiler collaborator the front-end hands finished documents
// to. *compiler.Registry implements it.
type Backend interface {
	Compile(ctx context.Context, doc *compiler.Document, version string) (*compiler.Result, error)
	Versions(ctx context.Context) ([]string, error)
}

// Server accepts compile requests, drives the import graph resolver and
// forwards the finished document to the backend. Requests are independent;
// the only shared state is the immutable configuration.
type Server struct {
	log     log.Logger
	cfg     Config
	builder *resolver.Builder
	backend Backend
	limiter *rate.Limiter

	mu       sync.Mutex
	listener net.Listener // non-nil when server is running
	srv      *http.Server
}

// New creates an HTTP front-end around the given resolution policy and
// compiler backend.
func New(cfg Config, resolverCfg resolver.Config, backend Backend, logger log.Logger) *Server {
	if logger == nil {
		logger = log.Root()
	}
	s := &Server{
		log:     logger,
		cfg:     cfg,
		builder: resolver.NewBuilder(resolverCfg, nil, logger),
		backend: backend,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return s
}

// Start begins serving. It returns once the listener is bound; the accept
// loop runs in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return fmt.Errorf("server already running on %s", s.listener.Addr())
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/compile", s.handleCompile)
	mux.HandleFunc("/versions", s.handleVersions)
	mux.HandleFunc("/healthz", s.handleHealth)

	var handler http.Handler = mux
	if len(s.cfg.CORSAllowedOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins: s.cfg.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         600,
		}).Handler(handler)
	}
	listener, err := net.Listen("tcp", net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port)))
	if err != nil {
		return err
	}
	s.listener = listener
	s.srv = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	go s.srv.Serve(listener)

	s.log.Info("HTTP server started", "endpoint", listener.Addr())
	return nil
}

// Stop shuts the server down, draining in-flight requests until the context
// expires.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv == nil {
		return nil
	}
	err := s.srv.Shutdown(ctx)
	s.listener = nil
	s.srv = nil
	s.log.Info("HTTP server stopped")
	return err
}

// Addr returns the listen address, empty when the server is not running.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
