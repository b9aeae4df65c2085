// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api serves a JSON REST interface over a polity node.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

const DefaultListenAddress = ":8080"

type Config struct {
	ListenAddress string
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	logger     *slog.Logger
	node       PolityNode
	httpServer *http.Server
	listener   net.Listener
	stopCh     chan struct{}
	mu         sync.Mutex
}

// New creates a new API server instance.
func New(
	cfg Config,
	node PolityNode,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.New(
			slog.NewJSONHandler(io.Discard, nil),
		)
	}
	logger = logger.With("component", "api")
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	return &Server{
		config: cfg,
		logger: logger,
		node:   node,
	}
}

// Handler returns the request router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/accounts/{address}", s.handleAccount)
	mux.HandleFunc(
		"GET /api/v1/accounts/{owner}/allowances/{spender}",
		s.handleAllowance,
	)
	mux.HandleFunc("GET /api/v1/tally", s.handleTally)
	mux.HandleFunc("GET /api/v1/fees/exemptions", s.handleExemptions)
	mux.HandleFunc(
		"GET /api/v1/fees/entitlements/{category}",
		s.handleEntitlement,
	)
	mux.HandleFunc("GET /api/v1/history", s.handleHistory)

	mux.HandleFunc("POST /api/v1/choice", operation(s, s.opChangeChoice))
	mux.HandleFunc("POST /api/v1/transfer", operation(s, s.opTransfer))
	mux.HandleFunc("POST /api/v1/transfer-from", operation(s, s.opTransferFrom))
	mux.HandleFunc("POST /api/v1/approve", operation(s, s.opApprove))
	mux.HandleFunc("POST /api/v1/restrict", operation(s, s.opRestrict))
	mux.HandleFunc(
		"POST /api/v1/roles/{category}/claim",
		operation(s, s.opClaimRole),
	)
	mux.HandleFunc("POST /api/v1/abdicate", operation(s, s.opAbdicate))
	mux.HandleFunc(
		"POST /api/v1/fees/weights/{category}",
		operation(s, s.opSetWeight),
	)
	mux.HandleFunc("POST /api/v1/fees/recipient", operation(s, s.opSetFeeRecipient))
	mux.HandleFunc("POST /api/v1/fees/exemptions", operation(s, s.opSetFeeExempt))
	mux.HandleFunc("POST /api/v1/automation", operation(s, s.opSetAutomation))
	mux.HandleFunc("POST /api/v1/deposits", operation(s, s.opDeposit))
	mux.HandleFunc(
		"POST /api/v1/withdrawals/{category}",
		operation(s, s.opWithdraw),
	)
	mux.HandleFunc("POST /api/v1/withdrawals", operation(s, s.opWithdrawAll))
	mux.HandleFunc("POST /api/v1/sweep", operation(s, s.opSweep))
	mux.HandleFunc("POST /api/v1/settle", operation(s, s.opSettle))
	return mux
}

// Start starts the HTTP server in a background goroutine. The server stops
// when ctx is canceled or Stop is called.
func (s *Server) Start(
	ctx context.Context,
) error {
	s.mu.Lock()
	if s.httpServer != nil {
		s.mu.Unlock()
		return errors.New("server already started")
	}
	server := &http.Server{
		Addr:              s.config.ListenAddress,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 60 * time.Second,
	}
	// Bind first so port conflicts are reported immediately
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen for API server: %w", err)
	}
	s.httpServer = server
	s.listener = ln
	stopCh := make(chan struct{})
	s.stopCh = stopCh
	s.mu.Unlock()

	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(
				"API server error",
				"error", err,
			)
		}
	}()

	s.logger.Info(
		"API listener started on " + ln.Addr().String(),
	)

	// Monitor context for cancellation
	go func() {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
		}
		s.logger.Debug(
			"context cancelled, shutting down API server",
		)
		//nolint:contextcheck
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			30*time.Second,
		)
		defer cancel()
		//nolint:contextcheck
		if err := s.Stop(shutdownCtx); err != nil {
			s.logger.Error(
				"failed to shutdown API server on context cancellation",
				"error", err,
			)
		}
	}()

	return nil
}

// Addr returns the bound listen address, or nil when not started.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(
	ctx context.Context,
) error {
	s.mu.Lock()
	srv := s.httpServer
	stopCh := s.stopCh
	s.httpServer = nil
	s.listener = nil
	s.stopCh = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	close(stopCh)
	s.logger.Debug("shutting down API server")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown API server: %w", err)
	}
	return nil
}
