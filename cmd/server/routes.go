// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package main

import (
	"net/http"

	"github.com/hyperint/roomrelay/internal/mcptools"
	"github.com/hyperint/roomrelay/internal/room"
)

// Server wires the room manager into the HTTP surface described in
// SPEC_FULL.md §6.
type Server struct {
	rooms    *room.Manager
	executor mcptools.Executor
}

func NewServer() *Server {
	return &Server{
		rooms:    room.NewManager(),
		executor: mcptools.NoExecutor{},
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /", s.handleHealth)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /room/{roomId}/extension", s.handleExtensionWS)
	mux.HandleFunc("GET /room/{roomId}/local", s.handleLocalWS)
	mux.HandleFunc("GET /room/{roomId}/local/{clientId}", s.handleLocalWS)
	mux.HandleFunc("GET /room/{roomId}/mcp", s.handleAgentWS)
	mux.HandleFunc("GET /room/{roomId}/mcp/{clientId}", s.handleAgentWS)

	mux.HandleFunc("POST /room/{roomId}/mcp-server", s.handleMCPServer)

	mux.HandleFunc("GET /room/{roomId}/extension/status", s.handleExtensionStatus)
	mux.HandleFunc("GET /room/{roomId}/local/status", s.handleLocalStatus)
	mux.HandleFunc("GET /room/{roomId}/status", s.handleRoomStatus)

	return mux
}
