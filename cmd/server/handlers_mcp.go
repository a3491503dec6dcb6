// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hyperint/roomrelay/internal/mcptools"
	"github.com/hyperint/roomrelay/internal/room"
)

// mcpRequest is the minimal JSON-RPC-shaped envelope this endpoint speaks,
// in the hand-rolled style the sandbox's own tool catalogs use rather than
// a generic MCP SDK.
type mcpRequest struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

type mcpToolCallParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

type mcpContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type mcpToolResult struct {
	Content []mcpContent `json:"content"`
	IsError bool         `json:"isError,omitempty"`
}

func (s *Server) handleMCPServer(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomId")
	if !s.requirePassphrase(w, r, roomID) {
		return
	}
	rm := s.rooms.GetOrCreate(roomID)

	var req mcpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}

	switch req.Method {
	case "tools/list":
		writeJSON(w, map[string]interface{}{"tools": mcptools.Catalog})

	case "tools/call":
		var p mcpToolCallParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			http.Error(w, "malformed tool call params", http.StatusBadRequest)
			return
		}
		writeJSON(w, s.callTool(r.Context(), rm, p.Name, p.Arguments))

	default:
		http.Error(w, fmt.Sprintf("unknown method %q", req.Method), http.StatusBadRequest)
	}
}

func mcpText(text string) mcpToolResult {
	return mcpToolResult{Content: []mcpContent{{Type: "text", Text: text}}}
}

func mcpErr(err error) mcpToolResult {
	return mcpToolResult{Content: []mcpContent{{Type: "text", Text: "Error: " + err.Error()}}, IsError: true}
}

func (s *Server) callTool(ctx context.Context, rm *room.Room, name string, args map[string]interface{}) mcpToolResult {
	switch name {
	case "execute":
		code, _ := args["code"].(string)
		if code == "" {
			return mcpErr(fmt.Errorf("code is required"))
		}
		timeoutMS := int64(30000)
		if t, ok := args["timeout"].(float64); ok && t > 0 {
			timeoutMS = int64(t)
		}
		out, err := s.executor.Execute(ctx, code, timeoutMS)
		if err != nil {
			return mcpErr(err)
		}
		return mcpText(out)

	case "read_file":
		path, _ := args["path"].(string)
		if path == "" {
			return mcpErr(fmt.Errorf("path is required"))
		}
		res, err := rm.ReadFile(path)
		if err != nil {
			return mcpErr(err)
		}
		return mcpText(res.Content)

	case "write_file":
		path, _ := args["path"].(string)
		content, _ := args["content"].(string)
		if path == "" {
			return mcpErr(fmt.Errorf("path is required"))
		}
		res, err := rm.WriteFile(path, content)
		if err != nil {
			return mcpErr(err)
		}
		return mcpText(fmt.Sprintf("wrote %s (success=%v)", path, res.Success))

	case "bash":
		command, _ := args["command"].(string)
		if command == "" {
			return mcpErr(fmt.Errorf("command is required"))
		}
		workdir, _ := args["workdir"].(string)
		var timeoutMS int64
		if t, ok := args["timeout"].(float64); ok && t > 0 {
			timeoutMS = int64(t)
		}
		res, err := rm.Bash(command, workdir, timeoutMS)
		if err != nil {
			return mcpErr(err)
		}
		return mcpText(fmt.Sprintf("exit=%d\nstdout:\n%s\nstderr:\n%s", res.ExitCode, res.Stdout, res.Stderr))

	default:
		if !mcptools.IsKnown(name) {
			return mcpErr(fmt.Errorf("unknown tool: %s", name))
		}
		return mcpErr(fmt.Errorf("tool %s not implemented", name))
	}
}
