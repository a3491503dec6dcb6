// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

// Package mcptools defines the tool catalog exposed to agent peers over the
// room's MCP HTTP endpoint. It speaks the same {name, description,
// inputSchema} shape the sandbox's own browser tool catalog uses, hand-rolled
// rather than through a generic MCP SDK.
package mcptools

import "context"

// Tool is a single entry returned by tools/list.
type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Enum        []string `json:"enum,omitempty"`
}

// Catalog is the fixed set of tools this relay exposes to every agent peer.
var Catalog = []Tool{
	{
		Name:        "execute",
		Description: "Run a snippet of browser-automation code against the room's attached browser via the pluggable sandbox executor.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"code": {
					Type:        "string",
					Description: "Code to execute in the sandboxed runner",
				},
				"timeout": {
					Type:        "number",
					Description: "Maximum execution time in milliseconds (default: 30000)",
				},
			},
			Required: []string{"code"},
		},
	},
	{
		Name:        "read_file",
		Description: "Read a file from the local peer's filesystem. Records the file's modification time so a later write_file can detect concurrent changes.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"path": {
					Type:        "string",
					Description: "Absolute or workspace-relative path to read",
				},
			},
			Required: []string{"path"},
		},
	},
	{
		Name:        "write_file",
		Description: "Write a file on the local peer's filesystem. Fails unless the same path was previously read through this room.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"path": {
					Type:        "string",
					Description: "Absolute or workspace-relative path to write",
				},
				"content": {
					Type:        "string",
					Description: "New file content",
				},
			},
			Required: []string{"path", "content"},
		},
	},
	{
		Name:        "bash",
		Description: "Run a shell command on the local peer.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"command": {
					Type:        "string",
					Description: "Shell command to execute",
				},
				"workdir": {
					Type:        "string",
					Description: "Working directory for the command (default: local peer's workspace root)",
				},
				"timeout": {
					Type:        "number",
					Description: "Maximum execution time in milliseconds (default: 30000)",
				},
			},
			Required: []string{"command"},
		},
	},
}

// IsKnown reports whether name is one of the tools in Catalog.
func IsKnown(name string) bool {
	for _, t := range Catalog {
		if t.Name == name {
			return true
		}
	}
	return false
}

// Executor runs the `execute` tool's code against the room's attached
// browser. The relay itself never implements a sandbox; it exposes this
// interface so a real sandboxed runner can be wired in by the deployment
// that embeds this module.
type Executor interface {
	Execute(ctx context.Context, code string, timeoutMS int64) (string, error)
}

// NoExecutor is the default Executor: it reports the tool contract exists
// but no runner is wired in, rather than panicking or silently no-oping.
type NoExecutor struct{}

func (NoExecutor) Execute(ctx context.Context, code string, timeoutMS int64) (string, error) {
	return "", errExecutorNotConfigured
}
