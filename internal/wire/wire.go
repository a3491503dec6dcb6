// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

// Package wire defines the JSON envelopes exchanged across the room's three
// WebSocket surfaces (agent, browser, local). None of these types carry
// behavior; they exist so the rest of the room package can marshal/unmarshal
// without hand-rolling map[string]interface{} at every call site.
package wire

import "encoding/json"

// RPCError is the error shape a relay-local failure reports back to an agent.
type RPCError struct {
	Message string `json:"message"`
	Code    int    `json:"code,omitempty"`
}

// AgentRequest is a protocol command sent by an agent peer.
type AgentRequest struct {
	ID        uint64          `json:"id"`
	Method    string          `json:"method"`
	Params    json.RawMessage `json:"params,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
}

// AgentReply answers a single AgentRequest by id.
type AgentReply struct {
	ID        uint64          `json:"id"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     *RPCError       `json:"error,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
}

// AgentEvent is an unsolicited push to an agent (browser-sourced or
// synthesized by the command router).
type AgentEvent struct {
	Method    string          `json:"method"`
	Params    json.RawMessage `json:"params,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
}

// PeerEnvelope is the generic shape of any inbound message from the
// browser or local peer. Presence of ID distinguishes a command response
// from an unsolicited method (event, log, pong).
type PeerEnvelope struct {
	ID     *uint64         `json:"id,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
}

// CDPForward is the payload nested inside forwardCDPCommand/forwardCDPEvent.
type CDPForward struct {
	Method    string          `json:"method"`
	SessionID string          `json:"sessionId,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
}

// OutboundBrowserCommand wraps a CDP command for the browser peer.
type OutboundBrowserCommand struct {
	ID     uint64     `json:"id"`
	Method string     `json:"method"` // always "forwardCDPCommand"
	Params CDPForward `json:"params"`
}

// OutboundLocalCommand is a file.read / file.write / bash.execute call.
type OutboundLocalCommand struct {
	ID     uint64      `json:"id"`
	Method string      `json:"method"`
	Params interface{} `json:"params"`
}

// PingMessage is the application-level keepalive sent to browser and local peers.
type PingMessage struct {
	Method string `json:"method"`
}

func Ping() PingMessage { return PingMessage{Method: "ping"} }

// LogParams is the payload of an unsolicited {"method":"log"} envelope from
// the browser or local peer. It is written to the relay's own log sink
// rather than discarded (SPEC_FULL.md §4.4).
type LogParams struct {
	Level string        `json:"level,omitempty"`
	Args  []interface{} `json:"args,omitempty"`
}

// FileReadParams / FileWriteParams / BashExecuteParams are the local-peer
// wire parameter schemas from SPEC_FULL.md §6.
type FileReadParams struct {
	Path string `json:"path"`
}

type FileWriteParams struct {
	Path          string `json:"path"`
	Content       string `json:"content"`
	ExpectedMtime *int64 `json:"expectedMtime,omitempty"`
}

type BashExecuteParams struct {
	Command string `json:"command"`
	Workdir string `json:"workdir,omitempty"`
	Timeout int64  `json:"timeout,omitempty"`
}

type FileReadResult struct {
	Content string `json:"content"`
	Mtime   int64  `json:"mtime"`
}

type FileWriteResult struct {
	Success bool  `json:"success"`
	Mtime   int64 `json:"mtime"`
}

type BashExecuteResult struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exitCode"`
}

// TargetInfo mirrors the Chrome DevTools Protocol's TargetInfo shape.
type TargetInfo struct {
	TargetID         string `json:"targetId"`
	Type             string `json:"type"`
	Title            string `json:"title"`
	URL              string `json:"url"`
	Attached         bool   `json:"attached,omitempty"`
	BrowserContextID string `json:"browserContextId,omitempty"`
}

type AttachedToTargetParams struct {
	SessionID          string     `json:"sessionId"`
	TargetInfo         TargetInfo `json:"targetInfo"`
	WaitingForDebugger bool       `json:"waitingForDebugger"`
}

type DetachedFromTargetParams struct {
	SessionID string `json:"sessionId"`
	TargetID  string `json:"targetId,omitempty"`
}

type TargetInfoChangedParams struct {
	TargetInfo TargetInfo `json:"targetInfo"`
}

type TargetCreatedParams struct {
	TargetInfo TargetInfo `json:"targetInfo"`
}

type FrameNavigatedFrame struct {
	ID       string `json:"id"`
	ParentID string `json:"parentId,omitempty"`
	Name     string `json:"name,omitempty"`
	URL      string `json:"url"`
}

type FrameNavigatedParams struct {
	Frame FrameNavigatedFrame `json:"frame"`
}
