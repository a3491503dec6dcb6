// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package room

import (
	"encoding/json"
	"fmt"

	"github.com/hyperint/roomrelay/internal/wire"
	"github.com/hyperint/roomrelay/internal/wsconn"
)

// fixed descriptor returned by the locally-answered Browser.getVersion.
type browserVersion struct {
	ProtocolVersion string `json:"protocolVersion"`
	Product         string `json:"product"`
	Revision        string `json:"revision"`
	UserAgent       string `json:"userAgent"`
	JSVersion       string `json:"jsVersion"`
}

var fixedBrowserVersion = browserVersion{
	ProtocolVersion: "1.3",
	Product:         "Chrome/Cloudflare-Relay",
	Revision:        "1.0.0",
	UserAgent:       "roomrelay/1.0",
	JSVersion:       "V8",
}

type attachToTargetParams struct {
	TargetID string `json:"targetId"`
}

type getTargetInfoParams struct {
	TargetID  string `json:"targetId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

type detachFromTargetParams struct {
	SessionID string `json:"sessionId"`
}

type setDiscoverTargetsParams struct {
	Discover bool `json:"discover"`
}

// RouteAgentCommand implements the command router (C6): it decides, per
// method, whether to answer locally, synthesize events before answering, or
// forward the command to the browser peer. Called from the agent's own
// read-pump goroutine, so replies/events for this agent are naturally
// serialized in the order this function writes them.
func (r *Room) RouteAgentCommand(conn *wsconn.Conn, req wire.AgentRequest) {
	switch req.Method {
	case "Browser.getVersion":
		r.replyResult(conn, req, fixedBrowserVersion)

	case "Browser.setDownloadBehavior":
		r.replyResult(conn, req, struct{}{})

	case "Target.setAutoAttach":
		if req.SessionID != "" {
			r.forwardToBrowser(conn, req)
			return
		}
		r.mu.Lock()
		targets := r.allTargetsLocked()
		r.mu.Unlock()
		for _, t := range targets {
			info := t.Info
			info.Attached = true
			r.sendEvent(conn, "Target.attachedToTarget", "", wire.AttachedToTargetParams{
				SessionID:          t.SessionID,
				TargetInfo:         info,
				WaitingForDebugger: false,
			})
		}
		r.replyResult(conn, req, struct{}{})

	case "Target.setDiscoverTargets":
		var p setDiscoverTargetsParams
		json.Unmarshal(req.Params, &p)
		if p.Discover {
			r.mu.Lock()
			targets := r.allTargetsLocked()
			r.mu.Unlock()
			for _, t := range targets {
				r.sendEvent(conn, "Target.targetCreated", "", wire.TargetCreatedParams{TargetInfo: t.Info})
			}
		}
		r.replyResult(conn, req, struct{}{})

	case "Target.attachToTarget":
		var p attachToTargetParams
		json.Unmarshal(req.Params, &p)
		r.mu.Lock()
		t, ok := r.targetByIDLocked(p.TargetID)
		r.mu.Unlock()
		if !ok {
			r.replyError(conn, req, fmt.Sprintf("Target %s not found in connected targets", p.TargetID))
			return
		}
		info := t.Info
		info.Attached = true
		r.sendEvent(conn, "Target.attachedToTarget", "", wire.AttachedToTargetParams{
			SessionID:          t.SessionID,
			TargetInfo:         info,
			WaitingForDebugger: false,
		})
		r.replyResult(conn, req, struct {
			SessionID string `json:"sessionId"`
		}{SessionID: t.SessionID})

	case "Target.getTargetInfo":
		var p getTargetInfoParams
		json.Unmarshal(req.Params, &p)
		r.mu.Lock()
		t, ok := (*Target)(nil), false
		if p.SessionID != "" {
			t, ok = r.targetBySessionLocked(p.SessionID)
		}
		if !ok && p.TargetID != "" {
			t, ok = r.targetByIDLocked(p.TargetID)
		}
		if !ok {
			// Legacy fallback: SPEC_FULL.md §9 open question, decided in
			// DESIGN.md — hand back the earliest-attached target.
			t, ok = r.firstTargetLocked()
		}
		r.mu.Unlock()
		if !ok {
			r.replyError(conn, req, "target not found")
			return
		}
		info := t.Info
		info.Attached = true
		r.replyResult(conn, req, struct {
			TargetInfo wire.TargetInfo `json:"targetInfo"`
		}{TargetInfo: info})

	case "Target.getTargets":
		r.mu.Lock()
		targets := r.allTargetsLocked()
		r.mu.Unlock()
		infos := make([]wire.TargetInfo, 0, len(targets))
		for _, t := range targets {
			info := t.Info
			info.Attached = true
			infos = append(infos, info)
		}
		r.replyResult(conn, req, struct {
			TargetInfos []wire.TargetInfo `json:"targetInfos"`
		}{TargetInfos: infos})

	case "Target.detachFromTarget":
		var p detachFromTargetParams
		json.Unmarshal(req.Params, &p)
		r.mu.Lock()
		_, owned := r.targetBySessionLocked(p.SessionID)
		r.mu.Unlock()
		if !owned {
			r.replyResult(conn, req, struct{}{})
			return
		}
		r.forwardToBrowser(conn, req)

	default:
		r.forwardToBrowser(conn, req)
	}
}

// forwardToBrowser sends req.Params through the browser multiplexer and
// relays the resolved result/error back to the requesting agent verbatim.
func (r *Room) forwardToBrowser(conn *wsconn.Conn, req wire.AgentRequest) {
	result, err := r.CallBrowser(req.Method, req.Params, req.SessionID, DefaultBrowserCallTimeout)
	if err != nil {
		r.replyError(conn, req, err.Error())
		return
	}
	r.replyRaw(conn, req, result)
}

func (r *Room) sendEvent(conn *wsconn.Conn, method, sessionID string, params interface{}) {
	raw, err := json.Marshal(params)
	if err != nil {
		return
	}
	conn.WriteJSON(wire.AgentEvent{Method: method, SessionID: sessionID, Params: raw})
}

func (r *Room) replyResult(conn *wsconn.Conn, req wire.AgentRequest, result interface{}) {
	raw, err := json.Marshal(result)
	if err != nil {
		r.replyError(conn, req, err.Error())
		return
	}
	r.replyRaw(conn, req, raw)
}

func (r *Room) replyRaw(conn *wsconn.Conn, req wire.AgentRequest, result json.RawMessage) {
	conn.WriteJSON(wire.AgentReply{ID: req.ID, SessionID: req.SessionID, Result: result})
}

func (r *Room) replyError(conn *wsconn.Conn, req wire.AgentRequest, message string) {
	conn.WriteJSON(wire.AgentReply{
		ID:        req.ID,
		SessionID: req.SessionID,
		Error:     &wire.RPCError{Message: message},
	})
}
