// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package room

import (
	"encoding/json"
	"log"

	"github.com/hyperint/roomrelay/internal/wire"
	"github.com/hyperint/roomrelay/internal/wsconn"
)

// HandleBrowserEvent processes an inbound forwardCDPEvent envelope from the
// browser peer: it updates the target registry (C5) and then fans the event
// out verbatim to every agent (C7). Log and pong envelopes never reach here;
// the browser read pump filters those before calling in.
func (r *Room) HandleBrowserEvent(fwd wire.CDPForward) {
	switch fwd.Method {
	case "Target.attachedToTarget":
		var p wire.AttachedToTargetParams
		if err := json.Unmarshal(fwd.Params, &p); err == nil {
			r.mu.Lock()
			r.upsertTargetLocked(p.SessionID, p.TargetInfo.TargetID, p.TargetInfo)
			r.mu.Unlock()
		}

	case "Target.detachedFromTarget":
		var p wire.DetachedFromTargetParams
		if err := json.Unmarshal(fwd.Params, &p); err == nil {
			r.mu.Lock()
			r.removeTargetLocked(p.SessionID)
			r.mu.Unlock()
		}

	case "Target.targetInfoChanged":
		var p wire.TargetInfoChangedParams
		if err := json.Unmarshal(fwd.Params, &p); err == nil {
			r.mu.Lock()
			r.updateTargetInfoLocked(p.TargetInfo.TargetID, p.TargetInfo)
			r.mu.Unlock()
		}

	case "Page.frameNavigated":
		var p wire.FrameNavigatedParams
		if err := json.Unmarshal(fwd.Params, &p); err == nil && p.Frame.ParentID == "" && fwd.SessionID != "" {
			r.mu.Lock()
			r.updateTargetNavigationLocked(fwd.SessionID, p.Frame.URL, p.Frame.Name)
			r.mu.Unlock()
		}
	}

	r.broadcastToAgents(wire.AgentEvent{
		Method:    fwd.Method,
		SessionID: fwd.SessionID,
		Params:    fwd.Params,
	})
}

// broadcastToAgents fans an event out to a snapshot of the current agent
// set. Individual send failures are logged and isolated; they never affect
// delivery to other agents nor the browser peer's own read pump.
func (r *Room) broadcastToAgents(event wire.AgentEvent) {
	r.mu.Lock()
	conns := make([]*wsconn.Conn, 0, len(r.agents))
	for _, pc := range r.agents {
		conns = append(conns, pc.conn)
	}
	r.mu.Unlock()

	for _, c := range conns {
		if err := c.WriteJSON(event); err != nil {
			log.Printf("[room %s] broadcast to agent failed: %v", r.ID, err)
		}
	}
}
