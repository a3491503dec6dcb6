// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package room

import (
	"encoding/json"
	"testing"

	"github.com/hyperint/roomrelay/internal/wire"
)

func TestHandleBrowserEventUpsertsTargetAndBroadcasts(t *testing.T) {
	r := New("bcast-1")
	_, agent := admitTestAgent(t, r, "a1")

	params, _ := json.Marshal(wire.AttachedToTargetParams{
		SessionID:  "sess-1",
		TargetInfo: wire.TargetInfo{TargetID: "target-1", Type: "page"},
	})
	r.HandleBrowserEvent(wire.CDPForward{Method: "Target.attachedToTarget", Params: params})

	evt := agent.recvEnvelope(t)
	if evt.Method != "Target.attachedToTarget" {
		t.Fatalf("expected agent to receive the event, got %+v", evt)
	}

	r.mu.Lock()
	_, ok := r.targetBySessionLocked("sess-1")
	r.mu.Unlock()
	if !ok {
		t.Fatal("expected target registry to record sess-1")
	}
}

func TestHandleBrowserEventDetachRemovesTarget(t *testing.T) {
	r := New("bcast-2")
	_, agent := admitTestAgent(t, r, "a1")

	r.mu.Lock()
	r.upsertTargetLocked("sess-1", "target-1", wire.TargetInfo{TargetID: "target-1"})
	r.mu.Unlock()

	params, _ := json.Marshal(wire.DetachedFromTargetParams{SessionID: "sess-1"})
	r.HandleBrowserEvent(wire.CDPForward{Method: "Target.detachedFromTarget", Params: params})
	agent.recvEnvelope(t)

	r.mu.Lock()
	_, ok := r.targetBySessionLocked("sess-1")
	r.mu.Unlock()
	if ok {
		t.Fatal("expected sess-1 to be removed from the target registry")
	}
}

func TestHandleBrowserEventTopFrameNavigationUpdatesTarget(t *testing.T) {
	r := New("bcast-3")
	_, agent := admitTestAgent(t, r, "a1")

	r.mu.Lock()
	r.upsertTargetLocked("sess-1", "target-1", wire.TargetInfo{TargetID: "target-1", URL: "https://old.example"})
	r.mu.Unlock()

	params, _ := json.Marshal(wire.FrameNavigatedParams{
		Frame: wire.FrameNavigatedFrame{ID: "target-1", URL: "https://new.example"},
	})
	r.HandleBrowserEvent(wire.CDPForward{Method: "Page.frameNavigated", SessionID: "sess-1", Params: params})
	agent.recvEnvelope(t)

	r.mu.Lock()
	tgt, _ := r.targetBySessionLocked("sess-1")
	r.mu.Unlock()
	if tgt.Info.URL != "https://new.example" {
		t.Fatalf("expected URL to update from top-frame navigation, got %q", tgt.Info.URL)
	}
}

func TestHandleBrowserEventSubFrameNavigationIgnored(t *testing.T) {
	r := New("bcast-4")
	_, agent := admitTestAgent(t, r, "a1")

	r.mu.Lock()
	r.upsertTargetLocked("sess-1", "target-1", wire.TargetInfo{TargetID: "target-1", URL: "https://old.example"})
	r.mu.Unlock()

	params, _ := json.Marshal(wire.FrameNavigatedParams{
		Frame: wire.FrameNavigatedFrame{ID: "sub-frame", ParentID: "target-1", URL: "https://iframe.example"},
	})
	r.HandleBrowserEvent(wire.CDPForward{Method: "Page.frameNavigated", SessionID: "sess-1", Params: params})
	agent.recvEnvelope(t)

	r.mu.Lock()
	tgt, _ := r.targetBySessionLocked("sess-1")
	r.mu.Unlock()
	if tgt.Info.URL != "https://old.example" {
		t.Fatalf("expected sub-frame navigation to be ignored, got URL %q", tgt.Info.URL)
	}
}

func TestBroadcastToAgentsFansOutToMultipleAgents(t *testing.T) {
	r := New("bcast-5")
	_, agent1 := admitTestAgent(t, r, "a1")
	_, agent2 := admitTestAgent(t, r, "a2")

	r.broadcastToAgents(wire.AgentEvent{Method: "Runtime.consoleAPICalled"})

	if evt := agent1.recvEnvelope(t); evt.Method != "Runtime.consoleAPICalled" {
		t.Fatalf("agent1 did not receive broadcast: %+v", evt)
	}
	if evt := agent2.recvEnvelope(t); evt.Method != "Runtime.consoleAPICalled" {
		t.Fatalf("agent2 did not receive broadcast: %+v", evt)
	}
}
