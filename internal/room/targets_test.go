// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package room

import (
	"testing"

	"github.com/hyperint/roomrelay/internal/wire"
)

func TestTargetRegistryLifecycle(t *testing.T) {
	r := New("room-t")

	r.mu.Lock()
	r.upsertTargetLocked("sess-1", "target-1", wire.TargetInfo{TargetID: "target-1", URL: "https://a.example"})
	r.upsertTargetLocked("sess-2", "target-2", wire.TargetInfo{TargetID: "target-2", URL: "https://b.example"})
	all := r.allTargetsLocked()
	r.mu.Unlock()

	if len(all) != 2 || all[0].SessionID != "sess-1" || all[1].SessionID != "sess-2" {
		t.Fatalf("expected insertion order [sess-1, sess-2], got %+v", all)
	}

	r.mu.Lock()
	r.removeTargetLocked("sess-1")
	remaining := r.allTargetsLocked()
	r.mu.Unlock()

	if len(remaining) != 1 || remaining[0].SessionID != "sess-2" {
		t.Fatalf("expected only sess-2 to remain, got %+v", remaining)
	}
}

func TestUpdateTargetInfoLocked(t *testing.T) {
	r := New("room-t2")
	r.mu.Lock()
	r.upsertTargetLocked("sess-1", "target-1", wire.TargetInfo{TargetID: "target-1", Title: "old"})
	ok := r.updateTargetInfoLocked("target-1", wire.TargetInfo{TargetID: "target-1", Title: "new"})
	tgt, _ := r.targetBySessionLocked("sess-1")
	r.mu.Unlock()

	if !ok {
		t.Fatal("expected update to find the target")
	}
	if tgt.Info.Title != "new" {
		t.Fatalf("expected title to update, got %q", tgt.Info.Title)
	}
}

func TestUpdateTargetNavigationLockedPreservesTitleWhenFrameNameEmpty(t *testing.T) {
	r := New("room-t3")
	r.mu.Lock()
	r.upsertTargetLocked("sess-1", "target-1", wire.TargetInfo{TargetID: "target-1", Title: "keep-me", URL: "https://old.example"})
	r.updateTargetNavigationLocked("sess-1", "https://new.example", "")
	tgt, _ := r.targetBySessionLocked("sess-1")
	r.mu.Unlock()

	if tgt.Info.URL != "https://new.example" {
		t.Fatalf("expected URL to update, got %q", tgt.Info.URL)
	}
	if tgt.Info.Title != "keep-me" {
		t.Fatalf("expected title to be preserved when frame name is empty, got %q", tgt.Info.Title)
	}
}

func TestFirstTargetLockedFallback(t *testing.T) {
	r := New("room-t4")
	if _, ok := r.firstTargetLocked(); ok {
		t.Fatal("expected no fallback target in an empty registry")
	}
	r.mu.Lock()
	r.upsertTargetLocked("sess-1", "target-1", wire.TargetInfo{TargetID: "target-1"})
	r.upsertTargetLocked("sess-2", "target-2", wire.TargetInfo{TargetID: "target-2"})
	first, ok := r.firstTargetLocked()
	r.mu.Unlock()

	if !ok || first.SessionID != "sess-1" {
		t.Fatalf("expected earliest-attached target sess-1, got %+v ok=%v", first, ok)
	}
}
