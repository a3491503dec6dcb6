// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package room

import "github.com/hyperint/roomrelay/internal/wire"

// Target mirrors a single attached browser tab/worker, keyed by sessionId.
type Target struct {
	SessionID string
	TargetID  string
	Info      wire.TargetInfo
}

// upsertTargetLocked inserts or replaces a target on Target.attachedToTarget.
func (r *Room) upsertTargetLocked(sessionID, targetID string, info wire.TargetInfo) {
	if _, exists := r.targets[sessionID]; !exists {
		r.targetOrder = append(r.targetOrder, sessionID)
	}
	r.targets[sessionID] = &Target{SessionID: sessionID, TargetID: targetID, Info: info}
}

// removeTargetLocked deletes a target on Target.detachedFromTarget.
func (r *Room) removeTargetLocked(sessionID string) {
	if _, exists := r.targets[sessionID]; !exists {
		return
	}
	delete(r.targets, sessionID)
	for i, sid := range r.targetOrder {
		if sid == sessionID {
			r.targetOrder = append(r.targetOrder[:i], r.targetOrder[i+1:]...)
			break
		}
	}
}

// updateTargetInfoLocked replaces the info of the target with the given
// targetId, wherever it lives in the session-keyed map.
func (r *Room) updateTargetInfoLocked(targetID string, info wire.TargetInfo) bool {
	for _, t := range r.targets {
		if t.TargetID == targetID {
			t.Info = info
			return true
		}
	}
	return false
}

// updateTargetNavigationLocked applies a top-frame Page.frameNavigated to
// the target attached under sessionID: the URL always updates, and the
// title falls back to the frame's name only when that name is non-empty.
func (r *Room) updateTargetNavigationLocked(sessionID, url, frameName string) bool {
	t, ok := r.targets[sessionID]
	if !ok {
		return false
	}
	t.Info.URL = url
	if frameName != "" {
		t.Info.Title = frameName
	}
	return true
}

func (r *Room) targetBySessionLocked(sessionID string) (*Target, bool) {
	t, ok := r.targets[sessionID]
	return t, ok
}

func (r *Room) targetByIDLocked(targetID string) (*Target, bool) {
	for _, t := range r.targets {
		if t.TargetID == targetID {
			return t, true
		}
	}
	return nil, false
}

// allTargetsLocked returns targets in attachment order (insertion order),
// which is what makes S2-style scenarios deterministic.
func (r *Room) allTargetsLocked() []*Target {
	out := make([]*Target, 0, len(r.targetOrder))
	for _, sid := range r.targetOrder {
		if t, ok := r.targets[sid]; ok {
			out = append(out, t)
		}
	}
	return out
}

// firstTargetLocked returns the earliest-attached target, used by the
// Target.getTargetInfo legacy fallback (SPEC_FULL.md §9 open question).
func (r *Room) firstTargetLocked() (*Target, bool) {
	if len(r.targetOrder) == 0 {
		return nil, false
	}
	t, ok := r.targets[r.targetOrder[0]]
	return t, ok
}
