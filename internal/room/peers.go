// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package room

import (
	"github.com/google/uuid"
	"github.com/hyperint/roomrelay/internal/wsconn"
)

// Role identifies which of the three peer classes a connection belongs to.
type Role int

const (
	RoleBrowser Role = iota
	RoleLocal
	RoleAgent
)

func (r Role) String() string {
	switch r {
	case RoleBrowser:
		return "browser"
	case RoleLocal:
		return "local"
	case RoleAgent:
		return "agent"
	default:
		return "unknown"
	}
}

// Peer is the caller-facing handle returned on admission. It carries no
// pointer into room-internal state, only its role, clientId and ConnTag:
// teardown (RemoveBrowser/
// RemoveLocal/RemoveAgent) resolves that tag through the room's connTags
// registry and verifies the resolved entry still occupies its role slot
// before mutating anything, rather than trusting a stale caller-held Peer
// value outright (see SPEC_FULL.md §4.9).
type Peer struct {
	Role     Role
	ClientID string
	ConnTag  string
}

// peerConn is the room-internal record backing an admitted Peer.
type peerConn struct {
	role     Role
	clientID string
	connTag  string
	conn     *wsconn.Conn
}

func newConnTag() string {
	return uuid.New().String()
}

// AdmitBrowser registers the browser peer. Only one may be present at a time.
func (r *Room) AdmitBrowser(conn *wsconn.Conn) (Peer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return Peer{}, ErrConflict
	}
	pc := &peerConn{role: RoleBrowser, connTag: newConnTag(), conn: conn}
	r.browser = pc
	r.connTags[pc.connTag] = pc
	r.startKeepaliveLocked()
	return Peer{Role: RoleBrowser, ConnTag: pc.connTag}, nil
}

// AdmitLocal registers the local peer. Only one may be present at a time;
// clientID is recorded for introspection but never used to differentiate.
func (r *Room) AdmitLocal(clientID string, conn *wsconn.Conn) (Peer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.local != nil {
		return Peer{}, ErrConflict
	}
	pc := &peerConn{role: RoleLocal, clientID: clientID, connTag: newConnTag(), conn: conn}
	r.local = pc
	r.connTags[pc.connTag] = pc
	r.startKeepaliveLocked()
	return Peer{Role: RoleLocal, ClientID: clientID, ConnTag: pc.connTag}, nil
}

// AdmitAgent registers an agent peer under clientID. Any number of agents
// may be present, but a given clientID may not be admitted twice.
func (r *Room) AdmitAgent(clientID string, conn *wsconn.Conn) (Peer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.agents[clientID]; exists {
		return Peer{}, ErrConflict
	}
	pc := &peerConn{role: RoleAgent, clientID: clientID, connTag: newConnTag(), conn: conn}
	r.agents[clientID] = pc
	r.connTags[pc.connTag] = pc
	return Peer{Role: RoleAgent, ClientID: clientID, ConnTag: pc.connTag}, nil
}

// RemoveBrowser tears down the browser peer per SPEC_FULL.md §4.8: the
// target registry is cleared, pending browser RPCs are rejected, and every
// agent socket is closed.
func (r *Room) RemoveBrowser(p Peer) {
	r.mu.Lock()
	pc, ok := r.connTags[p.ConnTag]
	if !ok || r.browser != pc {
		r.mu.Unlock()
		return
	}
	delete(r.connTags, p.ConnTag)
	r.browser = nil

	r.targets = make(map[string]*Target)
	r.targetOrder = nil

	rejectAllLocked(r.browserPending, "Extension connection closed")

	agentConns := r.snapshotAgentConnsLocked()
	for _, pc := range r.agents {
		delete(r.connTags, pc.connTag)
	}
	r.agents = make(map[string]*peerConn)
	r.stopKeepaliveIfIdleLocked()
	r.mu.Unlock()

	for _, c := range agentConns {
		c.CloseWithReason(1000, "Extension disconnected")
	}
}

// RemoveLocal tears down the local peer per SPEC_FULL.md §4.8: the ledger
// is cleared and pending local RPCs are rejected. Agents are unaffected.
func (r *Room) RemoveLocal(p Peer) {
	r.mu.Lock()
	pc, ok := r.connTags[p.ConnTag]
	if !ok || r.local != pc {
		r.mu.Unlock()
		return
	}
	delete(r.connTags, p.ConnTag)
	r.local = nil

	r.ledger = make(map[string]int64)

	rejectAllLocked(r.localPending, "Local client connection closed")

	r.stopKeepaliveIfIdleLocked()
	r.mu.Unlock()
}

// AgentByClientID reports whether an agent with clientID is currently
// admitted, for the pre-upgrade conflict check in the WS handler.
func (r *Room) AgentByClientID(clientID string) (Peer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pc, ok := r.agents[clientID]
	if !ok {
		return Peer{}, false
	}
	return Peer{Role: RoleAgent, ClientID: clientID, ConnTag: pc.connTag}, true
}

// RemoveAgent frees clientID and drops it from fan-out. Identity is
// resolved through connTags first (guarding against a stale handle from a
// since-replaced agent of the same clientID) before the clientID-keyed
// fan-out map is touched.
func (r *Room) RemoveAgent(p Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pc, ok := r.connTags[p.ConnTag]
	if !ok || pc.role != RoleAgent || pc.clientID != p.ClientID {
		return
	}
	if r.agents[p.ClientID] == pc {
		delete(r.agents, p.ClientID)
	}
	delete(r.connTags, p.ConnTag)
}

// Status is the aggregate introspection view served at /room/{id}/status.
type Status struct {
	BrowserConnected bool `json:"browserConnected"`
	LocalConnected   bool `json:"localConnected"`
	AgentCount       int  `json:"agentCount"`
	TargetCount      int  `json:"targetCount"`
}

func (r *Room) StatusSnapshot() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Status{
		BrowserConnected: r.browser != nil,
		LocalConnected:   r.local != nil,
		AgentCount:       len(r.agents),
		TargetCount:      len(r.targets),
	}
}

// BrowserConnected reports whether a browser peer is currently admitted.
func (r *Room) BrowserConnected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.browser != nil
}

// LocalConnected reports whether a local peer is currently admitted.
func (r *Room) LocalConnected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.local != nil
}

// IsEmpty reports whether the room currently has no admitted peers of any role.
func (r *Room) IsEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.browser == nil && r.local == nil && len(r.agents) == 0
}

func (r *Room) snapshotAgentConnsLocked() []*wsconn.Conn {
	conns := make([]*wsconn.Conn, 0, len(r.agents))
	for _, pc := range r.agents {
		conns = append(conns, pc.conn)
	}
	return conns
}
