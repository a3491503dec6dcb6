// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

// Package room implements a single tenant's relay state: the peer registry,
// the target registry, the RPC multiplexers to the browser and local peers,
// the read-time ledger, and the command router that decides how an agent's
// protocol command gets answered. A Manager owns the map of room id to *Room.
package room

import (
	"sync"

	"github.com/hyperint/roomrelay/internal/auth"
)

// Room holds all state for one tenant. Every mutation of that state happens
// under mu; the only work ever done while mu is held is bookkeeping — no
// network I/O, no blocking wait for a peer's reply. See SPEC_FULL.md §5.
type Room struct {
	ID   string
	Auth *auth.Authenticator

	mu sync.Mutex

	browser *peerConn
	local   *peerConn
	agents  map[string]*peerConn

	// connTags indexes every admitted connection by its opaque tag,
	// independent of role or clientId, per the hibernation-wake discipline
	// in SPEC_FULL.md §4.9: a caller resolves identity through this map
	// rather than holding onto a peerConn pointer across message boundaries.
	connTags map[string]*peerConn

	targets     map[string]*Target
	targetOrder []string

	ledger map[string]int64

	browserPending  map[uint64]*pendingCall
	browserNextID   uint64
	localPending    map[uint64]*pendingCall
	localNextID     uint64
	keepaliveStopCh chan struct{}
}

// New allocates an empty room. Rooms are created lazily by Manager.GetOrCreate
// on first inbound connection; there is no separate provisioning step.
func New(id string) *Room {
	return &Room{
		ID:             id,
		Auth:           auth.New(),
		agents:         make(map[string]*peerConn),
		connTags:       make(map[string]*peerConn),
		targets:        make(map[string]*Target),
		ledger:         make(map[string]int64),
		browserPending: make(map[uint64]*pendingCall),
		localPending:   make(map[uint64]*pendingCall),
	}
}
