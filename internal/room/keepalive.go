// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package room

import (
	"time"

	"github.com/hyperint/roomrelay/internal/wire"
)

const keepaliveInterval = 5 * time.Second

// startKeepaliveLocked launches the ping goroutine on the first admitted
// browser or local peer (agent admission never calls it). Safe to call
// repeatedly; a second admission while one is already running is a no-op.
func (r *Room) startKeepaliveLocked() {
	if r.keepaliveStopCh != nil {
		return
	}
	stop := make(chan struct{})
	r.keepaliveStopCh = stop
	go r.runKeepalive(stop)
}

// stopKeepaliveIfIdleLocked tears the goroutine down once both the browser
// and local peers are gone; agents alone don't need application-level pings.
func (r *Room) stopKeepaliveIfIdleLocked() {
	if r.browser != nil || r.local != nil {
		return
	}
	if r.keepaliveStopCh == nil {
		return
	}
	close(r.keepaliveStopCh)
	r.keepaliveStopCh = nil
}

func (r *Room) runKeepalive(stop chan struct{}) {
	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.sendKeepalivePings()
		}
	}
}

// sendKeepalivePings writes the application-level {"method":"ping"} envelope
// to whichever of the browser/local peers are currently attached. Write
// failures are left for the peer's own read pump to notice as a disconnect.
func (r *Room) sendKeepalivePings() {
	r.mu.Lock()
	browser := r.browser
	local := r.local
	r.mu.Unlock()

	ping := wire.Ping()
	if browser != nil {
		browser.conn.WriteJSON(ping)
	}
	if local != nil {
		local.conn.WriteJSON(ping)
	}
}
