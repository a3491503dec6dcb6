// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hyperint/roomrelay/internal/id"
	"github.com/hyperint/roomrelay/internal/room"
	"github.com/hyperint/roomrelay/internal/wire"
	"github.com/hyperint/roomrelay/internal/wsconn"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// allowedOrigins mirrors the sandbox's own ALLOWED_ORIGINS convention.
func allowedOrigins() []string {
	origins := os.Getenv("ALLOWED_ORIGINS")
	if origins == "" {
		return nil
	}
	return strings.Split(origins, ",")
}

// checkExtensionOrigin is the fail-secure check the sandbox's own router.go
// applies to its browser-facing socket: reject a missing Origin header and
// reject outright when no allow-list is configured. The browser extension
// is the only one of this relay's three peers that runs inside a browser
// context and therefore always sends an Origin header, so this is the only
// socket where a spoofed cross-origin page could otherwise ride a victim's
// cookies/session into an upgrade attempt.
func checkExtensionOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}
	allowed := allowedOrigins()
	if len(allowed) == 0 {
		return false
	}
	for _, a := range allowed {
		a = strings.TrimSpace(a)
		if a == origin || a == "*" {
			return true
		}
		if strings.HasSuffix(a, ":*") {
			prefix := strings.TrimSuffix(a, "*")
			if remainder, ok := strings.CutPrefix(origin, prefix); ok && remainder != "" && isNumeric(remainder) {
				return true
			}
		}
	}
	return false
}

func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// checkPeerProcessOrigin covers the local-machine and agent sockets: both
// are dialed by non-browser processes (a local helper binary, an MCP
// client) that have no Origin header to spoof and no browser-held
// credentials to ride along, so there is nothing for an Origin allow-list
// to defend against here the way there is for the extension socket above.
func checkPeerProcessOrigin(r *http.Request) bool {
	return true
}

var extensionUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     checkExtensionOrigin,
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     checkPeerProcessOrigin,
}

func (s *Server) handleExtensionWS(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomId")
	if !s.requirePassphrase(w, r, roomID) {
		return
	}
	rm := s.rooms.GetOrCreate(roomID)
	if rm.BrowserConnected() {
		http.Error(w, room.ErrConflict.Error(), http.StatusConflict)
		return
	}

	ws, err := extensionUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[room %s] extension upgrade failed: %v", roomID, err)
		return
	}
	conn := wsconn.Wrap(ws)

	peer, err := rm.AdmitBrowser(conn)
	if err != nil {
		conn.CloseWithReason(websocket.ClosePolicyViolation, err.Error())
		return
	}

	log.Printf("[room %s] extension connected", roomID)
	runNativeKeepalive(conn)
	s.runBrowserReadLoop(rm, conn)

	rm.RemoveBrowser(peer)
	s.rooms.ScheduleCleanupIfEmpty(roomID)
	log.Printf("[room %s] extension disconnected", roomID)
}

func (s *Server) handleLocalWS(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomId")
	if !s.requirePassphrase(w, r, roomID) {
		return
	}
	rm := s.rooms.GetOrCreate(roomID)
	if rm.LocalConnected() {
		http.Error(w, room.ErrConflict.Error(), http.StatusConflict)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[room %s] local upgrade failed: %v", roomID, err)
		return
	}
	conn := wsconn.Wrap(ws)

	clientID := r.PathValue("clientId")
	peer, err := rm.AdmitLocal(clientID, conn)
	if err != nil {
		conn.CloseWithReason(websocket.ClosePolicyViolation, err.Error())
		return
	}

	log.Printf("[room %s] local client %q connected", roomID, clientID)
	runNativeKeepalive(conn)
	s.runLocalReadLoop(rm, conn)

	rm.RemoveLocal(peer)
	s.rooms.ScheduleCleanupIfEmpty(roomID)
	log.Printf("[room %s] local client %q disconnected", roomID, clientID)
}

func (s *Server) handleAgentWS(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomId")
	if !s.requirePassphrase(w, r, roomID) {
		return
	}
	rm := s.rooms.GetOrCreate(roomID)

	clientID := r.PathValue("clientId")
	if clientID == "" {
		generated, err := id.New()
		if err != nil {
			http.Error(w, "failed to allocate client id", http.StatusInternalServerError)
			return
		}
		clientID = generated
	}
	if _, exists := rm.AgentByClientID(clientID); exists {
		http.Error(w, room.ErrConflict.Error(), http.StatusConflict)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[room %s] agent upgrade failed: %v", roomID, err)
		return
	}
	conn := wsconn.Wrap(ws)

	peer, err := rm.AdmitAgent(clientID, conn)
	if err != nil {
		conn.CloseWithReason(websocket.ClosePolicyViolation, err.Error())
		return
	}

	log.Printf("[room %s] agent %q connected", roomID, clientID)
	runNativeKeepalive(conn)
	s.runAgentReadLoop(rm, conn)

	rm.RemoveAgent(peer)
	s.rooms.ScheduleCleanupIfEmpty(roomID)
	log.Printf("[room %s] agent %q disconnected", roomID, clientID)
}

// runNativeKeepalive sends transport-level ping frames on pingPeriod and
// keeps the read deadline pushed out on every pong, independent of the
// room's own application-level {"method":"ping"} envelope (SPEC_FULL.md
// §4.9). It also sets the initial read deadline and read limit.
func runNativeKeepalive(conn *wsconn.Conn) {
	ws := conn.Underlying()
	ws.SetReadLimit(1 << 20)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	stop := make(chan struct{})
	ws.SetCloseHandler(func(code int, text string) error {
		close(stop)
		return nil
	})

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := conn.WritePing(); err != nil {
					return
				}
			}
		}
	}()
}

// logPeerMessage writes a browser/local peer's forwarded log line to the
// relay's own log sink (SPEC_FULL.md §4.4). A malformed payload is logged
// raw rather than dropped, since the point of this path is to never lose a
// peer's log output.
func logPeerMessage(roomID, peer string, params json.RawMessage) {
	var p wire.LogParams
	if err := json.Unmarshal(params, &p); err != nil {
		log.Printf("[room %s] %s log: %s", roomID, peer, params)
		return
	}
	if p.Level == "" {
		p.Level = "info"
	}
	log.Printf("[room %s] %s log (%s): %v", roomID, peer, p.Level, p.Args)
}

// runBrowserReadLoop blocks reading frames from the browser peer until it
// disconnects, dispatching each envelope to the room's browser multiplexer,
// event pipeline, or logging it, per SPEC_FULL.md §4.4/§7.
func (s *Server) runBrowserReadLoop(rm *room.Room, conn *wsconn.Conn) {
	for {
		_, data, err := conn.Underlying().ReadMessage()
		if err != nil {
			return
		}
		var env wire.PeerEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Printf("[room %s] malformed extension message: %v", rm.ID, err)
			continue
		}
		switch {
		case env.ID != nil:
			rm.HandleBrowserResponse(env)
		case env.Method == "forwardCDPEvent":
			var fwd wire.CDPForward
			if err := json.Unmarshal(env.Params, &fwd); err == nil {
				rm.HandleBrowserEvent(fwd)
			}
		case env.Method == "log":
			logPeerMessage(rm.ID, "extension", env.Params)
		case env.Method == "pong":
			// consumed silently; the room keeps no application-level liveness
			// count, and the native WS pong is handled in runNativeKeepalive.
		default:
			log.Printf("[room %s] unrecognized extension envelope method=%q", rm.ID, env.Method)
		}
	}
}

// runLocalReadLoop mirrors runBrowserReadLoop for the local peer, which only
// ever sends RPC responses plus log/pong envelopes.
func (s *Server) runLocalReadLoop(rm *room.Room, conn *wsconn.Conn) {
	for {
		_, data, err := conn.Underlying().ReadMessage()
		if err != nil {
			return
		}
		var env wire.PeerEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Printf("[room %s] malformed local message: %v", rm.ID, err)
			continue
		}
		switch {
		case env.ID != nil:
			rm.HandleLocalResponse(env)
		case env.Method == "log":
			logPeerMessage(rm.ID, "local", env.Params)
		case env.Method == "pong":
		default:
			log.Printf("[room %s] unrecognized local envelope method=%q", rm.ID, env.Method)
		}
	}
}

// runAgentReadLoop reads protocol commands from a single agent connection
// and hands each to the command router (C6) in receive order.
func (s *Server) runAgentReadLoop(rm *room.Room, conn *wsconn.Conn) {
	for {
		_, data, err := conn.Underlying().ReadMessage()
		if err != nil {
			return
		}
		var req wire.AgentRequest
		if err := json.Unmarshal(data, &req); err != nil {
			log.Printf("[room %s] malformed agent message: %v", rm.ID, err)
			continue
		}
		rm.RouteAgentCommand(conn, req)
	}
}
