// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package room

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

// wsPair returns two ends of a real WebSocket connection: roomSide is what
// production code wraps in wsconn.Conn and hands to Room.Admit*; peerSide is
// driven directly by the test to stand in for the browser/local/agent peer.
func wsPair(t *testing.T) (roomSide, peerSide *websocket.Conn) {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	connected := make(chan *websocket.Conn, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		// The upgrade hijacks the underlying connection; returning here
		// does not close it, ownership has passed to the caller.
		connected <- c
	}))
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	peerSide, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { peerSide.Close() })

	roomSide = <-connected
	t.Cleanup(func() { roomSide.Close() })
	return roomSide, peerSide
}
