// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialWS(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("dial %s: %v (status=%d)", path, err, status)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// dialExtensionWS dials the browser-facing socket, which enforces a
// fail-secure Origin check: the test stands in for the extension's own
// Origin header and configures the allow-list the same way
// sandbox/internal/ws/router_test.go does for its equivalent socket.
func dialExtensionWS(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:*,http://127.0.0.1:*")

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	headers := http.Header{}
	headers.Set("Origin", "http://localhost:9222")
	conn, resp, err := websocket.DefaultDialer.Dial(url, headers)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("dial %s: %v (status=%d)", path, err, status)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// TestExtensionAndAgentRoundTrip exercises the forward path: an agent issues a
// CDP-shaped command, the relay forwards it to the extension peer, and the
// extension's response is relayed back to the agent unchanged.
func TestExtensionAndAgentRoundTrip(t *testing.T) {
	s := NewServer()
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ext := dialExtensionWS(t, ts, "/room/r1/extension?passphrase=secret")
	agent := dialWS(t, ts, "/room/r1/mcp/agent-1?passphrase=secret")

	agentReq := map[string]interface{}{"id": 1, "method": "Runtime.evaluate", "params": map[string]string{"expression": "1+1"}}
	if err := agent.WriteJSON(agentReq); err != nil {
		t.Fatalf("agent write: %v", err)
	}

	var outbound struct {
		ID     uint64 `json:"id"`
		Method string `json:"method"`
		Params struct {
			Method string `json:"method"`
		} `json:"params"`
	}
	if err := ext.ReadJSON(&outbound); err != nil {
		t.Fatalf("extension read: %v", err)
	}
	if outbound.Method != "forwardCDPCommand" || outbound.Params.Method != "Runtime.evaluate" {
		t.Fatalf("unexpected outbound command: %+v", outbound)
	}

	if err := ext.WriteJSON(map[string]interface{}{"id": outbound.ID, "result": map[string]int{"value": 2}}); err != nil {
		t.Fatalf("extension write: %v", err)
	}

	var reply struct {
		ID     uint64          `json:"id"`
		Result json.RawMessage `json:"result"`
	}
	agent.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := agent.ReadJSON(&reply); err != nil {
		t.Fatalf("agent read reply: %v", err)
	}
	if reply.ID != 1 {
		t.Fatalf("unexpected reply id: %d", reply.ID)
	}
}

// TestSecondExtensionRejectedWithConflict covers the single-browser-peer
// invariant: a second extension connection to the same room is refused.
func TestSecondExtensionRejectedWithConflict(t *testing.T) {
	s := NewServer()
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	dialExtensionWS(t, ts, "/room/r2/extension?passphrase=secret")

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/room/r2/extension?passphrase=secret"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected second extension dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusConflict {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("expected 409 Conflict, got %d", status)
	}
}

// TestMismatchedPassphraseRejected covers first-writer-wins room auth: once
// a passphrase is established, a mismatched one is refused.
func TestMismatchedPassphraseRejected(t *testing.T) {
	s := NewServer()
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	dialExtensionWS(t, ts, "/room/r3/extension?passphrase=correct-horse")

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/room/r3/local?passphrase=wrong"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial with mismatched passphrase to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("expected 403 Forbidden, got %d", status)
	}
}

// TestFileReadThenWriteThroughMCPServer covers scenario S4: an MCP client
// posts to /mcp-server to read then write a file relayed through the local
// peer's read-time ledger.
func TestFileReadThenWriteThroughMCPServer(t *testing.T) {
	s := NewServer()
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	local := dialWS(t, ts, "/room/r4/local/local-1?passphrase=secret")

	readDone := make(chan *http.Response, 1)
	go func() {
		body := strings.NewReader(`{"id":1,"method":"tools/call","params":{"name":"read_file","arguments":{"path":"/tmp/x.txt"}}}`)
		req, _ := http.NewRequest(http.MethodPost, ts.URL+"/room/r4/mcp-server?passphrase=secret", body)
		req.Header.Set("Content-Type", "application/json")
		resp, err := ts.Client().Do(req)
		if err != nil {
			t.Errorf("mcp-server read request: %v", err)
			return
		}
		readDone <- resp
	}()

	var outbound struct {
		ID     uint64 `json:"id"`
		Method string `json:"method"`
	}
	local.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := local.ReadJSON(&outbound); err != nil {
		t.Fatalf("local read outbound: %v", err)
	}
	if outbound.Method != "file.read" {
		t.Fatalf("expected file.read, got %q", outbound.Method)
	}
	if err := local.WriteJSON(map[string]interface{}{
		"id":     outbound.ID,
		"result": map[string]interface{}{"content": "hello", "mtime": 100},
	}); err != nil {
		t.Fatalf("local write result: %v", err)
	}

	resp := <-readDone
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from mcp-server, got %d", resp.StatusCode)
	}

	writeDone := make(chan *http.Response, 1)
	go func() {
		body := strings.NewReader(`{"id":2,"method":"tools/call","params":{"name":"write_file","arguments":{"path":"/tmp/x.txt","content":"world"}}}`)
		req, _ := http.NewRequest(http.MethodPost, ts.URL+"/room/r4/mcp-server?passphrase=secret", body)
		req.Header.Set("Content-Type", "application/json")
		resp, err := ts.Client().Do(req)
		if err != nil {
			t.Errorf("mcp-server write request: %v", err)
			return
		}
		writeDone <- resp
	}()

	var writeOutbound struct {
		ID     uint64 `json:"id"`
		Method string `json:"method"`
		Params struct {
			ExpectedMtime int64 `json:"expectedMtime"`
		} `json:"params"`
	}
	local.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := local.ReadJSON(&writeOutbound); err != nil {
		t.Fatalf("local read write outbound: %v", err)
	}
	if writeOutbound.Method != "file.write" || writeOutbound.Params.ExpectedMtime != 100 {
		t.Fatalf("expected file.write with expectedMtime 100, got %+v", writeOutbound)
	}
	if err := local.WriteJSON(map[string]interface{}{
		"id":     writeOutbound.ID,
		"result": map[string]interface{}{"success": true, "mtime": 200},
	}); err != nil {
		t.Fatalf("local write result: %v", err)
	}

	wresp := <-writeDone
	defer wresp.Body.Close()
	if wresp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from mcp-server write, got %d", wresp.StatusCode)
	}
	var writeResult struct {
		IsError bool `json:"isError"`
	}
	if err := json.NewDecoder(wresp.Body).Decode(&writeResult); err != nil {
		t.Fatalf("decode write result: %v", err)
	}
	if writeResult.IsError {
		t.Fatal("expected write_file after read_file to succeed")
	}
}

// TestUnknownRoomStatusReflectsNoPeers covers the operator status surface
// used by roomctl.
func TestUnknownRoomStatusReflectsNoPeers(t *testing.T) {
	s := NewServer()
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/room/r5/status?passphrase=secret", nil)
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("status request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var status struct {
		BrowserConnected bool `json:"browserConnected"`
		LocalConnected   bool `json:"localConnected"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.BrowserConnected || status.LocalConnected {
		t.Fatal("expected a freshly created room to report no connected peers")
	}
}

func TestHealthEndpointAlwaysOK(t *testing.T) {
	s := NewServer()
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
