// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package room

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hyperint/roomrelay/internal/wire"
)

const (
	// DefaultBrowserCallTimeout is the deadline for a forwarded CDP command.
	DefaultBrowserCallTimeout = 30 * time.Second
	// localCallSlack is added on top of a bash.execute's own timeout so the
	// round trip has room to return the exit status after the command dies.
	localCallSlack = 5 * time.Second
	// defaultLocalCallTimeout covers file.read/file.write, which carry no
	// caller-supplied timeout of their own.
	defaultLocalCallTimeout = 30 * time.Second
	// defaultBashTimeoutMS is applied when a bash.execute call omits timeout.
	defaultBashTimeoutMS = 30000
)

type callResult struct {
	result json.RawMessage
	err    error
}

type pendingCall struct {
	ch    chan callResult
	timer *time.Timer
}

// rejectAllLocked resolves every pending call in the table with the given
// error message and empties the table. Must be called with r.mu held.
func rejectAllLocked(pending map[uint64]*pendingCall, message string) {
	for id, pc := range pending {
		if pc.timer != nil {
			pc.timer.Stop()
		}
		select {
		case pc.ch <- callResult{err: errors.New(message)}:
		default:
		}
		delete(pending, id)
	}
}

func resolvePendingLocked(pending map[uint64]*pendingCall, id uint64, res callResult) {
	pc, ok := pending[id]
	if !ok {
		return
	}
	if pc.timer != nil {
		pc.timer.Stop()
	}
	delete(pending, id)
	select {
	case pc.ch <- res:
	default:
	}
}

// CallBrowser forwards a CDP command to the browser peer and blocks the
// calling goroutine (never the room's shared state) until a response,
// timeout, or browser disconnect resolves it. See SPEC_FULL.md §4.4.
func (r *Room) CallBrowser(method string, params json.RawMessage, sessionID string, timeout time.Duration) (json.RawMessage, error) {
	if timeout <= 0 {
		timeout = DefaultBrowserCallTimeout
	}

	r.mu.Lock()
	if r.browser == nil {
		r.mu.Unlock()
		return nil, ErrBrowserNotConnected
	}
	r.browserNextID++
	id := r.browserNextID
	pc := &pendingCall{ch: make(chan callResult, 1)}
	r.browserPending[id] = pc
	conn := r.browser.conn
	pc.timer = time.AfterFunc(timeout, func() {
		r.mu.Lock()
		resolvePendingLocked(r.browserPending, id, callResult{
			err: fmt.Errorf("Extension request timeout after %dms: %s", timeout.Milliseconds(), method),
		})
		r.mu.Unlock()
	})
	r.mu.Unlock()

	msg := wire.OutboundBrowserCommand{
		ID:     id,
		Method: "forwardCDPCommand",
		Params: wire.CDPForward{Method: method, SessionID: sessionID, Params: params},
	}
	if err := conn.WriteJSON(msg); err != nil {
		r.mu.Lock()
		resolvePendingLocked(r.browserPending, id, callResult{err: err})
		r.mu.Unlock()
	}

	res := <-pc.ch
	return res.result, res.err
}

// HandleBrowserResponse resolves a pending browser call from an inbound
// {id, result|error} envelope.
func (r *Room) HandleBrowserResponse(env wire.PeerEnvelope) {
	if env.ID == nil {
		return
	}
	var res callResult
	if env.Error != "" {
		res.err = errors.New(env.Error)
	} else {
		res.result = env.Result
	}
	r.mu.Lock()
	resolvePendingLocked(r.browserPending, *env.ID, res)
	r.mu.Unlock()
}

// CallLocal issues a file.read / file.write / bash.execute RPC to the local
// peer. Mirrors CallBrowser's non-blocking-actor discipline.
func (r *Room) CallLocal(method string, params interface{}, timeout time.Duration) (json.RawMessage, error) {
	if timeout <= 0 {
		timeout = defaultLocalCallTimeout
	}

	r.mu.Lock()
	if r.local == nil {
		r.mu.Unlock()
		return nil, ErrLocalNotConnected
	}
	r.localNextID++
	id := r.localNextID
	pc := &pendingCall{ch: make(chan callResult, 1)}
	r.localPending[id] = pc
	conn := r.local.conn
	pc.timer = time.AfterFunc(timeout, func() {
		r.mu.Lock()
		resolvePendingLocked(r.localPending, id, callResult{
			err: fmt.Errorf("Local client request timeout after %dms: %s", timeout.Milliseconds(), method),
		})
		r.mu.Unlock()
	})
	r.mu.Unlock()

	msg := wire.OutboundLocalCommand{ID: id, Method: method, Params: params}
	if err := conn.WriteJSON(msg); err != nil {
		r.mu.Lock()
		resolvePendingLocked(r.localPending, id, callResult{err: err})
		r.mu.Unlock()
	}

	res := <-pc.ch
	return res.result, res.err
}

// HandleLocalResponse resolves a pending local call.
func (r *Room) HandleLocalResponse(env wire.PeerEnvelope) {
	if env.ID == nil {
		return
	}
	var res callResult
	if env.Error != "" {
		res.err = errors.New(env.Error)
	} else {
		res.result = env.Result
	}
	r.mu.Lock()
	resolvePendingLocked(r.localPending, *env.ID, res)
	r.mu.Unlock()
}

// ReadFile implements the read_file tool via file.read, recording the
// observed mtime in the read-time ledger on success.
func (r *Room) ReadFile(path string) (wire.FileReadResult, error) {
	raw, err := r.CallLocal("file.read", wire.FileReadParams{Path: path}, defaultLocalCallTimeout)
	if err != nil {
		return wire.FileReadResult{}, err
	}
	var res wire.FileReadResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return wire.FileReadResult{}, fmt.Errorf("malformed file.read result: %w", err)
	}
	r.mu.Lock()
	r.ledger[path] = res.Mtime
	r.mu.Unlock()
	return res, nil
}

// WriteFile implements the write_file tool via file.write, enforcing the
// write-after-read invariant from SPEC_FULL.md §4.5 before ever dispatching.
func (r *Room) WriteFile(path, content string) (wire.FileWriteResult, error) {
	r.mu.Lock()
	mtime, ok := r.ledger[path]
	r.mu.Unlock()
	if !ok {
		return wire.FileWriteResult{}, fmt.Errorf(
			"Cannot write to %s: file has not been read yet. Read the file first to ensure you have the latest content.", path)
	}

	params := wire.FileWriteParams{Path: path, Content: content, ExpectedMtime: &mtime}
	raw, err := r.CallLocal("file.write", params, defaultLocalCallTimeout)
	if err != nil {
		return wire.FileWriteResult{}, err
	}
	var res wire.FileWriteResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return wire.FileWriteResult{}, fmt.Errorf("malformed file.write result: %w", err)
	}
	r.mu.Lock()
	r.ledger[path] = res.Mtime
	r.mu.Unlock()
	return res, nil
}

// Bash implements the bash tool via bash.execute. The RPC deadline is the
// command's own timeout plus slack for the round trip (SPEC_FULL.md §4.5).
func (r *Room) Bash(command, workdir string, timeoutMS int64) (wire.BashExecuteResult, error) {
	if timeoutMS <= 0 {
		timeoutMS = defaultBashTimeoutMS
	}
	params := wire.BashExecuteParams{Command: command, Workdir: workdir, Timeout: timeoutMS}
	deadline := time.Duration(timeoutMS)*time.Millisecond + localCallSlack

	raw, err := r.CallLocal("bash.execute", params, deadline)
	if err != nil {
		return wire.BashExecuteResult{}, err
	}
	var res wire.BashExecuteResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return wire.BashExecuteResult{}, fmt.Errorf("malformed bash.execute result: %w", err)
	}
	return res, nil
}
