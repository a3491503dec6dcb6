// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package main

import (
	"encoding/json"
	"net/http"

	"github.com/hyperint/roomrelay/internal/auth"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// requirePassphrase validates the request's passphrase against roomID's
// authenticator, writing the appropriate 401/403 response and returning
// false if admission should stop here.
func (s *Server) requirePassphrase(w http.ResponseWriter, r *http.Request, roomID string) bool {
	passphrase := extractPassphrase(r)
	err := s.rooms.GetOrCreate(roomID).Auth.Validate(passphrase)
	switch err {
	case nil:
		return true
	case auth.ErrUnauthorized:
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case auth.ErrForbidden:
		http.Error(w, err.Error(), http.StatusForbidden)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
	return false
}

func (s *Server) handleExtensionStatus(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomId")
	if !s.requirePassphrase(w, r, roomID) {
		return
	}
	rm, _ := s.rooms.Get(roomID)
	connected := rm != nil && rm.BrowserConnected()
	writeJSON(w, map[string]bool{"connected": connected})
}

func (s *Server) handleLocalStatus(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomId")
	if !s.requirePassphrase(w, r, roomID) {
		return
	}
	rm, _ := s.rooms.Get(roomID)
	connected := rm != nil && rm.LocalConnected()
	writeJSON(w, map[string]bool{"connected": connected})
}

func (s *Server) handleRoomStatus(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomId")
	if !s.requirePassphrase(w, r, roomID) {
		return
	}
	rm := s.rooms.GetOrCreate(roomID)
	writeJSON(w, rm.StatusSnapshot())
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
