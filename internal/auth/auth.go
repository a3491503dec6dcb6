// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

// Package auth implements the per-room, first-writer-wins passphrase store.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"sync"
	"time"
)

var (
	// ErrUnauthorized means no passphrase was supplied where one is required.
	ErrUnauthorized = errors.New("passphrase required")
	// ErrForbidden means a passphrase was supplied but does not match the
	// room's established passphrase.
	ErrForbidden = errors.New("passphrase mismatch")
)

type record struct {
	digest    [sha256.Size]byte
	createdAt time.Time
}

// Authenticator guards a single room. The first successful Validate call
// establishes the room's passphrase; every later call must match it.
type Authenticator struct {
	mu  sync.Mutex
	rec *record
}

// New returns an Authenticator with no established passphrase.
func New() *Authenticator {
	return &Authenticator{}
}

// Validate admits or rejects a passphrase. On a fresh Authenticator the
// first non-empty passphrase is stored (digested) and admitted.
func (a *Authenticator) Validate(passphrase string) error {
	if passphrase == "" {
		return ErrUnauthorized
	}
	digest := sha256.Sum256([]byte(passphrase))

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.rec == nil {
		a.rec = &record{digest: digest, createdAt: time.Now()}
		return nil
	}
	if subtle.ConstantTimeCompare(a.rec.digest[:], digest[:]) != 1 {
		return ErrForbidden
	}
	return nil
}

// Established reports whether a passphrase has already been set for this room.
func (a *Authenticator) Established() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rec != nil
}
