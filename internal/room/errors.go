// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package room

import "errors"

var (
	// ErrConflict is returned by admission when the role (or agent clientId)
	// is already occupied in this room.
	ErrConflict = errors.New("peer role already occupied")

	// ErrBrowserNotConnected is the routing error surfaced to an agent that
	// issues a protocol command while no browser peer is attached.
	ErrBrowserNotConnected = errors.New("Extension not connected")

	// ErrLocalNotConnected mirrors ErrBrowserNotConnected for the local peer.
	ErrLocalNotConnected = errors.New("Local client not connected")

	// ErrTargetNotFound names a failed target lookup. The target registry
	// lookup helpers report a miss as a false ok value, not as this error.
	ErrTargetNotFound = errors.New("target not found")
)
