// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package main

import (
	"net/http"
	"strings"
)

// extractPassphrase reads a passphrase from either an
// "Authorization: Bearer <passphrase>" header or a "?passphrase=" query
// parameter, per SPEC_FULL.md §4.1/§6.
func extractPassphrase(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if p, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return p
		}
	}
	return r.URL.Query().Get("passphrase")
}
