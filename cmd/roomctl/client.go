// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// roomStatus mirrors room.Status; duplicated here rather than imported so
// roomctl stays a standalone client with no dependency on the server module.
type roomStatus struct {
	BrowserConnected bool `json:"browserConnected"`
	LocalConnected   bool `json:"localConnected"`
	AgentCount       int  `json:"agentCount"`
	TargetCount      int  `json:"targetCount"`
}

var httpClient = &http.Client{Timeout: 10 * time.Second}

func fetchStatus(cfg config) (roomStatus, error) {
	if cfg.Room == "" {
		return roomStatus{}, fmt.Errorf("--room is required")
	}

	u, err := url.Parse(cfg.Server)
	if err != nil {
		return roomStatus{}, fmt.Errorf("invalid --server url: %w", err)
	}
	u.Path = fmt.Sprintf("/room/%s/status", cfg.Room)

	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		return roomStatus{}, err
	}
	if cfg.Passphrase != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Passphrase)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return roomStatus{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return roomStatus{}, fmt.Errorf("server returned %s", resp.Status)
	}

	var status roomStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return roomStatus{}, fmt.Errorf("decode status response: %w", err)
	}
	return status, nil
}
