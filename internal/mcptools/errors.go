// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package mcptools

import "errors"

var errExecutorNotConfigured = errors.New("execute tool: no sandbox executor configured for this room")
