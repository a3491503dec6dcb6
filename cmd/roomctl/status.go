// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newStatusCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print a room's current peer and target counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := fetchStatus(resolveConfig(v))
			if err != nil {
				return err
			}
			printStatus(cmd, status)
			return nil
		},
	}
}

func printStatus(cmd *cobra.Command, s roomStatus) {
	fmt.Fprintf(cmd.OutOrStdout(), "extension=%v local=%v agents=%d targets=%d\n",
		s.BrowserConnected, s.LocalConnected, s.AgentCount, s.TargetCount)
}
