// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newWatchCmd(v *viper.Viper) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll a room's status on an interval until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := resolveConfig(v)
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				status, err := fetchStatus(cfg)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", time.Now().Format(time.RFC3339), err)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s ", time.Now().Format(time.RFC3339))
					printStatus(cmd, status)
				}

				select {
				case <-cmd.Context().Done():
					return cmd.Context().Err()
				case <-ticker.C:
				}
			}
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "polling interval")
	return cmd
}
