// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// config holds the connection settings shared by every subcommand, resolved
// from flags, ROOMCTL_* environment variables, and an optional TOML config
// file, in that precedence order (matching viper's own layering).
type config struct {
	Server     string
	Room       string
	Passphrase string
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:           "roomctl",
		Short:         "roomctl inspects a live room on a roomrelay server",
		Long:          "roomctl is an operator tool for peeking at a running roomrelay server: peer counts, target counts, and live polling, without opening a browser devtools socket.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return bindConfig(cmd, v)
		},
	}

	rootCmd.PersistentFlags().String("server", "http://localhost:8080", "roomrelay server base URL")
	rootCmd.PersistentFlags().String("room", "", "room id to inspect")
	rootCmd.PersistentFlags().String("passphrase", "", "room passphrase")
	rootCmd.PersistentFlags().String("config", "", "path to a roomctl.toml config file")

	rootCmd.AddCommand(newStatusCmd(v), newWatchCmd(v), newVersionCmd())

	return rootCmd
}

// bindConfig wires cobra flags to viper, with ROOMCTL_* environment variables
// and an optional TOML file layered underneath, the way openai-accounts-cli
// layers viper over cobra for its own account store.
func bindConfig(cmd *cobra.Command, v *viper.Viper) error {
	v.SetEnvPrefix("ROOMCTL")
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := v.BindPFlags(cmd.PersistentFlags()); err != nil {
		return err
	}

	if cfgPath, _ := cmd.Flags().GetString("config"); cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else if home, err := os.UserHomeDir(); err == nil {
		v.SetConfigName("roomctl")
		v.SetConfigType("toml")
		v.AddConfigPath(filepath.Join(home, ".roomctl"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}
	return nil
}

func resolveConfig(v *viper.Viper) config {
	return config{
		Server:     v.GetString("server"),
		Room:       v.GetString("room"),
		Passphrase: v.GetString("passphrase"),
	}
}
