// SPDX-FileCopyrightText: Copyright 2026 Seatwise, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package app provides the command-line interface of the Seatwise server.
package app

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:               "seatwise",
	DisableAutoGenTag: true,
	Short:             "OAuth-protected ticket reservation server",
	Long: `Seatwise serves an OAuth 2.1 authorization surface and a bearer-protected
ticket reservation endpoint. All authorization decisions are delegated to a
remote decision engine; this server translates the engine's action codes
into HTTP behavior and hosts the login and consent pages the flow needs.`,
	Run: func(cmd *cobra.Command, _ []string) {
		if err := cmd.Help(); err != nil {
			slog.Error("failed to display help", "error", err)
		}
	},
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		initLogger()
	},
}

// NewRootCmd creates the root command for the seatwise CLI.
func NewRootCmd() *cobra.Command {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		fmt.Fprintf(os.Stderr, "failed to bind debug flag: %v\n", err)
	}

	viper.SetEnvPrefix("SEATWISE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.SilenceUsage = true

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(getVersion())
		},
	}
}

// initLogger installs the process-wide default logger. Every component takes
// a logger via options but falls back to slog.Default, so setting it here is
// enough.
func initLogger() {
	level := slog.LevelInfo
	if viper.GetBool("debug") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// getVersion returns the version string, replaced at build time via ldflags.
func getVersion() string {
	return version
}

var version = "dev"
