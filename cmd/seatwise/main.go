// SPDX-FileCopyrightText: Copyright 2026 Seatwise, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package main is the entry point for the Seatwise server.
package main

import (
	"os"

	"github.com/seatwise/seatwise/cmd/seatwise/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
