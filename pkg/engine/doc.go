// SPDX-FileCopyrightText: Copyright 2026 Seatwise, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package engine provides a typed client for the remote authorization
// decision engine.
//
// The engine owns every authorization decision in the system: it validates
// authorization requests, mints and introspects tokens, and manages
// dynamically registered clients. This package only bridges those decisions
// over HTTP; it never interprets them beyond the discriminating action code
// each response carries.
//
// Every call is at-most-once from the caller's perspective. Issue, fail,
// token and client-registration operations are not known to be idempotent,
// so the client never retries on its own; transport failures are returned
// to the caller, which surfaces them as server errors.
package engine
