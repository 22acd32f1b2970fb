// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// The package owns two invariants that the rest of the application relies
// on:
//
//   - Within one transcript, message IDs are unique and messages are kept
//     in ascending-timestamp order regardless of arrival order.
//   - Message equivalence for de-duplication combines exact ID matches with
//     a heuristic role+content match inside a small timestamp tolerance
//     window (DefaultDedupWindow).
//
// A Conversation with an empty ID is a draft: it exists only locally until
// its first message round-trips through the server and Promote assigns the
// server-issued id without clearing accumulated messages.
package model
