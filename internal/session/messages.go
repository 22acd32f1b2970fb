// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"github.com/morganforge/relay-tui/internal/api"
	"github.com/morganforge/relay-tui/internal/model"
)

// =============================================================================
// ASYNC COMPLETION MESSAGES
// =============================================================================

// Each command issued by the engine resolves into one of these messages on
// the program's update loop. They carry the chat id and fencing generation
// captured when the request was issued so the engine can discard results
// that raced an activation change.

// SendResultMsg is delivered when an optimistic send round-trips.
type SendResultMsg struct {
	ChatID     string // id the send targeted; "" for a draft's first send
	Generation uint64
	LocalID    string // optimistic message id, for error display
	Exchange   *api.ChatExchange
	Err        error
}

// HistoryPageMsg is delivered when a history page fetch completes.
type HistoryPageMsg struct {
	ChatID     string
	Generation uint64
	Offset     int
	Page       *api.ChatPage
	Err        error
}

// ListFetchedMsg is delivered when a sidebar list refresh completes.
type ListFetchedMsg struct {
	Summaries []model.Summary
	Err       error
}

// RenamedMsg is delivered when a rename request completes.
type RenamedMsg struct {
	ChatID     string
	Title      string
	Generation uint64
	Err        error
}

// DeletedMsg is delivered when a delete request completes.
type DeletedMsg struct {
	ChatID string
	Err    error
}
