// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/relay-tui/internal/model"
)

// =============================================================================
// HISTORY LOADING
// =============================================================================

// LoadOlder fetches the next page of older messages for the active
// conversation. The offset is the count of currently loaded messages,
// snapshotted at dispatch time. Returns nil for a draft or while a load for
// the current activation is already in flight.
func (e *Engine) LoadOlder() tea.Cmd {
	id := e.store.ActiveID()
	if id == "" {
		return nil
	}
	if e.historyBusy && e.historyGen == e.store.Generation() {
		return nil
	}
	return e.loadPage(id, e.store.Active().MessageCount())
}

// loadPage issues the fetch for one history page.
func (e *Engine) loadPage(id string, offset int) tea.Cmd {
	gen := e.store.Generation()
	e.historyBusy = true
	e.historyGen = gen
	remote := e.remote
	limit := e.pageSize

	e.logger.Debug().Str("chat_id", id).Int("offset", offset).Msg("loading history page")

	return func() tea.Msg {
		page, err := remote.GetConversation(context.Background(), id, offset, limit)
		return HistoryPageMsg{
			ChatID:     id,
			Generation: gen,
			Offset:     offset,
			Page:       page,
			Err:        err,
		}
	}
}

// ApplyHistoryPage merges a fetched page into the active transcript.
//
// The generation fence is checked before anything else: a page that raced
// an activation change is dropped whole. A page whose id differs from the
// displayed transcript's replaces it wholesale rather than interleaving two
// conversations. Otherwise the page is merged with equivalence filtering,
// so re-applying an overlapping page inserts nothing.
func (e *Engine) ApplyHistoryPage(msg HistoryPageMsg) error {
	if msg.Generation == e.historyGen {
		e.historyBusy = false
	}
	if !e.store.Fresh(msg.Generation) {
		e.logger.Debug().Str("chat_id", msg.ChatID).Msg("dropping stale history page")
		return nil
	}
	if msg.Err != nil {
		e.logger.Warn().Err(msg.Err).Str("chat_id", msg.ChatID).Msg("history load failed")
		return msg.Err
	}
	page := msg.Page
	if page == nil {
		return nil
	}

	// Pages arrive newest-first; the transcript is chronological.
	chronological := make([]*model.Message, 0, len(page.Messages))
	for i := len(page.Messages) - 1; i >= 0; i-- {
		chronological = append(chronological, page.Messages[i])
	}

	if page.ID != e.store.ActiveID() {
		e.store.ReplaceActive(page.ID, page.Name, chronological)
		return nil
	}

	added := e.store.PrependHistory(chronological)
	e.store.AdoptTitle(page.Name)
	e.logger.Debug().Str("chat_id", page.ID).Int("added", added).Msg("merged history page")
	return nil
}
