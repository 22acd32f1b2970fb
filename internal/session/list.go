// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/relay-tui/internal/api"
)

// =============================================================================
// LIST SYNCHRONIZATION
// =============================================================================

// PrimeFromCache fills the sidebar from the local summary cache so the list
// renders before the first refresh completes. Errors are logged and
// swallowed; the cache is best-effort.
func (e *Engine) PrimeFromCache() {
	if e.cache == nil {
		return
	}
	summaries, err := e.cache.Load()
	if err != nil {
		e.logger.Warn().Err(err).Msg("summary cache load failed")
		return
	}
	if len(summaries) == 0 {
		return
	}
	e.index.ReplaceAll(summaries, e.store.Active().IsDraft())
}

// FetchList returns the command that refreshes the sidebar from the server.
func (e *Engine) FetchList() tea.Cmd {
	remote := e.remote
	return func() tea.Msg {
		summaries, err := remote.ListConversations(context.Background())
		return ListFetchedMsg{Summaries: summaries, Err: err}
	}
}

// ApplyList replaces the sidebar with the server's list. The local draft
// entry, if the active transcript is a draft, is re-synthesized at the head
// with its current derived title; the server never knows about drafts.
func (e *Engine) ApplyList(msg ListFetchedMsg) error {
	if msg.Err != nil {
		e.logger.Warn().Err(msg.Err).Msg("list refresh failed")
		return msg.Err
	}

	includeDraft := e.store.Active().IsDraft()
	e.index.ReplaceAll(msg.Summaries, includeDraft)
	if includeDraft {
		e.index.SetDraftTitle(e.store.Active().Title)
	}

	if e.cache != nil {
		if err := e.cache.Store(msg.Summaries); err != nil {
			e.logger.Warn().Err(err).Msg("summary cache write failed")
		}
	}
	return nil
}

// =============================================================================
// RENAME / DELETE
// =============================================================================

// Rename returns the command that renames a conversation on the server.
// There is no optimistic update; the sidebar changes only after the server
// confirms.
func (e *Engine) Rename(id, title string) tea.Cmd {
	if id == "" || title == "" {
		return nil
	}
	gen := e.store.Generation()
	remote := e.remote
	return func() tea.Msg {
		err := remote.RenameConversation(context.Background(), id, title)
		return RenamedMsg{ChatID: id, Title: title, Generation: gen, Err: err}
	}
}

// ApplyRenamed commits a confirmed rename. The sidebar entry is updated
// regardless of activation; the active transcript's title only when it is
// still the same activation that issued the rename.
func (e *Engine) ApplyRenamed(msg RenamedMsg) error {
	if msg.Err != nil {
		e.logger.Warn().Err(msg.Err).Str("chat_id", msg.ChatID).Msg("rename failed")
		return msg.Err
	}
	e.index.Rename(msg.ChatID, msg.Title)
	if e.store.Fresh(msg.Generation) && e.store.ActiveID() == msg.ChatID {
		e.store.Active().Title = msg.Title
	}
	return nil
}

// Delete returns the command that deletes a conversation on the server.
func (e *Engine) Delete(id string) tea.Cmd {
	if id == "" {
		return nil
	}
	remote := e.remote
	return func() tea.Msg {
		return DeletedMsg{ChatID: id, Err: remote.DeleteConversation(context.Background(), id)}
	}
}

// ApplyDeleted removes a deleted conversation from the sidebar. A not-found
// response counts as success, the conversation is gone either way. If the
// deleted conversation was active, the session falls back to a fresh draft.
func (e *Engine) ApplyDeleted(msg DeletedMsg) error {
	if msg.Err != nil && !errors.Is(msg.Err, api.ErrNotFound) {
		e.logger.Warn().Err(msg.Err).Str("chat_id", msg.ChatID).Msg("delete failed")
		return msg.Err
	}
	e.index.Remove(msg.ChatID)
	if e.store.ActiveID() == msg.ChatID {
		e.store.SetActive("")
		e.historyBusy = false
		e.index.EnsureDraft()
	}
	return nil
}
