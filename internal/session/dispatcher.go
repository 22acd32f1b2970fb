// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/relay-tui/internal/model"
)

// =============================================================================
// MESSAGE DISPATCH
// =============================================================================

// SendMessage appends an optimistic local message to the active transcript
// and returns the command that sends it to the server. The command captures
// the chat id and fencing generation at dispatch time; an empty chat id
// instructs the server to create the conversation. On a draft's first send
// the sidebar draft entry's title follows the derived transcript title
// immediately.
func (e *Engine) SendMessage(content string, attachments []model.Attachment) tea.Cmd {
	content = strings.TrimSpace(content)
	if content == "" && len(attachments) == 0 {
		return nil
	}

	msg := model.NewUserMessage(content, attachments)
	e.store.AppendLocal(msg)
	if e.store.Active().IsDraft() {
		e.index.EnsureDraft()
		e.index.SetDraftTitle(e.store.Active().Title)
	}

	chatID := e.store.ActiveID()
	gen := e.store.Generation()
	remote := e.remote

	e.logger.Debug().Str("chat_id", chatID).Str("local_id", msg.ID).Msg("dispatching message")

	return func() tea.Msg {
		exchange, err := remote.AppendMessage(context.Background(), content, attachments, chatID)
		return SendResultMsg{
			ChatID:     chatID,
			Generation: gen,
			LocalID:    msg.ID,
			Exchange:   exchange,
			Err:        err,
		}
	}
}

// ApplySendResult reconciles a completed send against current state.
//
// Index promotion is deliberately not fenced: a draft's first send that
// succeeded created a real server conversation, and the sidebar entry must
// acquire its id even if the user has since switched away. Transcript
// mutations are fenced by generation; a stale result leaves the displayed
// transcript untouched. Promotion itself bumps the generation, so when two
// sends race out of the same draft, the first result to land claims the
// transcript and the sibling's exchange is fenced out.
//
// On failure the optimistic message stays in place and the error is
// returned for display. Nothing is retried.
func (e *Engine) ApplySendResult(msg SendResultMsg) error {
	if msg.Err != nil {
		e.logger.Warn().Err(msg.Err).Str("chat_id", msg.ChatID).Msg("send failed")
		return msg.Err
	}
	exchange := msg.Exchange
	if exchange == nil {
		return nil
	}

	if msg.ChatID == "" && exchange.ID != "" {
		e.index.PromoteDraft(exchange.ID, exchange.Name)
	}

	if !e.store.Fresh(msg.Generation) {
		e.logger.Debug().Str("chat_id", exchange.ID).Msg("dropping stale send result")
		return nil
	}

	if msg.ChatID == "" {
		e.store.Promote(exchange.ID, exchange.Name)
	}
	for _, m := range exchange.Messages {
		e.store.MergeReconciled(m)
	}
	return nil
}
