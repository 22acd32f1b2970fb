// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/morganforge/relay-tui/internal/api"
	"github.com/morganforge/relay-tui/internal/model"
)

// fakeRemote scripts the conversation service for engine tests. Commands
// returned by the engine are plain functions, so tests control exactly when
// each "network" call resolves relative to activation changes.
type fakeRemote struct {
	listFn   func() ([]model.Summary, error)
	getFn    func(id string, offset, limit int) (*api.ChatPage, error)
	appendFn func(text string, attachments []model.Attachment, chatID string) (*api.ChatExchange, error)
	renameFn func(id, title string) error
	deleteFn func(id string) error
}

func (f *fakeRemote) ListConversations(ctx context.Context) ([]model.Summary, error) {
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn()
}

func (f *fakeRemote) GetConversation(ctx context.Context, id string, offset, limit int) (*api.ChatPage, error) {
	if f.getFn == nil {
		return &api.ChatPage{ID: id}, nil
	}
	return f.getFn(id, offset, limit)
}

func (f *fakeRemote) AppendMessage(ctx context.Context, text string, attachments []model.Attachment, chatID string) (*api.ChatExchange, error) {
	if f.appendFn == nil {
		return &api.ChatExchange{ID: chatID}, nil
	}
	return f.appendFn(text, attachments, chatID)
}

func (f *fakeRemote) RenameConversation(ctx context.Context, id, title string) error {
	if f.renameFn == nil {
		return nil
	}
	return f.renameFn(id, title)
}

func (f *fakeRemote) DeleteConversation(ctx context.Context, id string) error {
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(id)
}

// fakeCache is an in-memory SummaryCache.
type fakeCache struct {
	summaries []model.Summary
	loadErr   error
	storeErr  error
	stores    int
}

func (f *fakeCache) Load() ([]model.Summary, error) {
	return f.summaries, f.loadErr
}

func (f *fakeCache) Store(summaries []model.Summary) error {
	if f.storeErr != nil {
		return f.storeErr
	}
	f.summaries = summaries
	f.stores++
	return nil
}

func newTestEngine(t *testing.T, remote Remote) *Engine {
	t.Helper()
	if remote == nil {
		remote = &fakeRemote{}
	}
	return NewEngine(remote, nil, DefaultPageSize, model.DefaultDedupWindow, zerolog.Nop())
}

// serverMsg builds a confirmed message the way the wire layer would.
func serverMsg(id string, role model.Role, content string, ts time.Time) *model.Message {
	return &model.Message{ID: id, Role: role, Content: content, Timestamp: ts}
}
