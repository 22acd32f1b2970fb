// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/morganforge/relay-tui/internal/api"
	"github.com/morganforge/relay-tui/internal/model"
)

// DefaultPageSize is the history page size used when the configuration does
// not override it.
const DefaultPageSize = 30

// =============================================================================
// REMOTE & CACHE CONTRACTS
// =============================================================================

// Remote is the slice of the conversation service the engine depends on.
// *api.Client satisfies it.
type Remote interface {
	ListConversations(ctx context.Context) ([]model.Summary, error)
	GetConversation(ctx context.Context, id string, offset, limit int) (*api.ChatPage, error)
	AppendMessage(ctx context.Context, text string, attachments []model.Attachment, chatID string) (*api.ChatExchange, error)
	RenameConversation(ctx context.Context, id, title string) error
	DeleteConversation(ctx context.Context, id string) error
}

// SummaryCache primes the sidebar before the first list fetch completes.
// The remote list stays authoritative; the cache is display-only.
type SummaryCache interface {
	Load() ([]model.Summary, error)
	Store(summaries []model.Summary) error
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine coordinates the transcript store, the conversation index and the
// remote service. All methods run on the program's update loop; commands
// they return perform the network I/O and resolve back into messages that
// the update loop feeds to the matching Apply method.
type Engine struct {
	store  *Store
	index  *Index
	remote Remote
	cache  SummaryCache

	pageSize int
	logger   zerolog.Logger

	// In-flight history load guard, keyed by the generation it was issued
	// under so an activation change releases it implicitly.
	historyBusy bool
	historyGen  uint64
}

// NewEngine creates an engine over the given remote. cache may be nil.
func NewEngine(remote Remote, cache SummaryCache, pageSize int, window time.Duration, logger zerolog.Logger) *Engine {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Engine{
		store:    NewStore(window, logger),
		index:    NewIndex(),
		remote:   remote,
		cache:    cache,
		pageSize: pageSize,
		logger:   logger.With().Str("component", "engine").Logger(),
	}
}

// Store returns the transcript store for read access by the UI.
func (e *Engine) Store() *Store {
	return e.store
}

// Index returns the conversation index for read access by the UI.
func (e *Engine) Index() *Index {
	return e.index
}

// PageSize returns the configured history page size.
func (e *Engine) PageSize() int {
	return e.pageSize
}

// =============================================================================
// ACTIVATION
// =============================================================================

// SelectConversation switches the active transcript to id and returns the
// command that loads its first history page. Selecting the already-active
// conversation, or an empty id, performs no network call.
func (e *Engine) SelectConversation(id string) tea.Cmd {
	if !e.store.SetActive(id) {
		return nil
	}
	e.historyBusy = false
	if id == "" {
		return nil
	}
	return e.loadPage(id, 0)
}

// CreateDraft resets the session to a fresh local draft. Idempotent: when
// the active transcript is already a draft only the sidebar entry is
// (re)ensured, and no network call is made in any case.
func (e *Engine) CreateDraft() {
	if !e.store.Active().IsDraft() {
		e.store.SetActive("")
		e.historyBusy = false
	}
	e.index.EnsureDraft()
}
