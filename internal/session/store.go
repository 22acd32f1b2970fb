// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session keeps the local chat state synchronized with the remote
// conversation service.
package session

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/morganforge/relay-tui/internal/model"
)

// =============================================================================
// TRANSCRIPT STORE
// =============================================================================

// Store exclusively owns the active transcript: the one conversation
// currently bound to the UI.
//
// Every asynchronous operation captures the store's generation before
// issuing its request and re-checks it at resolution time. The generation
// bumps on every activation change, so a response that raced a conversation
// switch is detected even when the user returns to the same conversation id
// in between (which a plain id comparison would miss).
type Store struct {
	active     *model.Conversation
	generation uint64
	window     time.Duration
	logger     zerolog.Logger
}

// NewStore creates a store holding a fresh empty draft.
func NewStore(window time.Duration, logger zerolog.Logger) *Store {
	if window <= 0 {
		window = model.DefaultDedupWindow
	}
	return &Store{
		active: model.NewDraft(),
		window: window,
		logger: logger.With().Str("component", "store").Logger(),
	}
}

// Active returns the active transcript. Callers must not retain it across
// activation changes.
func (s *Store) Active() *model.Conversation {
	return s.active
}

// ActiveID returns the active transcript's conversation id ("" for a draft).
func (s *Store) ActiveID() string {
	return s.active.ID
}

// Generation returns the current fencing generation.
func (s *Store) Generation() uint64 {
	return s.generation
}

// Fresh reports whether a generation captured at request time still matches
// the store, i.e. no activation change happened during the await.
func (s *Store) Fresh(gen uint64) bool {
	return gen == s.generation
}

// DedupWindow returns the timestamp tolerance used for message equivalence.
func (s *Store) DedupWindow() time.Duration {
	return s.window
}

// =============================================================================
// ACTIVATION
// =============================================================================

// SetActive switches the active transcript.
//
// Same id: no-op. Empty id: reset to a fresh draft with no network call.
// Different id: replace the transcript wholesale with an empty placeholder
// bound to id; the caller is responsible for triggering the initial history
// load. Returns true when the activation actually changed; every change
// bumps the fencing generation.
func (s *Store) SetActive(id string) bool {
	if id == s.active.ID {
		return false
	}
	s.generation++
	if id == "" {
		s.active = model.NewDraft()
	} else {
		s.active = model.NewPlaceholder(id)
	}
	s.logger.Debug().Str("chat_id", id).Uint64("generation", s.generation).Msg("activated conversation")
	return true
}

// =============================================================================
// MUTATION
// =============================================================================

// AppendLocal inserts an optimistic local message at its chronological
// position and derives a title for an untitled transcript.
func (s *Store) AppendLocal(msg *model.Message) {
	s.active.Insert(msg)
	if msg.Role == model.RoleUser {
		s.active.DeriveTitle(msg.Content)
	}
}

// MergeReconciled inserts a server-confirmed message, replacing any
// optimistic placeholder judged equivalent under the identity+content-window
// rule. Returns true if the transcript changed.
func (s *Store) MergeReconciled(msg *model.Message) bool {
	if msg == nil {
		return false
	}
	existing := s.active.FindEquivalent(msg, s.window)
	if existing != nil {
		if !existing.Pending && existing.ID == msg.ID {
			// Re-delivery of an already-confirmed message.
			return false
		}
		s.active.RemoveByID(existing.ID)
	}
	msg.Confirm()
	return s.active.Insert(msg)
}

// PrependHistory merges a chronological page of older messages, filtering
// out messages already present. Returns the number inserted.
func (s *Store) PrependHistory(older []*model.Message) int {
	return s.active.MergeOlder(older, s.window)
}

// Promote assigns the server-issued id and title to the active draft
// without discarding its messages.
//
// Promotion changes the transcript's identity, so it bumps the fencing
// generation like any other activation change: a second send issued from
// the same draft captured the pre-promotion generation and now belongs to
// a different server conversation. The continuation that performs the
// promotion merges its own exchange after promoting, so only its siblings
// are fenced out.
func (s *Store) Promote(id, title string) bool {
	ok := s.active.Promote(id, title)
	if ok {
		s.generation++
		s.logger.Debug().Str("chat_id", id).Uint64("generation", s.generation).Msg("promoted draft")
	}
	return ok
}

// AdoptTitle sets the server-supplied title on a still-untitled transcript.
func (s *Store) AdoptTitle(title string) {
	if title == "" {
		return
	}
	if s.active.Title == "" || s.active.Title == model.DraftTitle {
		s.active.Title = title
	}
}

// ReplaceActive swaps the transcript contents wholesale. Used when a fetched
// page turns out to describe a different conversation than the one shown.
func (s *Store) ReplaceActive(id, title string, messages []*model.Message) {
	s.active.Replace(id, title, messages)
	s.logger.Warn().Str("chat_id", id).Msg("replaced transcript from mismatched page")
}
