// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"github.com/morganforge/relay-tui/internal/model"
)

// =============================================================================
// CONVERSATION INDEX
// =============================================================================

// Index exclusively owns the sidebar-facing ordered list of conversation
// summaries. Summaries are projections of server state (plus at most one
// local draft entry), never aliases of the active transcript.
type Index struct {
	entries []model.Summary
}

// NewIndex creates an empty conversation index.
func NewIndex() *Index {
	return &Index{entries: make([]model.Summary, 0)}
}

// Entries returns the summaries in display order. The returned slice is the
// index's own; callers must treat it as read-only.
func (ix *Index) Entries() []model.Summary {
	return ix.entries
}

// Len returns the number of entries.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// HasDraft reports whether the index contains the draft entry.
func (ix *Index) HasDraft() bool {
	for _, entry := range ix.entries {
		if entry.IsDraft() {
			return true
		}
	}
	return false
}

// Find returns the entry with the given id and whether it exists.
func (ix *Index) Find(id string) (model.Summary, bool) {
	for _, entry := range ix.entries {
		if entry.ID == id {
			return entry, true
		}
	}
	return model.Summary{}, false
}

// =============================================================================
// MUTATION
// =============================================================================

// ReplaceAll replaces the index contents with the server's summaries.
// When includeDraft is set, a draft entry is prepended; server rows with an
// empty id are dropped so the draft singleton invariant holds regardless of
// what the server sends.
func (ix *Index) ReplaceAll(summaries []model.Summary, includeDraft bool) {
	entries := make([]model.Summary, 0, len(summaries)+1)
	if includeDraft {
		entries = append(entries, model.DraftSummary())
	}
	for _, s := range summaries {
		if s.IsDraft() {
			continue
		}
		entries = append(entries, s)
	}
	ix.entries = entries
}

// EnsureDraft inserts the draft entry at the head if absent. Idempotent:
// returns false when a draft entry already exists.
func (ix *Index) EnsureDraft() bool {
	if ix.HasDraft() {
		return false
	}
	ix.entries = append([]model.Summary{model.DraftSummary()}, ix.entries...)
	return true
}

// SetDraftTitle updates the draft entry's display title (e.g. after the
// first optimistic message derives one). No-op when no draft entry exists.
func (ix *Index) SetDraftTitle(title string) {
	for i := range ix.entries {
		if ix.entries[i].IsDraft() {
			ix.entries[i].Title = title
			return
		}
	}
}

// PromoteDraft transitions the draft entry to a server-assigned id and
// title. This is the only way a draft entry acquires a real id. Returns
// false when no draft entry exists or the id is already present.
func (ix *Index) PromoteDraft(id, title string) bool {
	if id == "" {
		return false
	}
	if _, exists := ix.Find(id); exists {
		// The id already arrived through a list refresh; retire the draft
		// entry instead of creating a second row for the same conversation.
		ix.removeDraft()
		return false
	}
	for i := range ix.entries {
		if ix.entries[i].IsDraft() {
			ix.entries[i].ID = id
			if title != "" {
				ix.entries[i].Title = title
			}
			return true
		}
	}
	return false
}

// Rename updates the title of the entry with the given id.
func (ix *Index) Rename(id, title string) bool {
	for i := range ix.entries {
		if ix.entries[i].ID == id && !ix.entries[i].IsDraft() {
			ix.entries[i].Title = title
			return true
		}
	}
	return false
}

// Remove deletes the entry with the given id.
func (ix *Index) Remove(id string) bool {
	if id == "" {
		return false
	}
	for i := range ix.entries {
		if ix.entries[i].ID == id {
			ix.entries = append(ix.entries[:i], ix.entries[i+1:]...)
			return true
		}
	}
	return false
}

// removeDraft drops the draft entry if present.
func (ix *Index) removeDraft() {
	for i := range ix.entries {
		if ix.entries[i].IsDraft() {
			ix.entries = append(ix.entries[:i], ix.entries[i+1:]...)
			return
		}
	}
}
