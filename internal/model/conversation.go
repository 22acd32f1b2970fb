// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"sort"
	"strings"
	"time"
)

// TitleMaxRunes is the maximum length of an auto-derived conversation title.
const TitleMaxRunes = 50

// DraftTitle is the title of a conversation that has no messages yet.
const DraftTitle = "New Chat"

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds one chat transcript with metadata.
//
// An empty ID marks a draft: a conversation that exists only locally and has
// not been persisted remotely. A draft is promoted in place the first time
// its first exchange round-trips through the server; promotion never clears
// already-inserted messages.
type Conversation struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Messages  []*Message `json:"messages"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewDraft creates an empty local draft conversation.
func NewDraft() *Conversation {
	now := time.Now()
	return &Conversation{
		Title:     DraftTitle,
		Messages:  make([]*Message, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewPlaceholder creates an empty conversation bound to a known remote id,
// used while its history is being fetched.
func NewPlaceholder(id string) *Conversation {
	conv := NewDraft()
	conv.ID = id
	return conv
}

// IsDraft reports whether the conversation has not been persisted remotely.
func (c *Conversation) IsDraft() bool {
	return c.ID == ""
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// Insert places a message at its chronological position.
//
// Messages are kept in ascending-timestamp order regardless of arrival
// order; equal timestamps keep insertion order. A message whose ID is
// already present is dropped, preserving per-transcript ID uniqueness.
// Returns true if the message was inserted.
func (c *Conversation) Insert(msg *Message) bool {
	if msg == nil || c.HasMessageID(msg.ID) {
		return false
	}
	i := sort.Search(len(c.Messages), func(i int) bool {
		return c.Messages[i].Timestamp.After(msg.Timestamp)
	})
	c.Messages = append(c.Messages, nil)
	copy(c.Messages[i+1:], c.Messages[i:])
	c.Messages[i] = msg
	c.UpdatedAt = time.Now()
	return true
}

// MergeOlder inserts a page of older messages, filtering out any message
// already present under the identity+content-window rule. Returns the number
// of messages actually inserted. Calling it twice with the same page inserts
// nothing the second time.
func (c *Conversation) MergeOlder(older []*Message, window time.Duration) int {
	added := 0
	for _, msg := range older {
		if c.ContainsEquivalent(msg, window) {
			continue
		}
		if c.Insert(msg) {
			added++
		}
	}
	return added
}

// ContainsEquivalent reports whether an equivalent message is already in the
// transcript (same ID, or same role and content within the tolerance window).
func (c *Conversation) ContainsEquivalent(msg *Message, window time.Duration) bool {
	for _, existing := range c.Messages {
		if existing.EquivalentTo(msg, window) {
			return true
		}
	}
	return false
}

// HasMessageID reports whether a message with the given ID is present.
func (c *Conversation) HasMessageID(id string) bool {
	if id == "" {
		return false
	}
	for _, msg := range c.Messages {
		if msg.ID == id {
			return true
		}
	}
	return false
}

// RemoveByID removes a message by ID. Returns true if a message was removed.
func (c *Conversation) RemoveByID(id string) bool {
	if id == "" {
		return false
	}
	for i, msg := range c.Messages {
		if msg.ID == id {
			c.Messages = append(c.Messages[:i], c.Messages[i+1:]...)
			c.UpdatedAt = time.Now()
			return true
		}
	}
	return false
}

// FindEquivalent returns the first message equivalent to msg, or nil.
func (c *Conversation) FindEquivalent(msg *Message, window time.Duration) *Message {
	for _, existing := range c.Messages {
		if existing.EquivalentTo(msg, window) {
			return existing
		}
	}
	return nil
}

// LastMessage returns the most recent message, or nil if empty.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// Replace swaps the transcript contents wholesale. Used when a history page
// turns out to belong to a different conversation than the one displayed.
func (c *Conversation) Replace(id, title string, messages []*Message) {
	c.ID = id
	c.Title = title
	c.Messages = make([]*Message, 0, len(messages))
	for _, msg := range messages {
		c.Insert(msg)
	}
	c.UpdatedAt = time.Now()
}

// =============================================================================
// PROMOTION & TITLES
// =============================================================================

// Promote assigns the server-issued id and title to a draft without
// discarding its message list. It is a no-op on an already-promoted
// conversation with a different id.
func (c *Conversation) Promote(id, title string) bool {
	if !c.IsDraft() && c.ID != id {
		return false
	}
	c.ID = id
	if title != "" {
		c.Title = title
	}
	c.UpdatedAt = time.Now()
	return true
}

// DeriveTitle sets the title from content when the conversation is still
// untitled, truncated rune-safe.
func (c *Conversation) DeriveTitle(content string) {
	if c.Title != "" && c.Title != DraftTitle {
		return
	}
	title := previewLine(content, TitleMaxRunes)
	if title != "" {
		c.Title = title
	}
}

// =============================================================================
// SUMMARY TYPE
// =============================================================================

// Summary is the sidebar projection of a conversation: a copy of its id and
// title, never an alias of the transcript itself. An empty ID marks the
// draft entry.
type Summary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// IsDraft reports whether the summary is the local draft entry.
func (s Summary) IsDraft() bool {
	return s.ID == ""
}

// DraftSummary returns the synthesized sidebar entry for a local draft.
func DraftSummary() Summary {
	return Summary{Title: DraftTitle}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// previewLine flattens content to one line and truncates it to maxRunes.
func previewLine(content string, maxRunes int) string {
	content = strings.ReplaceAll(content, "\n", " ")
	content = strings.ReplaceAll(content, "\r", "")
	content = strings.TrimSpace(content)
	runes := []rune(content)
	if len(runes) <= maxRunes {
		return content
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}
