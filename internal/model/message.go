// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// ATTACHMENT TYPE
// =============================================================================

// Attachment is a file carried by a message.
//
// RawBytes is populated only while an attachment is staged for upload.
// Once a message round-trips through the server, URL is authoritative and
// RawBytes is dropped.
type Attachment struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
	URL      string `json:"url"`

	// Staged upload payload, never sent back down by the server.
	RawBytes []byte `json:"-"`
}

// NewStagedAttachment creates an attachment staged for upload.
func NewStagedAttachment(name, mimeType string, data []byte) Attachment {
	return Attachment{
		ID:       generateID("att"),
		Name:     name,
		Size:     int64(len(data)),
		MimeType: mimeType,
		RawBytes: data,
	}
}

// IsStaged reports whether the attachment still carries upload bytes.
func (a Attachment) IsStaged() bool {
	return len(a.RawBytes) > 0
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// DefaultDedupWindow is the timestamp tolerance used when deciding whether
// two messages with identical role and content are the same message.
//
// The rule is deliberately heuristic: two genuinely distinct messages with
// identical content inside the window collapse into one. That imprecision
// matches the server's redelivery behavior and is kept configurable so tests
// can widen or shrink it.
const DefaultDedupWindow = 3 * time.Second

// Message represents a single message in a conversation transcript.
type Message struct {
	ID          string       `json:"id"`
	Role        Role         `json:"role"`
	Content     string       `json:"content"`
	Timestamp   time.Time    `json:"timestamp"`
	Attachments []Attachment `json:"attachments,omitempty"`

	// Pending marks an optimistic local insert that the server has not yet
	// confirmed.
	Pending bool `json:"-"`
}

// NewMessage creates a new message with a generated ID and the current time.
func NewMessage(role Role, content string) *Message {
	return &Message{
		ID:        generateID("msg"),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a local user message staged for optimistic insert.
func NewUserMessage(content string, attachments []Attachment) *Message {
	msg := NewMessage(RoleUser, content)
	msg.Attachments = attachments
	msg.Pending = true
	return msg
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// EquivalentTo reports whether other should be treated as the same message.
// Two messages match when they share an ID, or when role and content are
// identical and their timestamps differ by less than window.
func (m *Message) EquivalentTo(other *Message, window time.Duration) bool {
	if m == nil || other == nil {
		return false
	}
	if m.ID != "" && m.ID == other.ID {
		return true
	}
	if m.Role != other.Role || m.Content != other.Content {
		return false
	}
	diff := m.Timestamp.Sub(other.Timestamp)
	if diff < 0 {
		diff = -diff
	}
	return diff < window
}

// Preview returns a truncated single-line preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	return previewLine(m.Content, maxLen)
}

// IsEmpty returns true if the message has no content and no attachments.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0 && len(m.Attachments) == 0
}

// Confirm clears the pending flag and drops staged attachment bytes, making
// the server-side representation authoritative.
func (m *Message) Confirm() {
	m.Pending = false
	for i := range m.Attachments {
		m.Attachments[i].RawBytes = nil
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateID creates a unique prefixed ID.
func generateID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}
