// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"testing"
	"time"
)

// =============================================================================
// MESSAGE EQUIVALENCE TESTS
// =============================================================================

func TestMessage_EquivalentTo(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		a    *Message
		b    *Message
		want bool
	}{
		{
			name: "same id always matches",
			a:    &Message{ID: "m1", Role: RoleUser, Content: "hi", Timestamp: base},
			b:    &Message{ID: "m1", Role: RoleAssistant, Content: "different", Timestamp: base.Add(time.Hour)},
			want: true,
		},
		{
			name: "same role and content within window",
			a:    &Message{ID: "m1", Role: RoleUser, Content: "hi", Timestamp: base},
			b:    &Message{ID: "m2", Role: RoleUser, Content: "hi", Timestamp: base.Add(2 * time.Second)},
			want: true,
		},
		{
			name: "same role and content outside window",
			a:    &Message{ID: "m1", Role: RoleUser, Content: "hi", Timestamp: base},
			b:    &Message{ID: "m2", Role: RoleUser, Content: "hi", Timestamp: base.Add(10 * time.Second)},
			want: false,
		},
		{
			name: "window comparison is symmetric",
			a:    &Message{ID: "m1", Role: RoleUser, Content: "hi", Timestamp: base.Add(2 * time.Second)},
			b:    &Message{ID: "m2", Role: RoleUser, Content: "hi", Timestamp: base},
			want: true,
		},
		{
			name: "different role never matches on content",
			a:    &Message{ID: "m1", Role: RoleUser, Content: "hi", Timestamp: base},
			b:    &Message{ID: "m2", Role: RoleAssistant, Content: "hi", Timestamp: base},
			want: false,
		},
		{
			name: "different content never matches",
			a:    &Message{ID: "m1", Role: RoleUser, Content: "hi", Timestamp: base},
			b:    &Message{ID: "m2", Role: RoleUser, Content: "hello", Timestamp: base},
			want: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.EquivalentTo(tc.b, DefaultDedupWindow); got != tc.want {
				t.Errorf("EquivalentTo() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMessage_Confirm_DropsStagedBytes(t *testing.T) {
	att := NewStagedAttachment("notes.txt", "text/plain", []byte("hello"))
	msg := NewUserMessage("see attached", []Attachment{att})

	if !msg.Pending {
		t.Fatal("new user message should be pending")
	}
	if !msg.Attachments[0].IsStaged() {
		t.Fatal("attachment should be staged before confirm")
	}

	msg.Confirm()

	if msg.Pending {
		t.Error("Confirm should clear the pending flag")
	}
	if msg.Attachments[0].IsStaged() {
		t.Error("Confirm should drop staged attachment bytes")
	}
	if msg.Attachments[0].Size != 5 {
		t.Errorf("attachment size = %d, want 5", msg.Attachments[0].Size)
	}
}

// =============================================================================
// CHRONOLOGICAL INSERTION TESTS
// =============================================================================

func TestConversation_Insert_KeepsChronologicalOrder(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	conv := NewDraft()

	// Insert out of order
	conv.Insert(&Message{ID: "m3", Role: RoleUser, Content: "third", Timestamp: base.Add(2 * time.Minute)})
	conv.Insert(&Message{ID: "m1", Role: RoleUser, Content: "first", Timestamp: base})
	conv.Insert(&Message{ID: "m2", Role: RoleAssistant, Content: "second", Timestamp: base.Add(time.Minute)})

	assertChronological(t, conv)

	wantOrder := []string{"m1", "m2", "m3"}
	for i, want := range wantOrder {
		if conv.Messages[i].ID != want {
			t.Errorf("Messages[%d].ID = %q, want %q", i, conv.Messages[i].ID, want)
		}
	}
}

func TestConversation_Insert_RejectsDuplicateID(t *testing.T) {
	conv := NewDraft()
	msg := NewMessage(RoleUser, "hi")

	if !conv.Insert(msg) {
		t.Fatal("first insert should succeed")
	}
	dup := &Message{ID: msg.ID, Role: RoleUser, Content: "hi again", Timestamp: time.Now()}
	if conv.Insert(dup) {
		t.Error("insert with duplicate ID should be rejected")
	}
	if conv.MessageCount() != 1 {
		t.Errorf("MessageCount = %d, want 1", conv.MessageCount())
	}
}

func TestConversation_Insert_EqualTimestampsKeepInsertionOrder(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	conv := NewDraft()
	conv.Insert(&Message{ID: "a", Role: RoleUser, Content: "a", Timestamp: ts})
	conv.Insert(&Message{ID: "b", Role: RoleAssistant, Content: "b", Timestamp: ts})

	if conv.Messages[0].ID != "a" || conv.Messages[1].ID != "b" {
		t.Errorf("equal timestamps should keep insertion order, got [%s %s]",
			conv.Messages[0].ID, conv.Messages[1].ID)
	}
}

// =============================================================================
// HISTORY MERGE TESTS
// =============================================================================

func TestConversation_MergeOlder_FiltersKnownMessages(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	conv := NewPlaceholder("c1")
	conv.Insert(&Message{ID: "m5", Role: RoleUser, Content: "newest", Timestamp: base.Add(5 * time.Minute)})

	page := []*Message{
		{ID: "m1", Role: RoleUser, Content: "oldest", Timestamp: base},
		{ID: "m2", Role: RoleAssistant, Content: "reply", Timestamp: base.Add(time.Minute)},
		{ID: "m5", Role: RoleUser, Content: "newest", Timestamp: base.Add(5 * time.Minute)},
	}

	added := conv.MergeOlder(page, DefaultDedupWindow)
	if added != 2 {
		t.Errorf("MergeOlder added = %d, want 2", added)
	}
	if conv.MessageCount() != 3 {
		t.Errorf("MessageCount = %d, want 3", conv.MessageCount())
	}
	assertChronological(t, conv)
}

func TestConversation_MergeOlder_Idempotent(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	conv := NewPlaceholder("c1")

	page := []*Message{
		{ID: "m1", Role: RoleUser, Content: "one", Timestamp: base},
		{ID: "m2", Role: RoleAssistant, Content: "two", Timestamp: base.Add(time.Minute)},
	}

	first := conv.MergeOlder(page, DefaultDedupWindow)
	second := conv.MergeOlder(page, DefaultDedupWindow)

	if first != 2 {
		t.Errorf("first merge added = %d, want 2", first)
	}
	if second != 0 {
		t.Errorf("second merge added = %d, want 0", second)
	}
	if conv.MessageCount() != 2 {
		t.Errorf("MessageCount = %d, want 2", conv.MessageCount())
	}
}

// =============================================================================
// PROMOTION TESTS
// =============================================================================

func TestConversation_Promote_KeepsMessages(t *testing.T) {
	conv := NewDraft()
	conv.Insert(NewMessage(RoleUser, "What is calculus?"))
	conv.Insert(NewMessage(RoleAssistant, "Calculus is..."))

	if !conv.Promote("c1", "What is calculus?") {
		t.Fatal("promoting a draft should succeed")
	}
	if conv.ID != "c1" {
		t.Errorf("ID = %q, want %q", conv.ID, "c1")
	}
	if conv.MessageCount() != 2 {
		t.Errorf("promotion must not clear messages; count = %d, want 2", conv.MessageCount())
	}
}

func TestConversation_Promote_RejectsForeignID(t *testing.T) {
	conv := NewPlaceholder("c1")
	if conv.Promote("c2", "other") {
		t.Error("promoting an already-bound conversation to a different id should fail")
	}
	if conv.ID != "c1" {
		t.Errorf("ID changed to %q, want %q", conv.ID, "c1")
	}
}

// =============================================================================
// TITLE TESTS
// =============================================================================

func TestConversation_DeriveTitle(t *testing.T) {
	tests := []struct {
		name    string
		initial string
		content string
		want    string
	}{
		{"untitled gets prefix", "", "What is calculus?", "What is calculus?"},
		{"draft title is replaced", DraftTitle, "hello there", "hello there"},
		{"existing title kept", "Algebra Basics", "something else", "Algebra Basics"},
		{"newlines flattened", "", "line one\nline two", "line one line two"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			conv := NewDraft()
			conv.Title = tc.initial
			conv.DeriveTitle(tc.content)
			if conv.Title != tc.want {
				t.Errorf("Title = %q, want %q", conv.Title, tc.want)
			}
		})
	}
}

func TestConversation_DeriveTitle_TruncatesLongContent(t *testing.T) {
	conv := NewDraft()
	long := ""
	for i := 0; i < 20; i++ {
		long += "abcdefghij"
	}
	conv.DeriveTitle(long)
	if got := len([]rune(conv.Title)); got > TitleMaxRunes {
		t.Errorf("derived title length = %d runes, want <= %d", got, TitleMaxRunes)
	}
}

// =============================================================================
// REPLACE TESTS
// =============================================================================

func TestConversation_Replace(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	conv := NewPlaceholder("c1")
	conv.Insert(&Message{ID: "old", Role: RoleUser, Content: "old", Timestamp: base})

	conv.Replace("c2", "Other Chat", []*Message{
		{ID: "n2", Role: RoleAssistant, Content: "two", Timestamp: base.Add(time.Minute)},
		{ID: "n1", Role: RoleUser, Content: "one", Timestamp: base},
	})

	if conv.ID != "c2" || conv.Title != "Other Chat" {
		t.Errorf("Replace identity = (%q, %q), want (c2, Other Chat)", conv.ID, conv.Title)
	}
	if conv.HasMessageID("old") {
		t.Error("Replace should discard previous messages")
	}
	if conv.MessageCount() != 2 {
		t.Errorf("MessageCount = %d, want 2", conv.MessageCount())
	}
	assertChronological(t, conv)
}

// =============================================================================
// TEST HELPERS
// =============================================================================

// assertChronological verifies messages[i].Timestamp <= messages[i+1].Timestamp.
func assertChronological(t *testing.T, conv *Conversation) {
	t.Helper()
	for i := 0; i+1 < len(conv.Messages); i++ {
		if conv.Messages[i].Timestamp.After(conv.Messages[i+1].Timestamp) {
			t.Errorf("messages out of order at %d: %v > %v",
				i, conv.Messages[i].Timestamp, conv.Messages[i+1].Timestamp)
		}
	}
}
