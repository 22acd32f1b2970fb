// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morganforge/relay-tui/internal/api"
	"github.com/morganforge/relay-tui/internal/model"
)

// newestFirstPage builds a wire-order page: messages[0] is the newest.
func newestFirstPage(id, name string, msgs ...*model.Message) *api.ChatPage {
	return &api.ChatPage{ID: id, Name: name, Messages: msgs}
}

func TestEngine_SelectConversation_LoadsFirstPage(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var gotOffset, gotLimit int
	remote := &fakeRemote{
		getFn: func(id string, offset, limit int) (*api.ChatPage, error) {
			gotOffset, gotLimit = offset, limit
			return newestFirstPage("c1", "Calculus",
				serverMsg("m2", model.RoleAssistant, "reply", base.Add(time.Minute)),
				serverMsg("m1", model.RoleUser, "question", base),
			), nil
		},
	}
	e := newTestEngine(t, remote)

	cmd := e.SelectConversation("c1")
	require.NotNil(t, cmd)
	require.NoError(t, e.ApplyHistoryPage(cmd().(HistoryPageMsg)))

	assert.Equal(t, 0, gotOffset)
	assert.Equal(t, DefaultPageSize, gotLimit)

	conv := e.Store().Active()
	assert.Equal(t, "Calculus", conv.Title, "placeholder adopts the server title")
	require.Equal(t, 2, conv.MessageCount())
	assert.Equal(t, "m1", conv.Messages[0].ID, "wire order is reversed into chronological order")
	assert.Equal(t, "m2", conv.Messages[1].ID)
}

func TestEngine_SelectConversation_SameIDIsNoop(t *testing.T) {
	e := newTestEngine(t, nil)
	require.NotNil(t, e.SelectConversation("c1"))
	assert.Nil(t, e.SelectConversation("c1"))
}

func TestEngine_LoadOlder_OverlappingPageIdempotent(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	page := func() *api.ChatPage {
		return newestFirstPage("c1", "Calculus",
			serverMsg("m3", model.RoleUser, "three", base.Add(2*time.Minute)),
			serverMsg("m2", model.RoleAssistant, "two", base.Add(time.Minute)),
			serverMsg("m1", model.RoleUser, "one", base),
		)
	}
	remote := &fakeRemote{
		getFn: func(string, int, int) (*api.ChatPage, error) { return page(), nil },
	}
	e := newTestEngine(t, remote)

	cmd := e.SelectConversation("c1")
	require.NoError(t, e.ApplyHistoryPage(cmd().(HistoryPageMsg)))
	require.Equal(t, 3, e.Store().Active().MessageCount())

	// The server returns the same window again (e.g. messages were deleted
	// remotely and the offset now overlaps). Nothing duplicates.
	older := e.LoadOlder()
	require.NotNil(t, older)
	require.NoError(t, e.ApplyHistoryPage(older().(HistoryPageMsg)))
	assert.Equal(t, 3, e.Store().Active().MessageCount())
	assertChronological(t, e.Store().Active())
}

func TestEngine_LoadOlder_UsesLoadedCountAsOffset(t *testing.T) {
	var offsets []int
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	remote := &fakeRemote{
		getFn: func(id string, offset, limit int) (*api.ChatPage, error) {
			offsets = append(offsets, offset)
			if offset == 0 {
				return newestFirstPage("c1", "Calculus",
					serverMsg("m4", model.RoleAssistant, "four", base.Add(3*time.Minute)),
					serverMsg("m3", model.RoleUser, "three", base.Add(2*time.Minute)),
				), nil
			}
			return newestFirstPage("c1", "Calculus",
				serverMsg("m2", model.RoleAssistant, "two", base.Add(time.Minute)),
				serverMsg("m1", model.RoleUser, "one", base),
			), nil
		},
	}
	e := newTestEngine(t, remote)

	cmd := e.SelectConversation("c1")
	require.NoError(t, e.ApplyHistoryPage(cmd().(HistoryPageMsg)))

	older := e.LoadOlder()
	require.NotNil(t, older)
	require.NoError(t, e.ApplyHistoryPage(older().(HistoryPageMsg)))

	assert.Equal(t, []int{0, 2}, offsets)
	require.Equal(t, 4, e.Store().Active().MessageCount())
	assert.Equal(t, "m1", e.Store().Active().Messages[0].ID)
	assertChronological(t, e.Store().Active())
}

func TestEngine_LoadOlder_GuardsInFlight(t *testing.T) {
	e := newTestEngine(t, nil)

	cmd := e.SelectConversation("c1")
	require.NotNil(t, cmd)
	assert.Nil(t, e.LoadOlder(), "second load while one is in flight")

	require.NoError(t, e.ApplyHistoryPage(cmd().(HistoryPageMsg)))
	assert.NotNil(t, e.LoadOlder(), "guard releases once the page lands")
}

func TestEngine_LoadOlder_NilForDraft(t *testing.T) {
	e := newTestEngine(t, nil)
	assert.Nil(t, e.LoadOlder())
}

func TestEngine_StaleHistoryPageDropped(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	remote := &fakeRemote{
		getFn: func(id string, _, _ int) (*api.ChatPage, error) {
			return newestFirstPage(id, "Title "+id,
				serverMsg("m-"+id, model.RoleUser, "hello", base),
			), nil
		},
	}
	e := newTestEngine(t, remote)

	slow := e.SelectConversation("cA")
	require.NotNil(t, slow)

	// User switches before cA's page arrives.
	fast := e.SelectConversation("cB")
	require.NotNil(t, fast)

	require.NoError(t, e.ApplyHistoryPage(slow().(HistoryPageMsg)))
	assert.True(t, e.Store().Active().IsEmpty(), "page for cA must not render into cB")

	require.NoError(t, e.ApplyHistoryPage(fast().(HistoryPageMsg)))
	require.Equal(t, 1, e.Store().Active().MessageCount())
	assert.Equal(t, "m-cB", e.Store().Active().Messages[0].ID)
}

func TestEngine_MismatchedPageReplacesWholesale(t *testing.T) {
	// Same activation, but the server answered with a different
	// conversation's page. The transcript must not interleave the two.
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	remote := &fakeRemote{
		getFn: func(string, int, int) (*api.ChatPage, error) {
			return newestFirstPage("cZ", "Other",
				serverMsg("z1", model.RoleUser, "other conversation", base),
			), nil
		},
	}
	e := newTestEngine(t, remote)

	cmd := e.SelectConversation("c1")
	e.Store().AppendLocal(model.NewUserMessage("typed early", nil))

	require.NoError(t, e.ApplyHistoryPage(cmd().(HistoryPageMsg)))

	conv := e.Store().Active()
	assert.Equal(t, "cZ", conv.ID)
	require.Equal(t, 1, conv.MessageCount())
	assert.Equal(t, "z1", conv.Messages[0].ID)
}

func TestEngine_HistoryLoadError_Surfaces(t *testing.T) {
	loadErr := errors.New("connection reset")
	remote := &fakeRemote{
		getFn: func(string, int, int) (*api.ChatPage, error) { return nil, loadErr },
	}
	e := newTestEngine(t, remote)

	cmd := e.SelectConversation("c1")
	err := e.ApplyHistoryPage(cmd().(HistoryPageMsg))
	assert.ErrorIs(t, err, loadErr)
	assert.NotNil(t, e.LoadOlder(), "a failed load releases the in-flight guard")
}

func assertChronological(t *testing.T, conv *model.Conversation) {
	t.Helper()
	for i := 1; i < len(conv.Messages); i++ {
		if conv.Messages[i].Timestamp.Before(conv.Messages[i-1].Timestamp) {
			t.Fatalf("messages out of order at %d: %v before %v",
				i, conv.Messages[i].Timestamp, conv.Messages[i-1].Timestamp)
		}
	}
}
