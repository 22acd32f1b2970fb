// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// UI-LOCAL MESSAGES
// =============================================================================

// listTickMsg triggers a periodic sidebar refresh.
type listTickMsg time.Time

// toastClearMsg hides an expired error toast.
type toastClearMsg struct{ id int }

// listTick schedules the next sidebar refresh. A zero interval disables the
// timer entirely.
func listTick(interval time.Duration) tea.Cmd {
	if interval <= 0 {
		return nil
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return listTickMsg(t)
	})
}

// clearToastAfter hides the toast with the given id once it has been on
// screen long enough to read.
func clearToastAfter(id int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return toastClearMsg{id: id}
	})
}
