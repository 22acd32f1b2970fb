// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/relay-tui/internal/session"
)

// =============================================================================
// UPDATE LOOP
// =============================================================================

// Update routes messages to the session engine and the widgets.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	// ------------------------------------------------------------------
	// Session engine results
	// ------------------------------------------------------------------

	case session.SendResultMsg:
		m.sending = false
		var cmd tea.Cmd
		if err := m.engine.ApplySendResult(msg); err != nil {
			cmd = m.showError("send failed: " + err.Error())
		}
		m.syncSelection()
		m.refreshTranscript()
		return m, cmd

	case session.HistoryPageMsg:
		m.loading = false
		var cmd tea.Cmd
		if err := m.engine.ApplyHistoryPage(msg); err != nil {
			cmd = m.showError("could not load history: " + err.Error())
		}
		m.refreshTranscript()
		return m, cmd

	case session.ListFetchedMsg:
		var cmd tea.Cmd
		if err := m.engine.ApplyList(msg); err != nil {
			cmd = m.showError("could not refresh conversations: " + err.Error())
		}
		m.syncSelection()
		return m, cmd

	case session.RenamedMsg:
		var cmd tea.Cmd
		if err := m.engine.ApplyRenamed(msg); err != nil {
			cmd = m.showError("rename failed: " + err.Error())
		}
		return m, cmd

	case session.DeletedMsg:
		var cmd tea.Cmd
		if err := m.engine.ApplyDeleted(msg); err != nil {
			cmd = m.showError("delete failed: " + err.Error())
		}
		m.syncSelection()
		m.refreshTranscript()
		return m, cmd

	// ------------------------------------------------------------------
	// UI housekeeping
	// ------------------------------------------------------------------

	case listTickMsg:
		return m, tea.Batch(m.engine.FetchList(), listTick(m.cfg.ListRefresh()))

	case toastClearMsg:
		if msg.id == m.toastID {
			m.toast = ""
		}
		return m, nil
	}

	return m.updateWidgets(msg)
}

// handleKey dispatches a key press based on focus.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.FocusNext):
		if m.focus == focusInput {
			m.focus = focusSidebar
			m.textarea.Blur()
		} else {
			m.focus = focusInput
			m.textarea.Focus()
		}
		return m, nil

	case key.Matches(msg, m.keys.NewChat):
		m.engine.CreateDraft()
		m.syncSelection()
		m.refreshTranscript()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.engine.FetchList()

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, m.maybeLoadOlder()

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		return m, m.maybeLoadOlder()

	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		return m, nil
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.handleInputKey(msg)
}

// handleSidebarKey navigates and activates conversation list entries.
func (m *Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.selected--
		m.clampSelection()
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.selected++
		m.clampSelection()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		entries := m.engine.Index().Entries()
		if m.selected >= len(entries) {
			return m, nil
		}
		entry := entries[m.selected]
		cmd := m.engine.SelectConversation(entry.ID)
		if cmd != nil {
			m.loading = true
		}
		m.focus = focusInput
		m.textarea.Focus()
		m.refreshTranscript()
		return m, cmd
	}
	return m, nil
}

// handleInputKey feeds keys to the textarea and submits on enter.
func (m *Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Submit) && !msg.Alt {
		return m, m.submit()
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// submit sends the input line: slash commands run locally, anything else is
// dispatched as a message with the staged attachments.
func (m *Model) submit() tea.Cmd {
	input := m.textarea.Value()
	if strings.TrimSpace(input) == "" && len(m.staged) == 0 {
		return nil
	}

	if cmd, ok := parseCommand(input); ok {
		m.textarea.Reset()
		return m.runCommand(cmd)
	}

	sendCmd := m.engine.SendMessage(input, m.staged)
	if sendCmd == nil {
		return nil
	}
	m.textarea.Reset()
	m.staged = nil
	m.sending = true
	m.syncSelection()
	m.refreshTranscript()
	m.viewport.GotoBottom()
	return sendCmd
}

// maybeLoadOlder fetches the next history page when the user hits the top
// of the loaded transcript.
func (m *Model) maybeLoadOlder() tea.Cmd {
	if !m.viewport.AtTop() {
		return nil
	}
	cmd := m.engine.LoadOlder()
	if cmd != nil {
		m.loading = true
	}
	return cmd
}

// updateWidgets forwards remaining messages to the focused widgets.
func (m *Model) updateWidgets(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}
