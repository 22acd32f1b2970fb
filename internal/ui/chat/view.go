// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/morganforge/relay-tui/internal/model"
	"github.com/morganforge/relay-tui/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the full chat screen.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return m.theme.LoadingText.Render("starting...")
	}

	main := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderSidebar(),
		m.renderContent(),
	)

	sections := []string{
		m.renderHeader(),
		main,
		m.renderInput(),
		m.renderStatusBar(),
	}
	if m.toast != "" {
		sections = append(sections, m.theme.ErrorToast.Render(util.TruncateWidth(m.toast, m.width-4)))
	}
	if m.showHelp {
		sections = append(sections, m.renderHelp())
	}

	return m.theme.App.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// renderHeader renders the title bar with the active conversation name.
func (m *Model) renderHeader() string {
	title := m.engine.Store().Active().Title
	if title == "" {
		title = model.DraftTitle
	}
	return m.theme.Header.Width(m.width).Render("relay - " + util.TruncateWidth(title, m.width-10))
}

// renderSidebar renders the conversation list.
func (m *Model) renderSidebar() string {
	var b strings.Builder
	b.WriteString(m.theme.SidebarTitle.Render("Conversations"))
	b.WriteString("\n\n")

	entries := m.engine.Index().Entries()
	if len(entries) == 0 {
		b.WriteString(m.theme.LoadingText.Render("no conversations"))
	}

	itemWidth := sidebarWidth - 4
	activeID := m.engine.Store().ActiveID()
	for i, entry := range entries {
		title := entry.Title
		if entry.IsDraft() {
			title = m.theme.SidebarDraftBadge.Render("+ ") + title
		}
		line := util.TruncateWidth(title, itemWidth)
		if i == m.selected && m.focus == focusSidebar {
			line = m.theme.SidebarSelected.Render("> " + line)
		} else if entry.ID == activeID {
			line = m.theme.SidebarSelected.Render("  " + line)
		} else {
			line = m.theme.SidebarItem.Render("  " + line)
		}
		b.WriteString(line)
		b.WriteString("\n")
		if entry.ID == activeID {
			if last := m.engine.Store().Active().LastMessage(); last != nil {
				b.WriteString(m.theme.SidebarPreview.Render("    " + last.Preview(itemWidth-4)))
				b.WriteString("\n")
			}
		}
	}

	return m.theme.Sidebar.
		Width(sidebarWidth).
		Height(m.viewport.Height).
		Render(b.String())
}

// renderContent renders the transcript viewport.
func (m *Model) renderContent() string {
	return m.viewport.View()
}

// renderTranscript builds the viewport content from the active transcript.
func (m *Model) renderTranscript() string {
	conv := m.engine.Store().Active()
	if conv.IsEmpty() {
		if m.loading {
			return m.theme.LoadingText.Render("loading history...")
		}
		return m.theme.LoadingText.Render("No messages yet. Say something.")
	}

	var b strings.Builder
	for i, msg := range conv.Messages {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}
	if m.sending {
		b.WriteString("\n")
		b.WriteString(m.theme.LoadingText.Render("waiting for reply..."))
		b.WriteString("\n")
	}
	return b.String()
}

// renderMessage renders one message with label, body and attachments.
func (m *Model) renderMessage(msg *model.Message) string {
	var label string
	var bubble lipgloss.Style
	if msg.Role == model.RoleUser {
		label = m.theme.UserLabel.Render(msg.Role.DisplayName())
		bubble = m.theme.UserBubble
	} else {
		label = m.theme.AssistantLabel.Render(msg.Role.DisplayName())
		bubble = m.theme.AssistantBubble
	}

	meta := ""
	if m.cfg.UI.ShowTimestamps {
		meta = " " + m.theme.Timestamp.Render(util.FormatRelativeTime(msg.Timestamp))
	}
	if msg.Pending {
		meta += " " + m.theme.PendingMarker.Render("(sending)")
	}

	body := msg.Content
	if msg.Role == model.RoleAssistant && m.renderer != nil {
		if rendered, err := m.renderer.Render(body); err == nil {
			body = strings.TrimRight(rendered, "\n")
		}
	}

	var b strings.Builder
	b.WriteString(label)
	b.WriteString(meta)
	b.WriteString("\n")
	b.WriteString(bubble.Width(m.viewport.Width - 2).Render(body))

	for _, att := range msg.Attachments {
		b.WriteString("\n")
		b.WriteString(m.theme.AttachmentTag.Render(fmt.Sprintf("  [%s]", att.Name)))
	}
	return b.String()
}

// renderInput renders the input box with any staged attachments above it.
func (m *Model) renderInput() string {
	var b strings.Builder
	if len(m.staged) > 0 {
		names := make([]string, len(m.staged))
		for i, att := range m.staged {
			names[i] = att.Name
		}
		b.WriteString(m.theme.AttachmentTag.Render("attachments: " + strings.Join(names, ", ")))
		b.WriteString("\n")
	}
	b.WriteString(m.theme.InputContainer.Width(m.width - 2).Render(m.textarea.View()))
	return b.String()
}

// renderStatusBar renders the shortcut hints line.
func (m *Model) renderStatusBar() string {
	var parts []string
	for _, binding := range m.keys.ShortHelp() {
		parts = append(parts,
			m.theme.ShortcutKey.Render(binding.Help().Key)+" "+
				m.theme.ShortcutDesc.Render(binding.Help().Desc))
	}
	status := strings.Join(parts, "  ")
	if m.loading {
		status += "  " + m.theme.LoadingText.Render("loading...")
	}
	return m.theme.StatusBar.Width(m.width).Render(status)
}

// renderHelp renders the full help overlay as extra lines below the status
// bar.
func (m *Model) renderHelp() string {
	var b strings.Builder
	for _, group := range m.keys.FullHelp() {
		for _, binding := range group {
			b.WriteString(fmt.Sprintf("  %s  %s\n",
				m.theme.ShortcutKey.Render(util.PadWidth(binding.Help().Key, 12)),
				m.theme.ShortcutDesc.Render(binding.Help().Desc)))
		}
	}
	b.WriteString(fmt.Sprintf("  %s  %s\n",
		m.theme.ShortcutKey.Render(util.PadWidth("/cmd", 12)),
		m.theme.ShortcutDesc.Render("commands: /new /rename /delete /attach /clear /refresh /quit")))
	return strings.TrimRight(b.String(), "\n")
}
