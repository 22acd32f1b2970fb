// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog"

	"github.com/morganforge/relay-tui/internal/config"
	"github.com/morganforge/relay-tui/internal/model"
	"github.com/morganforge/relay-tui/internal/session"
	"github.com/morganforge/relay-tui/internal/ui/styles"
)

// focusArea identifies which pane receives key input.
type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
)

const (
	sidebarWidth  = 28
	inputHeight   = 3
	toastDuration = 5 * time.Second
)

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view. It owns the widgets and
// delegates all conversation state to the session engine; every session
// message coming back from a command is routed to the engine's Apply method
// and the widgets re-render from engine state.
type Model struct {
	engine *session.Engine
	cfg    *config.Config
	theme  *styles.Theme
	keys   KeyMap
	logger zerolog.Logger

	viewport viewport.Model
	textarea textarea.Model
	renderer *glamour.TermRenderer

	width  int
	height int
	ready  bool

	focus    focusArea
	selected int // sidebar cursor

	staged   []model.Attachment
	sending  bool
	loading  bool
	showHelp bool
	quitting bool

	toast   string
	toastID int
}

// New creates the chat view over a session engine.
func New(engine *session.Engine, cfg *config.Config, theme *styles.Theme, logger zerolog.Logger) *Model {
	ta := textarea.New()
	ta.Placeholder = "Type a message, or /help for commands"
	ta.Prompt = "│ "
	ta.CharLimit = 0
	ta.SetHeight(inputHeight)
	ta.ShowLineNumbers = false
	ta.Focus()

	return &Model{
		engine:   engine,
		cfg:      cfg,
		theme:    theme,
		keys:     DefaultKeyMap(),
		logger:   logger.With().Str("component", "ui").Logger(),
		textarea: ta,
		focus:    focusInput,
	}
}

// Init primes the sidebar from the cache and kicks off the first refresh.
func (m *Model) Init() tea.Cmd {
	m.engine.PrimeFromCache()
	m.engine.CreateDraft()
	m.syncSelection()
	return tea.Batch(
		textarea.Blink,
		m.engine.FetchList(),
		listTick(m.cfg.ListRefresh()),
	)
}

// =============================================================================
// STATE HELPERS
// =============================================================================

// syncSelection moves the sidebar cursor to the active conversation.
func (m *Model) syncSelection() {
	activeID := m.engine.Store().ActiveID()
	for i, entry := range m.engine.Index().Entries() {
		if entry.ID == activeID {
			m.selected = i
			return
		}
	}
	m.clampSelection()
}

// clampSelection keeps the cursor inside the list bounds.
func (m *Model) clampSelection() {
	n := m.engine.Index().Len()
	if n == 0 {
		m.selected = 0
		return
	}
	if m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

// showError surfaces an error toast and schedules its removal.
func (m *Model) showError(text string) tea.Cmd {
	m.toast = text
	m.toastID++
	return clearToastAfter(m.toastID, toastDuration)
}

// refreshTranscript rebuilds the viewport content from the active
// conversation.
func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderTranscript())
	if atBottom {
		m.viewport.GotoBottom()
	}
}

// resize recomputes widget dimensions after a window size change.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	contentWidth := width - sidebarWidth - 1
	if contentWidth < 20 {
		contentWidth = 20
	}
	// Header and status bar take one row each; the input box adds its
	// borders around the textarea.
	contentHeight := height - inputHeight - 4
	if contentHeight < 3 {
		contentHeight = 3
	}

	if !m.ready {
		m.viewport = viewport.New(contentWidth, contentHeight)
		m.ready = true
	} else {
		m.viewport.Width = contentWidth
		m.viewport.Height = contentHeight
	}
	m.textarea.SetWidth(contentWidth - 2)

	if m.cfg.UI.Markdown {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(contentWidth-4),
		)
		if err == nil {
			m.renderer = renderer
		}
	}

	m.refreshTranscript()
	m.viewport.GotoBottom()
}
