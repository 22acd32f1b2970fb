// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/relay-tui/internal/model"
)

// maxAttachmentSize caps staged attachments at 10MB, matching the upload
// limit the server enforces.
const maxAttachmentSize = 10 * 1024 * 1024

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// command is a parsed slash command from the input line.
type command struct {
	name string
	arg  string
}

// parseCommand parses a slash command. Returns ok=false for normal message
// text, including text that merely starts with "//".
func parseCommand(input string) (command, bool) {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, "/") || strings.HasPrefix(trimmed, "//") {
		return command{}, false
	}
	rest := strings.TrimPrefix(trimmed, "/")
	name, arg, _ := strings.Cut(rest, " ")
	if name == "" {
		return command{}, false
	}
	return command{name: strings.ToLower(name), arg: strings.TrimSpace(arg)}, true
}

// runCommand executes a slash command against the session engine.
func (m *Model) runCommand(cmd command) tea.Cmd {
	switch cmd.name {
	case "new":
		m.engine.CreateDraft()
		m.syncSelection()
		m.refreshTranscript()
		return nil

	case "rename":
		if cmd.arg == "" {
			return m.showError("usage: /rename <new title>")
		}
		id := m.engine.Store().ActiveID()
		if id == "" {
			return m.showError("cannot rename an unsaved chat")
		}
		return m.engine.Rename(id, cmd.arg)

	case "delete":
		id := m.engine.Store().ActiveID()
		if id == "" {
			return m.showError("nothing to delete, this chat only exists locally")
		}
		return m.engine.Delete(id)

	case "attach":
		if cmd.arg == "" {
			return m.showError("usage: /attach <file path>")
		}
		att, err := stageAttachment(cmd.arg)
		if err != nil {
			return m.showError(err.Error())
		}
		m.staged = append(m.staged, att)
		return nil

	case "clear":
		m.staged = nil
		return nil

	case "refresh":
		return m.engine.FetchList()

	case "help":
		m.showHelp = !m.showHelp
		return nil

	case "quit":
		m.quitting = true
		return tea.Quit

	default:
		return m.showError(fmt.Sprintf("unknown command: /%s", cmd.name))
	}
}

// stageAttachment reads a local file into a staged attachment.
func stageAttachment(path string) (model.Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return model.Attachment{}, fmt.Errorf("cannot attach %s: %w", path, err)
	}
	if info.IsDir() {
		return model.Attachment{}, fmt.Errorf("cannot attach a directory: %s", path)
	}
	if info.Size() > maxAttachmentSize {
		return model.Attachment{}, fmt.Errorf("%s is too large to attach (max 10MB)", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return model.Attachment{}, fmt.Errorf("cannot read %s: %w", path, err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	return model.NewStagedAttachment(filepath.Base(path), mimeType, data), nil
}
