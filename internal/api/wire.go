// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/morganforge/relay-tui/internal/model"
)

// unknownMimeType is the defensive default for file entries that omit a type.
const unknownMimeType = "unknown"

// =============================================================================
// WIRE SHAPES
// =============================================================================

// wireMessage mirrors the service's message representation. Every field may
// be absent in practice; decoding substitutes safe defaults rather than
// failing the whole page.
type wireMessage struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Role      string     `json:"role"`
	Timestamp wireTime   `json:"timestamp"`
	Files     []wireFile `json:"files"`
}

// wireFile mirrors the service's file metadata. Older backends send the URL
// as file_url; both spellings are accepted.
type wireFile struct {
	ID      *string `json:"id"`
	Name    *string `json:"name"`
	Size    *int64  `json:"size"`
	Type    *string `json:"type"`
	URL     *string `json:"url"`
	FileURL *string `json:"file_url"`
}

// toMessage converts a wire message to the domain model, patching missing
// fields with safe defaults.
func (wm wireMessage) toMessage() *model.Message {
	role := model.Role(wm.Role)
	if role != model.RoleUser && role != model.RoleAssistant {
		role = model.RoleAssistant
	}
	msg := &model.Message{
		ID:        wm.ID,
		Role:      role,
		Content:   wm.Text,
		Timestamp: wm.Timestamp.Time,
	}
	if len(wm.Files) > 0 {
		msg.Attachments = make([]model.Attachment, 0, len(wm.Files))
		for _, wf := range wm.Files {
			msg.Attachments = append(msg.Attachments, wf.toAttachment())
		}
	}
	return msg
}

// toAttachment applies the defensive defaults: empty name, zero size,
// "unknown" type, empty url.
func (wf wireFile) toAttachment() model.Attachment {
	att := model.Attachment{MimeType: unknownMimeType}
	if wf.ID != nil {
		att.ID = *wf.ID
	}
	if wf.Name != nil {
		att.Name = *wf.Name
	}
	if wf.Size != nil {
		att.Size = *wf.Size
	}
	if wf.Type != nil && *wf.Type != "" {
		att.MimeType = *wf.Type
	}
	switch {
	case wf.URL != nil:
		att.URL = *wf.URL
	case wf.FileURL != nil:
		att.URL = *wf.FileURL
	}
	return att
}

// =============================================================================
// TIMESTAMP DECODING
// =============================================================================

// wireTime decodes the service's timestamps, which arrive either as RFC3339
// strings or as numeric Unix epochs depending on backend version. A missing
// or unparseable timestamp decodes to the zero time rather than erroring.
type wireTime struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (wt *wireTime) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		return nil
	}

	if strings.HasPrefix(s, `"`) {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil
		}
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			wt.Time = t
		} else if t, err := time.Parse(time.RFC3339, raw); err == nil {
			wt.Time = t
		}
		return nil
	}

	if epoch, err := strconv.ParseFloat(s, 64); err == nil {
		sec := int64(epoch)
		nsec := int64((epoch - float64(sec)) * float64(time.Second))
		wt.Time = time.Unix(sec, nsec).UTC()
	}
	return nil
}
