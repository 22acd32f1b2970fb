// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the client for the remote conversation service.
package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/morganforge/relay-tui/internal/model"
)

// Configuration constants for the conversation service API.
const (
	// DefaultTimeout is the default timeout for API requests. The backend
	// does not dictate one; 60s is the implementation-defined choice.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit

	// requestsPerSecond paces outgoing requests so rapid UI actions
	// (scroll-to-load, repeated renames) cannot flood the service.
	requestsPerSecond = 8

	// requestBurst allows short bursts above the sustained pace.
	requestBurst = 16
)

// sharedHTTPClient is used for all conversation service requests.
// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
	Timeout: DefaultTimeout,
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrUnauthenticated indicates there is no valid session credential.
	// Every call fails fast with this error before any network I/O.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrNotFound indicates the conversation does not exist on the server.
	ErrNotFound = errors.New("conversation not found")
)

// ServerError represents a non-success response from the conversation
// service, carrying the server-supplied message when one was present.
type ServerError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server rejected request (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server rejected request (HTTP %d)", e.Status)
}

// CredentialSource supplies the bearer credential attached to every request.
// Identity issuance is external; the client only consumes tokens.
type CredentialSource interface {
	// Token returns the current bearer token, or ErrUnauthenticated when no
	// valid session exists.
	Token() (string, error)
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is a client for the remote conversation service.
//
// The client never retries: failures surface to the caller, which shows
// them to the user. Stale-response handling is the sync engine's job, not
// the transport's.
type Client struct {
	baseURL    string
	creds      CredentialSource
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, creds CredentialSource, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    trimTrailingSlash(baseURL),
		creds:      creds,
		httpClient: sharedHTTPClient,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst),
		logger:     logger.With().Str("component", "api").Logger(),
	}
}

// WithTimeout sets the request timeout. The shared pooled transport is kept.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	client := *c.httpClient
	client.Timeout = timeout
	c.httpClient = &client
	return c
}

// WithHTTPClient swaps the underlying HTTP client. Used by tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// =============================================================================
// LIST / FETCH
// =============================================================================

// ListConversations retrieves all server-known conversation summaries.
func (c *Client) ListConversations(ctx context.Context) ([]model.Summary, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/chats", "", nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Chats []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"chats"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse chat list: %w", err)
	}

	summaries := make([]model.Summary, 0, len(resp.Chats))
	for _, chat := range resp.Chats {
		if chat.ID == "" {
			continue // defensive: a listed chat without an id is unusable
		}
		summaries = append(summaries, model.Summary{ID: chat.ID, Title: chat.Name})
	}
	return summaries, nil
}

// ChatPage is one page of a conversation's history. Messages carry the
// server's newest-first ordering for the requested window.
type ChatPage struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
	Messages  []*model.Message
}

// GetConversation fetches the page [offset, offset+limit) of a conversation,
// ordered newest-first.
func (c *Client) GetConversation(ctx context.Context, id string, offset, limit int) (*ChatPage, error) {
	path := fmt.Sprintf("/api/chats/%s?offset=%d&limit=%d", url.PathEscape(id), offset, limit)
	body, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		ID        string        `json:"id"`
		Name      string        `json:"name"`
		CreatedAt wireTime      `json:"created_at"`
		UpdatedAt wireTime      `json:"updated_at"`
		Messages  []wireMessage `json:"messages"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse conversation: %w", err)
	}

	page := &ChatPage{
		ID:        resp.ID,
		Name:      resp.Name,
		CreatedAt: resp.CreatedAt.Time,
		UpdatedAt: resp.UpdatedAt.Time,
		Messages:  make([]*model.Message, 0, len(resp.Messages)),
	}
	for _, wm := range resp.Messages {
		page.Messages = append(page.Messages, wm.toMessage())
	}
	return page, nil
}

// =============================================================================
// APPEND
// =============================================================================

// ChatExchange is the service's reply to an append: the conversation
// identity plus the trailing messages of the exchange, which include the
// assistant reply.
type ChatExchange struct {
	ID       string
	Name     string
	Messages []*model.Message
}

// LastAssistant returns the last assistant message of the exchange, or nil.
func (e *ChatExchange) LastAssistant() *model.Message {
	for i := len(e.Messages) - 1; i >= 0; i-- {
		if e.Messages[i].Role == model.RoleAssistant {
			return e.Messages[i]
		}
	}
	return nil
}

// AppendMessage sends a user message to a conversation as a multipart
// request. An empty chatID is omitted from the form, signaling the server
// to create a new conversation.
func (c *Client) AppendMessage(ctx context.Context, text string, attachments []model.Attachment, chatID string) (*ChatExchange, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	if err := form.WriteField("text", text); err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if chatID != "" {
		if err := form.WriteField("chat_id", chatID); err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
	}
	for _, att := range attachments {
		if !att.IsStaged() {
			continue
		}
		part, err := form.CreateFormFile("files", att.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		if _, err := part.Write(att.RawBytes); err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/api/chats/messages", form.FormDataContentType(), &buf)
	if err != nil {
		return nil, err
	}

	var resp struct {
		ID       string        `json:"id"`
		Name     string        `json:"name"`
		Messages []wireMessage `json:"messages"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse exchange: %w", err)
	}

	exchange := &ChatExchange{
		ID:       resp.ID,
		Name:     resp.Name,
		Messages: make([]*model.Message, 0, len(resp.Messages)),
	}
	for _, wm := range resp.Messages {
		exchange.Messages = append(exchange.Messages, wm.toMessage())
	}
	return exchange, nil
}

// =============================================================================
// RENAME / DELETE
// =============================================================================

// RenameConversation sets a new title for a conversation.
func (c *Client) RenameConversation(ctx context.Context, id, title string) error {
	payload, err := json.Marshal(map[string]string{"name": title})
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	path := "/api/chats/" + url.PathEscape(id)
	_, err = c.do(ctx, http.MethodPatch, path, "application/json", bytes.NewReader(payload))
	return err
}

// DeleteConversation removes a conversation from the server.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	path := "/api/chats/" + url.PathEscape(id)
	_, err := c.do(ctx, http.MethodDelete, path, "", nil)
	return err
}

// =============================================================================
// TRANSPORT
// =============================================================================

// do performs one authenticated request and returns the response body.
// It fails fast with ErrUnauthenticated before any I/O when no credential
// is available, and never retries.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) ([]byte, error) {
	token, err := c.creds.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", "relay/0.1.0")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	// Secure logging: method and path only, never headers or bodies.
	c.logger.Debug().Str("method", method).Str("path", req.URL.Path).Msg("api request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug().Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("api response")

	respBody, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.handleErrorResponse(resp.StatusCode, respBody)
	}
	return respBody, nil
}

// readResponse reads the response body with a size cap.
func readResponse(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// handleErrorResponse converts a non-success status to a typed error,
// preserving the server-supplied message when the body carries one.
func (c *Client) handleErrorResponse(status int, body []byte) error {
	var apiErr struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	message := ""
	if err := json.Unmarshal(body, &apiErr); err == nil {
		message = apiErr.Error.Message
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		if message != "" {
			return fmt.Errorf("%w: %s", ErrUnauthenticated, message)
		}
		return ErrUnauthenticated
	case http.StatusNotFound:
		if message != "" {
			return fmt.Errorf("%w: %s", ErrNotFound, message)
		}
		return ErrNotFound
	default:
		return &ServerError{Status: status, Message: message}
	}
}

// trimTrailingSlash normalizes the base URL.
func trimTrailingSlash(u string) string {
	for len(u) > 0 && u[len(u)-1] == '/' {
		u = u[:len(u)-1]
	}
	return u
}
