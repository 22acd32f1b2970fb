// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth resolves the session token used to authenticate against the
// conversation service.
//
// Resolution order: the RELAY_TOKEN environment variable, then the token
// file (~/.relay/token by default). There is no interactive login flow; the
// token is provisioned out of band and relay fails fast when it is missing.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/morganforge/relay-tui/internal/util"
)

// ErrNoSession indicates that no session token could be resolved.
var ErrNoSession = errors.New("no session token configured")

// EnvToken is the environment variable checked before the token file.
const EnvToken = "RELAY_TOKEN"

// =============================================================================
// TOKEN SOURCE
// =============================================================================

// TokenSource resolves the session token on every call, so a token rotated
// on disk takes effect without restarting.
type TokenSource struct {
	path string
}

// NewTokenSource creates a token source reading from the given file path.
// An empty path uses the default location under the user's home directory.
func NewTokenSource(path string) (*TokenSource, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home directory: %w", err)
		}
		path = filepath.Join(home, ".relay", "token")
	}
	return &TokenSource{path: path}, nil
}

// Token returns the current session token, or ErrNoSession when neither the
// environment nor the token file provides one.
func (t *TokenSource) Token() (string, error) {
	if tok := strings.TrimSpace(os.Getenv(EnvToken)); tok != "" {
		return tok, nil
	}

	data, err := os.ReadFile(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoSession
		}
		return "", fmt.Errorf("failed to read token file: %w", err)
	}

	tok := strings.TrimSpace(string(data))
	if tok == "" {
		return "", ErrNoSession
	}
	return tok, nil
}

// Save writes a token to the token file with owner-only permissions. The
// write is atomic so a crash never leaves a truncated token behind.
func (t *TokenSource) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token cannot be empty")
	}
	return util.AtomicWriteFile(t.path, []byte(token+"\n"), 0600)
}

// Clear removes the token file. Missing files are not an error.
func (t *TokenSource) Clear() error {
	err := os.Remove(t.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
