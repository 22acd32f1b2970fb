// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestSource(t *testing.T) *TokenSource {
	t.Helper()
	t.Setenv(EnvToken, "")
	src, err := NewTokenSource(filepath.Join(t.TempDir(), "token"))
	if err != nil {
		t.Fatal(err)
	}
	return src
}

func TestTokenSource_NoSession(t *testing.T) {
	src := newTestSource(t)
	_, err := src.Token()
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
}

func TestTokenSource_EnvWinsOverFile(t *testing.T) {
	src := newTestSource(t)
	if err := src.Save("file-token"); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvToken, "env-token")

	tok, err := src.Token()
	if err != nil {
		t.Fatal(err)
	}
	if tok != "env-token" {
		t.Errorf("token = %q, want env-token", tok)
	}
}

func TestTokenSource_SaveAndRead(t *testing.T) {
	src := newTestSource(t)
	if err := src.Save("  tok-123  "); err != nil {
		t.Fatal(err)
	}

	tok, err := src.Token()
	if err != nil {
		t.Fatal(err)
	}
	if tok != "tok-123" {
		t.Errorf("token = %q, want trimmed tok-123", tok)
	}

	info, err := os.Stat(src.path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("token file permissions = %o, want 0600", perm)
	}
}

func TestTokenSource_SaveRejectsEmpty(t *testing.T) {
	src := newTestSource(t)
	if err := src.Save("   "); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestTokenSource_BlankFileIsNoSession(t *testing.T) {
	src := newTestSource(t)
	if err := os.WriteFile(src.path, []byte("\n\n"), 0600); err != nil {
		t.Fatal(err)
	}
	_, err := src.Token()
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
}

func TestTokenSource_Clear(t *testing.T) {
	src := newTestSource(t)
	if err := src.Save("tok"); err != nil {
		t.Fatal(err)
	}
	if err := src.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, err := src.Token(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("err after clear = %v, want ErrNoSession", err)
	}
	// Clearing twice is fine.
	if err := src.Clear(); err != nil {
		t.Fatal(err)
	}
}
