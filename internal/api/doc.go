// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the client for the remote conversation service.
//
// The service stores conversations and messages and exposes five
// operations: list, fetch (paginated, newest-first), append (multipart,
// creating a conversation when no chat id is supplied), rename, and delete.
//
// Error taxonomy:
//
//   - ErrUnauthenticated — no valid session; returned before any network
//     I/O, or on a 401/403 from the server.
//   - wrapped transport errors ("request failed: ...") — network-level
//     failures.
//   - *ServerError — non-success status with the server-supplied message.
//   - malformed responses are handled defensively: absent file metadata
//     gets safe defaults instead of failing the page.
//
// The client never retries. Rapid UI actions are paced with a token-bucket
// limiter, but a failed request surfaces immediately so the user sees it.
package api
