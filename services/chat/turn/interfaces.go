// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package turn implements the conversational turn processor.
//
// # Description
//
// One inbound chat request flows through four strictly sequential steps:
// validate the request and credential, load and render recent session
// history, drive the bounded reasoning loop against the LLM with the
// declared lookup capabilities, and persist the new user/assistant turn
// pair. Each step's output is the next step's input; only one collaborator
// call is in flight at any time.
//
// # Collaborators
//
// The processor depends only on the interfaces in this file. Concrete
// implementations live in services/chat/store (Postgres via gorm),
// services/chat/retrieval (Weaviate + OpenAI embeddings), and services/llm
// (OpenAI chat completions). Tests substitute hand-written mocks.
//
// # Thread Safety
//
// The processor holds no per-request state; it is safe for concurrent use
// provided its collaborators are.
package turn

import (
	"context"

	"github.com/AleutianAI/AleutianChat/services/chat/datatypes"
)

// MessageStore is the session-scoped view of the row store.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type MessageStore interface {
	// ListRecent returns up to limit of the most recent turns for the
	// session, ordered oldest-first. An empty slice means a fresh session.
	ListRecent(ctx context.Context, sessionID string, limit int) ([]datatypes.Turn, error)

	// AppendTurnPair appends the user turn then the assistant turn for the
	// session in one logical batch. Implementations must not report
	// success on a partial write.
	AppendTurnPair(ctx context.Context, sessionID, userMessage, answer string) error
}

// InsightStore is the aggregate view of the insights table.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type InsightStore interface {
	// ReadAll returns every stored insight row.
	ReadAll(ctx context.Context) ([]datatypes.Insight, error)

	// Insert appends one feedback row.
	Insert(ctx context.Context, feedback string) error
}

// PassageSearcher is the semantic-index collaborator. The backing index is
// pre-built and external; this service only queries it.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type PassageSearcher interface {
	// SimilaritySearch returns up to k passages for the query, most
	// similar first.
	SimilaritySearch(ctx context.Context, query string, k int) ([]datatypes.RetrievedPassage, error)
}
