// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Domain types shared between the turn processor and its collaborators.
// The row-store keeps its own gorm models; these are the neutral shapes
// the pipeline works with.
package datatypes

import "time"

// Turn roles. Anything that is not RoleUser renders as the assistant.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message (user or assistant) within a chat session.
//
// # Description
//
// Turns are append-only: the service creates exactly one user/assistant
// pair per successful request and never mutates or deletes rows. Ordering
// within a session is by CreatedAt ascending.
type Turn struct {
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Insight is one stored feedback row from the insights table.
type Insight struct {
	Feedback  string    `json:"feedback"`
	CreatedAt time.Time `json:"created_at"`
}

// RetrievedPassage is a unit of retrievable text returned by the semantic
// index. Transient; never persisted by this service.
type RetrievedPassage struct {
	Text string `json:"text"`
}
