// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package turn

import (
	"context"

	"github.com/AleutianAI/AleutianChat/services/chat/datatypes"
	"github.com/AleutianAI/AleutianChat/services/llm"
)

// =============================================================================
// Test Mocks
// =============================================================================

// scriptedLLM replays a fixed sequence of outputs, one per Generate call,
// and records every prompt it received.
type scriptedLLM struct {
	outputs []string
	errs    []error
	prompts []string
	calls   int
}

var _ llm.LLMClient = (*scriptedLLM)(nil)

func (s *scriptedLLM) Generate(_ context.Context, prompt string, _ llm.GenerationParams) (string, error) {
	s.prompts = append(s.prompts, prompt)
	idx := s.calls
	s.calls++
	if idx < len(s.errs) && s.errs[idx] != nil {
		return "", s.errs[idx]
	}
	if idx < len(s.outputs) {
		return s.outputs[idx], nil
	}
	// Loop past the script: keep emitting an action so step caps trip.
	return "Thought: still looking.\nAction: semantic_lookup\nAction Input: more", nil
}

// mockMessageStore is an in-memory MessageStore with injectable failures.
type mockMessageStore struct {
	history     []datatypes.Turn
	listErr     error
	appendErr   error
	listCalls   int
	appendCalls int

	appendedSession   string
	appendedUser      string
	appendedAssistant string
}

var _ MessageStore = (*mockMessageStore)(nil)

func (m *mockMessageStore) ListRecent(_ context.Context, _ string, limit int) ([]datatypes.Turn, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	if len(m.history) > limit {
		return m.history[len(m.history)-limit:], nil
	}
	return m.history, nil
}

func (m *mockMessageStore) AppendTurnPair(_ context.Context, sessionID, userMessage, answer string) error {
	m.appendCalls++
	if m.appendErr != nil {
		return m.appendErr
	}
	m.appendedSession = sessionID
	m.appendedUser = userMessage
	m.appendedAssistant = answer
	return nil
}

// mockInsightStore is an in-memory InsightStore.
type mockInsightStore struct {
	insights  []datatypes.Insight
	readErr   error
	inserted  []string
	insertErr error
	readCalls int
}

var _ InsightStore = (*mockInsightStore)(nil)

func (m *mockInsightStore) ReadAll(_ context.Context) ([]datatypes.Insight, error) {
	m.readCalls++
	if m.readErr != nil {
		return nil, m.readErr
	}
	return m.insights, nil
}

func (m *mockInsightStore) Insert(_ context.Context, feedback string) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserted = append(m.inserted, feedback)
	return nil
}

// mockSearcher is a canned PassageSearcher.
type mockSearcher struct {
	passages    []datatypes.RetrievedPassage
	err         error
	calls       int
	lastQuery   string
	lastRequest int
}

var _ PassageSearcher = (*mockSearcher)(nil)

func (m *mockSearcher) SimilaritySearch(_ context.Context, query string, k int) ([]datatypes.RetrievedPassage, error) {
	m.calls++
	m.lastQuery = query
	m.lastRequest = k
	if m.err != nil {
		return nil, m.err
	}
	if len(m.passages) > k {
		return m.passages[:k], nil
	}
	return m.passages, nil
}
