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
	"errors"
	"testing"
	"time"

	"github.com/AleutianAI/AleutianChat/services/chat/datatypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// newTestProcessor wires a Processor over the given mocks with a scripted
// one-shot final answer unless the caller overrides the client.
func newTestProcessor(store *mockMessageStore, insights *mockInsightStore, searcher *mockSearcher, client *scriptedLLM) *Processor {
	if client == nil {
		client = &scriptedLLM{outputs: []string{
			"Thought: no lookup needed.\nFinal Answer: canned answer",
		}}
	}
	return New(
		Config{AuthToken: testSecret},
		store, insights, searcher, client, nil,
	)
}

func validRequest() *datatypes.ChatRequest {
	return &datatypes.ChatRequest{
		Message:   "What is a noun?",
		SessionID: "session-1",
		AuthToken: testSecret,
	}
}

// =============================================================================
// Validation and Credential Tests
// =============================================================================

// TestProcess_MissingFields verifies shape rejection happens before any
// collaborator call.
func TestProcess_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		req  *datatypes.ChatRequest
	}{
		{name: "missing message", req: &datatypes.ChatRequest{SessionID: "s1", AuthToken: testSecret}},
		{name: "missing sessionId", req: &datatypes.ChatRequest{Message: "hi", AuthToken: testSecret}},
		{name: "both missing", req: &datatypes.ChatRequest{AuthToken: testSecret}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			store := &mockMessageStore{}
			insights := &mockInsightStore{}
			client := &scriptedLLM{}
			processor := newTestProcessor(store, insights, &mockSearcher{}, client)

			// Act
			resp, err := processor.Process(context.Background(), tt.req)

			// Assert
			require.Error(t, err)
			assert.True(t, IsInvalidRequest(err))
			assert.Nil(t, resp)
			assert.Zero(t, store.listCalls, "history must not be read on invalid request")
			assert.Zero(t, store.appendCalls)
			assert.Zero(t, client.calls)
		})
	}
}

// TestProcess_BadCredential verifies credential rejection also precedes
// every collaborator call.
func TestProcess_BadCredential(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{name: "wrong token", token: "wrong"},
		{name: "empty token", token: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			store := &mockMessageStore{}
			client := &scriptedLLM{}
			processor := newTestProcessor(store, &mockInsightStore{}, &mockSearcher{}, client)
			req := validRequest()
			req.AuthToken = tt.token

			// Act
			resp, err := processor.Process(context.Background(), req)

			// Assert
			require.Error(t, err)
			assert.True(t, IsUnauthorized(err))
			assert.Nil(t, resp)
			assert.Zero(t, store.listCalls)
			assert.Zero(t, client.calls)
		})
	}
}

// =============================================================================
// Pipeline Tests
// =============================================================================

// TestProcess_SuccessfulTurn verifies the full four-step pipeline.
//
// # Description
//
// History feeds the prompt, the answer comes from the loop, and both new
// turns persist for the request session with the exact request and answer
// text.
func TestProcess_SuccessfulTurn(t *testing.T) {
	// Arrange
	store := &mockMessageStore{history: []datatypes.Turn{
		{SessionID: "session-1", Role: datatypes.RoleUser, Content: "hello"},
		{SessionID: "session-1", Role: datatypes.RoleAssistant, Content: "hi there"},
	}}
	client := &scriptedLLM{outputs: []string{
		"Thought: simple question.\nFinal Answer: A noun names a thing.",
	}}
	processor := newTestProcessor(store, &mockInsightStore{}, &mockSearcher{}, client)

	// Act
	before := time.Now().UnixMilli()
	resp, err := processor.Process(context.Background(), validRequest())
	after := time.Now().UnixMilli()

	// Assert
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.True(t, resp.Success)
	assert.Equal(t, "A noun names a thing.", resp.Response)
	assert.Equal(t, "session-1", resp.SessionID)
	assert.GreaterOrEqual(t, resp.Timestamp, before)
	assert.LessOrEqual(t, resp.Timestamp, after)

	assert.Contains(t, client.prompts[0], "User: hello\nAssistant: hi there",
		"prior history must render into the prompt")

	assert.Equal(t, 1, store.appendCalls)
	assert.Equal(t, "session-1", store.appendedSession)
	assert.Equal(t, "What is a noun?", store.appendedUser)
	assert.Equal(t, "A noun names a thing.", store.appendedAssistant)
}

// TestProcess_FreshSession verifies an empty history is not an error.
func TestProcess_FreshSession(t *testing.T) {
	store := &mockMessageStore{}
	processor := newTestProcessor(store, &mockInsightStore{}, &mockSearcher{}, nil)

	resp, err := processor.Process(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Equal(t, "canned answer", resp.Response)
}

// TestProcess_HistoryReadFailure verifies a failed load aborts before the
// reasoning loop runs.
func TestProcess_HistoryReadFailure(t *testing.T) {
	// Arrange
	store := &mockMessageStore{listErr: errors.New("connection reset")}
	client := &scriptedLLM{}
	processor := newTestProcessor(store, &mockInsightStore{}, &mockSearcher{}, client)

	// Act
	resp, err := processor.Process(context.Background(), validRequest())

	// Assert
	require.Error(t, err)
	assert.True(t, IsStoreRead(err))
	assert.Nil(t, resp)
	assert.Zero(t, client.calls, "loop must not run on partial data")
	assert.Zero(t, store.appendCalls)
}

// TestProcess_PersistFailure verifies a failed write is reported rather
// than masked by the successful answer.
func TestProcess_PersistFailure(t *testing.T) {
	// Arrange
	store := &mockMessageStore{appendErr: errors.New("disk full")}
	processor := newTestProcessor(store, &mockInsightStore{}, &mockSearcher{}, nil)

	// Act
	resp, err := processor.Process(context.Background(), validRequest())

	// Assert
	require.Error(t, err)
	assert.True(t, IsStoreWrite(err))
	assert.Nil(t, resp)
}

// TestProcess_LoopFailurePropagates verifies reasoning failures skip the
// persist step entirely.
func TestProcess_LoopFailurePropagates(t *testing.T) {
	// Arrange
	store := &mockMessageStore{}
	client := &scriptedLLM{errs: []error{errors.New("provider down")}}
	processor := newTestProcessor(store, &mockInsightStore{}, &mockSearcher{}, client)

	// Act
	_, err := processor.Process(context.Background(), validRequest())

	// Assert
	require.Error(t, err)
	assert.Zero(t, store.appendCalls, "nothing persists on a failed turn")
}

// TestProcess_CapabilitiesReachStores verifies the wired capabilities hit
// their real collaborators through the loop.
func TestProcess_CapabilitiesReachStores(t *testing.T) {
	// Arrange
	insights := &mockInsightStore{insights: []datatypes.Insight{{Feedback: "likes examples"}}}
	searcher := &mockSearcher{passages: []datatypes.RetrievedPassage{{Text: "noun passage"}}}
	client := &scriptedLLM{outputs: []string{
		"Thought: check insights.\nAction: insights\nAction Input: None",
		"Thought: now search.\nAction: semantic_lookup\nAction Input: nouns",
		"Thought: done.\nFinal Answer: combined answer",
	}}
	processor := newTestProcessor(&mockMessageStore{}, insights, searcher, client)

	// Act
	resp, err := processor.Process(context.Background(), validRequest())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "combined answer", resp.Response)
	assert.Equal(t, 1, insights.readCalls)
	assert.Equal(t, 1, searcher.calls)
	assert.Contains(t, client.prompts[1], "Observation: likes examples")
	assert.Contains(t, client.prompts[2], "Observation: noun passage")
}

// TestNew_FeedbackCapabilityGating verifies the feedback capability is
// declared only when enabled.
func TestNew_FeedbackCapabilityGating(t *testing.T) {
	base := Config{AuthToken: testSecret}
	store := &mockMessageStore{}
	insights := &mockInsightStore{}

	p := New(base, store, insights, &mockSearcher{}, &scriptedLLM{}, nil)
	_, ok := p.loop.registry.Lookup(CapabilityFeedback)
	assert.False(t, ok)

	base.EnableFeedback = true
	p = New(base, store, insights, &mockSearcher{}, &scriptedLLM{}, nil)
	_, ok = p.loop.registry.Lookup(CapabilityFeedback)
	assert.True(t, ok)
}

// TestErrorStatus verifies the metrics label mapping for each error kind.
func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status string
	}{
		{&InvalidRequestError{Reason: "x"}, "invalid_request"},
		{&UnauthorizedError{}, "unauthorized"},
		{&StoreReadError{Op: "r", Err: errors.New("x")}, "store_read_error"},
		{&StoreWriteError{Op: "w", Err: errors.New("x")}, "store_write_error"},
		{&UpstreamTimeoutError{Op: "g", Err: context.DeadlineExceeded}, "upstream_timeout"},
		{&ReasoningLoopExceededError{Steps: 10}, "loop_exceeded"},
		{&UpstreamError{Op: "g", Err: errors.New("x")}, "upstream_error"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, errorStatus(tt.err))
	}
}
