// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package retrieval implements the semantic-index collaborator on Weaviate.
//
// # Description
//
// The passage collection is a pre-built Weaviate class external to this
// service; index construction and maintenance are out of scope. A lookup
// embeds the query via the configured Embedder and runs a nearVector
// search, returning passages most-similar first.
//
// # Thread Safety
//
// WeaviateSearcher is safe for concurrent use; the underlying client
// handles connection pooling.
package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/AleutianAI/AleutianChat/services/chat/datatypes"
	"github.com/AleutianAI/AleutianChat/services/chat/turn"
	"github.com/AleutianAI/AleutianChat/services/llm"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("aleutianchat.chat.retrieval")

// DefaultClass is the passage class queried when none is configured. Which
// collection the lookup targets is a content choice, so it is
// configuration rather than hardcoded behavior.
const DefaultClass = "Passage"

// maxEmbedLength truncates oversized queries before embedding.
const maxEmbedLength = 8192

// Compile-time interface implementation check.
var _ turn.PassageSearcher = (*WeaviateSearcher)(nil)

// WeaviateSearcher implements turn.PassageSearcher over a Weaviate class.
type WeaviateSearcher struct {
	client   *weaviate.Client
	embedder llm.Embedder
	class    string
}

// NewClient builds a Weaviate client from a URL like "http://host:8080".
func NewClient(rawURL string) (*weaviate.Client, error) {
	trimmed := strings.Trim(rawURL, "\"' ")
	parsedURL, err := url.Parse(trimmed)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid Weaviate URL: %s", rawURL)
	}

	client, err := weaviate.NewClient(weaviate.Config{
		Host:   parsedURL.Host,
		Scheme: parsedURL.Scheme,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Weaviate client: %w", err)
	}

	slog.Info("Weaviate client initialized", "url", trimmed)
	return client, nil
}

// NewWeaviateSearcher creates a searcher over the given class. An empty
// class falls back to DefaultClass.
func NewWeaviateSearcher(client *weaviate.Client, embedder llm.Embedder, class string) *WeaviateSearcher {
	if class == "" {
		class = DefaultClass
	}
	return &WeaviateSearcher{
		client:   client,
		embedder: embedder,
		class:    class,
	}
}

// passageQueryResponse matches the GraphQL response shape for the passage
// class. The class key is resolved dynamically since the class name is
// configuration.
type passageQueryResponse struct {
	Get map[string][]struct {
		Text string `json:"text"`
	} `json:"Get"`
}

// SimilaritySearch returns up to k passages for the query, most-similar
// first.
//
// # Description
//
// Embeds the query, then runs a nearVector GraphQL Get against the
// configured class requesting the text property. Returns an empty slice
// when the index has no matches.
//
// # Inputs
//
//   - ctx: Context for cancellation and tracing.
//   - query: The lookup query. Truncated to 8KB before embedding.
//   - k: Maximum passages to return.
//
// # Outputs
//
//   - []datatypes.RetrievedPassage: Ordered most-similar first.
//   - error: Non-nil if the embedding or search fails.
func (s *WeaviateSearcher) SimilaritySearch(ctx context.Context, query string, k int) ([]datatypes.RetrievedPassage, error) {
	ctx, span := tracer.Start(ctx, "WeaviateSearcher.SimilaritySearch")
	defer span.End()
	span.SetAttributes(
		attribute.String("retrieval.class", s.class),
		attribute.Int("retrieval.k", k),
	)

	truncated := query
	if len(truncated) > maxEmbedLength {
		truncated = truncated[:maxEmbedLength]
		slog.Debug("Truncated query for embedding", "originalLen", len(query))
	}

	vector, err := s.embedder.Embed(ctx, truncated)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "embedding failed")
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vector)
	fields := []graphql.Field{{Name: "text"}}

	result, err := s.client.GraphQL().Get().
		WithClassName(s.class).
		WithFields(fields...).
		WithNearVector(nearVector).
		WithLimit(k).
		Do(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "weaviate search failed")
		return nil, fmt.Errorf("weaviate search failed: %w", err)
	}

	parsed, err := parseGraphQLResponse[passageQueryResponse](result)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}

	passages := make([]datatypes.RetrievedPassage, 0, k)
	for _, obj := range parsed.Get[s.class] {
		passages = append(passages, datatypes.RetrievedPassage{Text: obj.Text})
	}
	span.SetAttributes(attribute.Int("retrieval.results", len(passages)))
	slog.Debug("Semantic lookup completed", "class", s.class, "results", len(passages))
	return passages, nil
}

// parseGraphQLResponse converts Weaviate's dynamic response into a typed
// struct via the marshal/unmarshal round trip the client requires.
func parseGraphQLResponse[T any](resp *models.GraphQLResponse) (*T, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil GraphQL response")
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("GraphQL error: %s", resp.Errors[0].Message)
	}

	respBytes, err := json.Marshal(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GraphQL response data: %w", err)
	}

	var result T
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into target type: %w", err)
	}
	return &result, nil
}
