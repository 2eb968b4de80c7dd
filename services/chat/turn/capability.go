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
	"fmt"
	"strings"
)

// =============================================================================
// Capability Registry
// =============================================================================

// Capability names declared to the reasoning loop.
const (
	CapabilityInsights       = "insights"
	CapabilitySemanticLookup = "semantic_lookup"
	CapabilityFeedback       = "feedback"
)

// PassageSeparator joins retrieved passages in a semantic_lookup result.
const PassageSeparator = "\n\n---\n"

// SemanticLookupK is how many passages one semantic_lookup returns at most.
const SemanticLookupK = 5

// Capability is one external lookup or action the reasoning loop may
// invoke mid-conversation. Run receives the model-supplied input (may be
// empty) and returns the textual result fed back as an observation.
type Capability struct {
	Name        string
	Description string
	Run         func(ctx context.Context, input string) (string, error)
}

// Registry holds the closed set of declared capabilities, preserving
// declaration order for prompt construction.
//
// # Thread Safety
//
// Registry is immutable after construction and safe for concurrent use.
type Registry struct {
	ordered []Capability
	byName  map[string]Capability
}

// NewRegistry builds a Registry from the given capabilities.
func NewRegistry(capabilities ...Capability) *Registry {
	r := &Registry{
		ordered: capabilities,
		byName:  make(map[string]Capability, len(capabilities)),
	}
	for _, c := range capabilities {
		r.byName[c.Name] = c
	}
	return r
}

// List returns the declared capabilities in declaration order.
func (r *Registry) List() []Capability {
	return r.ordered
}

// Lookup returns the named capability, or false when it is not declared.
func (r *Registry) Lookup(name string) (Capability, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// =============================================================================
// Declared Capabilities
// =============================================================================

// NewInsightsCapability reads every stored insight row and dumps it as one
// string. Takes no input.
func NewInsightsCapability(store InsightStore) Capability {
	return Capability{
		Name:        CapabilityInsights,
		Description: "Gain insights from previous chats. Takes no input.",
		Run: func(ctx context.Context, _ string) (string, error) {
			insights, err := store.ReadAll(ctx)
			if err != nil {
				return "", fmt.Errorf("failed to read insights: %w", err)
			}
			if len(insights) == 0 {
				return "", nil
			}
			lines := make([]string, 0, len(insights))
			for _, ins := range insights {
				lines = append(lines, ins.Feedback)
			}
			return strings.Join(lines, "\n"), nil
		},
	}
}

// NewSemanticLookupCapability searches the passage collection and joins up
// to SemanticLookupK results, most-similar first.
func NewSemanticLookupCapability(searcher PassageSearcher) Capability {
	return Capability{
		Name:        CapabilitySemanticLookup,
		Description: "Retrieve reference passages for a topic. Input: a search query.",
		Run: func(ctx context.Context, input string) (string, error) {
			passages, err := searcher.SimilaritySearch(ctx, input, SemanticLookupK)
			if err != nil {
				return "", fmt.Errorf("semantic lookup failed: %w", err)
			}
			texts := make([]string, 0, len(passages))
			for _, p := range passages {
				texts = append(texts, p.Text)
			}
			return strings.Join(texts, PassageSeparator), nil
		},
	}
}

// NewFeedbackCapability stores a feedback string as a new insight row.
// Declared only when the deployment enables it.
func NewFeedbackCapability(store InsightStore) Capability {
	return Capability{
		Name:        CapabilityFeedback,
		Description: "Store feedback data for later sessions. Input: the feedback text.",
		Run: func(ctx context.Context, input string) (string, error) {
			if err := store.Insert(ctx, input); err != nil {
				return "", fmt.Errorf("failed to store feedback: %w", err)
			}
			return "Feedback stored.", nil
		},
	}
}
