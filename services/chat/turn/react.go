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
	"fmt"
	"regexp"
	"strings"
)

// =============================================================================
// Decision Variant
// =============================================================================

// Decision is the tagged variant produced by one reasoning step: either an
// Invoke of a declared capability or a FinalAnswer. Exactly one of the two
// implementations exists per parsed step.
type Decision interface {
	isDecision()
}

// Invoke requests invocation of a named capability with a free-text input.
// Input is empty for capabilities that take none.
type Invoke struct {
	Name  string
	Input string
}

func (Invoke) isDecision() {}

// FinalAnswer carries the model's final natural-language answer.
type FinalAnswer struct {
	Text string
}

func (FinalAnswer) isDecision() {}

// ToolInvocation is the transient record of one executed loop step. It is
// used for loop state and logging only and is discarded after the turn.
type ToolInvocation struct {
	Capability string
	Input      string
	Output     string
}

// =============================================================================
// ReAct Parsing
// =============================================================================

// ReAct pattern regexes with flexible matching.
// Uses case-insensitive matching and allows variable whitespace.
var (
	// actionPattern matches "Action: capability_name".
	actionPattern = regexp.MustCompile(`(?i)Action\s*:\s*(\S+)`)

	// actionInputPattern matches "Action Input: ..." to end of line. The
	// declared capabilities take plain-text input, not JSON.
	actionInputPattern = regexp.MustCompile(`(?i)Action\s+Input\s*:\s*(.+)`)

	// finalAnswerPattern matches "Final Answer: ..." to end of string.
	finalAnswerPattern = regexp.MustCompile(`(?is)Final\s+Answer\s*:\s*(.+)$`)
)

// ParseDecision extracts a Decision from one reasoning-step output.
//
// # Description
//
// The model is instructed to emit either
//
//	Thought: [reasoning]
//	Action: [capability_name]
//	Action Input: [input]
//
// or
//
//	Thought: [reasoning]
//	Final Answer: [answer]
//
// A final answer wins over an action when both appear, so a model that
// narrates a past action while concluding still terminates the loop.
//
// # Inputs
//
//   - text: The raw model output for one step.
//
// # Outputs
//
//   - Decision: Invoke or FinalAnswer.
//   - error: Non-nil when the text contains neither form. The caller
//     decides the retry policy.
//
// # Examples
//
//	d, err := ParseDecision("Thought: need sources.\nAction: semantic_lookup\nAction Input: photosynthesis")
//	// d = Invoke{Name: "semantic_lookup", Input: "photosynthesis"}
//
// Thread Safety: This function is safe for concurrent use.
func ParseDecision(text string) (Decision, error) {
	if matches := finalAnswerPattern.FindStringSubmatch(text); len(matches) > 1 {
		return FinalAnswer{Text: strings.TrimSpace(matches[1])}, nil
	}

	if matches := actionPattern.FindStringSubmatch(text); len(matches) > 1 {
		name := strings.TrimSpace(matches[1])
		input := ""
		if inputMatches := actionInputPattern.FindStringSubmatch(text); len(inputMatches) > 1 {
			input = strings.TrimSpace(inputMatches[1])
			// Models occasionally echo "None" for no-input capabilities.
			if strings.EqualFold(input, "none") {
				input = ""
			}
		}
		return Invoke{Name: name, Input: input}, nil
	}

	return nil, fmt.Errorf("output contains neither an Action nor a Final Answer")
}

// =============================================================================
// Prompt Construction
// =============================================================================

// CapabilityInstructions returns the prompt section that teaches the model
// the step format and lists the declared capabilities.
//
// # Inputs
//
//   - capabilities: The registry's declared capabilities, in order.
//
// Thread Safety: This function is safe for concurrent use.
func CapabilityInstructions(capabilities []Capability) string {
	var b strings.Builder
	b.WriteString("## TOOL USAGE FORMAT\n\n")
	b.WriteString("You may look up information with these tools:\n\n")
	for _, c := range capabilities {
		fmt.Fprintf(&b, "- %s: %s\n", c.Name, c.Description)
	}
	b.WriteString(`
To use a tool, output EXACTLY this format:

Thought: [Your reasoning about what information you need]
Action: [tool_name]
Action Input: [input text, or None]

Then STOP and wait for the Observation (tool result).

After receiving the Observation, you may use another tool or answer.
When you have enough information, output:

Thought: I now have enough information to answer the question.
Final Answer: [Your complete answer]
`)
	return b.String()
}

// FormatObservation formats a capability result as a ReAct observation fed
// back into the reasoning context before the next step. Failed invocations
// surface as error observations so the model can recover or rephrase.
func FormatObservation(capabilityName string, success bool, output string) string {
	if !success {
		return "Observation: Error executing " + capabilityName + " - " + output
	}
	if output == "" {
		output = "(no results)"
	}
	return "Observation: " + output
}

// parseRetryReminder is appended to the context after one unparseable step
// so the retry is deterministic rather than a blind resend.
const parseRetryReminder = "Your previous reply did not follow the required format. " +
	"Reply with either an Action and Action Input, or a Final Answer, exactly as instructed."
