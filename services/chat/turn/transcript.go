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
	"strings"

	"github.com/AleutianAI/AleutianChat/services/chat/datatypes"
)

// RenderTranscript renders prior turns into the prompt transcript.
//
// # Description
//
// Each turn renders as "<Role>: <content>", joined by newlines. The "user"
// role renders as "User"; any other role renders as "Assistant". Turns are
// expected oldest-first. An empty history renders as the empty string.
//
// # Examples
//
//	RenderTranscript([]datatypes.Turn{
//	    {Role: "user", Content: "Hi"},
//	    {Role: "assistant", Content: "Hello"},
//	})
//	// "User: Hi\nAssistant: Hello"
func RenderTranscript(turns []datatypes.Turn) string {
	if len(turns) == 0 {
		return ""
	}
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		label := "Assistant"
		if t.Role == datatypes.RoleUser {
			label = "User"
		}
		lines = append(lines, label+": "+t.Content)
	}
	return strings.Join(lines, "\n")
}
