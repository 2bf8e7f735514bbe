package features

import (
	"strings"

	"github.com/mikey/voice-retrieval/internal/core"
)

// extractActionItems classifies sentences into requests, commitments and
// suggestions. A sentence matches at most one category; the first matching
// rule wins, in that order.
func extractActionItems(a *analysis) []core.ActionItem {
	items := []core.ActionItem{}
	for _, sentence := range a.sentences {
		lower := lowerCaser.String(sentence)
		switch {
		case containsAny(lower, requestMarkers):
			items = append(items, core.ActionItem{Type: core.ActionRequest, Text: sentence})
		case containsAny(lower, commitmentMarkers):
			items = append(items, core.ActionItem{Type: core.ActionCommitment, Text: sentence})
		case containsAny(lower, suggestionMarkers):
			items = append(items, core.ActionItem{Type: core.ActionSuggestion, Text: sentence})
		}
	}
	return items
}

// extractQuestions returns all interrogative sentences, trimmed, original
// casing preserved
func extractQuestions(a *analysis) []string {
	questions := []string{}
	for _, sentence := range a.sentences {
		if strings.HasSuffix(strings.TrimSpace(sentence), "?") {
			questions = append(questions, strings.TrimSpace(sentence))
		}
	}
	return questions
}

// classifyContext picks the message's communicative purpose. Questions win
// when they dominate the message; reply, update and scheduling markers
// follow in priority order.
func classifyContext(a *analysis, questions []string) core.ContextType {
	sentenceCount := len(a.sentences)
	if len(questions) > 0 && len(questions)*2 >= sentenceCount {
		return core.ContextQuestion
	}
	switch {
	case a.countAny(replyMarkers) > 0:
		return core.ContextAnswer
	case a.countAny(updateMarkers) > 0:
		return core.ContextUpdate
	case a.countAny(schedulingMarkers) > 0:
		return core.ContextScheduling
	default:
		return core.ContextOther
	}
}

func containsAny(lower string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
