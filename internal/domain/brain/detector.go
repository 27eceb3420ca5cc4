package brain

import (
	"strings"

	"helm-server/internal/domain/llm"
)

// triggerWords cause an immediate update when present in the latest message.
var triggerWords = []string{"remember", "important", "always", "prefer", "don't forget"}

// Detector decides whether a conversation warrants a brain refresh. It is a
// cheap deterministic heuristic, not a classifier.
type Detector struct {
	interval int
}

// NewDetector builds a detector firing every interval user messages.
func NewDetector(interval int) *Detector {
	if interval <= 0 {
		interval = 5
	}
	return &Detector{interval: interval}
}

// ShouldUpdate is a pure function of the history. It returns true when the
// most recent message, whichever role produced it, contains a trigger word,
// or when the user-message count is a positive multiple of the configured
// interval.
func (d *Detector) ShouldUpdate(history []llm.Message) bool {
	if len(history) == 0 {
		return false
	}

	latest := strings.ToLower(history[len(history)-1].Content)
	for _, word := range triggerWords {
		if strings.Contains(latest, word) {
			return true
		}
	}

	userCount := 0
	for _, msg := range history {
		if msg.Role == llm.RoleUser {
			userCount++
		}
	}
	return userCount > 0 && userCount%d.interval == 0
}
