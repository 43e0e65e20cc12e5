package screening

import (
	"context"
	"strings"

	"github.com/havenforum/haven/forum"
)

// KeywordClassifier scores content with fixed keyword lists. It is
// deterministic, which keeps screening behavior reproducible in tests.
type KeywordClassifier struct{}

var _ Classifier = (*KeywordClassifier)(nil)

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

var (
	negativeWords = []string{
		"sad", "alone", "lonely", "anxious", "anxiety", "depressed", "depression",
		"hopeless", "worthless", "scared", "afraid", "panic", "overwhelmed",
		"exhausted", "crying", "hurt", "pain", "grief",
	}

	positiveWords = []string{
		"better", "hope", "hopeful", "grateful", "thankful", "proud", "happy",
		"calm", "progress", "improving", "recovered", "support", "helped",
	}

	criticalPhrases = []string{
		"kill myself", "end my life", "suicide", "self harm", "self-harm",
		"hurt myself", "no reason to live",
	}

	highUrgencyWords = []string{
		"crisis", "emergency", "relapse", "can't go on", "breaking down",
	}

	topicTags = map[string]string{
		"anxiety":    "anxiety",
		"anxious":    "anxiety",
		"panic":      "anxiety",
		"depressed":  "depression",
		"depression": "depression",
		"grief":      "grief",
		"sleep":      "sleep",
		"insomnia":   "sleep",
		"work":       "work-stress",
		"family":     "family",
		"relapse":    "recovery",
		"recovery":   "recovery",
	}

	blockedWords = []string{
		"buy now", "free money", "casino", "viagra",
	}
)

func (c *KeywordClassifier) Classify(_ context.Context, content string) (Result, error) {
	lowered := strings.ToLower(content)
	words := strings.Fields(lowered)

	var score float64

	for _, word := range words {
		word = strings.Trim(word, ".,!?;:\"'()")

		for _, negative := range negativeWords {
			if word == negative {
				score -= 0.15
			}
		}

		for _, positive := range positiveWords {
			if word == positive {
				score += 0.15
			}
		}
	}

	score = clamp(score, -1, 1)

	result := Result{
		SentimentScore: score,
		UrgencyLevel:   urgencyFor(lowered, score),
		Tags:           suggestTags(words),
		Flagged:        containsAny(lowered, blockedWords),
	}

	return result, nil
}

func urgencyFor(lowered string, score float64) forum.UrgencyLevel {
	switch {
	case containsAny(lowered, criticalPhrases):
		return forum.UrgencyCritical
	case containsAny(lowered, highUrgencyWords):
		return forum.UrgencyHigh
	case score <= -0.5:
		return forum.UrgencyMedium
	default:
		return forum.UrgencyLow
	}
}

func suggestTags(words []string) []string {
	tags := make([]string, 0, 4)
	seen := make(map[string]struct{})

	for _, word := range words {
		word = strings.Trim(word, ".,!?;:\"'()")

		tag, ok := topicTags[word]
		if !ok {
			continue
		}

		if _, dup := seen[tag]; dup {
			continue
		}

		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	return tags
}

func containsAny(s string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}

	return false
}

func clamp(v, low, high float64) float64 {
	if v < low {
		return low
	}

	if v > high {
		return high
	}

	return v
}
