// Package screening classifies post content for sentiment, urgency, and
// moderation. The classifier is pluggable; the bundled implementation is a
// deterministic keyword heuristic standing in for an external model.
package screening

import (
	"context"

	"github.com/havenforum/haven/forum"
)

type Result struct {
	SentimentScore float64
	UrgencyLevel   forum.UrgencyLevel
	Tags           []string
	Flagged        bool
}

type Classifier interface {
	Classify(ctx context.Context, content string) (Result, error)
}
