package votes

import (
	"context"
	"fmt"

	"github.com/havenforum/haven/notifications"
)

// Notifier emits best-effort notifications; it never returns an error.
type Notifier interface {
	Notify(ctx context.Context, req notifications.NotifyRequest)
}

type Service struct {
	ledger   Ledger
	notifier Notifier
}

func NewService(ledger Ledger, notifier Notifier) *Service {
	return &Service{
		ledger:   ledger,
		notifier: notifier,
	}
}

// Apply casts, retracts, or switches a vote. Only a brand-new upvote by
// someone other than the subject's author produces a notification.
func (svc *Service) Apply(ctx context.Context, kind SubjectKind, subjectID, userID string, voteType VoteType) (*ApplyResult, error) {
	if !kind.IsValid() {
		return nil, InvalidSubjectKindError{Kind: string(kind)}
	}

	if !voteType.IsValid() {
		return nil, InvalidVoteTypeError{VoteType: string(voteType)}
	}

	result, err := svc.ledger.Apply(ctx, kind, subjectID, userID, voteType)
	if err != nil {
		return nil, fmt.Errorf("failed to apply vote: %w", err)
	}

	if result.Outcome == OutcomeCreated && voteType == VoteUp {
		req := notifications.NotifyRequest{
			RecipientID: result.Subject.AuthorID,
			ActorID:     userID,
			Type:        notifications.TypeUpvote,
			Message:     "Someone upvoted your " + string(kind),
			Priority:    notifications.PriorityLow,
		}

		switch kind {
		case SubjectPost:
			req.PostID = &result.Subject.SubjectID
		case SubjectComment:
			req.CommentID = &result.Subject.SubjectID
		}

		svc.notifier.Notify(ctx, req)
	}

	return result, nil
}

// Get returns the caller's current vote on a subject, nil when none exists.
func (svc *Service) Get(ctx context.Context, kind SubjectKind, subjectID, userID string) (*Vote, error) {
	if !kind.IsValid() {
		return nil, InvalidSubjectKindError{Kind: string(kind)}
	}

	vote, err := svc.ledger.Get(ctx, kind, subjectID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}

	return vote, nil
}
