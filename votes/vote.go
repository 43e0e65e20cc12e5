package votes

import (
	"context"
	"fmt"
	"time"
)

type SubjectKind string

const (
	SubjectPost    SubjectKind = "post"
	SubjectComment SubjectKind = "comment"
)

func (kind SubjectKind) IsValid() bool {
	switch kind {
	case SubjectPost, SubjectComment:
		return true
	default:
		return false
	}
}

type VoteType string

const (
	VoteUp   VoteType = "up"
	VoteDown VoteType = "down"
)

func (voteType VoteType) IsValid() bool {
	switch voteType {
	case VoteUp, VoteDown:
		return true
	default:
		return false
	}
}

type Vote struct {
	SubjectKind SubjectKind
	SubjectID   string
	UserID      string
	VoteType    VoteType
	CreatedAt   time.Time
}

// Outcome says what the ledger did with a vote.
type Outcome string

const (
	// OutcomeCreated means a new vote row was inserted.
	OutcomeCreated Outcome = "created"
	// OutcomeRemoved means an existing same-type vote was toggled off.
	OutcomeRemoved Outcome = "removed"
	// OutcomeSwitched means an existing vote changed type in place.
	OutcomeSwitched Outcome = "switched"
)

// SubjectCounts is the subject's state re-read inside the ledger transaction.
type SubjectCounts struct {
	SubjectID string
	AuthorID  string
	Upvotes   int
	Downvotes int
}

type ApplyResult struct {
	Outcome Outcome
	Subject SubjectCounts
	// UserVote is the caller's vote after the operation, nil on toggle-off.
	UserVote *VoteType
}

// Ledger runs the three-way vote branch as a single storage transaction:
// insert+increment, delete+decrement, or switch with both counters adjusted
// atomically. Any error rolls the whole transaction back.
type Ledger interface {
	Apply(ctx context.Context, kind SubjectKind, subjectID, userID string, voteType VoteType) (result *ApplyResult, err error)
	// Get returns the caller's current vote on a subject, or nil.
	Get(ctx context.Context, kind SubjectKind, subjectID, userID string) (vote *Vote, err error)
}

type InvalidVoteTypeError struct {
	VoteType string
}

func (err InvalidVoteTypeError) Error() string {
	return fmt.Sprintf("invalid vote type: %q", err.VoteType)
}

type InvalidSubjectKindError struct {
	Kind string
}

func (err InvalidSubjectKindError) Error() string {
	return fmt.Sprintf("invalid vote subject kind: %q", err.Kind)
}

type SubjectNotFoundError struct {
	Kind SubjectKind
	ID   string
}

func (err SubjectNotFoundError) Error() string {
	return fmt.Sprintf("%s with id %q not found", err.Kind, err.ID)
}
