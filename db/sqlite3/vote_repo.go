package sqlite3

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/havenforum/haven/votes"
)

const tableVotes = "votes"

const (
	voteFieldSubjectKind = "subject_kind"
	voteFieldSubjectID   = "subject_id"
	voteFieldUserID      = "user_id"
	voteFieldVoteType    = "vote_type"
	voteFieldCreatedAt   = "created_at"
)

// VoteRepository is the transactional vote ledger. Each Apply runs as one
// SQLite transaction; counter mutations are expressed as in-database
// increments, never read-modify-write in application memory.
type VoteRepository struct {
	db *sql.DB
}

var _ votes.Ledger = (*VoteRepository)(nil)

func NewVoteRepository(db *sql.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

func subjectTable(kind votes.SubjectKind) (string, error) {
	switch kind {
	case votes.SubjectPost:
		return tablePosts, nil
	case votes.SubjectComment:
		return tableComments, nil
	default:
		return "", votes.InvalidSubjectKindError{Kind: string(kind)}
	}
}

func counterColumn(voteType votes.VoteType) string {
	if voteType == votes.VoteUp {
		return "upvotes"
	}

	return "downvotes"
}

func (repo *VoteRepository) Apply(
	ctx context.Context,
	kind votes.SubjectKind,
	subjectID string,
	userID string,
	voteType votes.VoteType,
) (*votes.ApplyResult, error) {
	table, err := subjectTable(kind)
	if err != nil {
		return nil, err
	}

	var result *votes.ApplyResult

	err = runInTx(ctx, repo.db, func(tx *sql.Tx) error {
		_, err := readSubjectCounts(ctx, tx, table, subjectID)
		if err != nil {
			return err
		}

		existing, err := readVoteType(ctx, tx, kind, subjectID, userID)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			result, err = repo.insertVote(ctx, tx, table, kind, subjectID, userID, voteType)
		case err != nil:
			return fmt.Errorf("failed to read existing vote: %w", err)
		case existing == voteType:
			result, err = repo.removeVote(ctx, tx, table, kind, subjectID, userID, voteType)
		default:
			result, err = repo.switchVote(ctx, tx, table, kind, subjectID, userID, existing, voteType)
		}

		if err != nil {
			return err
		}

		counts, err := readSubjectCounts(ctx, tx, table, subjectID)
		if err != nil {
			return err
		}

		result.Subject = *counts
		result.Subject.SubjectID = subjectID

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func readVoteType(ctx context.Context, tx *sql.Tx, kind votes.SubjectKind, subjectID, userID string) (votes.VoteType, error) {
	var voteType votes.VoteType

	err := sq.Select(voteFieldVoteType).
		From(tableVotes).
		Where(sq.Eq{
			voteFieldSubjectKind: kind,
			voteFieldSubjectID:   subjectID,
			voteFieldUserID:      userID,
		}).
		RunWith(tx).
		QueryRowContext(ctx).
		Scan(&voteType)

	return voteType, err
}

func readSubjectCounts(ctx context.Context, tx *sql.Tx, table, subjectID string) (*votes.SubjectCounts, error) {
	var counts votes.SubjectCounts

	err := sq.Select("author_id", "upvotes", "downvotes").
		From(table).
		Where(sq.Eq{"id": subjectID}).
		RunWith(tx).
		QueryRowContext(ctx).
		Scan(&counts.AuthorID, &counts.Upvotes, &counts.Downvotes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			kind := votes.SubjectPost
			if table == tableComments {
				kind = votes.SubjectComment
			}

			return nil, votes.SubjectNotFoundError{Kind: kind, ID: subjectID}
		}

		return nil, fmt.Errorf("failed to read subject counters: %w", err)
	}

	return &counts, nil
}

func (repo *VoteRepository) insertVote(
	ctx context.Context,
	tx *sql.Tx,
	table string,
	kind votes.SubjectKind,
	subjectID string,
	userID string,
	voteType votes.VoteType,
) (*votes.ApplyResult, error) {
	_, err := sq.Insert(tableVotes).
		Columns(voteFieldSubjectKind, voteFieldSubjectID, voteFieldUserID, voteFieldVoteType, voteFieldCreatedAt).
		Values(kind, subjectID, userID, voteType, time.Now()).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to insert vote: %w", err)
	}

	err = bumpCounter(ctx, tx, table, subjectID, counterColumn(voteType), +1)
	if err != nil {
		return nil, err
	}

	return &votes.ApplyResult{Outcome: votes.OutcomeCreated, UserVote: &voteType}, nil
}

func (repo *VoteRepository) removeVote(
	ctx context.Context,
	tx *sql.Tx,
	table string,
	kind votes.SubjectKind,
	subjectID string,
	userID string,
	voteType votes.VoteType,
) (*votes.ApplyResult, error) {
	_, err := sq.Delete(tableVotes).
		Where(sq.Eq{
			voteFieldSubjectKind: kind,
			voteFieldSubjectID:   subjectID,
			voteFieldUserID:      userID,
		}).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to delete vote: %w", err)
	}

	err = bumpCounter(ctx, tx, table, subjectID, counterColumn(voteType), -1)
	if err != nil {
		return nil, err
	}

	return &votes.ApplyResult{Outcome: votes.OutcomeRemoved, UserVote: nil}, nil
}

func (repo *VoteRepository) switchVote(
	ctx context.Context,
	tx *sql.Tx,
	table string,
	kind votes.SubjectKind,
	subjectID string,
	userID string,
	oldType votes.VoteType,
	newType votes.VoteType,
) (*votes.ApplyResult, error) {
	_, err := sq.Update(tableVotes).
		Set(voteFieldVoteType, newType).
		Where(sq.Eq{
			voteFieldSubjectKind: kind,
			voteFieldSubjectID:   subjectID,
			voteFieldUserID:      userID,
		}).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update vote type: %w", err)
	}

	// Both counters move in one statement so the pair can never diverge.
	newColumn := counterColumn(newType)
	oldColumn := counterColumn(oldType)

	_, err = sq.Update(table).
		Set(newColumn, sq.Expr(newColumn+" + 1")).
		Set(oldColumn, sq.Expr(oldColumn+" - 1")).
		Where(sq.Eq{"id": subjectID}).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to switch subject counters: %w", err)
	}

	return &votes.ApplyResult{Outcome: votes.OutcomeSwitched, UserVote: &newType}, nil
}

func bumpCounter(ctx context.Context, tx *sql.Tx, table, subjectID, column string, delta int) error {
	_, err := sq.Update(table).
		Set(column, sq.Expr(fmt.Sprintf("%s + (%d)", column, delta))).
		Where(sq.Eq{"id": subjectID}).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to adjust %s on %s: %w", column, table, err)
	}

	return nil
}

func (repo *VoteRepository) Get(
	ctx context.Context,
	kind votes.SubjectKind,
	subjectID string,
	userID string,
) (*votes.Vote, error) {
	var vote votes.Vote

	err := sq.Select(voteFieldSubjectKind, voteFieldSubjectID, voteFieldUserID, voteFieldVoteType, voteFieldCreatedAt).
		From(tableVotes).
		Where(sq.Eq{
			voteFieldSubjectKind: kind,
			voteFieldSubjectID:   subjectID,
			voteFieldUserID:      userID,
		}).
		RunWith(repo.db).
		QueryRowContext(ctx).
		Scan(&vote.SubjectKind, &vote.SubjectID, &vote.UserID, &vote.VoteType, &vote.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to find vote: %w", err)
	}

	return &vote, nil
}
