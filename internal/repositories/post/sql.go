package post

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/orgball2608/crosspost/internal/domain"
	"github.com/orgball2608/crosspost/internal/repositories"
	"github.com/orgball2608/crosspost/internal/storage"
	apperrors "github.com/orgball2608/crosspost/pkg/errors"
	"github.com/orgball2608/crosspost/pkg/logger"

	sq "github.com/Masterminds/squirrel"
)

const (
	postsTable   = "posts"
	targetsTable = "delivery_targets"
)

var postColumns = []string{
	"id", "user_id", "body", "media", "status", "scheduled_for", "due_at",
	"claimed_at", "claimed_by", "claim_token", "created_at", "updated_at",
}

var targetColumns = []string{
	"post_id", "account_id", "platform", "status", "attempts", "last_error", "last_error_kind",
	"last_attempt_at", "sent_at", "next_attempt_at", "external_id", "created_at", "updated_at",
}

// Targets that have not reached a terminal state yet.
var openTargetStatuses = []string{
	string(domain.TargetStatusPending),
	string(domain.TargetStatusAttempting),
	string(domain.TargetStatusRetrying),
}

type SQLRepository struct {
	db     *storage.DB
	logger logger.Logger
}

func NewSQLRepository(db *storage.DB, logger logger.Logger) *SQLRepository {
	return &SQLRepository{
		db:     db,
		logger: logger.WithComponent("PostRepo"),
	}
}

var _ Repository = (*SQLRepository)(nil)

func (r *SQLRepository) CreatePost(ctx context.Context, post domain.Post, targets []domain.DeliveryTarget) error {
	media, err := json.Marshal(post.Content.Media)
	if err != nil {
		return fmt.Errorf("failed to encode media: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query, args, err := r.db.Builder().
		Insert(postsTable).
		Columns(postColumns...).
		Values(
			post.ID, post.UserID, post.Content.Text, string(media), string(post.Status),
			repositories.NullMillis(post.ScheduledFor), repositories.NullMillis(post.DueAt),
			sql.NullInt64{}, "", "",
			repositories.Millis(post.CreatedAt), repositories.Millis(post.UpdatedAt),
		).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if storage.IsUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert post: %w", err)
	}

	for _, t := range targets {
		query, args, err := r.db.Builder().
			Insert(targetsTable).
			Columns(targetColumns...).
			Values(
				post.ID, t.AccountID, t.Platform, string(domain.TargetStatusPending), 0, "", "",
				sql.NullInt64{}, sql.NullInt64{}, sql.NullInt64{}, "",
				repositories.Millis(post.CreatedAt), repositories.Millis(post.CreatedAt),
			).
			Suffix("ON CONFLICT (post_id, account_id) DO NOTHING").
			ToSql()
		if err != nil {
			return repositories.ErrBadQuery
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert delivery target %s: %w", t.AccountID, err)
		}
	}

	return tx.Commit()
}

func (r *SQLRepository) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	query, args, err := r.db.Builder().
		Select(postColumns...).
		From(postsTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	p, err := scanPost(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post %s: %w", id, err)
	}
	return p, nil
}

func (r *SQLRepository) ListTargets(ctx context.Context, postID string) ([]domain.DeliveryTarget, error) {
	byPost, err := r.ListTargetsForPosts(ctx, []string{postID})
	if err != nil {
		return nil, err
	}
	return byPost[postID], nil
}

func (r *SQLRepository) ListTargetsForPosts(ctx context.Context, postIDs []string) (map[string][]domain.DeliveryTarget, error) {
	out := make(map[string][]domain.DeliveryTarget, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}

	query, args, err := r.db.Builder().
		Select(targetColumns...).
		From(targetsTable).
		Where(sq.Eq{"post_id": postIDs}).
		OrderBy("post_id", "created_at", "account_id").
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query delivery targets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		t, err := scanTarget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan delivery target: %w", err)
		}
		out[t.PostID] = append(out[t.PostID], *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// dueCondition matches posts the scheduler may claim at now.
func dueCondition(now, stuckBefore time.Time) sq.Sqlizer {
	return sq.Or{
		sq.And{
			sq.Eq{"status": statusStrings(domain.ClaimableStatuses)},
			sq.LtOrEq{"due_at": repositories.Millis(now)},
		},
		sq.And{
			sq.Eq{"status": string(domain.PostStatusDispatching)},
			sq.LtOrEq{"claimed_at": repositories.Millis(stuckBefore)},
		},
	}
}

func (r *SQLRepository) GetDuePosts(ctx context.Context, now, stuckBefore time.Time, limit int) ([]string, error) {
	builder := r.db.Builder().
		Select("id").
		From(postsTable).
		Where(dueCondition(now, stuckBefore)).
		OrderBy("due_at", "created_at")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query due posts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *SQLRepository) ClaimPost(ctx context.Context, id string, now, stuckBefore time.Time, owner string) (string, error) {
	token := uuid.NewString()

	query, args, err := r.db.Builder().
		Update(postsTable).
		Set("status", string(domain.PostStatusDispatching)).
		Set("claimed_at", repositories.Millis(now)).
		Set("claimed_by", owner).
		Set("claim_token", token).
		Set("updated_at", repositories.Millis(now)).
		Where(sq.Eq{"id": id}).
		Where(dueCondition(now, stuckBefore)).
		ToSql()
	if err != nil {
		return "", repositories.ErrBadQuery
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return "", fmt.Errorf("failed to claim post %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", err
	}
	if n == 1 {
		return token, nil
	}

	if _, err := r.GetPost(ctx, id); err != nil {
		return "", err
	}
	return "", ErrNotClaimed
}

func (r *SQLRepository) MarkAttempting(ctx context.Context, postID, accountID string, now time.Time) (*domain.DeliveryTarget, error) {
	query, args, err := r.db.Builder().
		Update(targetsTable).
		Set("status", string(domain.TargetStatusAttempting)).
		Set("attempts", sq.Expr("attempts + 1")).
		Set("last_attempt_at", repositories.Millis(now)).
		Set("updated_at", repositories.Millis(now)).
		Where(sq.Eq{"post_id": postID, "account_id": accountID, "status": openTargetStatuses}).
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to mark target attempting: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}

	t, err := r.getTarget(ctx, postID, accountID)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apperrors.InvalidState("target %s/%s is %s and cannot be attempted", postID, accountID, t.Status)
	}
	return t, nil
}

func (r *SQLRepository) RecordTargetOutcome(ctx context.Context, postID, accountID string, outcome domain.TargetOutcome) error {
	at := repositories.Millis(outcome.At)

	update := r.db.Builder().
		Update(targetsTable).
		Set("updated_at", at).
		Where(sq.Eq{"post_id": postID, "account_id": accountID, "status": openTargetStatuses})

	switch outcome.Kind {
	case domain.OutcomeSent:
		update = update.
			Set("status", string(domain.TargetStatusSent)).
			Set("sent_at", at).
			Set("external_id", outcome.ExternalID).
			Set("last_error", "").
			Set("last_error_kind", "").
			Set("next_attempt_at", sql.NullInt64{})
	case domain.OutcomeRetrying:
		if outcome.NextAttemptAt == nil {
			return apperrors.InvalidState("retrying outcome for %s/%s has no next attempt time", postID, accountID)
		}
		update = update.
			Set("status", string(domain.TargetStatusRetrying)).
			Set("last_error", outcome.Error).
			Set("last_error_kind", string(outcome.ErrorKind)).
			Set("next_attempt_at", repositories.Millis(*outcome.NextAttemptAt))
	case domain.OutcomeFailed:
		update = update.
			Set("status", string(domain.TargetStatusFailed)).
			Set("last_error", outcome.Error).
			Set("last_error_kind", string(outcome.ErrorKind)).
			Set("next_attempt_at", sql.NullInt64{})
	default:
		return fmt.Errorf("unknown outcome kind %q", outcome.Kind)
	}

	query, args, err := update.ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to record outcome for %s/%s: %w", postID, accountID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	// Nothing changed: the target is terminal (or missing). Decide between an
	// idempotent replay and a rejected write.
	current, err := r.getTarget(ctx, postID, accountID)
	if err != nil {
		return err
	}
	switch {
	case outcome.Kind == domain.OutcomeSent && current.Status == domain.TargetStatusSent:
		return nil
	case outcome.Kind == domain.OutcomeFailed && current.Status == domain.TargetStatusFailed &&
		current.LastError == outcome.Error && current.LastErrorKind == outcome.ErrorKind:
		return nil
	default:
		return apperrors.InvalidState("cannot record %s for target %s/%s in status %s",
			outcome.Kind, postID, accountID, current.Status)
	}
}

func (r *SQLRepository) FinishDispatch(ctx context.Context, postID, claimToken string, now time.Time) (domain.PostStatus, error) {
	targets, err := r.ListTargets(ctx, postID)
	if err != nil {
		return "", err
	}

	status, terminal := domain.TerminalStatus(targets)
	due := sql.NullInt64{}
	if !terminal {
		status = domain.PostStatusRetrying
		due = sql.NullInt64{Int64: repositories.Millis(domain.EarliestRetry(targets, now)), Valid: true}
	}

	query, args, err := r.db.Builder().
		Update(postsTable).
		Set("status", string(status)).
		Set("due_at", due).
		Set("claimed_at", sql.NullInt64{}).
		Set("claim_token", "").
		Set("updated_at", repositories.Millis(now)).
		Where(sq.Eq{
			"id":          postID,
			"status":      string(domain.PostStatusDispatching),
			"claim_token": claimToken,
		}).
		ToSql()
	if err != nil {
		return "", repositories.ErrBadQuery
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return "", fmt.Errorf("failed to finish dispatch of %s: %w", postID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", apperrors.InvalidState("claim on post %s lost before dispatch finished", postID)
	}
	return status, nil
}

func (r *SQLRepository) ReleaseClaim(ctx context.Context, postID, claimToken string, now time.Time) error {
	query, args, err := r.db.Builder().
		Update(postsTable).
		Set("status", string(domain.PostStatusRetrying)).
		Set("due_at", repositories.Millis(now)).
		Set("claimed_at", sql.NullInt64{}).
		Set("claim_token", "").
		Set("updated_at", repositories.Millis(now)).
		Where(sq.Eq{
			"id":          postID,
			"status":      string(domain.PostStatusDispatching),
			"claim_token": claimToken,
		}).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to release claim on %s: %w", postID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.InvalidState("claim on post %s already lost", postID)
	}
	return nil
}

func (r *SQLRepository) CancelPost(ctx context.Context, id string, now time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query, args, err := r.db.Builder().
		Update(postsTable).
		Set("status", string(domain.PostStatusCancelled)).
		Set("due_at", sql.NullInt64{}).
		Set("updated_at", repositories.Millis(now)).
		Where(sq.Eq{"id": id, "status": []string{
			string(domain.PostStatusDraft),
			string(domain.PostStatusScheduled),
			string(domain.PostStatusQueued),
		}}).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to cancel post %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		_ = tx.Rollback()
		p, err := r.GetPost(ctx, id)
		if err != nil {
			return err
		}
		return apperrors.InvalidState("post %s is %s and can no longer be cancelled", id, p.Status)
	}

	query, args, err = r.db.Builder().
		Update(targetsTable).
		Set("status", string(domain.TargetStatusCancelled)).
		Set("updated_at", repositories.Millis(now)).
		Where(sq.Eq{"post_id": id, "status": string(domain.TargetStatusPending)}).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to cancel targets of %s: %w", id, err)
	}

	return tx.Commit()
}

func (r *SQLRepository) ReschedulePost(ctx context.Context, id string, at, now time.Time) error {
	query, args, err := r.db.Builder().
		Update(postsTable).
		Set("status", string(domain.PostStatusScheduled)).
		Set("scheduled_for", repositories.Millis(at)).
		Set("due_at", repositories.Millis(at)).
		Set("updated_at", repositories.Millis(now)).
		Where(sq.Eq{"id": id, "status": []string{
			string(domain.PostStatusDraft),
			string(domain.PostStatusScheduled),
		}}).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to reschedule post %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		p, err := r.GetPost(ctx, id)
		if err != nil {
			return err
		}
		return apperrors.InvalidState("post %s is %s and can no longer be rescheduled", id, p.Status)
	}
	return nil
}

func (r *SQLRepository) ListByStatus(ctx context.Context, userID string, statuses []domain.PostStatus, limit, offset int) ([]domain.Post, error) {
	builder := r.db.Builder().
		Select(postColumns...).
		From(postsTable).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id")
	if len(statuses) > 0 {
		builder = builder.Where(sq.Eq{"status": statusStrings(statuses)})
	}
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	if offset > 0 {
		builder = builder.Offset(uint64(offset))
	}
	return r.queryPosts(ctx, builder)
}

func (r *SQLRepository) ListUpcoming(ctx context.Context, userID string, limit int) ([]domain.Post, error) {
	builder := r.db.Builder().
		Select(postColumns...).
		From(postsTable).
		Where(sq.Eq{"user_id": userID, "status": string(domain.PostStatusScheduled)}).
		OrderBy("scheduled_for ASC", "id")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	return r.queryPosts(ctx, builder)
}

func (r *SQLRepository) PurgeCancelled(ctx context.Context, olderThan time.Time) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	// Rendered with '?' so the outer statement numbers the placeholders.
	stale := sq.Select("id").
		From(postsTable).
		Where(sq.Eq{"status": string(domain.PostStatusCancelled)}).
		Where(sq.Lt{"updated_at": repositories.Millis(olderThan)})

	staleSQL, staleArgs, err := stale.ToSql()
	if err != nil {
		return 0, repositories.ErrBadQuery
	}

	query, args, err := r.db.Builder().
		Delete(targetsTable).
		Where(sq.Expr("post_id IN ("+staleSQL+")", staleArgs...)).
		ToSql()
	if err != nil {
		return 0, repositories.ErrBadQuery
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return 0, fmt.Errorf("failed to purge cancelled targets: %w", err)
	}

	query, args, err = r.db.Builder().
		Delete(postsTable).
		Where(sq.Eq{"status": string(domain.PostStatusCancelled)}).
		Where(sq.Lt{"updated_at": repositories.Millis(olderThan)}).
		ToSql()
	if err != nil {
		return 0, repositories.ErrBadQuery
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to purge cancelled posts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, tx.Commit()
}

func (r *SQLRepository) getTarget(ctx context.Context, postID, accountID string) (*domain.DeliveryTarget, error) {
	query, args, err := r.db.Builder().
		Select(targetColumns...).
		From(targetsTable).
		Where(sq.Eq{"post_id": postID, "account_id": accountID}).
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	t, err := scanTarget(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.WrapWithCode(apperrors.ErrNotFound, apperrors.CodeNotFound,
				fmt.Sprintf("delivery target %s/%s not found", postID, accountID))
		}
		return nil, fmt.Errorf("failed to get delivery target: %w", err)
	}
	return t, nil
}

func (r *SQLRepository) queryPosts(ctx context.Context, builder sq.SelectBuilder) ([]domain.Post, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

func scanPost(row repositories.Scanner) (*domain.Post, error) {
	var (
		p                              domain.Post
		media, status                  string
		scheduledFor, dueAt, claimedAt sql.NullInt64
		createdAt, updatedAt           int64
	)
	err := row.Scan(
		&p.ID, &p.UserID, &p.Content.Text, &media, &status, &scheduledFor, &dueAt,
		&claimedAt, &p.ClaimedBy, &p.ClaimToken, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if media != "" && media != "null" {
		if err := json.Unmarshal([]byte(media), &p.Content.Media); err != nil {
			return nil, fmt.Errorf("failed to decode media of post %s: %w", p.ID, err)
		}
	}
	p.Status = domain.PostStatus(status)
	p.ScheduledFor = repositories.FromNullMillis(scheduledFor)
	p.DueAt = repositories.FromNullMillis(dueAt)
	p.ClaimedAt = repositories.FromNullMillis(claimedAt)
	p.CreatedAt = repositories.FromMillis(createdAt)
	p.UpdatedAt = repositories.FromMillis(updatedAt)
	return &p, nil
}

func scanTarget(row repositories.Scanner) (*domain.DeliveryTarget, error) {
	var (
		t                                  domain.DeliveryTarget
		status, errorKind                  string
		lastAttemptAt, sentAt, nextAttempt sql.NullInt64
		createdAt, updatedAt               int64
	)
	err := row.Scan(
		&t.PostID, &t.AccountID, &t.Platform, &status, &t.Attempts, &t.LastError, &errorKind,
		&lastAttemptAt, &sentAt, &nextAttempt, &t.ExternalID, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Status = domain.TargetStatus(status)
	t.LastErrorKind = domain.ErrorKind(errorKind)
	t.LastAttemptAt = repositories.FromNullMillis(lastAttemptAt)
	t.SentAt = repositories.FromNullMillis(sentAt)
	t.NextAttemptAt = repositories.FromNullMillis(nextAttempt)
	t.CreatedAt = repositories.FromMillis(createdAt)
	t.UpdatedAt = repositories.FromMillis(updatedAt)
	return &t, nil
}

func statusStrings(statuses []domain.PostStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
