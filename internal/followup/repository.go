package followup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var errRepositoryNotConfigured = errors.New("followup repository not configured")

// Repository is the persistence boundary for FollowUp rows (part of the
// C4 Persistence Layer's ClaimDueFollowUps contract).
type Repository interface {
	// Create inserts a new PENDING follow-up. Its caller is the
	// FollowUpAgent, which schedules reengagement rows.
	Create(ctx context.Context, f FollowUp) (FollowUp, error)

	// ClaimAndProcess atomically claims up to batch PENDING rows whose
	// due-at <= now (FOR UPDATE SKIP LOCKED), hands them to fn for
	// sending, and commits fn's status updates in the same transaction
	// that held the row locks — two workers can never claim or send the
	// same row.
	ClaimAndProcess(ctx context.Context, now time.Time, batch int, fn func(ctx context.Context, claim *Claim, items []FollowUp) error) error

	// CancelPendingForLead cancels every PENDING row for a lead, used when
	// a lead reaches a terminal stage or the operator runs
	// cancel-followups.
	CancelPendingForLead(ctx context.Context, leadID string) (int, error)
}

// Claim exposes the per-row status mutations available while a batch of
// rows is held locked inside ClaimAndProcess.
type Claim struct {
	tx pgx.Tx
}

func (c *Claim) MarkSent(ctx context.Context, id string) error {
	_, err := c.tx.Exec(ctx, `UPDATE follow_ups SET status = 'SENT', updated_at = now() WHERE id = $1`, id)
	return err
}

func (c *Claim) MarkFailed(ctx context.Context, id string, errMsg string) error {
	_, err := c.tx.Exec(ctx,
		`UPDATE follow_ups
		 SET status = CASE WHEN attempt_count + 1 >= $2 THEN 'CANCELED' ELSE 'PENDING' END,
		     attempt_count = attempt_count + 1,
		     last_error = $3,
		     updated_at = now()
		 WHERE id = $1`,
		id, maxAttempts, errMsg,
	)
	return err
}

func (c *Claim) Cancel(ctx context.Context, id string) error {
	_, err := c.tx.Exec(ctx, `UPDATE follow_ups SET status = 'CANCELED', updated_at = now() WHERE id = $1`, id)
	return err
}

func (c *Claim) Reschedule(ctx context.Context, id string, dueAt time.Time) error {
	_, err := c.tx.Exec(ctx, `UPDATE follow_ups SET due_at = $2, updated_at = now() WHERE id = $1`, id, dueAt)
	return err
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) Create(ctx context.Context, f FollowUp) (FollowUp, error) {
	if r == nil || r.pool == nil {
		return FollowUp{}, errRepositoryNotConfigured
	}
	if f.Status == "" {
		f.Status = StatusPending
	}

	err := r.pool.QueryRow(ctx,
		`INSERT INTO follow_ups (lead_id, kind, due_at, status, template_key)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		f.LeadID, string(f.Kind), f.DueAt, string(f.Status), f.TemplateKey,
	).Scan(&f.ID)
	if err != nil {
		return FollowUp{}, fmt.Errorf("insert follow_up: %w", err)
	}
	return f, nil
}

func (r *pgRepository) ClaimAndProcess(ctx context.Context, now time.Time, batch int, fn func(ctx context.Context, claim *Claim, items []FollowUp) error) error {
	if r == nil || r.pool == nil {
		return errRepositoryNotConfigured
	}
	if batch < 1 {
		batch = 10
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin claim tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx,
		`SELECT id, lead_id, kind, due_at, status, template_key, attempt_count, COALESCE(last_error, '')
		 FROM follow_ups
		 WHERE status = 'PENDING' AND due_at <= $1
		 ORDER BY due_at ASC
		 LIMIT $2
		 FOR UPDATE SKIP LOCKED`,
		now, batch,
	)
	if err != nil {
		return fmt.Errorf("claim due follow-ups: %w", err)
	}

	var items []FollowUp
	for rows.Next() {
		var f FollowUp
		var kind, status string
		if err := rows.Scan(&f.ID, &f.LeadID, &kind, &f.DueAt, &status, &f.TemplateKey, &f.AttemptCount, &f.LastError); err != nil {
			rows.Close()
			return fmt.Errorf("scan follow_up: %w", err)
		}
		f.Kind = Kind(kind)
		f.Status = Status(status)
		items = append(items, f)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	if len(items) == 0 {
		return nil
	}

	if err := fn(ctx, &Claim{tx: tx}, items); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *pgRepository) CancelPendingForLead(ctx context.Context, leadID string) (int, error) {
	if r == nil || r.pool == nil {
		return 0, errRepositoryNotConfigured
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE follow_ups SET status = 'CANCELED', updated_at = now() WHERE lead_id = $1 AND status = 'PENDING'`,
		leadID,
	)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
