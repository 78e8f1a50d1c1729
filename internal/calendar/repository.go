package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var errRepositoryNotConfigured = errors.New("calendar repository not configured")

// Repository is the persistence boundary for CalendarEvent rows.
type Repository interface {
	Create(ctx context.Context, e Event) (Event, error)
	GetNonTerminalByLeadID(ctx context.Context, leadID string) (Event, error)
	CancelNonTerminalForLead(ctx context.Context, leadID string) error

	// ListUpcoming returns every non-canceled event starting after now,
	// for the sync loop to reconcile against the provider.
	ListUpcoming(ctx context.Context, now time.Time) ([]Event, error)
	ApplyRemote(ctx context.Context, id string, remote RemoteEvent) error

	// ClaimReminderCandidates holds, inside one transaction, every
	// upcoming CONFIRMED event that still has an unsent reminder flag,
	// calls fn to pick the crossed thresholds, send and flag each one,
	// and commits. Mirrors the follow-up executor's claim-then-process
	// pattern so a flag is only ever set once a send succeeds; a
	// threshold whose send fails 3 times keeps its flag unset and is
	// not retried again.
	ClaimReminderCandidates(ctx context.Context, now time.Time, fn func(ctx context.Context, claim *ReminderClaim, events []Event) error) error
}

// ReminderClaim exposes the per-event, per-threshold flag mutations
// available while a reminder batch is held locked.
type ReminderClaim struct {
	tx pgx.Tx
}

func (c *ReminderClaim) MarkSent(ctx context.Context, eventID, kind string) error {
	col := reminderSentColumn(kind)
	_, err := c.tx.Exec(ctx, fmt.Sprintf(`UPDATE calendar_events SET %s = true, updated_at = now() WHERE id = $1`, col), eventID)
	return err
}

func (c *ReminderClaim) MarkAttempt(ctx context.Context, eventID, kind string) error {
	col := reminderAttemptsColumn(kind)
	_, err := c.tx.Exec(ctx, fmt.Sprintf(`UPDATE calendar_events SET %s = %s + 1, updated_at = now() WHERE id = $1`, col, col), eventID)
	return err
}

func reminderSentColumn(kind string) string {
	switch kind {
	case "24h":
		return "reminder_24h_sent"
	case "2h":
		return "reminder_2h_sent"
	default:
		return "reminder_30m_sent"
	}
}

func reminderAttemptsColumn(kind string) string {
	switch kind {
	case "24h":
		return "reminder_24h_attempts"
	case "2h":
		return "reminder_2h_attempts"
	default:
		return "reminder_30m_attempts"
	}
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) Create(ctx context.Context, e Event) (Event, error) {
	if r == nil || r.pool == nil {
		return Event{}, errRepositoryNotConfigured
	}
	if e.Status == "" {
		e.Status = StatusConfirmed
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO calendar_events (lead_id, external_event_id, start_at, end_at, attendee_emails, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		e.LeadID, e.ExternalEventID, e.StartAt, e.EndAt, e.AttendeeEmails, string(e.Status),
	).Scan(&e.ID)
	if err != nil {
		return Event{}, fmt.Errorf("insert calendar_event: %w", err)
	}
	return e, nil
}

func (r *pgRepository) GetNonTerminalByLeadID(ctx context.Context, leadID string) (Event, error) {
	if r == nil || r.pool == nil {
		return Event{}, errRepositoryNotConfigured
	}
	row := r.pool.QueryRow(ctx,
		`SELECT id, lead_id, external_event_id, start_at, end_at, attendee_emails,
		        reminder_24h_sent, reminder_2h_sent, reminder_30m_sent,
		        reminder_24h_attempts, reminder_2h_attempts, reminder_30m_attempts, status
		 FROM calendar_events
		 WHERE lead_id = $1 AND status != 'CANCELED'
		 ORDER BY start_at DESC
		 LIMIT 1`,
		leadID,
	)
	return scanEvent(row)
}

func (r *pgRepository) CancelNonTerminalForLead(ctx context.Context, leadID string) error {
	if r == nil || r.pool == nil {
		return errRepositoryNotConfigured
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE calendar_events SET status = 'CANCELED', updated_at = now() WHERE lead_id = $1 AND status != 'CANCELED'`,
		leadID,
	)
	return err
}

func (r *pgRepository) ListUpcoming(ctx context.Context, now time.Time) ([]Event, error) {
	if r == nil || r.pool == nil {
		return nil, errRepositoryNotConfigured
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, lead_id, external_event_id, start_at, end_at, attendee_emails,
		        reminder_24h_sent, reminder_2h_sent, reminder_30m_sent,
		        reminder_24h_attempts, reminder_2h_attempts, reminder_30m_attempts, status
		 FROM calendar_events
		 WHERE status != 'CANCELED' AND start_at > $1
		 ORDER BY start_at ASC`,
		now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		e, err := scanEventRows(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *pgRepository) ApplyRemote(ctx context.Context, id string, remote RemoteEvent) error {
	if r == nil || r.pool == nil {
		return errRepositoryNotConfigured
	}
	status := string(StatusConfirmed)
	if remote.Canceled {
		status = string(StatusCanceled)
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE calendar_events
		 SET start_at = $2, end_at = $3, attendee_emails = $4, status = $5, updated_at = now()
		 WHERE id = $1`,
		id, remote.StartAt, remote.EndAt, remote.AttendeeEmails, status,
	)
	return err
}

func (r *pgRepository) ClaimReminderCandidates(ctx context.Context, now time.Time, fn func(ctx context.Context, claim *ReminderClaim, events []Event) error) error {
	if r == nil || r.pool == nil {
		return errRepositoryNotConfigured
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin reminder claim tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx,
		`SELECT id, lead_id, external_event_id, start_at, end_at, attendee_emails,
		        reminder_24h_sent, reminder_2h_sent, reminder_30m_sent,
		        reminder_24h_attempts, reminder_2h_attempts, reminder_30m_attempts, status
		 FROM calendar_events
		 WHERE status = 'CONFIRMED' AND start_at > $1
		   AND (NOT reminder_24h_sent OR NOT reminder_2h_sent OR NOT reminder_30m_sent)
		 FOR UPDATE SKIP LOCKED`,
		now,
	)
	if err != nil {
		return fmt.Errorf("claim reminder candidates: %w", err)
	}

	var events []Event
	for rows.Next() {
		e, err := scanEventRows(rows)
		if err != nil {
			rows.Close()
			return err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	if len(events) == 0 {
		return nil
	}

	if err := fn(ctx, &ReminderClaim{tx: tx}, events); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// row is satisfied by both pgx.Row and pgx.Rows.
type row interface {
	Scan(dest ...any) error
}

func scanEvent(r row) (Event, error) {
	var e Event
	var status string
	err := r.Scan(&e.ID, &e.LeadID, &e.ExternalEventID, &e.StartAt, &e.EndAt, &e.AttendeeEmails,
		&e.Reminder24hSent, &e.Reminder2hSent, &e.Reminder30mSent,
		&e.Reminder24hAttempts, &e.Reminder2hAttempts, &e.Reminder30mAttempts, &status)
	if err != nil {
		return Event{}, err
	}
	e.Status = Status(status)
	return e, nil
}

func scanEventRows(rows pgx.Rows) (Event, error) {
	return scanEvent(rows)
}
