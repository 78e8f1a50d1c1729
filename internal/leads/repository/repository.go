// Package repository provides typed persistence for leads, conversations,
// messages, and agent sessions.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"sdrsolar/internal/leads/domain"
	"sdrsolar/platform/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	leadNotFoundMsg = "lead not found"
	convNotFoundMsg = "conversation not found"
)

// LeadPatch carries the subset of Lead fields UpsertLeadByPhone may set.
// Zero-valued fields are left untouched on an existing row.
type LeadPatch struct {
	DisplayName           *string
	Email                 *string
	Stage                 *domain.QualificationStage
	Solution              *domain.Solution
	MonthlyBillAmount      *float64
	CompetitorName         *string
	CompetitorDiscountPct  *float64
	QualificationScore     *float64
	Temperature            *domain.Temperature
	CRMExternalID          *string
}

// Repository is the persistence boundary for the leads bounded context.
type Repository interface {
	UpsertLeadByPhone(ctx context.Context, phone string, patch LeadPatch) (domain.Lead, error)
	GetLeadByPhone(ctx context.Context, phone string) (domain.Lead, error)
	GetLeadByID(ctx context.Context, id string) (domain.Lead, error)

	GetOrCreateConversation(ctx context.Context, leadID string) (domain.Conversation, error)
	TouchConversation(ctx context.Context, conversationID string, state domain.ConversationState) error

	AppendMessage(ctx context.Context, msg domain.Message) (int64, error)
	GetConversationHistory(ctx context.Context, conversationID string, limit int) ([]domain.Message, error)

	GetAgentSession(ctx context.Context, conversationID string) (domain.AgentSession, error)
	SaveAgentSession(ctx context.Context, session domain.AgentSession) error
}

// pgRepository is the pgx-backed Repository implementation.
type pgRepository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository backed by a pgx connection pool.
func New(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

// UpsertLeadByPhone is idempotent on phone: a second call with an empty
// patch is a no-op that simply returns the current row.
func (r *pgRepository) UpsertLeadByPhone(ctx context.Context, phone string, patch LeadPatch) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (phone, stage, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		ON CONFLICT (phone) DO UPDATE SET
			display_name            = COALESCE($3, leads.display_name),
			email                    = COALESCE($4, leads.email),
			stage                    = COALESCE($5, leads.stage),
			solution                 = COALESCE($6, leads.solution),
			monthly_bill_amount      = COALESCE($7, leads.monthly_bill_amount),
			competitor_name          = COALESCE($8, leads.competitor_name),
			competitor_discount_pct  = COALESCE($9, leads.competitor_discount_pct),
			qualification_score      = COALESCE($10, leads.qualification_score),
			temperature              = COALESCE($11, leads.temperature),
			crm_external_id          = COALESCE($12, leads.crm_external_id),
			updated_at               = now()
		RETURNING id, phone, display_name, email, stage, solution, monthly_bill_amount,
		          competitor_name, competitor_discount_pct, qualification_score, temperature,
		          crm_external_id, created_at, updated_at
	`,
		phone, domain.StageInitial,
		patch.DisplayName, patch.Email, patch.Stage, patch.Solution,
		patch.MonthlyBillAmount, patch.CompetitorName, patch.CompetitorDiscountPct,
		patch.QualificationScore, patch.Temperature, patch.CRMExternalID,
	)
	return scanLead(row)
}

func (r *pgRepository) GetLeadByPhone(ctx context.Context, phone string) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, phone, display_name, email, stage, solution, monthly_bill_amount,
		       competitor_name, competitor_discount_pct, qualification_score, temperature,
		       crm_external_id, created_at, updated_at
		FROM leads WHERE phone = $1
	`, phone)
	return scanLead(row)
}

func (r *pgRepository) GetLeadByID(ctx context.Context, id string) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, phone, display_name, email, stage, solution, monthly_bill_amount,
		       competitor_name, competitor_discount_pct, qualification_score, temperature,
		       crm_external_id, created_at, updated_at
		FROM leads WHERE id = $1
	`, id)
	return scanLead(row)
}

func scanLead(row pgx.Row) (domain.Lead, error) {
	var lead domain.Lead
	err := row.Scan(
		&lead.ID, &lead.Phone, &lead.DisplayName, &lead.Email, &lead.Stage, &lead.Solution,
		&lead.MonthlyBillAmount, &lead.CompetitorName, &lead.CompetitorDiscountPct,
		&lead.QualificationScore, &lead.Temperature, &lead.CRMExternalID,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Lead{}, apperr.New(apperr.KindNotFound, leadNotFoundMsg)
		}
		return domain.Lead{}, apperr.Wrap(apperr.KindInternal, "scan lead", err)
	}
	return lead, nil
}

// GetOrCreateConversation returns the lead's single conversation, creating
// it (ACTIVE, empty counters) the first time it's requested.
func (r *pgRepository) GetOrCreateConversation(ctx context.Context, leadID string) (domain.Conversation, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO conversations (lead_id, session_id, state, last_activity_at)
		VALUES ($1, gen_random_uuid()::text, $2, now())
		ON CONFLICT (lead_id) DO UPDATE SET last_activity_at = conversations.last_activity_at
		RETURNING id, lead_id, session_id, last_activity_at, state, follow_up_count, message_count
	`, leadID, domain.ConversationActive)

	var conv domain.Conversation
	err := row.Scan(&conv.ID, &conv.LeadID, &conv.SessionID, &conv.LastActivityAt,
		&conv.State, &conv.FollowUpCount, &conv.MessageCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Conversation{}, apperr.New(apperr.KindNotFound, convNotFoundMsg)
		}
		return domain.Conversation{}, apperr.Wrap(apperr.KindInternal, "scan conversation", err)
	}
	return conv, nil
}

func (r *pgRepository) TouchConversation(ctx context.Context, conversationID string, state domain.ConversationState) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE conversations SET state = $2, last_activity_at = now() WHERE id = $1
	`, conversationID, state)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "touch conversation", err)
	}
	return nil
}

// AppendMessage inserts an immutable message and returns its monotonic
// per-conversation sequence number.
func (r *pgRepository) AppendMessage(ctx context.Context, msg domain.Message) (int64, error) {
	var seq int64
	err := r.pool.QueryRow(ctx, `
		WITH next_seq AS (
			SELECT COALESCE(MAX(sequence), 0) + 1 AS seq FROM messages WHERE conversation_id = $1
		)
		INSERT INTO messages (conversation_id, sequence, direction, content_type, content, timestamp, gateway_message_id)
		SELECT $1, next_seq.seq, $2, $3, $4, $5, $6 FROM next_seq
		RETURNING sequence
	`, msg.ConversationID, msg.Direction, msg.ContentType, msg.Content, msg.Timestamp, nullableText(msg.GatewayMessageID)).Scan(&seq)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindInternal, "append message", err)
	}

	_, err = r.pool.Exec(ctx, `UPDATE conversations SET message_count = message_count + 1 WHERE id = $1`, msg.ConversationID)
	if err != nil {
		return seq, apperr.Wrap(apperr.KindInternal, "increment message count", err)
	}
	return seq, nil
}

func (r *pgRepository) GetConversationHistory(ctx context.Context, conversationID string, limit int) ([]domain.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, conversation_id, sequence, direction, content_type, content, timestamp, COALESCE(gateway_message_id, '')
		FROM messages WHERE conversation_id = $1 ORDER BY sequence ASC LIMIT $2
	`, conversationID, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "query conversation history", err)
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Sequence, &m.Direction, &m.ContentType, &m.Content, &m.Timestamp, &m.GatewayMessageID); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "scan message", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *pgRepository) GetAgentSession(ctx context.Context, conversationID string) (domain.AgentSession, error) {
	var session domain.AgentSession
	var slotsJSON []byte
	err := r.pool.QueryRow(ctx, `
		SELECT id, conversation_id, slots, created_at, updated_at
		FROM agent_sessions WHERE conversation_id = $1
	`, conversationID).Scan(&session.ID, &session.ConversationID, &slotsJSON, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AgentSession{
				ConversationID: conversationID,
				CreatedAt:      time.Now(),
				UpdatedAt:      time.Now(),
			}, nil
		}
		return domain.AgentSession{}, apperr.Wrap(apperr.KindInternal, "get agent session", err)
	}
	if err := unmarshalSlots(slotsJSON, &session.Slots); err != nil {
		return domain.AgentSession{}, apperr.Wrap(apperr.KindInternal, "unmarshal slots", err)
	}
	return session, nil
}

func (r *pgRepository) SaveAgentSession(ctx context.Context, session domain.AgentSession) error {
	slotsJSON, err := marshalSlots(session.Slots)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "marshal slots", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO agent_sessions (conversation_id, slots, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		ON CONFLICT (conversation_id) DO UPDATE SET slots = $2, updated_at = now()
	`, session.ConversationID, slotsJSON)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "save agent session", err)
	}
	return nil
}

// nullableText returns nil for an empty string so the driver writes SQL
// NULL rather than an empty-string literal for optional text columns.
func nullableText(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func marshalSlots(slots domain.Slots) ([]byte, error) {
	return json.Marshal(slots)
}

func unmarshalSlots(data []byte, slots *domain.Slots) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, slots)
}
