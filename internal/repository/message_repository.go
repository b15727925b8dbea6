package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/whatsapp-crm/internal/domain"
)

// MessageRepository encapsulates message persistence.
type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.Message, error)
	ListByConversation(ctx context.Context, tenantID, conversationID string, limit, offset int) ([]domain.Message, error)
	UpdateStatus(ctx context.Context, tenantID, id string, status domain.MessageStatus) error
}

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository instantiates repository.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepository{pool: pool}
}

const messageColumns = `id, tenant_id, conversation_id, lead_id, gateway_message_id,
	direction, type, content, media_ref, status, sent_by_agent_id, created_at`

func (r *messageRepository) Create(ctx context.Context, message *domain.Message) error {
	const query = `
        INSERT INTO messages (tenant_id, conversation_id, lead_id, gateway_message_id,
            direction, type, content, media_ref, status, sent_by_agent_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		message.TenantID,
		message.ConversationID,
		message.LeadID,
		message.GatewayMessageID,
		message.Direction,
		message.Type,
		message.Content,
		message.MediaRef,
		message.Status,
		message.SentByAgentID,
	).Scan(&message.ID, &message.CreatedAt)
}

func (r *messageRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE tenant_id=$1 AND id=$2`
	var message domain.Message
	if err := scanMessage(r.pool.QueryRow(ctx, query, tenantID, id), &message); err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *messageRepository) ListByConversation(ctx context.Context, tenantID, conversationID string, limit, offset int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + messageColumns + `
        FROM messages WHERE tenant_id=$1 AND conversation_id=$2
        ORDER BY created_at DESC` + fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, tenantID, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Message
	for rows.Next() {
		var message domain.Message
		if err := scanMessage(rows, &message); err != nil {
			return nil, err
		}
		result = append(result, message)
	}
	return result, rows.Err()
}

func (r *messageRepository) UpdateStatus(ctx context.Context, tenantID, id string, status domain.MessageStatus) error {
	const query = `UPDATE messages SET status=$1 WHERE tenant_id=$2 AND id=$3`
	cmd, err := r.pool.Exec(ctx, query, status, tenantID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanMessage(row pgx.Row, message *domain.Message) error {
	return row.Scan(
		&message.ID,
		&message.TenantID,
		&message.ConversationID,
		&message.LeadID,
		&message.GatewayMessageID,
		&message.Direction,
		&message.Type,
		&message.Content,
		&message.MediaRef,
		&message.Status,
		&message.SentByAgentID,
		&message.CreatedAt,
	)
}
