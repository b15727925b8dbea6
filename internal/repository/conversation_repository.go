package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/whatsapp-crm/internal/domain"
)

// ConversationRepository encapsulates conversation persistence.
type ConversationRepository interface {
	Create(ctx context.Context, conversation *domain.Conversation) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.Conversation, error)
	GetByLeadAndInstance(ctx context.Context, tenantID, leadID, instanceID string) (*domain.Conversation, error)
	ListByTenant(ctx context.Context, tenantID string, status *domain.ConversationStatus, limit, offset int) ([]domain.Conversation, error)
	UpdateStatus(ctx context.Context, tenantID, id string, status domain.ConversationStatus) error
	// TouchInbound bumps last_message_at and the unread counter.
	TouchInbound(ctx context.Context, tenantID, id string) error
	// TouchOutbound bumps last_message_at only.
	TouchOutbound(ctx context.Context, tenantID, id string) error
	MarkRead(ctx context.Context, tenantID, id string) error
}

type conversationRepository struct {
	pool *pgxpool.Pool
}

// NewConversationRepository instantiates repository.
func NewConversationRepository(pool *pgxpool.Pool) ConversationRepository {
	return &conversationRepository{pool: pool}
}

const conversationColumns = `id, tenant_id, lead_id, instance_id, chat_id, status,
	unread_count, last_message_at, created_at, updated_at`

func (r *conversationRepository) Create(ctx context.Context, conversation *domain.Conversation) error {
	const query = `
        INSERT INTO conversations (tenant_id, lead_id, instance_id, chat_id, status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		conversation.TenantID,
		conversation.LeadID,
		conversation.InstanceID,
		conversation.ChatID,
		conversation.Status,
	).Scan(&conversation.ID, &conversation.CreatedAt, &conversation.UpdatedAt)
}

func (r *conversationRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE tenant_id=$1 AND id=$2`
	return r.fetchSingle(ctx, query, tenantID, id)
}

func (r *conversationRepository) GetByLeadAndInstance(ctx context.Context, tenantID, leadID, instanceID string) (*domain.Conversation, error) {
	query := `SELECT ` + conversationColumns + `
        FROM conversations WHERE tenant_id=$1 AND lead_id=$2 AND instance_id=$3`
	return r.fetchSingle(ctx, query, tenantID, leadID, instanceID)
}

func (r *conversationRepository) ListByTenant(ctx context.Context, tenantID string, status *domain.ConversationStatus, limit, offset int) ([]domain.Conversation, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE tenant_id=$1`
	args := []any{tenantID}
	if status != nil {
		args = append(args, *status)
		query += fmt.Sprintf(" AND status=$%d", len(args))
	}
	query += fmt.Sprintf(" ORDER BY last_message_at DESC NULLS LAST LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Conversation
	for rows.Next() {
		var conversation domain.Conversation
		if err := scanConversation(rows, &conversation); err != nil {
			return nil, err
		}
		result = append(result, conversation)
	}
	return result, rows.Err()
}

func (r *conversationRepository) UpdateStatus(ctx context.Context, tenantID, id string, status domain.ConversationStatus) error {
	const query = `UPDATE conversations SET status=$1, updated_at=NOW() WHERE tenant_id=$2 AND id=$3`
	return r.exec(ctx, query, status, tenantID, id)
}

func (r *conversationRepository) TouchInbound(ctx context.Context, tenantID, id string) error {
	const query = `
        UPDATE conversations SET last_message_at=NOW(), unread_count=unread_count+1, updated_at=NOW()
        WHERE tenant_id=$1 AND id=$2`
	return r.exec(ctx, query, tenantID, id)
}

func (r *conversationRepository) TouchOutbound(ctx context.Context, tenantID, id string) error {
	const query = `
        UPDATE conversations SET last_message_at=NOW(), updated_at=NOW()
        WHERE tenant_id=$1 AND id=$2`
	return r.exec(ctx, query, tenantID, id)
}

func (r *conversationRepository) MarkRead(ctx context.Context, tenantID, id string) error {
	const query = `UPDATE conversations SET unread_count=0, updated_at=NOW() WHERE tenant_id=$1 AND id=$2`
	return r.exec(ctx, query, tenantID, id)
}

func (r *conversationRepository) exec(ctx context.Context, query string, args ...any) error {
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *conversationRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Conversation, error) {
	var conversation domain.Conversation
	if err := scanConversation(r.pool.QueryRow(ctx, query, args...), &conversation); err != nil {
		return nil, err
	}
	return &conversation, nil
}

func scanConversation(row pgx.Row, conversation *domain.Conversation) error {
	return row.Scan(
		&conversation.ID,
		&conversation.TenantID,
		&conversation.LeadID,
		&conversation.InstanceID,
		&conversation.ChatID,
		&conversation.Status,
		&conversation.UnreadCount,
		&conversation.LastMessageAt,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
	)
}
