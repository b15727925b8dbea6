package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/whatsapp-crm/internal/domain"
)

// InstanceRepository defines persistence access for gateway instances.
type InstanceRepository interface {
	Create(ctx context.Context, instance *domain.GatewayInstance) error
	GetByID(ctx context.Context, id string) (*domain.GatewayInstance, error)
	ListByTenant(ctx context.Context, tenantID string) ([]domain.GatewayInstance, error)
}

type instanceRepository struct {
	pool *pgxpool.Pool
}

// NewInstanceRepository returns a Postgres-backed implementation.
func NewInstanceRepository(pool *pgxpool.Pool) InstanceRepository {
	return &instanceRepository{pool: pool}
}

const instanceColumns = `id, tenant_id, name, phone, base_url, api_key, webhook_token,
	is_active, created_at, updated_at`

func (r *instanceRepository) Create(ctx context.Context, instance *domain.GatewayInstance) error {
	const query = `
        INSERT INTO gateway_instances (tenant_id, name, phone, base_url, api_key, webhook_token, is_active)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		instance.TenantID,
		instance.Name,
		instance.Phone,
		instance.BaseURL,
		instance.APIKey,
		instance.WebhookToken,
		instance.IsActive,
	).Scan(&instance.ID, &instance.CreatedAt, &instance.UpdatedAt)
}

func (r *instanceRepository) GetByID(ctx context.Context, id string) (*domain.GatewayInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM gateway_instances WHERE id=$1`
	var instance domain.GatewayInstance
	if err := scanInstance(r.pool.QueryRow(ctx, query, id), &instance); err != nil {
		return nil, err
	}
	return &instance, nil
}

func (r *instanceRepository) ListByTenant(ctx context.Context, tenantID string) ([]domain.GatewayInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM gateway_instances WHERE tenant_id=$1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.GatewayInstance
	for rows.Next() {
		var instance domain.GatewayInstance
		if err := scanInstance(rows, &instance); err != nil {
			return nil, err
		}
		result = append(result, instance)
	}
	return result, rows.Err()
}

func scanInstance(row pgx.Row, instance *domain.GatewayInstance) error {
	return row.Scan(
		&instance.ID,
		&instance.TenantID,
		&instance.Name,
		&instance.Phone,
		&instance.BaseURL,
		&instance.APIKey,
		&instance.WebhookToken,
		&instance.IsActive,
		&instance.CreatedAt,
		&instance.UpdatedAt,
	)
}
