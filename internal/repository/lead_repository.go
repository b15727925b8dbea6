package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/whatsapp-crm/internal/domain"
)

// LeadFilter captures lead search parameters.
type LeadFilter struct {
	TenantID    string
	Stage       *domain.FunnelStage
	Temperature *domain.LeadTemperature
	AssignedTo  *string
	Label       *string
	SearchTerm  *string
	Limit       int
	Offset      int
}

// LeadRepository encapsulates lead persistence.
type LeadRepository interface {
	Create(ctx context.Context, lead *domain.Lead) error
	Update(ctx context.Context, lead *domain.Lead) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.Lead, error)
	GetByPhone(ctx context.Context, tenantID, phone, countryCode string) (*domain.Lead, error)
	// FindByPhoneVariations returns the most recently updated lead whose
	// stored phone matches any of the given digit strings exactly.
	FindByPhoneVariations(ctx context.Context, tenantID string, variations []string) (*domain.Lead, error)
	// FindByPhoneSuffix returns up to limit leads whose stored phone ends
	// with suffix, most recently updated first, ties broken by lowest id.
	FindByPhoneSuffix(ctx context.Context, tenantID, suffix string, limit int) ([]domain.Lead, error)
	ListWithFilter(ctx context.Context, filter LeadFilter) ([]domain.Lead, error)
}

type leadRepository struct {
	pool *pgxpool.Pool
}

// NewLeadRepository instantiates repository.
func NewLeadRepository(pool *pgxpool.Pool) LeadRepository {
	return &leadRepository{pool: pool}
}

const leadColumns = `id, tenant_id, phone, country_code, name, whatsapp_name, email,
	funnel_stage, temperature, labels, assigned_to, notes, created_at, updated_at, last_contact_at`

func (r *leadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	const query = `
        INSERT INTO leads (tenant_id, phone, country_code, name, whatsapp_name, email,
            funnel_stage, temperature, labels, assigned_to, notes, last_contact_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		lead.TenantID,
		lead.Phone,
		lead.CountryCode,
		lead.Name,
		lead.WhatsappName,
		lead.Email,
		lead.FunnelStage,
		lead.Temperature,
		lead.Labels,
		lead.AssignedTo,
		lead.Notes,
		lead.LastContactAt,
	).Scan(&lead.ID, &lead.CreatedAt, &lead.UpdatedAt)
}

func (r *leadRepository) Update(ctx context.Context, lead *domain.Lead) error {
	const query = `
        UPDATE leads SET name=$1, whatsapp_name=$2, email=$3, funnel_stage=$4, temperature=$5,
            labels=$6, assigned_to=$7, notes=$8, last_contact_at=$9, updated_at=NOW()
        WHERE tenant_id=$10 AND id=$11`
	cmd, err := r.pool.Exec(ctx, query,
		lead.Name,
		lead.WhatsappName,
		lead.Email,
		lead.FunnelStage,
		lead.Temperature,
		lead.Labels,
		lead.AssignedTo,
		lead.Notes,
		lead.LastContactAt,
		lead.TenantID,
		lead.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *leadRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE tenant_id=$1 AND id=$2`
	return r.fetchSingle(ctx, query, tenantID, id)
}

func (r *leadRepository) GetByPhone(ctx context.Context, tenantID, phone, countryCode string) (*domain.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE tenant_id=$1 AND phone=$2 AND country_code=$3`
	return r.fetchSingle(ctx, query, tenantID, phone, countryCode)
}

func (r *leadRepository) FindByPhoneVariations(ctx context.Context, tenantID string, variations []string) (*domain.Lead, error) {
	if len(variations) == 0 {
		return nil, pgx.ErrNoRows
	}
	query := `SELECT ` + leadColumns + `
        FROM leads
        WHERE tenant_id=$1 AND (phone = ANY($2) OR country_code || phone = ANY($2))
        ORDER BY updated_at DESC, id ASC
        LIMIT 1`
	return r.fetchSingle(ctx, query, tenantID, variations)
}

func (r *leadRepository) FindByPhoneSuffix(ctx context.Context, tenantID, suffix string, limit int) ([]domain.Lead, error) {
	if suffix == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}
	query := `SELECT ` + leadColumns + `
        FROM leads
        WHERE tenant_id=$1 AND phone LIKE '%' || $2
        ORDER BY updated_at DESC, id ASC
        LIMIT ` + fmt.Sprintf("%d", limit)
	rows, err := r.pool.Query(ctx, query, tenantID, suffix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLeads(rows)
}

func (r *leadRepository) ListWithFilter(ctx context.Context, filter LeadFilter) ([]domain.Lead, error) {
	base := `SELECT ` + leadColumns + ` FROM leads`
	clauses := []string{"tenant_id=$1"}
	args := []any{filter.TenantID}

	if filter.Stage != nil {
		args = append(args, *filter.Stage)
		clauses = append(clauses, fmt.Sprintf("funnel_stage=$%d", len(args)))
	}
	if filter.Temperature != nil {
		args = append(args, *filter.Temperature)
		clauses = append(clauses, fmt.Sprintf("temperature=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if filter.Label != nil {
		args = append(args, *filter.Label)
		clauses = append(clauses, fmt.Sprintf("$%d = ANY(labels)", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(name) LIKE %s OR LOWER(whatsapp_name) LIKE %s OR phone LIKE %s)",
			placeholder, placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLeads(rows)
}

func (r *leadRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Lead, error) {
	var lead domain.Lead
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&lead.ID,
		&lead.TenantID,
		&lead.Phone,
		&lead.CountryCode,
		&lead.Name,
		&lead.WhatsappName,
		&lead.Email,
		&lead.FunnelStage,
		&lead.Temperature,
		&lead.Labels,
		&lead.AssignedTo,
		&lead.Notes,
		&lead.CreatedAt,
		&lead.UpdatedAt,
		&lead.LastContactAt,
	); err != nil {
		return nil, err
	}
	return &lead, nil
}

func scanLeads(rows pgx.Rows) ([]domain.Lead, error) {
	var result []domain.Lead
	for rows.Next() {
		var lead domain.Lead
		if err := rows.Scan(
			&lead.ID,
			&lead.TenantID,
			&lead.Phone,
			&lead.CountryCode,
			&lead.Name,
			&lead.WhatsappName,
			&lead.Email,
			&lead.FunnelStage,
			&lead.Temperature,
			&lead.Labels,
			&lead.AssignedTo,
			&lead.Notes,
			&lead.CreatedAt,
			&lead.UpdatedAt,
			&lead.LastContactAt,
		); err != nil {
			return nil, err
		}
		result = append(result, lead)
	}
	return result, rows.Err()
}
