package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bumex/engagement-service/internal/domain"
)

// AuditLogRepository appends and reads audit-trail entries.
type AuditLogRepository interface {
	Append(ctx context.Context, entry *domain.AuditEntry) error
	ListByProject(ctx context.Context, projectID string, limit, offset int) ([]domain.AuditEntry, error)
}

type auditLogRepository struct {
	pool *pgxpool.Pool
}

// NewAuditLogRepository returns a Postgres-backed implementation.
func NewAuditLogRepository(pool *pgxpool.Pool) AuditLogRepository {
	return &auditLogRepository{pool: pool}
}

func (r *auditLogRepository) Append(ctx context.Context, entry *domain.AuditEntry) error {
	details, err := json.Marshal(orEmptyMap(entry.Details))
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}
	const query = `
        INSERT INTO logs (action, actor_id, actor_name, project_id, section_id, details)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.Action,
		entry.ActorID,
		entry.ActorName,
		entry.ProjectID,
		entry.SectionID,
		details,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *auditLogRepository) ListByProject(ctx context.Context, projectID string, limit, offset int) ([]domain.AuditEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	const query = `
        SELECT id, action, actor_id, actor_name, project_id, section_id, details, created_at
        FROM logs WHERE project_id=$1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, projectID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var (
			entry      domain.AuditEntry
			detailsRaw []byte
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.Action,
			&entry.ActorID,
			&entry.ActorName,
			&entry.ProjectID,
			&entry.SectionID,
			&detailsRaw,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(detailsRaw, &entry.Details); err != nil {
			return nil, fmt.Errorf("decode audit details: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
