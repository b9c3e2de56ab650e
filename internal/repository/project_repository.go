package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bumex/engagement-service/internal/domain"
)

// ErrVersionConflict signals an optimistic-concurrency failure on a
// field-path update. Callers re-read and retry.
var ErrVersionConflict = errors.New("project version conflict")

// ProjectRepository encapsulates engagement persistence. Review and sign-off
// records are stored as JSONB maps keyed by section id and updated per
// section rather than by whole-document rewrite.
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	ListByMember(ctx context.Context, userID string, includeArchived bool) ([]domain.Project, error)
	UpdateTeam(ctx context.Context, project *domain.Project) error
	SetArchived(ctx context.Context, id string, archived bool) error
	// UpdateSectionReview writes one section's review record guarded by the
	// project version read alongside it; ErrVersionConflict on a stale read.
	UpdateSectionReview(ctx context.Context, projectID, sectionID string, review *domain.SectionReview, expectedVersion int64) error
	// UpdateSignOff maintains the legacy single-signature records. A nil
	// record clears the section's sign-off.
	UpdateSignOff(ctx context.Context, projectID, sectionID string, record *domain.SignOffRecord, expectedVersion int64) error
}

type projectRepository struct {
	pool *pgxpool.Pool
}

// NewProjectRepository instantiates repository.
func NewProjectRepository(pool *pgxpool.Pool) ProjectRepository {
	return &projectRepository{pool: pool}
}

func (r *projectRepository) Create(ctx context.Context, project *domain.Project) error {
	metadata, err := json.Marshal(orEmptyMap(project.Metadata))
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	const query = `
        INSERT INTO projects (client_name, year, metadata, lead_partner_id, partner_ids, manager_ids, in_charge_ids, staff_ids)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, version, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		project.ClientName,
		project.Year,
		metadata,
		project.Team.LeadPartnerID,
		project.Team.PartnerIDs,
		project.Team.ManagerIDs,
		project.Team.InChargeIDs,
		project.Team.StaffIDs,
	).Scan(&project.ID, &project.Version, &project.CreatedAt, &project.UpdatedAt)
}

const projectColumns = `
        id, client_name, year, metadata, lead_partner_id, partner_ids, manager_ids,
        in_charge_ids, staff_ids, reviews, sign_offs, archived, version, created_at, updated_at`

func (r *projectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id=$1`
	return scanProject(r.pool.QueryRow(ctx, query, id))
}

func (r *projectRepository) ListByMember(ctx context.Context, userID string, includeArchived bool) ([]domain.Project, error) {
	query := `SELECT ` + projectColumns + `
        FROM projects
        WHERE (lead_partner_id=$1 OR $1 = ANY(partner_ids) OR $1 = ANY(manager_ids)
               OR $1 = ANY(in_charge_ids) OR $1 = ANY(staff_ids))`
	if !includeArchived {
		query += ` AND archived = FALSE`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *project)
	}
	return projects, rows.Err()
}

func (r *projectRepository) UpdateTeam(ctx context.Context, project *domain.Project) error {
	const query = `
        UPDATE projects
        SET lead_partner_id=$1, partner_ids=$2, manager_ids=$3, in_charge_ids=$4, staff_ids=$5,
            version=version+1, updated_at=NOW()
        WHERE id=$6 AND version=$7
        RETURNING version, updated_at`
	err := r.pool.QueryRow(ctx, query,
		project.Team.LeadPartnerID,
		project.Team.PartnerIDs,
		project.Team.ManagerIDs,
		project.Team.InChargeIDs,
		project.Team.StaffIDs,
		project.ID,
		project.Version,
	).Scan(&project.Version, &project.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrVersionConflict
	}
	return err
}

func (r *projectRepository) SetArchived(ctx context.Context, id string, archived bool) error {
	const query = `UPDATE projects SET archived=$1, version=version+1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, archived, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *projectRepository) UpdateSectionReview(ctx context.Context, projectID, sectionID string, review *domain.SectionReview, expectedVersion int64) error {
	payload, err := json.Marshal(review)
	if err != nil {
		return fmt.Errorf("marshal section review: %w", err)
	}
	const query = `
        UPDATE projects
        SET reviews = jsonb_set(reviews, ARRAY[$1::text], $2::jsonb, true),
            version = version + 1, updated_at = NOW()
        WHERE id=$3 AND version=$4`
	cmd, err := r.pool.Exec(ctx, query, sectionID, payload, projectID, expectedVersion)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *projectRepository) UpdateSignOff(ctx context.Context, projectID, sectionID string, record *domain.SignOffRecord, expectedVersion int64) error {
	var (
		cmdTag pgconn.CommandTag
		err    error
	)
	if record == nil {
		const query = `
            UPDATE projects
            SET sign_offs = sign_offs - $1::text, version = version + 1, updated_at = NOW()
            WHERE id=$2 AND version=$3`
		cmdTag, err = r.pool.Exec(ctx, query, sectionID, projectID, expectedVersion)
	} else {
		payload, marshalErr := json.Marshal(record)
		if marshalErr != nil {
			return fmt.Errorf("marshal sign-off: %w", marshalErr)
		}
		const query = `
            UPDATE projects
            SET sign_offs = jsonb_set(sign_offs, ARRAY[$1::text], $2::jsonb, true),
                version = version + 1, updated_at = NOW()
            WHERE id=$3 AND version=$4`
		cmdTag, err = r.pool.Exec(ctx, query, sectionID, payload, projectID, expectedVersion)
	}
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var (
		project     domain.Project
		metadataRaw []byte
		reviewsRaw  []byte
		signOffsRaw []byte
	)
	if err := row.Scan(
		&project.ID,
		&project.ClientName,
		&project.Year,
		&metadataRaw,
		&project.Team.LeadPartnerID,
		&project.Team.PartnerIDs,
		&project.Team.ManagerIDs,
		&project.Team.InChargeIDs,
		&project.Team.StaffIDs,
		&reviewsRaw,
		&signOffsRaw,
		&project.Archived,
		&project.Version,
		&project.CreatedAt,
		&project.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(metadataRaw, &project.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if err := json.Unmarshal(reviewsRaw, &project.Reviews); err != nil {
		return nil, fmt.Errorf("decode reviews: %w", err)
	}
	if err := json.Unmarshal(signOffsRaw, &project.SignOffs); err != nil {
		return nil, fmt.Errorf("decode sign-offs: %w", err)
	}
	return &project, nil
}

func orEmptyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
