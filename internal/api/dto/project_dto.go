package dto

import (
	"time"

	"github.com/bumex/engagement-service/internal/domain"
)

// TeamRequest mirrors domain.TeamAssignments on the wire.
type TeamRequest struct {
	LeadPartnerID string   `json:"lead_partner_id"`
	PartnerIDs    []string `json:"partner_ids"`
	ManagerIDs    []string `json:"manager_ids"`
	InChargeIDs   []string `json:"in_charge_ids"`
	StaffIDs      []string `json:"staff_ids"`
}

// ToDomain converts the request to the domain representation.
func (t TeamRequest) ToDomain() domain.TeamAssignments {
	return domain.TeamAssignments{
		LeadPartnerID: t.LeadPartnerID,
		PartnerIDs:    t.PartnerIDs,
		ManagerIDs:    t.ManagerIDs,
		InChargeIDs:   t.InChargeIDs,
		StaffIDs:      t.StaffIDs,
	}
}

// ProjectCreateRequest payload for engagement creation.
type ProjectCreateRequest struct {
	ClientName string         `json:"client_name"`
	Year       int            `json:"year"`
	Metadata   map[string]any `json:"metadata"`
	Team       TeamRequest    `json:"team"`
}

// ProjectResponse is the public view of an engagement.
type ProjectResponse struct {
	ID         string                 `json:"id"`
	ClientName string                 `json:"client_name"`
	Year       int                    `json:"year"`
	Metadata   map[string]any         `json:"metadata,omitempty"`
	Team       domain.TeamAssignments `json:"team"`
	Archived   bool                   `json:"archived"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

// NewProjectResponse maps a domain project.
func NewProjectResponse(project *domain.Project) ProjectResponse {
	return ProjectResponse{
		ID:         project.ID,
		ClientName: project.ClientName,
		Year:       project.Year,
		Metadata:   project.Metadata,
		Team:       project.Team,
		Archived:   project.Archived,
		CreatedAt:  project.CreatedAt,
		UpdatedAt:  project.UpdatedAt,
	}
}
