package domain

import "time"

// ProjectRole is a user's role within one engagement. Values line up with
// the review tiers so a role maps directly onto the ladder.
type ProjectRole string

const (
	ProjectRoleStaff       ProjectRole = "staff"
	ProjectRoleInCharge    ProjectRole = "incharge"
	ProjectRoleManager     ProjectRole = "manager"
	ProjectRolePartner     ProjectRole = "partner"
	ProjectRoleLeadPartner ProjectRole = "lead_partner"
)

// TeamAssignments holds the engagement team by tier: one lead partner and
// sets of ids for every other tier.
type TeamAssignments struct {
	LeadPartnerID string   `json:"lead_partner_id"`
	PartnerIDs    []string `json:"partner_ids"`
	ManagerIDs    []string `json:"manager_ids"`
	InChargeIDs   []string `json:"in_charge_ids"`
	StaffIDs      []string `json:"staff_ids"`
}

// Project is the aggregate for an audit engagement. Reviews and SignOffs are
// keyed by section id; SignOffs carries the deprecated single-signature
// records for older documents. Projects are archived, never deleted.
type Project struct {
	ID         string
	ClientName string
	Year       int
	Metadata   map[string]any
	Team       TeamAssignments
	Reviews    map[string]*SectionReview
	SignOffs   map[string]*SignOffRecord
	Archived   bool
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// RoleOf resolves the user's role within this project, checking tiers from
// lead partner downward; first match wins. Returns "" when the user has no
// assignment on the project. Membership is exclusive at assignment time, but
// documents written before that was enforced may dual-assign, in which case
// the higher tier is authoritative.
func (p *Project) RoleOf(userID string) ProjectRole {
	if userID == "" {
		return ""
	}
	if p.Team.LeadPartnerID == userID {
		return ProjectRoleLeadPartner
	}
	if containsID(p.Team.PartnerIDs, userID) {
		return ProjectRolePartner
	}
	if containsID(p.Team.ManagerIDs, userID) {
		return ProjectRoleManager
	}
	if containsID(p.Team.InChargeIDs, userID) {
		return ProjectRoleInCharge
	}
	if containsID(p.Team.StaffIDs, userID) {
		return ProjectRoleStaff
	}
	return ""
}

// SectionReviewFor returns the review record for a section, or nil when no
// review action has touched it yet.
func (p *Project) SectionReviewFor(sectionID string) *SectionReview {
	if p.Reviews == nil {
		return nil
	}
	return p.Reviews[sectionID]
}

// CurrentReviewLevelFor returns the section's current level, defaulting to
// staff when no record exists.
func (p *Project) CurrentReviewLevelFor(sectionID string) ReviewLevel {
	if r := p.SectionReviewFor(sectionID); r != nil {
		return r.CurrentReviewLevel
	}
	return ReviewLevelStaff
}

// MemberIDs returns all user ids assigned to the project, any tier.
func (p *Project) MemberIDs() []string {
	ids := make([]string, 0, 1+len(p.Team.PartnerIDs)+len(p.Team.ManagerIDs)+len(p.Team.InChargeIDs)+len(p.Team.StaffIDs))
	if p.Team.LeadPartnerID != "" {
		ids = append(ids, p.Team.LeadPartnerID)
	}
	ids = append(ids, p.Team.PartnerIDs...)
	ids = append(ids, p.Team.ManagerIDs...)
	ids = append(ids, p.Team.InChargeIDs...)
	ids = append(ids, p.Team.StaffIDs...)
	return ids
}

// IDsAt returns the member ids assigned at one tier.
func (t TeamAssignments) IDsAt(level ReviewLevel) []string {
	switch level {
	case ReviewLevelStaff:
		return t.StaffIDs
	case ReviewLevelInCharge:
		return t.InChargeIDs
	case ReviewLevelManager:
		return t.ManagerIDs
	case ReviewLevelPartner:
		return t.PartnerIDs
	case ReviewLevelLeadPartner:
		if t.LeadPartnerID == "" {
			return nil
		}
		return []string{t.LeadPartnerID}
	default:
		return nil
	}
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
