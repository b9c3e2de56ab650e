package domain

import "time"

// AuditAction enumerates recorded audit-trail actions.
type AuditAction string

const (
	AuditActionOTPSent           AuditAction = "otp_sent"
	AuditActionOTPResent         AuditAction = "otp_resent"
	AuditActionOTPFailed         AuditAction = "otp_failed"
	AuditActionOTPVerified       AuditAction = "otp_verified"
	AuditActionLogin             AuditAction = "login"
	AuditActionLogout            AuditAction = "logout"
	AuditActionSectionReviewed   AuditAction = "section_reviewed"
	AuditActionSectionUnreviewed AuditAction = "section_unreviewed"
	AuditActionSectionSigned     AuditAction = "section_signed"
	AuditActionSectionUnsigned   AuditAction = "section_unsigned"
	AuditActionProjectCreated    AuditAction = "project_created"
	AuditActionProjectArchived   AuditAction = "project_archived"
	AuditActionTeamUpdated       AuditAction = "team_updated"
	AuditActionUserApproved      AuditAction = "user_approved"
	AuditActionUserBlocked       AuditAction = "user_blocked"
	AuditActionUserUnblocked     AuditAction = "user_unblocked"
	AuditActionUserRoleChanged   AuditAction = "user_role_changed"
)

// AuditEntry is one row of the persisted audit trail.
type AuditEntry struct {
	ID        string
	Action    AuditAction
	ActorID   string
	ActorName string
	ProjectID string
	SectionID string
	Details   map[string]any
	CreatedAt time.Time
}
