package events

import (
	"time"

	"github.com/bumex/engagement-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventOTPSent           EventType = "otp_sent"
	EventOTPResent         EventType = "otp_resent"
	EventOTPFailed         EventType = "otp_failed"
	EventOTPVerified       EventType = "otp_verified"
	EventLogin             EventType = "login"
	EventLogout            EventType = "logout"
	EventSectionReviewed   EventType = "section_reviewed"
	EventSectionUnreviewed EventType = "section_unreviewed"
	EventSectionSigned     EventType = "section_signed"
	EventSectionUnsigned   EventType = "section_unsigned"
	EventProjectCreated    EventType = "project_created"
	EventProjectArchived   EventType = "project_archived"
	EventTeamUpdated       EventType = "team_updated"
	EventUserApproved      EventType = "user_approved"
	EventUserBlocked       EventType = "user_blocked"
	EventUserUnblocked     EventType = "user_unblocked"
	EventUserRoleChanged   EventType = "user_role_changed"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string `json:"user_id"`
	Name   string `json:"name,omitempty"`
}

// Event represents a domain event emitted by services. ProjectID and
// SectionID are empty for auth events.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ProjectID string      `json:"project_id,omitempty"`
	SectionID string      `json:"section_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// SectionReviewedPayload payload.
type SectionReviewedPayload struct {
	ReviewedAs domain.ReviewLevel  `json:"reviewed_as"`
	NewLevel   domain.ReviewLevel  `json:"new_level"`
	Status     domain.ReviewStatus `json:"status"`
}

// SectionUnreviewedPayload payload.
type SectionUnreviewedPayload struct {
	ClearedFrom domain.ReviewLevel  `json:"cleared_from"`
	NewLevel    domain.ReviewLevel  `json:"new_level"`
	Status      domain.ReviewStatus `json:"status"`
}

// OTPPayload payload for otp_* events.
type OTPPayload struct {
	Email  string `json:"email"`
	Reason string `json:"reason,omitempty"`
}

// TeamUpdatedPayload payload.
type TeamUpdatedPayload struct {
	Team domain.TeamAssignments `json:"team"`
}

// UserAdminPayload payload for user administration events.
type UserAdminPayload struct {
	TargetUserID string            `json:"target_user_id"`
	NewRole      domain.GlobalRole `json:"new_role,omitempty"`
}
