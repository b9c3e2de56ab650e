package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/bumex/engagement-service/internal/domain"
	"github.com/bumex/engagement-service/internal/events"
	"github.com/bumex/engagement-service/internal/repository"
)

// AuditTrailService persists every published domain event as a row in the
// logs collection. The dispatcher is synchronous, so the row is written
// before the triggering operation returns.
type AuditTrailService struct {
	logs       repository.AuditLogRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditTrailService creates the service.
func NewAuditTrailService(logs repository.AuditLogRepository, dispatcher events.Dispatcher, logger *zap.Logger) *AuditTrailService {
	return &AuditTrailService{logs: logs, dispatcher: dispatcher, logger: logger}
}

var auditedEvents = []events.EventType{
	events.EventOTPSent,
	events.EventOTPResent,
	events.EventOTPFailed,
	events.EventOTPVerified,
	events.EventLogin,
	events.EventLogout,
	events.EventSectionReviewed,
	events.EventSectionUnreviewed,
	events.EventSectionSigned,
	events.EventSectionUnsigned,
	events.EventProjectCreated,
	events.EventProjectArchived,
	events.EventTeamUpdated,
	events.EventUserApproved,
	events.EventUserBlocked,
	events.EventUserUnblocked,
	events.EventUserRoleChanged,
}

// RegisterHandlers subscribes the audit writer to every audited event type.
func (a *AuditTrailService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, eventType := range auditedEvents {
		a.dispatcher.Subscribe(eventType, a.handleEvent)
	}
}

func (a *AuditTrailService) handleEvent(ctx context.Context, event events.Event) error {
	entry := &domain.AuditEntry{
		Action:    domain.AuditAction(event.Type),
		ActorID:   event.Actor.UserID,
		ActorName: event.Actor.Name,
		ProjectID: event.ProjectID,
		SectionID: event.SectionID,
		Details:   payloadDetails(event.Payload),
	}
	if err := a.logs.Append(ctx, entry); err != nil {
		a.logger.Error("append audit entry", zap.String("action", string(event.Type)), zap.Error(err))
		return err
	}
	return nil
}

func payloadDetails(payload interface{}) map[string]any {
	if payload == nil {
		return nil
	}
	switch p := payload.(type) {
	case events.OTPPayload:
		details := map[string]any{"email": p.Email}
		if p.Reason != "" {
			details["reason"] = p.Reason
		}
		return details
	case events.SectionReviewedPayload:
		return map[string]any{
			"reviewed_as": string(p.ReviewedAs),
			"new_level":   string(p.NewLevel),
			"status":      string(p.Status),
		}
	case events.SectionUnreviewedPayload:
		return map[string]any{
			"cleared_from": string(p.ClearedFrom),
			"new_level":    string(p.NewLevel),
			"status":       string(p.Status),
		}
	case events.UserAdminPayload:
		return map[string]any{
			"target_user_id": p.TargetUserID,
			"new_role":       string(p.NewRole),
		}
	case events.TeamUpdatedPayload:
		return map[string]any{"lead_partner_id": p.Team.LeadPartnerID}
	default:
		return nil
	}
}
