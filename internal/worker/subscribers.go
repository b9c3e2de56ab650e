package worker

import (
	"github.com/bumex/engagement-service/internal/service"
)

// StartSubscribers registers the event-driven services on the dispatcher:
// the audit trail writer and the review notification sender.
func StartSubscribers(auditTrail *service.AuditTrailService, notifications *service.NotificationService) {
	if auditTrail != nil {
		auditTrail.RegisterHandlers()
	}
	if notifications != nil {
		notifications.RegisterHandlers()
	}
}
