package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/bumex/engagement-service/internal/domain"
	"github.com/bumex/engagement-service/internal/events"
	"github.com/bumex/engagement-service/internal/mailer"
	"github.com/bumex/engagement-service/internal/repository"
)

// NotificationService emails the next review tier when a section advances.
// Notices are best effort: a mail failure is logged and never fails the
// review write that triggered it.
type NotificationService struct {
	dispatcher events.Dispatcher
	projects   repository.ProjectRepository
	users      repository.UserRepository
	mail       mailer.Mailer
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, projects repository.ProjectRepository, users repository.UserRepository, mail mailer.Mailer, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		projects:   projects,
		users:      users,
		mail:       mail,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventSectionReviewed, n.handleSectionReviewed)
}

func (n *NotificationService) handleSectionReviewed(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.SectionReviewedPayload)
	if !ok || payload.NewLevel == domain.ReviewLevelCompleted {
		return nil
	}

	project, err := n.projects.GetByID(ctx, event.ProjectID)
	if err != nil {
		n.logger.Warn("review notice: load project", zap.String("project_id", event.ProjectID), zap.Error(err))
		return nil
	}

	recipients := project.Team.IDsAt(payload.NewLevel)
	if len(recipients) == 0 {
		return nil
	}
	members, err := n.users.ListByIDs(ctx, recipients)
	if err != nil {
		n.logger.Warn("review notice: load recipients", zap.Error(err))
		return nil
	}

	for _, member := range members {
		if member.Blocked {
			continue
		}
		if err := n.mail.SendReviewNotice(ctx, member.Email, member.Name, project.ClientName, event.SectionID); err != nil {
			n.logger.Warn("review notice: send",
				zap.String("email", member.Email),
				zap.String("section_id", event.SectionID),
				zap.Error(err))
		}
	}
	return nil
}
