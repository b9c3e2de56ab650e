package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bumex/engagement-service/internal/domain"
	"github.com/bumex/engagement-service/internal/events"
	"github.com/bumex/engagement-service/internal/repository"
	apperrors "github.com/bumex/engagement-service/pkg/util"
)

// ProjectService manages engagement lifecycle and team assignments.
type ProjectService struct {
	projects   repository.ProjectRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	now        func() time.Time
}

// NewProjectService constructs the service.
func NewProjectService(projects repository.ProjectRepository, users repository.UserRepository, dispatcher events.Dispatcher) *ProjectService {
	return &ProjectService{projects: projects, users: users, dispatcher: dispatcher, now: time.Now}
}

// ProjectCreateInput describes engagement creation payload.
type ProjectCreateInput struct {
	ClientName string
	Year       int
	Metadata   map[string]any
	Team       domain.TeamAssignments
}

// CreateProject creates an engagement. The creator becomes lead partner
// when no lead is named.
func (s *ProjectService) CreateProject(ctx context.Context, actor *domain.User, input ProjectCreateInput) (*domain.Project, error) {
	if strings.TrimSpace(input.ClientName) == "" {
		return nil, apperrors.NewValidationError("client name is required", nil)
	}
	if input.Team.LeadPartnerID == "" {
		input.Team.LeadPartnerID = actor.ID
	}
	if err := validateTeam(input.Team); err != nil {
		return nil, err
	}
	if err := s.verifyMembersExist(ctx, input.Team); err != nil {
		return nil, err
	}

	project := &domain.Project{
		ClientName: strings.TrimSpace(input.ClientName),
		Year:       input.Year,
		Metadata:   input.Metadata,
		Team:       input.Team,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, apperrors.NewPersistenceFailed(err)
	}

	s.publish(ctx, events.Event{
		Type:      events.EventProjectCreated,
		ProjectID: project.ID,
		Actor:     events.Actor{UserID: actor.ID, Name: actor.Name},
	})
	return project, nil
}

// GetProject returns an engagement the caller can see: assigned members and
// global dev/admin users.
func (s *ProjectService) GetProject(ctx context.Context, projectID string, actor *domain.User) (*domain.Project, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("project", map[string]any{"project_id": projectID})
		}
		return nil, apperrors.MapError(err)
	}
	if project.RoleOf(actor.ID) == "" && !actor.IsDevOrAdmin() {
		return nil, apperrors.NewForbidden("not assigned to this engagement")
	}
	return project, nil
}

// ListProjects returns the caller's engagements.
func (s *ProjectService) ListProjects(ctx context.Context, actor *domain.User, includeArchived bool) ([]domain.Project, error) {
	projects, err := s.projects.ListByMember(ctx, actor.ID, includeArchived)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return projects, nil
}

// SetTeam replaces the engagement team. Only managers and above on the
// project, or global dev/admin, may reassign.
func (s *ProjectService) SetTeam(ctx context.Context, projectID string, actor *domain.User, team domain.TeamAssignments) (*domain.Project, error) {
	project, err := s.GetProject(ctx, projectID, actor)
	if err != nil {
		return nil, err
	}
	role := project.RoleOf(actor.ID)
	if !actor.IsDevOrAdmin() {
		switch role {
		case domain.ProjectRoleManager, domain.ProjectRolePartner, domain.ProjectRoleLeadPartner:
		default:
			return nil, apperrors.NewForbidden("manager role or above required")
		}
	}
	if err := validateTeam(team); err != nil {
		return nil, err
	}
	if err := s.verifyMembersExist(ctx, team); err != nil {
		return nil, err
	}

	project.Team = team
	if err := s.projects.UpdateTeam(ctx, project); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, apperrors.NewConflict("project was updated concurrently, try again", nil)
		}
		return nil, apperrors.NewPersistenceFailed(err)
	}

	s.publish(ctx, events.Event{
		Type:      events.EventTeamUpdated,
		ProjectID: project.ID,
		Actor:     events.Actor{UserID: actor.ID, Name: actor.Name},
		Payload:   events.TeamUpdatedPayload{Team: team},
	})
	return project, nil
}

// ArchiveProject marks the engagement archived. Projects are never deleted.
func (s *ProjectService) ArchiveProject(ctx context.Context, projectID string, actor *domain.User) error {
	project, err := s.GetProject(ctx, projectID, actor)
	if err != nil {
		return err
	}
	if project.RoleOf(actor.ID) != domain.ProjectRoleLeadPartner && !actor.IsDevOrAdmin() {
		return apperrors.NewForbidden("lead partner required")
	}
	if err := s.projects.SetArchived(ctx, projectID, true); err != nil {
		return apperrors.NewPersistenceFailed(err)
	}
	s.publish(ctx, events.Event{
		Type:      events.EventProjectArchived,
		ProjectID: projectID,
		Actor:     events.Actor{UserID: actor.ID, Name: actor.Name},
	})
	return nil
}

// validateTeam rejects a user id appearing in more than one tier. Dual
// assignment would make the first-match-wins role resolution silently mask
// misconfiguration.
func validateTeam(team domain.TeamAssignments) error {
	seen := make(map[string]string)
	record := func(id, tier string) error {
		if id == "" {
			return nil
		}
		if prior, ok := seen[id]; ok {
			return apperrors.NewValidationError("user assigned to multiple tiers", map[string]any{
				"user_id": id,
				"tiers":   []string{prior, tier},
			})
		}
		seen[id] = tier
		return nil
	}

	if err := record(team.LeadPartnerID, string(domain.ProjectRoleLeadPartner)); err != nil {
		return err
	}
	for _, id := range team.PartnerIDs {
		if err := record(id, string(domain.ProjectRolePartner)); err != nil {
			return err
		}
	}
	for _, id := range team.ManagerIDs {
		if err := record(id, string(domain.ProjectRoleManager)); err != nil {
			return err
		}
	}
	for _, id := range team.InChargeIDs {
		if err := record(id, string(domain.ProjectRoleInCharge)); err != nil {
			return err
		}
	}
	for _, id := range team.StaffIDs {
		if err := record(id, string(domain.ProjectRoleStaff)); err != nil {
			return err
		}
	}
	return nil
}

func (s *ProjectService) verifyMembersExist(ctx context.Context, team domain.TeamAssignments) error {
	ids := (&domain.Project{Team: team}).MemberIDs()
	if len(ids) == 0 {
		return nil
	}
	found, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return apperrors.MapError(err)
	}
	if len(found) != len(ids) {
		known := make(map[string]struct{}, len(found))
		for _, user := range found {
			known[user.ID] = struct{}{}
		}
		var missing []string
		for _, id := range ids {
			if _, ok := known[id]; !ok {
				missing = append(missing, id)
			}
		}
		return apperrors.NewValidationError("unknown team member ids", map[string]any{"user_ids": missing})
	}
	return nil
}

func (s *ProjectService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = s.now()
	_ = s.dispatcher.Publish(ctx, event)
}
