package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bumex/engagement-service/internal/domain"
	"github.com/bumex/engagement-service/internal/events"
	"github.com/bumex/engagement-service/internal/repository"
	apperrors "github.com/bumex/engagement-service/pkg/util"
)

// reviewWriteRetries bounds the optimistic-concurrency retry loop. Each
// retry re-reads the project, so the role precondition is re-checked against
// the state that will actually be written over.
const reviewWriteRetries = 3

// ReviewService drives the per-section review ladder and the legacy
// single-signature sign-off records.
type ReviewService struct {
	projects   repository.ProjectRepository
	dispatcher events.Dispatcher
	now        func() time.Time
}

// NewReviewService constructs the service.
func NewReviewService(projects repository.ProjectRepository, dispatcher events.Dispatcher) *ReviewService {
	return &ReviewService{projects: projects, dispatcher: dispatcher, now: time.Now}
}

// SectionState is the read-only view of one section for one viewer.
type SectionState struct {
	SectionID string                 `json:"section_id"`
	Level     domain.ReviewLevel     `json:"current_review_level"`
	Status    domain.ReviewStatus    `json:"status"`
	Indicator domain.ReviewIndicator `json:"indicator"`
}

// Review records the acting user's approval on a section and advances the
// ladder. The actor's project role must equal the section's current level
// exactly; anything else is Unauthorized. The write is guarded by the
// project version and retried on conflict, so two racing reviewers cannot
// both consume the same level.
func (s *ReviewService) Review(ctx context.Context, projectID, sectionID string, actor *domain.User) (*domain.SectionReview, error) {
	var result *domain.SectionReview
	var actedAs domain.ReviewLevel

	err := s.withProjectRetry(ctx, projectID, func(project *domain.Project) (*domain.SectionReview, error) {
		role := project.RoleOf(actor.ID)
		if role == "" {
			return nil, apperrors.NewUnauthorized("no role on this engagement")
		}

		review := project.SectionReviewFor(sectionID)
		if review == nil {
			review = domain.NewSectionReview()
		}
		if domain.ReviewLevel(role) != review.CurrentReviewLevel {
			return nil, apperrors.NewUnauthorized("section is not awaiting this role")
		}

		actedAs = review.CurrentReviewLevel
		review.RecordReview(actedAs, domain.ReviewEntry{
			UserID:     actor.ID,
			UserName:   actor.Name,
			ReviewedAt: s.now(),
		})
		result = review
		return review, nil
	}, func(project *domain.Project, review *domain.SectionReview) error {
		return s.projects.UpdateSectionReview(ctx, projectID, sectionID, review, project.Version)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventSectionReviewed,
		ProjectID: projectID,
		SectionID: sectionID,
		Actor:     events.Actor{UserID: actor.ID, Name: actor.Name},
		Payload: events.SectionReviewedPayload{
			ReviewedAs: actedAs,
			NewLevel:   result.CurrentReviewLevel,
			Status:     result.Status,
		},
	})
	return result, nil
}

// Unreview rolls the section back from the acting user's tier. Entries at
// that tier and every tier above it are cleared, since higher approvals
// presuppose the lower review stood unmodified. Global dev/admin users may
// unreview without a project role; they reset from staff.
func (s *ReviewService) Unreview(ctx context.Context, projectID, sectionID string, actor *domain.User) (*domain.SectionReview, error) {
	var result *domain.SectionReview
	var clearedFrom domain.ReviewLevel

	err := s.withProjectRetry(ctx, projectID, func(project *domain.Project) (*domain.SectionReview, error) {
		role := project.RoleOf(actor.ID)
		if role == "" && !actor.IsDevOrAdmin() {
			return nil, apperrors.NewUnauthorized("no role on this engagement")
		}

		clearedFrom = domain.ReviewLevelStaff
		if role != "" {
			clearedFrom = domain.ReviewLevel(role)
		}

		review := project.SectionReviewFor(sectionID)
		if review == nil {
			review = domain.NewSectionReview()
		}
		review.ClearFrom(clearedFrom)
		result = review
		return review, nil
	}, func(project *domain.Project, review *domain.SectionReview) error {
		return s.projects.UpdateSectionReview(ctx, projectID, sectionID, review, project.Version)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventSectionUnreviewed,
		ProjectID: projectID,
		SectionID: sectionID,
		Actor:     events.Actor{UserID: actor.ID, Name: actor.Name},
		Payload: events.SectionUnreviewedPayload{
			ClearedFrom: clearedFrom,
			NewLevel:    result.CurrentReviewLevel,
			Status:      result.Status,
		},
	})
	return result, nil
}

// SignOff sets the deprecated single-signature record for a section. No
// role sequencing applies; any team member or a global dev/admin may sign.
func (s *ReviewService) SignOff(ctx context.Context, projectID, sectionID string, actor *domain.User) (*domain.SignOffRecord, error) {
	now := s.now()
	record := &domain.SignOffRecord{Signed: true, SignedBy: actor.ID, SignedAt: &now}
	if err := s.writeSignOff(ctx, projectID, sectionID, actor, record); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type:      events.EventSectionSigned,
		ProjectID: projectID,
		SectionID: sectionID,
		Actor:     events.Actor{UserID: actor.ID, Name: actor.Name},
	})
	return record, nil
}

// Unsign clears the deprecated sign-off record.
func (s *ReviewService) Unsign(ctx context.Context, projectID, sectionID string, actor *domain.User) error {
	if err := s.writeSignOff(ctx, projectID, sectionID, actor, nil); err != nil {
		return err
	}
	s.publish(ctx, events.Event{
		Type:      events.EventSectionUnsigned,
		ProjectID: projectID,
		SectionID: sectionID,
		Actor:     events.Actor{UserID: actor.ID, Name: actor.Name},
	})
	return nil
}

func (s *ReviewService) writeSignOff(ctx context.Context, projectID, sectionID string, actor *domain.User, record *domain.SignOffRecord) error {
	for attempt := 0; attempt < reviewWriteRetries; attempt++ {
		project, err := s.getProject(ctx, projectID)
		if err != nil {
			return err
		}
		if project.RoleOf(actor.ID) == "" && !actor.IsDevOrAdmin() {
			return apperrors.NewUnauthorized("no role on this engagement")
		}
		err = s.projects.UpdateSignOff(ctx, projectID, sectionID, record, project.Version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return apperrors.NewPersistenceFailed(err)
		}
	}
	return apperrors.NewConflict("section is being updated concurrently, try again", nil)
}

// SectionStateFor returns the current level, status, and viewer indicator
// for one section, defaulting to an untouched staff-level state.
func (s *ReviewService) SectionStateFor(ctx context.Context, projectID, sectionID string, viewer *domain.User) (*SectionState, error) {
	project, err := s.getProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.RoleOf(viewer.ID) == "" && !viewer.IsDevOrAdmin() {
		return nil, apperrors.NewUnauthorized("no role on this engagement")
	}
	return sectionState(project, sectionID, viewer), nil
}

// ProjectReviewSummary returns the per-section state for every section that
// has a review record, computed for the viewing user.
func (s *ReviewService) ProjectReviewSummary(ctx context.Context, projectID string, viewer *domain.User) ([]SectionState, error) {
	project, err := s.getProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.RoleOf(viewer.ID) == "" && !viewer.IsDevOrAdmin() {
		return nil, apperrors.NewUnauthorized("no role on this engagement")
	}
	states := make([]SectionState, 0, len(project.Reviews))
	for sectionID := range project.Reviews {
		states = append(states, *sectionState(project, sectionID, viewer))
	}
	return states, nil
}

func sectionState(project *domain.Project, sectionID string, viewer *domain.User) *SectionState {
	review := project.SectionReviewFor(sectionID)
	state := &SectionState{
		SectionID: sectionID,
		Level:     domain.ReviewLevelStaff,
		Status:    domain.ReviewStatusNotReviewed,
	}
	if review != nil {
		state.Level = review.CurrentReviewLevel
		state.Status = review.Status
	}
	state.Indicator = review.IndicatorFor(project.RoleOf(viewer.ID))
	return state
}

// withProjectRetry reads the project, applies the mutation, and commits it
// under the version guard, re-running the whole read-apply-commit cycle on
// conflict.
func (s *ReviewService) withProjectRetry(
	ctx context.Context,
	projectID string,
	apply func(*domain.Project) (*domain.SectionReview, error),
	commit func(*domain.Project, *domain.SectionReview) error,
) error {
	for attempt := 0; attempt < reviewWriteRetries; attempt++ {
		project, err := s.getProject(ctx, projectID)
		if err != nil {
			return err
		}
		review, err := apply(project)
		if err != nil {
			return err
		}
		err = commit(project, review)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return apperrors.NewPersistenceFailed(err)
		}
	}
	return apperrors.NewConflict("section is being updated concurrently, try again", nil)
}

func (s *ReviewService) getProject(ctx context.Context, projectID string) (*domain.Project, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("project", map[string]any{"project_id": projectID})
		}
		return nil, apperrors.MapError(err)
	}
	return project, nil
}

func (s *ReviewService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = s.now()
	_ = s.dispatcher.Publish(ctx, event)
}
