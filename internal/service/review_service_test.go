package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bumex/engagement-service/internal/domain"
	"github.com/bumex/engagement-service/internal/events"
	"github.com/bumex/engagement-service/internal/repository"
	apperrors "github.com/bumex/engagement-service/pkg/util"
)

// ---------- fakes ----------

type fakeDispatcher struct {
	published []events.Event
}

func (d *fakeDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *fakeDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *fakeDispatcher) last() *events.Event {
	if len(d.published) == 0 {
		return nil
	}
	return &d.published[len(d.published)-1]
}

type fakeProjectRepo struct {
	project       *domain.Project
	conflictsLeft int
	updateErr     error
	reviewWrites  int
	signOffWrites int
}

func (f *fakeProjectRepo) Create(_ context.Context, project *domain.Project) error {
	project.ID = "proj-1"
	f.project = cloneProject(project)
	return nil
}

func (f *fakeProjectRepo) GetByID(_ context.Context, id string) (*domain.Project, error) {
	if f.project == nil || f.project.ID != id {
		return nil, pgx.ErrNoRows
	}
	// Fresh copy per read, as a store would return.
	return cloneProject(f.project), nil
}

func (f *fakeProjectRepo) ListByMember(_ context.Context, _ string, _ bool) ([]domain.Project, error) {
	if f.project == nil {
		return nil, nil
	}
	return []domain.Project{*cloneProject(f.project)}, nil
}

func (f *fakeProjectRepo) UpdateTeam(_ context.Context, project *domain.Project) error {
	f.project.Team = project.Team
	f.project.Version++
	project.Version = f.project.Version
	return nil
}

func (f *fakeProjectRepo) SetArchived(_ context.Context, id string, archived bool) error {
	f.project.Archived = archived
	return nil
}

func (f *fakeProjectRepo) UpdateSectionReview(_ context.Context, projectID, sectionID string, review *domain.SectionReview, expectedVersion int64) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.conflictsLeft > 0 {
		f.conflictsLeft--
		f.project.Version++
		return repository.ErrVersionConflict
	}
	if expectedVersion != f.project.Version {
		return repository.ErrVersionConflict
	}
	if f.project.Reviews == nil {
		f.project.Reviews = make(map[string]*domain.SectionReview)
	}
	f.project.Reviews[sectionID] = cloneReview(review)
	f.project.Version++
	f.reviewWrites++
	return nil
}

func (f *fakeProjectRepo) UpdateSignOff(_ context.Context, projectID, sectionID string, record *domain.SignOffRecord, expectedVersion int64) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if expectedVersion != f.project.Version {
		return repository.ErrVersionConflict
	}
	if f.project.SignOffs == nil {
		f.project.SignOffs = make(map[string]*domain.SignOffRecord)
	}
	if record == nil {
		delete(f.project.SignOffs, sectionID)
	} else {
		f.project.SignOffs[sectionID] = record
	}
	f.project.Version++
	f.signOffWrites++
	return nil
}

func cloneProject(project *domain.Project) *domain.Project {
	raw, _ := json.Marshal(project)
	var out domain.Project
	_ = json.Unmarshal(raw, &out)
	out.ID = project.ID
	out.CreatedAt = project.CreatedAt
	out.UpdatedAt = project.UpdatedAt
	return &out
}

func cloneReview(review *domain.SectionReview) *domain.SectionReview {
	raw, _ := json.Marshal(review)
	var out domain.SectionReview
	_ = json.Unmarshal(raw, &out)
	return &out
}

// ---------- helpers ----------

func testProject() *domain.Project {
	return &domain.Project{
		ID:         "proj-1",
		ClientName: "Acme Mining",
		Team: domain.TeamAssignments{
			LeadPartnerID: "lp1",
			PartnerIDs:    []string{"p1"},
			ManagerIDs:    []string{"m1"},
			InChargeIDs:   []string{"ic1"},
			StaffIDs:      []string{"s1"},
		},
		Reviews: make(map[string]*domain.SectionReview),
	}
}

func reviewAtManagerLevel() *domain.SectionReview {
	review := domain.NewSectionReview()
	review.RecordReview(domain.ReviewLevelStaff, domain.ReviewEntry{UserID: "s1", UserName: "Staff One", ReviewedAt: time.Now()})
	review.RecordReview(domain.ReviewLevelInCharge, domain.ReviewEntry{UserID: "ic1", UserName: "In-Charge One", ReviewedAt: time.Now()})
	return review
}

func fullyReviewed() *domain.SectionReview {
	review := reviewAtManagerLevel()
	review.RecordReview(domain.ReviewLevelManager, domain.ReviewEntry{UserID: "m1", ReviewedAt: time.Now()})
	review.RecordReview(domain.ReviewLevelPartner, domain.ReviewEntry{UserID: "p1", ReviewedAt: time.Now()})
	review.RecordReview(domain.ReviewLevelLeadPartner, domain.ReviewEntry{UserID: "lp1", ReviewedAt: time.Now()})
	return review
}

func newReviewService(repo *fakeProjectRepo) (*ReviewService, *fakeDispatcher) {
	dispatcher := &fakeDispatcher{}
	return NewReviewService(repo, dispatcher), dispatcher
}

// ---------- tests ----------

func TestReviewHappyPathAdvancesToPartner(t *testing.T) {
	t.Parallel()

	project := testProject()
	project.Reviews["materiality"] = reviewAtManagerLevel()
	repo := &fakeProjectRepo{project: project}
	svc, dispatcher := newReviewService(repo)

	manager := &domain.User{ID: "m1", Name: "Manager One", Role: domain.GlobalRoleUser}
	result, err := svc.Review(context.Background(), "proj-1", "materiality", manager)
	require.NoError(t, err)

	assert.Equal(t, domain.ReviewLevelPartner, result.CurrentReviewLevel)
	assert.Equal(t, domain.ReviewStatusReadyForReview, result.Status)
	require.Len(t, result.ManagerReviews, 1)
	assert.Equal(t, "m1", result.ManagerReviews[0].UserID)
	assert.Equal(t, "Manager One", result.ManagerReviews[0].UserName)

	stored := repo.project.Reviews["materiality"]
	assert.Equal(t, domain.ReviewLevelPartner, stored.CurrentReviewLevel)

	event := dispatcher.last()
	require.NotNil(t, event)
	assert.Equal(t, events.EventSectionReviewed, event.Type)
	assert.Equal(t, "materiality", event.SectionID)
}

func TestReviewRejectsRoleBelowCurrentLevel(t *testing.T) {
	t.Parallel()

	project := testProject()
	project.Reviews["materiality"] = reviewAtManagerLevel()
	repo := &fakeProjectRepo{project: project}
	svc, dispatcher := newReviewService(repo)

	staff := &domain.User{ID: "s1", Name: "Staff One", Role: domain.GlobalRoleUser}
	_, err := svc.Review(context.Background(), "proj-1", "materiality", staff)

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
	assert.Zero(t, repo.reviewWrites, "no state mutation on rejection")
	assert.Empty(t, dispatcher.published)

	// Stored record is untouched.
	stored := repo.project.Reviews["materiality"]
	assert.Equal(t, domain.ReviewLevelManager, stored.CurrentReviewLevel)
	assert.Empty(t, stored.ManagerReviews)
}

func TestReviewRejectsRoleAboveCurrentLevel(t *testing.T) {
	t.Parallel()

	project := testProject()
	repo := &fakeProjectRepo{project: project}
	svc, _ := newReviewService(repo)

	// Section untouched, so it awaits staff; a manager cannot jump in.
	manager := &domain.User{ID: "m1", Role: domain.GlobalRoleUser}
	_, err := svc.Review(context.Background(), "proj-1", "fraud_risk", manager)

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}

func TestReviewRejectsNonMember(t *testing.T) {
	t.Parallel()

	repo := &fakeProjectRepo{project: testProject()}
	svc, _ := newReviewService(repo)

	outsider := &domain.User{ID: "x1", Role: domain.GlobalRoleAdmin}
	_, err := svc.Review(context.Background(), "proj-1", "materiality", outsider)

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"), "admin override does not apply to Review")
}

func TestReviewCreatesRecordLazily(t *testing.T) {
	t.Parallel()

	repo := &fakeProjectRepo{project: testProject()}
	svc, _ := newReviewService(repo)

	staff := &domain.User{ID: "s1", Name: "Staff One", Role: domain.GlobalRoleUser}
	result, err := svc.Review(context.Background(), "proj-1", "materiality", staff)
	require.NoError(t, err)

	assert.Equal(t, domain.ReviewLevelInCharge, result.CurrentReviewLevel)
	assert.Equal(t, domain.ReviewStatusReadyForReview, result.Status)
	require.Len(t, result.StaffReviews, 1)
}

func TestReviewRetriesOnVersionConflict(t *testing.T) {
	t.Parallel()

	project := testProject()
	project.Reviews["materiality"] = reviewAtManagerLevel()
	repo := &fakeProjectRepo{project: project, conflictsLeft: 1}
	svc, _ := newReviewService(repo)

	manager := &domain.User{ID: "m1", Role: domain.GlobalRoleUser}
	result, err := svc.Review(context.Background(), "proj-1", "materiality", manager)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewLevelPartner, result.CurrentReviewLevel)
	assert.Equal(t, 1, repo.reviewWrites)
}

func TestReviewGivesUpAfterRepeatedConflicts(t *testing.T) {
	t.Parallel()

	project := testProject()
	project.Reviews["materiality"] = reviewAtManagerLevel()
	repo := &fakeProjectRepo{project: project, conflictsLeft: 10}
	svc, _ := newReviewService(repo)

	manager := &domain.User{ID: "m1", Role: domain.GlobalRoleUser}
	_, err := svc.Review(context.Background(), "proj-1", "materiality", manager)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestReviewSurfacesPersistenceFailure(t *testing.T) {
	t.Parallel()

	project := testProject()
	project.Reviews["materiality"] = reviewAtManagerLevel()
	repo := &fakeProjectRepo{project: project, updateErr: errors.New("write refused")}
	svc, _ := newReviewService(repo)

	manager := &domain.User{ID: "m1", Role: domain.GlobalRoleUser}
	_, err := svc.Review(context.Background(), "proj-1", "materiality", manager)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "PERSISTENCE_FAILED"))

	// Store still holds the pre-call state.
	stored := repo.project.Reviews["materiality"]
	assert.Equal(t, domain.ReviewLevelManager, stored.CurrentReviewLevel)
}

func TestUnreviewCascadeFromInCharge(t *testing.T) {
	t.Parallel()

	project := testProject()
	project.Reviews["materiality"] = fullyReviewed()
	repo := &fakeProjectRepo{project: project}
	svc, dispatcher := newReviewService(repo)

	inCharge := &domain.User{ID: "ic1", Name: "In-Charge One", Role: domain.GlobalRoleUser}
	result, err := svc.Unreview(context.Background(), "proj-1", "materiality", inCharge)
	require.NoError(t, err)

	assert.Len(t, result.StaffReviews, 1, "staff tier untouched")
	assert.Empty(t, result.InChargeReviews)
	assert.Empty(t, result.ManagerReviews)
	assert.Empty(t, result.PartnerReviews)
	assert.Empty(t, result.LeadPartnerReviews)
	assert.Equal(t, domain.ReviewLevelInCharge, result.CurrentReviewLevel)
	assert.Equal(t, domain.ReviewStatusReadyForReview, result.Status)

	event := dispatcher.last()
	require.NotNil(t, event)
	assert.Equal(t, events.EventSectionUnreviewed, event.Type)
}

func TestUnreviewByAdminWithoutRoleResetsFromStaff(t *testing.T) {
	t.Parallel()

	project := testProject()
	project.Reviews["materiality"] = fullyReviewed()
	repo := &fakeProjectRepo{project: project}
	svc, _ := newReviewService(repo)

	admin := &domain.User{ID: "adm1", Role: domain.GlobalRoleAdmin}
	result, err := svc.Unreview(context.Background(), "proj-1", "materiality", admin)
	require.NoError(t, err)

	assert.False(t, result.HasEntries())
	assert.Equal(t, domain.ReviewLevelStaff, result.CurrentReviewLevel)
	assert.Equal(t, domain.ReviewStatusNotReviewed, result.Status)
}

func TestUnreviewRejectsOutsider(t *testing.T) {
	t.Parallel()

	project := testProject()
	project.Reviews["materiality"] = fullyReviewed()
	repo := &fakeProjectRepo{project: project}
	svc, _ := newReviewService(repo)

	outsider := &domain.User{ID: "x1", Role: domain.GlobalRoleUser}
	_, err := svc.Unreview(context.Background(), "proj-1", "materiality", outsider)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}

func TestSignOffAndUnsignLegacyRecords(t *testing.T) {
	t.Parallel()

	repo := &fakeProjectRepo{project: testProject()}
	svc, dispatcher := newReviewService(repo)

	staff := &domain.User{ID: "s1", Role: domain.GlobalRoleUser}
	record, err := svc.SignOff(context.Background(), "proj-1", "cash", staff)
	require.NoError(t, err)
	assert.True(t, record.Signed)
	assert.Equal(t, "s1", record.SignedBy)
	require.NotNil(t, record.SignedAt)
	require.NotNil(t, repo.project.SignOffs["cash"])

	require.NoError(t, svc.Unsign(context.Background(), "proj-1", "cash", staff))
	_, exists := repo.project.SignOffs["cash"]
	assert.False(t, exists)

	assert.Equal(t, events.EventSectionUnsigned, dispatcher.last().Type)
}

func TestSignOffRejectsOutsider(t *testing.T) {
	t.Parallel()

	repo := &fakeProjectRepo{project: testProject()}
	svc, _ := newReviewService(repo)

	outsider := &domain.User{ID: "x1", Role: domain.GlobalRoleUser}
	_, err := svc.SignOff(context.Background(), "proj-1", "cash", outsider)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}

func TestSectionStateForViewer(t *testing.T) {
	t.Parallel()

	project := testProject()
	project.Reviews["materiality"] = reviewAtManagerLevel()
	repo := &fakeProjectRepo{project: project}
	svc, _ := newReviewService(repo)

	manager := &domain.User{ID: "m1", Role: domain.GlobalRoleUser}
	state, err := svc.SectionStateFor(context.Background(), "proj-1", "materiality", manager)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewLevelManager, state.Level)
	assert.Equal(t, domain.IndicatorActionable, state.Indicator)

	staff := &domain.User{ID: "s1", Role: domain.GlobalRoleUser}
	state, err = svc.SectionStateFor(context.Background(), "proj-1", "untouched", staff)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewLevelStaff, state.Level)
	assert.Equal(t, domain.ReviewStatusNotReviewed, state.Status)
	assert.Equal(t, domain.IndicatorActionable, state.Indicator)

	outsider := &domain.User{ID: "x1", Role: domain.GlobalRoleUser}
	_, err = svc.SectionStateFor(context.Background(), "proj-1", "materiality", outsider)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}

func TestReviewUnknownProject(t *testing.T) {
	t.Parallel()

	repo := &fakeProjectRepo{}
	svc, _ := newReviewService(repo)

	user := &domain.User{ID: "s1", Role: domain.GlobalRoleUser}
	_, err := svc.Review(context.Background(), "missing", "materiality", user)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}
