package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(userID string) ReviewEntry {
	return ReviewEntry{UserID: userID, UserName: "User " + userID, ReviewedAt: time.Now()}
}

func TestReviewLadderAdvancesInOrder(t *testing.T) {
	t.Parallel()

	review := NewSectionReview()
	require.Equal(t, ReviewLevelStaff, review.CurrentReviewLevel)
	require.Equal(t, ReviewStatusNotReviewed, review.Status)

	expected := []ReviewLevel{
		ReviewLevelInCharge,
		ReviewLevelManager,
		ReviewLevelPartner,
		ReviewLevelLeadPartner,
		ReviewLevelCompleted,
	}

	for i, tier := range ReviewLadder {
		review.RecordReview(tier, entry("u1"))
		assert.Equal(t, expected[i], review.CurrentReviewLevel, "after reviewing at %s", tier)
	}
	assert.Equal(t, ReviewStatusReviewed, review.Status)
}

func TestStatusDerivation(t *testing.T) {
	t.Parallel()

	review := NewSectionReview()
	assert.Equal(t, ReviewStatusNotReviewed, review.Status)

	review.RecordReview(ReviewLevelStaff, entry("u1"))
	assert.Equal(t, ReviewStatusReadyForReview, review.Status)

	for _, tier := range ReviewLadder[1:] {
		review.RecordReview(tier, entry("u2"))
	}
	assert.Equal(t, ReviewLevelCompleted, review.CurrentReviewLevel)
	assert.Equal(t, ReviewStatusReviewed, review.Status)
}

func TestUnreviewCascadeClearsActingTierAndAbove(t *testing.T) {
	t.Parallel()

	review := NewSectionReview()
	for _, tier := range ReviewLadder {
		review.RecordReview(tier, entry("u-"+string(tier)))
	}
	require.Equal(t, ReviewLevelCompleted, review.CurrentReviewLevel)

	review.ClearFrom(ReviewLevelInCharge)

	assert.Len(t, review.StaffReviews, 1, "staff tier untouched")
	assert.Empty(t, review.InChargeReviews)
	assert.Empty(t, review.ManagerReviews)
	assert.Empty(t, review.PartnerReviews)
	assert.Empty(t, review.LeadPartnerReviews)
	assert.Equal(t, ReviewLevelInCharge, review.CurrentReviewLevel)
	assert.Equal(t, ReviewStatusReadyForReview, review.Status)
}

func TestUnreviewAtStaffResetsCompletely(t *testing.T) {
	t.Parallel()

	review := NewSectionReview()
	review.RecordReview(ReviewLevelStaff, entry("u1"))
	review.RecordReview(ReviewLevelInCharge, entry("u2"))

	review.ClearFrom(ReviewLevelStaff)

	assert.False(t, review.HasEntries())
	assert.Equal(t, ReviewLevelStaff, review.CurrentReviewLevel)
	assert.Equal(t, ReviewStatusNotReviewed, review.Status)
}

func TestClearFromNeverAdvancesLevel(t *testing.T) {
	t.Parallel()

	review := NewSectionReview()
	review.RecordReview(ReviewLevelStaff, entry("u1"))
	require.Equal(t, ReviewLevelInCharge, review.CurrentReviewLevel)

	// Clearing a tier above the current level leaves the level where it is.
	review.ClearFrom(ReviewLevelManager)
	assert.Equal(t, ReviewLevelInCharge, review.CurrentReviewLevel)
	assert.Equal(t, ReviewStatusReadyForReview, review.Status)
}

func TestRoleOfFirstMatchWins(t *testing.T) {
	t.Parallel()

	project := &Project{Team: TeamAssignments{
		LeadPartnerID: "lp1",
		PartnerIDs:    []string{"p1"},
		ManagerIDs:    []string{"m1", "dual"},
		InChargeIDs:   []string{"ic1"},
		StaffIDs:      []string{"s1", "dual"},
	}}

	assert.Equal(t, ProjectRoleLeadPartner, project.RoleOf("lp1"))
	assert.Equal(t, ProjectRolePartner, project.RoleOf("p1"))
	assert.Equal(t, ProjectRoleManager, project.RoleOf("m1"))
	assert.Equal(t, ProjectRoleInCharge, project.RoleOf("ic1"))
	assert.Equal(t, ProjectRoleStaff, project.RoleOf("s1"))
	assert.Equal(t, ProjectRole(""), project.RoleOf("stranger"))
	assert.Equal(t, ProjectRole(""), project.RoleOf(""))

	// Dual assignment resolves to the higher tier.
	assert.Equal(t, ProjectRoleManager, project.RoleOf("dual"))
}

func TestCurrentReviewLevelDefaultsToStaff(t *testing.T) {
	t.Parallel()

	project := &Project{}
	assert.Equal(t, ReviewLevelStaff, project.CurrentReviewLevelFor("materiality"))
}

func TestIndicatorFor(t *testing.T) {
	t.Parallel()

	review := NewSectionReview()
	review.RecordReview(ReviewLevelStaff, entry("u1"))
	require.Equal(t, ReviewLevelInCharge, review.CurrentReviewLevel)

	assert.Equal(t, IndicatorActionable, review.IndicatorFor(ProjectRoleInCharge))
	assert.Equal(t, IndicatorNeutral, review.IndicatorFor(ProjectRoleManager))
	assert.Equal(t, IndicatorNeutral, review.IndicatorFor(""))

	for _, tier := range ReviewLadder[1:] {
		review.RecordReview(tier, entry("u2"))
	}
	assert.Equal(t, IndicatorComplete, review.IndicatorFor(ProjectRoleStaff))

	// A missing record reads as awaiting staff.
	var missing *SectionReview
	assert.Equal(t, IndicatorActionable, missing.IndicatorFor(ProjectRoleStaff))
	assert.Equal(t, IndicatorNeutral, missing.IndicatorFor(ProjectRolePartner))
}

func TestIsDevOrAdmin(t *testing.T) {
	t.Parallel()

	assert.True(t, (&User{Role: GlobalRoleDev}).IsDevOrAdmin())
	assert.True(t, (&User{Role: GlobalRoleAdmin}).IsDevOrAdmin())
	assert.False(t, (&User{Role: GlobalRoleSemiAdmin}).IsDevOrAdmin())
	assert.False(t, (&User{Role: GlobalRoleUser}).IsDevOrAdmin())
}
