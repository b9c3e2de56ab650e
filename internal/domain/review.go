package domain

import "time"

// ReviewLevel is a step on the fixed review escalation ladder.
type ReviewLevel string

const (
	ReviewLevelStaff       ReviewLevel = "staff"
	ReviewLevelInCharge    ReviewLevel = "incharge"
	ReviewLevelManager     ReviewLevel = "manager"
	ReviewLevelPartner     ReviewLevel = "partner"
	ReviewLevelLeadPartner ReviewLevel = "lead_partner"
	ReviewLevelCompleted   ReviewLevel = "completed"
)

// ReviewLadder is the ordered sequence of tiers a section passes through.
// ReviewLevelCompleted is the terminal state, not a tier.
var ReviewLadder = []ReviewLevel{
	ReviewLevelStaff,
	ReviewLevelInCharge,
	ReviewLevelManager,
	ReviewLevelPartner,
	ReviewLevelLeadPartner,
}

// LadderIndex returns the position of a tier on the ladder, or -1 when the
// level is not a reviewable tier (e.g. completed).
func LadderIndex(level ReviewLevel) int {
	for i, l := range ReviewLadder {
		if l == level {
			return i
		}
	}
	return -1
}

// NextLevel returns the level that follows the given tier on the ladder.
func NextLevel(level ReviewLevel) ReviewLevel {
	idx := LadderIndex(level)
	if idx < 0 || idx == len(ReviewLadder)-1 {
		return ReviewLevelCompleted
	}
	return ReviewLadder[idx+1]
}

// ReviewStatus is the derived per-section status.
type ReviewStatus string

const (
	ReviewStatusNotReviewed    ReviewStatus = "not_reviewed"
	ReviewStatusReadyForReview ReviewStatus = "ready_for_review"
	ReviewStatusReviewed       ReviewStatus = "reviewed"
)

// ReviewEntry records one sign-off by one reviewer at one tier.
type ReviewEntry struct {
	UserID     string    `json:"user_id"`
	UserName   string    `json:"user_name"`
	ReviewedAt time.Time `json:"reviewed_at"`
}

// SectionReview tracks the review progression of a single documentation
// section. CurrentReviewLevel is always the next unconsumed tier on the
// ladder, and Status is derived from it plus the recorded entries.
type SectionReview struct {
	StaffReviews       []ReviewEntry `json:"staff_reviews"`
	InChargeReviews    []ReviewEntry `json:"incharge_reviews"`
	ManagerReviews     []ReviewEntry `json:"manager_reviews"`
	PartnerReviews     []ReviewEntry `json:"partner_reviews"`
	LeadPartnerReviews []ReviewEntry `json:"lead_partner_reviews"`
	Status             ReviewStatus  `json:"status"`
	CurrentReviewLevel ReviewLevel   `json:"current_review_level"`
}

// NewSectionReview builds the zero-progress record created lazily on the
// first review action against a section.
func NewSectionReview() *SectionReview {
	return &SectionReview{
		Status:             ReviewStatusNotReviewed,
		CurrentReviewLevel: ReviewLevelStaff,
	}
}

func (r *SectionReview) entriesFor(level ReviewLevel) *[]ReviewEntry {
	switch level {
	case ReviewLevelStaff:
		return &r.StaffReviews
	case ReviewLevelInCharge:
		return &r.InChargeReviews
	case ReviewLevelManager:
		return &r.ManagerReviews
	case ReviewLevelPartner:
		return &r.PartnerReviews
	case ReviewLevelLeadPartner:
		return &r.LeadPartnerReviews
	default:
		return nil
	}
}

// EntriesAt returns a copy of the entry list for a tier.
func (r *SectionReview) EntriesAt(level ReviewLevel) []ReviewEntry {
	list := r.entriesFor(level)
	if list == nil {
		return nil
	}
	out := make([]ReviewEntry, len(*list))
	copy(out, *list)
	return out
}

// HasEntries reports whether any tier holds at least one review entry.
func (r *SectionReview) HasEntries() bool {
	for _, level := range ReviewLadder {
		if len(*r.entriesFor(level)) > 0 {
			return true
		}
	}
	return false
}

// RecordReview appends an entry at the given tier and advances the current
// level to the next tier on the ladder. The caller must have verified that
// level equals CurrentReviewLevel.
func (r *SectionReview) RecordReview(level ReviewLevel, entry ReviewEntry) {
	list := r.entriesFor(level)
	if list == nil {
		return
	}
	*list = append(*list, entry)
	r.CurrentReviewLevel = NextLevel(level)
	r.recomputeStatus()
}

// ClearFrom removes all entries at the given tier and every tier above it,
// then resets CurrentReviewLevel to the first tier whose list is empty,
// scanning upward from staff. Higher-tier approvals presuppose the lower
// tier's review stood unmodified, so they are invalidated together.
func (r *SectionReview) ClearFrom(level ReviewLevel) {
	start := LadderIndex(level)
	if start < 0 {
		return
	}
	for i := start; i < len(ReviewLadder); i++ {
		*r.entriesFor(ReviewLadder[i]) = nil
	}
	r.CurrentReviewLevel = ReviewLevelCompleted
	for _, tier := range ReviewLadder {
		if len(*r.entriesFor(tier)) == 0 {
			r.CurrentReviewLevel = tier
			break
		}
	}
	r.recomputeStatus()
}

func (r *SectionReview) recomputeStatus() {
	switch {
	case r.CurrentReviewLevel == ReviewLevelCompleted:
		r.Status = ReviewStatusReviewed
	case r.HasEntries():
		r.Status = ReviewStatusReadyForReview
	default:
		r.Status = ReviewStatusNotReviewed
	}
}

// ReviewIndicator is a display hint computed for a particular viewer.
type ReviewIndicator string

const (
	// IndicatorActionable marks sections awaiting the viewer's own tier.
	IndicatorActionable ReviewIndicator = "orange"
	// IndicatorComplete marks fully reviewed sections.
	IndicatorComplete ReviewIndicator = "green"
	IndicatorNeutral  ReviewIndicator = "none"
)

// IndicatorFor computes the ternary display hint for a viewer holding the
// given project role. A nil receiver means no review record exists yet, in
// which case the level defaults to staff.
func (r *SectionReview) IndicatorFor(role ProjectRole) ReviewIndicator {
	level := ReviewLevelStaff
	if r != nil {
		level = r.CurrentReviewLevel
	}
	if level == ReviewLevelCompleted {
		return IndicatorComplete
	}
	if role != "" && ReviewLevel(role) == level {
		return IndicatorActionable
	}
	return IndicatorNeutral
}

// SignOffRecord is the deprecated single-signature model kept for documents
// persisted before the tiered workflow existed. No role sequencing applies.
type SignOffRecord struct {
	Signed   bool       `json:"signed"`
	SignedBy string     `json:"signedBy,omitempty"`
	SignedAt *time.Time `json:"signedAt,omitempty"`
}
