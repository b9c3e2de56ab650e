package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bumex/engagement-service/internal/service"
)

// ReviewsHandler exposes the section review/sign-off workflow.
type ReviewsHandler struct {
	reviews *service.ReviewService
}

// NewReviewsHandler constructs handler.
func NewReviewsHandler(reviews *service.ReviewService) *ReviewsHandler {
	return &ReviewsHandler{reviews: reviews}
}

// Review handles POST /projects/:id/sections/:sectionID/review.
func (h *ReviewsHandler) Review(c *fiber.Ctx) error {
	actor, err := requireUser(c)
	if err != nil {
		return err
	}
	review, err := h.reviews.Review(c.UserContext(), c.Params("id"), c.Params("sectionID"), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": review})
}

// Unreview handles POST /projects/:id/sections/:sectionID/unreview.
func (h *ReviewsHandler) Unreview(c *fiber.Ctx) error {
	actor, err := requireUser(c)
	if err != nil {
		return err
	}
	review, err := h.reviews.Unreview(c.UserContext(), c.Params("id"), c.Params("sectionID"), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": review})
}

// SignOff handles POST /projects/:id/sections/:sectionID/signoff (legacy).
func (h *ReviewsHandler) SignOff(c *fiber.Ctx) error {
	actor, err := requireUser(c)
	if err != nil {
		return err
	}
	record, err := h.reviews.SignOff(c.UserContext(), c.Params("id"), c.Params("sectionID"), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": record})
}

// Unsign handles DELETE /projects/:id/sections/:sectionID/signoff (legacy).
func (h *ReviewsHandler) Unsign(c *fiber.Ctx) error {
	actor, err := requireUser(c)
	if err != nil {
		return err
	}
	if err := h.reviews.Unsign(c.UserContext(), c.Params("id"), c.Params("sectionID"), actor); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"unsigned": true}})
}

// SectionState handles GET /projects/:id/sections/:sectionID/review.
func (h *ReviewsHandler) SectionState(c *fiber.Ctx) error {
	actor, err := requireUser(c)
	if err != nil {
		return err
	}
	state, err := h.reviews.SectionStateFor(c.UserContext(), c.Params("id"), c.Params("sectionID"), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": state})
}

// Summary handles GET /projects/:id/reviews.
func (h *ReviewsHandler) Summary(c *fiber.Ctx) error {
	actor, err := requireUser(c)
	if err != nil {
		return err
	}
	states, err := h.reviews.ProjectReviewSummary(c.UserContext(), c.Params("id"), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": states})
}
