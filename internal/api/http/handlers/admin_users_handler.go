package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/bumex/engagement-service/internal/api/dto"
	"github.com/bumex/engagement-service/internal/domain"
	"github.com/bumex/engagement-service/internal/service"
)

// AdminUsersHandler exposes account administration endpoints.
type AdminUsersHandler struct {
	admin *service.UserAdminService
}

// NewAdminUsersHandler constructs handler.
func NewAdminUsersHandler(admin *service.UserAdminService) *AdminUsersHandler {
	return &AdminUsersHandler{admin: admin}
}

// Approve handles POST /admin/users/:id/approve.
func (h *AdminUsersHandler) Approve(c *fiber.Ctx) error {
	actor, err := requireUser(c)
	if err != nil {
		return err
	}
	user, err := h.admin.ApproveUser(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// Block handles POST /admin/users/:id/block.
func (h *AdminUsersHandler) Block(c *fiber.Ctx) error {
	actor, err := requireUser(c)
	if err != nil {
		return err
	}
	user, err := h.admin.BlockUser(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// Unblock handles POST /admin/users/:id/unblock.
func (h *AdminUsersHandler) Unblock(c *fiber.Ctx) error {
	actor, err := requireUser(c)
	if err != nil {
		return err
	}
	user, err := h.admin.UnblockUser(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// ChangeRole handles POST /admin/users/:id/role.
func (h *AdminUsersHandler) ChangeRole(c *fiber.Ctx) error {
	actor, err := requireUser(c)
	if err != nil {
		return err
	}
	var req dto.ChangeRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	user, err := h.admin.ChangeRole(c.UserContext(), actor, c.Params("id"), domain.GlobalRole(req.Role))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}
