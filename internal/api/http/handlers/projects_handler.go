package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/bumex/engagement-service/internal/api/dto"
	"github.com/bumex/engagement-service/internal/auth"
	"github.com/bumex/engagement-service/internal/domain"
	"github.com/bumex/engagement-service/internal/service"
)

// ProjectsHandler exposes engagement lifecycle endpoints.
type ProjectsHandler struct {
	projects *service.ProjectService
}

// NewProjectsHandler constructs handler.
func NewProjectsHandler(projects *service.ProjectService) *ProjectsHandler {
	return &ProjectsHandler{projects: projects}
}

// Create handles POST /projects.
func (h *ProjectsHandler) Create(c *fiber.Ctx) error {
	actor, err := requireUser(c)
	if err != nil {
		return err
	}

	var req dto.ProjectCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	project, err := h.projects.CreateProject(c.UserContext(), actor, service.ProjectCreateInput{
		ClientName: req.ClientName,
		Year:       req.Year,
		Metadata:   req.Metadata,
		Team:       req.Team.ToDomain(),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewProjectResponse(project)})
}

// Get handles GET /projects/:id.
func (h *ProjectsHandler) Get(c *fiber.Ctx) error {
	actor, err := requireUser(c)
	if err != nil {
		return err
	}
	project, err := h.projects.GetProject(c.UserContext(), c.Params("id"), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProjectResponse(project)})
}

// List handles GET /projects.
func (h *ProjectsHandler) List(c *fiber.Ctx) error {
	actor, err := requireUser(c)
	if err != nil {
		return err
	}
	includeArchived := c.QueryBool("include_archived", false)
	projects, err := h.projects.ListProjects(c.UserContext(), actor, includeArchived)
	if err != nil {
		return err
	}
	responses := make([]dto.ProjectResponse, 0, len(projects))
	for i := range projects {
		responses = append(responses, dto.NewProjectResponse(&projects[i]))
	}
	return c.JSON(fiber.Map{"data": responses})
}

// SetTeam handles PUT /projects/:id/team.
func (h *ProjectsHandler) SetTeam(c *fiber.Ctx) error {
	actor, err := requireUser(c)
	if err != nil {
		return err
	}
	var req dto.TeamRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	project, err := h.projects.SetTeam(c.UserContext(), c.Params("id"), actor, req.ToDomain())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProjectResponse(project)})
}

// Archive handles POST /projects/:id/archive.
func (h *ProjectsHandler) Archive(c *fiber.Ctx) error {
	actor, err := requireUser(c)
	if err != nil {
		return err
	}
	if err := h.projects.ArchiveProject(c.UserContext(), c.Params("id"), actor); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"archived": true}})
}

func requireUser(c *fiber.Ctx) (*domain.User, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}
	return principal.User, nil
}
