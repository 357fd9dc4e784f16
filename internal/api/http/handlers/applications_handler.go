package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/financing-service/internal/api/dto"
	"github.com/spec-kit/financing-service/internal/auth"
	"github.com/spec-kit/financing-service/internal/domain"
	"github.com/spec-kit/financing-service/internal/service"
	apperrors "github.com/spec-kit/financing-service/pkg/util"
)

// ApplicationsHandler exposes financing application endpoints. The
// admin listing is a single operation registered under both the
// applications and admin route groups.
type ApplicationsHandler struct {
	applications *service.ApplicationService
}

// NewApplicationsHandler constructs handler.
func NewApplicationsHandler(applicationService *service.ApplicationService) *ApplicationsHandler {
	return &ApplicationsHandler{applications: applicationService}
}

// Submit handles POST /api/applications.
func (h *ApplicationsHandler) Submit(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("invalid or expired token")
	}

	var req dto.SubmitApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	application, err := h.applications.Submit(c.Context(), identity, service.ApplicationSubmitInput{
		ServiceName: req.ServiceName,
		Reason:      req.Reason,
		PaymentPlan: req.PaymentPlan,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{"application": dto.NewApplicationResponse(application)},
	})
}

// ListMine handles GET /api/applications/my.
func (h *ApplicationsHandler) ListMine(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("invalid or expired token")
	}

	applications, err := h.applications.ListMine(c.Context(), identity.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{"applications": dto.NewApplicationResponses(applications)},
	})
}

// ListAll handles GET /api/applications and GET /api/admin/applications.
func (h *ApplicationsHandler) ListAll(c *fiber.Ctx) error {
	applications, err := h.applications.ListAll(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{"applications": dto.NewApplicationWithRequesterResponses(applications)},
	})
}

// UpdateStatus handles PATCH /api/applications/:id/status.
func (h *ApplicationsHandler) UpdateStatus(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("invalid or expired token")
	}

	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid application id")
	}

	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	application, err := h.applications.UpdateStatus(c.Context(), identity, id, domain.ApplicationStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{"application": dto.NewApplicationResponse(application)},
	})
}
