package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutorconnect-api/internal/models"
	appErrors "github.com/noah-isme/tutorconnect-api/pkg/errors"
	"github.com/noah-isme/tutorconnect-api/pkg/response"
)

type adminService interface {
	SetBanned(ctx context.Context, kind models.UserKind, id string, banned bool) error
	VerifyTeacher(ctx context.Context, id string) error
	Stats(ctx context.Context) (*models.PlatformStats, error)
}

// AdminHandler exposes moderation endpoints.
type AdminHandler struct {
	admin adminService
}

// NewAdminHandler constructs an admin handler.
func NewAdminHandler(admin adminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// Ban godoc
// @Summary Ban a user
// @Tags Admin
// @Param role path string true "student or teacher"
// @Param id path string true "User ID"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/users/{role}/{id}/ban [patch]
func (h *AdminHandler) Ban(c *gin.Context) {
	h.setBanned(c, true)
}

// Unban godoc
// @Summary Lift a ban
// @Tags Admin
// @Param role path string true "student or teacher"
// @Param id path string true "User ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /admin/users/{role}/{id}/unban [patch]
func (h *AdminHandler) Unban(c *gin.Context) {
	h.setBanned(c, false)
}

func (h *AdminHandler) setBanned(c *gin.Context, banned bool) {
	kind, err := models.ParseUserKind(c.Param("role"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unknown role"))
		return
	}
	if err := h.admin.SetBanned(c.Request.Context(), kind, c.Param("id"), banned); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// VerifyTeacher godoc
// @Summary Verify a teacher
// @Tags Admin
// @Param id path string true "Teacher ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /admin/teachers/{id}/verify [patch]
func (h *AdminHandler) VerifyTeacher(c *gin.Context) {
	if err := h.admin.VerifyTeacher(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Stats godoc
// @Summary Platform counters
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.admin.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}
