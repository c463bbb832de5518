package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutorconnect-api/internal/models"
	"github.com/noah-isme/tutorconnect-api/pkg/response"
)

type resourceService interface {
	Create(ctx context.Context, teacherID string, req models.CreateResourceRequest) (*models.Resource, error)
	List(ctx context.Context, filter models.ResourceFilter) ([]models.Resource, error)
	Delete(ctx context.Context, actor models.Actor, id string) error
}

// ResourceHandler exposes learning resources.
type ResourceHandler struct {
	resources resourceService
}

// NewResourceHandler constructs a resource handler.
func NewResourceHandler(resources resourceService) *ResourceHandler {
	return &ResourceHandler{resources: resources}
}

// Create godoc
// @Summary Publish a resource
// @Tags Resources
// @Accept json
// @Produce json
// @Param payload body models.CreateResourceRequest true "Resource"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /teacher/resources [post]
func (h *ResourceHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req models.CreateResourceRequest
	if !bindJSON(c, &req, "invalid resource payload") {
		return
	}
	resource, err := h.resources.Create(c.Request.Context(), actor.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resource)
}

// Mine godoc
// @Summary Resources published by the current teacher
// @Tags Resources
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teacher/resources [get]
func (h *ResourceHandler) Mine(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	h.list(c, models.ResourceFilter{TeacherID: actor.ID})
}

// List godoc
// @Summary Browse resources
// @Tags Resources
// @Produce json
// @Param subject query string false "Subject"
// @Param teacher_id query string false "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /student/resources [get]
func (h *ResourceHandler) List(c *gin.Context) {
	h.list(c, models.ResourceFilter{TeacherID: c.Query("teacher_id"), Subject: c.Query("subject")})
}

func (h *ResourceHandler) list(c *gin.Context, filter models.ResourceFilter) {
	resources, err := h.resources.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, resources, len(resources))
}

// Delete godoc
// @Summary Delete a resource
// @Description Teachers may delete their own resources; admins may delete any
// @Tags Resources
// @Param id path string true "Resource ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teacher/resources/{id} [delete]
func (h *ResourceHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.resources.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
