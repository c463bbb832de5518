package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutorconnect-api/internal/models"
	"github.com/noah-isme/tutorconnect-api/pkg/response"
)

type teacherService interface {
	Profile(ctx context.Context, id string) (*models.TeacherProfile, error)
	UpdateProfile(ctx context.Context, id string, req models.UpdateTeacherProfileRequest) (*models.Teacher, error)
	AddSubjects(ctx context.Context, id string, req models.AddSubjectsRequest) ([]string, error)
	RemoveSubject(ctx context.Context, id string, req models.RemoveSubjectRequest) ([]string, error)
}

type availabilityService interface {
	List(ctx context.Context, teacherID string) ([]models.Availability, error)
	Add(ctx context.Context, teacherID string, req models.AvailabilityRequest) (*models.Availability, error)
	Remove(ctx context.Context, teacherID string, req models.AvailabilityRequest) error
}

// TeacherHandler serves the teacher's own profile and calendar.
type TeacherHandler struct {
	teachers     teacherService
	availability availabilityService
}

// NewTeacherHandler constructs a teacher handler.
func NewTeacherHandler(teachers teacherService, availability availabilityService) *TeacherHandler {
	return &TeacherHandler{teachers: teachers, availability: availability}
}

// Profile godoc
// @Summary Current teacher profile
// @Tags Teachers
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teacher/profile [get]
func (h *TeacherHandler) Profile(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	h.respondProfile(c, actor.ID)
}

// PublicProfile godoc
// @Summary Teacher profile by id
// @Tags Teachers
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teachers/{id} [get]
func (h *TeacherHandler) PublicProfile(c *gin.Context) {
	h.respondProfile(c, c.Param("id"))
}

func (h *TeacherHandler) respondProfile(c *gin.Context, id string) {
	profile, err := h.teachers.Profile(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, profile)
}

// UpdateProfile godoc
// @Summary Update teacher profile
// @Tags Teachers
// @Accept json
// @Produce json
// @Param payload body models.UpdateTeacherProfileRequest true "Profile changes"
// @Success 200 {object} response.Envelope
// @Router /teacher/profile [put]
func (h *TeacherHandler) UpdateProfile(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req models.UpdateTeacherProfileRequest
	if !bindJSON(c, &req, "invalid profile payload") {
		return
	}
	teacher, err := h.teachers.UpdateProfile(c.Request.Context(), actor.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, teacher)
}

// AddSubjects godoc
// @Summary Add taught subjects
// @Tags Teachers
// @Accept json
// @Produce json
// @Param payload body models.AddSubjectsRequest true "Subjects"
// @Success 200 {object} response.Envelope
// @Router /teacher/subjects [post]
func (h *TeacherHandler) AddSubjects(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req models.AddSubjectsRequest
	if !bindJSON(c, &req, "invalid subjects payload") {
		return
	}
	subjects, err := h.teachers.AddSubjects(c.Request.Context(), actor.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"subjects": subjects})
}

// RemoveSubject godoc
// @Summary Remove a taught subject
// @Tags Teachers
// @Accept json
// @Produce json
// @Param payload body models.RemoveSubjectRequest true "Subject"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /teacher/subjects [delete]
func (h *TeacherHandler) RemoveSubject(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req models.RemoveSubjectRequest
	if !bindJSON(c, &req, "invalid subject payload") {
		return
	}
	subjects, err := h.teachers.RemoveSubject(c.Request.Context(), actor.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"subjects": subjects})
}

// ListAvailability godoc
// @Summary List availability windows
// @Tags Availability
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teacher/availability [get]
func (h *TeacherHandler) ListAvailability(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	windows, err := h.availability.List(c.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, windows, len(windows))
}

// AddAvailability godoc
// @Summary Add an availability window
// @Tags Availability
// @Accept json
// @Produce json
// @Param payload body models.AvailabilityRequest true "Window"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /teacher/availability [post]
func (h *TeacherHandler) AddAvailability(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req models.AvailabilityRequest
	if !bindJSON(c, &req, "invalid availability payload") {
		return
	}
	window, err := h.availability.Add(c.Request.Context(), actor.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, window)
}

// RemoveAvailability godoc
// @Summary Remove an availability window
// @Tags Availability
// @Accept json
// @Param payload body models.AvailabilityRequest true "Window"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /teacher/availability [delete]
func (h *TeacherHandler) RemoveAvailability(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req models.AvailabilityRequest
	if !bindJSON(c, &req, "invalid availability payload") {
		return
	}
	if err := h.availability.Remove(c.Request.Context(), actor.ID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
