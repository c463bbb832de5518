package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutorconnect-api/internal/models"
	appErrors "github.com/noah-isme/tutorconnect-api/pkg/errors"
	"github.com/noah-isme/tutorconnect-api/pkg/response"
)

type studentService interface {
	Profile(ctx context.Context, id string) (*models.Student, error)
	UpdateProfile(ctx context.Context, id string, req models.UpdateStudentProfileRequest) (*models.Student, error)
	Dashboard(ctx context.Context, id string) (*models.StudentDashboard, error)
}

type teacherSearch interface {
	Search(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, error)
}

// StudentHandler serves the student's own profile and tutor discovery.
type StudentHandler struct {
	students studentService
	teachers teacherSearch
}

// NewStudentHandler constructs a student handler.
func NewStudentHandler(students studentService, teachers teacherSearch) *StudentHandler {
	return &StudentHandler{students: students, teachers: teachers}
}

// Profile godoc
// @Summary Current student profile
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/profile [get]
func (h *StudentHandler) Profile(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	student, err := h.students.Profile(c.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, student)
}

// UpdateProfile godoc
// @Summary Update student profile
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body models.UpdateStudentProfileRequest true "Profile changes"
// @Success 200 {object} response.Envelope
// @Router /student/profile [put]
func (h *StudentHandler) UpdateProfile(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req models.UpdateStudentProfileRequest
	if !bindJSON(c, &req, "invalid profile payload") {
		return
	}
	student, err := h.students.UpdateProfile(c.Request.Context(), actor.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, student)
}

// Dashboard godoc
// @Summary Student dashboard
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/dashboard [get]
func (h *StudentHandler) Dashboard(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	dashboard, err := h.students.Dashboard(c.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dashboard)
}

// SearchTeachers godoc
// @Summary Search tutors
// @Tags Students
// @Produce json
// @Param subject query string false "Subject"
// @Param name query string false "Name"
// @Param verified query bool false "Only verified tutors"
// @Success 200 {object} response.Envelope
// @Router /student/teachers [get]
func (h *StudentHandler) SearchTeachers(c *gin.Context) {
	var filter models.TeacherFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid search filter"))
		return
	}
	teachers, err := h.teachers.Search(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, teachers, len(teachers))
}
