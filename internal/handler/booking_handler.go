package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutorconnect-api/internal/models"
	"github.com/noah-isme/tutorconnect-api/internal/service"
	"github.com/noah-isme/tutorconnect-api/pkg/response"
)

type bookingService interface {
	Create(ctx context.Context, studentID string, req models.CreateBookingRequest) (*models.BookingView, error)
	Confirm(ctx context.Context, teacherID, bookingID string) (*models.BookingView, error)
	Decline(ctx context.Context, teacherID, bookingID string) (*models.BookingView, error)
	Cancel(ctx context.Context, actor models.Actor, bookingID string) (*models.BookingView, error)
	Complete(ctx context.Context, actor models.Actor, bookingID string) (*models.BookingView, error)
	ListForTeacher(ctx context.Context, teacherID string, statuses ...models.BookingStatus) ([]models.BookingView, error)
	ListForStudent(ctx context.Context, studentID string) ([]models.BookingView, error)
	AvailableSlots(ctx context.Context, teacherID, date string) (*models.AvailableSlots, error)
}

type bookingExporter interface {
	TeacherBookings(ctx context.Context, teacherID, rawFormat string) (*service.ExportResult, error)
}

// BookingHandler exposes the booking lifecycle.
type BookingHandler struct {
	bookings bookingService
	exports  bookingExporter
}

// NewBookingHandler constructs a booking handler.
func NewBookingHandler(bookings bookingService, exports bookingExporter) *BookingHandler {
	return &BookingHandler{bookings: bookings, exports: exports}
}

// Create godoc
// @Summary Request a booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body models.CreateBookingRequest true "Booking request"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /student/bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req models.CreateBookingRequest
	if !bindJSON(c, &req, "invalid booking payload") {
		return
	}
	view, err := h.bookings.Create(c.Request.Context(), actor.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// Confirm godoc
// @Summary Confirm a pending booking
// @Description Provisions a meeting link when the calendar provider is reachable
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teacher/bookings/{id}/confirm [patch]
func (h *BookingHandler) Confirm(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	view, err := h.bookings.Confirm(c.Request.Context(), actor.ID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// Decline godoc
// @Summary Decline a pending booking
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teacher/bookings/{id}/decline [delete]
func (h *BookingHandler) Decline(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	view, err := h.bookings.Decline(c.Request.Context(), actor.ID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// Cancel godoc
// @Summary Cancel a pending or confirmed booking
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /student/bookings/{id}/cancel [patch]
func (h *BookingHandler) Cancel(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	view, err := h.bookings.Cancel(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// Complete godoc
// @Summary Mark a confirmed booking completed
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teacher/bookings/{id}/complete [patch]
func (h *BookingHandler) Complete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	view, err := h.bookings.Complete(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// StudentBookings godoc
// @Summary List the student's bookings
// @Tags Bookings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/bookings [get]
func (h *BookingHandler) StudentBookings(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	views, err := h.bookings.ListForStudent(c.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, views, len(views))
}

// TeacherBookings godoc
// @Summary List the teacher's confirmed bookings
// @Tags Bookings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teacher/bookings [get]
func (h *BookingHandler) TeacherBookings(c *gin.Context) {
	h.teacherList(c, models.BookingConfirmed)
}

// PendingBookings godoc
// @Summary List booking requests awaiting the teacher
// @Tags Bookings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teacher/bookings/pending [get]
func (h *BookingHandler) PendingBookings(c *gin.Context) {
	h.teacherList(c, models.BookingPending)
}

func (h *BookingHandler) teacherList(c *gin.Context, status models.BookingStatus) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	views, err := h.bookings.ListForTeacher(c.Request.Context(), actor.ID, status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, views, len(views))
}

// AvailableSlots godoc
// @Summary Open windows of a teacher
// @Tags Bookings
// @Produce json
// @Param id path string true "Teacher ID"
// @Param date query string false "YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teachers/{id}/slots [get]
func (h *BookingHandler) AvailableSlots(c *gin.Context) {
	slots, err := h.bookings.AvailableSlots(c.Request.Context(), c.Param("id"), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, slots)
}

// Export godoc
// @Summary Export the teacher's bookings
// @Tags Bookings
// @Produce octet-stream
// @Param format query string false "csv, pdf or xlsx"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /teacher/bookings/export [get]
func (h *BookingHandler) Export(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	result, err := h.exports.TeacherBookings(c.Request.Context(), actor.ID, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
