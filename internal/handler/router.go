package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutorconnect-api/internal/middleware"
	"github.com/noah-isme/tutorconnect-api/internal/models"
)

// Handlers groups every HTTP handler mounted under the API prefix.
type Handlers struct {
	Auth      *AuthHandler
	Bookings  *BookingHandler
	Teachers  *TeacherHandler
	Students  *StudentHandler
	Resources *ResourceHandler
	Admin     *AdminHandler
	Metrics   *MetricsHandler
}

// RegisterRoutes mounts the API on group.
func RegisterRoutes(group *gin.RouterGroup, h Handlers, tokens middleware.TokenValidator) {
	auth := group.Group("/auth")
	auth.POST("/student/register", h.Auth.RegisterStudent)
	auth.POST("/teacher/register", h.Auth.RegisterTeacher)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", middleware.JWT(tokens), h.Auth.Logout)

	secured := group.Group("")
	secured.Use(middleware.JWT(tokens))

	secured.GET("/teachers/:id", h.Teachers.PublicProfile)
	secured.GET("/teachers/:id/slots", h.Bookings.AvailableSlots)
	secured.POST("/bookings", middleware.RequireKinds(models.KindStudent), h.Bookings.Create)

	student := secured.Group("/student")
	student.Use(middleware.RequireKinds(models.KindStudent))
	student.GET("/profile", h.Students.Profile)
	student.PUT("/profile", h.Students.UpdateProfile)
	student.GET("/dashboard", h.Students.Dashboard)
	student.GET("/teachers", h.Students.SearchTeachers)
	student.GET("/resources", h.Resources.List)
	student.GET("/bookings", h.Bookings.StudentBookings)
	student.POST("/bookings", h.Bookings.Create)
	student.PATCH("/bookings/:id/cancel", h.Bookings.Cancel)
	student.PATCH("/bookings/:id/complete", h.Bookings.Complete)

	teacher := secured.Group("/teacher")
	teacher.Use(middleware.RequireKinds(models.KindTeacher))
	teacher.GET("/profile", h.Teachers.Profile)
	teacher.PUT("/profile", h.Teachers.UpdateProfile)
	teacher.POST("/subjects", h.Teachers.AddSubjects)
	teacher.DELETE("/subjects", h.Teachers.RemoveSubject)
	teacher.GET("/availability", h.Teachers.ListAvailability)
	teacher.POST("/availability", h.Teachers.AddAvailability)
	teacher.DELETE("/availability", h.Teachers.RemoveAvailability)
	teacher.GET("/bookings", h.Bookings.TeacherBookings)
	teacher.GET("/bookings/pending", h.Bookings.PendingBookings)
	teacher.GET("/bookings/export", h.Bookings.Export)
	teacher.PATCH("/bookings/:id/confirm", h.Bookings.Confirm)
	teacher.DELETE("/bookings/:id/decline", h.Bookings.Decline)
	teacher.PATCH("/bookings/:id/decline", h.Bookings.Decline)
	teacher.PATCH("/bookings/:id/cancel", h.Bookings.Cancel)
	teacher.PATCH("/bookings/:id/complete", h.Bookings.Complete)
	teacher.GET("/resources", h.Resources.Mine)
	teacher.POST("/resources", h.Resources.Create)
	teacher.DELETE("/resources/:id", h.Resources.Delete)

	admin := secured.Group("/admin")
	admin.Use(middleware.RequireKinds(models.KindAdmin))
	admin.PATCH("/users/:role/:id/ban", h.Admin.Ban)
	admin.PATCH("/users/:role/:id/unban", h.Admin.Unban)
	admin.PATCH("/teachers/:id/verify", h.Admin.VerifyTeacher)
	admin.PATCH("/bookings/:id/cancel", h.Bookings.Cancel)
	admin.DELETE("/resources/:id", h.Resources.Delete)
	admin.GET("/stats", h.Admin.Stats)
	admin.GET("/metrics", h.Metrics.Snapshot)
}
