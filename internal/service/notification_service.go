package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"go.uber.org/zap"

	"github.com/noah-isme/tutorconnect-api/internal/models"
	"github.com/noah-isme/tutorconnect-api/pkg/jobs"
	"github.com/noah-isme/tutorconnect-api/pkg/mailer"
	"github.com/noah-isme/tutorconnect-api/pkg/observability"
)

// Notification templates.
const (
	TemplateBookingConfirmed = "booking_confirmed"
	TemplateBookingCancelled = "booking_cancelled"
)

const notificationJobType = "email"

// Mailer delivers a rendered email.
type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

type notificationQueue interface {
	Enqueue(job jobs.Job) error
}

// NotificationData is substituted into a template for one recipient.
type NotificationData struct {
	RecipientName    string
	RecipientRole    models.UserKind
	CounterpartName  string
	CounterpartEmail string
	CounterpartRole  models.UserKind
	Subject          string
	Date             string
	Day              string
	StartTime        string
	EndTime          string
	MeetingLink      string
	CancelledBy      models.UserKind
}

// CancelledBySelf reports whether the recipient initiated the cancellation.
func (d NotificationData) CancelledBySelf() bool {
	return d.CancelledBy == d.RecipientRole
}

// Notification is one email addressed to one recipient.
type Notification struct {
	To       string
	ToName   string
	Template string
	Data     NotificationData
}

type emailTemplate struct {
	subject string
	body    *template.Template
}

var emailTemplates = map[string]emailTemplate{
	TemplateBookingConfirmed: {
		subject: "Your session has been confirmed",
		body: template.Must(template.New(TemplateBookingConfirmed).Parse(`<p>Hi {{.RecipientName}},</p>
<p>Your {{.Subject}} session with {{.CounterpartName}} ({{.CounterpartEmail}}) on {{.Day}} {{.Date}} from {{.StartTime}} to {{.EndTime}} is confirmed.</p>
{{if .MeetingLink}}<p>Join the meeting: <a href="{{.MeetingLink}}">{{.MeetingLink}}</a></p>{{else}}<p>A meeting link was not created. Please coordinate with your {{.CounterpartRole}} directly.</p>{{end}}`)),
	},
	TemplateBookingCancelled: {
		subject: "Your session has been cancelled",
		body: template.Must(template.New(TemplateBookingCancelled).Parse(`<p>Hi {{.RecipientName}},</p>
{{if .CancelledBySelf}}<p>You cancelled your {{.Subject}} session with {{.CounterpartName}} ({{.CounterpartEmail}}) on {{.Day}} {{.Date}} from {{.StartTime}} to {{.EndTime}}.</p>
{{else if eq (print .CancelledBy) "admin"}}<p>An administrator cancelled your {{.Subject}} session with {{.CounterpartName}} ({{.CounterpartEmail}}) on {{.Day}} {{.Date}} from {{.StartTime}} to {{.EndTime}}.</p>
{{else}}<p>{{.CounterpartName}} ({{.CounterpartEmail}}) cancelled your {{.Subject}} session on {{.Day}} {{.Date}} from {{.StartTime}} to {{.EndTime}}.</p>
{{end}}`)),
	},
}

// NotificationService renders booking emails and hands them to a background
// queue. Dispatch never fails the caller.
type NotificationService struct {
	mailer  Mailer
	queue   notificationQueue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotificationService constructs a NotificationService. The queue is
// attached separately because it is built around Handle.
func NewNotificationService(m Mailer, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{mailer: m, metrics: metrics, logger: logger}
}

// UseQueue attaches the dispatch queue.
func (s *NotificationService) UseQueue(q notificationQueue) {
	s.queue = q
}

// Notify schedules n for delivery. Failures are logged and swallowed.
func (s *NotificationService) Notify(n Notification) {
	if s == nil || s.queue == nil {
		return
	}
	if n.To == "" {
		s.logger.Warn("notification skipped: no recipient", zap.String("template", n.Template))
		return
	}
	if err := s.queue.Enqueue(jobs.Job{Type: notificationJobType, Payload: n}); err != nil {
		s.metrics.RecordNotification(n.Template, err)
		s.logger.Warn("notification not queued", zap.String("template", n.Template), zap.String("to", n.To), zap.Error(err))
		observability.CaptureWithTags(err, map[string]string{"template": n.Template})
	}
}

// NotifyBookingConfirmed emails both parties about a confirmation.
func (s *NotificationService) NotifyBookingConfirmed(detail models.BookingDetail) {
	for _, n := range bookingNotifications(detail, TemplateBookingConfirmed, "") {
		s.Notify(n)
	}
}

// NotifyBookingCancelled emails both parties about a cancellation by.
func (s *NotificationService) NotifyBookingCancelled(detail models.BookingDetail, by models.UserKind) {
	for _, n := range bookingNotifications(detail, TemplateBookingCancelled, by) {
		s.Notify(n)
	}
}

func bookingNotifications(detail models.BookingDetail, tmpl string, by models.UserKind) []Notification {
	base := NotificationData{
		Subject:     detail.Subject,
		Date:        detail.Date,
		Day:         detail.DayOfWeek,
		StartTime:   detail.StartTime,
		EndTime:     detail.EndTime,
		CancelledBy: by,
	}
	if detail.MeetingLink != nil {
		base.MeetingLink = *detail.MeetingLink
	}

	toStudent := base
	toStudent.RecipientName = detail.StudentName
	toStudent.RecipientRole = models.KindStudent
	toStudent.CounterpartName = detail.TeacherName
	toStudent.CounterpartEmail = detail.TeacherEmail
	toStudent.CounterpartRole = models.KindTeacher

	toTeacher := base
	toTeacher.RecipientName = detail.TeacherName
	toTeacher.RecipientRole = models.KindTeacher
	toTeacher.CounterpartName = detail.StudentName
	toTeacher.CounterpartEmail = detail.StudentEmail
	toTeacher.CounterpartRole = models.KindStudent

	return []Notification{
		{To: detail.StudentEmail, ToName: detail.StudentName, Template: tmpl, Data: toStudent},
		{To: detail.TeacherEmail, ToName: detail.TeacherName, Template: tmpl, Data: toTeacher},
	}
}

// Render builds the email for n.
func Render(n Notification) (mailer.Message, error) {
	tmpl, ok := emailTemplates[n.Template]
	if !ok {
		return mailer.Message{}, fmt.Errorf("unknown notification template %q", n.Template)
	}
	var buf bytes.Buffer
	if err := tmpl.body.Execute(&buf, n.Data); err != nil {
		return mailer.Message{}, fmt.Errorf("render %s: %w", n.Template, err)
	}
	return mailer.Message{
		To:      n.To,
		ToName:  n.ToName,
		Subject: tmpl.subject,
		HTML:    buf.String(),
		Text:    fmt.Sprintf("%s session on %s %s-%s", n.Data.Subject, n.Data.Date, n.Data.StartTime, n.Data.EndTime),
	}, nil
}

// Handle is the queue handler delivering one notification job.
func (s *NotificationService) Handle(ctx context.Context, job jobs.Job) error {
	n, ok := job.Payload.(Notification)
	if !ok {
		return errors.New("notification job carries unexpected payload")
	}
	msg, err := Render(n)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return err
	}
	s.metrics.RecordNotification(n.Template, nil)
	s.logger.Debug("notification sent", zap.String("template", n.Template), zap.String("to", n.To), zap.Int("attempt", job.Attempt))
	return nil
}

// HandleFailure records a notification that exhausted its retries.
func (s *NotificationService) HandleFailure(job jobs.Job, err error) {
	tmpl := ""
	if n, ok := job.Payload.(Notification); ok {
		tmpl = n.Template
	}
	s.metrics.RecordNotification(tmpl, err)
	s.logger.Error("notification delivery failed", zap.String("job_id", job.ID), zap.String("template", tmpl), zap.Int("attempts", job.Attempt), zap.Error(err))
	observability.CaptureWithTags(err, map[string]string{"template": tmpl, "job_id": job.ID})
}
