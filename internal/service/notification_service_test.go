package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutorconnect-api/internal/models"
	"github.com/noah-isme/tutorconnect-api/pkg/jobs"
	"github.com/noah-isme/tutorconnect-api/pkg/mailer"
)

type recordingQueue struct {
	mu   sync.Mutex
	jobs []jobs.Job
	err  error
}

func (q *recordingQueue) Enqueue(job jobs.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) notifications() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Notification, 0, len(q.jobs))
	for _, j := range q.jobs {
		out = append(out, j.Payload.(Notification))
	}
	return out
}

type recordingMailer struct {
	sent []mailer.Message
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, msg mailer.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func sampleDetail() models.BookingDetail {
	link := "https://meet.google.com/abc"
	return models.BookingDetail{
		Booking: models.Booking{
			ID: "b1", StudentID: "s1", TeacherID: "t1", Subject: "Math",
			Date: "2024-06-10", DayOfWeek: "Monday", StartTime: "10:00", EndTime: "11:00",
			Status: models.BookingConfirmed, MeetingLink: &link,
		},
		StudentName: "Sam", StudentEmail: "sam@example.com",
		TeacherName: "Tina", TeacherEmail: "tina@example.com",
	}
}

func TestNotifyBookingConfirmedQueuesBothParties(t *testing.T) {
	queue := &recordingQueue{}
	svc := NewNotificationService(&recordingMailer{}, nil, nil)
	svc.UseQueue(queue)

	svc.NotifyBookingConfirmed(sampleDetail())

	sent := queue.notifications()
	require.Len(t, sent, 2)
	assert.Equal(t, "sam@example.com", sent[0].To)
	assert.Equal(t, "Tina", sent[0].Data.CounterpartName)
	assert.Equal(t, "tina@example.com", sent[1].To)
	assert.Equal(t, "sam@example.com", sent[1].Data.CounterpartEmail)
}

func TestNotifySwallowsQueueErrors(t *testing.T) {
	queue := &recordingQueue{err: jobs.ErrQueueFull}
	svc := NewNotificationService(&recordingMailer{}, NewMetricsService(), nil)
	svc.UseQueue(queue)

	assert.NotPanics(t, func() { svc.NotifyBookingCancelled(sampleDetail(), models.KindTeacher) })
	assert.Equal(t, uint64(2), svc.metrics.Snapshot().NotificationFailures)
}

func TestRenderCancellationVariants(t *testing.T) {
	notes := bookingNotifications(sampleDetail(), TemplateBookingCancelled, models.KindStudent)

	toStudent, err := Render(notes[0])
	require.NoError(t, err)
	assert.Contains(t, toStudent.HTML, "You cancelled your Math session with Tina")

	toTeacher, err := Render(notes[1])
	require.NoError(t, err)
	assert.Contains(t, toTeacher.HTML, "Sam (sam@example.com) cancelled your Math session")

	byAdmin := bookingNotifications(sampleDetail(), TemplateBookingCancelled, models.KindAdmin)
	msg, err := Render(byAdmin[0])
	require.NoError(t, err)
	assert.Contains(t, msg.HTML, "An administrator cancelled")
}

func TestRenderConfirmedWithoutLink(t *testing.T) {
	detail := sampleDetail()
	detail.MeetingLink = nil

	msg, err := Render(bookingNotifications(detail, TemplateBookingConfirmed, "")[0])
	require.NoError(t, err)
	assert.Contains(t, msg.HTML, "meeting link was not created")
	assert.Equal(t, "Your session has been confirmed", msg.Subject)
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, err := Render(Notification{Template: "nope"})
	assert.Error(t, err)
}

func TestHandleDeliversThroughMailer(t *testing.T) {
	m := &recordingMailer{}
	svc := NewNotificationService(m, nil, nil)
	n := bookingNotifications(sampleDetail(), TemplateBookingConfirmed, "")[0]

	require.NoError(t, svc.Handle(context.Background(), jobs.Job{Payload: n}))
	require.Len(t, m.sent, 1)
	assert.Equal(t, "sam@example.com", m.sent[0].To)

	m.err = errors.New("smtp down")
	assert.Error(t, svc.Handle(context.Background(), jobs.Job{Payload: n}))
	assert.Error(t, svc.Handle(context.Background(), jobs.Job{Payload: "bad"}))
}

func TestNotificationQueueEndToEnd(t *testing.T) {
	m := &recordingMailer{}
	svc := NewNotificationService(m, nil, nil)

	done := make(chan struct{}, 2)
	queue := jobs.NewQueue("notifications", func(ctx context.Context, job jobs.Job) error {
		defer func() { done <- struct{}{} }()
		return svc.Handle(ctx, job)
	}, jobs.QueueConfig{Workers: 1})
	queue.Start(context.Background())
	defer queue.Stop()
	svc.UseQueue(queue)

	svc.NotifyBookingConfirmed(sampleDetail())
	<-done
	<-done
	assert.Len(t, m.sent, 2)
}
