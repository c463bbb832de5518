package service

import (
	"context"
	"sort"

	"github.com/noah-isme/tutorconnect-api/internal/models"
)

// HasConflict reports whether slot overlaps any active booking in existing.
// Bookings must already be scoped to one teacher and one date. A booking whose
// id equals excludeID is ignored.
func HasConflict(slot models.TimeSlot, existing []models.Booking, excludeID string) bool {
	for _, b := range existing {
		if excludeID != "" && b.ID == excludeID {
			continue
		}
		if !b.Status.IsActive() {
			continue
		}
		if slot.Overlaps(b.Slot()) {
			return true
		}
	}
	return false
}

// SubtractIntervals removes every busy range from window. The result keeps
// window order and contains only non-empty remainders.
func SubtractIntervals(window models.TimeSlot, busy []models.TimeSlot) []models.TimeSlot {
	remaining := []models.TimeSlot{window}
	for _, b := range busy {
		next := remaining[:0:0]
		for _, r := range remaining {
			if !r.Overlaps(b) {
				next = append(next, r)
				continue
			}
			if r.Start < b.Start {
				next = append(next, models.TimeSlot{Start: r.Start, End: b.Start})
			}
			if b.End < r.End {
				next = append(next, models.TimeSlot{Start: b.End, End: r.End})
			}
		}
		remaining = next
		if len(remaining) == 0 {
			break
		}
	}
	return remaining
}

// OpenWindows derives the open sub-windows of a teacher's availability after
// removing active bookings on the same date. Dates before today are dropped and
// the result is ordered by date then start time.
func OpenWindows(windows []models.Availability, bookings []models.Booking, today string) []models.OpenWindow {
	busyByDate := make(map[string][]models.TimeSlot)
	for _, b := range bookings {
		if !b.Status.IsActive() {
			continue
		}
		busyByDate[b.Date] = append(busyByDate[b.Date], b.Slot())
	}

	out := make([]models.OpenWindow, 0, len(windows))
	for _, w := range windows {
		if w.Date < today {
			continue
		}
		for _, free := range SubtractIntervals(w.Slot(), busyByDate[w.Date]) {
			out = append(out, models.OpenWindow{
				Date:      w.Date,
				DayOfWeek: w.DayOfWeek,
				StartTime: free.Start,
				EndTime:   free.End,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out
}

type activeBookingReader interface {
	ListActiveByTeacherDate(ctx context.Context, teacherID, date string) ([]models.Booking, error)
}

// ConflictChecker answers conflict queries against persisted bookings.
type ConflictChecker struct {
	repo activeBookingReader
}

// NewConflictChecker constructs a ConflictChecker.
func NewConflictChecker(repo activeBookingReader) *ConflictChecker {
	return &ConflictChecker{repo: repo}
}

// HasConflict loads the teacher's active bookings for date and checks slot against them.
func (c *ConflictChecker) HasConflict(ctx context.Context, teacherID, date string, slot models.TimeSlot, excludeID string) (bool, error) {
	existing, err := c.repo.ListActiveByTeacherDate(ctx, teacherID, date)
	if err != nil {
		return false, err
	}
	return HasConflict(slot, existing, excludeID), nil
}
