package clinic

import (
	"context"
	"fmt"
	"time"
)

// PublishSlot adds an open slot to a doctor's calendar. Past dates are
// rejected; re-publishing an existing tuple is reported as ErrDuplicateSlot,
// which callers treat as an informational no-op rather than a failure.
func (s *Service) PublishSlot(ctx context.Context, doctorID int64, date time.Time, startTime string) (*AvailabilitySlot, error) {
	if !ValidStartTime(startTime) {
		return nil, ErrInvalidTime
	}

	day := Day(date)
	if day.Before(Day(time.Now())) {
		return nil, ErrInvalidDate
	}

	doctor, err := s.store.GetDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	slot, err := s.store.CreateSlot(ctx, doctor.ID, day, startTime)
	if err != nil {
		return nil, err
	}

	s.invalidateDay(ctx, doctor.SpecializationID, day)

	s.log.Info().
		Int64("slot_id", slot.ID).
		Int64("doctor_id", doctor.ID).
		Str("date", day.Format(DayFormat)).
		Str("time", startTime).
		Msg("availability published")

	return slot, nil
}

// WeekSchedule returns a doctor's calendar as a 7-day grid starting at from,
// one entry per day even when a day has no slots.
func (s *Service) WeekSchedule(ctx context.Context, doctorID int64, from time.Time) ([]DaySlots, error) {
	start := Day(from)
	end := start.AddDate(0, 0, 6)

	slots, err := s.store.ListSlots(ctx, doctorID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}

	byDay := make(map[string][]AvailabilitySlot, 7)
	for _, slot := range slots {
		key := slot.Date.Format(DayFormat)
		byDay[key] = append(byDay[key], slot)
	}

	grid := make([]DaySlots, 0, 7)
	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i)
		grid = append(grid, DaySlots{
			Date:  day,
			Slots: byDay[day.Format(DayFormat)],
		})
	}

	return grid, nil
}

// ReleaseSlot marks a slot free again. The match is by value
// (doctor, date, start time), not by slot id, and a missing row is a silent
// no-op: historical appointments may predate their slot rows.
func (s *Service) ReleaseSlot(ctx context.Context, doctorID int64, date time.Time, startTime string) error {
	day := Day(date)
	if err := s.store.ReleaseSlot(ctx, doctorID, day, startTime); err != nil {
		return fmt.Errorf("release slot: %w", err)
	}

	if doctor, err := s.store.GetDoctor(ctx, doctorID); err == nil {
		s.invalidateDay(ctx, doctor.SpecializationID, day)
	}

	return nil
}
