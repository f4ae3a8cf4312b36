package clinic_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinova/clinic-scheduling/internal/clinic"
)

func TestPublishSlot(t *testing.T) {
	f := newFixture(t)

	slot, err := f.svc.PublishSlot(context.Background(), f.doctor, tomorrow(), "09:30")
	require.NoError(t, err)

	assert.Equal(t, f.doctor, slot.DoctorID)
	assert.Equal(t, "09:30", slot.StartTime)
	assert.False(t, slot.IsBooked)
	assert.True(t, tomorrow().Equal(slot.Date))
}

func TestPublishSlotRejections(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.PublishSlot(context.Background(), f.doctor, time.Now().AddDate(0, 0, -1), "09:00")
	require.ErrorIs(t, err, clinic.ErrInvalidDate)

	for _, bad := range []string{"", "9am", "25:00", "09:60", "09:00:00"} {
		_, err = f.svc.PublishSlot(context.Background(), f.doctor, tomorrow(), bad)
		require.ErrorIs(t, err, clinic.ErrInvalidTime, "start time %q", bad)
	}

	_, err = f.svc.PublishSlot(context.Background(), 9999, tomorrow(), "09:00")
	require.ErrorIs(t, err, clinic.ErrDoctorNotFound)
}

func TestPublishSlotDuplicate(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.PublishSlot(context.Background(), f.doctor, tomorrow(), "09:00")
	require.NoError(t, err)

	_, err = f.svc.PublishSlot(context.Background(), f.doctor, tomorrow(), "09:00")
	require.ErrorIs(t, err, clinic.ErrDuplicateSlot)

	// Same time on another day is fine.
	_, err = f.svc.PublishSlot(context.Background(), f.doctor, tomorrow().AddDate(0, 0, 1), "09:00")
	require.NoError(t, err)
}

func TestPublishSlotTodayAllowed(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.PublishSlot(context.Background(), f.doctor, time.Now(), "23:59")
	require.NoError(t, err)
}

func TestWeekSchedule(t *testing.T) {
	f := newFixture(t)
	start := tomorrow()

	f.publish(t, "10:00")
	f.publish(t, "09:00")
	_, err := f.svc.PublishSlot(context.Background(), f.doctor, start.AddDate(0, 0, 3), "14:00")
	require.NoError(t, err)

	grid, err := f.svc.WeekSchedule(context.Background(), f.doctor, start)
	require.NoError(t, err)
	require.Len(t, grid, 7, "a week view always has seven days")

	for i, day := range grid {
		assert.True(t, start.AddDate(0, 0, i).Equal(day.Date))
	}

	require.Len(t, grid[0].Slots, 2)
	assert.Equal(t, "09:00", grid[0].Slots[0].StartTime)
	assert.Equal(t, "10:00", grid[0].Slots[1].StartTime)
	assert.Empty(t, grid[1].Slots)
	require.Len(t, grid[3].Slots, 1)
	assert.Equal(t, "14:00", grid[3].Slots[0].StartTime)
}

func TestReleaseSlotIdempotent(t *testing.T) {
	f := newFixture(t)
	slot := f.publish(t, "09:00")

	_, err := f.svc.BookSlot(context.Background(), f.patient, slot.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.ReleaseSlot(context.Background(), f.doctor, slot.Date, slot.StartTime))
	got, err := f.store.GetSlot(context.Background(), slot.ID)
	require.NoError(t, err)
	assert.False(t, got.IsBooked)

	// Releasing an already free slot, or a tuple with no slot row at all,
	// is a no-op.
	require.NoError(t, f.svc.ReleaseSlot(context.Background(), f.doctor, slot.Date, slot.StartTime))
	require.NoError(t, f.svc.ReleaseSlot(context.Background(), f.doctor, slot.Date, "23:00"))
}
