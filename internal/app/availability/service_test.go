package availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/pickup/internal/domain"
)

type staticConfig struct{ cfg *domain.TimeSlotConfig }

func (s staticConfig) GetConfig(context.Context) (*domain.TimeSlotConfig, error) {
	return s.cfg.Clone(), nil
}

type staticCounts struct {
	counts map[string]map[string]int
	calls  int
}

func (s *staticCounts) CountByStartTime(_ context.Context, date string) (map[string]int, error) {
	s.calls++
	return s.counts[date], nil
}

func newTestService(counts map[string]map[string]int) (*Service, *staticCounts) {
	cfg := &domain.TimeSlotConfig{
		AvailableDays: []string{"Monday", "Wednesday", "Friday"},
		TimeSlots: []domain.TimeSlot{
			{ID: "a", StartTime: "09:00", EndTime: "10:00", MaxOrders: 3},
			{ID: "b", StartTime: "10:00", EndTime: "11:00", MaxOrders: 2},
		},
		LeadTime:              1,
		MaxAdvanceBookingDays: 7,
	}
	counter := &staticCounts{counts: counts}
	svc := NewService(staticConfig{cfg: cfg}, counter, time.UTC)
	// Sunday 2024-01-07
	svc.now = func() time.Time { return time.Date(2024, 1, 7, 22, 0, 0, 0, time.UTC) }
	return svc, counter
}

func TestAvailableDates(t *testing.T) {
	svc, _ := newTestService(nil)

	dates, err := svc.AvailableDates(context.Background())
	require.NoError(t, err)
	// window is Mon 8th .. Sun 14th
	assert.Equal(t, []string{"2024-01-08", "2024-01-10", "2024-01-12"}, dates)
}

func TestAvailableDates_UsesBookingTimezone(t *testing.T) {
	svc, _ := newTestService(nil)
	tokyo := time.FixedZone("JST", 9*3600)
	svc.loc = tokyo

	// 22:00 UTC Sunday is already Monday in Tokyo, so the window starts on Tuesday.
	dates, err := svc.AvailableDates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-10", "2024-01-12", "2024-01-15"}, dates)
}

func TestAvailableSlots(t *testing.T) {
	svc, _ := newTestService(map[string]map[string]int{
		"2024-01-08": {"09:00": 1, "10:00": 2},
	})

	slots, err := svc.AvailableSlots(context.Background(), "2024-01-08")
	require.NoError(t, err)
	require.Len(t, slots, 2)

	assert.Equal(t, "09:00", slots[0].StartTime)
	assert.Equal(t, 1, slots[0].OrderCount)
	assert.Equal(t, 2, slots[0].AvailableCount)
	assert.True(t, slots[0].IsAvailable)

	assert.Equal(t, 2, slots[1].OrderCount)
	assert.Equal(t, 0, slots[1].AvailableCount)
	assert.False(t, slots[1].IsAvailable)
}

func TestAvailableSlots_ClosedWeekday(t *testing.T) {
	svc, counter := newTestService(nil)

	slots, err := svc.AvailableSlots(context.Background(), "2024-01-09")
	require.NoError(t, err)
	assert.NotNil(t, slots)
	assert.Empty(t, slots)
	assert.Zero(t, counter.calls)
}

func TestAvailableSlots_MalformedDate(t *testing.T) {
	svc, _ := newTestService(nil)

	for _, date := range []string{"", "2024-1-8", "2024-02-30", "tomorrow"} {
		_, err := svc.AvailableSlots(context.Background(), date)
		assert.ErrorIs(t, err, domain.ErrValidation, date)
	}
}
