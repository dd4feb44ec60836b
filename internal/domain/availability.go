package domain

import (
	"iter"
	"time"
)

// AvailableSlot is a slot definition annotated with its remaining capacity on one date.
type AvailableSlot struct {
	TimeSlot
	OrderCount     int  `json:"orderCount"`
	AvailableCount int  `json:"availableCount"`
	IsAvailable    bool `json:"isAvailable"`
}

// IsFull reports whether the slot cannot take another order.
func (s AvailableSlot) IsFull() bool {
	return s.AvailableCount <= 0
}

// OccupancyRate returns the booked share of the slot as a percentage.
func (s AvailableSlot) OccupancyRate() float64 {
	if s.MaxOrders == 0 {
		return 0
	}
	return float64(s.OrderCount) / float64(s.MaxOrders) * 100
}

// FirstBookableDate is the civil date of now in loc plus the configured lead time.
func FirstBookableDate(cfg *TimeSlotConfig, now time.Time, loc *time.Location) time.Time {
	return CivilDate(now, loc).AddDate(0, 0, cfg.LeadTime)
}

// CandidateDates yields the maxAdvanceBookingDays calendar days of the booking
// window, before weekday filtering.
func CandidateDates(cfg *TimeSlotConfig, now time.Time, loc *time.Location) iter.Seq[time.Time] {
	start := FirstBookableDate(cfg, now, loc)
	return func(yield func(time.Time) bool) {
		for i := 0; i < cfg.MaxAdvanceBookingDays; i++ {
			if !yield(start.AddDate(0, 0, i)) {
				return
			}
		}
	}
}

// AvailableDates yields the bookable dates (YYYY-MM-DD) of the booking window.
func AvailableDates(cfg *TimeSlotConfig, now time.Time, loc *time.Location) iter.Seq[string] {
	return func(yield func(string) bool) {
		for d := range CandidateDates(cfg, now, loc) {
			if !cfg.AllowsWeekday(d.Weekday()) {
				continue
			}
			if !yield(d.Format(DateLayout)) {
				return
			}
		}
	}
}

// IsBookableDate reports whether date lies inside the booking window and on an
// available weekday.
func IsBookableDate(cfg *TimeSlotConfig, date, now time.Time, loc *time.Location) bool {
	if !cfg.AllowsWeekday(date.Weekday()) {
		return false
	}
	first := FirstBookableDate(cfg, now, loc)
	last := first.AddDate(0, 0, cfg.MaxAdvanceBookingDays)
	return !date.Before(first) && date.Before(last)
}

// AvailableSlotsForDate annotates every slot of cfg with the order counts for date.
// Counts are keyed by slot start time. Dates on unavailable weekdays yield no slots.
func AvailableSlotsForDate(cfg *TimeSlotConfig, counts map[string]int, date time.Time) []AvailableSlot {
	if !cfg.AllowsWeekday(date.Weekday()) {
		return []AvailableSlot{}
	}

	out := make([]AvailableSlot, 0, len(cfg.TimeSlots))
	for _, slot := range cfg.TimeSlots {
		booked := counts[slot.StartTime]
		remaining := slot.MaxOrders - booked
		out = append(out, AvailableSlot{
			TimeSlot:       slot,
			OrderCount:     booked,
			AvailableCount: remaining,
			IsAvailable:    remaining > 0,
		})
	}
	return out
}
