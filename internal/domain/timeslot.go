package domain

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// TimeSlot is a daily pickup window with a per-day order capacity.
type TimeSlot struct {
	ID        string `json:"id"`
	StartTime string `json:"startTime" validate:"required,hhmm"`
	EndTime   string `json:"endTime" validate:"required,hhmm"`
	MaxOrders int    `json:"maxOrders" validate:"gt=0"`
}

// TimeSlotPatch carries the fields of a partial slot update. Nil fields are left alone.
type TimeSlotPatch struct {
	StartTime *string `json:"startTime,omitempty"`
	EndTime   *string `json:"endTime,omitempty"`
	MaxOrders *int    `json:"maxOrders,omitempty"`
}

// TimeSlotConfig is the process-wide booking configuration.
type TimeSlotConfig struct {
	AvailableDays         []string   `json:"availableDays" validate:"dive,weekday"`
	TimeSlots             []TimeSlot `json:"timeSlots" validate:"dive"`
	LeadTime              int        `json:"leadTime" validate:"gte=0"`
	MaxAdvanceBookingDays int        `json:"maxAdvanceBookingDays" validate:"gte=1"`
}

// DefaultTimeSlotConfig returns the configuration written on first read:
// Monday to Saturday, eight one-hour slots from 09:00 to 17:00 with five orders each.
func DefaultTimeSlotConfig(newID func() string) *TimeSlotConfig {
	cfg := &TimeSlotConfig{
		AvailableDays:         []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
		LeadTime:              1,
		MaxAdvanceBookingDays: 14,
	}
	for h := 9; h < 17; h++ {
		cfg.TimeSlots = append(cfg.TimeSlots, TimeSlot{
			ID:        newID(),
			StartTime: ClockTime(h * 60).String(),
			EndTime:   ClockTime((h + 1) * 60).String(),
			MaxOrders: 5,
		})
	}
	return cfg
}

// Validate checks a single slot definition.
func (s TimeSlot) Validate() error {
	return collect(validateStruct(s), s.rangeErrors(""))
}

func (s TimeSlot) rangeErrors(prefix string) ValidationErrors {
	start, err1 := ParseClock(s.StartTime)
	end, err2 := ParseClock(s.EndTime)
	if err1 != nil || err2 != nil {
		// already reported by tag validation
		return nil
	}
	if start >= end {
		return ValidationErrors{{Field: prefix + "endTime", Message: "must be after startTime"}}
	}
	return nil
}

// Apply merges a patch into the slot. The id is never changed.
func (s TimeSlot) Apply(p TimeSlotPatch) TimeSlot {
	if p.StartTime != nil {
		s.StartTime = strings.TrimSpace(*p.StartTime)
	}
	if p.EndTime != nil {
		s.EndTime = strings.TrimSpace(*p.EndTime)
	}
	if p.MaxOrders != nil {
		s.MaxOrders = *p.MaxOrders
	}
	return s
}

// Validate checks the whole configuration, including cross-slot invariants.
func (c *TimeSlotConfig) Validate() error {
	var extra ValidationErrors

	seenStart := make(map[string]int, len(c.TimeSlots))
	seenID := make(map[string]int, len(c.TimeSlots))
	for i, s := range c.TimeSlots {
		prefix := fmt.Sprintf("timeSlots[%d].", i)
		extra = append(extra, s.rangeErrors(prefix)...)

		if j, dup := seenStart[s.StartTime]; dup {
			extra = append(extra, FieldError{
				Field:   prefix + "startTime",
				Message: fmt.Sprintf("duplicates timeSlots[%d].startTime", j),
			})
		} else {
			seenStart[s.StartTime] = i
		}

		if s.ID == "" {
			continue
		}
		if j, dup := seenID[s.ID]; dup {
			extra = append(extra, FieldError{
				Field:   prefix + "id",
				Message: fmt.Sprintf("duplicates timeSlots[%d].id", j),
			})
		} else {
			seenID[s.ID] = i
		}
	}

	return collect(validateStruct(c), extra)
}

// Normalize fills empty collections so the document always serializes as arrays.
func (c *TimeSlotConfig) Normalize() {
	if c.AvailableDays == nil {
		c.AvailableDays = []string{}
	}
	if c.TimeSlots == nil {
		c.TimeSlots = []TimeSlot{}
	}
}

// SortSlots orders slots by start time. The sort is stable, so slots that compare
// equal keep their relative order.
func (c *TimeSlotConfig) SortSlots() {
	slices.SortStableFunc(c.TimeSlots, func(a, b TimeSlot) int {
		ca, errA := ParseClock(a.StartTime)
		cb, errB := ParseClock(b.StartTime)
		if errA != nil || errB != nil {
			return strings.Compare(a.StartTime, b.StartTime)
		}
		return int(ca) - int(cb)
	})
}

// IndexOf returns the position of the slot with the given id, or -1.
func (c *TimeSlotConfig) IndexOf(id string) int {
	return slices.IndexFunc(c.TimeSlots, func(s TimeSlot) bool { return s.ID == id })
}

// SlotStartingAt finds the slot whose start time equals start.
func (c *TimeSlotConfig) SlotStartingAt(start string) (TimeSlot, bool) {
	for _, s := range c.TimeSlots {
		if s.StartTime == start {
			return s, true
		}
	}
	return TimeSlot{}, false
}

// AllowsWeekday reports whether orders may be picked up on wd.
func (c *TimeSlotConfig) AllowsWeekday(wd time.Weekday) bool {
	for _, name := range c.AvailableDays {
		if d, ok := ParseWeekday(name); ok && d == wd {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (c *TimeSlotConfig) Clone() *TimeSlotConfig {
	out := *c
	out.AvailableDays = slices.Clone(c.AvailableDays)
	out.TimeSlots = slices.Clone(c.TimeSlots)
	return &out
}

// collect merges a tag-validation result with additional field errors.
func collect(tagErr error, extra ValidationErrors) error {
	var all ValidationErrors
	if tagErr != nil {
		var verrs ValidationErrors
		if !errors.As(tagErr, &verrs) {
			return tagErr
		}
		all = append(all, verrs...)
	}
	all = append(all, extra...)
	if len(all) == 0 {
		return nil
	}
	return all
}
