package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Status string

const (
	StatusPending        Status = "pending"
	StatusPendingPayment Status = "pending-payment"
	StatusProcessing     Status = "processing"
	StatusCompleted      Status = "completed"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

// legacyPendingPayment is the label older checkouts stored for pending-payment.
const legacyPendingPayment = "Pending Venmo Payment"

// Statuses lists every accepted order status.
var Statuses = []Status{
	StatusPending,
	StatusPendingPayment,
	StatusProcessing,
	StatusCompleted,
	StatusDelivered,
	StatusCancelled,
}

// ParseStatus accepts any value of Statuses and the legacy pending-payment label.
func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(s)
	if s == legacyPendingPayment {
		return StatusPendingPayment, nil
	}
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// UnmarshalJSON normalizes the legacy label so stored orders read back cleanly.
func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == legacyPendingPayment {
		raw = string(StatusPendingPayment)
	}
	*s = Status(raw)
	return nil
}

// OpensOrder reports whether a new order may be placed directly in st.
func (st Status) OpensOrder() bool {
	return st == StatusPending || st == StatusPendingPayment
}

// CapacityPolicy decides which orders occupy a pickup slot.
type CapacityPolicy struct {
	// CountCancelled keeps cancelled orders counted against their slot.
	CountCancelled bool
}

// Holds reports whether an order in status st occupies its slot.
func (p CapacityPolicy) Holds(st Status) bool {
	if st == StatusCancelled {
		return p.CountCancelled
	}
	return true
}
