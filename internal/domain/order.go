package domain

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Order is a placed storefront order with its pickup appointment.
type Order struct {
	ID                  string      `json:"id"`
	Customer            Customer    `json:"customer"`
	Pickup              Pickup      `json:"pickup"`
	Items               []OrderItem `json:"items" validate:"required,min=1,max=50,dive"`
	SpecialInstructions string      `json:"specialInstructions,omitempty" validate:"max=1000"`
	Total               float64     `json:"total"`
	Status              Status      `json:"status"`
	CreatedAt           time.Time   `json:"createdAt"`
	UpdatedAt           time.Time   `json:"updatedAt"`
}

type Customer struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty" validate:"max=30"`
}

// Pickup ties an order to a calendar date and the start time of a slot.
type Pickup struct {
	Date string `json:"date" validate:"required,isodate"`
	Time string `json:"time" validate:"required,hhmm"`
}

type OrderItem struct {
	ID                  int     `json:"id"`
	Name                string  `json:"name" validate:"required,max=100"`
	Price               float64 `json:"price" validate:"gte=0"`
	Quantity            int     `json:"quantity" validate:"gt=0,lte=99"`
	SpecialInstructions string  `json:"specialInstructions,omitempty" validate:"max=500"`
}

// NewOrder builds a validated order. An empty status defaults to pending.
func NewOrder(customer Customer, pickup Pickup, items []OrderItem, instructions string, status Status) (*Order, error) {
	now := time.Now().UTC()
	if status == "" {
		status = StatusPending
	}

	order := &Order{
		Customer: Customer{
			Name:  strings.TrimSpace(customer.Name),
			Email: strings.TrimSpace(customer.Email),
			Phone: strings.TrimSpace(customer.Phone),
		},
		Pickup: Pickup{
			Date: strings.TrimSpace(pickup.Date),
			Time: strings.TrimSpace(pickup.Time),
		},
		Items:               slices.Clone(items),
		SpecialInstructions: strings.TrimSpace(instructions),
		Status:              status,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	for i := range order.Items {
		order.Items[i].Name = strings.TrimSpace(order.Items[i].Name)
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}

	order.CalculateTotal()
	return order, nil
}

// Validate applies the field rules of an order.
func (o *Order) Validate() error {
	var extra ValidationErrors
	if _, err := ParseStatus(string(o.Status)); err != nil {
		extra = append(extra, FieldError{Field: "status", Message: "must be one of " + statusList()})
	}
	return collect(validateStruct(o), extra)
}

// CalculateTotal sums the item lines, rounded to cents.
func (o *Order) CalculateTotal() {
	total := 0.0
	for _, item := range o.Items {
		total += item.Price * float64(item.Quantity)
	}
	o.Total = math.Round(total*100) / 100
}

// SetStatus changes the status and touches UpdatedAt.
func (o *Order) SetStatus(st Status) {
	o.Status = st
	o.UpdatedAt = time.Now().UTC()
}

// Clone returns a deep copy.
func (o *Order) Clone() *Order {
	out := *o
	out.Items = slices.Clone(o.Items)
	return &out
}

// NewOrderID returns an id like ORD-20240102-1A2B3C4D.
func NewOrderID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102"), suffix)
}

// CountByStartTime groups orders by pickup time, skipping those the policy does not count.
func CountByStartTime(orders []*Order, policy CapacityPolicy) map[string]int {
	counts := make(map[string]int)
	for _, o := range orders {
		if !policy.Holds(o.Status) {
			continue
		}
		counts[o.Pickup.Time]++
	}
	return counts
}

func statusList() string {
	names := make([]string, len(Statuses))
	for i, st := range Statuses {
		names[i] = string(st)
	}
	return strings.Join(names, ", ")
}
