package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrder(t *testing.T) {
	order, err := NewOrder(
		Customer{Name: "  Ann Lee ", Email: "ann@example.com"},
		Pickup{Date: "2024-01-02", Time: "10:00"},
		[]OrderItem{
			{Name: "Croissant", Price: 3.1, Quantity: 3},
			{Name: "Loaf", Price: 0.2, Quantity: 1},
		},
		"",
		"",
	)
	require.NoError(t, err)

	assert.Equal(t, "Ann Lee", order.Customer.Name)
	assert.Equal(t, StatusPending, order.Status)
	assert.Equal(t, 9.5, order.Total)
	assert.False(t, order.CreatedAt.IsZero())
}

func TestNewOrder_FieldErrors(t *testing.T) {
	_, err := NewOrder(
		Customer{Name: "Ann", Email: "ann@example.com"},
		Pickup{Date: "2024-01-02", Time: "10:00"},
		[]OrderItem{{Name: "", Price: -1, Quantity: 0}},
		"",
		"",
	)
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.ErrorIs(t, err, ErrValidation)

	fields := make([]string, len(verrs))
	for i, fe := range verrs {
		fields[i] = fe.Field
	}
	assert.ElementsMatch(t, []string{"items[0].name", "items[0].price", "items[0].quantity"}, fields)
}

func TestNewOrderID(t *testing.T) {
	now := mustDate(t, "2024-03-09")
	a := NewOrderID(now)
	b := NewOrderID(now)

	assert.Regexp(t, `^ORD-20240309-[0-9A-F]{8}$`, a)
	assert.NotEqual(t, a, b)
}

func TestParseStatus(t *testing.T) {
	for _, st := range Statuses {
		got, err := ParseStatus(string(st))
		require.NoError(t, err)
		assert.Equal(t, st, got)
	}

	got, err := ParseStatus("Pending Venmo Payment")
	require.NoError(t, err)
	assert.Equal(t, StatusPendingPayment, got)

	_, err = ParseStatus("confirmed")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestStatus_OpensOrder(t *testing.T) {
	assert.True(t, StatusPending.OpensOrder())
	assert.True(t, StatusPendingPayment.OpensOrder())
	for _, st := range []Status{StatusProcessing, StatusCompleted, StatusDelivered, StatusCancelled} {
		assert.False(t, st.OpensOrder(), st)
	}
}

func TestStatus_UnmarshalLegacyLabel(t *testing.T) {
	var o struct {
		Status Status `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"status":"Pending Venmo Payment"}`), &o))
	assert.Equal(t, StatusPendingPayment, o.Status)
}

func TestCountByStartTime(t *testing.T) {
	orders := []*Order{
		{Pickup: Pickup{Time: "09:00"}, Status: StatusPending},
		{Pickup: Pickup{Time: "09:00"}, Status: StatusCompleted},
		{Pickup: Pickup{Time: "09:00"}, Status: StatusCancelled},
		{Pickup: Pickup{Time: "10:00"}, Status: StatusPendingPayment},
	}

	assert.Equal(t, map[string]int{"09:00": 2, "10:00": 1}, CountByStartTime(orders, CapacityPolicy{}))
	assert.Equal(t, map[string]int{"09:00": 3, "10:00": 1}, CountByStartTime(orders, CapacityPolicy{CountCancelled: true}))
	assert.Empty(t, CountByStartTime(nil, CapacityPolicy{}))
}

func TestPaymentSettings(t *testing.T) {
	p := &PaymentSettings{VenmoUsername: " @corner-bakery "}
	require.NoError(t, p.Validate())
	assert.Equal(t, "https://venmo.com/u/corner-bakery", p.VenmoProfileURL())

	assert.ErrorIs(t, (&PaymentSettings{}).Validate(), ErrValidation)
}

func TestValidBackupID(t *testing.T) {
	assert.True(t, ValidBackupID("1704067200000-0a1b2c3d"))
	assert.False(t, ValidBackupID("../1704067200000-0a1b2c3d"))
	assert.False(t, ValidBackupID("1704067200000-0A1B2C3D"))
	assert.False(t, ValidBackupID(""))
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := ParseDate(s)
	require.NoError(t, err)
	return v
}
