package order

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/pickup/internal/adapter/logger"
	"github.com/YelzhanWeb/pickup/internal/adapter/memory"
	"github.com/YelzhanWeb/pickup/internal/app/timeslot"
	"github.com/YelzhanWeb/pickup/internal/domain"
	"github.com/YelzhanWeb/pickup/internal/interfaces"
)

// Monday 2024-01-01 12:00 UTC. With leadTime 1 the first bookable day is Tuesday.
var testNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu      sync.Mutex
	placed  []interfaces.OrderPlacedMessage
	changed []interfaces.StatusChangedMessage
	err     error
}

func (p *recordingPublisher) PublishOrderPlaced(ctx context.Context, msg interfaces.OrderPlacedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.placed = append(p.placed, msg)
	return p.err
}

func (p *recordingPublisher) PublishStatusChanged(ctx context.Context, msg interfaces.StatusChangedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changed = append(p.changed, msg)
	return p.err
}

type fixture struct {
	svc       *Service
	repo      interfaces.OrderRepository
	slots     *timeslot.Service
	publisher *recordingPublisher
}

func newFixture(t *testing.T, maxOrders int, policy domain.CapacityPolicy) *fixture {
	t.Helper()

	slots := timeslot.NewService(memory.NewTimeSlotRepository(), logger.Nop())
	_, err := slots.ReplaceConfig(context.Background(), &domain.TimeSlotConfig{
		AvailableDays: []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
		TimeSlots: []domain.TimeSlot{
			{ID: "a", StartTime: "10:00", EndTime: "11:00", MaxOrders: maxOrders},
			{ID: "b", StartTime: "11:00", EndTime: "12:00", MaxOrders: maxOrders},
		},
		LeadTime:              1,
		MaxAdvanceBookingDays: 14,
	})
	require.NoError(t, err)

	repo := memory.NewOrderRepository()
	pub := &recordingPublisher{}
	svc := NewService(repo, slots, memory.NewLocker(), pub, logger.Nop(), Options{
		Policy:   policy,
		Location: time.UTC,
	})
	svc.now = func() time.Time { return testNow }

	return &fixture{svc: svc, repo: repo, slots: slots, publisher: pub}
}

func checkout(date, at string) interfaces.CreateOrderCommand {
	return interfaces.CreateOrderCommand{
		Customer: domain.Customer{Name: "Ann Lee", Email: "ann@example.com"},
		Pickup:   domain.Pickup{Date: date, Time: at},
		Items: []domain.OrderItem{
			{ID: 1, Name: "Sourdough", Price: 8.5, Quantity: 2},
			{ID: 2, Name: "Baguette", Price: 3.25, Quantity: 1},
		},
	}
}

func TestCreateOrder(t *testing.T) {
	f := newFixture(t, 2, domain.CapacityPolicy{})
	ctx := context.Background()

	order, err := f.svc.CreateOrder(ctx, checkout("2024-01-02", "10:00"))
	require.NoError(t, err)

	assert.Regexp(t, `^ORD-20240101-[0-9A-F]{8}$`, order.ID)
	assert.Equal(t, domain.StatusPending, order.Status)
	assert.Equal(t, 20.25, order.Total)

	stored, err := f.svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.Pickup, stored.Pickup)

	require.Len(t, f.publisher.placed, 1)
	assert.Equal(t, order.ID, f.publisher.placed[0].OrderID)
	assert.Equal(t, 2, f.publisher.placed[0].ItemCount)
}

func TestCreateOrder_AcceptsLegacyPaymentStatus(t *testing.T) {
	f := newFixture(t, 2, domain.CapacityPolicy{})

	cmd := checkout("2024-01-02", "10:00")
	cmd.Status = "Pending Venmo Payment"
	order, err := f.svc.CreateOrder(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingPayment, order.Status)
}

func TestCreateOrder_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		cmd   func() interfaces.CreateOrderCommand
		field string
	}{
		{"unavailable weekday", func() interfaces.CreateOrderCommand { return checkout("2024-01-07", "10:00") }, "pickup.date"},
		{"inside lead time", func() interfaces.CreateOrderCommand { return checkout("2024-01-01", "10:00") }, "pickup.date"},
		{"past the window", func() interfaces.CreateOrderCommand { return checkout("2024-01-16", "10:00") }, "pickup.date"},
		{"malformed date", func() interfaces.CreateOrderCommand { return checkout("2024-1-2", "10:00") }, "pickup.date"},
		{"unknown slot", func() interfaces.CreateOrderCommand { return checkout("2024-01-02", "10:30") }, "pickup.time"},
		{"no items", func() interfaces.CreateOrderCommand {
			cmd := checkout("2024-01-02", "10:00")
			cmd.Items = nil
			return cmd
		}, "items"},
		{"bad email", func() interfaces.CreateOrderCommand {
			cmd := checkout("2024-01-02", "10:00")
			cmd.Customer.Email = "nope"
			return cmd
		}, "customer.email"},
		{"bad status", func() interfaces.CreateOrderCommand {
			cmd := checkout("2024-01-02", "10:00")
			cmd.Status = "shipped"
			return cmd
		}, "status"},
		{"fulfilment status at checkout", func() interfaces.CreateOrderCommand {
			cmd := checkout("2024-01-02", "10:00")
			cmd.Status = "delivered"
			return cmd
		}, "status"},
		{"cancelled at checkout", func() interfaces.CreateOrderCommand {
			cmd := checkout("2024-01-02", "10:00")
			cmd.Status = "cancelled"
			return cmd
		}, "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 2, domain.CapacityPolicy{})

			_, err := f.svc.CreateOrder(context.Background(), tt.cmd())
			var verrs domain.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Equal(t, tt.field, verrs[0].Field)

			all, err := f.repo.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, all)
			assert.Empty(t, f.publisher.placed)
		})
	}
}

func TestCreateOrder_SlotFull(t *testing.T) {
	f := newFixture(t, 2, domain.CapacityPolicy{})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.svc.CreateOrder(ctx, checkout("2024-01-02", "10:00"))
		require.NoError(t, err)
	}

	_, err := f.svc.CreateOrder(ctx, checkout("2024-01-02", "10:00"))
	assert.ErrorIs(t, err, domain.ErrSlotFull)

	// other slot and other date are unaffected
	_, err = f.svc.CreateOrder(ctx, checkout("2024-01-02", "11:00"))
	assert.NoError(t, err)
	_, err = f.svc.CreateOrder(ctx, checkout("2024-01-03", "10:00"))
	assert.NoError(t, err)
}

func TestCreateOrder_ConcurrentCheckoutsNeverOverbook(t *testing.T) {
	const (
		maxOrders = 5
		attempts  = 40
	)
	f := newFixture(t, maxOrders, domain.CapacityPolicy{})
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
		full     int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CreateOrder(ctx, checkout("2024-01-02", "10:00"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				admitted++
			case errors.Is(err, domain.ErrSlotFull):
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, maxOrders, admitted)
	assert.Equal(t, attempts-maxOrders, full)

	counts, err := f.svc.CountByStartTime(ctx, "2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, maxOrders, counts["10:00"])
}

// trackingLocker records whether the slot lock is held.
type trackingLocker struct {
	interfaces.SlotLocker
	held atomic.Int32
}

func (l *trackingLocker) Lock(ctx context.Context, key string) (func(), error) {
	unlock, err := l.SlotLocker.Lock(ctx, key)
	if err != nil {
		return nil, err
	}
	l.held.Add(1)
	return func() {
		l.held.Add(-1)
		unlock()
	}, nil
}

// lockCheckingSource fails the test when the slot configuration is read without
// the slot lock.
type lockCheckingSource struct {
	SlotConfigSource
	t      *testing.T
	locker *trackingLocker
	reads  atomic.Int32
}

func (s *lockCheckingSource) GetConfig(ctx context.Context) (*domain.TimeSlotConfig, error) {
	s.reads.Add(1)
	if s.locker.held.Load() == 0 {
		s.t.Errorf("slot configuration read without the slot lock")
	}
	return s.SlotConfigSource.GetConfig(ctx)
}

func TestCreateOrder_ReadsSlotConfigUnderLock(t *testing.T) {
	f := newFixture(t, 3, domain.CapacityPolicy{})
	locker := &trackingLocker{SlotLocker: memory.NewLocker()}
	source := &lockCheckingSource{SlotConfigSource: f.slots, t: t, locker: locker}
	svc := NewService(f.repo, source, locker, f.publisher, logger.Nop(), Options{Location: time.UTC})
	svc.now = func() time.Time { return testNow }
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, checkout("2024-01-02", "10:00"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, source.reads.Load())

	t.Run("shrunk slot is honoured", func(t *testing.T) {
		cfg, err := f.slots.UpdateSlot(ctx, "b", domain.TimeSlotPatch{MaxOrders: ptr(1)})
		require.NoError(t, err)
		require.Len(t, cfg.TimeSlots, 2)

		_, err = svc.CreateOrder(ctx, checkout("2024-01-02", "11:00"))
		require.NoError(t, err)
		_, err = svc.CreateOrder(ctx, checkout("2024-01-02", "11:00"))
		assert.ErrorIs(t, err, domain.ErrSlotFull)
	})

	t.Run("deleted slot is rejected", func(t *testing.T) {
		_, err := f.slots.DeleteSlot(ctx, "a")
		require.NoError(t, err)

		_, err = svc.CreateOrder(ctx, checkout("2024-01-03", "10:00"))
		var verrs domain.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, "pickup.time", verrs[0].Field)
	})
}

// staleFirstRead serves one outdated copy of an order before reading through.
type staleFirstRead struct {
	interfaces.OrderRepository
	mu    sync.Mutex
	stale *domain.Order
}

func (r *staleFirstRead) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	stale := r.stale
	r.stale = nil
	r.mu.Unlock()
	if stale != nil && stale.ID == id {
		return stale.Clone(), nil
	}
	return r.OrderRepository.FindByID(ctx, id)
}

func TestUpdateStatus_DecidesOnStatusReadUnderLock(t *testing.T) {
	f := newFixture(t, 1, domain.CapacityPolicy{})
	ctx := context.Background()

	first, err := f.svc.CreateOrder(ctx, checkout("2024-01-02", "10:00"))
	require.NoError(t, err)
	seenPending := first.Clone()

	_, err = f.svc.UpdateStatus(ctx, first.ID, "cancelled")
	require.NoError(t, err)
	_, err = f.svc.CreateOrder(ctx, checkout("2024-01-02", "10:00"))
	require.NoError(t, err)

	// an admin who still sees the order as pending moves it to processing
	repo := &staleFirstRead{OrderRepository: f.repo, stale: seenPending}
	svc := NewService(repo, f.slots, memory.NewLocker(), f.publisher, logger.Nop(), Options{Location: time.UTC})
	svc.now = func() time.Time { return testNow }

	_, err = svc.UpdateStatus(ctx, first.ID, "processing")
	assert.ErrorIs(t, err, domain.ErrSlotFull)

	stored, err := f.svc.GetOrder(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, stored.Status)

	counts, err := f.svc.CountByStartTime(ctx, "2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, 1, counts["10:00"])
}

func TestConcurrentCancelReinstateAndCheckoutNeverOverbook(t *testing.T) {
	const maxOrders = 2
	f := newFixture(t, maxOrders, domain.CapacityPolicy{})
	ctx := context.Background()

	var held []*domain.Order
	for i := 0; i < maxOrders; i++ {
		o, err := f.svc.CreateOrder(ctx, checkout("2024-01-02", "10:00"))
		require.NoError(t, err)
		held = append(held, o)
	}

	expect := func(err error) {
		if err != nil && !errors.Is(err, domain.ErrSlotFull) {
			t.Errorf("unexpected error: %v", err)
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		for _, o := range held {
			wg.Add(2)
			go func(id string) {
				defer wg.Done()
				_, err := f.svc.UpdateStatus(ctx, id, "cancelled")
				expect(err)
			}(o.ID)
			go func(id string) {
				defer wg.Done()
				_, err := f.svc.UpdateStatus(ctx, id, "processing")
				expect(err)
			}(o.ID)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CreateOrder(ctx, checkout("2024-01-02", "10:00"))
			expect(err)
		}()
	}
	wg.Wait()

	counts, err := f.svc.CountByStartTime(ctx, "2024-01-02")
	require.NoError(t, err)
	assert.LessOrEqual(t, counts["10:00"], maxOrders)
}

func TestCancelledOrdersFreeCapacity(t *testing.T) {
	f := newFixture(t, 1, domain.CapacityPolicy{})
	ctx := context.Background()

	first, err := f.svc.CreateOrder(ctx, checkout("2024-01-02", "10:00"))
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, first.ID, "cancelled")
	require.NoError(t, err)

	counts, err := f.svc.CountByStartTime(ctx, "2024-01-02")
	require.NoError(t, err)
	assert.Zero(t, counts["10:00"])

	second, err := f.svc.CreateOrder(ctx, checkout("2024-01-02", "10:00"))
	require.NoError(t, err)

	t.Run("reinstating over capacity is rejected", func(t *testing.T) {
		_, err := f.svc.UpdateStatus(ctx, first.ID, "pending")
		assert.ErrorIs(t, err, domain.ErrSlotFull)

		stored, err := f.svc.GetOrder(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, stored.Status)
	})

	t.Run("reinstating with room succeeds", func(t *testing.T) {
		_, err := f.svc.UpdateStatus(ctx, second.ID, "cancelled")
		require.NoError(t, err)

		updated, err := f.svc.UpdateStatus(ctx, first.ID, "processing")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusProcessing, updated.Status)
	})
}

func TestCountCancelledPolicy(t *testing.T) {
	f := newFixture(t, 1, domain.CapacityPolicy{CountCancelled: true})
	ctx := context.Background()

	order, err := f.svc.CreateOrder(ctx, checkout("2024-01-02", "10:00"))
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, order.ID, "cancelled")
	require.NoError(t, err)

	_, err = f.svc.CreateOrder(ctx, checkout("2024-01-02", "10:00"))
	assert.ErrorIs(t, err, domain.ErrSlotFull)
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t, 3, domain.CapacityPolicy{})
	ctx := context.Background()

	order, err := f.svc.CreateOrder(ctx, checkout("2024-01-02", "10:00"))
	require.NoError(t, err)

	updated, err := f.svc.UpdateStatus(ctx, order.ID, "completed")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, updated.Status)

	require.Len(t, f.publisher.changed, 1)
	assert.Equal(t, domain.StatusPending, f.publisher.changed[0].OldStatus)
	assert.Equal(t, domain.StatusCompleted, f.publisher.changed[0].NewStatus)

	_, err = f.svc.UpdateStatus(ctx, order.ID, "completed")
	require.NoError(t, err)
	assert.Len(t, f.publisher.changed, 1, "no event when the status does not change")

	_, err = f.svc.UpdateStatus(ctx, order.ID, "lost")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.UpdateStatus(ctx, "ORD-NOPE", "completed")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPublishFailureDoesNotFailCheckout(t *testing.T) {
	f := newFixture(t, 1, domain.CapacityPolicy{})
	f.publisher.err = errors.New("broker down")

	order, err := f.svc.CreateOrder(context.Background(), checkout("2024-01-02", "10:00"))
	require.NoError(t, err)

	_, err = f.svc.GetOrder(context.Background(), order.ID)
	assert.NoError(t, err)
}

func TestListOrders(t *testing.T) {
	f := newFixture(t, 5, domain.CapacityPolicy{})
	ctx := context.Background()

	_, err := f.svc.CreateOrder(ctx, checkout("2024-01-02", "10:00"))
	require.NoError(t, err)
	_, err = f.svc.CreateOrder(ctx, checkout("2024-01-03", "10:00"))
	require.NoError(t, err)

	all, err := f.svc.ListOrders(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	day, err := f.svc.ListOrders(ctx, "2024-01-03")
	require.NoError(t, err)
	require.Len(t, day, 1)
	assert.Equal(t, "2024-01-03", day[0].Pickup.Date)

	_, err = f.svc.ListOrders(ctx, "03/01/2024")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func ptr[T any](v T) *T { return &v }
