package http

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"github.com/YelzhanWeb/pickup/internal/adapter/logger"
	"github.com/YelzhanWeb/pickup/internal/interfaces"
)

type RouterConfig struct {
	AdminToken        string
	CORSOrigins       []string
	CheckoutPerMinute int
}

type Services struct {
	TimeSlots    interfaces.TimeSlotService
	Availability interfaces.AvailabilityService
	Orders       interfaces.OrderService
	Payments     interfaces.PaymentService
	Backups      interfaces.BackupService
}

// NewRouter builds the API handler: CORS, recovery, logging, then routes.
func NewRouter(cfg RouterConfig, svc Services, lgr logger.Logger) http.Handler {
	slots := NewTimeSlotHandler(svc.TimeSlots, svc.Availability, lgr)
	orders := NewOrderHandler(svc.Orders, lgr)
	payments := NewPaymentHandler(svc.Payments, lgr)
	backups := NewBackupHandler(svc.Backups, lgr)
	limiter := NewRateLimiter(cfg.CheckoutPerMinute)

	admin := func(h httprouter.Handle) httprouter.Handle {
		return AdminOnly(cfg.AdminToken, h)
	}

	router := httprouter.New()
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondMessage(w, http.StatusNotFound, "Route not found", nil)
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondMessage(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
	})

	router.GET("/health", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		respondJSON(w, http.StatusOK, envelope{"status": "ok"})
	})

	router.GET("/api/time-slots/config", slots.GetConfig)
	router.PUT("/api/time-slots/config", admin(slots.ReplaceConfig))
	router.POST("/api/time-slots/slots", admin(slots.AddSlot))
	router.PUT("/api/time-slots/slots/:id", admin(slots.UpdateSlot))
	router.DELETE("/api/time-slots/slots/:id", admin(slots.DeleteSlot))
	router.GET("/api/time-slots/dates", slots.AvailableDates)
	router.GET("/api/time-slots/available/:date", slots.AvailableSlots)
	router.POST("/api/time-slots/available-for-date", slots.AvailableForDate)

	router.POST("/api/orders", limiter.Limit(orders.CreateOrder))
	router.GET("/api/orders/:id", orders.GetOrder)
	router.GET("/api/orders", admin(orders.ListOrders))
	router.PUT("/api/orders/:id/status", admin(orders.UpdateStatus))

	router.GET("/api/payment-settings", payments.GetSettings)
	router.PUT("/api/payment-settings", admin(payments.UpdateSettings))
	router.GET("/api/payment-settings/qr.png", payments.QRCode)

	router.POST("/api/backups", admin(backups.Create))
	router.GET("/api/backups", admin(backups.List))
	router.POST("/api/backups/:id/restore", admin(backups.Restore))
	router.DELETE("/api/backups/:id", admin(backups.Delete))

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
	}).Handler(router)

	handler := LoggingMiddleware(lgr)(RecoveryMiddleware(lgr)(corsHandler))
	return handler
}
