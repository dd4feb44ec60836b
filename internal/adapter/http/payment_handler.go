package http

import (
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"github.com/YelzhanWeb/pickup/internal/adapter/logger"
	"github.com/YelzhanWeb/pickup/internal/domain"
	"github.com/YelzhanWeb/pickup/internal/interfaces"
)

type PaymentHandler struct {
	service interfaces.PaymentService
	logger  logger.Logger
}

func NewPaymentHandler(service interfaces.PaymentService, logger logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		logger:  logger,
	}
}

func (h *PaymentHandler) GetSettings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	settings, err := h.service.Get(r.Context())
	if err != nil {
		respondError(w, r, h.logger, "payment_settings_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"settings": settings})
}

func (h *PaymentHandler) UpdateSettings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req domain.PaymentSettings
	if !decodeJSON(w, r, &req) {
		return
	}

	settings, err := h.service.Update(r.Context(), req)
	if err != nil {
		respondError(w, r, h.logger, "payment_settings_update_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{
		"message":  "Payment settings updated successfully",
		"settings": settings,
	})
}

// QRCode serves the Venmo QR code as PNG. ?size= sets the width in pixels.
func (h *PaymentHandler) QRCode(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	size := 0
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, r, h.logger, "qr_code_failed", domain.Invalid("size", "must be an integer"))
			return
		}
		size = n
	}

	png, err := h.service.QRCode(r.Context(), size)
	if err != nil {
		respondError(w, r, h.logger, "qr_code_failed", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
