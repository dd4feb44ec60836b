package http

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/YelzhanWeb/pickup/internal/adapter/logger"
	"github.com/YelzhanWeb/pickup/internal/domain"
	"github.com/YelzhanWeb/pickup/internal/interfaces"
)

type OrderHandler struct {
	service interfaces.OrderService
	logger  logger.Logger
}

func NewOrderHandler(service interfaces.OrderService, logger logger.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger,
	}
}

type CreateOrderRequest struct {
	Customer            domain.Customer    `json:"customer"`
	Pickup              domain.Pickup      `json:"pickup"`
	Items               []domain.OrderItem `json:"items"`
	SpecialInstructions string             `json:"specialInstructions"`
	Status              string             `json:"status"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req CreateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.service.CreateOrder(r.Context(), interfaces.CreateOrderCommand{
		Customer:            req.Customer,
		Pickup:              req.Pickup,
		Items:               req.Items,
		SpecialInstructions: req.SpecialInstructions,
		Status:              req.Status,
	})
	if err != nil {
		respondError(w, r, h.logger, "order_creation_failed", err)
		return
	}

	respondJSON(w, http.StatusCreated, envelope{
		"message": "Order created successfully",
		"order":   order,
	})
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	order, err := h.service.GetOrder(r.Context(), ps.ByName("id"))
	if err != nil {
		respondError(w, r, h.logger, "order_lookup_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"order": order})
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	orders, err := h.service.ListOrders(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		respondError(w, r, h.logger, "order_list_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"orders": orders})
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req UpdateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), ps.ByName("id"), req.Status)
	if err != nil {
		respondError(w, r, h.logger, "order_status_update_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{
		"message": "Order status updated successfully",
		"order":   order,
	})
}
