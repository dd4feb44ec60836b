package http

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/YelzhanWeb/pickup/internal/adapter/logger"
	"github.com/YelzhanWeb/pickup/internal/domain"
	"github.com/YelzhanWeb/pickup/internal/interfaces"
)

type TimeSlotHandler struct {
	slots        interfaces.TimeSlotService
	availability interfaces.AvailabilityService
	logger       logger.Logger
}

func NewTimeSlotHandler(slots interfaces.TimeSlotService, availability interfaces.AvailabilityService, logger logger.Logger) *TimeSlotHandler {
	return &TimeSlotHandler{
		slots:        slots,
		availability: availability,
		logger:       logger,
	}
}

func (h *TimeSlotHandler) GetConfig(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	cfg, err := h.slots.GetConfig(r.Context())
	if err != nil {
		respondError(w, r, h.logger, "timeslot_config_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"config": cfg})
}

func (h *TimeSlotHandler) ReplaceConfig(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req domain.TimeSlotConfig
	if !decodeJSON(w, r, &req) {
		return
	}

	cfg, err := h.slots.ReplaceConfig(r.Context(), &req)
	if err != nil {
		respondError(w, r, h.logger, "timeslot_config_update_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"config": cfg})
}

func (h *TimeSlotHandler) AddSlot(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req domain.TimeSlot
	if !decodeJSON(w, r, &req) {
		return
	}

	cfg, err := h.slots.AddSlot(r.Context(), req)
	if err != nil {
		respondError(w, r, h.logger, "timeslot_add_failed", err)
		return
	}
	respondJSON(w, http.StatusCreated, envelope{"config": cfg})
}

func (h *TimeSlotHandler) UpdateSlot(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var patch domain.TimeSlotPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	cfg, err := h.slots.UpdateSlot(r.Context(), ps.ByName("id"), patch)
	if err != nil {
		respondError(w, r, h.logger, "timeslot_update_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"config": cfg})
}

func (h *TimeSlotHandler) DeleteSlot(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	cfg, err := h.slots.DeleteSlot(r.Context(), ps.ByName("id"))
	if err != nil {
		respondError(w, r, h.logger, "timeslot_delete_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"config": cfg})
}

func (h *TimeSlotHandler) AvailableDates(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	dates, err := h.availability.AvailableDates(r.Context())
	if err != nil {
		respondError(w, r, h.logger, "available_dates_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"dates": dates})
}

func (h *TimeSlotHandler) AvailableSlots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.availableSlots(w, r, ps.ByName("date"))
}

type availableForDateRequest struct {
	Date string `json:"date"`
}

func (h *TimeSlotHandler) AvailableForDate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req availableForDateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.availableSlots(w, r, req.Date)
}

func (h *TimeSlotHandler) availableSlots(w http.ResponseWriter, r *http.Request, date string) {
	slots, err := h.availability.AvailableSlots(r.Context(), date)
	if err != nil {
		respondError(w, r, h.logger, "available_slots_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"availableSlots": slots})
}
