package http

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/YelzhanWeb/pickup/internal/adapter/logger"
	"github.com/YelzhanWeb/pickup/internal/interfaces"
)

type BackupHandler struct {
	service interfaces.BackupService
	logger  logger.Logger
}

func NewBackupHandler(service interfaces.BackupService, logger logger.Logger) *BackupHandler {
	return &BackupHandler{
		service: service,
		logger:  logger,
	}
}

func (h *BackupHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	id, err := h.service.Create(r.Context())
	if err != nil {
		respondError(w, r, h.logger, "backup_failed", err)
		return
	}
	respondJSON(w, http.StatusCreated, envelope{
		"message":  "Backup created successfully",
		"backupId": id,
	})
}

func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	backups, err := h.service.List(r.Context())
	if err != nil {
		respondError(w, r, h.logger, "backup_list_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"backups": backups})
}

func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Restore(r.Context(), ps.ByName("id")); err != nil {
		respondError(w, r, h.logger, "backup_restore_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"message": "Data restored successfully"})
}

func (h *BackupHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		respondError(w, r, h.logger, "backup_delete_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"message": "Backup deleted successfully"})
}
