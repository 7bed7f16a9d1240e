package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/hrvault/internal/db"
)

type HealthHandler struct {
	db     *sqlx.DB
	driver string
}

func NewHealthHandler(database *sqlx.DB, driver string) *HealthHandler {
	return &HealthHandler{db: database, driver: driver}
}

type healthResponse struct {
	Status        string `json:"status"`
	SchemaVersion int64  `json:"schemaVersion,omitempty"`
	Error         string `json:"error,omitempty"`
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	err := h.db.PingContext(ctx)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Error: "database unreachable"})
		return
	}

	version, err := db.SchemaVersion(h.db.DB, h.driver)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Error: "schema version unknown"})
		return
	}

	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", SchemaVersion: version})
}
