package api

import (
	"net/http"

	"github.com/okian/sentivision/pkg/logger"
)

// ExportHandler rewrites the clients file on demand.
type ExportHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewExportHandler creates a new export handler.
func NewExportHandler(deps Dependencies, l logger.Logger) *ExportHandler {
	return &ExportHandler{deps: deps, logger: l}
}

// HandleExport handles POST /api/clients/export.
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.ExportClients(r.Context())
	if err != nil {
		fail(r.Context(), h.logger, w, "api.export_clients", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
