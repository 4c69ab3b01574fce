package analytics

import (
	"net/http"

	"github.com/ateliedalu/backend-atacado/internal/common"
)

// ReportHandler handles GET /api/v1/analytics/events.
func (s *Service) ReportHandler(w http.ResponseWriter, r *http.Request) {
	days := common.AtoiDefault(r.URL.Query().Get("days"), 0)
	report, err := s.Range(r.Context(), days)
	if err != nil {
		s.Log.Error().Err(err).Msg("analytics report")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not build analytics report", nil)
		return
	}
	common.JSON(w, http.StatusOK, report)
}
