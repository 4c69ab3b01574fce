package abtest

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ateliedalu/backend-atacado/internal/common"
)

// AssignmentHandler handles GET /api/v1/experiments/{key}/assignment.
func (s *Service) AssignmentHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := common.SessionID(r.Context())
	if !ok || sessionID == "" {
		common.JSONError(w, http.StatusBadRequest, "MISSING_SESSION", "session not resolved", nil)
		return
	}
	assignment, err := s.Assign(r.Context(), chi.URLParam(r, "key"), sessionID)
	if errors.Is(err, ErrExperimentNotFound) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "experiment not found", nil)
		return
	}
	if err != nil {
		s.Log.Error().Err(err).Msg("experiment assignment")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not resolve assignment", nil)
		return
	}
	common.JSON(w, http.StatusOK, assignment)
}
