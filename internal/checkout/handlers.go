package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ateliedalu/backend-atacado/internal/common"
)

type submitRequest struct {
	CustomerName string `json:"customer_name"`
}

// SubmitHandler handles POST /api/v1/checkout/whatsapp. The body is optional
// and may carry a customer name for the message greeting.
func (s *Service) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := common.SessionID(r.Context())
	if !ok || sessionID == "" {
		common.JSONError(w, http.StatusBadRequest, "MISSING_SESSION", "cart session not resolved", nil)
		return
	}
	var req submitRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	submission, err := s.Submit(r.Context(), sessionID, req.CustomerName)
	if err != nil {
		var appErr *common.AppError
		if errors.As(err, &appErr) {
			common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
			return
		}
		s.Log.Error().Err(err).Msg("checkout submit")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not submit checkout", nil)
		return
	}
	common.JSON(w, http.StatusOK, submission)
}
