package handlers

import (
	"errors"
	"net/http"

	"github.com/upb/userauth-api/middleware"
	"github.com/upb/userauth-api/services"
	"github.com/upb/userauth-api/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses.
// Only validation and conflict failures carry a body; every other status is empty.
func HandleServiceError(w http.ResponseWriter, r *http.Request, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	requestID := middleware.GetRequestIDFromContext(r.Context())

	switch services.GetErrorType(err) {
	case services.ErrorTypeValidation:
		writePayload(w, http.StatusBadRequest, err, logger)

	case services.ErrorTypeBadRequest:
		logger.Debug("bad request",
			zap.String("request_id", requestID),
			zap.Error(err))
		utils.WriteEmpty(w, http.StatusBadRequest)

	case services.ErrorTypeUnauthorized:
		utils.WriteEmpty(w, http.StatusUnauthorized)

	case services.ErrorTypeConflict:
		writePayload(w, http.StatusConflict, err, logger)

	default:
		logger.Error("unexpected error",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
			zap.Stack("stack"))
		utils.WriteEmpty(w, http.StatusInternalServerError)
	}
}

// HandleDecodeError answers a body that could not be parsed as JSON
func HandleDecodeError(w http.ResponseWriter, r *http.Request, err error, logger *zap.Logger) {
	if !errors.Is(err, utils.ErrMalformedBody) {
		HandleServiceError(w, r, err, logger)
		return
	}

	payload := utils.ErrorsPayload{Errors: []utils.FieldError{{
		Param:   "body",
		Message: "request body must be a JSON object",
	}}}
	if err := utils.WriteJSON(w, http.StatusBadRequest, payload); err != nil {
		logger.Error("failed to write decode error response", zap.Error(err))
	}
}

func writePayload(w http.ResponseWriter, status int, err error, logger *zap.Logger) {
	payload := services.GetErrorPayload(err)
	if payload == nil {
		utils.WriteEmpty(w, status)
		return
	}
	if err := utils.WriteJSON(w, status, payload); err != nil {
		logger.Error("failed to write error response", zap.Error(err))
	}
}
