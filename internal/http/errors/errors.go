package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/teamnest/teamnest/internal/observability/logger"
)

// errorResponse es lo único que ve el cliente.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// WriteError escribe err como JSON. Un error que no es *AppError sale como 500
// y la causa solo va al log.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	if appErr.HTTPStatus >= 500 && appErr.Err != nil {
		logger.L().Error("internal error", logger.Layer("http"), logger.String("code", appErr.Code), logger.Err(appErr.Err))
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
	})
}

// FromError convierte err en *AppError. Acepta AppError envueltos.
func FromError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServerError.WithCause(err)
}
