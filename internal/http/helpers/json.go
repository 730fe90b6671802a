// Package helpers agrupa utilidades HTTP compartidas por controllers y
// middlewares.
package helpers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strings"

	httperrors "github.com/teamnest/teamnest/internal/http/errors"
)

// DefaultMaxBody es el límite de body para endpoints JSON chicos.
const DefaultMaxBody = 64 * 1024

// ReadJSON decodifica el body en v con límite de tamaño. Campos desconocidos
// no fallan. Body vacío se acepta si allowEmpty.
func ReadJSON(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) error {
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	if r.ContentLength != 0 && ct != "" && !strings.Contains(ct, "application/json") {
		return httperrors.ErrBadRequest.WithDetail("Content-Type debe ser application/json")
	}
	r.Body = http.MaxBytesReader(w, r.Body, DefaultMaxBody)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if stderrors.Is(err, io.EOF) && allowEmpty {
			return nil
		}
		var mbe *http.MaxBytesError
		if stderrors.As(err, &mbe) {
			return httperrors.ErrBodyTooLarge
		}
		return httperrors.ErrInvalidJSON
	}
	return nil
}

// WriteJSON escribe v con el status dado.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
