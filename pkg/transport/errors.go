package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/JunbolWincAcademyBackend/bookstore/pkg/api"
)

// encodeBody marshals body the way WriteJSON sends it. A nil body encodes
// to nothing.
func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// writeEncoded writes an already encoded JSON body with the given status.
func writeEncoded(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if len(data) == 0 {
		return
	}
	if _, err := w.Write(data); err != nil {
		slog.Debug("writing response body failed", "error", err)
	}
}

// WriteJSON writes body as JSON with the given status code. The body is
// encoded before any header is sent; if encoding fails the client gets the
// catch-all 500 instead of a truncated response.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	data, err := encodeBody(body)
	if err != nil {
		slog.Error("encoding response body failed", "error", err)
		data, _ = encodeBody(api.ErrorResponse{Message: api.MessageInternal})
		status = http.StatusInternalServerError
	}
	writeEncoded(w, status, data)
}

// WriteErrorResponse writes a JSON error body carrying only message.
func WriteErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	WriteJSON(w, statusCode, api.ErrorResponse{Message: message})
}
