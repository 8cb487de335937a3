package resp

import (
	"encoding/json"
	"net/http"
)

// WriteJSONResponse пишет JSON ответ с указанным статусом
func WriteJSONResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError пишет ошибку в формате {"error": "...", "code": "..."}
func WriteError(w http.ResponseWriter, status int, code, msg string) {
	WriteJSONResponse(w, status, map[string]string{
		"error": msg,
		"code":  code,
	})
}
