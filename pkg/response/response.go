package response

import (
	"encoding/json"
	"net/http"
)

// JSON writes v as-is. The frontend contract fixes the top-level keys
// (notes, status, error), so there is no response envelope.
func JSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

func OK(w http.ResponseWriter, v interface{}) {
	JSON(w, http.StatusOK, v)
}

func Error(w http.ResponseWriter, statusCode int, err string) {
	JSON(w, statusCode, map[string]string{"error": err})
}

func InternalError(w http.ResponseWriter, err string) {
	Error(w, http.StatusInternalServerError, err)
}
