package httpx

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes a JSON response with the given status code.
// It automatically sets the Content-Type header and Cache-Control headers.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteMessage writes the portal's error body: {"error": code, "message": msg}.
func WriteMessage(w http.ResponseWriter, status int, code, msg string) {
	WriteJSON(w, status, map[string]string{
		"error":   code,
		"message": msg,
	})
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
// Every portal view carries patient data, so none of it may be cached.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// DecodeJSON reads a JSON request body into v, rejecting unknown fields.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
