package authhandlers

import (
	"encoding/json"
	"net/http"
)

// errorBody matches the error envelope of the round API.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func reject(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: code, Message: message})
}
