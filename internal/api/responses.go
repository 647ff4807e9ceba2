package api

import (
	"encoding/json"
	"net/http"

	"riff-review/internal/utils"

	"github.com/rs/zerolog/log"
)

// ErrorResponse is the JSON body written for every failed request.
type ErrorResponse struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Redirect string            `json:"redirect,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
}

type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Error   string `json:"error,omitempty"`
	UserID  string `json:"userId"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// WriteError maps err to its HTTP status and writes an ErrorResponse.
func WriteError(w http.ResponseWriter, err error) {
	appErr := utils.AsAppError(err)
	WriteJSON(w, utils.AppErrorToHTTPStatus(appErr.Code), ErrorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
	})
}
