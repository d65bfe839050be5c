// Package httpapi provides the JSON response envelope and error translation
// used by every API handler.
//
// All endpoints reply with {success, message, data?, error?}. Failures are
// translated from the apperr taxonomy to HTTP status codes at this boundary;
// handlers never write raw errors to the wire.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rashikacodes/pulstrix/internal/app/system/apperr"
	"go.uber.org/zap"
)

// Response is the wire envelope for every API reply.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK writes a 200 success envelope.
func OK(w http.ResponseWriter, message string, data any) {
	write(w, http.StatusOK, Response{Success: true, Message: message, Data: data})
}

// Created writes a 201 success envelope.
func Created(w http.ResponseWriter, message string, data any) {
	write(w, http.StatusCreated, Response{Success: true, Message: message, Data: data})
}

// Fail writes a failure envelope with an explicit status code.
func Fail(w http.ResponseWriter, status int, message string) {
	write(w, status, Response{Success: false, Message: message})
}

// Error translates err through the apperr taxonomy and writes the failure
// envelope. Internal errors are logged with detail but surfaced generically.
func Error(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, apperr.ErrInvalidArgument):
		Fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		Fail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, apperr.ErrConflict):
		Fail(w, http.StatusConflict, err.Error())
	case errors.Is(err, apperr.ErrCollaboratorUnavailable):
		Fail(w, http.StatusServiceUnavailable, err.Error())
	default:
		log.Error("request failed", zap.Error(err))
		Fail(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

// Decode parses a JSON request body into dst, returning an InvalidArgument
// error on malformed input. Unknown fields are rejected so typos in command
// structs fail loudly instead of silently dropping data.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.InvalidArgument("invalid request body: %v", err)
	}
	return nil
}

func write(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
