package apiutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
)

type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

type HandlerError struct {
	Status  int
	Message string
	Err     error
}

func (e HandlerError) Error() string {
	return e.Message
}

func (e HandlerError) Unwrap() error {
	return e.Err
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(payload); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteErrorMessage writes {"error": message} with the given status.
func WriteErrorMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	if err := WriteJSON(w, status, ErrorResponse{Error: message}); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int("status", status).Msg("Failed to write error response")
	}
}

// WriteError maps err to a JSON error response. HandlerError and FieldError
// keep their status and message; anything else is logged and reported as a
// 500 with fallback as the message.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	logger := log.Ctx(r.Context())

	var herr HandlerError
	if errors.As(err, &herr) {
		if herr.Status >= http.StatusInternalServerError {
			logger.Error().Err(herr.Err).Msg(herr.Message)
		} else if herr.Err != nil {
			logger.Debug().Err(herr.Err).Int("status", herr.Status).Msg(herr.Message)
		}
		WriteErrorMessage(w, r, herr.Status, herr.Message)
		return
	}

	var ferr FieldError
	if errors.As(err, &ferr) {
		WriteErrorMessage(w, r, http.StatusBadRequest, ferr.Error())
		return
	}

	logger.Error().Err(err).Msg(fallback)
	WriteErrorMessage(w, r, http.StatusInternalServerError, fallback)
}

// DecodeAndValidate decodes a JSON body into dst and runs struct validation.
// Failures are returned as 400 HandlerErrors.
func DecodeAndValidate(r *http.Request, dst any) error {
	if err := DecodeJSON(r, dst); err != nil {
		return HandlerError{Status: http.StatusBadRequest, Message: "Invalid JSON body", Err: err}
	}
	if err := Validate(dst); err != nil {
		return HandlerError{Status: http.StatusBadRequest, Message: err.Error(), Err: err}
	}
	return nil
}
