// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package respond provides HTTP response helpers used by all API handlers.
//
// # Architecture
//
// Every response, success or failure, carries "success" and "message" at the
// top level. Operation-specific fields sit next to them, so payload types
// embed [Envelope].
//
//	{"success": true, "message": "Login successful", "access_token": "..."}
//	{"success": false, "message": "Invalid email or password", "code": "INVALID_CREDENTIALS"}
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/taibuivan/recipehub/internal/platform/apperr"
	"github.com/taibuivan/recipehub/internal/platform/ctxutil"
)

// Envelope is the part shared by every response body.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorEnvelope is the JSON body of a failed operation.
type ErrorEnvelope struct {
	Envelope
	Code    string              `json:"code"`
	Details []apperr.FieldError `json:"details,omitempty"`
}

// Succeeded returns a success [Envelope] for embedding into payloads.
func Succeeded(message string) Envelope {
	return Envelope{Success: true, Message: message}
}

// JSON writes a JSON response with the given status code.
func JSON(writer http.ResponseWriter, statusCode int, payload any) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(payload)
}

// OK writes a 200 OK response. The payload should embed [Envelope].
func OK(writer http.ResponseWriter, payload any) {
	JSON(writer, http.StatusOK, payload)
}

// Created writes a 201 Created response. The payload should embed [Envelope].
func Created(writer http.ResponseWriter, payload any) {
	JSON(writer, http.StatusCreated, payload)
}

// Message writes a 200 OK response that carries nothing but a message.
func Message(writer http.ResponseWriter, message string) {
	JSON(writer, http.StatusOK, Succeeded(message))
}

// Error converts any Go error into a standardized JSON API error response.
func Error(writer http.ResponseWriter, request *http.Request, err error) {
	logger := ctxutil.GetLogger(request.Context())

	var appError *apperr.AppError
	if !errors.As(err, &appError) {
		// Unexpected internal error: log full details but hide them from the client.
		logger.ErrorContext(request.Context(), "unhandled_error_swallowed",
			slog.String("error", err.Error()),
			slog.String("request_id", ctxutil.GetRequestID(request.Context())),
		)
		appError = apperr.Internal(err)
	}

	// Always log 5xx errors as they indicate server-side issues.
	if appError.HTTPStatus >= http.StatusInternalServerError {
		logger.ErrorContext(request.Context(), "api_server_error",
			slog.String("code", appError.Code),
			slog.String("request_id", ctxutil.GetRequestID(request.Context())),
			slog.Any("cause", appError.Cause),
		)
	}

	JSON(writer, appError.HTTPStatus, ErrorEnvelope{
		Envelope: Envelope{Success: false, Message: appError.Message},
		Code:     appError.Code,
		Details:  appError.Details,
	})
}
