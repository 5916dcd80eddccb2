// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package respond provides HTTP response helpers used by all portal handlers.
//
// # Architecture
//
// Every response (Success, Error or Redirect) follows a strict JSON envelope
// so that the browser client can parse it without guessing. Plain browser
// navigations receive real redirects instead.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/taibuivan/memberportal/internal/platform/apperr"
	"github.com/taibuivan/memberportal/internal/platform/constants"
	"github.com/taibuivan/memberportal/internal/platform/ctxkey"
)

// SuccessEnvelope is the JSON envelope for successful responses.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// ErrorEnvelope is the JSON envelope for error responses.
type ErrorEnvelope struct {
	Error    string              `json:"error"`
	Code     string              `json:"code"`
	Details  []apperr.FieldError `json:"details,omitempty"`
	Redirect string              `json:"redirect,omitempty"`
}

// RedirectEnvelope tells a JSON client where to navigate next.
type RedirectEnvelope struct {
	Redirect string `json:"redirect"`
}

// JSON writes a JSON response with the given status code.
func JSON(writer http.ResponseWriter, statusCode int, payload any) {
	writer.Header().Set(constants.HeaderContentType, "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(payload)
}

// OK writes a 200 OK response with data wrapped in the standard success envelope.
func OK(writer http.ResponseWriter, data any) {
	JSON(writer, http.StatusOK, SuccessEnvelope{Data: data})
}

// Created writes a 201 Created response with data wrapped in the standard success envelope.
func Created(writer http.ResponseWriter, data any) {
	JSON(writer, http.StatusCreated, SuccessEnvelope{Data: data})
}

// NoContent writes a 204 No Content response.
func NoContent(writer http.ResponseWriter) {
	writer.WriteHeader(http.StatusNoContent)
}

/*
Redirect sends the client to location.

Description: Clients that ask for JSON receive 200 with a redirect envelope
and a Location header; browser navigations receive 303 See Other.
*/
func Redirect(writer http.ResponseWriter, request *http.Request, location string) {
	if WantsJSON(request) {
		writer.Header().Set("Location", location)
		JSON(writer, http.StatusOK, RedirectEnvelope{Redirect: location})
		return
	}
	http.Redirect(writer, request, location, http.StatusSeeOther)
}

// WantsJSON reports whether the client prefers a JSON answer.
func WantsJSON(request *http.Request) bool {
	return strings.Contains(request.Header.Get(constants.HeaderAccept), constants.MIMEApplicationJSON) ||
		strings.HasPrefix(request.Header.Get(constants.HeaderContentType), constants.MIMEApplicationJSON)
}

// Error converts any Go error into a standardized JSON error response.
func Error(writer http.ResponseWriter, request *http.Request, err error) {
	var appError *apperr.AppError
	if !errors.As(err, &appError) {
		// Unexpected internal error: log full details but hide them from the client.
		getLoggerFromContext(request).ErrorContext(request.Context(), "unhandled_error_swallowed",
			slog.String("error", err.Error()),
			slog.String("request_id", getRequestIDFromContext(request)),
		)
		appError = apperr.Internal(err)
	}

	if appError.HTTPStatus >= 500 {
		getLoggerFromContext(request).ErrorContext(request.Context(), "portal_server_error",
			slog.String("code", appError.Code),
			slog.String("request_id", getRequestIDFromContext(request)),
			slog.Any("cause", appError.Cause),
		)
	}

	JSON(writer, appError.HTTPStatus, ErrorEnvelope{
		Error:   appError.Message,
		Code:    appError.Code,
		Details: appError.Details,
	})
}

func getLoggerFromContext(request *http.Request) *slog.Logger {
	if logger, ok := request.Context().Value(ctxkey.KeyLogger).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

func getRequestIDFromContext(request *http.Request) string {
	if id, ok := request.Context().Value(ctxkey.KeyRequestID).(string); ok {
		return id
	}
	return ""
}
