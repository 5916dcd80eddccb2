// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apperr

import (
	"encoding/json"
	"sort"
	"strings"
)

// messageKeys are the top-level keys the backend uses for a human message,
// in order of preference.
var messageKeys = []string{"message", "detail", "error"}

// FromResponse classifies a non-2xx backend response, extracting the most
// useful client-safe message from its JSON body.
//
// The backend answers in three shapes:
//
//	{"message": "Item does not exist."}
//	{"detail": "Token is invalid or expired", "code": "token_not_valid"}
//	{"email": ["Enter a valid email address."], "password": ["This field is required."]}
//
// The last shape becomes per-field [FieldError] details.
func FromResponse(status int, body []byte) *AppError {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return FromStatus(status, "")
	}

	for _, key := range messageKeys {
		var message string
		if raw, found := payload[key]; found && json.Unmarshal(raw, &message) == nil && message != "" {
			return FromStatus(status, message)
		}
	}

	details := fieldErrors(payload)
	appError := FromStatus(status, "")
	if len(details) > 0 {
		appError.Message = "Validation failed"
		appError.Details = details
	}
	return appError
}

// fieldErrors converts {"field": ["msg", ...]} pairs into sorted [FieldError]s.
func fieldErrors(payload map[string]json.RawMessage) []FieldError {
	var details []FieldError

	for field, raw := range payload {
		var messages []string
		if err := json.Unmarshal(raw, &messages); err != nil || len(messages) == 0 {
			continue
		}
		details = append(details, FieldError{Field: field, Message: strings.Join(messages, " ")})
	}

	sort.Slice(details, func(i, j int) bool { return details[i].Field < details[j].Field })
	return details
}
