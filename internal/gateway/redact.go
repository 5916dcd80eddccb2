// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package gateway

import (
	"net/http"
	"strings"
)

// Redacted replaces every credential value in diagnostics output.
const Redacted = "[REDACTED]"

// sensitiveHeaders never appear in logs with their raw value.
var sensitiveHeaders = map[string]bool{
	"Authorization":       true,
	"Proxy-Authorization": true,
	"Cookie":              true,
	"Set-Cookie":          true,
}

// RedactHeaders flattens header into a loggable map with credentials masked.
//
// The authentication scheme of an Authorization value is kept so logs still
// show whether a call was authenticated ("Bearer [REDACTED]").
func RedactHeaders(header http.Header) map[string]string {
	flat := make(map[string]string, len(header))

	for name, values := range header {
		canonical := http.CanonicalHeaderKey(name)

		if !sensitiveHeaders[canonical] {
			flat[canonical] = strings.Join(values, ", ")
			continue
		}

		if canonical == "Authorization" || canonical == "Proxy-Authorization" {
			scheme, _, found := strings.Cut(strings.Join(values, ", "), " ")
			if found && scheme != "" {
				flat[canonical] = scheme + " " + Redacted
				continue
			}
		}

		flat[canonical] = Redacted
	}

	return flat
}
