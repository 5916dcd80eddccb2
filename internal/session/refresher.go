// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/taibuivan/memberportal/internal/platform/apperr"
	"github.com/taibuivan/memberportal/internal/platform/constants"
)

// Refresher exchanges a refresh token for a new access token.
type Refresher interface {
	RefreshAccessToken(ctx context.Context, refreshToken string) (string, error)
}

// maxRefreshBody caps how much of a refresh response is read.
const maxRefreshBody = 64 << 10

// HTTPRefresher calls the backend token-refresh endpoint directly.
//
// It deliberately bypasses the gateway: a refresh must never itself trigger
// another refresh.
type HTTPRefresher struct {
	client   *http.Client
	endpoint string
}

// NewHTTPRefresher builds a refresher against baseURL + api/token/refresh/.
func NewHTTPRefresher(baseURL string, client *http.Client) (*HTTPRefresher, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("session: invalid backend URL: %w", err)
	}

	endpoint, err := base.Parse(constants.EndpointTokenRefresh)
	if err != nil {
		return nil, fmt.Errorf("session: invalid refresh endpoint: %w", err)
	}

	if client == nil {
		client = http.DefaultClient
	}

	return &HTTPRefresher{client: client, endpoint: endpoint.String()}, nil
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access string `json:"access"`
}

// RefreshAccessToken implements [Refresher].
//
// A transport failure is an apperr NETWORK_ERROR; a non-2xx answer is
// classified by [apperr.FromResponse]. The token values are never logged.
func (refresher *HTTPRefresher) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	payload, err := json.Marshal(refreshRequest{Refresh: refreshToken})
	if err != nil {
		return "", fmt.Errorf("refresh_encode_failed: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, refresher.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("refresh_request_failed: %w", err)
	}
	request.Header.Set(constants.HeaderContentType, constants.MIMEApplicationJSON)
	request.Header.Set(constants.HeaderAccept, constants.MIMEApplicationJSON)

	response, err := refresher.client.Do(request)
	if err != nil {
		return "", apperr.Network(err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxRefreshBody))
	if err != nil {
		return "", apperr.Network(err)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return "", apperr.FromResponse(response.StatusCode, body)
	}

	var decoded refreshResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("refresh_decode_failed: %w", err)
	}

	if decoded.Access == "" {
		return "", fmt.Errorf("refresh_response_missing_access_token")
	}

	return decoded.Access, nil
}
