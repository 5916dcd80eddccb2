// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire portal.

It defines default timeouts, rate limits, backend endpoint paths and the
cross-cutting keys that are shared between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Backend: REST endpoint paths of the membership service.
  - Navigation: Paths of the login page and the two dashboards.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "memberportal"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	// Larger than GatewayTimeout since a handler may refresh and replay a backend call.
	DefaultWriteTimeout = 30 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 25 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 50.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 100

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Backend Endpoints
//
// Paths are relative to the configured backend base URL and keep the trailing
// slash the backend router expects.

const (
	EndpointToken        = "api/token/"
	EndpointTokenRefresh = "api/token/refresh/"
	EndpointRegister     = "api/admin/register/"
	EndpointProfile      = "api/profile/"
	EndpointMembership   = "api/membership/"

	EndpointProducts        = "api/products/"
	EndpointProductCreate   = "api/products/create/"
	EndpointProductRetrieve = "api/products/retrieve/%d/"
	EndpointProductEdit     = "api/products/edit/%d/"
	EndpointProductDelete   = "api/products/delete/%d/"

	EndpointCartAdd      = "api/cart/add/"
	EndpointCartView     = "api/cart/view/"
	EndpointCartRemove   = "api/cart/remove/"
	EndpointCartCheckout = "api/cart/checkout/"

	EndpointEvents        = "api/events/"
	EndpointEventCreate   = "api/events/create/"
	EndpointEventRetrieve = "api/events/retrieve/%d/"
	EndpointEventEdit     = "api/events/edit/%d/"
	EndpointEventDelete   = "api/events/delete/%d/"
)

// # Navigation

const (
	PathLogin          = "/login"
	PathLogout         = "/logout"
	PathRegister       = "/register"
	PathAdminDashboard = "/admin-dashboard"
	PathUserDashboard  = "/user-dashboard"
)

// # Session Cookie

const (
	// DefaultSessionCookieName is the cookie that carries the visitor ID.
	DefaultSessionCookieName = "portal_session"

	// DefaultSessionKey is the store key used when a single session is managed
	// (e.g. command-line usage), as opposed to one session per visitor.
	DefaultSessionKey = "default"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	HeaderAccept        = "Accept"

	MIMEApplicationJSON = "application/json"
)

// # Redis Prefixes

const (
	RedisPrefixSession = "portal:session:"
)
