// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package portal

import (
	"log/slog"
	"net/http"

	"github.com/taibuivan/memberportal/internal/backend"
	"github.com/taibuivan/memberportal/internal/gateway"
	"github.com/taibuivan/memberportal/internal/platform/apperr"
	"github.com/taibuivan/memberportal/internal/platform/constants"
	"github.com/taibuivan/memberportal/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/memberportal/internal/platform/request"
	"github.com/taibuivan/memberportal/internal/platform/respond"
	"github.com/taibuivan/memberportal/internal/platform/sec"
	"github.com/taibuivan/memberportal/internal/session"
)

// Handler serves the portal pages.
type Handler struct {
	gateway *gateway.Gateway
}

// NewHandler constructs a [Handler].
func NewHandler(gw *gateway.Gateway) *Handler {
	return &Handler{gateway: gw}
}

// loginView is the answer of GET /login for a visitor without a session.
type loginView struct {
	Authenticated bool `json:"authenticated"`
}

// loginResult never carries tokens; they stay in the session store.
type loginResult struct {
	Username   string `json:"username"`
	MemberName string `json:"member_name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Redirect   string `json:"redirect"`
}

type registerResult struct {
	Profile  *backend.Profile `json:"profile"`
	Redirect string           `json:"redirect"`
}

// # Authentication Pages

// loginPage handles GET /login. A logged-in visitor is sent to their dashboard.
func (handler *Handler) loginPage(writer http.ResponseWriter, request *http.Request) {
	current, err := handler.session(request).Current(request.Context())
	if err != nil {
		handler.fail(writer, request, err)
		return
	}

	if destination := dashboardFor(current.Role); current.Authenticated() && destination != "" {
		respond.Redirect(writer, request, destination)
		return
	}

	respond.OK(writer, loginView{Authenticated: false})
}

// login handles POST /login.
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()

	var credentials backend.Credentials
	if err := requestutil.DecodeJSON(request, &credentials); err != nil {
		handler.fail(writer, request, err)
		return
	}

	pair, err := handler.client(request).Login(ctx, credentials)
	if err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "portal_login_failed",
			slog.String("username", credentials.Username),
			slog.Any("error", err),
		)
		handler.fail(writer, request, err)
		return
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "portal_login_succeeded",
		slog.String("username", pair.Username),
		slog.String("role", pair.Role),
	)

	respond.OK(writer, loginResult{
		Username:   pair.Username,
		MemberName: pair.MemberName,
		Email:      pair.Email,
		Role:       pair.Role,
		Redirect:   dashboardFor(sec.Role(pair.Role)),
	})
}

// register handles POST /register. Any previous session is discarded first.
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	client := handler.client(request)

	if err := client.Logout(ctx); err != nil {
		handler.fail(writer, request, err)
		return
	}

	var registration backend.Registration
	if err := requestutil.DecodeJSON(request, &registration); err != nil {
		handler.fail(writer, request, err)
		return
	}

	profile, err := client.Register(ctx, registration)
	if err != nil {
		handler.fail(writer, request, err)
		return
	}

	respond.Created(writer, registerResult{Profile: profile, Redirect: constants.PathLogin})
}

// logout handles GET and POST /logout.
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	if err := handler.client(request).Logout(request.Context()); err != nil {
		handler.fail(writer, request, err)
		return
	}
	respond.Redirect(writer, request, constants.PathLogin)
}

// # Helpers

// session returns the visitor's manager placed by the session middleware.
func (handler *Handler) session(request *http.Request) *session.Manager {
	return ctxutil.GetSession(request.Context())
}

// client binds a backend client to the visitor's session.
func (handler *Handler) client(request *http.Request) *backend.Client {
	return backend.New(handler.gateway, handler.session(request))
}

/*
fail writes err to the client.

Description: An expired session has already been cleared by the session
manager; the visitor is sent back to the login page.
*/
func (handler *Handler) fail(writer http.ResponseWriter, request *http.Request, err error) {
	appError := apperr.As(err)
	if appError == nil || appError.Code != apperr.CodeSessionExpired {
		respond.Error(writer, request, err)
		return
	}

	if !respond.WantsJSON(request) {
		respond.Redirect(writer, request, constants.PathLogin)
		return
	}

	respond.JSON(writer, appError.HTTPStatus, respond.ErrorEnvelope{
		Error:    appError.Message,
		Code:     appError.Code,
		Redirect: constants.PathLogin,
	})
}

// dashboardFor maps a role to its landing page.
func dashboardFor(role sec.Role) string {
	switch role {
	case sec.RoleAdmin:
		return constants.PathAdminDashboard
	case sec.RoleUser:
		return constants.PathUserDashboard
	default:
		return ""
	}
}
