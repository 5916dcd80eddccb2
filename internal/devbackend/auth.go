// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package devbackend

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/taibuivan/memberportal/internal/backend"
	requestutil "github.com/taibuivan/memberportal/internal/platform/request"
	"github.com/taibuivan/memberportal/internal/platform/respond"
	"github.com/taibuivan/memberportal/internal/platform/sec"
	"github.com/taibuivan/memberportal/internal/platform/validate"
)

// tokenRefreshRequest is the payload of POST /api/token/refresh/.
type tokenRefreshRequest struct {
	Refresh string `json:"refresh"`
}

// tokenRefreshResponse mirrors the backend's refresh answer.
type tokenRefreshResponse struct {
	Access     string `json:"access"`
	MemberName string `json:"member_name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
}

// obtainToken handles POST /api/token/.
func (handler *Handler) obtainToken(writer http.ResponseWriter, request *http.Request) {
	// ── 1. Payload Extraction ─────────────────────────────────────────────
	var credentials backend.Credentials
	if err := requestutil.DecodeJSON(request, &credentials); err != nil {
		writeError(writer, err)
		return
	}

	if err := credentials.Validate(); err != nil {
		writeError(writer, err)
		return
	}

	// ── 2. Authentication ─────────────────────────────────────────────────
	profile, err := handler.store.Authenticate(credentials.Username, credentials.Password)
	if err != nil {
		writeDetail(writer, http.StatusUnauthorized, "No active account found with the given credentials", "no_active_account")
		return
	}

	// ── 3. Token Issue ────────────────────────────────────────────────────
	access, refresh, err := handler.issuePair(profile)
	if err != nil {
		writeError(writer, err)
		return
	}

	respond.JSON(writer, http.StatusOK, backend.TokenPair{
		Access:     access,
		Refresh:    refresh,
		MemberID:   profile.MemberID,
		Username:   profile.Username,
		MemberName: profile.MemberName,
		Email:      profile.Email,
		Role:       profile.Role,
	})
}

// refreshToken handles POST /api/token/refresh/.
func (handler *Handler) refreshToken(writer http.ResponseWriter, request *http.Request) {
	var input tokenRefreshRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		writeError(writer, err)
		return
	}

	if input.Refresh == "" {
		writeError(writer, validate.RequiredError("refresh", "This field is required."))
		return
	}

	// ── 1. Verify Refresh Token ───────────────────────────────────────────
	claims, err := handler.tokens.VerifyToken(input.Refresh, sec.KindRefresh)
	if err != nil {
		writeDetail(writer, http.StatusUnauthorized, "Token is invalid or expired", "token_not_valid")
		return
	}

	// ── 2. Member Must Still Exist ────────────────────────────────────────
	memberID, _ := strconv.Atoi(claims.UserID)
	profile, err := handler.store.Member(memberID)
	if err != nil {
		writeDetail(writer, http.StatusUnauthorized, "User not found", "user_not_found")
		return
	}

	// ── 3. New Access Token Only ──────────────────────────────────────────
	access, err := handler.tokens.GenerateToken(sec.KindAccess, claims.UserID, profile.Username, profile.Role, handler.accessTTL)
	if err != nil {
		writeError(writer, err)
		return
	}

	respond.JSON(writer, http.StatusOK, tokenRefreshResponse{
		Access:     access,
		MemberName: profile.MemberName,
		Email:      profile.Email,
		Role:       profile.Role,
	})
}

// register handles POST /api/admin/register/.
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var registration backend.Registration
	if err := requestutil.DecodeJSON(request, &registration); err != nil {
		writeError(writer, err)
		return
	}

	if err := registration.Validate(); err != nil {
		writeError(writer, err)
		return
	}

	profile, err := handler.store.CreateMember(registration)
	if errors.Is(err, ErrUsernameTaken) {
		writeError(writer, validate.RequiredError("username", "A member with that username already exists."))
		return
	}
	if err != nil {
		writeError(writer, err)
		return
	}

	respond.JSON(writer, http.StatusCreated, profile)
}

// issuePair signs a fresh access and refresh token for a member.
func (handler *Handler) issuePair(profile backend.Profile) (access, refresh string, err error) {
	userID := strconv.Itoa(profile.MemberID)

	access, err = handler.tokens.GenerateToken(sec.KindAccess, userID, profile.Username, profile.Role, handler.accessTTL)
	if err != nil {
		return "", "", err
	}

	refresh, err = handler.tokens.GenerateToken(sec.KindRefresh, userID, profile.Username, profile.Role, handler.refreshTTL)
	if err != nil {
		return "", "", err
	}

	return access, refresh, nil
}
