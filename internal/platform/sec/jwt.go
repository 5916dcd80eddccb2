// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives, role parsing and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (hashing, JWT signing) from
// the portal logic. The development backend signs its tokens with [TokenService];
// the portal itself only ever peeks at the expiry of a token it already holds.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taibuivan/memberportal/pkg/uuid"
)

// TokenKind distinguishes access tokens from refresh tokens.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// ErrWrongTokenKind is returned when a refresh token is presented as an access
// token or vice versa.
var ErrWrongTokenKind = errors.New("auth: wrong token kind")

// AuthClaims represents the payload embedded inside a signed token.
//
// # Why custom claims?
//
// The role travels inside the token so the refresh endpoint can reissue an
// access token without a database round trip.
type AuthClaims struct {
	jwt.RegisteredClaims

	// Custom application claims are abbreviated to keep the JWT payload small.
	UserID   string    `json:"uid"`
	Username string    `json:"unm"`
	Role     string    `json:"rol"`
	Kind     TokenKind `json:"typ"`
}

// TokenService handles generation and verification of HS256 tokens.
type TokenService struct {
	secret []byte
	issuer string
}

// NewTokenService creates a new TokenService from a shared secret.
func NewTokenService(secret, issuer string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, fmt.Errorf("auth: signing secret must be at least 16 bytes")
	}

	return &TokenService{
		secret: []byte(secret),
		issuer: issuer,
	}, nil
}

// GenerateToken creates a signed token of the given kind for a user.
func (service *TokenService) GenerateToken(kind TokenKind, userID, username, role string, timeToLive time.Duration) (string, error) {
	currentTime := time.Now()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New(),
			Subject:   userID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		UserID:   userID,
		Username: username,
		Role:     role,
		Kind:     kind,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("auth: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// VerifyToken checks the signature, validity and kind of a token string.
func (service *TokenService) VerifyToken(tokenString string, kind TokenKind) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
		}
		return service.secret, nil
	}, jwt.WithIssuer(service.issuer))

	if err != nil {
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}

	if claims.Kind != kind {
		return nil, ErrWrongTokenKind
	}

	return claims, nil
}

// PeekExpiry reads the exp claim of a JWT without verifying its signature.
//
// It is only meant for diagnostics (e.g. logging how long an access token has
// left); the result must never be used for an authorization decision.
func PeekExpiry(tokenString string) (time.Time, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, false
	}

	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}

	return claims.ExpiresAt.Time, true
}
