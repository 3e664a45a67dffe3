// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidCredentials is returned for a wrong email or password.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Admin authenticates the single back-office account.
type Admin struct {
	email        string
	passwordHash string
	tokens       *JWTManager
}

// NewAdmin creates an authenticator for the configured account.
func NewAdmin(email, passwordHash string, tokens *JWTManager) (*Admin, error) {
	if err := ValidateHash(passwordHash); err != nil {
		return nil, fmt.Errorf("admin password hash: %w", err)
	}
	return &Admin{
		email:        strings.ToLower(strings.TrimSpace(email)),
		passwordHash: passwordHash,
		tokens:       tokens,
	}, nil
}

// Login checks credentials and issues an access token.
func (a *Admin) Login(email, password string) (string, time.Time, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(a.email)) == 1

	// Always hash so a wrong email costs the same as a wrong password.
	passwordOK, err := CheckPassword(password, a.passwordHash)
	if err != nil {
		return "", time.Time{}, err
	}
	if !emailOK || !passwordOK {
		return "", time.Time{}, ErrInvalidCredentials
	}

	return a.tokens.GenerateAccessToken(a.email, RoleAdmin)
}

// Verify validates an access token and requires the admin role.
func (a *Admin) Verify(token string) (Claims, error) {
	claims, err := a.tokens.ValidateAccessToken(token)
	if err != nil {
		return Claims{}, err
	}
	if claims.Role != RoleAdmin {
		return Claims{}, fmt.Errorf("role %q is not allowed", claims.Role)
	}
	return claims, nil
}
