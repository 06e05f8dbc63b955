// Copyright (c) 2019 SygaTechnology Foundation
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"sygacms/internal/auth"
	"sygacms/internal/middleware"
	"sygacms/internal/store"
)

// Auth groups the authentication handlers: login, logout and TOTP
// two-factor setup.
type Auth struct {
	tokens *auth.TokenStore
	users  *store.UserStore
}

// NewAuth creates a new Auth handler group.
func NewAuth(tokens *auth.TokenStore, users *store.UserStore) *Auth {
	return &Auth{
		tokens: tokens,
		users:  users,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	OTP      string `json:"otp"`
}

// Login checks credentials and issues a bearer token. Users with TOTP
// enabled must also supply a valid code.
// POST /auth/login
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := a.users.FindByEmail(req.Email)
	if err != nil {
		respondInternal(w, err)
		return
	}
	if user == nil || !a.users.CheckPassword(user, req.Password) {
		respondError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	if user.TOTPEnabled {
		if user.TOTPSecret == nil || !totp.Validate(req.OTP, *user.TOTPSecret) {
			respondError(w, http.StatusForbidden, "otp_required")
			return
		}
	}

	token, err := a.tokens.Create(r.Context(), user)
	if err != nil {
		respondInternal(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user": map[string]any{
			"id":    user.ID,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

// Logout revokes the presented bearer token.
// POST /auth/logout
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := a.tokens.Delete(r.Context(), strings.TrimSpace(header[len(prefix):])); err != nil {
		slog.Error("token revoke failed", "error", err)
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// TwoFASetup generates a TOTP secret for the authenticated user and
// returns the provisioning URL plus a QR code PNG, base64 encoded.
// POST /auth/2fa/setup
func (a *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	data := middleware.UserFromCtx(r.Context())

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "SygaCMS",
		AccountName: data.Email,
	})
	if err != nil {
		respondInternal(w, err)
		return
	}

	if err := a.users.SetTOTPSecret(data.UserID, key.Secret()); err != nil {
		respondInternal(w, err)
		return
	}

	png, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		respondInternal(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"url":     key.URL(),
		"qr_png":  base64.StdEncoding.EncodeToString(png),
		"secret":  key.Secret(),
		"account": data.Email,
	})
}

type verifyRequest struct {
	Code string `json:"code"`
}

// TwoFAVerify validates the first TOTP code and enables two-factor
// authentication for the account.
// POST /auth/2fa/verify
func (a *Auth) TwoFAVerify(w http.ResponseWriter, r *http.Request) {
	data := middleware.UserFromCtx(r.Context())

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := a.users.FindByID(data.UserID)
	if err != nil {
		respondInternal(w, err)
		return
	}
	if user == nil || user.TOTPSecret == nil {
		respondError(w, http.StatusUnprocessableEntity, "two-factor setup has not been started")
		return
	}

	if !totp.Validate(req.Code, *user.TOTPSecret) {
		respondError(w, http.StatusUnauthorized, "invalid verification code")
		return
	}

	if err := a.users.EnableTOTP(user.ID); err != nil {
		respondInternal(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "enabled"})
}
