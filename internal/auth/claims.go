// Package auth は管理画面のアクセストークン（JWT）の発行と検証をまとめる。
package auth

import (
	"errors"
	"time"

	"storefront/internal/domain/model"

	"github.com/golang-jwt/jwt/v4"
)

// AccessTokenTTL はアクセストークンの有効期限
const AccessTokenTTL = 15 * time.Minute

var (
	ErrInvalidToken    = errors.New("invalid access token")
	ErrMalformedClaims = errors.New("malformed claims")
)

// AdminClaims はトークンに載せる管理者情報。tv は users.token_version の写し。
type AdminClaims struct {
	UserID       int64            `json:"sub"`
	Role         model.Role       `json:"role"`
	TokenVersion int              `json:"tv"`
	IssuedAt     *jwt.NumericDate `json:"iat,omitempty"`
	ExpiresAt    *jwt.NumericDate `json:"exp,omitempty"`
}

func NewAdminClaims(user *model.User, now time.Time) AdminClaims {
	return AdminClaims{
		UserID:       user.ID,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
		IssuedAt:     jwt.NewNumericDate(now),
		ExpiresAt:    jwt.NewNumericDate(now.Add(AccessTokenTTL)),
	}
}

// Valid は期限チェックに加えて中身の欠けを弾く
func (c AdminClaims) Valid() error {
	std := jwt.RegisteredClaims{IssuedAt: c.IssuedAt, ExpiresAt: c.ExpiresAt}
	if err := std.Valid(); err != nil {
		return err
	}
	if c.UserID <= 0 || c.Role == "" || c.TokenVersion < 0 {
		return ErrMalformedClaims
	}
	return nil
}

// Sign はHS256で署名する
func (c AdminClaims) Sign(secret string) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}

var parser = jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

// Parse は署名・アルゴリズム・期限・中身をまとめて検証する
func Parse(raw string, secret string) (AdminClaims, error) {
	var claims AdminClaims
	token, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return AdminClaims{}, ErrInvalidToken
	}
	return claims, nil
}
