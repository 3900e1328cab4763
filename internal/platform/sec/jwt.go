// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (hashing, JWT signing, random
// tokens) from the domain logic. Services receive a [Hasher] and a
// [TokenService] by injection and never touch key material directly.
package sec

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned by the decode methods for expired, malformed,
// forged or wrongly typed tokens. Claims of such tokens must not be trusted.
var ErrInvalidToken = errors.New("sec: invalid token")

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	// jtiBytes is the entropy of an access token id.
	jtiBytes = 16
)

// AccessClaims is the payload embedded inside a JWT access token.
//
// The token id (RegisteredClaims.ID, the "jti") is the correlation key into
// the session store, so the middleware can check revocation per request.
type AccessClaims struct {
	jwt.RegisteredClaims

	Tier     AccountTier `json:"tier"`
	Email    string      `json:"email"`
	Language string      `json:"lang"`
	Type     string      `json:"typ"`
}

// RefreshClaims is the payload of a refresh token: the subject and nothing
// else from the profile, so no stale data survives the long refresh window.
type RefreshClaims struct {
	jwt.RegisteredClaims

	Type string `json:"typ"`
}

// Profile is the identity data copied into an access token.
type Profile struct {
	Tier     AccountTier
	Email    string
	Language string
}

// IssuedToken is a signed token together with the metadata a session needs.
type IssuedToken struct {
	Token     string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenService handles generation and verification of JWT tokens using RS256.
type TokenService struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string

	now    func() time.Time
	random io.Reader
}

// NewTokenService creates a TokenService signing with privateKey.
// It uses the wall clock and [crypto/rand.Reader] until overridden.
func NewTokenService(privateKey *rsa.PrivateKey, issuer string) *TokenService {
	return &TokenService{
		privateKey: privateKey,
		publicKey:  &privateKey.PublicKey,
		issuer:     issuer,
		now:        time.Now,
	}
}

// LoadTokenService creates a TokenService from PEM files on disk.
func LoadTokenService(privateKeyPath, publicKeyPath, issuer string) (*TokenService, error) {
	privateKeyData, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("sec_read_private_key: %s: %w", privateKeyPath, err)
	}

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyData)
	if err != nil {
		return nil, fmt.Errorf("sec_parse_private_key: %w", err)
	}

	publicKeyData, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("sec_read_public_key: %s: %w", publicKeyPath, err)
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyData)
	if err != nil {
		return nil, fmt.Errorf("sec_parse_public_key: %w", err)
	}

	service := NewTokenService(privateKey, issuer)
	service.publicKey = publicKey
	return service, nil
}

// WithClock replaces the time source used for issuance and expiry checks.
func (service *TokenService) WithClock(now func() time.Time) *TokenService {
	service.now = now
	return service
}

// WithRandom replaces the random source used for token ids.
func (service *TokenService) WithRandom(random io.Reader) *TokenService {
	service.random = random
	return service
}

// IssueAccessToken signs a short-lived access token for userID.
//
// Every call draws a fresh random token id; the returned [IssuedToken]
// carries it so the caller can create the matching session.
func (service *TokenService) IssueAccessToken(userID string, profile Profile, timeToLive time.Duration) (IssuedToken, error) {
	tokenID, err := randomHex(service.random, jtiBytes)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("sec_issue_access_token: %w", err)
	}

	issuedAt := service.now()
	expiresAt := issuedAt.Add(timeToLive)

	claims := AccessClaims{
		RegisteredClaims: service.registered(userID, issuedAt, expiresAt),
		Tier:             profile.Tier.OrDefault(),
		Email:            profile.Email,
		Language:         profile.Language,
		Type:             tokenTypeAccess,
	}
	claims.ID = tokenID

	signedToken, err := service.sign(claims)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("sec_issue_access_token: %w", err)
	}

	return IssuedToken{
		Token:     signedToken,
		TokenID:   tokenID,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// IssueRefreshToken signs a long-lived refresh token carrying only the subject.
func (service *TokenService) IssueRefreshToken(userID string, timeToLive time.Duration) (IssuedToken, error) {
	issuedAt := service.now()
	expiresAt := issuedAt.Add(timeToLive)

	claims := RefreshClaims{
		RegisteredClaims: service.registered(userID, issuedAt, expiresAt),
		Type:             tokenTypeRefresh,
	}

	signedToken, err := service.sign(claims)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("sec_issue_refresh_token: %w", err)
	}

	return IssuedToken{Token: signedToken, IssuedAt: issuedAt, ExpiresAt: expiresAt}, nil
}

// DecodeAccess verifies an access token and returns its claims.
func (service *TokenService) DecodeAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := service.parse(tokenString, claims); err != nil {
		return nil, err
	}

	if claims.Type != tokenTypeAccess || claims.ID == "" {
		return nil, fmt.Errorf("%w: not an access token", ErrInvalidToken)
	}
	return claims, nil
}

// DecodeRefresh verifies a refresh token and returns its claims.
func (service *TokenService) DecodeRefresh(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := service.parse(tokenString, claims); err != nil {
		return nil, err
	}

	if claims.Type != tokenTypeRefresh {
		return nil, fmt.Errorf("%w: not a refresh token", ErrInvalidToken)
	}
	return claims, nil
}

func (service *TokenService) registered(userID string, issuedAt, expiresAt time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    service.issuer,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
}

func (service *TokenService) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signedToken, err := token.SignedString(service.privateKey)
	if err != nil {
		return "", fmt.Errorf("sign: %w", err)
	}
	return signedToken, nil
}

func (service *TokenService) parse(tokenString string, claims jwt.Claims) error {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(service.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(service.now),
	)

	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return service.publicKey, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return ErrInvalidToken
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return nil
}
