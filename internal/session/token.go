// Package session issues and verifies rejoin tokens. A disconnected player
// presents the token to reclaim their seat at the same table without going
// through matchmaking again.
package session

import (
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

const tokenIssuer = "tricktable"

// TokenService signs and verifies HS256 rejoin tokens.
type TokenService struct {
	secret string
}

// NewTokenService builds a token service around the shared secret.
func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: secret}
}

// RejoinClaims is the verified content of a rejoin token.
type RejoinClaims struct {
	TableID  string
	PlayerID string
	Seat     int
}

// GenerateRejoinToken signs a token binding the player to their seat at the
// table for the given lifetime.
func (s *TokenService) GenerateRejoinToken(tableID, playerID string, seat int, ttl time.Duration) (string, error) {
	if s == nil || s.secret == "" {
		return "", fmt.Errorf("rejoin tokens are not configured")
	}
	if tableID == "" || playerID == "" {
		return "", fmt.Errorf("table and player are required")
	}

	claims := jwt.MapClaims{
		"iss":  tokenIssuer,
		"sub":  playerID,
		"tid":  tableID,
		"seat": seat,
		"exp":  time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// VerifyRejoinToken validates the signature and expiry and returns the bound
// claims.
func (s *TokenService) VerifyRejoinToken(tokenString string) (RejoinClaims, error) {
	if s == nil || s.secret == "" {
		return RejoinClaims{}, fmt.Errorf("rejoin tokens are not configured")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return RejoinClaims{}, fmt.Errorf("invalid rejoin token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return RejoinClaims{}, fmt.Errorf("invalid rejoin token claims")
	}
	if iss, _ := claims["iss"].(string); iss != tokenIssuer {
		return RejoinClaims{}, fmt.Errorf("unexpected token issuer")
	}

	out := RejoinClaims{}
	out.PlayerID, _ = claims["sub"].(string)
	out.TableID, _ = claims["tid"].(string)
	if seat, ok := claims["seat"].(float64); ok {
		out.Seat = int(seat)
	}
	if out.PlayerID == "" || out.TableID == "" {
		return RejoinClaims{}, fmt.Errorf("rejoin token missing subject or table")
	}
	return out, nil
}
