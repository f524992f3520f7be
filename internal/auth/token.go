package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/salesdesk/salesdesk/internal/shared"
)

// TokenManager signs and verifies HS256 bearer tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager constructs a TokenManager.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token carrying the user id and role.
func (m *TokenManager) Issue(user *User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(m.ttl).Unix(),
	})
	return token.SignedString(m.secret)
}

// Verify parses the token and returns the actor it encodes.
func (m *TokenManager) Verify(tokenString string) (shared.Actor, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method %q", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return shared.Actor{}, fmt.Errorf("auth: invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return shared.Actor{}, fmt.Errorf("auth: invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	actor := shared.Actor{UserID: sub, Role: shared.Role(role)}
	if actor.UserID == "" || !actor.Role.Valid() {
		return shared.Actor{}, fmt.Errorf("auth: invalid token claims")
	}
	return actor, nil
}
