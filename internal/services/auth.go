package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tej1010/spongier-backend-sub001/internal/platform/ctxutil"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/logger"
)

// JWTClaims is what the platform's auth service signs into access tokens.
type JWTClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// AuthService only verifies tokens; issuing them belongs to the platform's
// account service.
type AuthService interface {
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type authService struct {
	log          *logger.Logger
	jwtSecretKey string
}

func NewAuthService(baseLog *logger.Logger, jwtSecretKey string) AuthService {
	return &authService{log: baseLog.With("service", "AuthService"), jwtSecretKey: jwtSecretKey}
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return ctx, ErrUnauthorized
	}
	if as.jwtSecretKey == "" {
		return ctx, fmt.Errorf("jwt secret not configured: %w", ErrUnauthorized)
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return ctx, fmt.Errorf("parse token: %w", ErrUnauthorized)
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return ctx, fmt.Errorf("invalid or expired token: %w", ErrUnauthorized)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("invalid user id in token: %w", ErrUnauthorized)
	}
	rd := &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		Role:        claims.Role,
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}
