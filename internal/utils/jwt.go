package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/ahmadqo/course-certificates/internal/model"
	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenIssuer  = "course-certificates"
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

var ErrTokenType = errors.New("token type mismatch")

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"` // unix timestamp
}

type tokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	jwt.RegisteredClaims
}

func GenerateTokenPair(claims model.JWTClaims, secret string, expireHours, refreshExpHours int) (*TokenPair, error) {
	now := time.Now()
	accessExp := now.Add(time.Duration(expireHours) * time.Hour)

	accessToken, err := signToken(claims, secret, now, accessExp, TokenAccess)
	if err != nil {
		return nil, err
	}
	refreshToken, err := signToken(claims, secret, now, now.Add(time.Duration(refreshExpHours)*time.Hour), TokenRefresh)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExp.Unix(),
	}, nil
}

// user id disimpan di claim standar "sub"
func signToken(claims model.JWTClaims, secret string, now, exp time.Time, tokenType string) (string, error) {
	c := tokenClaims{
		Email: claims.Email,
		Role:  claims.Role,
		Name:  claims.Name,
		Type:  tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Subject:   claims.UserID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}

// ValidateToken memvalidasi signature, issuer, expiry, dan tipe token.
// Refresh token tidak bisa dipakai sebagai access token dan sebaliknya.
func ValidateToken(tokenString, secret, tokenType string) (*model.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Type != tokenType {
		return nil, fmt.Errorf("%w: got %q", ErrTokenType, claims.Type)
	}

	return &model.JWTClaims{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   claims.Role,
		Name:   claims.Name,
	}, nil
}
