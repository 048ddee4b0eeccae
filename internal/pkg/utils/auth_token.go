package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/ougirez/boptest/internal/pkg/constants"
	"github.com/spf13/viper"
)

type AuthTokenWrapper struct {
	AccountID   int64  `json:"account_id"`
	DisplayName string `json:"display_name"`
}

type authClaims struct {
	AuthTokenWrapper
	jwt.StandardClaims
}

func GenerateAuthToken(token *AuthTokenWrapper) (string, error) {
	now := time.Now()
	claims := authClaims{
		AuthTokenWrapper: *token,
		StandardClaims: jwt.StandardClaims{
			IssuedAt: now.Unix(),
		},
	}
	if ttl := viper.GetDuration(constants.ViperTokenTTLKey); ttl != 0 {
		claims.ExpiresAt = now.Add(ttl).Unix()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret())
	if err != nil {
		return "", fmt.Errorf("sign auth token: %w", err)
	}
	return signed, nil
}

func ParseAuthToken(raw string) (*AuthTokenWrapper, error) {
	claims := &authClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret(), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: invalid auth token", constants.ErrUnauthorized)
	}
	if claims.AccountID == 0 {
		return nil, fmt.Errorf("%w: auth token has no account", constants.ErrUnauthorized)
	}
	return &claims.AuthTokenWrapper, nil
}

func secret() []byte {
	return []byte(viper.GetString(constants.ViperSecretKey))
}
