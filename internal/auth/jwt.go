package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type JWTCustomClaims struct {
	EstablishmentID uint   `json:"establishment_id"`
	StaffName       string `json:"staff_name"`
	jwt.RegisteredClaims
}

func GenerateToken(secret string, ttl time.Duration, establishmentID uint, staffName string) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(ttl)
	claims := &JWTCustomClaims{
		EstablishmentID: establishmentID,
		StaffName:       staffName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("establishment:%d", establishmentID),
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	return signed, expires, err
}

func ParseToken(secret, tokenStr string) (*JWTCustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token: %w", err)
	}

	claims, ok := token.Claims.(*JWTCustomClaims)
	if !ok || claims.EstablishmentID == 0 {
		return nil, fmt.Errorf("token carries no establishment")
	}
	return claims, nil
}
