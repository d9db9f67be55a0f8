package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWrongTable   = errors.New("token is for a different table")
)

// IssueTableToken signs a player token that lets its holder drive one table.
func IssueTableToken(secret, tableToken string, ttl time.Duration) (string, time.Time, error) {
	exp := time.Now().Add(ttl)
	claims := jwt.MapClaims{
		"table_token": tableToken,
		"iat":         time.Now().Unix(),
		"exp":         exp.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign table token: %w", err)
	}
	return signed, exp, nil
}

// ParseTableToken verifies a player token and returns the table it grants.
func ParseTableToken(secret, signed string) (string, error) {
	parsed, err := jwt.Parse(signed, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	tableToken, ok := claims["table_token"].(string)
	if !ok || tableToken == "" {
		return "", ErrInvalidToken
	}
	return tableToken, nil
}

// AuthorizeTable checks that signed grants access to tableToken.
func AuthorizeTable(secret, signed, tableToken string) error {
	granted, err := ParseTableToken(secret, signed)
	if err != nil {
		return err
	}
	if granted != tableToken {
		return ErrWrongTable
	}
	return nil
}
