package utils

import (
	"errors"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

func secretKey() []byte {
	if s := os.Getenv("JWT_SECRET"); s != "" {
		return []byte(s)
	}
	return []byte("supersecret")
}

// GenerateToken issues a stateless HS256 bearer token carrying the user's id
// and username. Tokens do not expire; there are no server-side sessions to
// revoke them against.
func GenerateToken(userID int64, username string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId":   userID,
		"username": username,
	})
	return token.SignedString(secretKey())
}

// VerifyToken checks the signature and returns the embedded identity.
func VerifyToken(token string) (int64, string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secretKey(), nil
	})
	if err != nil || !parsed.Valid {
		return 0, "", errors.New("invalid token")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", errors.New("invalid token claims")
	}
	uid, ok := claims["userId"].(float64)
	if !ok {
		return 0, "", errors.New("invalid token claims")
	}
	username, _ := claims["username"].(string)
	return int64(uid), username, nil
}
