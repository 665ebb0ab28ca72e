package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrMissingUser  = errors.New("token carries no user id")
)

// UserClaim is the identity embedded in every session token.
type UserClaim struct {
	ID string `json:"id"`
}

// Claims is the payload of a session token: {"user":{"id":...},"iat":...,"exp":...}.
type Claims struct {
	User UserClaim `json:"user"`
	jwt.StandardClaims
}

// Expiry returns the expiry as a time.
func (c *Claims) Expiry() time.Time {
	return time.Unix(c.StandardClaims.ExpiresAt, 0)
}

// GenerateToken signs a session token for userID that expires after ttl.
func GenerateToken(userID, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("JWT secret key is missing")
	}
	if userID == "" {
		return "", ErrMissingUser
	}
	now := time.Now()
	claims := Claims{
		User: UserClaim{ID: userID},
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateAndGetClaims verifies the signature and expiry of tokenString.
func ValidateAndGetClaims(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		var verr *jwt.ValidationError
		if errors.As(err, &verr) && verr.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.User.ID == "" {
		return nil, ErrMissingUser
	}
	return claims, nil
}

// ValidateToken returns the user id carried by a valid token.
func ValidateToken(tokenString, secret string) (string, error) {
	claims, err := ValidateAndGetClaims(tokenString, secret)
	if err != nil {
		return "", err
	}
	return claims.User.ID, nil
}

// DecodeUnverified reads the claims without checking the signature. Clients
// use it to learn their own user id; it grants nothing.
func DecodeUnverified(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(tokenString, claims); err != nil {
		return nil, ErrInvalidToken
	}
	if claims.User.ID == "" {
		return nil, ErrMissingUser
	}
	return claims, nil
}
