package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenContextLabel namespaces the signing key so tokens issued here cannot be
// replayed against another HMAC use of the same process secret.
const tokenContextLabel = "auth-token"

var ErrTokenInvalid = errors.New("token is malformed or missing")
var ErrTokenSignature = errors.New("token signature does not match")
var ErrTokenExpired = errors.New("token has expired")

var timeNow = time.Now

type TokenClaims struct {
	UserID   int
	Role     string
	IssuedAt time.Time
}

// TokenService issues and verifies signed identity tokens. It is stateless;
// both operations are pure functions of the input and the derived key.
type TokenService struct {
	signingKey []byte
	maxAge     time.Duration
}

func NewTokenService(secret string, maxAge time.Duration) *TokenService {
	mac := hmac.New(sha256.New, []byte(tokenContextLabel))
	mac.Write([]byte(secret))
	return &TokenService{signingKey: mac.Sum(nil), maxAge: maxAge}
}

func (s *TokenService) Issue(userID int, role string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"iat":     timeNow().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and the token age. Expiry is evaluated here
// rather than via an exp claim so the lifetime is enforced at verification
// time against the issuance timestamp.
func (s *TokenService) Verify(tokenString string) (*TokenClaims, error) {
	if tokenString == "" {
		return nil, ErrTokenInvalid
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, ErrTokenSignature
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	userID, okUserID := claims["user_id"].(float64)
	role, okRole := claims["role"].(string)
	iat, okIat := claims["iat"].(float64)
	if !okUserID || !okRole || !okIat {
		return nil, ErrTokenInvalid
	}

	issuedAt := time.Unix(int64(iat), 0)
	if timeNow().Sub(issuedAt) > s.maxAge {
		return nil, ErrTokenExpired
	}

	return &TokenClaims{UserID: int(userID), Role: role, IssuedAt: issuedAt}, nil
}
