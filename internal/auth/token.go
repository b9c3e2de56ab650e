package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/bumex/engagement-service/internal/domain"
)

// TokenManager handles issuing and validating JWT tokens for both stages of
// the login flow.
type TokenManager struct {
	secret     []byte
	sessionTTL time.Duration
	pendingTTL time.Duration
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, sessionTTL, pendingTTL time.Duration) *TokenManager {
	if sessionTTL <= 0 {
		sessionTTL = 8 * time.Hour
	}
	if pendingTTL <= 0 {
		pendingTTL = 10 * time.Minute
	}
	return &TokenManager{secret: []byte(secret), sessionTTL: sessionTTL, pendingTTL: pendingTTL}
}

// Claims describes JWT payload.
type Claims struct {
	UserID    string            `json:"sub"`
	Stage     domain.TokenStage `json:"stage"`
	Role      domain.GlobalRole `json:"role,omitempty"`
	SessionID string            `json:"sid,omitempty"`
	PendingID string            `json:"pid,omitempty"`
	jwt.RegisteredClaims
}

// GeneratePendingToken issues the half-authenticated token returned after a
// successful password check. It is accepted only by OTP verify/resend.
func (tm *TokenManager) GeneratePendingToken(pendingID, userID string) (string, time.Time, error) {
	expiresAt := time.Now().Add(tm.pendingTTL)
	claims := &Claims{
		UserID:    userID,
		Stage:     domain.TokenStagePending,
		PendingID: pendingID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return tm.sign(claims, expiresAt)
}

// GenerateSessionToken issues the full token minted after OTP verification.
func (tm *TokenManager) GenerateSessionToken(sessionID, userID string, role domain.GlobalRole) (string, time.Time, error) {
	expiresAt := time.Now().Add(tm.sessionTTL)
	claims := &Claims{
		UserID:    userID,
		Stage:     domain.TokenStageSession,
		Role:      role,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return tm.sign(claims, expiresAt)
}

func (tm *TokenManager) sign(claims *Claims, expiresAt time.Time) (string, time.Time, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
