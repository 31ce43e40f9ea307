package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mahadigital/schooldesk/internal/models"
)

// TokenManager handles JWT generation and validation for session tokens and
// the single-use password-change token.
type TokenManager struct {
	secret               string
	sessionExpiry        time.Duration
	passwordChangeExpiry time.Duration
}

// NewTokenManager creates a new TokenManager
func NewTokenManager(secret string, sessionExpiry, passwordChangeExpiry time.Duration) *TokenManager {
	return &TokenManager{
		secret:               secret,
		sessionExpiry:        sessionExpiry,
		passwordChangeExpiry: passwordChangeExpiry,
	}
}

// GenerateSessionToken creates a session token for an authenticated school
// account. tempLogin marks sessions established through the temporary
// credential path.
func (tm *TokenManager) GenerateSessionToken(school *models.School, tempLogin bool) (string, error) {
	return tm.generate(models.TokenTypeSession, school, tempLogin, tm.sessionExpiry)
}

// GeneratePasswordChangeToken creates the short-lived, single-use token that
// authorizes a password change without re-proving the current password. It is
// minted only by the temp-success branch of login; the JTI is consumed on use.
func (tm *TokenManager) GeneratePasswordChangeToken(school *models.School) (string, error) {
	return tm.generate(models.TokenTypePasswordChange, school, true, tm.passwordChangeExpiry)
}

func (tm *TokenManager) generate(tokenType string, school *models.School, tempLogin bool, expiry time.Duration) (string, error) {
	now := time.Now()

	claims := &models.SessionClaims{
		Type:       tokenType,
		SchoolID:   school.ID,
		Username:   school.Username,
		SchoolName: school.SchoolName,
		Role:       school.Role,
		TempLogin:  tempLogin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(tm.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}

	return tokenString, nil
}

// ValidateToken verifies a token and returns its claims
func (tm *TokenManager) ValidateToken(tokenString string) (*models.SessionClaims, error) {
	claims := &models.SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tm.secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, models.ErrUnauthorized
	}

	if claims.Type == "" {
		return nil, fmt.Errorf("invalid token: missing type")
	}

	return claims, nil
}
