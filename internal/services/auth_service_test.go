package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahadigital/schooldesk/internal/auth"
	"github.com/mahadigital/schooldesk/internal/models"
	pkgauth "github.com/mahadigital/schooldesk/pkg/auth"
	pkglogger "github.com/mahadigital/schooldesk/pkg/logger"
)

const testJWTSecret = "unit-test-secret-key-0123456789"

func newTestTokenManager() *auth.TokenManager {
	return auth.NewTokenManager(testJWTSecret, 12*time.Hour, 15*time.Minute)
}

func newTestAuthService(repo SchoolRepository, used UsedTokenStore, email EmailService, outbox EmailOutbox) *AuthService {
	logger := slog.Default()
	if used == nil {
		used = &MockUsedTokenStore{}
	}
	if email == nil {
		email = &MockEmailService{}
	}
	if outbox == nil {
		outbox = &MockEmailOutbox{}
	}
	return NewAuthService(
		repo,
		newTestTokenManager(),
		used,
		email,
		outbox,
		logger,
		pkglogger.NewAuditLogger(logger),
		10*time.Minute,
	)
}

func TestAuthService_Login_PrimaryPassword(t *testing.T) {
	hash, err := pkgauth.HashPassword("correct-horse")
	require.NoError(t, err)

	repo := &MockSchoolRepository{
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.School, error) {
			return NewTestSchool("school123", "sthigh", "office@sthigh.edu", hash), nil
		},
	}

	svc := newTestAuthService(repo, nil, nil, nil)

	result, err := svc.Login(context.Background(), "sthigh", "correct-horse")

	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "school123", result.SchoolID)
	assert.False(t, result.TempLogin)
	assert.Empty(t, result.PasswordChangeToken)
	assert.Nil(t, result.TempPasswordExpiresAt)
}

func TestAuthService_Login_UnknownUsername(t *testing.T) {
	repo := &MockSchoolRepository{}

	svc := newTestAuthService(repo, nil, nil, nil)

	result, err := svc.Login(context.Background(), "nobody", "whatever")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	hash, err := pkgauth.HashPassword("correct-horse")
	require.NoError(t, err)

	repo := &MockSchoolRepository{
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.School, error) {
			return NewTestSchool("school123", "sthigh", "office@sthigh.edu", hash), nil
		},
	}

	svc := newTestAuthService(repo, nil, nil, nil)

	result, err := svc.Login(context.Background(), "sthigh", "wrong-password")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestAuthService_Login_TempPassword(t *testing.T) {
	primaryHash, err := pkgauth.HashPassword("forgotten-primary")
	require.NoError(t, err)
	tempHash, err := pkgauth.HashPassword("Temp1234")
	require.NoError(t, err)

	expiresAt := time.Now().Add(5 * time.Minute)
	school := NewTestSchool("school123", "sthigh", "office@sthigh.edu", primaryHash)
	school.TempPasswordHash = &tempHash
	school.TempPasswordExpiresAt = &expiresAt

	cleared := false
	repo := &MockSchoolRepository{
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.School, error) {
			return school, nil
		},
		ClearTempPasswordFunc: func(ctx context.Context, id string) error {
			cleared = true
			return nil
		},
	}

	svc := newTestAuthService(repo, nil, nil, nil)

	result, err := svc.Login(context.Background(), "sthigh", "Temp1234")

	require.NoError(t, err)
	assert.True(t, result.TempLogin)
	assert.NotEmpty(t, result.Token)
	assert.NotEmpty(t, result.PasswordChangeToken)
	require.NotNil(t, result.TempPasswordExpiresAt)
	assert.Equal(t, expiresAt, *result.TempPasswordExpiresAt)
	assert.False(t, cleared, "a valid temp credential must survive its use")

	// Repeated temp logins keep working until the credential expires
	again, err := svc.Login(context.Background(), "sthigh", "Temp1234")
	require.NoError(t, err)
	assert.True(t, again.TempLogin)
}

func TestAuthService_Login_PrimaryStillWorksAlongsideTemp(t *testing.T) {
	primaryHash, err := pkgauth.HashPassword("still-mine")
	require.NoError(t, err)
	tempHash, err := pkgauth.HashPassword("Temp1234")
	require.NoError(t, err)

	expiresAt := time.Now().Add(5 * time.Minute)
	school := NewTestSchool("school123", "sthigh", "office@sthigh.edu", primaryHash)
	school.TempPasswordHash = &tempHash
	school.TempPasswordExpiresAt = &expiresAt

	repo := &MockSchoolRepository{
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.School, error) {
			return school, nil
		},
	}

	svc := newTestAuthService(repo, nil, nil, nil)

	result, err := svc.Login(context.Background(), "sthigh", "still-mine")

	require.NoError(t, err)
	assert.False(t, result.TempLogin)
}

func TestAuthService_Login_ExpiredTempPasswordClears(t *testing.T) {
	primaryHash, err := pkgauth.HashPassword("forgotten-primary")
	require.NoError(t, err)
	tempHash, err := pkgauth.HashPassword("Temp1234")
	require.NoError(t, err)

	issuedAt := time.Now()
	expiresAt := issuedAt.Add(10 * time.Minute)
	school := NewTestSchool("school123", "sthigh", "office@sthigh.edu", primaryHash)
	school.TempPasswordHash = &tempHash
	school.TempPasswordExpiresAt = &expiresAt

	cleared := false
	repo := &MockSchoolRepository{
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.School, error) {
			return school, nil
		},
		ClearTempPasswordFunc: func(ctx context.Context, id string) error {
			cleared = true
			return nil
		},
	}

	svc := newTestAuthService(repo, nil, nil, nil)
	// Simulate the clock moving past the expiry
	svc.now = func() time.Time { return issuedAt.Add(11 * time.Minute) }

	result, err := svc.Login(context.Background(), "sthigh", "Temp1234")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.True(t, cleared, "an expired temp credential should be cleared on the login attempt")
}

func TestAuthService_Login_TempPasswordValidAtExactExpiry(t *testing.T) {
	primaryHash, err := pkgauth.HashPassword("forgotten-primary")
	require.NoError(t, err)
	tempHash, err := pkgauth.HashPassword("Temp1234")
	require.NoError(t, err)

	issuedAt := time.Now()
	expiresAt := issuedAt.Add(10 * time.Minute)
	school := NewTestSchool("school123", "sthigh", "office@sthigh.edu", primaryHash)
	school.TempPasswordHash = &tempHash
	school.TempPasswordExpiresAt = &expiresAt

	repo := &MockSchoolRepository{
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.School, error) {
			return school, nil
		},
	}

	svc := newTestAuthService(repo, nil, nil, nil)
	svc.now = func() time.Time { return expiresAt }

	result, err := svc.Login(context.Background(), "sthigh", "Temp1234")

	require.NoError(t, err)
	assert.True(t, result.TempLogin, "the expiry instant itself is still inside the window")
}

func TestAuthService_IssueTempPassword_UnknownEmail(t *testing.T) {
	repo := &MockSchoolRepository{}

	svc := newTestAuthService(repo, nil, nil, nil)

	result, err := svc.IssueTempPassword(context.Background(), "nobody@nowhere.edu")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAuthService_IssueTempPassword_Delivered(t *testing.T) {
	primaryHash, err := pkgauth.HashPassword("forgotten-primary")
	require.NoError(t, err)
	school := NewTestSchool("school123", "sthigh", "office@sthigh.edu", primaryHash)

	var storedHash string
	var storedExpiry time.Time
	repo := &MockSchoolRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.School, error) {
			assert.Equal(t, "office@sthigh.edu", email)
			return school, nil
		},
		SetTempPasswordFunc: func(ctx context.Context, id, tempHash string, expiresAt time.Time) error {
			storedHash = tempHash
			storedExpiry = expiresAt
			return nil
		},
	}

	var sentBody string
	email := &MockEmailService{
		SendEmailFunc: func(ctx context.Context, to, subject, htmlBody string) error {
			assert.Equal(t, "office@sthigh.edu", to)
			sentBody = htmlBody
			return nil
		},
	}

	svc := newTestAuthService(repo, nil, email, nil)
	base := time.Now()
	svc.now = func() time.Time { return base }

	result, err := svc.IssueTempPassword(context.Background(), "  Office@STHigh.edu ")

	require.NoError(t, err)
	assert.True(t, result.Delivered)
	assert.False(t, result.Queued)
	assert.Equal(t, base.Add(10*time.Minute), result.ExpiresAt)
	assert.Equal(t, base.Add(10*time.Minute), storedExpiry)
	assert.NotEmpty(t, storedHash)
	assert.NotEmpty(t, sentBody)
	assert.NotContains(t, sentBody, storedHash, "the stored hash must never be mailed out")

	// The mailed plaintext must verify against the stored hash
	plaintext := extractTempPassword(t, sentBody)
	assert.NoError(t, pkgauth.ComparePassword(storedHash, plaintext))
}

// extractTempPassword pulls the credential out of the message body; the
// first bold span holds it.
func extractTempPassword(t *testing.T, body string) string {
	t.Helper()
	start := strings.Index(body, "<b>")
	end := strings.Index(body, "</b>")
	require.True(t, start >= 0 && end > start, "message body should contain the credential")
	return body[start+len("<b>") : end]
}

func TestAuthService_IssueTempPassword_DeliveryFailureQueues(t *testing.T) {
	primaryHash, err := pkgauth.HashPassword("forgotten-primary")
	require.NoError(t, err)
	school := NewTestSchool("school123", "sthigh", "office@sthigh.edu", primaryHash)

	repo := &MockSchoolRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.School, error) {
			return school, nil
		},
	}

	email := &MockEmailService{
		SendEmailFunc: func(ctx context.Context, to, subject, htmlBody string) error {
			return errors.New("ses unreachable")
		},
	}

	queued := false
	outbox := &MockEmailOutbox{
		EnqueueFunc: func(ctx context.Context, toEmail, subject, body string) (string, error) {
			queued = true
			return "queued_1", nil
		},
	}

	svc := newTestAuthService(repo, nil, email, outbox)

	result, err := svc.IssueTempPassword(context.Background(), "office@sthigh.edu")

	require.NoError(t, err, "delivery failure must not fail issuance; the credential is already stored")
	assert.False(t, result.Delivered)
	assert.True(t, result.Queued)
	assert.True(t, queued)
}

func TestAuthService_ChangePassword_WrongCurrent(t *testing.T) {
	hash, err := pkgauth.HashPassword("real-password")
	require.NoError(t, err)

	repo := &MockSchoolRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.School, error) {
			return NewTestSchool("school123", "sthigh", "office@sthigh.edu", hash), nil
		},
	}

	svc := newTestAuthService(repo, nil, nil, nil)

	err = svc.ChangePassword(context.Background(), "school123", "not-it", "new-password")

	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestAuthService_ChangePassword_WeakNewPassword(t *testing.T) {
	hash, err := pkgauth.HashPassword("real-password")
	require.NoError(t, err)

	updated := false
	repo := &MockSchoolRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.School, error) {
			return NewTestSchool("school123", "sthigh", "office@sthigh.edu", hash), nil
		},
		UpdatePasswordFunc: func(ctx context.Context, id, passwordHash string) error {
			updated = true
			return nil
		},
	}

	svc := newTestAuthService(repo, nil, nil, nil)

	err = svc.ChangePassword(context.Background(), "school123", "real-password", "short")

	assert.ErrorIs(t, err, models.ErrWeakPassword)
	assert.False(t, updated)
}

func TestAuthService_ChangePassword_WithTempAsCurrent(t *testing.T) {
	primaryHash, err := pkgauth.HashPassword("forgotten-primary")
	require.NoError(t, err)
	tempHash, err := pkgauth.HashPassword("Temp1234")
	require.NoError(t, err)

	expiresAt := time.Now().Add(5 * time.Minute)
	school := NewTestSchool("school123", "sthigh", "office@sthigh.edu", primaryHash)
	school.TempPasswordHash = &tempHash
	school.TempPasswordExpiresAt = &expiresAt

	var newHash string
	repo := &MockSchoolRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.School, error) {
			return school, nil
		},
		UpdatePasswordFunc: func(ctx context.Context, id, passwordHash string) error {
			newHash = passwordHash
			return nil
		},
	}

	svc := newTestAuthService(repo, nil, nil, nil)

	err = svc.ChangePassword(context.Background(), "school123", "Temp1234", "brand-new-password")

	require.NoError(t, err)
	require.NotEmpty(t, newHash)
	assert.NoError(t, pkgauth.ComparePassword(newHash, "brand-new-password"))
}

func TestAuthService_ChangePassword_ExpiredTempRejectedAndCleared(t *testing.T) {
	primaryHash, err := pkgauth.HashPassword("forgotten-primary")
	require.NoError(t, err)
	tempHash, err := pkgauth.HashPassword("Temp1234")
	require.NoError(t, err)

	issuedAt := time.Now()
	expiresAt := issuedAt.Add(10 * time.Minute)
	school := NewTestSchool("school123", "sthigh", "office@sthigh.edu", primaryHash)
	school.TempPasswordHash = &tempHash
	school.TempPasswordExpiresAt = &expiresAt

	cleared := false
	repo := &MockSchoolRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.School, error) {
			return school, nil
		},
		ClearTempPasswordFunc: func(ctx context.Context, id string) error {
			cleared = true
			return nil
		},
	}

	svc := newTestAuthService(repo, nil, nil, nil)
	svc.now = func() time.Time { return issuedAt.Add(30 * time.Minute) }

	err = svc.ChangePassword(context.Background(), "school123", "Temp1234", "brand-new-password")

	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.True(t, cleared)
}

func TestAuthService_ChangePasswordFromTempLogin_Success(t *testing.T) {
	primaryHash, err := pkgauth.HashPassword("forgotten-primary")
	require.NoError(t, err)
	school := NewTestSchool("school123", "sthigh", "office@sthigh.edu", primaryHash)

	var newHash string
	repo := &MockSchoolRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.School, error) {
			return school, nil
		},
		UpdatePasswordFunc: func(ctx context.Context, id, passwordHash string) error {
			newHash = passwordHash
			return nil
		},
	}

	var consumedJTI string
	used := &MockUsedTokenStore{
		MarkUsedFunc: func(ctx context.Context, jti, schoolID, tokenType string, expiresAt time.Time, reason string) error {
			consumedJTI = jti
			assert.Equal(t, "school123", schoolID)
			assert.Equal(t, models.TokenTypePasswordChange, tokenType)
			return nil
		},
	}

	svc := newTestAuthService(repo, used, nil, nil)

	changeToken, err := newTestTokenManager().GeneratePasswordChangeToken(school)
	require.NoError(t, err)

	err = svc.ChangePasswordFromTempLogin(context.Background(), changeToken, "brand-new-password")

	require.NoError(t, err)
	assert.NotEmpty(t, consumedJTI)
	require.NotEmpty(t, newHash)
	assert.NoError(t, pkgauth.ComparePassword(newHash, "brand-new-password"))
}

func TestAuthService_ChangePasswordFromTempLogin_Replay(t *testing.T) {
	primaryHash, err := pkgauth.HashPassword("forgotten-primary")
	require.NoError(t, err)
	school := NewTestSchool("school123", "sthigh", "office@sthigh.edu", primaryHash)

	repo := &MockSchoolRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.School, error) {
			return school, nil
		},
	}

	used := &MockUsedTokenStore{
		IsUsedFunc: func(ctx context.Context, jti string) (bool, error) {
			return true, nil
		},
	}

	svc := newTestAuthService(repo, used, nil, nil)

	changeToken, err := newTestTokenManager().GeneratePasswordChangeToken(school)
	require.NoError(t, err)

	err = svc.ChangePasswordFromTempLogin(context.Background(), changeToken, "brand-new-password")

	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestAuthService_ChangePasswordFromTempLogin_SessionTokenRejected(t *testing.T) {
	primaryHash, err := pkgauth.HashPassword("forgotten-primary")
	require.NoError(t, err)
	school := NewTestSchool("school123", "sthigh", "office@sthigh.edu", primaryHash)

	svc := newTestAuthService(&MockSchoolRepository{}, nil, nil, nil)

	sessionToken, err := newTestTokenManager().GenerateSessionToken(school, true)
	require.NoError(t, err)

	err = svc.ChangePasswordFromTempLogin(context.Background(), sessionToken, "brand-new-password")

	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestAuthService_ChangePasswordFromTempLogin_GarbageToken(t *testing.T) {
	svc := newTestAuthService(&MockSchoolRepository{}, nil, nil, nil)

	err := svc.ChangePasswordFromTempLogin(context.Background(), "not-a-jwt", "brand-new-password")

	assert.ErrorIs(t, err, models.ErrUnauthorized)
}
