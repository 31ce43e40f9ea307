package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/mahadigital/schooldesk/internal/models"
	pkgauth "github.com/mahadigital/schooldesk/pkg/auth"
	pkglogger "github.com/mahadigital/schooldesk/pkg/logger"
)

// SchoolRepository defines the persistence operations auth needs
type SchoolRepository interface {
	Create(ctx context.Context, school *models.School) (*models.School, error)
	GetByID(ctx context.Context, id string) (*models.School, error)
	GetByUsername(ctx context.Context, username string) (*models.School, error)
	GetByEmail(ctx context.Context, email string) (*models.School, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetTempPassword(ctx context.Context, id, tempHash string, expiresAt time.Time) error
	ClearTempPassword(ctx context.Context, id string) error
}

// TokenMinter defines the token operations auth needs
type TokenMinter interface {
	GenerateSessionToken(school *models.School, tempLogin bool) (string, error)
	GeneratePasswordChangeToken(school *models.School) (string, error)
	ValidateToken(tokenString string) (*models.SessionClaims, error)
}

// UsedTokenStore tracks consumed single-use token JTIs
type UsedTokenStore interface {
	MarkUsed(ctx context.Context, jti, schoolID, tokenType string, expiresAt time.Time, reason string) error
	IsUsed(ctx context.Context, jti string) (bool, error)
}

// EmailOutbox queues messages the mail provider could not take right away
type EmailOutbox interface {
	Enqueue(ctx context.Context, toEmail, subject, body string) (string, error)
}

// AuthService resolves logins against the primary and temporary credentials
// and owns the temp-password issuance and both password-change paths.
type AuthService struct {
	repo       SchoolRepository
	tokens     TokenMinter
	usedTokens UsedTokenStore
	email      EmailService
	outbox     EmailOutbox
	logger     *slog.Logger
	audit      *pkglogger.AuditLogger
	tempExpiry time.Duration

	// now is swappable in tests to simulate credential expiry.
	now func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(
	repo SchoolRepository,
	tokens TokenMinter,
	usedTokens UsedTokenStore,
	email EmailService,
	outbox EmailOutbox,
	logger *slog.Logger,
	audit *pkglogger.AuditLogger,
	tempExpiry time.Duration,
) *AuthService {
	return &AuthService{
		repo:       repo,
		tokens:     tokens,
		usedTokens: usedTokens,
		email:      email,
		outbox:     outbox,
		logger:     logger,
		audit:      audit,
		tempExpiry: tempExpiry,
		now:        time.Now,
	}
}

// LoginResult is the outcome of a successful login
type LoginResult struct {
	Token      string `json:"token"`
	SchoolID   string `json:"school_id"`
	SchoolName string `json:"school_name"`
	Role       string `json:"role"`
	TempLogin  bool   `json:"temp_login"`

	// Set only when the temporary credential matched.
	TempPasswordExpiresAt *time.Time `json:"temp_password_expires_at,omitempty"`
	PasswordChangeToken   string     `json:"password_change_token,omitempty"`
}

// TempIssueResult is the outcome of a forgot-password request
type TempIssueResult struct {
	ExpiresAt time.Time `json:"expires_at"`
	Delivered bool      `json:"delivered"`
	Queued    bool      `json:"queued"`
}

// Login resolves a login attempt against the primary credential first, then
// the temporary credential if one is stored and unexpired. A matching temp
// credential stays valid for repeated logins until its natural expiry.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if username = strings.TrimSpace(username); username == "" {
		return nil, models.ErrUnauthorized
	}

	school, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Same failure as a bad password so the caller cannot probe
			// which field was wrong.
			s.logger.Info("login failed: invalid credentials")
			s.audit.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login_failed",
				FailureReason: "invalid_credentials",
				Success:       false,
			})
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get school by username", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(school.PasswordHash, password); err == nil {
		token, err := s.tokens.GenerateSessionToken(school, false)
		if err != nil {
			s.logger.Error("failed to generate session token", slog.String("school_id", school.ID), slog.Any("error", err))
			return nil, models.ErrInternalServer
		}

		s.logger.Info("school logged in", slog.String("school_id", school.ID))
		s.audit.LogAuthAttempt(pkglogger.AuditEvent{
			EventType: "login_success",
			SchoolID:  school.ID,
			Success:   true,
		})

		return &LoginResult{
			Token:      token,
			SchoolID:   school.ID,
			SchoolName: school.SchoolName,
			Role:       school.Role,
			TempLogin:  false,
		}, nil
	}

	if school.HasTempPassword() {
		now := s.now()

		if !school.TempPasswordValidAt(now) {
			// Expired-but-unused credentials linger until a login attempt
			// touches the row; clear them here.
			if err := s.repo.ClearTempPassword(ctx, school.ID); err != nil {
				s.logger.Error("failed to clear expired temp password",
					slog.String("school_id", school.ID), slog.Any("error", err))
			}
		} else if err := pkgauth.ComparePassword(*school.TempPasswordHash, password); err == nil {
			// The temp credential is deliberately not invalidated on use; it
			// remains valid for repeated logins until it expires.
			return s.tempLoginSuccess(school)
		}
	}

	s.logger.Info("login failed: invalid credentials")
	s.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "login_failed",
		SchoolID:      school.ID,
		FailureReason: "invalid_credentials",
		Success:       false,
	})
	return nil, models.ErrUnauthorized
}

func (s *AuthService) tempLoginSuccess(school *models.School) (*LoginResult, error) {
	token, err := s.tokens.GenerateSessionToken(school, true)
	if err != nil {
		s.logger.Error("failed to generate session token", slog.String("school_id", school.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	changeToken, err := s.tokens.GeneratePasswordChangeToken(school)
	if err != nil {
		s.logger.Error("failed to generate password change token", slog.String("school_id", school.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("school logged in with temp password", slog.String("school_id", school.ID))
	s.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "temp_login_success",
		SchoolID:  school.ID,
		Success:   true,
	})

	return &LoginResult{
		Token:                 token,
		SchoolID:              school.ID,
		SchoolName:            school.SchoolName,
		Role:                  school.Role,
		TempLogin:             true,
		TempPasswordExpiresAt: school.TempPasswordExpiresAt,
		PasswordChangeToken:   changeToken,
	}, nil
}

// IssueTempPassword generates a fresh temporary credential for the account
// registered under the given school email, stores its hash with an expiry,
// and attempts delivery. The credential is durable before delivery is tried,
// so a delivery failure does not fail the operation; the message falls back
// to the outbox. The plaintext never leaves the mail path.
func (s *AuthService) IssueTempPassword(ctx context.Context, email string) (*TempIssueResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	school, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get school by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	tempPassword, err := pkgauth.GenerateTempPassword(pkgauth.TempPasswordLen)
	if err != nil {
		s.logger.Error("failed to generate temp password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	tempHash, err := pkgauth.HashPassword(tempPassword)
	if err != nil {
		s.logger.Error("failed to hash temp password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	expiresAt := s.now().Add(s.tempExpiry)

	// Overwrites any prior temp credential; only one may be outstanding.
	if err := s.repo.SetTempPassword(ctx, school.ID, tempHash, expiresAt); err != nil {
		s.logger.Error("failed to store temp password", slog.String("school_id", school.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "temp_password_issued",
		SchoolID:  school.ID,
		Success:   true,
	})

	subject, body := TempPasswordEmail(tempPassword, s.tempExpiry)

	result := &TempIssueResult{ExpiresAt: expiresAt}

	if err := s.email.SendEmail(ctx, email, subject, body); err != nil {
		s.logger.Warn("temp password delivery failed, queueing",
			slog.String("school_id", school.ID),
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))

		if _, qErr := s.outbox.Enqueue(ctx, email, subject, body); qErr != nil {
			s.logger.Error("failed to queue temp password email",
				slog.String("school_id", school.ID), slog.Any("error", qErr))
		} else {
			result.Queued = true
		}

		return result, nil
	}

	result.Delivered = true
	return result, nil
}

// ChangePassword replaces the permanent password after verifying the current
// credential against the primary hash or a still-valid temp hash. The
// replacement UPDATE also clears both temp fields.
func (s *AuthService) ChangePassword(ctx context.Context, schoolID, currentPassword, newPassword string) error {
	school, err := s.repo.GetByID(ctx, schoolID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to get school", slog.String("school_id", schoolID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	matched := pkgauth.ComparePassword(school.PasswordHash, currentPassword) == nil

	if !matched && school.HasTempPassword() {
		if school.TempPasswordValidAt(s.now()) {
			matched = pkgauth.ComparePassword(*school.TempPasswordHash, currentPassword) == nil
		} else {
			// Opportunistic cleanup of an expired credential, even though
			// this path may not end in a password change.
			if err := s.repo.ClearTempPassword(ctx, school.ID); err != nil {
				s.logger.Error("failed to clear expired temp password",
					slog.String("school_id", school.ID), slog.Any("error", err))
			}
		}
	}

	if !matched {
		s.audit.LogPasswordChange(school.ID, false, false)
		return models.ErrUnauthorized
	}

	if err := pkgauth.ValidateNewPassword(newPassword); err != nil {
		return err
	}

	return s.applyPasswordChange(ctx, school.ID, newPassword, false)
}

// ChangePasswordFromTempLogin replaces the permanent password without the
// current one, authorized by the single-use token minted at temp login. The
// token is consumed before the change so it cannot be replayed.
func (s *AuthService) ChangePasswordFromTempLogin(ctx context.Context, changeToken, newPassword string) error {
	claims, err := s.tokens.ValidateToken(changeToken)
	if err != nil {
		return models.ErrUnauthorized
	}

	if claims.Type != models.TokenTypePasswordChange {
		return models.ErrUnauthorized
	}

	used, err := s.usedTokens.IsUsed(ctx, claims.ID)
	if err != nil {
		s.logger.Error("failed to check token usage", slog.Any("error", err))
		return models.ErrInternalServer
	}
	if used {
		s.audit.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "password_change_token_replayed",
			SchoolID:      claims.SchoolID,
			FailureReason: "token_already_used",
			Success:       false,
		})
		return models.ErrUnauthorized
	}

	if _, err := s.repo.GetByID(ctx, claims.SchoolID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to get school", slog.String("school_id", claims.SchoolID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := pkgauth.ValidateNewPassword(newPassword); err != nil {
		return err
	}

	err = s.usedTokens.MarkUsed(ctx, claims.ID, claims.SchoolID,
		models.TokenTypePasswordChange, claims.ExpiresAt.Time, "password_changed")
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			// Lost the race against another consumer of the same token.
			return models.ErrUnauthorized
		}
		s.logger.Error("failed to consume password change token", slog.Any("error", err))
		return models.ErrInternalServer
	}

	return s.applyPasswordChange(ctx, claims.SchoolID, newPassword, true)
}

func (s *AuthService) applyPasswordChange(ctx context.Context, schoolID, newPassword string, viaTempLogin bool) error {
	newHash, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash new password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.repo.UpdatePassword(ctx, schoolID, newHash); err != nil {
		s.logger.Error("failed to update password", slog.String("school_id", schoolID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("password changed", slog.String("school_id", schoolID))
	s.audit.LogPasswordChange(schoolID, viaTempLogin, true)

	return nil
}
