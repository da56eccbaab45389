package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/ikkim/storefront-backend/pkg/mailer"
	"github.com/ikkim/storefront-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrAccountNotFound       = errors.New("no account with that email exists")
	ErrInvalidOrExpiredToken = errors.New("password reset is invalid or has expired")
	ErrPasswordMismatch      = errors.New("passwords do not match")
	ErrMailDispatch          = errors.New("failed to send password reset email")
)

const (
	resetMailSubject  = "Password Reset"
	resetMailTemplate = "password-reset"
)

// Mailer delivers a templated message
type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

type PasswordResetService interface {
	RequestReset(ctx context.Context, email, baseURL string) error
	ValidateToken(ctx context.Context, token string) (*model.User, error)
	ResetPassword(ctx context.Context, token, password, confirm string) (*model.User, error)
	SweepExpired(ctx context.Context) (int64, error)
}

type PasswordResetOption func(*passwordResetService)

// WithClock replaces time.Now
func WithClock(now func() time.Time) PasswordResetOption {
	return func(s *passwordResetService) {
		s.now = now
	}
}

// WithTokenGenerator replaces util.GenerateResetToken
func WithTokenGenerator(gen func() (string, error)) PasswordResetOption {
	return func(s *passwordResetService) {
		s.newToken = gen
	}
}

type passwordResetService struct {
	userRepo  repository.UserRepository
	resetRepo repository.PasswordResetRepository
	mailer    Mailer
	now       func() time.Time
	newToken  func() (string, error)
}

func NewPasswordResetService(
	userRepo repository.UserRepository,
	resetRepo repository.PasswordResetRepository,
	m Mailer,
	opts ...PasswordResetOption,
) PasswordResetService {
	s := &passwordResetService{
		userRepo:  userRepo,
		resetRepo: resetRepo,
		mailer:    m,
		now:       time.Now,
		newToken:  util.GenerateResetToken,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResetURL is the link emailed to the account holder
func ResetURL(baseURL, token string) string {
	return baseURL + "/account/reset/" + token
}

// RequestReset issues a token valid for model.ResetTokenTTL and emails the link.
// If the mail cannot be sent the token is withdrawn again.
func (s *passwordResetService) RequestReset(ctx context.Context, email, baseURL string) error {
	email = NormalizeEmail(email)
	logger.Info("Processing password reset request", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Password reset requested for unknown email", map[string]interface{}{
				"email": email,
			})
			return ErrAccountNotFound
		}
		return err
	}

	token, err := s.newToken()
	if err != nil {
		logger.Error("Failed to generate reset token", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return err
	}

	user.IssueResetToken(token, s.now().Add(model.ResetTokenTTL))
	if err := s.resetRepo.SaveToken(ctx, user.ID, token, *user.ResetPasswordExpires); err != nil {
		return err
	}

	sendErr := s.mailer.Send(ctx, mailer.Message{
		To:       user.Email,
		Name:     user.Name,
		Subject:  resetMailSubject,
		Template: resetMailTemplate,
		ResetURL: ResetURL(baseURL, token),
	})
	if sendErr != nil {
		logger.Error("Failed to send password reset email, withdrawing token", sendErr, map[string]interface{}{
			"user_id": user.ID,
		})
		// the request may already be canceled; the rollback must still run
		if _, err := s.resetRepo.ClearToken(context.WithoutCancel(ctx), user.ID, token); err != nil {
			return errors.Join(fmt.Errorf("%w: %w", ErrMailDispatch, sendErr), err)
		}
		return fmt.Errorf("%w: %w", ErrMailDispatch, sendErr)
	}

	logger.Info("Password reset email sent", map[string]interface{}{
		"user_id": user.ID,
		"expires": user.ResetPasswordExpires,
	})
	return nil
}

// ValidateToken returns the account holding token while it is unexpired
func (s *passwordResetService) ValidateToken(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrInvalidOrExpiredToken
	}

	user, err := s.resetRepo.FindByValidToken(ctx, token, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Invalid or expired reset token presented")
			return nil, ErrInvalidOrExpiredToken
		}
		return nil, err
	}
	return user, nil
}

// ResetPassword checks the confirmation, re-validates the token and commits the
// new password together with clearing the reset fields.
func (s *passwordResetService) ResetPassword(ctx context.Context, token, password, confirm string) (*model.User, error) {
	if password != confirm {
		return nil, ErrPasswordMismatch
	}

	user, err := s.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := user.SetPassword(password); err != nil {
		logger.Error("Failed to hash new password", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, err
	}

	ok, err := s.resetRepo.CompleteReset(ctx, user.ID, token, user.PasswordHash, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		// expired or replaced between the lookup and the commit
		logger.Warn("Reset token no longer valid at commit", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, ErrInvalidOrExpiredToken
	}
	user.ClearResetToken()

	logger.Info("Password reset successful", map[string]interface{}{
		"user_id": user.ID,
	})
	return user, nil
}

// SweepExpired removes reset pairs that can no longer be used
func (s *passwordResetService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.resetRepo.ClearExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Info("Expired password reset tokens cleared", map[string]interface{}{
			"count": n,
		})
	}
	return n, nil
}
