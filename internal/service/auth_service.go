package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"friendlist-be/internal/dto"
	"friendlist-be/internal/pkg/logger"
	"friendlist-be/pkg/auth"
	"friendlist-be/pkg/events"

	"golang.org/x/crypto/bcrypt"
)

// SharedSubject is the identity every successful login receives. The list has a
// single shared password, not per-user accounts.
const SharedSubject = "friends"

const SessionStarted = "SESSION_STARTED"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAuthNotConfigured  = errors.New("shared password not configured")
)

type IAuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest, ipAddress, userAgent string) (*dto.LoginResponse, error)
}

type authService struct {
	password     string
	passwordHash string
	issuer       *auth.TokenIssuer
	events       events.Publisher
	logger       logger.ILogger
}

// NewAuthService checks logins against passwordHash (bcrypt) when set, otherwise
// against the plain password.
func NewAuthService(password, passwordHash string, issuer *auth.TokenIssuer, publisher events.Publisher, log logger.ILogger) IAuthService {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &authService{
		password:     password,
		passwordHash: passwordHash,
		issuer:       issuer,
		events:       publisher,
		logger:       log,
	}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest, ipAddress, userAgent string) (*dto.LoginResponse, error) {
	if err := s.verify(req.Password); err != nil {
		s.logger.Warn("AuthService", "Login rejected", map[string]interface{}{
			"ip":    ipAddress,
			"error": err.Error(),
		})
		return nil, err
	}

	session, err := s.issuer.Issue(SharedSubject)
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		event := events.BaseEvent{
			Type: SessionStarted,
			Data: map[string]interface{}{
				"subject":    session.Subject,
				"ip":         ipAddress,
				"user_agent": userAgent,
			},
			OccurredAt: time.Now(),
		}
		if err := s.events.Publish(ctx, event); err != nil {
			s.logger.Warn("AuthService", "Failed to publish session event", map[string]interface{}{"error": err.Error()})
		}
	}

	return &dto.LoginResponse{Token: session.Token, ExpiresAt: session.ExpiresAt}, nil
}

func (s *authService) verify(password string) error {
	switch {
	case s.passwordHash != "":
		if bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)) != nil {
			return ErrInvalidCredentials
		}
		return nil
	case s.password != "":
		if subtle.ConstantTimeCompare([]byte(s.password), []byte(password)) != 1 {
			return ErrInvalidCredentials
		}
		return nil
	}
	return ErrAuthNotConfigured
}
