package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/pribylovaa/go-crm/internal/models"
	"github.com/pribylovaa/go-crm/internal/pkg/log"
	"github.com/pribylovaa/go-crm/internal/pkg/redact"
	"github.com/pribylovaa/go-crm/internal/storage"
)

// LoginUser выполняет вход по email+пароль и выдаёт пару access/refresh.
// Любая ошибка идентификации сводится к ErrInvalidCredentials.
func (s *Service) LoginUser(ctx context.Context, email, password string) (*models.TokenPair, error) {
	const op = "service.auth.LoginUser"

	lg := log.From(ctx)

	// Email ищется как введён, регистр не меняется.
	normEmail, err := parseEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if len(password) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	user, err := s.storage.UserByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Info("login_unknown_email",
				slog.String("op", op),
				redact.EmailAttr(normEmail),
			)
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !checkPassword(user.PasswordHash, password) {
		lg.Info("login_wrong_password",
			slog.String("op", op),
			redact.EmailAttr(normEmail),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	now := s.now()

	access, accessExp, err := s.issueToken(ctx, user.Email, models.TokenAccess, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refresh, _, err := s.issueToken(ctx, user.Email, models.TokenRefresh, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:     access,
		RefreshToken:    refresh,
		AccessExpiresAt: accessExp,
	}, nil
}

// RefreshToken выпускает новый access-токен по refresh-токену.
// Refresh не ротируется и в ответе не возвращается; хранилище не опрашивается.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	const op = "service.auth.RefreshToken"

	claims, err := s.parseToken(refreshToken, models.TokenRefresh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	access, exp, err := s.issueToken(ctx, claims.Subject, models.TokenAccess, s.now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:     access,
		AccessExpiresAt: exp,
	}, nil
}

// ValidateToken проверяет access-токен и возвращает его claims.
func (s *Service) ValidateToken(ctx context.Context, accessToken string) (*models.Claims, error) {
	const op = "service.auth.ValidateToken"

	claims, err := s.parseToken(accessToken, models.TokenAccess)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return claims, nil
}

// validateEmail проверяет формат email, обрезает пробелы и приводит к нижнему регистру.
// Используется при создании пользователей.
func validateEmail(raw string) (string, error) {
	email, err := parseEmail(raw)
	if err != nil {
		return "", err
	}

	return strings.ToLower(email), nil
}

// parseEmail обрезает пробелы и проверяет формат email, регистр не меняет.
func parseEmail(raw string) (string, error) {
	const op = "service.auth.parseEmail"

	email := strings.TrimSpace(raw)
	if email == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	return email, nil
}
