package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pribylovaa/go-crm/internal/models"
	"github.com/pribylovaa/go-crm/internal/pkg/log"
	"github.com/pribylovaa/go-crm/internal/pkg/redact"
	"github.com/pribylovaa/go-crm/internal/storage"
)

// Profile возвращает публичный профиль пользователя по email (subject токена).
// При наличии кэша сначала смотрит в него; сбои кэша не прерывают запрос.
func (s *Service) Profile(ctx context.Context, email string) (*models.Profile, error) {
	const op = "service.users.Profile"

	lg := log.From(ctx)

	if s.pcache != nil {
		p, ok, err := s.pcache.Get(ctx, email)
		switch {
		case err != nil:
			lg.Warn("profile_cache_get_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
		case ok:
			return p, nil
		}
	}

	user, err := s.storage.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p := models.ProfileFromUser(user)

	// Только при отсутствии ключа: запись из UpdateProfile свежее прочитанной здесь.
	if s.pcache != nil {
		if err := s.pcache.Add(ctx, p); err != nil {
			lg.Warn("profile_cache_add_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
		}
	}

	return p, nil
}

// UpdateProfile частично обновляет профиль и возвращает его свежую версию.
// Пустое обновление ничего не пишет и просто отдаёт текущий профиль.
func (s *Service) UpdateProfile(ctx context.Context, email string, upd models.ProfileUpdate) (*models.Profile, error) {
	const op = "service.users.UpdateProfile"

	if upd.Empty() {
		return s.Profile(ctx, email)
	}

	if err := s.storage.UpdateUser(ctx, email, upd); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p := models.ProfileFromUser(user)
	s.refreshCachedProfile(ctx, p)

	log.From(ctx).Info("profile_updated",
		slog.String("op", op),
		redact.EmailAttr(email),
	)

	return p, nil
}

// refreshCachedProfile кладёт свежий профиль в кэш поверх старого.
// Если записать не удалось, ключ удаляется, чтобы не отдавать старые данные.
func (s *Service) refreshCachedProfile(ctx context.Context, p *models.Profile) {
	const op = "service.users.refreshCachedProfile"

	if s.pcache == nil {
		return
	}

	lg := log.From(ctx)

	err := s.pcache.Set(ctx, p)
	if err == nil {
		return
	}

	lg.Warn("profile_cache_set_failed",
		slog.String("op", op),
		slog.String("err", err.Error()),
	)

	if err := s.pcache.Delete(ctx, p.Email); err != nil {
		lg.Error("profile_cache_delete_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
	}
}

// CreateUser создаёт пользователя (используется только провижинингом).
// Пустая роль трактуется как user.
func (s *Service) CreateUser(ctx context.Context, in models.NewUser) (*models.Profile, error) {
	const op = "service.users.CreateUser"

	normEmail, err := validateEmail(in.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidUser)
	}

	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidRole)
	}

	if err := validatePassword(in.Password); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := hashPassword(in.Password, s.cfg.BCryptCost)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user := &models.User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        normEmail,
		Phone:        in.Phone,
		JobTitle:     in.JobTitle,
		Company:      in.Company,
		Department:   in.Department,
		PasswordHash: hash,
		Role:         role,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("user_created",
		slog.String("op", op),
		redact.EmailAttr(normEmail),
		slog.String("role", string(role)),
	)

	return models.ProfileFromUser(user), nil
}
