package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pribylovaa/go-crm/internal/models"
	"github.com/pribylovaa/go-crm/internal/pkg/log"
)

// tokenClaims — полезная нагрузка JWT. Kind подписывается вместе
// с остальными полями, поэтому access нельзя выдать за refresh.
type tokenClaims struct {
	Kind models.TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

// ttlFor возвращает срок жизни для вида токена.
func (s *Service) ttlFor(kind models.TokenKind) (time.Duration, error) {
	switch kind {
	case models.TokenAccess:
		return s.cfg.AccessTTL, nil
	case models.TokenRefresh:
		return s.cfg.RefreshTTL, nil
	default:
		return 0, fmt.Errorf("unknown token kind %q", kind)
	}
}

// issueToken подписывает токен заданного вида для subject (email).
func (s *Service) issueToken(ctx context.Context, subject string, kind models.TokenKind, now time.Time) (string, time.Time, error) {
	const op = "service.token.issueToken"

	ttl, err := s.ttlFor(kind)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	exp := now.Add(ttl)
	claims := tokenClaims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    s.cfg.Issuer,
			Audience:  jwt.ClaimStrings(s.cfg.Audience),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.SigningKey))
	if err != nil {
		log.From(ctx).Error("token_sign_failed",
			slog.String("op", op),
			slog.String("kind", string(kind)),
			slog.String("err", err.Error()),
		)
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	return signed, exp, nil
}

// parseToken проверяет подпись, алгоритм, срок, издателя, аудиторию и вид токена.
func (s *Service) parseToken(tokenStr string, want models.TokenKind) (*models.Claims, error) {
	const op = "service.token.parseToken"

	var claims tokenClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims,
		func(t *jwt.Token) (interface{}, error) {
			return []byte(s.cfg.SigningKey), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5*time.Second),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience...),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if !token.Valid {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if claims.Kind != want {
		return nil, fmt.Errorf("%s: %w", op, ErrTokenKindMismatch)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingSubject)
	}

	out := &models.Claims{
		Subject: claims.Subject,
		Kind:    claims.Kind,
		ID:      claims.ID,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}

	return out, nil
}
