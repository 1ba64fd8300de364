package models

import "time"

// TokenKind различает access- и refresh-токены.
// Вид подписывается вместе с остальными claims и проверяется на каждом эндпоинте.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// TokenTypeBearer — значение token_type в ответах /token и /token/refresh.
const TokenTypeBearer = "bearer"

// Claims — проверенные данные токена, которые получает обработчик.
type Claims struct {
	// Subject — email пользователя.
	Subject   string
	Kind      TokenKind
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenPair — пара токенов, выдаваемая при входе.
//
// Описание:
//   - AccessToken — короткоживущий JWT для доступа к API;
//   - RefreshToken — долгоживущий JWT, пригодный только для выпуска нового access;
//   - AccessExpiresAt — момент истечения access-токена (UTC).
type TokenPair struct {
	AccessToken     string
	RefreshToken    string
	AccessExpiresAt time.Time
}
