package service

import (
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// hashPassword хэширует пароль bcrypt. Стоимость вне допустимых границ
// заменяется на bcrypt.DefaultCost.
func hashPassword(password string, cost int) (string, error) {
	const op = "service.password.hashPassword"

	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(bytes), nil
}

// checkPassword сравнивает пароль с хэшем. Битый хэш — false.
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// validatePassword проверяет политику: длина >= 8, хотя бы одна строчная,
// заглавная, цифра и спецсимвол.
func validatePassword(pw string) error {
	const op = "service.password.validatePassword"

	if len(pw) == 0 {
		return fmt.Errorf("%s: %w", op, ErrEmptyPassword)
	}

	if len([]rune(pw)) < 8 {
		return fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	if !hasLower || !hasUpper || !hasDigit || !hasSpecial {
		return fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	return nil
}
