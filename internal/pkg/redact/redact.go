// Package redact маскирует персональные данные перед записью в лог.
package redact

import (
	"log/slog"
	"strings"
)

// Email оставляет первые две руны локальной части и домен.
func Email(s string) string {
	local, domain, ok := strings.Cut(s, "@")
	if !ok || strings.Contains(domain, "@") {
		return "***"
	}

	if r := []rune(local); len(r) > 2 {
		local = string(r[:2]) + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

func Token() string    { return "[REDACTED_TOKEN]" }
func Password() string { return "[REDACTED_PASSWORD]" }

// EmailAttr — атрибут slog с замаскированным email.
func EmailAttr(email string) slog.Attr {
	return slog.String("email", Email(email))
}
