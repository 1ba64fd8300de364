// Package provision создаёт пользователей в обход публичного API:
// интерактивно (администратор из терминала) или пачкой из YAML-файла.
package provision

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/pribylovaa/go-crm/internal/models"
	"github.com/pribylovaa/go-crm/internal/pkg/log"
	"github.com/pribylovaa/go-crm/internal/pkg/redact"
	"github.com/pribylovaa/go-crm/internal/service"
)

// ErrPasswordMismatch — пароль и подтверждение не совпали.
var ErrPasswordMismatch = errors.New("passwords do not match")

// Creator создаёт пользователя. Реализуется *service.Service.
type Creator interface {
	CreateUser(ctx context.Context, in models.NewUser) (*models.Profile, error)
}

// Подмены для тестов: терминал в них недоступен.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

type prompter struct {
	in     io.Reader
	reader *bufio.Reader
	out    io.Writer
}

func (p *prompter) line(prompt string) (string, error) {
	if _, err := fmt.Fprint(p.out, prompt); err != nil {
		return "", err
	}

	s, err := p.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(s) > 0 {
			return strings.TrimSpace(s), nil
		}
		return "", err
	}

	return strings.TrimSpace(s), nil
}

// secret читает пароль без эха, если ввод — терминал; иначе обычной строкой.
func (p *prompter) secret(prompt string) (string, error) {
	f, ok := p.in.(*os.File)
	if !ok || !isTerminal(int(f.Fd())) {
		return p.line(prompt)
	}

	if _, err := fmt.Fprint(p.out, prompt); err != nil {
		return "", err
	}

	pw, err := readPassword(int(f.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}

	return string(pw), nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Interactive запрашивает данные администратора и создаёт его.
// Несовпадение пароля с подтверждением прерывает операцию до записи.
func Interactive(ctx context.Context, creator Creator, in io.Reader, out io.Writer) (*models.Profile, error) {
	const op = "provision.Interactive"

	p := &prompter{in: in, reader: bufio.NewReader(in), out: out}

	fields := []struct {
		prompt string
		dst    *string
	}{
		{"Enter admin first name: ", new(string)},
		{"Enter admin last name: ", new(string)},
		{"Enter admin email: ", new(string)},
		{"Enter admin phone number (optional): ", new(string)},
		{"Enter admin job title (optional): ", new(string)},
		{"Enter admin company (optional): ", new(string)},
		{"Enter admin department (optional): ", new(string)},
	}

	for _, f := range fields {
		v, err := p.line(f.prompt)
		if err != nil {
			return nil, fmt.Errorf("%s: read input: %w", op, err)
		}
		*f.dst = v
	}

	password, err := p.secret("Enter admin password: ")
	if err != nil {
		return nil, fmt.Errorf("%s: read password: %w", op, err)
	}

	confirm, err := p.secret("Confirm admin password: ")
	if err != nil {
		return nil, fmt.Errorf("%s: read password: %w", op, err)
	}

	if password != confirm {
		return nil, fmt.Errorf("%s: %w", op, ErrPasswordMismatch)
	}

	profile, err := creator.CreateUser(ctx, models.NewUser{
		FirstName:  *fields[0].dst,
		LastName:   *fields[1].dst,
		Email:      *fields[2].dst,
		Phone:      optional(*fields[3].dst),
		JobTitle:   optional(*fields[4].dst),
		Company:    optional(*fields[5].dst),
		Department: optional(*fields[6].dst),
		Password:   password,
		Role:       models.RoleAdmin,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("admin_created",
		slog.String("op", op),
		redact.EmailAttr(profile.Email),
	)

	return profile, nil
}

// seedFile — формат файла для FromFile.
type seedFile struct {
	Users []struct {
		FirstName  string      `yaml:"firstname"`
		LastName   string      `yaml:"lastname"`
		Email      string      `yaml:"email"`
		Password   string      `yaml:"password"`
		Role       models.Role `yaml:"role"`
		Phone      string      `yaml:"phone"`
		JobTitle   string      `yaml:"job_title"`
		Company    string      `yaml:"company"`
		Department string      `yaml:"department"`
	} `yaml:"users"`
}

// FromFile создаёт пользователей из YAML-файла со списком users.
// Записи без email или пароля и уже существующие email пропускаются.
// Возвращает число созданных пользователей.
func FromFile(ctx context.Context, creator Creator, path string) (int, error) {
	const op = "provision.FromFile"

	lg := log.From(ctx)

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return 0, fmt.Errorf("%s: parse: %w", op, err)
	}

	created := 0
	for i, u := range sf.Users {
		if u.Email == "" || u.Password == "" {
			lg.Warn("seed_user_skipped",
				slog.String("op", op),
				slog.Int("index", i),
				slog.String("reason", "email or password is empty"),
			)
			continue
		}

		_, err := creator.CreateUser(ctx, models.NewUser{
			FirstName:  u.FirstName,
			LastName:   u.LastName,
			Email:      u.Email,
			Phone:      optional(u.Phone),
			JobTitle:   optional(u.JobTitle),
			Company:    optional(u.Company),
			Department: optional(u.Department),
			Password:   u.Password,
			Role:       u.Role,
		})
		if err != nil {
			if errors.Is(err, service.ErrEmailTaken) {
				lg.Info("seed_user_exists",
					slog.String("op", op),
					redact.EmailAttr(u.Email),
				)
				continue
			}

			return created, fmt.Errorf("%s: user #%d: %w", op, i, err)
		}

		created++
	}

	lg.Info("seed_done",
		slog.String("op", op),
		slog.Int("created", created),
		slog.Int("total", len(sf.Users)),
	)

	return created, nil
}
