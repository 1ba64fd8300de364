// config предоставляет структуру конфигурации CRM-сервиса и функции
// загрузки из файла/переменных окружения с предсказуемым приоритетом.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config — корневая конфигурация сервиса.
// Источники значений (по убыванию приоритета):
//  1. явный путь через флаг --config;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл local.yaml из рабочей директории;
//  4. переменные окружения (cleanenv).
//
// ENV накладываются поверх значений из YAML в любом из вариантов.
type Config struct {
	Env      string        `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTPConfig    `yaml:"http"`
	DB       DBConfig      `yaml:"db"`
	Auth     AuthConfig    `yaml:"auth"`
	Cache    CacheConfig   `yaml:"cache"`
	CORS     CORSConfig    `yaml:"cors"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
}

// HTTPConfig — сетевые настройки публичного REST-сервера.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8000"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// DBConfig — подключение к MongoDB.
type DBConfig struct {
	URI  string `yaml:"uri" env:"DB_URI" env-required:"true"`
	Name string `yaml:"name" env:"DB_NAME" env-default:"crms_db"`
}

// AuthConfig содержит параметры выпуска и проверки токенов и хэширования паролей.
// SigningKey неизменен после старта и разделяется всеми запросами без блокировок.
type AuthConfig struct {
	SigningKey string        `yaml:"signing_key" env:"SIGNING_KEY" env-required:"true"`
	AccessTTL  time.Duration `yaml:"access_ttl" env:"ACCESS_TTL" env-default:"15m"`
	RefreshTTL time.Duration `yaml:"refresh_ttl" env:"REFRESH_TTL" env-default:"168h"`
	Issuer     string        `yaml:"issuer" env:"TOKEN_ISSUER" env-default:"crm-service"`
	Audience   []string      `yaml:"audience" env:"TOKEN_AUDIENCE" env-default:"crm-frontend"`
	BCryptCost int           `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`
}

// CacheConfig — опциональный Redis-кэш профилей. Пустой RedisURL отключает кэш.
type CacheConfig struct {
	RedisURL   string        `yaml:"redis_url" env:"REDIS_URL"`
	ProfileTTL time.Duration `yaml:"profile_ttl" env:"PROFILE_CACHE_TTL" env-default:"5m"`
	Prefix     string        `yaml:"prefix" env:"CACHE_PREFIX" env-default:"crm:profile:"`
}

// CORSConfig — список разрешённых origin фронтенда.
type CORSConfig struct {
	Origins []string `yaml:"origins" env:"CORS_ORIGINS" env-default:"http://localhost:5173"`
}

// TimeoutConfig — общий дедлайн обработки запроса.
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"5s"`
}

// ProvisionConfig — конфигурация cmd/create-admin.
// Читает те же файлы и переменные, что и Config, но требует только БД:
// ключ подписи токенов провижинингу не нужен.
type ProvisionConfig struct {
	DB   DBConfig            `yaml:"db"`
	Auth ProvisionAuthConfig `yaml:"auth"`
}

// ProvisionAuthConfig — параметры хэширования паролей для провижининга.
type ProvisionAuthConfig struct {
	BCryptCost int `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`
}

// AuthConfig возвращает AuthConfig для service.New. Поля токенов пустые:
// провижининг их не использует.
func (p *ProvisionConfig) AuthConfig() AuthConfig {
	return AuthConfig{BCryptCost: p.Auth.BCryptCost}
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := load(path, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoadProvision — обёртка над LoadProvision с panic при ошибке.
func MustLoadProvision(path string) *ProvisionConfig {
	cfg, err := LoadProvision(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// LoadProvision загружает ProvisionConfig с тем же приоритетом источников, что и Load.
func LoadProvision(path string) (*ProvisionConfig, error) {
	var cfg ProvisionConfig
	if err := load(path, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func load(path string, cfg any) error {
	// чтение файла + overlay ENV.
	tryRead := func(p string) error {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, cfg); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(cfg); err != nil {
			return fmt.Errorf("failed to overlay env: %w", err)
		}

		return nil
	}

	if path != "" {
		return tryRead(path)
	}

	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	if _, err := os.Stat("local.yaml"); err == nil {
		return tryRead("local.yaml")
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return nil
}
