package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/pribylovaa/go-crm/internal/http/handlers"
	"github.com/pribylovaa/go-crm/internal/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger      *slog.Logger
	Timeout     time.Duration
	CORSOrigins []string
	// Metrics — если nil, метрики запросов не пишутся.
	Metrics *middleware.Metrics
	// MetricsHandler отдаёт /metrics; nil — маршрут не регистрируется.
	MetricsHandler http.Handler
	// Ready сообщает готовность для /healthz; nil — всегда готов.
	Ready func() bool
}

// API — зависимости роутера: бизнес-операции и проверка токенов.
// *service.Service удовлетворяет обоим интерфейсам.
type API interface {
	handlers.Service
	middleware.TokenVerifier
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(api API, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),
		middleware.RequestID(), // до логирования
		middleware.Logging(opts.Logger),
	)
	if opts.Metrics != nil {
		root.Use(opts.Metrics.Middleware())
	}
	root.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout))
	}

	registerOps(root, opts)
	registerRoutes(root, handlers.New(api), api)

	return root
}

// registerOps — служебные эндпойнты.
func registerOps(r chi.Router, opts Options) {
	r.Get("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if opts.Ready == nil || opts.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}

		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})

	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}
}

// registerRoutes — единая точка регистрации REST-эндпойнтов.
// Защищённые маршруты оборачиваются гейтом прямо в таблице.
func registerRoutes(r chi.Router, h *handlers.Handlers, v middleware.TokenVerifier) {
	authed := func(fn middleware.AuthedHandler) http.HandlerFunc {
		return middleware.Authenticated(v, fn)
	}

	// auth
	r.Post("/token", h.Login)
	r.Post("/token/refresh", h.Refresh)

	// users
	r.Get("/users/me", authed(h.GetMe))
	r.Put("/users/me", authed(h.UpdateMe))

	// contacts
	r.Get("/contacts", authed(h.ListContacts))
	r.Post("/contacts", authed(h.CreateContact))
}
