package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/ahmadqo/course-certificates/docs" // Import generated docs
	appMiddleware "github.com/ahmadqo/course-certificates/internal/middleware"
	"github.com/ahmadqo/course-certificates/internal/model"
	"github.com/ahmadqo/course-certificates/internal/response"
)

// RenderLimits caps concurrent public renders. Requests beyond Concurrent
// wait in a backlog of Backlog for up to Timeout, then get 429.
// Concurrent <= 0 disables the cap.
type RenderLimits struct {
	Concurrent int
	Backlog    int
	Timeout    time.Duration
}

type Router struct {
	authHandler        *AuthHandler
	templateHandler    *TemplateHandler
	certificateHandler *CertificateHandler
	jwtSecret          string
	allowedOrigins     []string
	renderLimits       RenderLimits
}

func NewRouter(
	authHandler *AuthHandler,
	templateHandler *TemplateHandler,
	certificateHandler *CertificateHandler,
	jwtSecret string,
	allowedOrigins []string,
	renderLimits RenderLimits,
) *Router {
	return &Router{
		authHandler:        authHandler,
		templateHandler:    templateHandler,
		certificateHandler: certificateHandler,
		jwtSecret:          jwtSecret,
		allowedOrigins:     allowedOrigins,
		renderLimits:       renderLimits,
	}
}

func (ro *Router) renderThrottle() func(http.Handler) http.Handler {
	l := ro.renderLimits
	if l.Concurrent <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	timeout := l.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return chiMiddleware.ThrottleBacklog(l.Concurrent, max(l.Backlog, 0), timeout)
}

func (ro *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   ro.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, "Server berjalan dengan baik", map[string]string{"status": "ok"})
	})

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// URL yang dienkode di QR sertifikat
	r.Get("/certificates/verify/{id}", ro.certificateHandler.Verify)

	r.Route("/api/v1", func(r chi.Router) {

		// ── Auth (public) ────────────────────────────────
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", ro.authHandler.Login)
			r.Post("/refresh", ro.authHandler.RefreshToken)

			r.Group(func(r chi.Router) {
				r.Use(appMiddleware.Authenticate(ro.jwtSecret))
				r.Get("/me", ro.authHandler.Me)
			})
		})

		// ── Certificates ─────────────────────────────────
		r.Route("/certificates", func(r chi.Router) {
			// public: id sertifikat adalah token verifikasi
			r.Get("/verify/{id}", ro.certificateHandler.Verify)

			// render berat di CPU, dibatasi RenderLimits
			r.Group(func(r chi.Router) {
				r.Use(ro.renderThrottle())
				r.Get("/{id}/image", ro.certificateHandler.Image)
				r.Get("/{id}/pdf", ro.certificateHandler.PDF)
			})

			r.Group(func(r chi.Router) {
				r.Use(appMiddleware.Authenticate(ro.jwtSecret))
				r.Post("/issue", ro.certificateHandler.Issue)
			})
		})

		// ── Admin ────────────────────────────────────────
		r.Route("/admin", func(r chi.Router) {
			r.Use(appMiddleware.Authenticate(ro.jwtSecret))
			r.Use(appMiddleware.RequireRole(string(model.RoleAdmin)))

			r.Post("/users", ro.authHandler.Register)

			r.Route("/templates", func(r chi.Router) {
				r.Get("/", ro.templateHandler.GetAll)
				r.Post("/", ro.templateHandler.Create)
				r.Post("/preview", ro.templateHandler.Preview)
				r.Post("/edit", ro.templateHandler.Edit)
				r.Get("/{id}", ro.templateHandler.GetByID)
				r.Put("/{id}", ro.templateHandler.Update)
				r.Post("/{id}/default", ro.templateHandler.SetDefault)
				r.Post("/{id}/background", ro.templateHandler.UploadBackground)
			})
		})
	})

	return r
}
