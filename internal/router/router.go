package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"gravizot/internal/config"
	"gravizot/internal/handler"
	"gravizot/internal/middleware"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	User    *handler.UserHandler
	Contact *handler.ContactHandler
}

func New(
	cfg *config.Config,
	authMiddleware *middleware.AuthMiddleware,
	csrfMiddleware *middleware.CSRFMiddleware,
	h Handlers,
) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))
		// Planting runs before any route so every safe request refreshes
		// the csrfToken cookie; validation wraps each mutating group.
		api.Use(csrfMiddleware.Ensure)
		api.Use(csrfMiddleware.Require)

		api.Route("/auth", func(auth chi.Router) {
			auth.Get("/csrf", h.Auth.Csrf)
			auth.Post("/signup", h.Auth.Signup)
			auth.Post("/login", h.Auth.Login)
			auth.Post("/logout", h.Auth.Logout)
			auth.Post("/refresh", h.Auth.Refresh)
			auth.With(authMiddleware.RequireAuth).Get("/me", h.Auth.Me)
		})

		api.Route("/users", func(users chi.Router) {
			users.Use(authMiddleware.RequireAuth)
			users.Get("/me", h.User.Me)
			users.Put("/me", h.User.UpdateMe)
		})

		api.Route("/contact", func(contact chi.Router) {
			contact.Get("/csrf", h.Contact.Csrf)
			contact.Post("/", h.Contact.Submit)
		})
	})

	return r
}
