package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"avatarapi/internal/http/handlers"
	"avatarapi/internal/infra"
	"avatarapi/internal/middleware"
)

// Options carries router-level dependencies.
type Options struct {
	Logger         infra.Logger
	AllowedOrigins []string
	CountryLookup  middleware.CountryLookup
}

// NewRouter assembles the HTTP surface with the standard middleware chain.
func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimiddleware.RealIP,
		chimiddleware.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.Country(opts.CountryLookup),
	)

	r.Get("/", app.Root)
	r.Get("/healthz", app.Health)

	r.Post("/store-user-avatar", app.StoreUserAvatar)
	r.Get("/avatars", app.ListAvatars)
	r.Get("/avatar-count", app.AvatarCount)

	return r
}
