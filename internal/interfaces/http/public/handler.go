package public

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sngm3741/menu-recommendation/api/internal/geo"
	"github.com/sngm3741/menu-recommendation/api/internal/identity"
	publicapp "github.com/sngm3741/menu-recommendation/api/internal/public/application"
)

// DefaultCenter is the map center offered to clients that have no location yet (Seoul City Hall).
var DefaultCenter = geo.Coordinate{Lat: 37.5665, Lng: 126.9780}

// IdentityService is the part of identity.Service the handlers call.
type IdentityService interface {
	SignInAnonymously(ctx context.Context) (*identity.Session, error)
	SignOut(ctx context.Context, token string) error
}

// Handler wires public HTTP endpoints to application services.
type Handler struct {
	logger       *log.Logger
	places       publicapp.PlaceQueryService
	routes       publicapp.RouteService
	sessions     *publicapp.FavoriteSessions
	visits       publicapp.VisitService
	identity     IdentityService
	radiusMeters int
	categoryTags []string
	undoWindow   time.Duration
}

// Config defines dependencies required by Handler.
type Config struct {
	Logger             *log.Logger
	Places             publicapp.PlaceQueryService
	Routes             publicapp.RouteService
	Sessions           *publicapp.FavoriteSessions
	Visits             publicapp.VisitService
	Identity           IdentityService
	SearchRadiusMeters int
	SearchCategoryTags []string
	UndoWindow         time.Duration
}

// NewHandler constructs a public HTTP handler set.
func NewHandler(cfg Config) *Handler {
	radius := cfg.SearchRadiusMeters
	if radius <= 0 {
		radius = 1000
	}
	undoWindow := cfg.UndoWindow
	if undoWindow <= 0 {
		undoWindow = publicapp.DefaultUndoWindow
	}
	return &Handler{
		logger:       cfg.Logger,
		places:       cfg.Places,
		routes:       cfg.Routes,
		sessions:     cfg.Sessions,
		visits:       cfg.Visits,
		identity:     cfg.Identity,
		radiusMeters: radius,
		categoryTags: append([]string(nil), cfg.SearchCategoryTags...),
		undoWindow:   undoWindow,
	}
}

// Register mounts all public routes onto the router.
func (h *Handler) Register(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/config", h.clientConfigHandler())
	r.Post("/auth/anonymous", h.signInHandler())
	r.Get("/restaurants", h.restaurantListHandler())
	r.Get("/restaurants/{id}", h.restaurantDetailHandler())
	r.Get("/route", h.routeHandler())
	r.Get("/directions-link", h.directionsLinkHandler())

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/auth/verify", h.authVerifyHandler())
		r.Post("/auth/logout", h.signOutHandler())

		r.Get("/me/favorites", h.favoriteListHandler())
		r.Post("/me/favorites", h.favoriteAddHandler())
		r.Post("/me/favorites/toggle", h.favoriteToggleHandler())
		r.Post("/me/favorites/undo", h.favoriteUndoHandler())
		r.Get("/me/favorites/{placeId}", h.favoriteStatusHandler())
		r.Delete("/me/favorites/{placeId}", h.favoriteRemoveHandler())

		r.Get("/me/visits", h.visitListHandler())
		r.Post("/me/visits", h.visitRecordHandler())
	})
}
