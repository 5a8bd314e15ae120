package admin

import (
	"log"

	"github.com/go-chi/chi/v5"

	adminapp "github.com/sngm3741/menu-recommendation/api/internal/admin/application"
)

// Handler wires admin HTTP endpoints to application services.
type Handler struct {
	logger       *log.Logger
	placeService adminapp.PlaceService
}

// Config provides dependencies for Handler.
type Config struct {
	Logger       *log.Logger
	PlaceService adminapp.PlaceService
}

// NewHandler constructs an admin HTTP handler set.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		logger:       cfg.Logger,
		placeService: cfg.PlaceService,
	}
}

// Register mounts admin routes onto router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/places", h.placeSearchHandler())
	r.Get("/places/{id}", h.placeDetailHandler())
	r.Post("/places", h.placeCreateHandler())
	r.Put("/places/{id}", h.placeUpdateHandler())
}
