package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// JWTConfig defines issuer/secret pair for auth verification.
type JWTConfig struct {
	Issuer string
	Secret []byte
}

// Config holds runtime configuration shared across the application.
type Config struct {
	Addr                   string
	MongoURI               string
	MongoDatabase          string
	FavoriteCollection     string
	VisitCollection        string
	RevokedTokenCollection string
	Timeout                time.Duration
	ElasticsearchURL       string
	PlaceIndex             string
	RoutingBaseURL         string
	RoutingTimeout         time.Duration
	Timezone               string
	ServerLog              *log.Logger
	JWTConfigs             []JWTConfig
	JWTAudience            string
	TokenTTL               time.Duration
	FavoriteUndoWindow     time.Duration
	SearchRadiusMeters     int
	SearchCategoryTags     []string
	AllowedOrigins         []string
	// AdminToken guards /admin. 空の場合は管理 API をマウントしない。
	AdminToken string
}

// Load reads environment variables and returns a fully populated Config.
// 必須項目の検証は Validate で行う。
func Load() Config {
	var jwtConfigs []JWTConfig
	issuer := envOrDefault("AUTH_JWT_ISSUER", "menu-recommendation")
	if secret := strings.TrimSpace(os.Getenv("AUTH_JWT_SECRET")); secret != "" {
		jwtConfigs = append(jwtConfigs, JWTConfig{Issuer: issuer, Secret: []byte(secret)})
	}
	// 鍵のローテーション中は旧鍵で署名されたトークンも受け付ける。
	if secret := strings.TrimSpace(os.Getenv("AUTH_JWT_PREVIOUS_SECRET")); secret != "" {
		jwtConfigs = append(jwtConfigs, JWTConfig{Issuer: issuer, Secret: []byte(secret)})
	}

	cfg := Config{
		Addr:                   envOrDefault("HTTP_ADDR", ":8080"),
		MongoURI:               envOrDefault("MONGO_URI", "mongodb://mongo:27017"),
		MongoDatabase:          envOrDefault("MONGO_DB", "menu-recommendation"),
		FavoriteCollection:     envOrDefault("FAVORITE_COLLECTION", "favorites"),
		VisitCollection:        envOrDefault("VISIT_COLLECTION", "visits"),
		RevokedTokenCollection: envOrDefault("REVOKED_TOKEN_COLLECTION", "revoked_tokens"),
		Timeout:                parseDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second),
		ElasticsearchURL:       envOrDefault("ELASTICSEARCH_URL", "http://elasticsearch:9200"),
		PlaceIndex:             envOrDefault("PLACE_INDEX", "places"),
		RoutingBaseURL:         strings.TrimRight(strings.TrimSpace(os.Getenv("ROUTING_BASE_URL")), "/"),
		RoutingTimeout:         parseDuration("ROUTING_TIMEOUT", 3*time.Second),
		Timezone:               envOrDefault("TIMEZONE", "Asia/Seoul"),
		ServerLog:              log.New(os.Stdout, "[menu-recommendation-api] ", log.LstdFlags|log.Lshortfile),
		JWTConfigs:             jwtConfigs,
		JWTAudience:            strings.TrimSpace(os.Getenv("AUTH_JWT_AUDIENCE")),
		TokenTTL:               parseDuration("AUTH_TOKEN_TTL", 30*24*time.Hour),
		FavoriteUndoWindow:     parseDuration("FAVORITE_UNDO_WINDOW", 3*time.Second),
		SearchRadiusMeters:     parseInt("SEARCH_RADIUS_METERS", 1000),
		SearchCategoryTags:     parseList("SEARCH_CATEGORY_TAGS", []string{"restaurant", "cafe", "bakery", "meal_takeaway"}),
		AllowedOrigins:         parseList("API_ALLOWED_ORIGINS", []string{"*"}),
		AdminToken:             strings.TrimSpace(os.Getenv("ADMIN_API_TOKEN")),
	}

	cfg.ServerLog.Printf("loaded config: elasticsearch=%q index=%q routing=%q timezone=%q", cfg.ElasticsearchURL, cfg.PlaceIndex, cfg.RoutingBaseURL, cfg.Timezone)

	return cfg
}

// Validate reports configuration the server cannot start without.
func (c Config) Validate() error {
	var errs []error
	if len(c.JWTConfigs) == 0 {
		errs = append(errs, errors.New("JWT secret not configured. Set AUTH_JWT_SECRET"))
	}
	if c.SearchRadiusMeters <= 0 {
		errs = append(errs, errors.New("SEARCH_RADIUS_METERS must be positive"))
	}
	if c.FavoriteUndoWindow <= 0 {
		errs = append(errs, errors.New("FAVORITE_UNDO_WINDOW must be positive"))
	}
	return errors.Join(errs...)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key string, fallback time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func parseInt(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func parseList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			values = append(values, part)
		}
	}

	if len(values) == 0 {
		return fallback
	}
	return values
}
