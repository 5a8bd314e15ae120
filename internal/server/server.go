package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	es "github.com/olivere/elastic/v7"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	adminapp "github.com/sngm3741/menu-recommendation/api/internal/admin/application"
	"github.com/sngm3741/menu-recommendation/api/internal/config"
	"github.com/sngm3741/menu-recommendation/api/internal/identity"
	"github.com/sngm3741/menu-recommendation/api/internal/infrastructure/elastic"
	mongodoc "github.com/sngm3741/menu-recommendation/api/internal/infrastructure/mongo"
	"github.com/sngm3741/menu-recommendation/api/internal/infrastructure/routing"
	adminhttp "github.com/sngm3741/menu-recommendation/api/internal/interfaces/http/admin"
	commonhttp "github.com/sngm3741/menu-recommendation/api/internal/interfaces/http/common"
	publichttp "github.com/sngm3741/menu-recommendation/api/internal/interfaces/http/public"
	publicapp "github.com/sngm3741/menu-recommendation/api/internal/public/application"
)

// Server は HTTP サーバーのライフサイクルを管理し、Public/Admin の各ハンドラへ依存注入するコンポジションルート。
type Server struct {
	logger         *log.Logger
	client         *mongo.Client
	search         *es.Client
	identity       *identity.Service
	sessions       *publicapp.FavoriteSessions
	publicHandler  *publichttp.Handler
	adminHandler   *adminhttp.Handler
	adminToken     string
	addr           string
	allowedOrigins []string
	checks         map[string]func(context.Context) error
	unsubscribe    func()
}

// Run はHTTPサーバーを起動し、シグナルを受けるまでブロックする。
func (s *Server) Run() error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Printf("HTTP サーバー起動: http://%s", s.addr)
		errChan <- httpServer.ListenAndServe()
	}()

	return waitForShutdown(httpServer, errChan, s)
}

// Router assembles middleware and every route.
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(withCORS(s.allowedOrigins))

	router.Get("/healthz", s.healthHandler())
	router.Handle("/metrics", promhttp.Handler())
	s.publicHandler.Register(router, s.authMiddleware)

	if s.adminHandler != nil {
		router.Route("/admin", func(r chi.Router) {
			r.Use(s.adminMiddleware)
			s.adminHandler.Register(r)
		})
	}
	return router
}

// withCORS は許可されたオリジン情報をもとに CORS ヘッダーを付与するミドルウェアを返す。
func withCORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{})
	allowAll := false
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" || (!allowAll && len(allowed) > 0 && !originAllowed(origin, allowed)) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
			w.Header().Set("Access-Control-Max-Age", "300")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(origin string, allowed map[string]struct{}) bool {
	if len(allowed) == 0 {
		return true
	}
	_, ok := allowed[origin]
	return ok
}

// healthHandler は MongoDB と Elasticsearch への疎通のみを確認する。
func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		names := make([]string, 0, len(s.checks))
		for name := range s.checks {
			names = append(names, name)
		}
		sort.Strings(names)

		failures := make(map[string]string)
		for _, name := range names {
			if err := s.checks[name](ctx); err != nil {
				failures[name] = err.Error()
			}
		}

		if len(failures) > 0 {
			commonhttp.WriteJSON(s.logger, w, http.StatusServiceUnavailable, map[string]any{
				"status": "degraded",
				"errors": failures,
			})
			return
		}

		commonhttp.WriteJSON(s.logger, w, http.StatusOK, map[string]string{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}

// authMiddleware は Bearer トークンを検証し、認証済みユーザーをコンテキストへ詰める。
// 失効状態の確認に失敗した場合は 401 ではなく 503 を返す。
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, reason := commonhttp.BearerToken(r)
		if reason != "" {
			commonhttp.WriteError(s.logger, w, http.StatusUnauthorized, reason)
			return
		}

		principal, err := s.identity.Verify(r.Context(), token)
		if err != nil {
			if errors.Is(err, identity.ErrInvalidToken) {
				commonhttp.WriteError(s.logger, w, http.StatusUnauthorized, "アクセストークンが無効です")
				return
			}
			s.logger.Printf("トークン検証に失敗: %v", err)
			commonhttp.WriteError(s.logger, w, http.StatusServiceUnavailable, "認証サービスに接続できません")
			return
		}

		user := commonhttp.AuthenticatedUser{
			ID:        principal.UserID,
			Anonymous: principal.Anonymous,
			TokenID:   principal.TokenID,
			Token:     token,
		}
		ctx := commonhttp.ContextWithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// adminMiddleware は ADMIN_API_TOKEN と一致する Bearer トークンのみ通す。
func (s *Server) adminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, reason := commonhttp.BearerToken(r)
		if reason != "" {
			commonhttp.WriteError(s.logger, w, http.StatusUnauthorized, reason)
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) != 1 {
			commonhttp.WriteError(s.logger, w, http.StatusForbidden, "管理者トークンが一致しません")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// shutdown は保留中のお気に入り削除を破棄してから外部接続を閉じる。
func (s *Server) shutdown(ctx context.Context) {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.sessions.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if s.client != nil {
		if err := s.client.Disconnect(shutdownCtx); err != nil {
			s.logger.Printf("MongoDB 切断時にエラー: %v", err)
		}
	}
	if s.search != nil {
		s.search.Stop()
	}
}

// waitForShutdown は ListenAndServe の終了と OS シグナルを監視し、graceful shutdown を実現する。
func waitForShutdown(httpServer *http.Server, errChan <-chan error, srv *Server) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("サーバーが異常終了: %w", err)
		}
	case sig := <-sigChan:
		srv.logger.Printf("シグナル %s を受信。サーバー停止処理を開始します。", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			srv.logger.Printf("サーバー停止時にエラー: %v", err)
		}
	}

	srv.shutdown(context.Background())
	return runErr
}

// New は Config と各クライアントを受け取り、アプリケーションサービスとハンドラを組み立てた Server を返す。
func New(cfg config.Config, client *mongo.Client, search *es.Client) (*Server, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.FixedZone("KST", 9*60*60)
		cfg.ServerLog.Printf("タイムゾーン %s の読み込みに失敗: %v, KST を使用します", cfg.Timezone, err)
	}

	database := client.Database(cfg.MongoDatabase)
	favoriteRepo := mongodoc.NewFavoriteRepository(database, cfg.FavoriteCollection)
	visitRepo := mongodoc.NewVisitRepository(database, cfg.VisitCollection)
	revokedRepo := mongodoc.NewRevokedTokenRepository(database, cfg.RevokedTokenCollection)
	placeRepo := elastic.NewPlaceRepository(search, cfg.PlaceIndex)

	keys := make([]identity.Key, 0, len(cfg.JWTConfigs))
	for _, jc := range cfg.JWTConfigs {
		keys = append(keys, identity.Key{Issuer: jc.Issuer, Secret: jc.Secret})
	}
	identityService, err := identity.New(identity.Config{
		Keys:        keys,
		Audience:    cfg.JWTAudience,
		TTL:         cfg.TokenTTL,
		Revocations: revokedRepo,
		Logger:      cfg.ServerLog,
	})
	if err != nil {
		return nil, err
	}

	// nil の *routing.Client をインターフェースに入れないこと。
	var routingProvider publicapp.RoutingProvider
	if rc := routing.NewClient(cfg.RoutingBaseURL, cfg.RoutingTimeout); rc != nil {
		routingProvider = rc
	} else {
		cfg.ServerLog.Printf("ROUTING_BASE_URL が未設定のため経路は直線距離で推定します")
	}

	favoriteService := publicapp.NewFavoriteService(favoriteRepo)
	sessions := publicapp.NewFavoriteSessions(publicapp.SessionsConfig{
		Favorites: favoriteService,
		Window:    cfg.FavoriteUndoWindow,
		Logger:    cfg.ServerLog,
	})
	unsubscribe := identityService.Subscribe(func(ev identity.Event) {
		if ev.Kind == identity.SignedOut {
			sessions.Close(ev.UserID)
		}
	})

	srv := &Server{
		logger:         cfg.ServerLog,
		client:         client,
		search:         search,
		identity:       identityService,
		sessions:       sessions,
		adminToken:     cfg.AdminToken,
		addr:           cfg.Addr,
		allowedOrigins: append([]string(nil), cfg.AllowedOrigins...),
		unsubscribe:    unsubscribe,
		checks: map[string]func(context.Context) error{
			"mongo": func(ctx context.Context) error {
				return client.Ping(ctx, readpref.Primary())
			},
			"elasticsearch": func(ctx context.Context) error {
				return clusterHealthy(ctx, search)
			},
		},
	}

	srv.publicHandler = publichttp.NewHandler(publichttp.Config{
		Logger:             cfg.ServerLog,
		Places:             publicapp.NewPlaceQueryService(placeRepo, loc),
		Routes:             publicapp.NewRouteService(routingProvider, cfg.ServerLog),
		Sessions:           sessions,
		Visits:             publicapp.NewVisitService(visitRepo),
		Identity:           identityService,
		SearchRadiusMeters: cfg.SearchRadiusMeters,
		SearchCategoryTags: cfg.SearchCategoryTags,
		UndoWindow:         cfg.FavoriteUndoWindow,
	})

	if cfg.AdminToken != "" {
		srv.adminHandler = adminhttp.NewHandler(adminhttp.Config{
			Logger:       cfg.ServerLog,
			PlaceService: adminapp.NewPlaceService(placeRepo),
		})
	} else {
		cfg.ServerLog.Printf("ADMIN_API_TOKEN が未設定のため /admin は無効です")
	}

	return srv, nil
}

func clusterHealthy(ctx context.Context, search *es.Client) error {
	health, err := search.ClusterHealth().Do(ctx)
	if err != nil {
		return err
	}
	if health.Status == "red" {
		return fmt.Errorf("cluster status %s", health.Status)
	}
	return nil
}
