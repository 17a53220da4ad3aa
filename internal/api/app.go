package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/forbiddenlink/spiralsounds/internal/auth"
	"github.com/forbiddenlink/spiralsounds/internal/config"
	"github.com/forbiddenlink/spiralsounds/internal/database"
	"github.com/forbiddenlink/spiralsounds/internal/realtime"
	"github.com/gorilla/handlers"
)

type StoreApp struct {
	log            *log.Logger
	db             database.StoreRepository
	mux            *http.Server
	hub            *realtime.Hub
	verifier       auth.TokenVerifier
	allowedOrigins []string
}

func NewStoreApp(mux *http.ServeMux, logger *log.Logger, hub *realtime.Hub, db database.StoreRepository, verifier auth.TokenVerifier, cfg *config.Config) *StoreApp {
	s := &StoreApp{
		log:            logger,
		db:             db,
		hub:            hub,
		verifier:       verifier,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)
	mux.HandleFunc("GET /api/products", s.listProducts)
	mux.Handle("POST /api/products", s.authMiddleware(s.createProduct))
	mux.Handle("PUT /api/products/stock", s.authMiddleware(s.updateStock))
	mux.Handle("PUT /api/products/price", s.authMiddleware(s.updatePrice))
	mux.Handle("POST /api/notifications", s.authMiddleware(s.sendNotification))
	mux.Handle("GET /api/admin/connections", s.authMiddleware(s.connectionStats))
	mux.HandleFunc("GET /ws", s.serveWs)

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept", "Authorization"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *StoreApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *StoreApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
