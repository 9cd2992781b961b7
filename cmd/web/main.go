package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bilah/internal/config"
	"bilah/internal/database"
	"bilah/internal/handlers"
	"bilah/internal/logger"
	"bilah/internal/services"
	"bilah/internal/storage"
)

func main() {
	gin.SetMode(gin.ReleaseMode)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog, err := logger.New()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zlog.Sync()

	backend, err := storage.Select(storage.Options{
		Kind:          cfg.Storage.Backend,
		DataDir:       cfg.Storage.DataDir,
		RedisAddr:     cfg.Storage.RedisAddr,
		RedisPassword: cfg.Storage.RedisPassword,
		RedisDB:       cfg.Storage.RedisDB,
	}, zlog)
	if err != nil {
		zlog.Fatal("storage backend", zap.Error(err))
	}
	status := backend.Status()
	zlog.Info("storage backend selected",
		zap.String("kind", status.Kind),
		zap.Bool("durable", status.Durable))

	products := database.NewProductRepository(backend, zlog)
	articles := database.NewArticleRepository(backend, zlog)
	messages := database.NewMessageStore(backend, zlog)

	sessions := services.NewSessionService(cfg.Admin)
	oauth := services.NewOAuthService(cfg.OAuth, cfg.Admin, zlog)
	email := services.NewEmailService(cfg.SMTP, zlog)
	csv := services.NewCSVService(products, articles, zlog)

	h := handlers.NewHandler(products, articles, messages, backend, sessions, oauth, email, csv, zlog)

	// Build the engine manually to control the middleware set.
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		zlog.Fatal("trusted proxies", zap.Error(err))
	}

	handlers.RegisterRoutes(r, h)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}
	zlog.Info("http server starting", zap.String("port", cfg.Server.Port))
	if err := server.ListenAndServe(); err != nil {
		zlog.Fatal("http server", zap.Error(err))
	}
}
