package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ammar1510/inbox/internal/api"
	"github.com/ammar1510/inbox/internal/auth"
	"github.com/ammar1510/inbox/internal/config"
	"github.com/ammar1510/inbox/internal/database"
	"github.com/ammar1510/inbox/internal/logger"
	"github.com/ammar1510/inbox/internal/service"
	"github.com/ammar1510/inbox/internal/storage"
	"github.com/ammar1510/inbox/internal/websocket"
)

var log = logger.New("server")

func main() {
	// Set up logging to both console and file
	logFile, err := os.OpenFile("server.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Error("Failed to open log file: %v", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger.SetOutput(io.MultiWriter(os.Stdout, logFile))

	cfg, err := config.Load()
	if err != nil {
		log.Error("Invalid configuration: %v", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
	log.Info("Server exited properly")
}

func run(cfg *config.Config) error {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	auth.InitJWTKey([]byte(cfg.JWTSecret))
	auth.SetTokenTTLs(cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDatabase(ctx, database.DatabaseType(cfg.DBType), cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info("Connected to %s database successfully", cfg.DBType)

	store, mediaRoot, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	presenter := api.NewPresenter(storage.NewResolver(cfg.MediaBaseURL))

	hub := websocket.NewManager(cfg.AllowedOrigins...)
	go hub.Run(ctx)

	router := api.NewRouter(api.Deps{
		DB:             db,
		Users:          service.NewUserService(db, store),
		Messages:       service.NewMessageService(db, store, websocket.NewNotifier(hub, presenter.Event)),
		Presenter:      presenter,
		Hub:            hub,
		AllowedOrigins: cfg.AllowedOrigins,
		MediaRoot:      mediaRoot,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	log.Info("Shutting down server...")

	// Give in-flight requests 5 seconds to finish
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openStore returns the configured object store and, for the local backend,
// the directory the router should serve under /media
func openStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, string, error) {
	if cfg.StorageBackend == config.StorageLocal {
		store, err := storage.NewLocalStore(cfg.MediaRoot)
		if err != nil {
			return nil, "", err
		}
		log.Info("Storing media under %s", store.Root())
		return store, store.Root(), nil
	}

	store, err := storage.NewS3Store(ctx, storage.S3Config{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		PathStyle: cfg.S3PathStyle,
		ACL:       cfg.S3ACL,
	})
	if err != nil {
		return nil, "", err
	}
	log.Info("Storing media in bucket %s", cfg.S3Bucket)
	return store, "", nil
}
