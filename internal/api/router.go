package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ammar1510/inbox/internal/database"
	"github.com/ammar1510/inbox/internal/logger"
	"github.com/ammar1510/inbox/internal/service"
	"github.com/ammar1510/inbox/internal/websocket"
)

var log = logger.New("api")

// multipart framing on top of the file itself
const formOverheadBytes = 1 << 20

// Deps are the collaborators the HTTP surface is built from
type Deps struct {
	DB             database.DBInterface
	Users          *service.UserService
	Messages       *service.MessageService
	Presenter      *Presenter
	Hub            *websocket.Manager
	AllowedOrigins []string
	// MediaRoot, when set, is served read-only under /media.
	MediaRoot      string
	MaxUploadBytes int64
}

// NewRouter wires every route of the messaging API
func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestIDMiddleware())
	router.Use(cors.New(corsConfig(d.AllowedOrigins)))

	router.GET("/health", health(d.DB))
	if d.MediaRoot != "" {
		router.Static("/media", d.MediaRoot)
	}

	authHandler := NewAuthHandler(d.Users)
	userHandler := NewUserHandler(d.Users, d.Presenter, d.MaxUploadBytes)
	messageHandler := NewMessageHandler(d.Messages, d.Presenter, d.MaxUploadBytes)

	apiGroup := router.Group("/api")
	apiGroup.Use(LimitBody(d.MaxUploadBytes + formOverheadBytes))

	// Public routes
	apiGroup.POST("/register", authHandler.Register)
	apiGroup.POST("/token", authHandler.Token)
	apiGroup.POST("/token/refresh", authHandler.TokenRefresh)

	// The websocket handshake may carry the token in the query string.
	if d.Hub != nil {
		apiGroup.GET("/ws", TokenAuthMiddleware(), d.Hub.HandleWebSocket)
	}

	authorized := apiGroup.Group("")
	authorized.Use(AuthMiddleware())
	{
		authorized.GET("/protected", authHandler.Protected)
		authorized.GET("/users", userHandler.ListUsers)
		authorized.GET("/profile", userHandler.GetProfile)
		authorized.PUT("/profile", userHandler.UpdateProfile)

		authorized.GET("/messages", messageHandler.GetMessages)
		authorized.POST("/messages", messageHandler.CreateMessage)
		authorized.GET("/messages/received", messageHandler.GetReceived)
		authorized.GET("/messages/sent", messageHandler.GetSent)
		authorized.POST("/messages/send", messageHandler.SendMessage)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", requestIDHeader},
		ExposeHeaders: []string{"Content-Length", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}

func health(db database.DBInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				log.Warn("Health check failed: %v", err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
