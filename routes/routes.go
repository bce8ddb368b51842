package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hamas2/hamak/handlers"
	"github.com/hamas2/hamak/middleware"
	"github.com/hamas2/hamak/websocket"
)

// Deps is what the router needs from main.
type Deps struct {
	Handler     *handlers.Handler
	Sessions    middleware.TokenParser
	Hub         *websocket.Manager
	RateLimiter *middleware.IPRateLimiter
	CORSOrigins []string
}

func SetupRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	if len(d.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     d.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
			ExposeHeaders:    []string{"Content-Length", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	if d.RateLimiter != nil {
		router.Use(middleware.RateLimitMiddleware(d.RateLimiter))
	}

	h := d.Handler

	// Public routes
	api := router.Group("/api")
	api.POST("/users", h.Register)
	api.GET("/users/:id", h.GetProfile)
	api.GET("/users/:id/videos", h.GetUserVideos)
	api.GET("/feed", h.GetFeed)
	api.GET("/videos/:id", h.GetVideo)
	api.GET("/videos/:id/share", h.ShareVideo)
	api.GET("/videos/:id/comments", h.GetComments)

	// Routes that act as the signed-in user
	protected := router.Group("/api")
	protected.Use(middleware.SessionMiddleware(d.Sessions))

	protected.GET("/me", h.Me)
	protected.POST("/videos", h.UploadVideo)
	protected.POST("/videos/:id/like", h.LikeVideo)
	protected.POST("/videos/:id/comments", h.AddComment)
	protected.POST("/videos/:id/comments/:cid/like", h.LikeComment)
	protected.POST("/videos/:id/comments/:cid/replies", h.AddReply)
	protected.POST("/videos/:id/comments/:cid/replies/:rid/like", h.LikeReply)

	if d.Hub != nil {
		router.GET("/ws", gin.WrapF(websocket.WebSocketHandler(d.Hub, d.Sessions.Parse)))
	}

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Endpoint not found",
				"path":  c.Request.URL.Path,
			})
			return
		}
		c.String(http.StatusNotFound, "404 page not found")
	})

	return router
}
