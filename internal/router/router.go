package router

import (
	"net/http"
	"time"

	"github.com/RohitKattimani/MedReadApp/internal/config"
	"github.com/RohitKattimani/MedReadApp/internal/handlers"
	"github.com/RohitKattimani/MedReadApp/internal/models"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}
func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.String(429, "Too many requests. Try again later.")
}

func Setup(log *zap.Logger, categories *models.Categories) *gin.Engine {
	// Set up a new Gin router, add recovery middleware and request logging.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))
	router.Use(UserLoaderMiddleware(log))

	// Browser clients live on a separate origin; lock CORS to the configured
	// client URL when one is set.
	allowOrigin := func(origin string) bool { return true }
	if base := config.Conf.Client.BaseURL; base != "" {
		allowOrigin = func(origin string) bool { return origin == base }
	}
	router.Use(cors.New(cors.Config{
		AllowAllOrigins:  false,
		AllowOriginFunc:  allowOrigin,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
	})
	router.Use(func(c *gin.Context) {
		err := secureMiddleware.Process(c.Writer, c.Request)
		if err != nil {
			c.Abort()
			return
		}
	})

	// Handlers and routes
	authHandler := handlers.NewAuthHandler(log)
	imagesHandler := handlers.NewImagesHandler(log, categories)
	sessionsHandler := handlers.NewSessionsHandler(log)
	resultsHandler := handlers.NewResultsHandler(log)
	foldersHandler := handlers.NewFoldersHandler(log)

	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: 5,
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})

	api := router.Group("/api")

	api.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "MedRead API v1.0", "status": "healthy"})
	})

	auth := api.Group("/auth")
	{
		auth.POST("/register", limiter, authHandler.Register)
		auth.POST("/login", limiter, authHandler.Login)
		auth.POST("/session", limiter, authHandler.SessionExchange)
		auth.POST("/logout", authHandler.Logout)
	}

	authorized := api.Group("/")
	authorized.Use(AuthRequired())
	{
		authorized.GET("/auth/me", authHandler.Me)

		imageRoutes := authorized.Group("/images")
		{
			imageRoutes.GET("", imagesHandler.List)
			imageRoutes.POST("/upload", imagesHandler.Upload)
			// Fixed paths precede the wildcard so gin doesn't treat
			// "random" or "stats" as an image id.
			imageRoutes.GET("/random", imagesHandler.Random)
			imageRoutes.GET("/stats", imagesHandler.Stats)
			imageRoutes.DELETE("/:id", imagesHandler.Delete)
		}

		authorized.GET("/categories", imagesHandler.ListCategories)
		authorized.GET("/categories/presets", imagesHandler.CategoryPresets)

		sessionRoutes := authorized.Group("/sessions")
		{
			sessionRoutes.POST("/start", sessionsHandler.Start)
			sessionRoutes.GET("", sessionsHandler.List)
			sessionRoutes.GET("/history/chart", resultsHandler.HistoryChart)
			sessionRoutes.GET("/:id", sessionsHandler.Get)
			sessionRoutes.GET("/:id/csv", resultsHandler.ExportCSV)
			sessionRoutes.POST("/:id/response", sessionsHandler.SubmitResponse)
			sessionRoutes.POST("/:id/pause", sessionsHandler.Pause)
			sessionRoutes.POST("/:id/resume", sessionsHandler.Resume)
			sessionRoutes.POST("/:id/complete", sessionsHandler.Complete)
			sessionRoutes.POST("/:id/quit", sessionsHandler.Quit)
		}

		folderRoutes := authorized.Group("/drive")
		{
			folderRoutes.POST("/folders", foldersHandler.Add)
			folderRoutes.GET("/folders", foldersHandler.List)
			folderRoutes.DELETE("/folders/:id", foldersHandler.Delete)
			folderRoutes.POST("/sync/:id", foldersHandler.Sync)
		}
	}

	return router
}
