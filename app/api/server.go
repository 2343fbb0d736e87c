package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, adminAccessKey string) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	// The reader UI is served from another origin
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Admin-Key")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, adminAccessKey)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, adminAccessKey string) {
	r.POST("/sync", handler.Sync)
	r.GET("/notes", handler.GetNote)
	r.POST("/notes", handler.SaveNote)
	r.GET("/visuals", handler.GetVisuals)
	r.GET("/news", handler.GetNews)
	r.GET("/news.rss", handler.GetNewsRSS)
	r.GET("/topics", handler.GetTopics)
	r.GET("/preferences", handler.GetPreferences)
	r.GET("/health", handler.GetHealth)

	if adminAccessKey != "" {
		auth := adminMiddleware(adminAccessKey)

		r.POST("/visuals", auth, handler.UpdateVisuals)

		admin := r.Group("/admin")
		admin.Use(auth)
		{
			admin.GET("/status", handler.AdminStatus)
			admin.GET("/sources", handler.AdminListSources)
			admin.POST("/sources", handler.AdminAddSource)
			admin.DELETE("/sources/:name", handler.AdminRemoveSource)
			admin.GET("/visuals", handler.GetVisuals)
			admin.POST("/visuals", handler.UpdateVisuals)
			admin.GET("/syncs", handler.AdminListSyncs)
			admin.POST("/sync", handler.AdminEnqueueSync)
			admin.POST("/crawl-sources", handler.AdminEnqueueSourceCrawl)
			admin.GET("/dashboard", handler.AdminDashboard)
		}
		slog.Info("Admin endpoints enabled with authentication")
	} else {
		slog.Info("Admin endpoints disabled (ADMIN_ACCESS_KEY not set)")
	}

	r.GET("/", func(c *gin.Context) {
		endpoints := map[string]string{
			"sync":        "/sync (POST)",
			"notes":       "/notes?id=<newsId>",
			"visuals":     "/visuals",
			"news":        "/news",
			"rss":         "/news.rss",
			"topics":      "/topics",
			"preferences": "/preferences",
			"health":      "/health",
		}

		if adminAccessKey != "" {
			endpoints["status"] = "/admin/status (requires X-Admin-Key header)"
			endpoints["sources"] = "/admin/sources (GET, POST, DELETE /admin/sources/<name>, requires X-Admin-Key header)"
			endpoints["syncs"] = "/admin/syncs (requires X-Admin-Key header)"
			endpoints["dashboard"] = "/admin/dashboard (requires X-Admin-Key header)"
		}

		c.JSON(http.StatusOK, gin.H{
			"service":     "FlipNews",
			"version":     handler.version,
			"description": "Personalized news feed: topic preferences, crawl and publish pipeline, notes",
			"endpoints":   endpoints,
			"admin_status": map[string]interface{}{
				"enabled":       adminAccessKey != "",
				"auth_required": adminAccessKey != "",
				"header":        "X-Admin-Key",
			},
		})
	})

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
}

// adminMiddleware checks the shared admin secret
func adminMiddleware(adminAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := checkAdminKey(c.Request, adminAccessKey); err != nil {
			slog.Warn("Rejected admin request", "path", c.Request.URL.Path, "client", c.ClientIP(), "reason", err.Error())
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Unauthorized",
				"message": err.Error(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func checkAdminKey(r *http.Request, adminAccessKey string) error {
	providedKey := r.Header.Get("X-Admin-Key")

	if providedKey == "" {
		authHeader := r.Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			providedKey = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}

	if providedKey == "" {
		return &AuthError{Reason: "Provide the admin key in X-Admin-Key header or Authorization: Bearer <key>"}
	}

	if providedKey != adminAccessKey {
		return &AuthError{Reason: "The provided admin key is not valid"}
	}

	return nil
}
