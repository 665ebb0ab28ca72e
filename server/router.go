package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/portoviejo/incidentes/config"
)

func (s *Server) setupRouter() *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = 32 << 20
	if gin.Mode() == gin.TestMode {
		r.Use(gin.Recovery())
		s.defineRoutes(r)
		return r
	}

	// LoggerWithFormatter middleware will write the logs to gin.DefaultWriter
	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))
	r.Use(gin.Recovery())
	r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))

	corsConfig := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	if len(s.Config.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = s.Config.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	r.Use(cors.New(corsConfig))

	s.defineRoutes(r)
	return r
}

func (s *Server) defineRoutes(router *gin.Engine) {
	router.GET("/healthz", s.handleHealth())
	if s.Config.StorageDriver == config.StorageLocal && s.Config.UploadDir != "" {
		router.Static("/uploads", s.Config.UploadDir)
	}
	router.NoRoute(notFound())

	apirouter := router.Group("/api")

	authRoutes := apirouter.Group("/auth")
	if s.Config.AuthRateLimit > 0 {
		authRoutes.Use(limitRateByClientIP(s.Config.AuthRateLimit))
	}
	authRoutes.POST("/register", s.handleRegister())
	authRoutes.POST("/login", s.handleLogin())

	apirouter.GET("/incidentes", s.handleListIncidents())
	apirouter.GET("/incidentes/:id", s.handleGetIncident())

	authorized := apirouter.Group("")
	authorized.Use(s.Authorize())
	authorized.POST("/incidentes", s.handleCreateIncident())
	authorized.GET("/incidentes/mis-reportes", s.handleMyIncidents())
	authorized.POST("/incidentes/:id/comentarios", s.handleAddComment())
	authorized.POST("/incidentes/:id/like", s.handleToggleLike())
}

func (s *Server) handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if s.DB == nil || s.DB.Ping(ctx) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
