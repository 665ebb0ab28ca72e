package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/portoviejo/incidentes/config"
	"github.com/portoviejo/incidentes/db"
	"github.com/portoviejo/incidentes/services"
)

// Store is the persistence backend as seen by the health check and shutdown.
type Store interface {
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type Server struct {
	Config          *config.Config
	DB              Store
	AuthRepository  db.AuthRepository
	AuthService     services.AuthService
	IncidentService services.IncidentService
	LikeService     services.LikeService
}

// Router builds the HTTP handler.
func (s *Server) Router() *gin.Engine {
	return s.setupRouter()
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests.
func (s *Server) Start() {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Config.Port),
		Handler:           s.setupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server started on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
	sentry.Flush(2 * time.Second)
	if s.DB != nil {
		if err := s.DB.Close(ctx); err != nil {
			log.Printf("database close error: %v", err)
		}
	}
	log.Println("Server exiting")
}

// decode binds a JSON request body into v.
func decode(c *gin.Context, v interface{}) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return errors.Wrap(err, "invalid request body")
	}
	return nil
}
