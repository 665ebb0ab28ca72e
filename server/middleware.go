package server

import (
	"log"
	"net/http"
	"strings"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/portoviejo/incidentes/db"
	errs "github.com/portoviejo/incidentes/errors"
	"github.com/portoviejo/incidentes/server/response"
	"github.com/portoviejo/incidentes/services/jwt"
)

// Authorize rejects requests without a valid bearer token for an existing
// user and stores the user id under "userID".
func (s *Server) Authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			respondAndAbort(c, errs.ErrMissingToken)
			return
		}
		accessToken, ok := getTokenFromHeader(header)
		if !ok {
			respondAndAbort(c, errs.ErrInvalidToken)
			return
		}
		if accessToken == "" {
			respondAndAbort(c, errs.ErrMissingToken)
			return
		}

		userID, err := jwt.ValidateToken(accessToken, s.Config.JWTSecret)
		if err != nil {
			respondAndAbort(c, errs.ErrInvalidToken)
			return
		}

		user, err := s.AuthRepository.FindUserByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, db.ErrRecordNotFound) {
				respondAndAbort(c, errs.ErrInvalidToken)
				return
			}
			log.Printf("Authorize: unable to load user %s: %v", userID, err)
			respondAndAbort(c, errs.ErrInternalServerError)
			return
		}

		c.Set("user", user)
		c.Set("userID", user.ID)
		c.Next()
	}
}

func limitRateByClientIP(limit uint) gin.HandlerFunc {
	store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: limit,
	})
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: errs.ErrorHandler,
		KeyFunc:      keyFunc,
	})
}

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

// respondAndAbort writes e and aborts the Context
func respondAndAbort(c *gin.Context, e *errs.Error) {
	response.JSON(c, e.Message, e.Status, nil, e)
	c.Abort()
}

func respondWithError(c *gin.Context, e *errs.Error) {
	response.JSON(c, e.Message, e.Status, nil, e)
}

// getTokenFromHeader splits a "Bearer <token>" header value. ok is false
// for any other scheme; the token may be empty.
func getTokenFromHeader(header string) (token string, ok bool) {
	scheme, token, _ := strings.Cut(header, " ")
	if !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func userIDFromContext(c *gin.Context) string {
	v, _ := c.Get("userID")
	id, _ := v.(string)
	return id
}

func notFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.JSON(c, "Ruta no encontrada", http.StatusNotFound, nil, nil)
	}
}
