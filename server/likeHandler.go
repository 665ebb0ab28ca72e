package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleToggleLike() gin.HandlerFunc {
	return func(c *gin.Context) {
		incident, err := s.LikeService.ToggleLike(c.Request.Context(), userIDFromContext(c), c.Param("id"))
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, incident)
	}
}
