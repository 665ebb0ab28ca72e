package server

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	errs "github.com/portoviejo/incidentes/errors"
	"github.com/portoviejo/incidentes/models"
	"github.com/portoviejo/incidentes/server/response"
)

func (s *Server) handleCreateIncident() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request models.CreateIncidentRequest
		if err := c.ShouldBind(&request); err != nil {
			response.JSON(c, errs.ErrValidation.Message, errs.ErrValidation.Status, nil, err)
			return
		}

		var image *multipart.FileHeader
		fileHeader, err := c.FormFile("image")
		switch {
		case err == nil:
			image = fileHeader
		case errors.Is(err, http.ErrMissingFile):
		default:
			response.JSON(c, errs.ErrBadRequest.Message, errs.ErrBadRequest.Status, nil, err)
			return
		}

		incident, apiErr := s.IncidentService.CreateIncident(c.Request.Context(), userIDFromContext(c), &request, image)
		if apiErr != nil {
			respondWithError(c, apiErr)
			return
		}
		response.JSON(c, "Incidente reportado con éxito", http.StatusCreated, incident, nil)
	}
}

func (s *Server) handleListIncidents() gin.HandlerFunc {
	return func(c *gin.Context) {
		incidents, err := s.IncidentService.ListIncidents(c.Request.Context(), c.Query("tipo"))
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, incidents)
	}
}

func (s *Server) handleGetIncident() gin.HandlerFunc {
	return func(c *gin.Context) {
		incident, err := s.IncidentService.GetIncident(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, incident)
	}
}

func (s *Server) handleMyIncidents() gin.HandlerFunc {
	return func(c *gin.Context) {
		incidents, err := s.IncidentService.ListMyIncidents(c.Request.Context(), userIDFromContext(c))
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, incidents)
	}
}

func (s *Server) handleAddComment() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request models.CreateCommentRequest
		if err := decode(c, &request); err != nil {
			response.JSON(c, errs.ErrBadRequest.Message, errs.ErrBadRequest.Status, nil, err)
			return
		}
		comment, err := s.IncidentService.AddComment(c.Request.Context(), userIDFromContext(c), c.Param("id"), &request)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, comment)
	}
}
