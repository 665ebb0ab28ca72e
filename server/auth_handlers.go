package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	errs "github.com/portoviejo/incidentes/errors"
	"github.com/portoviejo/incidentes/models"
	"github.com/portoviejo/incidentes/server/response"
)

func (s *Server) handleRegister() gin.HandlerFunc {
	return func(c *gin.Context) {
		var registerRequest models.RegisterRequest
		if err := decode(c, &registerRequest); err != nil {
			response.JSON(c, errs.ErrBadRequest.Message, errs.ErrBadRequest.Status, nil, err)
			return
		}
		token, err := s.AuthService.RegisterUser(c.Request.Context(), &registerRequest)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, token)
	}
}

func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var loginRequest models.LoginRequest
		if err := decode(c, &loginRequest); err != nil {
			response.JSON(c, errs.ErrBadRequest.Message, errs.ErrBadRequest.Status, nil, err)
			return
		}
		token, err := s.AuthService.LoginUser(c.Request.Context(), &loginRequest)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, token)
	}
}
