package errors

import (
	"fmt"
	"net/http"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
)

// Error is an API error carrying the HTTP status it maps to.
type Error struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target is an *Error with the same status and message,
// which lets wrapped copies of the sentinels below match with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Status == e.Status && t.Message == e.Message
}

func New(message string, status int) *Error {
	return &Error{
		Message: message,
		Status:  status,
	}
}

// Validation builds a 400 error with a specific message.
func Validation(format string, args ...interface{}) *Error {
	return New(fmt.Sprintf(format, args...), http.StatusBadRequest)
}

var (
	ErrValidation          = New("Datos inválidos.", http.StatusBadRequest)
	ErrBadRequest          = New("Solicitud inválida.", http.StatusBadRequest)
	ErrConflict            = New("El email o nombre de usuario ya existe.", http.StatusBadRequest)
	ErrInvalidCredentials  = New("Credenciales inválidas.", http.StatusBadRequest)
	ErrMissingToken        = New("No hay token, autorización denegada.", http.StatusUnauthorized)
	ErrInvalidToken        = New("Token no es válido.", http.StatusUnauthorized)
	ErrUnauthorized        = New("No autorizado.", http.StatusUnauthorized)
	ErrNotFound            = New("Incidente no encontrado", http.StatusNotFound)
	ErrTooManyRequests     = New("Demasiadas solicitudes, intenta más tarde.", http.StatusTooManyRequests)
	ErrInternalServerError = New("Error en el servidor", http.StatusInternalServerError)
)

// ErrorHandler answers requests rejected by the rate limiter.
func ErrorHandler(c *gin.Context, info ratelimit.Info) {
	c.JSON(http.StatusTooManyRequests, gin.H{
		"message": ErrTooManyRequests.Message,
		"error":   "try again in " + time.Until(info.ResetTime).Round(time.Second).String(),
	})
}
