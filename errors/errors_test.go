package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestErrorIs(t *testing.T) {
	wrapped := fmt.Errorf("register: %w", ErrConflict)
	assert.True(t, stderrors.Is(wrapped, ErrConflict))
	assert.False(t, stderrors.Is(wrapped, ErrInvalidCredentials))
	assert.True(t, stderrors.Is(New(ErrNotFound.Message, http.StatusNotFound), ErrNotFound))
}

func TestTaxonomyStatuses(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, ErrValidation.Status)
	assert.Equal(t, http.StatusBadRequest, ErrConflict.Status)
	assert.Equal(t, http.StatusUnauthorized, ErrMissingToken.Status)
	assert.Equal(t, http.StatusUnauthorized, ErrInvalidToken.Status)
	assert.Equal(t, http.StatusNotFound, ErrNotFound.Status)
	assert.Equal(t, http.StatusInternalServerError, ErrInternalServerError.Status)
}

func TestValidation(t *testing.T) {
	err := Validation("%s is required", "texto")
	assert.Equal(t, "texto is required", err.Error())
	assert.Equal(t, http.StatusBadRequest, err.Status)
}

func TestErrorHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	ErrorHandler(c, ratelimit.Info{Limit: 5, ResetTime: time.Now().Add(30 * time.Second)})

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "try again in")
}
