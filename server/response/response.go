package response

import (
	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
)

// JSON writes the {message, data, error} envelope. Server errors are also
// sent to Sentry through the request hub.
func JSON(c *gin.Context, message string, status int, data interface{}, err error) {
	body := gin.H{}
	if message == "" && err != nil {
		message = err.Error()
	}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	if err != nil && err.Error() != message {
		body["error"] = err.Error()
	}
	if err != nil && status >= 500 {
		capture(c, err)
	}
	c.JSON(status, body)
}

func capture(c *gin.Context, err error) {
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
		return
	}
	sentry.CaptureException(err)
}
