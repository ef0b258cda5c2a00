package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"photopipe-server-go/internal/platform/errors"
)

// APIResponse is the envelope for every JSON endpoint.
type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Code: 0, Message: "ok", Data: data})
}

func Fail(c *gin.Context, status int, message string) {
	c.JSON(status, APIResponse{Code: status, Message: message})
}

// FailErr maps a pipeline error to an HTTP status by its kind.
func FailErr(c *gin.Context, err error) {
	Fail(c, statusFor(err), err.Error())
}

// FailErrData is FailErr with a diagnostic payload, for failed runs
// that still carry their attempt trail.
func FailErrData(c *gin.Context, err error, data interface{}) {
	status := statusFor(err)
	c.JSON(status, APIResponse{Code: status, Message: err.Error(), Data: data})
}

func statusFor(err error) int {
	switch errors.KindOf(err) {
	case errors.KindValidation:
		return http.StatusBadRequest
	case errors.KindTotalFailure:
		return http.StatusBadGateway
	case errors.KindBackendUnavailable:
		return http.StatusServiceUnavailable
	case errors.KindBackendTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
