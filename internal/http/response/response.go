package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tej1010/spongier-backend-sub001/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondServiceError answers with the status and code carried by an
// *apierr.Error, or a bare 500 with fallbackCode. Internal errors never leak
// their message.
func RespondServiceError(c *gin.Context, err error, fallbackCode string) {
	var ae *apierr.Error
	if errors.As(err, &ae) && ae != nil {
		if ae.Status >= http.StatusInternalServerError {
			_ = c.Error(err)
			RespondError(c, ae.Status, ae.Code, errors.New("internal error"))
			return
		}
		RespondError(c, ae.Status, ae.Code, ae.Err)
		return
	}
	_ = c.Error(err)
	RespondError(c, http.StatusInternalServerError, fallbackCode, errors.New("internal error"))
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
