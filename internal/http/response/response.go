package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/groupbuy-settlement/internal/domain/aggregates"
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

// RespondAggregateError maps a domain error code to its HTTP status. Internal failures are
// reported without their cause.
func RespondAggregateError(c *gin.Context, err error) {
	code := domainagg.CodeOf(err)
	if code == "" {
		code = domainagg.CodeInternal
	}
	status := StatusFor(code)
	if status >= http.StatusInternalServerError && code != domainagg.CodeRetryable {
		_ = c.Error(err)
		RespondError(c, status, string(code), errors.New("internal error"))
		return
	}
	RespondError(c, status, string(code), err)
}

func StatusFor(code domainagg.ErrorCode) int {
	switch code {
	case domainagg.CodeInvalidParameter:
		return http.StatusBadRequest
	case domainagg.CodeUnauthorized:
		return http.StatusForbidden
	case domainagg.CodeNotFound, domainagg.CodeUnknownRequest:
		return http.StatusNotFound
	case domainagg.CodeInvalidState, domainagg.CodeDuplicateOrder, domainagg.CodeCapacityExceeded,
		domainagg.CodeAlreadyRequested, domainagg.CodeConflict:
		return http.StatusConflict
	case domainagg.CodeExpired:
		return http.StatusGone
	case domainagg.CodePaymentMismatch, domainagg.CodeCampaignNotEligible, domainagg.CodeNothingToClaim:
		return http.StatusUnprocessableEntity
	case domainagg.CodeRetryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
