package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/keepsakelabs/keepsake/internal/catalog/domain"
	constraintdomain "github.com/keepsakelabs/keepsake/internal/constraint/domain"
	customizationdomain "github.com/keepsakelabs/keepsake/internal/customization/domain"
	ordercustomizationdomain "github.com/keepsakelabs/keepsake/internal/ordercustomization/domain"
	tempfiledomain "github.com/keepsakelabs/keepsake/internal/tempfile/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInternal        = errors.New("internal_error")
	ErrNotFound        = errors.New("not_found")
	ErrInvalidRequest  = errors.New("invalid_request")
	ErrTooManyRequests = errors.New("too_many_requests")
	ErrPayloadTooLarge = errors.New("payload_too_large")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	switch {
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrPayloadTooLarge),
		errors.Is(err, tempfiledomain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, errorPayload{
			Type:    "payload_too_large",
			Message: "payload too large",
		}
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "too_many_requests",
			Message: "too many requests",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case errors.Is(err, catalogdomain.ErrInvalidCategory),
		errors.Is(err, catalogdomain.ErrInvalidDeliveryType),
		errors.Is(err, catalogdomain.ErrInvalidItemType),
		errors.Is(err, catalogdomain.ErrInvalidID):
		return true
	case errors.Is(err, customizationdomain.ErrInvalidTitle),
		errors.Is(err, customizationdomain.ErrInvalidRuleType),
		errors.Is(err, customizationdomain.ErrInvalidProductType),
		errors.Is(err, customizationdomain.ErrInvalidMaxItems),
		errors.Is(err, customizationdomain.ErrInvalidID),
		errors.Is(err, customizationdomain.ErrCrossTypeReference),
		errors.Is(err, customizationdomain.ErrSelfReference):
		return true
	case errors.Is(err, constraintdomain.ErrInvalidID),
		errors.Is(err, constraintdomain.ErrInvalidItemType),
		errors.Is(err, constraintdomain.ErrInvalidConstraintType),
		errors.Is(err, constraintdomain.ErrSelfConstraint),
		errors.Is(err, constraintdomain.ErrUnknownItem):
		return true
	case errors.Is(err, ordercustomizationdomain.ErrInvalidOrderID),
		errors.Is(err, ordercustomizationdomain.ErrInvalidOrderItemID),
		errors.Is(err, ordercustomizationdomain.ErrInvalidProduct),
		errors.Is(err, ordercustomizationdomain.ErrInvalidRuleID),
		errors.Is(err, ordercustomizationdomain.ErrEmptyCustomization):
		return true
	case errors.Is(err, tempfiledomain.ErrInvalidFilename),
		errors.Is(err, tempfiledomain.ErrEmptyFile):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, catalogdomain.ErrNotFound),
		errors.Is(err, customizationdomain.ErrNotFound),
		errors.Is(err, constraintdomain.ErrNotFound),
		errors.Is(err, ordercustomizationdomain.ErrNotFound),
		errors.Is(err, tempfiledomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	if errors.Is(err, ErrInvalidRequest) {
		return "invalid_request"
	}
	return err.Error()
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

// classifyErrorForLog buckets a request error for the access log without
// leaking message contents.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	switch {
	case status >= http.StatusInternalServerError:
		return "server_error", payload.Type
	case status == http.StatusTooManyRequests:
		return "throttled", payload.Type
	default:
		return "client_error", payload.Type
	}
}
