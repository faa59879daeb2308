package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

// APIError is the error body returned by every route.
type APIError struct {
	Code    string        `json:"code"`
	Status  int           `json:"-"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

// ErrorDetail points at one failing location in a payload.
type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Message
}

// ErrorResponse wraps an APIError.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// NewAPIError builds an error body with an explicit code and status.
func NewAPIError(code string, status int, msg string) *APIError {
	return &APIError{Code: code, Status: status, Message: msg}
}

// BadRequestError reports a malformed request.
func BadRequestError(msg string) *APIError {
	return NewAPIError("BAD_REQUEST", fiber.StatusBadRequest, msg)
}

// UnauthorizedError reports a missing or invalid bearer token.
func UnauthorizedError(msg string) *APIError {
	return NewAPIError("UNAUTHORIZED", fiber.StatusUnauthorized, msg)
}

// ForbiddenError reports a viewer without the required role.
func ForbiddenError(msg string) *APIError {
	return NewAPIError("FORBIDDEN", fiber.StatusForbidden, msg)
}

// ErrorHandler maps service errors onto status codes and the error body.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *fiber.Ctx, err error) error {
		apiErr := ErrorFor(err)
		if apiErr.Status >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Int("status", apiErr.Status),
				zap.Error(err),
			)
		}
		return c.Status(apiErr.Status).JSON(ErrorResponse{Error: apiErr})
	}
}

// ErrorFor maps an error returned by a handler or the service onto the
// status and body clients receive.
func ErrorFor(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return NewAPIError("HTTP_ERROR", fe.Code, fe.Message)
	}
	var verr *dashboard.ValidationError
	if errors.As(err, &verr) {
		return &APIError{
			Code:    "VALIDATION_FAILED",
			Status:  fiber.StatusBadRequest,
			Message: verr.Error(),
			Details: validationDetails(verr.Err),
		}
	}
	var lerr *dashboard.LoadError
	if errors.As(err, &lerr) {
		return NewAPIError("LOAD_FAILED", fiber.StatusBadGateway, "Dashboard could not be loaded: "+lerr.Source)
	}
	switch {
	case errors.Is(err, dashboard.ErrViewerRequired):
		return UnauthorizedError("Authentication required")
	case errors.Is(err, dashboard.ErrForbidden):
		return ForbiddenError("Admin access required")
	case errors.Is(err, dashboard.ErrWidgetTypeNotFound):
		return NewAPIError("NOT_FOUND", fiber.StatusNotFound, "Widget type not found")
	case errors.Is(err, dashboard.ErrTypeKeyRequired):
		return BadRequestError("type_key is required")
	}
	return NewAPIError("INTERNAL_ERROR", fiber.StatusInternalServerError, "Internal server error")
}

// validationDetails flattens schema failures into their leaf causes.
func validationDetails(err error) []ErrorDetail {
	var schemaErr *jsonschema.ValidationError
	if !errors.As(err, &schemaErr) {
		if err == nil {
			return nil
		}
		return []ErrorDetail{{Message: err.Error()}}
	}
	var details []ErrorDetail
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			details = append(details, ErrorDetail{Field: e.InstanceLocation, Message: e.Message})
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(schemaErr)
	return details
}
