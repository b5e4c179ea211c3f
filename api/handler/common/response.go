package common

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/walletfeed/chainfeed/metrics"
	"github.com/walletfeed/chainfeed/types"
)

type Response struct {
	Result any `json:"result"`
}

type ErrorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func OK(c *fiber.Ctx, result any) error {
	return c.JSON(Response{Result: result})
}

// StatusFor maps an error to the HTTP status and type reported to clients.
func StatusFor(err error) (int, types.ErrorType) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch {
		case fe.Code == fiber.StatusNotFound:
			return fe.Code, types.ErrTypeNotFound
		case fe.Code < fiber.StatusInternalServerError:
			return fe.Code, types.ErrTypeBadRequest
		default:
			return fe.Code, types.ErrTypeInternal
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fiber.StatusGatewayTimeout, types.ErrTypeTimeout
	}

	errType, ok := types.GetErrorType(err)
	if !ok {
		return fiber.StatusInternalServerError, types.ErrTypeInternal
	}

	switch errType {
	case types.ErrTypeNotFound:
		return fiber.StatusNotFound, errType
	case types.ErrTypeBadRequest, types.ErrTypeValidation, types.ErrTypeInvalidValue:
		return fiber.StatusBadRequest, errType
	case types.ErrTypeTimeout:
		return fiber.StatusGatewayTimeout, errType
	case types.ErrTypeDatabase, types.ErrTypeInternal, types.ErrTypeConfig:
		return fiber.StatusInternalServerError, errType
	}

	switch errType.Category() {
	case types.CategoryInfrastructure, types.CategoryMalformedResponse:
		return fiber.StatusBadGateway, errType
	default:
		return fiber.StatusBadRequest, errType
	}
}

// NewErrorHandler renders every error returned by a handler as an
// ErrorResponse. Internal errors are logged and their details withheld.
func NewErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, errType := StatusFor(err)
		message := err.Error()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			message = fe.Message
		}

		if status >= fiber.StatusInternalServerError {
			metrics.TrackError("api", string(errType))
			logger.Error("request failed",
				slog.String("path", c.Path()),
				slog.Int("status", status),
				slog.Any("error", err))
			if status == fiber.StatusInternalServerError && fe == nil {
				message = "internal error"
			}
		}

		return c.Status(status).JSON(ErrorResponse{Error: ErrorBody{Type: string(errType), Message: message}})
	}
}
