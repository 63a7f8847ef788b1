package models

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the JSON body returned for every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// AppError is a classified application error carrying a stable code and the
// HTTP status it maps to.
type AppError struct {
	Code    string
	Status  int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewValidationError(message string) *AppError {
	return &AppError{Code: "VALIDATION_ERROR", Status: fiber.StatusBadRequest, Message: message}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Status: fiber.StatusUnauthorized, Message: message}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{Code: "FORBIDDEN", Status: fiber.StatusForbidden, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Code: "NOT_FOUND", Status: fiber.StatusNotFound, Message: message}
}

func NewConflictError(message string) *AppError {
	return &AppError{Code: "CONFLICT", Status: fiber.StatusConflict, Message: message}
}

func NewInternalError(err error) *AppError {
	return &AppError{Code: "INTERNAL_ERROR", Status: fiber.StatusInternalServerError, Message: "Server error", Err: err}
}

// RespondWithError writes the standardized error body. Unclassified errors
// become 500s; their cause is logged, never returned to the client.
func RespondWithError(c *fiber.Ctx, err error) error {
	appErr, ok := err.(*AppError)
	if !ok {
		appErr = NewInternalError(err)
	}
	if appErr.Err != nil {
		log.Printf("%s %s: %v", c.Method(), c.Path(), appErr.Err)
	}
	return c.Status(appErr.Status).JSON(ErrorResponse{
		Message: appErr.Message,
		Code:    appErr.Code,
	})
}
