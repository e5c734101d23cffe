package api

import (
	"errors"
	"io/fs"
	"log"

	"ragapi/chunker"
	"ragapi/ingest"
	"ragapi/retriever"
	"ragapi/types"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler maps core errors onto HTTP responses: invalid input 400/422,
// missing resources 404, backend failures 500 with a generic message.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var apiErr Error
	if errors.As(err, &apiErr) {
		return c.Status(apiErr.Code).JSON(apiErr)
	}

	var valErr types.ValidationError
	if errors.As(err, &valErr) {
		return c.Status(valErr.Status).JSON(valErr)
	}

	var invalidParams chunker.ErrInvalidParams
	var backendErr *retriever.BackendError
	var fiberErr *fiber.Error

	switch {
	case errors.Is(err, ingest.ErrMalformedRow),
		errors.Is(err, ingest.ErrEmptySchema),
		errors.Is(err, ingest.ErrNoChunks),
		errors.As(err, &invalidParams):
		apiErr = NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, retriever.ErrBlankQuery),
		errors.Is(err, retriever.ErrInvalidK):
		apiErr = NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, fs.ErrNotExist):
		apiErr = NewError(fiber.StatusNotFound, "resource not found")
	case errors.As(err, &backendErr):
		// BackendError text is already scrubbed of vendor detail.
		apiErr = NewError(fiber.StatusInternalServerError, backendErr.Error())
	case errors.As(err, &fiberErr):
		apiErr = NewError(fiberErr.Code, fiberErr.Message)
	default:
		log.Printf("[API] request failed: %v", err)
		apiErr = NewError(fiber.StatusInternalServerError, "internal server error")
	}

	return c.Status(apiErr.Code).JSON(apiErr)
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

// Error implements the error interface
func (e Error) Error() string {
	return e.Message
}

func NewError(code int, err string) Error {
	return Error{
		Code:    code,
		Message: err,
	}
}

func ErrBadRequest() Error {
	return Error{
		Code:    fiber.StatusBadRequest,
		Message: "invalid JSON request",
	}
}

func ErrNotFound(resource string) Error {
	return Error{
		Code:    fiber.StatusNotFound,
		Message: resource + " not found",
	}
}
