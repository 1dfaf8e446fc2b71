// services/errors.go
package services

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Typed engine failures. Every one of these guarantees the operation left no
// partial state behind; callers may surface the message and retry.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInvalidOpponent   = errors.New("invalid opponent")
	ErrSlotFull          = errors.New("slot full")
	ErrAlreadyBooked     = errors.New("already booked")
	ErrDailyCapExceeded  = errors.New("daily gift cap exceeded")
	ErrBelowMinimum      = errors.New("amount below minimum")
	ErrAlreadyReviewed   = errors.New("submission already reviewed")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidInput      = errors.New("invalid input")

	// ErrStoreUnavailable wraps persistence failures. It is fatal to the
	// in-flight operation only: nothing was committed, nothing is retried
	// silently.
	ErrStoreUnavailable = errors.New("store unavailable")
)

func errorStatus(err error) int {
	switch {
	case errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrDailyCapExceeded),
		errors.Is(err, ErrBelowMinimum):
		return fiber.StatusPaymentRequired
	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrAlreadyReviewed):
		return fiber.StatusConflict
	case errors.Is(err, ErrSlotFull),
		errors.Is(err, ErrAlreadyBooked):
		return fiber.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return fiber.StatusForbidden
	case errors.Is(err, ErrInvalidOpponent),
		errors.Is(err, ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrStoreUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// respondErr is the single place engine errors become HTTP replies.
func respondErr(c *fiber.Ctx, err error) error {
	return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
}
