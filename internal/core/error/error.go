package errx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// BudgetErrorMessage describes a message that cannot fit the prompt budget.
	BudgetErrorMessage = "message exceeds prompt token budget"
	// CompletionErrorMessage describes completion service failures.
	CompletionErrorMessage = "completion service failed"
	// PromptErrorMessage describes a system prompt that could not be rendered.
	PromptErrorMessage = "system prompt render failed"
	// DeliveryErrorMessage describes outbound SMS failures.
	DeliveryErrorMessage = "message delivery failed"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
	// SQLiteErrorMessage describes SQLite related failures.
	SQLiteErrorMessage = "sqlite operation failed"
)

// ErrBudgetExhausted reports that a single message plus the system prompt
// cannot fit the configured token budget even after evicting older history.
var ErrBudgetExhausted = errors.New("token budget exhausted")

// ErrPromptRender marks failures to build the system prompt.
var ErrPromptRender = errors.New("system prompt render")

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// StatusOf returns the HTTP status carried by err, or 500 when err is not an AppError.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// WrapBudget marks err as a budget exhaustion.
func WrapBudget(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusUnprocessableEntity, BudgetErrorMessage)
}

// WrapCompletion wraps a completion service error.
func WrapCompletion(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, CompletionErrorMessage)
}

// WrapPrompt wraps a system prompt render error; the result matches ErrPromptRender.
func WrapPrompt(err error) error {
	if err == nil {
		return nil
	}
	return New(fmt.Errorf("%w: %w", ErrPromptRender, err), http.StatusInternalServerError, PromptErrorMessage)
}

// WrapDelivery wraps an outbound delivery error.
func WrapDelivery(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, DeliveryErrorMessage)
}

// WrapRedis maps Redis errors to AppError with appropriate status codes.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return New(err, http.StatusNotFound, RedisNotFoundMessage)
	}
	return New(err, http.StatusBadGateway, RedisErrorMessage)
}

// WrapSQLite wraps a database/sql error coming from the SQLite archive.
func WrapSQLite(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusInternalServerError, SQLiteErrorMessage)
}
