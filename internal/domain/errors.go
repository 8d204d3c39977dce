package domain

import "fmt"

// ErrorCode classifies recoverable engine errors surfaced to the UI layer.
type ErrorCode string

const (
	// ErrorValidation marks an action that violates game rules: illegal
	// card, wrong turn, or move-specific legality.
	ErrorValidation ErrorCode = "VALIDATION"
	// ErrorGameState marks an action not permitted in the current phase.
	ErrorGameState ErrorCode = "GAME_STATE"
	// ErrorNetwork is reserved for async setup and persistence failures.
	ErrorNetwork ErrorCode = "NETWORK"
	// ErrorUnknown is the catch-all for unexpected failures.
	ErrorUnknown ErrorCode = "UNKNOWN"
)

// GameError is a typed, advisory rule-violation error. It is recorded on the
// game state for the UI to surface and clear; it never crosses the engine
// boundary as a panic and never accompanies a partial mutation.
type GameError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *GameError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewValidationError builds a VALIDATION error.
func NewValidationError(format string, args ...interface{}) *GameError {
	return &GameError{Code: ErrorValidation, Message: fmt.Sprintf(format, args...)}
}

// NewGameStateError builds a GAME_STATE error.
func NewGameStateError(format string, args ...interface{}) *GameError {
	return &GameError{Code: ErrorGameState, Message: fmt.Sprintf(format, args...)}
}

// NewUnknownError builds an UNKNOWN error.
func NewUnknownError(format string, args ...interface{}) *GameError {
	return &GameError{Code: ErrorUnknown, Message: fmt.Sprintf(format, args...)}
}
