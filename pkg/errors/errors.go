// Package errors provides structured error handling for the bridge.
// It defines sentinel errors for every failure class that can cross the
// host boundary, plus helpers for adding context, details, and suggestions.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// BridgeError is the structured error type used inside the bridge. It is only
// flattened to text at the host boundary.
type BridgeError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for the host
	Cause      error             // Underlying error
}

func (e *BridgeError) Error() string {
	msg := e.Message

	// Include details in error message (sorted for deterministic output)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *BridgeError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for BridgeError by comparing codes.
func (e *BridgeError) Is(target error) bool {
	var t *BridgeError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	ErrGeneral = &BridgeError{
		Code:    "GENERAL_ERROR",
		Message: "an error occurred",
	}

	ErrInvalidInput = &BridgeError{
		Code:    "INVALID_INPUT",
		Message: "invalid input",
	}

	// ErrNotInitialized is reported by the dispatcher when no session is live.
	// The message is part of the host contract and must not change.
	ErrNotInitialized = &BridgeError{
		Code:    "NOT_INITIALIZED",
		Message: "Light Client is not initialized",
	}

	ErrConfiguration = &BridgeError{
		Code:    "CONFIGURATION_FAILED",
		Message: "could not build wallet configuration",
	}

	ErrConstruction = &BridgeError{
		Code:    "CONSTRUCTION_FAILED",
		Message: "could not construct light client",
	}

	ErrStorage = &BridgeError{
		Code:    "STORAGE_ERROR",
		Message: "wallet storage failure",
	}

	ErrCollaborator = &BridgeError{
		Code:    "COLLABORATOR_ERROR",
		Message: "light client reported a failure",
	}

	// Wallet-specific errors.
	ErrWalletNotFound = &BridgeError{
		Code:    "WALLET_NOT_FOUND",
		Message: "wallet not found",
	}

	ErrWalletExists = &BridgeError{
		Code:    "WALLET_EXISTS",
		Message: "wallet already exists",
	}

	ErrInvalidMnemonic = &BridgeError{
		Code:    "INVALID_MNEMONIC",
		Message: "invalid mnemonic phrase",
	}

	ErrWalletLocked = &BridgeError{
		Code:    "WALLET_LOCKED",
		Message: "wallet is locked",
	}

	ErrDecryptionFailed = &BridgeError{
		Code:    "DECRYPTION_FAILED",
		Message: "decryption failed - wrong password or corrupted wallet",
	}

	ErrInsufficientFunds = &BridgeError{
		Code:    "INSUFFICIENT_FUNDS",
		Message: "insufficient funds for transaction",
	}

	// Network errors.
	ErrNetwork = &BridgeError{
		Code:    "NETWORK_ERROR",
		Message: "network communication failed",
	}

	// Background runner errors.
	ErrQueueFull = &BridgeError{
		Code:    "QUEUE_FULL",
		Message: "background task queue is full",
	}

	ErrRunnerClosed = &BridgeError{
		Code:    "RUNNER_CLOSED",
		Message: "background task runner is closed",
	}
)

// New creates a new BridgeError with the given code and message.
func New(code, message string) *BridgeError {
	return &BridgeError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var be *BridgeError
	if errors.As(err, &be) {
		return &BridgeError{
			Code:       be.Code,
			Message:    fmt.Sprintf("%s: %s", msg, be.Message),
			Details:    be.Details,
			Suggestion: be.Suggestion,
			Cause:      be.Cause,
		}
	}

	return &BridgeError{
		Code:    "GENERAL_ERROR",
		Message: msg,
		Cause:   err,
	}
}

// Classify tags err with the code of class while keeping err's text intact.
// Errors that already carry a BridgeError code are returned unchanged.
func Classify(class *BridgeError, err error) error {
	if err == nil {
		return nil
	}

	var be *BridgeError
	if errors.As(err, &be) {
		return err
	}

	return &BridgeError{
		Code:    class.Code,
		Message: err.Error(),
	}
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var be *BridgeError
	if errors.As(err, &be) {
		return &BridgeError{
			Code:       be.Code,
			Message:    be.Message,
			Details:    details,
			Suggestion: be.Suggestion,
			Cause:      be.Cause,
		}
	}

	return &BridgeError{
		Code:    "GENERAL_ERROR",
		Message: err.Error(),
		Details: details,
		Cause:   err,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var be *BridgeError
	if errors.As(err, &be) {
		return &BridgeError{
			Code:       be.Code,
			Message:    be.Message,
			Details:    be.Details,
			Suggestion: suggestion,
			Cause:      be.Cause,
		}
	}

	return &BridgeError{
		Code:       "GENERAL_ERROR",
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
	}
}

// Suggestion returns the suggestion attached to err, if any.
func Suggestion(err error) string {
	var be *BridgeError
	if errors.As(err, &be) {
		return be.Suggestion
	}
	return ""
}

// Code returns the error code for an error.
func Code(err error) string {
	var be *BridgeError
	if errors.As(err, &be) {
		return be.Code
	}
	return "GENERAL_ERROR"
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}
