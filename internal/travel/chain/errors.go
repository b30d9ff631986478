package chain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// ErrorCategory is the normalized failure taxonomy for chain calls.
type ErrorCategory string

const (
	// ErrorDuplicateVisit means the contract already holds a record for the pair.
	ErrorDuplicateVisit ErrorCategory = "duplicate_visit"
	// ErrorReverted is any other contract revert.
	ErrorReverted ErrorCategory = "reverted"
	// ErrorInsufficientFunds means the signing account cannot pay for gas.
	ErrorInsufficientFunds ErrorCategory = "insufficient_funds"
	ErrorTimeout           ErrorCategory = "timeout"
	// ErrorUnavailable means the RPC endpoint could not be reached.
	ErrorUnavailable   ErrorCategory = "unavailable"
	ErrorConfiguration ErrorCategory = "configuration"
	ErrorInvalidInput  ErrorCategory = "invalid_input"
	ErrorInternal      ErrorCategory = "internal"
)

// Error wraps chain failures with a category.
type Error struct {
	Category   ErrorCategory
	Op         string
	Message    string
	Underlying error
	Retryable  bool
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("chain %s [%s]: %s: %v", e.Op, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("chain %s [%s]: %s", e.Op, e.Category, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// NewError creates a categorized chain error.
func NewError(category ErrorCategory, op, message string, underlying error) *Error {
	return &Error{
		Category:   category,
		Op:         op,
		Message:    message,
		Underlying: underlying,
		Retryable:  category == ErrorTimeout || category == ErrorUnavailable,
	}
}

// CategoryOf returns the category of err, or ErrorInternal for foreign errors.
func CategoryOf(err error) ErrorCategory {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Category
	}
	return ErrorInternal
}

// Detail returns the text of the client error beneath a chain error, or ""
// when err carries none.
func Detail(err error) string {
	var ce *Error
	if errors.As(err, &ce) && ce.Underlying != nil {
		return ce.Underlying.Error()
	}
	return ""
}

// IsDuplicateVisit reports whether err is the contract's duplicate check.
func IsDuplicateVisit(err error) bool {
	return CategoryOf(err) == ErrorDuplicateVisit
}

// IsRetryable reports whether retrying the call may succeed.
func IsRetryable(err error) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Retryable
	}
	return false
}

// classify maps a raw client error onto the taxonomy.
func classify(op string, err error) *Error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}

	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return NewError(ErrorTimeout, op, "call did not complete in time", err)
	case isDuplicateRevert(err, msg):
		return NewError(ErrorDuplicateVisit, op, "country already visited", err)
	case strings.Contains(msg, "insufficient funds"):
		return NewError(ErrorInsufficientFunds, op, "minter account cannot pay for gas", err)
	case strings.Contains(msg, "execution reverted"), strings.Contains(msg, "revert"):
		return NewError(ErrorReverted, op, "transaction reverted", err)
	case isNetworkError(err, msg):
		return NewError(ErrorUnavailable, op, "rpc endpoint unavailable", err)
	default:
		return NewError(ErrorInternal, op, "unexpected chain error", err)
	}
}

func isDuplicateRevert(err error, msg string) bool {
	if strings.Contains(msg, duplicateReason) || strings.Contains(msg, "alreadyvisited") {
		return true
	}
	var de rpc.DataError
	if !errors.As(err, &de) {
		return false
	}
	s, ok := de.ErrorData().(string)
	if !ok {
		return false
	}
	data, decodeErr := hexutil.Decode(s)
	if decodeErr != nil || len(data) < 4 {
		return false
	}
	return bytes.Equal(data[:4], alreadyVisitedSelector)
}

func isNetworkError(err error, msg string) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "eof")
}
