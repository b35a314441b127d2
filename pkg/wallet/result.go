package wallet

import "fmt"

// Code distinguishes success from failure in a wallet operation result.
type Code int

const (
	CodeSuccess Code = 0
	CodeError   Code = 1
)

// Result is the outcome of a wallet operation that can fail off-chain
// (user declined, window closed, origin mismatch). Failures are carried
// as values rather than errors so a failed exchange never stalls the
// transaction queue.
type Result[T any] struct {
	Code    Code   `json:"code"`
	Message string `json:"message,omitempty"`
	Value   T      `json:"result,omitempty"`
}

// Ok wraps a value in a success result.
func Ok[T any](value T) Result[T] {
	return Result[T]{Code: CodeSuccess, Value: value}
}

// Errf builds an error result with a formatted message.
func Errf[T any](format string, args ...interface{}) Result[T] {
	return Result[T]{Code: CodeError, Message: fmt.Sprintf(format, args...)}
}

// Failed returns true if the operation did not succeed.
func (r Result[T]) Failed() bool {
	return r.Code != CodeSuccess
}
