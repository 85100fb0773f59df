package bridge

import (
	bridgeerr "github.com/mrz1836/litebridge/pkg/errors"
)

// ErrorPrefix starts every failed result crossing the host boundary.
const ErrorPrefix = "Error: "

// okValue is returned by operations that have nothing else to report.
const okValue = "OK"

// Result is the outcome of a bridge operation. It carries either a value or
// a typed error until the host boundary flattens it with String.
type Result struct {
	Value string
	Err   error
}

// OK returns a successful result carrying value.
func OK(value string) Result {
	return Result{Value: value}
}

// Fail returns a failed result.
func Fail(err error) Result {
	return Result{Err: err}
}

// Failed reports whether the operation failed.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Code returns the error code of a failed result, or "" on success.
func (r Result) Code() string {
	if r.Err == nil {
		return ""
	}
	return bridgeerr.Code(r.Err)
}

// String renders the result for the host: the value on success, otherwise
// "Error: " followed by the error text.
func (r Result) String() string {
	if r.Err != nil {
		return ErrorPrefix + r.Err.Error()
	}
	return r.Value
}
