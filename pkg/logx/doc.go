// Package logx is a thin zerolog wrapper with functional field helpers.
//
// Components receive a Logger by value and derive scoped loggers with
// With(). The zero value is a no-op, so optional logging never needs nil
// checks.
package logx
