// Package repository keeps the service counters. Two stores implement
// StatsRepo: an in-process one and a Redis-backed one that lets several
// instances report shared totals.
package repository

import "errors"

// ErrCorruptCounter is returned when a stored counter cannot be parsed as
// an integer. Handlers should translate this into an HTTP 500 response.
var ErrCorruptCounter = errors.New("corrupt counter")
