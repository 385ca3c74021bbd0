// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios.
package repository

import "errors"

// ErrConflict is returned when a delete or update cannot be
// performed because of conflicting state, such as attempting to
// delete a program that still has accounts enrolled in it, or a
// movement that was projected by a redemption. Handlers should
// translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
