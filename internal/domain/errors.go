// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates malformed input. Wrap it with the offending field:
// fmt.Errorf("%w: duration must be between 1 and 14", ErrValidation).
var ErrValidation = errors.New("validation error")

// ErrConfiguration indicates a required collaborator (roster, task pipeline)
// is missing before a run can start.
var ErrConfiguration = errors.New("configuration error")

// ErrExecution indicates a language-model call failed while a run was executing.
var ErrExecution = errors.New("execution error")

// ErrConflict indicates the entity already exists, such as a reused run id.
var ErrConflict = errors.New("conflict")
