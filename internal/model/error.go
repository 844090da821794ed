// Copyright (C) 2026 the quixsi maintainers
// See root-dir/LICENSE for more information

package model

import (
	"errors"
	"fmt"
)

var (
	// ErrRecordNotFound is returned when a lookup or submission targets a
	// name that has no record. Submissions never create records, that is
	// reserved for the management path.
	ErrRecordNotFound = errors.New("record not found")

	// ErrDuplicateGuest is returned when a management add targets a name
	// that already has a record, normalization considered.
	ErrDuplicateGuest = errors.New("guest already exists")

	// ErrPersistence is returned when the durable file could not be
	// replaced. The in-memory state has been rolled back when it appears.
	ErrPersistence = errors.New("could not persist guest list")

	// ErrMalformedFile is returned when the durable file cannot be parsed
	// at load time. Fatal: a server must not run against a corrupt source
	// of truth.
	ErrMalformedFile = errors.New("malformed guest list file")
)

// MalformedFieldError describes a single unparsable column value.
type MalformedFieldError struct {
	Field string
	Value string
}

func (e *MalformedFieldError) Error() string {
	return fmt.Sprintf("malformed %s value %q", e.Field, e.Value)
}
