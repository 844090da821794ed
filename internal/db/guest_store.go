// Copyright (C) 2026 the quixsi maintainers
// See root-dir/LICENSE for more information

package db

import (
	"context"

	"github.com/quixsi/rsvp/internal/model"
)

// GuestStore owns the full guest list and its consistency guarantees.
// Mutations are serialized per store instance and become visible to
// readers only after they are durably persisted.
type GuestStore interface {
	// Lookup returns the record a candidate name refers to, or
	// model.ErrRecordNotFound. Safe to call concurrently with mutations.
	Lookup(context.Context, string) (*model.Record, error)
	// Submit merges a guest submission into an existing record and
	// persists the whole list. model.ErrRecordNotFound when the name is
	// unknown, model.ErrPersistence when the durable write failed.
	Submit(context.Context, *model.RsvpParams) (*model.Record, error)
	// AddGuest appends a new unanswered record. model.ErrDuplicateGuest
	// when the normalized name is taken.
	AddGuest(context.Context, *model.AddParams) (*model.Record, error)
	// ListRecords returns all records in durable-file order.
	ListRecords(context.Context) ([]*model.Record, error)
	// Attendance tallies current headcounts.
	Attendance(context.Context) (model.AttendanceCount, error)
	// Snapshot returns the durable-format serialization of the most
	// recently persisted state, for notification attachments and backup.
	Snapshot(context.Context) ([]byte, error)
}
