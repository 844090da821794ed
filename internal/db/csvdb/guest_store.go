// Copyright (C) 2026 the quixsi maintainers
// See root-dir/LICENSE for more information

package csvdb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/quixsi/rsvp/internal/model"
)

// GuestStore is an implementation of the GuestStore interface that keeps
// the guest list in memory and persists it to a single CSV file. The file
// is the authoritative format, the in-memory index is the query path.
//
// Every mutation rewrites the whole file through an atomic replace:
// serialize everything, write to a temp file in the same directory, fsync,
// rename over the durable path. A crash before the rename leaves the old
// file untouched, a crash after leaves the new content intact. Rewriting
// the full list per mutation is deliberate, the atomicity guarantee
// depends on it, and a guest list is small.
type GuestStore struct {
	path     string
	mu       sync.RWMutex
	records  []*model.Record
	index    map[string]int
	snapshot []byte
	now      func() time.Time
}

// NewGuestStore loads the CSV file at path into memory. A missing file is
// an empty guest list; an unparsable one fails construction with
// model.ErrMalformedFile so the caller can refuse to start.
func NewGuestStore(path string) (*GuestStore, error) {
	store := &GuestStore{
		path: path,
		now:  time.Now,
	}
	if err := store.load(); err != nil {
		return nil, err
	}
	return store, nil
}

func (g *GuestStore) load() error {
	data, err := os.ReadFile(g.path)
	if errors.Is(err, os.ErrNotExist) {
		data = nil
	} else if err != nil {
		return fmt.Errorf("%w: %v", model.ErrMalformedFile, err)
	}

	records, err := model.UnmarshalRecords(data)
	if err != nil {
		return err
	}

	g.records = records
	g.index = make(map[string]int, len(records))
	for i, r := range records {
		g.index[model.NormalizeName(r.Name)] = i
	}

	if data == nil {
		// No file yet. Serialize the empty list so Snapshot has the
		// header row to hand out.
		if data, err = model.MarshalRecords(nil); err != nil {
			return err
		}
	}
	g.snapshot = data
	return nil
}

// Lookup returns the record a candidate name refers to. The index covers
// primary names; plus-one and joint "a & b" matches fall back to a scan.
func (g *GuestStore) Lookup(ctx context.Context, name string) (*model.Record, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "Lookup")
	defer span.End()

	span.AddEvent("RLock")
	g.mu.RLock()
	defer span.AddEvent("RUnlock")
	defer g.mu.RUnlock()

	if i, ok := g.index[model.NormalizeName(name)]; ok {
		return g.records[i].Clone(), nil
	}
	for _, r := range g.records {
		if r.Matches(name) {
			return r.Clone(), nil
		}
	}
	span.RecordError(model.ErrRecordNotFound)
	return nil, model.ErrRecordNotFound
}

// Submit merges a guest submission into its existing record and persists
// the updated list. Only pre-seeded primary names are accepted: the
// public submission path never creates a record, and the row keeps its
// position in the file.
func (g *GuestStore) Submit(ctx context.Context, params *model.RsvpParams) (*model.Record, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "Submit")
	defer span.End()

	span.AddEvent("Lock")
	g.mu.Lock()
	defer span.AddEvent("Unlock")
	defer g.mu.Unlock()

	i, ok := g.index[model.NormalizeName(params.Name)]
	if !ok {
		span.RecordError(model.ErrRecordNotFound)
		return nil, model.ErrRecordNotFound
	}

	record := g.records[i]
	prev := record.Clone()
	record.Merge(params, g.now())

	span.AddEvent("persist")
	if err := g.persistLocked(); err != nil {
		g.records[i] = prev
		span.RecordError(err)
		return nil, err
	}
	return record.Clone(), nil
}

// AddGuest appends a new unanswered record and persists the updated list.
func (g *GuestStore) AddGuest(ctx context.Context, params *model.AddParams) (*model.Record, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "AddGuest")
	defer span.End()

	span.AddEvent("Lock")
	g.mu.Lock()
	defer span.AddEvent("Unlock")
	defer g.mu.Unlock()

	key := model.NormalizeName(params.Name)
	if key == "" {
		return nil, errors.New("guest name is required")
	}
	if _, ok := g.index[key]; ok {
		span.RecordError(model.ErrDuplicateGuest)
		return nil, model.ErrDuplicateGuest
	}

	record := model.NewRecord(params, g.now())
	g.records = append(g.records, record)
	g.index[key] = len(g.records) - 1

	span.AddEvent("persist")
	if err := g.persistLocked(); err != nil {
		g.records = g.records[:len(g.records)-1]
		delete(g.index, key)
		span.RecordError(err)
		return nil, err
	}
	return record.Clone(), nil
}

// ListRecords returns all records in durable-file order.
func (g *GuestStore) ListRecords(ctx context.Context) ([]*model.Record, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "ListRecords")
	defer span.End()

	span.AddEvent("RLock")
	g.mu.RLock()
	defer span.AddEvent("RUnlock")
	defer g.mu.RUnlock()

	records := make([]*model.Record, len(g.records))
	for i, r := range g.records {
		records[i] = r.Clone()
	}
	return records, nil
}

// Attendance tallies current headcounts.
func (g *GuestStore) Attendance(ctx context.Context) (model.AttendanceCount, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "Attendance")
	defer span.End()

	g.mu.RLock()
	defer g.mu.RUnlock()
	return model.CountAttendance(g.records), nil
}

// Snapshot returns the serialization that was most recently persisted.
// Never a speculative in-memory state: the bytes are retained only after
// the rename succeeded, and rolled-back mutations never reach them.
func (g *GuestStore) Snapshot(ctx context.Context) ([]byte, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "Snapshot")
	defer span.End()

	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]byte, len(g.snapshot))
	copy(out, g.snapshot)
	return out, nil
}

// persistLocked rewrites the durable file. Callers hold the write lock.
// Any failure leaves the previous file in place; the temp file is named
// with a leading dot so a stale one from a crashed run is never parsed
// as a guest list.
func (g *GuestStore) persistLocked() error {
	data, err := model.MarshalRecords(g.records)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}

	dir, base := filepath.Split(g.path)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", base, uuid.NewString()))

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}
	if _, err = f.Write(data); err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmp, g.path)
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}

	g.snapshot = data
	return nil
}
