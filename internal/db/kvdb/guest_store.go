// Copyright (C) 2026 the quixsi maintainers
// See root-dir/LICENSE for more information

package kvdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.opentelemetry.io/otel/trace"

	"github.com/quixsi/rsvp/internal/model"
)

const bucketGuest = "guest_store"

// storedRecord carries the bucket sequence number assigned when the
// record was added, so exports preserve insertion order the same way the
// CSV backend preserves file order.
type storedRecord struct {
	Seq    uint64        `json:"seq"`
	Record *model.Record `json:"record"`
}

// GuestStore is a bolt-backed implementation of the GuestStore interface.
// Records live in one bucket keyed by normalized name; bolt transactions
// provide the mutual exclusion and crash atomicity the CSV backend gets
// from its lock and rename protocol. Snapshot renders the same CSV format
// so notification attachments and backups are backend-independent.
type GuestStore struct {
	db  *bolt.DB
	now func() time.Time
}

func NewGuestStore(db *bolt.DB) (*GuestStore, error) {
	store := &GuestStore{db: db, now: time.Now}
	if db.IsReadOnly() {
		return store, db.View(func(tx *bolt.Tx) error {
			if tx.Bucket([]byte(bucketGuest)) == nil {
				return fmt.Errorf("%w: missing %s bucket", model.ErrMalformedFile, bucketGuest)
			}
			return nil
		})
	}
	return store, db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketGuest))
		return err
	})
}

func (g *GuestStore) Lookup(ctx context.Context, name string) (*model.Record, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "Lookup")
	defer span.End()

	var found *model.Record
	err := g.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketGuest))
		if raw := bucket.Get([]byte(model.NormalizeName(name))); raw != nil {
			sr, err := decodeRecord(raw)
			if err != nil {
				return err
			}
			found = sr.Record
			return nil
		}
		return bucket.ForEach(func(_, raw []byte) error {
			sr, err := decodeRecord(raw)
			if err != nil {
				return err
			}
			if found == nil && sr.Record.Matches(name) {
				found = sr.Record
			}
			return nil
		})
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if found == nil {
		span.RecordError(model.ErrRecordNotFound)
		return nil, model.ErrRecordNotFound
	}
	return found, nil
}

func (g *GuestStore) Submit(ctx context.Context, params *model.RsvpParams) (*model.Record, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "Submit")
	defer span.End()

	key := []byte(model.NormalizeName(params.Name))
	var merged *model.Record
	err := g.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketGuest))
		raw := bucket.Get(key)
		if raw == nil {
			return model.ErrRecordNotFound
		}
		sr, err := decodeRecord(raw)
		if err != nil {
			return err
		}
		sr.Record.Merge(params, g.now())
		buf, err := json.Marshal(sr)
		if err != nil {
			return fmt.Errorf("%w: %v", model.ErrPersistence, err)
		}
		merged = sr.Record
		return bucket.Put(key, buf)
	})
	if err != nil {
		span.RecordError(err)
		return nil, wrapPersistence(err)
	}
	return merged, nil
}

func (g *GuestStore) AddGuest(ctx context.Context, params *model.AddParams) (*model.Record, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "AddGuest")
	defer span.End()

	key := model.NormalizeName(params.Name)
	if key == "" {
		return nil, errors.New("guest name is required")
	}

	var record *model.Record
	err := g.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketGuest))
		if bucket.Get([]byte(key)) != nil {
			return model.ErrDuplicateGuest
		}
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		record = model.NewRecord(params, g.now())
		buf, err := json.Marshal(&storedRecord{Seq: seq, Record: record})
		if err != nil {
			return fmt.Errorf("%w: %v", model.ErrPersistence, err)
		}
		return bucket.Put([]byte(key), buf)
	})
	if err != nil {
		span.RecordError(err)
		return nil, wrapPersistence(err)
	}
	return record, nil
}

func (g *GuestStore) ListRecords(ctx context.Context) ([]*model.Record, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "ListRecords")
	defer span.End()

	var stored []*storedRecord
	err := g.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketGuest)).ForEach(func(_, raw []byte) error {
			sr, err := decodeRecord(raw)
			if err != nil {
				return err
			}
			stored = append(stored, sr)
			return nil
		})
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	sort.Slice(stored, func(i, j int) bool { return stored[i].Seq < stored[j].Seq })
	records := make([]*model.Record, len(stored))
	for i, sr := range stored {
		records[i] = sr.Record
	}
	return records, nil
}

func (g *GuestStore) Attendance(ctx context.Context) (model.AttendanceCount, error) {
	records, err := g.ListRecords(ctx)
	if err != nil {
		return model.AttendanceCount{}, err
	}
	return model.CountAttendance(records), nil
}

// Snapshot renders the committed bucket contents in the durable CSV
// format, ordered by insertion sequence.
func (g *GuestStore) Snapshot(ctx context.Context) ([]byte, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "Snapshot")
	defer span.End()

	records, err := g.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	return model.MarshalRecords(records)
}

func decodeRecord(raw []byte) (*storedRecord, error) {
	var sr storedRecord
	if err := json.Unmarshal(raw, &sr); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrMalformedFile, err)
	}
	return &sr, nil
}

// wrapPersistence keeps the typed sentinels intact and labels everything
// else, bolt commit failures included, as a persistence failure.
func wrapPersistence(err error) error {
	switch {
	case errors.Is(err, model.ErrRecordNotFound),
		errors.Is(err, model.ErrDuplicateGuest),
		errors.Is(err, model.ErrPersistence),
		errors.Is(err, model.ErrMalformedFile):
		return err
	default:
		return fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}
}
