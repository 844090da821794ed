// Copyright (C) 2026 the quixsi maintainers
// See root-dir/LICENSE for more information

package kvdb

import (
	"encoding/json"

	bolt "go.etcd.io/bbolt"

	"github.com/quixsi/rsvp/internal/model"
)

// Import bulk-loads full records, answers included, preserving their
// order. Used by the offline converter; the management path goes through
// GuestStore.AddGuest.
func Import(db *bolt.DB, records []*model.Record) error {
	return db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(bucketGuest))
		if err != nil {
			return err
		}
		for _, r := range records {
			key := model.NormalizeName(r.Name)
			if bucket.Get([]byte(key)) != nil {
				return model.ErrDuplicateGuest
			}
			seq, err := bucket.NextSequence()
			if err != nil {
				return err
			}
			buf, err := json.Marshal(&storedRecord{Seq: seq, Record: r})
			if err != nil {
				return err
			}
			if err := bucket.Put([]byte(key), buf); err != nil {
				return err
			}
		}
		return nil
	})
}
