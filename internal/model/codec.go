// Copyright (C) 2026 the quixsi maintainers
// See root-dir/LICENSE for more information

package model

import (
	"fmt"

	"github.com/gocarina/gocsv"
)

// MarshalRecords serializes a guest list into the durable CSV format:
// header row first, one row per record, file order preserved.
func MarshalRecords(records []*Record) ([]byte, error) {
	return gocsv.MarshalBytes(&records)
}

// UnmarshalRecords parses durable-format bytes back into a guest list.
// Empty input is an empty list. Any parse failure and any pair of rows
// colliding on their normalized name surface as ErrMalformedFile, which
// callers treat as fatal at load time.
func UnmarshalRecords(data []byte) ([]*Record, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var records []*Record
	if err := gocsv.UnmarshalBytes(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}
	seen := make(map[string]string, len(records))
	for _, r := range records {
		key := NormalizeName(r.Name)
		if key == "" {
			return nil, fmt.Errorf("%w: row with empty name", ErrMalformedFile)
		}
		if prev, ok := seen[key]; ok {
			return nil, fmt.Errorf("%w: %q and %q share one normalized name", ErrMalformedFile, prev, r.Name)
		}
		seen[key] = r.Name
	}
	return records, nil
}
