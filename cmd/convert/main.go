// Copyright (C) 2026 the quixsi maintainers
// See root-dir/LICENSE for more information

// convert copies a guest list from one storage backend to the other.
// Offline tool: run it only against files no server currently owns.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/url"
	"os"

	bolt "go.etcd.io/bbolt"

	"github.com/quixsi/rsvp/internal/db/csvdb"
	"github.com/quixsi/rsvp/internal/db/kvdb"
	"github.com/quixsi/rsvp/internal/model"
)

func main() {
	var (
		input  = flag.String("input", "", "source connection string, e.g. csvdb://rsvp.csv")
		output = flag.String("output", "", "destination connection string, e.g. kvdb://rsvp.db")
	)
	flag.Parse()

	jsonHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{})
	logger := slog.New(jsonHandler)

	if *input == "" || *output == "" {
		logger.Error("-input and -output are required")
		os.Exit(1)
	}

	records, err := load(*input)
	if err != nil {
		logger.Error("could not load source guest list", "error", err)
		os.Exit(1)
	}
	logger.Info("loaded source guest list", "records", len(records))

	if err := write(*output, records); err != nil {
		logger.Error("could not write destination guest list", "error", err)
		os.Exit(1)
	}
	logger.Info("finished converting", "records", len(records))
}

func load(connStr string) ([]*model.Record, error) {
	scheme, path, err := split(connStr)
	if err != nil {
		return nil, err
	}
	switch scheme {
	case "csvdb":
		store, err := csvdb.NewGuestStore(path)
		if err != nil {
			return nil, err
		}
		return store.ListRecords(context.Background())
	case "kvdb":
		bdb, err := bolt.Open(path, 0o600, &bolt.Options{ReadOnly: true})
		if err != nil {
			return nil, err
		}
		defer bdb.Close()
		store, err := kvdb.NewGuestStore(bdb)
		if err != nil {
			return nil, err
		}
		return store.ListRecords(context.Background())
	default:
		return nil, errors.New("unknown storage backend: " + scheme)
	}
}

func write(connStr string, records []*model.Record) error {
	scheme, path, err := split(connStr)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return errors.New("destination already exists: " + path)
	}
	switch scheme {
	case "csvdb":
		data, err := model.MarshalRecords(records)
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o644)
	case "kvdb":
		bdb, err := bolt.Open(path, 0o600, nil)
		if err != nil {
			return err
		}
		defer bdb.Close()
		return kvdb.Import(bdb, records)
	default:
		return errors.New("unknown storage backend: " + scheme)
	}
}

func split(connStr string) (scheme, path string, err error) {
	u, err := url.Parse(connStr)
	if err != nil {
		return "", "", err
	}
	return u.Scheme, u.Host + u.Path, nil
}
