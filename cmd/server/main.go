// Copyright (C) 2026 the quixsi maintainers
// See root-dir/LICENSE for more information

package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/quixsi/rsvp/internal/db"
	"github.com/quixsi/rsvp/internal/db/csvdb"
	"github.com/quixsi/rsvp/internal/db/kvdb"
	"github.com/quixsi/rsvp/internal/mail"
	"github.com/quixsi/rsvp/internal/model"
	"github.com/quixsi/rsvp/internal/server"
)

func main() {
	var (
		serviceName = flag.String("service-name", "rsvp", "otel service name")
		addr        = flag.String("addr", "0.0.0.0:8080", "default server address")
		dbStr       = flag.String("db", "csvdb://rsvp.csv", "database connection string, schemes: csvdb, kvdb")
		from        = flag.String("from", "", "sender address for admin notifications")
		admins      = flag.String("admins", "", "comma-separated admin addresses, notified on every change")
		test        = flag.Bool("test", false, "testing mode, suppresses real notification delivery")
		otlpAddr    = flag.String("otlp-grpc", "", "default otlp/gRPC address, by default disabled. Example value: localhost:4317")
		logLevelArg = flag.String("log-level", "INFO", "log level")
		staticDir   = flag.String("static-dir", "", "path to static directory")
	)
	flag.Parse()

	var logLevel slog.Level
	err := logLevel.UnmarshalText([]byte(*logLevelArg))
	jsonHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(jsonHandler)
	if err != nil {
		logger.Error("unable to parse log level", "level-input", *logLevelArg, "error", err)
		os.Exit(1)
	}

	slog.SetDefault(logger)
	logger.Info("start and listen", "address", *addr)
	logger.Info("otlp/gRPC", "address", *otlpAddr, "service", *serviceName)

	if *otlpAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		grpcOptions := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials()), grpc.WithBlock()}
		conn, err := grpc.DialContext(ctx, *otlpAddr, grpcOptions...)
		if err != nil {
			logger.Error("failed to create gRPC connection to collector", "error", err)
			os.Exit(1)
		}
		defer conn.Close()

		otelExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
		if err != nil {
			logger.Error("failed to create trace exporter", "error", err)
			os.Exit(1)
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(otelExporter))
		otel.SetTracerProvider(tp)
	}

	store, cleanup, err := openStore(*dbStr)
	if err != nil {
		if errors.Is(err, model.ErrMalformedFile) {
			logger.Error("refusing to start against a corrupt guest list", "error", err)
		} else {
			logger.Error("could not initialize guest store", "error", err)
		}
		os.Exit(1)
	}
	defer cleanup()

	var notifier mail.Notifier
	if *test {
		logger.Info("testing mode, notifications are suppressed")
		notifier = mail.NewStubNotifier(logger)
	} else {
		if *from == "" || *admins == "" {
			logger.Error("-from and -admins are required outside testing mode")
			os.Exit(1)
		}
		smtpCfg, err := mail.SMTPConfigFromEnv()
		if err != nil {
			logger.Error("could not read SMTP configuration", "error", err)
			os.Exit(1)
		}
		notifier = mail.NewSMTPNotifier(smtpCfg, *from, strings.Split(*admins, ","))
	}

	srv := &http.Server{
		Addr: *addr,
		Handler: server.NewServer(
			*serviceName,
			*staticDir,
			store,
			notifier,
		),
	}

	if err := srv.ListenAndServe(); err != nil {
		logger.Error("error during listen and serve", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown")
}

func openStore(dbStr string) (db.GuestStore, func(), error) {
	u, err := url.Parse(dbStr)
	if err != nil {
		return nil, nil, err
	}
	path := u.Host + u.Path

	switch u.Scheme {
	case "csvdb":
		store, err := csvdb.NewGuestStore(path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	case "kvdb":
		bdb, err := bolt.Open(path, 0o600, nil)
		if err != nil {
			return nil, nil, err
		}
		store, err := kvdb.NewGuestStore(bdb)
		if err != nil {
			bdb.Close()
			return nil, nil, err
		}
		return store, func() { bdb.Close() }, nil
	default:
		return nil, nil, errors.New("unknown storage backend: " + u.Scheme)
	}
}
