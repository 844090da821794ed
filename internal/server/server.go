// Copyright (C) 2026 the quixsi maintainers
// See root-dir/LICENSE for more information

package server

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	"github.com/quixsi/rsvp/internal/db"
	"github.com/quixsi/rsvp/internal/mail"
	"github.com/quixsi/rsvp/internal/server/templates"
)

func NewServer(
	serviceName string,
	staticDir string,
	store db.GuestStore,
	notifier mail.Notifier,
) *Server {
	s := &Server{
		logger:      slog.Default().WithGroup("http"),
		serviceName: serviceName,
		staticDir:   staticDir,
		store:       store,
		notifier:    notifier,
	}
	s.mux = s.routes()
	return s
}

type Server struct {
	serviceName string
	staticDir   string
	logger      *slog.Logger
	store       db.GuestStore
	notifier    mail.Notifier
	mux         *gin.Engine
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() *gin.Engine {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	mux := gin.New()

	mux.Use(
		sloggin.NewWithConfig(s.logger,
			sloggin.Config{
				DefaultLevel:     slog.LevelInfo,
				ClientErrorLevel: slog.LevelWarn,
				ServerErrorLevel: slog.LevelError,
			},
		),
		gin.Recovery(),
		otelgin.Middleware(s.serviceName),
		slogAddTraceAttributes,
	)

	if s.staticDir != "" {
		mux.Static("/static", s.staticDir)
	}

	guestHandler := templates.NewGuestHandler(s.store, s.notifier)
	mux.GET("/", guestHandler.RenderIndex)
	mux.POST("/", guestHandler.CheckName)
	mux.POST("/rsvp", guestHandler.Submit)

	// Management API, consumed by rsvpctl against the live server so the
	// durable file keeps a single writer. Deliberately unauthenticated,
	// like the rest of the site.
	api := mux.Group("/api")
	api.POST("/guests", guestHandler.AddGuest)
	api.GET("/guests", guestHandler.ListGuests)
	api.GET("/attendance", guestHandler.Attendance)
	api.GET("/export", guestHandler.Export)

	mux.NoRoute(notFound)
	return mux
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"code": "PAGE_NOT_FOUND", "message": "Page not found"})
}

func slogAddTraceAttributes(c *gin.Context) {
	sloggin.AddCustomAttributes(c,
		slog.String("trace-id", trace.SpanFromContext(c.Request.Context()).SpanContext().TraceID().String()),
	)
	sloggin.AddCustomAttributes(c,
		slog.String("span-id", trace.SpanFromContext(c.Request.Context()).SpanContext().SpanID().String()),
	)
	c.Next()
}
