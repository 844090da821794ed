// Copyright (C) 2026 the quixsi maintainers
// See root-dir/LICENSE for more information

package templates

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/quixsi/rsvp/internal/db"
	"github.com/quixsi/rsvp/internal/mail"
	"github.com/quixsi/rsvp/internal/model"
	"github.com/quixsi/rsvp/internal/parser/form"
)

//go:embed *.html
var templates embed.FS

const notFoundMessage = "Your name wasn't found, sorry!"

func NewGuestHandler(store db.GuestStore, notifier mail.Notifier) *GuestHandler {
	return &GuestHandler{
		tmpl:     template.Must(template.ParseFS(templates, "*.html")),
		store:    store,
		notifier: notifier,
		logger:   slog.Default().WithGroup("http"),
	}
}

type GuestHandler struct {
	tmpl     *template.Template
	store    db.GuestStore
	notifier mail.Notifier
	logger   *slog.Logger
}

// RenderIndex serves the name lookup form.
func (p *GuestHandler) RenderIndex(c *gin.Context) {
	p.render(c, http.StatusOK, "index.html", gin.H{})
}

// CheckName looks a guest up by name and pre-fills the RSVP form with
// their current answers. The lookup is a convenience gate, not a
// security control: anyone who knows a valid name reaches the form.
func (p *GuestHandler) CheckName(c *gin.Context) {
	var span trace.Span
	ctx := c.Request.Context()
	ctx, span = tracer.Start(ctx, "GuestHandler.CheckName")
	defer span.End()

	var params model.NameParams
	if !p.bindForm(c, span, &params) {
		return
	}

	record, err := p.store.Lookup(ctx, params.Name)
	if errors.Is(err, model.ErrRecordNotFound) {
		p.render(c, http.StatusOK, "index.html", gin.H{"notice": notFoundMessage})
		return
	}
	if err != nil {
		span.RecordError(err)
		p.logger.ErrorContext(ctx, "could not look up guest", "error", err)
		p.renderError(c, http.StatusInternalServerError, "could not look up guest")
		return
	}

	p.render(c, http.StatusOK, "rsvp.html", gin.H{"record": record})
}

// Submit merges a guest submission into the store and, once it is
// durably persisted, notifies the admins with the snapshot attached.
func (p *GuestHandler) Submit(c *gin.Context) {
	var span trace.Span
	ctx := c.Request.Context()
	ctx, span = tracer.Start(ctx, "GuestHandler.Submit")
	defer span.End()

	var params model.RsvpParams
	if !p.bindForm(c, span, &params) {
		return
	}

	record, err := p.store.Submit(ctx, &params)
	if errors.Is(err, model.ErrRecordNotFound) {
		p.render(c, http.StatusOK, "index.html", gin.H{"notice": notFoundMessage})
		return
	}
	if err != nil {
		span.RecordError(err)
		p.logger.ErrorContext(ctx, "could not store submission", "error", err, "name", params.Name)
		p.notify(ctx, mail.NewFailureNotification(err, &params))
		p.renderError(c, http.StatusInternalServerError, "could not store your answers, please try again later")
		return
	}

	p.logger.InfoContext(ctx, "new rsvp", "name", record.Name, "attending", record.Attending.String())
	p.notify(ctx, mail.NewSubmissionNotification(record, p.snapshot(ctx)))
	p.render(c, http.StatusOK, "confirm.html", gin.H{"record": record})
}

// AddGuest is the management path: it seeds a new record with unknown
// answers. Duplicate names are rejected, normalization considered.
func (p *GuestHandler) AddGuest(c *gin.Context) {
	var span trace.Span
	ctx := c.Request.Context()
	ctx, span = tracer.Start(ctx, "GuestHandler.AddGuest")
	defer span.End()

	var params model.AddParams
	if err := c.Request.ParseForm(); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not parse form"})
		return
	}
	if err := form.Unmarshal(c.Request.PostForm, &params); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := p.store.AddGuest(ctx, &params)
	switch {
	case errors.Is(err, model.ErrDuplicateGuest):
		span.RecordError(err)
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		span.RecordError(err)
		p.logger.ErrorContext(ctx, "could not add guest", "error", err, "name", params.Name)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	p.logger.InfoContext(ctx, "guest added", "name", record.Name)
	p.notify(ctx, mail.NewGuestAddedNotification(record, p.snapshot(ctx)))
	c.JSON(http.StatusCreated, record)
}

// ListGuests returns every record in durable-file order.
func (p *GuestHandler) ListGuests(c *gin.Context) {
	ctx := c.Request.Context()
	records, err := p.store.ListRecords(ctx)
	if err != nil {
		p.logger.ErrorContext(ctx, "could not list guests", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list guests"})
		return
	}
	c.JSON(http.StatusOK, records)
}

// Attendance returns current headcounts.
func (p *GuestHandler) Attendance(c *gin.Context) {
	ctx := c.Request.Context()
	count, err := p.store.Attendance(ctx)
	if err != nil {
		p.logger.ErrorContext(ctx, "could not count attendance", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not count attendance"})
		return
	}
	c.JSON(http.StatusOK, count)
}

// Export serves the persisted snapshot as a CSV download, for backups.
func (p *GuestHandler) Export(c *gin.Context) {
	ctx := c.Request.Context()
	snapshot, err := p.store.Snapshot(ctx)
	if err != nil {
		p.logger.ErrorContext(ctx, "could not snapshot guest list", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not snapshot guest list"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="rsvp.csv"`)
	c.Data(http.StatusOK, "text/csv", snapshot)
}

func (p *GuestHandler) bindForm(c *gin.Context, span trace.Span, target any) bool {
	if err := c.Request.ParseForm(); err != nil {
		span.RecordError(err)
		p.logger.ErrorContext(c.Request.Context(), "could not parse form", "error", err)
		p.renderError(c, http.StatusBadRequest, "could not parse form")
		return false
	}
	if err := form.Unmarshal(c.Request.PostForm, target); err != nil {
		span.RecordError(err)
		p.logger.ErrorContext(c.Request.Context(), "could not parse form values", "error", err)
		p.renderError(c, http.StatusBadRequest, "could not read your answers")
		return false
	}
	return true
}

// notify is best-effort: a delivery failure is logged and never turns an
// already-persisted mutation into an error.
func (p *GuestHandler) notify(ctx context.Context, n *mail.Notification) {
	if err := p.notifier.Notify(ctx, n); err != nil {
		p.logger.ErrorContext(ctx, "could not send notification", "error", err, "subject", n.Subject)
	}
}

func (p *GuestHandler) snapshot(ctx context.Context) []byte {
	snapshot, err := p.store.Snapshot(ctx)
	if err != nil {
		p.logger.ErrorContext(ctx, "could not snapshot guest list", "error", err)
		return nil
	}
	return snapshot
}

func (p *GuestHandler) render(c *gin.Context, status int, name string, data gin.H) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := p.tmpl.ExecuteTemplate(c.Writer, name, data); err != nil {
		p.logger.Error("could not execute template", "template", name, "error", err)
	}
}

func (p *GuestHandler) renderError(c *gin.Context, status int, message string) {
	p.render(c, status, "error.html", gin.H{
		"status":  fmt.Sprintf("%d %s", status, http.StatusText(status)),
		"message": message,
	})
}
