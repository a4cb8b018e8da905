// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

// Package web serves an inspection view over the send records of a collector.Store.
package web

import (
	"bytes"
	"errors"
	"html/template"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mailpost/go-mailpost"
	"github.com/mailpost/go-mailpost/collector"
)

// Summary is the list view of a mailpost.SendRecord.
type Summary struct {
	ID         string        `json:"id"`
	Start      time.Time     `json:"start"`
	Duration   time.Duration `json:"duration"`
	Code       int           `json:"code"`
	Success    bool          `json:"success"`
	From       string        `json:"from"`
	Recipients []string      `json:"recipients"`
	Size       string        `json:"size"`
	Error      string        `json:"error,omitempty"`
}

// Handler handles the inspection routes
type Handler struct {
	store collector.Store
}

// NewHandler creates a new Handler for the given Store
func NewHandler(store collector.Store) *Handler {
	return &Handler{store: store}
}

// NewApp returns a fiber.App with the inspection routes registered.
func NewApp(store collector.Store) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "mailpost",
		DisableStartupMessage: true,
	})
	NewHandler(store).RegisterRoutes(app)
	return app
}

// RegisterRoutes registers all inspection routes
func (h *Handler) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api")
	api.Get("/sends", h.listSends)
	api.Get("/sends/:id", h.getSend)

	app.Get("/", h.index)
}

func summarize(record mailpost.SendRecord) Summary {
	return Summary{
		ID:         record.ID,
		Start:      record.Start,
		Duration:   record.Duration(),
		Code:       record.Code,
		Success:    record.Success,
		From:       record.From,
		Recipients: record.Recipients,
		Size:       collector.HumanSize(record.Length),
		Error:      record.Error,
	}
}

// summaries returns the summaries of all records, newest first
func (h *Handler) summaries(c *fiber.Ctx) ([]Summary, error) {
	records, err := h.store.Records(c.UserContext())
	if err != nil {
		return nil, err
	}
	summaries := make([]Summary, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		summaries = append(summaries, summarize(records[i]))
	}
	return summaries, nil
}

// listSends returns the summaries as JSON
func (h *Handler) listSends(c *fiber.Ctx) error {
	summaries, err := h.summaries(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(summaries)
}

// getSend returns a complete record as JSON
func (h *Handler) getSend(c *fiber.Ctx) error {
	record, err := h.store.Record(c.UserContext(), c.Params("id"))
	if errors.Is(err, collector.ErrRecordNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(record)
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>mailpost sends</title></head>
<body>
<h1>Sends</h1>
<table>
<tr><th>Start</th><th>From</th><th>Recipients</th><th>Code</th><th>Size</th><th>Duration</th></tr>
{{range .}}<tr class="{{if .Success}}ok{{else}}failed{{end}}">
<td><a href="/api/sends/{{.ID}}">{{.Start.Format "2006-01-02 15:04:05"}}</a></td>
<td>{{.From}}</td>
<td>{{range $i, $r := .Recipients}}{{if $i}}, {{end}}{{$r}}{{end}}</td>
<td>{{.Code}}</td>
<td>{{.Size}}</td>
<td>{{.Duration}}</td>
</tr>
{{else}}<tr><td colspan="6">No sends collected yet</td></tr>
{{end}}</table>
</body>
</html>
`))

// index renders the summaries as an HTML table
func (h *Handler) index(c *fiber.Ctx) error {
	summaries, err := h.summaries(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	var buf bytes.Buffer
	if err = indexTemplate.Execute(&buf, summaries); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}
