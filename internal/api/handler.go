package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"

	"github.com/insightdelivered/statement-extractor/internal/extractor"
	"github.com/insightdelivered/statement-extractor/internal/models"
	"github.com/insightdelivered/statement-extractor/internal/money"
	"github.com/insightdelivered/statement-extractor/internal/parser"
	"github.com/insightdelivered/statement-extractor/internal/writer"
)

// Version is reported by the health endpoint.
const Version = "2.0.0"

// ConvertResponse is the JSON response from the /api/convert endpoint.
type ConvertResponse struct {
	Success        bool                 `json:"success"`
	RunID          string               `json:"runId,omitempty"`
	Error          string               `json:"error,omitempty"`
	Period         string               `json:"period,omitempty"`
	OpeningBalance string               `json:"openingBalance,omitempty"`
	ClosingBalance string               `json:"closingBalance,omitempty"`
	Transactions   []models.Transaction `json:"transactions"`
	CSV            string               `json:"csv,omitempty"`
	TotalDebit     string               `json:"totalDebit,omitempty"`
	TotalCredit    string               `json:"totalCredit,omitempty"`
	Count          int                  `json:"count"`
	Version        string               `json:"version,omitempty"`
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	Options parser.Options
	Logger  *slog.Logger
}

// NewApp returns a fiber app serving the API, with uploads capped at maxUploadMB.
func NewApp(h *Handler, maxUploadMB int) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "statement-extractor " + Version,
		BodyLimit: maxUploadMB << 20,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))
	h.RegisterRoutes(app)
	return app
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/api/health", h.HandleHealth)
	app.Post("/api/convert", h.HandleConvert)
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engine":  "fiber",
		"version": Version,
	})
}

// HandleConvert parses an uploaded statement PDF and returns its transactions.
func (h *Handler) HandleConvert(c *fiber.Ctx) error {
	runID := uuid.NewString()
	log := h.logger().With("run_id", runID)

	fh, err := c.FormFile("file")
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, runID, "No file uploaded. Use form field 'file'.")
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".pdf") {
		return writeError(c, fiber.StatusBadRequest, runID, "Only PDF files are supported.")
	}
	includeHeader := c.FormValue("header") != "false"

	f, err := fh.Open()
	if err != nil {
		return writeError(c, fiber.StatusInternalServerError, runID, "Failed to read uploaded file.")
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		return writeError(c, fiber.StatusInternalServerError, runID, "Failed to read uploaded file.")
	}

	log.Info("converting statement", "file", fh.Filename, "bytes", len(data))

	doc, err := extractor.NewDocument(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return writeError(c, fiber.StatusUnprocessableEntity, runID, fmt.Sprintf("PDF extraction failed: %v", err))
	}
	defer doc.Close()

	opts := h.Options
	opts.Logger = log
	stmt, err := parser.Parse(c.UserContext(), doc, opts)
	if err != nil {
		log.Warn("statement rejected", "error", err)
		return writeError(c, statusFor(err), runID, fmt.Sprintf("Parsing failed: %v", err))
	}

	var csvBuf bytes.Buffer
	csvWriter := &writer.CSVWriter{IncludeHeader: includeHeader}
	if err := csvWriter.Write(&csvBuf, stmt); err != nil {
		return writeError(c, fiber.StatusInternalServerError, runID, fmt.Sprintf("CSV generation failed: %v", err))
	}

	debit, credit := stmt.Totals()

	// nil marshals to JSON null, not []
	txns := stmt.Transactions
	if txns == nil {
		txns = []models.Transaction{}
	}

	return c.JSON(ConvertResponse{
		Success:        true,
		RunID:          runID,
		Period:         stmt.Period,
		OpeningBalance: money.FormatCents(stmt.OpeningBalance),
		ClosingBalance: money.FormatCents(stmt.ClosingBalance),
		Transactions:   txns,
		CSV:            csvBuf.String(),
		TotalDebit:     money.FormatCents(debit),
		TotalCredit:    money.FormatCents(credit),
		Count:          len(txns),
		Version:        Version,
	})
}

// statusFor maps parse failures to a response code. Every failure other
// than an abandoned request is a problem with the uploaded statement.
func statusFor(err error) int {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fiber.StatusRequestTimeout
	}
	return fiber.StatusUnprocessableEntity
}

func writeError(c *fiber.Ctx, status int, runID, msg string) error {
	return c.Status(status).JSON(ConvertResponse{
		Success: false,
		RunID:   runID,
		Error:   msg,
	})
}
