// Package server exposes the calculator registry, goal seek and saved
// results over a JSON HTTP API.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iwvelando/finance-calculators/internal/calculator"
	"github.com/iwvelando/finance-calculators/internal/definition"
	"github.com/iwvelando/finance-calculators/internal/goalseek"
	"github.com/iwvelando/finance-calculators/internal/history"
	"github.com/iwvelando/finance-calculators/pkg/constants"
	"github.com/iwvelando/finance-calculators/pkg/expr"
	"go.uber.org/zap"
)

type handler struct {
	logger      *zap.Logger
	registry    *definition.Registry
	history     *history.Store
	maxBodySize int64
	version     string
}

// NewHandler constructs the HTTP handler serving the calculator API. A nil
// store disables the saved results endpoints.
func NewHandler(logger *zap.Logger, registry *definition.Registry, store *history.Store, maxBodySize int64, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodySizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:      logger,
		registry:    registry,
		history:     store,
		maxBodySize: maxBodySize,
		version:     trimmedVersion,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/api/version", h.handleVersion)

	mux.HandleFunc("/api/calculators", h.handleCalculators)
	mux.HandleFunc("/api/calculators/{slug}", h.handleCalculator)
	mux.HandleFunc("/api/calculators/{slug}/recompute", h.handleRecompute)
	mux.HandleFunc("/api/calculators/{slug}/seek", h.handleSeek)

	mux.HandleFunc("/api/history", h.handleHistory)

	return mux
}

type calculatorSummary struct {
	Slug        string `json:"slug"`
	Title       string `json:"title,omitempty"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
}

type recomputeRequest struct {
	Inputs map[string]expr.Value `json:"inputs"`
}

type recomputeResponse struct {
	Slug          string                `json:"slug"`
	VisibleInputs []string              `json:"visibleInputs"`
	Inputs        map[string]expr.Value `json:"inputs"`
	Outputs       map[string]expr.Value `json:"outputs"`
	Warnings      []string              `json:"warnings,omitempty"`
	Duration      string                `json:"duration"`
}

type seekRequest struct {
	goalseek.Target
	Inputs map[string]expr.Value `json:"inputs,omitempty"`
}

type saveRequest struct {
	Slug   string                `json:"slug"`
	Inputs map[string]expr.Value `json:"inputs"`
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleCalculators(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	slugs := h.registry.Slugs()
	summaries := make([]calculatorSummary, 0, len(slugs))
	for _, slug := range slugs {
		calc, _ := h.registry.Get(slug)
		def := calc.Definition()
		summaries = append(summaries, calculatorSummary{
			Slug:        slug,
			Title:       def.Title,
			Category:    def.Category,
			Description: def.Description,
		})
	}

	h.writeJSON(w, http.StatusOK, summaries)
}

func (h *handler) handleCalculator(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	calc, ok := h.lookup(w, r, "server.handleCalculator")
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, calc.Definition())
}

func (h *handler) handleRecompute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	const op = "server.handleRecompute"
	start := time.Now()

	calc, ok := h.lookup(w, r, op)
	if !ok {
		return
	}

	var req recomputeRequest
	if !h.decodeBody(w, r, &req, op) {
		return
	}

	result, err := calc.Recompute(req.Inputs)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	elapsed := time.Since(start)
	response := recomputeResponse{
		Slug:          result.Slug,
		VisibleInputs: result.VisibleInputs,
		Inputs:        result.Inputs,
		Outputs:       result.Outputs,
		Warnings:      warningStrings(result.Warnings),
		Duration:      elapsed.String(),
	}

	h.logger.Debug("calculator recomputed",
		zap.String("op", op),
		zap.String("slug", result.Slug),
		zap.Int("warnings", len(result.Warnings)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) handleSeek(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	const op = "server.handleSeek"

	calc, ok := h.lookup(w, r, op)
	if !ok {
		return
	}

	var req seekRequest
	if !h.decodeBody(w, r, &req, op) {
		return
	}

	summary, err := goalseek.Seek(h.logger, calc, req.Inputs, req.Target)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	h.writeJSON(w, http.StatusOK, summary)
}

func (h *handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleHistory"

	if h.history == nil {
		h.respondErrorWithOp(w, http.StatusNotFound, "saved results are disabled", op)
		return
	}

	switch r.Method {
	case http.MethodGet:
		records, err := h.history.List(r.Context())
		if err != nil {
			h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to list saved results: %v", err), op)
			return
		}
		h.writeJSON(w, http.StatusOK, records)

	case http.MethodPost:
		var req saveRequest
		if !h.decodeBody(w, r, &req, op) {
			return
		}
		calc, ok := h.registry.Get(req.Slug)
		if !ok {
			h.respondErrorWithOp(w, http.StatusNotFound, fmt.Sprintf("unknown calculator %q", req.Slug), op)
			return
		}
		result, err := calc.Recompute(req.Inputs)
		if err != nil {
			h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
			return
		}
		rec, err := h.history.Append(r.Context(), history.NewRecord(result))
		if err != nil {
			h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to save result: %v", err), op)
			return
		}
		h.writeJSON(w, http.StatusCreated, rec)

	case http.MethodDelete:
		if err := h.history.Clear(r.Context()); err != nil {
			h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to clear saved results: %v", err), op)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

func (h *handler) lookup(w http.ResponseWriter, r *http.Request, op string) (*calculator.Calculator, bool) {
	slug := r.PathValue("slug")
	calc, ok := h.registry.Get(slug)
	if !ok {
		h.respondErrorWithOp(w, http.StatusNotFound, fmt.Sprintf("unknown calculator %q", slug), op)
		return nil, false
	}
	return calc, true
}

// decodeBody reads a bounded JSON body into dst. An empty body leaves dst
// untouched.
func (h *handler) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds limit of %d bytes", h.maxBodySize), op)
			return false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

func warningStrings(warnings []expr.Warning) []string {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]string, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, w.String())
	}
	return out
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response",
			zap.String("op", "server.writeJSON"),
			zap.Error(err),
		)
	}
}
