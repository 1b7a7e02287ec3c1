// Package server exposes the target calculator, monthly allocator, target
// store, and spreadsheet export over a JSON HTTP API.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fieldserve/marketing-targets/internal/allocator"
	"github.com/fieldserve/marketing-targets/internal/calc"
	"github.com/fieldserve/marketing-targets/internal/export"
	"github.com/fieldserve/marketing-targets/internal/registry"
	"github.com/fieldserve/marketing-targets/internal/store"
	"github.com/fieldserve/marketing-targets/pkg/constants"
	"github.com/fieldserve/marketing-targets/pkg/datetime"
	"github.com/fieldserve/marketing-targets/pkg/validation"
	"go.uber.org/zap"
)

type handler struct {
	logger      *zap.Logger
	registry    *registry.Registry
	calculator  *calc.Calculator
	store       *store.Store
	downloads   *export.DownloadStore
	maxBodySize int64
	version     string
}

// NewHandler constructs the HTTP handler that serves the targets API. The
// store may be nil, in which case the persistence endpoints respond 503.
func NewHandler(logger *zap.Logger, st *store.Store, maxBodySize int64, version string) http.Handler {
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

	reg := registry.New()
	h := &handler{
		logger:      logger,
		registry:    reg,
		calculator:  calc.New(reg, logger),
		store:       st,
		downloads:   export.NewDownloadStore(),
		maxBodySize: maxBodySize,
		version:     trimmedVersion,
	}

	mux := http.NewServeMux()

	// Field metadata for UI clients
	mux.HandleFunc("/api/fields", h.handleFields)

	// Single-pass target calculation
	mux.HandleFunc("/api/calculate", h.handleCalculate)

	// Annual-to-monthly budget allocation
	mux.HandleFunc("/api/allocate", h.handleAllocate)

	// Target record persistence
	mux.HandleFunc("/api/targets", h.handleTargets)

	// Monthly plan persistence
	mux.HandleFunc("/api/allocations", h.handleAllocations)

	// Spreadsheet export: generation plus single-use token download
	mux.HandleFunc("/api/export", h.handleExport)
	mux.HandleFunc("/api/export/download/", h.handleExportDownload)

	// Version endpoint for UI metadata
	mux.HandleFunc("/api/version", h.handleVersion)

	return mux
}

type scenarioRequest struct {
	Period string             `json:"period"`
	Date   string             `json:"date"`
	Inputs map[string]float64 `json:"inputs"`
}

type calculateRequest struct {
	scenarioRequest
	Previous map[string]float64 `json:"previous,omitempty"`
	Edited   bool               `json:"edited,omitempty"`
}

type calculateResponse struct {
	Period       string             `json:"period"`
	Date         string             `json:"date"`
	DaysInPeriod int                `json:"daysInPeriod"`
	Values       map[string]float64 `json:"values"`
	Highlighted  []string           `json:"highlighted,omitempty"`
	Warnings     []string           `json:"warnings,omitempty"`
	Duration     string             `json:"duration"`
}

type monthEdit struct {
	Month  int     `json:"month"` // 1..12
	Budget float64 `json:"budget"`
}

type allocateRequest struct {
	Date    string                                             `json:"date"`
	Inputs  map[string]float64                                 `json:"inputs"`
	Actuals *[constants.MonthsPerYear][]allocator.WeeklyActual `json:"actuals,omitempty"`
	Edits   []monthEdit                                        `json:"edits,omitempty"`
	Reset   bool                                               `json:"reset,omitempty"`
}

type balancePayload struct {
	Annual    string `json:"annual"`
	Allocated string `json:"allocated"`
	Remaining string `json:"remaining"`
	Balanced  bool   `json:"balanced"`
}

type allocateResponse struct {
	Mode     string                                             `json:"mode"`
	Annual   map[string]float64                                 `json:"annual"`
	Months   [constants.MonthsPerYear]allocator.MonthAllocation `json:"months"`
	Balance  balancePayload                                     `json:"balance"`
	Warnings []string                                           `json:"warnings,omitempty"`
}

type fieldPayload struct {
	ID      string   `json:"id"`
	Label   string   `json:"label"`
	Kind    string   `json:"kind"`
	Group   string   `json:"group"`
	Unit    string   `json:"unit"`
	Formula string   `json:"formula,omitempty"`
	Min     float64  `json:"min"`
	Max     float64  `json:"max,omitempty"`
	Default float64  `json:"default,omitempty"`
	Periods []string `json:"periods,omitempty"`
}

func (h *handler) handleFields(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	period := constants.Period(r.URL.Query().Get("queryType"))
	if period == "" {
		period = constants.PeriodMonthly
	}
	if err := validation.ValidatePeriod(string(period)); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), "server.handleFields")
		return
	}

	fields := h.registry.Fields(period)
	payload := make([]fieldPayload, 0, len(fields))
	for _, field := range fields {
		periods := make([]string, 0, len(field.Periods))
		for _, p := range field.Periods {
			periods = append(periods, string(p))
		}
		payload = append(payload, fieldPayload{
			ID:      field.ID,
			Label:   field.Label,
			Kind:    field.Kind.String(),
			Group:   field.Group.String(),
			Unit:    field.Unit.String(),
			Formula: field.Formula,
			Min:     field.Min,
			Max:     field.Max,
			Default: field.Default,
			Periods: periods,
		})
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"fields": payload})
}

func (h *handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCalculate"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()

	var req calculateRequest
	if !h.decodeBody(w, r, &req, op) {
		return
	}

	period, date, ok := h.resolveScenario(w, req.scenarioRequest, op)
	if !ok {
		return
	}

	warnings := validation.ScenarioWarnings(h.registry, period, req.Inputs)

	daysInPeriod := datetime.DaysInPeriod(period, date)
	snapshot, err := h.calculator.CalculateAll(req.Inputs, daysInPeriod, period)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to calculate targets: %v", err), op)
		return
	}

	var highlighted []string
	if req.Previous != nil {
		previous := calc.Snapshot{Values: req.Previous, Period: period, DaysInPeriod: daysInPeriod}
		var hl calc.Highlighter
		if req.Edited {
			hl.MarkEdited()
		}
		for _, id := range hl.Changed(previous, snapshot) {
			if hl.Highlighted(id, previous, snapshot) {
				highlighted = append(highlighted, id)
			}
		}
	}

	elapsed := time.Since(start)
	h.logger.Info("targets calculated",
		zap.String("op", op),
		zap.String("queryType", string(period)),
		zap.Int("fields", len(snapshot.Values)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, calculateResponse{
		Period:       string(period),
		Date:         date.Format(constants.DateLayout),
		DaysInPeriod: daysInPeriod,
		Values:       snapshot.Values,
		Highlighted:  highlighted,
		Warnings:     warnings,
		Duration:     elapsed.String(),
	})
}

func (h *handler) handleAllocate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAllocate"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var req allocateRequest
	if !h.decodeBody(w, r, &req, op) {
		return
	}

	scenario := scenarioRequest{Period: string(constants.PeriodYearly), Date: req.Date, Inputs: req.Inputs}
	period, date, ok := h.resolveScenario(w, scenario, op)
	if !ok {
		return
	}

	warnings := validation.ScenarioWarnings(h.registry, period, req.Inputs)

	annual, err := h.calculator.CalculateAll(req.Inputs, datetime.DaysInPeriod(period, date), period)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to calculate annual targets: %v", err), op)
		return
	}

	alloc := allocator.New(annual, h.logger)
	if req.Actuals != nil {
		alloc.ApplyActuals(allocator.AggregateActuals(*req.Actuals))
	}
	for _, edit := range req.Edits {
		// Payload months are 1-based (1 = January).
		if err := alloc.SetMonthBudget(edit.Month-1, edit.Budget); err != nil {
			h.respondError(w, http.StatusBadRequest, err.Error(), op)
			return
		}
	}
	if req.Reset {
		alloc.Reset()
	}

	report := alloc.Balance()
	h.writeJSON(w, http.StatusOK, allocateResponse{
		Mode:   alloc.Mode().String(),
		Annual: annual.Values,
		Months: alloc.Months(),
		Balance: balancePayload{
			Annual:    report.Annual.StringFixed(2),
			Allocated: report.Allocated.StringFixed(2),
			Remaining: report.Remaining.StringFixed(2),
			Balanced:  report.Balanced,
		},
		Warnings: warnings,
	})
}

type targetPayload struct {
	ID        string             `json:"id,omitempty"`
	QueryType string             `json:"queryType"`
	StartDate string             `json:"startDate"`
	EndDate   string             `json:"endDate"`
	Values    map[string]float64 `json:"values"`
}

func (h *handler) handleTargets(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleTargets"
	if !h.requireStore(w, op) {
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleTargetsGet(w, r, op)
	case http.MethodPost:
		h.handleTargetsPost(w, r, op)
	default:
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

func (h *handler) handleTargetsGet(w http.ResponseWriter, r *http.Request, op string) {
	queryType := r.URL.Query().Get("queryType")
	if err := validation.ValidatePeriod(queryType); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	period := constants.Period(queryType)

	if startDate := r.URL.Query().Get("startDate"); startDate != "" {
		record, found, err := h.store.GetTarget(period, startDate)
		if err != nil {
			h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load target: %v", err), op)
			return
		}
		if !found {
			// A missing record is not an error; the client falls back to defaults.
			h.writeJSON(w, http.StatusOK, map[string]interface{}{
				"found":    false,
				"defaults": h.registry.Defaults(),
			})
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]interface{}{
			"found":  true,
			"target": toTargetPayload(record),
		})
		return
	}

	records, err := h.store.ListTargets(period)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list targets: %v", err), op)
		return
	}
	payload := make([]targetPayload, 0, len(records))
	for _, record := range records {
		payload = append(payload, toTargetPayload(record))
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"targets": payload})
}

func (h *handler) handleTargetsPost(w http.ResponseWriter, r *http.Request, op string) {
	var req targetPayload
	if !h.decodeBody(w, r, &req, op) {
		return
	}

	if err := validation.ValidatePeriod(req.QueryType); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	if err := validation.ValidateDate(req.StartDate); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	if req.EndDate != "" {
		if err := validation.ValidateDate(req.EndDate); err != nil {
			h.respondError(w, http.StatusBadRequest, err.Error(), op)
			return
		}
	}

	id, err := h.store.SaveTarget(store.TargetRecord{
		ID:        req.ID,
		QueryType: constants.Period(req.QueryType),
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Values:    req.Values,
	})
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to save target: %v", err), op)
		return
	}

	h.logger.Info("target saved",
		zap.String("op", op),
		zap.String("queryType", req.QueryType),
		zap.String("startDate", req.StartDate),
	)
	h.writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

type allocationPayload struct {
	TargetID     string                                             `json:"targetId"`
	AnnualBudget float64                                            `json:"annualBudget"`
	Months       [constants.MonthsPerYear]allocator.MonthAllocation `json:"months"`
}

func (h *handler) handleAllocations(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAllocations"
	if !h.requireStore(w, op) {
		return
	}

	switch r.Method {
	case http.MethodGet:
		targetID := r.URL.Query().Get("targetId")
		if targetID == "" {
			h.respondError(w, http.StatusBadRequest, "missing targetId parameter", op)
			return
		}
		months, found, err := h.store.GetAllocation(targetID)
		if err != nil {
			h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load allocation: %v", err), op)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]interface{}{
			"found":  found,
			"months": months,
		})
	case http.MethodPost:
		var req allocationPayload
		if !h.decodeBody(w, r, &req, op) {
			return
		}
		if req.TargetID == "" {
			h.respondError(w, http.StatusBadRequest, "missing targetId", op)
			return
		}
		if err := h.store.SaveAllocation(req.TargetID, req.AnnualBudget, req.Months); err != nil {
			if errors.Is(err, store.ErrUnbalancedAllocation) {
				h.respondError(w, http.StatusConflict, err.Error(), op)
				return
			}
			h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to save allocation: %v", err), op)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
	default:
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

type exportRequest struct {
	scenarioRequest
	Actuals *[constants.MonthsPerYear][]allocator.WeeklyActual `json:"actuals,omitempty"`
	Edits   []monthEdit                                        `json:"edits,omitempty"`
}

func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExport"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var req exportRequest
	if !h.decodeBody(w, r, &req, op) {
		return
	}

	period, date, ok := h.resolveScenario(w, req.scenarioRequest, op)
	if !ok {
		return
	}

	snapshot, err := h.calculator.CalculateAll(req.Inputs, datetime.DaysInPeriod(period, date), period)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to calculate targets: %v", err), op)
		return
	}

	// The monthly plan sheet only applies to yearly targets.
	var months *[constants.MonthsPerYear]allocator.MonthAllocation
	if period == constants.PeriodYearly && (req.Actuals != nil || len(req.Edits) > 0) {
		alloc := allocator.New(snapshot, h.logger)
		if req.Actuals != nil {
			alloc.ApplyActuals(allocator.AggregateActuals(*req.Actuals))
		}
		for _, edit := range req.Edits {
			if err := alloc.SetMonthBudget(edit.Month-1, edit.Budget); err != nil {
				h.respondError(w, http.StatusBadRequest, err.Error(), op)
				return
			}
		}
		allocated := alloc.Months()
		months = &allocated
	}

	payload, err := export.WorkbookBytes(h.registry, snapshot, months)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to build workbook: %v", err), op)
		return
	}

	filename := fmt.Sprintf("targets-%s-%s.xlsx", period, date.Format(constants.DateLayout))
	token := h.downloads.Put(payload, filename, constants.DefaultExportTTLMinutes*time.Minute)

	h.logger.Info("export generated",
		zap.String("op", op),
		zap.String("queryType", string(period)),
		zap.Int("bytes", len(payload)),
	)
	h.writeJSON(w, http.StatusOK, map[string]string{
		"token":    token,
		"filename": filename,
	})
}

func (h *handler) handleExportDownload(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExportDownload"
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	token := strings.TrimPrefix(r.URL.Path, "/api/export/download/")
	if token == "" || strings.Contains(token, "/") {
		h.respondError(w, http.StatusBadRequest, "invalid download token", op)
		return
	}

	payload, filename, ok := h.downloads.Take(token)
	if !ok {
		h.respondError(w, http.StatusNotFound, "download expired or already claimed", op)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(payload); err != nil {
		h.logger.Warn("failed to stream export",
			zap.String("op", op),
			zap.Error(err),
		)
	}
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

// resolveScenario validates the period and date of a request, defaulting the
// date to today when absent.
func (h *handler) resolveScenario(w http.ResponseWriter, req scenarioRequest, op string) (constants.Period, time.Time, bool) {
	if err := validation.ValidatePeriod(req.Period); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return "", time.Time{}, false
	}
	period := constants.Period(req.Period)

	dateStr := req.Date
	if dateStr == "" {
		dateStr = time.Now().Format(constants.DateLayout)
	}
	date, err := time.Parse(constants.DateLayout, dateStr)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid date %q: expected %s", dateStr, constants.DateLayout), op)
		return "", time.Time{}, false
	}

	return period, date, true
}

func (h *handler) decodeBody(w http.ResponseWriter, r *http.Request, dest interface{}, op string) bool {
	if h.maxBodySize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	}
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxBodySize), op)
			return false
		}
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

func (h *handler) requireStore(w http.ResponseWriter, op string) bool {
	if h.store == nil {
		h.respondError(w, http.StatusServiceUnavailable, "target store is not configured", op)
		return false
	}
	return true
}

func (h *handler) respondError(w http.ResponseWriter, status int, msg string, op string) {
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
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func toTargetPayload(record store.TargetRecord) targetPayload {
	return targetPayload{
		ID:        record.ID,
		QueryType: string(record.QueryType),
		StartDate: record.StartDate,
		EndDate:   record.EndDate,
		Values:    record.Values,
	}
}
