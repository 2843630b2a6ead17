package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Simplici0/importcalc/internal/inventory"
	"github.com/Simplici0/importcalc/internal/pricing"
	"github.com/Simplici0/importcalc/internal/report"
	"github.com/Simplici0/importcalc/internal/store"
)

type server struct {
	store    *store.Store
	log      *zap.Logger
	currency string
	now      func() time.Time
}

func newServer(st *store.Store, log *zap.Logger, currency string) *server {
	return &server{store: st, log: log, currency: currency, now: time.Now}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/settings", s.handleSettingsGet)
		r.Put("/settings", s.handleSettingsSave)
		r.Post("/settings", s.handleSettingsSave)

		r.Get("/slabs", s.handleSlabsList)
		r.Post("/slabs/{id}", s.handleSlabUpdate)

		r.Post("/quote", s.handleQuote)

		r.Get("/brands", s.handleBrands)
		r.Get("/devices", s.handleDevicesList)
		r.Post("/devices", s.handleDeviceCreate)
		r.Delete("/devices/{id}", s.handleDeviceDelete)

		r.Get("/export/devices.{format}", s.handleExport)
	})

	return r
}

func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.log.Info("request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

type settingsResponse struct {
	Settings pricing.Settings `json:"settings"`
}

func (s *server) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Settings(r.Context())
	if err != nil {
		s.internalError(w, r, "failed to load settings", err)
		return
	}
	s.writeJSON(w, settingsResponse{Settings: st}, http.StatusOK)
}

func (s *server) handleSettingsSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writeError(w, "invalid_form", "invalid form", "", http.StatusBadRequest)
		return
	}

	current, err := s.store.Settings(r.Context())
	if err != nil {
		s.internalError(w, r, "failed to load settings", err)
		return
	}

	st, err := parseSettingsForm(r, current)
	if err != nil {
		s.writeValidationError(w, err)
		return
	}

	if err := s.store.SaveSettings(r.Context(), st); err != nil {
		s.internalError(w, r, "failed to save settings", err)
		return
	}

	s.writeJSON(w, settingsResponse{Settings: st}, http.StatusOK)
}

type slabsResponse struct {
	Slabs    []pricing.Slab `json:"slabs"`
	Warnings []string       `json:"warnings"`
}

func (s *server) handleSlabsList(w http.ResponseWriter, r *http.Request) {
	slabs, err := s.store.Slabs(r.Context())
	if err != nil {
		s.internalError(w, r, "failed to load slabs", err)
		return
	}
	s.writeJSON(w, slabsResponse{Slabs: slabs, Warnings: slabWarnings(slabs)}, http.StatusOK)
}

func (s *server) handleSlabUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseSlabID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeValidationError(w, err)
		return
	}

	if err := r.ParseForm(); err != nil {
		s.writeError(w, "invalid_form", "invalid form", "", http.StatusBadRequest)
		return
	}

	feeA, feeB, err := parseSlabFeesForm(r)
	if err != nil {
		s.writeValidationError(w, err)
		return
	}

	if err := s.store.UpdateSlabFees(r.Context(), id, feeA, feeB); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, "not_found", "slab not found", "", http.StatusNotFound)
			return
		}
		s.internalError(w, r, "failed to update slab", err)
		return
	}

	s.handleSlabsList(w, r)
}

type quoteResponse struct {
	Input    pricing.Input  `json:"input"`
	Result   pricing.Result `json:"result"`
	Warnings []string       `json:"warnings"`
}

func (s *server) handleQuote(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writeError(w, "invalid_form", "invalid form", "", http.StatusBadRequest)
		return
	}

	in := parseQuoteForm(r)
	settings, slabs, err := s.pricingState(r)
	if err != nil {
		s.internalError(w, r, "failed to load pricing state", err)
		return
	}

	result := pricing.Evaluate(in, settings, slabs)
	s.log.Debug("quote",
		zap.Float64("base_usd", result.BaseUSD),
		zap.String("sale", describeAmount(in.ExpectedSalePrice)),
		zap.String("slab", result.SlabLabel),
	)

	s.writeJSON(w, quoteResponse{
		Input:    in,
		Result:   result,
		Warnings: resultWarnings(slabs, result.UsedFallbackSlab),
	}, http.StatusOK)
}

func (s *server) handleBrands(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string][]string{"brands": inventory.Brands}, http.StatusOK)
}

type devicesResponse struct {
	Devices  []inventory.Priced `json:"devices"`
	Summary  inventory.Summary  `json:"summary"`
	Warnings []string           `json:"warnings"`
}

func (s *server) handleDevicesList(w http.ResponseWriter, r *http.Request) {
	settings, slabs, err := s.pricingState(r)
	if err != nil {
		s.internalError(w, r, "failed to load pricing state", err)
		return
	}

	devices, err := s.store.Devices(r.Context())
	if err != nil {
		s.internalError(w, r, "failed to load devices", err)
		return
	}

	priced := inventory.Reprice(devices, settings, slabs)
	s.writeJSON(w, devicesResponse{
		Devices:  priced,
		Summary:  inventory.Summarize(priced),
		Warnings: slabWarnings(slabs),
	}, http.StatusOK)
}

func (s *server) handleDeviceCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writeError(w, "invalid_form", "invalid form", "", http.StatusBadRequest)
		return
	}

	device, err := inventory.NewDevice(parseDraftForm(r), s.now())
	if err != nil {
		s.writeValidationError(w, err)
		return
	}

	if err := s.store.AddDevice(r.Context(), device); err != nil {
		s.internalError(w, r, "failed to add device", err)
		return
	}

	settings, slabs, err := s.pricingState(r)
	if err != nil {
		s.internalError(w, r, "failed to load pricing state", err)
		return
	}

	s.log.Info("device added", zap.String("id", device.ID), zap.String("name", device.Name()))
	s.writeJSON(w, inventory.Priced{
		Device: device,
		Result: pricing.Evaluate(device.Input(), settings, slabs),
	}, http.StatusCreated)
}

func (s *server) handleDeviceDelete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	if err := s.store.DeleteDevice(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, "not_found", "device not found", "", http.StatusNotFound)
			return
		}
		s.internalError(w, r, "failed to delete device", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(chi.URLParam(r, "format"))
	f, ok := exportFormats[format]
	if !ok {
		s.writeError(w, "not_found", fmt.Sprintf("unknown export format %q", format), "", http.StatusNotFound)
		return
	}

	now := s.now()
	data, err := renderExport(r.Context(), s.store, format, s.currency, now)
	if err != nil {
		if errors.Is(err, report.ErrEmpty) {
			s.writeError(w, "empty", "there are no devices to export", "", http.StatusConflict)
			return
		}
		s.internalError(w, r, "failed to render export", err)
		return
	}

	filename := fmt.Sprintf("devices-%s.%s", now.UTC().Format("20060102-150405"), format)
	w.Header().Set("Content-Type", f.contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *server) pricingState(r *http.Request) (pricing.Settings, []pricing.Slab, error) {
	settings, err := s.store.Settings(r.Context())
	if err != nil {
		return pricing.Settings{}, nil, err
	}
	slabs, err := s.store.Slabs(r.Context())
	if err != nil {
		return pricing.Settings{}, nil, err
	}
	return settings, slabs, nil
}

// slabWarnings never returns nil so the JSON field is always a list.
func slabWarnings(slabs []pricing.Slab) []string {
	warnings := pricing.ValidateSlabs(slabs)
	if warnings == nil {
		warnings = []string{}
	}
	return warnings
}

func resultWarnings(slabs []pricing.Slab, usedFallback bool) []string {
	warnings := slabWarnings(slabs)
	if usedFallback {
		warnings = append(warnings, "no slab covers this value; the last slab was used")
	}
	return warnings
}

// writeJSON encodes the whole body before the status line is written.
func (s *server) writeJSON(w http.ResponseWriter, data any, status int) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		s.log.Error("encode response", zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":"internal","message":"failed to encode response"}}` + "\n"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (s *server) writeError(w http.ResponseWriter, code, message, field string, status int) {
	body := map[string]string{
		"code":    code,
		"message": message,
	}
	if field != "" {
		body["field"] = field
	}
	s.writeJSON(w, map[string]any{"error": body}, status)
}

func (s *server) writeValidationError(w http.ResponseWriter, err error) {
	var fe *fieldError
	var ve *inventory.ValidationError
	switch {
	case errors.As(err, &fe):
		s.writeError(w, "invalid", err.Error(), fe.Field, http.StatusBadRequest)
	case errors.As(err, &ve):
		s.writeError(w, "invalid", err.Error(), ve.Field, http.StatusBadRequest)
	default:
		s.writeError(w, "invalid", err.Error(), "", http.StatusBadRequest)
	}
}

func (s *server) internalError(w http.ResponseWriter, r *http.Request, message string, err error) {
	s.log.Error(message,
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	s.writeError(w, "internal", message, "", http.StatusInternalServerError)
}
