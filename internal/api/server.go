// Package api exposes the pipeline over HTTP. Handlers decode, delegate to
// the orchestrator and its components, and map domain errors onto status
// codes: validation 400, gate denial 403, exhausted capacity 409, dependency
// failure 502.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arjun1665/SmartFleet/internal/booking"
	"github.com/arjun1665/SmartFleet/internal/fleet"
	"github.com/arjun1665/SmartFleet/internal/orchestrator"
	"github.com/arjun1665/SmartFleet/internal/rca"
	"github.com/arjun1665/SmartFleet/internal/security"
	"github.com/arjun1665/SmartFleet/internal/store"
	"github.com/arjun1665/SmartFleet/internal/voice"
	"github.com/arjun1665/SmartFleet/pkg/structlog"
)

const maxBodyBytes = 1 << 20

// Server holds the handler dependencies.
type Server struct {
	orch    *orchestrator.Orchestrator
	gate    *security.Gate
	booking *booking.Manager
	rca     *rca.Analyzer
	store   store.Store
	logger  *structlog.Logger
}

// NewServer constructs the HTTP surface.
func NewServer(
	orch *orchestrator.Orchestrator,
	gate *security.Gate,
	bm *booking.Manager,
	analyzer *rca.Analyzer,
	st store.Store,
	logger *structlog.Logger,
) *Server {
	return &Server{orch: orch, gate: gate, booking: bm, rca: analyzer, store: st, logger: logger}
}

// Routes registers all endpoints on a fresh mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /telemetry", s.handleOrchestrate)
	mux.HandleFunc("POST /orchestrate", s.handleOrchestrate)
	mux.HandleFunc("POST /predict", s.handlePredict)
	mux.HandleFunc("POST /booking/select", s.handleBookingSelect)
	mux.HandleFunc("POST /security/check", s.handleSecurityCheck)
	mux.HandleFunc("POST /rca/analyze", s.handleRCAAnalyze)
	mux.HandleFunc("POST /feedback", s.handleFeedback)
	mux.HandleFunc("POST /voice/call", s.handleVoiceCall)
	mux.HandleFunc("GET /customer/{id}/preferences", s.handlePreferences)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// handleOrchestrate serves both /telemetry and /orchestrate; ingesting a
// sample always drives the full pipeline.
func (s *Server) handleOrchestrate(w http.ResponseWriter, r *http.Request) {
	var req orchestrateRequest
	if !s.decode(w, r, &req) {
		return
	}
	result, err := s.orch.Run(r.Context(), orchestrator.RunInput{
		CustomerID: req.CustomerID,
		Sample:     req.Telemetry.Sample(),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req telemetryRequest
	if !s.decode(w, r, &req) {
		return
	}
	result, err := s.orch.Predict(r.Context(), orchestrator.RunInput{
		CustomerID: req.CustomerID,
		Sample:     req.Telemetry.Sample(),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleBookingSelect(w http.ResponseWriter, r *http.Request) {
	var req bookingSelectRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.CustomerID == uuid.Nil || req.AlertID == uuid.Nil {
		s.writeError(w, r, &orchestrator.ValidationError{Field: "customer_id/alert_id", Msg: "required"})
		return
	}
	reservation, err := s.booking.Reserve(r.Context(), req.CustomerID, req.AlertID, req.PreferredCenter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}

func (s *Server) handleSecurityCheck(w http.ResponseWriter, r *http.Request) {
	var req securityCheckRequest
	if !s.decode(w, r, &req) {
		return
	}
	decision := s.gate.Check(r.Context(), security.CheckRequest{
		RequestID:  req.RequestID,
		CustomerID: req.CustomerID,
		Action:     req.Action,
		Telemetry:  req.Telemetry,
	})
	writeJSON(w, http.StatusOK, decision)
}

func (s *Server) handleRCAAnalyze(w http.ResponseWriter, r *http.Request) {
	var req rcaAnalyzeRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.AlertID == uuid.Nil {
		s.writeError(w, r, &orchestrator.ValidationError{Field: "alert_id", Msg: "required"})
		return
	}
	component := req.Component
	if component == "" {
		component = fleet.ComponentGeneral
	}
	result, err := s.rca.Analyze(r.Context(), req.AlertID, component, req.Features)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.BookingID == uuid.Nil {
		s.writeError(w, r, &orchestrator.ValidationError{Field: "booking_id", Msg: "required"})
		return
	}
	if req.CSAT < 1 || req.CSAT > 5 {
		s.writeError(w, r, &orchestrator.ValidationError{Field: "csat", Msg: "must be between 1 and 5"})
		return
	}
	fb := &fleet.Feedback{
		ID:              uuid.New(),
		BookingID:       req.BookingID,
		CSAT:            req.CSAT,
		TechnicianNotes: req.TechnicianNotes,
	}
	if err := s.store.InsertFeedback(r.Context(), fb); err != nil {
		s.writeError(w, r, &orchestrator.UpstreamError{Op: "insert feedback", Err: err})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"feedback_id": fb.ID})
}

func (s *Server) handleVoiceCall(w http.ResponseWriter, r *http.Request) {
	var req voiceCallRequest
	if !s.decode(w, r, &req) {
		return
	}
	script := voice.RenderCallScript(voice.CallFacts{
		RiskLevel:          req.RiskLevel,
		PredictedComponent: req.PredictedComponent,
		BookingCenterID:    req.CenterID,
		BookingStartsAt:    req.StartsAt,
		Language:           req.Language,
		Channel:            req.Channel,
	})
	writeJSON(w, http.StatusOK, map[string]string{"script": script})
}

func (s *Server) handlePreferences(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, &orchestrator.ValidationError{Field: "id", Msg: "must be a uuid"})
		return
	}
	prefs, err := s.store.GetPreferences(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// absent preferences fall back to the notification defaults
			writeJSON(w, http.StatusOK, &fleet.CustomerPreference{
				CustomerID: id,
				Language:   "en",
				Channel:    "sms",
			})
			return
		}
		s.writeError(w, r, &orchestrator.UpstreamError{Op: "load preferences", Err: err})
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.writeError(w, r, &orchestrator.ValidationError{Field: "body", Msg: err.Error()})
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		vErr *orchestrator.ValidationError
		sErr *orchestrator.SecurityBlockedError
		uErr *orchestrator.UpstreamError
	)
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &vErr):
		status = http.StatusBadRequest
	case errors.As(err, &sErr):
		status = http.StatusForbidden
	case errors.Is(err, booking.ErrNoSlotAvailable):
		status = http.StatusConflict
	case errors.As(err, &uErr):
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		s.logger.WithContext(r.Context()).Error("request failed", structlog.Fields{
			"path":  r.URL.Path,
			"error": err.Error(),
		})
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
