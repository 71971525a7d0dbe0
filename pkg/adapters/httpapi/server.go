// Package httpapi exposes the engine over HTTP: turns, domain catalog
// reads, pattern administration, a server-sent event stream and the
// Prometheus scrape endpoint.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/logging"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/observability"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/ports"
)

// TurnService processes one conversational turn.
type TurnService interface {
	Handle(ctx context.Context, req domain.TurnRequest) (*domain.TurnResult, error)
}

// PatternPromoter converts a suggested pattern into a persisted plan.
type PatternPromoter interface {
	Promote(ctx context.Context, d *domain.Domain, fingerprint string) (*domain.Plan, error)
}

// EventStream hands out subscriptions to the engine's event feed.
type EventStream interface {
	Subscribe() (<-chan domain.Event, func())
}

// Server handles the HTTP surface.
type Server struct {
	turns    TurnService
	catalog  ports.Catalog
	patterns ports.PatternStore
	promoter PatternPromoter
	stream   EventStream
	metrics  *observability.Metrics
	log      *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithEventStream enables GET /v1/events.
func WithEventStream(stream EventStream) Option {
	return func(s *Server) { s.stream = stream }
}

// WithMetrics enables GET /metrics on the metrics registry.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger configures a logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// NewHandler builds the HTTP handler.
func NewHandler(turns TurnService, catalog ports.Catalog, patterns ports.PatternStore, promoter PatternPromoter, opts ...Option) http.Handler {
	s := &Server{
		turns:    turns,
		catalog:  catalog,
		patterns: patterns,
		promoter: promoter,
		log:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/healthz", s.health)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/turns", s.postTurn)
		r.Get("/domains", s.listDomains)
		r.Get("/domains/{id}", s.getDomain)
		r.Get("/patterns", s.listPatterns)
		r.Post("/patterns/{fingerprint}/approve", s.approvePattern)
		r.Delete("/patterns/{fingerprint}", s.dismissPattern)
		if s.stream != nil {
			r.Get("/events", s.subscribeEvents)
		}
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// postTurn handles POST /v1/turns.
func (s *Server) postTurn(w http.ResponseWriter, r *http.Request) {
	var body TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if body.DomainID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "domainId is required")
		return
	}

	result, err := s.turns.Handle(r.Context(), domain.TurnRequest{
		SessionID: body.SessionID,
		DomainID:  body.DomainID,
		Utterance: body.Utterance,
	})
	if err != nil {
		s.writeTurnError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, turnResponseFrom(result))
}

func (s *Server) writeTurnError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrDomainNotFound):
		writeError(w, http.StatusNotFound, "domain_not_found", err.Error())
	case strings.Contains(err.Error(), "rejected utterance"):
		writeError(w, http.StatusBadRequest, "invalid_utterance", err.Error())
	default:
		s.log.Error("turn failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "turn processing failed")
	}
}

// listDomains handles GET /v1/domains.
func (s *Server) listDomains(w http.ResponseWriter, r *http.Request) {
	ids, err := s.catalog.Domains(r.Context())
	if err != nil {
		s.log.Error("domain list failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "catalog unavailable")
		return
	}

	out := make([]DomainSummary, 0, len(ids))
	for _, id := range ids {
		entry, err := s.catalog.Domain(r.Context(), id)
		if err != nil {
			s.log.Error("domain load failed", "domain", id, "err", err)
			writeError(w, http.StatusInternalServerError, "internal", "catalog unavailable")
			return
		}
		out = append(out, summaryFrom(entry.Domain))
	}
	writeJSON(w, http.StatusOK, DomainList{Domains: out})
}

// getDomain handles GET /v1/domains/{id}.
func (s *Server) getDomain(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry, err := s.catalog.Domain(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrDomainNotFound) {
			writeError(w, http.StatusNotFound, "domain_not_found", "unknown domain "+id)
			return
		}
		s.log.Error("domain load failed", "domain", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "catalog unavailable")
		return
	}
	writeJSON(w, http.StatusOK, entry.Domain)
}

// listPatterns handles GET /v1/patterns?status=. The default view is the
// suggestion queue waiting for human review.
func (s *Server) listPatterns(w http.ResponseWriter, r *http.Request) {
	status := domain.PatternStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = domain.PatternSuggested
	}
	switch status {
	case domain.PatternObserved, domain.PatternSuggested, domain.PatternApproved:
	default:
		writeError(w, http.StatusBadRequest, "bad_request", "unknown pattern status "+string(status))
		return
	}

	observations, err := s.patterns.ListByStatus(r.Context(), status)
	if err != nil {
		s.log.Error("pattern list failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "pattern store unavailable")
		return
	}

	out := make([]Pattern, 0, len(observations))
	for _, obs := range observations {
		out = append(out, patternFrom(obs))
	}
	writeJSON(w, http.StatusOK, PatternList{Patterns: out})
}

// approvePattern handles POST /v1/patterns/{fingerprint}/approve. The
// observation names its own domain, so no request body is needed.
func (s *Server) approvePattern(w http.ResponseWriter, r *http.Request) {
	fingerprint := chi.URLParam(r, "fingerprint")

	obs, err := s.patterns.Get(r.Context(), fingerprint)
	if err != nil {
		if errors.Is(err, domain.ErrPatternNotFound) {
			writeError(w, http.StatusNotFound, "pattern_not_found", "unknown pattern "+fingerprint)
			return
		}
		s.log.Error("pattern load failed", "fingerprint", fingerprint, "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "pattern store unavailable")
		return
	}

	entry, err := s.catalog.Domain(r.Context(), obs.DomainID)
	if err != nil {
		s.log.Error("pattern domain load failed", "fingerprint", fingerprint, "domain", obs.DomainID, "err", err)
		writeError(w, http.StatusConflict, "domain_gone", "pattern's domain is no longer configured")
		return
	}

	plan, err := s.promoter.Promote(r.Context(), entry.Domain, fingerprint)
	if err != nil {
		s.log.Warn("pattern promotion rejected", "fingerprint", fingerprint, "err", err)
		writeError(w, http.StatusConflict, "not_promotable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ApprovalResponse{Fingerprint: fingerprint, PlanID: plan.ID, Steps: len(plan.Steps)})
}

// dismissPattern handles DELETE /v1/patterns/{fingerprint}.
func (s *Server) dismissPattern(w http.ResponseWriter, r *http.Request) {
	fingerprint := chi.URLParam(r, "fingerprint")
	if err := s.patterns.Delete(r.Context(), fingerprint); err != nil {
		if errors.Is(err, domain.ErrPatternNotFound) {
			writeError(w, http.StatusNotFound, "pattern_not_found", "unknown pattern "+fingerprint)
			return
		}
		s.log.Error("pattern delete failed", "fingerprint", fingerprint, "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "pattern store unavailable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Code: code})
}
