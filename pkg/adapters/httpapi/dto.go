package httpapi

import (
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
)

// TurnRequest is the POST /v1/turns body.
type TurnRequest struct {
	SessionID string `json:"sessionId,omitempty"`
	DomainID  string `json:"domainId"`
	Utterance string `json:"utterance"`
}

// TurnResponse echoes the turn outcome.
type TurnResponse struct {
	SessionID string `json:"sessionId"`
	Response  string `json:"response"`
	Status    string `json:"status"`
	Terminal  bool   `json:"terminal"`
}

func turnResponseFrom(r *domain.TurnResult) TurnResponse {
	return TurnResponse{
		SessionID: r.SessionID,
		Response:  r.Response,
		Status:    string(r.Status),
		Terminal:  r.Terminal,
	}
}

// DomainSummary is one row of GET /v1/domains.
type DomainSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Functions int    `json:"functions"`
	Triggers  int    `json:"triggers"`
}

// DomainList wraps the domain listing.
type DomainList struct {
	Domains []DomainSummary `json:"domains"`
}

func summaryFrom(d *domain.Domain) DomainSummary {
	return DomainSummary{
		ID:        d.ID,
		Name:      d.Name,
		Functions: len(d.Functions),
		Triggers:  len(d.Triggers),
	}
}

// Pattern is one row of GET /v1/patterns. The review queue cares about
// days, not instants, so the seen fields use the date wire format.
type Pattern struct {
	Fingerprint   string             `json:"fingerprint"`
	DomainID      string             `json:"domainId"`
	Intent        string             `json:"intent"`
	Sequence      []string           `json:"sequence"`
	TimesObserved int64              `json:"timesObserved"`
	SuccessRate   float64            `json:"successRate"`
	Status        string             `json:"status"`
	FirstSeen     openapi_types.Date `json:"firstSeen"`
	LastSeen      openapi_types.Date `json:"lastSeen"`
}

// PatternList wraps the pattern listing.
type PatternList struct {
	Patterns []Pattern `json:"patterns"`
}

func patternFrom(obs *domain.PatternObservation) Pattern {
	return Pattern{
		Fingerprint:   obs.Fingerprint,
		DomainID:      obs.DomainID,
		Intent:        obs.Intent,
		Sequence:      obs.Sequence,
		TimesObserved: obs.TimesObserved,
		SuccessRate:   obs.SuccessRate(),
		Status:        string(obs.Status),
		FirstSeen:     openapi_types.Date{Time: obs.FirstSeen},
		LastSeen:      openapi_types.Date{Time: obs.LastSeen},
	}
}

// ApprovalResponse reports a successful promotion.
type ApprovalResponse struct {
	Fingerprint string `json:"fingerprint"`
	PlanID      string `json:"planId"`
	Steps       int    `json:"steps"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
