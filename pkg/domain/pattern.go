package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// PatternStatus tracks an observation's position in the promotion funnel.
type PatternStatus string

const (
	PatternObserved  PatternStatus = "observed"
	PatternSuggested PatternStatus = "suggested"
	PatternApproved  PatternStatus = "approved"
)

// PatternObservation aggregates fallback executions sharing the same
// (domain, intent, function-sequence) fingerprint. Counters are updated
// atomically by the pattern store; parallel sessions hitting the same
// fingerprint must never lose increments.
type PatternObservation struct {
	Fingerprint   string        `json:"fingerprint"`
	DomainID      string        `json:"domainId"`
	Intent        string        `json:"intent"`
	Sequence      []string      `json:"sequence"`
	TimesObserved int64         `json:"timesObserved"`
	SuccessCount  int64         `json:"successCount"`
	Status        PatternStatus `json:"status"`
	FirstSeen     time.Time     `json:"firstSeen,omitempty"`
	LastSeen      time.Time     `json:"lastSeen,omitempty"`
}

// SuccessRate is SuccessCount over TimesObserved, 0 when unobserved.
func (p *PatternObservation) SuccessRate() float64 {
	if p.TimesObserved == 0 {
		return 0
	}
	return float64(p.SuccessCount) / float64(p.TimesObserved)
}

// PatternFingerprint derives the deterministic key for a
// (domain, intent, ordered function sequence) triple.
func PatternFingerprint(domainID, intent string, sequence []string) string {
	h := sha256.New()
	h.Write([]byte(domainID))
	h.Write([]byte{0})
	h.Write([]byte(intent))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(sequence, ">")))
	return hex.EncodeToString(h.Sum(nil))[:24]
}
