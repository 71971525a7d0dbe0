// Package intent resolves what the user wants. Resolution is layered:
// trigger-phrase matching first (no model calls), then dual-model
// structured extraction with semantic cross-checking.
package intent

import (
	"hash/fnv"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
)

// matcherCacheSize bounds the folded-trigger memo across domains.
const matcherCacheSize = 256

type foldedTrigger struct {
	phrase string
	intent string
}

// Matcher performs trigger-phrase matching, the first resolution layer.
// A hit costs zero model calls. Folded trigger sets are memoized per
// domain revision since matching runs on every turn.
type Matcher struct {
	folded *lru.Cache[string, []foldedTrigger]
}

func NewMatcher() *Matcher {
	cache, _ := lru.New[string, []foldedTrigger](matcherCacheSize)
	return &Matcher{folded: cache}
}

// Match scans the utterance for any of the domain's trigger phrases,
// case-insensitively. The first hit resolves immediately with full
// confidence and no extracted entities; entity collection is the plan's
// job on this path.
func (m *Matcher) Match(d *domain.Domain, utterance string) (*domain.IntentResolution, bool) {
	triggers := m.triggersFor(d)
	if len(triggers) == 0 {
		return nil, false
	}
	folded := strings.ToLower(utterance)
	for _, trig := range triggers {
		if strings.Contains(folded, trig.phrase) {
			return &domain.IntentResolution{
				Intent:     trig.intent,
				Confidence: 1.0,
				Layer:      domain.LayerTrigger,
			}, true
		}
	}
	return nil, false
}

func (m *Matcher) triggersFor(d *domain.Domain) []foldedTrigger {
	key := d.ID + "/" + triggerDigest(d.Triggers)
	if cached, ok := m.folded.Get(key); ok {
		return cached
	}
	folded := make([]foldedTrigger, 0, len(d.Triggers))
	for _, trig := range d.Triggers {
		phrase := strings.ToLower(strings.TrimSpace(trig.Phrase))
		if phrase == "" {
			continue
		}
		folded = append(folded, foldedTrigger{phrase: phrase, intent: trig.Intent})
	}
	m.folded.Add(key, folded)
	return folded
}

// triggerDigest keys the memo by trigger content so a reloaded domain with
// edited phrases never matches against a stale fold.
func triggerDigest(triggers []domain.TriggerPhrase) string {
	h := fnv.New64a()
	for _, trig := range triggers {
		h.Write([]byte(trig.Phrase))
		h.Write([]byte{0})
		h.Write([]byte(trig.Intent))
		h.Write([]byte{1})
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
