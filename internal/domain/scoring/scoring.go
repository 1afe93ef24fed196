// Package scoring computes per-driver composite risk scores from the
// canonical dataset.
//
// Scoring is a pure function of (events, window, weights): identical inputs
// always produce identical scores and rankings, and changing the weights
// only requires re-scoring, never re-ingestion.
package scoring

import (
	"math"
	"sort"
	"time"

	"github.com/minehaul/fleetsafety/internal/domain/model"
)

// Default weight applied to event types absent from the configured map.
const defaultEventWeight = 1.0

// Scorer computes composite risk scores.
type Scorer struct {
	weights       map[model.EventType]float64
	defaultWeight float64
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithWeights sets event-type weights from configuration. Non-positive
// weights are ignored.
func WithWeights(weights map[string]float64) Option {
	return func(s *Scorer) {
		s.weights = make(map[model.EventType]float64, len(weights))
		for name, w := range weights {
			if w > 0 {
				s.weights[model.EventType(name)] = w
			}
		}
	}
}

// WithDefaultWeight sets the weight for event types not in the map.
func WithDefaultWeight(w float64) Option {
	return func(s *Scorer) {
		if w > 0 {
			s.defaultWeight = w
		}
	}
}

// New creates a Scorer with configuration options.
func New(opts ...Option) *Scorer {
	s := &Scorer{
		weights:       map[model.EventType]float64{},
		defaultWeight: defaultEventWeight,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Weight returns the configured weight for an event type.
func (s *Scorer) Weight(t model.EventType) float64 {
	if w, ok := s.weights[t]; ok {
		return w
	}
	return s.defaultWeight
}

// Score computes a risk score for every driver in the dataset over the
// half-open window [from, to). Drivers with no qualifying events score
// exactly zero; the population is the full profile table, not only drivers
// with incidents.
func (s *Scorer) Score(ds *model.Dataset, from, to time.Time) map[string]model.RiskScore {
	scores := make(map[string]model.RiskScore, len(ds.Drivers))
	for id := range ds.Drivers {
		scores[id] = model.RiskScore{
			EntityID:    id,
			WindowStart: from,
			WindowEnd:   to,
			Factors:     map[model.EventType]model.Factor{},
		}
	}

	for _, e := range ds.Events {
		if e.DriverID == "" || e.OccurredAt.Before(from) || !e.OccurredAt.Before(to) {
			continue
		}
		sc, ok := scores[e.DriverID]
		if !ok {
			// Events referencing unknown drivers were dropped at
			// normalization; this only guards hand-built datasets.
			continue
		}
		f := sc.Factors[e.Type]
		f.Count++
		f.Weight = s.Weight(e.Type)
		f.Contribution = float64(f.Count) * f.Weight
		sc.Factors[e.Type] = f
		sc.RawCount++
		scores[e.DriverID] = sc
	}

	days := windowDays(from, to)
	for id, sc := range scores {
		var composite float64
		for _, f := range sc.Factors {
			composite += f.Contribution
		}
		sc.Composite = composite
		sc.Rate = float64(sc.RawCount) / days
		scores[id] = sc
	}
	return scores
}

// Rank orders scores deterministically: composite descending, then raw
// event count descending, then driver id ascending.
func Rank(scores map[string]model.RiskScore) []model.RiskScore {
	ranked := make([]model.RiskScore, 0, len(scores))
	for _, sc := range scores {
		ranked = append(ranked, sc)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Composite != ranked[j].Composite {
			return ranked[i].Composite > ranked[j].Composite
		}
		if ranked[i].RawCount != ranked[j].RawCount {
			return ranked[i].RawCount > ranked[j].RawCount
		}
		return ranked[i].EntityID < ranked[j].EntityID
	})
	return ranked
}

// windowDays is the scoring window length in whole days, at least one, used
// as the event-rate denominator when no odometer data is available.
func windowDays(from, to time.Time) float64 {
	d := math.Ceil(to.Sub(from).Hours() / 24)
	if d < 1 {
		return 1
	}
	return d
}
