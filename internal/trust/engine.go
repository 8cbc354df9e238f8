package trust

import (
	"math"
	"time"

	"github.com/chaincontext/chaincontext/internal/model"
)

const secondsPerDay = 86400

// Engine computes deterministic trust scores for evidence items.
// Scoring is a pure function of the item and the current time; nothing is
// cached because recency is time-dependent.
type Engine struct {
	cfg model.TrustConfig
	now func() time.Time
}

// NewEngine creates a trust engine. A nil config uses the built-in defaults.
func NewEngine(cfg *model.TrustConfig) *Engine {
	if cfg == nil {
		cfg = &model.DefaultConfig().Trust
	}
	return &Engine{
		cfg: *cfg,
		now: time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Score computes the factor breakdown for one evidence item.
// It never fails: a record that cannot be scored sensibly degrades to a
// neutral overall score so one bad item cannot abort a whole query.
func (e *Engine) Score(item model.EvidenceItem) model.TrustFactors {
	f := model.TrustFactors{
		Recency:           e.recency(item.Timestamp),
		SourceReliability: e.sourceReliability(item.Source),
		CrossVerification: e.crossVerification(item.CrossVerificationCount),
	}
	if item.OnchainVerified {
		f.OnchainBonus = e.cfg.OnchainBonus
	}

	overall := e.cfg.BaseRate*e.cfg.BaseWeight +
		f.Recency*e.cfg.RecencyWeight +
		f.SourceReliability*e.cfg.SourceWeight +
		f.CrossVerification*e.cfg.CrossWeight +
		f.OnchainBonus*e.cfg.OnchainWeight

	if math.IsNaN(overall) || math.IsInf(overall, 0) {
		overall = 0.5
	}
	f.Overall = clamp01(overall)
	return f
}

// ScoreAll scores a batch of items, preserving input order
func (e *Engine) ScoreAll(items []model.EvidenceItem) []model.ScoredEvidence {
	scored := make([]model.ScoredEvidence, 0, len(items))
	for _, item := range items {
		scored = append(scored, model.ScoredEvidence{
			EvidenceItem: item,
			TrustScore:   e.Score(item).Overall,
		})
	}
	return scored
}

// recency decays exponentially with age. Fresh data scores ~1.0 and a
// 30-day-old item scores ~0.05; very old evidence approaches but never
// reaches zero. Zero, negative, or future timestamps count as maximally
// fresh rather than penalizing bad input.
func (e *Engine) recency(timestamp int64) float64 {
	now := e.now().Unix()
	if timestamp <= 0 || timestamp > now {
		return 1.0
	}
	ageInDays := float64(now-timestamp) / secondsPerDay
	return math.Exp(-e.cfg.RecencyDecay * ageInDays)
}

// sourceReliability looks up the configured reliability for the source kind.
// Unknown kinds fall below every configured tier, signaling unvetted input.
func (e *Engine) sourceReliability(source model.SourceKind) float64 {
	if score, ok := e.cfg.SourceReliability[string(source)]; ok {
		return score
	}
	return e.cfg.UnknownSourceScore
}

// crossVerification maps a confirmation count through a logistic transform:
// 1 confirmation ~0.46, 2 ~0.76, 3 ~0.91, asymptoting to 1. A missing count
// defaults to one self-confirmation rather than zero trust.
func (e *Engine) crossVerification(count uint) float64 {
	n := float64(count)
	if count == 0 {
		n = 1
	}
	return 2.0/(1.0+math.Exp(-e.cfg.CrossSteepness*n)) - 1.0
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0.0), 1.0)
}
