// Package matcher scores candidate athlete identities against noisy
// import rows. Matching is deterministic and explainable: edit-distance
// similarity on name parts plus a team hint bonus/penalty, classified
// against two confidence thresholds. Low-confidence results are flagged
// for manual review instead of being applied or discarded.
package matcher

import (
	"math"
	"sort"
	"strings"

	"github.com/agext/levenshtein"

	"github.com/apexperf/roster-cli/internal/model"
	"github.com/apexperf/roster-cli/internal/normalize"
)

// Config tunes match classification.
type Config struct {
	// HighConfidence and above auto-applies; LowConfidence and above but
	// below HighConfidence goes to manual review; below LowConfidence is
	// reported as no match. Defaults: 90 / 75.
	HighConfidence  int
	LowConfidence   int
	MaxAlternatives int
	// MinNameSimilarity discards entries whose first AND last name are
	// both below this similarity. Default: 0.55.
	MinNameSimilarity float64
}

// scoring weights: last names carry more identity signal than first
// names, which are frequently shortened (Jon/Jonathan, Mike/Michael).
const (
	firstNameWeight = 0.45
	lastNameWeight  = 0.55
	teamBonus       = 5
	teamPenalty     = 15
)

// Engine resolves matching criteria against a roster. Stateless and safe
// for concurrent use across rows.
type Engine struct {
	cfg Config
}

// New creates an Engine, applying defaults for unset config values.
func New(cfg Config) *Engine {
	if cfg.HighConfidence <= 0 {
		cfg.HighConfidence = 90
	}
	if cfg.LowConfidence <= 0 {
		cfg.LowConfidence = 75
	}
	if cfg.MaxAlternatives <= 0 {
		cfg.MaxAlternatives = 2
	}
	if cfg.MinNameSimilarity <= 0 {
		cfg.MinNameSimilarity = 0.55
	}
	return &Engine{cfg: cfg}
}

// scored pairs a roster entry with its similarity breakdown.
type scored struct {
	entry    model.RosterEntry
	score    int
	firstSim float64
	lastSim  float64
	team     teamState
}

type teamState int

const (
	teamNoHint teamState = iota
	teamMatched
	teamUnmatched
	teamUnknown // hint present, entry has no team
)

// Match scores every roster entry against the criteria and returns the
// best candidate with confidence, ranked alternatives, and a review flag.
// Pure function: no I/O, deterministic for a given (criteria, roster).
func (e *Engine) Match(criteria model.MatchingCriteria, roster []model.RosterEntry) model.MatchResult {
	qFirst := normalize.Name(criteria.FirstName)
	qLast := normalize.Name(criteria.LastName)
	qFull := normalize.FullName(criteria.FirstName, criteria.LastName)
	qTeam := normalize.Name(criteria.TeamName)

	if qFull == "" {
		return model.MatchResult{Kind: model.MatchNone}
	}

	// Exact pass. A mismatched team hint does not reject an identical
	// name outright; the entry falls through to the fuzzy pass where the
	// team penalty down-ranks it into the review band.
	for _, entry := range roster {
		if normalize.FullName(entry.FirstName, entry.LastName) != qFull {
			continue
		}
		if qTeam == "" || normalize.Name(entry.TeamName) == qTeam {
			reason := "exact name match"
			if qTeam != "" {
				reason = "exact name and team match"
			}
			return model.MatchResult{
				Kind:       model.MatchExact,
				Confidence: 100,
				Candidate:  &model.MatchCandidate{Entry: entry, Confidence: 100, Reason: reason},
			}
		}
	}

	// Fuzzy pass.
	candidates := make([]scored, 0, len(roster))
	for _, entry := range roster {
		s := e.scoreEntry(qFirst, qLast, qTeam, entry)
		if s.firstSim < e.cfg.MinNameSimilarity && s.lastSim < e.cfg.MinNameSimilarity {
			continue
		}
		candidates = append(candidates, s)
	}

	// Stable sort keeps roster insertion order on ties, so repeated calls
	// with the same inputs always rank identically.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) == 0 {
		return model.MatchResult{Kind: model.MatchNone}
	}

	top := candidates[0]
	alternatives := e.alternatives(candidates[1:])

	if top.score < e.cfg.LowConfidence {
		// Nothing confident enough to apply or review; the top scorers
		// are still surfaced as suggestions for fixing the source row.
		return model.MatchResult{
			Kind:         model.MatchNone,
			Alternatives: e.alternatives(candidates),
		}
	}

	return model.MatchResult{
		Kind:       model.MatchFuzzy,
		Confidence: top.score,
		Candidate: &model.MatchCandidate{
			Entry:      top.entry,
			Confidence: top.score,
			Reason:     top.reason(),
		},
		Alternatives:         alternatives,
		RequiresManualReview: top.score < e.cfg.HighConfidence,
	}
}

func (e *Engine) scoreEntry(qFirst, qLast, qTeam string, entry model.RosterEntry) scored {
	s := scored{
		entry:    entry,
		firstSim: similarity(qFirst, normalize.Name(entry.FirstName)),
		lastSim:  similarity(qLast, normalize.Name(entry.LastName)),
	}

	base := (s.firstSim*firstNameWeight + s.lastSim*lastNameWeight) * 100

	eTeam := normalize.Name(entry.TeamName)
	switch {
	case qTeam == "":
		s.team = teamNoHint
	case eTeam == "":
		s.team = teamUnknown
	case eTeam == qTeam:
		s.team = teamMatched
		base += teamBonus
	default:
		s.team = teamUnmatched
		base -= teamPenalty
	}

	score := int(math.Round(base))
	if score > 99 {
		score = 99 // 100 is reserved for exact matches
	}
	if score < 0 {
		score = 0
	}
	s.score = score
	return s
}

func (e *Engine) alternatives(candidates []scored) []model.MatchCandidate {
	n := len(candidates)
	if n > e.cfg.MaxAlternatives {
		n = e.cfg.MaxAlternatives
	}
	if n == 0 {
		return nil
	}
	out := make([]model.MatchCandidate, 0, n)
	for _, c := range candidates[:n] {
		out = append(out, model.MatchCandidate{
			Entry:      c.entry,
			Confidence: c.score,
			Reason:     c.reason(),
		})
	}
	return out
}

// similarity returns 1 - normalized edit distance in [0,1]. Empty query
// parts contribute nothing rather than matching everything.
func similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	return levenshtein.Similarity(a, b, nil)
}

// reason renders a human-readable explanation of the score.
func (s scored) reason() string {
	parts := []string{
		"first name " + simWord(s.firstSim),
		"last name " + simWord(s.lastSim),
	}
	switch s.team {
	case teamMatched:
		parts = append(parts, "team matched")
	case teamUnmatched:
		parts = append(parts, "team unmatched")
	case teamUnknown:
		parts = append(parts, "team unknown")
	}
	return strings.Join(parts, ", ")
}

func simWord(sim float64) string {
	switch {
	case sim >= 1:
		return "exact"
	case sim >= 0.8:
		return "close"
	case sim >= 0.55:
		return "similar"
	default:
		return "dissimilar"
	}
}
