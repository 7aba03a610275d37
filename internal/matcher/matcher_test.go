package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexperf/roster-cli/internal/model"
)

func testRoster() []model.RosterEntry {
	return []model.RosterEntry{
		{ID: "a1", FirstName: "John", LastName: "Smith", TeamName: "Tigers", OrganizationID: "org-1"},
		{ID: "a2", FirstName: "Jonathan", LastName: "Smithson", TeamName: "Tigers", OrganizationID: "org-1"},
		{ID: "a3", FirstName: "Maria", LastName: "Garcia", TeamName: "Lions", OrganizationID: "org-1"},
	}
}

func TestMatch_ExactNameAndTeam(t *testing.T) {
	e := New(Config{})

	res := e.Match(model.MatchingCriteria{FirstName: "John", LastName: "Smith", TeamName: "Tigers"}, testRoster())

	assert.Equal(t, model.MatchExact, res.Kind)
	assert.Equal(t, 100, res.Confidence)
	require.NotNil(t, res.Candidate)
	assert.Equal(t, "a1", res.Candidate.Entry.ID)
	assert.False(t, res.RequiresManualReview)
	assert.Equal(t, "exact name and team match", res.Candidate.Reason)
}

func TestMatch_ExactIgnoresCaseAndAccents(t *testing.T) {
	e := New(Config{})
	roster := []model.RosterEntry{
		{ID: "a9", FirstName: "María", LastName: "García", TeamName: "Lions", OrganizationID: "org-1"},
	}

	res := e.Match(model.MatchingCriteria{FirstName: "maria", LastName: "garcia"}, roster)

	assert.Equal(t, model.MatchExact, res.Kind)
	assert.Equal(t, 100, res.Confidence)
	assert.Equal(t, "exact name match", res.Candidate.Reason)
}

func TestMatch_FuzzyNicknameWithTeamHint(t *testing.T) {
	e := New(Config{})

	res := e.Match(model.MatchingCriteria{FirstName: "Jon", LastName: "Smith", TeamName: "Tigers"}, testRoster())

	assert.Equal(t, model.MatchFuzzy, res.Kind)
	require.NotNil(t, res.Candidate)
	assert.Equal(t, "a1", res.Candidate.Entry.ID)
	// first 0.75, last 1.0 -> 88.75 base, +5 team bonus -> 94
	assert.Equal(t, 94, res.Confidence)
	assert.False(t, res.RequiresManualReview)
}

func TestMatch_FuzzyWithoutTeamHintNeedsReview(t *testing.T) {
	e := New(Config{})

	res := e.Match(model.MatchingCriteria{FirstName: "Jon", LastName: "Smith"}, testRoster())

	assert.Equal(t, model.MatchFuzzy, res.Kind)
	// 88.75 rounds to 89: inside the review band [75, 90)
	assert.Equal(t, 89, res.Confidence)
	assert.True(t, res.RequiresManualReview)
}

func TestMatch_TeamMismatchNeverExact(t *testing.T) {
	e := New(Config{})

	res := e.Match(model.MatchingCriteria{FirstName: "John", LastName: "Smith", TeamName: "Lions"}, testRoster())

	// Identical name on a different team lands in the review band, not
	// an automatic apply.
	assert.Equal(t, model.MatchFuzzy, res.Kind)
	require.NotNil(t, res.Candidate)
	assert.Equal(t, "a1", res.Candidate.Entry.ID)
	assert.Equal(t, 85, res.Confidence)
	assert.True(t, res.RequiresManualReview)
	assert.Contains(t, res.Candidate.Reason, "team unmatched")
}

func TestMatch_NoMatchBelowFloor(t *testing.T) {
	e := New(Config{})

	res := e.Match(model.MatchingCriteria{FirstName: "Wei", LastName: "Zhang"}, testRoster())

	assert.Equal(t, model.MatchNone, res.Kind)
	assert.Equal(t, 0, res.Confidence)
	assert.Nil(t, res.Candidate)
	assert.False(t, res.RequiresManualReview)
}

func TestMatch_BelowLowSurfacesSuggestions(t *testing.T) {
	e := New(Config{})
	roster := []model.RosterEntry{
		{ID: "a2", FirstName: "Jonathan", LastName: "Smithson", TeamName: "Tigers", OrganizationID: "org-1"},
	}

	res := e.Match(model.MatchingCriteria{FirstName: "Jon", LastName: "Smith", TeamName: "Tigers"}, roster)

	assert.Equal(t, model.MatchNone, res.Kind)
	assert.Nil(t, res.Candidate)
	require.Len(t, res.Alternatives, 1)
	assert.Equal(t, "a2", res.Alternatives[0].Entry.ID)
	assert.Less(t, res.Alternatives[0].Confidence, 75)
}

func TestMatch_AlternativesCappedAndRanked(t *testing.T) {
	e := New(Config{})
	roster := []model.RosterEntry{
		{ID: "b1", FirstName: "Jon", LastName: "Smith", TeamName: "Tigers"},
		{ID: "b2", FirstName: "John", LastName: "Smith", TeamName: "Tigers"},
		{ID: "b3", FirstName: "Johnny", LastName: "Smith", TeamName: "Tigers"},
		{ID: "b4", FirstName: "Jona", LastName: "Smith", TeamName: "Tigers"},
	}

	res := e.Match(model.MatchingCriteria{FirstName: "Jon", LastName: "Smith", TeamName: "Tigers"}, roster)

	assert.Equal(t, model.MatchExact, res.Kind)
	assert.Equal(t, "b1", res.Candidate.Entry.ID)

	res = e.Match(model.MatchingCriteria{FirstName: "Jhn", LastName: "Smith", TeamName: "Tigers"}, roster)
	require.NotNil(t, res.Candidate)
	assert.LessOrEqual(t, len(res.Alternatives), 2)
	if len(res.Alternatives) == 2 {
		assert.GreaterOrEqual(t, res.Alternatives[0].Confidence, res.Alternatives[1].Confidence)
	}
}

func TestMatch_Deterministic(t *testing.T) {
	e := New(Config{})
	criteria := model.MatchingCriteria{FirstName: "Jon", LastName: "Smith", TeamName: "Tigers"}
	roster := testRoster()

	first := e.Match(criteria, roster)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, e.Match(criteria, roster))
	}
}

func TestMatch_EmptyCriteriaAndRoster(t *testing.T) {
	e := New(Config{})

	res := e.Match(model.MatchingCriteria{}, testRoster())
	assert.Equal(t, model.MatchNone, res.Kind)

	res = e.Match(model.MatchingCriteria{FirstName: "John", LastName: "Smith"}, nil)
	assert.Equal(t, model.MatchNone, res.Kind)
}

func TestMatch_CustomThresholds(t *testing.T) {
	e := New(Config{HighConfidence: 80, LowConfidence: 60})

	// 85 with a mismatched team clears a high threshold of 80.
	res := e.Match(model.MatchingCriteria{FirstName: "John", LastName: "Smith", TeamName: "Lions"}, testRoster())
	assert.Equal(t, model.MatchFuzzy, res.Kind)
	assert.False(t, res.RequiresManualReview)
}

func TestScoreEntry_CapBelowExact(t *testing.T) {
	e := New(Config{})
	s := e.scoreEntry("jon", "smith", "tigers", model.RosterEntry{
		FirstName: "Jon", LastName: "Smith", TeamName: "Tigers",
	})
	// Identical parts via the fuzzy path stay below the exact 100.
	assert.Equal(t, 99, s.score)
}
