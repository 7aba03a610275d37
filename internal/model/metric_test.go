package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricRegistry_Lookup(t *testing.T) {
	reg := DefaultMetrics()

	def, ok := reg.Lookup("forty")
	require.True(t, ok)
	assert.Equal(t, "s", def.Unit)

	def, ok = reg.Lookup("  FORTY ")
	require.True(t, ok)
	assert.Equal(t, "forty", def.Code)

	_, ok = reg.Lookup("warp_speed")
	assert.False(t, ok)
}

func TestMetricDef_InRange(t *testing.T) {
	forty, _ := DefaultMetrics().Lookup("forty")

	assert.True(t, forty.InRange(4.52))
	assert.True(t, forty.InRange(3.5))
	assert.True(t, forty.InRange(10))
	assert.False(t, forty.InRange(45))
	assert.False(t, forty.InRange(3.49))
}

func TestImportBatchResult_SummaryDerivedFromLists(t *testing.T) {
	r := &ImportBatchResult{
		Outcomes: []ImportOutcome{
			{Row: 2, Action: ImportCreated},
			{Row: 3, Action: ImportPendingReview},
			{Row: 5, Action: ImportCreated},
		},
		Errors:   []RowError{{Row: 4, Message: "boom"}},
		Warnings: []string{"row 5: applied with 85% confidence"},
	}

	s := r.Summary()
	assert.Equal(t, 2, s.Successful)
	assert.Equal(t, 1, s.PendingReview)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Warnings)
}
