package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParser(t *testing.T) *Parser {
	t.Helper()
	lib, err := LoadPatterns("")
	require.NoError(t, err)
	return NewParser(lib, ParserConfig{})
}

func TestParse_FullLine(t *testing.T) {
	p := testParser(t)

	out := p.Parse("Smith, John  40-yd dash: 4.52  3/15/2026  Age: 18")
	require.Len(t, out, 1)

	c := out[0]
	assert.Equal(t, "John", c.FirstName)
	assert.Equal(t, "Smith", c.LastName)
	assert.Equal(t, "forty", c.Metric)
	assert.Equal(t, "4.52", c.RawValue)
	assert.Equal(t, "3/15/2026", c.Date)
	assert.Equal(t, "18", c.Age)
	assert.Equal(t, 85, c.Confidence)
	assert.Contains(t, c.SourceText, "40-yd dash")
}

func TestParse_FirstLastFormat(t *testing.T) {
	p := testParser(t)

	out := p.Parse("John Smith vertical: 31.5")
	require.Len(t, out, 1)
	assert.Equal(t, "John", out[0].FirstName)
	assert.Equal(t, "Smith", out[0].LastName)
	assert.Equal(t, "vertical", out[0].Metric)
	assert.Equal(t, "31.5", out[0].RawValue)
}

func TestParse_MissingNameLowersConfidence(t *testing.T) {
	p := testParser(t)

	out := p.Parse("40 yd dash: 4.52")
	require.Len(t, out, 1)
	assert.Empty(t, out[0].FirstName)
	assert.Empty(t, out[0].LastName)
	assert.Equal(t, 85-missingNamePenalty, out[0].Confidence)
}

func TestParse_MetricWordsNotMistakenForNames(t *testing.T) {
	p := testParser(t)

	// "Broad Jump" is inside the metric span; it must not be read as a
	// first/last name pair.
	out := p.Parse("Broad Jump: 112")
	require.Len(t, out, 1)
	assert.Equal(t, "broad_jump", out[0].Metric)
	assert.Empty(t, out[0].FirstName)
	assert.Empty(t, out[0].LastName)
}

func TestParse_MultipleLines(t *testing.T) {
	p := testParser(t)

	text := "Smith, John  40-yd dash: 4.52\n\nGarcia, Maria  vertical: 31.5\nnothing useful here\n"
	out := p.Parse(text)
	require.Len(t, out, 2)
	assert.Equal(t, "forty", out[0].Metric)
	assert.Equal(t, "Smith", out[0].LastName)
	assert.Equal(t, "vertical", out[1].Metric)
	assert.Equal(t, "Garcia", out[1].LastName)
}

func TestParse_MultipleMetricsOneLine(t *testing.T) {
	p := testParser(t)

	out := p.Parse("Smith, John  40-yd dash: 4.52  vertical: 31.5")
	require.Len(t, out, 2)
	for _, c := range out {
		assert.Equal(t, "Smith", c.LastName)
	}
}

func TestParse_InvalidDateDropped(t *testing.T) {
	p := testParser(t)

	out := p.Parse("Smith, John  40-yd dash: 4.52  13/45/2026")
	require.Len(t, out, 1)
	assert.Empty(t, out[0].Date)
}

func TestParse_NoMetricsNoCandidates(t *testing.T) {
	p := testParser(t)

	assert.Empty(t, p.Parse("nothing measurable in this text"))
	assert.Empty(t, p.Parse(""))
}
