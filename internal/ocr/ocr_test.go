package ocr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexperf/roster-cli/internal/model"
)

func newTestService(t *testing.T, eng Engine) *Service {
	t.Helper()
	lib, err := LoadPatterns("")
	require.NoError(t, err)
	return NewServiceWith(
		NewPreprocessor(PreprocessOptions{Greyscale: true}, 4),
		NewExtractor(eng, ExtractorConfig{}),
		NewParser(lib, ParserConfig{}),
		NewValidator(model.DefaultMetrics()),
		60,
	)
}

func TestService_ExtractFromImage(t *testing.T) {
	eng := &staticEngine{rec: Recognition{
		Text:       "Smith, John  40-yd dash: 4.52\nGarcia, Maria  40-yd dash: 45.2",
		Confidence: 90,
	}}
	svc := newTestService(t, eng)

	res := svc.ExtractFromImage(context.Background(), testPNG(t))

	assert.Empty(t, res.Error)
	assert.Equal(t, 90, res.Confidence)
	// The misread 45.2s forty is rejected with a warning; the plausible
	// one survives.
	require.Len(t, res.ExtractedData, 1)
	assert.Equal(t, "forty", res.ExtractedData[0].Metric)
	assert.Equal(t, "Smith", res.ExtractedData[0].LastName)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[len(res.Warnings)-1], "outside plausible range")
}

func TestService_ExtractFromImage_LowEngineConfidenceWarns(t *testing.T) {
	eng := &staticEngine{rec: Recognition{Text: "Smith, John  40-yd dash: 4.52", Confidence: 40}}
	svc := newTestService(t, eng)

	res := svc.ExtractFromImage(context.Background(), testPNG(t))

	assert.Empty(t, res.Error)
	found := false
	for _, w := range res.Warnings {
		if w == "engine confidence below threshold; extracted rows may need correction" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestService_ExtractFromImage_BadImageIsolated(t *testing.T) {
	eng := &staticEngine{rec: Recognition{Text: "Smith, John 40: 4.52", Confidence: 90}}
	svc := newTestService(t, eng)

	res := svc.ExtractFromImage(context.Background(), []byte("not an image"))

	assert.NotEmpty(t, res.Error)
	assert.Empty(t, res.ExtractedData)
	assert.Zero(t, eng.hits, "engine is never called for an invalid image")
}

func TestService_ExtractFromImages_KeepsOrderAndIsolatesFailures(t *testing.T) {
	eng := &staticEngine{rec: Recognition{Text: "Smith, John  40-yd dash: 4.52", Confidence: 90}}
	svc := newTestService(t, eng)

	images := [][]byte{
		testPNG(t),
		[]byte("broken"),
		testPNG(t),
	}

	results := svc.ExtractFromImages(context.Background(), images)
	require.Len(t, results, 3)

	assert.Empty(t, results[0].Error)
	assert.NotEmpty(t, results[1].Error)
	assert.Empty(t, results[2].Error)
	assert.Len(t, results[0].ExtractedData, 1)
}
