// Package ocr turns measurement-sheet images into candidate rows for the
// import pipeline: validate/normalize the image, recognize text via an
// external engine, apply the pattern library, and reject implausible
// values.
package ocr

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/apexperf/roster-cli/internal/config"
	"github.com/apexperf/roster-cli/internal/model"
)

// batchConcurrency bounds parallel image extraction.
const batchConcurrency = 4

// Service is the single-image and batch OCR entry point.
type Service struct {
	pre           *Preprocessor
	extractor     *Extractor
	parser        *Parser
	validator     *Validator
	minConfidence int
}

// NewService wires the OCR pipeline from config.
func NewService(cfg config.OCRConfig, metrics model.MetricRegistry) (*Service, error) {
	engine, err := NewEngine(EngineConfig{
		Provider:      cfg.Provider,
		TesseractPath: cfg.TesseractPath,
		AnthropicKey:  cfg.AnthropicKey,
		Model:         cfg.Model,
	})
	if err != nil {
		return nil, err
	}

	lib, err := LoadPatterns(cfg.PatternsPath)
	if err != nil {
		return nil, err
	}

	pre := NewPreprocessor(PreprocessOptions{
		MaxBytes:    cfg.MaxImageBytes,
		AllowedMIME: cfg.AllowedMIME,
		Greyscale:   cfg.Greyscale,
		Contrast:    cfg.NormalizeContr,
		Sharpen:     cfg.Sharpen,
	}, cfg.CacheCapacity)

	extractor := NewExtractor(engine, ExtractorConfig{
		Timeout:     time.Duration(cfg.TimeoutSecs) * time.Second,
		MaxAttempts: cfg.MaxAttempts,
		RatePerSec:  cfg.RatePerSec,
	})

	parser := NewParser(lib, ParserConfig{
		MinNameLength: cfg.MinNameLength,
		DateFormats:   cfg.DateFormats,
	})

	return &Service{
		pre:           pre,
		extractor:     extractor,
		parser:        parser,
		validator:     NewValidator(metrics),
		minConfidence: cfg.MinConfidence,
	}, nil
}

// NewServiceWith assembles a Service from prebuilt parts (used by tests).
func NewServiceWith(pre *Preprocessor, extractor *Extractor, parser *Parser, validator *Validator, minConfidence int) *Service {
	return &Service{pre: pre, extractor: extractor, parser: parser, validator: validator, minConfidence: minConfidence}
}

// ExtractFromImage runs the full OCR pipeline over one image. Upstream
// failures (bad image, engine unavailable) are returned in the result's
// Error field so batch callers can isolate them per image.
func (s *Service) ExtractFromImage(ctx context.Context, image []byte) model.OCRResult {
	processed, err := s.pre.Process(image)
	if err != nil {
		return model.OCRResult{Error: err.Error()}
	}

	rec, warnings, err := s.extractor.Extract(ctx, processed)
	if err != nil {
		return model.OCRResult{Error: err.Error()}
	}

	result := model.OCRResult{
		Text:       rec.Text,
		Confidence: rec.Confidence,
		Warnings:   warnings,
	}

	if rec.Confidence < s.minConfidence {
		result.Warnings = append(result.Warnings,
			"engine confidence below threshold; extracted rows may need correction")
	}

	candidates := s.parser.Parse(rec.Text)
	valid, rejections := s.validator.Filter(candidates)
	result.ExtractedData = valid
	result.Warnings = append(result.Warnings, rejections...)

	zap.L().Debug("ocr extraction complete",
		zap.Int("engine_confidence", rec.Confidence),
		zap.Int("candidates", len(candidates)),
		zap.Int("valid", len(valid)),
		zap.Int("warnings", len(result.Warnings)),
	)
	return result
}

// ExtractFromImages processes a batch of images in parallel. Results
// keep the input order; one image's failure never affects the others.
func (s *Service) ExtractFromImages(ctx context.Context, images [][]byte) []model.OCRResult {
	results := make([]model.OCRResult, len(images))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i, img := range images {
		g.Go(func() error {
			results[i] = s.ExtractFromImage(gctx, img)
			return nil
		})
	}
	// Workers only record results; the group never returns an error.
	_ = g.Wait()

	return results
}
