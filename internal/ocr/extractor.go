package ocr

import (
	"context"
	"time"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/apexperf/roster-cli/internal/resilience"
)

// ExtractorConfig bounds calls to the external recognition engine.
type ExtractorConfig struct {
	// Timeout caps one full recognition attempt including retries, so a
	// hung engine call cannot stall the whole batch. Default: 30s.
	Timeout time.Duration
	// MaxAttempts is the bounded retry budget within the timeout.
	MaxAttempts int
	// RatePerSec throttles engine calls. Zero disables throttling.
	RatePerSec float64
	// MinTextLength below which a quality warning is emitted.
	MinTextLength int
}

// Extractor invokes the recognition engine with retry and scores the
// returned text's reliability independently of the engine's own score.
type Extractor struct {
	engine  Engine
	cfg     ExtractorConfig
	limiter *rate.Limiter
}

// NewExtractor wraps an engine with retry, timeout, and rate limiting.
func NewExtractor(engine Engine, cfg ExtractorConfig) *Extractor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.MinTextLength <= 0 {
		cfg.MinTextLength = 10
	}
	var limiter *rate.Limiter
	if cfg.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1)
	}
	return &Extractor{engine: engine, cfg: cfg, limiter: limiter}
}

// Extract recognizes text in a preprocessed image. The returned warnings
// come from the local quality check and never fail the call.
func (e *Extractor) Extract(ctx context.Context, image []byte) (Recognition, []string, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return Recognition{}, nil, eris.Wrap(err, "ocr: rate limit wait")
		}
	}

	// The timeout is distinct from the retry loop: it bounds the whole
	// attempt sequence.
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.MaxAttempts = e.cfg.MaxAttempts
	retryCfg.OnRetry = resilience.RetryLogger("ocr", "recognize")

	rec, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (Recognition, error) {
		return e.engine.Recognize(ctx, image)
	})
	if err != nil {
		return Recognition{}, nil, eris.Wrap(err, "ocr: recognize")
	}

	return rec, e.qualityWarnings(rec.Text), nil
}

// qualityWarnings runs local sanity checks on recognized text.
func (e *Extractor) qualityWarnings(text string) []string {
	var warnings []string

	if len(text) < e.cfg.MinTextLength {
		warnings = append(warnings, "recognized text is very short; image may be blank or unreadable")
		return warnings
	}

	var letters, digits, other int
	for _, r := range text {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			digits++
		case !unicode.IsSpace(r):
			other++
		}
	}
	total := letters + digits + other
	if total > 0 && float64(other)/float64(total) > 0.4 {
		warnings = append(warnings, "recognized text contains many non-alphanumeric characters; recognition quality may be poor")
	}
	if digits == 0 {
		warnings = append(warnings, "no numeric values recognized; measurement extraction will likely find nothing")
	}

	return warnings
}
