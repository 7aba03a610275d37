package ocr

import (
	"context"

	"github.com/rotisserie/eris"
)

// Recognition is the raw output of a text-recognition engine.
type Recognition struct {
	Text string
	// Confidence is the engine's self-reported certainty, 0-100.
	Confidence int
}

// Engine recognizes text in a preprocessed image. Implementations may
// fail or time out; the Extractor wraps calls with retry and a timeout.
type Engine interface {
	Recognize(ctx context.Context, image []byte) (Recognition, error)
}

// EngineConfig selects and configures a recognition engine.
type EngineConfig struct {
	Provider      string
	TesseractPath string
	AnthropicKey  string
	Model         string
}

// NewEngine creates an Engine based on config.
func NewEngine(cfg EngineConfig) (Engine, error) {
	switch cfg.Provider {
	case "local", "":
		return NewTesseract(cfg.TesseractPath), nil
	case "claude":
		if cfg.AnthropicKey == "" {
			return nil, eris.New("ocr: claude provider requires anthropic_api_key")
		}
		return NewClaudeEngine(cfg.AnthropicKey, cfg.Model), nil
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.Provider)
	}
}
