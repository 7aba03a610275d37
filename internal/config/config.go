package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/apexperf/roster-cli/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig                `yaml:"store" mapstructure:"store"`
	Matching MatchingConfig             `yaml:"matching" mapstructure:"matching"`
	OCR      OCRConfig                  `yaml:"ocr" mapstructure:"ocr"`
	Review   ReviewConfig               `yaml:"review" mapstructure:"review"`
	Metrics  map[string]model.MetricDef `yaml:"metrics" mapstructure:"metrics"`
	Server   ServerConfig               `yaml:"server" mapstructure:"server"`
	Log      LogConfig                  `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// MatchingConfig tunes the athlete matching engine.
type MatchingConfig struct {
	HighConfidence    int     `yaml:"high_confidence" mapstructure:"high_confidence"`
	LowConfidence     int     `yaml:"low_confidence" mapstructure:"low_confidence"`
	MaxAlternatives   int     `yaml:"max_alternatives" mapstructure:"max_alternatives"`
	MinNameSimilarity float64 `yaml:"min_name_similarity" mapstructure:"min_name_similarity"`
}

// OCRConfig configures image preprocessing and text recognition.
type OCRConfig struct {
	Provider       string   `yaml:"provider" mapstructure:"provider"`
	TesseractPath  string   `yaml:"tesseract_path" mapstructure:"tesseract_path"`
	AnthropicKey   string   `yaml:"anthropic_api_key" mapstructure:"anthropic_api_key"`
	Model          string   `yaml:"model" mapstructure:"model"`
	MinConfidence  int      `yaml:"min_confidence" mapstructure:"min_confidence"`
	MaxImageBytes  int64    `yaml:"max_image_bytes" mapstructure:"max_image_bytes"`
	AllowedMIME    []string `yaml:"allowed_mime" mapstructure:"allowed_mime"`
	Greyscale      bool     `yaml:"greyscale" mapstructure:"greyscale"`
	NormalizeContr bool     `yaml:"normalize_contrast" mapstructure:"normalize_contrast"`
	Sharpen        bool     `yaml:"sharpen" mapstructure:"sharpen"`
	CacheCapacity  int      `yaml:"cache_capacity" mapstructure:"cache_capacity"`
	TimeoutSecs    int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts    int      `yaml:"max_attempts" mapstructure:"max_attempts"`
	RatePerSec     float64  `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	MinNameLength  int      `yaml:"min_name_length" mapstructure:"min_name_length"`
	DateFormats    []string `yaml:"date_formats" mapstructure:"date_formats"`
	PatternsPath   string   `yaml:"patterns_path" mapstructure:"patterns_path"`
}

// ReviewConfig configures the review queue.
type ReviewConfig struct {
	RetentionDays int `yaml:"retention_days" mapstructure:"retention_days"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// MetricRegistry merges configured range overrides over the built-in
// metric definitions.
func (c *Config) MetricRegistry() model.MetricRegistry {
	reg := model.DefaultMetrics()
	for code, def := range c.Metrics {
		def.Code = code
		if base, ok := reg[code]; ok {
			if def.Unit == "" {
				def.Unit = base.Unit
			}
			if def.Min == 0 && def.Max == 0 {
				def.Min, def.Max = base.Min, base.Max
			}
		}
		reg[code] = def
	}
	return reg
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ROSTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "roster.db")
	v.SetDefault("matching.high_confidence", 90)
	v.SetDefault("matching.low_confidence", 75)
	v.SetDefault("matching.max_alternatives", 2)
	v.SetDefault("matching.min_name_similarity", 0.55)
	v.SetDefault("ocr.provider", "local")
	v.SetDefault("ocr.tesseract_path", "tesseract")
	v.SetDefault("ocr.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("ocr.min_confidence", 60)
	v.SetDefault("ocr.max_image_bytes", 10*1024*1024)
	v.SetDefault("ocr.allowed_mime", []string{"image/jpeg", "image/png"})
	v.SetDefault("ocr.greyscale", true)
	v.SetDefault("ocr.normalize_contrast", true)
	v.SetDefault("ocr.sharpen", false)
	v.SetDefault("ocr.cache_capacity", 32)
	v.SetDefault("ocr.timeout_secs", 30)
	v.SetDefault("ocr.max_attempts", 3)
	v.SetDefault("ocr.rate_per_sec", 2.0)
	v.SetDefault("ocr.min_name_length", 2)
	v.SetDefault("ocr.date_formats", []string{"1/2/2006", "2006-01-02", "1-2-2006"})
	v.SetDefault("review.retention_days", 30)
	v.SetDefault("server.port", 8085)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
