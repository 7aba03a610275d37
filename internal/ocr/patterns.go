package ocr

import (
	_ "embed"
	"os"
	"regexp"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed patterns.yaml
var defaultPatterns []byte

// MetricRule extracts one metric's value from recognized text. The
// pattern's first capture group is the numeric value.
type MetricRule struct {
	Metric     string `yaml:"metric"`
	Pattern    string `yaml:"pattern"`
	Confidence int    `yaml:"confidence"`

	re *regexp.Regexp
}

// NameRule extracts athlete names. Format is "first_last" or
// "last_first" and tells the parser which capture group is which.
type NameRule struct {
	Format     string `yaml:"format"`
	Pattern    string `yaml:"pattern"`
	Confidence int    `yaml:"confidence"`

	re *regexp.Regexp
}

// TextRule extracts a single-group value (dates, ages).
type TextRule struct {
	Pattern    string `yaml:"pattern"`
	Confidence int    `yaml:"confidence"`

	re *regexp.Regexp
}

// PatternLibrary is the declarative rule set the parser applies to
// recognized text.
type PatternLibrary struct {
	Metrics []MetricRule `yaml:"metrics"`
	Names   []NameRule   `yaml:"names"`
	Dates   []TextRule   `yaml:"dates"`
	Ages    []TextRule   `yaml:"ages"`
}

// LoadPatterns reads a pattern library from path, or the embedded
// defaults when path is empty, and compiles every rule.
func LoadPatterns(path string) (*PatternLibrary, error) {
	data := defaultPatterns
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "ocr: read patterns %s", path)
		}
	}

	var lib PatternLibrary
	if err := yaml.Unmarshal(data, &lib); err != nil {
		return nil, eris.Wrap(err, "ocr: unmarshal patterns")
	}
	if err := lib.compile(); err != nil {
		return nil, err
	}
	return &lib, nil
}

func (l *PatternLibrary) compile() error {
	for i := range l.Metrics {
		re, err := regexp.Compile(l.Metrics[i].Pattern)
		if err != nil {
			return eris.Wrapf(err, "ocr: compile metric pattern %s", l.Metrics[i].Metric)
		}
		l.Metrics[i].re = re
	}
	for i := range l.Names {
		re, err := regexp.Compile(l.Names[i].Pattern)
		if err != nil {
			return eris.Wrapf(err, "ocr: compile name pattern %d", i)
		}
		l.Names[i].re = re
	}
	for i := range l.Dates {
		re, err := regexp.Compile(l.Dates[i].Pattern)
		if err != nil {
			return eris.Wrapf(err, "ocr: compile date pattern %d", i)
		}
		l.Dates[i].re = re
	}
	for i := range l.Ages {
		re, err := regexp.Compile(l.Ages[i].Pattern)
		if err != nil {
			return eris.Wrapf(err, "ocr: compile age pattern %d", i)
		}
		l.Ages[i].re = re
	}
	return nil
}
