package ocr

import (
	"strings"
	"time"

	"github.com/apexperf/roster-cli/internal/model"
)

// missingNamePenalty is applied when a measurement line carries no
// recognizable athlete name; the row can still be matched if the caller
// supplies context, but extraction is less trustworthy.
const missingNamePenalty = 20

// ParserConfig tunes candidate extraction.
type ParserConfig struct {
	MinNameLength int
	DateFormats   []string
}

// Parser applies the pattern library to recognized text, producing
// candidate measurement rows with per-field confidence.
type Parser struct {
	lib *PatternLibrary
	cfg ParserConfig
}

// NewParser creates a Parser over a compiled pattern library.
func NewParser(lib *PatternLibrary, cfg ParserConfig) *Parser {
	if cfg.MinNameLength <= 0 {
		cfg.MinNameLength = 2
	}
	if len(cfg.DateFormats) == 0 {
		cfg.DateFormats = []string{"1/2/2006", "2006-01-02", "1-2-2006"}
	}
	return &Parser{lib: lib, cfg: cfg}
}

// Parse scans recognized text line by line and returns zero or more
// extraction candidates. Each candidate keeps the exact source line for
// audit.
func (p *Parser) Parse(text string) []model.ExtractedMeasurementData {
	var out []model.ExtractedMeasurementData

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		matches := p.metricMatches(line)
		if len(matches) == 0 {
			continue
		}

		// Names are searched in the line with metric spans blanked out,
		// so "Broad Jump" is never mistaken for an athlete.
		nameText := blankSpans(line, matches)
		first, last, nameFound := p.extractName(nameText)
		date := p.extractDate(line)
		age := p.extractAge(line)

		for _, m := range matches {
			confidence := m.rule.Confidence
			if !nameFound {
				confidence -= missingNamePenalty
			}
			if confidence < 0 {
				confidence = 0
			}
			out = append(out, model.ExtractedMeasurementData{
				FirstName:  first,
				LastName:   last,
				Metric:     m.rule.Metric,
				RawValue:   m.value,
				Date:       date,
				Age:        age,
				Confidence: confidence,
				SourceText: line,
			})
		}
	}

	return out
}

type metricMatch struct {
	rule       MetricRule
	value      string
	start, end int
}

func (p *Parser) metricMatches(line string) []metricMatch {
	var out []metricMatch
	for _, rule := range p.lib.Metrics {
		for _, idx := range rule.re.FindAllStringSubmatchIndex(line, -1) {
			if len(idx) < 4 || idx[2] < 0 {
				continue
			}
			out = append(out, metricMatch{
				rule:  rule,
				value: line[idx[2]:idx[3]],
				start: idx[0],
				end:   idx[1],
			})
		}
	}
	return out
}

func (p *Parser) extractName(text string) (first, last string, found bool) {
	for _, rule := range p.lib.Names {
		m := rule.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		a, b := m[1], m[2]
		if rule.Format == "last_first" {
			a, b = b, a
		}
		if len(a) < p.cfg.MinNameLength || len(b) < p.cfg.MinNameLength {
			continue
		}
		return a, b, true
	}
	return "", "", false
}

func (p *Parser) extractDate(line string) string {
	for _, rule := range p.lib.Dates {
		m := rule.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		raw := m[1]
		for _, layout := range p.cfg.DateFormats {
			if _, err := time.Parse(layout, raw); err == nil {
				return raw
			}
		}
	}
	return ""
}

func (p *Parser) extractAge(line string) string {
	for _, rule := range p.lib.Ages {
		if m := rule.re.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return ""
}

// blankSpans replaces matched regions with spaces, preserving offsets.
func blankSpans(line string, matches []metricMatch) string {
	buf := []byte(line)
	for _, m := range matches {
		for i := m.start; i < m.end && i < len(buf); i++ {
			buf[i] = ' '
		}
	}
	return string(buf)
}
