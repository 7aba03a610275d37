package ocr

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Tesseract recognizes text using the tesseract CLI in TSV mode, which
// reports a per-word confidence alongside the text.
type Tesseract struct {
	binPath string
}

// NewTesseract creates a Tesseract engine. If binPath is empty,
// "tesseract" is used.
func NewTesseract(binPath string) *Tesseract {
	if binPath == "" {
		binPath = "tesseract"
	}
	return &Tesseract{binPath: binPath}
}

// Recognize runs tesseract over stdin and aggregates the TSV output into
// text plus a mean word confidence.
func (t *Tesseract) Recognize(ctx context.Context, image []byte) (Recognition, error) {
	cmd := exec.CommandContext(ctx, t.binPath, "stdin", "stdout", "tsv")
	cmd.Stdin = bytes.NewReader(image)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Recognition{}, eris.Wrapf(err, "ocr: tesseract failed: %s", stderr.String())
	}

	return parseTSV(stdout.String()), nil
}

// parseTSV converts tesseract's TSV output (level ... conf text) into
// line-joined text and a mean confidence over recognized words.
func parseTSV(tsv string) Recognition {
	var sb strings.Builder
	var confSum, confCount int
	lastLine := -1

	for i, line := range strings.Split(tsv, "\n") {
		if i == 0 { // header
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 12 {
			continue
		}
		conf, err := strconv.Atoi(fields[10])
		if err != nil || conf < 0 {
			continue // non-word rows carry conf -1
		}
		word := strings.TrimSpace(fields[11])
		if word == "" {
			continue
		}

		lineNum, _ := strconv.Atoi(fields[4])
		if lastLine >= 0 {
			if lineNum != lastLine {
				sb.WriteString("\n")
			} else {
				sb.WriteString(" ")
			}
		}
		lastLine = lineNum

		sb.WriteString(word)
		confSum += conf
		confCount++
	}

	rec := Recognition{Text: sb.String()}
	if confCount > 0 {
		rec.Confidence = confSum / confCount
	}
	return rec
}
