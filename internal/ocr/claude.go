package ocr

import (
	"context"
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

const defaultClaudeModel = "claude-sonnet-4-5-20250929"

// transcriptPrompt asks for a machine-parseable self-assessment ahead of
// the verbatim transcript.
const transcriptPrompt = `Transcribe ALL text visible in this image exactly as written, preserving line breaks. ` +
	`On the first line output "CONFIDENCE: <0-100>" rating how legible the image is, then the transcript. ` +
	`Do not add commentary or corrections.`

// ClaudeEngine recognizes text using the Anthropic vision API.
type ClaudeEngine struct {
	client sdk.Client
	model  string
}

// NewClaudeEngine creates a ClaudeEngine. If model is empty, the default
// is used.
func NewClaudeEngine(apiKey, model string) *ClaudeEngine {
	if model == "" {
		model = defaultClaudeModel
	}
	return &ClaudeEngine{
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Recognize sends the image to the vision model and parses the
// confidence header from the transcript.
func (c *ClaudeEngine) Recognize(ctx context.Context, image []byte) (Recognition, error) {
	mediaType := http.DetectContentType(image)
	encoded := base64.StdEncoding.EncodeToString(image)

	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: 4096,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(
				sdk.NewImageBlockBase64(mediaType, encoded),
				sdk.NewTextBlock(transcriptPrompt),
			),
		},
	})
	if err != nil {
		return Recognition{}, eris.Wrap(err, "ocr: claude recognize")
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return parseTranscript(sb.String()), nil
}

// parseTranscript splits the "CONFIDENCE: NN" header from the transcript
// body. A missing or malformed header falls back to a neutral score.
func parseTranscript(raw string) Recognition {
	rec := Recognition{Text: strings.TrimSpace(raw), Confidence: 70}

	head, rest, found := strings.Cut(rec.Text, "\n")
	if !found {
		head, rest = rec.Text, ""
	}
	if after, ok := strings.CutPrefix(strings.TrimSpace(head), "CONFIDENCE:"); ok {
		if conf, err := strconv.Atoi(strings.TrimSpace(after)); err == nil && conf >= 0 && conf <= 100 {
			rec.Confidence = conf
			rec.Text = strings.TrimSpace(rest)
		}
	}
	return rec
}
