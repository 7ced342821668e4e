package openai

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/melpes/voicekiosk/internal/external"
	"github.com/melpes/voicekiosk/pkg/types"
)

// STTClient is the acoustic front-end collaborator backed by the OpenAI
// Audio Transcriptions API.
type STTClient struct {
	client oai.Client
	model  string
}

// NewSTT constructs an STTClient. apiKey and model must be non-empty
// (model is typically "whisper-1" or a gpt-4o-transcribe variant).
func NewSTT(apiKey, model string, opts ...Option) (*STTClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("openai: model must not be empty")
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: cfg.timeout}))
	}

	return &STTClient{client: oai.NewClient(reqOpts...), model: model}, nil
}

// Transcribe implements [external.Transcriber] via the OpenAI Audio
// Transcriptions API. The audio bytes are uploaded as-is; format is not
// used, and no filename or content type is attached to the upload.
func (c *STTClient) Transcribe(ctx context.Context, audio []byte, format string) (types.Transcript, error) {
	resp, err := c.client.Audio.Transcriptions.New(ctx, oai.AudioTranscriptionNewParams{
		Model: oai.AudioModel(c.model),
		File:  bytes.NewReader(audio),
	})
	if err != nil {
		return types.Transcript{}, fmt.Errorf("openai: transcription: %w", err)
	}
	return types.Transcript{Text: resp.Text}, nil
}

var _ external.Transcriber = (*STTClient)(nil)
