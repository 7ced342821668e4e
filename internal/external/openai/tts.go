package openai

import (
	"context"
	"fmt"
	"io"
	"net/http"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/melpes/voicekiosk/internal/external"
)

// TTSClient is a TTS collaborator backed by the OpenAI Audio Speech API.
type TTSClient struct {
	client oai.Client
	model  string
}

// NewTTS constructs a TTSClient. apiKey and model must be non-empty.
func NewTTS(apiKey, model string, opts ...Option) (*TTSClient, error) {
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

	return &TTSClient{client: oai.NewClient(reqOpts...), model: model}, nil
}

// Synthesize implements [external.Synthesizer] via the OpenAI TTS API.
// req.VoiceCfg is expected to carry at least a "voice" key; any "format"
// key selects the output encoding (default "wav").
func (c *TTSClient) Synthesize(ctx context.Context, req external.SynthesisRequest) ([]byte, string, error) {
	voice := req.VoiceCfg["voice"]
	if voice == "" {
		voice = "alloy"
	}
	format := req.VoiceCfg["format"]
	if format == "" {
		format = "wav"
	}

	resp, err := c.client.Audio.Speech.New(ctx, oai.AudioSpeechNewParams{
		Model:          oai.SpeechModel(c.model),
		Input:          req.Text,
		Voice:          oai.AudioSpeechNewParamsVoice(voice),
		ResponseFormat: oai.AudioSpeechNewParamsResponseFormat(format),
	})
	if err != nil {
		return nil, "", fmt.Errorf("openai: speech synthesis: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("openai: read speech response: %w", err)
	}
	return audio, "audio/" + format, nil
}

var _ external.Synthesizer = (*TTSClient)(nil)
