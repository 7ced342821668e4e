package external

import (
	"context"
	"sync"

	"github.com/melpes/voicekiosk/internal/dialogue"
	"github.com/melpes/voicekiosk/pkg/types"
)

// MockTranscriber is a test double for [Transcriber]. Zero value returns
// a zero Transcript and nil error; set the response fields to control
// behavior and read Calls afterward to assert on what was sent.
type MockTranscriber struct {
	mu sync.Mutex

	Transcript types.Transcript
	Err        error
	Calls      []struct {
		Audio  []byte
		Format string
	}
}

func (m *MockTranscriber) Transcribe(_ context.Context, audio []byte, format string) (types.Transcript, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, struct {
		Audio  []byte
		Format string
	}{Audio: audio, Format: format})
	return m.Transcript, m.Err
}

// MockIntentExtractor is a test double for [IntentExtractor].
type MockIntentExtractor struct {
	mu sync.Mutex

	Intent dialogue.Intent
	Err    error
	Calls  []IntentRequest
}

func (m *MockIntentExtractor) ExtractIntent(_ context.Context, req IntentRequest) (dialogue.Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)
	return m.Intent, m.Err
}

// MockGenerator is a test double for [dialogue.Generator].
type MockGenerator struct {
	mu sync.Mutex

	Reply string
	Err   error
	Calls []dialogue.GenerateRequest
}

func (m *MockGenerator) Generate(_ context.Context, req dialogue.GenerateRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)
	return m.Reply, m.Err
}

// MockSynthesizer is a test double for [Synthesizer].
type MockSynthesizer struct {
	mu sync.Mutex

	Audio       []byte
	ContentType string
	Err         error
	Calls       []SynthesisRequest
}

func (m *MockSynthesizer) Synthesize(_ context.Context, req SynthesisRequest) ([]byte, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)
	if m.ContentType == "" && m.Err == nil {
		return m.Audio, "audio/wav", m.Err
	}
	return m.Audio, m.ContentType, m.Err
}

var (
	_ Transcriber        = (*MockTranscriber)(nil)
	_ IntentExtractor    = (*MockIntentExtractor)(nil)
	_ dialogue.Generator = (*MockGenerator)(nil)
	_ Synthesizer        = (*MockSynthesizer)(nil)
)
