package external

import (
	"context"
	"errors"
	"testing"

	"github.com/melpes/voicekiosk/internal/dialogue"
	"github.com/melpes/voicekiosk/pkg/types"
)

func TestMockTranscriberRecordsCallsAndReturnsConfigured(t *testing.T) {
	m := &MockTranscriber{Transcript: types.Transcript{Text: "빅맥 주세요"}}
	got, err := m.Transcribe(context.Background(), []byte("riff"), "audio/wav")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got.Text != "빅맥 주세요" {
		t.Fatalf("Text = %q", got.Text)
	}
	if len(m.Calls) != 1 || m.Calls[0].Format != "audio/wav" {
		t.Fatalf("Calls = %+v", m.Calls)
	}
}

func TestMockIntentExtractorReturnsConfiguredError(t *testing.T) {
	wantErr := errors.New("boom")
	m := &MockIntentExtractor{Err: wantErr}
	_, err := m.ExtractIntent(context.Background(), IntentRequest{Utterance: "안녕"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

func TestMockGeneratorImplementsDialogueGenerator(t *testing.T) {
	m := &MockGenerator{Reply: "안녕하세요"}
	var gen dialogue.Generator = m
	reply, err := gen.Generate(context.Background(), dialogue.GenerateRequest{Utterance: "안녕"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if reply != "안녕하세요" {
		t.Fatalf("reply = %q", reply)
	}
	if len(m.Calls) != 1 {
		t.Fatalf("Calls = %+v", m.Calls)
	}
}

func TestMockSynthesizerDefaultsContentType(t *testing.T) {
	m := &MockSynthesizer{Audio: []byte{1, 2, 3}}
	audio, contentType, err := m.Synthesize(context.Background(), SynthesisRequest{Text: "hi"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if contentType != "audio/wav" {
		t.Fatalf("contentType = %q, want audio/wav", contentType)
	}
	if len(audio) != 3 {
		t.Fatalf("audio = %v", audio)
	}
}
