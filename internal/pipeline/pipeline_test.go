package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/melpes/voicekiosk/internal/dialogue"
	"github.com/melpes/voicekiosk/internal/errs"
	"github.com/melpes/voicekiosk/internal/external"
	"github.com/melpes/voicekiosk/internal/menu"
	"github.com/melpes/voicekiosk/internal/resilience"
	"github.com/melpes/voicekiosk/internal/responsebuilder"
	"github.com/melpes/voicekiosk/internal/session"
	"github.com/melpes/voicekiosk/internal/ttscache"
	"github.com/melpes/voicekiosk/pkg/types"
)

func testCatalog(t *testing.T) *menu.Catalog {
	t.Helper()
	doc := menu.Document{
		Categories: []string{"단품", "세트"},
		SetPricing: map[string]int64{"세트": 0},
	}
	avail := true
	doc.MenuItems = map[string]struct {
		Category    string   `yaml:"category"`
		Price       int64    `yaml:"price"`
		Options     []string `yaml:"available_options"`
		Description string   `yaml:"description"`
		Available   *bool    `yaml:"is_available"`
	}{
		"빅맥": {Category: "단품", Price: 6500, Available: &avail},
	}
	cat, err := menu.New(doc)
	if err != nil {
		t.Fatalf("menu.New: %v", err)
	}
	return cat
}

func testPipeline(t *testing.T, transcriber *external.MockTranscriber, intents *external.MockIntentExtractor, cfg Config) *Pipeline {
	t.Helper()
	catalog := testCatalog(t)
	sessions := session.NewRegistry(30*time.Minute, 20, time.Hour)
	t.Cleanup(sessions.Stop)

	policy := dialogue.NewPolicy(catalog, &external.MockGenerator{}, dialogue.NewProgressTracker())
	cache := ttscache.New(ttscache.Config{})
	t.Cleanup(cache.Stop)
	synth := resilience.NewFallbackGroup[external.Synthesizer](&external.MockSynthesizer{Audio: []byte("x"), ContentType: "audio/wav"}, "primary", resilience.FallbackConfig{})
	builder := responsebuilder.NewBuilder(catalog, cache, synth, t.TempDir(), "", nil)

	return New(cfg, sessions, catalog, transcriber, intents, policy, builder, errs.NewTracker())
}

func TestProcessRunsFullStagesAndReturnsResponse(t *testing.T) {
	transcriber := &external.MockTranscriber{Transcript: types.Transcript{Text: "빅맥 주문할게요"}}
	intents := &external.MockIntentExtractor{Intent: dialogue.Intent{Kind: dialogue.KindOrder, Items: []dialogue.MenuLine{{Name: "빅맥", Quantity: 1}}}}
	p := testPipeline(t, transcriber, intents, Config{})

	result := p.Process(context.Background(), "", []byte("RIFF____WAVEfmt "), "audio/wav")
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if !result.Response.Success {
		t.Fatal("expected a successful response")
	}
	if len(transcriber.Calls) != 1 {
		t.Fatalf("expected exactly one transcription call, got %d", len(transcriber.Calls))
	}
	if len(intents.Calls) != 1 {
		t.Fatalf("expected exactly one intent extraction call, got %d", len(intents.Calls))
	}
}

func TestProcessClassifiesTranscriptionFailure(t *testing.T) {
	transcriber := &external.MockTranscriber{Err: context.DeadlineExceeded}
	intents := &external.MockIntentExtractor{}
	p := testPipeline(t, transcriber, intents, Config{})

	result := p.Process(context.Background(), "", []byte("audio"), "audio/wav")
	if result.Err == nil {
		t.Fatal("expected a classified error")
	}
	if result.Err.Kind != errs.KindSpeech {
		t.Fatalf("Kind = %q, want %q", result.Err.Kind, errs.KindSpeech)
	}
	if len(intents.Calls) != 0 {
		t.Fatal("intent extraction must not run after a transcription failure")
	}
}

func TestProcessRejectsWhenQueueIsFull(t *testing.T) {
	transcriber := &external.MockTranscriber{}
	intents := &external.MockIntentExtractor{}
	p := testPipeline(t, transcriber, intents, Config{QueueCapacity: 1})

	p.inflight.Store(1)
	result := p.Process(context.Background(), "", []byte("audio"), "audio/wav")
	if result.Err == nil {
		t.Fatal("expected a queue-full error")
	}
	if result.Err.Kind != errs.KindServer {
		t.Fatalf("Kind = %q, want %q", result.Err.Kind, errs.KindServer)
	}
}

func TestProcessFailsWithTimeoutWhenWorkersAreExhausted(t *testing.T) {
	transcriber := &external.MockTranscriber{}
	intents := &external.MockIntentExtractor{}
	p := testPipeline(t, transcriber, intents, Config{Workers: 1, RequestTimeout: 20 * time.Millisecond})

	if !p.workers.TryAcquire(1) {
		t.Fatal("setup: could not pre-acquire the single worker slot")
	}
	defer p.workers.Release(1)

	result := p.Process(context.Background(), "", []byte("audio"), "audio/wav")
	if result.Err == nil {
		t.Fatal("expected a timeout error")
	}
	if result.Err.Kind != errs.KindTimeout {
		t.Fatalf("Kind = %q, want %q", result.Err.Kind, errs.KindTimeout)
	}
}

func TestShutdownWaitsForInFlightRequestToReleaseItsSlot(t *testing.T) {
	p := testPipeline(t, &external.MockTranscriber{}, &external.MockIntentExtractor{}, Config{Workers: 2})

	if !p.workers.TryAcquire(1) {
		t.Fatal("setup: could not pre-acquire a worker slot to simulate an in-flight request")
	}

	done := make(chan struct{})
	go func() {
		time.Sleep(20 * time.Millisecond)
		p.workers.Release(1)
		close(done)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := p.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	select {
	case <-done:
	default:
		t.Fatal("Shutdown returned before the in-flight slot was released")
	}
}

func TestStatsReportsConfiguredLimits(t *testing.T) {
	p := testPipeline(t, &external.MockTranscriber{}, &external.MockIntentExtractor{}, Config{Workers: 3, QueueCapacity: 7})
	stats := p.Stats()
	if stats.Workers != 3 || stats.QueueCapacity != 7 {
		t.Fatalf("Stats = %+v, want Workers=3 QueueCapacity=7", stats)
	}
}
