package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/melpes/voicekiosk/internal/dialogue"
	"github.com/melpes/voicekiosk/internal/errs"
	"github.com/melpes/voicekiosk/internal/external"
	"github.com/melpes/voicekiosk/internal/menu"
	"github.com/melpes/voicekiosk/internal/observe"
	"github.com/melpes/voicekiosk/internal/responsebuilder"
	"github.com/melpes/voicekiosk/internal/session"
	"github.com/melpes/voicekiosk/internal/wire"
)

// ErrQueueFull is returned when a request arrives while QueueCapacity
// in-flight requests (queued or running) are already outstanding.
var ErrQueueFull = fmt.Errorf("pipeline: request queue is full")

// Pipeline is the Request Pipeline (spec §4.7). It owns the worker slot
// semaphore and wires the Session Registry, the acoustic front-end, the
// intent extractor, the Dialogue Policy, and the Response Builder into one
// per-request flow.
type Pipeline struct {
	cfg Config

	workers  *semaphore.Weighted
	inflight atomic.Int64

	sessions    *session.Registry
	catalog     *menu.Catalog
	transcriber external.Transcriber
	intents     external.IntentExtractor
	policy      *dialogue.Policy
	builder     *responsebuilder.Builder
	tracker     *errs.Tracker
}

// New builds a Pipeline over cfg (zero fields take spec defaults).
func New(
	cfg Config,
	sessions *session.Registry,
	catalog *menu.Catalog,
	transcriber external.Transcriber,
	intents external.IntentExtractor,
	policy *dialogue.Policy,
	builder *responsebuilder.Builder,
	tracker *errs.Tracker,
) *Pipeline {
	cfg = cfg.withDefaults()
	return &Pipeline{
		cfg:         cfg,
		workers:     semaphore.NewWeighted(int64(cfg.Workers)),
		sessions:    sessions,
		catalog:     catalog,
		transcriber: transcriber,
		intents:     intents,
		policy:      policy,
		builder:     builder,
		tracker:     tracker,
	}
}

// Result is the outcome of one Process call: exactly one of Response or
// Err is set.
type Result struct {
	Response wire.ServerResponse
	Err      *errs.ClassifiedError
}

// Process runs one voice-processing request end to end: acquire a worker
// slot, stage the uploaded audio to a request-scoped temp file, run the
// transcription/intent/dialogue/response stages under the session's
// serialization lock, and report a classified error on any failure. The
// temp file and worker slot are always released, regardless of outcome
// (spec §4.7 "scoped acquisition with guaranteed release on all exit
// paths").
func (p *Pipeline) Process(ctx context.Context, sessionID string, audio []byte, format string) Result {
	if p.inflight.Load() >= int64(p.cfg.QueueCapacity) {
		return Result{Err: errs.New(errs.KindServer, ErrQueueFull)}
	}
	p.inflight.Add(1)
	defer p.inflight.Add(-1)

	requestID := uuid.NewString()
	ctx, span := observe.StartSpan(ctx, "pipeline.process")
	span.SetAttributes(attribute.String("request_id", requestID), attribute.String("session_id", sessionID))
	defer span.End()

	start := time.Now()

	waitCtx := ctx
	var cancel context.CancelFunc
	if _, ok := ctx.Deadline(); !ok {
		waitCtx, cancel = context.WithTimeout(ctx, p.cfg.RequestTimeout)
		defer cancel()
	}
	if err := p.workers.Acquire(waitCtx, 1); err != nil {
		return Result{Err: errs.New(errs.KindTimeout, err)}
	}
	defer p.workers.Release(1)

	tempPath, err := p.stageAudio(requestID, audio)
	if err != nil {
		return Result{Err: errs.New(errs.KindAudio, err)}
	}
	defer os.Remove(tempPath)

	staged, err := os.ReadFile(tempPath)
	if err != nil {
		return Result{Err: errs.New(errs.KindAudio, err)}
	}

	sess := p.sessions.GetOrCreate(sessionID)
	sess.Lock()
	defer sess.Unlock()

	transcript, err := p.transcriber.Transcribe(ctx, staged, format)
	if err != nil {
		ce := p.tracker.Observe(errs.New(errs.KindSpeech, err))
		return Result{Err: ce}
	}

	intentReq := external.IntentRequest{
		Utterance: transcript.Text,
		MenuText:  menuText(p.catalog),
		History:   sess.Context.History(),
	}
	intent, err := p.intents.ExtractIntent(ctx, intentReq)
	if err != nil {
		ce := p.tracker.Observe(errs.New(errs.KindIntent, err))
		return Result{Err: ce}
	}

	resp := p.policy.Process(ctx, intent, sess)
	serverResp := p.builder.BuildFromDialogue(ctx, resp, sess.ID, time.Since(start))
	return Result{Response: serverResp}
}

// stageAudio writes audio to a request-scoped temp file under cfg.TempDir,
// mirroring the original's upload_{file_id}.wav staging step.
func (p *Pipeline) stageAudio(requestID string, audio []byte) (string, error) {
	path := filepath.Join(p.cfg.TempDir, "voicekiosk_upload_"+requestID+".wav")
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return "", fmt.Errorf("stage uploaded audio: %w", err)
	}
	return path, nil
}

// menuText renders the catalog as plain text for the intent extractor's
// prompt (spec §4.2's "menu context" input), grouped by category the same
// way the Dialogue Policy's own menu listing is grouped.
func menuText(cat *menu.Catalog) string {
	if cat == nil {
		return ""
	}
	var out []byte
	for _, category := range cat.Categories() {
		items := cat.ItemsByCategory(category, true)
		if len(items) == 0 {
			continue
		}
		out = append(out, '[')
		out = append(out, category...)
		out = append(out, "]\n"...)
		for _, it := range items {
			out = append(out, "- "...)
			out = append(out, it.Name...)
			out = append(out, '\n')
		}
	}
	return string(out)
}

// Shutdown blocks until every in-flight request has released its worker
// slot, or ctx is done first. It acquires all cfg.Workers slots
// concurrently under an [errgroup.Group] so the drain is bounded by a
// single shared cancellation rather than a sequential wait per slot.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	var g errgroup.Group
	for i := 0; i < p.cfg.Workers; i++ {
		g.Go(func() error {
			return p.workers.Acquire(ctx, 1)
		})
	}
	return g.Wait()
}

// Stats is a snapshot for the /api/system/status pipeline_status field.
type Stats struct {
	Workers       int
	QueueCapacity int
	InFlight      int64
}

// Stats returns the pipeline's current configuration and load.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Workers:       p.cfg.Workers,
		QueueCapacity: p.cfg.QueueCapacity,
		InFlight:      p.inflight.Load(),
	}
}
