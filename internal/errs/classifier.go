// Package errs implements the closed error taxonomy described in spec §7
// and §4.10: any error crossing the core boundary (from an external
// collaborator, from validation, or from a programmer mistake) is
// classified into one of a fixed set of [Kind] values, each carrying a
// severity, a localized user-facing message, a recovery-action list, and
// the UI actions the client should show.
//
// Classification first tries typed adapters (errors wrapped at the
// boundary with [New] and a specific [Kind]); the substring table in
// [Classify] is a fallback for errors that arrive unwrapped from external
// collaborators, documented so a future typed pathway can supersede it
// (spec §9).
package errs

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Kind is a closed taxonomy of error categories the core can produce.
type Kind string

const (
	KindNetwork         Kind = "NETWORK_ERROR"
	KindTimeout         Kind = "TIMEOUT_ERROR"
	KindValidation      Kind = "VALIDATION_ERROR"
	KindSpeech          Kind = "SPEECH_RECOGNITION_ERROR"
	KindIntent          Kind = "INTENT_RECOGNITION_ERROR"
	KindOrderProcessing Kind = "ORDER_PROCESSING_ERROR"
	KindServer          Kind = "SERVER_ERROR"
	KindAudio           Kind = "AUDIO_PROCESSING_ERROR"
	KindPayment         Kind = "PAYMENT_ERROR"
	KindUnknown         Kind = "UNKNOWN_ERROR"
)

// Severity ranks how urgently an error should be surfaced.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// profile holds the fixed presentation for one Kind.
type profile struct {
	severity  Severity
	message   string
	recovery  []string
	uiActions []string
}

// profiles is the fixed per-kind table from spec §7 and SPEC_FULL §4.11.
var profiles = map[Kind]profile{
	KindNetwork: {
		severity: SeverityMedium,
		message:  "네트워크 연결에 문제가 발생했습니다.",
		recovery: []string{"잠시 후 다시 시도해 주세요", "네트워크 연결을 확인해 주세요"},
		uiActions: []string{"show_error", "show_retry_button"},
	},
	KindTimeout: {
		severity: SeverityMedium,
		message:  "응답 시간이 초과되었습니다.",
		recovery: []string{"다시 한번 말씀해 주세요", "더 짧게 말씀해 주세요"},
		uiActions: []string{"show_error", "show_retry_button"},
	},
	KindValidation: {
		severity: SeverityLow,
		message:  "요청하신 파일을 처리할 수 없습니다.",
		recovery: []string{"파일 형식을 확인해 주세요 (WAV)", "파일 크기를 확인해 주세요"},
		uiActions: []string{"show_error"},
	},
	KindSpeech: {
		severity: SeverityMedium,
		message:  "음성을 인식하지 못했습니다.",
		recovery: []string{"더 명확하게 말씀해 주세요", "조용한 곳에서 다시 시도해 주세요"},
		uiActions: []string{"show_error", "show_voice_guide"},
	},
	KindIntent: {
		severity: SeverityMedium,
		message:  "요청을 이해하지 못했습니다.",
		recovery: []string{"다시 한번 말씀해 주세요", "메뉴판을 이용해 주세요"},
		uiActions: []string{"show_error"},
	},
	KindOrderProcessing: {
		severity: SeverityMedium,
		message:  "주문 처리 중 문제가 발생했습니다.",
		recovery: []string{"주문을 다시 확인해 주세요", "직원을 호출해 주세요"},
		uiActions: []string{"show_error", "show_menu"},
	},
	KindServer: {
		severity: SeverityHigh,
		message:  "서버에 문제가 발생했습니다.",
		recovery: []string{"잠시 후 다시 시도해 주세요", "문제가 지속되면 직원에게 문의해 주세요"},
		uiActions: []string{"show_error"},
	},
	KindAudio: {
		severity: SeverityMedium,
		message:  "오디오 처리 중 문제가 발생했습니다.",
		recovery: []string{"마이크를 확인해 주세요", "다시 녹음해 주세요"},
		uiActions: []string{"show_error", "show_voice_guide"},
	},
	KindPayment: {
		severity: SeverityHigh,
		message:  "결제 처리 중 문제가 발생했습니다.",
		recovery: []string{"결제를 다시 시도해 주세요", "다른 결제 수단을 이용해 주세요"},
		uiActions: []string{"show_error", "show_payment"},
	},
	KindUnknown: {
		severity: SeverityLow,
		message:  "알 수 없는 오류가 발생했습니다.",
		recovery: []string{"다시 시도해 주세요"},
		uiActions: []string{"show_error"},
	},
}

// ClassifiedError is an error that has been assigned a [Kind], [Severity],
// user-facing message, recovery actions, and UI actions. It wraps the
// original error so callers can still use [errors.Is]/[errors.As].
type ClassifiedError struct {
	Kind       Kind
	Severity   Severity
	Message    string
	Recovery   []string
	UIActions  []string
	Err        error
}

func (e *ClassifiedError) Error() string {
	if e.Err == nil {
		return string(e.Kind) + ": " + e.Message
	}
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *ClassifiedError) Unwrap() error { return e.Err }

// New wraps err as a [ClassifiedError] of the given kind, using the fixed
// presentation profile for that kind. Use this at a boundary where the
// caller knows precisely what went wrong, bypassing the substring fallback.
func New(kind Kind, err error) *ClassifiedError {
	p := profiles[kind]
	if p.message == "" {
		p = profiles[KindUnknown]
		kind = KindUnknown
	}
	ce := &ClassifiedError{
		Kind:      kind,
		Severity:  p.severity,
		Message:   p.message,
		UIActions: append([]string(nil), p.uiActions...),
		Err:       err,
	}
	ce.Recovery = append([]string(nil), p.recovery...)
	return ce
}

// substringRules maps a kind to the case-insensitive substrings that
// identify it when the incoming error carries no typed classification.
// Order matters: more specific kinds are checked before generic ones.
var substringRules = []struct {
	kind     Kind
	patterns []string
}{
	{KindTimeout, []string{"timeout", "deadline exceeded", "context canceled"}},
	{KindNetwork, []string{"connection", "network", "dial", "refused", "reset by peer"}},
	{KindValidation, []string{"validation", "invalid file", "file size", "extension"}},
	{KindSpeech, []string{"whisper", "speech", "audio", "recognition"}},
	{KindIntent, []string{"llm", "gpt", "intent"}},
	{KindOrderProcessing, []string{"order", "menu", "payment"}},
	{KindServer, []string{"permission", "import", "startup", "nil map", "index out of range"}},
}

// Classify maps err into a [ClassifiedError] following spec §4.10's
// substring rules. If err is already a [*ClassifiedError] it is returned
// unchanged (classification only happens once, at the boundary).
func Classify(err error) *ClassifiedError {
	if err == nil {
		return nil
	}
	var existing *ClassifiedError
	if errors.As(err, &existing) {
		return existing
	}

	msg := strings.ToLower(err.Error())
	for _, rule := range substringRules {
		for _, pattern := range rule.patterns {
			if strings.Contains(msg, pattern) {
				return New(rule.kind, err)
			}
		}
	}
	return New(KindUnknown, err)
}

// ---- Escalation tracking (spec §7 "Escalation") ----

// escalationWindow is the trailing window over which repeated occurrences
// of the same kind are counted.
const escalationWindow = 10 * time.Minute

// escalationThreshold is the occurrence count at which subsequent errors
// of the same kind are escalated to HIGH severity.
const escalationThreshold = 5

// Tracker counts recent occurrences per [Kind] and escalates severity once
// a kind has recurred [escalationThreshold] times within
// [escalationWindow]. Safe for concurrent use.
type Tracker struct {
	mu   sync.Mutex
	seen map[Kind][]time.Time
}

// NewTracker creates an empty [Tracker].
func NewTracker() *Tracker {
	return &Tracker{seen: make(map[Kind][]time.Time)}
}

// Observe records ce's occurrence and, if its kind has recurred at least
// [escalationThreshold] times within [escalationWindow], escalates its
// severity to HIGH and appends the support-contact suggestion. The
// (possibly escalated) error is returned for convenience.
func (t *Tracker) Observe(ce *ClassifiedError) *ClassifiedError {
	if ce == nil {
		return nil
	}
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	times := t.seen[ce.Kind]
	cutoff := now.Add(-escalationWindow)
	kept := times[:0]
	for _, ts := range times {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	kept = append(kept, now)
	t.seen[ce.Kind] = kept

	if len(kept) >= escalationThreshold && ce.Severity != SeverityCritical {
		ce.Severity = SeverityHigh
		ce.Recovery = append(ce.Recovery, "문제가 반복되면 고객센터로 문의해 주세요")
		slog.Warn("error kind escalated", "kind", ce.Kind, "count", len(kept))
	}
	return ce
}

// Stats returns the number of occurrences of each [Kind] currently held
// within [escalationWindow], for the /api/errors/stats endpoint.
func (t *Tracker) Stats() map[Kind]int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-escalationWindow)
	out := make(map[Kind]int, len(t.seen))
	for kind, times := range t.seen {
		count := 0
		for _, ts := range times {
			if ts.After(cutoff) {
				count++
			}
		}
		if count > 0 {
			out[kind] = count
		}
	}
	return out
}

// Total returns the sum of all kinds' counts currently held within
// [escalationWindow].
func (t *Tracker) Total() int {
	total := 0
	for _, n := range t.Stats() {
		total += n
	}
	return total
}

// Clear resets all tracked occurrences (spec §4.9's /api/errors/clear).
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seen = make(map[Kind][]time.Time)
}

// LogStack logs ce with a stack trace when its severity is HIGH or
// CRITICAL, per spec §7 ("Stack traces are logged (HIGH/CRITICAL only);
// never returned to the client"). ctx carries request-scoped attributes
// picked up by the slog handler, if any.
func LogStack(ctx context.Context, ce *ClassifiedError, stack string) {
	if ce == nil {
		return
	}
	if ce.Severity != SeverityHigh && ce.Severity != SeverityCritical {
		return
	}
	slog.ErrorContext(ctx, "classified error",
		"kind", ce.Kind,
		"severity", ce.Severity,
		"error", ce.Error(),
		"stack", stack,
	)
}
