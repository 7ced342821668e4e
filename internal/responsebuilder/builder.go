// Package responsebuilder implements the Response Builder (spec §4.6):
// it turns a Dialogue Policy [dialogue.Response] into the wire
// [wire.ServerResponse], synthesizing or retrieving the reply's TTS audio
// along the way and deriving the UI action set.
//
// Grounded on the original source_code_v1 response_builder.py's
// build_response_from_dialogue and _generate_ui_actions_from_dialogue.
package responsebuilder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/melpes/voicekiosk/internal/dialogue"
	"github.com/melpes/voicekiosk/internal/external"
	"github.com/melpes/voicekiosk/internal/menu"
	"github.com/melpes/voicekiosk/internal/resilience"
	"github.com/melpes/voicekiosk/internal/ttscache"
	"github.com/melpes/voicekiosk/internal/wire"
)

// menuKeywords and paymentKeywords drive the reply-text UI-action
// heuristics (spec §4.6 step 4(d)).
var (
	menuKeywords    = []string{"메뉴", "선택", "주문"}
	paymentKeywords = []string{"결제", "계산", "지불"}
)

// Builder wires the TTS Cache, a synthesis collaborator (behind a circuit
// breaker fallback group), and the menu catalog into build_from_dialogue.
type Builder struct {
	Catalog *menu.Catalog
	Cache   *ttscache.Cache
	Synth   *resilience.FallbackGroup[external.Synthesizer]

	// Dir is the directory TTS audio files (real or silent-placeholder) are
	// written under.
	Dir string
	// BaseURL prefixes the file ID to build TTSAudioURL, e.g. "/api/voice/tts".
	BaseURL string
	// VoiceCfg fingerprints the current TTS provider/voice for cache keying
	// (spec §4.6 step 1).
	VoiceCfg map[string]string
}

// NewBuilder constructs a Builder. baseURL defaults to "/api/voice/tts".
func NewBuilder(catalog *menu.Catalog, cache *ttscache.Cache, synth *resilience.FallbackGroup[external.Synthesizer], dir, baseURL string, voiceCfg map[string]string) *Builder {
	if baseURL == "" {
		baseURL = "/api/voice/tts"
	}
	return &Builder{Catalog: catalog, Cache: cache, Synth: synth, Dir: dir, BaseURL: baseURL, VoiceCfg: voiceCfg}
}

// BuildFromDialogue implements spec §4.6's five steps.
func (b *Builder) BuildFromDialogue(ctx context.Context, resp dialogue.Response, sessionID string, processingTime time.Duration) wire.ServerResponse {
	ttsURL := b.synthesize(ctx, resp.Text)

	orderData := wire.FromOrder(resp.Order)
	if orderData != nil {
		orderData.RequiresConfirmation = resp.RequiresConfirmation
	}

	uiActions := b.deriveUIActions(resp, orderData)

	sid := sessionID
	return wire.ServerResponse{
		Success:        true,
		Message:        resp.Text,
		TTSAudioURL:    ttsURL,
		OrderData:      orderData,
		UIActions:      uiActions,
		ErrorInfo:      nil,
		ProcessingTime: processingTime.Seconds(),
		SessionID:      &sid,
		Timestamp:      wire.Timestamp(time.Now()),
	}
}

// synthesize implements steps 1-2: cache lookup, synthesis on miss, and a
// silent-WAV degrade on synthesis failure (spec §4.6's closing paragraph).
// Returns nil if text is empty, mirroring the original's guard.
func (b *Builder) synthesize(ctx context.Context, text string) *string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	key := ttscache.Key(text, b.VoiceCfg)
	if _, ok := b.Cache.Get(text, b.VoiceCfg); ok {
		return b.audioURL(key)
	}

	audio, contentType, err := b.synthesizeAudio(ctx, text)
	if err != nil {
		slog.Warn("tts synthesis failed, degrading to silent placeholder", "error", err)
		audio = silentWAV(text)
		contentType = "audio/wav"
	}

	path, writeErr := b.writeAudioFile(key, contentType, audio)
	if writeErr != nil {
		slog.Error("tts audio file write failed", "error", writeErr)
		return nil
	}
	b.Cache.Put(text, b.VoiceCfg, path, int64(len(audio)))

	return b.audioURL(key)
}

// synthResult bundles the two return values [resilience.ExecuteWithResult]
// needs to carry through its single generic result type.
type synthResult struct {
	audio       []byte
	contentType string
}

func (b *Builder) synthesizeAudio(ctx context.Context, text string) ([]byte, string, error) {
	if b.Synth == nil {
		return nil, "", fmt.Errorf("responsebuilder: no synthesis collaborator configured")
	}
	result, err := resilience.ExecuteWithResult(b.Synth, func(s external.Synthesizer) (synthResult, error) {
		audio, contentType, err := s.Synthesize(ctx, external.SynthesisRequest{Text: text, VoiceCfg: b.VoiceCfg})
		return synthResult{audio: audio, contentType: contentType}, err
	})
	if err != nil {
		return nil, "", err
	}
	return result.audio, result.contentType, nil
}

func (b *Builder) writeAudioFile(key, contentType string, audio []byte) (string, error) {
	if b.Dir == "" {
		return "", fmt.Errorf("responsebuilder: no TTS directory configured")
	}
	if err := os.MkdirAll(b.Dir, 0o755); err != nil {
		return "", err
	}
	ext := ".wav"
	if contentType != "" && contentType != "audio/wav" {
		if parts := strings.SplitN(contentType, "/", 2); len(parts) == 2 {
			ext = "." + parts[1]
		}
	}
	path := filepath.Join(b.Dir, "tts_"+key+ext)
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (b *Builder) audioURL(fileID string) *string {
	url := b.BaseURL + "/" + fileID
	return &url
}

// deriveUIActions ports the original's _generate_ui_actions_from_dialogue
// rule-for-rule (spec §4.6 step 4).
func (b *Builder) deriveUIActions(resp dialogue.Response, orderData *wire.OrderData) []wire.UIAction {
	var actions []wire.UIAction

	if orderData != nil {
		actions = append(actions, wire.UpdateOrderAction(orderData))
	}

	if resp.RequiresConfirmation {
		options := []string{"예", "아니오"}
		if strings.Contains(resp.Text, "결제") || strings.Contains(resp.Text, "계산") {
			options = []string{"결제 진행", "주문 수정", "취소"}
		}
		actions = append(actions, wire.ShowConfirmationAction(resp.Text, options))
	}

	for _, tag := range resp.SuggestedActions {
		switch tag {
		case "show_menu":
			actions = append(actions, b.menuAction())
		case "show_payment":
			if orderData != nil {
				actions = append(actions, wire.ShowPaymentAction(wire.PaymentDataFromOrder(orderData)))
			}
		case "continue_ordering":
			actions = append(actions, wire.UIAction{
				ActionType:        wire.ActionShowMenu,
				Data:              map[string]any{"message": "추가로 주문하실 메뉴가 있으신가요?"},
				RequiresUserInput: true,
			})
		}
	}

	textLower := strings.ToLower(resp.Text)
	if matchesAny(textLower, menuKeywords) && !hasAction(actions, wire.ActionShowMenu) {
		actions = append(actions, b.menuAction())
	}
	if matchesAny(textLower, paymentKeywords) && orderData != nil && !hasAction(actions, wire.ActionShowPayment) {
		actions = append(actions, wire.ShowPaymentAction(wire.PaymentDataFromOrder(orderData)))
	}

	return actions
}

// menuAction lists every available menu item, or degrades to a
// message-only action if the catalog has nothing to offer.
func (b *Builder) menuAction() wire.UIAction {
	var options []wire.MenuOption
	for _, category := range b.Catalog.Categories() {
		for _, item := range b.Catalog.ItemsByCategory(category, true) {
			options = append(options, wire.MenuOption{
				OptionID:    item.Name,
				DisplayText: item.Name,
				Category:    item.Category,
				Price:       item.BasePrice,
				Description: item.Description,
				Available:   item.Available,
			})
		}
	}
	if len(options) == 0 {
		return wire.ShowMenuMessageAction("메뉴를 확인해주세요")
	}
	return wire.ShowMenuAction(options)
}

func hasAction(actions []wire.UIAction, t wire.ActionType) bool {
	for _, a := range actions {
		if a.ActionType == t {
			return true
		}
	}
	return false
}

func matchesAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
