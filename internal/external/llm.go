package external

import (
	"context"

	"github.com/melpes/voicekiosk/internal/dialogue"
	"github.com/melpes/voicekiosk/pkg/types"
)

// IntentRequest carries everything the LLM reasoner needs to classify one
// utterance against the kiosk's closed intent vocabulary (spec §3 Intent).
type IntentRequest struct {
	Utterance string
	MenuText  string
	History   []types.Message
}

// IntentExtractor is the external LLM reasoner's intent-classification
// collaborator (spec §2 "Intent extractor (external: LLM)"). It is a
// distinct interface from [dialogue.Generator] because the two calls have
// different output contracts: this one must return a structured, closed
// [dialogue.Intent]; Generator returns free-form text for INQUIRY replies
// that don't fit the order-status or menu-listing branches.
type IntentExtractor interface {
	ExtractIntent(ctx context.Context, req IntentRequest) (dialogue.Intent, error)
}
