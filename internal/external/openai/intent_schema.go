package openai

import (
	"encoding/json"
	"fmt"

	"github.com/melpes/voicekiosk/internal/dialogue"
)

// intentEnvelope is the JSON shape the model is instructed to emit for
// intent classification. It mirrors [dialogue.Intent]'s tagged-variant
// fields but uses plain JSON tags so it can be parsed out of the model's
// response content without a tool-calling round trip.
type intentEnvelope struct {
	Kind       string     `json:"kind"`
	Confidence float64    `json:"confidence"`
	Items      []menuLine `json:"items,omitempty"`
	Mods       []mod      `json:"mods,omitempty"`
	Targets    []string   `json:"targets,omitempty"`
	Method     string     `json:"method,omitempty"`
	Inquiry    string     `json:"inquiry_text,omitempty"`
}

type menuLine struct {
	Name     string            `json:"name"`
	Category string            `json:"category,omitempty"`
	Quantity int               `json:"quantity"`
	Options  map[string]string `json:"options,omitempty"`
}

type mod struct {
	ItemName   string            `json:"item_name"`
	Action     string            `json:"action"`
	NewQty     *int              `json:"new_quantity,omitempty"`
	NewOptions map[string]string `json:"new_options,omitempty"`
}

// intentResponseSchema is the JSON Schema handed to the Chat Completions
// API's response_format so the model is constrained to intentEnvelope's
// shape (spec §9: "the intent extractor should guarantee new_options is
// populated" — constraining the schema is this client's contribution
// toward that guarantee, though the dialogue policy's raw-text fallback
// stays in place for models that ignore the schema).
var intentResponseSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"kind":       map[string]any{"type": "string", "enum": []string{"ORDER", "MODIFY", "CANCEL", "PAYMENT", "INQUIRY", "UNKNOWN"}},
		"confidence": map[string]any{"type": "number"},
		"items": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":     map[string]any{"type": "string"},
					"category": map[string]any{"type": "string"},
					"quantity": map[string]any{"type": "integer"},
					"options":  map[string]any{"type": "object"},
				},
			},
		},
		"mods": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"item_name":    map[string]any{"type": "string"},
					"action":       map[string]any{"type": "string"},
					"new_quantity": map[string]any{"type": "integer"},
					"new_options":  map[string]any{"type": "object"},
				},
			},
		},
		"targets":      map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"method":       map[string]any{"type": "string"},
		"inquiry_text": map[string]any{"type": "string"},
	},
	"required": []string{"kind", "confidence"},
}

// parseIntentEnvelope decodes content (the model's raw JSON response text)
// into a [dialogue.Intent].
func parseIntentEnvelope(content, rawText string) (dialogue.Intent, error) {
	var env intentEnvelope
	if err := json.Unmarshal([]byte(content), &env); err != nil {
		return dialogue.Intent{}, fmt.Errorf("openai: decode intent response: %w", err)
	}

	intent := dialogue.Intent{
		Kind:        dialogue.Kind(env.Kind),
		Confidence:  env.Confidence,
		RawText:     rawText,
		Targets:     env.Targets,
		Method:      dialogue.PaymentMethod(env.Method),
		InquiryText: env.Inquiry,
	}
	for _, it := range env.Items {
		intent.Items = append(intent.Items, dialogue.MenuLine{
			Name: it.Name, Category: it.Category, Quantity: it.Quantity, Options: it.Options,
		})
	}
	for _, m := range env.Mods {
		intent.Mods = append(intent.Mods, dialogue.Mod{
			ItemName: m.ItemName, Action: dialogue.ModAction(m.Action), NewQty: m.NewQty, NewOptions: m.NewOptions,
		})
	}
	return intent, nil
}
