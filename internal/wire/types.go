// Package wire defines the JSON schema the service speaks over HTTP
// (spec §6): [ServerResponse] and its nested [OrderData], [UIAction], and
// [ErrorInfo] types, plus the helpers that convert domain values into
// them; the HTTP handlers that serialize them live in internal/server. Field
// names and JSON tags are bit-exact against spec §6's schema because the
// remote UI client parses this shape directly.
package wire

import "time"

// ServerResponse is the top-level shape every `/api/voice/process` (and
// most other) response is serialized as.
type ServerResponse struct {
	Success        bool       `json:"success"`
	Message        string     `json:"message"`
	TTSAudioURL    *string    `json:"tts_audio_url"`
	OrderData      *OrderData `json:"order_data"`
	UIActions      []UIAction `json:"ui_actions"`
	ErrorInfo      *ErrorInfo `json:"error_info"`
	ProcessingTime float64    `json:"processing_time"`
	SessionID      *string    `json:"session_id"`
	Timestamp      string     `json:"timestamp"`
}

// OrderItem is one line of [OrderData.Items].
type OrderItem struct {
	ItemID     string            `json:"item_id"`
	Name       string            `json:"name"`
	Category   string            `json:"category"`
	Quantity   int               `json:"quantity"`
	Price      int64             `json:"price"`
	Options    map[string]string `json:"options"`
	TotalPrice int64             `json:"total_price"`
}

// OrderData is the wire projection of an [order.Order] snapshot.
type OrderData struct {
	OrderID              *string     `json:"order_id"`
	Items                []OrderItem `json:"items"`
	TotalAmount          int64       `json:"total_amount"`
	Status               string      `json:"status"`
	RequiresConfirmation bool        `json:"requires_confirmation"`
	ItemCount            int         `json:"item_count"`
	CreatedAt            string      `json:"created_at"`
	UpdatedAt            string      `json:"updated_at"`
}

// ActionType is the closed set of UI action kinds the remote client
// renders (spec §6).
type ActionType string

const (
	ActionShowMenu         ActionType = "show_menu"
	ActionShowPayment      ActionType = "show_payment"
	ActionShowOptions      ActionType = "show_options"
	ActionUpdateOrder      ActionType = "update_order"
	ActionShowConfirmation ActionType = "show_confirmation"
	ActionShowError        ActionType = "show_error"
	ActionShowVoiceGuide   ActionType = "show_voice_guide"
	ActionShowRetryButton  ActionType = "show_retry_button"
	ActionShowNetworkState ActionType = "show_network_status"
)

// UIAction is one hint the Response Builder or Error Classifier emits for
// the remote client to render.
type UIAction struct {
	ActionType        ActionType     `json:"action_type"`
	Data              map[string]any `json:"data"`
	Priority          int            `json:"priority"`
	RequiresUserInput bool           `json:"requires_user_input"`
	TimeoutSeconds    *int           `json:"timeout_seconds"`
}

// ErrorInfo is the wire projection of an [errs.ClassifiedError].
type ErrorInfo struct {
	ErrorCode       string         `json:"error_code"`
	ErrorMessage    string         `json:"error_message"`
	RecoveryActions []string       `json:"recovery_actions"`
	Details         map[string]any `json:"details"`
	Timestamp       string         `json:"timestamp"`
}

// Timestamp formats t per spec §6's "ISO-8601 with microseconds". Exported
// so other layers (Response Builder, Error Classifier callers) can stamp a
// [ServerResponse] without duplicating the layout string.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000Z07:00")
}

// isoMicro is the package-internal spelling of [Timestamp].
func isoMicro(t time.Time) string {
	return Timestamp(t)
}
