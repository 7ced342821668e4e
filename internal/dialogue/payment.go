package dialogue

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/melpes/voicekiosk/internal/order"
)

// paymentSteps is the fixed four-step progression spec §4.4.1 specifies.
// The payment routine never talks to a real payment network — it is a
// scripted state machine; a future extension may make it pluggable.
var paymentSteps = []string{
	"결제를 진행합니다...",
	"카드를 삽입해 주세요...",
	"결제 승인 중...",
	"결제가 완료되었습니다!",
}

// defaultStepDelay is the per-step delay the progress poll uses to compute
// a deterministic snapshot (spec §9: "model as a sequence of timed
// messages ... the server records the current step and deadline per
// order, so polls return a deterministic snapshot").
const defaultStepDelay = time.Second

// ProgressSnapshot is what /api/payment/progress/{order_id} reports.
type ProgressSnapshot struct {
	OrderID     string
	Step        int
	StepText    string
	Steps       []string
	Done        bool
	TotalAmount int64
}

// progressEntry records when a payment's step clock started.
type progressEntry struct {
	startedAt   time.Time
	totalAmount int64
	stepDelay   time.Duration
}

// ProgressTracker tracks the in-flight payment progression per order ID so
// a client can poll a deterministic snapshot instead of blocking on a
// server-side sleep. Safe for concurrent use.
type ProgressTracker struct {
	mu      sync.Mutex
	entries map[string]*progressEntry
}

// NewProgressTracker creates an empty tracker.
func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{entries: make(map[string]*progressEntry)}
}

// Start records the beginning of orderID's payment progression.
func (t *ProgressTracker) Start(orderID string, totalAmount int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[orderID] = &progressEntry{
		startedAt:   time.Now(),
		totalAmount: totalAmount,
		stepDelay:   defaultStepDelay,
	}
}

// Snapshot computes the deterministic current step for orderID based on
// elapsed time since Start, given defaultStepDelay per step.
func (t *ProgressTracker) Snapshot(orderID string) (ProgressSnapshot, bool) {
	t.mu.Lock()
	e, ok := t.entries[orderID]
	t.mu.Unlock()
	if !ok {
		return ProgressSnapshot{}, false
	}

	elapsed := time.Since(e.startedAt)
	step := int(elapsed / e.stepDelay)
	if step >= len(paymentSteps) {
		step = len(paymentSteps) - 1
	}
	return ProgressSnapshot{
		OrderID:     orderID,
		Step:        step,
		StepText:    paymentSteps[step],
		Steps:       append([]string(nil), paymentSteps...),
		Done:        step == len(paymentSteps)-1,
		TotalAmount: e.totalAmount,
	}, true
}

// Clear drops orderID's tracked progression (called once the client has
// observed completion, or the session ends).
func (t *ProgressTracker) Clear(orderID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, orderID)
}

// paymentCompletionText is the exact closing line spec §8 scenario 5
// requires: "총 <amount>원 결제되었습니다." with a plain (non-grouped)
// amount, distinct from the comma-grouped order-summary format.
func paymentCompletionText(amount int64) string {
	return fmt.Sprintf("총 %d원 결제되었습니다.", amount)
}

// executePayment runs the four-step payment progression against o: it
// starts tracking progress (if a tracker is set), confirms the order, marks
// it paid, and returns the reply text containing every step plus the
// completion line (spec §8 scenario 5: the reply must contain all four
// step strings).
func executePayment(o *order.Order, tracker *ProgressTracker) string {
	amount := o.TotalAmount()
	if tracker != nil {
		tracker.Start(o.ID, amount)
	}

	o.Confirm()
	o.Payment = order.PaymentCompleted

	lines := append([]string(nil), paymentSteps...)
	lines = append(lines, paymentCompletionText(amount))
	return strings.Join(lines, "\n")
}
