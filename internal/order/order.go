// Package order implements the Order Aggregate (spec §4.2): a per-session
// cart that merges identical lines, tracks totals, and advances through a
// monotone status lifecycle. The aggregate is deliberately not safe for
// concurrent use — ownership is confined to a single session, serialized by
// the Session Registry (spec §5) — so every method mutates in place and
// returns a [Result] describing what happened.
package order

import (
	"time"

	"github.com/google/uuid"
)

// Status is an Order's position in its monotone lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ErrorCode is the closed set of Order Aggregate failure codes (spec §4.2,
// §8's "Modify-first fallback" property).
type ErrorCode string

const (
	CodeNoActiveOrder ErrorCode = "NO_ACTIVE_ORDER"
	CodeEmptyOrder    ErrorCode = "EMPTY_ORDER"
	CodeItemNotFound  ErrorCode = "ITEM_NOT_FOUND"
	CodeInvalidOption ErrorCode = "INVALID_OPTION"
	CodeInvalidQty    ErrorCode = "INVALID_QUANTITY"
	CodeLineNotFound  ErrorCode = "LINE_NOT_FOUND"
	CodeInvalidStatus ErrorCode = "INVALID_STATUS_TRANSITION"
)

// Line is one entry in an Order: a menu item, its category-at-time-of-order
// ("단품"/"세트"/"라지세트" — carried under options["type"]), a quantity, a
// unit-price snapshot resolved at add-time, and an option map.
type Line struct {
	ID        string
	Name      string
	Category  string
	Quantity  int
	UnitPrice int64
	Options   map[string]string
}

// Total is quantity × unit price.
func (l Line) Total() int64 {
	return int64(l.Quantity) * l.UnitPrice
}

// sameLine reports whether two lines are mergeable: equal name and equal
// option maps (spec §3's "Two lines are mergeable iff name and option map
// are equal").
func sameLine(name string, options map[string]string, l Line) bool {
	if l.Name != name {
		return false
	}
	if len(l.Options) != len(options) {
		return false
	}
	for k, v := range options {
		if l.Options[k] != v {
			return false
		}
	}
	return true
}

// PaymentState is an Order's position in the payment sub-state machine
// (spec §3 "Payment Sub-state"), authoritative for routing ambiguous short
// utterances during checkout (spec §4.4).
type PaymentState string

const (
	PaymentNone       PaymentState = "none"
	PaymentPending    PaymentState = "pending"
	PaymentProcessing PaymentState = "processing"
	PaymentCompleted  PaymentState = "completed"
)

// Order is a per-session cart.
type Order struct {
	ID           string
	Lines        []Line
	Status       Status
	Payment      PaymentState
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CustomerInfo map[string]string
}

// New creates a fresh, empty, PENDING order with no payment in progress.
func New() *Order {
	now := time.Now()
	return &Order{
		ID:        uuid.NewString(),
		Status:    StatusPending,
		Payment:   PaymentNone,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TotalAmount is Σ line totals (spec §8 "Order totals consistency").
func (o *Order) TotalAmount() int64 {
	var total int64
	for _, l := range o.Lines {
		total += l.Total()
	}
	return total
}

// ItemCount is the number of distinct lines.
func (o *Order) ItemCount() int { return len(o.Lines) }

// TotalQuantity is the sum of every line's quantity.
func (o *Order) TotalQuantity() int {
	var n int
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return n
}

// IsEmpty reports whether the order has no lines.
func (o *Order) IsEmpty() bool { return len(o.Lines) == 0 }

func (o *Order) touch() { o.UpdatedAt = time.Now() }

// Result is the sum type every Order Aggregate operation returns: either a
// Success carrying the (mutated) order, a message, and optionally the line
// that was added, or a Failure carrying a closed [ErrorCode] and message.
type Result struct {
	Success   bool
	Order     *Order
	Message   string
	AddedLine *Line
	Code      ErrorCode
}

func ok(o *Order, message string, added *Line) Result {
	return Result{Success: true, Order: o, Message: message, AddedLine: added}
}

func fail(code ErrorCode, message string) Result {
	return Result{Success: false, Code: code, Message: message}
}

// Add merges into an existing line iff (name, options) match an existing
// line; otherwise it appends a new one with unitPrice as its snapshot
// price. qty must be ≥ 1.
func (o *Order) Add(name, category string, qty int, unitPrice int64, options map[string]string) Result {
	if qty < 1 {
		return fail(CodeInvalidQty, "수량은 1개 이상이어야 합니다")
	}
	for i := range o.Lines {
		if sameLine(name, options, o.Lines[i]) {
			o.Lines[i].Quantity += qty
			o.touch()
			added := o.Lines[i]
			return ok(o, "주문에 추가되었습니다", &added)
		}
	}
	line := Line{
		ID:        uuid.NewString(),
		Name:      name,
		Category:  category,
		Quantity:  qty,
		UnitPrice: unitPrice,
		Options:   cloneOptions(options),
	}
	o.Lines = append(o.Lines, line)
	o.touch()
	added := line
	return ok(o, "주문에 추가되었습니다", &added)
}

// Remove deletes or decrements the line named name. qty == nil deletes the
// line outright; qty < line.Quantity decrements; qty ≥ line.Quantity
// deletes (spec §4.2).
func (o *Order) Remove(name string, qty *int) Result {
	idx := o.findByName(name)
	if idx < 0 {
		return fail(CodeLineNotFound, "해당 메뉴를 주문에서 찾을 수 없습니다: "+name)
	}
	if qty == nil || *qty >= o.Lines[idx].Quantity {
		o.Lines = append(o.Lines[:idx], o.Lines[idx+1:]...)
	} else {
		o.Lines[idx].Quantity -= *qty
	}
	o.touch()
	return ok(o, "주문에서 제거되었습니다", nil)
}

// Modify changes a line's quantity and/or options. An empty name targets
// the first line — spec §8's "Modify-first fallback" — and fails with
// NO_ACTIVE_ORDER on an empty order.
func (o *Order) Modify(name string, newQty *int, newOptions map[string]string) Result {
	var idx int
	if name == "" {
		if o.IsEmpty() {
			return fail(CodeNoActiveOrder, "현재 진행 중인 주문이 없습니다")
		}
		idx = 0
	} else {
		idx = o.findByName(name)
		if idx < 0 {
			return fail(CodeItemNotFound, "해당 메뉴를 주문에서 찾을 수 없습니다: "+name)
		}
	}

	if newQty != nil {
		if *newQty < 1 {
			return fail(CodeInvalidQty, "수량은 1개 이상이어야 합니다")
		}
		o.Lines[idx].Quantity = *newQty
	}
	if newOptions != nil {
		merged := cloneOptions(o.Lines[idx].Options)
		for k, v := range newOptions {
			merged[k] = v
		}
		o.Lines[idx].Options = merged
	}
	o.touch()
	line := o.Lines[idx]
	return ok(o, "주문이 변경되었습니다", &line)
}

// Clear empties the order and resets its status to PENDING.
func (o *Order) Clear() Result {
	o.Lines = nil
	o.Status = StatusPending
	o.touch()
	return ok(o, "주문이 초기화되었습니다", nil)
}

// Validate checks the order's internal invariants hold: every line has a
// positive quantity and a non-empty name. It does not consult the Menu
// Catalog — that validation happens earlier, in the Dialogue Policy, via
// [menu.Catalog.Validate].
func (o *Order) Validate() Result {
	if o.IsEmpty() {
		return fail(CodeEmptyOrder, "주문 내역이 없습니다")
	}
	for _, l := range o.Lines {
		if l.Quantity < 1 {
			return fail(CodeInvalidQty, "수량은 1개 이상이어야 합니다")
		}
		if l.Name == "" {
			return fail(CodeItemNotFound, "메뉴명이 비어있는 주문 라인이 있습니다")
		}
	}
	return ok(o, "주문이 유효합니다", nil)
}

// Confirm requires a non-empty order and transitions PENDING→CONFIRMED.
func (o *Order) Confirm() Result {
	if o.IsEmpty() {
		return fail(CodeEmptyOrder, "주문 내역이 없습니다")
	}
	if !o.advance(StatusConfirmed) {
		return fail(CodeInvalidStatus, "이미 처리된 주문입니다")
	}
	o.touch()
	return ok(o, "주문이 확인되었습니다", nil)
}

// advance transitions the order to next if that transition is monotone:
// PENDING→CONFIRMED→PREPARING→READY→COMPLETED, or any state→CANCELLED.
func (o *Order) advance(next Status) bool {
	if next == StatusCancelled {
		o.Status = StatusCancelled
		return true
	}
	order := []Status{StatusPending, StatusConfirmed, StatusPreparing, StatusReady, StatusCompleted}
	cur, want := -1, -1
	for i, s := range order {
		if s == o.Status {
			cur = i
		}
		if s == next {
			want = i
		}
	}
	if cur < 0 || want < 0 || want != cur+1 {
		return false
	}
	o.Status = next
	return true
}

func (o *Order) findByName(name string) int {
	for i, l := range o.Lines {
		if l.Name == name {
			return i
		}
	}
	return -1
}

func cloneOptions(options map[string]string) map[string]string {
	out := make(map[string]string, len(options))
	for k, v := range options {
		out[k] = v
	}
	return out
}
