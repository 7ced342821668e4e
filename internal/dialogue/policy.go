package dialogue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/melpes/voicekiosk/internal/menu"
	"github.com/melpes/voicekiosk/internal/order"
	"github.com/melpes/voicekiosk/internal/session"
	"github.com/melpes/voicekiosk/pkg/types"
)

// setOptionTypes is the closed set of line-category tokens that become the
// "type" option when absent from an ORDER line (spec §4.4, GLOSSARY).
var setOptionTypes = map[string]bool{"단품": true, "세트": true, "라지세트": true}

// inquiryOrderKeywords trigger the order-status branch of an INQUIRY.
var inquiryOrderKeywords = []string{"주문", "내역", "확인", "상태", "현재"}

// Generator is the external LLM reasoner's free-form reply interface
// (spec §6: an external collaborator specified only by the interface the
// core consumes). The Dialogue Policy calls it for INQUIRY utterances that
// match neither the order-status nor the menu keyword branches.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// GenerateRequest carries everything the free-form generator needs to stay
// grounded: system instructions, the formatted menu, the current order
// summary (if any), the last turns of *this order's* dialogue, and the raw
// utterance.
type GenerateRequest struct {
	SystemPrompt string
	MenuText     string
	OrderSummary string
	History      []types.Message
	Utterance    string
}

// Response is the Dialogue Policy's output (spec §4.4): reply text, the
// possibly-updated order, a confirmation-required flag, suggested UI
// actions, and a metadata map (used to carry the payment-progress steps).
type Response struct {
	Text                 string
	Order                *order.Order
	RequiresConfirmation bool
	SuggestedActions     []string
	Metadata             map[string]any
}

// Policy is the Dialogue Policy: a state-dispatched function of
// (intent.Kind, payment sub-state, order emptiness).
type Policy struct {
	Catalog         *menu.Catalog
	Generator       Generator
	ProgressTracker *ProgressTracker

	// HistoryTurns bounds how many of the active order's dialogue turns
	// are fed to the free-form generator.
	HistoryTurns int
}

// NewPolicy builds a Policy over catalog, using generator for free-form
// INQUIRY replies and tracker for payment-progress polling.
func NewPolicy(catalog *menu.Catalog, generator Generator, tracker *ProgressTracker) *Policy {
	return &Policy{Catalog: catalog, Generator: generator, ProgressTracker: tracker, HistoryTurns: 6}
}

// Process interprets intent against sess's current order and conversation
// context, mutating the order in place and mirroring the reply into the
// context as an assistant turn.
func (p *Policy) Process(ctx context.Context, intent Intent, sess *session.Session) Response {
	cc := sess.Context

	orderID := ""
	if cc.Order != nil {
		orderID = cc.Order.ID
	}

	var resp Response
	if cc.Order != nil && cc.Order.Payment == order.PaymentProcessing {
		resp = p.handlePaymentOverride(cc, intent, cc.Order)
	} else {
		switch intent.Kind {
		case KindOrder:
			resp = p.handleOrder(intent, cc)
		case KindModify:
			resp = p.handleModify(intent, cc)
		case KindCancel:
			resp = p.handleCancel(intent, cc)
		case KindPayment:
			resp = p.handlePayment(ctx, intent, cc)
		case KindInquiry:
			resp = p.handleInquiry(ctx, intent, cc)
		default:
			resp = p.handleInquiry(ctx, Intent{Kind: KindInquiry, InquiryText: intent.RawText, RawText: intent.RawText}, cc)
		}
	}

	cc.Append(types.Message{Role: "assistant", Content: resp.Text, Timestamp: time.Now(), OrderID: orderID})
	cc.LastIntent = string(intent.Kind)
	resp.Order = cc.Order
	return resp
}

// handlePaymentOverride implements spec §4.4's payment sub-state override:
// while the order is PROCESSING, the raw utterance is matched against the
// closed affirmative/negative vocabularies rather than the LLM's intent
// label, because short confirmations are frequently mislabelled INQUIRY.
func (p *Policy) handlePaymentOverride(cc *session.Context, intent Intent, o *order.Order) Response {
	switch classifyConfirmation(intent.RawText) {
	case confirmationNegative:
		o.Payment = order.PaymentPending
		return Response{Text: "결제가 취소되었습니다", SuggestedActions: []string{"continue_ordering"}}
	case confirmationAffirmative:
		amount := o.TotalAmount()
		text := executePayment(o, p.ProgressTracker)
		cc.Order = order.New()
		return Response{
			Text:             text,
			SuggestedActions: []string{"start_order"},
			Metadata: map[string]any{
				"payment_progress": map[string]any{
					"steps":        paymentSteps,
					"step_delays":  []int{1000, 1000, 1000, 0},
					"total_amount": amount,
				},
			},
		}
	default:
		return Response{Text: "결제하시겠어요?", RequiresConfirmation: true, SuggestedActions: []string{"confirm", "cancel"}}
	}
}

func (p *Policy) handleOrder(intent Intent, cc *session.Context) Response {
	if len(intent.Items) == 0 {
		return Response{Text: "메뉴 말씀해 주세요", SuggestedActions: []string{"show_menu"}}
	}
	if cc.Order == nil {
		cc.Order = order.New()
	}

	var added []order.Line
	var failures []string
	for _, item := range intent.Items {
		options := cloneMap(item.Options)
		if _, has := options["type"]; !has && setOptionTypes[item.Category] {
			options["type"] = item.Category
		}

		if err := p.Catalog.Validate(item.Name, options); err != nil {
			failures = append(failures, err.Error())
			continue
		}
		menuItem, _ := p.Catalog.Get(item.Name)
		price := p.Catalog.PriceFor(menuItem, options)

		res := cc.Order.Add(item.Name, options["type"], item.Quantity, price, options)
		if !res.Success {
			failures = append(failures, res.Message)
			continue
		}
		added = append(added, *res.AddedLine)
	}

	switch {
	case len(added) > 0 && len(failures) == 0:
		return Response{Text: orderSuccessText(added), SuggestedActions: []string{"continue_ordering", "confirm_order", "show_payment"}}
	case len(added) > 0 && len(failures) > 0:
		text := fmt.Sprintf("%s\n\n하지만 %s", orderSuccessText(added), orderErrorText(failures))
		return Response{Text: text, SuggestedActions: []string{"retry_failed", "continue_ordering"}}
	default:
		return Response{Text: "죄송합니다. " + orderErrorText(failures), SuggestedActions: []string{"retry", "help"}}
	}
}

func (p *Policy) handleModify(intent Intent, cc *session.Context) Response {
	if cc.Order == nil {
		return Response{Text: "현재 진행 중인 주문이 없습니다. 먼저 주문을 해주세요.", SuggestedActions: []string{"start_order"}}
	}
	if len(intent.Mods) == 0 {
		return Response{Text: "어떤 것을 변경하시겠어요?", SuggestedActions: []string{"specify_modification"}}
	}

	var successes, failures []string
	var lastMsg string
	for _, mod := range intent.Mods {
		name := mod.ItemName
		if strings.TrimSpace(name) == "" {
			if cc.Order.IsEmpty() {
				failures = append(failures, "변경할 주문이 없습니다.")
				continue
			}
			name = cc.Order.Lines[0].Name
		}

		newOptions := mod.NewOptions
		if mod.Action == ModChangeOption && newOptions == nil {
			newOptions = recoverTypeFromText(intent.RawText)
		}

		var res order.Result
		switch mod.Action {
		case ModAdd:
			qty := 1
			if mod.NewQty != nil {
				qty = *mod.NewQty
			}
			item, ok := p.Catalog.Get(name)
			if !ok {
				res = order.Result{Success: false, Message: "해당 메뉴를 찾을 수 없습니다: " + name}
				break
			}
			price := p.Catalog.PriceFor(item, mod.NewOptions)
			res = cc.Order.Add(name, mod.NewOptions["type"], qty, price, mod.NewOptions)
		case ModRemove:
			res = cc.Order.Remove(name, mod.NewQty)
		case ModChangeQty:
			res = cc.Order.Modify(name, mod.NewQty, nil)
		case ModChangeOption:
			res = cc.Order.Modify(name, mod.NewQty, newOptions)
		default:
			res = order.Result{Success: false, Message: "알 수 없는 변경 액션입니다: " + string(mod.Action)}
		}

		if res.Success {
			successes = append(successes, res.Message)
			lastMsg = res.Message
		} else {
			failures = append(failures, res.Message)
		}
	}

	if len(successes) > 0 && len(failures) == 0 {
		text := "주문이 변경되었습니다."
		if len(successes) == 1 {
			text = lastMsg
		}
		return Response{Text: text, SuggestedActions: []string{"continue_ordering", "confirm_order", "show_payment"}}
	}
	return Response{Text: "변경 중 오류가 발생했습니다: " + strings.Join(failures, ", "), SuggestedActions: []string{"retry", "help"}}
}

// recoverTypeFromText re-derives a {type: ...} option from raw text when
// the intent extractor failed to populate new_options (spec §4.4's
// documented change_option fallback, preserved per spec §9).
func recoverTypeFromText(rawText string) map[string]string {
	text := strings.ToLower(rawText)
	switch {
	case strings.Contains(text, "단품"):
		return map[string]string{"type": "단품"}
	case strings.Contains(text, "라지세트"):
		return map[string]string{"type": "라지세트"}
	case strings.Contains(text, "세트"):
		return map[string]string{"type": "세트"}
	default:
		return nil
	}
}

func (p *Policy) handleCancel(intent Intent, cc *session.Context) Response {
	if cc.Order == nil {
		return Response{Text: "현재 진행 중인 주문이 없습니다.", SuggestedActions: []string{"start_order"}}
	}
	if len(intent.Targets) == 0 {
		return Response{
			Text:                 "전체 주문을 취소하시겠습니까?",
			RequiresConfirmation: true,
			SuggestedActions:     []string{"confirm_cancel", "continue_ordering"},
		}
	}

	var removed int
	var failures []string
	for _, name := range intent.Targets {
		res := cc.Order.Remove(name, nil)
		if res.Success {
			removed++
		} else {
			failures = append(failures, res.Message)
		}
	}

	if removed > 0 && len(failures) == 0 {
		return Response{Text: fmt.Sprintf("%d개 메뉴가 주문에서 제거되었습니다.", removed), SuggestedActions: []string{"continue_ordering", "confirm_order", "show_payment"}}
	}
	return Response{Text: "취소 중 오류가 발생했습니다: " + strings.Join(failures, ", "), SuggestedActions: []string{"continue_ordering", "confirm_order", "show_payment"}}
}

func (p *Policy) handlePayment(ctx context.Context, intent Intent, cc *session.Context) Response {
	if cc.Order == nil || cc.Order.IsEmpty() {
		return Response{Text: "주문할 메뉴가 없어요. 먼저 메뉴를 주문해 주세요.", SuggestedActions: []string{"start_order"}}
	}
	if cc.Order.Payment == order.PaymentProcessing {
		return p.handlePaymentOverride(cc, intent, cc.Order)
	}

	if res := cc.Order.Validate(); !res.Success {
		return Response{Text: "주문을 확정할 수 없습니다: " + res.Message, SuggestedActions: []string{"fix_order", "help"}}
	}

	cc.Order.Payment = order.PaymentProcessing
	summary := formatOrderSummary(cc.Order)
	return Response{
		Text:                 summary + "\n결제하시겠어요?",
		RequiresConfirmation: true,
		SuggestedActions:     []string{"confirm", "cancel"},
	}
}

func (p *Policy) handleInquiry(ctx context.Context, intent Intent, cc *session.Context) Response {
	text := intent.InquiryText
	if text == "" {
		text = intent.RawText
	}

	switch {
	case matchesAny(text, inquiryOrderKeywords):
		var reply string
		if cc.Order != nil && !cc.Order.IsEmpty() {
			reply = "현재 주문 내역입니다:\n\n" + formatOrderSummary(cc.Order)
		} else {
			reply = "현재 진행 중인 주문이 없습니다."
		}
		return Response{Text: reply, SuggestedActions: []string{"continue_ordering", "start_order"}}

	case strings.Contains(text, "메뉴"):
		return Response{Text: formatMenuListing(p.Catalog), SuggestedActions: []string{"continue_ordering", "help"}}

	default:
		return Response{Text: p.generateFreeForm(ctx, text, cc), SuggestedActions: []string{"continue_ordering", "help"}}
	}
}

// generateFreeForm delegates to the external LLM reasoner with the
// current order summary, the menu, and the last turns of *this order's*
// dialogue (spec §4.4 INQUIRY's free-form branch).
func (p *Policy) generateFreeForm(ctx context.Context, utterance string, cc *session.Context) string {
	if p.Generator == nil {
		return "죄송합니다, 다시 한번 말씀해 주세요."
	}

	var orderSummary string
	var orderID string
	if cc.Order != nil && !cc.Order.IsEmpty() {
		orderSummary = formatOrderSummary(cc.Order)
		orderID = cc.Order.ID
	}

	history := cc.HistoryForOrder(orderID)
	if n := p.HistoryTurns; n > 0 && len(history) > n {
		history = history[len(history)-n:]
	}

	reply, err := p.Generator.Generate(ctx, GenerateRequest{
		SystemPrompt: "당신은 음성 키오스크 주문 도우미입니다. 한두 문장으로 간결하게 답하세요.",
		MenuText:     formatMenuListing(p.Catalog),
		OrderSummary: orderSummary,
		History:      history,
		Utterance:    utterance,
	})
	if err != nil {
		return "죄송합니다, 다시 한번 말씀해 주세요."
	}
	return reply
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
