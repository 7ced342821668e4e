package wire

// MenuOption is one selectable entry in a show_menu action's data (spec §6,
// GLOSSARY: the remote client renders these as tappable menu tiles).
type MenuOption struct {
	OptionID    string `json:"option_id"`
	DisplayText string `json:"display_text"`
	Category    string `json:"category"`
	Price       int64  `json:"price"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
}

// PaymentData is a show_payment action's data: the order total plus the
// original's fixed 10% tax line and payment-method list.
type PaymentData struct {
	TotalAmount    int64       `json:"total_amount"`
	PaymentMethods []string    `json:"payment_methods"`
	OrderSummary   []OrderItem `json:"order_summary"`
	TaxAmount      float64     `json:"tax_amount"`
	ServiceCharge  float64     `json:"service_charge"`
	DiscountAmount float64     `json:"discount_amount"`
}

// UpdateOrderAction wraps an order snapshot as an update_order UI action.
func UpdateOrderAction(data *OrderData) UIAction {
	return UIAction{ActionType: ActionUpdateOrder, Data: map[string]any{"order": data}}
}

// ShowConfirmationAction prompts the user with message and a closed choice
// set (spec §4.6 step 4(b)).
func ShowConfirmationAction(message string, options []string) UIAction {
	return UIAction{
		ActionType:        ActionShowConfirmation,
		Data:              map[string]any{"message": message, "options": options},
		RequiresUserInput: true,
	}
}

// ShowMenuAction lists the available menu options for the user to pick from.
func ShowMenuAction(options []MenuOption) UIAction {
	return UIAction{
		ActionType:        ActionShowMenu,
		Data:              map[string]any{"menu_options": options},
		RequiresUserInput: true,
	}
}

// ShowMenuMessageAction is the degraded show_menu action emitted when no
// menu options are available to list (mirrors the original's fallback when
// _get_available_menu_options returns empty).
func ShowMenuMessageAction(message string) UIAction {
	return UIAction{
		ActionType:        ActionShowMenu,
		Data:              map[string]any{"message": message},
		RequiresUserInput: true,
	}
}

// ShowPaymentAction surfaces the payment screen for data.
func ShowPaymentAction(data PaymentData) UIAction {
	return UIAction{ActionType: ActionShowPayment, Data: map[string]any{"payment": data}}
}

// ShowErrorAction surfaces a failed request with its recovery hints (spec
// §4.9 / Error Classifier responses).
func ShowErrorAction(message string, recoveryActions []string) UIAction {
	return UIAction{
		ActionType: ActionShowError,
		Data:       map[string]any{"error_message": message, "recovery_actions": recoveryActions},
	}
}

// PaymentDataFromOrder derives a [PaymentData] from an order snapshot, per
// the original's fixed 10% tax / zero service-charge / zero-discount policy.
func PaymentDataFromOrder(o *OrderData) PaymentData {
	return PaymentData{
		TotalAmount:    o.TotalAmount,
		PaymentMethods: []string{"카드", "현금", "모바일"},
		OrderSummary:   o.Items,
		TaxAmount:      float64(o.TotalAmount) * 0.1,
		ServiceCharge:  0,
		DiscountAmount: 0,
	}
}
