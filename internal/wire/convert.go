package wire

import (
	"time"

	"github.com/melpes/voicekiosk/internal/errs"
	"github.com/melpes/voicekiosk/internal/order"
)

// FromOrder projects o into its wire schema (spec §6 OrderData). A nil
// order yields nil; an empty order yields a non-nil OrderData with an
// empty Items slice.
func FromOrder(o *order.Order) *OrderData {
	if o == nil {
		return nil
	}

	items := make([]OrderItem, 0, len(o.Lines))
	for _, l := range o.Lines {
		items = append(items, OrderItem{
			ItemID:     l.ID,
			Name:       l.Name,
			Category:   l.Category,
			Quantity:   l.Quantity,
			Price:      l.UnitPrice,
			Options:    l.Options,
			TotalPrice: l.Total(),
		})
	}

	orderID := o.ID
	return &OrderData{
		OrderID:              &orderID,
		Items:                items,
		TotalAmount:          o.TotalAmount(),
		Status:               string(o.Status),
		RequiresConfirmation: o.Payment == order.PaymentProcessing,
		ItemCount:            o.ItemCount(),
		CreatedAt:            isoMicro(o.CreatedAt),
		UpdatedAt:            isoMicro(o.UpdatedAt),
	}
}

// FromClassifiedError projects ce into its wire schema (spec §6 ErrorInfo).
func FromClassifiedError(ce *errs.ClassifiedError) *ErrorInfo {
	if ce == nil {
		return nil
	}
	return &ErrorInfo{
		ErrorCode:       string(ce.Kind),
		ErrorMessage:    ce.Message,
		RecoveryActions: append([]string(nil), ce.Recovery...),
		Timestamp:       isoMicro(time.Now()),
	}
}
