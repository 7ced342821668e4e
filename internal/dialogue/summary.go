package dialogue

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/melpes/voicekiosk/internal/menu"
	"github.com/melpes/voicekiosk/internal/order"
)

// formatGrouped renders n with thousands separators, e.g. 12500 -> "12,500".
func formatGrouped(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	digits := strconv.FormatInt(n, 10)

	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// typeOption returns a line's display option ("단품"/"세트"/"라지세트"),
// defaulting to "단품" when absent — spec §4.4.2's formatting rule.
func typeOption(options map[string]string) string {
	if t, ok := options["type"]; ok && t != "" {
		return t
	}
	return "단품"
}

// formatOrderSummary renders an order exactly per spec §4.4.2: one line
// per item (`- <name> <type> <qty>개 - <line_total,##0>원`), followed by a
// blank line and the grand total. This exact surface also feeds TTS.
func formatOrderSummary(o *order.Order) string {
	if o == nil || o.IsEmpty() {
		return "주문한 메뉴가 없습니다."
	}
	lines := make([]string, 0, len(o.Lines)+1)
	for _, l := range o.Lines {
		lines = append(lines, fmt.Sprintf("- %s %s %d개 - %s원", l.Name, typeOption(l.Options), l.Quantity, formatGrouped(l.Total())))
	}
	lines = append(lines, fmt.Sprintf("\n총 금액: %s원", formatGrouped(o.TotalAmount())))
	return strings.Join(lines, "\n")
}

// formatMenuListing renders the catalog's available items grouped by
// category, for the INQUIRY "메뉴" branch.
func formatMenuListing(cat *menu.Catalog) string {
	var b strings.Builder
	b.WriteString("메뉴 안내:\n")
	for _, category := range cat.Categories() {
		items := cat.ItemsByCategory(category, true)
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "[%s]\n", category)
		for _, it := range items {
			fmt.Fprintf(&b, "- %s: %s원\n", it.Name, formatGrouped(it.BasePrice))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// orderSuccessText composes the ORDER-intent success reply by enumerating
// each added line with its type option (spec §4.4, scenario 1).
func orderSuccessText(added []order.Line) string {
	details := make([]string, 0, len(added))
	for _, l := range added {
		details = append(details, fmt.Sprintf("%s %s %d개", l.Name, typeOption(l.Options), l.Quantity))
	}
	switch len(details) {
	case 0:
		return "메뉴가 주문에 추가되었습니다."
	case 1:
		return details[0] + "이(가) 주문에 추가되었습니다."
	default:
		return strings.Join(details, ", ") + "이(가) 주문에 추가되었습니다."
	}
}

// orderErrorText joins per-line failure messages, comma-separated.
func orderErrorText(messages []string) string {
	return strings.Join(messages, ", ")
}
