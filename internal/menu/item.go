// Package menu implements the Menu Catalog (spec §4.1): the read-mostly
// collection of orderable items, loaded from a YAML document and kept fresh
// by a background file watcher. Reads are lock-protected and safe for
// concurrent callers; every mutation (availability toggles, hot reloads)
// swaps in a freshly built snapshot rather than editing one in place.
package menu

import "fmt"

// Item is one orderable menu entry.
type Item struct {
	Name        string
	Category    string
	Description string
	BasePrice   int64
	Options     []string
	Available   bool
}

// PriceFor resolves Item's price for a chosen option set: the base price
// plus any set surcharge keyed by the resolved order-type (options["type"])
// and any option surcharge keyed by each chosen option value (SPEC_FULL
// §3.2). The set surcharge is keyed by the customer's selected order type,
// not Item's static catalog Category, since a 단품 item ordered as a 세트
// still has Category "단품". OrderLine.UnitPrice snapshots this resolved
// value at the time a line is added.
func (it Item) PriceFor(options map[string]string, setPricing, optionPricing map[string]int64) int64 {
	total := it.BasePrice
	if surcharge, ok := setPricing[options["type"]]; ok {
		total += surcharge
	}
	for _, value := range options {
		if surcharge, ok := optionPricing[value]; ok {
			total += surcharge
		}
	}
	return total
}

// hasOption reports whether value is one of Item's permitted option values.
func (it Item) hasOption(value string) bool {
	for _, opt := range it.Options {
		if opt == value {
			return true
		}
	}
	return false
}

// Restaurant carries the display-only storefront details recovered from
// original_source's config (SPEC_FULL §3.1). It has no behavioral contract;
// it is surfaced verbatim by /health and /api/system/status.
type Restaurant struct {
	Name          string
	Address       string
	Phone         string
	BusinessHours string
}

// ErrItemNotFound is wrapped into validation failures that name a menu item
// absent from the catalog.
type ErrItemNotFound struct {
	Name string
}

func (e *ErrItemNotFound) Error() string {
	return fmt.Sprintf("menu item not found: %s", e.Name)
}
