package menu

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Catalog is the searchable, thread-safe collection of [Item]s plus the
// surcharge tables and display-only restaurant info loaded alongside them.
// All reads go through a snapshot taken under a read lock; rebuilds (on
// availability toggles or hot reload) replace the snapshot wholesale so
// readers never observe a half-updated index.
type Catalog struct {
	mu   sync.RWMutex
	snap *snapshot
}

// snapshot is the immutable state swapped in on every (re)build.
type snapshot struct {
	categories    []string
	items         map[string]Item // lower-cased name -> item
	byCategory    map[string][]Item
	restaurant    Restaurant
	setPricing    map[string]int64
	optionPricing map[string]int64
	index         *searchIndex
}

// Document is the parsed shape of the menu YAML source (see Load).
type Document struct {
	Restaurant struct {
		Name          string `yaml:"name"`
		Address       string `yaml:"address"`
		Phone         string `yaml:"phone"`
		BusinessHours string `yaml:"business_hours"`
	} `yaml:"restaurant"`
	Categories    []string `yaml:"categories"`
	SetPricing    map[string]int64 `yaml:"set_pricing"`
	OptionPricing map[string]int64 `yaml:"option_pricing"`
	MenuItems     map[string]struct {
		Category    string   `yaml:"category"`
		Price       int64    `yaml:"price"`
		Options     []string `yaml:"available_options"`
		Description string   `yaml:"description"`
		Available   *bool    `yaml:"is_available"`
	} `yaml:"menu_items"`
}

// New builds a Catalog from an already-decoded Document, validating that
// every item's category is declared (spec §4.1's load-time contract).
func New(doc Document) (*Catalog, error) {
	snap, err := buildSnapshot(doc)
	if err != nil {
		return nil, err
	}
	return &Catalog{snap: snap}, nil
}

func buildSnapshot(doc Document) (*snapshot, error) {
	if len(doc.MenuItems) == 0 {
		return nil, fmt.Errorf("menu: no menu items defined")
	}
	if len(doc.Categories) == 0 {
		return nil, fmt.Errorf("menu: no categories defined")
	}
	categorySet := make(map[string]bool, len(doc.Categories))
	for _, c := range doc.Categories {
		categorySet[c] = true
	}

	items := make(map[string]Item, len(doc.MenuItems))
	byCategory := make(map[string][]Item)
	for name, raw := range doc.MenuItems {
		if !categorySet[raw.Category] {
			return nil, fmt.Errorf("menu: item %q has undeclared category %q", name, raw.Category)
		}
		available := true
		if raw.Available != nil {
			available = *raw.Available
		}
		it := Item{
			Name:        name,
			Category:    raw.Category,
			Description: raw.Description,
			BasePrice:   raw.Price,
			Options:     append([]string(nil), raw.Options...),
			Available:   available,
		}
		items[lower(name)] = it
		byCategory[raw.Category] = append(byCategory[raw.Category], it)
	}
	for cat := range byCategory {
		sort.Slice(byCategory[cat], func(i, j int) bool { return byCategory[cat][i].Name < byCategory[cat][j].Name })
	}

	snap := &snapshot{
		categories: append([]string(nil), doc.Categories...),
		items:      items,
		byCategory: byCategory,
		restaurant: Restaurant{
			Name:          doc.Restaurant.Name,
			Address:       doc.Restaurant.Address,
			Phone:         doc.Restaurant.Phone,
			BusinessHours: doc.Restaurant.BusinessHours,
		},
		setPricing:    doc.SetPricing,
		optionPricing: doc.OptionPricing,
	}
	snap.index = buildSearchIndex(items)
	return snap, nil
}

// current returns the active snapshot under a read lock.
func (c *Catalog) current() *snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Get returns the item named name (case-insensitive), if any.
func (c *Catalog) Get(name string) (Item, bool) {
	snap := c.current()
	it, ok := snap.items[lower(name)]
	return it, ok
}

// ItemsByCategory returns every item in category, optionally filtered to
// available ones, ordered by name.
func (c *Catalog) ItemsByCategory(category string, availableOnly bool) []Item {
	snap := c.current()
	items := snap.byCategory[category]
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if availableOnly && !it.Available {
			continue
		}
		out = append(out, it)
	}
	return out
}

// Categories returns the declared category list, in document order.
func (c *Catalog) Categories() []string {
	snap := c.current()
	return append([]string(nil), snap.categories...)
}

// Restaurant returns the display-only storefront info.
func (c *Catalog) Restaurant() Restaurant {
	return c.current().restaurant
}

// PriceFor resolves item's price including set/option surcharges, as
// configured on this catalog (SPEC_FULL §3.2).
func (c *Catalog) PriceFor(it Item, options map[string]string) int64 {
	snap := c.current()
	return it.PriceFor(options, snap.setPricing, snap.optionPricing)
}

// Validate reports whether name resolves to an available item and every
// option value in options is permitted for it (spec §4.1 validation rules).
// Quantity bounds are the caller's (Order Aggregate's) responsibility.
func (c *Catalog) Validate(name string, options map[string]string) error {
	it, ok := c.Get(name)
	if !ok {
		return &ErrItemNotFound{Name: name}
	}
	if !it.Available {
		return fmt.Errorf("menu: item not available: %s", name)
	}
	for key, value := range options {
		if !it.hasOption(value) {
			return fmt.Errorf("menu: invalid option %s=%s for %s", key, value, name)
		}
	}
	return nil
}

// SetAvailability toggles name's availability and rebuilds the search index
// so a reload produces the same index a freshly loaded document would
// (the round-trip property required by spec §8).
func (c *Catalog) SetAvailability(name string, available bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.snap.items[lower(name)]
	if !ok {
		return &ErrItemNotFound{Name: name}
	}
	it.Available = available

	items := make(map[string]Item, len(c.snap.items))
	for k, v := range c.snap.items {
		items[k] = v
	}
	items[lower(name)] = it

	byCategory := make(map[string][]Item, len(c.snap.byCategory))
	for cat, list := range c.snap.byCategory {
		newList := make([]Item, len(list))
		for i, v := range list {
			if lower(v.Name) == lower(name) {
				v = it
			}
			newList[i] = v
		}
		byCategory[cat] = newList
	}

	next := *c.snap
	next.items = items
	next.byCategory = byCategory
	next.index = buildSearchIndex(items)
	c.snap = &next
	return nil
}

func lower(s string) string {
	return strings.ToLower(s)
}
