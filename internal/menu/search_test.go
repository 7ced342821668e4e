package menu

import "testing"

func TestSearchExactNameTakesPriority(t *testing.T) {
	cat, err := New(testDoc())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	items, total := cat.Search("불고기버거", "", true, 10)
	if total != 1 || len(items) != 1 || items[0].Name != "불고기버거" {
		t.Fatalf("Search(불고기버거) = %+v, total=%d", items, total)
	}
}

func TestSearchKeywordIndexMatchesDescription(t *testing.T) {
	cat, err := New(testDoc())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	items, _ := cat.Search("달콤한", "", true, 10)
	if len(items) != 1 || items[0].Name != "불고기버거" {
		t.Fatalf("Search(달콤한) = %+v, want [불고기버거]", items)
	}
}

func TestSearchOrdersByCategoryThenName(t *testing.T) {
	cat, err := New(testDoc())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	items, _ := cat.Search("버거", "", true, 10)
	if len(items) != 2 {
		t.Fatalf("Search(버거) returned %d items, want 2", len(items))
	}
	if items[0].Name != "불고기버거" || items[1].Name != "치즈버거" {
		t.Fatalf("Search(버거) order = %v, want [불고기버거 치즈버거]", names(items))
	}
}

func TestSearchLimitAppliedAfterOrdering(t *testing.T) {
	cat, err := New(testDoc())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	items, total := cat.Search("버거", "", true, 1)
	if total != 2 {
		t.Fatalf("total = %d, want 2", total)
	}
	if len(items) != 1 || items[0].Name != "불고기버거" {
		t.Fatalf("limited Search = %+v, want [불고기버거]", items)
	}
}

func TestSearchExcludesUnavailableWhenRequested(t *testing.T) {
	cat, err := New(testDoc())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := cat.SetAvailability("치즈버거", false); err != nil {
		t.Fatalf("SetAvailability: %v", err)
	}
	items, _ := cat.Search("버거", "", true, 10)
	if len(items) != 1 || items[0].Name != "불고기버거" {
		t.Fatalf("Search excluding unavailable = %+v, want [불고기버거]", items)
	}
}

func names(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}
