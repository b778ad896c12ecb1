package taxonomy

import (
	"testing"

	"bilancio/internal/core"
)

func TestDefaultCoversEveryCategory(t *testing.T) {
	for _, id := range core.AllCategoryIDs {
		if _, ok := Default[id]; !ok {
			t.Fatalf("category %q missing from default table", id)
		}
	}
	if len(Default[core.CategoryUncategorized].Matches) != 0 {
		t.Fatal("the fallback category must not have match phrases")
	}
}

func TestWithOverridesAppendsWithoutMutatingBase(t *testing.T) {
	baseLen := len(Default[core.CategoryGroceries].Matches)

	merged := WithOverrides(Default, Overrides{
		core.CategoryGroceries: {"volg", "migros"}, // duplicate on purpose
	})

	got := merged[core.CategoryGroceries].Matches
	if len(got) != baseLen+2 {
		t.Fatalf("expected %d phrases, got %d", baseLen+2, len(got))
	}
	if got[baseLen] != "volg" || got[baseLen+1] != "migros" {
		t.Fatalf("override phrases must be appended in order, got %v", got[baseLen:])
	}

	// The defaults stay pristine across calls.
	if len(Default[core.CategoryGroceries].Matches) != baseLen {
		t.Fatal("WithOverrides mutated the base table")
	}
	again := WithOverrides(Default, Overrides{core.CategoryGroceries: {"volg"}})
	if len(again[core.CategoryGroceries].Matches) != baseLen+1 {
		t.Fatal("phrases accumulated across WithOverrides calls")
	}
}

func TestWithOverridesLeavesUntouchedCategoriesAlone(t *testing.T) {
	merged := WithOverrides(Default, Overrides{core.CategoryRent: {"immobilien"}})
	if len(merged[core.CategoryTravel].Matches) != len(Default[core.CategoryTravel].Matches) {
		t.Fatal("categories without overrides must keep their base phrases")
	}
}

func TestAreaCategories(t *testing.T) {
	got := AreaCategories(core.AreaHousing)
	want := []core.CategoryID{core.CategoryRent, core.CategoryUtilities, core.CategoryHouseInsurance}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestCategoryAreaFallback(t *testing.T) {
	if CategoryArea(core.CategoryGroceries) != core.AreaFood {
		t.Fatal("Groceries should belong to Food")
	}
	if CategoryArea(core.CategoryID("Lottery")) != core.AreaUncategorized {
		t.Fatal("unknown ids should map to the uncategorized area")
	}
}
