package taxonomy

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"bilancio/internal/core"
)

func TestDecodeRulesDropsUnknownKeys(t *testing.T) {
	in := `{
		"Groceries": ["volg", "farmer market"],
		"Lottery": ["swisslos"],
		"Investment": []
	}`

	rules, err := DecodeRules(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := rules[core.CategoryGroceries]; len(got) != 2 || got[0] != "volg" {
		t.Fatalf("expected groceries phrases to survive, got %v", got)
	}
	if _, ok := rules[core.CategoryID("Lottery")]; ok {
		t.Fatal("unknown key must be dropped")
	}
	// Every known category is present even when the file omits it.
	for _, id := range core.AllCategoryIDs {
		if _, ok := rules[id]; !ok {
			t.Fatalf("category %q missing from decoded rules", id)
		}
	}
}

func TestDecodeRulesRejectsMalformedJSON(t *testing.T) {
	if _, err := DecodeRules(strings.NewReader("{not json")); err == nil {
		t.Fatal("expected error for malformed input")
	}
}

func TestEncodeRulesRoundTrip(t *testing.T) {
	rules := NewOverrides()
	rules[core.CategoryTravel] = []string{"tui", "kuoni"}

	var buf bytes.Buffer
	if err := EncodeRules(&buf, rules); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out map[string][]string
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if len(out) != len(core.AllCategoryIDs) {
		t.Fatalf("export must include every category, got %d keys", len(out))
	}
	if got := out["Travel"]; len(got) != 2 || got[1] != "kuoni" {
		t.Fatalf("expected travel phrases in order, got %v", got)
	}
	if got, ok := out["Rent"]; !ok || got == nil || len(got) != 0 {
		t.Fatalf("categories without phrases must export as empty lists, got %v", got)
	}

	back, err := DecodeRules(&buf)
	if err != nil {
		t.Fatalf("re-import failed: %v", err)
	}
	if got := back[core.CategoryTravel]; len(got) != 2 || got[0] != "tui" {
		t.Fatalf("round trip lost phrases: %v", got)
	}
}
