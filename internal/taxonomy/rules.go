package taxonomy

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"bilancio/internal/core"
)

// DecodeRules reads a rule-override file: a JSON object mapping category id
// strings to ordered phrase lists. Keys that do not name a known category
// are dropped with a warning; this is deliberately non-fatal so that a rule
// file written against a newer taxonomy still imports the keys it can.
//
// The result always contains an entry for every known category, so encoding
// it back yields the full table shape.
func DecodeRules(r io.Reader) (Overrides, error) {
	var raw map[string][]string
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}

	rules := NewOverrides()
	for key, phrases := range raw {
		id := core.CategoryID(key)
		if !id.Valid() {
			slog.Warn("Ignoring unknown category in rule file", "category", key, "phrases", len(phrases))
			continue
		}
		rules[id] = phrases
	}
	return rules, nil
}

// EncodeRules writes the full override table, empty lists included, in the
// same object shape DecodeRules accepts.
func EncodeRules(w io.Writer, rules Overrides) error {
	out := make(map[string][]string, len(core.AllCategoryIDs))
	for _, id := range core.AllCategoryIDs {
		phrases := rules[id]
		if phrases == nil {
			phrases = []string{}
		}
		out[string(id)] = phrases
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode rules: %w", err)
	}
	return nil
}
