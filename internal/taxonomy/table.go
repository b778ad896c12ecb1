// Package taxonomy holds the built-in category rule table and the merge
// logic for user-supplied phrase overrides.
//
// The table is process-wide static configuration: it is built once and never
// mutated. Overrides are layered on via WithOverrides, which derives a fresh
// table per call so that repeated classification runs never accumulate
// phrases into the defaults.
package taxonomy

import "bilancio/internal/core"

// Table maps category ids to their taxonomy entries. Iteration for match
// precedence always goes through core.AllCategoryIDs, never over the map.
type Table map[core.CategoryID]core.Category

// Default is the built-in rule table. Treat it as read-only.
var Default = Table{
	core.CategoryRent: {
		DisplayName:  "Rent",
		Matches:      []string{"rent", "miete", "loyer"},
		Area:         core.AreaHousing,
		SpendingType: core.SpendingNeed,
		Label:        "🏠",
	},
	core.CategoryUtilities: {
		DisplayName:  "Utilities",
		Matches:      []string{"ewz", "energie", "swisscom", "sunrise", "salt mobile", "serafe"},
		Area:         core.AreaHousing,
		SpendingType: core.SpendingNeed,
		Label:        "💡",
	},
	core.CategoryHouseInsurance: {
		DisplayName:  "House Insurance",
		Matches:      []string{"hausrat", "mobiliar", "haushaltversicherung"},
		Area:         core.AreaHousing,
		SpendingType: core.SpendingNeed,
		Label:        "🛡️",
	},
	core.CategoryGroceries: {
		DisplayName:  "Groceries",
		Matches:      []string{"migros", "coop", "denner", "aldi", "lidl", "spar"},
		Area:         core.AreaFood,
		SpendingType: core.SpendingNeed,
		Label:        "🛒",
	},
	core.CategoryEatingOut: {
		DisplayName:  "Eating Out",
		Matches:      []string{"restaurant", "pizzeria", "takeaway", "kebab", "mcdonald", "uber eats"},
		Area:         core.AreaFood,
		SpendingType: core.SpendingWant,
		Label:        "🍕",
	},
	core.CategoryHealthInsurance: {
		DisplayName:  "Health Insurance",
		Matches:      []string{"krankenkasse", "helsana", "sanitas", "assura"},
		Area:         core.AreaHealth,
		SpendingType: core.SpendingNeed,
		Label:        "⚕️",
	},
	core.CategoryMedication: {
		DisplayName:  "Medication",
		Matches:      []string{"apotheke", "pharmacie", "amavita"},
		Area:         core.AreaHealth,
		SpendingType: core.SpendingNeed,
		Label:        "💊",
	},
	core.CategoryDoctors: {
		DisplayName:  "Doctors",
		Matches:      []string{"arzt", "praxis", "zahnarzt", "hirslanden"},
		Area:         core.AreaHealth,
		SpendingType: core.SpendingNeed,
		Label:        "🩺",
	},
	core.CategoryPublicTransport: {
		DisplayName:  "Public Transport",
		Matches:      []string{"sbb", "zvv", "vbz", "postauto"},
		Area:         core.AreaTransportation,
		SpendingType: core.SpendingNeed,
		Label:        "🚆",
	},
	core.CategoryVehicle: {
		DisplayName:  "Vehicle",
		Matches:      []string{"garage", "tankstelle", "parking", "mobility"},
		Area:         core.AreaTransportation,
		SpendingType: core.SpendingNeed,
		Label:        "🚗",
	},
	core.CategoryClothing: {
		DisplayName:  "Clothing",
		Matches:      []string{"zalando", "h&m", "c&a", "decathlon"},
		Area:         core.AreaShopping,
		SpendingType: core.SpendingWant,
		Label:        "👕",
	},
	core.CategoryBarber: {
		DisplayName:  "Barber",
		Matches:      []string{"coiffeur", "barber", "barbier"},
		Area:         core.AreaShopping,
		SpendingType: core.SpendingWant,
		Label:        "💈",
	},
	core.CategoryGifts: {
		DisplayName:  "Gifts",
		Matches:      []string{"geschenk", "gift", "blumen"},
		Area:         core.AreaShopping,
		SpendingType: core.SpendingWant,
		Label:        "🎁",
	},
	core.CategoryGoingOut: {
		DisplayName:  "Going Out",
		Matches:      []string{"bar ", "club", "kino", "cinema", "theater"},
		Area:         core.AreaEntertainment,
		SpendingType: core.SpendingWant,
		Label:        "🍸",
	},
	core.CategoryTravel: {
		DisplayName:  "Travel",
		Matches:      []string{"hotel", "airbnb", "booking.com", "easyjet", "lufthansa"},
		Area:         core.AreaEntertainment,
		SpendingType: core.SpendingWant,
		Label:        "✈️",
	},
	core.CategoryInvestment: {
		DisplayName:  "Investment",
		Matches:      []string{"pillar3a", "saxo", "vanguard", "etf"},
		Area:         core.AreaInvestment,
		SpendingType: core.SpendingSaving,
		Label:        "📈",
	},
	// Fallback entry: no phrases, everything unmatched lands here.
	core.CategoryUncategorized: {
		DisplayName: "Uncategorized",
		Matches:     nil,
		Area:        core.AreaUncategorized,
		Label:       "❓",
	},
}

// Overrides maps a category id to additional match phrases supplied by the
// user. Phrase order within a category is preserved.
type Overrides map[core.CategoryID][]string

// NewOverrides returns an override table with an empty phrase list for every
// known category, the shape the rule-file export serializes.
func NewOverrides() Overrides {
	o := make(Overrides, len(core.AllCategoryIDs))
	for _, id := range core.AllCategoryIDs {
		o[id] = []string{}
	}
	return o
}

// WithOverrides derives a new table whose match lists are the base phrases
// followed by the override phrases. The base table is never mutated and the
// returned table shares no phrase slices with it, so repeated calls always
// start from pristine defaults. Duplicates are kept as-is.
func WithOverrides(base Table, overrides Overrides) Table {
	merged := make(Table, len(base))
	for id, cat := range base {
		extra := overrides[id]
		if len(extra) == 0 {
			merged[id] = cat
			continue
		}
		matches := make([]string, 0, len(cat.Matches)+len(extra))
		matches = append(matches, cat.Matches...)
		matches = append(matches, extra...)
		cat.Matches = matches
		merged[id] = cat
	}
	return merged
}

// AreaCategories returns the ids of every category belonging to the given
// area, in declaration order. This is the list a drill-down view is
// populated from.
func AreaCategories(area core.AreaID) []core.CategoryID {
	var out []core.CategoryID
	for _, id := range core.AllCategoryIDs {
		if Default[id].Area == area {
			out = append(out, id)
		}
	}
	return out
}

// CategoryArea returns the parent area for a category id. Unknown ids map
// to the uncategorized area.
func CategoryArea(id core.CategoryID) core.AreaID {
	if cat, ok := Default[id]; ok {
		return cat.Area
	}
	return core.AreaUncategorized
}

// CategorySpendingType returns the Need/Want/Saving tag for a category id,
// or the empty string when the category carries none.
func CategorySpendingType(id core.CategoryID) core.SpendingType {
	return Default[id].SpendingType
}
