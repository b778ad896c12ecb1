package core

// CategoryID identifies one entry of the closed spending taxonomy.
// The id doubles as the display name in rule files and API payloads.
type CategoryID string

// AreaID is the top-level spending grouping a category belongs to.
type AreaID string

// SpendingType is the cross-cutting Need/Want/Saving tag. Categories
// without a tag are excluded from spending-type analytics.
type SpendingType string

const (
	SpendingNeed   SpendingType = "Needs"
	SpendingWant   SpendingType = "Wants"
	SpendingSaving SpendingType = "Savings"
)

const (
	AreaHousing        AreaID = "Housing"
	AreaFood           AreaID = "Food"
	AreaHealth         AreaID = "Health"
	AreaTransportation AreaID = "Transportation"
	AreaShopping       AreaID = "Shopping"
	AreaEntertainment  AreaID = "Entertainment"
	AreaInvestment     AreaID = "Investment"
	AreaUncategorized  AreaID = "Uncategorized"
)

const (
	CategoryRent            CategoryID = "Rent"
	CategoryUtilities       CategoryID = "Utilities"
	CategoryHouseInsurance  CategoryID = "House Insurance"
	CategoryGroceries       CategoryID = "Groceries"
	CategoryEatingOut       CategoryID = "Eating Out"
	CategoryHealthInsurance CategoryID = "Health Insurance"
	CategoryMedication      CategoryID = "Medication"
	CategoryDoctors         CategoryID = "Doctors"
	CategoryPublicTransport CategoryID = "Public Transport"
	CategoryVehicle         CategoryID = "Vehicle"
	CategoryClothing        CategoryID = "Clothing"
	CategoryBarber          CategoryID = "Barber"
	CategoryGifts           CategoryID = "Gifts"
	CategoryGoingOut        CategoryID = "Going Out"
	CategoryTravel          CategoryID = "Travel"
	CategoryInvestment      CategoryID = "Investment"
	CategoryUncategorized   CategoryID = "Uncategorized"
)

// AllCategoryIDs lists every category in declaration order. Match precedence
// during classification follows this order, so it is part of the contract,
// not a cosmetic choice.
var AllCategoryIDs = []CategoryID{
	CategoryRent,
	CategoryUtilities,
	CategoryHouseInsurance,
	CategoryGroceries,
	CategoryEatingOut,
	CategoryHealthInsurance,
	CategoryMedication,
	CategoryDoctors,
	CategoryPublicTransport,
	CategoryVehicle,
	CategoryClothing,
	CategoryBarber,
	CategoryGifts,
	CategoryGoingOut,
	CategoryTravel,
	CategoryInvestment,
	CategoryUncategorized,
}

// AllAreaIDs lists every area in declaration order.
var AllAreaIDs = []AreaID{
	AreaHousing,
	AreaFood,
	AreaHealth,
	AreaTransportation,
	AreaShopping,
	AreaEntertainment,
	AreaInvestment,
	AreaUncategorized,
}

// AllSpendingTypes lists the Need/Want/Saving tags in declaration order.
var AllSpendingTypes = []SpendingType{
	SpendingNeed,
	SpendingWant,
	SpendingSaving,
}

var validCategoryIDs = func() map[CategoryID]struct{} {
	m := make(map[CategoryID]struct{}, len(AllCategoryIDs))
	for _, id := range AllCategoryIDs {
		m[id] = struct{}{}
	}
	return m
}()

// Valid reports whether id belongs to the closed taxonomy.
func (id CategoryID) Valid() bool {
	_, ok := validCategoryIDs[id]
	return ok
}

// Category is one taxonomy entry: its rule body, its parent area and the
// optional spending-type tag.
type Category struct {
	DisplayName  string
	Matches      []string // lowercase-compared phrases, in precedence order
	Area         AreaID
	SpendingType SpendingType // empty when the category has no tag
	Label        string       // decorative, presentation only
}
