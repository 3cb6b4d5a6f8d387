package constants

type FoodCategory string

const (
	Pizza        FoodCategory = "pizza"
	Dessert      FoodCategory = "dessert"
	Snacks       FoodCategory = "snacks"
	Refreshments FoodCategory = "refreshments"
	Drinks       FoodCategory = "drinks"
	Meal         FoodCategory = "meal"
	OtherFood    FoodCategory = "other"
)

var allFoodCategories = []FoodCategory{
	Pizza,
	Dessert,
	Snacks,
	Refreshments,
	Drinks,
	Meal,
	OtherFood,
}

// AllFoodCategories returns the closed set of categories in prompt order.
func AllFoodCategories() []FoodCategory {
	out := make([]FoodCategory, len(allFoodCategories))
	copy(out, allFoodCategories)
	return out
}

func FoodCategoriesAsStrings() []string {
	result := make([]string, len(allFoodCategories))
	for i, cat := range allFoodCategories {
		result[i] = string(cat)
	}
	return result
}

// ParseFoodCategory matches input exactly (case-sensitive, no trimming).
// Anything outside the enum is rejected rather than mapped to OtherFood.
func ParseFoodCategory(input string) (FoodCategory, bool) {
	for _, cat := range allFoodCategories {
		if input == string(cat) {
			return cat, true
		}
	}
	return "", false
}
