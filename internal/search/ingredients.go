package search

import "strings"

// ingredientCategories maps a coarse category name to its specific member
// ingredients. Used to expand ground-truth ingredient filters symmetrically
// with how query expansion turns "meat" into specific meats.
var ingredientCategories = map[string][]string{
	"meat": {
		"chicken",
		"beef",
		"pork",
		"lamb",
		"steak",
		"turkey",
		"salami",
		"ham",
		"bacon",
		"sausage",
		"duck",
		"mince",
	},
	"fish": {
		"salmon",
		"tuna",
		"cod",
		"hake",
		"bass",
		"trout",
		"sardine",
		"mackerel",
	},
	"seafood": {
		"shrimp",
		"prawn",
		"crab",
		"lobster",
		"mussel",
		"clam",
		"squid",
		"octopus",
	},
	"vegetable": {
		"carrot",
		"leek",
		"onion",
		"pepper",
		"broccoli",
		"cauliflower",
		"spinach",
		"cabbage",
		"zucchini",
		"aubergine",
		"eggplant",
		"potato",
		"tomato",
		"cucumber",
		"lettuce",
		"pea",
		"bean",
	},
}

// ExpandIngredient returns the case-folded ingredient name followed by any
// category synonyms. Names that are not category keys expand to themselves.
func ExpandIngredient(name string) []string {
	lower := strings.ToLower(name)
	return append([]string{lower}, ingredientCategories[lower]...)
}
