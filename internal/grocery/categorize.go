// Package grocery guesses a shelf category for a product from its name.
package grocery

import "strings"

// DefaultCategory is used when nothing in the name is recognised.
const DefaultCategory = "Other"

// Categories lists every category Categorize can return, in aisle order.
var Categories = []string{
	"Fruit & Veg", "Dairy & Eggs", "Meat & Fish", "Bakery", "Food Cupboard",
	"Frozen", "Drinks", "Snacks & Sweets", "Household", "Health & Beauty", DefaultCategory,
}

// Categorize returns the category for a product name. Exact names are
// checked first, then keywords in order, longest phrases first.
func Categorize(productName string) string {
	name := strings.ToLower(strings.Join(strings.Fields(productName), " "))
	if name == "" {
		return DefaultCategory
	}
	if cat, ok := exactNames[name]; ok {
		return cat
	}
	for _, k := range keywords {
		if strings.Contains(name, k.word) {
			return k.category
		}
	}
	return DefaultCategory
}

var exactNames = map[string]string{
	"apples": "Fruit & Veg", "bananas": "Fruit & Veg", "carrots": "Fruit & Veg",
	"courgette": "Fruit & Veg", "aubergine": "Fruit & Veg", "swede": "Fruit & Veg",
	"leeks": "Fruit & Veg", "parsnips": "Fruit & Veg", "satsumas": "Fruit & Veg",
	"rocket": "Fruit & Veg", "spring onions": "Fruit & Veg", "potatoes": "Fruit & Veg",

	"milk": "Dairy & Eggs", "eggs": "Dairy & Eggs", "butter": "Dairy & Eggs",
	"cheddar": "Dairy & Eggs", "creme fraiche": "Dairy & Eggs", "double cream": "Dairy & Eggs",

	"mince": "Meat & Fish", "gammon": "Meat & Fish", "kippers": "Meat & Fish",
	"haddock": "Meat & Fish", "cod": "Meat & Fish", "prawns": "Meat & Fish",

	"bread": "Bakery", "crumpets": "Bakery", "teacakes": "Bakery", "baps": "Bakery",

	"flour": "Food Cupboard", "rice": "Food Cupboard", "pasta": "Food Cupboard",
	"baked beans": "Food Cupboard", "porridge oats": "Food Cupboard", "marmite": "Food Cupboard",
	"gravy granules": "Food Cupboard",

	"oven chips": "Frozen", "fish fingers": "Frozen", "frozen peas": "Frozen",

	"tea": "Drinks", "squash": "Drinks", "coffee": "Drinks", "lemonade": "Drinks",

	"crisps": "Snacks & Sweets", "biscuits": "Snacks & Sweets", "flapjack": "Snacks & Sweets",

	"bin bags": "Household", "washing up liquid": "Household", "kitchen roll": "Household",

	"shampoo": "Health & Beauty", "toothpaste": "Health & Beauty", "paracetamol": "Health & Beauty",
}

type keyword struct {
	word     string
	category string
}

// Longer, more specific phrases come before the single words they contain.
var keywords = []keyword{
	{"ice cream", "Frozen"},
	{"ice lolly", "Frozen"},
	{"frozen", "Frozen"},

	{"oat milk", "Dairy & Eggs"},
	{"soya milk", "Dairy & Eggs"},
	{"peanut butter", "Food Cupboard"},
	{"coconut milk", "Food Cupboard"},
	{"chocolate milk", "Drinks"},
	{"fish cake", "Meat & Fish"},

	{"chicken", "Meat & Fish"},
	{"beef", "Meat & Fish"},
	{"pork", "Meat & Fish"},
	{"lamb", "Meat & Fish"},
	{"bacon", "Meat & Fish"},
	{"sausage", "Meat & Fish"},
	{"salmon", "Meat & Fish"},
	{"tuna", "Meat & Fish"},

	{"yoghurt", "Dairy & Eggs"},
	{"yogurt", "Dairy & Eggs"},
	{"cheese", "Dairy & Eggs"},
	{"cream", "Dairy & Eggs"},
	{"milk", "Dairy & Eggs"},
	{"egg", "Dairy & Eggs"},

	{"bread", "Bakery"},
	{"loaf", "Bakery"},
	{"roll", "Bakery"},
	{"bagel", "Bakery"},
	{"wrap", "Bakery"},
	{"muffin", "Bakery"},

	{"crisp", "Snacks & Sweets"},
	{"biscuit", "Snacks & Sweets"},
	{"chocolate", "Snacks & Sweets"},
	{"sweets", "Snacks & Sweets"},
	{"cereal bar", "Snacks & Sweets"},

	{"juice", "Drinks"},
	{"water", "Drinks"},
	{"cola", "Drinks"},
	{"smoothie", "Drinks"},
	{"coffee", "Drinks"},

	{"cereal", "Food Cupboard"},
	{"oats", "Food Cupboard"},
	{"beans", "Food Cupboard"},
	{"soup", "Food Cupboard"},
	{"sauce", "Food Cupboard"},
	{"noodle", "Food Cupboard"},
	{"stock", "Food Cupboard"},
	{"jam", "Food Cupboard"},
	{"oil", "Food Cupboard"},

	{"apple", "Fruit & Veg"},
	{"banana", "Fruit & Veg"},
	{"berries", "Fruit & Veg"},
	{"grape", "Fruit & Veg"},
	{"tomato", "Fruit & Veg"},
	{"potato", "Fruit & Veg"},
	{"onion", "Fruit & Veg"},
	{"pepper", "Fruit & Veg"},
	{"salad", "Fruit & Veg"},
	{"spinach", "Fruit & Veg"},
	{"broccoli", "Fruit & Veg"},

	{"detergent", "Household"},
	{"bleach", "Household"},
	{"toilet roll", "Household"},
	{"foil", "Household"},

	{"shower gel", "Health & Beauty"},
	{"deodorant", "Health & Beauty"},
	{"soap", "Health & Beauty"},
}
