package grocery

import "testing"

func TestCategorizeExactName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"milk", "Dairy & Eggs"},
		{"Courgette", "Fruit & Veg"},
		{"  baked   beans ", "Food Cupboard"},
		{"fish fingers", "Frozen"},
		{"crisps", "Snacks & Sweets"},
		{"squash", "Drinks"},
		{"kitchen roll", "Household"},
		{"paracetamol", "Health & Beauty"},
	}
	for _, tt := range tests {
		if got := Categorize(tt.input); got != tt.want {
			t.Errorf("Categorize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCategorizeKeyword(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Hovis Wholemeal Bread 800g", "Bakery"},
		{"Ben & Jerry's Cookie Dough Ice Cream", "Frozen"},
		{"Oatly Oat Milk Barista", "Dairy & Eggs"},
		{"Sun-Pat Peanut Butter Crunchy", "Food Cupboard"},
		{"Walkers Ready Salted Crisps", "Snacks & Sweets"},
		{"Tropicana Orange Juice", "Drinks"},
		{"Free Range Chicken Thighs", "Meat & Fish"},
		{"Greek Style Yoghurt", "Dairy & Eggs"},
		{"Cherry Tomatoes", "Fruit & Veg"},
	}
	for _, tt := range tests {
		if got := Categorize(tt.input); got != tt.want {
			t.Errorf("Categorize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCategorizeFallback(t *testing.T) {
	for _, input := range []string{"", "   ", "birthday candles"} {
		if got := Categorize(input); got != DefaultCategory {
			t.Errorf("Categorize(%q) = %q, want %q", input, got, DefaultCategory)
		}
	}
}

func TestCategoriesCoverResults(t *testing.T) {
	known := make(map[string]bool, len(Categories))
	for _, c := range Categories {
		known[c] = true
	}
	for name, cat := range exactNames {
		if !known[cat] {
			t.Errorf("exact %q maps to unlisted category %q", name, cat)
		}
	}
	for _, k := range keywords {
		if !known[k.category] {
			t.Errorf("keyword %q maps to unlisted category %q", k.word, k.category)
		}
	}
}
