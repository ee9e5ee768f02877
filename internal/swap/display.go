package swap

import (
	"fmt"
	"strings"

	"github.com/dukerupert/groceryswap/internal/model"
	"github.com/shopspring/decimal"
)

// GradeLabel returns the display label for a Nutri-Score grade.
func GradeLabel(grade string) string {
	switch grade {
	case "a":
		return "A - Excellent"
	case "b":
		return "B - Good"
	case "c":
		return "C - Moderate"
	case "d":
		return "D - Low"
	case "e":
		return "E - Poor"
	}
	return "Unknown"
}

// NovaLabel returns the display label for a NOVA group.
func NovaLabel(nova *int) string {
	if nova == nil {
		return "Unknown"
	}
	switch *nova {
	case 1:
		return "1 - Unprocessed"
	case 2:
		return "2 - Processed Ingredients"
	case 3:
		return "3 - Processed"
	case 4:
		return "4 - Ultra-Processed"
	}
	return "Unknown"
}

type Level string

const (
	Green   Level = "green"
	Amber   Level = "amber"
	Red     Level = "red"
	Unknown Level = "unknown"
)

// Light is one nutrient's per-100g value and its level.
type Light struct {
	Value *string `json:"value"`
	Level Level   `json:"level"`
}

type TrafficLights struct {
	Sugars       Light `json:"sugars"`
	Salt         Light `json:"salt"`
	Fat          Light `json:"fat"`
	SaturatedFat Light `json:"saturated_fat"`
}

// Per-100g thresholds: at or below green is green, at or below amber is amber.
var (
	sugarsGreen, sugarsAmber = decimal.RequireFromString("5"), decimal.RequireFromString("22.5")
	saltGreen, saltAmber     = decimal.RequireFromString("0.3"), decimal.RequireFromString("1.5")
	fatGreen, fatAmber       = decimal.RequireFromString("3.0"), decimal.RequireFromString("17.5")
	satFatGreen, satFatAmber = decimal.RequireFromString("1.5"), decimal.RequireFromString("5.0")
)

func level(v decimal.NullDecimal, green, amber decimal.Decimal) Light {
	if !v.Valid {
		return Light{Level: Unknown}
	}
	s := v.Decimal.String()
	switch {
	case v.Decimal.LessThanOrEqual(green):
		return Light{Value: &s, Level: Green}
	case v.Decimal.LessThanOrEqual(amber):
		return Light{Value: &s, Level: Amber}
	}
	return Light{Value: &s, Level: Red}
}

func Lights(p model.CatalogProduct) TrafficLights {
	return TrafficLights{
		Sugars:       level(p.Sugars100g, sugarsGreen, sugarsAmber),
		Salt:         level(p.Salt100g, saltGreen, saltAmber),
		Fat:          level(p.Fat100g, fatGreen, fatAmber),
		SaturatedFat: level(p.SaturatedFat100g, satFatGreen, satFatAmber),
	}
}

type BestAlternative struct {
	Name       string `json:"name"`
	Nutriscore string `json:"nutriscore"`
	Nova       *int   `json:"nova"`
}

// Improvement summarizes how much better the top alternative is than the
// source.
type Improvement struct {
	Message               string           `json:"message"`
	BestAlternative       *BestAlternative `json:"best_alternative,omitempty"`
	NutriscoreImprovement *string          `json:"nutriscore_improvement,omitempty"`
	NovaImprovement       *string          `json:"nova_improvement,omitempty"`
}

// Summarize describes alternatives, which must already be ranked.
func Summarize(source model.CatalogProduct, alternatives []model.CatalogProduct) Improvement {
	if len(alternatives) == 0 {
		return Improvement{Message: "No healthier alternatives found"}
	}
	best := alternatives[0]
	return Improvement{
		Message: fmt.Sprintf("Found %d healthier alternatives", len(alternatives)),
		BestAlternative: &BestAlternative{
			Name:       best.ProductName,
			Nutriscore: strings.ToUpper(best.NutriscoreGrade),
			Nova:       best.NovaGroup,
		},
		NutriscoreImprovement: gradeImprovement(source, best),
		NovaImprovement:       novaImprovement(source, best),
	}
}

func gradeImprovement(source, alt model.CatalogProduct) *string {
	from, to := GradeRank(source.NutriscoreGrade), GradeRank(alt.NutriscoreGrade)
	if from > 5 || to > 5 {
		return nil
	}
	s := "Same grade"
	if d := from - to; d > 0 {
		s = fmt.Sprintf("+%d grade%s", d, plural(d))
	}
	return &s
}

func novaImprovement(source, alt model.CatalogProduct) *string {
	if source.NovaGroup == nil || alt.NovaGroup == nil {
		return nil
	}
	s := "Same level"
	if d := *source.NovaGroup - *alt.NovaGroup; d > 0 {
		s = fmt.Sprintf("-%d processing level%s", d, plural(d))
	}
	return &s
}

func plural(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}
