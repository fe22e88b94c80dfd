package planner

import (
	"github.com/google/generative-ai-go/genai"

	"nutrision/internal/recipe"
)

func recipeSchema() *genai.Schema {
	prices := make(map[string]*genai.Schema, len(recipe.Supermarkets))
	for _, store := range recipe.Supermarkets {
		prices[string(store)] = &genai.Schema{Type: genai.TypeNumber}
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":       {Type: genai.TypeString},
			"description": {Type: genai.TypeString},
			"protein":     {Type: genai.TypeString},
			"starch":      {Type: genai.TypeString},
			"vegetable":   {Type: genai.TypeString},
			"ingredients": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"item":     {Type: genai.TypeString},
						"quantity": {Type: genai.TypeString},
						"category": {Type: genai.TypeString},
					},
					Required: []string{"item", "quantity", "category"},
				},
			},
			"instructions":            {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"prepTimeMinutes":         {Type: genai.TypeInteger},
			"cookTimeMinutes":         {Type: genai.TypeInteger},
			"calories":                {Type: genai.TypeInteger},
			"isPremiumVideoAvailable": {Type: genai.TypeBoolean},
			"priceComparison": {
				Type:       genai.TypeObject,
				Properties: prices,
			},
		},
		Required: []string{
			"title", "description", "ingredients", "instructions",
			"prepTimeMinutes", "cookTimeMinutes", "calories", "priceComparison",
		},
	}
}

func variantsSchema() *genai.Schema {
	properties := make(map[string]*genai.Schema, len(recipe.DietModes))
	required := make([]string, 0, len(recipe.DietModes))
	for _, mode := range recipe.DietModes {
		properties[string(mode)] = recipeSchema()
		required = append(required, string(mode))
	}
	return &genai.Schema{Type: genai.TypeObject, Properties: properties, Required: required}
}

// weeklyPlanSchema constrains the model to an array of days, each holding
// all four diet variants of the three meals.
func weeklyPlanSchema() *genai.Schema {
	day := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"day": {Type: genai.TypeString},
		},
		Required: []string{"day"},
	}
	for _, slot := range recipe.MealSlots {
		day.Properties[string(slot)] = variantsSchema()
		day.Required = append(day.Required, string(slot))
	}

	return &genai.Schema{Type: genai.TypeArray, Items: day}
}
