package recipe

import (
	"fmt"
	"net/url"
)

// Ingredient is a single line of a recipe. Quantity is expressed for 2
// portions and may embed several numbers ("2 x 150g").
type Ingredient struct {
	Item     string `json:"item" validate:"required"`
	Quantity string `json:"quantity" validate:"required"`
	Category string `json:"category" validate:"required"`
}

// Recipe is an immutable recipe record. Prices and quantities are expressed
// for 2 portions.
type Recipe struct {
	Title                   string          `json:"title" validate:"required"`
	Description             string          `json:"description"`
	Protein                 string          `json:"protein"`
	Starch                  string          `json:"starch"`
	Vegetable               string          `json:"vegetable"`
	ImageURL                string          `json:"imageUrl,omitempty"`
	Ingredients             []Ingredient    `json:"ingredients" validate:"dive"`
	Instructions            []string        `json:"instructions,omitempty"`
	PrepTimeMinutes         int             `json:"prepTimeMinutes" validate:"min=0"`
	CookTimeMinutes         int             `json:"cookTimeMinutes" validate:"min=0"`
	Calories                int             `json:"calories" validate:"min=0"`
	PriceComparison         PriceComparison `json:"priceComparison"`
	IsPremiumVideoAvailable bool            `json:"isPremiumVideoAvailable"`
}

const defaultImageSearch = "https://tse2.mm.bing.net/th?q=%s&w=1200&h=800&c=7&rs=1&p=0&dpr=2&pid=1.7&mkt=fr-CH&adlt=moderate"

// Image returns the custom image reference when set, else a search image
// derived from the title.
func (r Recipe) Image() string {
	if r.ImageURL != "" {
		return r.ImageURL
	}
	return fmt.Sprintf(defaultImageSearch, url.QueryEscape(r.Title+" cooked food high quality"))
}

// TotalTimeMinutes returns prep plus cook time.
func (r Recipe) TotalTimeMinutes() int {
	return r.PrepTimeMinutes + r.CookTimeMinutes
}

// Validate checks a single recipe, e.g. one extracted from a web page.
func (r Recipe) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}
	if err := r.PriceComparison.validate(); err != nil {
		return fmt.Errorf("%w: recipe %q: %v", ErrInvalidPlan, r.Title, err)
	}
	return nil
}
